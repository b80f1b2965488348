package b2

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Backblaze/blazer/b2"
	"github.com/SayaAndy/photobox/config"
	"github.com/SayaAndy/photobox/internal/frontmatter"
	"github.com/SayaAndy/photobox/internal/photobox"
)

type B2Client struct {
	prefix string
	bucket *b2.Bucket
	b2cl   *b2.Client
}

var _ photobox.URLBuilder = &B2Client{}

func NewB2Client(ctx context.Context, cfg *config.B2Config) (*B2Client, error) {
	b2cl, err := b2.NewClient(ctx, cfg.KeyID, cfg.ApplicationKey)
	if err != nil {
		return nil, err
	}

	bucket, err := b2cl.Bucket(ctx, cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &B2Client{b2cl: b2cl, bucket: bucket, prefix: cfg.Prefix}, nil
}

type Page struct {
	Link       string
	UploadedAt time.Time
}

// Scan lists the uploaded markdown pages below prefix. Only object attributes
// are read, so the files themselves are not downloaded.
func (c *B2Client) Scan(ctx context.Context, prefix string) ([]*Page, error) {
	pages := []*Page{}

	iter := c.bucket.List(ctx, b2.ListPrefix(c.prefix+prefix))

	for iter.Next() {
		obj := iter.Object()
		if obj == nil {
			return nil, fmt.Errorf("failed to reference object in B2 bucket")
		}

		attrs, err := obj.Attrs(ctx)
		if err != nil {
			return nil, fmt.Errorf("get attributes for object: %w", err)
		}

		if page, ok := pageOf(strings.TrimPrefix(obj.Name(), c.prefix), attrs); ok {
			pages = append(pages, page)
		}
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("iterate over B2 objects: %w", err)
	}

	return pages, nil
}

// pageOf reports whether an object is a published markdown page. B2 file info
// is optional; pages uploaded without it are still tracked.
func pageOf(name string, attrs *b2.Attrs) (*Page, bool) {
	if attrs == nil || attrs.Status != b2.Uploaded {
		return nil, false
	}
	if !strings.Contains(attrs.ContentType, "text/markdown") && !strings.HasSuffix(name, ".md") {
		return nil, false
	}
	return &Page{
		Link:       strings.TrimSuffix(name, ".md"),
		UploadedAt: attrs.UploadTimestamp,
	}, true
}

func (c *B2Client) ReadAll(ctx context.Context, path string) ([]byte, error) {
	obj := c.bucket.Object(c.prefix + path)
	if obj == nil {
		return nil, fmt.Errorf("failed to reference object in B2 bucket")
	}

	reader := obj.NewReader(ctx)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	return content, nil
}

func (c *B2Client) ReadFrontmatter(ctx context.Context, path string) (metadata *frontmatter.Metadata, markdown []byte, err error) {
	contentBytes, err := c.ReadAll(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file for frontmatter parsing: %w", err)
	}

	return frontmatter.ParseFrontmatter(contentBytes)
}

// FileURL returns the public download URL of an image in the given style;
// the zero style addresses the original under "full/".
func (c *B2Client) FileURL(style photobox.ImageStyle, path string) string {
	prefix := style.Prefix
	if style.Name == "" {
		prefix = "full/"
	}
	return fmt.Sprintf("%s/file/%s/%s%s", c.bucket.BaseURL(), c.bucket.Name(), prefix, strings.TrimPrefix(path, "/"))
}
