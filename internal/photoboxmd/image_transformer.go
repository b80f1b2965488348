package photoboxmd

import (
	"bytes"
	"log/slog"

	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// InlineImageField groups plain markdown images of a page as if they were
// values of one image field.
const InlineImageField = "body"

var inlineElementsKey = parser.NewContextKey()

// InlineImageTransformer wraps every bucket image of the page body into a
// photobox anchor. Images that already sit in a link and remote images are
// left alone.
type InlineImageTransformer struct {
	registry *photobox.Registry
}

func (t *InlineImageTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	images := make([]*ast.Image, 0)
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Link:
			return ast.WalkSkipChildren, nil
		case *ast.Image:
			if !isRemote(node.Destination) {
				images = append(images, node)
			}
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if len(images) == 0 {
		return
	}

	formatter, err := t.registry.Formatter(InlineImageField)
	if err != nil {
		slog.Warn("no formatter for inline images", slog.String("error", err.Error()))
		return
	}

	entityID, _ := pc.Get(entityKey).(string)
	items := photobox.FieldItems{EntityID: entityID, FieldName: InlineImageField}
	for _, img := range images {
		items.Images = append(items.Images, photobox.FieldImage{
			Path:  string(img.Destination),
			Title: string(img.Title),
			Alt:   altText(img, source),
		})
	}

	elements := formatter.ViewElements(items)
	for i, img := range images {
		el := elements[i]

		link := ast.NewLink()
		link.Destination = []byte(el.Href)
		link.SetAttributeString("class", []byte("photobox"))
		link.SetAttributeString("data-photobox-gallery", []byte(el.GalleryID))

		img.Destination = []byte(el.Src)
		img.Title = nil
		if el.Caption != "" {
			img.Title = []byte(el.Caption)
		}

		parent := img.Parent()
		parent.ReplaceChild(parent, img, link)
		link.AppendChild(link, img)
	}

	pc.Set(inlineElementsKey, elements)
}

func isRemote(destination []byte) bool {
	for _, prefix := range []string{"http://", "https://", "//", "data:"} {
		if bytes.HasPrefix(destination, []byte(prefix)) {
			return true
		}
	}
	return false
}

func altText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(source))
		case *ast.String:
			buf.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
