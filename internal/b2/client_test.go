package b2

import (
	"testing"
	"time"

	"github.com/Backblaze/blazer/b2"
	"github.com/google/go-cmp/cmp"
)

func TestPageOf(t *testing.T) {
	uploaded := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		name  string
		attrs *b2.Attrs
		want  *Page
	}{
		"markdown without file info": {
			name:  "blog/lake-trip.md",
			attrs: &b2.Attrs{Status: b2.Uploaded, ContentType: "text/markdown", UploadTimestamp: uploaded},
			want:  &Page{Link: "blog/lake-trip", UploadedAt: uploaded},
		},
		"markdown with file info": {
			name: "blog/otters.md",
			attrs: &b2.Attrs{Status: b2.Uploaded, ContentType: "text/markdown; charset=utf-8", UploadTimestamp: uploaded,
				Info: map[string]string{"title": "Otters"}},
			want: &Page{Link: "blog/otters", UploadedAt: uploaded},
		},
		"markdown extension with generic type": {
			name:  "blog/hills.md",
			attrs: &b2.Attrs{Status: b2.Uploaded, ContentType: "application/octet-stream", UploadTimestamp: uploaded},
			want:  &Page{Link: "blog/hills", UploadedAt: uploaded},
		},
		"image": {
			name:  "full/2025/lake.jpg",
			attrs: &b2.Attrs{Status: b2.Uploaded, ContentType: "image/jpeg", UploadTimestamp: uploaded},
		},
		"hidden version": {
			name:  "blog/old.md",
			attrs: &b2.Attrs{Status: b2.Hider, ContentType: "text/markdown", UploadTimestamp: uploaded},
		},
		"unfinished upload": {
			name:  "blog/large.md",
			attrs: &b2.Attrs{Status: b2.Started, ContentType: "text/markdown"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := pageOf(tt.name, tt.attrs)
			if ok != (tt.want != nil) {
				t.Fatalf("expected page %v; got %v", tt.want != nil, ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected page (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPageOf_reuploadChangesTimestamp(t *testing.T) {
	first := &b2.Attrs{Status: b2.Uploaded, ContentType: "text/markdown", UploadTimestamp: time.Unix(1000, 0)}
	second := &b2.Attrs{Status: b2.Uploaded, ContentType: "text/markdown", UploadTimestamp: time.Unix(2000, 0)}

	before, ok := pageOf("blog/lake-trip.md", first)
	if !ok {
		t.Fatalf("page without file info should be tracked")
	}
	after, ok := pageOf("blog/lake-trip.md", second)
	if !ok {
		t.Fatalf("page without file info should be tracked")
	}
	if before.Link != after.Link || !after.UploadedAt.After(before.UploadedAt) {
		t.Fatalf("re-upload should keep the link and move the upload time; got %+v then %+v", before, after)
	}
}
