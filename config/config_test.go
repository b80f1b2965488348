package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SayaAndy/photobox/config"
	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
logLevel: debug
listen: ":8080"
storage:
  bucketName: photos
  keyID: ${PHOTOBOX_TEST_KEY_ID}
db:
  type: sqlite3
  config:
    dsn: photobox.db
photobox:
  settings:
    history: true
    loop: false
    thumbs: true
    zoomable: false
  imageStyles:
    - name: thumbnail
      label: Thumbnail
      prefix: thumbnails/
  default:
    gallery: entity
  formatters:
    field_photos:
      imageStyle: thumbnail
      gallery: entity_field
      caption: title
      unsavedEntityId: draft
`

func TestInitConfig(t *testing.T) {
	t.Setenv("PHOTOBOX_TEST_KEY_ID", "key-123")

	cfg, err := config.InitConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("init config: %v", err)
	}

	if cfg.Storage.KeyID != "key-123" {
		t.Fatalf("environment variables should be expanded; got %q", cfg.Storage.KeyID)
	}

	wantSettings := photobox.GallerySettings{History: true, Loop: false, Thumbs: true, Zoomable: false}
	if diff := cmp.Diff(wantSettings, cfg.Photobox.Settings); diff != "" {
		t.Fatalf("unexpected settings (-want +got):\n%s", diff)
	}

	wantFormatter := photobox.FormatterSettings{
		ImageStyle:      "thumbnail",
		Gallery:         photobox.GroupEntityField,
		Caption:         photobox.CaptionTitle,
		UnsavedEntityID: "draft",
	}
	if diff := cmp.Diff(wantFormatter, cfg.Photobox.Formatters["field_photos"].Settings()); diff != "" {
		t.Fatalf("unexpected formatter settings (-want +got):\n%s", diff)
	}

	if cfg.PageCache.TTL != 15*time.Minute {
		t.Fatalf("page cache ttl should default to 15m; got %s", cfg.PageCache.TTL)
	}
	if cfg.Trigger.Rescan == "" {
		t.Fatalf("rescan schedule should have a default")
	}
}

func TestInitConfig_invalid(t *testing.T) {
	base := `
listen: ":8080"
storage:
  bucketName: photos
db:
  type: sqlite3
  config:
    dsn: photobox.db
`
	tests := map[string]string{
		"unknown gallery": base + `
photobox:
  default:
    gallery: page
`,
		"unknown caption": base + `
photobox:
  default:
    caption: description
`,
		"invalid field name": base + `
photobox:
  formatters:
    "Field Photos":
      gallery: field
`,
		"invalid unsaved id": base + `
photobox:
  default:
    unsavedEntityId: "New Page"
`,
		"invalid style name": base + `
photobox:
  imageStyles:
    - name: Big Style
      label: Big
      prefix: big/
`,
		"missing dsn": `
listen: ":8080"
storage:
  bucketName: photos
db:
  type: sqlite3
`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := config.InitConfig(writeConfig(t, content)); err == nil {
				t.Fatalf("config should be rejected")
			}
		})
	}
}

func TestInitConfig_missingFile(t *testing.T) {
	if _, err := config.InitConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file should fail")
	}
}
