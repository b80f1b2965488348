package templatemanager_test

import (
	"testing"
	"testing/fstest"

	"github.com/SayaAndy/photobox/internal/templatemanager"
)

var fsys = fstest.MapFS{
	"layouts/base.html": {Data: []byte(`<main>{{ block "content" . }}empty{{ end }}</main>`)},
	"pages/hello.html":  {Data: []byte(`{{ define "content" }}hello {{ .Name }}{{ end }}`)},
	"pages/tags.html":   {Data: []byte(`{{ join .Tags ", " }}`)},
}

func TestTemplateManager_Render(t *testing.T) {
	tm, err := templatemanager.NewTemplateManager(fsys, templatemanager.TemplateManagerTemplates{
		Name:  "base",
		Files: []string{"layouts/base.html"},
	})
	if err != nil {
		t.Fatalf("new template manager: %v", err)
	}

	got, err := tm.Render("base", map[string]string{"Name": "<b>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(got) != "<main>empty</main>" {
		t.Fatalf("unexpected base render: %q", got)
	}

	got, err = tm.Render("base", map[string]string{"Name": "<b>"}, "pages/hello.html")
	if err != nil {
		t.Fatalf("render with injected page: %v", err)
	}
	if string(got) != "<main>hello &lt;b&gt;</main>" {
		t.Fatalf("unexpected injected render: %q", got)
	}

	got, _ = tm.Render("base", nil)
	if string(got) != "<main>empty</main>" {
		t.Fatalf("injecting a page must not change the base template: %q", got)
	}
}

func TestTemplateManager_Add(t *testing.T) {
	tm, err := templatemanager.NewTemplateManager(fsys)
	if err != nil {
		t.Fatalf("new template manager: %v", err)
	}

	if err := tm.Add("empty"); err == nil {
		t.Fatalf("template without files should be rejected")
	}
	if err := tm.Add("missing", "pages/missing.html"); err == nil {
		t.Fatalf("missing file should be rejected")
	}
	if _, err := tm.Render("missing", nil); err == nil {
		t.Fatalf("unknown template should fail to render")
	}

	if err := tm.Add("tags", "pages/tags.html"); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := tm.Render("tags", map[string][]string{"Tags": {"sea", "otters"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(got) != "sea, otters" {
		t.Fatalf("unexpected render: %q", got)
	}
}
