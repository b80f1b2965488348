package templatemanager

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
)

type TemplateManager struct {
	fsys      fs.FS
	templates map[string]templateManagerRender
	mux       sync.RWMutex
}

type templateManagerRender struct {
	Main string
	Tmpl *template.Template
}

type TemplateManagerTemplates struct {
	Name  string
	Files []string
}

var templateFuncMap = template.FuncMap{
	"contains": strings.Contains,
	"join":     strings.Join,
	"replace":  strings.ReplaceAll,
}

// NewTemplateManager parses templates from fsys; file names are paths inside
// fsys, not on disk.
func NewTemplateManager(fsys fs.FS, templates ...TemplateManagerTemplates) (*TemplateManager, error) {
	tm := &TemplateManager{
		fsys:      fsys,
		templates: make(map[string]templateManagerRender),
	}

	for _, tmplStruct := range templates {
		if err := tm.Add(tmplStruct.Name, tmplStruct.Files...); err != nil {
			return nil, err
		}
	}

	return tm, nil
}

// Render executes the template registered as name. Extra files are parsed into
// a clone, so they may override blocks of the base template.
func (tm *TemplateManager) Render(name string, data any, files ...string) ([]byte, error) {
	tm.mux.RLock()
	tmpl, exists := tm.templates[name]
	tm.mux.RUnlock()
	if !exists {
		return nil, fmt.Errorf("template %s is not found", name)
	}

	// html/template refuses to clone a template that has been executed, so
	// the stored one is only ever executed through a clone.
	tempTmpl, err := tmpl.Tmpl.Clone()
	if err != nil {
		return nil, fmt.Errorf("couldn't clone existing template for rendering: %w", err)
	}
	if len(files) > 0 {
		tempTmpl, err = tempTmpl.ParseFS(tm.fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("couldn't include additional files in template rendering: %w", err)
		}
	}

	var buf bytes.Buffer
	err = tempTmpl.ExecuteTemplate(&buf, tmpl.Main, data)
	return buf.Bytes(), err
}

func (tm *TemplateManager) Add(name string, files ...string) error {
	if len(files) == 0 {
		return fmt.Errorf("you can't add template without any files")
	}

	tmpl := template.New(name).Funcs(templateFuncMap)

	tmpl, err := tmpl.ParseFS(tm.fsys, files...)
	if err != nil {
		return fmt.Errorf("failed to add template into manager: %w", err)
	}

	tm.mux.Lock()
	tm.templates[name] = templateManagerRender{
		Main: path.Base(files[0]),
		Tmpl: tmpl,
	}
	tm.mux.Unlock()
	return nil
}
