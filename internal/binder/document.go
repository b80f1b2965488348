package binder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/SayaAndy/photobox/internal/photobox"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AttachDocument parses a complete page, binds it and renders it back.
// Binding failures of single galleries do not prevent rendering; they are
// returned alongside the output.
func (b *Binder) AttachDocument(r io.Reader, settings photobox.GallerySettings) ([]byte, []Instance, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to parse document: %w", err)
	}

	instances, bindErr := b.Attach(doc, settings)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, nil, fmt.Errorf("fail to render document: %w", err)
	}
	return buf.Bytes(), instances, bindErr
}

// AttachFragment is AttachDocument for markup inserted into an existing page.
// The fragment is parsed in the context of a div that also serves as the
// outermost scope; the div is only rendered when a gallery got scoped to it.
func (b *Binder) AttachFragment(r io.Reader, settings photobox.GallerySettings) ([]byte, []Instance, error) {
	container := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}

	nodes, err := html.ParseFragment(r, container)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to parse fragment: %w", err)
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	instances, bindErr := b.Attach(container, settings)

	var buf bytes.Buffer
	if _, scoped := attr(container, ScopeAttr); scoped {
		if err := html.Render(&buf, container); err != nil {
			return nil, nil, fmt.Errorf("fail to render fragment: %w", err)
		}
		return buf.Bytes(), instances, bindErr
	}
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return nil, nil, fmt.Errorf("fail to render fragment: %w", err)
		}
	}
	return buf.Bytes(), instances, bindErr
}
