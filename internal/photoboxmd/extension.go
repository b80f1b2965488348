// Package photoboxmd adds {Photobox:field} image blocks to goldmark.
//
//	{Photobox:field_photos}
//	2025/lake.jpg | Lake at dawn | A calm lake
//	2025/hill.jpg | Hill
//	{/Photobox}
//
// Every line is "path | title | alt". The block is rendered by the formatter
// registered for its field. Plain images of the page, ![alt](path "title"),
// are rendered by the formatter of the "body" field.
package photoboxmd

import (
	"bytes"
	"fmt"

	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Extension that combines parser and renderer
type PhotoboxExtension struct {
	registry *photobox.Registry
}

func NewPhotoboxExtension(registry *photobox.Registry) goldmark.Extender {
	return &PhotoboxExtension{registry: registry}
}

func (e *PhotoboxExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			util.Prioritized(NewPhotoboxParser(e.registry), 500),
		),
		parser.WithASTTransformers(
			util.Prioritized(&InlineImageTransformer{registry: e.registry}, 500),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewPhotoboxHTMLRenderer(), 500),
		),
	)
}

// CacheTags collects the cache tags of every photobox block below node.
func CacheTags(node ast.Node) []string {
	lists := make([][]string, 0)
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if block, ok := n.(*PhotoboxBlock); ok {
			for _, el := range block.Elements {
				lists = append(lists, el.CacheTags)
			}
		}
		return ast.WalkContinue, nil
	})
	return photobox.MergeCacheTags(lists...)
}

// Render converts the markdown of the page with the given entity id and
// returns the cache tags of the images it contains.
func Render(md goldmark.Markdown, source []byte, entityID string) (html []byte, cacheTags []string, err error) {
	pc := NewContext(entityID)
	doc := md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, nil, fmt.Errorf("convert source context from md to html: %w", err)
	}

	cacheTags = CacheTags(doc)
	if inline, ok := pc.Get(inlineElementsKey).([]photobox.Element); ok {
		for _, el := range inline {
			cacheTags = photobox.MergeCacheTags(cacheTags, el.CacheTags)
		}
	}

	return buf.Bytes(), cacheTags, nil
}
