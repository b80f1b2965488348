package photoboxmd

import (
	"fmt"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

type PhotoboxHTMLRenderer struct {
	html.Config
}

func NewPhotoboxHTMLRenderer(opts ...html.Option) renderer.NodeRenderer {
	r := &PhotoboxHTMLRenderer{
		Config: html.NewConfig(),
	}
	for _, opt := range opts {
		opt.SetHTMLOption(&r.Config)
	}
	return r
}

func (r *PhotoboxHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindPhotoboxBlock, r.renderPhotobox)
}

func (r *PhotoboxHTMLRenderer) renderPhotobox(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	block := n.(*PhotoboxBlock)
	if len(block.Elements) == 0 {
		return ast.WalkContinue, nil
	}

	closing := ">"
	if r.XHTML {
		closing = " />"
	}

	_, _ = w.WriteString(fmt.Sprintf("<div class=\"photobox-field photobox-field-%s\">\n", block.FieldName))
	for _, el := range block.Elements {
		_, _ = w.WriteString(`<a href="`)
		_, _ = w.Write(util.EscapeHTML(util.URLEscape([]byte(el.Href), true)))
		_, _ = w.WriteString(`" class="photobox" data-photobox-gallery="`)
		_, _ = w.Write(util.EscapeHTML([]byte(el.GalleryID)))
		_, _ = w.WriteString(`"><img src="`)
		_, _ = w.Write(util.EscapeHTML(util.URLEscape([]byte(el.Src), true)))
		_, _ = w.WriteString(`" alt="`)
		_, _ = w.Write(util.EscapeHTML([]byte(el.Alt)))
		_, _ = w.WriteString(`"`)
		if el.Caption != "" {
			_, _ = w.WriteString(` title="`)
			_, _ = w.Write(util.EscapeHTML([]byte(el.Caption)))
			_, _ = w.WriteString(`"`)
		}
		_, _ = w.WriteString(closing)
		_, _ = w.WriteString("</a>\n")
	}
	_, _ = w.WriteString("</div>\n")

	return ast.WalkContinue, nil
}
