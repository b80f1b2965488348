package photoboxmd

import (
	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/yuin/goldmark/ast"
)

// PhotoboxBlock is an image field written inline in a page.
type PhotoboxBlock struct {
	ast.BaseBlock
	EntityID  string
	FieldName string
	Images    []photobox.FieldImage
	// Elements is filled when the block closes, through the field's formatter.
	Elements []photobox.Element

	terminated bool
	afterBlank bool
}

var KindPhotoboxBlock = ast.NewNodeKind("PhotoboxBlock")

// Dump implements ast.Node.Dump
func (n *PhotoboxBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"EntityID":  n.EntityID,
		"FieldName": n.FieldName,
	}, nil)
}

// Kind implements ast.Node.Kind
func (n *PhotoboxBlock) Kind() ast.NodeKind {
	return KindPhotoboxBlock
}
