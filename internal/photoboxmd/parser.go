package photoboxmd

import (
	"bytes"
	"log/slog"
	"regexp"
	"unicode"

	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var entityKey = parser.NewContextKey()

// NewContext returns a parser context for a page with the given entity id. An
// empty id marks an unsaved page; ids that are unsafe inside a gallery id are
// treated the same way.
func NewContext(entityID string) parser.Context {
	pc := parser.NewContext()
	if entityID != "" && !photobox.ValidIdentifier(entityID) {
		slog.Warn("page id can't be used for galleries, treating page as unsaved", slog.String("id", entityID))
		entityID = ""
	}
	pc.Set(entityKey, entityID)
	return pc
}

type PhotoboxParser struct {
	registry *photobox.Registry
	headerRe *regexp.Regexp
}

func NewPhotoboxParser(registry *photobox.Registry) parser.BlockParser {
	return &PhotoboxParser{
		registry: registry,
		headerRe: regexp.MustCompile(`^\{Photobox:([a-z0-9_-]+)\}$`),
	}
}

func (p *PhotoboxParser) Trigger() []byte {
	return []byte{'{'}
}

func (p *PhotoboxParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()

	if !bytes.HasPrefix(line, []byte("{Photobox:")) {
		return nil, parser.NoChildren
	}

	trimmed := bytes.TrimSpace(line)
	parts := p.headerRe.FindSubmatch(trimmed)
	if len(parts) < 2 {
		slog.Warn("invalid photobox header format", slog.String("line", string(trimmed)), slog.Int("submatch_count", len(parts)))
		return nil, parser.NoChildren
	}

	entityID, _ := pc.Get(entityKey).(string)

	return &PhotoboxBlock{EntityID: entityID, FieldName: string(parts[1])}, parser.NoChildren
}

func (p *PhotoboxParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if len(line) == 0 || segment.Len() == 0 {
		return parser.Continue | parser.NoChildren
	}

	block := node.(*PhotoboxBlock)

	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		block.afterBlank = true
		return parser.Continue | parser.NoChildren
	}

	if bytes.Equal(trimmed, []byte("{/Photobox}")) {
		newline := 1
		if line[len(line)-1] != '\n' {
			newline = 0
		}
		reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
		block.terminated = true
		return parser.Close
	}

	// An unterminated block ends at the next header or, after a blank line, at
	// the first line that is not an image. The line is left to other parsers.
	if bytes.HasPrefix(trimmed, []byte("{Photobox:")) || (block.afterBlank && !isImageLine(trimmed)) {
		return parser.Close
	}

	// path | title | alt
	parts := bytes.SplitN(trimmed, []byte{'|'}, 3)
	img := photobox.FieldImage{Path: string(bytes.TrimSpace(parts[0]))}
	if len(parts) > 1 {
		img.Title = string(bytes.TrimSpace(parts[1]))
	}
	if len(parts) > 2 {
		img.Alt = string(bytes.TrimSpace(parts[2]))
	}
	block.Images = append(block.Images, img)

	return parser.Continue | parser.NoChildren
}

func (p *PhotoboxParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	block := node.(*PhotoboxBlock)
	if !block.terminated {
		slog.Warn("photobox block is not closed with {/Photobox}", slog.String("field", block.FieldName), slog.Int("images", len(block.Images)))
	}

	formatter, err := p.registry.Formatter(block.FieldName)
	if err != nil {
		slog.Warn("no formatter for photobox field", slog.String("field", block.FieldName), slog.String("error", err.Error()))
		return
	}

	block.Elements = formatter.ViewElements(photobox.FieldItems{
		EntityID:  block.EntityID,
		FieldName: block.FieldName,
		Images:    block.Images,
	})
}

// isImageLine reports whether line looks like "path | title | alt". Paths
// never contain whitespace.
func isImageLine(line []byte) bool {
	path, _, _ := bytes.Cut(line, []byte{'|'})
	path = bytes.TrimSpace(path)
	if len(path) == 0 || path[0] == '#' || path[0] == '{' {
		return false
	}
	return bytes.IndexFunc(path, unicode.IsSpace) < 0
}

func (p *PhotoboxParser) CanInterruptParagraph() bool {
	return true
}

func (p *PhotoboxParser) CanAcceptIndentedLine() bool {
	return false
}
