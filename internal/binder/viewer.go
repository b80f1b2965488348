package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const ScopeAttr = "data-photobox-scope"

var ErrInvalidScope = errors.New("scope is not an element")

// ScriptViewer initializes the jQuery Photobox plugin by appending an inline
// script to every scope. The scope is tagged with a token unique to the
// instance, so a later instance of the same gallery never selects the scopes
// bound before it.
type ScriptViewer struct{}

var _ Viewer = ScriptViewer{}

func (ScriptViewer) Init(instance Instance) error {
	scope := instance.Scope
	if scope == nil || scope.Type != html.ElementNode {
		return ErrInvalidScope
	}

	token := ScopeToken(instance.GalleryID)
	scopes, _ := attr(scope, ScopeAttr)
	tokens := append(strings.Fields(scopes), token)
	setAttr(scope, ScopeAttr, strings.Join(tokens, " "))

	scopeSelector, err := json.Marshal(fmt.Sprintf(`[%s~="%s"]`, ScopeAttr, token))
	if err != nil {
		return fmt.Errorf("fail to encode scope selector: %w", err)
	}
	anchorSelector, err := json.Marshal(instance.Selector)
	if err != nil {
		return fmt.Errorf("fail to encode anchor selector: %w", err)
	}
	settings, err := json.Marshal(instance.Settings)
	if err != nil {
		return fmt.Errorf("fail to encode settings: %w", err)
	}

	script := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
	}
	script.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: fmt.Sprintf("jQuery(%s).photobox(%s, %s);", scopeSelector, anchorSelector, settings),
	})
	scope.AppendChild(script)

	return nil
}

// ScopeToken returns a new scope token for galleryID. Gallery ids never
// contain a colon, so the id is recovered with GalleryOfToken.
func ScopeToken(galleryID string) string {
	return galleryID + ":" + uuid.NewString()
}

// GalleryOfToken returns the gallery id a scope token was made for.
func GalleryOfToken(token string) string {
	id, _, _ := strings.Cut(token, ":")
	return id
}
