// Package binder scopes photobox viewers to the markup rendered for a page.
//
// Every image is rendered as an anchor with the "photobox" class and a
// data-photobox-gallery attribute. Attach groups those anchors by gallery,
// finds the nearest element that contains all anchors of a gallery and hands
// it to a Viewer. Anchors that went through Attach are marked, so attaching
// the same or an overlapping subtree again is a no-op for them.
package binder

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/SayaAndy/photobox/internal/ancestry"
	"github.com/SayaAndy/photobox/internal/photobox"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	AnchorClass = "photobox"
	GalleryAttr = "data-photobox-gallery"
	BoundAttr   = "data-photobox-processed"
)

var ErrNoCommonAncestor = errors.New("anchors have no common ancestor")

// Instance is one viewer bound to the anchors of a single gallery.
type Instance struct {
	GalleryID string
	Scope     *html.Node
	Anchors   []*html.Node
	// Selector matches only this gallery's anchors inside Scope.
	Selector string
	Settings photobox.GallerySettings
}

// Viewer initializes the external gallery library on a scope.
type Viewer interface {
	Init(instance Instance) error
}

type Binder struct {
	viewer Viewer
}

func New(viewer Viewer) *Binder {
	return &Binder{viewer: viewer}
}

// Attach binds every gallery found below context. A gallery that fails to
// initialize is logged and skipped; the others are still bound and the
// failures are returned joined.
func (b *Binder) Attach(context *html.Node, settings photobox.GallerySettings) ([]Instance, error) {
	anchors := Anchors(context)

	galleries := make([]string, 0)
	byGallery := make(map[string][]*html.Node)
	for _, a := range anchors {
		id, _ := attr(a, GalleryAttr)
		if _, ok := byGallery[id]; !ok {
			galleries = append(galleries, id)
		}
		byGallery[id] = append(byGallery[id], a)
	}

	instances := make([]Instance, 0, len(galleries))
	errs := make([]error, 0)

	for _, galleryID := range galleries {
		members := byGallery[galleryID]
		if len(members) == 0 {
			continue
		}

		instance, err := b.bind(galleryID, members, settings)
		if err != nil {
			slog.Warn("fail to bind gallery", slog.String("gallery", galleryID), slog.Int("anchors", len(members)), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("gallery '%s': %w", galleryID, err))
			continue
		}
		instances = append(instances, instance)
	}

	slog.Debug("attached photobox galleries", slog.Int("anchors", len(anchors)), slog.Int("galleries", len(instances)))
	return instances, errors.Join(errs...)
}

func (b *Binder) bind(galleryID string, members []*html.Node, settings photobox.GallerySettings) (Instance, error) {
	scope, ok := ancestry.NearestCommon(members, parentOf)
	if !ok {
		return Instance{}, ErrNoCommonAncestor
	}

	instance := Instance{
		GalleryID: galleryID,
		Scope:     scope,
		Anchors:   members,
		Selector:  Selector(galleryID),
		Settings:  settings,
	}
	if err := b.viewer.Init(instance); err != nil {
		return Instance{}, err
	}

	for _, a := range members {
		setAttr(a, BoundAttr, "true")
	}
	return instance, nil
}

// Selector matches the anchors of one gallery.
func Selector(galleryID string) string {
	return fmt.Sprintf(`a.%s[%s="%s"]`, AnchorClass, GalleryAttr, galleryID)
}

// Anchors returns the unbound gallery anchors below context in document order.
func Anchors(context *html.Node) []*html.Node {
	anchors := make([]*html.Node, 0)
	if context == nil {
		return anchors
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isAnchor(c) {
				anchors = append(anchors, c)
			}
			walk(c)
		}
	}
	walk(context)

	return anchors
}

func isAnchor(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.A {
		return false
	}
	if _, bound := attr(n, BoundAttr); bound {
		return false
	}
	id, ok := attr(n, GalleryAttr)
	if !ok || id == "" {
		return false
	}
	class, _ := attr(n, "class")
	if !slices.Contains(strings.Fields(class), AnchorClass) {
		return false
	}
	// the id ends up inside selectors
	if !photobox.ValidIdentifier(id) {
		slog.Warn("skip anchor with malformed gallery id", slog.String("gallery", id))
		return false
	}
	return true
}

func parentOf(n *html.Node) (*html.Node, bool) {
	return n.Parent, n.Parent != nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
