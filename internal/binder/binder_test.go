package binder_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/SayaAndy/photobox/internal/binder"
	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

type recordingViewer struct {
	calls []binder.Instance
	fail  map[string]error
}

func (v *recordingViewer) Init(instance binder.Instance) error {
	if err, ok := v.fail[instance.GalleryID]; ok {
		return err
	}
	v.calls = append(v.calls, instance)
	return nil
}

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}
	return doc
}

func byID(t *testing.T, root *html.Node, id string) *html.Node {
	t.Helper()
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil && found == nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if found == nil {
		t.Fatalf("element #%s not found", id)
	}
	return found
}

func ids(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		for _, a := range n.Attr {
			if a.Key == "id" {
				out = append(out, a.Val)
			}
		}
	}
	return out
}

const twoGalleries = `
<div id="page">
	<div id="x">
		<a id="A" class="photobox" data-photobox-gallery="gallery-1" href="/a.jpg"><img src="/a.jpg"></a>
		<p>unrelated</p>
		<a id="B" class="photobox" data-photobox-gallery="gallery-1" href="/b.jpg"><img src="/b.jpg"></a>
	</div>
	<div id="y">
		<a id="C" class="photobox" data-photobox-gallery="gallery-2" href="/c.jpg"><img src="/c.jpg"></a>
	</div>
</div>`

func TestBinder_Attach(t *testing.T) {
	doc := parse(t, twoGalleries)
	viewer := &recordingViewer{}

	instances, err := binder.New(viewer).Attach(doc, photobox.DefaultSettings())
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if len(instances) != 2 {
		t.Fatalf("expected 2 viewer instances; got %d", len(instances))
	}

	first, second := instances[0], instances[1]
	if first.GalleryID != "gallery-1" || second.GalleryID != "gallery-2" {
		t.Fatalf("galleries should be bound in first-seen order; got %q, %q", first.GalleryID, second.GalleryID)
	}
	if first.Scope != byID(t, doc, "x") {
		t.Fatalf("gallery-1 should be scoped to div#x")
	}
	if second.Scope != byID(t, doc, "y") {
		t.Fatalf("gallery-2 should be scoped to div#y")
	}
	if diff := cmp.Diff([]string{"A", "B"}, ids(first.Anchors)); diff != "" {
		t.Fatalf("unexpected gallery-1 anchors (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"C"}, ids(second.Anchors)); diff != "" {
		t.Fatalf("unexpected gallery-2 anchors (-want +got):\n%s", diff)
	}
	if first.Selector != `a.photobox[data-photobox-gallery="gallery-1"]` {
		t.Fatalf("unexpected selector %q", first.Selector)
	}
	if len(viewer.calls) != 2 {
		t.Fatalf("viewer should be initialized twice; got %d", len(viewer.calls))
	}
}

func TestBinder_Attach_nearestCommonAncestor(t *testing.T) {
	doc := parse(t, `
<div id="root">
	<span>sibling</span>
	<div id="shared">
		<a id="d2" class="photobox" data-photobox-gallery="g" href="#"></a>
		<em>noise</em>
		<div>
			<a id="d3" class="photobox" data-photobox-gallery="g" href="#"></a>
			<div><i>noise</i>
				<section><a id="d4" class="photobox" data-photobox-gallery="g" href="#"></a></section>
			</div>
		</div>
	</div>
	<div><a class="photobox" data-photobox-gallery="other" href="#"></a></div>
</div>`)

	instances, err := binder.New(&recordingViewer{}).Attach(byID(t, doc, "root"), photobox.DefaultSettings())
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if instances[0].GalleryID != "g" {
		t.Fatalf("expected gallery 'g' first; got %q", instances[0].GalleryID)
	}
	if instances[0].Scope != byID(t, doc, "shared") {
		t.Fatalf("scope should be the deepest element containing all anchors of the gallery")
	}
}

func TestBinder_Attach_idempotent(t *testing.T) {
	doc := parse(t, twoGalleries)
	viewer := &recordingViewer{}
	b := binder.New(viewer)

	if _, err := b.Attach(doc, photobox.DefaultSettings()); err != nil {
		t.Fatalf("attach: %v", err)
	}

	instances, err := b.Attach(doc, photobox.DefaultSettings())
	if err != nil {
		t.Fatalf("attach again: %v", err)
	}
	if len(instances) != 0 {
		t.Fatalf("attaching a bound document again should create no instances; got %d", len(instances))
	}

	if _, err := b.Attach(byID(t, doc, "x"), photobox.DefaultSettings()); err != nil {
		t.Fatalf("attach nested context: %v", err)
	}
	if len(viewer.calls) != 2 {
		t.Fatalf("viewer should only be initialized for the first pass; got %d calls", len(viewer.calls))
	}
}

func TestBinder_Attach_newSubtree(t *testing.T) {
	doc := parse(t, twoGalleries)
	viewer := &recordingViewer{}
	b := binder.New(viewer)

	if _, err := b.Attach(doc, photobox.DefaultSettings()); err != nil {
		t.Fatalf("attach: %v", err)
	}

	fragment, err := html.ParseFragment(strings.NewReader(
		`<div id="z"><a id="D" class="photobox" data-photobox-gallery="gallery-1" href="/d.jpg"></a></div>`,
	), byID(t, doc, "page"))
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	page := byID(t, doc, "page")
	for _, n := range fragment {
		page.AppendChild(n)
	}

	instances, err := b.Attach(page, photobox.DefaultSettings())
	if err != nil {
		t.Fatalf("attach new content: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("only the new anchor should be bound; got %d instances", len(instances))
	}
	if diff := cmp.Diff([]string{"D"}, ids(instances[0].Anchors)); diff != "" {
		t.Fatalf("unexpected anchors (-want +got):\n%s", diff)
	}
	if instances[0].Scope != byID(t, doc, "z") {
		t.Fatalf("new anchor should be scoped to its own container")
	}
}

func TestBinder_Attach_isolatesFailures(t *testing.T) {
	doc := parse(t, twoGalleries)
	broken := errors.New("viewer exploded")
	viewer := &recordingViewer{fail: map[string]error{"gallery-1": broken}}
	b := binder.New(viewer)

	instances, err := b.Attach(doc, photobox.DefaultSettings())
	if !errors.Is(err, broken) {
		t.Fatalf("failure of a gallery should be returned; got %v", err)
	}
	if len(instances) != 1 || instances[0].GalleryID != "gallery-2" {
		t.Fatalf("other galleries should still be bound; got %+v", instances)
	}

	delete(viewer.fail, "gallery-1")
	instances, err = b.Attach(doc, photobox.DefaultSettings())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(instances) != 1 || instances[0].GalleryID != "gallery-1" {
		t.Fatalf("anchors of a failed gallery should stay unbound; got %+v", instances)
	}
}

func TestBinder_Attach_settingsApplyToEveryInstance(t *testing.T) {
	settings := photobox.GallerySettings{History: true, Loop: false, Thumbs: true, Zoomable: false}

	instances, err := binder.New(&recordingViewer{}).Attach(parse(t, twoGalleries), settings)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	for _, instance := range instances {
		if diff := cmp.Diff(settings, instance.Settings); diff != "" {
			t.Fatalf("gallery %q got different settings (-want +got):\n%s", instance.GalleryID, diff)
		}
	}
}

func TestBinder_Attach_ignoresUntagged(t *testing.T) {
	doc := parse(t, `
<div>
	<a class="photobox" href="#">no gallery</a>
	<a data-photobox-gallery="g" href="#">no marker class</a>
	<span class="photobox" data-photobox-gallery="g">not an anchor</span>
</div>`)

	viewer := &recordingViewer{}
	instances, err := binder.New(viewer).Attach(doc, photobox.DefaultSettings())
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(instances) != 0 || len(viewer.calls) != 0 {
		t.Fatalf("markup without gallery anchors should be a no-op; got %d instances", len(instances))
	}

	if instances, err := binder.New(viewer).Attach(nil, photobox.DefaultSettings()); err != nil || len(instances) != 0 {
		t.Fatalf("nil context should be a no-op; got %d instances, err %v", len(instances), err)
	}
}

func TestBinder_Attach_skipsMalformedGalleryIDs(t *testing.T) {
	doc := parse(t, `
<div>
	<div id="bad"><a class="photobox" data-photobox-gallery='g"],body,a[x="' href="#"></a></div>
	<div id="upper"><a class="photobox" data-photobox-gallery="Gallery 1" href="#"></a></div>
	<div id="good"><a id="E" class="photobox" data-photobox-gallery="gallery-1" href="#"></a></div>
</div>`)

	viewer := &recordingViewer{}
	instances, err := binder.New(viewer).Attach(doc, photobox.DefaultSettings())
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(instances) != 1 || instances[0].GalleryID != "gallery-1" {
		t.Fatalf("only the well-formed gallery should be bound; got %+v", instances)
	}
	if diff := cmp.Diff([]string{"E"}, ids(instances[0].Anchors)); diff != "" {
		t.Fatalf("unexpected anchors (-want +got):\n%s", diff)
	}
	for _, scope := range []string{"bad", "upper"} {
		a := byID(t, doc, scope).FirstChild
		for _, at := range a.Attr {
			if at.Key == binder.BoundAttr {
				t.Fatalf("anchor in #%s should be left unbound", scope)
			}
		}
	}
}
