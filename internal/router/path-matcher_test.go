package router_test

import (
	"testing"

	"github.com/SayaAndy/photobox/internal/router"
	"github.com/google/go-cmp/cmp"
)

func TestPathMatcher(t *testing.T) {
	pm := router.NewPathMatcher()
	pm.AddRoute("GET", "/blog/:title")
	pm.AddRoute("GET", "/admin/photobox")

	pattern, params, matched := pm.MatchPath("GET", "/blog/lake-trip")
	if !matched {
		t.Fatalf("blog page should match")
	}
	if pattern != "/blog/:title" {
		t.Fatalf("unexpected pattern %q", pattern)
	}
	if diff := cmp.Diff(map[string]string{"title": "lake-trip"}, params); diff != "" {
		t.Fatalf("unexpected params (-want +got):\n%s", diff)
	}

	if pattern, _, matched = pm.MatchPath("GET", "/admin/photobox"); !matched || pattern != "/admin/photobox" {
		t.Fatalf("admin page should match; got %q, %v", pattern, matched)
	}

	if _, _, matched = pm.MatchPath("POST", "/blog/lake-trip"); matched {
		t.Fatalf("method should be part of the match")
	}
	if _, _, matched = pm.MatchPath("GET", "/unknown"); matched {
		t.Fatalf("unknown path should not match")
	}
}
