package pagetrigger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SayaAndy/photobox/internal/b2"
	"github.com/SayaAndy/photobox/internal/pagetrigger"
	"github.com/google/go-cmp/cmp"
)

type fakeScanner struct {
	pages []*b2.Page
	err   error
}

func (s *fakeScanner) Scan(ctx context.Context, prefix string) ([]*b2.Page, error) {
	return s.pages, s.err
}

// yearly keeps the cron job from firing while the test runs.
const yearly = "0 0 1 1 *"

func TestPageTriggerScheduler_Rescan(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scanner := &fakeScanner{pages: []*b2.Page{
		{Link: "blog/first", UploadedAt: t0},
		{Link: "blog/second", UploadedAt: t0},
	}}

	var triggered [][]string
	pts, err := pagetrigger.NewPageTriggerScheduler(scanner, "blog/", yearly, func(links []string) error {
		triggered = append(triggered, links)
		return nil
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer pts.Close()

	if err := pts.Rescan(context.Background()); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if len(triggered) != 0 {
		t.Fatalf("nothing changed since the initial scan; got %v", triggered)
	}

	scanner.pages = []*b2.Page{
		{Link: "blog/first", UploadedAt: t0.Add(time.Hour)},
		{Link: "blog/third", UploadedAt: t0},
	}
	if err := pts.Rescan(context.Background()); err != nil {
		t.Fatalf("rescan: %v", err)
	}

	want := [][]string{{"blog/first", "blog/second", "blog/third"}}
	if diff := cmp.Diff(want, triggered); diff != "" {
		t.Fatalf("unexpected triggered links (-want +got):\n%s", diff)
	}
}

func TestPageTriggerScheduler_errors(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("bucket is gone")}
	if _, err := pagetrigger.NewPageTriggerScheduler(scanner, "", yearly, func([]string) error { return nil }); err == nil {
		t.Fatalf("failing initial scan should fail the constructor")
	}

	scanner.err = nil
	callbackErr := errors.New("cache is gone")
	pts, err := pagetrigger.NewPageTriggerScheduler(scanner, "", yearly, func([]string) error { return callbackErr })
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer pts.Close()

	scanner.pages = []*b2.Page{{Link: "new-page"}}
	if err := pts.Rescan(context.Background()); !errors.Is(err, callbackErr) {
		t.Fatalf("expected callback error; got %v", err)
	}
}
