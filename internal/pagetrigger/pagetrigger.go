// Package pagetrigger periodically rescans the page bucket and reports pages
// that were added, re-uploaded or removed since the previous scan.
package pagetrigger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/SayaAndy/photobox/internal/b2"
	"github.com/go-co-op/gocron/v2"
)

type Scanner interface {
	Scan(ctx context.Context, prefix string) ([]*b2.Page, error)
}

type PageTriggerScheduler struct {
	s          gocron.Scheduler
	scanner    Scanner
	prefix     string
	knownPages map[string]time.Time
	scanMux    sync.Mutex
	onTrigger  func(links []string) error
}

func NewPageTriggerScheduler(scanner Scanner, prefix string, cron string, onTrigger func(links []string) error) (*PageTriggerScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create new scheduler: %w", err)
	}

	pts := &PageTriggerScheduler{
		s:          s,
		scanner:    scanner,
		prefix:     prefix,
		knownPages: make(map[string]time.Time),
		onTrigger:  onTrigger,
	}

	if _, err = pts.s.NewJob(gocron.CronJob(cron, false), gocron.NewTask(func(pts *PageTriggerScheduler) {
		if err := pts.Rescan(context.Background()); err != nil {
			slog.Error("failed to execute page rescan cron job", slog.String("error", err.Error()))
		}
	}, pts)); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule page rescan: %w", err)
	}

	if _, err = pts.scan(context.Background()); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to scan existing pages in b2: %w", err)
	}

	pts.s.Start()
	return pts, nil
}

// Rescan compares the bucket with the previous scan and hands the links of
// every changed page to the trigger callback.
func (pts *PageTriggerScheduler) Rescan(ctx context.Context) error {
	changed, err := pts.scan(ctx)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		return nil
	}

	slog.Debug("pages changed since last scan", slog.Int("count", len(changed)))
	if err = pts.onTrigger(changed); err != nil {
		return fmt.Errorf("error happened on callback function after scanning pages: %w", err)
	}
	return nil
}

func (pts *PageTriggerScheduler) scan(ctx context.Context) (changed []string, err error) {
	pts.scanMux.Lock()
	defer pts.scanMux.Unlock()

	pages, err := pts.scanner.Scan(ctx, pts.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pages in b2 on '%s': %w", pts.prefix, err)
	}

	seen := make(map[string]struct{}, len(pages))
	for _, page := range pages {
		seen[page.Link] = struct{}{}
		if uploadedAt, ok := pts.knownPages[page.Link]; !ok || !uploadedAt.Equal(page.UploadedAt) {
			changed = append(changed, page.Link)
			pts.knownPages[page.Link] = page.UploadedAt
		}
	}

	for link := range pts.knownPages {
		if _, ok := seen[link]; !ok {
			changed = append(changed, link)
			delete(pts.knownPages, link)
		}
	}

	slices.Sort(changed)
	return changed, nil
}

func (pts *PageTriggerScheduler) Close() error {
	return pts.s.Shutdown()
}
