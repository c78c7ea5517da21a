// Package maintenance runs background housekeeping jobs.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/uniwork-be/internal/store"
	"github.com/isdelr/uniwork-be/internal/uploads"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// sweepTimeout bounds a single scheduled sweep.
const sweepTimeout = 5 * time.Minute

// ImageLister reports the image paths that posts still reference.
type ImageLister interface {
	ListPostImages(ctx context.Context) ([]string, error)
}

var _ ImageLister = (store.Store)(nil)

// Sweeper removes uploaded images that no post references. Files younger
// than the grace period are left alone so uploads whose post is still
// being committed are not removed.
type Sweeper struct {
	images  ImageLister
	storage *uploads.Storage
	grace   time.Duration
	now     func() time.Time
	cron    *cron.Cron
}

// NewSweeper creates a sweeper. It does nothing until Start is called.
func NewSweeper(images ImageLister, storage *uploads.Storage, grace time.Duration) *Sweeper {
	return &Sweeper{
		images:  images,
		storage: storage,
		grace:   grace,
		now:     time.Now,
		cron:    cron.New(),
	}
}

// Start schedules Sweep on the standard cron spec and starts the scheduler.
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runScheduled); err != nil {
		return fmt.Errorf("scheduling upload sweep %q: %w", spec, err)
	}
	log.Info().Str("schedule", spec).Dur("grace", s.grace).Msg("Starting orphaned upload sweeper")
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped orphaned upload sweeper")
}

func (s *Sweeper) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Orphaned upload sweep failed")
		return
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Removed orphaned uploads")
	}
}

// Sweep deletes unreferenced images older than the grace period and
// returns how many it removed. Failures on individual files are logged
// and skipped.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	files, err := s.storage.List()
	if err != nil {
		return 0, fmt.Errorf("listing uploads: %w", err)
	}
	if len(files) == 0 {
		return 0, nil
	}

	referenced, err := s.images.ListPostImages(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing post images: %w", err)
	}
	inUse := make(map[string]struct{}, len(referenced))
	for _, p := range referenced {
		inUse[p] = struct{}{}
	}

	cutoff := s.now().Add(-s.grace)
	removed := 0
	for _, f := range files {
		if _, ok := inUse[f.PublicPath]; ok || f.ModTime.After(cutoff) {
			continue
		}
		if err := s.storage.Remove(f.PublicPath); err != nil {
			log.Warn().Err(err).Str("image", f.PublicPath).Msg("Failed to remove orphaned upload")
			continue
		}
		log.Debug().Str("image", f.PublicPath).Msg("Removed orphaned upload")
		removed++
	}
	return removed, nil
}
