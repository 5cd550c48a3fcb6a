package retention

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"narrated-video-pipeline/config"
)

// Target is one directory of generated files and the name prefixes the
// sweeper may delete from it.
type Target struct {
	Dir      string
	Prefixes []string
}

// Sweeper removes generated narration and video files once they are older
// than the TTL. Subdirectories and files without a matching prefix are left
// alone, so catalog assets living under the same static root survive.
type Sweeper struct {
	targets  []Target
	ttl      time.Duration
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
}

func New(cfg config.RetentionConfig, targets ...Target) *Sweeper {
	return &Sweeper{
		targets:  targets,
		ttl:      cfg.TTL,
		interval: cfg.Interval,
		stopChan: make(chan struct{}),
	}
}

// DefaultTargets lists the audio and output directories from config.
func DefaultTargets(paths config.PathsConfig) []Target {
	targets := []Target{{Dir: paths.Audio, Prefixes: []string{"audio_"}}}
	if filepath.Clean(paths.Output) == filepath.Clean(paths.Audio) {
		targets[0].Prefixes = append(targets[0].Prefixes, "final_")
		return targets
	}
	return append(targets, Target{Dir: paths.Output, Prefixes: []string{"final_"}})
}

// Start sweeps once, then on every interval until ctx ends or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		s.Sweep(time.Now())

		interval := s.interval
		if interval <= 0 {
			interval = time.Hour
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				s.Sweep(now)
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Sweep deletes every expired file and reports how many went.
func (s *Sweeper) Sweep(now time.Time) int {
	cutoff := now.Add(-s.ttl)
	removed := 0
	for _, t := range s.targets {
		entries, err := os.ReadDir(t.Dir)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warn().Str("stage", "retention").Str("dir", t.Dir).Err(err).Msg("cannot list directory")
			}
			continue
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || !lo.SomeBy(t.Prefixes, func(p string) bool { return strings.HasPrefix(e.Name(), p) }) {
				continue
			}
			info, err := e.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			p := filepath.Join(t.Dir, e.Name())
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn().Str("stage", "retention").Str("file", p).Err(err).Msg("cannot remove expired file")
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		log.Info().Str("stage", "retention").Int("removed", removed).Dur("ttl", s.ttl).Msg("swept expired files")
	}
	return removed
}
