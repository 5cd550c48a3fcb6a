package compose

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Pool bounds how many encoder processes run at once. Callers block until a
// slot frees up or their context ends.
type Pool struct {
	sem chan struct{}
}

func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Do runs fn while holding a slot.
func (p *Pool) Do(ctx context.Context, label string, fn func() error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%s cancelled while waiting for encoder slot: %w", label, ctx.Err())
	}
	defer func() { <-p.sem }()

	log.Debug().Str("stage", "compose").Str("job", label).Int("in_use", len(p.sem)).Msg("acquired encoder slot")
	return fn()
}
