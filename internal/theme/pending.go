package theme

import (
	"context"
	"sync/atomic"
)

// Pending holds colours for one theming request. It starts with a theme
// fallback and is replaced at most once, with a complete image-derived
// value, when analysis succeeds.
type Pending struct {
	current atomic.Pointer[DominantColors]
	done    chan struct{}
}

func newPending(fallback DominantColors) *Pending {
	p := &Pending{done: make(chan struct{})}
	p.current.Store(&fallback)
	return p
}

// Current returns the colours to show now. It never blocks.
func (p *Pending) Current() DominantColors {
	return *p.current.Load()
}

// Done is closed when the request has finished, whether or not the
// fallback was replaced.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the request finishes and returns the final colours.
// If ctx ends first it returns the current colours and ctx's error.
func (p *Pending) Wait(ctx context.Context) (DominantColors, error) {
	select {
	case <-p.done:
		return p.Current(), nil
	case <-ctx.Done():
		return p.Current(), ctx.Err()
	}
}

func (p *Pending) resolve(result DominantColors) {
	p.current.Store(&result)
}

// Request starts deriving colours in the background and returns at once
// with a theme fallback. Sources are tried in order; the next one is only
// attempted when the previous could not be fetched. Cancelling ctx
// discards any result.
func (s *Selector) Request(ctx context.Context, colors Colors, sources ...string) *Pending {
	p := newPending(Fallback(colors, nil))

	go func() {
		defer close(p.done)

		for _, source := range sources {
			if source == "" {
				continue
			}
			fetched, result, ok := s.derive(ctx, source, colors.Background)
			if ctx.Err() != nil {
				s.logger.Debug("theming request cancelled", "source", source)
				return
			}
			if ok {
				p.resolve(result)
				return
			}
			if fetched {
				return
			}
		}
	}()

	return p
}
