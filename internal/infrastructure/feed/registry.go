package feed

import (
	"context"
	"fmt"
	"sync"

	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"

	"github.com/rs/zerolog/log"
)

const minEventBuffer = 16

var _ port.FeedSet = (*Registry)(nil)

// Registry holds the set of runners for one asset and the bounded
// fanout channel that feeds the aggregator. Runner order is preserved
// for deterministic logging; aggregation never depends on it.
type Registry struct {
	asset   string
	runners []*Runner
	events  chan model.Snapshot

	mu      sync.Mutex
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	started bool
}

// NewRegistry builds one runner per adapter. Venue tags must be unique.
func NewRegistry(asset string, adapters []port.VenueAdapter, cfg Config) (*Registry, error) {
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no venue adapters for %s", asset)
	}

	buf := 2 * len(adapters)
	if buf < minEventBuffer {
		buf = minEventBuffer
	}

	g := &Registry{
		asset:  asset,
		events: make(chan model.Snapshot, buf),
	}

	seen := make(map[string]struct{}, len(adapters))
	for _, a := range adapters {
		if _, dup := seen[a.Name()]; dup {
			return nil, fmt.Errorf("duplicate venue %q", a.Name())
		}
		seen[a.Name()] = struct{}{}
		g.runners = append(g.runners, NewRunner(a, asset, cfg, g.publish))
	}
	return g, nil
}

// StartAll launches every runner concurrently. Idempotent.
func (g *Registry) StartAll(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return
	}
	g.started = true

	rctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel

	for _, r := range g.runners {
		g.wg.Add(1)
		go func(r *Runner) {
			defer g.wg.Done()
			r.Run(rctx)
		}(r)
		log.Info().Str("feed", r.Venue()).Str("asset", g.asset).Msg("feed started")
	}
}

// StopAll signals every runner to stop and waits for termination,
// then drains whatever is left in the fanout channel. Idempotent.
func (g *Registry) StopAll() {
	g.mu.Lock()
	if !g.started {
		g.mu.Unlock()
		return
	}
	g.started = false
	cancel := g.cancel
	g.mu.Unlock()

	cancel()
	g.wg.Wait()

	for {
		select {
		case <-g.events:
		default:
			return
		}
	}
}

// Events is the single ingress to the aggregator.
func (g *Registry) Events() <-chan model.Snapshot {
	return g.events
}

// Latest returns the most recent snapshot from every runner that has one.
func (g *Registry) Latest() []model.Snapshot {
	out := make([]model.Snapshot, 0, len(g.runners))
	for _, r := range g.runners {
		if s, ok := r.Latest(); ok {
			out = append(out, s)
		}
	}
	return out
}

// Stats returns per-venue health in registry order.
func (g *Registry) Stats() []model.FeedStats {
	out := make([]model.FeedStats, 0, len(g.runners))
	for _, r := range g.runners {
		out = append(out, r.Stats())
	}
	return out
}

// publish is the fanout write path. The channel is bounded; when it is
// full the oldest queued snapshot is dropped, because latest-wins is
// the correct backpressure policy for tickers.
func (g *Registry) publish(s model.Snapshot) {
	for {
		select {
		case g.events <- s:
			return
		default:
			select {
			case <-g.events:
			default:
			}
		}
	}
}
