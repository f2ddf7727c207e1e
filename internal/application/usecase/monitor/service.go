package monitor

import (
	"context"
	"errors"
	"time"

	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"
)

// PriceSource is the read surface the monitor consumes; the feed
// usecase satisfies it.
type PriceSource interface {
	Report() *model.PriceReport
	FeedStats() []model.FeedStats
	OracleSignal() (model.OracleSignal, bool)
}

type ServiceDeps struct {
	Source        PriceSource
	Sink          port.Sink
	PrintEvery    time.Duration // live line refresh
	SnapshotEvery time.Duration // historical line + venue table
	WarningPct    float64
	CriticalPct   float64
}

// Service renders the live aggregate line and periodic snapshots to
// the sink. It only reads; the feed usecase owns all state.
type Service struct {
	deps ServiceDeps
	fmt  *Formatter
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		deps: deps,
		fmt:  NewFormatter(deps.WarningPct, deps.CriticalPct),
	}
}

func (s *Service) Run(ctx context.Context) error {
	if s.deps.Source == nil || s.deps.Sink == nil {
		return errors.New("monitor needs a source and a sink")
	}

	printEvery := s.deps.PrintEvery
	if printEvery <= 0 {
		printEvery = time.Second
	}
	snapEvery := s.deps.SnapshotEvery
	if snapEvery <= 0 {
		snapEvery = 5 * time.Minute
	}

	liveTicker := time.NewTicker(printEvery)
	defer liveTicker.Stop()
	snapTicker := time.NewTicker(snapEvery)
	defer snapTicker.Stop()

	_ = s.deps.Sink.WriteLive(s.render(RenderLive))

	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()

		case <-liveTicker.C:
			_ = s.deps.Sink.WriteLive(s.render(RenderLive))

		case now := <-snapTicker.C:
			line := s.render(RenderSnapshot) + "\n" + s.fmt.RenderStats(s.deps.Source.FeedStats())
			_ = s.deps.Sink.WriteSnapshot(now, line)
		}
	}
}

func (s *Service) render(mode RenderMode) string {
	report := s.deps.Source.Report()
	stats := s.deps.Source.FeedStats()

	var sig *model.OracleSignal
	if v, ok := s.deps.Source.OracleSignal(); ok {
		sig = &v
	}
	return s.fmt.Render(report, stats, sig, mode)
}
