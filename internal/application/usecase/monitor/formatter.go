package monitor

import (
	"fmt"
	"strings"

	"pulsefeed/internal/domain/model"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	WarningPct  float64
	CriticalPct float64
}

func NewFormatter(warningPct, criticalPct float64) *Formatter {
	return &Formatter{WarningPct: warningPct, CriticalPct: criticalPct}
}

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

// Render builds the one-line feed summary: asset, price, divergence,
// confidence, accepted/total sources, USDT premium and oracle signal.
func (f *Formatter) Render(report *model.PriceReport, stats []model.FeedStats, sig *model.OracleSignal, mode RenderMode) string {
	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(colorize("[PULSE] ", ansiDim))

	if report == nil {
		sb.WriteString(colorize("--", ansiYellow))
		sb.WriteString(colorize(fmt.Sprintf("  (%d/%d feeds up)", countConnected(stats), len(stats)), ansiDim))
		if mode == RenderLive {
			sb.WriteString(ansiClearEOL)
		}
		return sb.String()
	}

	sb.WriteString(report.Asset)
	sb.WriteString(fmt.Sprintf(" %.2f", report.Price))

	divCol := ansiGreen
	switch {
	case report.DivergencePct > f.CriticalPct:
		divCol = ansiRed
	case report.DivergencePct > f.WarningPct:
		divCol = ansiYellow
	}
	sb.WriteString(colorize(fmt.Sprintf(" ±%.3f%%", report.DivergencePct), divCol))

	confCol := ansiGreen
	if report.Confidence < 0.75 {
		confCol = ansiYellow
	}
	sb.WriteString(colorize(fmt.Sprintf(" conf=%.2f", report.Confidence), confCol))

	sb.WriteString(colorize(fmt.Sprintf(" src=%d/%d", report.SourceCount, len(stats)), ansiDim))
	sb.WriteString(colorize(fmt.Sprintf(" prem=%+.3f%%", report.UsdtPremiumPct), ansiDim))

	if sig != nil {
		sigCol := ansiDim
		switch sig.Label {
		case model.SignalLong:
			sigCol = ansiGreen
		case model.SignalShort:
			sigCol = ansiRed
		}
		sb.WriteString(colorize(fmt.Sprintf(" oracle=%s(%.2f)", sig.Label, sig.Strength), sigCol))
	}

	if mode == RenderLive {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}

// RenderStats builds the multi-line per-venue health table for
// snapshot output.
func (f *Formatter) RenderStats(stats []model.FeedStats) string {
	var sb strings.Builder
	for i, s := range stats {
		if i > 0 {
			sb.WriteString("\n")
		}
		state := colorize("down", ansiRed)
		if s.Connected {
			state = colorize("up", ansiGreen)
		}
		age := "--"
		if s.AgeMs >= 0 {
			age = fmt.Sprintf("%dms", s.AgeMs)
		}
		sb.WriteString(fmt.Sprintf("  %-10s %s  last=%.2f age=%s msgs=%d errs=%d reconnects=%d",
			s.Venue, state, s.LastPrice, age, s.MessageCount, s.ErrorCount, s.ReconnectCount))
	}
	return sb.String()
}

func countConnected(stats []model.FeedStats) int {
	n := 0
	for _, s := range stats {
		if s.Connected {
			n++
		}
	}
	return n
}
