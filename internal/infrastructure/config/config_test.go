package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ``))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.App.Asset != "BTC" {
		t.Errorf("asset default: got %s", cfg.App.Asset)
	}
	if len(cfg.Feed.Venues) != 8 {
		t.Errorf("venue default: got %v", cfg.Feed.Venues)
	}
	if cfg.Aggregator.MaxStalenessMs != 2000 ||
		cfg.Aggregator.MaxDeviationPct != 1.0 ||
		cfg.Aggregator.MinSources != 2 ||
		cfg.Aggregator.TightSpreadPct != 0.1 ||
		cfg.Aggregator.DivergenceWarningPct != 0.3 ||
		cfg.Aggregator.DivergenceCriticalPct != 0.5 {
		t.Errorf("aggregator defaults: %+v", cfg.Aggregator)
	}
	if cfg.Connection.ConnectTimeoutSec != 5 ||
		cfg.Connection.PingIntervalSec != 20 ||
		cfg.Connection.ReconnectDelaySec != 1.0 ||
		cfg.Connection.MaxReconnectDelaySec != 30.0 ||
		cfg.Connection.ReconnectBackoff != 1.5 {
		t.Errorf("connection defaults: %+v", cfg.Connection)
	}
}

func TestLoadNormalizesVenues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[feed]
venues = ["Binance", " coinbase ", "binance", ""]
`))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"binance", "coinbase"}
	if len(cfg.Feed.Venues) != len(want) {
		t.Fatalf("got %v want %v", cfg.Feed.Venues, want)
	}
	for i := range want {
		if cfg.Feed.Venues[i] != want[i] {
			t.Errorf("got %v want %v", cfg.Feed.Venues, want)
		}
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown asset": `
[app]
asset = "DOGE"
`,
		"unknown venue": `
[feed]
venues = ["binance", "mtgox"]
`,
		"negative threshold": `
[aggregator]
max_deviation_pct = -1.0
`,
		"negative min_sources": `
[aggregator]
min_sources = -1
`,
		"backoff below one": `
[connection]
reconnect_backoff = 0.5
`,
		"tight above critical": `
[aggregator]
tight_spread_pct = 0.9
divergence_critical_pct = 0.5
`,
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected a validation error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file should error")
	}
}
