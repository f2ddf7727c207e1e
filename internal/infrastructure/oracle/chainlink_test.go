package oracle

import (
	"math"
	"testing"
)

func TestSignatureVector(t *testing.T) {
	p := New(Config{APIKey: "test-key", APISecret: "test-secret"})

	got := p.signature("GET", "/api/v1/reports/latest?feedID=0xfeed", "", 1700000000000)
	want := "aee238c78ad4f2fa13e5ca2a07143d90d0c67d419b39892b5488664081cf1a7f"
	if got != want {
		t.Errorf("signature mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestSignatureChangesWithInputs(t *testing.T) {
	p := New(Config{APIKey: "test-key", APISecret: "test-secret"})

	base := p.signature("GET", "/a", "", 1700000000000)
	if p.signature("GET", "/a", "", 1700000000001) == base {
		t.Error("timestamp must affect the signature")
	}
	if p.signature("GET", "/b", "", 1700000000000) == base {
		t.Error("path must affect the signature")
	}
	if p.signature("POST", "/a", `{"x":1}`, 1700000000000) == base {
		t.Error("body must affect the signature")
	}
}

func TestDecodeBenchmarkPrice(t *testing.T) {
	// 97000.5 * 1e18
	v, ok := DecodeBenchmarkPrice("97000500000000000000000")
	if !ok {
		t.Fatal("expected a decode")
	}
	if math.Abs(v-97000.5) > 1e-6 {
		t.Errorf("got %v want 97000.5", v)
	}

	if _, ok := DecodeBenchmarkPrice(""); ok {
		t.Error("empty input must not decode")
	}
	if _, ok := DecodeBenchmarkPrice("zero"); ok {
		t.Error("garbage must not decode")
	}
}

func TestParseKrakenTicker(t *testing.T) {
	body := []byte(`{"error":[],"result":{"XXBTZUSD":{"a":["97001.0","1","1.0"],"b":["97000.0","2","2.0"],"c":["97000.5","0.01"]}}}`)
	v, ok := ParseKrakenTicker(body)
	if !ok || v != 97000.5 {
		t.Errorf("got %v ok=%v", v, ok)
	}

	if _, ok := ParseKrakenTicker([]byte(`{"error":["EQuery:Unknown asset pair"]}`)); ok {
		t.Error("error response must not parse")
	}
	if _, ok := ParseKrakenTicker([]byte(`not json`)); ok {
		t.Error("garbage must not parse")
	}
}

func TestKrakenPair(t *testing.T) {
	cases := map[string]string{
		"BTC": "XBTUSD",
		"btc": "XBTUSD",
		"":    "XBTUSD",
		"ETH": "ETHUSD",
		"SOL": "SOLUSD",
		"XRP": "XRPUSD",
	}
	for in, want := range cases {
		if got := KrakenPair(in); got != want {
			t.Errorf("%q: got %s want %s", in, got, want)
		}
	}
}

func TestSourceSelection(t *testing.T) {
	if got := New(Config{}).Source(); got != "kraken-rest" {
		t.Errorf("keyless probe: got %s want kraken-rest", got)
	}
	if got := New(Config{APIKey: "k", APISecret: "s"}).Source(); got != "chainlink" {
		t.Errorf("keyed probe: got %s want chainlink", got)
	}
}
