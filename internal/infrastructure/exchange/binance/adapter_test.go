package binance

import (
	"context"
	"strings"
	"testing"
)

func TestParseTicker(t *testing.T) {
	a := New()
	frame := []byte(`{"e":"24hrTicker","s":"BTCUSDT","c":"97000.50","b":"97000.00","a":"97001.00"}`)

	u, err := a.Parse(frame)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if u == nil {
		t.Fatal("expected a ticker update")
	}
	if u.Price != 97000.50 || u.Bid != 97000.00 || u.Ask != 97001.00 {
		t.Errorf("unexpected values: %+v", u)
	}
}

func TestParseIgnoresNonTicker(t *testing.T) {
	a := New()
	u, err := a.Parse([]byte(`{"result":null,"id":1}`))
	if err != nil || u != nil {
		t.Errorf("frame without price should be ignored, got %+v err=%v", u, err)
	}
}

func TestParseMalformed(t *testing.T) {
	a := New()
	if _, err := a.Parse([]byte(`{not json`)); err == nil {
		t.Error("malformed frame should error")
	}
}

func TestConnectURLEmbedsSymbol(t *testing.T) {
	a := New()
	url, ping, err := a.ConnectURL(context.Background(), "BTC")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(url, "btcusdt@ticker") {
		t.Errorf("url missing symbol: %s", url)
	}
	if ping != 0 {
		t.Errorf("no ping override expected, got %v", ping)
	}
	if sub, _ := a.SubscribeMessage("BTC"); sub != nil {
		t.Error("stream-url venue must not send a subscribe frame")
	}
}

func TestSymbolFor(t *testing.T) {
	a := New()
	if got := a.SymbolFor("eth"); got != "ETHUSDT" {
		t.Errorf("got %s want ETHUSDT", got)
	}
}
