package coinbase

import (
	"strings"
	"testing"
)

func TestParseTicker(t *testing.T) {
	a := New()
	frame := []byte(`{"type":"ticker","product_id":"BTC-USD","price":"97010.25","best_bid":"97010.00","best_ask":"97010.50"}`)

	u, err := a.Parse(frame)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if u == nil {
		t.Fatal("expected a ticker update")
	}
	if u.Price != 97010.25 || u.Bid != 97010.00 || u.Ask != 97010.50 {
		t.Errorf("unexpected values: %+v", u)
	}
}

func TestParseSkipsSubscriptionsAndHeartbeat(t *testing.T) {
	a := New()
	for _, frame := range []string{
		`{"type":"subscriptions","channels":[{"name":"ticker","product_ids":["BTC-USD"]}]}`,
		`{"type":"heartbeat","sequence":90,"product_id":"BTC-USD"}`,
	} {
		u, err := a.Parse([]byte(frame))
		if err != nil || u != nil {
			t.Errorf("frame %s should be ignored, got %+v err=%v", frame, u, err)
		}
	}
}

func TestParseErrorFrame(t *testing.T) {
	a := New()
	if _, err := a.Parse([]byte(`{"type":"error","message":"Failed to subscribe"}`)); err == nil {
		t.Error("error frame should surface as parse error")
	}
}

func TestSubscribeMessage(t *testing.T) {
	a := New()
	sub, err := a.SubscribeMessage("BTC")
	if err != nil {
		t.Fatal(err)
	}
	s := string(sub)
	if !strings.Contains(s, `"type":"subscribe"`) || !strings.Contains(s, "BTC-USD") {
		t.Errorf("unexpected subscribe frame: %s", s)
	}
}
