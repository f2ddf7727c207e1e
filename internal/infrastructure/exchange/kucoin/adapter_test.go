package kucoin

import (
	"strings"
	"testing"
)

func TestParseTicker(t *testing.T) {
	a := New()
	frame := []byte(`{"type":"message","topic":"/market/ticker:BTC-USDT","subject":"trade.ticker","data":{"price":"97150.3","bestBid":"97150.2","bestAsk":"97150.4","time":1700000000000}}`)

	u, err := a.Parse(frame)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if u == nil {
		t.Fatal("expected a ticker update")
	}
	if u.Price != 97150.3 || u.Bid != 97150.2 || u.Ask != 97150.4 {
		t.Errorf("unexpected values: %+v", u)
	}
}

func TestParseSkipsWelcomeAckPong(t *testing.T) {
	a := New()
	for _, frame := range []string{
		`{"id":"hQvf8jkno","type":"welcome"}`,
		`{"id":"1700000000000","type":"ack"}`,
		`{"id":"1700000000001","type":"pong"}`,
	} {
		u, err := a.Parse([]byte(frame))
		if err != nil || u != nil {
			t.Errorf("frame %s should be ignored, got %+v err=%v", frame, u, err)
		}
	}
}

func TestSubscribeMessage(t *testing.T) {
	a := New()
	sub, err := a.SubscribeMessage("BTC")
	if err != nil {
		t.Fatal(err)
	}
	s := string(sub)
	if !strings.Contains(s, `"topic":"/market/ticker:BTC-USDT"`) || !strings.Contains(s, `"type":"subscribe"`) {
		t.Errorf("unexpected subscribe frame: %s", s)
	}
}

func TestPingMessageIsJSON(t *testing.T) {
	a := New()
	ping := string(a.PingMessage())
	if !strings.Contains(ping, `"type":"ping"`) {
		t.Errorf("unexpected ping frame: %s", ping)
	}
}
