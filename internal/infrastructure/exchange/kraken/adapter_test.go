package kraken

import (
	"strings"
	"testing"
)

func TestParseSnapshotAndUpdate(t *testing.T) {
	a := New()
	for _, frame := range []string{
		`{"channel":"ticker","type":"snapshot","data":[{"symbol":"BTC/USD","last":97005.1,"bid":97005.0,"ask":97005.2}]}`,
		`{"channel":"ticker","type":"update","data":[{"symbol":"BTC/USD","last":97005.1,"bid":97005.0,"ask":97005.2}]}`,
	} {
		u, err := a.Parse([]byte(frame))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if u == nil || u.Price != 97005.1 {
			t.Errorf("unexpected update for %s: %+v", frame, u)
		}
	}
}

func TestParseSkipsControlFrames(t *testing.T) {
	a := New()
	for _, frame := range []string{
		`{"channel":"heartbeat"}`,
		`{"channel":"status","type":"update","data":[{"system":"online"}]}`,
		`{"method":"subscribe","success":true,"result":{"channel":"ticker","symbol":"BTC/USD"}}`,
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
	if !strings.Contains(s, `"channel":"ticker"`) || !strings.Contains(s, "BTC/USD") {
		t.Errorf("unexpected subscribe frame: %s", s)
	}
}
