package gemini

import (
	"context"
	"strings"
	"testing"
)

func TestParseTradeEvent(t *testing.T) {
	a := New()
	frame := []byte(`{"type":"update","eventId":1,"events":[{"type":"trade","tid":2,"price":"97003.11","amount":"0.01","makerSide":"ask"}]}`)

	u, err := a.Parse(frame)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if u == nil || u.Price != 97003.11 {
		t.Errorf("unexpected update: %+v", u)
	}
}

func TestChangeEventsOnlyMoveTopOfBook(t *testing.T) {
	a := New()

	// book-only update carries no price
	book := []byte(`{"type":"update","eventId":2,"events":[{"type":"change","side":"bid","price":"97002.00","remaining":"1.5"},{"type":"change","side":"ask","price":"97004.00","remaining":"0.2"}]}`)
	u, err := a.Parse(book)
	if err != nil || u != nil {
		t.Fatalf("change-only frame should be ignored, got %+v err=%v", u, err)
	}

	// the next trade picks up the cached bid/ask
	trade := []byte(`{"type":"update","eventId":3,"events":[{"type":"trade","price":"97003.00"}]}`)
	u, err = a.Parse(trade)
	if err != nil || u == nil {
		t.Fatalf("trade after change failed: %+v err=%v", u, err)
	}
	if u.Bid != 97002.00 || u.Ask != 97004.00 {
		t.Errorf("top of book not carried: %+v", u)
	}
}

func TestParseHeartbeat(t *testing.T) {
	a := New()
	u, err := a.Parse([]byte(`{"type":"heartbeat","socket_sequence":10}`))
	if err != nil || u != nil {
		t.Errorf("heartbeat should be ignored, got %+v err=%v", u, err)
	}
}

func TestConnectURLAndXRP(t *testing.T) {
	a := New()

	url, _, err := a.ConnectURL(context.Background(), "BTC")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(url, "/marketdata/btcusd") {
		t.Errorf("unexpected url: %s", url)
	}

	if _, _, err := a.ConnectURL(context.Background(), "XRP"); err == nil {
		t.Error("gemini has no XRP book; ConnectURL must refuse")
	}
}
