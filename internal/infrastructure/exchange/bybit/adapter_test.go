package bybit

import (
	"strings"
	"testing"
)

func TestParseSnapshotObjectData(t *testing.T) {
	a := New()
	frame := []byte(`{"topic":"tickers.BTCUSDT","type":"snapshot","ts":1700000000000,"data":{"symbol":"BTCUSDT","lastPrice":"97164.90","bid1Price":"97164.80","ask1Price":"97165.00"}}`)

	u, err := a.Parse(frame)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if u == nil {
		t.Fatal("expected a ticker update")
	}
	if u.Price != 97164.90 || u.Bid != 97164.80 || u.Ask != 97165.00 {
		t.Errorf("unexpected values: %+v", u)
	}
}

func TestParseArrayData(t *testing.T) {
	a := New()
	frame := []byte(`{"topic":"tickers.BTCUSDT","type":"snapshot","data":[{"symbol":"BTCUSDT","lastPrice":"97164.90"}]}`)

	u, err := a.Parse(frame)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if u == nil || u.Price != 97164.90 {
		t.Errorf("unexpected update: %+v", u)
	}
}

func TestParseAck(t *testing.T) {
	a := New()

	u, err := a.Parse([]byte(`{"success":true,"ret_msg":"subscribe","op":"subscribe"}`))
	if err != nil || u != nil {
		t.Errorf("success ack should be ignored, got %+v err=%v", u, err)
	}

	if _, err := a.Parse([]byte(`{"success":false,"ret_msg":"topic not exist","op":"subscribe"}`)); err == nil {
		t.Error("failed ack should surface as parse error")
	}
}

func TestSubscribeMessage(t *testing.T) {
	a := New()
	sub, err := a.SubscribeMessage("BTC")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(sub), `"tickers.BTCUSDT"`) {
		t.Errorf("unexpected subscribe frame: %s", sub)
	}
}
