package exchange

import (
	"testing"

	"pulsefeed/internal/application/port"
)

func TestRegisterAndGet(t *testing.T) {
	called := false
	Register("testvenue", func() port.VenueAdapter {
		called = true
		return nil
	})

	f, ok := Get("testvenue")
	if !ok {
		t.Fatal("factory not found after Register")
	}
	f()
	if !called {
		t.Error("factory not invoked")
	}

	if _, ok := Get("no-such-venue"); ok {
		t.Error("unknown venue should not resolve")
	}
}

func TestRegisterNilFactoryIgnored(t *testing.T) {
	Register("nilvenue", nil)
	if _, ok := Get("nilvenue"); ok {
		t.Error("nil factory should not be registered")
	}
}
