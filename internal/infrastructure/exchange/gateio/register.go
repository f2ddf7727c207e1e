package gateio

import (
	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(application.VenueGateIO, func() port.VenueAdapter {
		return New()
	})
}
