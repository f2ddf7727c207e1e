package coinbase

import (
	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(application.VenueCoinbase, func() port.VenueAdapter {
		return New()
	})
}
