package kucoin

import (
	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(application.VenueKuCoin, func() port.VenueAdapter {
		return New()
	})
}
