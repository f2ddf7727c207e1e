package kraken

import (
	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(application.VenueKraken, func() port.VenueAdapter {
		return New()
	})
}
