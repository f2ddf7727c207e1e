package exchange

import (
	"pulsefeed/internal/application/port"

	"github.com/rs/zerolog/log"
)

// Factory creates a venue adapter. One instance per feed: mutable
// adapter state (Gemini's cached top of book) must not be shared.
type Factory func() port.VenueAdapter

// registry maps venue tags to their respective adapter factories
var registry = make(map[string]Factory)

// Register registers a venue adapter factory for a venue tag.
// This is called by each venue package's init() function to self-register.
func Register(venue string, factory Factory) {
	if factory == nil {
		log.Warn().Str("venue", venue).Msg("invalid venue adapter factory")
		return
	}
	if _, exists := registry[venue]; exists {
		log.Warn().Str("venue", venue).Msg("venue adapter factory already registered, overwriting")
	}
	registry[venue] = factory
	log.Debug().Str("venue", venue).Msg("venue adapter factory registered")
}

// Get returns the registered adapter factory for the given venue tag.
func Get(venue string) (Factory, bool) {
	factory, ok := registry[venue]
	return factory, ok
}

// Registered returns every registered venue tag.
func Registered() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	return out
}
