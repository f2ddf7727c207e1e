package port

import "context"

// OracleProbe supplies an independent reference price with its own
// timestamp. Start is non-blocking; the probe maintains its connection
// (or polling loop) until Stop.
type OracleProbe interface {
	Start(ctx context.Context) error
	Stop()

	// Price returns the latest reference price and its receipt time.
	// ok is false until the first observation arrives.
	Price() (price float64, tsMs int64, ok bool)

	// Source names the active path, e.g. "chainlink" or "kraken-rest".
	Source() string
}
