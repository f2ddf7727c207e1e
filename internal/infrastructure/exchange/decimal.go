package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Decimal decodes numeric ticker fields that venues transmit either as
// JSON numbers or as decimal strings ("97000.50"). Zero means absent.
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = BytesTrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*d = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("decimal string %q: %w", s, err)
		}
		*d = Decimal(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = Decimal(f)
	return nil
}

// Float64 returns the plain value.
func (d Decimal) Float64() float64 { return float64(d) }

// BytesTrimSpace strips surrounding JSON whitespace without allocating.
func BytesTrimSpace(b []byte) []byte {
	i := 0
	j := len(b) - 1
	for i <= j && (b[i] == ' ' || b[i] == '\n' || b[i] == '\r' || b[i] == '\t') {
		i++
	}
	for j >= i && (b[j] == ' ' || b[j] == '\n' || b[j] == '\r' || b[j] == '\t') {
		j--
	}
	if i > j {
		return []byte{}
	}
	return b[i : j+1]
}
