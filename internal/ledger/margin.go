package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/efreitasn/simmatch/internal/domain"
)

// Wildcard is the margin-table key that applies to any symbol without its own
// entry. It must be configured explicitly.
const Wildcard = "*"

// MarginRate holds the margin ratios by money for one symbol.
type MarginRate struct {
	Symbol     string
	LongRatio  float64
	ShortRatio float64
}

// Ratio returns the ratio for positions held in direction d.
func (r MarginRate) Ratio(d domain.Direction) float64 {
	if d == domain.DirectionLong {
		return r.LongRatio
	}
	return r.ShortRatio
}

// MarginTable maps symbol → margin rate.
type MarginTable map[string]MarginRate

// Lookup returns the rate for symbol, falling back to the wildcard entry.
// A missing rate is a configuration fault.
func (t MarginTable) Lookup(symbol string) (MarginRate, error) {
	if r, ok := t[symbol]; ok {
		return r, nil
	}
	if r, ok := t[Wildcard]; ok {
		r.Symbol = symbol
		return r, nil
	}
	return MarginRate{}, fmt.Errorf("symbol %s: %w", symbol, domain.ErrMarginRateMissing)
}

// ParseMarginTable parses "SYMBOL:long[:short],SYMBOL:long[:short]". When the
// short ratio is omitted it equals the long ratio.
func ParseMarginTable(s string) (MarginTable, error) {
	table := make(MarginTable)
	s = strings.TrimSpace(s)
	if s == "" {
		return table, nil
	}
	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
			return nil, fmt.Errorf("invalid margin rate entry %q, want SYMBOL:long[:short]", entry)
		}
		long, err := parseRatio(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid long ratio in %q: %w", entry, err)
		}
		short := long
		if len(parts) == 3 {
			short, err = parseRatio(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid short ratio in %q: %w", entry, err)
			}
		}
		table[parts[0]] = MarginRate{Symbol: parts[0], LongRatio: long, ShortRatio: short}
	}
	return table, nil
}

func parseRatio(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("ratio must be >= 0, got %v", v)
	}
	return v, nil
}
