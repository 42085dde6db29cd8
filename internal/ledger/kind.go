package ledger

import (
	"fmt"

	"github.com/efreitasn/simmatch/internal/domain"
)

// InstrumentKind selects how orders map onto position sides.
type InstrumentKind string

const (
	// KindFuture keeps independent long and short sides and honours the
	// order's offset.
	KindFuture InstrumentKind = "future"
	// KindEquity only holds long positions: buys open, sells close.
	KindEquity InstrumentKind = "equity"
)

// ParseKind validates a kind name.
func ParseKind(s string) (InstrumentKind, error) {
	switch InstrumentKind(s) {
	case KindFuture, KindEquity:
		return InstrumentKind(s), nil
	}
	return "", fmt.Errorf("unknown instrument kind %q, must be one of: future, equity", s)
}

// offset returns the offset the ledger applies for an order or trade with the
// given direction and requested offset.
func (k InstrumentKind) offset(d domain.Direction, requested domain.Offset) domain.Offset {
	if k != KindEquity {
		return requested
	}
	if d == domain.DirectionLong {
		return domain.OffsetOpen
	}
	if requested == domain.OffsetOpen {
		return domain.OffsetClose
	}
	return requested
}
