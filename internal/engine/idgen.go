package engine

import (
	"strconv"
	"time"
)

// IDGenerator hands out monotonically increasing numeric ids. Each matching
// domain owns its generators; they are not safe for concurrent use.
type IDGenerator struct {
	last int64
}

// NewIDGenerator creates a generator whose first id is base+1.
func NewIDGenerator(base int64) *IDGenerator {
	return &IDGenerator{last: base}
}

// Next returns the next id.
func (g *IDGenerator) Next() string {
	g.last++
	return strconv.FormatInt(g.last, 10)
}

// Reset moves the sequence to base so that the next id is base+1. A base
// at or below the last issued id leaves the sequence where it is, so ids
// never repeat.
func (g *IDGenerator) Reset(base int64) {
	g.last = max(base, g.last)
}

// SeedFromTime derives a base from t as yyyymmddHHMMSS * 100000, which keeps
// ids sortable by generation time and distinct across runs.
func SeedFromTime(t time.Time) int64 {
	stamp, _ := strconv.ParseInt(t.Format("20060102150405"), 10, 64)
	return stamp * 100000
}
