// Package tracedata holds profiling data read from one or more trace parts
// describing a single run of a command.
//
// The central type is Data: it owns the event-type Mapping, the trace Parts,
// and interning maps for binary objects, source files, classes and functions.
// Cost-bearing entities form a hierarchy from per-instruction counters up to
// whole-run totals. Per-part costs are fixed once ingested; everything that
// sums over parts is recomputed lazily whenever the set of active parts
// changes. Recursive call chains are collapsed into synthetic cycle nodes so
// that inclusive costs stay bounded.
package tracedata

import (
	"math"

	"github.com/dustin/go-humanize"
)

// SubCost is a single event counter. Counter totals of real traces fit a
// 64-bit value easily; arithmetic wraps silently on overflow.
type SubCost uint64

// SubCostFromFloat rounds to the nearest integer counter value.
func SubCostFromFloat(value float64) SubCost {
	if value <= 0 {
		return 0
	}

	return SubCost(math.Floor(value + 0.5))
}

// ParseSubCost reads a decimal ASCII counter from the start of s, returning
// the value, the unconsumed rest, and whether any digits were read. Leading
// spaces are skipped.
func ParseSubCost(s string) (SubCost, string, bool) {
	pos := 0
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t') {
		pos++
	}

	start := pos

	var value SubCost

	for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
		value = value*10 + SubCost(s[pos]-'0')
		pos++
	}

	if pos == start {
		return 0, s, false
	}

	return value, s[pos:], true
}

// Pretty renders the counter with thousands separators.
func (c SubCost) Pretty() string {
	return humanize.Comma(int64(c)) //nolint:gosec // display only, wraps with the counter.
}
