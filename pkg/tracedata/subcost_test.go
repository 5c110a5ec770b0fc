package tracedata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

func TestParseSubCost(t *testing.T) {
	t.Parallel()

	value, rest, ok := tracedata.ParseSubCost("1234 56")
	require.True(t, ok)
	assert.Equal(t, tracedata.SubCost(1234), value)
	assert.Equal(t, " 56", rest)

	value, rest, ok = tracedata.ParseSubCost("  42")
	require.True(t, ok)
	assert.Equal(t, tracedata.SubCost(42), value)
	assert.Empty(t, rest)

	_, rest, ok = tracedata.ParseSubCost("abc")
	assert.False(t, ok)
	assert.Equal(t, "abc", rest)

	_, _, ok = tracedata.ParseSubCost("")
	assert.False(t, ok)
}

func TestSubCostFromFloat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tracedata.SubCost(3), tracedata.SubCostFromFloat(2.5))
	assert.Equal(t, tracedata.SubCost(2), tracedata.SubCostFromFloat(2.4))
	assert.Equal(t, tracedata.SubCost(0), tracedata.SubCostFromFloat(-1.0))
}

func TestSubCostPretty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1,234,567", tracedata.SubCost(1234567).Pretty())
	assert.Equal(t, "0", tracedata.SubCost(0).Pretty())
}
