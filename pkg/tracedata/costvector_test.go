package tracedata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

func newMappingWithReals(t *testing.T, names ...string) *tracedata.Mapping {
	t.Helper()

	mapping := tracedata.NewMapping()
	for _, name := range names {
		require.NotEqual(t, tracedata.InvalidIndex, mapping.AddReal(name))
	}

	return mapping
}

func TestCostVectorAddAndDiff(t *testing.T) {
	t.Parallel()

	var a, b tracedata.CostVector

	a.AddSubCost(0, 10)
	a.AddSubCost(1, 5)
	b.AddSubCost(0, 3)
	b.AddSubCost(1, 8)
	b.AddSubCost(2, 2)

	a.AddCost(&b)
	assert.Equal(t, 3, a.Count())
	assert.Equal(t, tracedata.SubCost(13), a.SubCost(0))
	assert.Equal(t, tracedata.SubCost(13), a.SubCost(1))
	assert.Equal(t, tracedata.SubCost(2), a.SubCost(2))

	diff := a.Diff(&b)
	assert.Equal(t, tracedata.SubCost(10), diff.SubCost(0))
	assert.Equal(t, tracedata.SubCost(5), diff.SubCost(1))
	assert.Equal(t, tracedata.SubCost(0), diff.SubCost(2))
}

func TestCostVectorDiffSaturates(t *testing.T) {
	t.Parallel()

	var a, b tracedata.CostVector

	a.AddSubCost(0, 3)
	b.AddSubCost(0, 7)

	diff := a.Diff(&b)
	assert.Equal(t, tracedata.SubCost(0), diff.SubCost(0))
}

func TestCostVectorSetRowIdentity(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir", "Dr", "Dw")
	subMapping := mapping.SubMappingFor("Ir Dr Dw")
	require.True(t, subMapping.IsIdentity())

	var vector tracedata.CostVector

	vector.SetRow(subMapping, "5 10 15")
	assert.Equal(t, tracedata.SubCost(5), vector.SubCost(0))
	assert.Equal(t, tracedata.SubCost(10), vector.SubCost(1))
	assert.Equal(t, tracedata.SubCost(15), vector.SubCost(2))
}

func TestCostVectorSetRowPermuted(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir", "Dr", "Dw")

	// Columns arrive as Dw Ir Dr: the sub-mapping indices are [2,0,1].
	subMapping := mapping.SubMappingFor("Dw Ir Dr")
	require.False(t, subMapping.IsIdentity())

	var vector tracedata.CostVector

	vector.SetRow(subMapping, "5 10 15")
	assert.Equal(t, tracedata.SubCost(10), vector.SubCost(0))
	assert.Equal(t, tracedata.SubCost(15), vector.SubCost(1))
	assert.Equal(t, tracedata.SubCost(5), vector.SubCost(2))
}

func TestCostVectorRowRoundTrip(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir", "Dr")
	subMapping := mapping.SubMappingFor("Dr Ir")

	var first, second tracedata.CostVector

	first.SetRow(subMapping, "3 7")

	// Re-deriving the sub-mapping from its own serialisation and parsing
	// the same row must yield an identical vector.
	reparsed := mapping.SubMappingFor(subMapping.TypeNames())
	second.SetRow(reparsed, "3 7")

	assert.Equal(t, first.SubCost(0), second.SubCost(0))
	assert.Equal(t, first.SubCost(1), second.SubCost(1))
	assert.Equal(t, first.Count(), second.Count())
}

func TestCostVectorAddRowAccumulates(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir")
	subMapping := mapping.SubMappingFor("Ir")

	var vector tracedata.CostVector

	vector.SetRow(subMapping, "5")
	vector.AddRow(subMapping, "7")
	assert.Equal(t, tracedata.SubCost(12), vector.SubCost(0))
}
