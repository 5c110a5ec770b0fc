package tracedata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

func TestVirtualTypeEvaluation(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "l1rm", "l2rm")

	virtual := tracedata.NewCostType("RM2", "Read Miss Sum", "l1rm + l2rm")
	require.NotEqual(t, tracedata.InvalidIndex, mapping.Add(virtual))
	require.NoError(t, virtual.ParseFormula())

	var vector tracedata.CostVector

	vector.AddSubCost(0, 3)
	vector.AddSubCost(1, 7)

	assert.Equal(t, tracedata.SubCost(10), virtual.EvalVector(&vector))
}

func TestVirtualTypeCoefficientsAndConstant(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir", "Dr")

	virtual := tracedata.NewCostType("W", "Weighted", "2*Ir + 10*Dr - 1")
	mapping.Add(virtual)
	require.NoError(t, virtual.ParseFormula())

	var vector tracedata.CostVector

	vector.AddSubCost(0, 4)
	vector.AddSubCost(1, 3)

	assert.Equal(t, tracedata.SubCost(2*4+10*3-1), virtual.EvalVector(&vector))
}

func TestVirtualTypeNestedFormula(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "a", "b")

	inner := tracedata.NewCostType("sum", "", "a + b")
	mapping.Add(inner)

	outer := tracedata.NewCostType("twice", "", "2*sum")
	mapping.Add(outer)
	require.NoError(t, outer.ParseFormula())

	var vector tracedata.CostVector

	vector.AddSubCost(0, 5)
	vector.AddSubCost(1, 6)

	assert.Equal(t, tracedata.SubCost(22), outer.EvalVector(&vector))
}

func TestFormulaUnresolvedName(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "l1rm")

	virtual := tracedata.NewCostType("RMx", "", "l1rm + foo")
	mapping.Add(virtual)

	err := virtual.ParseFormula()
	require.ErrorIs(t, err, tracedata.ErrFormulaUnresolved)

	var vector tracedata.CostVector

	vector.AddSubCost(0, 3)
	assert.Equal(t, tracedata.SubCost(0), virtual.EvalVector(&vector))
}

func TestFormulaCycleDetection(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir")

	first := tracedata.NewCostType("x", "", "y + Ir")
	second := tracedata.NewCostType("y", "", "x + Ir")
	mapping.Add(first)
	mapping.Add(second)

	err := first.ParseFormula()
	require.ErrorIs(t, err, tracedata.ErrFormulaCycle)

	var vector tracedata.CostVector

	vector.AddSubCost(0, 9)
	assert.Equal(t, tracedata.SubCost(0), first.EvalVector(&vector))
}

func TestFormulaSelfReference(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir")

	selfRef := tracedata.NewCostType("loop", "", "loop + 1")
	mapping.Add(selfRef)

	require.ErrorIs(t, selfRef.ParseFormula(), tracedata.ErrFormulaCycle)
}

func TestFormulaNegativeResultClamps(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir", "Dr")

	virtual := tracedata.NewCostType("neg", "", "Ir - Dr")
	mapping.Add(virtual)
	require.NoError(t, virtual.ParseFormula())

	var vector tracedata.CostVector

	vector.AddSubCost(0, 1)
	vector.AddSubCost(1, 5)

	assert.Equal(t, tracedata.SubCost(0), virtual.EvalVector(&vector))
}

func TestParsedFormula(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir", "Dr")

	virtual := tracedata.NewCostType("W", "", "2*Ir + Dr - 3")
	mapping.Add(virtual)

	assert.Equal(t, "2*Ir + Dr - 3", virtual.ParsedFormula())
}

func TestMappingAddRealIdempotent(t *testing.T) {
	t.Parallel()

	mapping := tracedata.NewMapping()

	first := mapping.AddReal("Ir")
	second := mapping.AddReal("Ir")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mapping.RealCount())
}

func TestMappingLookups(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir", "Dr")

	require.NotNil(t, mapping.TypeByName("Dr"))
	assert.Equal(t, 1, mapping.TypeByName("Dr").RealIndex())
	assert.Equal(t, 1, mapping.RealIndex("Dr"))
	assert.Equal(t, tracedata.InvalidIndex, mapping.RealIndex("Dw"))

	// Known real types contribute their long names.
	assert.Equal(t, "Instruction Fetch", mapping.RealType(0).LongName())
	assert.NotNil(t, mapping.TypeByLongName("Instruction Fetch"))
}

func TestMappingAddKnownVirtualTypes(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir", "I1mr", "D1mr", "D1mw", "I2mr", "D2mr", "D2mw")

	added := mapping.AddKnownVirtualTypes()
	assert.Positive(t, added)

	// CEst references L1m and L2m, so the fixpoint must resolve all three.
	require.NotNil(t, mapping.TypeByName("L1m"))
	require.NotNil(t, mapping.TypeByName("L2m"))
	require.NotNil(t, mapping.TypeByName("CEst"))

	var vector tracedata.CostVector

	vector.AddSubCost(0, 100) // Ir
	vector.AddSubCost(1, 1)   // I1mr
	vector.AddSubCost(4, 2)   // I2mr

	assert.Equal(t, tracedata.SubCost(100+10*1+100*2), mapping.TypeByName("CEst").EvalVector(&vector))
}

func TestSubMappingUnusedChain(t *testing.T) {
	t.Parallel()

	mapping := newMappingWithReals(t, "Ir", "Dr", "Dw")
	subMapping := mapping.SubMappingFor("Dr")

	assert.Equal(t, 1, subMapping.Count())
	assert.Equal(t, 1, subMapping.RealIndex(0))
	assert.False(t, subMapping.IsIdentity())

	// Unused chain covers all real slots except index 1.
	unused := []int{}
	for i := subMapping.FirstUnused(); i != tracedata.InvalidIndex; i = subMapping.NextUnused(i) {
		unused = append(unused, i)
	}

	assert.Equal(t, []int{0, 2, 3, 4, 5, 6, 7, 8, 9}, unused)
}

func TestSubMappingAllocatesUnknownNames(t *testing.T) {
	t.Parallel()

	mapping := tracedata.NewMapping()

	first := mapping.SubMappingFor("Event1 Cost1 Cost2")
	assert.Equal(t, []int{0, 1, 2}, submapIndices(first))

	second := mapping.SubMappingFor("Event2 Cost3 Event1")
	assert.Equal(t, []int{3, 4, 0}, submapIndices(second))

	assert.Equal(t, 5, mapping.RealCount())
}

func submapIndices(subMapping *tracedata.SubMapping) []int {
	indices := make([]int, subMapping.Count())
	for i := range indices {
		indices[i] = subMapping.RealIndex(i)
	}

	return indices
}

func TestKnownTypeRegistry(t *testing.T) {
	t.Parallel()

	require.NotNil(t, tracedata.KnownRealType("Ir"))
	require.NotNil(t, tracedata.KnownVirtualType("CEst"))
	assert.Nil(t, tracedata.KnownRealType("CEst"))
	assert.Positive(t, tracedata.KnownTypeCount())
	assert.NotNil(t, tracedata.KnownType(0))
	assert.Nil(t, tracedata.KnownType(-1))
}
