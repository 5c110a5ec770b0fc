package tracedata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

// ingest is a minimal stand-in for the trace parser: it wires one cost row
// for a line of a function into a part, through the factory chain.
func ingest(data *tracedata.Data, part *tracedata.Part, fn *tracedata.Function, lineno uint, row string) {
	file := fn.File()
	object := fn.Object()

	partFunction := fn.PartFunction(part, file.PartFile(part), object.PartObject(part))

	line := fn.Line(file, lineno, true)
	partLine := line.PartLine(part, partFunction)
	partLine.AddRow(part.SubMapping(), row)

	record := data.FixPool().AllocCost(part, lineno, 0, row)
	if record != nil {
		record.SetNext(partFunction.FirstFixCost())
		partFunction.SetFirstFixCost(record)
	}

	part.AddTotals(row)
	data.AddToTotals(part, row)
}

// ingestCall wires one call row (call count plus inclusive cost) from a
// line of caller to called into a part.
func ingestCall(data *tracedata.Data, part *tracedata.Part, caller, called *tracedata.Function, lineno uint, count tracedata.SubCost, row string) {
	callerPart := caller.PartFunction(part, caller.File().PartFile(part), caller.Object().PartObject(part))
	calledPart := called.PartFunction(part, called.File().PartFile(part), called.Object().PartObject(part))

	call := caller.Calling(called)
	partCall := call.PartCall(part, callerPart, calledPart)

	line := caller.Line(caller.File(), lineno, true)
	lineCall := call.LineCall(line)
	partLineCall := lineCall.PartLineCall(part, partCall)

	partLineCall.AddRow(part.SubMapping(), row)
	partLineCall.AddCallCount(count)

	record := data.FixPool().AllocCallCost(part, lineno, 0, count, row)
	if record != nil {
		record.SetNext(partCall.FirstFixCallCost())
		partCall.SetFirstFixCallCost(record)
	}
}

func newPart(data *tracedata.Data, name string, number int, events string) *tracedata.Part {
	part := data.AddPart(name)
	part.SetPartNumber(number)
	part.SetSubMapping(data.Mapping().SubMappingFor(events))

	return part
}

func TestTwoPartsAggregationAndActivation(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	irType := data.Mapping().Type(data.Mapping().AddReal("Ir"))

	partA := newPart(data, "app.out.1", 1, "Ir")
	partB := newPart(data, "app.out.2", 2, "Ir")

	object := data.Object("app")
	file := data.File("main.c")
	fn := data.Function("f", file, object)

	ingest(data, partA, fn, 10, "100")
	ingest(data, partB, fn, 10, "50")

	require.Equal(t, tracedata.SubCost(150), fn.EventCost(irType))
	require.Equal(t, tracedata.SubCost(150), data.EventCost(irType))
	assert.Equal(t, tracedata.SubCost(150), data.Totals().SubCost(0))

	// Deactivating B drops its contribution once aggregates are
	// invalidated; the totals stay activation-independent.
	require.True(t, data.ActivatePart(partB, false))
	data.InvalidateDynamicCost()

	assert.Equal(t, tracedata.SubCost(100), fn.EventCost(irType))
	assert.Equal(t, tracedata.SubCost(100), data.EventCost(irType))
	assert.Equal(t, tracedata.SubCost(150), data.Totals().SubCost(0))

	// Reactivating restores the original value exactly.
	require.True(t, data.ActivatePart(partB, true))
	data.InvalidateDynamicCost()

	assert.Equal(t, tracedata.SubCost(150), fn.EventCost(irType))

	// Unchanged flag reports no change.
	assert.False(t, data.ActivatePart(partB, true))
	assert.False(t, data.ActivateAll(true))
	assert.True(t, data.ActivateAll(false))
}

func TestVirtualTypeOnGraph(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	mapping := data.Mapping()
	mapping.AddReal("l1rm")
	mapping.AddReal("l2rm")

	rm := tracedata.NewCostType("RMs", "Read Misses", "l1rm + l2rm")
	mapping.Add(rm)

	part := newPart(data, "app.out.1", 1, "l1rm l2rm")
	fn := data.Function("f", data.File("main.c"), data.Object("app"))
	ingest(data, part, fn, 1, "3 7")

	assert.Equal(t, tracedata.SubCost(10), fn.EventCost(rm))

	broken := tracedata.NewCostType("RMb", "", "l1rm + foo")
	mapping.Add(broken)
	assert.Equal(t, tracedata.SubCost(0), fn.EventCost(broken))
}

func TestCumulativeAtLeastSelf(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	irType := data.Mapping().Type(data.Mapping().AddReal("Ir"))

	part := newPart(data, "app.out.1", 1, "Ir")

	object := data.Object("app")
	file := data.File("main.c")
	mainFn := data.Function("main", file, object)
	worker := data.Function("work", file, object)

	ingest(data, part, mainFn, 5, "10")
	ingest(data, part, worker, 20, "90")
	ingestCall(data, part, mainFn, worker, 6, 1, "90")

	self := irType.EvalVector(mainFn.Self())
	inclusive := irType.EvalVector(mainFn.Cumulative())

	assert.Equal(t, tracedata.SubCost(10), self)
	assert.Equal(t, tracedata.SubCost(100), inclusive)
	assert.GreaterOrEqual(t, uint64(inclusive), uint64(self))

	assert.Equal(t, tracedata.SubCost(1), worker.CalledCount())
	assert.Equal(t, tracedata.SubCost(1), mainFn.CallingCount())
}

func TestCallCountConsistency(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	data.Mapping().AddReal("Ir")

	partA := newPart(data, "app.out.1", 1, "Ir")
	partB := newPart(data, "app.out.2", 2, "Ir")

	object := data.Object("app")
	file := data.File("main.c")
	caller := data.Function("caller", file, object)
	called := data.Function("called", file, object)

	ingest(data, partA, caller, 1, "1")
	ingest(data, partB, caller, 1, "1")
	ingestCall(data, partA, caller, called, 2, 3, "30")
	ingestCall(data, partB, caller, called, 2, 4, "40")

	call := caller.Callings(false)[0]
	require.Equal(t, tracedata.SubCost(7), call.CallCount())

	var lineCallSum, partCallSum tracedata.SubCost

	for _, lineCall := range call.LineCalls() {
		lineCallSum += lineCall.CallCount()
	}

	for _, partCall := range call.PartCalls() {
		if partCall.Part().IsActive() {
			partCallSum += partCall.CallCount()
		}
	}

	assert.Equal(t, call.CallCount(), lineCallSum)
	assert.Equal(t, call.CallCount(), partCallSum)

	// Only active parts count.
	data.ActivatePart(partB, false)
	data.InvalidateDynamicCost()
	assert.Equal(t, tracedata.SubCost(3), call.CallCount())
}

func TestSelfRecursionCycle(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	data.Mapping().AddReal("Ir")

	part := newPart(data, "app.out.1", 1, "Ir")
	object := data.Object("app")
	file := data.File("main.c")
	mainFn := data.Function("main", file, object)

	ingest(data, part, mainFn, 1, "10")
	ingestCall(data, part, mainFn, mainFn, 2, 5, "10")

	data.UpdateFunctionCycles()

	cycles := data.FunctionCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, 1, cycles[0].CycleNo())
	require.Len(t, cycles[0].Members(), 1)
	assert.Same(t, mainFn, cycles[0].Members()[0])

	require.NotNil(t, mainFn.Cycle())
	assert.True(t, mainFn.IsCycleMember())

	call := mainFn.Callings(false)[0]
	assert.Equal(t, 1, call.InCycle())
}

func TestMutualRecursionCycle(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	irType := data.Mapping().Type(data.Mapping().AddReal("Ir"))

	part := newPart(data, "app.out.1", 1, "Ir")
	object := data.Object("app")
	file := data.File("main.c")

	a := data.Function("a", file, object)
	b := data.Function("b", file, object)
	c := data.Function("c", file, object)
	d := data.Function("d", file, object)

	ingest(data, part, a, 1, "10")
	ingest(data, part, b, 10, "10")
	ingest(data, part, c, 20, "10")
	ingest(data, part, d, 30, "10")

	ingestCall(data, part, a, b, 2, 1, "20")
	ingestCall(data, part, b, c, 11, 1, "15")
	ingestCall(data, part, c, a, 21, 1, "10")
	ingestCall(data, part, a, d, 3, 1, "10")

	data.UpdateFunctionCycles()

	cycles := data.FunctionCycles()
	require.Len(t, cycles, 1)

	cycle := cycles[0]
	assert.Len(t, cycle.Members(), 3)
	assert.True(t, a.IsCycleMember())
	assert.True(t, b.IsCycleMember())
	assert.True(t, c.IsCycleMember())
	assert.False(t, d.IsCycleMember())

	// The external view shows the cycle node calling d.
	cycleNode := &cycle.Function
	externalCallings := cycleNode.Callings(true)
	require.Len(t, externalCallings, 1)
	assert.Same(t, d, externalCallings[0].Called(false))
	assert.Same(t, cycleNode, externalCallings[0].Caller(true))

	// Cycle cost sums the members.
	assert.Equal(t, tracedata.SubCost(30), cycleNode.EventCost(irType))
	assert.Equal(t, "<cycle 1>", cycleNode.Name())

	// Intra-cycle edges report the cycle number; boundary edges do not.
	assert.Equal(t, 1, a.Calling(b).InCycle())
	assert.Equal(t, 0, a.Calling(d).InCycle())
}

func TestCycleIdempotence(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	data.Mapping().AddReal("Ir")

	part := newPart(data, "app.out.1", 1, "Ir")
	object := data.Object("app")
	file := data.File("main.c")

	a := data.Function("a", file, object)
	b := data.Function("b", file, object)

	ingest(data, part, a, 1, "1")
	ingest(data, part, b, 2, "1")
	ingestCall(data, part, a, b, 1, 1, "1")
	ingestCall(data, part, b, a, 2, 1, "1")

	data.UpdateFunctionCycles()

	require.Len(t, data.FunctionCycles(), 1)
	firstMembers := append([]*tracedata.Function(nil), data.FunctionCycles()[0].Members()...)
	firstNo := data.FunctionCycles()[0].CycleNo()

	data.UpdateFunctionCycles()

	require.Len(t, data.FunctionCycles(), 1)
	assert.Equal(t, firstNo, data.FunctionCycles()[0].CycleNo())
	assert.Equal(t, firstMembers, data.FunctionCycles()[0].Members())
}

func TestGroupCycles(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	data.Mapping().AddReal("Ir")

	part := newPart(data, "app.out.1", 1, "Ir")

	objectA := data.Object("liba.so")
	objectB := data.Object("libb.so")
	fileA := data.File("a.c")
	fileB := data.File("b.c")

	a := data.Function("a", fileA, objectA)
	b := data.Function("b", fileB, objectB)

	ingest(data, part, a, 1, "1")
	ingest(data, part, b, 1, "1")
	ingestCall(data, part, a, b, 2, 1, "1")
	ingestCall(data, part, b, a, 2, 1, "1")

	objectCycles := data.UpdateObjectCycles()
	require.Len(t, objectCycles, 1)
	assert.Len(t, objectCycles[0].Members, 2)
	assert.Equal(t, 1, objectA.CycleNo())
	assert.Equal(t, 1, objectB.CycleNo())

	fileCycles := data.UpdateFileCycles()
	require.Len(t, fileCycles, 1)

	// Both functions share the global class; intra-group calls do not
	// form a group cycle.
	classCycles := data.UpdateClassCycles()
	assert.Empty(t, classCycles)
	assert.Equal(t, 0, data.Class("a").CycleNo())
}

func TestSearch(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	irType := data.Mapping().Type(data.Mapping().AddReal("Ir"))

	part := newPart(data, "app.out.1", 1, "Ir")

	objectA := data.Object("first.so")
	objectB := data.Object("second.so")
	file := data.File("proc.c")

	procA := data.Function("process", file, objectA)
	procB := data.Function("process", file, objectB)

	ingest(data, part, procA, 1, "100")
	ingest(data, part, procB, 1, "250")

	require.NotSame(t, procA, procB)

	found := data.Search(tracedata.KindFunction, "process", irType, nil)
	assert.Same(t, procB, found)

	found = data.Search(tracedata.KindFunction, "process", irType, objectA)
	assert.Same(t, procA, found)

	// Instr/Line/Call need a Function parent.
	assert.Nil(t, data.Search(tracedata.KindLine, "1", irType, nil))
	assert.Nil(t, data.Search(tracedata.KindCall, "x", irType, objectA))

	line := data.Search(tracedata.KindLine, "1", irType, procA)
	require.NotNil(t, line)
	assert.Equal(t, tracedata.SubCost(100), line.EventCost(irType))

	object := data.Search(tracedata.KindObject, "second.so", irType, nil)
	assert.Same(t, tracedata.CostItem(objectB), object)
}

func TestPartMetadataAndRange(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	data.Mapping().AddReal("Ir")

	partA := newPart(data, "app.out.1", 1, "Ir")
	partB := newPart(data, "app.out.2", 2, "Ir")
	partC := newPart(data, "app.out.7", 7, "Ir")

	partA.SetThreadID(11)
	partA.SetProcessID(42)
	partA.SetTrigger("dump request")
	partA.SetTimeframe("0-1000")
	partA.SetVersion("3.21")
	partA.SetDescription("warmup slice")

	assert.Equal(t, 11, data.MaxThreadID())
	assert.Equal(t, 7, data.MaxPartNumber())
	assert.Equal(t, "1-2,7", data.ActivePartRange())

	partB.Activate(false)
	assert.Equal(t, "1,7", data.ActivePartRange())

	assert.Equal(t, "app.out.1", partA.ShortName())
	assert.Equal(t, "Part 1", partA.PrettyName())
	assert.Same(t, partC, data.Part("app.out.7"))
	assert.Nil(t, data.Part("missing"))
}

func TestFixPoolRecordsRows(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	data.Mapping().AddReal("Ir")

	part := newPart(data, "app.out.1", 1, "Ir")
	fn := data.Function("f", data.File("main.c"), data.Object("app"))

	ingest(data, part, fn, 10, "100")
	ingest(data, part, fn, 11, "50")

	assert.Equal(t, 2, data.FixPool().CostCount())

	partFunction := fn.PartFunctions()[0]

	var replayed tracedata.CostVector

	count := 0
	for record := partFunction.FirstFixCost(); record != nil; record = record.Next() {
		record.AddTo(&replayed)
		count++
	}

	assert.Equal(t, 2, count)
	assert.Equal(t, tracedata.SubCost(150), replayed.SubCost(0))
}

type coverageMark struct {
	rtti  int
	valid bool
}

func (m *coverageMark) Rtti() int   { return m.rtti }
func (m *coverageMark) Invalidate() { m.valid = false }

func TestAssociations(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	fn := data.Function("f", data.File("main.c"), data.Object("app"))

	first := &coverageMark{rtti: 1, valid: true}
	second := &coverageMark{rtti: 2, valid: true}
	fn.AddAssociation(first)
	fn.AddAssociation(second)

	assert.Same(t, tracedata.Association(first), fn.Association(1))
	assert.Nil(t, fn.Association(9))

	data.InvalidateAssociations(2)
	assert.True(t, first.valid)
	assert.False(t, second.valid)

	fn.RemoveAssociations(1)
	assert.Nil(t, fn.Association(1))
	assert.NotNil(t, fn.Association(2))

	data.ClearAssociations(0)
	assert.Nil(t, fn.Association(2))
}
