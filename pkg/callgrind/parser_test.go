package callgrind_test

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevleyski/kcachegrind/pkg/callgrind"
	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

const simpleTrace = `# callgrind format
version: 1
creator: callgrind-3.21
cmd: ./app
part: 1
pid: 1234
thread: 2
events: Ir Dr

ob=(1) /usr/bin/app
fl=(1) main.c
fn=(1) main
10 100 20
+2 50 5

cfl=(2) helper.c
cfn=(2) helper
calls=3 31
13 300 30

fn=(2)
31 250 25
+1 50 5

summary: 750 85
`

func loadString(t *testing.T, data *tracedata.Data, trace, name string) *tracedata.Part {
	t.Helper()

	parser := &callgrind.Parser{}

	part, err := parser.Load(data, strings.NewReader(trace), name)
	require.NoError(t, err)
	require.Zero(t, parser.SkippedRecords())

	return part
}

func TestLoadSimpleTrace(t *testing.T) {
	t.Parallel()

	data := tracedata.NewData()
	part := loadString(t, data, simpleTrace, "app.out.1")

	assert.Equal(t, "./app", data.Command())
	assert.Equal(t, 1, part.PartNumber())
	assert.Equal(t, 1234, part.ProcessID())
	assert.Equal(t, 2, part.ThreadID())
	assert.Equal(t, "1", part.Version())

	mapping := data.Mapping()
	irType := mapping.TypeByName("Ir")
	require.NotNil(t, irType)

	mainFn := data.Search(tracedata.KindFunction, "main", irType, nil)
	require.NotNil(t, mainFn)
	assert.Equal(t, tracedata.SubCost(150), mainFn.EventCost(irType))

	helper := data.Search(tracedata.KindFunction, "helper", irType, nil)
	require.NotNil(t, helper)
	assert.Equal(t, tracedata.SubCost(300), helper.EventCost(irType))

	// The call edge carries count and inclusive cost.
	mainFunction := mainFn.(*tracedata.Function)
	require.Len(t, mainFunction.Callings(false), 1)

	call := mainFunction.Callings(false)[0]
	assert.Equal(t, tracedata.SubCost(3), call.CallCount())
	assert.Equal(t, tracedata.SubCost(300), call.EventCost(irType))
	assert.Equal(t, "helper", call.Called(false).Name())

	// Inclusive cost of main spans the helper calls.
	assert.Equal(t, tracedata.SubCost(450), irType.EvalVector(mainFunction.Cumulative()))

	// Explicit summary wins over row sums.
	assert.Equal(t, tracedata.SubCost(750), part.Totals().SubCost(0))
	assert.Equal(t, tracedata.SubCost(85), part.Totals().SubCost(1))

	// Relative line positions resolve against the previous position.
	line := data.Search(tracedata.KindLine, "12", irType, mainFunction)
	require.NotNil(t, line)
	assert.Equal(t, tracedata.SubCost(50), line.EventCost(irType))

	// Compressed references resolve: fn=(2) continued helper.
	helperFile := helper.(*tracedata.Function).File()
	assert.Equal(t, "helper.c", helperFile.Name())
}

func TestLoadTwoPartsAndActivation(t *testing.T) {
	t.Parallel()

	const partOne = `events: Ir
fl=(1) main.c
fn=(1) f
10 100
`

	const partTwo = `events: Ir
fl=(1) main.c
fn=(1) f
10 50
`

	data := tracedata.NewData()
	loadString(t, data, partOne, "app.out.1")
	partB := loadString(t, data, partTwo, "app.out.2")

	irType := data.Mapping().TypeByName("Ir")
	fn := data.Search(tracedata.KindFunction, "f", irType, nil)
	require.NotNil(t, fn)

	assert.Equal(t, tracedata.SubCost(150), fn.EventCost(irType))
	assert.Equal(t, tracedata.SubCost(150), data.EventCost(irType))

	data.ActivatePart(partB, false)
	data.InvalidateDynamicCost()
	assert.Equal(t, tracedata.SubCost(100), fn.EventCost(irType))

	data.ActivatePart(partB, true)
	data.InvalidateDynamicCost()
	assert.Equal(t, tracedata.SubCost(150), fn.EventCost(irType))
}

func TestLoadRecursionBuildsCycle(t *testing.T) {
	t.Parallel()

	const trace = `events: Ir
fl=(1) main.c
fn=(1) main
1 10
cfn=(1)
calls=5 1
1 10
`

	data := tracedata.NewData()
	loadString(t, data, trace, "rec.out")

	data.UpdateFunctionCycles()

	require.Len(t, data.FunctionCycles(), 1)

	cycle := data.FunctionCycles()[0]
	assert.Equal(t, 1, cycle.CycleNo())

	irType := data.Mapping().TypeByName("Ir")
	mainFn := data.Search(tracedata.KindFunction, "main", irType, nil).(*tracedata.Function)
	require.NotNil(t, mainFn.Cycle())
	assert.Equal(t, 1, mainFn.Callings(false)[0].InCycle())
}

func TestLoadInstructionPositions(t *testing.T) {
	t.Parallel()

	const trace = `events: Ir
positions: instr line
fl=(1) main.c
fn=(1) main
8048500 10 100
+4 +0 50
jcnd=2/10 +8 +1
`

	data := tracedata.NewData()
	loadString(t, data, trace, "instr.out")

	irType := data.Mapping().TypeByName("Ir")
	mainFn := data.Search(tracedata.KindFunction, "main", irType, nil).(*tracedata.Function)

	require.NotNil(t, mainFn.InstrMap())
	assert.Len(t, mainFn.InstrMap(), 3)

	first := mainFn.Instr(0x8048500, false)
	require.NotNil(t, first)
	assert.Equal(t, tracedata.SubCost(100), first.EventCost(irType))

	second := mainFn.Instr(0x8048504, false)
	require.NotNil(t, second)
	assert.Equal(t, tracedata.SubCost(50), second.EventCost(irType))

	// The conditional jump hangs off the last cost position.
	require.Len(t, second.InstrJumps(), 1)

	jump := second.InstrJumps()[0]
	assert.True(t, jump.IsCondJump())
	assert.Equal(t, uint64(0x804850c), jump.InstrTo().Addr())
	assert.Equal(t, tracedata.SubCost(10), jump.ExecutedCount())
	assert.Equal(t, tracedata.SubCost(2), jump.FollowedCount())

	assert.Equal(t, uint64(0x8048500), mainFn.FirstAddress())
	assert.Equal(t, uint64(0x804850c), mainFn.LastAddress())
}

func TestMalformedRecordsAreSkipped(t *testing.T) {
	t.Parallel()

	const trace = `events: Ir
fl=(1) main.c
fn=(1) main
10 100
bogus=value
calls=notanumber 3
`

	data := tracedata.NewData()
	parser := &callgrind.Parser{}

	_, err := parser.Load(data, strings.NewReader(trace), "bad.out")
	require.NoError(t, err)
	assert.Equal(t, 2, parser.SkippedRecords())

	irType := data.Mapping().TypeByName("Ir")
	fn := data.Search(tracedata.KindFunction, "main", irType, nil)
	require.NotNil(t, fn)
	assert.Equal(t, tracedata.SubCost(100), fn.EventCost(irType))
}

func TestStrictModeFails(t *testing.T) {
	t.Parallel()

	const trace = `events: Ir
fl=(1) main.c
fn=(1) main
bogus=value
`

	parser := &callgrind.Parser{Strict: true}

	_, err := parser.Load(tracedata.NewData(), strings.NewReader(trace), "bad.out")
	require.ErrorIs(t, err, callgrind.ErrMalformedRecord)
}

func TestCostRowBeforeEvents(t *testing.T) {
	t.Parallel()

	const trace = `fl=(1) main.c
fn=(1) main
10 100
`

	parser := &callgrind.Parser{Strict: true}

	_, err := parser.Load(tracedata.NewData(), strings.NewReader(trace), "bad.out")
	require.ErrorIs(t, err, callgrind.ErrNoEvents)
}

func TestLoadGzipTrace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.out.gz")

	file, err := os.Create(path)
	require.NoError(t, err)

	writer := gzip.NewWriter(file)
	_, err = writer.Write([]byte(simpleTrace))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, file.Close())

	data := tracedata.NewData()
	parser := &callgrind.Parser{}

	part, err := parser.LoadFile(data, path)
	require.NoError(t, err)
	assert.Equal(t, tracedata.SubCost(750), part.Totals().SubCost(0))
}

func TestLoadTraceFindsParts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := filepath.Join(dir, "app.out")

	const partText = `events: Ir
fl=(1) main.c
fn=(1) f
10 100
`

	require.NoError(t, os.WriteFile(base+".1", []byte(partText), 0o600))
	require.NoError(t, os.WriteFile(base+".2", []byte(partText), 0o600))
	require.NoError(t, os.WriteFile(base+".notes", []byte("not a part"), 0o600))

	data := tracedata.NewData()
	parser := &callgrind.Parser{}

	parts, err := parser.LoadTrace(data, base)
	require.NoError(t, err)
	assert.Len(t, parts, 2)
	assert.Equal(t, base, data.TraceName())

	irType := data.Mapping().TypeByName("Ir")
	assert.Equal(t, tracedata.SubCost(200), data.EventCost(irType))
}
