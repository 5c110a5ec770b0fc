package tracedata

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Part holds all data read from a single trace file: a time slice of the
// traced run. The embedded vector carries the part totals, which do not
// depend on the active state.
type Part struct {
	cost

	data *Data
	name string

	description string
	trigger     string
	timeframe   string
	version     string

	number    int
	threadID  int
	processID int

	active bool

	subMapping *SubMapping
}

// NewPart creates a part for a trace file. Parts start active.
func NewPart(data *Data, fileName string) *Part {
	part := &Part{
		data:   data,
		name:   fileName,
		active: true,
	}
	part.part = part

	return part
}

// Kind returns KindPart.
func (p *Part) Kind() CostKind { return KindPart }

// Name returns the trace file path.
func (p *Part) Name() string { return p.name }

// ShortName returns the trace file basename.
func (p *Part) ShortName() string { return filepath.Base(p.name) }

// PrettyName labels the part by number when known, else by file name.
func (p *Part) PrettyName() string {
	if p.number > 0 {
		return fmt.Sprintf("Part %d", p.number)
	}

	return p.ShortName()
}

// Data returns the owning trace data.
func (p *Part) Data() *Data { return p.data }

// Description returns the free-form header description.
func (p *Part) Description() string { return p.description }

// Trigger returns what triggered the dump of this part.
func (p *Part) Trigger() string { return p.trigger }

// Timeframe returns the covered time interval as written in the header.
func (p *Part) Timeframe() string { return p.timeframe }

// Version returns the tracer version string.
func (p *Part) Version() string { return p.version }

// PartNumber returns the sequence number of the part, zero if unknown.
func (p *Part) PartNumber() int { return p.number }

// ThreadID returns the traced thread, zero if unknown.
func (p *Part) ThreadID() int { return p.threadID }

// ProcessID returns the traced process, zero if unknown.
func (p *Part) ProcessID() int { return p.processID }

// SetDescription sets the free-form header description.
func (p *Part) SetDescription(description string) { p.description = description }

// SetTrigger sets the dump trigger.
func (p *Part) SetTrigger(trigger string) { p.trigger = trigger }

// SetTimeframe sets the covered time interval.
func (p *Part) SetTimeframe(timeframe string) { p.timeframe = timeframe }

// SetVersion sets the tracer version string.
func (p *Part) SetVersion(version string) { p.version = version }

// SetPartNumber sets the sequence number and bumps the data-wide maximum.
func (p *Part) SetPartNumber(number int) {
	p.number = number

	if p.data != nil && number > p.data.maxPartNumber {
		p.data.maxPartNumber = number
	}
}

// SetThreadID sets the traced thread and bumps the data-wide maximum.
func (p *Part) SetThreadID(threadID int) {
	p.threadID = threadID

	if p.data != nil && threadID > p.data.maxThreadID {
		p.data.maxThreadID = threadID
	}
}

// SetProcessID sets the traced process.
func (p *Part) SetProcessID(processID int) { p.processID = processID }

// SubMapping returns the column order of this part's cost rows.
func (p *Part) SubMapping() *SubMapping { return p.subMapping }

// SetSubMapping installs the column order derived from the events header.
func (p *Part) SetSubMapping(subMapping *SubMapping) { p.subMapping = subMapping }

// Totals returns the part totals vector. Treat as read-only.
func (p *Part) Totals() *CostVector { return &p.vector }

// AddTotals adds a row in this part's column order to the totals.
func (p *Part) AddTotals(row string) {
	p.vector.AddRow(p.subMapping, row)
}

// AddTotalsVector adds an already reindexed vector to the totals.
func (p *Part) AddTotalsVector(vector *CostVector) {
	p.vector.AddCost(vector)
}

// IsActive reports whether the part participates in aggregate costs.
func (p *Part) IsActive() bool { return p.active }

// Activate flips the active flag, returning true iff it changed. Cached
// aggregates are untouched; follow with Data.InvalidateDynamicCost.
func (p *Part) Activate(active bool) bool {
	if p.active == active {
		return false
	}

	p.active = active

	return true
}

// sortParts orders parts by part number, then name, for stable enumeration.
func sortParts(parts []*Part) {
	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].number != parts[j].number {
			return parts[i].number < parts[j].number
		}

		return parts[i].name < parts[j].name
	})
}

// PartInstr is the fixed cost of one instruction address in one part.
type PartInstr struct {
	cost

	instr *Instr
}

// NewPartInstr creates the per-part cost of an instruction.
func NewPartInstr(instr *Instr, part *Part) *PartInstr {
	partInstr := &PartInstr{instr: instr}
	partInstr.SetPart(part)
	partInstr.SetDependant(instr)

	return partInstr
}

// Kind returns KindPartInstr.
func (p *PartInstr) Kind() CostKind { return KindPartInstr }

// Name returns the instruction name.
func (p *PartInstr) Name() string { return p.instr.Name() }

// PrettyName returns the instruction pretty name.
func (p *PartInstr) PrettyName() string { return p.instr.PrettyName() }

// Instr returns the aggregate this fixed cost feeds.
func (p *PartInstr) Instr() *Instr { return p.instr }

// PartLine is the fixed cost of one source line in one part.
type PartLine struct {
	cost

	line *Line
}

// NewPartLine creates the per-part cost of a source line.
func NewPartLine(line *Line, part *Part) *PartLine {
	partLine := &PartLine{line: line}
	partLine.SetPart(part)
	partLine.SetDependant(line)

	return partLine
}

// Kind returns KindPartLine.
func (p *PartLine) Kind() CostKind { return KindPartLine }

// Name returns the line name.
func (p *PartLine) Name() string { return p.line.Name() }

// PrettyName returns the line pretty name.
func (p *PartLine) PrettyName() string { return p.line.PrettyName() }

// Line returns the aggregate this fixed cost feeds.
func (p *PartLine) Line() *Line { return p.line }

// PartInstrJump is the fixed jump cost at one instruction in one part.
type PartInstrJump struct {
	jumpCost

	instrJump *InstrJump
}

// NewPartInstrJump creates the per-part cost of an instruction jump.
func NewPartInstrJump(instrJump *InstrJump, part *Part) *PartInstrJump {
	partJump := &PartInstrJump{instrJump: instrJump}
	partJump.SetPart(part)
	partJump.SetDependant(instrJump)

	return partJump
}

// Kind returns KindPartInstrJump.
func (p *PartInstrJump) Kind() CostKind { return KindPartInstrJump }

// InstrJump returns the aggregate this fixed cost feeds.
func (p *PartInstrJump) InstrJump() *InstrJump { return p.instrJump }

// PartLineJump is the fixed jump cost at one source line in one part.
type PartLineJump struct {
	jumpCost

	lineJump *LineJump
}

// NewPartLineJump creates the per-part cost of a line jump.
func NewPartLineJump(lineJump *LineJump, part *Part) *PartLineJump {
	partJump := &PartLineJump{lineJump: lineJump}
	partJump.SetPart(part)
	partJump.SetDependant(lineJump)

	return partJump
}

// Kind returns KindPartLineJump.
func (p *PartLineJump) Kind() CostKind { return KindPartLineJump }

// LineJump returns the aggregate this fixed cost feeds.
func (p *PartLineJump) LineJump() *LineJump { return p.lineJump }

// PartInstrCall is the fixed cost of calls from one instruction in one part.
type PartInstrCall struct {
	callCost

	instrCall *InstrCall
}

// NewPartInstrCall creates the per-part cost of an instruction call.
func NewPartInstrCall(instrCall *InstrCall, part *Part) *PartInstrCall {
	partCall := &PartInstrCall{instrCall: instrCall}
	partCall.SetPart(part)
	partCall.SetDependant(instrCall)

	return partCall
}

// Kind returns KindPartInstrCall.
func (p *PartInstrCall) Kind() CostKind { return KindPartInstrCall }

// Name returns the instruction call name.
func (p *PartInstrCall) Name() string { return p.instrCall.Name() }

// PrettyName returns the instruction call pretty name.
func (p *PartInstrCall) PrettyName() string { return p.instrCall.PrettyName() }

// InstrCall returns the aggregate this fixed cost feeds.
func (p *PartInstrCall) InstrCall() *InstrCall { return p.instrCall }

// PartLineCall is the fixed cost of calls from one source line in one part.
type PartLineCall struct {
	callCost

	lineCall *LineCall
}

// NewPartLineCall creates the per-part cost of a line call.
func NewPartLineCall(lineCall *LineCall, part *Part) *PartLineCall {
	partCall := &PartLineCall{lineCall: lineCall}
	partCall.SetPart(part)
	partCall.SetDependant(lineCall)

	return partCall
}

// Kind returns KindPartLineCall.
func (p *PartLineCall) Kind() CostKind { return KindPartLineCall }

// Name returns the line call name.
func (p *PartLineCall) Name() string { return p.lineCall.Name() }

// PrettyName returns the line call pretty name.
func (p *PartLineCall) PrettyName() string { return p.lineCall.PrettyName() }

// LineCall returns the aggregate this fixed cost feeds.
func (p *PartLineCall) LineCall() *LineCall { return p.lineCall }

// PartCall sums the per-part line calls of one call edge and anchors the
// raw call rows of the part.
type PartCall struct {
	callListCost

	call *Call

	firstFixCallCost *FixCallCost
}

// NewPartCall creates the per-part cost of a call edge.
func NewPartCall(call *Call, part *Part) *PartCall {
	partCall := &PartCall{call: call}
	partCall.initCallListCost(false)
	partCall.SetPart(part)
	partCall.SetDependant(call)

	return partCall
}

// Kind returns KindPartCall.
func (p *PartCall) Kind() CostKind { return KindPartCall }

// Name returns the call name.
func (p *PartCall) Name() string { return p.call.Name() }

// PrettyName returns the call pretty name.
func (p *PartCall) PrettyName() string { return p.call.PrettyName() }

// Call returns the aggregate this fixed cost feeds.
func (p *PartCall) Call() *Call { return p.call }

// IsRecursion reports whether the call edge targets its own caller.
func (p *PartCall) IsRecursion() bool { return p.call.IsRecursion() }

// SetFirstFixCallCost links a raw call row, returning the previous head.
func (p *PartCall) SetFirstFixCallCost(record *FixCallCost) *FixCallCost {
	previous := p.firstFixCallCost
	p.firstFixCallCost = record

	return previous
}

// FirstFixCallCost returns the head of the raw call row chain.
func (p *PartCall) FirstFixCallCost() *FixCallCost { return p.firstFixCallCost }

// PartFunction is the fixed cost of one function in one part. Self cost
// sums the part lines (or part instructions when the trace has no line
// info); inclusive cost adds the call rows of outgoing calls, skipping
// recursive and intra-cycle edges.
type PartFunction struct {
	cumulativeCost

	function *Function

	partObject *PartObject
	partClass  *PartClass
	partFile   *PartFile

	partCallings []*PartCall
	partCallers  []*PartCall
	partInstrs   []*PartInstr
	partLines    []*PartLine

	calledCount     SubCost
	callingCount    SubCost
	calledContexts  int
	callingContexts int

	firstFixCost *FixCost
	firstFixJump *FixJump
}

// NewPartFunction creates the per-part cost of a function.
func NewPartFunction(function *Function, part *Part, partObject *PartObject, partFile *PartFile) *PartFunction {
	partFunction := &PartFunction{
		function:   function,
		partObject: partObject,
		partFile:   partFile,
	}
	partFunction.initCost(partFunction)
	partFunction.SetPart(part)
	partFunction.SetDependant(function)

	return partFunction
}

// Kind returns KindPartFunction.
func (p *PartFunction) Kind() CostKind { return KindPartFunction }

// Name returns the function name.
func (p *PartFunction) Name() string { return p.function.Name() }

// PrettyName returns the function pretty name.
func (p *PartFunction) PrettyName() string { return p.function.PrettyName() }

// Function returns the aggregate this fixed cost feeds.
func (p *PartFunction) Function() *Function { return p.function }

// PartObject returns the per-part object cost this function feeds.
func (p *PartFunction) PartObject() *PartObject { return p.partObject }

// PartClass returns the per-part class cost this function feeds.
func (p *PartFunction) PartClass() *PartClass { return p.partClass }

// PartFile returns the per-part file cost this function feeds.
func (p *PartFunction) PartFile() *PartFile { return p.partFile }

// SetPartObject attaches the per-part object cost.
func (p *PartFunction) SetPartObject(partObject *PartObject) { p.partObject = partObject }

// SetPartClass attaches the per-part class cost.
func (p *PartFunction) SetPartClass(partClass *PartClass) { p.partClass = partClass }

// SetPartFile attaches the per-part file cost.
func (p *PartFunction) SetPartFile(partFile *PartFile) { p.partFile = partFile }

// AddPartInstr registers a per-part instruction cost of this function.
func (p *PartFunction) AddPartInstr(partInstr *PartInstr) {
	p.partInstrs = append(p.partInstrs, partInstr)
	p.Invalidate()
}

// AddPartLine registers a per-part line cost of this function.
func (p *PartFunction) AddPartLine(partLine *PartLine) {
	p.partLines = append(p.partLines, partLine)
	p.Invalidate()
}

// AddPartCaller registers an incoming per-part call.
func (p *PartFunction) AddPartCaller(partCall *PartCall) {
	p.partCallers = append(p.partCallers, partCall)
	p.Invalidate()
}

// AddPartCalling registers an outgoing per-part call.
func (p *PartFunction) AddPartCalling(partCall *PartCall) {
	p.partCallings = append(p.partCallings, partCall)
	p.Invalidate()
}

// PartCallers returns the incoming per-part calls.
func (p *PartFunction) PartCallers() []*PartCall { return p.partCallers }

// PartCallings returns the outgoing per-part calls.
func (p *PartFunction) PartCallings() []*PartCall { return p.partCallings }

// CalledCount returns how often the function was entered in this part.
func (p *PartFunction) CalledCount() SubCost {
	p.maybeUpdate()

	return p.calledCount
}

// CallingCount returns how many calls the function issued in this part.
func (p *PartFunction) CallingCount() SubCost {
	p.maybeUpdate()

	return p.callingCount
}

// CalledContexts returns the number of distinct caller edges.
func (p *PartFunction) CalledContexts() int {
	p.maybeUpdate()

	return p.calledContexts
}

// CallingContexts returns the number of distinct callee edges.
func (p *PartFunction) CallingContexts() int {
	p.maybeUpdate()

	return p.callingContexts
}

// SetFirstFixCost links a raw cost row, returning the previous head.
func (p *PartFunction) SetFirstFixCost(record *FixCost) *FixCost {
	previous := p.firstFixCost
	p.firstFixCost = record

	return previous
}

// FirstFixCost returns the head of the raw cost row chain.
func (p *PartFunction) FirstFixCost() *FixCost { return p.firstFixCost }

// SetFirstFixJump links a raw jump row, returning the previous head.
func (p *PartFunction) SetFirstFixJump(record *FixJump) *FixJump {
	previous := p.firstFixJump
	p.firstFixJump = record

	return previous
}

// FirstFixJump returns the head of the raw jump row chain.
func (p *PartFunction) FirstFixJump() *FixJump { return p.firstFixJump }

func (p *PartFunction) update() {
	p.vector.Clear()
	p.cumulative.Clear()

	switch {
	case len(p.partLines) > 0:
		for _, partLine := range p.partLines {
			p.vector.AddCost(partLine.Vector())
		}
	case len(p.partInstrs) > 0:
		for _, partInstr := range p.partInstrs {
			p.vector.AddCost(partInstr.Vector())
		}
	}

	p.cumulative.AddCost(&p.vector)

	p.calledCount = 0
	p.callingCount = 0
	p.calledContexts = len(p.partCallers)
	p.callingContexts = len(p.partCallings)

	for _, caller := range p.partCallers {
		p.calledCount += caller.CallCount()
	}

	for _, calling := range p.partCallings {
		p.callingCount += calling.CallCount()

		// Recursive and intra-cycle call rows would count inclusive
		// cost of work already attributed to this function.
		if calling.IsRecursion() || calling.Call().InCycle() > 0 {
			continue
		}

		p.cumulative.AddCost(calling.Vector())
	}
}

// PartClass sums the per-part function costs of one class.
type PartClass struct {
	cumulativeListCost

	class *Class
}

// NewPartClass creates the per-part cost of a class.
func NewPartClass(class *Class, part *Part) *PartClass {
	partClass := &PartClass{class: class}
	partClass.initCumulativeListCost(false)
	partClass.SetPart(part)
	partClass.SetDependant(class)

	return partClass
}

// Kind returns KindPartClass.
func (p *PartClass) Kind() CostKind { return KindPartClass }

// Name returns the class name.
func (p *PartClass) Name() string { return p.class.Name() }

// PrettyName qualifies the class name with the part.
func (p *PartClass) PrettyName() string {
	return p.class.PrettyName() + " (" + p.part.ShortName() + ")"
}

// Class returns the aggregate this fixed cost feeds.
func (p *PartClass) Class() *Class { return p.class }

// AddPartFunction registers a per-part function cost of this class.
func (p *PartClass) AddPartFunction(partFunction *PartFunction) {
	p.AddDep(partFunction)
	partFunction.SetPartClass(p)
}

// PartFile sums the per-part function costs of one source file.
type PartFile struct {
	cumulativeListCost

	file *File
}

// NewPartFile creates the per-part cost of a source file.
func NewPartFile(file *File, part *Part) *PartFile {
	partFile := &PartFile{file: file}
	partFile.initCumulativeListCost(false)
	partFile.SetPart(part)
	partFile.SetDependant(file)

	return partFile
}

// Kind returns KindPartFile.
func (p *PartFile) Kind() CostKind { return KindPartFile }

// Name returns the file name.
func (p *PartFile) Name() string { return p.file.Name() }

// PrettyName returns the file pretty name.
func (p *PartFile) PrettyName() string { return p.file.PrettyName() }

// File returns the aggregate this fixed cost feeds.
func (p *PartFile) File() *File { return p.file }

// AddPartFunction registers a per-part function cost of this file.
func (p *PartFile) AddPartFunction(partFunction *PartFunction) {
	p.AddDep(partFunction)
}

// PartObject sums the per-part function costs of one binary object.
type PartObject struct {
	cumulativeListCost

	object *Object
}

// NewPartObject creates the per-part cost of a binary object.
func NewPartObject(object *Object, part *Part) *PartObject {
	partObject := &PartObject{object: object}
	partObject.initCumulativeListCost(false)
	partObject.SetPart(part)
	partObject.SetDependant(object)

	return partObject
}

// Kind returns KindPartObject.
func (p *PartObject) Kind() CostKind { return KindPartObject }

// Name returns the object name.
func (p *PartObject) Name() string { return p.object.Name() }

// PrettyName returns the object pretty name.
func (p *PartObject) PrettyName() string { return p.object.PrettyName() }

// Object returns the aggregate this fixed cost feeds.
func (p *PartObject) Object() *Object { return p.object }

// AddPartFunction registers a per-part function cost of this object.
func (p *PartObject) AddPartFunction(partFunction *PartFunction) {
	p.AddDep(partFunction)
}
