package tracedata

import "fmt"

// Function is a traced function, summing its per-part costs over active
// parts. It owns its outgoing calls, its source containers and its
// instruction map.
type Function struct {
	cumulativeCost

	data *Data
	name string

	class  *Class
	file   *File
	object *Object

	callers  []*Call
	callings []*Call

	sourceFiles   []*FunctionSource
	instrMap      map[uint64]*Instr
	partFunctions []*PartFunction

	associations []Association

	// cycle is the assigned cycle node, nil outside any cycle. asCycle is
	// set when this Function is itself the base of a FunctionCycle.
	cycle   *FunctionCycle
	asCycle *FunctionCycle

	// Tarjan scratch state, valid only during UpdateFunctionCycles.
	cycleLow       int
	cycleStackDown *Function
	onCycleStack   bool

	calledCount     SubCost
	callingCount    SubCost
	calledContexts  int
	callingContexts int
}

// NewFunction creates a function owned by data.
func NewFunction(data *Data, name string, class *Class, file *File, object *Object) *Function {
	function := &Function{
		data:   data,
		name:   name,
		class:  class,
		file:   file,
		object: object,
	}
	function.initCost(function)

	return function
}

// Kind returns KindFunction, or KindFunctionCycle for cycle nodes.
func (f *Function) Kind() CostKind {
	if f.asCycle != nil {
		return KindFunctionCycle
	}

	return KindFunction
}

// Name returns the full function name including signature.
func (f *Function) Name() string { return f.name }

// SetName overrides the function name.
func (f *Function) SetName(name string) { f.name = name }

// PrettyName returns the name, or "???" for unnamed symbols.
func (f *Function) PrettyName() string {
	if f.name == "" {
		return "???"
	}

	return f.name
}

// Location renders object and file of the definition.
func (f *Function) Location() string {
	location := ""

	if f.object != nil && f.object.Name() != "" {
		location = f.object.ShortName()
	}

	if f.file != nil && f.file.Name() != "" {
		if location != "" {
			location += ": "
		}

		location += f.file.ShortName()

		if first := f.firstLineno(); first > 0 {
			location += fmt.Sprintf(" (%d)", first)
		}
	}

	return location
}

// Info renders pretty name plus location.
func (f *Function) Info() string {
	if location := f.Location(); location != "" {
		return f.PrettyName() + " (" + location + ")"
	}

	return f.PrettyName()
}

// Data returns the owning trace data.
func (f *Function) Data() *Data { return f.data }

// Class returns the class derived from the name prefix.
func (f *Function) Class() *Class { return f.class }

// File returns the file the function is defined in.
func (f *Function) File() *File { return f.file }

// Object returns the binary object the function lives in.
func (f *Function) Object() *Object { return f.object }

// SetClass attaches the class. Call right after construction.
func (f *Function) SetClass(class *Class) { f.class = class }

// SetFile attaches the defining file. Call right after construction.
func (f *Function) SetFile(file *File) { f.file = file }

// SetObject attaches the binary object. Call right after construction.
func (f *Function) SetObject(object *Object) { f.object = object }

// Callers returns the incoming call edges. With skipCycle on a cycle node,
// only calls entering the cycle from outside are returned.
func (f *Function) Callers(skipCycle bool) []*Call {
	if skipCycle && f.asCycle != nil {
		return f.asCycle.externalCallers
	}

	return f.callers
}

// Callings returns the outgoing call edges, which this function owns. With
// skipCycle on a cycle node, only calls leaving the cycle are returned.
func (f *Function) Callings(skipCycle bool) []*Call {
	if skipCycle && f.asCycle != nil {
		return f.asCycle.externalCallings
	}

	return f.callings
}

// SourceFiles returns the per-source-file line containers.
func (f *Function) SourceFiles() []*FunctionSource { return f.sourceFiles }

// PartFunctions returns the per-part costs of the function.
func (f *Function) PartFunctions() []*PartFunction { return f.partFunctions }

// AddCaller registers an incoming call edge.
func (f *Function) AddCaller(call *Call) {
	for _, existing := range f.callers {
		if existing == call {
			return
		}
	}

	f.callers = append(f.callers, call)
	f.Invalidate()
}

// Calling returns the call edge to called, creating it on first use and
// registering it with the callee.
func (f *Function) Calling(called *Function) *Call {
	for _, call := range f.callings {
		if call.Called(false) == called {
			return call
		}
	}

	call := NewCall(f, called)
	f.callings = append(f.callings, call)
	called.AddCaller(call)
	f.Invalidate()

	return call
}

// SourceFile returns the line container for file, creating it when
// createNew is set. A nil file selects the function's defining file.
func (f *Function) SourceFile(file *File, createNew bool) *FunctionSource {
	if file == nil {
		file = f.file
	}

	for _, source := range f.sourceFiles {
		if source.File() == file {
			return source
		}
	}

	if !createNew || file == nil {
		return nil
	}

	source := NewFunctionSource(f, file)
	f.sourceFiles = append(f.sourceFiles, source)
	file.AddSourceFile(source)

	return source
}

// Line returns the line at lineno inside file, creating the containers on
// the way when createNew is set.
func (f *Function) Line(file *File, lineno uint, createNew bool) *Line {
	source := f.SourceFile(file, createNew)
	if source == nil {
		return nil
	}

	return source.Line(lineno, createNew)
}

// Instr returns the instruction at addr, creating it when createNew is set.
func (f *Function) Instr(addr uint64, createNew bool) *Instr {
	if f.instrMap == nil {
		if !createNew {
			return nil
		}

		f.instrMap = make(map[uint64]*Instr)
	}

	if instr, ok := f.instrMap[addr]; ok {
		return instr
	}

	if !createNew {
		return nil
	}

	instr := NewInstr(f, addr)
	f.instrMap[addr] = instr

	return instr
}

// InstrMap returns the instructions keyed by address. Treat as read-only;
// nil when the trace carries no instruction detail for this function.
func (f *Function) InstrMap() map[uint64]*Instr { return f.instrMap }

// FirstAddress returns the smallest known code address, zero when none.
func (f *Function) FirstAddress() uint64 {
	first := uint64(0)

	for addr := range f.instrMap {
		if first == 0 || addr < first {
			first = addr
		}
	}

	return first
}

// LastAddress returns the largest known code address, zero when none.
func (f *Function) LastAddress() uint64 {
	last := uint64(0)

	for addr := range f.instrMap {
		if addr > last {
			last = addr
		}
	}

	return last
}

// PartFunction returns the per-part cost of the function, creating it on
// first use and registering it with the per-part file and object costs.
func (f *Function) PartFunction(part *Part, partFile *PartFile, partObject *PartObject) *PartFunction {
	for _, partFunction := range f.partFunctions {
		if partFunction.Part() == part {
			return partFunction
		}
	}

	partFunction := NewPartFunction(f, part, partObject, partFile)
	f.partFunctions = append(f.partFunctions, partFunction)
	f.Invalidate()

	if partFile != nil {
		partFile.AddPartFunction(partFunction)
	}

	if partObject != nil {
		partObject.AddPartFunction(partFunction)
	}

	if f.class != nil {
		f.class.PartClass(part).AddPartFunction(partFunction)
	}

	return partFunction
}

// Self returns the updated exclusive cost. Treat as read-only.
func (f *Function) Self() *CostVector { return f.Vector() }

// CalledCount returns how often the function was entered, over active
// parts.
func (f *Function) CalledCount() SubCost {
	f.maybeUpdate()

	return f.calledCount
}

// CallingCount returns how many calls the function issued, over active
// parts.
func (f *Function) CallingCount() SubCost {
	f.maybeUpdate()

	return f.callingCount
}

// PrettyCalledCount renders the called count with thousands separators.
func (f *Function) PrettyCalledCount() string { return f.CalledCount().Pretty() }

// PrettyCallingCount renders the calling count with thousands separators.
func (f *Function) PrettyCallingCount() string { return f.CallingCount().Pretty() }

// CalledContexts returns the number of distinct caller edges.
func (f *Function) CalledContexts() int {
	f.maybeUpdate()

	return f.calledContexts
}

// CallingContexts returns the number of distinct callee edges.
func (f *Function) CallingContexts() int {
	f.maybeUpdate()

	return f.callingContexts
}

// Cycle returns the assigned cycle node, nil outside any cycle.
func (f *Function) Cycle() *FunctionCycle { return f.cycle }

// SetCycle assigns the cycle node.
func (f *Function) SetCycle(cycle *FunctionCycle) { f.cycle = cycle }

// IsCycle reports whether this function is itself a synthesized cycle node.
func (f *Function) IsCycle() bool { return f.asCycle != nil }

// AsCycle returns the cycle this node represents, nil for plain functions.
func (f *Function) AsCycle() *FunctionCycle { return f.asCycle }

// IsCycleMember reports whether the function was assigned to a cycle.
func (f *Function) IsCycleMember() bool { return f.cycle != nil }

// CycleReset clears cycle assignment and Tarjan scratch state.
func (f *Function) CycleReset() {
	f.cycle = nil
	f.cycleLow = 0
	f.cycleStackDown = nil
	f.onCycleStack = false
}

// InvalidateDynamicCost marks the function and everything it owns stale.
func (f *Function) InvalidateDynamicCost() {
	for _, call := range f.callings {
		call.InvalidateDynamicCost()
	}

	for _, source := range f.sourceFiles {
		source.InvalidateDynamicCost()
	}

	for _, instr := range f.instrMap {
		instr.Invalidate()
	}

	for _, partFunction := range f.partFunctions {
		partFunction.Invalidate()
	}

	f.Invalidate()
}

func (f *Function) update() {
	f.vector.Clear()
	f.cumulative.Clear()

	f.calledCount = 0
	f.callingCount = 0
	f.calledContexts = len(f.callers)
	f.callingContexts = len(f.callings)

	for _, partFunction := range f.partFunctions {
		if !activePartDep(partFunction.Part(), true) {
			continue
		}

		f.vector.AddCost(partFunction.Vector())
		f.cumulative.AddCost(partFunction.Cumulative())
		f.calledCount += partFunction.CalledCount()
		f.callingCount += partFunction.CallingCount()
	}
}

// AddAssociation attaches user data tagged by its rtti.
func (f *Function) AddAssociation(association Association) {
	if association == nil {
		return
	}

	f.associations = append(f.associations, association)
}

// RemoveAssociation detaches one association.
func (f *Function) RemoveAssociation(association Association) {
	for i, existing := range f.associations {
		if existing == association {
			f.associations = append(f.associations[:i], f.associations[i+1:]...)

			return
		}
	}
}

// RemoveAssociations detaches all associations with the rtti tag, all of
// them when rtti is zero.
func (f *Function) RemoveAssociations(rtti int) {
	kept := f.associations[:0]

	for _, association := range f.associations {
		if rtti != 0 && association.Rtti() != rtti {
			kept = append(kept, association)
		}
	}

	f.associations = kept
}

// InvalidateAssociations invalidates associations with the rtti tag, all
// of them when rtti is zero.
func (f *Function) InvalidateAssociations(rtti int) {
	for _, association := range f.associations {
		if rtti == 0 || association.Rtti() == rtti {
			association.Invalidate()
		}
	}
}

// Association returns the first association with the rtti tag, nil when
// absent.
func (f *Function) Association(rtti int) Association {
	for _, association := range f.associations {
		if association.Rtti() == rtti {
			return association
		}
	}

	return nil
}

func (f *Function) firstLineno() uint {
	for _, source := range f.sourceFiles {
		if source.File() == f.file {
			return source.FirstLineno()
		}
	}

	return 0
}
