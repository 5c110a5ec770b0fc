package tracedata

import (
	"fmt"
	"sort"
	"strings"
)

// Data holds the profiling data of one traced command: the event-type
// mapping, the trace parts, and the interning maps for all entities. Its
// own vector is the dynamic total over active parts; Totals() is the
// activation-independent sum.
type Data struct {
	cost

	command   string
	traceName string

	mapping *Mapping
	parts   []*Part
	fixPool *FixPool

	totals CostVector

	maxThreadID   int
	maxPartNumber int

	objectMap   map[string]*Object
	classMap    map[string]*Class
	fileMap     map[string]*File
	functionMap map[string]*Function

	// id-keyed side tables for the compressed trace format.
	objectVector   []*Object
	fileVector     []*File
	functionVector []*Function

	functionCycles        []*FunctionCycle
	functionCycleCount    int
	inFunctionCycleUpdate bool

	classCycles  []GroupCycle[*Class]
	fileCycles   []GroupCycle[*File]
	objectCycles []GroupCycle[*Object]
}

// NewData creates an empty trace data graph.
func NewData() *Data {
	data := &Data{
		mapping:     NewMapping(),
		fixPool:     NewFixPool(),
		objectMap:   make(map[string]*Object),
		classMap:    make(map[string]*Class),
		fileMap:     make(map[string]*File),
		functionMap: make(map[string]*Function),
	}
	data.initCost(data)

	return data
}

// Kind returns KindData.
func (d *Data) Kind() CostKind { return KindData }

// Name returns the trace name.
func (d *Data) Name() string { return d.traceName }

// PrettyName returns the traced command, falling back to the trace name.
func (d *Data) PrettyName() string {
	if d.command != "" {
		return d.command
	}

	return d.ShortTraceName()
}

// Command returns the traced command line.
func (d *Data) Command() string { return d.command }

// SetCommand sets the traced command line.
func (d *Data) SetCommand(command string) { d.command = command }

// TraceName returns the trace base name with path.
func (d *Data) TraceName() string { return d.traceName }

// SetTraceName sets the trace base name.
func (d *Data) SetTraceName(name string) { d.traceName = name }

// ShortTraceName returns the trace base name without path.
func (d *Data) ShortTraceName() string {
	if idx := strings.LastIndexByte(d.traceName, '/'); idx >= 0 {
		return d.traceName[idx+1:]
	}

	return d.traceName
}

// Mapping returns the event-type registry of this trace.
func (d *Data) Mapping() *Mapping { return d.mapping }

// FixPool returns the arena backing the raw per-part rows.
func (d *Data) FixPool() *FixPool { return d.fixPool }

// Totals returns the activation-independent sum over all parts. Treat as
// read-only.
func (d *Data) Totals() *CostVector { return &d.totals }

// MaxThreadID returns the largest thread id seen across parts.
func (d *Data) MaxThreadID() int { return d.maxThreadID }

// MaxPartNumber returns the largest part number seen across parts.
func (d *Data) MaxPartNumber() int { return d.maxPartNumber }

// Parts returns the trace parts ordered by part number, then name. Part
// numbers arrive mid-ingestion, so the order is settled on access.
func (d *Data) Parts() []*Part {
	sortParts(d.parts)

	return d.parts
}

// AddPart creates a part for a trace file and registers it.
func (d *Data) AddPart(fileName string) *Part {
	part := NewPart(d, fileName)
	d.parts = append(d.parts, part)
	sortParts(d.parts)
	d.Invalidate()

	return part
}

// Part returns the part read from fileName, nil when absent.
func (d *Data) Part(fileName string) *Part {
	for _, part := range d.parts {
		if part.Name() == fileName {
			return part
		}
	}

	return nil
}

// ActivePartRange renders the active part numbers compactly, e.g. "1-3,7".
func (d *Data) ActivePartRange() string {
	var numbers []int

	for _, part := range d.parts {
		if part.IsActive() && part.PartNumber() > 0 {
			numbers = append(numbers, part.PartNumber())
		}
	}

	sort.Ints(numbers)

	var sb strings.Builder

	for i := 0; i < len(numbers); {
		j := i
		for j+1 < len(numbers) && numbers[j+1] == numbers[j]+1 {
			j++
		}

		if sb.Len() > 0 {
			sb.WriteByte(',')
		}

		if j > i {
			fmt.Fprintf(&sb, "%d-%d", numbers[i], numbers[j])
		} else {
			fmt.Fprintf(&sb, "%d", numbers[i])
		}

		i = j + 1
	}

	return sb.String()
}

// ActivatePart flips one part, returning true iff its state changed.
// Cached aggregates are untouched; follow with InvalidateDynamicCost.
func (d *Data) ActivatePart(part *Part, active bool) bool {
	if part == nil {
		return false
	}

	return part.Activate(active)
}

// ActivateParts flips a batch, returning true iff any state changed.
func (d *Data) ActivateParts(parts []*Part, active bool) bool {
	changed := false

	for _, part := range parts {
		if part.Activate(active) {
			changed = true
		}
	}

	return changed
}

// ActivateAll flips every part, returning true iff any state changed.
func (d *Data) ActivateAll(active bool) bool {
	return d.ActivateParts(d.parts, active)
}

// Object returns the binary object with the canonical name, interning it
// on first use.
func (d *Data) Object(name string) *Object {
	if object, ok := d.objectMap[name]; ok {
		return object
	}

	object := NewObject(d, name)
	d.objectMap[name] = object

	return object
}

// File returns the source file with the canonical name, interning it on
// first use.
func (d *Data) File(name string) *File {
	if file, ok := d.fileMap[name]; ok {
		return file
	}

	file := NewFile(d, name)
	d.fileMap[name] = file

	return file
}

// Class returns the class for a function symbol, interning it on first
// use. The class name is the prefix before the last "::"; symbols without
// one fall into the anonymous global class.
func (d *Data) Class(functionName string) *Class {
	name := className(functionName)

	if class, ok := d.classMap[name]; ok {
		return class
	}

	class := NewClass(d, name)
	d.classMap[name] = class

	return class
}

// className derives the class prefix of a symbol, empty when global.
// The search ignores "::" inside template or argument brackets.
func className(functionName string) string {
	depth := 0
	last := -1

	for i := 0; i+1 < len(functionName); i++ {
		switch functionName[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ':':
			if depth == 0 && functionName[i+1] == ':' {
				last = i
			}
		}
	}

	if last <= 0 {
		return ""
	}

	return functionName[:last]
}

// functionKey disambiguates same-named symbols living in different
// objects. The full textual name including signature separates overloads;
// the object separates unrelated statics and stripped duplicates.
func functionKey(name string, object *Object) string {
	if object == nil || object.Name() == "" {
		return name
	}

	return name + "'" + object.Name()
}

// Function returns the function with the full textual name including
// signature, interning it on first use. Interning derives the class from
// the name and registers the function with its class, file and object.
func (d *Data) Function(name string, file *File, object *Object) *Function {
	key := functionKey(name, object)

	if function, ok := d.functionMap[key]; ok {
		return function
	}

	class := d.Class(name)

	function := NewFunction(d, name, class, file, object)
	d.functionMap[key] = function

	class.AddFunction(function)

	if file != nil {
		file.AddFunction(function)
	}

	if object != nil {
		object.AddFunction(function)
	}

	return function
}

// CompressedObject interns an object referred to by integer id. The name
// is required on the declaring reference and may be empty afterwards.
func (d *Data) CompressedObject(id int, name string) *Object {
	if id < 0 {
		return d.Object(name)
	}

	for id >= len(d.objectVector) {
		d.objectVector = append(d.objectVector, nil)
	}

	if d.objectVector[id] == nil {
		d.objectVector[id] = d.Object(name)
	}

	return d.objectVector[id]
}

// CompressedFile interns a file referred to by integer id.
func (d *Data) CompressedFile(id int, name string) *File {
	if id < 0 {
		return d.File(name)
	}

	for id >= len(d.fileVector) {
		d.fileVector = append(d.fileVector, nil)
	}

	if d.fileVector[id] == nil {
		d.fileVector[id] = d.File(name)
	}

	return d.fileVector[id]
}

// CompressedFunction interns a function referred to by integer id.
func (d *Data) CompressedFunction(id int, name string, file *File, object *Object) *Function {
	if id < 0 {
		return d.Function(name, file, object)
	}

	for id >= len(d.functionVector) {
		d.functionVector = append(d.functionVector, nil)
	}

	if d.functionVector[id] == nil {
		d.functionVector[id] = d.Function(name, file, object)
	}

	return d.functionVector[id]
}

// ObjectMap returns the interned objects by name. Treat as read-only.
func (d *Data) ObjectMap() map[string]*Object { return d.objectMap }

// ClassMap returns the interned classes by name. Treat as read-only.
func (d *Data) ClassMap() map[string]*Class { return d.classMap }

// FileMap returns the interned files by name. Treat as read-only.
func (d *Data) FileMap() map[string]*File { return d.fileMap }

// FunctionMap returns the interned functions by name. Treat as read-only.
func (d *Data) FunctionMap() map[string]*Function { return d.functionMap }

// FunctionCycles returns the cycle nodes of the last detection run.
func (d *Data) FunctionCycles() []*FunctionCycle { return d.functionCycles }

// InFunctionCycleUpdate reports whether cycle detection is running, so
// factories triggered from it do not rebuild cycles re-entrantly.
func (d *Data) InFunctionCycleUpdate() bool { return d.inFunctionCycleUpdate }

// functionCycle creates the next cycle node around base.
func (d *Data) functionCycle(base *Function) *FunctionCycle {
	d.functionCycleCount++

	cycle := NewFunctionCycle(base, d.functionCycleCount)
	d.functionCycles = append(d.functionCycles, cycle)

	return cycle
}

// ResetSourceDirs drops all manually set source directories.
func (d *Data) ResetSourceDirs() {
	for _, file := range d.fileMap {
		file.ResetDirectory()
	}
}

// AddToTotals accumulates a part row into the activation-independent
// totals and marks the dynamic total stale.
func (d *Data) AddToTotals(part *Part, row string) {
	d.totals.AddRow(part.SubMapping(), row)
	d.Invalidate()
}

// AddTotalsVector adds an already reindexed vector to the
// activation-independent totals and marks the dynamic total stale.
func (d *Data) AddTotalsVector(vector *CostVector) {
	d.totals.AddCost(vector)
	d.Invalidate()
}

// InvalidateDynamicCost marks every cost item depending on the active
// part set stale. It is structural: nothing is recomputed until queried.
func (d *Data) InvalidateDynamicCost() {
	for _, function := range d.functionMap {
		function.InvalidateDynamicCost()
	}

	for _, cycle := range d.functionCycles {
		cycle.Invalidate()
	}

	for _, class := range d.classMap {
		class.Invalidate()
	}

	for _, file := range d.fileMap {
		file.Invalidate()
	}

	for _, object := range d.objectMap {
		object.Invalidate()
	}

	d.Invalidate()
}

func (d *Data) update() {
	d.vector.Clear()

	for _, part := range d.parts {
		if part.IsActive() {
			d.vector.AddCost(part.Totals())
		}
	}
}

// sortedFunctions returns the functions in name order.
func (d *Data) sortedFunctions() []*Function {
	functions := make([]*Function, 0, len(d.functionMap))
	for _, function := range d.functionMap {
		functions = append(functions, function)
	}

	sort.Slice(functions, func(i, j int) bool {
		if functions[i].Name() != functions[j].Name() {
			return functions[i].Name() < functions[j].Name()
		}

		return functionKey(functions[i].Name(), functions[i].Object()) <
			functionKey(functions[j].Name(), functions[j].Object())
	})

	return functions
}

// sortedClasses returns the classes in name order.
func (d *Data) sortedClasses() []*Class {
	classes := make([]*Class, 0, len(d.classMap))
	for _, class := range d.classMap {
		classes = append(classes, class)
	}

	sort.Slice(classes, func(i, j int) bool {
		return classes[i].Name() < classes[j].Name()
	})

	return classes
}

// sortedFiles returns the files in name order.
func (d *Data) sortedFiles() []*File {
	files := make([]*File, 0, len(d.fileMap))
	for _, file := range d.fileMap {
		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name() < files[j].Name()
	})

	return files
}

// sortedObjects returns the objects in name order.
func (d *Data) sortedObjects() []*Object {
	objects := make([]*Object, 0, len(d.objectMap))
	for _, object := range d.objectMap {
		objects = append(objects, object)
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Name() < objects[j].Name()
	})

	return objects
}
