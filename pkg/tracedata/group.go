package tracedata

import "path/filepath"

// groupBase is shared by Class, File and Object: a name-carrying aggregate
// over per-part group costs, with the functions it contains and a cycle
// number assigned by the group cycle detection (zero outside any cycle).
type groupBase struct {
	cumulativeListCost

	data      *Data
	name      string
	functions []*Function

	cycleNo int
}

// Name returns the canonical group name.
func (g *groupBase) Name() string { return g.name }

// Data returns the owning trace data.
func (g *groupBase) Data() *Data { return g.data }

// Functions returns the contained functions.
func (g *groupBase) Functions() []*Function { return g.functions }

// CycleNo returns the group cycle number, zero outside any cycle.
func (g *groupBase) CycleNo() int { return g.cycleNo }

func (g *groupBase) addFunction(function *Function) {
	g.functions = append(g.functions, function)
}

// Class groups functions whose symbol carries the same "::" prefix.
// Symbols without a prefix fall into the synthetic "(global)" class.
type Class struct {
	groupBase
}

// NewClass creates a class owned by data.
func NewClass(data *Data, name string) *Class {
	class := &Class{}
	class.data = data
	class.name = name
	class.initCumulativeListCost(true)

	return class
}

// Kind returns KindClass.
func (c *Class) Kind() CostKind { return KindClass }

// PrettyName marks the anonymous class readably.
func (c *Class) PrettyName() string {
	if c.name == "" {
		return "(global)"
	}

	return c.name
}

// AddFunction registers a function of this class.
func (c *Class) AddFunction(function *Function) { c.addFunction(function) }

// PartClass returns the per-part cost of the class, creating it on first
// use.
func (c *Class) PartClass(part *Part) *PartClass {
	if existing := c.FindDep(part); existing != nil {
		return existing.(*PartClass)
	}

	partClass := NewPartClass(c, part)
	c.AddDep(partClass)

	return partClass
}

// File is a source file containing function definitions.
type File struct {
	groupBase

	sourceFiles []*FunctionSource
	dir         string
}

// NewFile creates a file owned by data.
func NewFile(data *Data, name string) *File {
	file := &File{}
	file.data = data
	file.name = name
	file.initCumulativeListCost(true)

	return file
}

// Kind returns KindFile.
func (f *File) Kind() CostKind { return KindFile }

// ShortName returns the basename of the file.
func (f *File) ShortName() string {
	if f.name == "" {
		return ""
	}

	return filepath.Base(f.name)
}

// PrettyName returns the basename, or "???" for unknown files.
func (f *File) PrettyName() string {
	if f.name == "" {
		return "???"
	}

	return f.ShortName()
}

// PrettyLongName returns the full name, or "(unknown)" when absent.
func (f *File) PrettyLongName() string {
	if f.name == "" {
		return "(unknown)"
	}

	return f.name
}

// SetDirectory overrides the directory the file is searched in.
func (f *File) SetDirectory(dir string) { f.dir = dir }

// ResetDirectory drops the override.
func (f *File) ResetDirectory() { f.dir = "" }

// Directory returns the explicit override, or a directory inferred from
// the file path.
func (f *File) Directory() string {
	if f.dir != "" {
		return f.dir
	}

	if f.name == "" {
		return ""
	}

	dir := filepath.Dir(f.name)
	if dir == "." {
		return ""
	}

	return dir
}

// AddFunction registers a function defined in this file.
func (f *File) AddFunction(function *Function) { f.addFunction(function) }

// AddSourceFile registers a per-function line container of this file.
func (f *File) AddSourceFile(source *FunctionSource) {
	f.sourceFiles = append(f.sourceFiles, source)
}

// SourceFiles returns the per-function line containers of this file.
func (f *File) SourceFiles() []*FunctionSource { return f.sourceFiles }

// PartFile returns the per-part cost of the file, creating it on first use.
func (f *File) PartFile(part *Part) *PartFile {
	if existing := f.FindDep(part); existing != nil {
		return existing.(*PartFile)
	}

	partFile := NewPartFile(f, part)
	f.AddDep(partFile)

	return partFile
}

// Object is a binary object (shared library or executable) with defined
// functions.
type Object struct {
	groupBase

	shortName string
}

// NewObject creates a binary object owned by data.
func NewObject(data *Data, name string) *Object {
	object := &Object{}
	object.data = data
	object.initCumulativeListCost(true)
	object.SetName(name)

	return object
}

// Kind returns KindObject.
func (o *Object) Kind() CostKind { return KindObject }

// SetName sets the object path and derives the short name.
func (o *Object) SetName(name string) {
	o.name = name

	if name == "" {
		o.shortName = ""

		return
	}

	o.shortName = filepath.Base(name)
}

// ShortName returns the basename of the object path.
func (o *Object) ShortName() string { return o.shortName }

// PrettyName returns the basename, or "???" for unknown objects.
func (o *Object) PrettyName() string {
	if o.shortName == "" {
		return "???"
	}

	return o.shortName
}

// AddFunction registers a function living in this object.
func (o *Object) AddFunction(function *Function) { o.addFunction(function) }

// PartObject returns the per-part cost of the object, creating it on first
// use.
func (o *Object) PartObject(part *Part) *PartObject {
	if existing := o.FindDep(part); existing != nil {
		return existing.(*PartObject)
	}

	partObject := NewPartObject(o, part)
	o.AddDep(partObject)

	return partObject
}
