package tracedata

// CostKind identifies the concrete kind of a cost item at runtime, replacing
// dynamic dispatch where presentation code only needs a tag.
type CostKind int

// Cost item kinds, part-scoped and aggregate.
const (
	KindNone CostKind = iota
	KindPartInstr
	KindInstr
	KindPartLine
	KindLine
	KindPartInstrJump
	KindInstrJump
	KindPartLineJump
	KindLineJump
	KindPartInstrCall
	KindInstrCall
	KindPartLineCall
	KindLineCall
	KindPartCall
	KindCall
	KindPartFunction
	KindFunctionSource
	KindFunction
	KindFunctionCycle
	KindPartClass
	KindClass
	KindPartFile
	KindFile
	KindPartObject
	KindObject
	KindPart
	KindData
)

// kindNames are locale-independent tags, stable for persisted configuration.
var kindNames = map[CostKind]string{
	KindPartInstr:      "PartInstr",
	KindInstr:          "Instr",
	KindPartLine:       "PartLine",
	KindLine:           "Line",
	KindPartInstrJump:  "PartInstrJump",
	KindInstrJump:      "InstrJump",
	KindPartLineJump:   "PartLineJump",
	KindLineJump:       "LineJump",
	KindPartInstrCall:  "PartInstrCall",
	KindInstrCall:      "InstrCall",
	KindPartLineCall:   "PartLineCall",
	KindLineCall:       "LineCall",
	KindPartCall:       "PartCall",
	KindCall:           "Call",
	KindPartFunction:   "PartFunction",
	KindFunctionSource: "FunctionSource",
	KindFunction:       "Function",
	KindFunctionCycle:  "FunctionCycle",
	KindPartClass:      "PartClass",
	KindClass:          "Class",
	KindPartFile:       "PartFile",
	KindFile:           "File",
	KindPartObject:     "PartObject",
	KindObject:         "Object",
	KindPart:           "Part",
	KindData:           "Data",
}

// kindDisplayNames are the user-visible labels.
var kindDisplayNames = map[CostKind]string{
	KindInstr:          "Instruction",
	KindLine:           "Source Line",
	KindInstrJump:      "Instruction Jump",
	KindLineJump:       "Source Line Jump",
	KindInstrCall:      "Instruction Call",
	KindLineCall:       "Source Line Call",
	KindCall:           "Call",
	KindFunctionSource: "Function Source File",
	KindFunction:       "Function",
	KindFunctionCycle:  "Function Cycle",
	KindClass:          "Class",
	KindFile:           "Source File",
	KindObject:         "ELF Object",
	KindPart:           "Profile Part",
	KindData:           "Program Trace",
}

// TypeName returns the locale-independent tag of the kind.
func (k CostKind) TypeName() string {
	return kindNames[k]
}

// DisplayName returns the user-visible label, falling back to the tag.
func (k CostKind) DisplayName() string {
	if name, ok := kindDisplayNames[k]; ok {
		return name
	}

	return kindNames[k]
}

// CostKindFromName resolves a locale-independent tag back to its kind.
func CostKindFromName(name string) CostKind {
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind
		}
	}

	return KindNone
}

// Invalidator is the invalidation target a cost item forwards to.
type Invalidator interface {
	Invalidate()
}

// CostItem is the common query surface of all cost-vector-bearing entities.
// Reading a cost triggers a lazy update when the item is dirty.
type CostItem interface {
	Invalidator

	Kind() CostKind
	Name() string
	PrettyName() string
	Part() *Part

	// Vector returns the updated cost vector. Treat as read-only.
	Vector() *CostVector

	// EventCost evaluates an event type against the updated vector.
	EventCost(*CostType) SubCost

	// RealCost returns the counter at a real index.
	RealCost(int) SubCost
}

// CallCostItem is a CostItem that additionally counts calls.
type CallCostItem interface {
	CostItem

	CallCount() SubCost
}

// CumulativeCostItem is a CostItem that additionally aggregates the
// inclusive cost of everything reached from it.
type CumulativeCostItem interface {
	CostItem

	Cumulative() *CostVector
}

// JumpCostItem carries executed/followed counts of a conditional jump.
type JumpCostItem interface {
	Invalidator

	Part() *Part
	ExecutedCount() SubCost
	FollowedCount() SubCost
}

// updatable is implemented by items that recompute their cached values.
type updatable interface {
	update()
}

// item carries the shared dirty-flag lifecycle: an optional owning part
// (nil for cross-part aggregates) and an optional single dependant that is
// invalidated alongside this item. Aggregates with wider fan-in are reached
// by Data.InvalidateDynamicCost instead of observer lists.
type item struct {
	dirty bool
	part  *Part
	dep   Invalidator

	// owner points back to the embedding entity; its update() refreshes
	// the cached values when dirty.
	owner updatable
}

// Part returns the owning trace part, nil for aggregates.
func (it *item) Part() *Part { return it.part }

// SetPart attaches the owning trace part. Call right after construction.
func (it *item) SetPart(part *Part) { it.part = part }

// SetDependant registers the single invalidation target. Call right after
// construction.
func (it *item) SetDependant(dep Invalidator) { it.dep = dep }

// Dependant returns the registered invalidation target.
func (it *item) Dependant() Invalidator { return it.dep }

// Dirty reports whether cached values need recomputation.
func (it *item) Dirty() bool { return it.dirty }

// Invalidate marks the item dirty and forwards to the dependant once.
func (it *item) Invalidate() {
	if it.dirty {
		return
	}

	it.dirty = true

	if it.dep != nil {
		it.dep.Invalidate()
	}
}

// maybeUpdate refreshes cached values if dirty.
func (it *item) maybeUpdate() {
	if !it.dirty {
		return
	}

	if it.owner != nil {
		it.owner.update()
	}

	it.dirty = false
}
