package tracedata

import (
	"fmt"
	"sort"
)

// Line is a source line of the traced program, summing the per-part costs
// of that line over active parts.
type Line struct {
	listCost

	source *FunctionSource
	lineno uint

	lineJumps []*LineJump
	lineCalls []*LineCall
}

// NewLine creates a source line inside a function source file.
func NewLine(source *FunctionSource, lineno uint) *Line {
	line := &Line{source: source, lineno: lineno}
	line.initListCost(true)

	return line
}

// Kind returns KindLine.
func (l *Line) Kind() CostKind { return KindLine }

// Name renders the line as "file:lineno".
func (l *Line) Name() string {
	if l.source == nil {
		return fmt.Sprintf(":%d", l.lineno)
	}

	return fmt.Sprintf("%s:%d", l.source.File().ShortName(), l.lineno)
}

// PrettyName qualifies the line with the owning function.
func (l *Line) PrettyName() string {
	if l.source == nil {
		return l.Name()
	}

	return fmt.Sprintf("%s (%s)", l.Name(), l.source.Function().PrettyName())
}

// IsValid reports whether the line belongs to a known source file.
func (l *Line) IsValid() bool { return l.source != nil }

// FunctionSource returns the function source file containing the line.
func (l *Line) FunctionSource() *FunctionSource { return l.source }

// Lineno returns the line number.
func (l *Line) Lineno() uint { return l.lineno }

// LineJumps returns the jumps leaving this line.
func (l *Line) LineJumps() []*LineJump { return l.lineJumps }

// LineCalls returns the calls leaving this line.
func (l *Line) LineCalls() []*LineCall { return l.lineCalls }

// HasCost reports whether the line carries a non-zero cost for the event
// type.
func (l *Line) HasCost(costType *CostType) bool {
	return l.EventCost(costType) > 0
}

// PartLine returns the per-part cost of this line, creating it on first
// use and registering it with the part function.
func (l *Line) PartLine(part *Part, partFunction *PartFunction) *PartLine {
	if existing := l.FindDep(part); existing != nil {
		return existing.(*PartLine)
	}

	partLine := NewPartLine(l, part)
	l.AddDep(partLine)
	partFunction.AddPartLine(partLine)

	return partLine
}

// LineJump returns the jump from this line to target, creating it on first
// use.
func (l *Line) LineJump(target *Line, isCondJump bool) *LineJump {
	for _, jump := range l.lineJumps {
		if jump.lineTo == target {
			return jump
		}
	}

	jump := NewLineJump(l, target, isCondJump)
	l.lineJumps = append(l.lineJumps, jump)

	return jump
}

// AddLineCall registers an outgoing call at this line.
func (l *Line) AddLineCall(lineCall *LineCall) {
	l.lineCalls = append(l.lineCalls, lineCall)
}

// LineJump is a jump between two source lines inside a function.
type LineJump struct {
	jumpListCost

	lineFrom   *Line
	lineTo     *Line
	isCondJump bool
}

// NewLineJump creates a jump edge between two lines.
func NewLineJump(from, to *Line, isCondJump bool) *LineJump {
	jump := &LineJump{lineFrom: from, lineTo: to, isCondJump: isCondJump}
	jump.initJumpListCost(true)

	return jump
}

// Kind returns KindLineJump.
func (j *LineJump) Kind() CostKind { return KindLineJump }

// Name renders the jump as "from => to".
func (j *LineJump) Name() string {
	return fmt.Sprintf("%s => %s", j.lineFrom.Name(), j.lineTo.Name())
}

// LineFrom returns the jump site.
func (j *LineJump) LineFrom() *Line { return j.lineFrom }

// LineTo returns the jump target.
func (j *LineJump) LineTo() *Line { return j.lineTo }

// IsCondJump reports whether the jump is conditional.
func (j *LineJump) IsCondJump() bool { return j.isCondJump }

// PartLineJump returns the per-part cost of this jump, creating it on
// first use.
func (j *LineJump) PartLineJump(part *Part) *PartLineJump {
	if existing := j.FindDep(part); existing != nil {
		return existing.(*PartLineJump)
	}

	partJump := NewPartLineJump(j, part)
	j.AddDep(partJump)

	return partJump
}

// SortLineJumps orders a jump list by source or by target line, as the
// consumer selects.
func SortLineJumps(jumps []*LineJump, byTarget bool) {
	sort.SliceStable(jumps, func(i, j int) bool {
		if byTarget {
			return jumps[i].lineTo.lineno < jumps[j].lineTo.lineno
		}

		return jumps[i].lineFrom.lineno < jumps[j].lineFrom.lineno
	})
}

// LineCall is a call from one source line to another function, summing its
// per-part costs over active parts.
type LineCall struct {
	callListCost

	call *Call
	line *Line
}

// NewLineCall creates a call edge endpoint at a line.
func NewLineCall(call *Call, line *Line) *LineCall {
	lineCall := &LineCall{call: call, line: line}
	lineCall.initCallListCost(true)

	return lineCall
}

// Kind returns KindLineCall.
func (c *LineCall) Kind() CostKind { return KindLineCall }

// Name renders the call site and target.
func (c *LineCall) Name() string {
	return fmt.Sprintf("%s => %s", c.line.Name(), c.call.Called(false).PrettyName())
}

// PrettyName returns the call name.
func (c *LineCall) PrettyName() string { return c.Name() }

// Line returns the call site.
func (c *LineCall) Line() *Line { return c.line }

// Call returns the call edge.
func (c *LineCall) Call() *Call { return c.call }

// PartLineCall returns the per-part cost of this call site, creating it on
// first use and registering it with the per-part call.
func (c *LineCall) PartLineCall(part *Part, partCall *PartCall) *PartLineCall {
	if existing := c.FindDep(part); existing != nil {
		return existing.(*PartLineCall)
	}

	partLineCall := NewPartLineCall(c, part)
	c.AddDep(partLineCall)
	partCall.AddDep(partLineCall)

	return partLineCall
}
