package tracedata

import (
	"fmt"
	"sort"
)

// Instr is a code address of the traced program, summing the per-part costs
// of that address over active parts. Instruction detail is optional; traces
// without it never create Instr items.
type Instr struct {
	listCost

	addr     uint64
	function *Function
	line     *Line

	instrJumps []*InstrJump
	instrCalls []*InstrCall
}

// NewInstr creates an instruction for a code address inside function.
func NewInstr(function *Function, addr uint64) *Instr {
	instr := &Instr{addr: addr, function: function}
	instr.initListCost(true)

	return instr
}

// Kind returns KindInstr.
func (i *Instr) Kind() CostKind { return KindInstr }

// Name returns the hexadecimal address.
func (i *Instr) Name() string { return fmt.Sprintf("0x%x", i.addr) }

// PrettyName qualifies the address with the owning function.
func (i *Instr) PrettyName() string {
	if i.function == nil {
		return i.Name()
	}

	return fmt.Sprintf("%s (%s)", i.Name(), i.function.PrettyName())
}

// IsValid reports whether the instruction carries a real address.
func (i *Instr) IsValid() bool { return i.addr != 0 }

// Addr returns the code address.
func (i *Instr) Addr() uint64 { return i.addr }

// Function returns the function containing the address.
func (i *Instr) Function() *Function { return i.function }

// Line returns the source line generating the address, nil if unknown.
func (i *Instr) Line() *Line { return i.line }

// SetLine attaches the source line generating the address.
func (i *Instr) SetLine(line *Line) { i.line = line }

// InstrJumps returns the jumps leaving this address.
func (i *Instr) InstrJumps() []*InstrJump { return i.instrJumps }

// InstrCalls returns the calls leaving this address.
func (i *Instr) InstrCalls() []*InstrCall { return i.instrCalls }

// HasCost reports whether the instruction carries a non-zero cost for the
// event type.
func (i *Instr) HasCost(costType *CostType) bool {
	return i.EventCost(costType) > 0
}

// PartInstr returns the per-part cost of this address, creating it on
// first use and registering it with the part function.
func (i *Instr) PartInstr(part *Part, partFunction *PartFunction) *PartInstr {
	if existing := i.FindDep(part); existing != nil {
		return existing.(*PartInstr)
	}

	partInstr := NewPartInstr(i, part)
	i.AddDep(partInstr)
	partFunction.AddPartInstr(partInstr)

	return partInstr
}

// InstrJump returns the jump from this address to target, creating it on
// first use.
func (i *Instr) InstrJump(target *Instr, isCondJump bool) *InstrJump {
	for _, jump := range i.instrJumps {
		if jump.instrTo == target {
			return jump
		}
	}

	jump := NewInstrJump(i, target, isCondJump)
	i.instrJumps = append(i.instrJumps, jump)

	return jump
}

// AddInstrCall registers an outgoing call at this address.
func (i *Instr) AddInstrCall(instrCall *InstrCall) {
	i.instrCalls = append(i.instrCalls, instrCall)
}

// InstrJump is a jump between two code addresses inside a function.
type InstrJump struct {
	jumpListCost

	instrFrom  *Instr
	instrTo    *Instr
	isCondJump bool
}

// NewInstrJump creates a jump edge between two addresses.
func NewInstrJump(from, to *Instr, isCondJump bool) *InstrJump {
	jump := &InstrJump{instrFrom: from, instrTo: to, isCondJump: isCondJump}
	jump.initJumpListCost(true)

	return jump
}

// Kind returns KindInstrJump.
func (j *InstrJump) Kind() CostKind { return KindInstrJump }

// Name renders the jump as "from => to".
func (j *InstrJump) Name() string {
	return fmt.Sprintf("%s => %s", j.instrFrom.Name(), j.instrTo.Name())
}

// InstrFrom returns the jump site.
func (j *InstrJump) InstrFrom() *Instr { return j.instrFrom }

// InstrTo returns the jump target.
func (j *InstrJump) InstrTo() *Instr { return j.instrTo }

// IsCondJump reports whether the jump is conditional.
func (j *InstrJump) IsCondJump() bool { return j.isCondJump }

// PartInstrJump returns the per-part cost of this jump, creating it on
// first use.
func (j *InstrJump) PartInstrJump(part *Part) *PartInstrJump {
	if existing := j.FindDep(part); existing != nil {
		return existing.(*PartInstrJump)
	}

	partJump := NewPartInstrJump(j, part)
	j.AddDep(partJump)

	return partJump
}

// SortInstrJumps orders a jump list by source or by target address, as the
// consumer selects.
func SortInstrJumps(jumps []*InstrJump, byTarget bool) {
	sort.SliceStable(jumps, func(i, j int) bool {
		if byTarget {
			return jumps[i].instrTo.addr < jumps[j].instrTo.addr
		}

		return jumps[i].instrFrom.addr < jumps[j].instrFrom.addr
	})
}

// InstrCall is a call from one code address to another function, summing
// its per-part costs over active parts.
type InstrCall struct {
	callListCost

	call  *Call
	instr *Instr
}

// NewInstrCall creates a call edge endpoint at an address.
func NewInstrCall(call *Call, instr *Instr) *InstrCall {
	instrCall := &InstrCall{call: call, instr: instr}
	instrCall.initCallListCost(true)

	return instrCall
}

// Kind returns KindInstrCall.
func (c *InstrCall) Kind() CostKind { return KindInstrCall }

// Name renders the call site and target.
func (c *InstrCall) Name() string {
	return fmt.Sprintf("%s => %s", c.instr.Name(), c.call.Called(false).PrettyName())
}

// PrettyName returns the call name.
func (c *InstrCall) PrettyName() string { return c.Name() }

// Instr returns the call site.
func (c *InstrCall) Instr() *Instr { return c.instr }

// Call returns the call edge.
func (c *InstrCall) Call() *Call { return c.call }

// PartInstrCall returns the per-part cost of this call site, creating it
// on first use.
func (c *InstrCall) PartInstrCall(part *Part) *PartInstrCall {
	if existing := c.FindDep(part); existing != nil {
		return existing.(*PartInstrCall)
	}

	partCall := NewPartInstrCall(c, part)
	c.AddDep(partCall)

	return partCall
}
