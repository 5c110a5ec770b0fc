package tracedata

// Call is the edge from one function to another, summing its line calls
// over active parts. Caller and callee are stable after construction; the
// skip-cycle accessors substitute the cycle node when an endpoint is inside
// a detected cycle.
type Call struct {
	callListCost

	caller *Function
	called *Function

	lineCalls  []*LineCall
	instrCalls []*InstrCall
	partCalls  []*PartCall
}

// NewCall creates a call edge.
func NewCall(caller, called *Function) *Call {
	call := &Call{caller: caller, called: called}
	call.initCallListCost(false)

	return call
}

// Kind returns KindCall.
func (c *Call) Kind() CostKind { return KindCall }

// Name renders the edge as "caller => called".
func (c *Call) Name() string {
	return c.CallerName(false) + " => " + c.CalledName(false)
}

// PrettyName returns the edge name.
func (c *Call) PrettyName() string { return c.Name() }

// IsRecursion reports whether the edge targets its own caller.
func (c *Call) IsRecursion() bool { return c.caller == c.called }

// InCycle returns the cycle number when both endpoints belong to the same
// cycle (a self call counts once its function is cycle-assigned), zero
// otherwise.
func (c *Call) InCycle() int {
	callerCycle := c.caller.Cycle()
	if callerCycle == nil || callerCycle != c.called.Cycle() {
		return 0
	}

	return callerCycle.CycleNo()
}

// Caller returns the calling function. With skipCycle, a caller inside a
// cycle is substituted by its cycle node.
func (c *Call) Caller(skipCycle bool) *Function {
	if skipCycle {
		if cycle := c.caller.Cycle(); cycle != nil {
			return &cycle.Function
		}
	}

	return c.caller
}

// Called returns the called function. With skipCycle, a callee inside a
// cycle is substituted by its cycle node.
func (c *Call) Called(skipCycle bool) *Function {
	if skipCycle {
		if cycle := c.called.Cycle(); cycle != nil {
			return &cycle.Function
		}
	}

	return c.called
}

// CallerName returns the caller's pretty name, optionally cycle-substituted.
func (c *Call) CallerName(skipCycle bool) string {
	return c.Caller(skipCycle).PrettyName()
}

// CalledName returns the callee's pretty name, optionally cycle-substituted.
func (c *Call) CalledName(skipCycle bool) string {
	return c.Called(skipCycle).PrettyName()
}

// LineCalls returns the per-line endpoints of the edge.
func (c *Call) LineCalls() []*LineCall { return c.lineCalls }

// InstrCalls returns the per-address endpoints of the edge.
func (c *Call) InstrCalls() []*InstrCall { return c.instrCalls }

// PartCalls returns the per-part costs of the edge.
func (c *Call) PartCalls() []*PartCall { return c.partCalls }

// PartCall returns the per-part cost of the edge, creating it on first use
// and registering it with both endpoint part functions.
func (c *Call) PartCall(part *Part, callerPart, calledPart *PartFunction) *PartCall {
	for _, partCall := range c.partCalls {
		if partCall.Part() == part {
			return partCall
		}
	}

	partCall := NewPartCall(c, part)
	c.partCalls = append(c.partCalls, partCall)

	callerPart.AddPartCalling(partCall)
	calledPart.AddPartCaller(partCall)

	return partCall
}

// LineCall returns the per-line endpoint of the edge at line, creating it
// on first use.
func (c *Call) LineCall(line *Line) *LineCall {
	for _, lineCall := range c.lineCalls {
		if lineCall.Line() == line {
			return lineCall
		}
	}

	lineCall := NewLineCall(c, line)
	c.lineCalls = append(c.lineCalls, lineCall)
	c.AddDep(lineCall)
	line.AddLineCall(lineCall)

	return lineCall
}

// InstrCall returns the per-address endpoint of the edge at instr, creating
// it on first use.
func (c *Call) InstrCall(instr *Instr) *InstrCall {
	for _, instrCall := range c.instrCalls {
		if instrCall.Instr() == instr {
			return instrCall
		}
	}

	instrCall := NewInstrCall(c, instr)
	c.instrCalls = append(c.instrCalls, instrCall)
	instr.AddInstrCall(instrCall)

	return instrCall
}

// InvalidateDynamicCost marks the edge and its line and instruction
// endpoints stale.
func (c *Call) InvalidateDynamicCost() {
	for _, lineCall := range c.lineCalls {
		lineCall.Invalidate()
	}

	for _, instrCall := range c.instrCalls {
		instrCall.Invalidate()
	}

	c.Invalidate()
}
