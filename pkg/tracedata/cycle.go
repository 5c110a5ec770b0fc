package tracedata

import "fmt"

// FunctionCycle is a synthesized node standing in for a set of recursively
// calling functions. It is itself a Function, so call-graph views treat it
// uniformly; its cost sums the members, and its caller/calling lists carry
// only edges crossing the cycle boundary.
type FunctionCycle struct {
	Function

	base    *Function
	cycleNo int
	members []*Function

	externalCallers  []*Call
	externalCallings []*Call
}

// NewFunctionCycle synthesizes a cycle node around base with the given
// number.
func NewFunctionCycle(base *Function, cycleNo int) *FunctionCycle {
	cycle := &FunctionCycle{base: base, cycleNo: cycleNo}
	cycle.data = base.data
	cycle.name = fmt.Sprintf("<cycle %d>", cycleNo)
	cycle.asCycle = cycle
	cycle.initCost(cycle)

	return cycle
}

// Base returns the function the cycle was detected from.
func (c *FunctionCycle) Base() *Function { return c.base }

// CycleNo returns the cycle number, unique per Data and detection run.
func (c *FunctionCycle) CycleNo() int { return c.cycleNo }

// Members returns the functions collapsed into this node. The list is
// closed under "calls another member within the cycle".
func (c *FunctionCycle) Members() []*Function { return c.members }

// Init drops all members and boundary edges for a fresh setup.
func (c *FunctionCycle) Init() {
	for _, member := range c.members {
		member.SetCycle(nil)
	}

	c.members = nil
	c.externalCallers = nil
	c.externalCallings = nil
	c.Invalidate()
}

// Add collapses a function into the cycle.
func (c *FunctionCycle) Add(member *Function) {
	c.members = append(c.members, member)
}

// Setup assigns members to the cycle and rewires the external view: calls
// entering any member from outside become the cycle's callers, calls
// leaving the cycle become its callings, and intra-cycle edges disappear
// from the boundary lists.
func (c *FunctionCycle) Setup() {
	inCycle := make(map[*Function]bool, len(c.members))
	for _, member := range c.members {
		inCycle[member] = true
	}

	for _, member := range c.members {
		member.SetCycle(c)
	}

	for _, member := range c.members {
		for _, call := range member.Callers(false) {
			if !inCycle[call.Caller(false)] {
				c.externalCallers = append(c.externalCallers, call)
			}
		}

		for _, call := range member.Callings(false) {
			if !inCycle[call.Called(false)] {
				c.externalCallings = append(c.externalCallings, call)
			}
		}

		// The members' cached inclusive costs counted intra-cycle call
		// rows before the assignment.
		for _, partFunction := range member.PartFunctions() {
			partFunction.Invalidate()
		}

		member.Invalidate()
	}

	c.Invalidate()
}

func (c *FunctionCycle) update() {
	c.vector.Clear()
	c.cumulative.Clear()

	c.calledCount = 0
	c.callingCount = 0
	c.calledContexts = len(c.externalCallers)
	c.callingContexts = len(c.externalCallings)

	for _, member := range c.members {
		c.vector.AddCost(member.Vector())
		c.cumulative.AddCost(member.Cumulative())
	}

	for _, call := range c.externalCallers {
		c.calledCount += call.CallCount()
	}

	for _, call := range c.externalCallings {
		c.callingCount += call.CallCount()
	}
}

// UpdateFunctionCycles redetects recursive call clusters. Existing cycle
// nodes are discarded and every strongly connected component of size
// greater than one, or any self-calling function, gets a fresh
// FunctionCycle with a monotonically increasing number. Numbering is
// deterministic: detection follows name-sorted functions and each
// function's outgoing call list in insertion order.
func (d *Data) UpdateFunctionCycles() {
	if d.inFunctionCycleUpdate {
		return
	}

	d.inFunctionCycleUpdate = true
	defer func() { d.inFunctionCycleUpdate = false }()

	for _, cycle := range d.functionCycles {
		cycle.Init()
	}

	d.functionCycles = nil
	d.functionCycleCount = 0

	functions := d.sortedFunctions()
	for _, function := range functions {
		function.CycleReset()
	}

	walk := &cycleWalk{data: d}

	for _, function := range functions {
		if function.cycleLow == 0 {
			walk.dfs(function)
		}
	}

	d.InvalidateDynamicCost()
}

// cycleWalk carries the DFS state of one detection run.
type cycleWalk struct {
	data *Data

	preOrder int
	stackTop *Function
}

// dfs runs Tarjan's strongly-connected-components algorithm rooted at
// function, using the scratch fields on Function as the stack.
func (w *cycleWalk) dfs(function *Function) {
	w.preOrder++
	order := w.preOrder
	function.cycleLow = order

	function.cycleStackDown = w.stackTop
	function.onCycleStack = true
	w.stackTop = function

	selfCall := false

	for _, call := range function.Callings(false) {
		called := call.Called(false)

		if called == function {
			selfCall = true

			continue
		}

		if called.cycleLow == 0 {
			w.dfs(called)

			if called.cycleLow < function.cycleLow {
				function.cycleLow = called.cycleLow
			}

			continue
		}

		if called.onCycleStack && called.cycleLow < function.cycleLow {
			function.cycleLow = called.cycleLow
		}
	}

	if function.cycleLow != order {
		return
	}

	// Root of a component: pop the stack down to it.
	var members []*Function

	for {
		top := w.stackTop
		w.stackTop = top.cycleStackDown
		top.cycleStackDown = nil
		top.onCycleStack = false
		members = append(members, top)

		if top == function {
			break
		}
	}

	if len(members) > 1 || selfCall {
		cycle := w.data.functionCycle(function)

		cycle.Init()

		for i := len(members) - 1; i >= 0; i-- {
			cycle.Add(members[i])
		}

		cycle.Setup()
	}
}

// GroupCycle is one detected cycle among classes, files or objects.
// Group cycles are descriptive only: no synthetic cost node is created,
// members just share a cycle number.
type GroupCycle[T any] struct {
	CycleNo int
	Members []T
}

// UpdateClassCycles redetects cycles among classes, with edges derived
// from the contained functions' calls.
func (d *Data) UpdateClassCycles() []GroupCycle[*Class] {
	classes := d.sortedClasses()

	groupOf := func(f *Function) *groupBase {
		if f.Class() == nil {
			return nil
		}

		return &f.Class().groupBase
	}

	components := groupComponents(groupsOf(classes), groupOf)

	d.classCycles = liftGroupCycles(components, classes)

	return d.classCycles
}

// UpdateFileCycles redetects cycles among source files.
func (d *Data) UpdateFileCycles() []GroupCycle[*File] {
	files := d.sortedFiles()

	groupOf := func(f *Function) *groupBase {
		if f.File() == nil {
			return nil
		}

		return &f.File().groupBase
	}

	components := groupComponents(groupsOf(files), groupOf)

	d.fileCycles = liftGroupCycles(components, files)

	return d.fileCycles
}

// UpdateObjectCycles redetects cycles among binary objects.
func (d *Data) UpdateObjectCycles() []GroupCycle[*Object] {
	objects := d.sortedObjects()

	groupOf := func(f *Function) *groupBase {
		if f.Object() == nil {
			return nil
		}

		return &f.Object().groupBase
	}

	components := groupComponents(groupsOf(objects), groupOf)

	d.objectCycles = liftGroupCycles(components, objects)

	return d.objectCycles
}

// grouped is satisfied by *Class, *File and *Object.
type grouped interface {
	base() *groupBase
}

func (c *Class) base() *groupBase  { return &c.groupBase }
func (f *File) base() *groupBase   { return &f.groupBase }
func (o *Object) base() *groupBase { return &o.groupBase }

func groupsOf[T grouped](groups []T) []*groupBase {
	bases := make([]*groupBase, len(groups))
	for i, group := range groups {
		bases[i] = group.base()
	}

	return bases
}

// groupComponents runs the same strongly-connected-components algorithm
// over groups, with an edge between two groups whenever a function of one
// calls a function of the other. It assigns cycle numbers on the groups
// and returns the member index lists, one per cycle.
func groupComponents(groups []*groupBase, groupOf func(*Function) *groupBase) [][]int {
	index := make(map[*groupBase]int, len(groups))
	for i, group := range groups {
		group.cycleNo = 0
		index[group] = i
	}

	edges := make([][]int, len(groups))

	for i, group := range groups {
		seen := make(map[int]bool)

		for _, function := range group.functions {
			for _, call := range function.Callings(false) {
				target := groupOf(call.Called(false))
				if target == nil {
					continue
				}

				targetIndex, ok := index[target]
				if !ok {
					continue
				}

				// Calls within one group are the normal case, not a
				// cycle among groups.
				if targetIndex == i {
					continue
				}

				if !seen[targetIndex] {
					seen[targetIndex] = true
					edges[i] = append(edges[i], targetIndex)
				}
			}
		}
	}

	components := stronglyConnected(len(groups), edges)

	var cycles [][]int

	cycleNo := 0

	for _, component := range components {
		if len(component) < 2 {
			continue
		}

		cycleNo++

		for _, memberIndex := range component {
			groups[memberIndex].cycleNo = cycleNo
		}

		cycles = append(cycles, component)
	}

	return cycles
}

func liftGroupCycles[T any](components [][]int, groups []T) []GroupCycle[T] {
	cycles := make([]GroupCycle[T], 0, len(components))

	for i, component := range components {
		members := make([]T, len(component))
		for j, memberIndex := range component {
			members[j] = groups[memberIndex]
		}

		cycles = append(cycles, GroupCycle[T]{CycleNo: i + 1, Members: members})
	}

	return cycles
}

// stronglyConnected is an iterative Tarjan over an integer graph. Node and
// edge order is the caller's, keeping component order deterministic.
func stronglyConnected(n int, edges [][]int) [][]int {
	const unvisited = 0

	order := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)

	var (
		stack      []int
		components [][]int
		preOrder   int
	)

	type frame struct {
		node int
		edge int
	}

	for root := 0; root < n; root++ {
		if order[root] != unvisited {
			continue
		}

		callStack := []frame{{node: root}}

		preOrder++
		order[root] = preOrder
		low[root] = preOrder
		stack = append(stack, root)
		onStack[root] = true

		for len(callStack) > 0 {
			top := &callStack[len(callStack)-1]

			if top.edge < len(edges[top.node]) {
				next := edges[top.node][top.edge]
				top.edge++

				if order[next] == unvisited {
					preOrder++
					order[next] = preOrder
					low[next] = preOrder
					stack = append(stack, next)
					onStack[next] = true
					callStack = append(callStack, frame{node: next})
				} else if onStack[next] && low[next] < low[top.node] {
					low[top.node] = low[next]
				}

				continue
			}

			node := top.node
			callStack = callStack[:len(callStack)-1]

			if len(callStack) > 0 {
				parent := callStack[len(callStack)-1].node
				if low[node] < low[parent] {
					low[parent] = low[node]
				}
			}

			if low[node] != order[node] {
				continue
			}

			var component []int

			for {
				popped := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[popped] = false
				component = append(component, popped)

				if popped == node {
					break
				}
			}

			components = append(components, component)
		}
	}

	return components
}
