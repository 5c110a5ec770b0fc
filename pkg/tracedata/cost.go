package tracedata

import "strings"

// cost is the vector-bearing base of all cost items. A one-entry cache
// short-circuits repeated virtual-type queries against an unchanged vector.
type cost struct {
	item

	vector CostVector

	cachedType *CostType
	cachedCost SubCost
}

// initCost wires the lazy-update back-pointer. Concrete entities pass
// themselves (or the embedded list base) as owner.
func (c *cost) initCost(owner updatable) {
	c.owner = owner
}

// Vector returns the updated cost vector. Treat as read-only.
func (c *cost) Vector() *CostVector {
	c.maybeUpdate()

	return &c.vector
}

// RealCost returns the counter at a real index, zero when out of range.
func (c *cost) RealCost(index int) SubCost {
	c.maybeUpdate()

	return c.vector.SubCost(index)
}

// EventCost evaluates an event type against the updated vector.
func (c *cost) EventCost(costType *CostType) SubCost {
	if costType == nil {
		return 0
	}

	c.maybeUpdate()

	if costType.IsReal() {
		return costType.EvalVector(&c.vector)
	}

	if c.cachedType == costType {
		return c.cachedCost
	}

	value := costType.EvalVector(&c.vector)
	c.cachedType = costType
	c.cachedCost = value

	return value
}

// PrettyEventCost renders an event cost with thousands separators.
func (c *cost) PrettyEventCost(costType *CostType) string {
	return c.EventCost(costType).Pretty()
}

// Invalidate marks the item dirty, drops the virtual-cost cache and
// forwards to the dependant once.
func (c *cost) Invalidate() {
	if c.dirty {
		return
	}

	c.dirty = true
	c.cachedType = nil

	if c.dep != nil {
		c.dep.Invalidate()
	}
}

// Clear zeroes all counters.
func (c *cost) Clear() {
	c.vector.Clear()
	c.cachedType = nil
}

// AddCost adds the updated cost of another item.
func (c *cost) AddCost(other CostItem) {
	if other == nil {
		return
	}

	c.vector.AddCost(other.Vector())
}

// AddSubCost adds value to a real index directly.
func (c *cost) AddSubCost(index int, value SubCost) {
	c.vector.AddSubCost(index, value)
}

// AddRow adds an ASCII counter row through a sub-mapping.
func (c *cost) AddRow(subMapping *SubMapping, row string) {
	c.vector.AddRow(subMapping, row)
}

// SetRow replaces the counters with an ASCII row through a sub-mapping.
func (c *cost) SetRow(subMapping *SubMapping, row string) {
	c.vector.SetRow(subMapping, row)
}

// CostString renders all mapped event costs as "name=value" pairs.
func (c *cost) CostString(mapping *Mapping) string {
	if mapping == nil {
		return ""
	}

	var sb strings.Builder

	for i := 0; i < mapping.RealCount(); i++ {
		costType := mapping.RealType(i)
		appendCostString(&sb, costType.Name(), c.EventCost(costType))
	}

	for i := 0; i < mapping.VirtualCount(); i++ {
		costType := mapping.VirtualType(i)
		appendCostString(&sb, costType.Name(), c.EventCost(costType))
	}

	return sb.String()
}

func appendCostString(sb *strings.Builder, name string, value SubCost) {
	if sb.Len() > 0 {
		sb.WriteByte(' ')
	}

	sb.WriteString(name)
	sb.WriteByte('=')
	sb.WriteString(value.Pretty())
}

// activePartDep reports whether a dependency participates in aggregation:
// dependencies owned by an inactive part are skipped under the
// onlyActiveParts discipline.
func activePartDep(part *Part, onlyActiveParts bool) bool {
	if !onlyActiveParts || part == nil {
		return true
	}

	return part.IsActive()
}

// listCost sums a dependency list of cost items.
type listCost struct {
	cost

	deps            []CostItem
	onlyActiveParts bool

	// lastDep is a locality hint for FindDep, not a semantic cache.
	lastDep CostItem
}

func (l *listCost) initListCost(onlyActiveParts bool) {
	l.onlyActiveParts = onlyActiveParts
	l.initCost(l)
}

// Deps returns the dependency list in insertion order.
func (l *listCost) Deps() []CostItem { return l.deps }

// AddDep appends a dependency and invalidates the sum.
func (l *listCost) AddDep(dep CostItem) {
	l.deps = append(l.deps, dep)
	l.lastDep = dep
	l.Invalidate()
}

// FindDep returns the dependency owned by part, nil if absent.
func (l *listCost) FindDep(part *Part) CostItem {
	if l.lastDep != nil && l.lastDep.Part() == part {
		return l.lastDep
	}

	for _, dep := range l.deps {
		if dep.Part() == part {
			l.lastDep = dep

			return dep
		}
	}

	return nil
}

func (l *listCost) update() {
	l.vector.Clear()

	for _, dep := range l.deps {
		if !activePartDep(dep.Part(), l.onlyActiveParts) {
			continue
		}

		l.vector.AddCost(dep.Vector())
	}
}

// jumpCost carries the two counters of a conditional jump: how often the
// jump site executed and how often the jump was followed (a subset).
type jumpCost struct {
	item

	executed SubCost
	followed SubCost
}

// ExecutedCount returns how often the jump site executed.
func (j *jumpCost) ExecutedCount() SubCost {
	j.maybeUpdate()

	return j.executed
}

// FollowedCount returns how often the jump was followed.
func (j *jumpCost) FollowedCount() SubCost {
	j.maybeUpdate()

	return j.followed
}

// AddExecutedCount adds to the executed counter.
func (j *jumpCost) AddExecutedCount(value SubCost) { j.executed += value }

// AddFollowedCount adds to the followed counter.
func (j *jumpCost) AddFollowedCount(value SubCost) { j.followed += value }

// AddJumpCost adds both counters of another jump cost.
func (j *jumpCost) AddJumpCost(other JumpCostItem) {
	if other == nil {
		return
	}

	j.executed += other.ExecutedCount()
	j.followed += other.FollowedCount()
}

// Clear zeroes both counters.
func (j *jumpCost) Clear() {
	j.executed = 0
	j.followed = 0
}

// jumpListCost sums a dependency list of jump costs.
type jumpListCost struct {
	jumpCost

	deps            []JumpCostItem
	onlyActiveParts bool
}

func (l *jumpListCost) initJumpListCost(onlyActiveParts bool) {
	l.onlyActiveParts = onlyActiveParts
	l.owner = l
}

// AddDep appends a dependency and invalidates the sums.
func (l *jumpListCost) AddDep(dep JumpCostItem) {
	l.deps = append(l.deps, dep)
	l.Invalidate()
}

// FindDep returns the dependency owned by part, nil if absent.
func (l *jumpListCost) FindDep(part *Part) JumpCostItem {
	for _, dep := range l.deps {
		if dep.Part() == part {
			return dep
		}
	}

	return nil
}

func (l *jumpListCost) update() {
	l.jumpCost.Clear()

	for _, dep := range l.deps {
		if !activePartDep(dep.Part(), l.onlyActiveParts) {
			continue
		}

		l.AddJumpCost(dep)
	}
}

// callCost adds a call-count metric to a cost vector.
type callCost struct {
	cost

	callCount SubCost
}

// CallCount returns the number of calls.
func (c *callCost) CallCount() SubCost {
	c.maybeUpdate()

	return c.callCount
}

// PrettyCallCount renders the call count with thousands separators.
func (c *callCost) PrettyCallCount() string {
	return c.CallCount().Pretty()
}

// AddCallCount adds to the call counter.
func (c *callCost) AddCallCount(value SubCost) { c.callCount += value }

// Clear zeroes the vector and the call counter.
func (c *callCost) Clear() {
	c.cost.Clear()
	c.callCount = 0
}

// callListCost sums a dependency list of call costs.
type callListCost struct {
	callCost

	deps            []CallCostItem
	onlyActiveParts bool
}

func (l *callListCost) initCallListCost(onlyActiveParts bool) {
	l.onlyActiveParts = onlyActiveParts
	l.initCost(l)
}

// Deps returns the dependency list in insertion order.
func (l *callListCost) Deps() []CallCostItem { return l.deps }

// AddDep appends a dependency and invalidates the sums.
func (l *callListCost) AddDep(dep CallCostItem) {
	l.deps = append(l.deps, dep)
	l.Invalidate()
}

// FindDep returns the dependency owned by part, nil if absent.
func (l *callListCost) FindDep(part *Part) CallCostItem {
	for _, dep := range l.deps {
		if dep.Part() == part {
			return dep
		}
	}

	return nil
}

func (l *callListCost) update() {
	l.vector.Clear()
	l.callCount = 0

	for _, dep := range l.deps {
		if !activePartDep(dep.Part(), l.onlyActiveParts) {
			continue
		}

		l.vector.AddCost(dep.Vector())
		l.callCount += dep.CallCount()
	}
}

// cumulativeCost adds an inclusive-cost vector to a cost item.
type cumulativeCost struct {
	cost

	cumulative CostVector
}

// Cumulative returns the updated inclusive cost. Treat as read-only.
func (c *cumulativeCost) Cumulative() *CostVector {
	c.maybeUpdate()

	return &c.cumulative
}

// AddCumulative adds another item's inclusive cost.
func (c *cumulativeCost) AddCumulative(other CumulativeCostItem) {
	if other == nil {
		return
	}

	c.cumulative.AddCost(other.Cumulative())
}

// Clear zeroes both vectors.
func (c *cumulativeCost) Clear() {
	c.cost.Clear()
	c.cumulative.Clear()
}

// cumulativeListCost sums a dependency list of cumulative cost items.
type cumulativeListCost struct {
	cumulativeCost

	deps            []CumulativeCostItem
	onlyActiveParts bool
}

func (l *cumulativeListCost) initCumulativeListCost(onlyActiveParts bool) {
	l.onlyActiveParts = onlyActiveParts
	l.initCost(l)
}

// Deps returns the dependency list in insertion order.
func (l *cumulativeListCost) Deps() []CumulativeCostItem { return l.deps }

// AddDep appends a dependency and invalidates the sums.
func (l *cumulativeListCost) AddDep(dep CumulativeCostItem) {
	l.deps = append(l.deps, dep)
	l.Invalidate()
}

// FindDep returns the dependency owned by part, nil if absent.
func (l *cumulativeListCost) FindDep(part *Part) CumulativeCostItem {
	for _, dep := range l.deps {
		if dep.Part() == part {
			return dep
		}
	}

	return nil
}

func (l *cumulativeListCost) update() {
	l.vector.Clear()
	l.cumulative.Clear()

	for _, dep := range l.deps {
		if !activePartDep(dep.Part(), l.onlyActiveParts) {
			continue
		}

		l.vector.AddCost(dep.Vector())
		l.cumulative.AddCost(dep.Cumulative())
	}
}
