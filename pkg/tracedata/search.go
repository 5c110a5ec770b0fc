package tracedata

import (
	"sort"
	"strconv"
)

// Search returns the entity of the given kind and name with the highest
// cost for costType. Instr, Line and Call are only indexed per function, so
// parent must be a *Function for them; nil is returned otherwise. For
// functions, parent may restrict the search to an Object, File or Class.
// With a nil costType, or on equal costs, the first match in name-sorted
// iteration order wins.
func (d *Data) Search(kind CostKind, name string, costType *CostType, parent CostItem) CostItem {
	switch kind {
	case KindFunction, KindFunctionCycle:
		return d.searchFunction(name, costType, parent)

	case KindObject:
		return pickBest(name, costType, groupItems(d.sortedObjects()))

	case KindFile:
		return pickBest(name, costType, groupItems(d.sortedFiles()))

	case KindClass:
		return pickBest(name, costType, groupItems(d.sortedClasses()))

	case KindPart:
		return pickBest(name, costType, partItems(d.parts))

	case KindInstr:
		function, ok := parent.(*Function)
		if !ok {
			return nil
		}

		return pickBest(name, costType, instrItems(function))

	case KindLine:
		function, ok := parent.(*Function)
		if !ok {
			return nil
		}

		return pickBest(name, costType, lineItems(function))

	case KindCall:
		function, ok := parent.(*Function)
		if !ok {
			return nil
		}

		return pickBest(name, costType, callItems(function))

	default:
		return nil
	}
}

func (d *Data) searchFunction(name string, costType *CostType, parent CostItem) CostItem {
	var candidates []*Function

	switch scope := parent.(type) {
	case *Object:
		candidates = scope.Functions()
	case *File:
		candidates = scope.Functions()
	case *Class:
		candidates = scope.Functions()
	default:
		candidates = d.sortedFunctions()
	}

	items := make([]CostItem, len(candidates))
	for i, function := range candidates {
		items[i] = function
	}

	return pickBest(name, costType, items)
}

// pickBest scans name-matching candidates, keeping the one with the
// strictly highest cost; earlier candidates win ties.
func pickBest(name string, costType *CostType, candidates []CostItem) CostItem {
	var (
		best     CostItem
		bestCost SubCost
	)

	for _, candidate := range candidates {
		if !matchesName(candidate, name) {
			continue
		}

		if costType == nil {
			return candidate
		}

		cost := candidate.EventCost(costType)
		if best == nil || cost > bestCost {
			best = candidate
			bestCost = cost
		}
	}

	return best
}

func matchesName(candidate CostItem, name string) bool {
	if candidate.Name() == name || candidate.PrettyName() == name {
		return true
	}

	switch entity := candidate.(type) {
	case *File:
		return entity.ShortName() == name
	case *Object:
		return entity.ShortName() == name
	case *Part:
		return entity.ShortName() == name
	case *Line:
		return strconv.FormatUint(uint64(entity.Lineno()), 10) == name
	case *Call:
		return entity.CalledName(false) == name
	default:
		return false
	}
}

func groupItems[T CostItem](groups []T) []CostItem {
	items := make([]CostItem, len(groups))
	for i, group := range groups {
		items[i] = group
	}

	return items
}

func partItems(parts []*Part) []CostItem {
	items := make([]CostItem, len(parts))
	for i, part := range parts {
		items[i] = part
	}

	return items
}

func instrItems(function *Function) []CostItem {
	addrs := make([]uint64, 0, len(function.InstrMap()))
	for addr := range function.InstrMap() {
		addrs = append(addrs, addr)
	}

	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	items := make([]CostItem, len(addrs))
	for i, addr := range addrs {
		items[i] = function.InstrMap()[addr]
	}

	return items
}

func lineItems(function *Function) []CostItem {
	var items []CostItem

	for _, source := range function.SourceFiles() {
		linenos := make([]uint, 0, len(source.LineMap()))
		for lineno := range source.LineMap() {
			linenos = append(linenos, lineno)
		}

		sort.Slice(linenos, func(i, j int) bool { return linenos[i] < linenos[j] })

		for _, lineno := range linenos {
			items = append(items, source.LineMap()[lineno])
		}
	}

	return items
}

func callItems(function *Function) []CostItem {
	items := make([]CostItem, len(function.Callings(false)))
	for i, call := range function.Callings(false) {
		items[i] = call
	}

	return items
}
