package tracedata

// Process-wide registry of known event types, referenced by short name.
// Populated once before any Data is loaded and never torn down; AddReal and
// AddKnownVirtualTypes consult it to attach long names and derived formulas
// to the raw short names found in trace headers.
var knownTypes []*CostType

// AddKnownType registers an event type. A type with the same short name
// replaces the earlier registration.
func AddKnownType(costType *CostType) {
	if costType == nil || costType.Name() == "" {
		return
	}

	for i, known := range knownTypes {
		if known.Name() == costType.Name() {
			knownTypes[i] = costType

			return
		}
	}

	knownTypes = append(knownTypes, costType)
}

// KnownTypeCount returns the number of registered types.
func KnownTypeCount() int { return len(knownTypes) }

// KnownType returns the registered type at index, nil when out of range.
func KnownType(index int) *CostType {
	if index < 0 || index >= len(knownTypes) {
		return nil
	}

	return knownTypes[index]
}

// KnownRealType looks up a registered real type by short name.
func KnownRealType(name string) *CostType {
	for _, known := range knownTypes {
		if known.IsReal() && known.Name() == name {
			return known
		}
	}

	return nil
}

// KnownVirtualType looks up a registered virtual type by short name.
func KnownVirtualType(name string) *CostType {
	for _, known := range knownTypes {
		if !known.IsReal() && known.Name() == name {
			return known
		}
	}

	return nil
}

// The cache-simulation defaults every cachegrind trace can produce.
func init() {
	AddKnownType(NewCostType("Ir", "Instruction Fetch", ""))
	AddKnownType(NewCostType("Dr", "Data Read Access", ""))
	AddKnownType(NewCostType("Dw", "Data Write Access", ""))
	AddKnownType(NewCostType("I1mr", "L1 Instr. Fetch Miss", ""))
	AddKnownType(NewCostType("D1mr", "L1 Data Read Miss", ""))
	AddKnownType(NewCostType("D1mw", "L1 Data Write Miss", ""))
	AddKnownType(NewCostType("I2mr", "L2 Instr. Fetch Miss", ""))
	AddKnownType(NewCostType("D2mr", "L2 Data Read Miss", ""))
	AddKnownType(NewCostType("D2mw", "L2 Data Write Miss", ""))

	AddKnownType(NewCostType("L1m", "L1 Miss Sum", "I1mr + D1mr + D1mw"))
	AddKnownType(NewCostType("L2m", "L2 Miss Sum", "I2mr + D2mr + D2mw"))
	AddKnownType(NewCostType("RM", "Read Miss Sum", "I1mr + D1mr"))
	AddKnownType(NewCostType("CEst", "Cycle Estimation", "Ir + 10*L1m + 100*L2m"))
}
