package tracedata

import "strings"

// Mapping manages the event types of one Data object. Real types occupy
// indices [0, MaxRealIndex), virtual types [MaxRealIndex, 2*MaxRealIndex).
type Mapping struct {
	real    [MaxRealIndex]*CostType
	virtual [MaxRealIndex]*CostType

	realCount    int
	virtualCount int
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{}
}

// RealCount returns the number of registered real types.
func (m *Mapping) RealCount() int { return m.realCount }

// VirtualCount returns the number of registered virtual types.
func (m *Mapping) VirtualCount() int { return m.virtualCount }

// MinVirtualIndex returns the first index used for virtual types.
func (m *Mapping) MinVirtualIndex() int { return MaxRealIndex }

// AddReal registers a real type by short name, returning its index. When the
// name is already present its existing index is returned. The long name is
// taken from the known-type registry when available.
func (m *Mapping) AddReal(name string) int {
	if index := m.RealIndex(name); index != InvalidIndex {
		return index
	}

	longName := name
	if known := KnownRealType(name); known != nil {
		longName = known.LongName()
	}

	costType := NewCostType(name, longName, "")

	return m.Add(costType)
}

// Add registers a type, assigning the next free real or virtual index.
// It returns InvalidIndex when the respective table is full.
func (m *Mapping) Add(costType *CostType) int {
	if costType == nil {
		return InvalidIndex
	}

	costType.SetMapping(m)

	if costType.IsReal() {
		if m.realCount >= MaxRealIndex {
			return InvalidIndex
		}

		costType.realIndex = m.realCount
		m.real[m.realCount] = costType
		m.realCount++

		return costType.realIndex
	}

	if m.virtualCount >= MaxRealIndex {
		return InvalidIndex
	}

	m.virtual[m.virtualCount] = costType
	m.virtualCount++

	return MaxRealIndex + m.virtualCount - 1
}

// Remove unregisters a virtual type. Real types cannot be removed: their
// indices are baked into every ingested cost vector.
func (m *Mapping) Remove(costType *CostType) bool {
	if costType == nil || costType.IsReal() {
		return false
	}

	for i := 0; i < m.virtualCount; i++ {
		if m.virtual[i] != costType {
			continue
		}

		copy(m.virtual[i:], m.virtual[i+1:m.virtualCount])
		m.virtualCount--
		m.virtual[m.virtualCount] = nil

		return true
	}

	return false
}

// Type returns the type at a combined index, nil when out of range.
func (m *Mapping) Type(index int) *CostType {
	if index >= 0 && index < m.realCount {
		return m.real[index]
	}

	if index >= MaxRealIndex && index < MaxRealIndex+m.virtualCount {
		return m.virtual[index-MaxRealIndex]
	}

	return nil
}

// RealType returns the real type at index, nil when out of range.
func (m *Mapping) RealType(index int) *CostType {
	if index < 0 || index >= m.realCount {
		return nil
	}

	return m.real[index]
}

// VirtualType returns the virtual type at offset index, nil when out of range.
func (m *Mapping) VirtualType(index int) *CostType {
	if index < 0 || index >= m.virtualCount {
		return nil
	}

	return m.virtual[index]
}

// TypeByName looks a type up by its short name.
func (m *Mapping) TypeByName(name string) *CostType {
	for i := 0; i < m.realCount; i++ {
		if m.real[i].Name() == name {
			return m.real[i]
		}
	}

	for i := 0; i < m.virtualCount; i++ {
		if m.virtual[i].Name() == name {
			return m.virtual[i]
		}
	}

	return nil
}

// TypeByLongName looks a type up by its human-readable label.
func (m *Mapping) TypeByLongName(longName string) *CostType {
	for i := 0; i < m.realCount; i++ {
		if m.real[i].LongName() == longName {
			return m.real[i]
		}
	}

	for i := 0; i < m.virtualCount; i++ {
		if m.virtual[i].LongName() == longName {
			return m.virtual[i]
		}
	}

	return nil
}

// RealIndex returns the real index for a short name, InvalidIndex if absent.
func (m *Mapping) RealIndex(name string) int {
	for i := 0; i < m.realCount; i++ {
		if m.real[i].Name() == name {
			return i
		}
	}

	return InvalidIndex
}

// Index returns the combined index for a short name, InvalidIndex if absent.
func (m *Mapping) Index(name string) int {
	if index := m.RealIndex(name); index != InvalidIndex {
		return index
	}

	for i := 0; i < m.virtualCount; i++ {
		if m.virtual[i].Name() == name {
			return MaxRealIndex + i
		}
	}

	return InvalidIndex
}

// AddKnownVirtualTypes copies every registry virtual type whose formula can
// be parsed against this mapping, returning how many were added. Passes
// repeat until a fixpoint, so virtual types referencing other known
// virtual types resolve regardless of registration order.
func (m *Mapping) AddKnownVirtualTypes() int {
	added := 0

	for {
		addedInPass := 0

		for i := 0; i < KnownTypeCount(); i++ {
			known := KnownType(i)
			if known.IsReal() || m.TypeByName(known.Name()) != nil {
				continue
			}

			candidate := NewCostType(known.Name(), known.LongName(), known.Formula())
			candidate.SetMapping(m)

			if candidate.ParseFormula() != nil {
				continue
			}

			m.Add(candidate)
			addedInPass++
		}

		if addedInPass == 0 {
			return added
		}

		added += addedInPass
	}
}

// SubMappingFor builds a sub-mapping from a space-separated list of short
// type names, allocating new real indices for unknown names.
func (m *Mapping) SubMappingFor(names string) *SubMapping {
	subMapping := NewSubMapping(m)

	for _, name := range strings.Fields(names) {
		subMapping.Append(name, true)
	}

	return subMapping
}
