package tracedata

// SubMapping is a per-part ordered list of real indices into a Mapping: the
// i-th column of a part's cost rows maps to real index RealIndex(i). It also
// chains the real indices not used by the part, so ingestion can zero-fill
// exactly the columns the part does not carry.
type SubMapping struct {
	mapping *Mapping

	count      int
	isIdentity bool

	realIndex   [MaxRealIndex]int
	nextUnused  [MaxRealIndex]int
	firstUnused int
}

// NewSubMapping creates an empty sub-mapping over mapping.
func NewSubMapping(mapping *Mapping) *SubMapping {
	subMapping := &SubMapping{mapping: mapping}
	subMapping.Clear()

	return subMapping
}

// Clear resets the sub-mapping to carry no columns.
func (s *SubMapping) Clear() {
	s.count = 0
	s.isIdentity = true
	s.rebuildUnused()
}

// Mapping returns the mapping the indices refer to.
func (s *SubMapping) Mapping() *Mapping { return s.mapping }

// Count returns the number of columns.
func (s *SubMapping) Count() int { return s.count }

// IsIdentity reports whether column i maps to real index i for all columns.
// Ingestion takes a direct path in that case.
func (s *SubMapping) IsIdentity() bool { return s.isIdentity }

// RealIndex returns the real index of column i, InvalidIndex out of range.
func (s *SubMapping) RealIndex(column int) int {
	if column < 0 || column >= s.count {
		return InvalidIndex
	}

	return s.realIndex[column]
}

// Append adds a column by short type name. Unknown names allocate a new
// real index in the mapping when create is true. Returns false when the
// name cannot be resolved or the sub-mapping is full.
func (s *SubMapping) Append(name string, create bool) bool {
	if s.mapping == nil {
		return false
	}

	index := s.mapping.RealIndex(name)
	if index == InvalidIndex && create {
		index = s.mapping.AddReal(name)
	}

	return s.AppendIndex(index)
}

// AppendIndex adds a column by real index.
func (s *SubMapping) AppendIndex(index int) bool {
	if index < 0 || index >= MaxRealIndex || s.count >= MaxRealIndex {
		return false
	}

	if index != s.count {
		s.isIdentity = false
	}

	s.realIndex[s.count] = index
	s.count++
	s.rebuildUnused()

	return true
}

// FirstUnused returns the first real index not used by this sub-mapping,
// InvalidIndex when all are used. Iterate with NextUnused.
func (s *SubMapping) FirstUnused() int { return s.firstUnused }

// NextUnused returns the unused real index after i, InvalidIndex at the end.
func (s *SubMapping) NextUnused(index int) int {
	if index < 0 || index >= MaxRealIndex {
		return InvalidIndex
	}

	return s.nextUnused[index]
}

// TypeNames renders the columns as a space-separated short-name list, the
// same form SubMappingFor accepts.
func (s *SubMapping) TypeNames() string {
	names := ""

	for i := 0; i < s.count; i++ {
		costType := s.mapping.RealType(s.realIndex[i])
		if costType == nil {
			continue
		}

		if names != "" {
			names += " "
		}

		names += costType.Name()
	}

	return names
}

// rebuildUnused rewires the unused-index chain over all MaxRealIndex slots.
func (s *SubMapping) rebuildUnused() {
	var used [MaxRealIndex]bool

	for i := 0; i < s.count; i++ {
		used[s.realIndex[i]] = true
	}

	s.firstUnused = InvalidIndex
	previous := InvalidIndex

	for i := 0; i < MaxRealIndex; i++ {
		s.nextUnused[i] = InvalidIndex

		if used[i] {
			continue
		}

		if previous == InvalidIndex {
			s.firstUnused = i
		} else {
			s.nextUnused[previous] = i
		}

		previous = i
	}
}
