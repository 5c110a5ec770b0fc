package tracedata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kevleyski/kcachegrind/pkg/formula"
)

var (
	// ErrFormulaUnresolved is returned when a formula references an event
	// type name not present in the mapping.
	ErrFormulaUnresolved = errors.New("tracedata: unresolved name in formula")

	// ErrFormulaCycle is returned when virtual types reference each other,
	// directly or through a chain.
	ErrFormulaCycle = errors.New("tracedata: formula cycle")
)

// CostType is a named event type. Real types carry values produced by the
// tracer and occupy a real index in their Mapping. Virtual types are linear
// combinations of reals, defined by a formula over short type names, with an
// extra constant coefficient stored at slot MaxRealIndex.
type CostType struct {
	name     string
	longName string
	formula  string

	mapping   *Mapping
	realIndex int

	parsed     bool
	inParsing  bool
	parseError error

	// coeff[MaxRealIndex] is the constant contribution.
	coeff [MaxRealIndex + 1]int64
}

// NewCostType creates an event type. An empty formula makes it real.
func NewCostType(name, longName, formulaStr string) *CostType {
	return &CostType{
		name:      name,
		longName:  longName,
		formula:   formulaStr,
		realIndex: InvalidIndex,
	}
}

// Name returns the short locale-independent identifier, e.g. "l1rm".
func (t *CostType) Name() string { return t.name }

// LongName returns the human-readable label, e.g. "L1 Read Miss".
func (t *CostType) LongName() string {
	if t.longName == "" {
		return t.name
	}

	return t.longName
}

// Formula returns the defining formula, empty for real types.
func (t *CostType) Formula() string { return t.formula }

// Mapping returns the mapping this type is registered in, nil if none.
func (t *CostType) Mapping() *Mapping { return t.mapping }

// RealIndex returns the slot of a real type, InvalidIndex for virtual ones.
func (t *CostType) RealIndex() int { return t.realIndex }

// IsReal reports whether values come directly from the tracer.
func (t *CostType) IsReal() bool { return t.formula == "" }

// SetName overrides the short identifier.
func (t *CostType) SetName(name string) { t.name = name }

// SetLongName overrides the human-readable label.
func (t *CostType) SetLongName(name string) { t.longName = name }

// SetMapping attaches the type to a mapping and discards any parse state.
func (t *CostType) SetMapping(mapping *Mapping) {
	t.mapping = mapping
	t.parsed = false
	t.parseError = nil
}

// SetFormula turns the type virtual and discards any parse state.
func (t *CostType) SetFormula(formulaStr string) {
	t.formula = formulaStr
	t.realIndex = InvalidIndex
	t.parsed = false
	t.parseError = nil
}

// SetRealIndex assigns the real slot and clears any formula.
func (t *CostType) SetRealIndex(index int) {
	t.realIndex = index
	t.formula = ""
	t.parsed = false
	t.parseError = nil
}

// ParseFormula resolves the formula against the mapping into a coefficient
// vector over real indices. It returns nil for real types, and otherwise an
// error when a name cannot be resolved (ErrFormulaUnresolved), the syntax is
// bad, or virtual types form a reference cycle (ErrFormulaCycle). A failed
// type evaluates to zero.
func (t *CostType) ParseFormula() error {
	if t.IsReal() {
		return nil
	}

	if t.parsed || t.parseError != nil {
		return t.parseError
	}

	if t.inParsing {
		t.parseError = fmt.Errorf("%w: %q", ErrFormulaCycle, t.name)

		return t.parseError
	}

	t.inParsing = true
	defer func() { t.inParsing = false }()

	for i := range t.coeff {
		t.coeff[i] = 0
	}

	terms, err := formula.Parse(t.formula)
	if err != nil {
		t.parseError = fmt.Errorf("tracedata: type %q: %w", t.name, err)

		return t.parseError
	}

	for _, term := range terms {
		if term.IsConst() {
			t.coeff[MaxRealIndex] += term.Coeff

			continue
		}

		resolveErr := t.resolveTerm(term)
		if resolveErr != nil {
			t.parseError = resolveErr

			return t.parseError
		}
	}

	t.parsed = true

	return nil
}

// resolveTerm folds one named term into the coefficient vector.
func (t *CostType) resolveTerm(term formula.Term) error {
	if t.mapping == nil {
		return fmt.Errorf("%w: %q (no mapping)", ErrFormulaUnresolved, term.Name)
	}

	ref := t.mapping.TypeByName(term.Name)
	if ref == nil {
		return fmt.Errorf("%w: %q", ErrFormulaUnresolved, term.Name)
	}

	if ref.IsReal() {
		if ref.realIndex < 0 || ref.realIndex >= MaxRealIndex {
			return fmt.Errorf("%w: %q has no real index", ErrFormulaUnresolved, term.Name)
		}

		t.coeff[ref.realIndex] += term.Coeff

		return nil
	}

	if ref.inParsing || ref == t {
		return fmt.Errorf("%w: %q references %q", ErrFormulaCycle, t.name, ref.name)
	}

	err := ref.ParseFormula()
	if err != nil {
		return fmt.Errorf("%w: via %q", errKind(err), ref.name)
	}

	for i := range t.coeff {
		t.coeff[i] += term.Coeff * ref.coeff[i]
	}

	return nil
}

// errKind maps a nested parse failure onto its sentinel for wrapping.
func errKind(err error) error {
	if errors.Is(err, ErrFormulaCycle) {
		return ErrFormulaCycle
	}

	return ErrFormulaUnresolved
}

// ParsedFormula renders the resolved coefficient vector as a canonical
// formula over real type names. Empty for real or unparseable types.
func (t *CostType) ParsedFormula() string {
	if t.IsReal() || t.ParseFormula() != nil {
		return ""
	}

	var sb strings.Builder

	appendTerm := func(coeff int64, name string) {
		if coeff == 0 {
			return
		}

		if sb.Len() > 0 {
			if coeff > 0 {
				sb.WriteString(" + ")
			} else {
				sb.WriteString(" - ")
				coeff = -coeff
			}
		} else if coeff < 0 {
			sb.WriteString("-")
			coeff = -coeff
		}

		if name == "" {
			fmt.Fprintf(&sb, "%d", coeff)

			return
		}

		if coeff != 1 {
			fmt.Fprintf(&sb, "%d*", coeff)
		}

		sb.WriteString(name)
	}

	for i := 0; i < MaxRealIndex; i++ {
		if t.coeff[i] == 0 {
			continue
		}

		name := ""
		if real := t.mapping.RealType(i); real != nil {
			name = real.Name()
		}

		appendTerm(t.coeff[i], name)
	}

	appendTerm(t.coeff[MaxRealIndex], "")

	return sb.String()
}

// EvalVector computes the type's value over a cost vector: the real slot
// for real types, the coefficient dot product plus constant for virtual
// ones. Negative results clamp to zero; a failed formula evaluates to zero.
func (t *CostType) EvalVector(vector *CostVector) SubCost {
	if vector == nil {
		return 0
	}

	if t.IsReal() {
		if t.realIndex == InvalidIndex {
			return 0
		}

		return vector.SubCost(t.realIndex)
	}

	if t.ParseFormula() != nil {
		return 0
	}

	total := t.coeff[MaxRealIndex]

	for i := 0; i < MaxRealIndex; i++ {
		if t.coeff[i] != 0 {
			total += t.coeff[i] * int64(vector.SubCost(i)) //nolint:gosec // counters fit, wraps with the counter.
		}
	}

	if total < 0 {
		return 0
	}

	return SubCost(total)
}
