package formula_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevleyski/kcachegrind/pkg/formula"
)

func TestParseSimpleSum(t *testing.T) {
	t.Parallel()

	terms, err := formula.Parse("l1rm + l2rm")
	require.NoError(t, err)
	require.Len(t, terms, 2)

	assert.Equal(t, formula.Term{Name: "l1rm", Coeff: 1}, terms[0])
	assert.Equal(t, formula.Term{Name: "l2rm", Coeff: 1}, terms[1])
}

func TestParseCoefficientsAndConstant(t *testing.T) {
	t.Parallel()

	terms, err := formula.Parse("2*Ir + 10*Dr - 1")
	require.NoError(t, err)
	require.Len(t, terms, 3)

	assert.Equal(t, formula.Term{Name: "Ir", Coeff: 2}, terms[0])
	assert.Equal(t, formula.Term{Name: "Dr", Coeff: 10}, terms[1])
	assert.Equal(t, formula.Term{Coeff: -1}, terms[2])
	assert.True(t, terms[2].IsConst())
}

func TestParseLeadingSign(t *testing.T) {
	t.Parallel()

	terms, err := formula.Parse("-2*Dw + Ir")
	require.NoError(t, err)
	require.Len(t, terms, 2)

	assert.Equal(t, formula.Term{Name: "Dw", Coeff: -2}, terms[0])
	assert.Equal(t, formula.Term{Name: "Ir", Coeff: 1}, terms[1])
}

func TestParseSubtraction(t *testing.T) {
	t.Parallel()

	terms, err := formula.Parse("Ir - Dr")
	require.NoError(t, err)
	require.Len(t, terms, 2)

	assert.Equal(t, int64(-1), terms[1].Coeff)
	assert.Equal(t, "Dr", terms[1].Name)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "spaces only", input: "   "},
		{name: "dangling operator", input: "Ir +"},
		{name: "star without name", input: "2*"},
		{name: "star without coefficient", input: "*Ir"},
		{name: "missing operator", input: "Ir Dr"},
		{name: "bad character", input: "Ir % Dr"},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := formula.Parse(testCase.input)
			require.Error(t, err)
		})
	}
}

func TestTermString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ir", formula.Term{Name: "Ir", Coeff: 1}.String())
	assert.Equal(t, "3*Dw", formula.Term{Name: "Dw", Coeff: 3}.String())
	assert.Equal(t, "-5", formula.Term{Coeff: -5}.String())
}
