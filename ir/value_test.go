package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorEval(t *testing.T) {
	for _, tc := range []struct {
		name string
		op   Operator
		l, r word
		want word
	}{
		{"plus", Plus, 2, 3, 5},
		{"sub", Sub, 5, 3, 2},
		{"mul", Mul, 4, 3, 12},
		{"div truncates toward zero", Div, 7, 2, 3},
		{"div negative truncates toward zero", Div, -7, 2, -3},
		{"equal true", Equal, 4, 4, 1},
		{"equal false", Equal, 4, 5, 0},
		{"greater true", Greater, 5, 4, 1},
		{"greater false", Greater, 4, 4, 0},
		{"less true", Less, 3, 4, 1},
		{"greater-equal true on equal", GreaterEqual, 4, 4, 1},
		{"less-equal true on equal", LessEqual, 4, 4, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.op.Eval(tc.l, tc.r))
		})
	}
}

func TestOperatorEvalPanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() {
		Operator(99).Eval(1, 1)
	})
}

func TestOperatorIsArith(t *testing.T) {
	assert.True(t, Plus.IsArith())
	assert.True(t, Div.IsArith())
	assert.False(t, Equal.IsArith())
	assert.False(t, GreaterEqual.IsArith())
}

func TestOperatorFromString(t *testing.T) {
	op, ok := operatorFromString("<=")
	require.True(t, ok)
	assert.Equal(t, LessEqual, op)

	_, ok = operatorFromString("!!")
	assert.False(t, ok)
}

func TestVariableConstructorsAndString(t *testing.T) {
	for _, tc := range []struct {
		name string
		v    Variable
		want string
	}{
		{"number", NumberVar(42), "#42"},
		{"negative number", NumberVar(-1), "#-1"},
		{"id", IDVar("x"), "x"},
		{"pointer", PointerVar("x"), "&x"},
		{"deref", DerefVar("x"), "*x"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.v.String())
		})
	}
}

func TestVariableIDOf(t *testing.T) {
	name, ok := IDVar("count").IDOf()
	assert.True(t, ok)
	assert.Equal(t, "count", name)

	_, ok = NumberVar(3).IDOf()
	assert.False(t, ok)

	name, ok = DerefVar("p").IDOf()
	assert.True(t, ok)
	assert.Equal(t, "p", name)
}

func TestVariableIsLValueForm(t *testing.T) {
	assert.True(t, IDVar("x").IsLValueForm())
	assert.True(t, DerefVar("x").IsLValueForm())
	assert.False(t, NumberVar(1).IsLValueForm())
	assert.False(t, PointerVar("x").IsLValueForm())
}
