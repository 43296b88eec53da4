package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_Accessors(t *testing.T) {
	i, ok := Int(-7).AsInt64()
	assert.True(t, ok)
	assert.Equal(t, int64(-7), i)

	u, ok := Uint(7).AsUint64()
	assert.True(t, ok)
	assert.Equal(t, uint64(7), u)

	f, ok := Float(1.5).AsFloat64()
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	s, ok := String("a").AsString()
	assert.True(t, ok)
	assert.Equal(t, "a", s)

	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = String("a").AsInt64()
	assert.False(t, ok)
}

func TestValue_Validity(t *testing.T) {
	assert.False(t, Value{}.IsValid())
	assert.True(t, Int(0).IsValid())
	assert.True(t, String("").IsValid())

	assert.True(t, Int(1).IsNumeric())
	assert.True(t, Uint(1).IsNumeric())
	assert.True(t, Float(1).IsNumeric())
	assert.False(t, String("1").IsNumeric())
	assert.False(t, Bool(true).IsNumeric())
}

func TestValue_ToFloat64(t *testing.T) {
	tests := []struct {
		v    Value
		want float64
		ok   bool
	}{
		{Int(-3), -3, true},
		{Uint(3), 3, true},
		{Float(2.25), 2.25, true},
		{String("x"), 0, false},
		{Value{}, 0, false},
	}

	for _, tt := range tests {
		got, ok := tt.v.ToFloat64()
		assert.Equal(t, tt.ok, ok, "%v", tt.v)
		assert.Equal(t, tt.want, got, "%v", tt.v)
	}
}

func TestValue_KeyDistinguishesKinds(t *testing.T) {
	keys := map[string]Value{}
	for _, v := range []Value{Int(1), Uint(1), Float(1), String("1"), Bool(true), Value{}} {
		_, dup := keys[v.Key()]
		assert.False(t, dup, "duplicate key for %v", v)
		keys[v.Key()] = v
	}

	assert.Equal(t, String("abc").Key(), String("abc").Key())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Int(5).Equal(Int(5)))
	assert.False(t, Int(5).Equal(Uint(5)))
	assert.True(t, Float(math.NaN()).Equal(Float(math.NaN())))
	assert.True(t, Value{}.Equal(Value{}))
	assert.False(t, String("a").Equal(String("b")))
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, `"a"`, String("a").String())
	assert.Equal(t, "42", Int(42).String())
	assert.Equal(t, "0.5", Float(0.5).String())
	assert.Equal(t, "<invalid>", Value{}.String())
	assert.Equal(t, "string", KindString.String())
}


func TestValue_PedigreeKey(t *testing.T) {
	assert.Equal(t, Int(5).PedigreeKey(), Float(5).PedigreeKey())
	assert.Equal(t, Uint(5).PedigreeKey(), Float(5).PedigreeKey())
	assert.NotEqual(t, Int(5).PedigreeKey(), Int(6).PedigreeKey())
	assert.NotEqual(t, Int(5).PedigreeKey(), String("5").PedigreeKey())
	assert.Equal(t, String("a").Key(), String("a").PedigreeKey())
	assert.NotEqual(t, Int(5).Key(), Float(5).Key())
}
