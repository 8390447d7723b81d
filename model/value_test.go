package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromAny_IntegralFloatNormalizes(t *testing.T) {
	// JSON decoding hands back float64 for every number; whole values
	// must land as ints so filters written with ints still match.
	v := FromAny(float64(5))
	require.Equal(t, KindInt, v.Kind)
	require.Equal(t, int64(5), v.I64)

	f := FromAny(5.5)
	require.Equal(t, KindFloat, f.Kind)
	require.Equal(t, 5.5, f.F64)
}

func TestFromAny_Nested(t *testing.T) {
	v := FromAny(map[string]any{
		"tags":  []any{"a", "b"},
		"count": float64(3),
		"ok":    true,
		"none":  nil,
	})
	require.Equal(t, KindMap, v.Kind)
	require.Equal(t, KindArray, v.M["tags"].Kind)
	require.Equal(t, Int(3), v.M["count"])
	require.Equal(t, Bool(true), v.M["ok"])
	require.Equal(t, KindNull, v.M["none"].Kind)
}

func TestToAny_RoundTrip(t *testing.T) {
	v := Map(map[string]Value{
		"name":  String("ada"),
		"age":   Int(36),
		"score": Float(0.5),
		"tags":  Array(String("x"), String("y")),
	})
	require.Equal(t, v, FromAny(v.ToAny()))
}

func TestEqual(t *testing.T) {
	require.True(t, Int(1).Equal(Int(1)))
	require.False(t, Int(1).Equal(Float(1)))
	require.False(t, Int(1).Equal(Int(2)))
	require.True(t, Array(Int(1), Int(2)).Equal(Array(Int(1), Int(2))))
	require.False(t, Array(Int(1)).Equal(Array(Int(2))))
	require.True(t, Null().Equal(Null()))
	require.True(t,
		Map(map[string]Value{"a": Int(1)}).Equal(Map(map[string]Value{"a": Int(1)})))
	require.False(t,
		Map(map[string]Value{"a": Int(1)}).Equal(Map(map[string]Value{"b": Int(1)})))
}

func TestKey_MapOrderIndependent(t *testing.T) {
	a := Map(map[string]Value{"x": Int(1), "y": Int(2)})
	b := Map(map[string]Value{"y": Int(2), "x": Int(1)})
	require.Equal(t, a.Key(), b.Key())
	require.NotEqual(t, a.Key(), Map(map[string]Value{"x": Int(1)}).Key())
}
