package gaffa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSymTableOverloadFallback checks that two overloads registered under
// the same name but distinct argument-list types resolve independently.
func TestSymTableOverloadFallback(t *testing.T) {
	gc, sp := newTestGCAndPool(t)
	st := newSymTable(gc, sp)
	tr := newTypeRegistry()

	namespace := TypeValue(PrimitiveTypeRef(KindAny))
	nameAdd := sp.PutCopy([]byte("add"))

	uintPair := tr.MkStruct([]TMember{
		{Name: 1, Type: PrimitiveTypeRef(KindUInt)},
		{Name: 2, Type: PrimitiveTypeRef(KindUInt)},
	})
	floatPair := tr.MkStruct([]TMember{
		{Name: 1, Type: PrimitiveTypeRef(KindFloat)},
		{Name: 2, Type: PrimitiveTypeRef(KindFloat)},
	})
	mixedPair := tr.MkStruct([]TMember{
		{Name: 1, Type: PrimitiveTypeRef(KindUInt)},
		{Name: 2, Type: PrimitiveTypeRef(KindFloat)},
	})

	addUint := SIntValue(1)
	addFloat := SIntValue(2)
	st.AddOverload(namespace, nameAdd, uintPair, addUint)
	st.AddOverload(namespace, nameAdd, floatPair, addFloat)

	v, ok := st.LookupOverload(namespace, nameAdd, uintPair)
	require.True(t, ok)
	require.Equal(t, addUint, v)

	v, ok = st.LookupOverload(namespace, nameAdd, floatPair)
	require.True(t, ok)
	require.Equal(t, addFloat, v)

	_, ok = st.LookupOverload(namespace, nameAdd, mixedPair)
	require.False(t, ok, "no plain fallback was registered, so the mixed signature must miss")
}

func TestSymTablePlainFallback(t *testing.T) {
	gc, sp := newTestGCAndPool(t)
	st := newSymTable(gc, sp)
	namespace := TypeValue(PrimitiveTypeRef(KindAny))
	name := sp.PutCopy([]byte("identity"))

	st.AddToNamespace(namespace, name, SIntValue(42))
	v, ok := st.LookupOverload(namespace, name, 999)
	require.True(t, ok, "an unmatched overload must fall back to the plain identifier entry")
	require.Equal(t, int64(42), v.AsSInt())
}
