package gaffa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMkStructInterning(t *testing.T) {
	tr := newTypeRegistry()
	members := []TMember{
		{Name: 10, Type: PrimitiveTypeRef(KindSInt)},
		{Name: 20, Type: PrimitiveTypeRef(KindFloat)},
	}
	a := tr.MkStruct(members)
	b := tr.MkStruct(members)
	require.Equal(t, a, b, "identical member lists must intern to the same TypeRef")
}

func TestMkStructOrderIndependent(t *testing.T) {
	tr := newTypeRegistry()
	a := tr.MkStruct([]TMember{
		{Name: 1, Type: PrimitiveTypeRef(KindSInt)},
		{Name: 2, Type: PrimitiveTypeRef(KindFloat)},
	})
	b := tr.MkStruct([]TMember{
		{Name: 2, Type: PrimitiveTypeRef(KindFloat)},
		{Name: 1, Type: PrimitiveTypeRef(KindSInt)},
	})
	require.Equal(t, a, b, "canonicalization sorts members before hashing")
}

func TestMkStructDistinctForDifferentMembers(t *testing.T) {
	tr := newTypeRegistry()
	a := tr.MkStruct([]TMember{{Name: 1, Type: PrimitiveTypeRef(KindSInt)}})
	b := tr.MkStruct([]TMember{{Name: 1, Type: PrimitiveTypeRef(KindUInt)}})
	require.NotEqual(t, a, b)
}

func TestPrimitiveTypeRefsPreassigned(t *testing.T) {
	tr := newTypeRegistry()
	require.Equal(t, TDescPrimitive, tr.Get(PrimitiveTypeRef(KindSInt)).Kind)
}
