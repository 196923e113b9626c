package gaffa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDObjMemberSlotsRoundtrip(t *testing.T) {
	gc, sp := newTestGCAndPool(t)
	tr := newTypeRegistry()

	nameX := sp.PutCopy([]byte("x"))
	nameY := sp.PutCopy([]byte("y"))
	point := tr.MkStruct([]TMember{
		{Name: nameX, Type: PrimitiveTypeRef(KindSInt)},
		{Name: nameY, Type: PrimitiveTypeRef(KindSInt)},
	})

	obj := newDObj(gc, tr, point)
	require.Equal(t, 2, len(obj.members))

	desc := tr.Get(point)
	xi, ok := desc.memberIndex(nameX)
	require.True(t, ok)
	yi, ok := desc.memberIndex(nameY)
	require.True(t, ok)

	obj.SetMemberAt(xi, SIntValue(3))
	obj.SetMemberAt(yi, SIntValue(4))
	require.Equal(t, int64(3), obj.GetMemberAt(xi).AsSInt())
	require.Equal(t, int64(4), obj.GetMemberAt(yi).AsSInt())

	_, found := obj.Member(nameX)
	require.False(t, found, "named member lookup is an unimplemented stub")
}

func TestDObjValueIsHeapKind(t *testing.T) {
	gc, _ := newTestGCAndPool(t)
	tr := newTypeRegistry()
	empty := tr.MkStruct(nil)
	obj := newDObj(gc, tr, empty)
	v := objectValue(KindObject, obj)
	require.True(t, v.Kind.isHeapKind())
	require.Same(t, obj, v.AsObject().(*DObj))
}
