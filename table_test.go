package gaffa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTableInsertRemoveInsert inserts 1000 keys, removes every other one
// (exercising tombstone cleanup), then reinserts them and checks every
// key is still reachable.
func TestTableInsertRemoveInsert(t *testing.T) {
	gc, sp := newTestGCAndPool(t)
	tbl := newTable(gc, sp, KindAny)

	for i := 1; i <= 1000; i++ {
		tbl.Set(SIntValue(int64(i)), SIntValue(int64(i)))
	}
	require.Equal(t, 1000, tbl.Len())

	for i := 2; i <= 1000; i += 2 {
		require.True(t, tbl.Remove(SIntValue(int64(i))))
	}
	require.Equal(t, 500, tbl.Len())

	for i := 2; i <= 1000; i += 2 {
		tbl.Set(SIntValue(int64(i)), SIntValue(int64(i)))
	}
	require.Equal(t, 1000, tbl.Len())

	for i := 1; i <= 1000; i++ {
		v, ok := tbl.Get(SIntValue(int64(i)))
		require.True(t, ok, "key %d must be found", i)
		require.Equal(t, int64(i), v.AsSInt())
	}
}

func TestTableSetUpdateInPlace(t *testing.T) {
	gc, sp := newTestGCAndPool(t)
	tbl := newTable(gc, sp, KindAny)
	tbl.Set(SIntValue(1), SIntValue(10))
	require.Equal(t, 1, tbl.Len())
	tbl.Set(SIntValue(1), SIntValue(20))
	require.Equal(t, 1, tbl.Len())
	v, ok := tbl.Get(SIntValue(1))
	require.True(t, ok)
	require.Equal(t, int64(20), v.AsSInt())
}

func TestTableStringKeys(t *testing.T) {
	gc, sp := newTestGCAndPool(t)
	tbl := newTable(gc, sp, KindAny)
	a := StringValue(sp.PutCopy([]byte("alpha")))
	b := StringValue(sp.PutCopy([]byte("alpha"))) // same content, interned to same ref
	tbl.Set(a, SIntValue(1))
	v, ok := tbl.Get(b)
	require.True(t, ok)
	require.Equal(t, int64(1), v.AsSInt())
}
