package gaffa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestGCAndPool(t *testing.T) (*GC, *StringPool) {
	alc := allocator{fn: DefaultAllocator}
	gc := newGC(alc, discardLogger())
	sp := newStringPool(gc, alc, 64)
	gc.bindStrings(sp)
	return gc, sp
}

// TestStringPoolShortDedup checks that three copies of a short string
// intern to the same ref.
func TestStringPoolShortDedup(t *testing.T) {
	_, sp := newTestGCAndPool(t)
	r1 := sp.PutCopy([]byte("hello"))
	r2 := sp.PutCopy([]byte("hello"))
	r3 := sp.PutCopy([]byte("hello"))
	require.Equal(t, r1, r2)
	require.Equal(t, r2, r3)
	require.Equal(t, "hello", string(sp.Get(r1)))
}

// TestStringPoolLongDedup checks that a string over the 14-byte inline
// threshold dedups the same way as a short one.
func TestStringPoolLongDedup(t *testing.T) {
	_, sp := newTestGCAndPool(t)
	long := "this is a longer string, heap allocated"
	r1 := sp.PutCopy([]byte(long))
	r2 := sp.PutCopy([]byte(long))
	require.Equal(t, r1, r2)
	require.Equal(t, long, string(sp.Get(r1)))
}

func TestStringPoolRoundtripAllLengths(t *testing.T) {
	_, sp := newTestGCAndPool(t)
	for _, s := range []string{"", "a", "short str", "exactly14chars", "this one is definitely longer than fourteen bytes"} {
		ref := sp.PutCopy([]byte(s))
		require.Equal(t, s, string(sp.Get(ref)))
	}
}
