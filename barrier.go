package gaffa

// Garbage collector: write barriers.
//
// This is a Dijkstra-style barrier: during MARK, a store into an owner
// that is already BLACK shades the stored value, without looking at the
// value being overwritten or at the stored value's own color. Checking the
// owner's color right after the store is race-free here only because this
// VM is single-threaded and cooperatively scheduled. Shading whenever the
// owning object is black is cheaper to reason about than special-casing
// white-to-white stores, and is the only barrier this GC has.

// shade enqueues v for (re-)scanning if it carries a reference the
// collector tracks: a heap object gets re-greyed, a STRING ref gets its
// StringPool entry's MARK bit set. Primitive and OPAQUE values are no-ops.
func (gc *GC) shade(v Value) {
	if gc.phase != gcMark {
		return
	}
	switch {
	case v.Kind.isHeapKind() && v.object != nil:
		gc.makeGrey(v.object.header())
	case v.Kind == KindString:
		if gc.strings != nil {
			gc.strings.mark(v.AsStringRef())
		}
	}
}

// writeBarrier is called by every mutator operation that stores val into a
// slot owned by owner (Table.Set, DArray.Set/Append, DObj field stores),
// after the store has already been applied. Per the sticky-grey
// invariant, only a store into an object already fully scanned this cycle
// (BLACK) needs to re-shade its new child.
func (gc *GC) writeBarrier(owner *gcHeader, val Value) {
	if gc.phase == gcMark && owner.hasFlag(gcBlack) {
		gc.shade(val)
	}
}
