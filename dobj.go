package gaffa

// DObj is the heap object backing a KindObject Value: a type descriptor
// reference plus an inline array of member Values, sized by the
// descriptor's member count at construction time.
//
// Grounded on original_source/src/table.h's reserved known-member-access
// comment block, carried here as TDesc.memberIndex.
type DObj struct {
	h    gcHeader
	gc   *GC
	Type TypeRef

	members []Value
}

func (o *DObj) header() *gcHeader { return &o.h }

// newDObj allocates a DObj for t, reserving one member slot per TDesc.Members
// entry. t must refer to a struct-like TDesc; a non-struct TDesc yields a
// zero-member object rather than panicking, since no compiler in this scope
// validates the TypeRef before constructing one.
func newDObj(gc *GC, tr *TypeRegistry, t TypeRef) *DObj {
	n := 0
	if desc := tr.Get(t); desc != nil && desc.Kind == TDescStruct {
		n = len(desc.Members)
	}
	o := &DObj{gc: gc, Type: t, members: make([]Value, n)}
	newObject(gc, o, KindObject, 0)
	return o
}

// Member looks up a struct member by name. No compiler in this scope ever
// emits a known-member access yet, so this always reports not found; see
// TDesc.memberIndex for the reserved fast path that would back this once
// one does.
func (o *DObj) Member(name StringRef) (Value, bool) {
	return Nil, false
}

// GetMemberAt reads member slot i directly, bypassing name lookup, for a
// compiler that has already resolved a member access to its slot index.
func (o *DObj) GetMemberAt(i int) Value { return o.members[i] }

// SetMemberAt stores v at member slot i directly, applying the write
// barrier.
func (o *DObj) SetMemberAt(i int, v Value) {
	o.members[i] = v
	o.gc.writeBarrier(&o.h, v)
}

func (o *DObj) scanChildren(gc *GC) {
	for _, v := range o.members {
		gc.shade(v)
	}
}

func (o *DObj) freeExternal(alloc allocator) {
	o.members = nil
}
