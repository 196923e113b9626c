package gaffa

// DArray is the dynamically typed, GC-managed append/index/remove array.
// Its element type is data, not a Go type parameter: a DArray created with
// elemKind==KindAny stores full Value records; one created with a
// primitive elemKind packs elements densely. Both paths are
// observationally equivalent through Get/Set/Append/RemoveAtAndMoveLast.
type DArray struct {
	h    gcHeader
	gc   *GC
	kind Kind // element Kind: KindAny, or a primitive Kind for packed storage

	packed podArray // used when kind != KindAny
	values []Value  // used when kind == KindAny
}

func (d *DArray) header() *gcHeader { return &d.h }

func newDArray(gc *GC, elemKind Kind) *DArray {
	d := &DArray{gc: gc, kind: elemKind}
	if elemKind != KindAny {
		d.packed = newPodArray(packedElemSize(elemKind))
	}
	newObject(gc, d, KindArray, 0) // size grows with the array; tracked via GCStats, not h.size
	return d
}

func packedElemSize(k Kind) int {
	switch k {
	case KindString, KindType:
		return 4
	default:
		return 8
	}
}

func (d *DArray) Len() int {
	if d.kind == KindAny {
		return len(d.values)
	}
	return d.packed.len()
}

func (d *DArray) Get(i int) Value {
	if d.kind == KindAny {
		return d.values[i]
	}
	return decodePacked(d.kind, d.packed.at(i))
}

// Set replaces index i with v and returns the previous value.
func (d *DArray) Set(i int, v Value) Value {
	prev := d.Get(i)
	if d.kind == KindAny {
		d.values[i] = v
	} else {
		encodePacked(d.kind, d.packed.at(i), v)
	}
	d.gc.writeBarrier(&d.h, v)
	return prev
}

// Append grows the array by one (growAppend for the ANY path, the podArray
// growth discipline for the packed path; both follow the same 1.5x growth
// rule of growCap).
func (d *DArray) Append(v Value) {
	if d.kind == KindAny {
		d.values = growAppend(d.values, v)
	} else {
		slot := d.packed.appendSlot()
		encodePacked(d.kind, slot, v)
	}
	d.gc.writeBarrier(&d.h, v)
}

// growAppend applies this codebase's 1.5x growth formula to a Value
// slice, instead of relying on Go's append (whose growth factor is an
// implementation detail we don't want this component's behavior to depend
// on).
func growAppend(s []Value, v Value) []Value {
	if len(s) == cap(s) {
		newCap := growCap(cap(s))
		grown := make([]Value, len(s), newCap)
		copy(grown, s)
		s = grown
	}
	return append(s, v)
}

// RemoveAtAndMoveLast is the O(1) swap-remove: the last element takes i's
// place, and the array shrinks by one.
func (d *DArray) RemoveAtAndMoveLast(i int) Value {
	n := d.Len()
	removed := d.Get(i)
	last := n - 1
	if i != last {
		d.Set(i, d.Get(last))
	}
	if d.kind == KindAny {
		d.values = d.values[:last]
	} else {
		d.packed.setLen(last)
	}
	return removed
}

func (d *DArray) PopLast() Value {
	return d.RemoveAtAndMoveLast(d.Len() - 1)
}

func (d *DArray) scanChildren(gc *GC) {
	switch {
	case d.kind == KindAny:
		for _, v := range d.values {
			gc.shade(v)
		}
	case d.kind == KindString:
		for i := 0; i < d.packed.len(); i++ {
			gc.shade(decodePacked(KindString, d.packed.at(i)))
		}
	default:
		// other primitive element kinds carry no GC-tracked references
	}
}

func (d *DArray) freeExternal(alloc allocator) {
	d.packed = podArray{}
	d.values = nil
}

func decodePacked(kind Kind, raw []byte) Value {
	switch kind {
	case KindBool:
		return BoolValue(decodeU64(raw) != 0)
	case KindSInt:
		return SIntValue(int64(decodeU64(raw)))
	case KindUInt:
		return UIntValue(decodeU64(raw))
	case KindFloat:
		return Value{Kind: KindFloat, bits: decodeU64(raw)}
	case KindString:
		return StringValue(StringRef(decodeU32(raw)))
	case KindType:
		return TypeValue(TypeRef(decodeU32(raw)))
	default:
		panic("gaffa: unsupported packed element kind " + kind.String())
	}
}

func encodePacked(kind Kind, raw []byte, v Value) {
	switch kind {
	case KindBool, KindSInt, KindUInt, KindFloat:
		encodeU64(raw, v.bits)
	case KindString:
		encodeU32(raw, uint32(v.AsStringRef()))
	case KindType:
		encodeU32(raw, uint32(v.AsTypeRef()))
	default:
		panic("gaffa: unsupported packed element kind " + kind.String())
	}
}

func decodeU64(b []byte) uint64 {
	var u uint64
	for i := 0; i < 8; i++ {
		u |= uint64(b[i]) << (8 * i)
	}
	return u
}

func encodeU64(b []byte, u uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
}

func decodeU32(b []byte) uint32 {
	var u uint32
	for i := 0; i < 4; i++ {
		u |= uint32(b[i]) << (8 * i)
	}
	return u
}

func encodeU32(b []byte, u uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(u >> (8 * i))
	}
}
