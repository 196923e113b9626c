package gaffa

import "unsafe"

// Table is the open-addressed K->V map: a DArray of values in insertion
// order, a parallel open-addressed key array of capacity 2^k, and a
// backrefs array mapping value index -> key slot, so iteration can recover
// each value's key without a second hash lookup.
//
// Grounded on original_source/src/table.{h,cpp} and the "Preconditioned
// hashmap" diagram in table.h: the array part (vals) is addressed
// 0..N by value index, independent from the hash part's own addressing.
type Table struct {
	h   gcHeader
	gc  *GC
	sp  *StringPool
	vt  Kind // declared value-slot Kind, informational only (values stay Value)

	keys     []tkey
	keyMask  uint32
	backrefs []uint32 // value index -> key slot
	vals     *DArray
}

func (t *Table) header() *gcHeader { return &t.h }

// tkey is one key slot. key is Nil for empty, Xnil for tombstone, anything
// else for occupied; validx is only meaningful when occupied.
type tkey struct {
	key    Value
	hash   Hash
	validx uint32
}

func isEmptyKey(v Value) bool { return IsNil(v) }
func isTombstoneKey(v Value) bool { return IsXnil(v) }
func isOccupiedKey(v Value) bool { return !isEmptyKey(v) && !isTombstoneKey(v) }

const tableInitialCap = 8

func newTable(gc *GC, sp *StringPool, vt Kind) *Table {
	t := &Table{gc: gc, sp: sp, vt: vt}
	t.keys = newEmptyKeys(tableInitialCap)
	t.keyMask = tableInitialCap - 1
	t.vals = newDArray(gc, KindAny)
	newObject(gc, t, KindTable, 0)
	return t
}

func newEmptyKeys(n int) []tkey {
	ks := make([]tkey, n)
	for i := range ks {
		ks[i].key = Nil
	}
	return ks
}

// tableKeyHash hashes a Value for use as a Table key: strings hash by
// content (so two distinct StringRefs naming the same content never
// happen, given interning, but we hash content directly rather than
// depending on that), heap values hash by object identity, everything
// else by valueHash's type+payload fold.
func tableKeyHash(sp *StringPool, v Value) Hash {
	switch {
	case v.Kind == KindString:
		return keyHash(sp.Get(v.AsStringRef()))
	case v.Kind.isHeapKind() && v.object != nil:
		return Hash(uintptr(unsafe.Pointer(v.object.header())))
	default:
		return valueHash(v)
	}
}

// find returns the key-slot index and whether an occupied slot matching k
// was found, probing linearly and skipping tombstones.
func (t *Table) find(h Hash, k Value) (uint32, bool) {
	idx := uint32(h) & t.keyMask
	for {
		slot := &t.keys[idx]
		if isEmptyKey(slot.key) {
			return idx, false
		}
		if isOccupiedKey(slot.key) && slot.hash == h && Equal(slot.key, k) {
			return idx, true
		}
		idx = (idx + 1) & t.keyMask
	}
}

// firstFreeFrom returns the first empty-or-tombstone slot reachable while
// probing for k starting at k's hash, used when inserting a brand-new key
// (distinct from find, which stops only at a genuine empty slot, since a
// tombstone mid-chain must not shadow a real match further down the
// chain).
func (t *Table) firstFreeFrom(h Hash) uint32 {
	idx := uint32(h) & t.keyMask
	for isOccupiedKey(t.keys[idx].key) {
		idx = (idx + 1) & t.keyMask
	}
	return idx
}

func (t *Table) Len() int { return t.vals.Len() }

func (t *Table) Get(k Value) (Value, bool) {
	h := tableKeyHash(t.sp, k)
	idx, ok := t.find(h, k)
	if !ok {
		return Nil, false
	}
	return t.vals.Get(int(t.keys[idx].validx)), true
}

// Set is a three-step operation: update in place on a hit; otherwise grow
// if the load factor demands it, then append to vals and write the new
// key/backref.
func (t *Table) Set(k Value, v Value) {
	h := tableKeyHash(t.sp, k)
	if idx, ok := t.find(h, k); ok {
		t.vals.Set(int(t.keys[idx].validx), v)
		return
	}
	if float64(t.occupiedCount()+1) > 0.75*float64(len(t.keys)) {
		t.growKeys()
	}
	idx := t.firstFreeFrom(h)
	newIdx := t.vals.Len()
	t.vals.Append(v)
	t.backrefs = append(t.backrefs, idx)
	t.keys[idx] = tkey{key: k, hash: h, validx: uint32(newIdx)}
	t.gc.writeBarrier(&t.h, k) // v is barriered by vals.Append itself
}

func (t *Table) occupiedCount() int {
	n := 0
	for _, k := range t.keys {
		if isOccupiedKey(k.key) {
			n++
		}
	}
	return n
}

// Remove deletes k if present, performing tombstone cleanup and a
// swap-remove of the corresponding value; returns whether k was present.
func (t *Table) Remove(k Value) bool {
	h := tableKeyHash(t.sp, k)
	idx, ok := t.find(h, k)
	if !ok {
		return false
	}
	validx := t.keys[idx].validx
	t.keys[idx] = tkey{key: Xnil}
	t.tombstoneCleanup(idx)

	lastIdx := t.vals.Len() - 1
	if int(validx) != lastIdx {
		movedKeySlot := t.backrefs[lastIdx]
		t.keys[movedKeySlot].validx = validx
		t.backrefs[validx] = movedKeySlot
	}
	t.vals.RemoveAtAndMoveLast(int(validx))
	t.backrefs = t.backrefs[:lastIdx]
	return true
}

// tombstoneCleanup scans forward from fromIdx; if the run of tombstones
// starting there is immediately followed by a genuine empty slot, the
// whole run (including fromIdx itself) is cleared back to empty, since
// nothing beyond the empty slot could ever have needed to probe through
// this run.
func (t *Table) tombstoneCleanup(fromIdx uint32) {
	j := (fromIdx + 1) & t.keyMask
	for isTombstoneKey(t.keys[j].key) {
		j = (j + 1) & t.keyMask
	}
	if !isEmptyKey(t.keys[j].key) {
		return
	}
	for idx := fromIdx; idx != j; idx = (idx + 1) & t.keyMask {
		t.keys[idx] = tkey{key: Nil}
	}
}

// growKeys doubles key capacity and rehashes occupied entries, dropping
// tombstones, keeping backrefs index-aligned with vals.
func (t *Table) growKeys() {
	newCap := len(t.keys) * 2
	newKeys := newEmptyKeys(newCap)
	newMask := uint32(newCap - 1)
	newBackrefs := make([]uint32, t.vals.Len())
	for _, old := range t.keys {
		if !isOccupiedKey(old.key) {
			continue
		}
		idx := uint32(old.hash) & newMask
		for isOccupiedKey(newKeys[idx].key) {
			idx = (idx + 1) & newMask
		}
		newKeys[idx] = old
		newBackrefs[old.validx] = idx
	}
	t.keys = newKeys
	t.keyMask = newMask
	t.backrefs = newBackrefs
}

// Iterate calls fn(key, value) for every occupied slot in insertion order
// (value index 0..N-1), recovering each key via backrefs.
func (t *Table) Iterate(fn func(k, v Value) bool) {
	for vi := 0; vi < t.vals.Len(); vi++ {
		slot := t.backrefs[vi]
		if !fn(t.keys[slot].key, t.vals.Get(vi)) {
			return
		}
	}
}

// scanChildren shades every occupied key directly (keys aren't a separate
// GC object, just a plain Go slice on this Table) and re-greys the vals
// DArray, which is its own heap object and will shade its own elements
// when the collector pops it from the grey queue.
func (t *Table) scanChildren(gc *GC) {
	for _, k := range t.keys {
		if isOccupiedKey(k.key) {
			gc.shade(k.key)
		}
	}
	gc.makeGrey(&t.vals.h)
}

func (t *Table) freeExternal(alloc allocator) {
	t.keys = nil
	t.backrefs = nil
}
