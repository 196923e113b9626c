package gaffa

// gcFlag bits live in the top half of a header's typeAndFlags word.
type gcFlag uint32

const (
	gcBlack gcFlag = 1 << iota
	gcGrey
	gcPinned
	gcFinalizer
	gcAllocated
)

// gcHeader is the bookkeeping every heap object carries: a hidden
// intrusive "next_in_list" pointer followed by a public
// "{type_and_flags:u32, size:u32}" header. next is the hidden, intrusive
// next-in-list pointer; typeAndFlags packs the Kind in the low 16 bits and
// the gcFlag bits in the high 16; size is the public byte size used for GC
// accounting.
//
// owner closes a gap C doesn't have: from a bare *gcHeader, C code can cast
// back to the containing struct because it knows the (fixed) offset; Go
// can't recover a containing struct from a pointer to one of its fields
// without unsafe arithmetic keyed to a concrete type. Instead of doing that
// cast, every object stores a back-reference to itself as a gcObject
// interface value so list-walking code (mark, sweep, splice) can dispatch
// scanChildren/finalization without knowing the concrete type.
type gcHeader struct {
	next         *gcHeader
	prev         *gcHeader
	typeAndFlags uint32
	size         uint32
	owner        gcObject
}

func (h *gcHeader) kind() Kind   { return Kind(h.typeAndFlags & 0xffff) }
func (h *gcHeader) flags() gcFlag { return gcFlag(h.typeAndFlags >> 16) }

func (h *gcHeader) setFlags(f gcFlag) { h.typeAndFlags = uint32(h.kind()) | uint32(f)<<16 }

func (h *gcHeader) hasFlag(f gcFlag) bool { return h.flags()&f != 0 }

func (h *gcHeader) addFlag(f gcFlag) { h.setFlags(h.flags() | f) }

func (h *gcHeader) clearFlag(f gcFlag) { h.setFlags(h.flags() &^ f) }

func initHeader(h *gcHeader, owner gcObject, kind Kind, size uint32) {
	h.typeAndFlags = uint32(kind)
	h.size = size
	h.owner = owner
	h.addFlag(gcAllocated)
}

// gcList is an intrusive doubly-linked list of heap objects threaded
// through gcHeader.next/prev. Operations are all O(1) except length, which
// is diagnostic-only and never on a hot path. Doubly-linked (rather than
// the minimal singly-linked list a pure push/pop-front queue would need)
// specifically so pin() can splice an object straight out of
// normally_white without walking the list to find it.
type gcList struct {
	head *gcHeader
}

func (l *gcList) pushFront(h *gcHeader) {
	h.prev = nil
	h.next = l.head
	if l.head != nil {
		l.head.prev = h
	}
	l.head = h
}

// popFront removes and returns the head, or nil if empty.
func (l *gcList) popFront() *gcHeader {
	h := l.head
	if h == nil {
		return nil
	}
	l.head = h.next
	if l.head != nil {
		l.head.prev = nil
	}
	h.next = nil
	h.prev = nil
	return h
}

// remove splices h out of this list in O(1). The caller must know h is
// actually a member of this list (a stale call silently corrupts a
// different list by mistaking h's prev/next for membership in this one).
func (l *gcList) remove(h *gcHeader) {
	if h.prev != nil {
		h.prev.next = h.next
	} else {
		l.head = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	}
	h.next = nil
	h.prev = nil
}

func (l *gcList) takeAll() *gcHeader {
	h := l.head
	if h != nil {
		h.prev = nil
	}
	l.head = nil
	return h
}

func (l *gcList) isEmpty() bool { return l.head == nil }

func (l *gcList) length() int {
	n := 0
	for h := l.head; h != nil; h = h.next {
		n++
	}
	return n
}
