package gaffa

// StringPool interns byte blocks, returning a stable integer StringRef.
// Refs 0 and 1 are reserved sentinels (null, empty). Short blocks (payload
// under 15 bytes) are stored inline in their hblock entry; long blocks
// keep their bytes in a separate Go-allocated slice and cache their hash.
// The bound allocator is not called for long blocks.
//
// Grounded on original_source/src/dedupset.{h,cpp}: put_copy/put_take_ownership,
// get, mark, sweep_step/sweep_finish map directly onto PutCopy/PutTakeOwnership,
// Get, mark, sweepStep/sweepFinish below.
type StringPool struct {
	gc  *GC
	alc allocator

	blocks []hblock // index == StringRef
	keys   []hkey   // open-addressed hash -> block index, capacity is a power of two
	mask   uint32

	sweepCursor int
	live        int
}

const maxShortLen = 14

type hblock struct {
	hash     Hash
	isLong   bool
	marked   bool
	shortLen uint8
	short    [maxShortLen]byte
	long     []byte
}

func (b *hblock) bytes() []byte {
	if b.isLong {
		return b.long
	}
	return b.short[:b.shortLen]
}

// hkey is one open-addressing slot. ref==0 marks an empty slot (ref is
// never legitimately 0, since ref 0 is the reserved null sentinel and is
// never looked up through the hash table); ref is the StringRef index into
// blocks.
type hkey struct {
	hash Hash
	ref  StringRef
}

// newStringPool builds a StringPool with a key table sized to initialCap,
// rounded up to the next power of two (the open-addressing probe relies on
// a power-of-two mask); a non-positive initialCap falls back to 64.
func newStringPool(gc *GC, alc allocator, initialCap int) *StringPool {
	sp := &StringPool{gc: gc, alc: alc}
	sp.blocks = append(sp.blocks, hblock{}) // ref 0: null sentinel
	sp.blocks = append(sp.blocks, hblock{}) // ref 1: empty sentinel
	if initialCap <= 0 {
		initialCap = 64
	}
	sp.resizeKeys(nextPow2(initialCap))
	gc.bindStrings(sp)
	return sp
}

// nextPow2 rounds n up to the next power of two, minimum 1.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (sp *StringPool) resizeKeys(newCap int) {
	old := sp.keys
	sp.keys = make([]hkey, newCap)
	sp.mask = uint32(newCap - 1)
	for _, k := range old {
		if k.ref == 0 {
			continue
		}
		sp.insertKeyAt(k.hash, k.ref)
	}
}

func (sp *StringPool) insertKeyAt(h Hash, ref StringRef) {
	idx := uint32(h) & sp.mask
	for sp.keys[idx].ref != 0 {
		idx = (idx + 1) & sp.mask
	}
	sp.keys[idx] = hkey{hash: h, ref: ref}
}

func (sp *StringPool) maybeGrow() {
	if float64(sp.live+1) >= 0.8*float64(len(sp.keys)) {
		sp.resizeKeys(len(sp.keys) * 2)
	}
}

// probe returns the slot index and whether bytes were found already
// interned at that slot.
func (sp *StringPool) probe(h Hash, bytes []byte) (uint32, bool) {
	idx := uint32(h) & sp.mask
	for {
		k := sp.keys[idx]
		if k.ref == 0 {
			return idx, false
		}
		if k.hash == h {
			b := &sp.blocks[k.ref]
			if b.compareEqual(bytes) {
				return idx, true
			}
		}
		idx = (idx + 1) & sp.mask
	}
}

func (b *hblock) compareEqual(bytes []byte) bool {
	existing := b.bytes()
	if len(existing) != len(bytes) {
		return false
	}
	for i := range existing {
		if existing[i] != bytes[i] {
			return false
		}
	}
	return true
}

// PutCopy interns a copy of bytes, returning the existing ref on a hit or
// allocating a new block on a miss.
func (sp *StringPool) PutCopy(bytes []byte) StringRef {
	if len(bytes) == 0 {
		return StringRefEmpty
	}
	h := keyHash(bytes)
	idx, found := sp.probe(h, bytes)
	if found {
		return sp.keys[idx].ref
	}
	var b hblock
	b.hash = h
	if len(bytes) <= maxShortLen {
		b.shortLen = uint8(len(bytes))
		copy(b.short[:], bytes)
	} else {
		b.isLong = true
		b.long = make([]byte, len(bytes))
		copy(b.long, bytes)
	}
	ref := sp.appendBlock(b)
	sp.keys[idx] = hkey{hash: h, ref: ref}
	sp.live++
	sp.maybeGrow()
	return ref
}

// PutTakeOwnership is like PutCopy, but on a miss it stores the provided
// slice without copying; on a hit, the caller's slice is simply dropped
// (Go's GC reclaims it; there's no explicit free to issue, unlike the
// C++ original's putTakeOver, since bytes here was never allocator-owned).
func (sp *StringPool) PutTakeOwnership(bytes []byte) StringRef {
	if len(bytes) == 0 {
		return StringRefEmpty
	}
	h := keyHash(bytes)
	idx, found := sp.probe(h, bytes)
	if found {
		return sp.keys[idx].ref
	}
	var b hblock
	b.hash = h
	if len(bytes) <= maxShortLen {
		b.shortLen = uint8(len(bytes))
		copy(b.short[:], bytes)
	} else {
		b.isLong = true
		b.long = bytes
	}
	ref := sp.appendBlock(b)
	sp.keys[idx] = hkey{hash: h, ref: ref}
	sp.live++
	sp.maybeGrow()
	return ref
}

func (sp *StringPool) appendBlock(b hblock) StringRef {
	sp.blocks = append(sp.blocks, b)
	return StringRef(len(sp.blocks) - 1)
}

// Get returns the bytes for ref in O(1). Refs 0 and 1 return an empty
// slice; dereferencing an invalid ref past that is undefined and callers
// must not rely on a non-empty result for those two refs.
func (sp *StringPool) Get(ref StringRef) []byte {
	if int(ref) >= len(sp.blocks) {
		return nil
	}
	return sp.blocks[ref].bytes()
}

// mark sets the MARK bit on ref's entry, called by the collector (via
// GC.shade) when a reachable Value references this string.
func (sp *StringPool) mark(ref StringRef) {
	if int(ref) >= len(sp.blocks) {
		return
	}
	sp.blocks[ref].marked = true
}

// sweepStep advances the sweep cursor by up to steps work units, dropping
// any entry without MARK (freeing external memory for long strings, which
// costs one step each). Returns true once the cursor has reached the end
// of blocks, signalling the caller to call sweepFinish.
func (sp *StringPool) sweepStep(steps int) bool {
	spent := 0
	for spent < steps && sp.sweepCursor < len(sp.blocks) {
		i := sp.sweepCursor
		sp.sweepCursor++
		if i < 2 {
			continue // sentinels are never swept
		}
		b := &sp.blocks[i]
		if b.marked {
			b.marked = false
			continue
		}
		if b.hash == 0 && !b.isLong && b.shortLen == 0 {
			continue // slot was never populated or was already freed
		}
		sp.dropEntry(i)
		if b.isLong {
			spent++
		}
		spent++
	}
	return sp.sweepCursor >= len(sp.blocks)
}

func (sp *StringPool) dropEntry(i int) {
	b := &sp.blocks[i]
	h := b.hash
	*b = hblock{}
	sp.live--
	sp.removeKey(h, StringRef(i))
}

func (sp *StringPool) removeKey(h Hash, ref StringRef) {
	idx := uint32(h) & sp.mask
	for {
		k := sp.keys[idx]
		if k.ref == 0 {
			return
		}
		if k.ref == ref {
			sp.keys[idx] = hkey{}
			// Re-insert the probe chain following idx so removing this
			// slot doesn't break lookups for entries that hashed here
			// but landed further down the chain.
			sp.rehashChainFrom((idx + 1) & sp.mask)
			return
		}
		idx = (idx + 1) & sp.mask
	}
}

func (sp *StringPool) rehashChainFrom(idx uint32) {
	for sp.keys[idx].ref != 0 {
		k := sp.keys[idx]
		sp.keys[idx] = hkey{}
		sp.insertKeyAt(k.hash, k.ref)
		idx = (idx + 1) & sp.mask
	}
}

// sweepFinish resets the sweep cursor and, if the key table is larger than
// 64 slots and live count has fallen under 25% of its capacity, shrinks the
// key array to half and rehashes survivors.
func (sp *StringPool) sweepFinish() {
	sp.sweepCursor = 0
	if len(sp.keys) > 64 && float64(sp.live) < 0.25*float64(len(sp.keys)) {
		sp.resizeKeys(len(sp.keys) / 2)
	}
}

func (sp *StringPool) liveCount() int { return sp.live }
