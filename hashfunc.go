package gaffa

// Hash is the probe key used by both the StringPool's key table and the
// Table's key array. The exact bit pattern is part of the observable probe
// order exercised by the round-trip and no-broken-chain tests, so it is
// hand-rolled to a fixed recurrence rather than swapped for a stdlib/FNV/
// CRC hash: any different function would still satisfy the invariants, but
// would not reproduce the same probe sequences those tests are defined
// against.
type Hash uint64

const hashSeed Hash = 0

func rotl(h Hash, n uint) Hash {
	const bits = 64
	n &= bits - 1
	if n == 0 {
		return h
	}
	return (h << n) | (h >> (bits - n))
}

// memHash folds a byte slice into a running hash; the length is mixed in
// implicitly by the caller rotating the seed, matching keyhash's contract
// of mixing byte length into the seed before hashing content.
func memHash(h Hash, buf []byte) Hash {
	for _, c := range buf {
		h = (h << 5) + (h >> 2) + Hash(c)
	}
	return h
}

// keyHash is the StringPool/Table entry point: it mixes the byte length
// into the seed and rotates by it before folding content, so that blocks of
// different length sharing a content prefix still diverge early.
func keyHash(bytes []byte) Hash {
	h := rotl(hashSeed^Hash(len(bytes)), uint(len(bytes)))
	return memHash(h, bytes)
}

// valueHash folds a primitive Value for use as a Table key when the key
// itself is not a string (e.g. SInt/UInt/Float/Bool/Type keys): the type
// tag is rotated in by its own bit pattern and the raw payload is added.
func valueHash(v Value) Hash {
	h := hashSeed
	h ^= rotl(0x811c9dc5, uint(v.Kind))
	h += Hash(v.bits)
	return h
}
