package gaffa

import "sort"

// TDesc is an interned, structural description of a compound type: either
// a struct-like record (ordered members) or a function record (param-list
// type ref, return-list type ref). Two structurally equal descriptors
// always intern to the same TypeRef.
type TDesc struct {
	Kind TDescKind

	// struct-like
	Members []TMember

	// function-like
	ParamListType TypeRef
	RetListType   TypeRef

	hash Hash
}

type TDescKind uint8

const (
	TDescPrimitive TDescKind = iota
	TDescStruct
	TDescFunc
)

// TMember is one (name, type, optional default) entry of a struct-like
// TDesc, canonicalized (stable-sorted by type id) before interning so
// structural equality doesn't depend on the declaration order of members
// with distinct types; members sharing a type keep their declared order.
type TMember struct {
	Name     StringRef
	Type     TypeRef
	HasDef   bool
	Default  Value
}

// TypeRegistry interns TDesc values by structural equality, assigning
// permanent 30-bit ids. Primitive Kinds occupy the first 16 ids (KindPoison
// through KindOpaque, id == Kind); every compound type is appended and never removed (types, unlike
// strings, live for the lifetime of the Runtime and are never swept).
type TypeRegistry struct {
	descs []TDesc // index == TypeRef
	index map[Hash][]TypeRef
}

func newTypeRegistry() *TypeRegistry {
	tr := &TypeRegistry{index: make(map[Hash][]TypeRef)}
	for k := KindPoison; k <= KindOpaque; k++ {
		tr.descs = append(tr.descs, TDesc{Kind: TDescPrimitive, hash: Hash(k)})
	}
	return tr
}

// PrimitiveTypeRef returns the permanent TypeRef assigned to a primitive
// Kind at construction time.
func PrimitiveTypeRef(k Kind) TypeRef { return TypeRef(k) }

func (tr *TypeRegistry) Get(ref TypeRef) *TDesc {
	if int(ref) >= len(tr.descs) {
		return nil
	}
	return &tr.descs[ref]
}

// MkStruct canonicalizes members (stable-sorted by Type id) and interns the
// resulting descriptor, returning the same TypeRef for structurally equal
// input regardless of the order of members with distinct types. Members
// that share a type are not reordered, so swapping two of them yields a
// different TypeRef.
func (tr *TypeRegistry) MkStruct(members []TMember) TypeRef {
	canon := make([]TMember, len(members))
	copy(canon, members)
	sort.SliceStable(canon, func(i, j int) bool { return canon[i].Type < canon[j].Type })

	h := structHash(canon)
	if existing, ok := tr.findStruct(h, canon); ok {
		return existing
	}
	ref := TypeRef(len(tr.descs))
	tr.descs = append(tr.descs, TDesc{Kind: TDescStruct, Members: canon, hash: h})
	tr.index[h] = append(tr.index[h], ref)
	return ref
}

func (tr *TypeRegistry) findStruct(h Hash, canon []TMember) (TypeRef, bool) {
	for _, ref := range tr.index[h] {
		d := &tr.descs[ref]
		if d.Kind != TDescStruct || len(d.Members) != len(canon) {
			continue
		}
		if membersEqual(d.Members, canon) {
			return ref, true
		}
	}
	return 0, false
}

func membersEqual(a, b []TMember) bool {
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type != b[i].Type || a[i].HasDef != b[i].HasDef {
			return false
		}
		if a[i].HasDef && !Equal(a[i].Default, b[i].Default) {
			return false
		}
	}
	return true
}

// memberIndex maps a struct TDesc's member name to its slot index in
// Members, the compile-time-known path original_source/src/table.h reserves
// for known member access (as opposed to a dynamic hashmap lookup for
// fields added at runtime). Nothing in this scope populates or calls this
// from DObj.Member yet; a future compiler that resolves a member access
// statically would use it instead of DObj's name-based stub.
func (d *TDesc) memberIndex(name StringRef) (int, bool) {
	for i, m := range d.Members {
		if m.Name == name {
			return i, true
		}
	}
	return 0, false
}

func structHash(members []TMember) Hash {
	h := hashSeed
	for _, m := range members {
		h = rotl(h, 7) ^ Hash(m.Name) ^ rotl(Hash(m.Type), 13)
	}
	return h
}

// MkSub builds a composite type from a head type and a list of sub-type
// ids, used to assemble e.g. Func(ParamList, RetList) out of the param
// and return TDescs already produced by MkStruct.
func (tr *TypeRegistry) MkSub(head TDescKind, sub []TypeRef) TypeRef {
	if head != TDescFunc || len(sub) != 2 {
		panic("gaffa: MkSub currently only builds Func(params, rets) composites")
	}
	h := hashSeed ^ rotl(Hash(sub[0]), 5) ^ rotl(Hash(sub[1]), 19) ^ 0xF0

	for _, ref := range tr.index[h] {
		d := &tr.descs[ref]
		if d.Kind == TDescFunc && d.ParamListType == sub[0] && d.RetListType == sub[1] {
			return ref
		}
	}
	ref := TypeRef(len(tr.descs))
	tr.descs = append(tr.descs, TDesc{Kind: TDescFunc, ParamListType: sub[0], RetListType: sub[1], hash: h})
	tr.index[h] = append(tr.index[h], ref)
	return ref
}
