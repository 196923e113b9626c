package gaffa

// SymTable is a namespaced symbol table: an outer Table keyed by the
// namespace Value (typically a TYPE value) whose values are inner
// sub-tables, each encoding (name_ref, arg_type_id) pairs so a name can
// carry multiple FUNC overloads distinguished by argument-list type.
//
// Grounded on original_source/src/symtable.{h,cpp} and symstore.{h,cpp}.
type SymTable struct {
	h   gcHeader
	gc  *GC
	sp  *StringPool
	outer *Table // namespace Value -> *Table (inner sub-table)
}

func (s *SymTable) header() *gcHeader { return &s.h }

func newSymTable(gc *GC, sp *StringPool) *SymTable {
	st := &SymTable{gc: gc, sp: sp}
	st.outer = newTable(gc, sp, KindTable)
	newObject(gc, st, KindTable, 0)
	return st
}

func (s *SymTable) scanChildren(gc *GC) {
	gc.makeGrey(&s.outer.h)
}

func (s *SymTable) freeExternal(alloc allocator) {}

// symKey packs (name_ref, arg_type_id) into a single SInt Value so it can
// be used as an inner-sub-table Table key without a third key Kind: the
// low 32 bits are the StringRef, the high 32 the TypeRef argument-list id.
// A plain identifier lookup (not a function registration) uses argType 0.
func symKey(name StringRef, argType TypeRef) Value {
	packed := uint64(name) | (uint64(argType) << 32)
	return SIntValue(int64(packed))
}

func (s *SymTable) innerFor(namespace Value, create bool) *Table {
	if existing, ok := s.outer.Get(namespace); ok {
		return existing.AsObject().(*Table)
	}
	if !create {
		return nil
	}
	inner := newTable(s.gc, s.sp, KindAny)
	s.outer.Set(namespace, objectValue(KindTable, inner))
	return inner
}

// AddToNamespace installs value under name within namespace, as a plain
// identifier (argType 0).
func (s *SymTable) AddToNamespace(namespace Value, name StringRef, value Value) {
	inner := s.innerFor(namespace, true)
	inner.Set(symKey(name, 0), value)
}

// LookupInNamespace looks up a plain identifier; ok is false if namespace
// or name is unregistered.
func (s *SymTable) LookupInNamespace(namespace Value, name StringRef) (Value, bool) {
	inner := s.innerFor(namespace, false)
	if inner == nil {
		return Nil, false
	}
	return inner.Get(symKey(name, 0))
}

// AddOverload registers a FUNC value under (name, argType) within
// namespace, distinct from the plain identifier entry at argType 0.
func (s *SymTable) AddOverload(namespace Value, name StringRef, argType TypeRef, fn Value) {
	inner := s.innerFor(namespace, true)
	inner.Set(symKey(name, argType), fn)
}

// LookupOverload tries (name, argType) first, falling back to the plain
// (name, 0) entry.
func (s *SymTable) LookupOverload(namespace Value, name StringRef, argType TypeRef) (Value, bool) {
	inner := s.innerFor(namespace, false)
	if inner == nil {
		return Nil, false
	}
	if v, ok := inner.Get(symKey(name, argType)); ok {
		return v, true
	}
	if argType != 0 {
		if v, ok := inner.Get(symKey(name, 0)); ok {
			return v, true
		}
	}
	return Nil, false
}
