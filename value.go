package gaffa

import (
	"math"
	"unsafe"
)

// Kind is the primitive type tag of a Value. The set is closed; no other
// tags are ever synthesized at runtime.
type Kind uint16

const (
	KindPoison Kind = iota
	KindUnk
	KindType
	KindAny
	KindNil
	KindBool
	KindSInt
	KindUInt
	KindFloat
	KindString
	KindError
	KindTable
	KindArray
	KindObject
	KindFunc
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindPoison:
		return "poison"
	case KindUnk:
		return "unk"
	case KindType:
		return "type"
	case KindAny:
		return "any"
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindSInt:
		return "sint"
	case KindUInt:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindError:
		return "error"
	case KindTable:
		return "table"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFunc:
		return "func"
	case KindOpaque:
		return "opaque"
	default:
		return "invalid-kind"
	}
}

// isHeapKind reports whether a Value of this Kind carries an object
// reference (as opposed to a primitive payload or a host-owned pointer).
func (k Kind) isHeapKind() bool {
	switch k {
	case KindTable, KindArray, KindObject, KindFunc:
		return true
	default:
		return false
	}
}

// Modifier flags, orthogonal to Kind: a value can be an optional or a
// vector of its base Kind.
const (
	FlagOption uint16 = 1 << 0
	FlagVec    uint16 = 1 << 1
)

// StringRef is a stable integer reference into a StringPool. Refs 0 and 1
// are reserved sentinels (null-string, empty-string).
type StringRef uint32

const (
	StringRefNull  StringRef = 0
	StringRefEmpty StringRef = 1
)

// TypeRef is a 30-bit id assigned by a TypeRegistry, plus the same two
// modifier bits reused from Value.flags when a Type value describes an
// option/vector type.
type TypeRef uint32

// gcObject is implemented by every heap-allocated object kind (Table,
// DArray, DObj, GFunc, SymTable). Dispatch is always by Value.Kind first; this
// interface only carries the GC bookkeeping and child-scanning contract.
type gcObject interface {
	header() *gcHeader
	scanChildren(gc *GC)
}

// Value is a fixed-shape tagged record: a Kind discriminant plus modifier
// flags, and exactly one live payload selected by Kind. Go has no native
// union, so instead of reinterpreting untagged bytes we keep one field per
// payload family and dispatch exclusively on Kind, per the "never simulate
// by casting untagged pointers" rule. AsObject asserts a heap Kind before
// touching its field; the primitive accessors read bits (or ptr) without
// checking Kind, so callers check Kind first where it matters.
type Value struct {
	Kind   Kind
	flags  uint16
	bits   uint64         // bool/sint/uint/float bits, StringRef, TypeRef
	object gcObject       // heap payload for Table/Array/Object/Func
	ptr    unsafe.Pointer // host-owned payload for Opaque only
}

// xnilPayload is the tombstone marker's bits value; a real Nil has bits==0.
const xnilPayload = 1

// Nil is the canonical NIL value.
var Nil = Value{Kind: KindNil}

// Xnil is the tombstone marker, distinct from Nil, used by Table as the
// "slot was removed" key state.
var Xnil = Value{Kind: KindNil, bits: xnilPayload}

// Poison is returned by APIs that must produce a Value but have nothing
// legitimate to return (e.g. a failed allocation site before the caller has
// unwound).
var Poison = Value{Kind: KindPoison}

func IsNil(v Value) bool  { return v.Kind == KindNil && v.bits == 0 }
func IsXnil(v Value) bool { return v.Kind == KindNil && v.bits == xnilPayload }

func BoolValue(b bool) Value {
	if b {
		return Value{Kind: KindBool, bits: 1}
	}
	return Value{Kind: KindBool, bits: 0}
}

func (v Value) AsBool() bool { return v.bits != 0 }

func SIntValue(i int64) Value { return Value{Kind: KindSInt, bits: uint64(i)} }
func (v Value) AsSInt() int64 { return int64(v.bits) }

func UIntValue(u uint64) Value { return Value{Kind: KindUInt, bits: u} }
func (v Value) AsUInt() uint64 { return v.bits }

func FloatValue(f float64) Value { return Value{Kind: KindFloat, bits: math.Float64bits(f)} }
func (v Value) AsFloat() float64 { return math.Float64frombits(v.bits) }

func StringValue(r StringRef) Value { return Value{Kind: KindString, bits: uint64(r)} }
func (v Value) AsStringRef() StringRef { return StringRef(v.bits) }

// ErrorValue wraps a StringRef (the error message, interned) as an
// ERROR-tagged value, per the error-unwinding model in the VM.
func ErrorValue(r StringRef) Value { return Value{Kind: KindError, bits: uint64(r)} }
func (v Value) AsErrorStringRef() StringRef { return StringRef(v.bits) }

func TypeValue(t TypeRef) Value { return Value{Kind: KindType, bits: uint64(t)} }
func (v Value) AsTypeRef() TypeRef { return TypeRef(v.bits) }

// OpaqueValue wraps a host-owned pointer. The GC never scans or frees it;
// lifetime is the host's responsibility.
func OpaqueValue(p unsafe.Pointer) Value { return Value{Kind: KindOpaque, ptr: p} }
func (v Value) AsOpaque() unsafe.Pointer { return v.ptr }

// objectValue wraps a heap object reference with the given Kind. kind must
// be one of the heap kinds (Table/Array/Object/Func); it panics otherwise.
func objectValue(kind Kind, obj gcObject) Value {
	if !kind.isHeapKind() {
		panic("gaffa: objectValue called with non-heap kind " + kind.String())
	}
	return Value{Kind: kind, object: obj}
}

func (v Value) AsObject() gcObject {
	if !v.Kind.isHeapKind() {
		panic("gaffa: AsObject called on non-heap Value of kind " + v.Kind.String())
	}
	return v.object
}

func (v Value) WithOption(opt bool) Value {
	if opt {
		v.flags |= FlagOption
	} else {
		v.flags &^= FlagOption
	}
	return v
}

func (v Value) WithVec(vec bool) Value {
	if vec {
		v.flags |= FlagVec
	} else {
		v.flags &^= FlagVec
	}
	return v
}

func (v Value) IsOption() bool { return v.flags&FlagOption != 0 }
func (v Value) IsVec() bool    { return v.flags&FlagVec != 0 }

// Equal implements the primitive-value equality used by Table keys:
// heap-kinded values compare by identity (same object), primitives by bits.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind.isHeapKind() {
		return a.object == b.object
	}
	if a.Kind == KindOpaque {
		return a.ptr == b.ptr
	}
	return a.bits == b.bits
}
