package gaffa

import "github.com/fgenesis/gaffa/rterr"

// FuncKind selects which of the four call opcodes a FUNC value dispatches
// through, mirroring FuncInfo::FuncTypeMask from the call-protocol design.
type FuncKind uint8

const (
	// FuncLeaf callbacks read args and write results without recursing
	// into the VM and without growing the value stack.
	FuncLeaf FuncKind = iota
	// FuncHostFixed callbacks take a fixed argument count and may call
	// back into the VM (so a return frame is pushed around them).
	FuncHostFixed
	// FuncHostVariadic callbacks accept a variable tail of arguments.
	FuncHostVariadic
	// FuncBytecode callbacks are chunks of this VM's own Inst stream.
	FuncBytecode
)

// LeafFunc is the narrowest callable shape: read args, write rets in
// place, never touch the stack itself. A nonzero Code signals failure.
type LeafFunc func(args, rets []Value) rterr.Code

// HostFunc is a callback that may itself drive a VM (allocate, call back
// into bytecode, etc.), returning its own result slice rather than writing
// through caller-owned slots directly.
type HostFunc func(vm *VM, args []Value) ([]Value, rterr.Code)

// FuncInfo fully describes one callable value, whichever kind it is.
type FuncInfo struct {
	Kind     FuncKind
	NParams  int
	Variadic bool
	NRets    int
	NLocals  int // bytecode callees only: locals reserved beyond params

	// VariadicRets marks a bytecode callee whose actual return count is
	// runtime-determined rather than fixed at NRets. Such a callee writes
	// its results into the frame's varrets region, past its locals, and
	// returns through opReturnVar rather than opReturn so the results get
	// compacted down into the reserved return-slot run before the caller's
	// frame is restored.
	VariadicRets bool

	Leaf LeafFunc
	Host HostFunc

	Chunk   []Inst
	EntryPC int
}

// GFunc is the heap object backing a KindFunc Value: just a GC header
// wrapping an immutable FuncInfo. Functions never reference other heap
// objects in this runtime (no closures), so scanChildren is a no-op.
type GFunc struct {
	h    gcHeader
	Info *FuncInfo
}

func (f *GFunc) header() *gcHeader    { return &f.h }
func (f *GFunc) scanChildren(gc *GC)  {}
func (f *GFunc) freeExternal(a allocator) {}

func newGFunc(gc *GC, info *FuncInfo) *GFunc {
	f := &GFunc{Info: info}
	newObject(gc, f, KindFunc, 0)
	return f
}

// FuncValue wraps info as a callable Value, pinning the underlying GFunc
// so host-registered functions (typically reachable only from a SymTable a
// collection cycle might not have scanned yet at registration time) are
// never swept out from under a running program.
func FuncValue(gc *GC, info *FuncInfo) Value {
	f := newGFunc(gc, info)
	gc.pin(f)
	return objectValue(KindFunc, f)
}
