package gaffa

import (
	"unsafe"

	"github.com/fgenesis/gaffa/internal/rtlog"
	"github.com/fgenesis/gaffa/rterr"
)

// minStack is the headroom stack_ensure always keeps reserved beyond the
// slots a caller just asked for.
const minStack = 16

// CallFrame is one entry of the VM's call stack. It records what the
// *caller* needs back on return: where its frame began, its live stack
// pointer at the moment of call, and where to resume. A handler frame
// (pushed by a try-like construct, never by an actual call) is tagged by
// SP == nil, the "sp == null" handler-frame marker; its PC is
// the handler's entry point rather than a return address.
type CallFrame struct {
	SBase *Value
	SP    *Value
	Chunk []Inst
	PC    int
}

func (f *CallFrame) isHandler() bool { return f.SP == nil }

// VM is one thread of execution over a Runtime's shared heap. Its value
// stack is a manually managed slice rather than something grown through
// Go's own append, because stack_ensure must be able to compute an exact
// pointer delta and patch every live frame's SBase/SP by it; using
// append would hide exactly the growth event this logic needs to observe.
type VM struct {
	RT *Runtime

	Stack     []Value
	stackBase *Value // == &Stack[0]; recomputed whenever Stack is reallocated

	SBase *Value // current frame's base
	SP    *Value // current frame's live top-of-stack pointer
	Chunk []Inst
	PC    int

	CallStack []CallFrame
	IterStack []vmIter

	Err    rterr.Code
	logger rtlog.Logger
}

// NewVM creates a VM over rt with an initial stack sized by rt's
// RuntimeConfig.InitialStackLen (minStack*4 slots by default) and no active
// chunk; callers install a chunk by setting Chunk and PC before running.
func NewVM(rt *Runtime) *VM {
	vm := &VM{RT: rt, logger: rt.logger}
	initialLen := rt.initialStackLen
	if initialLen < minStack {
		initialLen = minStack * 4
	}
	vm.Stack = make([]Value, initialLen)
	vm.stackBase = &vm.Stack[0]
	vm.SBase = vm.stackBase
	vm.SP = vm.stackBase
	rt.GC.registerVM(vm)
	return vm
}

// ptrIndex and addValuePtr implement pointer arithmetic over the Value
// stack using Go's documented-safe "convert to uintptr, do arithmetic, and
// convert back within one expression" pattern (package unsafe, Pointer
// rule 3): the delta never outlives the expression that consumes it, so
// there is no window where a bare integer address could go stale across a
// garbage collection.
func ptrIndex(base, p *Value) int {
	return int((uintptr(unsafe.Pointer(p)) - uintptr(unsafe.Pointer(base))) / unsafe.Sizeof(Value{}))
}

func addValuePtr(p *Value, delta uintptr) *Value {
	if p == nil {
		return nil
	}
	return (*Value)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) + delta))
}

// addValuePtrElems offsets p by n whole Value slots.
func addValuePtrElems(p *Value, n int) *Value {
	return addValuePtr(p, uintptr(n)*unsafe.Sizeof(Value{}))
}

// stackEnsure is this runtime's stack_ensure: if fewer than
// slots+minStack elements remain ahead of sp, the stack is reallocated (at
// least doubled, then grown further via growCap until it fits), the new region is zero-valued by make's own
// zeroing, and every sbase/sp pointer presently held (in every call frame
// plus the VM's own current frame) is patched by the same delta. Returns
// the relocated sp and the delta applied (0 if no reallocation happened),
// matching the source's (new_sp, diff) pair.
func (vm *VM) stackEnsure(sp *Value, slots int) (*Value, uintptr) {
	used := ptrIndex(vm.stackBase, sp)
	need := used + slots + minStack
	if need <= len(vm.Stack) {
		return sp, 0
	}
	newCap := 2 * len(vm.Stack)
	for newCap < need {
		newCap = growCap(newCap)
	}
	oldBase := vm.stackBase
	grown := make([]Value, newCap)
	copy(grown, vm.Stack)
	vm.Stack = grown
	newBase := &vm.Stack[0]

	delta := uintptr(unsafe.Pointer(newBase)) - uintptr(unsafe.Pointer(oldBase))
	vm.patchFrames(delta)
	vm.stackBase = newBase
	vm.logger.Debugf("vm: stack reallocated to %d slots", newCap)
	return addValuePtr(sp, delta), delta
}

// patchFrames recomputes every live pointer into the value stack after a
// reallocation, per the "pointer stability during stack realloc" design
// note: nothing may hold a stale pointer across this call, so it is the
// only place in the VM allowed to read/write SBase/SP by raw address
// arithmetic; every opcode must re-derive its working pointers from
// vm.SBase/vm.SP afterward rather than caching its own copies across a
// call or stack_ensure.
func (vm *VM) patchFrames(delta uintptr) {
	for i := range vm.CallStack {
		f := &vm.CallStack[i]
		f.SBase = addValuePtr(f.SBase, delta)
		f.SP = addValuePtr(f.SP, delta)
	}
	vm.SBase = addValuePtr(vm.SBase, delta)
	vm.SP = addValuePtr(vm.SP, delta)
}

// slot returns a pointer to the i-th Value of the current frame, relative
// to SBase. Opcodes address their operands this way rather than caching
// raw pointers across anything that might call stackEnsure.
func (vm *VM) slot(i int) *Value {
	return addValuePtr(vm.SBase, uintptr(i)*unsafe.Sizeof(Value{}))
}

// Run drives the opcode dispatch loop: each opcode returns the PC to
// resume at. A negative return with Err == OK means the running chunk
// completed normally; any return with Err != OK is this opcode signalling
// failure by staying put (raise returns the current PC and Run does not
// store it) so a second Run call would re-execute the same instruction if
// this one's unwind attempt fails to find a handler.
func (vm *VM) Run() rterr.Code {
	if vm.Chunk == nil {
		return rterr.DeadVM
	}
	for {
		inst := vm.Chunk[vm.PC]
		next := inst.Op(vm)
		if vm.Err != rterr.OK {
			if vm.tryUnwind() {
				continue
			}
			return vm.Err
		}
		if next < 0 {
			return rterr.OK
		}
		vm.PC = next
	}
}

// raise records a failure and returns the current PC unchanged, so the run
// loop's unwind search runs before anything advances past the failing
// instruction.
func (vm *VM) raise(code rterr.Code) int {
	vm.Err = code
	return vm.PC
}

// tryUnwind walks CallStack from the top for the nearest handler frame
// (SP == nil). If one exists, every frame above and including it is
// popped, a synthesised ERROR value is written to the handler's sbase[0],
// and the VM resumes there with Err cleared. If none exists the VM's error
// state is left intact for the caller to observe.
func (vm *VM) tryUnwind() bool {
	for i := len(vm.CallStack) - 1; i >= 0; i-- {
		if !vm.CallStack[i].isHandler() {
			continue
		}
		h := vm.CallStack[i]
		vm.CallStack = vm.CallStack[:i]

		ref := vm.RT.Strings.PutCopy([]byte(rterr.Text(vm.Err)))
		*h.SBase = ErrorValue(ref)

		vm.SBase = h.SBase
		vm.SP = addValuePtr(h.SBase, 1)
		vm.Chunk = h.Chunk
		vm.PC = h.PC
		vm.Err = rterr.OK
		return true
	}
	return false
}

// PushHandler installs a handler frame resuming at (chunk, pc) should an
// error unwind through it, with sbase the slot the synthesised ERROR value
// will land in. This is the opcode-level primitive a try-like construct's
// compiled form calls before running its guarded body.
func (vm *VM) PushHandler(sbase *Value, chunk []Inst, pc int) {
	vm.CallStack = append(vm.CallStack, CallFrame{SBase: sbase, SP: nil, Chunk: chunk, PC: pc})
}
