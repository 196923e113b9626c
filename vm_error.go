package gaffa

// This file documents where two call-stack-rewinding helper opcode
// concepts, conventionally named rer and onerror, land in this VM's
// loop-based dispatch.
//
// rer is the opcode a tail-call-compiled dispatch uses to bound native
// call-stack depth across a backward jump: resuming "through rer"
// unwinds any nested opcode tail chain first. This VM's dispatch loop
// ((*VM).Run) never nests opcode calls in the first place; every opcode
// always returns straight to the loop, so there is no chain depth to
// bound. opIterAdvanceTop (vm_iter.go) is the opcode that performs a
// loop's backward jump, and it does so as a plain jump target return (as
// do opJump and opJumpIfFalse for any target); it IS this VM's rer, just
// without needing the name to carry any unwinding behavior.
//
// onerror is conventionally the opcode a failing instruction chains to,
// whose job is to yield to the run loop's handler search. Here,
// (*VM).raise already leaves the run loop as the very next step (every
// opcode return passes through Run's Err check before anything else runs),
// so onerror's job is just what Run already does after any opcode sets
// vm.Err. See (*VM).tryUnwind.

// opInstallHandler pushes a handler frame resuming at handlerPC within the
// current chunk, with the synthesised ERROR value landing at sbase+slot.
// A try-like construct's compiled form emits this before its guarded body
// and a matching opPopHandler after it completes without error.
func opInstallHandler(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	slot, handlerPC := inst.immPair()
	vm.PushHandler(vm.slot(int(slot)), vm.Chunk, int(handlerPC))
	return vm.PC + 1
}

// opPopHandler removes the nearest handler frame without running it,
// leaving the rest of the call stack untouched; used when a guarded body
// completes normally.
func opPopHandler(vm *VM) int {
	for i := len(vm.CallStack) - 1; i >= 0; i-- {
		if vm.CallStack[i].isHandler() {
			vm.CallStack = append(vm.CallStack[:i], vm.CallStack[i+1:]...)
			break
		}
	}
	return vm.PC + 1
}
