package gaffa

import "github.com/fgenesis/gaffa/rterr"

// calleeInfo resolves the callee slot to a *GFunc, raising NOT_CALLABLE if
// it isn't one.
func (vm *VM) calleeInfo(ci callImm) (*FuncInfo, int) {
	v := *vm.slot(int(ci.calleeSlot))
	if v.Kind != KindFunc {
		return nil, vm.raise(rterr.NotCallable)
	}
	return v.AsObject().(*GFunc).Info, 0
}

func checkArity(info *FuncInfo, argc int) rterr.Code {
	if info.Variadic {
		if argc < info.NParams {
			return rterr.NotEnoughParams
		}
		return rterr.OK
	}
	if argc < info.NParams {
		return rterr.NotEnoughParams
	}
	if argc > info.NParams {
		return rterr.TooManyParams
	}
	return rterr.OK
}

// opCallLeaf is the narrowest call shape: args are read directly out of
// the stack, results written directly back in place, and the callback
// must not allocate or touch the stack itself; this opcode never
// calls stackEnsure and never pushes a call frame.
func opCallLeaf(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	ci := inst.callImm()
	info, errPC := vm.calleeInfo(ci)
	if info == nil {
		return errPC
	}
	if code := checkArity(info, int(ci.argc)); code != rterr.OK {
		return vm.raise(code)
	}
	argBase := int(ci.argBase)
	args := make([]Value, ci.argc)
	for i := range args {
		args[i] = *vm.slot(argBase + i)
	}
	rets := make([]Value, info.NRets)
	if code := info.Leaf(args, rets); code != rterr.OK {
		return vm.raise(code)
	}
	for i, r := range rets {
		*vm.slot(argBase + i) = r
	}
	return vm.PC + 1
}

// opCallHost handles both the fixed-arity and variadic C-call opcodes:
// both may grow the stack (the host callback can call back into the VM),
// so a return frame brackets the call even though nothing but this
// function's own locals is ever resumed through it.
func opCallHost(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	ci := inst.callImm()
	info, errPC := vm.calleeInfo(ci)
	if info == nil {
		return errPC
	}
	if code := checkArity(info, int(ci.argc)); code != rterr.OK {
		return vm.raise(code)
	}
	argBase := int(ci.argBase)
	args := make([]Value, ci.argc)
	for i := range args {
		args[i] = *vm.slot(argBase + i)
	}

	vm.CallStack = append(vm.CallStack, CallFrame{SBase: vm.SBase, SP: vm.SP, Chunk: vm.Chunk, PC: vm.PC + 1})
	rets, code := info.Host(vm, args)
	vm.CallStack = vm.CallStack[:len(vm.CallStack)-1]

	if code != rterr.OK {
		return vm.raise(code)
	}
	for i, r := range rets {
		*vm.slot(argBase + i) = r
	}
	return vm.PC + 1
}

// doCallBytecode reserves a new frame at argBase (the callee's future
// sbase) inside the caller's own region, so the callee's return slots
// ARE the caller's reserved return slots and opReturn needs no memmove
// for the fixed-return-count case this VM implements. It pushes a return
// frame, and jumps to the callee's entry point. Shared by opCallBytecode
// (callee resolved dynamically off a stack slot) and the direct-call
// instructions a compiler emits for a statically known callee.
func (vm *VM) doCallBytecode(info *FuncInfo, argBase, argc int, resumePC int) int {
	if code := checkArity(info, argc); code != rterr.OK {
		return vm.raise(code)
	}

	newSBase := vm.slot(argBase)
	reserve := info.NRets + info.NParams + info.NLocals + minStack
	newSBase, _ = vm.stackEnsure(newSBase, reserve)

	vm.CallStack = append(vm.CallStack, CallFrame{SBase: vm.SBase, SP: vm.SP, Chunk: vm.Chunk, PC: resumePC})
	vm.SBase = newSBase
	vm.SP = addValuePtrElems(newSBase, reserve)
	vm.Chunk = info.Chunk
	vm.PC = info.EntryPC
	return vm.PC
}

// opCallBytecode is the dynamic-callee bytecode call: the callee FuncInfo
// is read off a stack slot at run time (used when opCallAny resolves a
// Value target to a bytecode function, rather than a compiler having
// resolved the call statically).
func opCallBytecode(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	ci := inst.callImm()
	info, errPC := vm.calleeInfo(ci)
	if info == nil {
		return errPC
	}
	return vm.doCallBytecode(info, int(ci.argBase), int(ci.argc), vm.PC+1)
}

// callDirect builds an instruction for a statically resolved bytecode
// call: the callee is known at chunk-assembly time (a direct call, not a
// dispatch over a runtime Value), so it is captured in the opcode's
// closure instead of being read from a stack slot, the same way a
// compiler would emit the callee as part of the instruction's own encoding
// rather than an operand.
func callDirect(argBase, argc int, info *FuncInfo) Inst {
	return Inst{Op: func(vm *VM) int {
		return vm.doCallBytecode(info, argBase, argc, vm.PC+1)
	}}
}

// opReturn restores the caller's frame. The outermost frame (CallStack
// empty) halts the VM successfully instead.
func opReturn(vm *VM) int {
	if len(vm.CallStack) == 0 {
		return -1
	}
	popped := vm.CallStack[len(vm.CallStack)-1]
	vm.CallStack = vm.CallStack[:len(vm.CallStack)-1]
	vm.SBase = popped.SBase
	vm.SP = popped.SP
	vm.Chunk = popped.Chunk
	vm.PC = popped.PC
	return vm.PC
}

// opReturnVar is the variadic-return counterpart to opReturn, for a callee
// whose result count isn't known until it actually returns (FuncInfo.
// VariadicRets). The frame layout puts such a callee's varrets past its
// locals rather than at a fixed offset, so this opcode first memmoves
// Imm[1] values down from Imm[0] (the varrets base slot, relative to SBase)
// into sbase[0:Imm[1]), forming the contiguous result run a fixed-return
// caller already gets for free, then falls through to the same frame-pop
// opReturn performs.
func opReturnVar(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	varRetBase := int(inst.Imm[0])
	count := int(inst.Imm[1])
	for i := 0; i < count; i++ {
		*vm.slot(i) = *vm.slot(varRetBase + i)
	}
	return opReturn(vm)
}

// opCallAny is the dynamic-dispatch call opcode: it inspects the callee
// Value's FuncInfo.Kind and forwards to the specialised opcode for that
// kind.
func opCallAny(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	ci := inst.callImm()
	v := *vm.slot(int(ci.calleeSlot))
	if v.Kind != KindFunc {
		return vm.raise(rterr.NotCallable)
	}
	switch v.AsObject().(*GFunc).Info.Kind {
	case FuncLeaf:
		return opCallLeaf(vm)
	case FuncHostFixed, FuncHostVariadic:
		return opCallHost(vm)
	case FuncBytecode:
		return opCallBytecode(vm)
	default:
		return vm.raise(rterr.NotCallable)
	}
}
