package gaffa

import "github.com/fgenesis/gaffa/rterr"

// opHalt ends the running chunk successfully: Run sees a negative PC with
// Err == OK and returns.
func opHalt(vm *VM) int { return -1 }

func opMove(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	dst, src := inst.immPair()
	*vm.slot(int(dst)) = *vm.slot(int(src))
	return vm.PC + 1
}

// opLoadSInt loads an immediate SInt built from two 32-bit halves (low,
// high) into dst, since a single Imm slot can't hold a full int64.
func opLoadSInt(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	dst, lo, hi := inst.immTriple()
	v := int64(lo) | int64(hi)<<32
	*vm.slot(int(dst)) = SIntValue(v)
	return vm.PC + 1
}

func opJump(vm *VM) int {
	return int(vm.Chunk[vm.PC].Imm[0])
}

// opJumpIfFalse reads a Bool from cond and jumps to target when it is
// false, falling through otherwise.
func opJumpIfFalse(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	cond, target := inst.immPair()
	if !vm.slot(int(cond)).AsBool() {
		return int(target)
	}
	return vm.PC + 1
}

func addOverflowsI64(a, b, sum int64) bool {
	return ((a ^ sum) & (b ^ sum)) < 0
}

// opAddSInt computes dst = a + b, raising OVERFLOW on signed wraparound.
func opAddSInt(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	dst, a, b := inst.immTriple()
	av, bv := vm.slot(int(a)).AsSInt(), vm.slot(int(b)).AsSInt()
	sum := av + bv
	if addOverflowsI64(av, bv, sum) {
		return vm.raise(rterr.Overflow)
	}
	*vm.slot(int(dst)) = SIntValue(sum)
	return vm.PC + 1
}

func opSubSInt(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	dst, a, b := inst.immTriple()
	av, bv := vm.slot(int(a)).AsSInt(), vm.slot(int(b)).AsSInt()
	diff := av - bv
	if addOverflowsI64(av, -bv, diff) {
		return vm.raise(rterr.Overflow)
	}
	*vm.slot(int(dst)) = SIntValue(diff)
	return vm.PC + 1
}

// opDivSInt computes dst = a / b, raising DIV_BY_ZERO rather than letting
// Go's own runtime panic on integer division by zero.
func opDivSInt(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	dst, a, b := inst.immTriple()
	av, bv := vm.slot(int(a)).AsSInt(), vm.slot(int(b)).AsSInt()
	if bv == 0 {
		return vm.raise(rterr.DivByZero)
	}
	*vm.slot(int(dst)) = SIntValue(av / bv)
	return vm.PC + 1
}

func opEqSInt(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	dst, a, b := inst.immTriple()
	*vm.slot(int(dst)) = BoolValue(vm.slot(int(a)).AsSInt() == vm.slot(int(b)).AsSInt())
	return vm.PC + 1
}

// opLtSInt computes dst = a < b as a Bool, for chunks that need an
// explicit compare rather than driving a loop off the iterator stack.
func opLtSInt(vm *VM) int {
	inst := vm.Chunk[vm.PC]
	dst, a, b := inst.immTriple()
	av, bv := vm.slot(int(a)).AsSInt(), vm.slot(int(b)).AsSInt()
	*vm.slot(int(dst)) = BoolValue(av < bv)
	return vm.PC + 1
}
