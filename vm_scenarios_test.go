package gaffa

import (
	"testing"

	"github.com/fgenesis/gaffa/rterr"
	"github.com/stretchr/testify/require"
)

func sintImm(v int64) (uint32, uint32) {
	return uint32(uint64(v)), uint32(uint64(v) >> 32)
}

// TestSumLoopOverIteratorStack runs a hand-assembled chunk that sums 0..999999
// by driving a numeric iterator through its backward-jump advance opcode.
func TestSumLoopOverIteratorStack(t *testing.T) {
	rt, err := NewRuntime()
	require.NoError(t, err)
	vm := rt.NewVM()

	zeroLo, zeroHi := sintImm(0)
	endLo, endHi := sintImm(1000000)

	chunk := []Inst{
		{Op: opLoadSInt, Imm: [4]uint32{0, zeroLo, zeroHi}}, // slot0: s = 0
		{Op: opLoadSInt, Imm: [4]uint32{1, zeroLo, zeroHi}}, // slot1: i = 0
		{Op: opIterInitFwd, Imm: [4]uint32{1, endLo, endHi}},
		{Op: opAddSInt, Imm: [4]uint32{0, 0, 1}}, // s = s + i   (body entry, pc 3)
		{Op: opIterAdvanceTop, Imm: [4]uint32{3, 5}},
		{Op: opHalt},
	}
	vm.Chunk = chunk
	vm.PC = 0

	code := vm.Run()
	require.Equal(t, rterr.OK, code)
	require.Equal(t, int64(499999500000), vm.slot(0).AsSInt())
}

// TestRecursionTriggersStackRealloc hand-builds a self-recursive bytecode
// function deep enough to force the value stack to reallocate mid-run, and
// checks every live frame pointer survived the move.
func TestRecursionTriggersStackRealloc(t *testing.T) {
	rt, err := NewRuntime()
	require.NoError(t, err)
	vm := rt.NewVM()
	initialStackLen := len(vm.Stack)

	fInfo := &FuncInfo{Kind: FuncBytecode, NParams: 1, NRets: 1, NLocals: 5}
	zeroLo, zeroHi := sintImm(0)
	oneLo, oneHi := sintImm(1)

	fChunk := []Inst{
		{Op: opLoadSInt, Imm: [4]uint32{5, zeroLo, zeroHi}}, // slot5: zero = 0
		{Op: opLoadSInt, Imm: [4]uint32{6, oneLo, oneHi}},   // slot6: one = 1
		{Op: opEqSInt, Imm: [4]uint32{4, 1, 5}},             // slot4: iszero = (n == 0)
		{Op: opJumpIfFalse, Imm: [4]uint32{4, 6}},           // if n != 0, goto recursive case (pc 6)
		{Op: opMove, Imm: [4]uint32{0, 5}},                  // ret = zero
		{Op: opReturn},
		{Op: opSubSInt, Imm: [4]uint32{3, 1, 6}},             // pc 6: arg = n - one
		callDirect(2, 1, fInfo),                              // pc 7: f(n-1) -> result at slot2
		{Op: opAddSInt, Imm: [4]uint32{0, 1, 2}},             // ret = n + f(n-1)
		{Op: opReturn},
	}
	fInfo.Chunk = fChunk
	fInfo.EntryPC = 0

	nLo, nHi := sintImm(512)
	driver := []Inst{
		{Op: opLoadSInt, Imm: [4]uint32{1, nLo, nHi}},
		callDirect(0, 1, fInfo),
		{Op: opHalt},
	}
	vm.Chunk = driver
	vm.PC = 0

	code := vm.Run()
	require.Equal(t, rterr.OK, code)
	require.Equal(t, int64(131328), vm.slot(0).AsSInt())
	require.Greater(t, len(vm.Stack), initialStackLen, "512-deep recursion must have reallocated the value stack")
}

// TestDivisionErrorUnwindsWithoutHandler checks that a division by zero with
// no installed handler leaves the VM's error state intact and re-executes
// the same failing instruction on a second Run call.
func TestDivisionErrorUnwindsWithoutHandler(t *testing.T) {
	rt, err := NewRuntime()
	require.NoError(t, err)
	vm := rt.NewVM()

	oneLo, oneHi := sintImm(1)
	zeroLo, zeroHi := sintImm(0)

	noHandler := []Inst{
		{Op: opLoadSInt, Imm: [4]uint32{1, oneLo, oneHi}},
		{Op: opLoadSInt, Imm: [4]uint32{2, zeroLo, zeroHi}},
		{Op: opDivSInt, Imm: [4]uint32{0, 1, 2}},
		{Op: opReturn},
	}
	vm.Chunk = noHandler
	vm.PC = 0

	code := vm.Run()
	require.Equal(t, rterr.DivByZero, code)
	require.Equal(t, 2, vm.PC, "cur.ins must still point at the failing divide")

	code2 := vm.Run()
	require.Equal(t, rterr.DivByZero, code2, "re-invoking run must re-execute and fail the same way")
}

// TestDivisionErrorUnwindsIntoHandler checks that a division by zero guarded
// by an installed handler resumes at the handler's entry point with a
// synthesized ERROR value in the designated slot.
func TestDivisionErrorUnwindsIntoHandler(t *testing.T) {
	rt, err := NewRuntime()
	require.NoError(t, err)
	vm := rt.NewVM()

	oneLo, oneHi := sintImm(1)
	zeroLo, zeroHi := sintImm(0)

	handled := []Inst{
		{Op: opInstallHandler, Imm: [4]uint32{0, 4}}, // error value lands at slot0, resume at pc4
		{Op: opLoadSInt, Imm: [4]uint32{1, oneLo, oneHi}},
		{Op: opLoadSInt, Imm: [4]uint32{2, zeroLo, zeroHi}},
		{Op: opDivSInt, Imm: [4]uint32{3, 1, 2}},
		{Op: opHalt}, // pc 4: handler resumes here
	}
	vm.Chunk = handled
	vm.PC = 0

	code := vm.Run()
	require.Equal(t, rterr.OK, code)

	result := *vm.slot(0)
	require.Equal(t, KindError, result.Kind)
	require.Equal(t, "division by zero", string(rt.Strings.Get(result.AsErrorStringRef())))
}
