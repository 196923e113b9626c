package gaffa

import (
	"testing"

	"github.com/fgenesis/gaffa/rterr"
	"github.com/stretchr/testify/require"
)

// TestVariadicReturnCompactsVarretsIntoReturnSlots hand-builds a
// variable-return bytecode function that writes its results into the
// varrets region past its locals, then checks opReturnVar has compacted
// them down into the caller's contiguous return-slot run.
func TestVariadicReturnCompactsVarretsIntoReturnSlots(t *testing.T) {
	rt, err := NewRuntime()
	require.NoError(t, err)
	vm := rt.NewVM()

	tenLo, tenHi := sintImm(10)
	twentyLo, twentyHi := sintImm(20)
	thirtyLo, thirtyHi := sintImm(30)

	fInfo := &FuncInfo{Kind: FuncBytecode, NParams: 1, NRets: 1, NLocals: 2, VariadicRets: true}
	fChunk := []Inst{
		{Op: opLoadSInt, Imm: [4]uint32{4, tenLo, tenHi}},    // varrets[0] at slot4
		{Op: opLoadSInt, Imm: [4]uint32{5, twentyLo, twentyHi}}, // varrets[1] at slot5
		{Op: opLoadSInt, Imm: [4]uint32{6, thirtyLo, thirtyHi}}, // varrets[2] at slot6
		{Op: opReturnVar, Imm: [4]uint32{4, 3}},
	}
	fInfo.Chunk = fChunk
	fInfo.EntryPC = 0

	argLo, argHi := sintImm(99)
	driver := []Inst{
		{Op: opLoadSInt, Imm: [4]uint32{1, argLo, argHi}},
		callDirect(0, 1, fInfo),
		{Op: opHalt},
	}
	vm.Chunk = driver
	vm.PC = 0

	code := vm.Run()
	require.Equal(t, rterr.OK, code)
	require.Equal(t, int64(10), vm.slot(0).AsSInt())
	require.Equal(t, int64(20), vm.slot(1).AsSInt())
	require.Equal(t, int64(30), vm.slot(2).AsSInt())
}
