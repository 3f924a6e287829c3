package irbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chakra-core/ChakraCore-sub024/internal/bytecode"
	"github.com/chakra-core/ChakraCore-sub024/internal/ir"
)

func TestGeneratorJumpTable(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	yieldOffset := w.CurrentOffset()
	w.Op(bytecode.OpYield, small).Reg(small, 1).Reg(small, 0)
	w.Op(bytecode.OpRet, small).Reg(small, 1)
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.LocalsCount = 2
	body.FirstTmpReg = 2
	body.IsCoroutineBody = true

	fn := build(t, body, BuildOptions{})
	require.True(t, fn.IsCoroutine)
	// A resumable frame can't keep inlined arguments in registers.
	require.False(t, fn.CanDoInlineArgOpt)

	var seq []ir.Opcode
	fn.Instrs(func(i *ir.Instr) bool {
		seq = append(seq, i.Opc)
		return true
	})

	// The prologue routes resumed generators through the jump table before
	// any other side-effecting IR.
	require.Equal(t, []ir.Opcode{
		ir.OpcodeFunctionEntry,
		ir.OpcodeLd_A,        // generator object from parameter 1
		ir.OpcodeLd_A,        // saved interpreter frame
		ir.OpcodeBrNotAddr_A, // frame != null -> jump table
		ir.OpcodeGeneratorCreateInterpreterStackFrame,
		ir.OpcodeBr, // -> function begin
		ir.OpcodeLabel,
		ir.OpcodeLd_A, // current location
		ir.OpcodeLd_A, // start location
		ir.OpcodeSub_I4,
		ir.OpcodeGeneratorResumeJumpTable,
		ir.OpcodeLabel,
	}, seq[:12])

	require.NotNil(t, fn.BailOutForElidedYieldInsertionPoint)
	require.Equal(t, ir.OpcodeGeneratorResumeJumpTable, fn.BailOutForElidedYieldInsertionPoint.Opc)

	// The yield lowered to a bailout point plus a registered bail-in slot
	// and the resume decode.
	var yield, resume *ir.Instr
	fn.Instrs(func(i *ir.Instr) bool {
		switch i.Opc {
		case ir.OpcodeYield:
			yield = i
		case ir.OpcodeGeneratorResumeYield:
			resume = i
		}
		return true
	})
	require.NotNil(t, yield)
	require.True(t, yield.HasBailOutInfo())
	require.Equal(t, ir.BailOutForGeneratorYield, yield.BailOutKind)
	require.Equal(t, yieldOffset, yield.BailOutInfo.ByteCodeOffset)

	bailIn, ok := fn.YieldResumeLabels[yieldOffset]
	require.True(t, ok)
	require.Equal(t, ir.OpcodeGeneratorBailInLabel, bailIn.Opc)
	require.NotNil(t, resume)
	require.Equal(t, yield.Dst.(*ir.RegOpnd).Sym, resume.Dst.(*ir.RegOpnd).Sym)
}

func TestNonCoroutineHasNoJumpTable(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	w.Op(bytecode.OpLdUndef, small).Reg(small, 0)
	w.Op(bytecode.OpRet, small).Reg(small, 0)
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.LocalsCount = 1
	body.FirstTmpReg = 1

	fn := build(t, body, BuildOptions{})
	fn.Instrs(func(i *ir.Instr) bool {
		require.NotEqual(t, ir.OpcodeGeneratorResumeJumpTable, i.Opc)
		return true
	})
}

func TestPrologueEnvironmentAndClosure(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	w.Op(bytecode.OpLdUndef, small).Reg(small, 5)
	w.Op(bytecode.OpRet, small).Reg(small, 5)
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.ConstCount = 2
	body.Constants = []bytecode.Constant{
		{Kind: bytecode.ConstUndefined, Addr: 0x8},
		{Kind: bytecode.ConstNull, Addr: 0},
	}
	body.EnvReg = 2
	body.LocalClosureReg = 3
	body.LocalFrameDisplayReg = 4
	body.LocalsCount = 6
	body.FirstTmpReg = 6
	body.ScopeSlotArraySize = 3
	body.ParamAndBodyScopeMerged = true

	fn := build(t, body, BuildOptions{})

	// The closure environment captures the frame.
	require.False(t, fn.CanDoInlineArgOpt)

	var seq []ir.Opcode
	fn.Instrs(func(i *ir.Instr) bool {
		switch i.Opc {
		case ir.OpcodeLdEnv, ir.OpcodeNewScopeSlots, ir.OpcodeLdFrameDisplay:
			seq = append(seq, i.Opc)
		}
		return true
	})
	require.Equal(t, []ir.Opcode{ir.OpcodeLdEnv, ir.OpcodeNewScopeSlots, ir.OpcodeLdFrameDisplay}, seq)

	var newScopeSlots *ir.Instr
	fn.Instrs(func(i *ir.Instr) bool {
		if i.Opc == ir.OpcodeNewScopeSlots {
			newScopeSlots = i
		}
		return true
	})
	// Size plus the scope-slot header.
	require.Equal(t, int64(3+scopeSlotsFirstSlotIndex), newScopeSlots.Src1.(*ir.IntConstOpnd).Value)

	// The frame display builds on the closure and the enclosing env.
	var frameDisplay *ir.Instr
	fn.Instrs(func(i *ir.Instr) bool {
		if i.Opc == ir.OpcodeLdFrameDisplay {
			frameDisplay = i
		}
		return true
	})
	require.NotNil(t, frameDisplay.Src1)
	require.NotNil(t, frameDisplay.Src2)
}

func TestEnvSlotAccessRecordsFrameDisplayCheck(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	// R1 = env[1][2]
	w.Op(bytecode.OpLdEnvSlot, small).Reg(small, 1).Reg(small, 1).Reg(small, 2)
	w.Op(bytecode.OpRet, small).Reg(small, 1)
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.EnvReg = 2
	body.ConstCount = 0
	body.LocalsCount = 3
	body.FirstTmpReg = 3
	body.ScopeSlotArraySize = 4

	fn := build(t, body, BuildOptions{})

	require.Len(t, fn.FrameDisplayChecks, 1)
	require.Equal(t, uint32(2), fn.FrameDisplayChecks[0].ScopeCount)
	require.Equal(t, uint32(3), fn.FrameDisplayChecks[0].SlotCount)

	// The check instruction landed right after the defining LdSlotArr.
	var ldSlotArr *ir.Instr
	fn.Instrs(func(i *ir.Instr) bool {
		if i.Opc == ir.OpcodeLdSlotArr {
			ldSlotArr = i
		}
		return true
	})
	require.NotNil(t, ldSlotArr)
	check := ldSlotArr.Next()
	require.Equal(t, ir.OpcodeFrameDisplayCheck, check.Opc)
	require.Equal(t, [2]uint32{2, 3}, check.FrameDisplayBounds)
}

func TestClosureRegAsOperandIsFatal(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	// Using the env register as a general source must abort the compile.
	w.Op(bytecode.OpLd_A, small).Reg(small, 1).Reg(small, 2)
	w.Op(bytecode.OpRet, small).Reg(small, 1)
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.EnvReg = 2
	body.LocalsCount = 3
	body.FirstTmpReg = 3

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered)
		_, ok := recovered.(*ir.FatalInternalError)
		require.True(t, ok)
	}()
	build(t, body, BuildOptions{})
}
