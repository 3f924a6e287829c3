package irbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chakra-core/ChakraCore-sub024/internal/bytecode"
	"github.com/chakra-core/ChakraCore-sub024/internal/ir"
)

// newBody returns a FunctionBody with every special register absent, ready
// for a test to fill in.
func newBody(byteCode []byte) *bytecode.FunctionBody {
	return &bytecode.FunctionBody{
		ByteCode:               byteCode,
		EnvReg:                 bytecode.NoRegister,
		ThisRegForEventHandler: bytecode.NoRegister,
		LocalClosureReg:        bytecode.NoRegister,
		LocalFrameDisplayReg:   bytecode.NoRegister,
		FuncExprScopeReg:       bytecode.NoRegister,
		ParamClosureReg:        bytecode.NoRegister,
		FirstInnerScopeReg:     bytecode.NoRegister,
	}
}

func build(t *testing.T, body *bytecode.FunctionBody, opts BuildOptions) *ir.Func {
	t.Helper()
	fn := ir.NewFunc(ir.SymID(body.LocalsCount))
	New(fn, body, opts).Build()
	return fn
}

// realInstrs drops the entry/exit sentinels and pragmas.
func realInstrs(fn *ir.Func) []*ir.Instr {
	var out []*ir.Instr
	for i := fn.HeadInstr; i != nil; i = i.Next() {
		switch i.Kind {
		case ir.InstrEntry, ir.InstrExit, ir.InstrPragma:
		default:
			out = append(out, i)
		}
	}
	return out
}

func opcodes(instrs []*ir.Instr) []ir.Opcode {
	out := make([]ir.Opcode, len(instrs))
	for i, instr := range instrs {
		out[i] = instr.Opc
	}
	return out
}

// LdNull R0; Ret R0 lowers to (Entry, Ld_A R0 <- null, Ret R0, Exit).
func TestBuildNullLoadAndRet(t *testing.T) {
	w := bytecode.NewWriter()
	w.Op(bytecode.OpLdNull, bytecode.SmallLayout).Reg(bytecode.SmallLayout, 0)
	w.Op(bytecode.OpRet, bytecode.SmallLayout).Reg(bytecode.SmallLayout, 0)
	w.Op(bytecode.OpEndOfBlock, bytecode.SmallLayout)

	body := newBody(w.Bytes())
	body.LocalsCount = 1
	body.FirstTmpReg = 1

	fn := build(t, body, BuildOptions{})

	require.Equal(t, ir.InstrEntry, fn.HeadInstr.Kind)
	require.Equal(t, ir.InstrExit, fn.TailInstr.Kind)
	// Nothing in the body re-materializes the frame.
	require.True(t, fn.CanDoInlineArgOpt)

	instrs := realInstrs(fn)
	require.Equal(t, []ir.Opcode{ir.OpcodeLd_A, ir.OpcodeRet}, opcodes(instrs))

	ld := instrs[0]
	addr, ok := ld.Src1.(*ir.AddrOpnd)
	require.True(t, ok)
	require.True(t, addr.Null)
	dst := ld.Dst.(*ir.RegOpnd)
	require.Equal(t, ir.SymID(0), dst.Sym.ID)

	ret := instrs[1]
	require.Equal(t, dst.Sym, ret.Src1.(*ir.RegOpnd).Sym)
}

func TestConstantLoads(t *testing.T) {
	w := bytecode.NewWriter()
	w.Op(bytecode.OpLd_A, bytecode.SmallLayout).Reg(bytecode.SmallLayout, 2).Reg(bytecode.SmallLayout, 0)
	w.Op(bytecode.OpRet, bytecode.SmallLayout).Reg(bytecode.SmallLayout, 2)
	w.Op(bytecode.OpEndOfBlock, bytecode.SmallLayout)

	body := newBody(w.Bytes())
	body.ConstCount = 2
	body.Constants = []bytecode.Constant{
		{Kind: bytecode.ConstUndefined, Addr: 0x8},
		{Kind: bytecode.ConstNumber, Addr: 0x1000},
	}
	body.LocalsCount = 3
	body.FirstTmpReg = 3

	fn := build(t, body, BuildOptions{})
	instrs := realInstrs(fn)
	require.Equal(t, []ir.Opcode{ir.OpcodeLdAddr, ir.OpcodeLdAddr, ir.OpcodeLd_A, ir.OpcodeRet}, opcodes(instrs))

	undef := instrs[0].Dst.(*ir.RegOpnd).Sym
	require.True(t, undef.IsFromConstantTable)
	require.True(t, undef.IsConst)
	require.True(t, undef.IsNotNumber)
	require.False(t, undef.HasByteCodeRegSlot())

	num := instrs[1].Dst.(*ir.RegOpnd).Sym
	require.False(t, num.IsNotNumber)
}

// Forward and backward branches resolve to labels; back edges mark their
// label as a loop top.
func TestBranchResolution(t *testing.T) {
	w := bytecode.NewWriter()
	// 0: loop top: Incr_A R0 <- R0 (reg2: 2+2=4 bytes)
	w.Op(bytecode.OpIncr_A, bytecode.SmallLayout).Reg(bytecode.SmallLayout, 0).Reg(bytecode.SmallLayout, 0)
	// 4: BrTrue_A R0 -> 0 (2+4+1=7 bytes, ends at 11; rel = 0-11)
	w.Op(bytecode.OpBrTrue_A, bytecode.SmallLayout).I32(-11).Reg(bytecode.SmallLayout, 0)
	// 11: Ret R0
	w.Op(bytecode.OpRet, bytecode.SmallLayout).Reg(bytecode.SmallLayout, 0)
	w.Op(bytecode.OpEndOfBlock, bytecode.SmallLayout)

	body := newBody(w.Bytes())
	body.LocalsCount = 1
	body.FirstTmpReg = 1

	fn := build(t, body, BuildOptions{})

	var branch *ir.Instr
	fn.Instrs(func(i *ir.Instr) bool {
		if i.IsBranchInstr() {
			branch = i
		}
		return true
	})
	require.NotNil(t, branch)
	require.NotNil(t, branch.Target, "every branch must resolve to a label")
	require.True(t, branch.Target.IsLabelInstr())
	require.Equal(t, uint32(0), branch.Target.ByteCodeOffset())
	require.True(t, branch.Target.IsLoopTop)

	// The label sits before the loop-top instruction.
	require.Equal(t, ir.OpcodeIncr_A, branch.Target.GetNextRealInstr().Opc)
}

func TestForwardBranchNotLoopTop(t *testing.T) {
	w := bytecode.NewWriter()
	// 0: BrTrue_A R0 -> 11 (ends at 7; rel 4)
	w.Op(bytecode.OpBrTrue_A, bytecode.SmallLayout).I32(4).Reg(bytecode.SmallLayout, 0)
	// 7: Incr_A R0 R0
	w.Op(bytecode.OpIncr_A, bytecode.SmallLayout).Reg(bytecode.SmallLayout, 0).Reg(bytecode.SmallLayout, 0)
	// 11: Ret R0
	w.Op(bytecode.OpRet, bytecode.SmallLayout).Reg(bytecode.SmallLayout, 0)
	w.Op(bytecode.OpEndOfBlock, bytecode.SmallLayout)

	body := newBody(w.Bytes())
	body.LocalsCount = 1
	body.FirstTmpReg = 1

	fn := build(t, body, BuildOptions{})
	var branch *ir.Instr
	fn.Instrs(func(i *ir.Instr) bool {
		if i.IsBranchInstr() {
			branch = i
		}
		return true
	})
	require.NotNil(t, branch.Target)
	require.False(t, branch.Target.IsLoopTop)
	require.Equal(t, uint32(11), branch.Target.ByteCodeOffset())
}

// The arg chain of a call pops exactly argCount arg-outs and terminates at
// the StartCall whose count matches.
func TestCallArgChain(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	w.Op(bytecode.OpStartCall, small).U16(2)
	w.Op(bytecode.OpArgOut_A, small).Reg(small, 0).Reg(small, 1)
	w.Op(bytecode.OpArgOut_A, small).Reg(small, 1).Reg(small, 2)
	w.Op(bytecode.OpCallI, small).Reg(small, 3).Reg(small, 0).Reg(small, 2)
	w.Op(bytecode.OpRet, small).Reg(small, 3)
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.LocalsCount = 4
	body.FirstTmpReg = 4

	fn := build(t, body, BuildOptions{})

	var call *ir.Instr
	fn.Instrs(func(i *ir.Instr) bool {
		if i.Opc == ir.OpcodeCallI {
			call = i
		}
		return true
	})
	require.NotNil(t, call)

	// Walk the src2 chain: argCount ArgOuts then the StartCall.
	links := 0
	cur := call
	for {
		next, ok := cur.Src2.(*ir.SymOpnd)
		if !ok {
			break
		}
		// The chained operand is the dst of the previous arg instruction.
		argInstr := findDefiner(fn, next)
		require.NotNil(t, argInstr)
		require.Equal(t, ir.OpcodeArgOut_A, argInstr.Opc)
		links++
		cur = argInstr
	}
	require.Equal(t, 2, links)

	startDst, ok := cur.Src2.(*ir.RegOpnd)
	require.True(t, ok)
	startCall := startDst.Sym.InstrDef
	require.NotNil(t, startCall)
	require.Equal(t, ir.OpcodeStartCall, startCall.Opc)
	require.Equal(t, int64(2), startCall.Src1.(*ir.IntConstOpnd).Value)

	require.Equal(t, uint32(2), fn.ArgSlotsForFunctionsCalled)
}

// findDefiner locates the instruction whose dst is the given sym opnd.
func findDefiner(fn *ir.Func, opnd *ir.SymOpnd) *ir.Instr {
	var found *ir.Instr
	fn.Instrs(func(i *ir.Instr) bool {
		if d, ok := i.Dst.(*ir.SymOpnd); ok && d == opnd {
			found = i
			return false
		}
		return true
	})
	return found
}

func TestCallArgCountMismatchIsFatal(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	w.Op(bytecode.OpStartCall, small).U16(3)
	w.Op(bytecode.OpArgOut_A, small).Reg(small, 0).Reg(small, 1)
	w.Op(bytecode.OpCallI, small).Reg(small, 3).Reg(small, 0).Reg(small, 1)
	w.Op(bytecode.OpRet, small).Reg(small, 3)
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.LocalsCount = 4
	body.FirstTmpReg = 4

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered)
		_, ok := recovered.(*ir.FatalInternalError)
		require.True(t, ok)
	}()
	build(t, body, BuildOptions{})
}

// A def of a temp after its use gets a fresh sym id, keeping temps
// single-def.
func TestTempRemapping(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	// t2 = R0; R1 = t2; t2 = R1; R0 = t2
	w.Op(bytecode.OpLd_A, small).Reg(small, 2).Reg(small, 0)
	w.Op(bytecode.OpLd_A, small).Reg(small, 1).Reg(small, 2)
	w.Op(bytecode.OpLd_A, small).Reg(small, 2).Reg(small, 1)
	w.Op(bytecode.OpLd_A, small).Reg(small, 0).Reg(small, 2)
	w.Op(bytecode.OpRet, small).Reg(small, 0)
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.LocalsCount = 3
	body.FirstTmpReg = 2

	fn := build(t, body, BuildOptions{})
	instrs := realInstrs(fn)
	require.Len(t, instrs, 5)

	firstDef := instrs[0].Dst.(*ir.RegOpnd).Sym
	firstUse := instrs[1].Src1.(*ir.RegOpnd).Sym
	require.Same(t, firstDef, firstUse)
	require.Equal(t, ir.SymID(2), firstDef.ID)

	secondDef := instrs[2].Dst.(*ir.RegOpnd).Sym
	require.NotSame(t, firstDef, secondDef)
	require.GreaterOrEqual(t, secondDef.ID, ir.SymID(3))
	require.Same(t, secondDef, instrs[3].Src1.(*ir.RegOpnd).Sym)

	require.True(t, firstDef.IsSingleDef)
	require.True(t, secondDef.IsSingleDef)
}

func TestStatementBoundariesEmitPragmas(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	w.Op(bytecode.OpIncr_A, small).Reg(small, 0).Reg(small, 0) // 0..4
	w.Op(bytecode.OpRet, small).Reg(small, 0)                  // 4..7
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.LocalsCount = 1
	body.FirstTmpReg = 1
	body.StatementBoundaries = []bytecode.StatementBoundary{
		{StatementIndex: 0, Offset: 0},
		{StatementIndex: 1, Offset: 4},
	}

	fn := build(t, body, BuildOptions{})

	var pragmas []*ir.Instr
	fn.Instrs(func(i *ir.Instr) bool {
		if i.Kind == ir.InstrPragma {
			pragmas = append(pragmas, i)
		}
		return true
	})
	// Two boundaries plus the trailing close of the last statement.
	require.Len(t, pragmas, 3)
	require.Equal(t, uint32(0), pragmas[0].StatementIndex)
	require.Equal(t, uint32(1), pragmas[1].StatementIndex)
}

func TestFieldAccessBuildsPropertySym(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	// R1 = R0.prop[0] via cache 0
	w.Op(bytecode.OpLdFld, small).Reg(small, 1).Reg(small, 0).Reg(small, 0).Reg(small, 0)
	w.Op(bytecode.OpRet, small).Reg(small, 1)
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.LocalsCount = 2
	body.FirstTmpReg = 2
	body.PropertyIDs = []int32{77}
	body.InlineCacheCount = 1

	fn := build(t, body, BuildOptions{})

	var ldFld *ir.Instr
	fn.Instrs(func(i *ir.Instr) bool {
		if i.Opc == ir.OpcodeLdFld {
			ldFld = i
		}
		return true
	})
	require.NotNil(t, ldFld)
	field := ldFld.Src1.(*ir.SymOpnd)
	require.NotNil(t, field.PropertySym)
	require.Equal(t, int32(77), field.PropertySym.PropertyID)
	require.Equal(t, uint32(0), field.CacheIndex)
	require.Equal(t, ir.SymID(0), field.PropertySym.Parent.ID)
	// PRE bookkeeping: the load cache index is recorded at first sight.
	require.Equal(t, uint32(0), field.PropertySym.LoadCacheIndex)
}

func TestSlotIndexOutOfRangeIsFatal(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	w.Op(bytecode.OpLdSlot, small).Reg(small, 1).Reg(small, 0).Reg(small, 9)
	w.Op(bytecode.OpRet, small).Reg(small, 1)
	w.Op(bytecode.OpEndOfBlock, small)

	body := newBody(w.Bytes())
	body.LocalsCount = 2
	body.FirstTmpReg = 2
	body.ScopeSlotArraySize = 2

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered)
		fatal, ok := recovered.(*ir.FatalInternalError)
		require.True(t, ok)
		require.Contains(t, fatal.Error(), "slot index")
	}()
	build(t, body, BuildOptions{})
}
