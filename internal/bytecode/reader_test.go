package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chakra-core/ChakraCore-sub024/internal/ir"
)

func TestOpcodeRoundTrip(t *testing.T) {
	for _, size := range []LayoutSize{SmallLayout, MediumLayout, LargeLayout} {
		w := NewWriter()
		w.Op(OpAdd_A, size).Reg(size, 1).Reg(size, 2).Reg(size, 3)
		r := NewReader(w.Bytes())
		op, gotSize := r.ReadOp()
		require.Equal(t, OpAdd_A, op)
		require.Equal(t, size, gotSize)
		layout := r.Reg3(gotSize)
		require.Equal(t, Reg3Layout{R0: 1, R1: 2, R2: 3}, layout)
	}
}

func TestNoRegisterWidening(t *testing.T) {
	for _, size := range []LayoutSize{SmallLayout, MediumLayout, LargeLayout} {
		w := NewWriter()
		w.Op(OpCallI, size).Reg(size, NoRegister).Reg(size, 1).Reg(size, 0)
		r := NewReader(w.Bytes())
		op, gotSize := r.ReadOp()
		require.Equal(t, OpCallI, op)
		layout := r.CallI(gotSize)
		require.Equal(t, NoRegister, layout.Return, "size %v", size)
		require.Equal(t, uint32(1), layout.Function)
	}
}

func TestBranchLayouts(t *testing.T) {
	w := NewWriter()
	w.Op(OpBrTrue_A, SmallLayout).I32(-12).Reg(SmallLayout, 7)
	w.Op(OpBr, SmallLayout).I32(100)

	r := NewReader(w.Bytes())
	op, size := r.ReadOp()
	require.Equal(t, OpBrTrue_A, op)
	br1 := r.BrReg1(size)
	require.Equal(t, int32(-12), br1.RelativeJumpOffset)
	require.Equal(t, uint32(7), br1.R1)

	op, _ = r.ReadOp()
	require.Equal(t, OpBr, op)
	require.Equal(t, int32(100), r.Br().RelativeJumpOffset)
}

func TestMultiBrLayout(t *testing.T) {
	w := NewWriter()
	w.Op(OpMultiBr, MediumLayout).Reg(MediumLayout, 3).U16(2).I32(10).I32(20)

	r := NewReader(w.Bytes())
	op, size := r.ReadOp()
	require.Equal(t, OpMultiBr, op)
	layout := r.MultiBr(size)
	require.Equal(t, uint32(3), layout.Index)
	require.Equal(t, []int32{10, 20}, layout.RelativeOffsets)
}

func TestTruncatedStreamFailsFast(t *testing.T) {
	w := NewWriter()
	w.Op(OpAdd_A, LargeLayout).Reg(LargeLayout, 1)
	r := NewReader(w.Bytes())
	r.ReadOp()

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered)
		_, ok := recovered.(*ir.FatalInternalError)
		require.True(t, ok)
	}()
	r.Reg3(LargeLayout)
}

func TestStatementReader(t *testing.T) {
	body := &FunctionBody{
		ByteCode: NewWriter().Op(OpNop, SmallLayout).Op(OpNop, SmallLayout).Op(OpEndOfBlock, SmallLayout).Bytes(),
		StatementBoundaries: []StatementBoundary{
			{StatementIndex: 0, Offset: 0},
			{StatementIndex: 1, Offset: 2},
		},
	}
	r := NewReader(body.ByteCode)
	s := NewStatementReader(body)

	require.True(t, s.AtStatementBoundary(r))
	require.Equal(t, uint32(0), s.CurrentStatementIndex())
	s.MoveNext()
	require.Equal(t, uint32(1), s.CurrentStatementIndex())

	require.False(t, s.AtStatementBoundary(r))
	r.ReadOp()
	require.True(t, s.AtStatementBoundary(r))
	s.MoveNext()
	require.Equal(t, NoStatementIndex, s.CurrentStatementIndex())
	require.False(t, s.AtStatementBoundary(r))
}
