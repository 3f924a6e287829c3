package chakra

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/chakra-core/ChakraCore-sub024/internal/bytecode"
	"github.com/chakra-core/ChakraCore-sub024/internal/ir"
	"github.com/chakra-core/ChakraCore-sub024/internal/regex"
)

func simpleBody() *bytecode.FunctionBody {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	w.Op(bytecode.OpLdNull, small).Reg(small, 0)
	w.Op(bytecode.OpRet, small).Reg(small, 0)
	w.Op(bytecode.OpEndOfBlock, small)

	return &bytecode.FunctionBody{
		ByteCode:               w.Bytes(),
		LocalsCount:            1,
		FirstTmpReg:            1,
		EnvReg:                 bytecode.NoRegister,
		ThisRegForEventHandler: bytecode.NoRegister,
		LocalClosureReg:        bytecode.NoRegister,
		LocalFrameDisplayReg:   bytecode.NoRegister,
		FuncExprScopeReg:       bytecode.NoRegister,
		ParamClosureReg:        bytecode.NoRegister,
		FirstInnerScopeReg:     bytecode.NoRegister,
	}
}

func TestCompileFunction(t *testing.T) {
	fn, err := CompileFunction(nil, simpleBody())
	require.NoError(t, err)

	var ops []ir.Opcode
	fn.Instrs(func(i *ir.Instr) bool {
		ops = append(ops, i.Opc)
		return true
	})
	require.Equal(t, []ir.Opcode{ir.OpcodeFunctionEntry, ir.OpcodeLd_A, ir.OpcodeRet, ir.OpcodeFunctionExit}, ops)
}

func TestCompileFunctionCorruptBytecodeIsError(t *testing.T) {
	small := bytecode.SmallLayout
	w := bytecode.NewWriter()
	// An opcode value outside the defined set.
	w.Op(bytecode.OpCode(0x3FFF), small)
	w.Op(bytecode.OpEndOfBlock, small)

	body := simpleBody()
	body.ByteCode = w.Bytes()

	fn, err := CompileFunction(nil, body)
	require.Nil(t, fn)
	require.Error(t, err)

	var fatal *ir.FatalInternalError
	require.ErrorAs(t, err, &fatal)
}

func TestRegexFacade(t *testing.T) {
	b := regex.NewProgramBuilder(0, "ab")
	b.MatchChar('a')
	b.MatchChar('b')
	b.Succ()
	p, err := b.Build(regex.InstructionsTag)
	require.NoError(t, err)

	loaded, err := LoadRegexProgram(p.Save())
	require.NoError(t, err)

	m := NewRegexMatcher(loaded)
	matched, err := m.Match(utf16.Encode([]rune("xxab")), 0)
	require.NoError(t, err)
	require.True(t, matched)
	require.Equal(t, uint32(2), m.Group(0).Offset)

	clone := m.CloneToScriptContext()
	matched, err = clone.Match(utf16.Encode([]rune("ab")), 0)
	require.NoError(t, err)
	require.True(t, matched)
}

func TestLineCacheFacade(t *testing.T) {
	lc := BuildLineCache([]byte("a\r\nb\nc"), 0, 0)
	require.Equal(t, []uint32{0, 3, 5}, lc.CharOffsets())

	line, start, _, ok := lc.FindLineForCharOffset(4)
	require.True(t, ok)
	require.Equal(t, 1, line)
	require.Equal(t, uint32(3), start)
}
