package irbuilder

import "github.com/chakra-core/ChakraCore-sub024/internal/ir"

// Interpreter frame and generator object layout constants, as Var-sized byte
// offsets. The script runtime owns the real layouts; these mirror them.
const (
	generatorFrameOffset                  = int32(0x18)
	interpreterFrameCurrentLocationOffset = int32(0x20)
	interpreterFrameStartLocationOffset   = int32(0x28)
)

// generatorJumpTable builds the prologue that routes a resumed generator to
// the right yield resume point. The placement is load bearing: after the
// environment and constants are loaded, before any other side-effecting IR,
// so a resume does not re-create objects the bail-in code restores.
type generatorJumpTable struct {
	built bool
}

// build inserts the jump table when the function is a coroutine:
//
//	s1 = Ld_A prm1
//	s2 = Ld_A s1[generator frame]
//	     BrNotAddr_A s2 nullptr $jumpTable
//	s2 = GeneratorCreateInterpreterStackFrame s1
//	     Br $functionBegin
//	$jumpTable:
//	s3 = Ld_A s2[current location]
//	s4 = Ld_A s2[start location]
//	s5 = Sub_I4 s3 s4
//	     GeneratorResumeJumpTable s5
//	$functionBegin:
func (g *generatorJumpTable) build(b *IRBuilder) {
	if !b.body.IsCoroutineBody || g.built {
		return
	}
	g.built = true

	// The generator object is the first argument by convention.
	genParamSym := b.fn.SymTable.NewParamSlotSym(1)
	genParamOpnd := ir.NewSymOpnd(genParamSym, ir.TyMachPtr)
	genRegOpnd := ir.NewRegOpnd(b.fn.SymTable.NewStackSym(ir.TyMachPtr), ir.TyMachPtr)
	b.addInstr(b.fn.NewInstr(ir.OpcodeLd_A, genRegOpnd, genParamOpnd, nil), b.functionStartOffset)

	genFrameOpnd := ir.NewRegOpnd(b.fn.SymTable.NewStackSym(ir.TyMachPtr), ir.TyMachPtr)
	b.addInstr(b.fn.NewInstr(ir.OpcodeLd_A, genFrameOpnd,
		b.buildIndirOpndOffset(genRegOpnd, generatorFrameOffset, ir.TyMachPtr), nil), b.functionStartOffset)

	functionBegin := b.fn.NewLabelInstr()
	functionBegin.LabelName = "GeneratorFunctionBegin"
	jumpTable := b.fn.NewLabelInstr()
	jumpTable.LabelName = "GeneratorJumpTable"

	// A non-null frame means the generator has begun execution before:
	// skip down to the jump table.
	skipCreateInterpreterFrame := b.fn.NewBranchInstr(ir.OpcodeBrNotAddr_A, genFrameOpnd, ir.NewNullAddrOpnd())
	skipCreateInterpreterFrame.Target = jumpTable
	b.addInstr(skipCreateInterpreterFrame, b.functionStartOffset)

	createInterpreterFrame := b.fn.NewInstr(ir.OpcodeGeneratorCreateInterpreterStackFrame, genFrameOpnd, genRegOpnd, nil)
	createInterpreterFrame.Src2 = &ir.HelperCallOpnd{Helper: ir.HelperCreateInterpreterStackFrameForGenerator}
	b.addInstr(createInterpreterFrame, b.functionStartOffset)

	skipJumpTable := b.fn.NewBranchInstr(ir.OpcodeBr, nil, nil)
	skipJumpTable.Target = functionBegin
	b.addInstr(skipJumpTable, b.functionStartOffset)

	b.addInstr(jumpTable, b.functionStartOffset)

	curLocOpnd := ir.NewRegOpnd(b.fn.SymTable.NewStackSym(ir.TyMachPtr), ir.TyMachPtr)
	b.addInstr(b.fn.NewInstr(ir.OpcodeLd_A, curLocOpnd,
		b.buildIndirOpndOffset(genFrameOpnd, interpreterFrameCurrentLocationOffset, ir.TyMachPtr), nil), b.functionStartOffset)

	startLocOpnd := ir.NewRegOpnd(b.fn.SymTable.NewStackSym(ir.TyMachPtr), ir.TyMachPtr)
	b.addInstr(b.fn.NewInstr(ir.OpcodeLd_A, startLocOpnd,
		b.buildIndirOpndOffset(genFrameOpnd, interpreterFrameStartLocationOffset, ir.TyMachPtr), nil), b.functionStartOffset)

	curOffsetOpnd := ir.NewRegOpnd(b.fn.SymTable.NewStackSym(ir.TyUint32), ir.TyUint32)
	b.addInstr(b.fn.NewInstr(ir.OpcodeSub_I4, curOffsetOpnd, curLocOpnd, startLocOpnd), b.functionStartOffset)

	resumeJumpTable := b.fn.NewInstr(ir.OpcodeGeneratorResumeJumpTable, nil, curOffsetOpnd, nil)
	b.addInstr(resumeJumpTable, b.functionStartOffset)

	b.fn.BailOutForElidedYieldInsertionPoint = resumeJumpTable

	b.addInstr(functionBegin, b.functionStartOffset)
}
