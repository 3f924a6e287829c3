package irbuilder

import (
	"github.com/chakra-core/ChakraCore-sub024/internal/bytecode"
	"github.com/chakra-core/ChakraCore-sub024/internal/ir"
)

// buildInstr decodes one bytecode instruction's layout and emits its IR.
// Dispatch is by (layout kind, size); each build routine is short: decode the
// layout operands, construct the operand objects, allocate the instruction,
// add it.
func (b *IRBuilder) buildInstr(newOpcode bytecode.OpCode, layoutSize bytecode.LayoutSize, offset uint32) {
	switch newOpcode.Layout() {
	case bytecode.LayoutEmpty:
		b.buildEmpty(newOpcode, offset)
	case bytecode.LayoutReg1:
		b.buildReg1(newOpcode, offset, b.reader.Reg1(layoutSize))
	case bytecode.LayoutReg2:
		b.buildReg2(newOpcode, offset, b.reader.Reg2(layoutSize))
	case bytecode.LayoutReg3:
		b.buildReg3(newOpcode, offset, b.reader.Reg3(layoutSize))
	case bytecode.LayoutReg1Unsigned1:
		b.buildReg1Unsigned1(newOpcode, offset, b.reader.Reg1Unsigned1(layoutSize))
	case bytecode.LayoutReg1Int:
		b.buildReg1Int(newOpcode, offset, b.reader.Reg1Int(layoutSize))
	case bytecode.LayoutReg1Dbl:
		b.buildReg1Dbl(newOpcode, offset, b.reader.Reg1Dbl(layoutSize))
	case bytecode.LayoutUnsigned1:
		b.buildUnsigned1(newOpcode, offset, b.reader.Unsigned1(layoutSize))
	case bytecode.LayoutArg:
		b.buildArg(newOpcode, offset, b.reader.Arg(layoutSize))
	case bytecode.LayoutStartCall:
		b.buildStartCall(newOpcode, offset, b.reader.StartCall())
	case bytecode.LayoutCallI:
		layout := b.reader.CallI(layoutSize)
		profileID := ir.NoProfileID
		if newOpcode.IsProfiled() {
			profileID = b.reader.ReadProfileID()
		}
		b.buildCallI(newOpcode, offset, layout, profileID)
	case bytecode.LayoutBr:
		b.buildBr(newOpcode, offset, b.reader.Br())
	case bytecode.LayoutBrReg1:
		b.buildBrReg1(newOpcode, offset, b.reader.BrReg1(layoutSize))
	case bytecode.LayoutBrReg2:
		b.buildBrReg2(newOpcode, offset, b.reader.BrReg2(layoutSize))
	case bytecode.LayoutMultiBr:
		b.buildMultiBr(newOpcode, offset, b.reader.MultiBr(layoutSize))
	case bytecode.LayoutElementSlot:
		b.buildElementSlot(newOpcode, offset, b.reader.ElementSlot(layoutSize))
	case bytecode.LayoutElementSlotI1:
		b.buildElementSlotI1(newOpcode, offset, b.reader.ElementSlotI1(layoutSize))
	case bytecode.LayoutElementCP:
		layout := b.reader.ElementCP(layoutSize)
		profileID := ir.NoProfileID
		if newOpcode.IsProfiled() {
			profileID = b.reader.ReadProfileID()
		}
		b.buildElementCP(newOpcode, offset, layout, profileID)
	default:
		ir.FatalInternalErrorf("unimplemented layout for opcode %s", newOpcode)
	}
}

func (b *IRBuilder) buildEmpty(newOpcode bytecode.OpCode, offset uint32) {
	switch newOpcode {
	case bytecode.OpNop:
		b.addInstr(b.fn.NewInstr(ir.OpcodeNop, nil, nil, nil), offset)
	case bytecode.OpFinally:
		b.addInstr(b.fn.NewInstr(ir.OpcodeFinally, nil, nil, nil), offset)
		b.popHandler()
	default:
		ir.FatalInternalErrorf("unexpected empty-layout opcode %s", newOpcode)
	}
}

var reg1Opcodes = map[bytecode.OpCode]ir.Opcode{
	bytecode.OpLdThis:            ir.OpcodeLdThis,
	bytecode.OpLdEnv:             ir.OpcodeLdEnv,
	bytecode.OpLdFrameDisplay:    ir.OpcodeLdFrameDisplay,
	bytecode.OpNewScopeObject:    ir.OpcodeNewScopeObject,
	bytecode.OpNewPseudoScope:    ir.OpcodeNewPseudoScope,
	bytecode.OpInitLocalClosure:  ir.OpcodeInitLocalClosure,
	bytecode.OpNewScObjectSimple: ir.OpcodeNewScObjectSimple,
}

func (b *IRBuilder) buildReg1(newOpcode bytecode.OpCode, offset uint32, layout bytecode.Reg1Layout) {
	switch newOpcode {
	case bytecode.OpLdUndef, bytecode.OpLdNull, bytecode.OpLdTrue, bytecode.OpLdFalse:
		dstOpnd := b.buildDstOpnd(layout.R0, ir.TyVar)
		var srcOpnd ir.Opnd
		if newOpcode == bytecode.OpLdNull {
			srcOpnd = ir.NewNullAddrOpnd()
		} else {
			srcOpnd = ir.NewAddrOpnd(wellKnownValueAddr(newOpcode), ir.AddrOpndKindDynamicVar)
		}
		instr := b.fn.NewInstr(ir.OpcodeLd_A, dstOpnd, srcOpnd, nil)
		if dstOpnd.Sym.IsSingleDef {
			dstOpnd.Sym.IsNotNumber = true
		}
		b.addInstr(instr, offset)

	case bytecode.OpRet:
		srcOpnd := b.buildSrcOpnd(layout.R0, ir.TyVar)
		instr := b.fn.NewInstr(ir.OpcodeRet, nil, srcOpnd, nil)
		b.addInstr(instr, offset)

	case bytecode.OpThrow:
		srcOpnd := b.buildSrcOpnd(layout.R0, ir.TyVar)
		instr := b.fn.NewInstr(ir.OpcodeThrow, nil, srcOpnd, nil)
		b.addInstr(instr, offset)

	case bytecode.OpCatch:
		dstOpnd := b.buildDstOpndEx(layout.R0, ir.TyVar, true, false)
		instr := b.fn.NewInstr(ir.OpcodeCatch, dstOpnd, nil, nil)
		b.addInstr(instr, offset)
		b.popHandler()

	default:
		opc, ok := reg1Opcodes[newOpcode]
		if !ok {
			ir.FatalInternalErrorf("unexpected reg1 opcode %s", newOpcode)
		}
		dstOpnd := b.buildDstOpnd(layout.R0, ir.TyVar)
		instr := b.fn.NewInstr(opc, dstOpnd, nil, nil)
		if dstOpnd.Sym.IsSingleDef {
			dstOpnd.Sym.IsNotNumber = true
		}
		b.addInstr(instr, offset)
	}
}

// wellKnownValueAddr returns the tagged address of undefined/true/false. The
// script runtime owns the real values; distinct non-zero sentinels keep the
// IR well-formed without it.
func wellKnownValueAddr(op bytecode.OpCode) uintptr {
	switch op {
	case bytecode.OpLdUndef:
		return 0x8
	case bytecode.OpLdTrue:
		return 0x18
	case bytecode.OpLdFalse:
		return 0x10
	default:
		return 0
	}
}

var reg2Opcodes = map[bytecode.OpCode]ir.Opcode{
	bytecode.OpLd_A:   ir.OpcodeLd_A,
	bytecode.OpNeg_A:  ir.OpcodeNeg_A,
	bytecode.OpNot_A:  ir.OpcodeNot_A,
	bytecode.OpIncr_A: ir.OpcodeIncr_A,
	bytecode.OpDecr_A: ir.OpcodeDecr_A,
	bytecode.OpTypeof: ir.OpcodeTypeof,
}

func (b *IRBuilder) buildReg2(newOpcode bytecode.OpCode, offset uint32, layout bytecode.Reg2Layout) {
	b.doClosureRegCheck(layout.R1)

	if newOpcode == bytecode.OpYield {
		b.buildYield(offset, layout)
		return
	}

	opc, ok := reg2Opcodes[newOpcode]
	if !ok {
		ir.FatalInternalErrorf("unexpected reg2 opcode %s", newOpcode)
	}
	srcOpnd := b.buildSrcOpnd(layout.R1, ir.TyVar)
	dstOpnd := b.buildDstOpnd(layout.R0, ir.TyVar)
	instr := b.fn.NewInstr(opc, dstOpnd, srcOpnd, nil)
	if opc == ir.OpcodeTypeof && dstOpnd.Sym.IsSingleDef {
		dstOpnd.Sym.IsNotNumber = true
	}
	b.addInstr(instr, offset)
}

// buildYield lowers a yield to a bailout point, a labeled bail-in slot
// registered with the generator's resume map, and the resume decode.
func (b *IRBuilder) buildYield(offset uint32, layout bytecode.Reg2Layout) {
	ir.AssertOrFailFast(b.body.IsCoroutineBody, "yield outside coroutine")

	srcOpnd := b.buildSrcOpnd(layout.R1, ir.TyVar)
	dstOpnd := b.buildDstOpnd(layout.R0, ir.TyVar)

	yieldInstr := b.fn.NewInstr(ir.OpcodeYield, dstOpnd, srcOpnd, nil)
	b.addInstr(yieldInstr, offset)
	// The bailout resumes the interpreter at the yield itself; the
	// interpreter performs the actual suspension.
	yieldInstr.ConvertToBailOutInstr(ir.NewBailOutInfo(offset), ir.BailOutForGeneratorYield)

	bailInLabel := b.fn.NewLabelInstr()
	bailInLabel.Opc = ir.OpcodeGeneratorBailInLabel
	bailInLabel.LabelName = "GeneratorBailIn"
	b.addInstr(bailInLabel, ir.NoByteCodeOffset)
	b.fn.YieldResumeLabels[offset] = bailInLabel

	resume := b.fn.NewInstr(ir.OpcodeGeneratorResumeYield, dstOpnd, nil, nil)
	b.addInstr(resume, ir.NoByteCodeOffset)
}

var reg3Opcodes = map[bytecode.OpCode]ir.Opcode{
	bytecode.OpAdd_A:   ir.OpcodeAdd_A,
	bytecode.OpSub_A:   ir.OpcodeSub_A,
	bytecode.OpMul_A:   ir.OpcodeMul_A,
	bytecode.OpDiv_A:   ir.OpcodeDiv_A,
	bytecode.OpRem_A:   ir.OpcodeRem_A,
	bytecode.OpAnd_A:   ir.OpcodeAnd_A,
	bytecode.OpOr_A:    ir.OpcodeOr_A,
	bytecode.OpXor_A:   ir.OpcodeXor_A,
	bytecode.OpShl_A:   ir.OpcodeShl_A,
	bytecode.OpShr_A:   ir.OpcodeShr_A,
	bytecode.OpCmEq_A:  ir.OpcodeCmEq_A,
	bytecode.OpCmNeq_A: ir.OpcodeCmNeq_A,
	bytecode.OpCmLt_A:  ir.OpcodeCmLt_A,
	bytecode.OpCmLe_A:  ir.OpcodeCmLe_A,
	bytecode.OpCmGt_A:  ir.OpcodeCmGt_A,
	bytecode.OpCmGe_A:  ir.OpcodeCmGe_A,
	bytecode.OpIsInst:  ir.OpcodeIsInst,
}

func (b *IRBuilder) buildReg3(newOpcode bytecode.OpCode, offset uint32, layout bytecode.Reg3Layout) {
	b.doClosureRegCheck(layout.R1)
	b.doClosureRegCheck(layout.R2)

	switch newOpcode {
	case bytecode.OpLdElemI:
		baseOpnd := b.buildSrcOpnd(layout.R1, ir.TyVar)
		indexOpnd := b.buildSrcOpnd(layout.R2, ir.TyVar)
		dstOpnd := b.buildDstOpnd(layout.R0, ir.TyVar)
		instr := b.fn.NewInstr(ir.OpcodeLdElemI_A, dstOpnd, b.buildIndirOpnd(baseOpnd, indexOpnd), nil)
		b.addInstr(instr, offset)
		return
	case bytecode.OpStElemI:
		// R0 is the value; R1/R2 are base and index.
		baseOpnd := b.buildSrcOpnd(layout.R1, ir.TyVar)
		indexOpnd := b.buildSrcOpnd(layout.R2, ir.TyVar)
		srcOpnd := b.buildSrcOpnd(layout.R0, ir.TyVar)
		instr := b.fn.NewInstr(ir.OpcodeStElemI_A, b.buildIndirOpnd(baseOpnd, indexOpnd), srcOpnd, nil)
		b.addInstr(instr, offset)
		return
	}

	opc, ok := reg3Opcodes[newOpcode]
	if !ok {
		ir.FatalInternalErrorf("unexpected reg3 opcode %s", newOpcode)
	}
	src1Opnd := b.buildSrcOpnd(layout.R1, ir.TyVar)
	src2Opnd := b.buildSrcOpnd(layout.R2, ir.TyVar)
	dstOpnd := b.buildDstOpnd(layout.R0, ir.TyVar)
	instr := b.fn.NewInstr(opc, dstOpnd, src1Opnd, src2Opnd)
	b.addInstr(instr, offset)
}

func (b *IRBuilder) buildReg1Unsigned1(newOpcode bytecode.OpCode, offset uint32, layout bytecode.Reg1Unsigned1Layout) {
	switch newOpcode {
	case bytecode.OpNewScopeSlots:
		dstOpnd := b.buildDstOpnd(layout.R0, ir.TyVar)
		srcOpnd := ir.NewIntConstOpnd(int64(layout.C1), ir.TyUint32)
		instr := b.fn.NewInstr(ir.OpcodeNewScopeSlots, dstOpnd, srcOpnd, nil)
		if dstOpnd.Sym.IsSingleDef {
			dstOpnd.Sym.IsNotNumber = true
		}
		b.addInstr(instr, offset)
	default:
		ir.FatalInternalErrorf("unexpected reg1unsigned1 opcode %s", newOpcode)
	}
}

func (b *IRBuilder) buildReg1Int(newOpcode bytecode.OpCode, offset uint32, layout bytecode.Reg1IntLayout) {
	ir.AssertOrFailFast(newOpcode == bytecode.OpLdC_A_I4, "unexpected reg1int opcode")
	dstOpnd := b.buildDstOpnd(layout.R0, ir.TyVar)
	instr := b.fn.NewInstr(ir.OpcodeLdC_A_I4, dstOpnd, ir.NewIntConstOpnd(int64(layout.C1), ir.TyInt32), nil)
	if dstOpnd.Sym.IsSingleDef {
		dstOpnd.Sym.IsNotNumber = false
	}
	b.addInstr(instr, offset)
}

func (b *IRBuilder) buildReg1Dbl(newOpcode bytecode.OpCode, offset uint32, layout bytecode.Reg1DblLayout) {
	ir.AssertOrFailFast(newOpcode == bytecode.OpLdC_A_R8, "unexpected reg1dbl opcode")
	dstOpnd := b.buildDstOpnd(layout.R0, ir.TyVar)
	instr := b.fn.NewInstr(ir.OpcodeLdC_A_R8, dstOpnd, &ir.FloatConstOpnd{Value: layout.C1}, nil)
	b.addInstr(instr, offset)
}

func (b *IRBuilder) buildUnsigned1(newOpcode bytecode.OpCode, offset uint32, layout bytecode.Unsigned1Layout) {
	switch newOpcode {
	case bytecode.OpProfiledLoopStart:
		if b.IsLoopBody() {
			b.insertInitLoopBodyLoopCounter(layout.C1)
		}
	case bytecode.OpProfiledLoopEnd:
		if b.IsLoopBody() && layout.C1 == b.loopNum {
			// The interpreter resumes right after the loop.
			b.insertLoopBodyReturnIPInstr(b.reader.CurrentOffset(), offset)
		}
	default:
		ir.FatalInternalErrorf("unexpected unsigned1 opcode %s", newOpcode)
	}
}

func (b *IRBuilder) buildArg(newOpcode bytecode.OpCode, offset uint32, layout bytecode.ArgLayout) {
	b.doClosureRegCheck(layout.Reg)

	typ := ir.TyVar
	if newOpcode == bytecode.OpArgOut_ANonVar {
		typ = ir.TyMachPtr
	}

	b.argsOnStack++

	argument := layout.Arg
	ir.AssertOrFailFast(argument+1 <= 0xFFFF, "arg count too big")
	symDst := b.fn.SymTable.GetArgSlotSym(uint16(argument + 1))

	dstOpnd := ir.NewSymOpnd(symDst, typ)
	src1Opnd := b.buildSrcOpnd(layout.Reg, typ)
	instr := b.fn.NewInstr(ir.OpcodeArgOut_A, dstOpnd, src1Opnd, nil)
	b.addInstr(instr, offset)

	b.argStack = append(b.argStack, instr)
}

func (b *IRBuilder) buildStartCall(newOpcode bytecode.OpCode, offset uint32, layout bytecode.StartCallLayout) {
	ir.AssertOrFailFast(newOpcode == bytecode.OpStartCall, "unexpected startcall opcode")

	// Dst of StartCall would always be r0: give it a fresh dst so it can be
	// single-def.
	dstOpnd := ir.NewRegOpnd(b.fn.SymTable.NewStackSym(ir.TyVar), ir.TyVar)
	srcOpnd := ir.NewIntConstOpnd(int64(layout.ArgCount), ir.TyInt32)
	instr := b.fn.NewInstr(ir.OpcodeStartCall, dstOpnd, srcOpnd, nil)
	b.addInstr(instr, offset)

	b.callsOnStack++

	// Keep a stack of arg instructions to link up at the consuming call.
	b.argStack = append(b.argStack, instr)
}

func (b *IRBuilder) buildCallI(newOpcode bytecode.OpCode, offset uint32, layout bytecode.CallILayout, profileID uint16) {
	b.doClosureRegCheck(layout.Return)
	b.doClosureRegCheck(layout.Function)

	returnType := ir.ValueTypeUninitialized
	isProtectedByNoProfileBailout := false

	if newOpcode.IsProfiled() {
		if b.body.HasProfileInfo() {
			returnType = b.body.Profile.GetReturnType(profileID)
		}
		if b.doBailOnNoProfile() {
			if jitTime := b.body.JITTime; jitTime != nil {
				if !jitTime.InlineesBV[profileID] {
					b.insertBailOnNoProfile(offset)
					isProtectedByNoProfileBailout = true
				}
				if !isProtectedByNoProfileBailout {
					b.callTreeHasSomeProfileInfo = true
				}
			}
			b.callSiteCount++
		}
	} else {
		profileID = ir.NoProfileID
	}

	callInstr := b.buildCallIHelper(newOpcode.ToNonProfiled(), offset, layout, profileID)
	callInstr.IsCallInstrProtectedByNoProfileBailout = isProtectedByNoProfileBailout
	if callInstr.Dst != nil && callInstr.ProfiledValueType == ir.ValueTypeUninitialized {
		callInstr.ProfiledValueType = returnType
	}
}

func (b *IRBuilder) buildCallIHelper(newOpcode bytecode.OpCode, offset uint32, layout bytecode.CallILayout, profileID uint16) *ir.Instr {
	src1Opnd := b.buildSrcOpnd(layout.Function, ir.TyVar)

	var dstOpnd *ir.RegOpnd
	var symDst *ir.StackSym
	if layout.Return != bytecode.NoRegister {
		dstOpnd = b.buildDstOpnd(layout.Return, ir.TyVar)
		symDst = dstOpnd.Sym
	}

	opc := ir.OpcodeCallI
	if newOpcode == bytecode.OpNewScObject {
		opc = ir.OpcodeNewScObject
	}

	var instr *ir.Instr
	if dstOpnd != nil {
		instr = b.fn.NewInstr(opc, dstOpnd, src1Opnd, nil)
	} else {
		instr = b.fn.NewInstr(opc, nil, src1Opnd, nil)
	}
	instr.ProfileID = profileID

	if symDst != nil && symDst.IsSingleDef && opc == ir.OpcodeNewScObject {
		symDst.IsSafeThis = true
		symDst.IsNotNumber = true
	}
	if dstOpnd != nil && opc == ir.OpcodeNewScObject {
		instr.ProfiledValueType = ir.ValueTypeUninitializedObject
	}

	b.addInstr(instr, offset)
	b.buildCallCommon(instr, uint16(layout.ArgCount))
	return instr
}

// buildCallCommon links all the args of the call into a def/use chain
// through src2, popping the arg stack back to the StartCall.
func (b *IRBuilder) buildCallCommon(instr *ir.Instr, argCount uint16) {
	prevInstr := instr
	count := 0

	var argInstr *ir.Instr
	for {
		ir.AssertOrFailFast(len(b.argStack) > 0, "call without StartCall")
		argInstr = b.argStack[len(b.argStack)-1]
		b.argStack = b.argStack[:len(b.argStack)-1]
		if argInstr.Opc == ir.OpcodeStartCall {
			break
		}
		prevInstr.Src2 = argInstr.Dst
		prevInstr = argInstr
		count++
	}

	if len(b.argStack) == 0 {
		b.callTreeHasSomeProfileInfo = false
	}

	if instr.Opc == ir.OpcodeNewScObject {
		count++
		b.argsOnStack++
	}

	prevInstr.Src2 = argInstr.Dst
	startCallCount := argInstr.Src1.(*ir.IntConstOpnd).Value
	ir.AssertOrFailFast(int64(count) == startCallCount && count == int(argCount),
		"StartCall has wrong number of arguments")

	b.callsOnStack--
	if b.fn.ArgSlotsForFunctionsCalled < b.argsOnStack {
		b.fn.ArgSlotsForFunctionsCalled = b.argsOnStack
	}
	b.argsOnStack -= uint32(argCount)

	if b.fn.JITInDebugMode {
		// Bailout after return from a call; resumes at the next instr.
		b.insertBailOutForDebugger(b.reader.CurrentOffset(), ir.BailOutIgnoreException, nil)
	}
}

var brReg1Opcodes = map[bytecode.OpCode]ir.Opcode{
	bytecode.OpBrTrue_A:  ir.OpcodeBrTrue_A,
	bytecode.OpBrFalse_A: ir.OpcodeBrFalse_A,
}

var brReg2Opcodes = map[bytecode.OpCode]ir.Opcode{
	bytecode.OpBrEq_A:  ir.OpcodeBrEq_A,
	bytecode.OpBrNeq_A: ir.OpcodeBrNeq_A,
	bytecode.OpBrGe_A:  ir.OpcodeBrGe_A,
	bytecode.OpBrGt_A:  ir.OpcodeBrGt_A,
	bytecode.OpBrLt_A:  ir.OpcodeBrLt_A,
	bytecode.OpBrLe_A:  ir.OpcodeBrLe_A,
}

func (b *IRBuilder) buildBr(newOpcode bytecode.OpCode, offset uint32, layout bytecode.BrLayout) {
	targetOffset := uint32(int64(b.reader.CurrentOffset()) + int64(layout.RelativeJumpOffset))

	var opc ir.Opcode
	switch newOpcode {
	case bytecode.OpBr:
		opc = ir.OpcodeBr
	case bytecode.OpTryCatch:
		opc = ir.OpcodeTryCatch
		b.handlerOffsetStack = append(b.handlerOffsetStack, handlerStackElement{handlerOffset: targetOffset, isCatch: true})
	case bytecode.OpTryFinally:
		opc = ir.OpcodeTryFinally
		b.handlerOffsetStack = append(b.handlerOffsetStack, handlerStackElement{handlerOffset: targetOffset, isCatch: false})
	case bytecode.OpLeave:
		opc = ir.OpcodeLeave
	case bytecode.OpLeaveNull:
		opc = ir.OpcodeLeaveNull
	default:
		ir.FatalInternalErrorf("unexpected br opcode %s", newOpcode)
	}

	branchInstr := b.fn.NewBranchInstr(opc, nil, nil)
	b.addBranchInstr(branchInstr, offset, targetOffset)
}

func (b *IRBuilder) popHandler() {
	if len(b.handlerOffsetStack) > 0 {
		b.handlerOffsetStack = b.handlerOffsetStack[:len(b.handlerOffsetStack)-1]
	}
}

func (b *IRBuilder) buildBrReg1(newOpcode bytecode.OpCode, offset uint32, layout bytecode.BrReg1Layout) {
	b.doClosureRegCheck(layout.R1)

	opc, ok := brReg1Opcodes[newOpcode]
	if !ok {
		ir.FatalInternalErrorf("unexpected brreg1 opcode %s", newOpcode)
	}
	targetOffset := uint32(int64(b.reader.CurrentOffset()) + int64(layout.RelativeJumpOffset))
	srcOpnd := b.buildSrcOpnd(layout.R1, ir.TyVar)
	branchInstr := b.fn.NewBranchInstr(opc, srcOpnd, nil)
	b.addBranchInstr(branchInstr, offset, targetOffset)
}

func (b *IRBuilder) buildBrReg2(newOpcode bytecode.OpCode, offset uint32, layout bytecode.BrReg2Layout) {
	b.doClosureRegCheck(layout.R1)
	b.doClosureRegCheck(layout.R2)

	opc, ok := brReg2Opcodes[newOpcode]
	if !ok {
		ir.FatalInternalErrorf("unexpected brreg2 opcode %s", newOpcode)
	}
	targetOffset := uint32(int64(b.reader.CurrentOffset()) + int64(layout.RelativeJumpOffset))
	src1Opnd := b.buildSrcOpnd(layout.R1, ir.TyVar)
	src2Opnd := b.buildSrcOpnd(layout.R2, ir.TyVar)
	branchInstr := b.fn.NewBranchInstr(opc, src1Opnd, src2Opnd)
	b.addBranchInstr(branchInstr, offset, targetOffset)
}

func (b *IRBuilder) buildMultiBr(newOpcode bytecode.OpCode, offset uint32, layout bytecode.MultiBrLayout) {
	ir.AssertOrFailFast(newOpcode == bytecode.OpMultiBr, "unexpected multibr opcode")
	b.doClosureRegCheck(layout.Index)

	endOffset := b.reader.CurrentOffset()
	targets := make([]uint32, len(layout.RelativeOffsets))
	for i, rel := range layout.RelativeOffsets {
		targets[i] = uint32(int64(endOffset) + int64(rel))
	}

	srcOpnd := b.buildSrcOpnd(layout.Index, ir.TyVar)
	branchInstr := b.fn.NewBranchInstr(ir.OpcodeMultiBr, srcOpnd, nil)
	b.addMultiBranchInstr(branchInstr, offset, targets)
}

func (b *IRBuilder) buildElementSlot(newOpcode bytecode.OpCode, offset uint32, layout bytecode.ElementSlotLayout) {
	if layout.SlotIndex >= b.body.ScopeSlotArraySize+scopeSlotsFirstSlotIndex {
		ir.FatalInternalErrorf("slot index %d beyond scope slot array", layout.SlotIndex)
	}

	fieldOpnd := b.buildFieldOpnd(slotOpcode(newOpcode), layout.Instance, int32(layout.SlotIndex), ir.PropertyKindSlots, ir.NoInlineCacheIndex)
	switch newOpcode {
	case bytecode.OpLdSlot:
		dstOpnd := b.buildDstOpnd(layout.Value, ir.TyVar)
		b.addInstr(b.fn.NewInstr(ir.OpcodeLdSlot, dstOpnd, fieldOpnd, nil), offset)
	case bytecode.OpStSlot:
		srcOpnd := b.buildSrcOpnd(layout.Value, ir.TyVar)
		b.addInstr(b.fn.NewInstr(ir.OpcodeStSlot, fieldOpnd, srcOpnd, nil), offset)
	default:
		ir.FatalInternalErrorf("unexpected elementslot opcode %s", newOpcode)
	}
}

func slotOpcode(op bytecode.OpCode) ir.Opcode {
	switch op {
	case bytecode.OpLdSlot, bytecode.OpLdEnvSlot, bytecode.OpLdInnerSlot:
		return ir.OpcodeLdSlot
	default:
		return ir.OpcodeStSlot
	}
}

func (b *IRBuilder) buildElementSlotI1(newOpcode bytecode.OpCode, offset uint32, layout bytecode.ElementSlotI1Layout) {
	switch newOpcode {
	case bytecode.OpLdEnvSlot, bytecode.OpStEnvSlot:
		// Load the scope out of the frame display, then access its slot.
		envReg := b.body.EnvReg
		ir.AssertOrFailFast(envReg != bytecode.NoRegister, "env slot access without env reg")
		arrFieldOpnd := b.buildFieldOpnd(ir.OpcodeLdSlotArr, envReg, int32(layout.ScopeIndex), ir.PropertyKindSlotArray, ir.NoInlineCacheIndex)
		arrOpnd := ir.NewRegOpnd(b.fn.SymTable.NewStackSym(ir.TyVar), ir.TyVar)
		b.addInstr(b.fn.NewInstr(ir.OpcodeLdSlotArr, arrOpnd, arrFieldOpnd, nil), offset)

		// The optimizer hoists closure loads; the check pins the bounds
		// the hoisted load relies on.
		b.fn.RecordFrameDisplayCheck(arrOpnd.Sym.ID, layout.ScopeIndex+1, layout.SlotIndex+1)

		slotSym := b.fn.SymTable.FindOrCreatePropertySym(arrOpnd.Sym, int32(layout.SlotIndex), ir.PropertyKindSlots, ir.NoInlineCacheIndex)
		slotOpnd := ir.NewPropertySymOpnd(slotSym, ir.NoInlineCacheIndex, ir.TyVar)
		if newOpcode == bytecode.OpLdEnvSlot {
			dstOpnd := b.buildDstOpnd(layout.Value, ir.TyVar)
			b.addInstr(b.fn.NewInstr(ir.OpcodeLdSlot, dstOpnd, slotOpnd, nil), offset)
		} else {
			srcOpnd := b.buildSrcOpnd(layout.Value, ir.TyVar)
			b.addInstr(b.fn.NewInstr(ir.OpcodeStSlot, slotOpnd, srcOpnd, nil), offset)
		}

	case bytecode.OpLdInnerSlot, bytecode.OpStInnerSlot:
		innerScopeReg := b.innerScopeIndexToRegSlot(layout.ScopeIndex)
		fieldOpnd := b.buildFieldOpnd(slotOpcode(newOpcode), innerScopeReg, int32(layout.SlotIndex), ir.PropertyKindSlots, ir.NoInlineCacheIndex)
		if newOpcode == bytecode.OpLdInnerSlot {
			dstOpnd := b.buildDstOpnd(layout.Value, ir.TyVar)
			b.addInstr(b.fn.NewInstr(ir.OpcodeLdSlot, dstOpnd, fieldOpnd, nil), offset)
		} else {
			srcOpnd := b.buildSrcOpnd(layout.Value, ir.TyVar)
			b.addInstr(b.fn.NewInstr(ir.OpcodeStSlot, fieldOpnd, srcOpnd, nil), offset)
		}

	default:
		ir.FatalInternalErrorf("unexpected elementsloti1 opcode %s", newOpcode)
	}
}

var elementCPOpcodes = map[bytecode.OpCode]ir.Opcode{
	bytecode.OpLdFld:     ir.OpcodeLdFld,
	bytecode.OpStFld:     ir.OpcodeStFld,
	bytecode.OpLdRootFld: ir.OpcodeLdRootFld,
	bytecode.OpStRootFld: ir.OpcodeStRootFld,
}

func (b *IRBuilder) buildElementCP(newOpcode bytecode.OpCode, offset uint32, layout bytecode.ElementCPLayout, profileID uint16) {
	b.doClosureRegCheck(layout.Instance)

	plain := newOpcode.ToNonProfiled()
	opc, ok := elementCPOpcodes[plain]
	if !ok {
		ir.FatalInternalErrorf("unexpected elementcp opcode %s", newOpcode)
	}

	propertyID := b.body.GetReferencedPropertyID(layout.PropertyIDIndex)
	fieldSymOpnd := b.buildFieldOpnd(opc, layout.Instance, propertyID, ir.PropertyKindData, layout.CacheIndex)

	isLoad := opc == ir.OpcodeLdFld || opc == ir.OpcodeLdRootFld
	var instr *ir.Instr
	wasNotProfiled := false
	if isLoad {
		dstOpnd := b.buildDstOpnd(layout.Value, ir.TyVar)
		instr = b.fn.NewInstr(opc, dstOpnd, fieldSymOpnd, nil)
		if profileID != ir.NoProfileID && b.body.HasProfileInfo() {
			fldInfo := b.body.Profile.GetFldInfo(layout.CacheIndex)
			instr.ProfileID = profileID
			instr.ProfiledValueType = fldInfo.ValueType
			wasNotProfiled = !fldInfo.WasLdFldProfiled
		}
	} else {
		srcOpnd := b.buildSrcOpnd(layout.Value, ir.TyVar)
		instr = b.fn.NewInstr(opc, fieldSymOpnd, srcOpnd, nil)
		if profileID != ir.NoProfileID {
			instr.ProfileID = profileID
		}
	}
	b.addInstr(instr, offset)

	if wasNotProfiled && b.doBailOnNoProfile() {
		b.insertBailOnNoProfileBefore(instr)
	}
}
