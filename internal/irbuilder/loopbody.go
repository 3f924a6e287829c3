package irbuilder

import "github.com/chakra-core/ChakraCore-sub024/internal/ir"

// isLoopBodyOuterOffset reports whether a branch target leaves the compiled
// loop body.
func (b *IRBuilder) isLoopBodyOuterOffset(offset uint32) bool {
	if !b.IsLoopBody() {
		return false
	}
	return offset >= b.loopHeader.EndOffset || offset < b.loopHeader.StartOffset
}

// getLoopBodyExitInstrOffset is where the store-slot restore sequence and the
// Ret live: one past the last loop bytecode.
func (b *IRBuilder) getLoopBodyExitInstrOffset() uint32 {
	return b.lastOffset + 1
}

// isLoopBodyReturnIPInstr reports whether instr is a load of the return-IP
// sym.
func (b *IRBuilder) isLoopBodyReturnIPInstr(instr *ir.Instr) bool {
	if instr == nil || instr.Opc != ir.OpcodeLd_I4 {
		return false
	}
	dst, ok := instr.Dst.(*ir.RegOpnd)
	return ok && dst.Sym == b.loopBodyRetIPSym
}

// ensureLoopBodyLoadSlot marks symID as live-in and inserts its LdSlot from
// the interpreter frame at function entry, once.
func (b *IRBuilder) ensureLoopBodyLoadSlot(symID ir.SymID, isCatchObjectSym bool) {
	// A catch object never loads from the frame: its slot may be
	// uninitialized.
	if isCatchObjectSym {
		return
	}
	symDst := b.fn.SymTable.FindOrCreateStackSym(symID, uint32(symID))
	if symDst.IsCatchObjectSym {
		return
	}
	ir.AssertOrFailFast(int(symID) < len(b.ldSlots), "load slot sym out of range")
	if b.ldSlots[symID] {
		return
	}
	b.ldSlots[symID] = true

	fieldSymOpnd := b.buildLoopBodySlotOpnd(symID)
	dstOpnd := ir.NewRegOpnd(symDst, ir.TyVar)
	ldSlotInstr := b.fn.NewInstr(ir.OpcodeLdSlot, dstOpnd, fieldSymOpnd, nil)

	b.fn.HeadInstr.InsertAfter(ldSlotInstr)
	if b.lastInstr == b.fn.HeadInstr {
		b.lastInstr = ldSlotInstr
	}
}

// setLoopBodyStSlot marks symID to be stored back to the interpreter frame at
// loop exit.
func (b *IRBuilder) setLoopBodyStSlot(symID ir.SymID, isCatchObjectSym bool) {
	if b.fn.HasTry {
		// A catch object never stores to the frame either.
		if isCatchObjectSym {
			return
		}
		dstSym := b.fn.SymTable.FindOrCreateStackSym(symID, uint32(symID))
		if dstSym.IsCatchObjectSym {
			return
		}
	}
	ir.AssertOrFailFast(int(symID) < len(b.stSlots), "store slot sym out of range")
	b.stSlots[symID] = true
}

// buildLoopBodySlotOpnd addresses local symID inside the interpreter frame.
func (b *IRBuilder) buildLoopBodySlotOpnd(symID ir.SymID) *ir.SymOpnd {
	loopParamSym := b.fn.EnsureLoopParamSym()
	fieldSym := b.fn.SymTable.FindOrCreatePropertySym(
		loopParamSym, int32(symID)+b.loopBodyLocalsStartSlot, ir.PropertyKindLocalSlots, ir.NoInlineCacheIndex)
	return ir.NewPropertySymOpnd(fieldSym, ir.NoInlineCacheIndex, ir.TyVar)
}

// generateLoopBodySlotAccesses loads the interpreter frame pointer from
// parameter 0 and generates the store-slots for everything the loop body
// assigned.
func (b *IRBuilder) generateLoopBodySlotAccesses(offset uint32) {
	symSrc := b.fn.SymTable.NewParamSlotSym(1)
	symSrc.Offset = 0
	b.fn.HasImplicitParamLoad = true
	srcOpnd := ir.NewSymOpnd(symSrc, ir.TyVar)

	loopParamSym := b.fn.EnsureLoopParamSym()
	loopParamOpnd := ir.NewRegOpnd(loopParamSym, ir.TyMachPtr)

	instrArgIn := b.fn.NewInstr(ir.OpcodeArgIn_A, loopParamOpnd, srcOpnd, nil)
	b.fn.HeadInstr.InsertAfter(instrArgIn)

	b.generateLoopBodyStSlots(offset)
}

func (b *IRBuilder) generateLoopBodyStSlots(offset uint32) {
	for symID, set := range b.stSlots {
		if set {
			b.generateLoopBodyStSlot(uint32(symID), offset)
		}
	}
}

// generateLoopBodyStSlot stores one register back to the interpreter frame.
// With offset given the store is appended; otherwise it is returned for the
// caller to place.
func (b *IRBuilder) generateLoopBodyStSlot(regSlot uint32, offset uint32) *ir.Instr {
	ir.AssertOrFailFast(!b.regIsConstant(regSlot), "store slot of a constant")

	fieldSymOpnd := b.buildLoopBodySlotOpnd(ir.SymID(regSlot))
	regOpnd := b.buildSrcOpnd(regSlot, ir.TyVar)
	stSlotInstr := b.fn.NewInstr(ir.OpcodeStSlot, fieldSymOpnd, regOpnd, nil)
	if offset != ir.NoByteCodeOffset {
		b.addInstr(stSlotInstr, offset)
		return nil
	}
	return stSlotInstr
}

// generateWriteThroughStSlots walks the instructions built since the last
// bytecode and stores every non-temp def straight back to the frame. Loop
// bodies inside try regions treat all such syms as write-through.
func (b *IRBuilder) generateWriteThroughStSlots(lastProcessed *ir.Instr) {
	// Walk backwards so the latest value of a sym id wins; stSlots keeps a
	// sym from being stored twice.
	for instr := b.lastInstr; instr != lastProcessed; instr = instr.Prev() {
		dst, ok := instr.Dst.(*ir.RegOpnd)
		if !ok || !dst.Sym.HasByteCodeRegSlot() {
			continue
		}
		dstSym := dst.Sym
		dstRegSlot := dstSym.ByteCodeRegSlot
		if b.regIsTemp(dstRegSlot) || b.regIsConstant(dstRegSlot) {
			continue
		}
		symID := dstSym.ID
		ir.AssertOrFailFast(int(symID) < len(b.stSlots), "write-through sym out of range")
		if b.stSlots[symID] {
			stSlot := b.generateLoopBodyStSlot(dstRegSlot, ir.NoByteCodeOffset)
			stSlot.CopyByteCodeOffset(b.lastInstr)
			b.lastInstr.InsertAfter(stSlot)
			b.lastInstr = stSlot
			b.stSlots[symID] = false
		} else {
			ir.AssertOrFailFast(dstSym.IsCatchObjectSym, "write-through sym missing from store set")
		}
	}
}

// createLoopBodyReturnIPInstr loads the bytecode offset the interpreter
// resumes at into the return-IP sym.
func (b *IRBuilder) createLoopBodyReturnIPInstr(targetOffset uint32) *ir.Instr {
	retOpnd := ir.NewRegOpnd(b.loopBodyRetIPSym, ir.TyMachReg)
	exitOffsetOpnd := ir.NewIntConstOpnd(int64(targetOffset), ir.TyMachReg)
	return b.fn.NewInstr(ir.OpcodeLd_I4, retOpnd, exitOffsetOpnd, nil)
}

func (b *IRBuilder) insertLoopBodyReturnIPInstr(targetOffset, offset uint32) ir.Opnd {
	setRetValueInstr := b.createLoopBodyReturnIPInstr(targetOffset)
	b.addInstr(setRetValueInstr, offset)
	return setRetValueInstr.Dst
}

// insertInitLoopBodyLoopCounter initializes the loop counter at the loop's
// ProfiledLoopStart.
func (b *IRBuilder) insertInitLoopBodyLoopCounter(loopNum uint32) {
	ir.AssertOrFailFast(b.IsLoopBody(), "loop counter outside loop body")
	if loopNum != b.loopNum || b.loopCounterSym != nil {
		return
	}

	b.loopCounterSym = b.fn.SymTable.NewStackSym(ir.TyVar)
	loopCounterOpnd := ir.NewRegOpnd(b.loopCounterSym, ir.TyVar)
	loopCounterOpnd.IsJITOptimizedReg = true

	initInstr := b.fn.NewInstr(ir.OpcodeInitLoopBodyCount, loopCounterOpnd, nil, nil)
	b.lastInstr.InsertAfter(initInstr)
	b.lastInstr = initInstr
	initInstr.SetByteCodeOffset(b.reader.CurrentOffset())
}

// insertIncrLoopBodyLoopCounter bumps the counter at a loop top.
func (b *IRBuilder) insertIncrLoopBodyLoopCounter(loopTopLabelInstr *ir.Instr) {
	ir.AssertOrFailFast(b.IsLoopBody(), "loop counter outside loop body")

	loopCounterOpnd := ir.NewRegOpnd(b.loopCounterSym, ir.TyInt32)
	loopCounterOpnd.IsJITOptimizedReg = true
	incr := b.fn.NewInstr(ir.OpcodeIncrLoopBodyCount, loopCounterOpnd, loopCounterOpnd, nil)

	nextRealInstr := loopTopLabelInstr.GetNextRealInstr()
	b.insertInstr(incr, nextRealInstr)
}

// insertDoneLoopBodyLoopCounter publishes the counter at loop exit.
func (b *IRBuilder) insertDoneLoopBodyLoopCounter(lastOffset uint32) {
	if b.loopCounterSym == nil {
		return
	}
	countRegOpnd := ir.NewRegOpnd(b.loopCounterSym, ir.TyInt32)
	countRegOpnd.IsJITOptimizedReg = true
	loopCounterStoreInstr := b.fn.NewInstr(ir.OpcodeStLoopBodyCount, nil, countRegOpnd, nil)
	b.addInstr(loopCounterStoreInstr, lastOffset+1)
}
