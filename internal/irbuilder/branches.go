package irbuilder

import "github.com/chakra-core/ChakraCore-sub024/internal/ir"

// branchReloc is a pending branch whose target bytecode offset has not yet
// been assigned a label.
type branchReloc struct {
	branchInstr  *ir.Instr
	branchOffset uint32
	// offset is the target bytecode offset.
	offset uint32
	// multiBrOffsets are the per-case target offsets of a MultiBr.
	multiBrOffsets []uint32
	// notBackEdge suppresses loop-top marking for branches that only jump
	// backwards structurally, e.g. loop-body exit rejoins.
	notBackEdge bool
}

// addBranchInstr creates a branch/offset pair to be fixed up at the end of
// the build, and adds the instruction.
func (b *IRBuilder) addBranchInstr(branchInstr *ir.Instr, offset, targetOffset uint32) *branchReloc {
	ir.AssertOrFailFast(targetOffset <= uint32(len(b.body.ByteCode)), "branch target out of range")
	// Loop jitting only decodes up to the loop end; branches beyond that
	// leave the loop body and return to the interpreter.
	if b.isLoopBodyOuterOffset(targetOffset) {
		// If the loop IP sym was already loaded for this instruction,
		// don't load it again.
		if !b.isLoopBodyReturnIPInstr(b.lastInstr) {
			b.insertLoopBodyReturnIPInstr(targetOffset, offset)
		}
		// Jump to the restore StSlots and Ret instead.
		targetOffset = b.getLoopBodyExitInstrOffset()
	}

	reloc := &branchReloc{branchInstr: branchInstr, branchOffset: offset, offset: targetOffset}
	b.branchRelocList = append(b.branchRelocList, reloc)
	b.addInstr(branchInstr, offset)
	return reloc
}

// addMultiBranchInstr records a reloc covering every case target.
func (b *IRBuilder) addMultiBranchInstr(branchInstr *ir.Instr, offset uint32, targetOffsets []uint32) {
	for _, t := range targetOffsets {
		ir.AssertOrFailFast(t <= uint32(len(b.body.ByteCode)), "multibr target out of range")
	}
	reloc := &branchReloc{branchInstr: branchInstr, branchOffset: offset, multiBrOffsets: targetOffsets}
	b.branchRelocList = append(b.branchRelocList, reloc)
	b.addInstr(branchInstr, offset)
}

// insertLabels inserts label instructions at the offsets recorded in the
// branch reloc list and resolves every branch to its label.
func (b *IRBuilder) insertLabels() {
	for _, reloc := range b.branchRelocList {
		branchInstr := reloc.branchInstr
		if branchInstr.Opc == ir.OpcodeMultiBr {
			branchInstr.MultiBrTargets = make([]*ir.Instr, len(reloc.multiBrOffsets))
			for i, t := range reloc.multiBrOffsets {
				branchInstr.MultiBrTargets[i] = b.createLabel(t)
			}
			continue
		}

		labelInstr := b.createLabel(reloc.offset)
		branchInstr.Target = labelInstr

		if !reloc.notBackEdge && reloc.branchOffset >= reloc.offset {
			wasLoopTop := labelInstr.IsLoopTop
			labelInstr.IsLoopTop = true

			if b.fn.JITInDebugMode {
				// Bailout for async break on the back edge.
				b.insertBailOutForDebugger(branchInstr.ByteCodeOffset(),
					ir.BailOutForceByFlag|ir.BailOutBreakPointInFunction|ir.BailOutAsyncBreak, branchInstr)
			}

			if !wasLoopTop && b.loopCounterSym != nil {
				b.insertIncrLoopBodyLoopCounter(labelInstr)
			}
		}
	}
}

// createLabel finds or creates the label for the instruction at offset. When
// no instruction was built exactly at offset (the bytecode there decoded into
// nothing), the label attaches to the next built offset.
func (b *IRBuilder) createLabel(offset uint32) *ir.Instr {
	var targetInstr *ir.Instr
	for {
		ir.AssertOrFailFast(offset < b.offsetToInstructionCount, "branch target beyond instruction map")
		targetInstr = b.offsetToInstruction[offset]
		if targetInstr != nil {
			break
		}
		offset++
	}

	instrPrev := targetInstr.Prev()
	if instrPrev != nil {
		instrPrev = targetInstr.GetPrevRealInstrOrLabel()
	}

	if instrPrev != nil && instrPrev.IsLabelInstr() && instrPrev.ByteCodeOffset() == offset {
		// An existing label at the right offset: reuse it.
		return instrPrev
	}

	labelInstr := b.fn.NewLabelInstr()
	labelInstr.SetByteCodeOffset(offset)
	if instrPrev != nil {
		instrPrev.InsertAfter(labelInstr)
	} else {
		targetInstr.InsertBefore(labelInstr)
	}
	return labelInstr
}
