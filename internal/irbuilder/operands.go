package irbuilder

import (
	"github.com/chakra-core/ChakraCore-sub024/internal/bytecode"
	"github.com/chakra-core/ChakraCore-sub024/internal/ir"
)

func (b *IRBuilder) regIsTemp(reg uint32) bool {
	return b.body.RegIsTemp(reg)
}

func (b *IRBuilder) regIsConstant(reg uint32) bool {
	return reg != bytecode.NoRegister && b.body.RegIsConstant(reg)
}

func (b *IRBuilder) getMappedTemp(reg uint32) ir.SymID {
	return b.tempMap[reg-b.firstTemp]
}

func (b *IRBuilder) setMappedTemp(reg uint32, sym ir.SymID) {
	b.tempMap[reg-b.firstTemp] = sym
}

// buildSrcStackSymID maps a register slot to the SymID of its current value,
// remapping temps and recording loop-body load slots.
func (b *IRBuilder) buildSrcStackSymID(regSlot uint32) ir.SymID {
	var symID ir.SymID
	if b.regIsTemp(regSlot) {
		// A use of a temp: map the reg slot to its sym id. Temp uses must
		// always be processed before the same instruction's temp defs.
		symID = b.getMappedTemp(regSlot)
		if symID == 0 {
			// A temp live into the loop body via a with scope: treat it
			// as a local and don't remap.
			ir.AssertOrFailFast(b.IsLoopBody(), "unmapped temp outside loop body")
			symID = ir.SymID(regSlot)
			b.setMappedTemp(regSlot, symID)
			b.ensureLoopBodyLoadSlot(symID, false)
		}
	} else {
		symID = ir.SymID(regSlot)
		if b.IsLoopBody() && !b.regIsConstant(regSlot) {
			b.ensureLoopBodyLoadSlot(symID, false)
		}
	}
	return symID
}

// buildSrcOpnd creates a StackSym and returns a RegOpnd for this RegSlot.
func (b *IRBuilder) buildSrcOpnd(srcRegSlot uint32, typ ir.Type) *ir.RegOpnd {
	symID := b.buildSrcStackSymID(srcRegSlot)
	symSrc := b.fn.SymTable.FindOrCreateStackSym(symID, srcRegSlot)
	return ir.NewRegOpnd(symSrc, typ)
}

// buildDstOpnd creates a StackSym and returns a RegOpnd for this RegSlot.
// Temps get a fresh sym id on re-def so they stay single-def.
func (b *IRBuilder) buildDstOpnd(dstRegSlot uint32, typ ir.Type) *ir.RegOpnd {
	return b.buildDstOpndEx(dstRegSlot, typ, false, false)
}

func (b *IRBuilder) buildDstOpndEx(dstRegSlot uint32, typ ir.Type, isCatchObjectSym, reuseTemp bool) *ir.RegOpnd {
	var symID ir.SymID
	regSlotForSym := dstRegSlot

	if b.regIsTemp(dstRegSlot) {
		if b.IsLoopBody() {
			// A temp defed here must not have been loaded via LdSlot:
			// only with-scope values are, and those have no defs.
			ir.AssertOrFailFast(!b.ldSlots[dstRegSlot], "def of a with-scope temp")
			b.usedAsTemp[dstRegSlot-b.firstTemp] = true
		}
		// A def of a temp: a re-def of an already mapped temp gets a new
		// sym id unless reuseTemp is set.
		symID = b.getMappedTemp(dstRegSlot)
		if symID == 0 {
			// First sight of the temp; keep the front end's number.
			symID = ir.SymID(dstRegSlot)
			b.setMappedTemp(dstRegSlot, symID)
		} else if !reuseTemp {
			// Byte code did not say to reuse the mapped temp, so don't.
			symID = b.fn.SymTable.NewID()
			b.setMappedTemp(dstRegSlot, symID)
		}
	} else {
		symID = ir.SymID(dstRegSlot)
		if b.regIsConstant(dstRegSlot) {
			// Constant registers are not tracked for bailout.
			regSlotForSym = bytecode.NoRegister
		} else if b.IsLoopBody() {
			b.setLoopBodyStSlot(symID, isCatchObjectSym)
			// The sym must also be loaded so it is defined on all paths.
			b.ensureLoopBodyLoadSlot(symID, isCatchObjectSym)
		}
	}

	regSlotBacking := regSlotForSym
	if regSlotBacking == bytecode.NoRegister {
		regSlotBacking = ir.NoRegSlot
	}
	symDst := b.fn.SymTable.FindOrCreateStackSym(symID, regSlotBacking)
	if isCatchObjectSym {
		symDst.IsCatchObjectSym = true
	}

	// Reset isSafeThis on every def; only single-def sites re-establish it.
	symDst.IsSafeThis = false

	return ir.NewRegOpnd(symDst, typ)
}

// buildDstOpndForSym wraps a JIT-internal sym as a destination.
func (b *IRBuilder) buildDstOpndForSym(sym *ir.StackSym) *ir.RegOpnd {
	return ir.NewRegOpnd(sym, sym.Type)
}

// buildIndirOpnd returns base[index].
func (b *IRBuilder) buildIndirOpnd(baseReg, indexReg *ir.RegOpnd) *ir.IndirOpnd {
	return ir.NewIndirOpnd(baseReg, indexReg, ir.TyVar)
}

// buildIndirOpndOffset returns base[offset].
func (b *IRBuilder) buildIndirOpndOffset(baseReg *ir.RegOpnd, offset int32, typ ir.Type) *ir.IndirOpnd {
	return ir.NewIndirOpndOffset(baseReg, offset, typ)
}

// buildFieldSym resolves the property sym for (reg, propertyID).
func (b *IRBuilder) buildFieldSym(reg uint32, propertyID int32, kind ir.PropertyKind, cacheIndex uint32) *ir.PropertySym {
	symID := b.buildSrcStackSymID(reg)
	parent := b.fn.SymTable.FindOrCreateStackSym(symID, reg)
	return b.fn.SymTable.FindOrCreatePropertySym(parent, propertyID, kind, cacheIndex)
}

// buildFieldOpnd builds the SymOpnd for a field access, attaching the inline
// cache index when the access site has one.
func (b *IRBuilder) buildFieldOpnd(opcode ir.Opcode, reg uint32, propertyID int32, kind ir.PropertyKind, cacheIndex uint32) *ir.SymOpnd {
	ir.AssertOrFailFast(cacheIndex < b.body.InlineCacheCount || cacheIndex == ir.NoInlineCacheIndex,
		"inline cache index out of range")
	propertySym := b.buildFieldSym(reg, propertyID, kind, cacheIndex)
	symOpnd := ir.NewPropertySymOpnd(propertySym, cacheIndex, ir.TyVar)
	if cacheIndex != ir.NoInlineCacheIndex && propertySym.LoadCacheIndex == ir.NoInlineCacheIndex {
		if opcode == ir.OpcodeLdFld || opcode == ir.OpcodeLdRootFld {
			propertySym.LoadCacheIndex = cacheIndex
		}
	}
	return symOpnd
}

// doClosureRegCheck fails the compile when a register that must stay under
// the builder's control shows up as a general operand.
func (b *IRBuilder) doClosureRegCheck(reg uint32) {
	if reg == bytecode.NoRegister {
		return
	}
	if reg == b.body.EnvReg ||
		reg == b.body.LocalClosureReg ||
		reg == b.body.LocalFrameDisplayReg ||
		reg == b.body.ParamClosureReg {
		ir.FatalInternalErrorf("closure register %d used as general operand", reg)
	}
}

// innerScopeIndexToRegSlot maps an inner-scope index to its register, failing
// the compile when the index is out of range.
func (b *IRBuilder) innerScopeIndexToRegSlot(index uint32) uint32 {
	if index >= b.body.InnerScopeCount {
		ir.FatalInternalErrorf("inner scope index %d out of range", index)
	}
	reg := b.body.FirstInnerScopeReg + index
	if reg >= b.body.LocalsCount {
		ir.FatalInternalErrorf("inner scope register %d out of range", reg)
	}
	return reg
}
