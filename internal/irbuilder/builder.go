// Package irbuilder translates stack-based bytecode for one function body or
// one loop body into the linear IR consumed by the optimizer. Construction is
// single pass: instructions are appended in bytecode order, branches record
// relocs that are resolved into labels after the last bytecode, and loop-body
// and coroutine specializations splice their extra IR at known positions.
package irbuilder

import (
	"github.com/chakra-core/ChakraCore-sub024/internal/buildoptions"
	"github.com/chakra-core/ChakraCore-sub024/internal/bytecode"
	"github.com/chakra-core/ChakraCore-sub024/internal/ir"
)

type handlerStackElement struct {
	handlerOffset uint32
	isCatch       bool
}

// IRBuilder builds the IR for a single Func. One shot: construct, call
// Build, discard.
type IRBuilder struct {
	fn   *ir.Func
	body *bytecode.FunctionBody

	reader     *bytecode.Reader
	stmtReader *bytecode.StatementReader

	// argStack collects ArgOut/StartCall instructions until the call that
	// consumes them links them into its src2 chain.
	argStack []*ir.Instr

	branchRelocList []*branchReloc

	// offsetToInstruction maps each bytecode offset to the first IR
	// instruction built from it, for label insertion.
	offsetToInstruction      []*ir.Instr
	offsetToInstructionCount uint32

	lastInstr           *ir.Instr
	functionStartOffset uint32

	// Temp remapping. A re-def of a temp register gets a fresh SymID,
	// unless the def asks to reuse the mapped one, so temps stay single-def
	// across loop bodies.
	firstTemp uint32
	tempMap   []ir.SymID
	// usedAsTemp tracks temps defed in this build, to catch temps that are
	// live through a loop body via a with scope.
	usedAsTemp map[uint32]bool

	// Loop body state.
	isLoopBody              bool
	loopHeader              bytecode.LoopHeader
	loopNum                 uint32
	ldSlots                 []bool
	stSlots                 []bool
	loopBodyRetIPSym        *ir.StackSym
	loopCounterSym          *ir.StackSym
	loopBodyLocalsStartSlot int32

	// lastOffset is the offset of the last bytecode to decode.
	lastOffset uint32

	handlerOffsetStack []handlerStackElement

	// Call bookkeeping.
	argsOnStack  uint32
	callsOnStack int

	// callTreeHasSomeProfileInfo gates BailOnNoProfile: once any call in
	// the current outermost call tree has profile data the fence is not
	// inserted. Reset when the arg stack drains.
	callTreeHasSomeProfileInfo bool

	callSiteCount uint16

	generatorJumpTable generatorJumpTable

	// ignoreExBranchInstrToOffset defers debugger bailouts on branches
	// until labels are finalized.
	ignoreExBranchInstrToOffset map[*ir.Instr]uint32
}

// BuildOptions selects what is being compiled.
type BuildOptions struct {
	// IsLoopBody compiles one loop body for on-stack replacement instead of
	// the whole function.
	IsLoopBody bool
	// LoopNumber selects the loop when IsLoopBody is set.
	LoopNumber uint32
	// JITInDebugMode builds debugger bailouts into the IR.
	JITInDebugMode bool
}

// New returns a builder for the function body.
func New(fn *ir.Func, body *bytecode.FunctionBody, opts BuildOptions) *IRBuilder {
	fn.HasTry = body.HasTry
	fn.HasFinally = body.HasFinally
	fn.IsCoroutine = body.IsCoroutineBody
	fn.IsLoopBodyFunc = opts.IsLoopBody
	fn.JITInDebugMode = opts.JITInDebugMode
	fn.StackScopeSlots = body.DoStackScopeSlots && !opts.IsLoopBody && !body.IsCoroutineBody
	fn.StackFrameDisplay = fn.StackScopeSlots
	// Inlined arguments can stay in registers only while nothing in the
	// body re-materializes the frame: try handlers, yields, and closure
	// environments all do, and loop bodies read theirs from the
	// interpreter.
	fn.CanDoInlineArgOpt = !body.HasTry && !body.IsCoroutineBody && !opts.IsLoopBody &&
		body.LocalClosureReg == bytecode.NoRegister

	b := &IRBuilder{
		fn:         fn,
		body:       body,
		reader:     bytecode.NewReader(body.ByteCode),
		stmtReader: bytecode.NewStatementReader(body),
		isLoopBody: opts.IsLoopBody,
		loopNum:    opts.LoopNumber,
		firstTemp:  body.FirstTmpReg,
	}
	if opts.IsLoopBody {
		ir.AssertOrFailFast(int(opts.LoopNumber) < len(body.LoopHeaders), "loop number out of range")
		b.loopHeader = body.LoopHeaders[opts.LoopNumber]
	}
	return b
}

// IsLoopBody reports whether a loop body is being compiled.
func (b *IRBuilder) IsLoopBody() bool {
	return b.isLoopBody
}

// IsLoopBodyInTry reports whether the compiled loop body sits inside a try
// region, which forces write-through stores for all non-temp defs.
func (b *IRBuilder) IsLoopBodyInTry() bool {
	return b.isLoopBody && b.body.HasTry
}

// Build reads the bytecode for this function and generates IR. This is the
// builder's only entry point.
func (b *IRBuilder) Build() {
	if tempCount := b.body.TempCount(); tempCount > 0 {
		b.tempMap = make([]ir.SymID, tempCount)
		b.usedAsTemp = map[uint32]bool{}
	}

	b.fn.InitInstrList()
	b.lastInstr = b.fn.HeadInstr

	if b.body.LocalClosureReg != bytecode.NoRegister {
		b.fn.InitLocalClosureSyms()
	}

	b.functionStartOffset = b.reader.CurrentOffset()

	// The trailing EndOfBlock is never dispatched.
	ir.AssertOrFailFast(len(b.body.ByteCode) >= 2, "bytecode missing EndOfBlock")
	lastOffset := uint32(len(b.body.ByteCode)) - 2
	offsetToInstructionCount := lastOffset
	if b.isLoopBody {
		// LdSlot covers all the registers including the temps, because
		// those may be treated as locals for the value of a with scope.
		b.ldSlots = make([]bool, b.body.LocalsCount)
		b.stSlots = make([]bool, b.body.FirstTmpReg)
		b.loopBodyRetIPSym = b.fn.SymTable.NewStackSym(ir.TyMachReg)

		lastOffset = b.loopHeader.EndOffset
		ir.AssertOrFailFast(lastOffset < uint32(len(b.body.ByteCode)), "loop body end out of range")
		// Ret is created at lastOffset + 1, so lastOffset + 2 entries.
		offsetToInstructionCount = lastOffset + 2
		b.loopBodyLocalsStartSlot = interpreterFrameLocalsStartSlot

		b.reader.SeekTo(b.loopHeader.StartOffset)
		b.functionStartOffset = b.loopHeader.StartOffset
	}
	b.lastOffset = lastOffset
	b.offsetToInstructionCount = offsetToInstructionCount
	b.offsetToInstruction = make([]*ir.Instr, offsetToInstructionCount)

	b.buildConstantLoads()

	if !b.isLoopBody && b.body.HasImplicitArgIns {
		b.buildImplicitArgIns()
	}
	if !b.isLoopBody && b.body.HasRestParameter {
		b.buildArgInRest()
	}

	// The first bailout in the function: locals on the stack are not yet
	// initialized to undefined, so nothing is restored. For coroutines the
	// bailout goes after the jump table instead, otherwise resuming would
	// loop back to the function start forever.
	if b.fn.JITInDebugMode && !b.body.IsCoroutineBody {
		b.insertBailOutForDebugger(b.functionStartOffset,
			ir.BailOutForceByFlag|ir.BailOutBreakPointInFunction|ir.BailOutStep, nil)
	}

	if !b.isLoopBody {
		b.buildPrologue()
	}

	offset := b.functionStartOffset
	statementIndex := bytecode.NoStatementIndex
	if b.stmtReader.AtStatementBoundary(b.reader) {
		statementIndex = b.addStatementBoundary(offset)
	}

	b.ignoreExBranchInstrToOffset = map[*ir.Instr]uint32{}

	lastProcessedInstrForJITLoopBody := b.fn.HeadInstr

	for newOpcode, layoutSize := b.reader.ReadOp(); b.reader.CurrentOffset() <= b.lastOffset; newOpcode, layoutSize = b.reader.ReadOp() {
		ir.AssertOrFailFast(newOpcode != bytecode.OpEndOfBlock, "EndOfBlock in instruction stream")

		b.buildInstr(newOpcode, layoutSize, offset)

		if b.IsLoopBodyInTry() && lastProcessedInstrForJITLoopBody != b.lastInstr {
			// Store write-through syms as they are defined so the
			// interpreter frame is current if the try rethrows.
			b.generateWriteThroughStSlots(lastProcessedInstrForJITLoopBody)
			lastProcessedInstrForJITLoopBody = b.lastInstr
		}

		offset = b.reader.CurrentOffset()

		for b.stmtReader.AtStatementBoundary(b.reader) {
			statementIndex = b.addStatementBoundary(offset)
		}
	}

	if statementIndex != bytecode.NoStatementIndex {
		// Still inside a user statement: close it with a trailing pragma.
		b.addInstr(b.fn.NewPragmaInstr(statementIndex), ir.NoByteCodeOffset)
	}

	if b.isLoopBody {
		// Insert the LdSlot/StSlot and Ret.
		retOpnd := b.insertLoopBodyReturnIPInstr(offset, offset)

		// Restore and Ret are at the last offset + 1.
		b.generateLoopBodySlotAccesses(b.lastOffset + 1)

		b.insertDoneLoopBodyLoopCounter(b.lastOffset)

		retInstr := b.fn.NewInstr(ir.OpcodeRet, nil, retOpnd, nil)
		b.addInstr(retInstr, b.lastOffset+1)
	}

	// Now fix up the targets for all the branches introduced above.
	b.insertLabels()

	ir.AssertOrFailFast(len(b.handlerOffsetStack) == 0, "unbalanced try handlers")

	// Debugger bailouts for branches could only be attached once labels
	// were finalized.
	for instr, bcOffset := range b.ignoreExBranchInstrToOffset {
		instr.ConvertToBailOutInstr(ir.NewBailOutInfo(bcOffset), debuggerBaseBailOutKindForHelper)
	}

	b.emitClosureRangeChecks()

	if b.fn.HasTry && !b.isLoopBody && len(b.body.LoopHeaders) > 0 {
		b.insertByteCodeUsesBeforeRet()
	}
}

// interpreterFrameLocalsStartSlot is the offset of the locals array in the
// interpreter frame, as a Var-sized slot index.
const interpreterFrameLocalsStartSlot = int32(6)

// debuggerBaseBailOutKindForHelper is the kind used when execution must
// resume in the interpreter after a throwing helper under the debugger.
const debuggerBaseBailOutKindForHelper = ir.BailOutIgnoreException

// addInstr appends instr to the list and indexes it by bytecode offset so
// branches and labels can be patched afterwards.
func (b *IRBuilder) addInstr(instr *ir.Instr, offset uint32) {
	b.lastInstr.InsertAfter(instr)
	if dst, ok := instr.Dst.(*ir.RegOpnd); ok {
		if dst.Sym.InstrDef == nil && dst.Sym.IsSingleDef {
			dst.Sym.InstrDef = instr
		} else {
			dst.Sym.IsSingleDef = false
			dst.Sym.InstrDef = nil
		}
	}
	if offset != ir.NoByteCodeOffset {
		ir.AssertOrFailFast(offset < b.offsetToInstructionCount, "bytecode offset out of range")
		if b.offsetToInstruction[offset] == nil {
			b.offsetToInstruction[offset] = instr
		}
		instr.SetByteCodeOffset(offset)
	} else {
		instr.SetByteCodeOffset(b.lastInstr.ByteCodeOffset())
	}
	b.lastInstr = instr

	if !b.fn.HasTempObjectProducingInstr && instr.Opc.TempObjectProducing() {
		b.fn.HasTempObjectProducingInstr = true
	}

	if buildoptions.IRBuilderTrace {
		println(instr.Format())
	}
}

// insertInstr places instr immediately before insertBeforeInstr, keeping the
// offset index pointed at the earliest instruction of each offset.
func (b *IRBuilder) insertInstr(instr, insertBeforeInstr *ir.Instr) {
	offset := insertBeforeInstr.ByteCodeOffset()
	ir.AssertOrFailFast(offset < b.offsetToInstructionCount || offset == ir.NoByteCodeOffset,
		"insertion point out of range")
	instr.CopyByteCodeOffset(insertBeforeInstr)
	if offset != ir.NoByteCodeOffset && b.offsetToInstruction[offset] == insertBeforeInstr {
		b.offsetToInstruction[offset] = instr
	}
	insertBeforeInstr.InsertBefore(instr)
}

// addStatementBoundary emits the pragma for the boundary at offset, advances
// the statement reader, and returns the index of the statement now open.
// Subexpression boundaries carry NoStatementIndex and are suppressed in
// debug mode.
func (b *IRBuilder) addStatementBoundary(offset uint32) uint32 {
	statementIndex := b.stmtReader.CurrentStatementIndex()
	if !b.fn.JITInDebugMode || statementIndex != bytecode.NoStatementIndex {
		pragma := b.fn.NewPragmaInstr(statementIndex)
		b.addInstr(pragma, offset)
	}
	b.stmtReader.MoveNext()
	return statementIndex
}

// insertBailOutForDebugger emits a debugger bailout at byteCodeOffset, before
// insertBeforeInstr when given, else appended.
func (b *IRBuilder) insertBailOutForDebugger(byteCodeOffset uint32, kind ir.BailOutKind, insertBeforeInstr *ir.Instr) {
	instr := b.fn.NewInstr(ir.OpcodeBailForDebugger, nil, nil, nil)
	instr.ConvertToBailOutInstr(ir.NewBailOutInfo(byteCodeOffset), kind)
	if insertBeforeInstr != nil {
		b.insertInstr(instr, insertBeforeInstr)
	} else {
		b.addInstr(instr, ir.NoByteCodeOffset)
	}
}

// buildConstantLoads emits one load per constant-table register.
func (b *IRBuilder) buildConstantLoads() {
	for reg := bytecode.FirstRegSlot; reg < b.body.ConstCount; reg++ {
		c := b.body.Constants[reg]
		dstOpnd := b.buildDstOpnd(reg, ir.TyVar)
		ir.AssertOrFailFast(b.body.RegIsConstant(reg), "constant load outside constant area")
		dstOpnd.Sym.IsFromConstantTable = true
		dstOpnd.Sym.IsConst = true

		var src ir.Opnd
		if c.Kind == bytecode.ConstNull {
			src = ir.NewNullAddrOpnd()
		} else {
			src = ir.NewAddrOpnd(c.Addr, ir.AddrOpndKindDynamicVar)
		}
		instr := b.fn.NewInstr(ir.OpcodeLdAddr, dstOpnd, src, nil)
		if dstOpnd.Sym.IsSingleDef {
			dstOpnd.Sym.IsNotNumber = c.Kind != bytecode.ConstNumber
		}
		b.addInstr(instr, ir.NoByteCodeOffset)
	}
}

// buildImplicitArgIns emits an ArgIn for each declared parameter.
func (b *IRBuilder) buildImplicitArgIns() {
	startReg := b.body.ConstCount - 1
	for i := uint16(1); i < b.body.InParamsCount; i++ {
		b.buildArgIn(ir.NoByteCodeOffset, startReg+uint32(i), i)
	}
}

// buildArgIn emits dst = ArgIn_A param[argument+1].
func (b *IRBuilder) buildArgIn(offset uint32, dstRegSlot uint32, argument uint16) {
	symSrc := b.fn.SymTable.NewParamSlotSym(argument + 1)
	srcOpnd := ir.NewSymOpnd(symSrc, ir.TyVar)
	dstOpnd := b.buildDstOpnd(dstRegSlot, ir.TyVar)
	instr := b.fn.NewInstr(ir.OpcodeArgIn_A, dstOpnd, srcOpnd, nil)
	b.addInstr(instr, offset)
}

// buildArgInRest emits the rest-parameter ArgIn.
func (b *IRBuilder) buildArgInRest() {
	restReg := b.body.ConstCount - 1 + uint32(b.body.InParamsCount)
	dstOpnd := b.buildDstOpnd(restReg, ir.TyVar)
	instr := b.fn.NewInstr(ir.OpcodeArgInRest, dstOpnd, nil, nil)
	b.addInstr(instr, ir.NoByteCodeOffset)
	if dstOpnd.Sym.IsSingleDef {
		dstOpnd.Sym.IsNotNumber = true
	}
}

// buildPrologue does the implicit operations LdEnv, NewScopeSlots,
// LdFrameDisplay as indicated by the function body attributes, with the
// generator jump table pinned between environment and closure creation.
func (b *IRBuilder) buildPrologue() {
	offset := ir.NoByteCodeOffset

	envReg := b.body.EnvReg
	if envReg != bytecode.NoRegister && !b.body.RegIsConstant(envReg) {
		var newOpcode ir.Opcode
		var srcOpnd *ir.RegOpnd
		thisReg := b.body.ThisRegForEventHandler
		if thisReg != bytecode.NoRegister {
			b.buildArgIn(offset, thisReg, 0)
			srcOpnd = b.buildSrcOpnd(thisReg, ir.TyVar)
			newOpcode = ir.OpcodeLdHandlerScope
		} else {
			newOpcode = ir.OpcodeLdEnv
		}
		dstOpnd := b.buildDstOpnd(envReg, ir.TyVar)
		instr := b.fn.NewInstr(newOpcode, dstOpnd, nil, nil)
		if srcOpnd != nil {
			instr.Src1 = srcOpnd
		}
		if dstOpnd.Sym.IsSingleDef {
			dstOpnd.Sym.IsNotNumber = true
		}
		b.addInstr(instr, offset)
	}

	// The jump table goes right after environment and constants are loaded
	// and before any other object is created, so that resuming a generator
	// does not re-create objects the bail-in code will restore.
	b.generatorJumpTable.build(b)

	if b.fn.JITInDebugMode && b.body.IsCoroutineBody {
		b.insertBailOutForDebugger(b.functionStartOffset,
			ir.BailOutForceByFlag|ir.BailOutBreakPointInFunction|ir.BailOutStep, nil)
	}

	funcExprScopeReg := b.body.FuncExprScopeReg
	var frameDisplayOpnd *ir.RegOpnd
	if funcExprScopeReg != bytecode.NoRegister {
		funcExprScopeOpnd := b.buildDstOpnd(funcExprScopeReg, ir.TyVar)
		instr := b.fn.NewInstr(ir.OpcodeNewPseudoScope, funcExprScopeOpnd, nil, nil)
		b.addInstr(instr, offset)
	}

	closureReg := b.body.LocalClosureReg
	var closureOpnd *ir.RegOpnd
	if closureReg != bytecode.NoRegister {
		ir.AssertOrFailFast(!b.body.RegIsConstant(closureReg), "closure reg must not be constant")
		if b.fn.StackScopeSlots {
			closureOpnd = ir.NewRegOpnd(b.fn.SymTable.NewStackSym(ir.TyVar), ir.TyVar)
		} else {
			closureOpnd = b.buildDstOpnd(closureReg, ir.TyVar)
		}
		var instr *ir.Instr
		if b.body.HasScopeObject {
			if b.body.HasCachedScopePropIds {
				instr = b.fn.NewInstr(ir.OpcodeInitCachedScope, closureOpnd, nil, nil)
			} else {
				instr = b.fn.NewInstr(ir.OpcodeNewScopeObject, closureOpnd, nil, nil)
			}
			b.addInstr(instr, offset)
		} else {
			op := ir.OpcodeNewScopeSlots
			if b.fn.StackScopeSlots {
				op = ir.OpcodeNewStackScopeSlots
			}
			size := b.body.ScopeSlotArraySize
			if !b.body.ParamAndBodyScopeMerged {
				size = b.body.ParamScopeSlotArraySize
			}
			srcOpnd := ir.NewIntConstOpnd(int64(size+scopeSlotsFirstSlotIndex), ir.TyUint32)
			instr = b.fn.NewInstr(op, closureOpnd, srcOpnd, nil)
			b.addInstr(instr, offset)
		}
		if closureOpnd.Sym.IsSingleDef {
			closureOpnd.Sym.IsNotNumber = true
		}

		if b.fn.StackScopeSlots {
			// Init the stack closure sym and use it to save the scope
			// slot pointer.
			b.addInstr(b.fn.NewInstr(ir.OpcodeInitLocalClosure,
				b.buildDstOpndForSym(b.fn.LocalClosureSym), nil, nil), offset)
			b.addInstr(b.fn.NewInstr(ir.OpcodeStSlot,
				b.buildFieldOpnd(ir.OpcodeStSlot, uint32(b.fn.LocalClosureSym.ID), 0, ir.PropertyKindSlots, ir.NoInlineCacheIndex),
				closureOpnd, nil), offset)
		}
	}

	frameDisplayReg := b.body.LocalFrameDisplayReg
	if frameDisplayReg != bytecode.NoRegister {
		ir.AssertOrFailFast(!b.body.RegIsConstant(frameDisplayReg), "frame display reg must not be constant")

		op := ir.OpcodeLdFrameDisplay
		if b.fn.StackScopeSlots {
			op = ir.OpcodeNewStackFrameDisplay
		}
		if funcExprScopeReg != bytecode.NoRegister {
			// Insert the function expression scope ahead of any
			// enclosing scopes.
			funcExprScopeOpnd := b.buildSrcOpnd(funcExprScopeReg, ir.TyVar)
			if closureReg != bytecode.NoRegister {
				frameDisplayOpnd = ir.NewRegOpnd(b.fn.SymTable.NewStackSym(ir.TyVar), ir.TyVar)
			} else {
				frameDisplayOpnd = b.buildDstOpnd(frameDisplayReg, ir.TyVar)
			}
			instr := b.fn.NewInstr(ir.OpcodeLdFrameDisplay, frameDisplayOpnd, funcExprScopeOpnd, nil)
			if envReg != bytecode.NoRegister {
				instr.Src2 = b.buildSrcOpnd(envReg, ir.TyVar)
			}
			b.addInstr(instr, ir.NoByteCodeOffset)
		}

		if closureReg != bytecode.NoRegister {
			var dstOpnd *ir.RegOpnd
			if b.fn.StackScopeSlots {
				dstOpnd = ir.NewRegOpnd(b.fn.SymTable.NewStackSym(ir.TyVar), ir.TyVar)
			} else {
				dstOpnd = b.buildDstOpnd(frameDisplayReg, ir.TyVar)
			}
			instr := b.fn.NewInstr(op, dstOpnd, closureOpnd, nil)
			if frameDisplayOpnd != nil {
				// Building on an intermediate LdFrameDisplay result.
				instr.Src2 = frameDisplayOpnd
			} else if envReg != bytecode.NoRegister {
				// Building on the environment of the enclosing function.
				instr.Src2 = b.buildSrcOpnd(envReg, ir.TyVar)
			}
			b.addInstr(instr, offset)
			if dstOpnd.Sym.IsSingleDef {
				dstOpnd.Sym.IsNotNumber = true
			}

			if b.fn.StackFrameDisplay {
				// Use the stack closure sym to save the frame display
				// pointer.
				b.addInstr(b.fn.NewInstr(ir.OpcodeInitLocalClosure,
					b.buildDstOpndForSym(b.fn.LocalFrameDisplaySym), nil, nil), offset)
				b.addInstr(b.fn.NewInstr(ir.OpcodeStSlot,
					b.buildFieldOpnd(ir.OpcodeStSlot, uint32(b.fn.LocalFrameDisplaySym.ID), 0, ir.PropertyKindSlots, ir.NoInlineCacheIndex),
					dstOpnd, nil), offset)
			}
		}
	}
}

// scopeSlotsFirstSlotIndex is the number of header slots in a scope-slot
// array before the first variable slot.
const scopeSlotsFirstSlotIndex = 2

// insertByteCodeUsesBeforeRet keeps the closure and frame-display syms live
// across loops for functions whose try regions cross them.
func (b *IRBuilder) insertByteCodeUsesBeforeRet() {
	var uses []ir.SymID
	if b.fn.LocalClosureSym != nil {
		uses = append(uses, b.fn.LocalClosureSym.ID)
	}
	if b.fn.LocalFrameDisplaySym != nil {
		uses = append(uses, b.fn.LocalFrameDisplaySym.ID)
	}
	if len(uses) == 0 {
		return
	}
	for instr := b.fn.TailInstr; instr != nil; instr = instr.Prev() {
		if instr.Opc == ir.OpcodeRet {
			usesInstr := b.fn.NewInstr(ir.OpcodeByteCodeUses, nil, nil, nil)
			usesInstr.NonOpndSymUses = uses
			b.insertInstr(usesInstr, instr)
			return
		}
	}
}

// emitClosureRangeChecks emits a FrameDisplayCheck after the defining LdSlot
// of each frame-display sym recorded during construction.
func (b *IRBuilder) emitClosureRangeChecks() {
	for _, rec := range b.fn.FrameDisplayChecks {
		stackSym := b.fn.SymTable.FindStackSym(rec.SymID)
		ir.AssertOrFailFast(stackSym != nil && stackSym.InstrDef != nil, "frame display check on undefined sym")
		instrDef := stackSym.InstrDef
		check := b.fn.NewInstr(ir.OpcodeFrameDisplayCheck, nil, ir.NewRegOpnd(stackSym, ir.TyVar), nil)
		check.FrameDisplayBounds = [2]uint32{rec.ScopeCount, rec.SlotCount}
		check.CopyByteCodeOffset(instrDef)
		instrDef.InsertAfter(check)
	}
}
