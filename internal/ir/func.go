package ir

import "strings"

// FrameDisplayCheckRecord records the bounds a FrameDisplayCheck must assert
// for one frame-display sym: how many scopes the display holds and how many
// slots the accessed scope holds.
type FrameDisplayCheckRecord struct {
	SymID      SymID
	ScopeCount uint32
	SlotCount  uint32
}

// Func is the per-compilation context the builder populates and the optimizer
// consumes. It owns the instruction arena, the instruction list (head=entry,
// tail=exit sentinels), the symbol table, and the function-shape bitfields.
type Func struct {
	SymTable *SymTable

	// instrPool is the arena all of the Func's instructions come from,
	// released as a whole when the compilation ends.
	instrPool Pool[Instr]

	HeadInstr *Instr
	TailInstr *Instr

	// Function-shape flags.
	HasTry            bool
	HasFinally        bool
	IsLoopBodyFunc    bool
	JITInDebugMode    bool
	IsCoroutine       bool
	StackScopeSlots   bool
	StackFrameDisplay bool

	// Accessor bitfields populated during the build.
	HasTempObjectProducingInstr bool
	HasImplicitParamLoad        bool
	// CanDoInlineArgOpt is true when an inliner may forward this function's
	// arguments in registers: nothing in the body re-materializes the frame.
	CanDoInlineArgOpt bool

	// ArgSlotsForFunctionsCalled is the high-water mark of outgoing arg
	// slots pushed by any call in the function.
	ArgSlotsForFunctionsCalled uint32

	// LocalClosureSym / LocalFrameDisplaySym back the stack-allocated
	// closure environment when StackScopeSlots is on.
	LocalClosureSym      *StackSym
	LocalFrameDisplaySym *StackSym

	// LoopParamSym is parameter 0 of a loop body: the interpreter frame.
	LoopParamSym *StackSym

	// FrameDisplayChecks records bounds checks to emit after the build.
	FrameDisplayChecks []FrameDisplayCheckRecord

	// YieldResumeLabels maps each yield's bytecode offset to its bail-in
	// label, consumed when GeneratorResumeJumpTable lowers to a computed
	// jump.
	YieldResumeLabels map[uint32]*Instr

	// BailOutForElidedYieldInsertionPoint is the GeneratorResumeJumpTable
	// instruction; bailouts for elided yields insert after it.
	BailOutForElidedYieldInsertionPoint *Instr
}

// NewFunc returns an empty Func whose symbol ids start above the bytecode
// register space.
func NewFunc(firstAllocatableSymID SymID) *Func {
	return &Func{
		SymTable:          NewSymTable(firstAllocatableSymID),
		instrPool:         NewPool[Instr](),
		YieldResumeLabels: map[uint32]*Instr{},
	}
}

// NewInstr allocates an ordinary instruction from the Func's arena.
func (f *Func) NewInstr(opc Opcode, dst, src1, src2 Opnd) *Instr {
	i := f.instrPool.Allocate()
	*i = Instr{
		Opc: opc, Kind: InstrOrdinary, Dst: dst, Src1: src1, Src2: src2,
		byteCodeOffset: NoByteCodeOffset, ProfileID: NoProfileID,
	}
	return i
}

// NewLabelInstr allocates a label.
func (f *Func) NewLabelInstr() *Instr {
	i := f.NewInstr(OpcodeLabel, nil, nil, nil)
	i.Kind = InstrLabel
	return i
}

// NewBranchInstr allocates an unresolved branch; its target is assigned when
// branch relocs resolve.
func (f *Func) NewBranchInstr(opc Opcode, src1, src2 Opnd) *Instr {
	i := f.NewInstr(opc, nil, src1, src2)
	i.Kind = InstrBranch
	return i
}

// NewPragmaInstr allocates a statement-boundary pragma.
func (f *Func) NewPragmaInstr(statementIndex uint32) *Instr {
	i := f.NewInstr(OpcodeStatementBoundary, nil, nil, nil)
	i.Kind = InstrPragma
	i.StatementIndex = statementIndex
	return i
}

// InstrsAllocated returns the number of instructions drawn from the arena.
func (f *Func) InstrsAllocated() int {
	return f.instrPool.Allocated()
}

// InitInstrList installs the entry/exit sentinels. Must be called before any
// instruction is added.
func (f *Func) InitInstrList() {
	f.HeadInstr = f.NewInstr(OpcodeFunctionEntry, nil, nil, nil)
	f.HeadInstr.Kind = InstrEntry
	f.TailInstr = f.NewInstr(OpcodeFunctionExit, nil, nil, nil)
	f.TailInstr.Kind = InstrExit
	f.HeadInstr.InsertAfter(f.TailInstr)
}

// EnsureLoopParamSym returns the interpreter-frame param sym, creating it on
// first use.
func (f *Func) EnsureLoopParamSym() *StackSym {
	if f.LoopParamSym == nil {
		f.LoopParamSym = f.SymTable.NewStackSym(TyMachPtr)
	}
	return f.LoopParamSym
}

// InitLocalClosureSyms creates the syms backing the stack closure when the
// function body carries a local closure register.
func (f *Func) InitLocalClosureSyms() {
	if f.LocalClosureSym == nil {
		f.LocalClosureSym = f.SymTable.NewStackSym(TyVar)
	}
	if f.LocalFrameDisplaySym == nil {
		f.LocalFrameDisplaySym = f.SymTable.NewStackSym(TyVar)
	}
}

// RecordFrameDisplayCheck queues a bounds check for the frame-display sym.
func (f *Func) RecordFrameDisplayCheck(sym SymID, scopeCount, slotCount uint32) {
	for idx := range f.FrameDisplayChecks {
		if f.FrameDisplayChecks[idx].SymID == sym {
			if scopeCount > f.FrameDisplayChecks[idx].ScopeCount {
				f.FrameDisplayChecks[idx].ScopeCount = scopeCount
			}
			if slotCount > f.FrameDisplayChecks[idx].SlotCount {
				f.FrameDisplayChecks[idx].SlotCount = slotCount
			}
			return
		}
	}
	f.FrameDisplayChecks = append(f.FrameDisplayChecks,
		FrameDisplayCheckRecord{SymID: sym, ScopeCount: scopeCount, SlotCount: slotCount})
}

// Instrs iterates the instruction list head to tail.
func (f *Func) Instrs(fn func(*Instr) bool) {
	for i := f.HeadInstr; i != nil; i = i.Next() {
		if !fn(i) {
			return
		}
	}
}

// Format renders the whole instruction list for dumps and tests.
func (f *Func) Format() string {
	var b strings.Builder
	for i := f.HeadInstr; i != nil; i = i.Next() {
		b.WriteString(i.Format())
		b.WriteByte('\n')
	}
	return b.String()
}
