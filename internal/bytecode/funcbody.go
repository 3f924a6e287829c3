package bytecode

import "github.com/chakra-core/ChakraCore-sub024/internal/ir"

// ConstantKind tags entries of the constant table.
type ConstantKind byte

const (
	// ConstUndefined is the undefined value.
	ConstUndefined ConstantKind = iota
	// ConstNull is the null value.
	ConstNull
	// ConstTrue and ConstFalse are the booleans.
	ConstTrue
	ConstFalse
	// ConstNumber is a tagged number; Addr carries the boxed value.
	ConstNumber
	// ConstString is a literal string reference.
	ConstString
	// ConstMisc is an opaque host value.
	ConstMisc
)

// Constant is one constant-table entry.
type Constant struct {
	Kind ConstantKind
	Addr uintptr
}

// FldInfo is per-inline-cache field feedback.
type FldInfo struct {
	ValueType ir.ValueType
	// WasLdFldProfiled is false when the site never executed while
	// profiling, which makes the access unprofiled for the builder.
	WasLdFldProfiled bool
}

// ProfileInfo is the read-only profile data façade. Absent data is modeled by
// a nil *ProfileInfo.
type ProfileInfo struct {
	// ReturnTypes maps call-site profile ids to return type feedback.
	ReturnTypes map[uint16]ir.ValueType
	// FldInfos maps inline cache indexes to field feedback.
	FldInfos map[uint32]FldInfo
	// NoProfileBailoutsDisabled turns off BailOnNoProfile insertion.
	NoProfileBailoutsDisabled bool
}

// GetReturnType returns the profiled return type for a call site.
func (p *ProfileInfo) GetReturnType(profileID uint16) ir.ValueType {
	if t, ok := p.ReturnTypes[profileID]; ok {
		return t
	}
	return ir.ValueTypeUninitialized
}

// GetFldInfo returns field feedback for a cache index.
func (p *ProfileInfo) GetFldInfo(cacheIndex uint32) FldInfo {
	return p.FldInfos[cacheIndex]
}

// JITTimeInfo is the optional inlining layer handed down by the JIT driver.
type JITTimeInfo struct {
	// InlineesBV marks call-site profile ids that have inlinee info. A call
	// site absent from the bitvector has no profile and is a candidate for
	// a BailOnNoProfile fence.
	InlineesBV map[uint16]bool
	// ProfiledIterations is how many times the function body was profiled
	// before this compilation.
	ProfiledIterations uint32
}

// LoopHeader describes one loop of the function for loop-body (OSR)
// compilation.
type LoopHeader struct {
	StartOffset uint32
	EndOffset   uint32
}

// StatementBoundary maps a statement index to the bytecode offset it starts
// at. The table is sorted by offset.
type StatementBoundary struct {
	StatementIndex uint32
	Offset         uint32
}

// FunctionBody is the read-only façade over everything the builder needs
// from the front end: bytecode, constants, profile data, scope and register
// metadata. The front end that produces it is out of scope; tests fabricate
// it directly.
type FunctionBody struct {
	ByteCode []byte

	// Constants occupy register slots [FirstRegSlot, ConstCount).
	Constants []Constant

	// Register-space shape. Slots below ConstCount are constants, slots in
	// [FirstTmpReg, LocalsCount) are temps.
	ConstCount  uint32
	FirstTmpReg uint32
	LocalsCount uint32

	// InParamsCount includes the this parameter.
	InParamsCount uint16

	// Special registers; NoRegister when absent.
	EnvReg                 uint32
	ThisRegForEventHandler uint32
	LocalClosureReg        uint32
	LocalFrameDisplayReg   uint32
	FuncExprScopeReg       uint32
	ParamClosureReg        uint32
	FirstInnerScopeReg     uint32
	InnerScopeCount        uint32

	ScopeSlotArraySize      uint32
	ParamScopeSlotArraySize uint32

	InlineCacheCount uint32

	// PropertyIDs maps property-id indexes in the bytecode to property ids.
	PropertyIDs []int32

	HasImplicitArgIns       bool
	HasRestParameter        bool
	IsCoroutineBody         bool
	HasScopeObject          bool
	HasCachedScopePropIds   bool
	ParamAndBodyScopeMerged bool
	HasTry                  bool
	HasFinally              bool
	DoStackScopeSlots       bool

	Profile *ProfileInfo
	JITTime *JITTimeInfo

	LoopHeaders []LoopHeader

	StatementBoundaries []StatementBoundary
}

// FirstRegSlot is the first usable register slot; slot 0 holds the return
// value convention and is a constant-table slot.
const FirstRegSlot = uint32(0)

// RegIsConstant reports whether the register slot is a constant-table slot.
func (b *FunctionBody) RegIsConstant(reg uint32) bool {
	return reg < b.ConstCount
}

// RegIsTemp reports whether the register slot is a temp.
func (b *FunctionBody) RegIsTemp(reg uint32) bool {
	return reg != NoRegister && reg >= b.FirstTmpReg
}

// TempCount returns the number of temp registers.
func (b *FunctionBody) TempCount() uint32 {
	if b.LocalsCount < b.FirstTmpReg {
		return 0
	}
	return b.LocalsCount - b.FirstTmpReg
}

// GetReferencedPropertyID maps a property-id index to the property id.
func (b *FunctionBody) GetReferencedPropertyID(index uint32) int32 {
	ir.AssertOrFailFast(int(index) < len(b.PropertyIDs), "property id index out of range")
	return b.PropertyIDs[index]
}

// HasProfileInfo reports whether profile data is present.
func (b *FunctionBody) HasProfileInfo() bool {
	return b.Profile != nil
}

// StatementReader walks the statement-boundary table in offset order.
type StatementReader struct {
	boundaries []StatementBoundary
	pos        int
}

// NewStatementReader returns a reader over the body's boundary table.
func NewStatementReader(b *FunctionBody) *StatementReader {
	return &StatementReader{boundaries: b.StatementBoundaries}
}

// NoStatementIndex marks the absence of an open statement.
const NoStatementIndex = uint32(0xFFFFFFFF)

// AtStatementBoundary reports whether a boundary starts at the reader's
// current bytecode offset.
func (s *StatementReader) AtStatementBoundary(r *Reader) bool {
	return s.pos < len(s.boundaries) && s.boundaries[s.pos].Offset <= r.CurrentOffset()
}

// CurrentStatementIndex returns the index of the boundary about to be
// consumed, or NoStatementIndex.
func (s *StatementReader) CurrentStatementIndex() uint32 {
	if s.pos >= len(s.boundaries) {
		return NoStatementIndex
	}
	return s.boundaries[s.pos].StatementIndex
}

// MoveNext consumes the current boundary.
func (s *StatementReader) MoveNext() {
	s.pos++
}
