package ir

import (
	"fmt"
	"strings"
)

// InstrKind is the structural subkind of an instruction.
type InstrKind byte

const (
	// InstrOrdinary is a plain instruction.
	InstrOrdinary InstrKind = iota
	// InstrBranch carries a target label (or several for MultiBr).
	InstrBranch
	// InstrLabel is a branch target.
	InstrLabel
	// InstrPragma is a statement boundary.
	InstrPragma
	// InstrEntry is the list head sentinel.
	InstrEntry
	// InstrExit is the list tail sentinel.
	InstrExit
	// InstrBailOut carries a bailout kind and bailout info.
	InstrBailOut
)

// NoByteCodeOffset marks instructions with no bytecode provenance.
const NoByteCodeOffset = uint32(0xFFFFFFFF)

// Instr is one IR instruction, allocated from the owning Func's arena via
// Func.NewInstr and friends. Since Go doesn't have union type, this is a
// flattened record: fields beyond opcode/dst/src1/src2 are only meaningful
// for the matching InstrKind.
type Instr struct {
	Opc  Opcode
	Kind InstrKind

	Dst  Opnd
	Src1 Opnd
	Src2 Opnd

	prev, next *Instr

	byteCodeOffset uint32

	// Target is the resolved label of a branch. Nil until InsertLabels.
	Target *Instr
	// MultiBrTargets are the resolved labels of a MultiBr, parallel to the
	// bytecode case list.
	MultiBrTargets []*Instr

	// IsLoopTop marks labels that are the target of a back edge.
	IsLoopTop bool
	// LabelName is a debug-only annotation.
	LabelName string

	// StatementIndex is the pragma payload.
	StatementIndex uint32

	// BailOutKind and BailOutInfo are set on InstrBailOut instructions and
	// on instructions converted to bailout points.
	BailOutKind BailOutKind
	BailOutInfo *BailOutInfo

	// ProfileID is the call-site or fld profile slot feeding this
	// instruction, or NoProfileID.
	ProfileID uint16
	// ProfiledValueType is the type feedback attached by profile data.
	ProfiledValueType ValueType

	// IsCallInstrProtectedByNoProfileBailout is set on call instructions
	// fenced by a preceding BailOnNoProfile.
	IsCallInstrProtectedByNoProfileBailout bool

	// NonOpndSymUses lists syms a ByteCodeUses instruction keeps alive.
	NonOpndSymUses []SymID

	// FrameDisplayBounds is the [scope count, slot count] payload of a
	// FrameDisplayCheck.
	FrameDisplayBounds [2]uint32
}

// NoProfileID marks an unprofiled site.
const NoProfileID = uint16(0xFFFF)

// ValueType is coarse type feedback from the profiler.
type ValueType byte

const (
	// ValueTypeUninitialized is absent feedback.
	ValueTypeUninitialized ValueType = iota
	// ValueTypeNumber is numeric feedback.
	ValueTypeNumber
	// ValueTypeString is string feedback.
	ValueTypeString
	// ValueTypeObject is object feedback.
	ValueTypeObject
	// ValueTypeUninitializedObject is a fresh object with no shape info.
	ValueTypeUninitializedObject
)

// Prev returns the previous instruction in the list.
func (i *Instr) Prev() *Instr { return i.prev }

// Next returns the next instruction in the list.
func (i *Instr) Next() *Instr { return i.next }

// ByteCodeOffset returns the bytecode offset the instruction was built from.
func (i *Instr) ByteCodeOffset() uint32 { return i.byteCodeOffset }

// SetByteCodeOffset sets the bytecode offset if it has not been set yet.
func (i *Instr) SetByteCodeOffset(offset uint32) {
	if i.byteCodeOffset == NoByteCodeOffset {
		i.byteCodeOffset = offset
	}
}

// CopyByteCodeOffset copies provenance from another instruction.
func (i *Instr) CopyByteCodeOffset(from *Instr) {
	i.byteCodeOffset = from.byteCodeOffset
}

// IsBranchInstr reports whether this is a branch.
func (i *Instr) IsBranchInstr() bool { return i.Kind == InstrBranch }

// IsLabelInstr reports whether this is a label.
func (i *Instr) IsLabelInstr() bool { return i.Kind == InstrLabel }

// InsertAfter links next into the list right after i.
func (i *Instr) InsertAfter(instr *Instr) {
	instr.prev = i
	instr.next = i.next
	if i.next != nil {
		i.next.prev = instr
	}
	i.next = instr
}

// InsertBefore links instr into the list right before i.
func (i *Instr) InsertBefore(instr *Instr) {
	instr.next = i
	instr.prev = i.prev
	if i.prev != nil {
		i.prev.next = instr
	}
	i.prev = instr
}

// Unlink removes i from the list.
func (i *Instr) Unlink() {
	if i.prev != nil {
		i.prev.next = i.next
	}
	if i.next != nil {
		i.next.prev = i.prev
	}
	i.prev, i.next = nil, nil
}

// GetPrevRealInstrOrLabel skips pragmas backwards.
func (i *Instr) GetPrevRealInstrOrLabel() *Instr {
	p := i.prev
	for p != nil && p.Kind == InstrPragma {
		p = p.prev
	}
	return p
}

// GetNextRealInstr skips pragmas and labels forwards.
func (i *Instr) GetNextRealInstr() *Instr {
	n := i.next
	for n != nil && (n.Kind == InstrPragma || n.Kind == InstrLabel) {
		n = n.next
	}
	return n
}

// HasBailOutInfo reports whether the instruction is a bailout point.
func (i *Instr) HasBailOutInfo() bool { return i.BailOutInfo != nil }

// ConvertToBailOutInstr turns the instruction into a bailout point in place.
func (i *Instr) ConvertToBailOutInstr(info *BailOutInfo, kind BailOutKind) *Instr {
	i.Kind = InstrBailOut
	i.BailOutInfo = info
	i.BailOutKind = kind
	return i
}

// GetStackSym returns the stack sym of a reg dst, or nil.
func (i *Instr) GetStackSym() *StackSym {
	if reg, ok := i.Dst.(*RegOpnd); ok {
		return reg.Sym
	}
	return nil
}

// Format renders the instruction for dumps.
func (i *Instr) Format() string {
	var b strings.Builder
	switch i.Kind {
	case InstrLabel:
		if i.LabelName != "" {
			fmt.Fprintf(&b, "$%s:", i.LabelName)
		} else {
			b.WriteString("$L:")
		}
		if i.IsLoopTop {
			b.WriteString(" // loop top")
		}
		return b.String()
	case InstrPragma:
		fmt.Fprintf(&b, "StatementBoundary #%d", i.StatementIndex)
		return b.String()
	}
	if i.Dst != nil {
		fmt.Fprintf(&b, "%s = ", i.Dst)
	}
	b.WriteString(i.Opc.String())
	if i.Kind == InstrBailOut {
		fmt.Fprintf(&b, ".bail(%#x)", uint32(i.BailOutKind))
	}
	if i.Src1 != nil {
		fmt.Fprintf(&b, " %s", i.Src1)
	}
	if i.Src2 != nil {
		fmt.Fprintf(&b, ", %s", i.Src2)
	}
	return b.String()
}
