package bytecode

import (
	"encoding/binary"
	"math"

	"github.com/chakra-core/ChakraCore-sub024/internal/ir"
)

const (
	opcodeSizeShift = 14
	opcodeValueMask = 0x3FFF
)

// Reader walks a serialized bytecode stream. All reads fail fast on
// truncation: truncated bytecode is corrupt input, never recoverable.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over the stream.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// CurrentOffset returns the offset of the next unread byte.
func (r *Reader) CurrentOffset() uint32 {
	return uint32(r.pos)
}

// SeekTo repositions the reader.
func (r *Reader) SeekTo(offset uint32) {
	ir.AssertOrFailFast(int(offset) <= len(r.buf), "bytecode seek out of range")
	r.pos = int(offset)
}

// ReadOp reads the next opcode word and decodes the layout size from its top
// bits.
func (r *Reader) ReadOp() (OpCode, LayoutSize) {
	w := r.readU16()
	op := OpCode(w & opcodeValueMask)
	size := LayoutSize(w >> opcodeSizeShift)
	ir.AssertOrFailFast(op.IsValid(), "invalid bytecode opcode")
	ir.AssertOrFailFast(size <= LargeLayout, "invalid bytecode layout size")
	return op, size
}

// PeekOp returns the next opcode without consuming it.
func (r *Reader) PeekOp() OpCode {
	if r.pos+2 > len(r.buf) {
		return OpEndOfBlock
	}
	w := binary.LittleEndian.Uint16(r.buf[r.pos:])
	return OpCode(w & opcodeValueMask)
}

func (r *Reader) readU8() uint8 {
	ir.AssertOrFailFast(r.pos+1 <= len(r.buf), "truncated bytecode")
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *Reader) readU16() uint16 {
	ir.AssertOrFailFast(r.pos+2 <= len(r.buf), "truncated bytecode")
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *Reader) readU32() uint32 {
	ir.AssertOrFailFast(r.pos+4 <= len(r.buf), "truncated bytecode")
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *Reader) readU64() uint64 {
	ir.AssertOrFailFast(r.pos+8 <= len(r.buf), "truncated bytecode")
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *Reader) readI32() int32 {
	return int32(r.readU32())
}

// readReg reads one register/index operand at the given width, widening the
// all-ones pattern to NoRegister.
func (r *Reader) readReg(size LayoutSize) uint32 {
	switch size {
	case SmallLayout:
		v := r.readU8()
		if v == 0xFF {
			return NoRegister
		}
		return uint32(v)
	case MediumLayout:
		v := r.readU16()
		if v == 0xFFFF {
			return NoRegister
		}
		return uint32(v)
	default:
		return r.readU32()
	}
}

// ReadProfileID reads the trailing profile id of a profiled opcode.
func (r *Reader) ReadProfileID() uint16 {
	return r.readU16()
}

// Reg1 decodes a Reg1 layout.
func (r *Reader) Reg1(size LayoutSize) Reg1Layout {
	return Reg1Layout{R0: r.readReg(size)}
}

// Reg2 decodes a Reg2 layout.
func (r *Reader) Reg2(size LayoutSize) Reg2Layout {
	return Reg2Layout{R0: r.readReg(size), R1: r.readReg(size)}
}

// Reg3 decodes a Reg3 layout.
func (r *Reader) Reg3(size LayoutSize) Reg3Layout {
	return Reg3Layout{R0: r.readReg(size), R1: r.readReg(size), R2: r.readReg(size)}
}

// Reg1Unsigned1 decodes a Reg1Unsigned1 layout.
func (r *Reader) Reg1Unsigned1(size LayoutSize) Reg1Unsigned1Layout {
	return Reg1Unsigned1Layout{R0: r.readReg(size), C1: r.readReg(size)}
}

// Reg1Int decodes a Reg1Int layout. The immediate is always 32-bit.
func (r *Reader) Reg1Int(size LayoutSize) Reg1IntLayout {
	return Reg1IntLayout{R0: r.readReg(size), C1: r.readI32()}
}

// Reg1Dbl decodes a Reg1Dbl layout. The immediate is always 64-bit.
func (r *Reader) Reg1Dbl(size LayoutSize) Reg1DblLayout {
	return Reg1DblLayout{R0: r.readReg(size), C1: math.Float64frombits(r.readU64())}
}

// Unsigned1 decodes an Unsigned1 layout.
func (r *Reader) Unsigned1(size LayoutSize) Unsigned1Layout {
	return Unsigned1Layout{C1: r.readReg(size)}
}

// Arg decodes an Arg layout.
func (r *Reader) Arg(size LayoutSize) ArgLayout {
	return ArgLayout{Arg: r.readReg(size), Reg: r.readReg(size)}
}

// CallI decodes a CallI layout.
func (r *Reader) CallI(size LayoutSize) CallILayout {
	return CallILayout{Return: r.readReg(size), Function: r.readReg(size), ArgCount: r.readReg(size)}
}

// StartCall decodes a StartCall layout; its arg count is always 16-bit.
func (r *Reader) StartCall() StartCallLayout {
	return StartCallLayout{ArgCount: r.readU16()}
}

// Br decodes a Br layout.
func (r *Reader) Br() BrLayout {
	return BrLayout{RelativeJumpOffset: r.readI32()}
}

// BrReg1 decodes a BrReg1 layout.
func (r *Reader) BrReg1(size LayoutSize) BrReg1Layout {
	return BrReg1Layout{RelativeJumpOffset: r.readI32(), R1: r.readReg(size)}
}

// BrReg2 decodes a BrReg2 layout.
func (r *Reader) BrReg2(size LayoutSize) BrReg2Layout {
	return BrReg2Layout{RelativeJumpOffset: r.readI32(), R1: r.readReg(size), R2: r.readReg(size)}
}

// MultiBr decodes a MultiBr layout: index register, 16-bit case count, then
// one relative offset per case.
func (r *Reader) MultiBr(size LayoutSize) MultiBrLayout {
	index := r.readReg(size)
	count := r.readU16()
	offsets := make([]int32, count)
	for i := range offsets {
		offsets[i] = r.readI32()
	}
	return MultiBrLayout{Index: index, RelativeOffsets: offsets}
}

// ElementSlot decodes an ElementSlot layout.
func (r *Reader) ElementSlot(size LayoutSize) ElementSlotLayout {
	return ElementSlotLayout{Value: r.readReg(size), Instance: r.readReg(size), SlotIndex: r.readReg(size)}
}

// ElementSlotI1 decodes an ElementSlotI1 layout.
func (r *Reader) ElementSlotI1(size LayoutSize) ElementSlotI1Layout {
	return ElementSlotI1Layout{Value: r.readReg(size), ScopeIndex: r.readReg(size), SlotIndex: r.readReg(size)}
}

// ElementCP decodes an ElementCP layout.
func (r *Reader) ElementCP(size LayoutSize) ElementCPLayout {
	return ElementCPLayout{
		Value:           r.readReg(size),
		Instance:        r.readReg(size),
		PropertyIDIndex: r.readReg(size),
		CacheIndex:      r.readReg(size),
	}
}
