package bytecode

import (
	"encoding/binary"
	"math"
)

// Writer assembles a bytecode stream. The bytecode generator proper lives in
// the front end; this assembler exists so tests and tools can fabricate
// streams without it, the same way a binary encoder sits next to the decoder.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the assembled stream.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// CurrentOffset returns the offset the next emit will land at.
func (w *Writer) CurrentOffset() uint32 {
	return uint32(len(w.buf))
}

// Op emits an opcode word with the given layout size.
func (w *Writer) Op(op OpCode, size LayoutSize) *Writer {
	w.u16(uint16(op) | uint16(size)<<opcodeSizeShift)
	return w
}

func (w *Writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *Writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *Writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

// Reg emits one register/index operand at the given width. NoRegister
// narrows to the all-ones pattern.
func (w *Writer) Reg(size LayoutSize, v uint32) *Writer {
	switch size {
	case SmallLayout:
		if v == NoRegister {
			v = 0xFF
		}
		w.u8(uint8(v))
	case MediumLayout:
		if v == NoRegister {
			v = 0xFFFF
		}
		w.u16(uint16(v))
	default:
		w.u32(v)
	}
	return w
}

// I32 emits a 32-bit signed immediate.
func (w *Writer) I32(v int32) *Writer {
	w.u32(uint32(v))
	return w
}

// U16 emits a 16-bit immediate (StartCall arg counts, profile ids, MultiBr
// case counts).
func (w *Writer) U16(v uint16) *Writer {
	w.u16(v)
	return w
}

// F64 emits a float immediate.
func (w *Writer) F64(v float64) *Writer {
	w.u64(math.Float64bits(v))
	return w
}

// PatchI32 overwrites a previously emitted 32-bit immediate, for forward
// branch offsets.
func (w *Writer) PatchI32(at uint32, v int32) {
	binary.LittleEndian.PutUint32(w.buf[at:], uint32(v))
}
