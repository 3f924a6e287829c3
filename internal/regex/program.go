package regex

import (
	"encoding/binary"
	"fmt"
)

// Flags are the regex mode flags carried in the program header.
type Flags uint8

const (
	// GlobalFlag is /g.
	GlobalFlag Flags = 1 << iota
	// MultilineFlag is /m.
	MultilineFlag
	// IgnoreCaseFlag is /i.
	IgnoreCaseFlag
	// DotAllFlag is /s.
	DotAllFlag
	// UnicodeFlag is /u.
	UnicodeFlag
	// StickyFlag is /y.
	StickyFlag
)

// ProgramTag selects the top-level matcher mode.
type ProgramTag uint8

const (
	// InstructionsTag runs the interpreter loop, retrying at offset+1 on
	// failure until match or end of input.
	InstructionsTag ProgramTag = iota
	// BOIInstructionsTag is like InstructionsTag but fails immediately
	// unless matching starts at offset 0.
	BOIInstructionsTag
	// BOIInstructionsForStickyFlagTag does not advance the start offset on
	// failure.
	BOIInstructionsForStickyFlagTag
	// SingleCharTag scans for one case-[in]sensitive character.
	SingleCharTag
	// BoundedWordTag matches \b\w+\b.
	BoundedWordTag
	// LeadingTrailingSpacesTag matches ^\s*|\s*$.
	LeadingTrailingSpacesTag
	// OctoquadTag delegates to the fixed-size multi-byte scanner.
	OctoquadTag
	// BOILiteral2Tag matches a 2-code-unit literal at offset 0.
	BOILiteral2Tag
)

// Program is a compiled regex, immutable after load. The instruction buffer
// is a packed sequence of variable-size records, each opening with a 1-byte
// tag; labels are absolute byte offsets into it.
type Program struct {
	Tag       ProgramTag
	Flags     Flags
	NumGroups int
	NumLoops  int

	// Source is the pattern text, for dumps only.
	Source string

	Insts  []byte
	LitBuf []Char
	Sets   []*CharSet
	Tries  []*charTrie

	// SingleChar is the SingleCharTag payload.
	SingleChar Char
	// BOILiteral2 is the BOILiteral2Tag payload.
	BOILiteral2 [2]Char
	// LeadingMinMatch / TrailingMinMatch are the LeadingTrailingSpacesTag
	// payload.
	LeadingMinMatch  uint32
	TrailingMinMatch uint32
	// Octoquad is the OctoquadTag payload.
	Octoquad *octoquadMatcher

	// scanners holds the Boyer-Moore state for each sync-to-literal
	// instruction, keyed by the instruction's label. Built at load,
	// shared across matchers of this program.
	scanners map[Label]*scanner
	// multiScanners is the same for SyncToLiteralsAndBackup.
	multiScanners map[Label][]*scanner
}

// IsSticky reports whether the sticky flag is set.
func (p *Program) IsSticky() bool { return p.Flags&StickyFlag != 0 }

// IsIgnoreCase reports whether the ignore-case flag is set.
func (p *Program) IsIgnoreCase() bool { return p.Flags&IgnoreCaseFlag != 0 }

// IsUnicode reports whether the unicode flag is set.
func (p *Program) IsUnicode() bool { return p.Flags&UnicodeFlag != 0 }

// CaseMappingSource returns the canonicalization table selected by the
// unicode flag.
func (p *Program) CaseMappingSource() MappingSource {
	if p.IsUnicode() {
		return MappingSourceCaseFolding
	}
	return MappingSourceUnicodeData
}

const programMagic = uint32(0x52584350) // "RXCP"

// Save serializes the program.
func (p *Program) Save() []byte {
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, programMagic)
	buf = append(buf, byte(p.Tag), byte(p.Flags))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(p.NumGroups))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.NumLoops))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Source)))
	buf = append(buf, p.Source...)

	switch p.Tag {
	case SingleCharTag:
		buf = binary.LittleEndian.AppendUint16(buf, p.SingleChar)
		return buf
	case BOILiteral2Tag:
		buf = binary.LittleEndian.AppendUint16(buf, p.BOILiteral2[0])
		buf = binary.LittleEndian.AppendUint16(buf, p.BOILiteral2[1])
		return buf
	case LeadingTrailingSpacesTag:
		buf = binary.LittleEndian.AppendUint32(buf, p.LeadingMinMatch)
		buf = binary.LittleEndian.AppendUint32(buf, p.TrailingMinMatch)
		return buf
	case BoundedWordTag:
		return buf
	case OctoquadTag:
		for _, a := range p.Octoquad.alphabet {
			buf = binary.LittleEndian.AppendUint16(buf, a)
		}
		buf = append(buf, p.Octoquad.masks[:]...)
		return buf
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.LitBuf)))
	for _, c := range p.LitBuf {
		buf = binary.LittleEndian.AppendUint16(buf, c)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Sets)))
	for _, s := range p.Sets {
		buf = s.serialize(buf)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Tries)))
	for _, t := range p.Tries {
		buf = serializeTrie(buf, t)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Insts)))
	buf = append(buf, p.Insts...)
	return buf
}

// serializeTrie flattens the trie's alternatives.
func serializeTrie(buf []byte, t *charTrie) []byte {
	var alts [][]Char
	var walk func(node *charTrie, prefix []Char)
	walk = func(node *charTrie, prefix []Char) {
		if node.accepting {
			alts = append(alts, append([]Char(nil), prefix...))
		}
		for i, c := range node.chars {
			walk(node.children[i], append(prefix, c))
		}
	}
	walk(t, nil)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(alts)))
	for _, alt := range alts {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(alt)))
		for _, c := range alt {
			buf = binary.LittleEndian.AppendUint16(buf, c)
		}
	}
	return buf
}

type programDecoder struct {
	buf []byte
	pos int
}

func (d *programDecoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return fmt.Errorf("regex program truncated at %d", d.pos)
	}
	return nil
}

func (d *programDecoder) u8() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *programDecoder) u16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.buf[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *programDecoder) u32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

// LoadProgram deserializes and validates a program.
func LoadProgram(buf []byte) (*Program, error) {
	d := &programDecoder{buf: buf}
	magic, err := d.u32()
	if err != nil {
		return nil, err
	}
	if magic != programMagic {
		return nil, fmt.Errorf("not a regex program: bad magic %#x", magic)
	}

	p := &Program{}
	tag, err := d.u8()
	if err != nil {
		return nil, err
	}
	p.Tag = ProgramTag(tag)
	flags, err := d.u8()
	if err != nil {
		return nil, err
	}
	p.Flags = Flags(flags)
	numGroups, err := d.u16()
	if err != nil {
		return nil, err
	}
	p.NumGroups = int(numGroups)
	numLoops, err := d.u32()
	if err != nil {
		return nil, err
	}
	p.NumLoops = int(int32(numLoops))
	srcLen, err := d.u32()
	if err != nil {
		return nil, err
	}
	if err := d.need(int(srcLen)); err != nil {
		return nil, err
	}
	p.Source = string(d.buf[d.pos : d.pos+int(srcLen)])
	d.pos += int(srcLen)

	switch p.Tag {
	case SingleCharTag:
		c, err := d.u16()
		if err != nil {
			return nil, err
		}
		p.SingleChar = c
		return p, nil
	case BOILiteral2Tag:
		c0, err := d.u16()
		if err != nil {
			return nil, err
		}
		c1, err := d.u16()
		if err != nil {
			return nil, err
		}
		p.BOILiteral2 = [2]Char{c0, c1}
		return p, nil
	case LeadingTrailingSpacesTag:
		if p.LeadingMinMatch, err = d.u32(); err != nil {
			return nil, err
		}
		if p.TrailingMinMatch, err = d.u32(); err != nil {
			return nil, err
		}
		return p, nil
	case BoundedWordTag:
		return p, nil
	case OctoquadTag:
		m := &octoquadMatcher{}
		for i := range m.alphabet {
			if m.alphabet[i], err = d.u16(); err != nil {
				return nil, err
			}
		}
		if err := d.need(OctoquadPatternLength); err != nil {
			return nil, err
		}
		copy(m.masks[:], d.buf[d.pos:])
		d.pos += OctoquadPatternLength
		p.Octoquad = m
		return p, nil
	case InstructionsTag, BOIInstructionsTag, BOIInstructionsForStickyFlagTag:
		// Decoded below.
	default:
		return nil, fmt.Errorf("unknown program tag %d", p.Tag)
	}

	litLen, err := d.u32()
	if err != nil {
		return nil, err
	}
	if err := d.need(int(litLen) * 2); err != nil {
		return nil, err
	}
	p.LitBuf = make([]Char, litLen)
	for i := range p.LitBuf {
		p.LitBuf[i] = binary.LittleEndian.Uint16(d.buf[d.pos:])
		d.pos += 2
	}

	setCount, err := d.u32()
	if err != nil {
		return nil, err
	}
	p.Sets = make([]*CharSet, setCount)
	for i := range p.Sets {
		set, n, err := deserializeCharSet(d.buf[d.pos:])
		if err != nil {
			return nil, err
		}
		p.Sets[i] = set
		d.pos += n
	}

	trieCount, err := d.u32()
	if err != nil {
		return nil, err
	}
	p.Tries = make([]*charTrie, trieCount)
	for i := range p.Tries {
		altCount, err := d.u16()
		if err != nil {
			return nil, err
		}
		trie := &charTrie{}
		for a := 0; a < int(altCount); a++ {
			altLen, err := d.u16()
			if err != nil {
				return nil, err
			}
			if err := d.need(int(altLen) * 2); err != nil {
				return nil, err
			}
			alt := make([]Char, altLen)
			for k := range alt {
				alt[k] = binary.LittleEndian.Uint16(d.buf[d.pos:])
				d.pos += 2
			}
			trie.add(alt)
		}
		p.Tries[i] = trie
	}

	instsLen, err := d.u32()
	if err != nil {
		return nil, err
	}
	if err := d.need(int(instsLen)); err != nil {
		return nil, err
	}
	p.Insts = d.buf[d.pos : d.pos+int(instsLen)]
	d.pos += int(instsLen)

	if err := p.link(); err != nil {
		return nil, err
	}
	return p, nil
}

// link validates the instruction stream and builds the per-instruction
// scanner state.
func (p *Program) link() error {
	p.scanners = map[Label]*scanner{}
	p.multiScanners = map[Label][]*scanner{}

	instsLen := uint32(len(p.Insts))
	for pc := uint32(0); pc < instsLen; {
		tag := instTag(p.Insts[pc])
		if tag >= numInstTags {
			return fmt.Errorf("invalid instruction tag %d at %#x", tag, pc)
		}
		size := tag.payloadSize()
		if size < 0 || pc+1+uint32(size) > instsLen {
			return fmt.Errorf("truncated %v at %#x", tag, pc)
		}
		body := pc + 1

		switch tag {
		case instSyncToLiteralAndContinue, instSyncToLiteralAndConsume, instSyncToLiteralAndBackup:
			if err := p.checkLiteral(body, 1); err != nil {
				return err
			}
			p.scanners[pc] = p.buildScanner(body, 1, false)
		case instSyncToLinearLiteralAndContinue, instSyncToLinearLiteralAndConsume, instSyncToLinearLiteralAndBackup:
			if err := p.checkLiteral(body, 1); err != nil {
				return err
			}
			p.scanners[pc] = p.buildScanner(body, 1, true)
		case instSyncToLiteralEquivAndContinue, instSyncToLiteralEquivAndConsume, instSyncToLiteralEquivAndBackup,
			instSyncToLiteralEquivTrivialLastPatCharAndContinue, instSyncToLiteralEquivTrivialLastPatCharAndConsume,
			instSyncToLiteralEquivTrivialLastPatCharAndBackup:
			if err := p.checkLiteral(body, EquivClassSize); err != nil {
				return err
			}
			p.scanners[pc] = p.buildScanner(body, EquivClassSize, false)
		case instMatchLiteral:
			if err := p.checkLiteral(body, 1); err != nil {
				return err
			}
		case instMatchLiteralEquiv:
			if err := p.checkLiteral(body, EquivClassSize); err != nil {
				return err
			}
		case instSyncToLiteralsAndBackup:
			num := int(p.Insts[body])
			if num < 1 || num > maxNumSyncLiterals {
				return fmt.Errorf("bad literal count %d at %#x", num, pc)
			}
			scanners := make([]*scanner, num)
			at := body + 1
			for i := 0; i < num; i++ {
				offset := readU32(p.Insts, at)
				length := readU32(p.Insts, at+4)
				isEquiv := readBool(p.Insts, at+8)
				stride := 1
				if isEquiv {
					stride = EquivClassSize
				}
				if (offset + length*uint32(stride)) > uint32(len(p.LitBuf)) {
					return fmt.Errorf("literal out of range at %#x", pc)
				}
				scanners[i] = newScanner(p.LitBuf[offset:offset+length*uint32(stride)], stride, false)
				at += szU32 + szU32 + szBool
			}
			p.multiScanners[pc] = scanners
		}
		pc = body + uint32(size)
	}
	return nil
}

// checkLiteral validates a literal mixin against the literal buffer.
func (p *Program) checkLiteral(body uint32, stride int) error {
	offset := readU32(p.Insts, body)
	length := readU32(p.Insts, body+4)
	if uint64(offset)+uint64(length)*uint64(stride) > uint64(len(p.LitBuf)) {
		return fmt.Errorf("literal [%d..+%d] out of range", offset, length)
	}
	return nil
}

func (p *Program) buildScanner(body uint32, stride int, linear bool) *scanner {
	offset := readU32(p.Insts, body)
	length := readU32(p.Insts, body+4)
	return newScanner(p.LitBuf[offset:offset+length*uint32(stride)], stride, linear)
}
