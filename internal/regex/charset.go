package regex

import (
	"encoding/binary"
	"fmt"
	"sort"
)

type charRange struct {
	lo, hi Char
}

// CharSet is the runtime representation of a character set: direct bits for
// the Latin-1 range plus a sorted range list for everything above. Built
// once per program load; immutable afterwards.
type CharSet struct {
	directBits [8]uint32
	ranges     []charRange
}

// Get reports set membership.
func (s *CharSet) Get(c Char) bool {
	if c < 0x100 {
		return s.directBits[c>>5]&(1<<(c&31)) != 0
	}
	ranges := s.ranges
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].hi >= c })
	return i < len(ranges) && ranges[i].lo <= c
}

// SetRange adds [lo, hi] to the set. Ranges must be added low to high and
// non-overlapping; the program compiler guarantees that and the builder
// asserts it.
func (s *CharSet) SetRange(lo, hi Char) {
	if lo > hi {
		panic("BUG: inverted char set range")
	}
	for c := int(lo); c <= int(hi) && c < 0x100; c++ {
		s.directBits[c>>5] |= 1 << (c & 31)
	}
	if hi >= 0x100 {
		from := lo
		if from < 0x100 {
			from = 0x100
		}
		if n := len(s.ranges); n > 0 && s.ranges[n-1].hi >= from {
			panic("BUG: overlapping char set ranges")
		}
		s.ranges = append(s.ranges, charRange{lo: from, hi: hi})
	}
}

// SetChar adds a single code unit.
func (s *CharSet) SetChar(c Char) {
	s.SetRange(c, c)
}

// serialize appends the wire form: u16 range count, then lo/hi u16 pairs.
// Latin-1 bits are rebuilt from the ranges on load, so the direct-bit block
// is not serialized; the range list carries everything.
func (s *CharSet) serialize(buf []byte) []byte {
	ranges := s.allRanges()
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(ranges)))
	for _, r := range ranges {
		buf = binary.LittleEndian.AppendUint16(buf, r.lo)
		buf = binary.LittleEndian.AppendUint16(buf, r.hi)
	}
	return buf
}

// allRanges reconstructs the full sorted range list including the Latin-1
// bits.
func (s *CharSet) allRanges() []charRange {
	var ranges []charRange
	inRun := false
	var runStart Char
	for c := 0; c < 0x100; c++ {
		set := s.directBits[c>>5]&(1<<(c&31)) != 0
		if set && !inRun {
			inRun = true
			runStart = Char(c)
		} else if !set && inRun {
			inRun = false
			ranges = append(ranges, charRange{lo: runStart, hi: Char(c - 1)})
		}
	}
	if inRun {
		// The 0xFF run may continue into the first stored range.
		if len(s.ranges) > 0 && s.ranges[0].lo == 0x100 {
			ranges = append(ranges, charRange{lo: runStart, hi: s.ranges[0].hi})
			ranges = append(ranges, s.ranges[1:]...)
			return ranges
		}
		ranges = append(ranges, charRange{lo: runStart, hi: 0xFF})
	}
	return append(ranges, s.ranges...)
}

// deserializeCharSet decodes one set and returns the bytes consumed.
func deserializeCharSet(buf []byte) (*CharSet, int, error) {
	if len(buf) < 2 {
		return nil, 0, fmt.Errorf("char set truncated")
	}
	count := int(binary.LittleEndian.Uint16(buf))
	need := 2 + count*4
	if len(buf) < need {
		return nil, 0, fmt.Errorf("char set truncated: want %d bytes, have %d", need, len(buf))
	}
	set := &CharSet{}
	pos := 2
	prev := -1
	for i := 0; i < count; i++ {
		lo := binary.LittleEndian.Uint16(buf[pos:])
		hi := binary.LittleEndian.Uint16(buf[pos+2:])
		pos += 4
		if int(lo) <= prev || hi < lo {
			return nil, 0, fmt.Errorf("char set ranges not sorted")
		}
		set.SetRange(lo, hi)
		prev = int(hi)
	}
	return set, need, nil
}
