package regex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgramSaveLoadRoundTrip(t *testing.T) {
	b := NewProgramBuilder(IgnoreCaseFlag|GlobalFlag, "a[b-d]+(e)")
	set := b.AddSet([2]Char{'b', 'd'})
	lit, n := b.AddLiteral(toUTF16("xyz"))
	exit := b.NewLabel()
	b.MatchChar('a')
	begin := b.Here()
	b.BeginLoop(LoopSpec{LoopID: 0, Lower: 1, Upper: Infinite, MinBodyGroupID: 0, MaxBodyGroupID: -1, IsGreedy: true}, exit)
	b.MatchSet(set)
	b.RepeatLoop(begin)
	b.Bind(exit)
	b.BeginDefineGroup(1)
	b.MatchLiteral(lit, n)
	b.EndDefineGroup(1, false)
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	loaded, err := LoadProgram(p.Save())
	require.NoError(t, err)
	require.Equal(t, p.Tag, loaded.Tag)
	require.Equal(t, p.Flags, loaded.Flags)
	require.Equal(t, p.NumGroups, loaded.NumGroups)
	require.Equal(t, p.NumLoops, loaded.NumLoops)
	require.Equal(t, p.Source, loaded.Source)
	require.Equal(t, p.Insts, loaded.Insts)
	require.Equal(t, p.LitBuf, loaded.LitBuf)
	require.Equal(t, p.Dump(), loaded.Dump())

	// The loaded program executes identically.
	m, matched := runMatch(t, loaded, "zabcxyz", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 1, 6)
	requireGroup(t, m, 1, 4, 3)
}

func TestProgramSaveLoadFastPaths(t *testing.T) {
	t.Run("single char", func(t *testing.T) {
		p := &Program{Tag: SingleCharTag, NumGroups: 1, Source: "q", SingleChar: 'q'}
		loaded, err := LoadProgram(p.Save())
		require.NoError(t, err)
		require.Equal(t, Char('q'), loaded.SingleChar)

		m := NewMatcher(loaded)
		matched, err := m.Match(toUTF16("aqb"), 0)
		require.NoError(t, err)
		require.True(t, matched)
		require.Equal(t, GroupInfo{Offset: 1, Length: 1}, m.Group(0))
	})

	t.Run("boi literal2", func(t *testing.T) {
		p := &Program{Tag: BOILiteral2Tag, NumGroups: 1, Source: "ab", BOILiteral2: [2]Char{'a', 'b'}}
		loaded, err := LoadProgram(p.Save())
		require.NoError(t, err)

		m := NewMatcher(loaded)
		matched, err := m.Match(toUTF16("abc"), 0)
		require.NoError(t, err)
		require.True(t, matched)
		require.Equal(t, GroupInfo{Offset: 0, Length: 2}, m.Group(0))

		matched, err = m.Match(toUTF16("xab"), 0)
		require.NoError(t, err)
		require.False(t, matched)
	})

	t.Run("leading trailing spaces", func(t *testing.T) {
		p := &Program{Tag: LeadingTrailingSpacesTag, NumGroups: 1, Source: `^\s*|\s*$`}
		loaded, err := LoadProgram(p.Save())
		require.NoError(t, err)

		m := NewMatcher(loaded)
		matched, err := m.Match(toUTF16("  ab  "), 0)
		require.NoError(t, err)
		require.True(t, matched)
		require.Equal(t, GroupInfo{Offset: 0, Length: 2}, m.Group(0))
	})

	t.Run("bounded word", func(t *testing.T) {
		p := &Program{Tag: BoundedWordTag, NumGroups: 1, Source: `\b\w+\b`}
		loaded, err := LoadProgram(p.Save())
		require.NoError(t, err)

		m := NewMatcher(loaded)
		matched, err := m.Match(toUTF16("  word  "), 0)
		require.NoError(t, err)
		require.True(t, matched)
		require.Equal(t, GroupInfo{Offset: 2, Length: 4}, m.Group(0))
	})

	t.Run("octoquad", func(t *testing.T) {
		oq := &octoquadMatcher{alphabet: [4]Char{'a', 'b', 'c', 'd'}}
		for i := range oq.masks {
			oq.masks[i] = 0b0011 // a or b at every position
		}
		p := &Program{Tag: OctoquadTag, NumGroups: 1, Source: "[ab]{8}", Octoquad: oq}
		loaded, err := LoadProgram(p.Save())
		require.NoError(t, err)

		m := NewMatcher(loaded)
		matched, err := m.Match(toUTF16("ccababababcc"), 0)
		require.NoError(t, err)
		require.True(t, matched)
		require.Equal(t, GroupInfo{Offset: 2, Length: 8}, m.Group(0))
	})
}

func TestLoadProgramRejectsCorruptInput(t *testing.T) {
	_, err := LoadProgram([]byte{1, 2, 3})
	require.Error(t, err)

	_, err = LoadProgram(nil)
	require.Error(t, err)

	// Valid header, truncated instruction.
	b := NewProgramBuilder(0, "a")
	b.MatchChar('a')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)
	buf := p.Save()
	_, err = LoadProgram(buf[:len(buf)-1])
	require.Error(t, err)
}

func TestCharSet(t *testing.T) {
	set := &CharSet{}
	set.SetRange('a', 'z')
	set.SetRange(0x100, 0x200)
	set.SetChar(0x3042)

	require.True(t, set.Get('a'))
	require.True(t, set.Get('m'))
	require.True(t, set.Get('z'))
	require.False(t, set.Get('A'))
	require.True(t, set.Get(0x150))
	require.False(t, set.Get(0x201))
	require.True(t, set.Get(0x3042))
	require.False(t, set.Get(0x3043))

	// Wire round trip.
	decoded, n, err := deserializeCharSet(set.serialize(nil))
	require.NoError(t, err)
	require.Equal(t, len(set.serialize(nil)), n)
	for _, c := range []Char{'a', 'z', 'A', 0x100, 0x150, 0x200, 0x201, 0x3042} {
		require.Equal(t, set.Get(c), decoded.Get(c), "char %#x", c)
	}
}

func TestCharSetRangeSpanningLatin1Boundary(t *testing.T) {
	set := &CharSet{}
	set.SetRange(0xF0, 0x10F)
	require.True(t, set.Get(0xF0))
	require.True(t, set.Get(0xFF))
	require.True(t, set.Get(0x100))
	require.True(t, set.Get(0x10F))
	require.False(t, set.Get(0x110))

	decoded, _, err := deserializeCharSet(set.serialize(nil))
	require.NoError(t, err)
	for c := 0xE0; c <= 0x120; c++ {
		require.Equal(t, set.Get(Char(c)), decoded.Get(Char(c)), "char %#x", c)
	}
}

func TestScannerAgainstNaiveSearch(t *testing.T) {
	inputs := []string{
		"",
		"needle",
		"haystack needle haystack",
		"nee needle",
		"neeedle needlneedle",
		"aaaaaaaaaaaaaaaaaaaaaa",
	}
	pat := toUTF16("needle")

	naive := func(input []Char, from uint32) (uint32, bool) {
		for i := from; int(i)+len(pat) <= len(input); i++ {
			if matchLiteralAt(input, i, pat, 1) {
				return i, true
			}
		}
		return 0, false
	}

	for _, linear := range []bool{false, true} {
		s := newScanner(pat, 1, linear)
		for _, in := range inputs {
			input := toUTF16(in)
			offset := uint32(0)
			want, wantOK := naive(input, 0)
			got := offset
			gotOK := s.match(input, uint32(len(input)), &got, pat, 1)
			require.Equal(t, wantOK, gotOK, "input %q linear=%v", in, linear)
			if wantOK {
				require.Equal(t, want, got, "input %q linear=%v", in, linear)
			}
		}
	}
}

func TestDumpCoversAllEmittedInstructions(t *testing.T) {
	p := buildAlternationLoop(t)
	dump := p.Dump()
	require.Contains(t, dump, "BeginLoop")
	require.Contains(t, dump, "RepeatLoop")
	require.Contains(t, dump, "TryMatchChar")
	require.Contains(t, dump, "EndDefineGroup")
	require.Contains(t, dump, "Succ")
	require.NotContains(t, dump, "Invalid")
}
