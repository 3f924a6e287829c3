package linecache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected []uint32
	}{
		{
			name:     "empty",
			source:   "",
			expected: []uint32{0},
		},
		{
			name:     "no terminators",
			source:   "abc",
			expected: []uint32{0},
		},
		{
			name:     "crlf counts as one terminator",
			source:   "a\r\nb\nc",
			expected: []uint32{0, 3, 5},
		},
		{
			name:     "lone cr",
			source:   "a\rb",
			expected: []uint32{0, 2},
		},
		{
			name:     "ls and ps",
			source:   "a b c",
			expected: []uint32{0, 2, 4},
		},
		{
			name:     "trailing newline opens a line",
			source:   "a\n",
			expected: []uint32{0, 2},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := Build([]byte(tc.source), 0, 0)
			require.Equal(t, tc.expected, c.CharOffsets())
		})
	}
}

func TestBuildMonotonic(t *testing.T) {
	c := Build([]byte("one\ntwo\r\nthree\rfour\n\nfive"), 0, 0)
	offsets := c.CharOffsets()
	for i := 1; i < len(offsets); i++ {
		require.Less(t, offsets[i-1], offsets[i])
	}
}

func TestByteOffsetsMaterializeOnMultibyte(t *testing.T) {
	// ASCII only: a single array suffices.
	c := Build([]byte("a\nb\nc"), 0, 0)
	require.Nil(t, c.ByteOffsets())

	// U+2028 is three UTF-8 bytes but one character, so the byte list
	// appears and diverges.
	c = Build([]byte("a b\nc"), 0, 0)
	require.Equal(t, []uint32{0, 2, 4}, c.CharOffsets())
	require.Equal(t, []uint32{0, 4, 6}, c.ByteOffsets())

	charOffset, byteOffset := c.OffsetsForLine(1)
	require.Equal(t, uint32(2), charOffset)
	require.Equal(t, uint32(4), byteOffset)
}

func TestFindLineForCharOffset(t *testing.T) {
	c := Build([]byte("aa\nbb\ncc"), 0, 0)

	tests := []struct {
		offset    uint32
		line      int
		lineStart uint32
	}{
		{offset: 0, line: 0, lineStart: 0},
		{offset: 2, line: 0, lineStart: 0},
		{offset: 3, line: 1, lineStart: 3},
		{offset: 5, line: 1, lineStart: 3},
		{offset: 6, line: 2, lineStart: 6},
		{offset: 100, line: 2, lineStart: 6},
	}
	for _, tc := range tests {
		line, lineStart, _, ok := c.FindLineForCharOffset(tc.offset)
		require.True(t, ok)
		require.Equal(t, tc.line, line)
		require.Equal(t, tc.lineStart, lineStart)
	}
}

func TestFindLineBeforeStart(t *testing.T) {
	c := Build([]byte("aa\nbb"), 10, 10)
	_, _, _, ok := c.FindLineForCharOffset(5)
	require.False(t, ok)
}

func TestStartingOffsets(t *testing.T) {
	c := Build([]byte("a\nb"), 100, 200)
	require.Equal(t, []uint32{100, 102}, c.CharOffsets())
	// Offsets diverge from the start, so the byte list exists.
	require.Equal(t, []uint32{200, 202}, c.ByteOffsets())
}
