package regex

import (
	"errors"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

func toUTF16(s string) []Char {
	return utf16.Encode([]rune(s))
}

func mustBuild(t *testing.T, b *ProgramBuilder, tag ProgramTag) *Program {
	t.Helper()
	p, err := b.Build(tag)
	require.NoError(t, err)
	return p
}

func runMatch(t *testing.T, p *Program, input string, start uint32) (*Matcher, bool) {
	t.Helper()
	m := NewMatcher(p)
	matched, err := m.Match(toUTF16(input), start)
	require.NoError(t, err)
	return m, matched
}

func requireGroup(t *testing.T, m *Matcher, id int, offset, length uint32) {
	t.Helper()
	g := m.Group(id)
	require.False(t, g.IsUndefined(), "group %d should be bound", id)
	require.Equal(t, offset, g.Offset, "group %d offset", id)
	require.Equal(t, length, g.Length, "group %d length", id)
}

// Pattern /a(b)c/ against "xabcy": g0=(1,3), g1=(2,1).
func TestMatchLiteralWithGroup(t *testing.T) {
	b := NewProgramBuilder(0, "a(b)c")
	b.MatchChar('a')
	b.BeginDefineGroup(1)
	b.MatchChar('b')
	b.EndDefineGroup(1, false)
	b.MatchChar('c')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "xabcy", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 1, 3)
	requireGroup(t, m, 1, 2, 1)
}

// Match determinism: repeated calls yield identical bindings.
func TestMatchDeterminism(t *testing.T) {
	b := NewProgramBuilder(0, "a(b)c")
	b.MatchChar('a')
	b.BeginDefineGroup(1)
	b.MatchChar('b')
	b.EndDefineGroup(1, false)
	b.MatchChar('c')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m := NewMatcher(p)
	for i := 0; i < 3; i++ {
		matched, err := m.Match(toUTF16("xabcy"), 0)
		require.NoError(t, err)
		require.True(t, matched)
		requireGroup(t, m, 0, 1, 3)
		requireGroup(t, m, 1, 2, 1)
	}
}

// buildAlternationLoop assembles /a(b|c)+d/ with a general loop: each
// iteration tries 'b' and falls back to 'c'.
func buildAlternationLoop(t *testing.T) *Program {
	b := NewProgramBuilder(0, "a(b|c)+d")
	exit := b.NewLabel()

	b.MatchChar('a')
	begin := b.Here()
	b.BeginLoop(LoopSpec{
		LoopID: 0, Lower: 1, Upper: Infinite,
		HasInnerNondet: true,
		MinBodyGroupID: 1, MaxBodyGroupID: 1,
		IsGreedy: true,
	}, exit)
	b.BeginDefineGroup(1)
	altFail := b.NewLabel()
	b.TryMatchChar('b', altFail)
	join := b.NewLabel()
	b.Jump(join)
	b.Bind(altFail)
	b.MatchChar('c')
	b.Bind(join)
	b.EndDefineGroup(1, false)
	b.RepeatLoop(begin)
	b.Bind(exit)
	b.MatchChar('d')
	b.Succ()
	return mustBuild(t, b, InstructionsTag)
}

// Pattern /a(b|c)+d/ against "abccbd": g0=(0,6), g1 binds the last
// iteration (4,1).
func TestAlternationLoop(t *testing.T) {
	p := buildAlternationLoop(t)

	m, matched := runMatch(t, p, "abccbd", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 6)
	requireGroup(t, m, 1, 4, 1)
}

// Greedy vs non-greedy duality: the greedy match of X{m,n} is at least as
// long as the non-greedy one.
func TestGreedyNonGreedyDuality(t *testing.T) {
	build := func(greedy bool) *Program {
		b := NewProgramBuilder(0, "a{1,3}")
		exit := b.NewLabel()
		begin := b.Here()
		b.BeginLoop(LoopSpec{LoopID: 0, Lower: 1, Upper: 3, MinBodyGroupID: 0, MaxBodyGroupID: -1, IsGreedy: greedy}, exit)
		b.MatchChar('a')
		b.RepeatLoop(begin)
		b.Bind(exit)
		b.Succ()
		return mustBuild(t, b, InstructionsTag)
	}

	mGreedy, matched := runMatch(t, build(true), "aaaa", 0)
	require.True(t, matched)
	mLazy, matched2 := runMatch(t, build(false), "aaaa", 0)
	require.True(t, matched2)
	require.GreaterOrEqual(t, mGreedy.Group(0).Length, mLazy.Group(0).Length)
	require.Equal(t, uint32(3), mGreedy.Group(0).Length)
	require.Equal(t, uint32(1), mLazy.Group(0).Length)
}

// Pattern /a*b/ via LoopSet against "aaab": one rewind continuation pushed.
func TestLoopSetGreedy(t *testing.T) {
	b := NewProgramBuilder(0, "a*b")
	set := b.AddSet([2]Char{'a', 'a'})
	b.LoopSet(set, 0, 0, Infinite, false)
	b.MatchChar('b')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "aaab", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 4)
	// The one choicepoint is the rewind continuation, still unconsumed.
	require.Equal(t, 1, m.stacks.contStack.position())
	require.Equal(t, contRewindLoopSet, m.stacks.contStack.top().tag)
}

// LoopSet backtracking: /a*ab/ on "aaab" must give back characters.
func TestLoopSetBacktracks(t *testing.T) {
	b := NewProgramBuilder(0, "a*ab")
	set := b.AddSet([2]Char{'a', 'a'})
	b.LoopSet(set, 0, 0, Infinite, false)
	b.MatchChar('a')
	b.MatchChar('b')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "aaab", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 4)
}

// Pattern /^(?=a)./ against "ab": assertion succeeds, continuations pushed
// inside the body are cut.
func TestPositiveLookahead(t *testing.T) {
	b := NewProgramBuilder(0, "^(?=a).")
	next := b.NewLabel()
	b.BOITest(false)
	b.BeginAssertion(false, 0, -1, next)
	// A choicepoint inside the body, to prove it gets cut.
	dead := b.NewLabel()
	b.Try(dead)
	b.MatchChar('a')
	b.EndAssertion()
	b.Bind(dead)
	b.Fail()
	b.Bind(next)
	dot := b.AddSet([2]Char{0x0000, 0x0009}, [2]Char{0x000B, 0x000C}, [2]Char{0x000E, 0x2027}, [2]Char{0x202A, 0xFFFF})
	b.MatchSet(dot)
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "ab", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 1)
	// The assertion cut removed the Try's Resume.
	require.Equal(t, 0, m.stacks.contStack.position())
	require.True(t, m.stacks.assertionStack.isEmpty())
}

func TestNegativeLookahead(t *testing.T) {
	build := func() *Program {
		b := NewProgramBuilder(0, "(?!a)b?")
		next := b.NewLabel()
		b.BeginAssertion(true, 0, -1, next)
		b.MatchChar('a')
		b.EndAssertion()
		b.Bind(next)
		b.OptMatchChar('b')
		b.Succ()
		return mustBuild(t, b, InstructionsTag)
	}

	m, matched := runMatch(t, build(), "b", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 1)

	// At "a..." the negative assertion fails at offset 0 but the outer
	// loop retries at offset 1, where the assertion holds and 'b' matches.
	m, matched = runMatch(t, build(), "ab", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 1, 1)
}

// Sticky flag: failure at the start offset does not retry later offsets.
func TestStickyDoesNotAdvance(t *testing.T) {
	b := NewProgramBuilder(StickyFlag, "b")
	b.MatchChar('b')
	b.Succ()
	p := mustBuild(t, b, BOIInstructionsForStickyFlagTag)

	_, matched := runMatch(t, p, "ab", 0)
	require.False(t, matched)

	m, matched := runMatch(t, p, "ab", 1)
	require.True(t, matched)
	requireGroup(t, m, 0, 1, 1)
}

// BOI hard fail at offset > 0 yields no match regardless of the suffix.
func TestBOIHardFail(t *testing.T) {
	b := NewProgramBuilder(0, "^a")
	b.BOITest(true)
	b.MatchChar('a')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	_, matched := runMatch(t, p, "xa", 1)
	require.False(t, matched)

	m, matched := runMatch(t, p, "ab", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 1)
}

// EOI hard fail before the end advances the outer loop straight to the end,
// where an empty match is still possible.
func TestEOIHardFail(t *testing.T) {
	b := NewProgramBuilder(0, "a*$")
	set := b.AddSet([2]Char{'a', 'a'})
	b.LoopSet(set, 0, 0, Infinite, false)
	b.EOITest(true)
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	// /a*$/ on "b": empty match at the end.
	m, matched := runMatch(t, p, "b", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 1, 0)
}

// Zero-width guard: a {0,inf} loop over a nullable body terminates.
func TestLoopZeroWidthGuard(t *testing.T) {
	b := NewProgramBuilder(0, "(?:a?)*b")
	exit := b.NewLabel()
	begin := b.Here()
	b.BeginLoop(LoopSpec{LoopID: 0, Lower: 0, Upper: Infinite, MinBodyGroupID: 0, MaxBodyGroupID: -1, IsGreedy: true}, exit)
	b.OptMatchChar('a')
	b.RepeatLoop(begin)
	b.Bind(exit)
	b.MatchChar('b')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "aab", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 3)

	_, matched = runMatch(t, p, "aac", 0)
	require.False(t, matched)
}

func TestNonGreedyLoop(t *testing.T) {
	// /a+?b/: non-greedy with lower 1.
	b := NewProgramBuilder(0, "a+?b")
	exit := b.NewLabel()
	begin := b.Here()
	b.BeginLoop(LoopSpec{LoopID: 0, Lower: 1, Upper: Infinite, MinBodyGroupID: 0, MaxBodyGroupID: -1, IsGreedy: false}, exit)
	b.MatchChar('a')
	b.RepeatLoop(begin)
	b.Bind(exit)
	b.MatchChar('b')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "aaab", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 4)
}

func TestBeginLoopFixed(t *testing.T) {
	// /(?:ab){1,3}c/ with fixed-length iterations.
	b := NewProgramBuilder(0, "(?:ab){1,3}c")
	exit := b.NewLabel()
	begin := b.Here()
	b.BeginLoopFixed(LoopSpec{LoopID: 0, Lower: 1, Upper: 3}, exit, 2)
	b.MatchChar('a')
	b.MatchChar('b')
	b.RepeatLoopFixed(begin)
	b.Bind(exit)
	b.MatchChar('c')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	// Fewer than max iterations, then rewind to find 'c'.
	m, matched := runMatch(t, p, "ababc", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 5)

	m, matched = runMatch(t, p, "abababc", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 7)

	_, matched = runMatch(t, p, "ac", 0)
	require.False(t, matched)
}

func TestBeginLoopFixedGroupLastIteration(t *testing.T) {
	// /(ab){1,3}c/ binding the group to the last iteration.
	b := NewProgramBuilder(0, "(ab){1,3}c")
	exit := b.NewLabel()
	begin := b.Here()
	b.BeginLoopFixedGroupLastIteration(LoopSpec{LoopID: 0, Lower: 1, Upper: 3}, exit, 2, 1, true)
	b.MatchChar('a')
	b.MatchChar('b')
	b.RepeatLoopFixedGroupLastIteration(begin)
	b.Bind(exit)
	b.MatchChar('c')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "ababc", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 5)
	requireGroup(t, m, 1, 2, 2)
}

func TestLoopSetWithFollowFirst(t *testing.T) {
	// /[ab]*b/ where the follow's first char 'b' is also in the set.
	b := NewProgramBuilder(0, "[ab]*b")
	set := b.AddSet([2]Char{'a', 'b'})
	b.LoopSetWithFollowFirst(set, 0, 0, Infinite, false, 'b')
	b.MatchChar('b')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "aabab", 0)
	require.True(t, matched)
	// Greedy chomp takes all five, then rewinds to the last 'b' candidate.
	requireGroup(t, m, 0, 0, 5)

	_, matched = runMatch(t, p, "aaa", 0)
	require.False(t, matched)
}

func TestChomps(t *testing.T) {
	t.Run("char star", func(t *testing.T) {
		b := NewProgramBuilder(0, "a*$")
		b.ChompChar('a', true)
		b.EOITest(false)
		b.Succ()
		p := mustBuild(t, b, InstructionsTag)

		m, matched := runMatch(t, p, "aaa", 0)
		require.True(t, matched)
		requireGroup(t, m, 0, 0, 3)
	})

	t.Run("char plus fails on no match", func(t *testing.T) {
		b := NewProgramBuilder(0, "a+")
		b.ChompChar('a', false)
		b.Succ()
		p := mustBuild(t, b, InstructionsTag)

		_, matched := runMatch(t, p, "bbb", 0)
		require.False(t, matched)

		m, matched := runMatch(t, p, "baa", 0)
		require.True(t, matched)
		requireGroup(t, m, 0, 1, 2)
	})

	t.Run("set group", func(t *testing.T) {
		b := NewProgramBuilder(0, "([0-9]+)$")
		set := b.AddSet([2]Char{'0', '9'})
		b.ChompSetGroup(set, 1, false, false)
		b.EOITest(false)
		b.Succ()
		p := mustBuild(t, b, InstructionsTag)

		m, matched := runMatch(t, p, "ab123", 0)
		require.True(t, matched)
		requireGroup(t, m, 0, 2, 3)
		requireGroup(t, m, 1, 2, 3)
	})

	t.Run("bounded", func(t *testing.T) {
		b := NewProgramBuilder(0, "a{2,3}")
		b.ChompCharBounded('a', 2, 3)
		b.Succ()
		p := mustBuild(t, b, InstructionsTag)

		m, matched := runMatch(t, p, "aaaaa", 0)
		require.True(t, matched)
		// Bounded chomp stops at the cap.
		requireGroup(t, m, 0, 0, 3)

		_, matched = runMatch(t, p, "a", 0)
		require.False(t, matched)
	})
}

func TestSwitchInstructions(t *testing.T) {
	// Dispatch over {a, b} with consume; default falls through to Fail.
	b := NewProgramBuilder(0, "a|b")
	la := b.NewLabel()
	lb := b.NewLabel()
	b.Switch(true, SwitchCase{C: 'a', Target: la}, SwitchCase{C: 'b', Target: lb})
	b.Fail()
	b.Bind(la)
	b.MatchChar('x')
	b.Succ()
	b.Bind(lb)
	b.MatchChar('y')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "by", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 2)

	m, matched = runMatch(t, p, "zax", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 1, 2)
}

func TestWordBoundary(t *testing.T) {
	b := NewProgramBuilder(0, `\bcat\b`)
	lit, n := b.AddLiteral(toUTF16("cat"))
	b.SyncToCharAndContinue('c')
	b.WordBoundaryTest(false)
	b.MatchLiteral(lit, n)
	b.WordBoundaryTest(false)
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "a cat sat", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 2, 3)

	_, matched = runMatch(t, p, "concatenate", 0)
	require.False(t, matched)
}

func TestBackReference(t *testing.T) {
	// /(ab)\1/ matches "abab".
	build := func(flags Flags) *Program {
		b := NewProgramBuilder(flags, `(ab)\1`)
		b.BeginDefineGroup(1)
		b.MatchChar('a')
		b.MatchChar('b')
		b.EndDefineGroup(1, false)
		b.MatchGroup(1)
		b.Succ()
		return mustBuild(t, b, InstructionsTag)
	}

	m, matched := runMatch(t, build(0), "abab", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 4)
	requireGroup(t, m, 1, 0, 2)

	_, matched = runMatch(t, build(0), "abac", 0)
	require.False(t, matched)

	// Case-insensitive back-reference uses canonical equivalence.
	m, matched = runMatch(t, build(IgnoreCaseFlag), "abAB", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 4)
}

func TestMatchLiteralEquiv(t *testing.T) {
	b := NewProgramBuilder(IgnoreCaseFlag, "ab")
	lit, n := b.AddEquivLiteral(toUTF16("ab"))
	b.MatchLiteralEquiv(lit, n)
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	for _, input := range []string{"ab", "AB", "Ab", "aB"} {
		m, matched := runMatch(t, p, input, 0)
		require.True(t, matched, "input %q", input)
		requireGroup(t, m, 0, 0, 2)
	}
}

func TestMatchTrie(t *testing.T) {
	b := NewProgramBuilder(0, "foo|foobar|fox")
	trie := b.AddTrie(toUTF16("foo"), toUTF16("foobar"), toUTF16("fox"))
	b.MatchTrie(trie)
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	// Longest alternative wins.
	m, matched := runMatch(t, p, "foobar", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 6)

	m, matched = runMatch(t, p, "fox", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 3)
}

func TestSyncToLiteral(t *testing.T) {
	b := NewProgramBuilder(0, "needle")
	lit, n := b.AddLiteral(toUTF16("needle"))
	b.SyncToLiteralAndContinue(lit, n)
	b.MatchLiteral(lit, n)
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "hay needle hay", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 4, 6)

	_, matched = runMatch(t, p, "haystack", 0)
	require.False(t, matched)
}

func TestSyncToLiteralAndBackup(t *testing.T) {
	// /.needle/ style: sync to the literal, back up one for the dot.
	b := NewProgramBuilder(0, ".needle")
	lit, n := b.AddLiteral(toUTF16("needle"))
	any := b.AddSet([2]Char{0x0000, 0xFFFF})
	b.SyncToLiteralAndBackup(lit, n, 1, 1)
	b.MatchSet(any)
	b.MatchLiteral(lit, n)
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "xxneedle", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 1, 7)

	// A match at offset 0 leaves no room for the minimum backup.
	_, matched = runMatch(t, p, "needle", 0)
	require.False(t, matched)
}

func TestGreedyLoopNoBacktrack(t *testing.T) {
	// /(?:a+)*$/-shaped irrefutable loop.
	b := NewProgramBuilder(0, "(?:a+)*$")
	exit := b.NewLabel()
	begin := b.Here()
	b.BeginGreedyLoopNoBacktrack(0, exit)
	b.ChompChar('a', false)
	b.RepeatGreedyLoopNoBacktrack(begin)
	b.Bind(exit)
	b.EOITest(false)
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "aaa", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 3)
}

func TestBacktrackExhaustionAccounting(t *testing.T) {
	// A failing pattern leaves both stacks drained.
	b := NewProgramBuilder(0, "(?:ab|ac)d")
	altFail := b.NewLabel()
	b.TryMatchChar('a', altFail)
	b.MatchChar('b')
	join := b.NewLabel()
	b.Jump(join)
	b.Bind(altFail)
	b.MatchChar('a')
	b.MatchChar('c')
	b.Bind(join)
	b.MatchChar('d')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "acx", 0)
	require.False(t, matched)
	require.True(t, m.Group(0).IsUndefined())
	require.Equal(t, 0, m.stacks.contStack.position())
	require.True(t, m.stacks.assertionStack.isEmpty())

	m, matched = runMatch(t, p, "acd", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 3)
}

func TestInterruptUnwindsEngine(t *testing.T) {
	// A non-greedy loop over a long input with no way to match: every
	// failed follow pops a RepeatLoop continuation, which is a
	// query-continue point, so the tick counter trips deterministically.
	b := NewProgramBuilder(0, "a*?x")
	exit := b.NewLabel()
	begin := b.Here()
	b.BeginLoop(LoopSpec{LoopID: 0, Lower: 0, Upper: Infinite, MinBodyGroupID: 0, MaxBodyGroupID: -1, IsGreedy: false}, exit)
	b.MatchChar('a')
	b.RepeatLoop(begin)
	b.Bind(exit)
	b.MatchChar('x')
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	wantErr := errors.New("script terminated")
	m := NewMatcher(p)
	m.SetInterruptCheck(func() error { return wantErr })

	input := make([]Char, TicksPerQcTimeCheck+16)
	for i := range input {
		input[i] = 'a'
	}
	matched, err := m.Match(input, 0)
	require.False(t, matched)
	require.ErrorIs(t, err, wantErr)
}

func TestOptMatchNeverFails(t *testing.T) {
	b := NewProgramBuilder(0, "a?b?")
	set := b.AddSet([2]Char{'b', 'b'})
	b.OptMatchChar('a')
	b.OptMatchSet(set)
	b.Succ()
	p := mustBuild(t, b, InstructionsTag)

	m, matched := runMatch(t, p, "zzz", 0)
	require.True(t, matched)
	requireGroup(t, m, 0, 0, 0)
}
