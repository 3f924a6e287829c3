package regex

import (
	"encoding/binary"
	"fmt"
)

// LabelRef names a not-necessarily-bound-yet position in the instruction
// stream being assembled.
type LabelRef int

// ProgramBuilder assembles regex programs. The production compiler lives in
// the front end; this assembler is the debugging and testing surface, kept
// next to the decoder so the two stay in sync.
type ProgramBuilder struct {
	flags  Flags
	source string

	insts  []byte
	litBuf []Char
	sets   []*CharSet
	tries  []*charTrie

	numGroups int
	numLoops  int

	labels  map[LabelRef]Label
	patches []labelPatch
	nextRef LabelRef
}

type labelPatch struct {
	at  uint32
	ref LabelRef
}

// NewProgramBuilder returns an empty builder.
func NewProgramBuilder(flags Flags, source string) *ProgramBuilder {
	return &ProgramBuilder{
		flags:  flags,
		source: source,
		labels: map[LabelRef]Label{},
	}
}

// NewLabel allocates an unbound label.
func (b *ProgramBuilder) NewLabel() LabelRef {
	ref := b.nextRef
	b.nextRef++
	return ref
}

// Bind binds the label to the current position.
func (b *ProgramBuilder) Bind(ref LabelRef) {
	if _, ok := b.labels[ref]; ok {
		panic("BUG: label bound twice")
	}
	b.labels[ref] = Label(len(b.insts))
}

// Here returns a label bound to the current position.
func (b *ProgramBuilder) Here() LabelRef {
	ref := b.NewLabel()
	b.Bind(ref)
	return ref
}

// AddSet interns a character set built from the inclusive ranges.
func (b *ProgramBuilder) AddSet(ranges ...[2]Char) uint32 {
	set := &CharSet{}
	for _, r := range ranges {
		set.SetRange(r[0], r[1])
	}
	b.sets = append(b.sets, set)
	return uint32(len(b.sets) - 1)
}

// AddLiteral interns a literal and returns its (offset, length in chars).
func (b *ProgramBuilder) AddLiteral(chars []Char) (uint32, uint32) {
	offset := uint32(len(b.litBuf))
	b.litBuf = append(b.litBuf, chars...)
	return offset, uint32(len(chars))
}

// AddEquivLiteral interns an equivalence-class literal: logical length n,
// stored as n consecutive equivalence classes of EquivClassSize chars.
func (b *ProgramBuilder) AddEquivLiteral(chars []Char) (uint32, uint32) {
	offset := uint32(len(b.litBuf))
	var equivs [EquivClassSize]rune
	for _, c := range chars {
		equivClass(rune(c), &equivs)
		for _, e := range equivs {
			if e > 0xFFFF {
				e = rune(c)
			}
			b.litBuf = append(b.litBuf, Char(e))
		}
	}
	return offset, uint32(len(chars))
}

// AddTrie interns a trie over the alternatives.
func (b *ProgramBuilder) AddTrie(alts ...[]Char) uint32 {
	trie := &charTrie{}
	for _, alt := range alts {
		trie.add(alt)
	}
	b.tries = append(b.tries, trie)
	return uint32(len(b.tries) - 1)
}

func (b *ProgramBuilder) tag(t instTag) *ProgramBuilder {
	b.insts = append(b.insts, byte(t))
	return b
}

func (b *ProgramBuilder) char(c Char) *ProgramBuilder {
	b.insts = binary.LittleEndian.AppendUint16(b.insts, c)
	return b
}

func (b *ProgramBuilder) u32(v uint32) *ProgramBuilder {
	b.insts = binary.LittleEndian.AppendUint32(b.insts, v)
	return b
}

func (b *ProgramBuilder) i32(v int32) *ProgramBuilder {
	return b.u32(uint32(v))
}

func (b *ProgramBuilder) boolean(v bool) *ProgramBuilder {
	if v {
		b.insts = append(b.insts, 1)
	} else {
		b.insts = append(b.insts, 0)
	}
	return b
}

func (b *ProgramBuilder) count(lower, upper uint32) *ProgramBuilder {
	return b.u32(lower).u32(upper)
}

func (b *ProgramBuilder) label(ref LabelRef) *ProgramBuilder {
	b.patches = append(b.patches, labelPatch{at: uint32(len(b.insts)), ref: ref})
	return b.u32(0)
}

func (b *ProgramBuilder) trackGroup(groupID int32) int32 {
	if int(groupID)+1 > b.numGroups {
		b.numGroups = int(groupID) + 1
	}
	return groupID
}

func (b *ProgramBuilder) trackLoop(loopID int32) int32 {
	if int(loopID)+1 > b.numLoops {
		b.numLoops = int(loopID) + 1
	}
	return loopID
}

// Infinite is the unbounded upper repeat count.
const Infinite = charCountInfinity

// Control flow.

// Nop emits a Nop.
func (b *ProgramBuilder) Nop() { b.tag(instNop) }

// Fail emits a Fail.
func (b *ProgramBuilder) Fail() { b.tag(instFail) }

// Succ emits a Succ.
func (b *ProgramBuilder) Succ() { b.tag(instSucc) }

// Jump emits an unconditional jump.
func (b *ProgramBuilder) Jump(target LabelRef) { b.tag(instJump).label(target) }

// JumpIfNotChar jumps unless the next char is c.
func (b *ProgramBuilder) JumpIfNotChar(c Char, target LabelRef) {
	b.tag(instJumpIfNotChar).char(c).label(target)
}

// MatchCharOrJump consumes c or jumps.
func (b *ProgramBuilder) MatchCharOrJump(c Char, target LabelRef) {
	b.tag(instMatchCharOrJump).char(c).label(target)
}

// JumpIfNotSet jumps unless the next char is in the set.
func (b *ProgramBuilder) JumpIfNotSet(setIdx uint32, target LabelRef) {
	b.tag(instJumpIfNotSet).u32(setIdx).label(target)
}

// MatchSetOrJump consumes a set char or jumps.
func (b *ProgramBuilder) MatchSetOrJump(setIdx uint32, target LabelRef) {
	b.tag(instMatchSetOrJump).u32(setIdx).label(target)
}

// SwitchCase is one (char, target) pair of a Switch instruction.
type SwitchCase struct {
	C      Char
	Target LabelRef
}

// Switch emits the smallest switch form fitting the cases. Cases must be
// sorted by char.
func (b *ProgramBuilder) Switch(consume bool, cases ...SwitchCase) {
	var t instTag
	var capacity int
	switch {
	case len(cases) <= 2:
		t, capacity = instSwitch2, 2
	case len(cases) <= 4:
		t, capacity = instSwitch4, 4
	case len(cases) <= 8:
		t, capacity = instSwitch8, 8
	case len(cases) <= 16:
		t, capacity = instSwitch16, 16
	case len(cases) <= 24:
		t, capacity = instSwitch24, 24
	default:
		panic("BUG: too many switch cases")
	}
	if consume {
		t += instSwitchAndConsume2 - instSwitch2
	}
	b.tag(t)
	b.insts = append(b.insts, byte(len(cases)))
	for _, c := range cases {
		b.char(c.C).label(c.Target)
	}
	for i := len(cases); i < capacity; i++ {
		b.char(0).u32(0)
	}
}

// Position assertions.

// BOITest emits a begin-of-input test; hardFail selects the variant that
// cuts the outer retry loop.
func (b *ProgramBuilder) BOITest(hardFail bool) {
	if hardFail {
		b.tag(instBOIHardFailTest)
	} else {
		b.tag(instBOITest)
	}
}

// EOITest emits an end-of-input test.
func (b *ProgramBuilder) EOITest(hardFail bool) {
	if hardFail {
		b.tag(instEOIHardFailTest)
	} else {
		b.tag(instEOITest)
	}
}

// BOLTest emits a begin-of-line test.
func (b *ProgramBuilder) BOLTest() { b.tag(instBOLTest) }

// EOLTest emits an end-of-line test.
func (b *ProgramBuilder) EOLTest() { b.tag(instEOLTest) }

// WordBoundaryTest emits \b or \B.
func (b *ProgramBuilder) WordBoundaryTest(negated bool) {
	if negated {
		b.tag(instNegatedWordBoundaryTest)
	} else {
		b.tag(instWordBoundaryTest)
	}
}

// Matching primitives.

// MatchChar consumes exactly c.
func (b *ProgramBuilder) MatchChar(c Char) { b.tag(instMatchChar).char(c) }

// MatchChar2 consumes one of two chars.
func (b *ProgramBuilder) MatchChar2(c0, c1 Char) { b.tag(instMatchChar2).char(c0).char(c1) }

// MatchChar3 consumes one of three chars.
func (b *ProgramBuilder) MatchChar3(c0, c1, c2 Char) {
	b.tag(instMatchChar3).char(c0).char(c1).char(c2)
}

// MatchChar4 consumes one of four chars.
func (b *ProgramBuilder) MatchChar4(c0, c1, c2, c3 Char) {
	b.tag(instMatchChar4).char(c0).char(c1).char(c2).char(c3)
}

// MatchSet consumes a set member.
func (b *ProgramBuilder) MatchSet(setIdx uint32) { b.tag(instMatchSet).u32(setIdx) }

// MatchNegatedSet consumes a non-member.
func (b *ProgramBuilder) MatchNegatedSet(setIdx uint32) { b.tag(instMatchNegatedSet).u32(setIdx) }

// MatchLiteral consumes the literal.
func (b *ProgramBuilder) MatchLiteral(offset, length uint32) {
	b.tag(instMatchLiteral).u32(offset).u32(length)
}

// MatchLiteralEquiv consumes the equivalence-class literal.
func (b *ProgramBuilder) MatchLiteralEquiv(offset, length uint32) {
	b.tag(instMatchLiteralEquiv).u32(offset).u32(length)
}

// MatchTrie consumes the longest trie alternative.
func (b *ProgramBuilder) MatchTrie(trieIdx uint32) { b.tag(instMatchTrie).u32(trieIdx) }

// OptMatchChar consumes c if present; never fails.
func (b *ProgramBuilder) OptMatchChar(c Char) { b.tag(instOptMatchChar).char(c) }

// OptMatchSet consumes a set member if present; never fails.
func (b *ProgramBuilder) OptMatchSet(setIdx uint32) { b.tag(instOptMatchSet).u32(setIdx) }

// MatchGroup matches a back-reference.
func (b *ProgramBuilder) MatchGroup(groupID int32) {
	b.tag(instMatchGroup).i32(b.trackGroup(groupID))
}

// Synchronization.

// SyncToCharAndContinue fast-forwards to c without consuming.
func (b *ProgramBuilder) SyncToCharAndContinue(c Char) {
	b.tag(instSyncToCharAndContinue).char(c)
}

// SyncToCharAndConsume fast-forwards to c and consumes it.
func (b *ProgramBuilder) SyncToCharAndConsume(c Char) {
	b.tag(instSyncToCharAndConsume).char(c)
}

// SyncToChar2SetAndContinue fast-forwards to either char.
func (b *ProgramBuilder) SyncToChar2SetAndContinue(c0, c1 Char) {
	b.tag(instSyncToChar2SetAndContinue).char(c0).char(c1)
}

// SyncToSetAndContinue fast-forwards to a set member.
func (b *ProgramBuilder) SyncToSetAndContinue(setIdx uint32) {
	b.tag(instSyncToSetAndContinue).u32(setIdx)
}

// SyncToLiteralAndContinue fast-forwards to the literal.
func (b *ProgramBuilder) SyncToLiteralAndContinue(offset, length uint32) {
	b.tag(instSyncToLiteralAndContinue).u32(offset).u32(length)
}

// SyncToLiteralAndConsume fast-forwards past the literal.
func (b *ProgramBuilder) SyncToLiteralAndConsume(offset, length uint32) {
	b.tag(instSyncToLiteralAndConsume).u32(offset).u32(length)
}

// SyncToCharAndBackup fast-forwards to c then backs the match start up by
// the given range.
func (b *ProgramBuilder) SyncToCharAndBackup(c Char, backupLower, backupUpper uint32) {
	b.tag(instSyncToCharAndBackup).char(c).count(backupLower, backupUpper)
}

// SyncToLiteralAndBackup fast-forwards to the literal then backs up.
func (b *ProgramBuilder) SyncToLiteralAndBackup(offset, length, backupLower, backupUpper uint32) {
	b.tag(instSyncToLiteralAndBackup).u32(offset).u32(length).count(backupLower, backupUpper)
}

// SyncLiteral is one literal of a SyncToLiteralsAndBackup.
type SyncLiteral struct {
	Offset, Length uint32
	IsEquiv        bool
}

// SyncToLiteralsAndBackup syncs to whichever literal occurs earliest.
func (b *ProgramBuilder) SyncToLiteralsAndBackup(literals []SyncLiteral, backupLower, backupUpper uint32) {
	if len(literals) == 0 || len(literals) > maxNumSyncLiterals {
		panic("BUG: bad sync literal count")
	}
	b.tag(instSyncToLiteralsAndBackup)
	b.insts = append(b.insts, byte(len(literals)))
	for i := 0; i < maxNumSyncLiterals; i++ {
		var lit SyncLiteral
		if i < len(literals) {
			lit = literals[i]
		}
		b.u32(lit.Offset).u32(lit.Length).boolean(lit.IsEquiv)
	}
	b.count(backupLower, backupUpper)
}

// Group bookkeeping.

// BeginDefineGroup opens group definition.
func (b *ProgramBuilder) BeginDefineGroup(groupID int32) {
	b.tag(instBeginDefineGroup).i32(b.trackGroup(groupID))
}

// EndDefineGroup closes group definition.
func (b *ProgramBuilder) EndDefineGroup(groupID int32, noNeedToSave bool) {
	b.tag(instEndDefineGroup).i32(b.trackGroup(groupID)).boolean(noNeedToSave)
}

// DefineGroupFixed binds the group to the preceding fixed-length match.
func (b *ProgramBuilder) DefineGroupFixed(groupID int32, length uint32, noNeedToSave bool) {
	b.tag(instDefineGroupFixed).i32(b.trackGroup(groupID)).u32(length).boolean(noNeedToSave)
}

// LoopSpec carries the common loop parameters.
type LoopSpec struct {
	LoopID         int32
	Lower, Upper   uint32
	HasOuterLoops  bool
	HasInnerNondet bool
	MinBodyGroupID int32
	MaxBodyGroupID int32
	IsGreedy       bool
}

func (b *ProgramBuilder) beginLoopMixin(spec LoopSpec, exit LabelRef) {
	b.i32(b.trackLoop(spec.LoopID)).count(spec.Lower, spec.Upper).
		boolean(spec.HasOuterLoops).boolean(spec.HasInnerNondet).label(exit)
}

// BeginLoop opens a general loop.
func (b *ProgramBuilder) BeginLoop(spec LoopSpec, exit LabelRef) {
	b.tag(instBeginLoop)
	b.beginLoopMixin(spec, exit)
	b.i32(spec.MinBodyGroupID).i32(spec.MaxBodyGroupID).boolean(spec.IsGreedy)
}

// RepeatLoop closes a general loop.
func (b *ProgramBuilder) RepeatLoop(begin LabelRef) {
	b.tag(instRepeatLoop).label(begin)
}

// BeginLoopIfChar opens a char-guarded loop.
func (b *ProgramBuilder) BeginLoopIfChar(c Char, spec LoopSpec, exit LabelRef) {
	b.tag(instBeginLoopIfChar).char(c)
	b.beginLoopMixin(spec, exit)
	b.i32(spec.MinBodyGroupID).i32(spec.MaxBodyGroupID)
}

// BeginLoopIfSet opens a set-guarded loop.
func (b *ProgramBuilder) BeginLoopIfSet(setIdx uint32, spec LoopSpec, exit LabelRef) {
	b.tag(instBeginLoopIfSet).u32(setIdx)
	b.beginLoopMixin(spec, exit)
	b.i32(spec.MinBodyGroupID).i32(spec.MaxBodyGroupID)
}

// RepeatLoopIfChar closes a char-guarded loop.
func (b *ProgramBuilder) RepeatLoopIfChar(begin LabelRef) {
	b.tag(instRepeatLoopIfChar).label(begin)
}

// RepeatLoopIfSet closes a set-guarded loop.
func (b *ProgramBuilder) RepeatLoopIfSet(begin LabelRef) {
	b.tag(instRepeatLoopIfSet).label(begin)
}

// BeginLoopFixed opens a fixed-length loop.
func (b *ProgramBuilder) BeginLoopFixed(spec LoopSpec, exit LabelRef, length uint32) {
	b.tag(instBeginLoopFixed)
	b.beginLoopMixin(spec, exit)
	b.u32(length)
}

// RepeatLoopFixed closes a fixed-length loop.
func (b *ProgramBuilder) RepeatLoopFixed(begin LabelRef) {
	b.tag(instRepeatLoopFixed).label(begin)
}

// LoopSet emits the single-instruction greedy set loop.
func (b *ProgramBuilder) LoopSet(setIdx uint32, loopID int32, lower, upper uint32, hasOuterLoops bool) {
	b.tag(instLoopSet).u32(setIdx).i32(b.trackLoop(loopID)).count(lower, upper).boolean(hasOuterLoops)
}

// LoopSetWithFollowFirst is LoopSet accelerated by the follow's known first
// character; MaxUChar means no follow-first is known.
func (b *ProgramBuilder) LoopSetWithFollowFirst(setIdx uint32, loopID int32, lower, upper uint32, hasOuterLoops bool, followFirst Char) {
	b.tag(instLoopSetWithFollowFirst).u32(setIdx).i32(b.trackLoop(loopID)).
		count(lower, upper).boolean(hasOuterLoops).char(followFirst)
}

// BeginLoopFixedGroupLastIteration opens the fixed loop whose single group
// binds to the last iteration.
func (b *ProgramBuilder) BeginLoopFixedGroupLastIteration(spec LoopSpec, exit LabelRef, length uint32, groupID int32, noNeedToSave bool) {
	b.tag(instBeginLoopFixedGroupLastIteration)
	b.beginLoopMixin(spec, exit)
	b.u32(length).i32(b.trackGroup(groupID)).boolean(noNeedToSave)
}

// RepeatLoopFixedGroupLastIteration closes that loop.
func (b *ProgramBuilder) RepeatLoopFixedGroupLastIteration(begin LabelRef) {
	b.tag(instRepeatLoopFixedGroupLastIteration).label(begin)
}

// BeginGreedyLoopNoBacktrack opens an irrefutable greedy loop.
func (b *ProgramBuilder) BeginGreedyLoopNoBacktrack(loopID int32, exit LabelRef) {
	b.tag(instBeginGreedyLoopNoBacktrack).i32(b.trackLoop(loopID)).label(exit)
}

// RepeatGreedyLoopNoBacktrack closes it.
func (b *ProgramBuilder) RepeatGreedyLoopNoBacktrack(begin LabelRef) {
	b.tag(instRepeatGreedyLoopNoBacktrack).label(begin)
}

// Chomps.

// ChompChar chomps c unconditionally; star selects * vs +.
func (b *ProgramBuilder) ChompChar(c Char, star bool) {
	if star {
		b.tag(instChompCharStar)
	} else {
		b.tag(instChompCharPlus)
	}
	b.char(c)
}

// ChompSet chomps set members unconditionally.
func (b *ProgramBuilder) ChompSet(setIdx uint32, star bool) {
	if star {
		b.tag(instChompSetStar)
	} else {
		b.tag(instChompSetPlus)
	}
	b.u32(setIdx)
}

// ChompCharGroup chomps and binds the chomped range to a group.
func (b *ProgramBuilder) ChompCharGroup(c Char, groupID int32, noNeedToSave, star bool) {
	if star {
		b.tag(instChompCharGroupStar)
	} else {
		b.tag(instChompCharGroupPlus)
	}
	b.char(c).i32(b.trackGroup(groupID)).boolean(noNeedToSave)
}

// ChompSetGroup chomps set members and binds the range to a group.
func (b *ProgramBuilder) ChompSetGroup(setIdx uint32, groupID int32, noNeedToSave, star bool) {
	if star {
		b.tag(instChompSetGroupStar)
	} else {
		b.tag(instChompSetGroupPlus)
	}
	b.u32(setIdx).i32(b.trackGroup(groupID)).boolean(noNeedToSave)
}

// ChompCharBounded chomps between lower and upper occurrences of c.
func (b *ProgramBuilder) ChompCharBounded(c Char, lower, upper uint32) {
	b.tag(instChompCharBounded).char(c).count(lower, upper)
}

// ChompSetBounded chomps between lower and upper set members.
func (b *ProgramBuilder) ChompSetBounded(setIdx uint32, lower, upper uint32) {
	b.tag(instChompSetBounded).u32(setIdx).count(lower, upper)
}

// ChompSetBoundedGroupLastChar also binds the last chomped char to a group.
func (b *ProgramBuilder) ChompSetBoundedGroupLastChar(setIdx uint32, lower, upper uint32, groupID int32, noNeedToSave bool) {
	b.tag(instChompSetBoundedGroupLastChar).u32(setIdx).count(lower, upper).
		i32(b.trackGroup(groupID)).boolean(noNeedToSave)
}

// Choice points.

// Try pushes a resume to failTarget and falls through.
func (b *ProgramBuilder) Try(failTarget LabelRef) {
	b.tag(instTry).label(failTarget)
}

// TryIfChar tries only when the next char is c.
func (b *ProgramBuilder) TryIfChar(c Char, failTarget LabelRef) {
	b.tag(instTryIfChar).char(c).label(failTarget)
}

// TryMatchChar tries and consumes c.
func (b *ProgramBuilder) TryMatchChar(c Char, failTarget LabelRef) {
	b.tag(instTryMatchChar).char(c).label(failTarget)
}

// TryIfSet tries only when the next char is in the set.
func (b *ProgramBuilder) TryIfSet(setIdx uint32, failTarget LabelRef) {
	b.tag(instTryIfSet).u32(setIdx).label(failTarget)
}

// TryMatchSet tries and consumes a set member.
func (b *ProgramBuilder) TryMatchSet(setIdx uint32, failTarget LabelRef) {
	b.tag(instTryMatchSet).u32(setIdx).label(failTarget)
}

// Assertions.

// BeginAssertion opens a look-around frame.
func (b *ProgramBuilder) BeginAssertion(isNegation bool, minBodyGroupID, maxBodyGroupID int32, next LabelRef) {
	b.tag(instBeginAssertion).boolean(isNegation).i32(minBodyGroupID).i32(maxBodyGroupID).label(next)
}

// EndAssertion closes the innermost frame.
func (b *ProgramBuilder) EndAssertion() { b.tag(instEndAssertion) }

// Build resolves labels and links the program under the given top-level tag.
func (b *ProgramBuilder) Build(tag ProgramTag) (*Program, error) {
	for _, patch := range b.patches {
		target, ok := b.labels[patch.ref]
		if !ok {
			return nil, fmt.Errorf("unbound label %d", patch.ref)
		}
		binary.LittleEndian.PutUint32(b.insts[patch.at:], target)
	}

	numGroups := b.numGroups
	if numGroups < 1 {
		numGroups = 1
	}
	p := &Program{
		Tag:       tag,
		Flags:     b.flags,
		NumGroups: numGroups,
		NumLoops:  b.numLoops,
		Source:    b.source,
		Insts:     b.insts,
		LitBuf:    b.litBuf,
		Sets:      b.sets,
		Tries:     b.tries,
	}
	if err := p.link(); err != nil {
		return nil, err
	}
	return p, nil
}
