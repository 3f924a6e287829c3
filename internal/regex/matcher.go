package regex

import (
	"time"

	"github.com/chakra-core/ChakraCore-sub024/internal/buildoptions"
)

// Query-continue heuristics: count instructions cheaply, check the clock
// every TicksPerQcTimeCheck executions, and only call into the host when
// TimePerQc has really elapsed.
const (
	// TicksPerQc is the nominal instruction budget between host calls.
	TicksPerQc = uint32(1) << 21
	// TicksPerQcTimeCheck is how often the clock is consulted.
	TicksPerQcTimeCheck = TicksPerQc >> 2
	// TimePerQc is the wall-clock interval between host calls.
	TimePerQc = 100 * time.Millisecond
)

// HardFailMode says what a failing test does to the outer retry loop.
type hardFailMode byte

const (
	// backtrackAndLater backtracks normally and lets the outer loop retry
	// later start offsets.
	backtrackAndLater hardFailMode = iota
	// backtrackOnly stops the outer loop from advancing when backtracking
	// is exhausted.
	backtrackOnly
	// laterOnly gives up on the current start offset entirely but lets the
	// outer loop advance.
	laterOnly
	// immediateFail stops everything.
	immediateFail
)

// hostInterrupt carries the host's termination error through the engine.
type hostInterrupt struct {
	err error
}

// Matcher executes one Program. Not safe for concurrent use: callers clone
// per script context.
type Matcher struct {
	program *Program

	groupInfos []GroupInfo
	loopInfos  []LoopInfo

	stacks *RegexStacks

	// interrupt is the host's script-interrupt check, called from
	// query-continue.
	interrupt func() error

	previousQcTime time.Time

	// literalNextSyncInputOffsets memoizes the last sync position of each
	// literal of a SyncToLiteralsAndBackup across outer iterations.
	literalNextSyncInputOffsets []uint32
}

// NewMatcher returns a matcher for the program.
func NewMatcher(program *Program) *Matcher {
	m := &Matcher{
		program:    program,
		groupInfos: make([]GroupInfo, program.NumGroups),
		loopInfos:  make([]LoopInfo, program.NumLoops),
		stacks:     &RegexStacks{},
	}
	for i := range m.groupInfos {
		m.groupInfos[i].Reset()
	}
	return m
}

// CloneToScriptContext returns an independent matcher sharing the immutable
// program.
func (m *Matcher) CloneToScriptContext() *Matcher {
	c := NewMatcher(m.program)
	c.interrupt = m.interrupt
	return c
}

// SetInterruptCheck installs the host's cancellation callback.
func (m *Matcher) SetInterruptCheck(fn func() error) {
	m.interrupt = fn
}

// Program returns the matcher's program.
func (m *Matcher) Program() *Program {
	return m.program
}

// GroupCount returns the number of capture groups including group 0.
func (m *Matcher) GroupCount() int {
	return len(m.groupInfos)
}

// Group returns group i's binding.
func (m *Matcher) Group(i int) GroupInfo {
	return m.groupInfos[i]
}

// WasLastMatchSuccessful reports whether group 0 is bound.
func (m *Matcher) WasLastMatchSuccessful() bool {
	return !m.groupInfos[0].IsUndefined()
}

func (m *Matcher) groupInfo(id int32) *GroupInfo {
	if buildoptions.RegexTrace && (id < 0 || int(id) >= len(m.groupInfos)) {
		panic("BUG: group id out of range")
	}
	return &m.groupInfos[id]
}

func (m *Matcher) loopInfo(id int32) *LoopInfo {
	if buildoptions.RegexTrace && (id < 0 || int(id) >= len(m.loopInfos)) {
		panic("BUG: loop id out of range")
	}
	return &m.loopInfos[id]
}

func (m *Matcher) setAt(idx uint32) *CharSet {
	return m.program.Sets[idx]
}

// runState is the mutable interpreter state threaded through every exec.
type runState struct {
	input       []Char
	inputLength uint32

	matchStart  uint32
	inputOffset uint32

	// nextSyncInputOffset is the next offset worth syncing from, for the
	// backup sync instructions.
	nextSyncInputOffset uint32

	ip Label

	qcTicks uint32

	firstIteration bool
}

// Match runs the program against the input starting at offset. On success
// group 0 and the inner groups hold the bindings; on failure group 0 is
// unbound. The error is non-nil only when the host interrupt check threw.
func (m *Matcher) Match(input []Char, offset uint32) (matched bool, err error) {
	inputLength := uint32(len(input))
	if offset > inputLength {
		offset = inputLength
	}

	defer func() {
		if r := recover(); r != nil {
			if hi, ok := r.(hostInterrupt); ok {
				m.groupInfos[0].Reset()
				matched, err = false, hi.err
				return
			}
			panic(r)
		}
	}()

	prog := m.program
	switch prog.Tag {
	case BOIInstructionsTag:
		if offset != 0 {
			m.groupInfos[0].Reset()
			return false, nil
		}
		return m.matchWithInstructions(input, inputLength, offset, false), nil

	case BOIInstructionsForStickyFlagTag:
		return m.matchWithInstructions(input, inputLength, offset, false), nil

	case InstructionsTag:
		return m.matchWithInstructions(input, inputLength, offset, true), nil

	case SingleCharTag:
		if prog.IsIgnoreCase() {
			return m.matchSingleCharCaseInsensitive(input, inputLength, offset, prog.SingleChar), nil
		}
		return m.matchSingleCharCaseSensitive(input, inputLength, offset, prog.SingleChar), nil

	case BoundedWordTag:
		return m.matchBoundedWord(input, inputLength, offset), nil

	case LeadingTrailingSpacesTag:
		return m.matchLeadingTrailingSpaces(input, inputLength, offset), nil

	case OctoquadTag:
		return m.matchOctoquad(input, inputLength, offset), nil

	case BOILiteral2Tag:
		return m.matchBOILiteral2(input, inputLength, offset), nil

	default:
		panic("BUG: unknown program tag")
	}
}

// matchWithInstructions drives the interpreter loop, retrying at offset+1 on
// failure while loopMatchHere allows.
func (m *Matcher) matchWithInstructions(input []Char, inputLength, offset uint32, loopMatchHere bool) bool {
	m.previousQcTime = time.Time{}
	s := &runState{
		input:               input,
		inputLength:         inputLength,
		nextSyncInputOffset: offset,
		firstIteration:      true,
	}

	// Matching continues even at offset == inputLength: some patterns
	// match the empty string at the end of the input, e.g. /a*$/ on "b".
	for {
		res := m.matchHere(s, offset)
		s.firstIteration = false
		if res {
			return true
		}
		offset = s.matchStart + 1
		if !loopMatchHere || offset > inputLength {
			return false
		}
	}
}

// matchHere resets the stacks and groups for a fresh run from matchStart.
func (m *Matcher) matchHere(s *runState, matchStart uint32) bool {
	// The assertion stack may be non-empty after a hard fail straight out
	// of the matcher.
	m.stacks.contStack.clear()
	m.stacks.assertionStack.clear()

	m.resetInnerGroups(0, int32(m.program.NumGroups)-1)

	s.matchStart = matchStart
	s.inputOffset = matchStart
	s.ip = 0
	m.run(s)
	return m.WasLastMatchSuccessful()
}

// queryContinue implements cooperative cancellation.
func (m *Matcher) queryContinue(s *runState) {
	s.qcTicks++
	if s.qcTicks&(TicksPerQcTimeCheck-1) != 0 {
		return
	}
	m.doQueryContinue()
}

func (m *Matcher) doQueryContinue() {
	if m.interrupt == nil {
		return
	}
	now := time.Now()
	if !m.previousQcTime.IsZero() && now.Sub(m.previousQcTime) < TimePerQc {
		return
	}
	m.previousQcTime = now

	// The host may re-enter the engine for a different pattern, so the
	// stacks must be out of the shared slot while it runs.
	saved := m.stacks
	m.stacks = &RegexStacks{}
	err := m.interrupt()
	m.stacks = saved
	if err != nil {
		panic(hostInterrupt{err: err})
	}
}

// fail pops and runs continuations until one resumes execution or the stack
// empties. Returns true to stop executing (the whole run failed).
func (m *Matcher) fail(s *runState) bool {
	if !m.stacks.contStack.isEmpty() {
		if !m.runContStack(s) {
			return false
		}
	}
	if !m.stacks.assertionStack.isEmpty() {
		panic("BUG: assertion stack must drain with the continuation stack")
	}
	m.groupInfos[0].Reset()
	return true
}

// runContStack returns false when a continuation resumed execution, true
// when the stack drained.
func (m *Matcher) runContStack(s *runState) bool {
	for {
		c, ok := m.stacks.contStack.pop()
		if !ok {
			return true
		}
		if m.execCont(s, &c) {
			return false
		}
	}
}

// execCont runs one continuation; true means stop backtracking and resume.
func (m *Matcher) execCont(s *runState, c *cont) bool {
	switch c.tag {
	case contResume:
		s.inputOffset = c.origInputOffset
		s.ip = c.origInstLabel
		return true

	case contRestoreLoop:
		m.queryContinue(s)
		*m.loopInfo(c.id) = c.loopInfo
		return false

	case contRestoreGroup:
		*m.groupInfo(c.id) = c.groupInfo
		return false

	case contResetGroup:
		m.resetGroup(c.id)
		return false

	case contResetGroupRange:
		m.resetInnerGroups(c.id, c.toGroupID)
		return false

	case contRepeatLoop:
		m.queryContinue(s)
		// Try one more iteration of a non-greedy loop.
		begin, _ := m.loopFieldsAt(c.beginLabel)
		loopInfo := m.loopInfo(begin.loopID)
		loopInfo.startInputOffset = c.origInputOffset
		s.inputOffset = c.origInputOffset
		s.ip = c.beginLabel + instFullSize(instBeginLoop)
		if begin.hasInnerNondet {
			// Backtracking into the body of an earlier iteration must
			// restore that iteration's inner groups.
			m.saveInnerGroups(s, begin.minBodyGroupID, begin.maxBodyGroupID, true)
		} else {
			m.resetInnerGroups(begin.minBodyGroupID, begin.maxBodyGroupID)
		}
		return true

	case contPopAssertion:
		if m.stacks.assertionStack.isEmpty() {
			panic("BUG: PopAssertion with no assertion frame")
		}
		// True when the body of a negative assertion failed.
		return m.popAssertion(s, false)

	case contRewindLoopFixed:
		m.queryContinue(s)
		begin, _ := m.loopFieldsAt(c.beginLabel)
		loopInfo := m.loopInfo(begin.loopID)
		if c.tryingBody {
			// number is the iterations completed before trying the body.
		} else {
			// number is the iterations completed before trying the
			// follow: try the follow with one fewer iteration.
			loopInfo.number--
		}
		s.inputOffset = loopInfo.startInputOffset + loopInfo.number*begin.length
		if loopInfo.number > begin.repeats.lower {
			// Un-pop the continuation, cleared of tryingBody, ready for
			// next time.
			m.stacks.contStack.unPop()
			m.stacks.contStack.top().tryingBody = false
		}
		// else: no fewer iterations possible, let the failure propagate.
		s.ip = begin.exitLabel
		return true

	case contRewindLoopSet:
		m.queryContinue(s)
		begin, _ := m.loopSetFieldsAt(c.beginLabel, instLoopSet)
		loopInfo := m.loopInfo(begin.loopID)
		// Try the follow with fewer iterations.
		loopInfo.number--
		s.inputOffset = loopInfo.startInputOffset + loopInfo.number
		if loopInfo.number > begin.repeats.lower {
			m.stacks.contStack.unPop()
		}
		s.ip = c.beginLabel + instFullSize(instLoopSet)
		return true

	case contRewindLoopSetWithFollowFirst:
		m.queryContinue(s)
		begin, _ := m.loopSetFieldsAt(c.beginLabel, instLoopSetWithFollowFirst)
		followFirst := readChar(m.program.Insts, c.beginLabel+1+szSetIdx+szI32+szCount+szBool)
		loopInfo := m.loopInfo(begin.loopID)
		if !loopInfo.hasOffsets {
			if followFirst != MaxUChar {
				// The follow's first character was known at compile
				// time but never matched inside the loop: backtracking
				// cannot help.
				loopInfo.number = begin.repeats.lower
			} else {
				// Unknown first character: back off one at a time.
				loopInfo.number--
			}
		} else if len(loopInfo.offsetsOfFollowFirst) == 0 {
			// Already backtracked to the first candidate.
			loopInfo.number = begin.repeats.lower
		} else {
			// Jump straight to the previous candidate position. One
			// redundant match of the follow's first char is cheaper
			// than telling the next instruction about it.
			last := len(loopInfo.offsetsOfFollowFirst) - 1
			loopInfo.number = loopInfo.offsetsOfFollowFirst[last]
			loopInfo.offsetsOfFollowFirst = loopInfo.offsetsOfFollowFirst[:last]
		}
		if loopInfo.number < begin.repeats.lower {
			loopInfo.number = begin.repeats.lower
		}
		s.inputOffset = loopInfo.startInputOffset + loopInfo.number
		if loopInfo.number > begin.repeats.lower {
			m.stacks.contStack.unPop()
		}
		s.ip = c.beginLabel + instFullSize(instLoopSetWithFollowFirst)
		return true

	case contRewindLoopFixedGroupLastIteration:
		m.queryContinue(s)
		begin, _ := m.loopFieldsAt(c.beginLabel)
		loopInfo := m.loopInfo(begin.loopID)
		groupInfo := m.groupInfo(begin.groupID)
		if !c.tryingBody {
			loopInfo.number--
		}
		s.inputOffset = loopInfo.startInputOffset + loopInfo.number*begin.length
		if loopInfo.number > 0 {
			// Bind the previous iteration's body.
			groupInfo.Offset = s.inputOffset - begin.length
			groupInfo.Length = begin.length
		} else {
			groupInfo.Reset()
		}
		if loopInfo.number > begin.repeats.lower {
			m.stacks.contStack.unPop()
			m.stacks.contStack.top().tryingBody = false
		}
		s.ip = begin.exitLabel
		return true

	default:
		panic("BUG: unknown continuation tag")
	}
}

// hardFail applies a failure mode; true stops execution of this run.
func (m *Matcher) hardFail(s *runState, mode hardFailMode) bool {
	switch mode {
	case backtrackAndLater:
		return m.fail(s)
	case backtrackOnly:
		if m.fail(s) {
			// No use trying any more start positions.
			s.matchStart = s.inputLength
			return true
		}
		return false
	case laterOnly:
		m.stacks.contStack.clear()
		m.stacks.assertionStack.clear()
		return true
	case immediateFail:
		s.matchStart = s.inputLength
		return true
	default:
		panic("BUG: unknown hard fail mode")
	}
}

// popAssertion closes the innermost assertion frame. succeeded is whether
// the assertion body matched. Returns true to continue executing, false when
// the assertion as a whole failed.
func (m *Matcher) popAssertion(s *runState, succeeded bool) bool {
	info := m.stacks.assertionStack.top()
	if info == nil {
		panic("BUG: popAssertion with empty assertion stack")
	}
	beginLabel := info.beginLabel
	startInputOffset := info.startInputOffset
	contStackPosition := info.contStackPosition
	m.stacks.assertionStack.pop()

	isNegation, minBodyGroupID, maxBodyGroupID, nextLabel := m.beginAssertionFieldsAt(beginLabel)

	// Cut the continuations: the engine never backtracks into an assertion.
	m.stacks.contStack.popTo(contStackPosition)

	// succeeded  isNegation  action
	// ---------  ----------  -----------------------------------------------
	// false      false       fail into outer continuations (bindings undone)
	// true       false       continue at next label (bindings frozen)
	// false      true        continue at next label (bindings undone+frozen)
	// true       true        fail into outer continuations (bindings cleared)

	if succeeded && isNegation {
		m.resetInnerGroups(minBodyGroupID, maxBodyGroupID)
	}

	if succeeded == isNegation {
		return false
	}

	// Continue with the next label from the original input position.
	s.inputOffset = startInputOffset
	s.ip = nextLabel
	return true
}

// saveInnerGroups pushes restore continuations for groups [from, to] and
// optionally resets them for the next iteration. Runs of undefined groups
// compress to a single reset-range record.
func (m *Matcher) saveInnerGroups(s *runState, fromGroupID, toGroupID int32, reset bool) {
	if toGroupID < 0 {
		return
	}
	if fromGroupID < 0 || fromGroupID > toGroupID {
		panic("BUG: bad inner group range")
	}

	undefinedRangeFromID := int32(-1)
	for groupID := fromGroupID; groupID <= toGroupID; groupID++ {
		groupInfo := m.groupInfo(groupID)
		if groupInfo.IsUndefined() {
			if undefinedRangeFromID < 0 {
				undefinedRangeFromID = groupID
			}
			continue
		}

		if undefinedRangeFromID >= 0 {
			m.pushResetGroupRange(undefinedRangeFromID, groupID-1)
			undefinedRangeFromID = -1
		}

		m.stacks.contStack.push(cont{tag: contRestoreGroup, id: groupID, groupInfo: *groupInfo})
		if reset {
			groupInfo.Reset()
		}
	}
	if undefinedRangeFromID >= 0 {
		m.pushResetGroupRange(undefinedRangeFromID, toGroupID)
	}
}

func (m *Matcher) pushResetGroupRange(fromGroupID, toGroupID int32) {
	if fromGroupID == toGroupID {
		m.stacks.contStack.push(cont{tag: contResetGroup, id: fromGroupID})
	} else {
		m.stacks.contStack.push(cont{tag: contResetGroupRange, id: fromGroupID, toGroupID: toGroupID})
	}
}

func (m *Matcher) resetGroup(groupID int32) {
	m.groupInfo(groupID).Reset()
}

func (m *Matcher) resetInnerGroups(minGroupID, maxGroupID int32) {
	for i := minGroupID; i <= maxGroupID; i++ {
		m.resetGroup(i)
	}
}

// instFullSize is the encoded size of a tag including the tag byte.
func instFullSize(tag instTag) uint32 {
	return 1 + uint32(tag.payloadSize())
}

// loopFieldsAt decodes the BeginLoop-family instruction at the label.
func (m *Matcher) loopFieldsAt(label Label) (beginLoopFields, instTag) {
	insts := m.program.Insts
	tag := instTag(insts[label])
	at := label + 1
	var f beginLoopFields
	switch tag {
	case instBeginLoop:
		f, at = readBeginLoopMixin(insts, at)
		f.minBodyGroupID = readI32(insts, at)
		f.maxBodyGroupID = readI32(insts, at+4)
		f.isGreedy = readBool(insts, at+8)
	case instBeginLoopIfChar:
		at += szChar
		f, at = readBeginLoopMixin(insts, at)
		f.minBodyGroupID = readI32(insts, at)
		f.maxBodyGroupID = readI32(insts, at+4)
		f.isGreedy = true
	case instBeginLoopIfSet:
		at += szSetIdx
		f, at = readBeginLoopMixin(insts, at)
		f.minBodyGroupID = readI32(insts, at)
		f.maxBodyGroupID = readI32(insts, at+4)
		f.isGreedy = true
	case instBeginLoopFixed:
		f, at = readBeginLoopMixin(insts, at)
		f.length = readU32(insts, at)
		f.isGreedy = true
	case instBeginLoopFixedGroupLastIteration:
		f, at = readBeginLoopMixin(insts, at)
		f.length = readU32(insts, at)
		f.groupID = readI32(insts, at+4)
		f.noNeedToSave = readBool(insts, at+8)
		f.isGreedy = true
	case instBeginGreedyLoopNoBacktrack:
		f.loopID = readI32(insts, at)
		f.exitLabel = readU32(insts, at+4)
		f.isGreedy = true
		f.repeats = countDomain{lower: 0, upper: charCountInfinity}
	default:
		panic("BUG: label does not point at a loop header")
	}
	return f, tag
}

// loopSetFieldsAt decodes a LoopSet-family instruction at the label.
func (m *Matcher) loopSetFieldsAt(label Label, want instTag) (beginLoopFields, uint32) {
	insts := m.program.Insts
	tag := instTag(insts[label])
	if tag != want {
		panic("BUG: label does not point at the expected LoopSet form")
	}
	at := label + 1
	setIdx := readU32(insts, at)
	at += szSetIdx
	var f beginLoopFields
	f.loopID = readI32(insts, at)
	at += szI32
	f.repeats = readCount(insts, at)
	at += szCount
	f.hasOuterLoops = readBool(insts, at)
	return f, setIdx
}

func (m *Matcher) beginAssertionFieldsAt(label Label) (isNegation bool, minBodyGroupID, maxBodyGroupID int32, nextLabel Label) {
	insts := m.program.Insts
	if instTag(insts[label]) != instBeginAssertion {
		panic("BUG: label does not point at BeginAssertion")
	}
	at := label + 1
	isNegation = readBool(insts, at)
	at += szBool
	minBodyGroupID = readI32(insts, at)
	maxBodyGroupID = readI32(insts, at+4)
	nextLabel = readU32(insts, at+8)
	return
}
