package regex

// run executes instructions from s.ip until an instruction stops execution:
// Succ binds group 0 and returns, or a failure exhausts the continuation
// stack.
func (m *Matcher) run(s *runState) {
	insts := m.program.Insts
	for {
		tag := instTag(insts[s.ip])
		if m.exec(s, tag) {
			return
		}
	}
}

// exec dispatches one instruction; true stops execution.
func (m *Matcher) exec(s *runState, tag instTag) bool {
	insts := m.program.Insts
	body := s.ip + 1

	switch tag {
	case instNop:
		s.ip += instFullSize(tag)
		return false

	case instFail:
		return m.fail(s)

	case instSucc:
		info := m.groupInfo(0)
		info.Offset = s.matchStart
		info.Length = s.inputOffset - s.matchStart
		return true

	case instJump:
		s.ip = readU32(insts, body)
		return false

	case instJumpIfNotChar:
		c := readChar(insts, body)
		if s.inputOffset < s.inputLength && s.input[s.inputOffset] == c {
			s.ip += instFullSize(tag)
		} else {
			s.ip = readU32(insts, body+szChar)
		}
		return false

	case instMatchCharOrJump:
		c := readChar(insts, body)
		if s.inputOffset < s.inputLength && s.input[s.inputOffset] == c {
			s.inputOffset++
			s.ip += instFullSize(tag)
		} else {
			s.ip = readU32(insts, body+szChar)
		}
		return false

	case instJumpIfNotSet:
		set := m.setAt(readU32(insts, body))
		if s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset]) {
			s.ip += instFullSize(tag)
		} else {
			s.ip = readU32(insts, body+szSetIdx)
		}
		return false

	case instMatchSetOrJump:
		set := m.setAt(readU32(insts, body))
		if s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset]) {
			s.inputOffset++
			s.ip += instFullSize(tag)
		} else {
			s.ip = readU32(insts, body+szSetIdx)
		}
		return false

	case instSwitch2, instSwitch4, instSwitch8, instSwitch16, instSwitch24:
		return m.execSwitch(s, tag, false)

	case instSwitchAndConsume2, instSwitchAndConsume4, instSwitchAndConsume8,
		instSwitchAndConsume16, instSwitchAndConsume24:
		return m.execSwitch(s, tag, true)

	case instBOIHardFailTest:
		if s.inputOffset != 0 {
			// No later start position can be at the beginning either.
			return m.hardFail(s, immediateFail)
		}
		s.ip += instFullSize(tag)
		return false

	case instBOITest:
		if s.inputOffset != 0 {
			return m.fail(s)
		}
		s.ip += instFullSize(tag)
		return false

	case instEOIHardFailTest:
		if s.inputOffset < s.inputLength {
			// Only a match ending at the very end can succeed; have the
			// outer loop skip to it.
			m.hardFail(s, laterOnly)
			s.matchStart = s.inputLength - 1
			return true
		}
		s.ip += instFullSize(tag)
		return false

	case instEOITest:
		if s.inputOffset < s.inputLength {
			return m.fail(s)
		}
		s.ip += instFullSize(tag)
		return false

	case instBOLTest:
		if s.inputOffset > 0 && !isNewline(s.input[s.inputOffset-1]) {
			return m.fail(s)
		}
		s.ip += instFullSize(tag)
		return false

	case instEOLTest:
		if s.inputOffset < s.inputLength && !isNewline(s.input[s.inputOffset]) {
			return m.fail(s)
		}
		s.ip += instFullSize(tag)
		return false

	case instWordBoundaryTest, instNegatedWordBoundaryTest:
		prev := s.inputOffset > 0 && isWord(s.input[s.inputOffset-1])
		curr := s.inputOffset < s.inputLength && isWord(s.input[s.inputOffset])
		isNegation := tag == instNegatedWordBoundaryTest
		if isNegation == (prev != curr) {
			return m.fail(s)
		}
		s.ip += instFullSize(tag)
		return false

	case instMatchChar:
		if s.inputOffset >= s.inputLength || s.input[s.inputOffset] != readChar(insts, body) {
			return m.fail(s)
		}
		s.inputOffset++
		s.ip += instFullSize(tag)
		return false

	case instMatchChar2:
		if s.inputOffset >= s.inputLength {
			return m.fail(s)
		}
		c := s.input[s.inputOffset]
		if c != readChar(insts, body) && c != readChar(insts, body+szChar) {
			return m.fail(s)
		}
		s.inputOffset++
		s.ip += instFullSize(tag)
		return false

	case instMatchChar3:
		if s.inputOffset >= s.inputLength {
			return m.fail(s)
		}
		c := s.input[s.inputOffset]
		if c != readChar(insts, body) && c != readChar(insts, body+szChar) && c != readChar(insts, body+2*szChar) {
			return m.fail(s)
		}
		s.inputOffset++
		s.ip += instFullSize(tag)
		return false

	case instMatchChar4:
		if s.inputOffset >= s.inputLength {
			return m.fail(s)
		}
		c := s.input[s.inputOffset]
		if c != readChar(insts, body) && c != readChar(insts, body+szChar) &&
			c != readChar(insts, body+2*szChar) && c != readChar(insts, body+3*szChar) {
			return m.fail(s)
		}
		s.inputOffset++
		s.ip += instFullSize(tag)
		return false

	case instMatchSet, instMatchNegatedSet:
		isNegation := tag == instMatchNegatedSet
		set := m.setAt(readU32(insts, body))
		if s.inputOffset >= s.inputLength || set.Get(s.input[s.inputOffset]) == isNegation {
			return m.fail(s)
		}
		s.inputOffset++
		s.ip += instFullSize(tag)
		return false

	case instMatchLiteral:
		litOffset := readU32(insts, body)
		length := readU32(insts, body+4)
		if length > s.inputLength-s.inputOffset {
			return m.fail(s)
		}
		lit := m.program.LitBuf[litOffset : litOffset+length]
		start := s.inputOffset
		for i := uint32(0); i < length; i++ {
			if lit[i] != s.input[start+i] {
				// Leave the offset past the mismatch.
				s.inputOffset = start + i + 1
				return m.fail(s)
			}
		}
		s.inputOffset = start + length
		s.ip += instFullSize(tag)
		return false

	case instMatchLiteralEquiv:
		litOffset := readU32(insts, body)
		length := readU32(insts, body+4)
		if length > s.inputLength-s.inputOffset {
			return m.fail(s)
		}
		lit := m.program.LitBuf[litOffset : litOffset+length*EquivClassSize]
		for i := uint32(0); i < length; i++ {
			c := s.input[s.inputOffset]
			base := i * EquivClassSize
			if c != lit[base] && c != lit[base+1] && c != lit[base+2] && c != lit[base+3] {
				return m.fail(s)
			}
			s.inputOffset++
		}
		s.ip += instFullSize(tag)
		return false

	case instMatchTrie:
		trie := m.program.Tries[readU32(insts, body)]
		if !trie.match(s.input, s.inputLength, &s.inputOffset) {
			return m.fail(s)
		}
		s.ip += instFullSize(tag)
		return false

	case instOptMatchChar:
		if s.inputOffset < s.inputLength && s.input[s.inputOffset] == readChar(insts, body) {
			s.inputOffset++
		}
		s.ip += instFullSize(tag)
		return false

	case instOptMatchSet:
		set := m.setAt(readU32(insts, body))
		if s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset]) {
			s.inputOffset++
		}
		s.ip += instFullSize(tag)
		return false

	case instSyncToCharAndContinue:
		c := readChar(insts, body)
		for s.inputOffset < s.inputLength && s.input[s.inputOffset] != c {
			s.inputOffset++
		}
		s.matchStart = s.inputOffset
		s.ip += instFullSize(tag)
		return false

	case instSyncToChar2SetAndContinue:
		c0, c1 := readChar(insts, body), readChar(insts, body+szChar)
		for s.inputOffset < s.inputLength && s.input[s.inputOffset] != c0 && s.input[s.inputOffset] != c1 {
			s.inputOffset++
		}
		s.matchStart = s.inputOffset
		s.ip += instFullSize(tag)
		return false

	case instSyncToSetAndContinue, instSyncToNegatedSetAndContinue:
		isNegation := tag == instSyncToNegatedSetAndContinue
		set := m.setAt(readU32(insts, body))
		for s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset]) == isNegation {
			s.inputOffset++
		}
		s.matchStart = s.inputOffset
		s.ip += instFullSize(tag)
		return false

	case instSyncToChar2LiteralAndContinue:
		if !m.syncToChar2Literal(s, body) {
			return m.hardFail(s, immediateFail)
		}
		s.matchStart = s.inputOffset
		s.ip += instFullSize(tag)
		return false

	case instSyncToLiteralAndContinue, instSyncToLinearLiteralAndContinue,
		instSyncToLiteralEquivAndContinue, instSyncToLiteralEquivTrivialLastPatCharAndContinue:
		if !m.syncToScannerLiteral(s, s.ip, body, tag) {
			return m.hardFail(s, immediateFail)
		}
		s.matchStart = s.inputOffset
		s.ip += instFullSize(tag)
		return false

	case instSyncToCharAndConsume:
		c := readChar(insts, body)
		for s.inputOffset < s.inputLength && s.input[s.inputOffset] != c {
			s.inputOffset++
		}
		if s.inputOffset >= s.inputLength {
			return m.hardFail(s, immediateFail)
		}
		s.matchStart = s.inputOffset
		s.inputOffset++
		s.ip += instFullSize(tag)
		return false

	case instSyncToChar2SetAndConsume:
		c0, c1 := readChar(insts, body), readChar(insts, body+szChar)
		for s.inputOffset < s.inputLength && s.input[s.inputOffset] != c0 && s.input[s.inputOffset] != c1 {
			s.inputOffset++
		}
		if s.inputOffset >= s.inputLength {
			return m.hardFail(s, immediateFail)
		}
		s.matchStart = s.inputOffset
		s.inputOffset++
		s.ip += instFullSize(tag)
		return false

	case instSyncToSetAndConsume, instSyncToNegatedSetAndConsume:
		isNegation := tag == instSyncToNegatedSetAndConsume
		set := m.setAt(readU32(insts, body))
		for s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset]) == isNegation {
			s.inputOffset++
		}
		if s.inputOffset >= s.inputLength {
			return m.hardFail(s, immediateFail)
		}
		s.matchStart = s.inputOffset
		s.inputOffset++
		s.ip += instFullSize(tag)
		return false

	case instSyncToChar2LiteralAndConsume:
		if !m.syncToChar2Literal(s, body) {
			return m.hardFail(s, immediateFail)
		}
		s.matchStart = s.inputOffset
		s.inputOffset += 2
		s.ip += instFullSize(tag)
		return false

	case instSyncToLiteralAndConsume, instSyncToLinearLiteralAndConsume,
		instSyncToLiteralEquivAndConsume, instSyncToLiteralEquivTrivialLastPatCharAndConsume:
		if !m.syncToScannerLiteral(s, s.ip, body, tag) {
			return m.hardFail(s, immediateFail)
		}
		s.matchStart = s.inputOffset
		s.inputOffset += readU32(insts, body+4)
		s.ip += instFullSize(tag)
		return false

	case instSyncToCharAndBackup:
		return m.execSyncBackup(s, tag, body, szChar, func() bool {
			c := readChar(insts, body)
			for s.inputOffset < s.inputLength && s.input[s.inputOffset] != c {
				s.inputOffset++
			}
			return s.inputOffset < s.inputLength
		})

	case instSyncToSetAndBackup, instSyncToNegatedSetAndBackup:
		isNegation := tag == instSyncToNegatedSetAndBackup
		return m.execSyncBackup(s, tag, body, szSetIdx, func() bool {
			set := m.setAt(readU32(insts, body))
			for s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset]) == isNegation {
				s.inputOffset++
			}
			return s.inputOffset < s.inputLength
		})

	case instSyncToChar2LiteralAndBackup:
		return m.execSyncBackup(s, tag, body, 2*szChar, func() bool {
			return m.syncToChar2Literal(s, body)
		})

	case instSyncToLiteralAndBackup, instSyncToLinearLiteralAndBackup,
		instSyncToLiteralEquivAndBackup, instSyncToLiteralEquivTrivialLastPatCharAndBackup:
		ip := s.ip
		return m.execSyncBackup(s, tag, body, szU32+szU32, func() bool {
			return m.syncToScannerLiteral(s, ip, body, tag)
		})

	case instSyncToLiteralsAndBackup:
		return m.execSyncToLiteralsAndBackup(s, body)

	case instMatchGroup:
		return m.execMatchGroup(s, readI32(insts, body))

	case instBeginDefineGroup:
		groupInfo := m.groupInfo(readI32(insts, body))
		groupInfo.Offset = s.inputOffset
		s.ip += instFullSize(tag)
		return false

	case instEndDefineGroup:
		groupID := readI32(insts, body)
		noNeedToSave := readBool(insts, body+szI32)
		if !noNeedToSave {
			// UNDO ACTION: restore the group on backtrack.
			m.stacks.contStack.push(cont{tag: contResetGroup, id: groupID})
		}
		groupInfo := m.groupInfo(groupID)
		groupInfo.Length = s.inputOffset - groupInfo.Offset
		s.ip += instFullSize(tag)
		return false

	case instDefineGroupFixed:
		groupID := readI32(insts, body)
		length := readU32(insts, body+szI32)
		noNeedToSave := readBool(insts, body+szI32+szU32)
		if !noNeedToSave {
			m.stacks.contStack.push(cont{tag: contResetGroup, id: groupID})
		}
		groupInfo := m.groupInfo(groupID)
		groupInfo.Offset = s.inputOffset - length
		groupInfo.Length = length
		s.ip += instFullSize(tag)
		return false

	case instBeginLoop:
		return m.execBeginLoop(s, tag)

	case instRepeatLoop:
		return m.execRepeatLoop(s, readU32(insts, body))

	case instBeginLoopIfChar, instBeginLoopIfSet:
		return m.execBeginLoopIf(s, tag, body)

	case instRepeatLoopIfChar, instRepeatLoopIfSet:
		return m.execRepeatLoopIf(s, tag, readU32(insts, body))

	case instBeginLoopFixed:
		return m.execBeginLoopFixed(s, tag)

	case instRepeatLoopFixed:
		return m.execRepeatLoopFixed(s, readU32(insts, body))

	case instLoopSet, instLoopSetWithFollowFirst:
		return m.execLoopSet(s, tag)

	case instBeginLoopFixedGroupLastIteration:
		return m.execBeginLoopFixedGroupLastIteration(s, tag)

	case instRepeatLoopFixedGroupLastIteration:
		return m.execRepeatLoopFixedGroupLastIteration(s, readU32(insts, body))

	case instBeginGreedyLoopNoBacktrack:
		loopID := readI32(insts, body)
		exitLabel := readU32(insts, body+szI32)
		loopInfo := m.loopInfo(loopID)
		loopInfo.number = 0
		loopInfo.startInputOffset = s.inputOffset
		// CHOICEPOINT: try one iteration of the body; on backtrack
		// continue from here with no iterations.
		m.stacks.contStack.push(cont{tag: contResume, origInputOffset: s.inputOffset, origInstLabel: exitLabel})
		s.ip += instFullSize(tag)
		return false

	case instRepeatGreedyLoopNoBacktrack:
		beginLabel := readU32(insts, body)
		begin, _ := m.loopFieldsAt(beginLabel)
		loopInfo := m.loopInfo(begin.loopID)
		loopInfo.number++
		if s.inputOffset == loopInfo.startInputOffset {
			// No progress.
			return m.fail(s)
		}
		// The body is deterministic and group free, so it left no
		// continuations: just update the Resume still on top.
		top := m.stacks.contStack.top()
		if top == nil || top.tag != contResume {
			panic("BUG: greedy no-backtrack loop lost its Resume")
		}
		top.origInputOffset = s.inputOffset
		loopInfo.startInputOffset = s.inputOffset
		s.ip = beginLabel + instFullSize(instBeginGreedyLoopNoBacktrack)
		return false

	case instChompCharStar, instChompCharPlus:
		return m.execChompChar(s, tag, body, tag == instChompCharStar)

	case instChompSetStar, instChompSetPlus:
		return m.execChompSet(s, tag, body, tag == instChompSetStar)

	case instChompCharGroupStar, instChompCharGroupPlus:
		return m.execChompCharGroup(s, tag, body, tag == instChompCharGroupStar)

	case instChompSetGroupStar, instChompSetGroupPlus:
		return m.execChompSetGroup(s, tag, body, tag == instChompSetGroupStar)

	case instChompCharBounded:
		c := readChar(insts, body)
		repeats := readCount(insts, body+szChar)
		loopMatchStart := s.inputOffset
		end := chompEndOffset(s, repeats.upper)
		for s.inputOffset < end && s.input[s.inputOffset] == c {
			s.inputOffset++
		}
		if s.inputOffset-loopMatchStart < repeats.lower {
			return m.fail(s)
		}
		s.ip += instFullSize(tag)
		return false

	case instChompSetBounded:
		set := m.setAt(readU32(insts, body))
		repeats := readCount(insts, body+szSetIdx)
		loopMatchStart := s.inputOffset
		end := chompEndOffset(s, repeats.upper)
		for s.inputOffset < end && set.Get(s.input[s.inputOffset]) {
			s.inputOffset++
		}
		if s.inputOffset-loopMatchStart < repeats.lower {
			return m.fail(s)
		}
		s.ip += instFullSize(tag)
		return false

	case instChompSetBoundedGroupLastChar:
		set := m.setAt(readU32(insts, body))
		repeats := readCount(insts, body+szSetIdx)
		groupID := readI32(insts, body+szSetIdx+szCount)
		noNeedToSave := readBool(insts, body+szSetIdx+szCount+szI32)
		loopMatchStart := s.inputOffset
		end := chompEndOffset(s, repeats.upper)
		for s.inputOffset < end && set.Get(s.input[s.inputOffset]) {
			s.inputOffset++
		}
		if s.inputOffset-loopMatchStart < repeats.lower {
			return m.fail(s)
		}
		if s.inputOffset > loopMatchStart {
			if !noNeedToSave {
				m.stacks.contStack.push(cont{tag: contResetGroup, id: groupID})
			}
			groupInfo := m.groupInfo(groupID)
			groupInfo.Offset = s.inputOffset - 1
			groupInfo.Length = 1
		}
		s.ip += instFullSize(tag)
		return false

	case instTry:
		// CHOICEPOINT: resume at the fail label on backtrack.
		failLabel := readU32(insts, body)
		m.stacks.contStack.push(cont{tag: contResume, origInputOffset: s.inputOffset, origInstLabel: failLabel})
		s.ip += instFullSize(tag)
		return false

	case instTryIfChar, instTryMatchChar:
		c := readChar(insts, body)
		failLabel := readU32(insts, body+szChar)
		if s.inputOffset < s.inputLength && s.input[s.inputOffset] == c {
			m.stacks.contStack.push(cont{tag: contResume, origInputOffset: s.inputOffset, origInstLabel: failLabel})
			if tag == instTryMatchChar {
				s.inputOffset++
			}
			s.ip += instFullSize(tag)
			return false
		}
		// Proceed directly to the exit.
		s.ip = failLabel
		return false

	case instTryIfSet, instTryMatchSet:
		set := m.setAt(readU32(insts, body))
		failLabel := readU32(insts, body+szSetIdx)
		if s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset]) {
			m.stacks.contStack.push(cont{tag: contResume, origInputOffset: s.inputOffset, origInstLabel: failLabel})
			if tag == instTryMatchSet {
				s.inputOffset++
			}
			s.ip += instFullSize(tag)
			return false
		}
		s.ip = failLabel
		return false

	case instBeginAssertion:
		isNegation, minBodyGroupID, maxBodyGroupID, _ := m.beginAssertionFieldsAt(s.ip)
		if !isNegation {
			// On success the RestoreGroup continuations pushed in the
			// body will be cut; if the entire assertion is backtracked
			// over, the current bindings must come back.
			m.saveInnerGroups(s, minBodyGroupID, maxBodyGroupID, false)
		}
		m.stacks.assertionStack.push(assertionInfo{
			beginLabel:        s.ip,
			startInputOffset:  s.inputOffset,
			contStackPosition: m.stacks.contStack.position(),
		})
		m.stacks.contStack.push(cont{tag: contPopAssertion})
		s.ip += instFullSize(tag)
		return false

	case instEndAssertion:
		if !m.popAssertion(s, true) {
			// The body of a negative assertion succeeded.
			return m.fail(s)
		}
		return false

	default:
		panic("BUG: unknown instruction tag")
	}
}

// execSwitch scans the sorted case list, stopping early once a case char
// exceeds the input char.
func (m *Matcher) execSwitch(s *runState, tag instTag, consume bool) bool {
	insts := m.program.Insts
	body := s.ip + 1
	if s.inputOffset >= s.inputLength {
		return m.fail(s)
	}
	numCases := int(insts[body])
	c := s.input[s.inputOffset]
	at := body + 1
	for i := 0; i < numCases; i++ {
		caseChar := readChar(insts, at)
		if caseChar == c {
			if consume {
				s.inputOffset++
			}
			s.ip = readU32(insts, at+szChar)
			return false
		}
		if caseChar > c {
			break
		}
		at += szChar + szLabel
	}
	s.ip += instFullSize(tag)
	return false
}

// syncToChar2Literal advances to the next occurrence of the inline 2-char
// literal, leaving the offset at the match.
func (m *Matcher) syncToChar2Literal(s *runState, body uint32) bool {
	insts := m.program.Insts
	c0, c1 := readChar(insts, body), readChar(insts, body+szChar)
	for s.inputOffset+2 <= s.inputLength {
		if s.input[s.inputOffset] == c0 && s.input[s.inputOffset+1] == c1 {
			return true
		}
		s.inputOffset++
	}
	return false
}

// syncToScannerLiteral advances to the next occurrence of the instruction's
// literal using its prebuilt scanner.
func (m *Matcher) syncToScannerLiteral(s *runState, ip Label, body uint32, tag instTag) bool {
	litOffset := readU32(m.program.Insts, body)
	length := readU32(m.program.Insts, body+4)
	stride := 1
	switch tag {
	case instSyncToLiteralEquivAndContinue, instSyncToLiteralEquivAndConsume, instSyncToLiteralEquivAndBackup,
		instSyncToLiteralEquivTrivialLastPatCharAndContinue, instSyncToLiteralEquivTrivialLastPatCharAndConsume,
		instSyncToLiteralEquivTrivialLastPatCharAndBackup:
		stride = EquivClassSize
	}
	pat := m.program.LitBuf[litOffset : litOffset+length*uint32(stride)]
	return m.program.scanners[ip].match(s.input, s.inputLength, &s.inputOffset, pat, stride)
}

// execSyncBackup implements the shared shell of the sync-and-backup family:
// skip when already synced past, enforce the minimum backup, find, record the
// next sync position, and back the match start up by at most the range.
func (m *Matcher) execSyncBackup(s *runState, tag instTag, body uint32, payloadBeforeBackup uint32, find func() bool) bool {
	insts := m.program.Insts
	backup := readCount(insts, body+payloadBeforeBackup)

	if backup.lower > s.inputLength-s.matchStart {
		// Even a match at the very end leaves no room for the minimum
		// backup.
		return m.hardFail(s, immediateFail)
	}

	if s.inputOffset < s.nextSyncInputOffset {
		// Not yet back to the last synced position: syncing again would
		// land at the same place and back up to where we already are.
		s.ip += instFullSize(tag)
		return false
	}

	if backup.lower > s.inputOffset-s.matchStart {
		// No use looking before the minimum backup is possible.
		s.inputOffset = s.matchStart + backup.lower
	}

	if !find() {
		return m.hardFail(s, immediateFail)
	}

	s.nextSyncInputOffset = s.inputOffset + 1

	if !backup.upperIsInfinite() {
		maxBackup := s.inputOffset - s.matchStart
		if maxBackup > backup.upper {
			maxBackup = backup.upper
		}
		s.matchStart = s.inputOffset - maxBackup
	}
	// else: leave the start where it is.

	s.inputOffset = s.matchStart
	s.ip += instFullSize(tag)
	return false
}

// execSyncToLiteralsAndBackup syncs to whichever of up to four literals
// occurs earliest, memoizing each literal's next occurrence across outer
// iterations.
func (m *Matcher) execSyncToLiteralsAndBackup(s *runState, body uint32) bool {
	insts := m.program.Insts
	tag := instSyncToLiteralsAndBackup
	numLiterals := int(insts[body])
	entriesAt := body + 1
	backup := readCount(insts, entriesAt+maxNumSyncLiterals*(szU32+szU32+szBool))

	if backup.lower > s.inputLength-s.matchStart {
		return m.hardFail(s, immediateFail)
	}
	if s.inputOffset < s.nextSyncInputOffset {
		s.ip += instFullSize(tag)
		return false
	}
	if backup.lower > s.inputOffset-s.matchStart {
		s.inputOffset = s.matchStart + backup.lower
	}

	if m.literalNextSyncInputOffsets == nil {
		m.literalNextSyncInputOffsets = make([]uint32, maxNumSyncLiterals)
	}
	if s.firstIteration {
		for i := 0; i < numLiterals; i++ {
			m.literalNextSyncInputOffsets[i] = s.inputOffset
		}
	}

	scanners := m.program.multiScanners[s.ip]
	besti := -1
	var bestMatchOffset uint32
	for i := 0; i < numLiterals; i++ {
		at := entriesAt + uint32(i)*(szU32+szU32+szBool)
		litOffset := readU32(insts, at)
		length := readU32(insts, at+4)
		isEquiv := readBool(insts, at+8)
		stride := 1
		if isEquiv {
			stride = EquivClassSize
		}
		pat := m.program.LitBuf[litOffset : litOffset+length*uint32(stride)]

		thisMatchOffset := m.literalNextSyncInputOffsets[i]
		if s.inputOffset > thisMatchOffset {
			thisMatchOffset = s.inputOffset
		}
		if scanners[i].match(s.input, s.inputLength, &thisMatchOffset, pat, stride) {
			if besti < 0 || thisMatchOffset < bestMatchOffset {
				besti = i
				bestMatchOffset = thisMatchOffset
			}
			m.literalNextSyncInputOffsets[i] = thisMatchOffset
		} else {
			m.literalNextSyncInputOffsets[i] = s.inputLength
		}
	}

	if besti < 0 {
		// No literal occurs anywhere later.
		return m.hardFail(s, immediateFail)
	}

	s.nextSyncInputOffset = bestMatchOffset + 1

	if !backup.upperIsInfinite() {
		maxBackup := bestMatchOffset - s.matchStart
		if maxBackup > backup.upper {
			maxBackup = backup.upper
		}
		s.matchStart = bestMatchOffset - maxBackup
	}

	s.inputOffset = s.matchStart
	s.ip += instFullSize(tag)
	return false
}

// execMatchGroup matches a back-reference. This is the only place the engine
// converts characters to their equivalence class, and the only place
// surrogate pairs are decoded (unicode + ignore-case only).
func (m *Matcher) execMatchGroup(s *runState, groupID int32) bool {
	info := m.groupInfo(groupID)
	if !info.IsUndefined() && info.Length > 0 {
		if info.Length > s.inputLength-s.inputOffset {
			return m.fail(s)
		}

		groupOffset := info.Offset
		groupEndOffset := groupOffset + info.Length

		isCaseInsensitive := m.program.IsIgnoreCase()
		isCodePointMode := m.program.IsUnicode()

		switch {
		case isCaseInsensitive && isCodePointMode:
			var equivs [EquivClassSize]rune
			for groupOffset < groupEndOffset {
				groupCodePoint := nextCodePoint(s.input, &groupOffset, groupEndOffset)
				// The input is at least as long as the group, so there
				// is always an input code point here.
				inputCodePoint := nextCodePoint(s.input, &s.inputOffset, s.inputLength)

				var doesMatch bool
				if !isInSupplementaryPlane(groupCodePoint) {
					doesMatch = toCanonical(MappingSourceCaseFolding, Char(groupCodePoint)) ==
						toCanonical(MappingSourceCaseFolding, Char(inputCodePoint))
				} else {
					equivClass(groupCodePoint, &equivs)
					doesMatch = inputCodePoint == equivs[0] ||
						inputCodePoint == equivs[1] ||
						inputCodePoint == equivs[2] ||
						inputCodePoint == equivs[3]
				}
				if !doesMatch {
					return m.fail(s)
				}
			}

		case isCaseInsensitive:
			for groupOffset < groupEndOffset {
				gc := toCanonical(MappingSourceUnicodeData, s.input[groupOffset])
				ic := toCanonical(MappingSourceUnicodeData, s.input[s.inputOffset])
				groupOffset++
				s.inputOffset++
				if gc != ic {
					return m.fail(s)
				}
			}

		default:
			for groupOffset < groupEndOffset {
				if s.input[groupOffset] != s.input[s.inputOffset] {
					return m.fail(s)
				}
				groupOffset++
				s.inputOffset++
			}
		}
	}
	// else: trivially match the empty string.

	s.ip += instFullSize(instMatchGroup)
	return false
}

// nextCodePoint decodes one code point, pairing surrogates when both halves
// are present.
func nextCodePoint(input []Char, offset *uint32, endOffset uint32) rune {
	lower := input[*offset]
	if !isSurrogateLowerPart(lower) || *offset+1 == endOffset {
		*offset++
		return rune(lower)
	}
	upper := input[*offset+1]
	if !isSurrogateUpperPart(upper) {
		*offset++
		return rune(lower)
	}
	*offset += 2
	return surrogatePairAsCodePoint(lower, upper)
}

func chompEndOffset(s *runState, upper uint32) uint32 {
	if upper >= s.inputLength-s.inputOffset {
		return s.inputLength
	}
	return s.inputOffset + upper
}

func (m *Matcher) execChompChar(s *runState, tag instTag, body uint32, star bool) bool {
	c := readChar(m.program.Insts, body)
	if star || (s.inputOffset < s.inputLength && s.input[s.inputOffset] == c) {
		if !star {
			s.inputOffset++
		}
		for s.inputOffset < s.inputLength && s.input[s.inputOffset] == c {
			s.inputOffset++
		}
		s.ip += instFullSize(tag)
		return false
	}
	return m.fail(s)
}

func (m *Matcher) execChompSet(s *runState, tag instTag, body uint32, star bool) bool {
	set := m.setAt(readU32(m.program.Insts, body))
	if star || (s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset])) {
		if !star {
			s.inputOffset++
		}
		for s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset]) {
			s.inputOffset++
		}
		s.ip += instFullSize(tag)
		return false
	}
	return m.fail(s)
}

func (m *Matcher) execChompCharGroup(s *runState, tag instTag, body uint32, star bool) bool {
	insts := m.program.Insts
	c := readChar(insts, body)
	groupID := readI32(insts, body+szChar)
	noNeedToSave := readBool(insts, body+szChar+szI32)

	inputStartOffset := s.inputOffset
	if star || (s.inputOffset < s.inputLength && s.input[s.inputOffset] == c) {
		if !star {
			s.inputOffset++
		}
		for s.inputOffset < s.inputLength && s.input[s.inputOffset] == c {
			s.inputOffset++
		}
		m.bindChompGroup(s, groupID, noNeedToSave, inputStartOffset)
		s.ip += instFullSize(tag)
		return false
	}
	return m.fail(s)
}

func (m *Matcher) execChompSetGroup(s *runState, tag instTag, body uint32, star bool) bool {
	insts := m.program.Insts
	set := m.setAt(readU32(insts, body))
	groupID := readI32(insts, body+szSetIdx)
	noNeedToSave := readBool(insts, body+szSetIdx+szI32)

	inputStartOffset := s.inputOffset
	if star || (s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset])) {
		if !star {
			s.inputOffset++
		}
		for s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset]) {
			s.inputOffset++
		}
		m.bindChompGroup(s, groupID, noNeedToSave, inputStartOffset)
		s.ip += instFullSize(tag)
		return false
	}
	return m.fail(s)
}

func (m *Matcher) bindChompGroup(s *runState, groupID int32, noNeedToSave bool, inputStartOffset uint32) {
	if !noNeedToSave {
		// UNDO ACTION: restore the group on backtrack.
		m.stacks.contStack.push(cont{tag: contResetGroup, id: groupID})
	}
	groupInfo := m.groupInfo(groupID)
	groupInfo.Offset = inputStartOffset
	groupInfo.Length = s.inputOffset - inputStartOffset
}
