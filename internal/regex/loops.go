package regex

// Loop instruction execution. Loop state lives in LoopInfo records indexed
// by loop id; backtracking restores it through RestoreLoop and the Rewind*
// continuations.

func (m *Matcher) execBeginLoop(s *runState, tag instTag) bool {
	begin, _ := m.loopFieldsAt(s.ip)
	loopInfo := m.loopInfo(begin.loopID)

	// If the loop has outer loops, the continuation stack may hold
	// choicepoints from an earlier run of this loop which, when backtracked
	// to, expect the loop state from when they were pushed.
	//  - Greedy with deterministic body: only Resumes into the follow,
	//    which never look at the loop state.
	//  - Greedy, or non-greedy with lower > 0, with non-deterministic
	//    body: Resumes may land inside the body and run to a RepeatLoop
	//    which reads the state, but each iteration is protected by the
	//    RestoreLoop pushed in RepeatLoop below.
	//  - Non-greedy: a RepeatLoop may be on the stack, so the state must
	//    be restored before backtracking into it.
	if !begin.isGreedy && begin.hasOuterLoops {
		m.stacks.contStack.push(cont{tag: contRestoreLoop, id: begin.loopID, loopInfo: loopInfo.snapshot()})
	}

	loopInfo.number = 0
	loopInfo.startInputOffset = s.inputOffset

	if begin.repeats.lower == 0 {
		if begin.isGreedy {
			// CHOICEPOINT: try one iteration of the body; on backtrack
			// continue from here with no iterations.
			m.stacks.contStack.push(cont{tag: contResume, origInputOffset: s.inputOffset, origInstLabel: begin.exitLabel})
			s.ip += instFullSize(tag)
		} else {
			// CHOICEPOINT: try no iterations; on backtrack do one
			// iteration of the body from here.
			m.stacks.contStack.push(cont{tag: contRepeatLoop, beginLabel: s.ip, origInputOffset: s.inputOffset})
			s.ip = begin.exitLabel
		}
	} else {
		// The minimum must match, so continue into the body.
		s.ip += instFullSize(tag)
	}
	return false
}

func (m *Matcher) execRepeatLoop(s *runState, beginLabel Label) bool {
	begin, _ := m.loopFieldsAt(beginLabel)
	loopInfo := m.loopInfo(begin.loopID)

	if begin.hasInnerNondet {
		m.stacks.contStack.push(cont{tag: contRestoreLoop, id: begin.loopID, loopInfo: loopInfo.snapshot()})
	}

	loopInfo.number++

	switch {
	case loopInfo.number < begin.repeats.lower:
		// Another iteration is mandatory.
		loopInfo.startInputOffset = s.inputOffset
		if begin.hasInnerNondet {
			// Backtracking into an earlier iteration's body must see
			// that iteration's groups: save, then reset for this one.
			m.saveInnerGroups(s, begin.minBodyGroupID, begin.maxBodyGroupID, true)
		} else {
			// A backtrack fails the whole loop, so just reset.
			m.resetInnerGroups(begin.minBodyGroupID, begin.maxBodyGroupID)
		}
		s.ip = beginLabel + instFullSize(instBeginLoop)

	case s.inputOffset == loopInfo.startInputOffset && loopInfo.number > begin.repeats.lower:
		// The minimum is satisfied but the last iteration made no
		// progress. Greedy or not, trying again cannot help, so fail to
		// undo the iteration.
		return m.fail(s)

	case !begin.repeats.upperIsInfinite() && loopInfo.number >= begin.repeats.upper:
		// Success: proceed to the remainder.
		s.ip = begin.exitLabel

	case begin.isGreedy:
		// CHOICEPOINT: one more iteration; on backtrack continue from
		// here with no more.
		m.stacks.contStack.push(cont{tag: contResume, origInputOffset: s.inputOffset, origInstLabel: begin.exitLabel})
		loopInfo.startInputOffset = s.inputOffset
		// A backtrack must continue with the previous group bindings.
		m.saveInnerGroups(s, begin.minBodyGroupID, begin.maxBodyGroupID, true)
		s.ip = beginLabel + instFullSize(instBeginLoop)

	default:
		// CHOICEPOINT: no more iterations; on backtrack do one more from
		// here.
		m.stacks.contStack.push(cont{tag: contRepeatLoop, beginLabel: beginLabel, origInputOffset: s.inputOffset})
		s.ip = begin.exitLabel
	}
	return false
}

func (m *Matcher) execBeginLoopIf(s *runState, tag instTag, body uint32) bool {
	var guardHolds bool
	if tag == instBeginLoopIfChar {
		c := readChar(m.program.Insts, body)
		guardHolds = s.inputOffset < s.inputLength && s.input[s.inputOffset] == c
	} else {
		set := m.setAt(readU32(m.program.Insts, body))
		guardHolds = s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset])
	}

	begin, _ := m.loopFieldsAt(s.ip)
	if guardHolds {
		// Commit to at least one iteration.
		loopInfo := m.loopInfo(begin.loopID)
		loopInfo.number = 0
		if tag == instBeginLoopIfSet {
			loopInfo.startInputOffset = s.inputOffset
		}
		s.ip += instFullSize(tag)
		return false
	}

	if begin.repeats.lower > 0 {
		return m.fail(s)
	}
	s.ip = begin.exitLabel
	return false
}

func (m *Matcher) execRepeatLoopIf(s *runState, tag instTag, beginLabel Label) bool {
	begin, beginTag := m.loopFieldsAt(beginLabel)
	loopInfo := m.loopInfo(begin.loopID)

	if begin.hasInnerNondet {
		// The body of the iteration just completed may be backtracked
		// into: see BeginLoop.
		m.stacks.contStack.push(cont{tag: contRestoreLoop, id: begin.loopID, loopInfo: loopInfo.snapshot()})
	}

	loopInfo.number++

	var guardHolds bool
	if tag == instRepeatLoopIfChar {
		c := readChar(m.program.Insts, beginLabel+1)
		guardHolds = s.inputOffset < s.inputLength && s.input[s.inputOffset] == c
	} else {
		set := m.setAt(readU32(m.program.Insts, beginLabel+1))
		guardHolds = s.inputOffset < s.inputLength && set.Get(s.input[s.inputOffset])
	}

	if guardHolds {
		if !begin.repeats.upperIsInfinite() && loopInfo.number >= begin.repeats.upper {
			// The next input char is in the body's first set, and the
			// first and follow sets are disjoint: fail now.
			return m.fail(s)
		}
		// Commit to one more iteration.
		if begin.hasInnerNondet {
			m.saveInnerGroups(s, begin.minBodyGroupID, begin.maxBodyGroupID, true)
		} else {
			m.resetInnerGroups(begin.minBodyGroupID, begin.maxBodyGroupID)
		}
		s.ip = beginLabel + instFullSize(beginTag)
		return false
	}

	if loopInfo.number < begin.repeats.lower {
		return m.fail(s)
	}

	s.ip = begin.exitLabel
	return false
}

func (m *Matcher) execBeginLoopFixed(s *runState, tag instTag) bool {
	begin, _ := m.loopFieldsAt(s.ip)
	loopInfo := m.loopInfo(begin.loopID)

	// With outer loops the stack may already hold a RewindLoopFixed for
	// this loop whose state must survive backtracking.
	if begin.hasOuterLoops {
		m.stacks.contStack.push(cont{tag: contRestoreLoop, id: begin.loopID, loopInfo: loopInfo.snapshot()})
	}

	// startInputOffset stays here for all iterations; number and length
	// locate the rewind positions.
	loopInfo.number = 0
	loopInfo.startInputOffset = s.inputOffset

	if begin.repeats.lower == 0 {
		// CHOICEPOINT: try one iteration of the body; its failure rewinds
		// the input to here and resumes with the follow.
		m.stacks.contStack.push(cont{tag: contRewindLoopFixed, beginLabel: s.ip, tryingBody: true})
	}
	// else: the minimum must match; body failure fails the whole loop.

	s.ip += instFullSize(tag)
	return false
}

func (m *Matcher) execRepeatLoopFixed(s *runState, beginLabel Label) bool {
	begin, _ := m.loopFieldsAt(beginLabel)
	loopInfo := m.loopInfo(begin.loopID)

	loopInfo.number++

	switch {
	case loopInfo.number < begin.repeats.lower:
		// Another iteration is mandatory; its failure fails the loop.
		s.ip = beginLabel + instFullSize(instBeginLoopFixed)

	case !begin.repeats.upperIsInfinite() && loopInfo.number >= begin.repeats.upper:
		// Maximum reached: continue with the follow.
		if begin.repeats.lower < begin.repeats.upper {
			// The follow's failure tries one fewer iteration. The body
			// is deterministic and group free, so the rewind must still
			// be on top.
			top := m.stacks.contStack.top()
			if top == nil || top.tag != contRewindLoopFixed {
				panic("BUG: fixed loop lost its rewind continuation")
			}
			top.tryingBody = false
		}
		// else: no rewind continuation was ever pushed.
		s.ip = begin.exitLabel

	default:
		// CHOICEPOINT: one more iteration; its failure rewinds and tries
		// the follow.
		if loopInfo.number == begin.repeats.lower {
			// repeats.lower > 0, so BeginLoopFixed pushed nothing.
			m.stacks.contStack.push(cont{tag: contRewindLoopFixed, beginLabel: beginLabel, tryingBody: true})
		}
		s.ip = beginLabel + instFullSize(instBeginLoopFixed)
	}
	return false
}

func (m *Matcher) execLoopSet(s *runState, tag instTag) bool {
	begin, setIdx := m.loopSetFieldsAt(s.ip, tag)
	loopInfo := m.loopInfo(begin.loopID)

	if begin.hasOuterLoops {
		m.stacks.contStack.push(cont{tag: contRestoreLoop, id: begin.loopID, loopInfo: loopInfo.snapshot()})
	}

	withFollowFirst := tag == instLoopSetWithFollowFirst
	var followFirst Char
	if withFollowFirst {
		followFirst = readChar(m.program.Insts, s.ip+1+szSetIdx+szI32+szCount+szBool)
		loopInfo.offsetsOfFollowFirst = loopInfo.offsetsOfFollowFirst[:0]
	}

	loopInfo.startInputOffset = s.inputOffset

	// Consume as many set elements as allowed.
	set := m.setAt(setIdx)
	loopMatchStart := s.inputOffset
	inputEndOffset := chompEndOffset(s, begin.repeats.upper)
	for s.inputOffset < inputEndOffset && set.Get(s.input[s.inputOffset]) {
		if withFollowFirst && s.input[s.inputOffset] == followFirst {
			loopInfo.ensureOffsetsOfFollowFirst()
			loopInfo.offsetsOfFollowFirst = append(loopInfo.offsetsOfFollowFirst, s.inputOffset-loopInfo.startInputOffset)
		}
		s.inputOffset++
	}

	loopInfo.number = s.inputOffset - loopMatchStart
	if loopInfo.number < begin.repeats.lower {
		return m.fail(s)
	}
	if loopInfo.number > begin.repeats.lower {
		// CHOICEPOINT: if the follow fails, try consuming fewer.
		rewindTag := contRewindLoopSet
		if withFollowFirst {
			rewindTag = contRewindLoopSetWithFollowFirst
		}
		m.stacks.contStack.push(cont{tag: rewindTag, beginLabel: s.ip})
	}
	// else: the follow's failure fails the whole loop.

	s.ip += instFullSize(tag)
	return false
}

func (m *Matcher) execBeginLoopFixedGroupLastIteration(s *runState, tag instTag) bool {
	begin, _ := m.loopFieldsAt(s.ip)
	loopInfo := m.loopInfo(begin.loopID)

	if begin.hasOuterLoops {
		m.stacks.contStack.push(cont{tag: contRestoreLoop, id: begin.loopID, loopInfo: loopInfo.snapshot()})
	}

	// Inside an outer loop or assertion the binding must be undone when
	// the whole loop is backtracked over.
	if !begin.noNeedToSave {
		m.stacks.contStack.push(cont{tag: contResetGroup, id: begin.groupID})
	}

	loopInfo.number = 0
	loopInfo.startInputOffset = s.inputOffset

	if begin.repeats.lower == 0 {
		m.stacks.contStack.push(cont{tag: contRewindLoopFixedGroupLastIteration, beginLabel: s.ip, tryingBody: true})
	}

	s.ip += instFullSize(tag)
	return false
}

func (m *Matcher) execRepeatLoopFixedGroupLastIteration(s *runState, beginLabel Label) bool {
	begin, _ := m.loopFieldsAt(beginLabel)
	loopInfo := m.loopInfo(begin.loopID)

	loopInfo.number++

	switch {
	case loopInfo.number < begin.repeats.lower:
		s.ip = beginLabel + instFullSize(instBeginLoopFixedGroupLastIteration)

	case !begin.repeats.upperIsInfinite() && loopInfo.number >= begin.repeats.upper:
		if begin.repeats.lower < begin.repeats.upper {
			top := m.stacks.contStack.top()
			if top == nil || top.tag != contRewindLoopFixedGroupLastIteration {
				panic("BUG: fixed group loop lost its rewind continuation")
			}
			top.tryingBody = false
		}

		// Bind the group to the final iteration.
		groupInfo := m.groupInfo(begin.groupID)
		groupInfo.Offset = s.inputOffset - begin.length
		groupInfo.Length = begin.length

		s.ip = begin.exitLabel

	default:
		if loopInfo.number == begin.repeats.lower {
			m.stacks.contStack.push(cont{tag: contRewindLoopFixedGroupLastIteration, beginLabel: beginLabel, tryingBody: true})
		}
		s.ip = beginLabel + instFullSize(instBeginLoopFixedGroupLastIteration)
	}
	return false
}
