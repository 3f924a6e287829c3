package regex

// Fast-path matchers for the specialized program tags. All of them reset
// group 0 on failure.

func (m *Matcher) matchSingleCharCaseSensitive(input []Char, inputLength, offset uint32, c Char) bool {
	// Sticky: only the character at the start offset may match.
	if m.program.IsSticky() {
		if offset < inputLength && input[offset] == c {
			m.bindGroup0(offset, 1)
			return true
		}
		m.resetGroup(0)
		return false
	}

	for offset < inputLength {
		if input[offset] == c {
			m.bindGroup0(offset, 1)
			return true
		}
		offset++
	}
	m.resetGroup(0)
	return false
}

func (m *Matcher) matchSingleCharCaseInsensitive(input []Char, inputLength, offset uint32, c Char) bool {
	mappingSource := m.program.CaseMappingSource()
	canonical := toCanonical(mappingSource, c)

	if m.program.IsSticky() {
		if offset < inputLength && toCanonical(mappingSource, input[offset]) == canonical {
			m.bindGroup0(offset, 1)
			return true
		}
		m.resetGroup(0)
		return false
	}

	for offset < inputLength {
		if toCanonical(mappingSource, input[offset]) == canonical {
			m.bindGroup0(offset, 1)
			return true
		}
		offset++
	}
	m.resetGroup(0)
	return false
}

// matchBoundedWord implements the \b\w+\b fast path.
func (m *Matcher) matchBoundedWord(input []Char, inputLength, offset uint32) bool {
	if offset >= inputLength {
		m.resetGroup(0)
		return false
	}

	if (offset == 0 && isWord(input[0])) ||
		(offset > 0 && !isWord(input[offset-1]) && isWord(input[offset])) {
		// Already at the start of a word.
	} else if m.program.IsSticky() {
		// Not at the start of a word, and not allowed to move.
		m.resetGroup(0)
		return false
	} else {
		if isWord(input[offset]) {
			// Scan for the end of the current word.
			for {
				offset++
				if offset >= inputLength {
					m.resetGroup(0)
					return false
				}
				if !isWord(input[offset]) {
					break
				}
			}
		}

		// Scan for the start of the next word.
		for {
			offset++
			if offset >= inputLength {
				m.resetGroup(0)
				return false
			}
			if isWord(input[offset]) {
				break
			}
		}
	}

	info := m.groupInfo(0)
	info.Offset = offset

	// Scan for the end of the word.
	for {
		offset++
		if offset >= inputLength || !isWord(input[offset]) {
			break
		}
	}

	info.Length = offset - info.Offset
	return true
}

// matchLeadingTrailingSpaces implements the ^\s*|\s*$ fast path.
func (m *Matcher) matchLeadingTrailingSpaces(input []Char, inputLength, offset uint32) bool {
	info := m.groupInfo(0)

	if offset >= inputLength {
		if m.program.TrailingMinMatch == 0 ||
			(offset == 0 && m.program.LeadingMinMatch == 0) {
			info.Offset = offset
			info.Length = 0
			return true
		}
		info.Reset()
		return false
	}

	if offset == 0 {
		for offset < inputLength && isWhitespaceOrNewline(input[offset]) {
			offset++
		}
		if offset >= m.program.LeadingMinMatch {
			info.Offset = 0
			info.Length = offset
			return true
		}
	}

	initOffset := offset
	offset = inputLength - 1
	for offset >= initOffset && isWhitespaceOrNewline(input[offset]) {
		if offset == 0 {
			break
		}
		offset--
	}
	offset++
	length := inputLength - offset
	if length >= m.program.TrailingMinMatch {
		info.Offset = offset
		info.Length = length
		return true
	}
	info.Reset()
	return false
}

func (m *Matcher) matchOctoquad(input []Char, inputLength, offset uint32) bool {
	if m.program.Octoquad.match(input, inputLength, &offset) {
		m.bindGroup0(offset, OctoquadPatternLength)
		return true
	}
	m.resetGroup(0)
	return false
}

func (m *Matcher) matchBOILiteral2(input []Char, inputLength, offset uint32) bool {
	if offset == 0 && inputLength >= 2 {
		lit := m.program.BOILiteral2
		if input[0] == lit[0] && input[1] == lit[1] {
			m.bindGroup0(0, 2)
			return true
		}
	}
	m.resetGroup(0)
	return false
}

func (m *Matcher) bindGroup0(offset, length uint32) {
	info := m.groupInfo(0)
	info.Offset = offset
	info.Length = length
}
