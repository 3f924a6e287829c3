package regex

import "encoding/binary"

// Label is an absolute byte offset into the instruction buffer.
type Label = uint32

// instTag is the 1-byte tag every instruction record opens with.
type instTag byte

// The tag order mirrors the compiler's opcode table.
const (
	// Tag 0x00 is a Nop so zero padding forms a nop sled.
	instNop instTag = iota
	instFail
	instSucc
	instJump
	instJumpIfNotChar
	instMatchCharOrJump
	instJumpIfNotSet
	instMatchSetOrJump
	instSwitch2
	instSwitch4
	instSwitch8
	instSwitch16
	instSwitch24
	instSwitchAndConsume2
	instSwitchAndConsume4
	instSwitchAndConsume8
	instSwitchAndConsume16
	instSwitchAndConsume24
	instBOIHardFailTest
	instBOITest
	instEOIHardFailTest
	instEOITest
	instBOLTest
	instEOLTest
	instNegatedWordBoundaryTest
	instWordBoundaryTest
	instMatchChar
	instMatchChar2
	instMatchChar3
	instMatchChar4
	instMatchSet
	instMatchNegatedSet
	instMatchLiteral
	instMatchLiteralEquiv
	instMatchTrie
	instOptMatchChar
	instOptMatchSet
	instSyncToCharAndContinue
	instSyncToChar2SetAndContinue
	instSyncToSetAndContinue
	instSyncToNegatedSetAndContinue
	instSyncToChar2LiteralAndContinue
	instSyncToLiteralAndContinue
	instSyncToLinearLiteralAndContinue
	instSyncToLiteralEquivAndContinue
	instSyncToLiteralEquivTrivialLastPatCharAndContinue
	instSyncToCharAndConsume
	instSyncToChar2SetAndConsume
	instSyncToSetAndConsume
	instSyncToNegatedSetAndConsume
	instSyncToChar2LiteralAndConsume
	instSyncToLiteralAndConsume
	instSyncToLinearLiteralAndConsume
	instSyncToLiteralEquivAndConsume
	instSyncToLiteralEquivTrivialLastPatCharAndConsume
	instSyncToCharAndBackup
	instSyncToSetAndBackup
	instSyncToNegatedSetAndBackup
	instSyncToChar2LiteralAndBackup
	instSyncToLiteralAndBackup
	instSyncToLinearLiteralAndBackup
	instSyncToLiteralEquivAndBackup
	instSyncToLiteralEquivTrivialLastPatCharAndBackup
	instSyncToLiteralsAndBackup
	instMatchGroup
	instBeginDefineGroup
	instEndDefineGroup
	instDefineGroupFixed
	instBeginLoop
	instRepeatLoop
	instBeginLoopIfChar
	instBeginLoopIfSet
	instRepeatLoopIfChar
	instRepeatLoopIfSet
	instBeginLoopFixed
	instRepeatLoopFixed
	instLoopSet
	instLoopSetWithFollowFirst
	instBeginLoopFixedGroupLastIteration
	instRepeatLoopFixedGroupLastIteration
	instBeginGreedyLoopNoBacktrack
	instRepeatGreedyLoopNoBacktrack
	instChompCharStar
	instChompCharPlus
	instChompSetStar
	instChompSetPlus
	instChompCharGroupStar
	instChompCharGroupPlus
	instChompSetGroupStar
	instChompSetGroupPlus
	instChompCharBounded
	instChompSetBounded
	instChompSetBoundedGroupLastChar
	instTry
	instTryIfChar
	instTryMatchChar
	instTryIfSet
	instTryMatchSet
	instBeginAssertion
	instEndAssertion

	numInstTags
)

var instTagNames = [numInstTags]string{
	instNop:                            "Nop",
	instFail:                           "Fail",
	instSucc:                           "Succ",
	instJump:                           "Jump",
	instJumpIfNotChar:                  "JumpIfNotChar",
	instMatchCharOrJump:                "MatchCharOrJump",
	instJumpIfNotSet:                   "JumpIfNotSet",
	instMatchSetOrJump:                 "MatchSetOrJump",
	instSwitch2:                        "Switch2",
	instSwitch4:                        "Switch4",
	instSwitch8:                        "Switch8",
	instSwitch16:                       "Switch16",
	instSwitch24:                       "Switch24",
	instSwitchAndConsume2:              "SwitchAndConsume2",
	instSwitchAndConsume4:              "SwitchAndConsume4",
	instSwitchAndConsume8:              "SwitchAndConsume8",
	instSwitchAndConsume16:             "SwitchAndConsume16",
	instSwitchAndConsume24:             "SwitchAndConsume24",
	instBOIHardFailTest:                "BOIHardFailTest",
	instBOITest:                        "BOITest",
	instEOIHardFailTest:                "EOIHardFailTest",
	instEOITest:                        "EOITest",
	instBOLTest:                        "BOLTest",
	instEOLTest:                        "EOLTest",
	instNegatedWordBoundaryTest:        "NegatedWordBoundaryTest",
	instWordBoundaryTest:               "WordBoundaryTest",
	instMatchChar:                      "MatchChar",
	instMatchChar2:                     "MatchChar2",
	instMatchChar3:                     "MatchChar3",
	instMatchChar4:                     "MatchChar4",
	instMatchSet:                       "MatchSet",
	instMatchNegatedSet:                "MatchNegatedSet",
	instMatchLiteral:                   "MatchLiteral",
	instMatchLiteralEquiv:              "MatchLiteralEquiv",
	instMatchTrie:                      "MatchTrie",
	instOptMatchChar:                   "OptMatchChar",
	instOptMatchSet:                    "OptMatchSet",
	instSyncToCharAndContinue:          "SyncToCharAndContinue",
	instSyncToChar2SetAndContinue:      "SyncToChar2SetAndContinue",
	instSyncToSetAndContinue:           "SyncToSetAndContinue",
	instSyncToNegatedSetAndContinue:    "SyncToNegatedSetAndContinue",
	instSyncToChar2LiteralAndContinue:  "SyncToChar2LiteralAndContinue",
	instSyncToLiteralAndContinue:       "SyncToLiteralAndContinue",
	instSyncToLinearLiteralAndContinue: "SyncToLinearLiteralAndContinue",
	instSyncToLiteralEquivAndContinue:  "SyncToLiteralEquivAndContinue",
	instSyncToLiteralEquivTrivialLastPatCharAndContinue: "SyncToLiteralEquivTrivialLastPatCharAndContinue",
	instSyncToCharAndConsume:                            "SyncToCharAndConsume",
	instSyncToChar2SetAndConsume:                        "SyncToChar2SetAndConsume",
	instSyncToSetAndConsume:                             "SyncToSetAndConsume",
	instSyncToNegatedSetAndConsume:                      "SyncToNegatedSetAndConsume",
	instSyncToChar2LiteralAndConsume:                    "SyncToChar2LiteralAndConsume",
	instSyncToLiteralAndConsume:                         "SyncToLiteralAndConsume",
	instSyncToLinearLiteralAndConsume:                   "SyncToLinearLiteralAndConsume",
	instSyncToLiteralEquivAndConsume:                    "SyncToLiteralEquivAndConsume",
	instSyncToLiteralEquivTrivialLastPatCharAndConsume:  "SyncToLiteralEquivTrivialLastPatCharAndConsume",
	instSyncToCharAndBackup:                             "SyncToCharAndBackup",
	instSyncToSetAndBackup:                              "SyncToSetAndBackup",
	instSyncToNegatedSetAndBackup:                       "SyncToNegatedSetAndBackup",
	instSyncToChar2LiteralAndBackup:                     "SyncToChar2LiteralAndBackup",
	instSyncToLiteralAndBackup:                          "SyncToLiteralAndBackup",
	instSyncToLinearLiteralAndBackup:                    "SyncToLinearLiteralAndBackup",
	instSyncToLiteralEquivAndBackup:                     "SyncToLiteralEquivAndBackup",
	instSyncToLiteralEquivTrivialLastPatCharAndBackup:   "SyncToLiteralEquivTrivialLastPatCharAndBackup",
	instSyncToLiteralsAndBackup:                         "SyncToLiteralsAndBackup",
	instMatchGroup:                                      "MatchGroup",
	instBeginDefineGroup:                                "BeginDefineGroup",
	instEndDefineGroup:                                  "EndDefineGroup",
	instDefineGroupFixed:                                "DefineGroupFixed",
	instBeginLoop:                                       "BeginLoop",
	instRepeatLoop:                                      "RepeatLoop",
	instBeginLoopIfChar:                                 "BeginLoopIfChar",
	instBeginLoopIfSet:                                  "BeginLoopIfSet",
	instRepeatLoopIfChar:                                "RepeatLoopIfChar",
	instRepeatLoopIfSet:                                 "RepeatLoopIfSet",
	instBeginLoopFixed:                                  "BeginLoopFixed",
	instRepeatLoopFixed:                                 "RepeatLoopFixed",
	instLoopSet:                                         "LoopSet",
	instLoopSetWithFollowFirst:                          "LoopSetWithFollowFirst",
	instBeginLoopFixedGroupLastIteration:                "BeginLoopFixedGroupLastIteration",
	instRepeatLoopFixedGroupLastIteration:               "RepeatLoopFixedGroupLastIteration",
	instBeginGreedyLoopNoBacktrack:                      "BeginGreedyLoopNoBacktrack",
	instRepeatGreedyLoopNoBacktrack:                     "RepeatGreedyLoopNoBacktrack",
	instChompCharStar:                                   "ChompCharStar",
	instChompCharPlus:                                   "ChompCharPlus",
	instChompSetStar:                                    "ChompSetStar",
	instChompSetPlus:                                    "ChompSetPlus",
	instChompCharGroupStar:                              "ChompCharGroupStar",
	instChompCharGroupPlus:                              "ChompCharGroupPlus",
	instChompSetGroupStar:                               "ChompSetGroupStar",
	instChompSetGroupPlus:                               "ChompSetGroupPlus",
	instChompCharBounded:                                "ChompCharBounded",
	instChompSetBounded:                                 "ChompSetBounded",
	instChompSetBoundedGroupLastChar:                    "ChompSetBoundedGroupLastChar",
	instTry:                                             "Try",
	instTryIfChar:                                       "TryIfChar",
	instTryMatchChar:                                    "TryMatchChar",
	instTryIfSet:                                        "TryIfSet",
	instTryMatchSet:                                     "TryMatchSet",
	instBeginAssertion:                                  "BeginAssertion",
	instEndAssertion:                                    "EndAssertion",
}

// String implements fmt.Stringer.
func (t instTag) String() string {
	if t < numInstTags {
		return instTagNames[t]
	}
	return "Invalid"
}

// Operand field widths. All multi-byte fields are little-endian.
const (
	szChar   = 2
	szLabel  = 4
	szU32    = 4
	szI32    = 4
	szBool   = 1
	szSetIdx = 4
	szCount  = 8 // CountDomain: lower u32, upper-or-infinity u32
	szBackup = 8 // backup range: lower u32, upper-or-infinity u32
)

// charCountInfinity is the upper bound meaning "no bound".
const charCountInfinity = uint32(0xFFFFFFFF)

func (t instTag) switchCapacity() int {
	switch t {
	case instSwitch2, instSwitchAndConsume2:
		return 2
	case instSwitch4, instSwitchAndConsume4:
		return 4
	case instSwitch8, instSwitchAndConsume8:
		return 8
	case instSwitch16, instSwitchAndConsume16:
		return 16
	case instSwitch24, instSwitchAndConsume24:
		return 24
	}
	return 0
}

// payloadSize returns the byte size of the instruction's operands. Every tag
// has a fixed size, so the interpreter advances by 1 + payloadSize.
func (t instTag) payloadSize() int {
	const beginLoopMixin = szI32 + szCount + szBool + szBool + szLabel // loopId, repeats, hasOuterLoops, hasInnerNondet, exitLabel
	const bodyGroupsMixin = szI32 + szI32
	const loopSetMixin = szI32 + szCount + szBool // loopId, repeats, hasOuterLoops

	switch t {
	case instNop, instFail, instSucc,
		instBOIHardFailTest, instBOITest, instEOIHardFailTest, instEOITest,
		instBOLTest, instEOLTest, instWordBoundaryTest, instNegatedWordBoundaryTest,
		instEndAssertion:
		return 0
	case instJump:
		return szLabel
	case instJumpIfNotChar, instMatchCharOrJump:
		return szChar + szLabel
	case instJumpIfNotSet, instMatchSetOrJump:
		return szSetIdx + szLabel
	case instSwitch2, instSwitch4, instSwitch8, instSwitch16, instSwitch24,
		instSwitchAndConsume2, instSwitchAndConsume4, instSwitchAndConsume8,
		instSwitchAndConsume16, instSwitchAndConsume24:
		return 1 + t.switchCapacity()*(szChar+szLabel)
	case instMatchChar, instOptMatchChar, instSyncToCharAndContinue, instSyncToCharAndConsume:
		return szChar
	case instMatchChar2, instSyncToChar2SetAndContinue, instSyncToChar2SetAndConsume,
		instSyncToChar2LiteralAndContinue, instSyncToChar2LiteralAndConsume:
		return 2 * szChar
	case instMatchChar3:
		return 3 * szChar
	case instMatchChar4:
		return 4 * szChar
	case instMatchSet, instMatchNegatedSet, instOptMatchSet,
		instSyncToSetAndContinue, instSyncToNegatedSetAndContinue,
		instSyncToSetAndConsume, instSyncToNegatedSetAndConsume:
		return szSetIdx
	case instMatchLiteral, instMatchLiteralEquiv,
		instSyncToLiteralAndContinue, instSyncToLinearLiteralAndContinue,
		instSyncToLiteralEquivAndContinue, instSyncToLiteralEquivTrivialLastPatCharAndContinue,
		instSyncToLiteralAndConsume, instSyncToLinearLiteralAndConsume,
		instSyncToLiteralEquivAndConsume, instSyncToLiteralEquivTrivialLastPatCharAndConsume:
		return szU32 + szU32
	case instMatchTrie:
		return szU32
	case instSyncToCharAndBackup:
		return szChar + szBackup
	case instSyncToSetAndBackup, instSyncToNegatedSetAndBackup:
		return szSetIdx + szBackup
	case instSyncToChar2LiteralAndBackup:
		return 2*szChar + szBackup
	case instSyncToLiteralAndBackup, instSyncToLinearLiteralAndBackup,
		instSyncToLiteralEquivAndBackup, instSyncToLiteralEquivTrivialLastPatCharAndBackup:
		return szU32 + szU32 + szBackup
	case instSyncToLiteralsAndBackup:
		return 1 + maxNumSyncLiterals*(szU32+szU32+szBool) + szBackup
	case instMatchGroup, instBeginDefineGroup:
		return szI32
	case instEndDefineGroup:
		return szI32 + szBool
	case instDefineGroupFixed:
		return szI32 + szU32 + szBool
	case instBeginLoop:
		return beginLoopMixin + bodyGroupsMixin + szBool
	case instRepeatLoop, instRepeatLoopIfChar, instRepeatLoopIfSet, instRepeatLoopFixed,
		instRepeatLoopFixedGroupLastIteration, instRepeatGreedyLoopNoBacktrack:
		return szLabel
	case instBeginLoopIfChar:
		return szChar + beginLoopMixin + bodyGroupsMixin
	case instBeginLoopIfSet:
		return szSetIdx + beginLoopMixin + bodyGroupsMixin
	case instBeginLoopFixed:
		return beginLoopMixin + szU32
	case instLoopSet:
		return szSetIdx + loopSetMixin
	case instLoopSetWithFollowFirst:
		return szSetIdx + loopSetMixin + szChar
	case instBeginLoopFixedGroupLastIteration:
		return beginLoopMixin + szU32 + szI32 + szBool
	case instBeginGreedyLoopNoBacktrack:
		return szI32 + szLabel
	case instChompCharStar, instChompCharPlus:
		return szChar
	case instChompSetStar, instChompSetPlus:
		return szSetIdx
	case instChompCharGroupStar, instChompCharGroupPlus:
		return szChar + szI32 + szBool
	case instChompSetGroupStar, instChompSetGroupPlus:
		return szSetIdx + szI32 + szBool
	case instChompCharBounded:
		return szChar + szCount
	case instChompSetBounded:
		return szSetIdx + szCount
	case instChompSetBoundedGroupLastChar:
		return szSetIdx + szCount + szI32 + szBool
	case instTry:
		return szLabel
	case instTryIfChar, instTryMatchChar:
		return szChar + szLabel
	case instTryIfSet, instTryMatchSet:
		return szSetIdx + szLabel
	case instBeginAssertion:
		return szBool + bodyGroupsMixin + szLabel
	default:
		return -1
	}
}

// maxNumSyncLiterals bounds the SyncToLiteralsAndBackup literal list.
const maxNumSyncLiterals = 4

// Raw field readers over the instruction buffer.

func readChar(insts []byte, at uint32) Char {
	return binary.LittleEndian.Uint16(insts[at:])
}

func readU32(insts []byte, at uint32) uint32 {
	return binary.LittleEndian.Uint32(insts[at:])
}

func readI32(insts []byte, at uint32) int32 {
	return int32(binary.LittleEndian.Uint32(insts[at:]))
}

func readBool(insts []byte, at uint32) bool {
	return insts[at] != 0
}

// countDomain is the {lower, upper-or-infinity} repeat bound pair.
type countDomain struct {
	lower uint32
	upper uint32
}

func (c countDomain) upperIsInfinite() bool {
	return c.upper == charCountInfinity
}

func readCount(insts []byte, at uint32) countDomain {
	return countDomain{lower: readU32(insts, at), upper: readU32(insts, at+4)}
}

// beginLoopFields is the decoded BeginLoop family header.
type beginLoopFields struct {
	loopID         int32
	repeats        countDomain
	hasOuterLoops  bool
	hasInnerNondet bool
	exitLabel      Label
	minBodyGroupID int32
	maxBodyGroupID int32
	isGreedy       bool
	// length is the fixed iteration length of the fixed-loop forms.
	length uint32
	// groupID is the bound group of the group-last-iteration form.
	groupID      int32
	noNeedToSave bool
}

// readBeginLoopMixin decodes the common loop header returning the offset
// just past it.
func readBeginLoopMixin(insts []byte, at uint32) (beginLoopFields, uint32) {
	var f beginLoopFields
	f.loopID = readI32(insts, at)
	at += szI32
	f.repeats = readCount(insts, at)
	at += szCount
	f.hasOuterLoops = readBool(insts, at)
	at += szBool
	f.hasInnerNondet = readBool(insts, at)
	at += szBool
	f.exitLabel = readU32(insts, at)
	at += szLabel
	return f, at
}
