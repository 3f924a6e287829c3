package regex

import (
	"fmt"
	"strings"
)

// Dump renders the program for debugging.
func (p *Program) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "program %q tag=%d flags=%#x groups=%d loops=%d\n",
		p.Source, p.Tag, uint8(p.Flags), p.NumGroups, p.NumLoops)

	switch p.Tag {
	case SingleCharTag:
		fmt.Fprintf(&b, "  single char %q\n", rune(p.SingleChar))
		return b.String()
	case BOILiteral2Tag:
		fmt.Fprintf(&b, "  boi literal %q%q\n", rune(p.BOILiteral2[0]), rune(p.BOILiteral2[1]))
		return b.String()
	case BoundedWordTag:
		b.WriteString("  bounded word\n")
		return b.String()
	case LeadingTrailingSpacesTag:
		fmt.Fprintf(&b, "  leading/trailing spaces min=%d/%d\n", p.LeadingMinMatch, p.TrailingMinMatch)
		return b.String()
	case OctoquadTag:
		fmt.Fprintf(&b, "  octoquad alphabet=%v masks=%v\n", p.Octoquad.alphabet, p.Octoquad.masks)
		return b.String()
	}

	for pc := uint32(0); pc < uint32(len(p.Insts)); {
		tag := instTag(p.Insts[pc])
		fmt.Fprintf(&b, "  L%04x: %v%s\n", pc, tag, p.dumpOperands(tag, pc+1))
		pc += instFullSize(tag)
	}
	return b.String()
}

// dumpOperands renders the operands most useful when reading a dump; tags
// not special-cased print bare.
func (p *Program) dumpOperands(tag instTag, body uint32) string {
	insts := p.Insts
	switch tag {
	case instJump:
		return fmt.Sprintf(" L%04x", readU32(insts, body))
	case instJumpIfNotChar, instMatchCharOrJump:
		return fmt.Sprintf(" %q, L%04x", rune(readChar(insts, body)), readU32(insts, body+szChar))
	case instMatchChar, instOptMatchChar, instSyncToCharAndContinue, instSyncToCharAndConsume,
		instChompCharStar, instChompCharPlus:
		return fmt.Sprintf(" %q", rune(readChar(insts, body)))
	case instMatchChar2:
		return fmt.Sprintf(" %q|%q", rune(readChar(insts, body)), rune(readChar(insts, body+szChar)))
	case instMatchSet, instMatchNegatedSet, instOptMatchSet, instChompSetStar, instChompSetPlus:
		return fmt.Sprintf(" set#%d", readU32(insts, body))
	case instMatchLiteral, instMatchLiteralEquiv:
		return fmt.Sprintf(" lit[%d..+%d]", readU32(insts, body), readU32(insts, body+4))
	case instMatchGroup, instBeginDefineGroup:
		return fmt.Sprintf(" g%d", readI32(insts, body))
	case instEndDefineGroup:
		return fmt.Sprintf(" g%d noSave=%v", readI32(insts, body), readBool(insts, body+szI32))
	case instDefineGroupFixed:
		return fmt.Sprintf(" g%d len=%d noSave=%v",
			readI32(insts, body), readU32(insts, body+szI32), readBool(insts, body+szI32+szU32))
	case instBeginLoop, instBeginLoopIfChar, instBeginLoopIfSet, instBeginLoopFixed,
		instBeginLoopFixedGroupLastIteration, instBeginGreedyLoopNoBacktrack:
		f, _ := (&Matcher{program: p}).loopFieldsAt(body - 1)
		upper := "inf"
		if !f.repeats.upperIsInfinite() {
			upper = fmt.Sprintf("%d", f.repeats.upper)
		}
		return fmt.Sprintf(" loop%d {%d,%s} exit=L%04x", f.loopID, f.repeats.lower, upper, f.exitLabel)
	case instRepeatLoop, instRepeatLoopIfChar, instRepeatLoopIfSet, instRepeatLoopFixed,
		instRepeatLoopFixedGroupLastIteration, instRepeatGreedyLoopNoBacktrack:
		return fmt.Sprintf(" L%04x", readU32(insts, body))
	case instLoopSet:
		return fmt.Sprintf(" set#%d loop%d", readU32(insts, body), readI32(insts, body+szSetIdx))
	case instLoopSetWithFollowFirst:
		ff := readChar(insts, body+szSetIdx+szI32+szCount+szBool)
		return fmt.Sprintf(" set#%d loop%d followFirst=%#x", readU32(insts, body), readI32(insts, body+szSetIdx), ff)
	case instTry:
		return fmt.Sprintf(" fail=L%04x", readU32(insts, body))
	case instTryIfChar, instTryMatchChar:
		return fmt.Sprintf(" %q fail=L%04x", rune(readChar(insts, body)), readU32(insts, body+szChar))
	case instTryIfSet, instTryMatchSet:
		return fmt.Sprintf(" set#%d fail=L%04x", readU32(insts, body), readU32(insts, body+szSetIdx))
	case instBeginAssertion:
		return fmt.Sprintf(" neg=%v next=L%04x", readBool(insts, body), readU32(insts, body+szBool+2*szI32))
	default:
		return ""
	}
}
