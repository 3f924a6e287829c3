package irbuilder

import "github.com/chakra-core/ChakraCore-sub024/internal/ir"

// doBailOnNoProfile reports whether BailOnNoProfile fences may be inserted
// for this compilation.
func (b *IRBuilder) doBailOnNoProfile() bool {
	jitTime := b.body.JITTime
	if jitTime == nil || jitTime.ProfiledIterations == 0 {
		// Never profiled: some switch forced jitting. Generate code in
		// unprofiled paths rather than fencing everything.
		return false
	}
	if !b.body.HasProfileInfo() {
		return false
	}
	if b.body.Profile.NoProfileBailoutsDisabled {
		return false
	}
	if b.body.IsCoroutineBody {
		return false
	}
	return true
}

// insertBailOnNoProfile fences the outermost call of the current call tree,
// but only when no call in the tree has profile data yet and only at the
// first StartCall.
func (b *IRBuilder) insertBailOnNoProfile(offset uint32) {
	ir.AssertOrFailFast(b.doBailOnNoProfile(), "BailOnNoProfile insertion when disabled")

	if b.callTreeHasSomeProfileInfo {
		return
	}

	var startCall *ir.Instr
	count := 0
	for _, argInstr := range b.argStack {
		if argInstr.Opc == ir.OpcodeStartCall {
			startCall = argInstr
			count++
			if count > 1 {
				return
			}
		}
	}
	ir.AssertOrFailFast(startCall != nil, "no StartCall on arg stack")

	if startCall.Prev().Opc != ir.OpcodeBailOnNoProfile {
		b.insertBailOnNoProfileBefore(startCall)
	}
}

func (b *IRBuilder) insertBailOnNoProfileBefore(insertBeforeInstr *ir.Instr) {
	bailInstr := b.fn.NewInstr(ir.OpcodeBailOnNoProfile, nil, nil, nil)
	b.insertInstr(bailInstr, insertBeforeInstr)
}
