package ir

// Opcode identifies an IR instruction.
type Opcode uint16

const (
	// OpcodeInvalid is a placeholder for an uninitialized instruction.
	OpcodeInvalid Opcode = iota

	// OpcodeFunctionEntry is the head sentinel of every instruction list.
	OpcodeFunctionEntry

	// OpcodeFunctionExit is the tail sentinel of every instruction list.
	OpcodeFunctionExit

	// OpcodeLabel is a branch target. Labels are inserted after decoding,
	// when branch relocs are resolved.
	OpcodeLabel

	// OpcodeStatementBoundary is a pragma marking a source-statement
	// boundary. The statement index is held in the instr's StatementIndex
	// field; the pragma has no sources.
	OpcodeStatementBoundary

	// OpcodeNop does nothing.
	OpcodeNop

	// OpcodeLd_A copies a var: `dst = Ld_A src`.
	OpcodeLd_A

	// OpcodeLd_I4 loads an int constant into a machine register.
	OpcodeLd_I4

	// OpcodeLdC_A_I4 loads a tagged int constant.
	OpcodeLdC_A_I4

	// OpcodeLdC_A_R8 loads a tagged double constant.
	OpcodeLdC_A_R8

	// OpcodeLdAddr loads an address constant (constant-table entries lower
	// to this; null, undefined, true and false lower to Ld_A of an address
	// operand instead).
	OpcodeLdAddr

	// OpcodeLdThis loads the this binding.
	OpcodeLdThis

	// Arithmetic over tagged values.

	OpcodeAdd_A
	OpcodeSub_A
	OpcodeMul_A
	OpcodeDiv_A
	OpcodeRem_A
	OpcodeAnd_A
	OpcodeOr_A
	OpcodeXor_A
	OpcodeShl_A
	OpcodeShr_A
	OpcodeNeg_A
	OpcodeNot_A
	OpcodeIncr_A
	OpcodeDecr_A

	// Comparisons over tagged values.

	OpcodeCmEq_A
	OpcodeCmNeq_A
	OpcodeCmLt_A
	OpcodeCmLe_A
	OpcodeCmGt_A
	OpcodeCmGe_A

	OpcodeTypeof
	OpcodeIsInst

	// OpcodeSub_I4 is machine-level integer subtraction, used by the
	// generator prologue to compute the resume offset.
	OpcodeSub_I4

	// Property and element access. Field operands carry a PropertySym.

	OpcodeLdFld
	OpcodeStFld
	OpcodeLdRootFld
	OpcodeStRootFld
	OpcodeLdElemI_A
	OpcodeStElemI_A
	OpcodeLdSlot
	OpcodeLdSlotArr
	OpcodeStSlot
	OpcodeStSlotBoxTemp
	OpcodeNewScObjectSimple

	// Environment and closure materialization.

	OpcodeLdEnv
	OpcodeLdHandlerScope
	OpcodeNewScopeObject
	OpcodeNewScopeSlots
	OpcodeNewStackScopeSlots
	OpcodeNewPseudoScope
	OpcodeLdFrameDisplay
	OpcodeNewStackFrameDisplay
	OpcodeInitLocalClosure
	OpcodeInitCachedScope

	// OpcodeFrameDisplayCheck validates a [scope index, slot index] pair
	// against the frame display loaded by its src1 sym.
	OpcodeFrameDisplayCheck

	// OpcodeByteCodeUses keeps syms alive across a region for bailout
	// without emitting real uses.
	OpcodeByteCodeUses

	// Calls. ArgOut/StartCall chain into the call via src2 links.

	OpcodeArgIn_A
	OpcodeArgInRest
	OpcodeArgOut_A
	OpcodeStartCall
	OpcodeCallI
	OpcodeNewScObject
	OpcodeCallHelper

	// Control flow.

	OpcodeBr
	OpcodeBrTrue_A
	OpcodeBrFalse_A
	OpcodeBrEq_A
	OpcodeBrNeq_A
	OpcodeBrGe_A
	OpcodeBrGt_A
	OpcodeBrLt_A
	OpcodeBrLe_A
	OpcodeBrNotAddr_A
	OpcodeMultiBr
	OpcodeRet
	OpcodeThrow

	// Try handling.

	OpcodeTryCatch
	OpcodeTryFinally
	OpcodeLeave
	OpcodeLeaveNull
	OpcodeCatch
	OpcodeFinally

	// Coroutines.

	// OpcodeYield suspends the coroutine; converted to a bailout point with
	// BailOutForGeneratorYield when built.
	OpcodeYield
	// OpcodeGeneratorResumeJumpTable lowers to a computed jump into the
	// per-yield resume labels. Its src1 is the saved bytecode offset.
	OpcodeGeneratorResumeJumpTable
	// OpcodeGeneratorResumeYield decodes the value the interpreter passed
	// back into the resumed frame.
	OpcodeGeneratorResumeYield
	// OpcodeGeneratorCreateInterpreterStackFrame calls the helper that
	// materializes the interpreter frame for a freshly started generator.
	OpcodeGeneratorCreateInterpreterStackFrame
	// OpcodeGeneratorBailInLabel is the labeled bail-in slot for one yield,
	// registered in the Func's resume-offset map.
	OpcodeGeneratorBailInLabel

	// Loop-body (OSR) bookkeeping.

	OpcodeInitLoopBodyCount
	OpcodeIncrLoopBodyCount
	OpcodeStLoopBodyCount

	// Bailouts.

	// OpcodeBailOnNoProfile bails to the interpreter when reached, used to
	// fence call trees that have no profile data.
	OpcodeBailOnNoProfile
	// OpcodeBailOnEqual bails when src1 == src2; used for bailout injection.
	OpcodeBailOnEqual
	// OpcodeBailForDebugger is an unconditional debugger bailout.
	OpcodeBailForDebugger

	opcodeEnd
)

var opcodeNames = map[Opcode]string{
	OpcodeFunctionEntry:            "FunctionEntry",
	OpcodeFunctionExit:             "FunctionExit",
	OpcodeLabel:                    "Label",
	OpcodeStatementBoundary:        "StatementBoundary",
	OpcodeNop:                      "Nop",
	OpcodeLd_A:                     "Ld_A",
	OpcodeLd_I4:                    "Ld_I4",
	OpcodeLdC_A_I4:                 "LdC_A_I4",
	OpcodeLdC_A_R8:                 "LdC_A_R8",
	OpcodeLdAddr:                   "LdAddr",
	OpcodeLdThis:                   "LdThis",
	OpcodeAdd_A:                    "Add_A",
	OpcodeSub_A:                    "Sub_A",
	OpcodeMul_A:                    "Mul_A",
	OpcodeDiv_A:                    "Div_A",
	OpcodeRem_A:                    "Rem_A",
	OpcodeAnd_A:                    "And_A",
	OpcodeOr_A:                     "Or_A",
	OpcodeXor_A:                    "Xor_A",
	OpcodeShl_A:                    "Shl_A",
	OpcodeShr_A:                    "Shr_A",
	OpcodeNeg_A:                    "Neg_A",
	OpcodeNot_A:                    "Not_A",
	OpcodeIncr_A:                   "Incr_A",
	OpcodeDecr_A:                   "Decr_A",
	OpcodeCmEq_A:                   "CmEq_A",
	OpcodeCmNeq_A:                  "CmNeq_A",
	OpcodeCmLt_A:                   "CmLt_A",
	OpcodeCmLe_A:                   "CmLe_A",
	OpcodeCmGt_A:                   "CmGt_A",
	OpcodeCmGe_A:                   "CmGe_A",
	OpcodeTypeof:                   "Typeof",
	OpcodeIsInst:                   "IsInst",
	OpcodeSub_I4:                   "Sub_I4",
	OpcodeLdFld:                    "LdFld",
	OpcodeStFld:                    "StFld",
	OpcodeLdRootFld:                "LdRootFld",
	OpcodeStRootFld:                "StRootFld",
	OpcodeLdElemI_A:                "LdElemI_A",
	OpcodeStElemI_A:                "StElemI_A",
	OpcodeLdSlot:                   "LdSlot",
	OpcodeLdSlotArr:                "LdSlotArr",
	OpcodeStSlot:                   "StSlot",
	OpcodeStSlotBoxTemp:            "StSlotBoxTemp",
	OpcodeNewScObjectSimple:        "NewScObjectSimple",
	OpcodeLdEnv:                    "LdEnv",
	OpcodeLdHandlerScope:           "LdHandlerScope",
	OpcodeNewScopeObject:           "NewScopeObject",
	OpcodeNewScopeSlots:            "NewScopeSlots",
	OpcodeNewStackScopeSlots:       "NewStackScopeSlots",
	OpcodeNewPseudoScope:           "NewPseudoScope",
	OpcodeLdFrameDisplay:           "LdFrameDisplay",
	OpcodeNewStackFrameDisplay:     "NewStackFrameDisplay",
	OpcodeInitLocalClosure:         "InitLocalClosure",
	OpcodeInitCachedScope:          "InitCachedScope",
	OpcodeFrameDisplayCheck:        "FrameDisplayCheck",
	OpcodeByteCodeUses:             "ByteCodeUses",
	OpcodeArgIn_A:                  "ArgIn_A",
	OpcodeArgInRest:                "ArgInRest",
	OpcodeArgOut_A:                 "ArgOut_A",
	OpcodeStartCall:                "StartCall",
	OpcodeCallI:                    "CallI",
	OpcodeNewScObject:              "NewScObject",
	OpcodeCallHelper:               "CallHelper",
	OpcodeBr:                       "Br",
	OpcodeBrTrue_A:                 "BrTrue_A",
	OpcodeBrFalse_A:                "BrFalse_A",
	OpcodeBrEq_A:                   "BrEq_A",
	OpcodeBrNeq_A:                  "BrNeq_A",
	OpcodeBrGe_A:                   "BrGe_A",
	OpcodeBrGt_A:                   "BrGt_A",
	OpcodeBrLt_A:                   "BrLt_A",
	OpcodeBrLe_A:                   "BrLe_A",
	OpcodeBrNotAddr_A:              "BrNotAddr_A",
	OpcodeMultiBr:                  "MultiBr",
	OpcodeRet:                      "Ret",
	OpcodeThrow:                    "Throw",
	OpcodeTryCatch:                 "TryCatch",
	OpcodeTryFinally:               "TryFinally",
	OpcodeLeave:                    "Leave",
	OpcodeLeaveNull:                "LeaveNull",
	OpcodeCatch:                    "Catch",
	OpcodeFinally:                  "Finally",
	OpcodeYield:                    "Yield",
	OpcodeGeneratorResumeJumpTable: "GeneratorResumeJumpTable",
	OpcodeGeneratorResumeYield:     "GeneratorResumeYield",
	OpcodeGeneratorCreateInterpreterStackFrame: "GeneratorCreateInterpreterStackFrame",
	OpcodeGeneratorBailInLabel:                 "GeneratorBailInLabel",
	OpcodeInitLoopBodyCount:                    "InitLoopBodyCount",
	OpcodeIncrLoopBodyCount:                    "IncrLoopBodyCount",
	OpcodeStLoopBodyCount:                      "StLoopBodyCount",
	OpcodeBailOnNoProfile:                      "BailOnNoProfile",
	OpcodeBailOnEqual:                          "BailOnEqual",
	OpcodeBailForDebugger:                      "BailForDebugger",
}

// String implements fmt.Stringer.
func (o Opcode) String() string {
	if s, ok := opcodeNames[o]; ok {
		return s
	}
	return "Invalid"
}

// TempObjectProducing reports whether the opcode can produce an object that
// may be stack allocated. The Func records whether any such instruction was
// emitted so the optimizer can skip the relevant passes wholesale.
func (o Opcode) TempObjectProducing() bool {
	switch o {
	case OpcodeNewScopeObject, OpcodeNewScopeSlots, OpcodeNewStackScopeSlots,
		OpcodeNewPseudoScope, OpcodeNewScObject, OpcodeNewScObjectSimple:
		return true
	default:
		return false
	}
}

// IsBranch reports whether the opcode is a branching opcode.
func (o Opcode) IsBranch() bool {
	switch o {
	case OpcodeBr, OpcodeBrTrue_A, OpcodeBrFalse_A, OpcodeBrEq_A, OpcodeBrNeq_A,
		OpcodeBrGe_A, OpcodeBrGt_A, OpcodeBrLt_A, OpcodeBrLe_A, OpcodeBrNotAddr_A,
		OpcodeMultiBr, OpcodeTryCatch, OpcodeTryFinally, OpcodeLeave, OpcodeLeaveNull:
		return true
	default:
		return false
	}
}
