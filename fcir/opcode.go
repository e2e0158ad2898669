package fcir

// Opcode is an x86-64-shaped instruction mnemonic. FC IR is the target of
// lowering from FCx IR: it is intentionally close to the machine, using
// two-operand destructive forms (dest doubles as a source) the way real
// x86 encodings do, rather than the three-operand SSA shape of FCx IR.
type Opcode uint16

const (
	OpInvalid Opcode = iota
	OpMov
	OpAdd
	OpSub
	OpIMul
	OpIDiv
	OpAnd
	OpOr
	OpXor
	OpNeg
	OpNot
	OpCmp
	OpJmp
	OpJcc
	OpCall
	OpRet
	OpPush
	OpPop
	OpSyscall
	OpXchg
	OpCmpxchg
	OpMfence
	OpLfence
	OpSfence
	OpPrefetchT0
	OpPrefetchW
	OpInlineAsm
)

var opcodeNames = [...]string{
	OpInvalid:    "invalid",
	OpMov:        "mov",
	OpAdd:        "add",
	OpSub:        "sub",
	OpIMul:       "imul",
	OpIDiv:       "idiv",
	OpAnd:        "and",
	OpOr:         "or",
	OpXor:        "xor",
	OpNeg:        "neg",
	OpNot:        "not",
	OpCmp:        "cmp",
	OpJmp:        "jmp",
	OpJcc:        "jcc",
	OpCall:       "call",
	OpRet:        "ret",
	OpPush:       "push",
	OpPop:        "pop",
	OpSyscall:    "syscall",
	OpXchg:       "xchg",
	OpCmpxchg:    "cmpxchg",
	OpMfence:     "mfence",
	OpLfence:     "lfence",
	OpSfence:     "sfence",
	OpPrefetchT0: "prefetcht0",
	OpPrefetchW:  "prefetchw",
	OpInlineAsm:  "inline_asm",
}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) && opcodeNames[o] != "" {
		return opcodeNames[o]
	}
	return "unknown"
}

// CondCode is an x86 condition code, numbered to match the order FCx IR's
// CMP_* opcodes declare signed-then-unsigned comparisons. The numbering is
// load-bearing: it is what the comparison-result sentinel encodes.
type CondCode int32

const (
	CondEq CondCode = iota
	CondNe
	CondLt
	CondLe
	CondGt
	CondGe
	CondUlt
	CondUle
	CondUgt
	CondUge
)

var condCodeNames = [...]string{
	CondEq: "e", CondNe: "ne", CondLt: "l", CondLe: "le",
	CondGt: "g", CondGe: "ge", CondUlt: "b", CondUle: "be",
	CondUgt: "a", CondUge: "ae",
}

func (c CondCode) String() string {
	if int(c) >= 0 && int(c) < len(condCodeNames) {
		return condCodeNames[c]
	}
	return "unknown"
}

// SentinelBase is the magnitude offset the comparison-result sentinel
// encoding adds to a condition code before negating it.
const SentinelBase = 1000

// Sentinel returns the negative immediate that stands in for "this value
// is not a real constant, it names condition code cc from the
// immediately preceding CMP."
func Sentinel(cc CondCode) int64 {
	return -(int64(cc) + SentinelBase)
}

// IsSentinel reports whether imm was produced by Sentinel, and if so the
// condition code it encodes.
func IsSentinel(imm int64) (cc CondCode, ok bool) {
	if imm > -SentinelBase {
		return 0, false
	}
	return CondCode(-imm - SentinelBase), true
}

// ConditionFromCompareIndex maps an FCx comparison opcode ordinal (CmpEq
// through CmpUge, in declaration order) to the CondCode sharing that
// ordinal. Lowering relies on the two enumerations staying aligned.
func ConditionFromCompareIndex(i int) CondCode { return CondCode(i) }
