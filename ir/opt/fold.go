package opt

import (
	"math/bits"

	"github.com/fcxlang/fcxc/ir"
)

// constVal is a compile-time value tagged either plain 64-bit integer or
// multi-limb big integer, the per-function mapping constant folding
// maintains from VReg id to compile-time value.
type constVal struct {
	big    bool
	scalar int64
	bigint ir.BigInt
	typ    ir.Type
}

// FoldConstants runs one pass of constant folding over fn, rewriting
// every binary/unary instruction whose inputs are all mapped constants
// into CONST/CONST_BIGINT in place. It returns whether any instruction
// changed, so the fixed-point driver can detect convergence.
func FoldConstants(fn *ir.Function) bool {
	vals := make(map[ir.VReg]constVal)
	changed := false

	for _, blk := range fn.Blocks() {
		for cur := blk.Root(); cur != nil; cur = cur.Next() {
			switch cur.Opcode {
			case ir.OpConst:
				vals[cur.Dest] = constVal{scalar: cur.Imm, typ: cur.Typ}
				continue
			case ir.OpConstBigInt:
				vals[cur.Dest] = constVal{big: true, bigint: cur.BigImm, typ: cur.Typ}
				continue
			}

			if cur.Opcode.IsBinary() {
				if foldBinary(cur, vals) {
					changed = true
				}
				continue
			}
			if cur.Opcode == ir.OpNeg || cur.Opcode == ir.OpNot {
				if foldUnary(cur, vals) {
					changed = true
				}
			}
		}
	}
	return changed
}

func foldUnary(instr *ir.Instruction, vals map[ir.VReg]constVal) bool {
	src, ok := vals[instr.Args[0]]
	if !ok || src.big {
		return false
	}
	var result int64
	switch instr.Opcode {
	case ir.OpNeg:
		result = -src.scalar
	case ir.OpNot:
		result = ^src.scalar
	default:
		return false
	}
	instr.ReplaceWithConst(result, instr.Typ)
	vals[instr.Dest] = constVal{scalar: result, typ: instr.Typ}
	return true
}

func foldBinary(instr *ir.Instruction, vals map[ir.VReg]constVal) bool {
	lhs, lok := vals[instr.Args[0]]
	rhs, rok := vals[instr.Args[1]]
	if !lok || !rok {
		return false
	}

	if lhs.big || rhs.big {
		return foldBigBinary(instr, lhs, rhs, vals)
	}

	x, y := lhs.scalar, rhs.scalar
	unsigned := !instr.Typ.IsSigned()
	var result int64
	switch instr.Opcode {
	case ir.OpAdd:
		result = x + y
	case ir.OpSub:
		result = x - y
	case ir.OpMul:
		result = x * y
	case ir.OpDiv:
		if y == 0 {
			return false // division by zero is never folded.
		}
		if unsigned {
			result = int64(uint64(x) / uint64(y))
		} else {
			if x == minInt64 && y == -1 {
				return false // would overflow.
			}
			result = x / y
		}
	case ir.OpMod:
		if y == 0 {
			return false
		}
		if unsigned {
			result = int64(uint64(x) % uint64(y))
		} else {
			if x == minInt64 && y == -1 {
				return false
			}
			result = x % y
		}
	case ir.OpAnd:
		result = x & y
	case ir.OpOr:
		result = x | y
	case ir.OpXor:
		result = x ^ y
	case ir.OpShl:
		if y < 0 || y >= 64 {
			return false // shift amount must be in [0,64).
		}
		result = x << uint(y)
	case ir.OpLshr:
		if y < 0 || y >= 64 {
			return false
		}
		result = int64(uint64(x) >> uint(y))
	case ir.OpAshr:
		if y < 0 || y >= 64 {
			return false
		}
		result = x >> uint(y) // Go's >> on signed ints sign-extends.
	case ir.OpRotl:
		result = int64(bits.RotateLeft64(uint64(x), int(y&63)))
	case ir.OpRotr:
		result = int64(bits.RotateLeft64(uint64(x), -int(y&63)))
	case ir.OpCmpEq:
		result = boolInt(x == y)
	case ir.OpCmpNe:
		result = boolInt(x != y)
	case ir.OpCmpLt:
		result = boolInt(x < y)
	case ir.OpCmpLe:
		result = boolInt(x <= y)
	case ir.OpCmpGt:
		result = boolInt(x > y)
	case ir.OpCmpGe:
		result = boolInt(x >= y)
	case ir.OpCmpUlt:
		result = boolInt(uint64(x) < uint64(y))
	case ir.OpCmpUle:
		result = boolInt(uint64(x) <= uint64(y))
	case ir.OpCmpUgt:
		result = boolInt(uint64(x) > uint64(y))
	case ir.OpCmpUge:
		result = boolInt(uint64(x) >= uint64(y))
	default:
		return false
	}

	resultType := instr.Typ
	if instr.Opcode.IsCompare() {
		resultType = ir.TypeBool
	}
	instr.ReplaceWithConst(result, resultType)
	vals[instr.Dest] = constVal{scalar: result, typ: resultType}
	return true
}

// foldBigBinary handles CONST_BIGINT-fed add/sub only: implemented with
// standard limb-wise carry/borrow, overflow past the 16-limb bound
// leaves the instruction unfolded rather than silently truncated.
func foldBigBinary(instr *ir.Instruction, lhs, rhs constVal, vals map[ir.VReg]constVal) bool {
	a, b := widenToBig(lhs), widenToBig(rhs)
	var (
		res ir.BigInt
		ok  bool
	)
	switch instr.Opcode {
	case ir.OpAdd:
		res, ok = ir.AddBigInt(a, b)
	case ir.OpSub:
		res, ok = ir.SubBigInt(a, b)
	default:
		return false
	}
	if !ok {
		return false
	}
	instr.ReplaceWithConstBigInt(res, instr.Typ)
	vals[instr.Dest] = constVal{big: true, bigint: res, typ: instr.Typ}
	return true
}

func widenToBig(v constVal) ir.BigInt {
	if v.big {
		return v.bigint
	}
	return ir.BigIntFromUint64(uint64(v.scalar))
}

func boolInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

const minInt64 = -1 << 63
