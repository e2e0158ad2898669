package opt

import "github.com/fcxlang/fcxc/ir"

// StrengthReduce runs one pass of strength reduction over fn: multiply,
// unsigned divide, and unsigned modulo by a power of two become shift
// and mask operations. The rewrite overwrites both the instruction's
// opcode and the CONST instruction feeding its operand in place, so a
// later dead-code pass needs no extra work to reap the original
// multiply/divide: there is nothing left to reap, the same two
// instructions now compute the reduced form directly.
func StrengthReduce(fn *ir.Function) bool {
	producer := make(map[ir.VReg]*ir.Instruction)
	changed := false

	for _, blk := range fn.Blocks() {
		for cur := blk.Root(); cur != nil; cur = cur.Next() {
			if reduceOne(cur, producer) {
				changed = true
			}
			if cur.Dest.Valid() {
				producer[cur.Dest] = cur
			}
		}
	}
	return changed
}

func reduceOne(instr *ir.Instruction, producer map[ir.VReg]*ir.Instruction) bool {
	switch instr.Opcode {
	case ir.OpMul:
		return reducePowerOfTwo(instr, producer, ir.OpShl)
	case ir.OpDiv:
		if instr.Typ.IsSigned() {
			return false
		}
		return reducePowerOfTwo(instr, producer, ir.OpLshr)
	case ir.OpMod:
		if instr.Typ.IsSigned() {
			return false
		}
		return reduceModPowerOfTwo(instr, producer)
	default:
		return false
	}
}

// reducePowerOfTwo rewrites instr from MUL/DIV by a power-of-two constant
// n into SHL/LSHR, and rewrites the CONST n itself into CONST log2(n).
func reducePowerOfTwo(instr *ir.Instruction, producer map[ir.VReg]*ir.Instruction, shiftOp ir.Opcode) bool {
	if constInstr, shift, ok := powerOfTwoConst(producer, instr.Args[1]); ok {
		instr.Opcode = shiftOp
		constInstr.Imm = shift
		return true
	}
	if instr.Opcode == ir.OpMul {
		if constInstr, shift, ok := powerOfTwoConst(producer, instr.Args[0]); ok {
			instr.Opcode = shiftOp
			instr.Args[0], instr.Args[1] = instr.Args[1], instr.Args[0]
			constInstr.Imm = shift
			return true
		}
	}
	return false
}

// reduceModPowerOfTwo rewrites unsigned MOD by a power-of-two constant n
// into AND, rewriting the CONST n itself into CONST (n-1).
func reduceModPowerOfTwo(instr *ir.Instruction, producer map[ir.VReg]*ir.Instruction) bool {
	constInstr, ok := producer[instr.Args[1]]
	if !ok || constInstr.Opcode != ir.OpConst || constInstr.Imm <= 0 || !isPowerOfTwo(constInstr.Imm) {
		return false
	}
	instr.Opcode = ir.OpAnd
	constInstr.Imm--
	return true
}

func powerOfTwoConst(producer map[ir.VReg]*ir.Instruction, reg ir.VReg) (constInstr *ir.Instruction, shift int64, ok bool) {
	ci, found := producer[reg]
	if !found || ci.Opcode != ir.OpConst || ci.Imm <= 0 || !isPowerOfTwo(ci.Imm) {
		return nil, 0, false
	}
	n := uint64(ci.Imm)
	s := int64(0)
	for n > 1 {
		n >>= 1
		s++
	}
	return ci, s, true
}

func isPowerOfTwo(v int64) bool {
	return v > 0 && v&(v-1) == 0
}
