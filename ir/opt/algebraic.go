package opt

import "github.com/fcxlang/fcxc/ir"

// SimplifyAlgebraic runs one pass of algebraic simplification over fn
// identity rewrites to MOV, annihilators to CONST 0, self-op
// rewrites, and double negation/complement collapsing via a linear
// back-scan of each block. Returns whether anything changed.
func SimplifyAlgebraic(fn *ir.Function) bool {
	changed := false
	consts := make(map[ir.VReg]int64)
	producer := make(map[ir.VReg]*ir.Instruction)

	for _, blk := range fn.Blocks() {
		for cur := blk.Root(); cur != nil; cur = cur.Next() {
			if cur.Opcode == ir.OpConst {
				consts[cur.Dest] = cur.Imm
			}
			if cur.Dest.Valid() {
				producer[cur.Dest] = cur
			}

			if simplifyOne(cur, consts, producer) {
				changed = true
			}
		}
	}
	return changed
}

func simplifyOne(instr *ir.Instruction, consts map[ir.VReg]int64, producer map[ir.VReg]*ir.Instruction) bool {
	switch instr.Opcode {
	case ir.OpAdd, ir.OpOr, ir.OpXor:
		return simplifyIdentityOrSelf(instr, consts, 0)
	case ir.OpMul:
		return simplifyMul(instr, consts)
	case ir.OpAnd:
		return simplifyAnd(instr, consts)
	case ir.OpDiv:
		if rhs, ok := consts[instr.Args[1]]; ok && rhs == 1 {
			instr.ReplaceWithMov(instr.Args[0], instr.Typ)
			return true
		}
		return false
	case ir.OpSub:
		if instr.Args[0] == instr.Args[1] {
			instr.ReplaceWithConst(0, instr.Typ)
			return true
		}
		if rhs, ok := consts[instr.Args[1]]; ok && rhs == 0 {
			instr.ReplaceWithMov(instr.Args[0], instr.Typ)
			return true
		}
		return false
	case ir.OpNeg:
		return collapseDoubleUnary(instr, producer, ir.OpNeg)
	case ir.OpNot:
		return collapseDoubleUnary(instr, producer, ir.OpNot)
	default:
		return false
	}
}

// simplifyIdentityOrSelf handles ADD/OR/XOR: x+0/x|0/x^0 -> MOV; x^x -> 0;
// x|x -> MOV.
func simplifyIdentityOrSelf(instr *ir.Instruction, consts map[ir.VReg]int64, identity int64) bool {
	lhs, rhs := instr.Args[0], instr.Args[1]
	if lhs == rhs {
		switch instr.Opcode {
		case ir.OpXor:
			instr.ReplaceWithConst(0, instr.Typ)
			return true
		case ir.OpOr:
			instr.ReplaceWithMov(lhs, instr.Typ)
			return true
		}
	}
	if v, ok := consts[rhs]; ok && v == identity {
		instr.ReplaceWithMov(lhs, instr.Typ)
		return true
	}
	if v, ok := consts[lhs]; ok && v == identity {
		instr.ReplaceWithMov(rhs, instr.Typ)
		return true
	}
	return false
}

func simplifyMul(instr *ir.Instruction, consts map[ir.VReg]int64) bool {
	lhs, rhs := instr.Args[0], instr.Args[1]
	if v, ok := consts[rhs]; ok {
		if v == 0 {
			instr.ReplaceWithConst(0, instr.Typ)
			return true
		}
		if v == 1 {
			instr.ReplaceWithMov(lhs, instr.Typ)
			return true
		}
	}
	if v, ok := consts[lhs]; ok {
		if v == 0 {
			instr.ReplaceWithConst(0, instr.Typ)
			return true
		}
		if v == 1 {
			instr.ReplaceWithMov(rhs, instr.Typ)
			return true
		}
	}
	return false
}

func simplifyAnd(instr *ir.Instruction, consts map[ir.VReg]int64) bool {
	lhs, rhs := instr.Args[0], instr.Args[1]
	if lhs == rhs {
		instr.ReplaceWithMov(lhs, instr.Typ)
		return true
	}
	if v, ok := consts[rhs]; ok {
		if v == 0 {
			instr.ReplaceWithConst(0, instr.Typ)
			return true
		}
		if v == -1 {
			instr.ReplaceWithMov(lhs, instr.Typ)
			return true
		}
	}
	if v, ok := consts[lhs]; ok {
		if v == 0 {
			instr.ReplaceWithConst(0, instr.Typ)
			return true
		}
		if v == -1 {
			instr.ReplaceWithMov(rhs, instr.Typ)
			return true
		}
	}
	return false
}

// collapseDoubleUnary rewrites NEG(NEG(x)) or NOT(NOT(x)) to MOV x by
// looking back at the producer of instr's source operand.
func collapseDoubleUnary(instr *ir.Instruction, producer map[ir.VReg]*ir.Instruction, op ir.Opcode) bool {
	src := instr.Args[0]
	prod, ok := producer[src]
	if !ok || prod.Opcode != op {
		return false
	}
	instr.ReplaceWithMov(prod.Args[0], instr.Typ)
	return true
}
