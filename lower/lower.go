package lower

import (
	"strings"

	"github.com/fcxlang/fcxc/diag"
	"github.com/fcxlang/fcxc/fcir"
	"github.com/fcxlang/fcxc/ir"
)

// compareConditions maps each FCx CMP_* opcode to the CondCode sharing
// its position in the enumeration; the two lists are declared in the
// same order for exactly this reason.
var compareConditions = map[ir.Opcode]fcir.CondCode{
	ir.OpCmpEq:  fcir.CondEq,
	ir.OpCmpNe:  fcir.CondNe,
	ir.OpCmpLt:  fcir.CondLt,
	ir.OpCmpLe:  fcir.CondLe,
	ir.OpCmpGt:  fcir.CondGt,
	ir.OpCmpGe:  fcir.CondGe,
	ir.OpCmpUlt: fcir.CondUlt,
	ir.OpCmpUle: fcir.CondUle,
	ir.OpCmpUgt: fcir.CondUgt,
	ir.OpCmpUge: fcir.CondUge,
}

// binaryFCOp maps an FCx two-operand arithmetic/bitwise opcode to its FC
// two-operand destructive counterpart.
var binaryFCOp = map[ir.Opcode]fcir.Opcode{
	ir.OpAdd: fcir.OpAdd,
	ir.OpSub: fcir.OpSub,
	ir.OpMul: fcir.OpIMul,
	ir.OpAnd: fcir.OpAnd,
	ir.OpOr:  fcir.OpOr,
	ir.OpXor: fcir.OpXor,
}

// isExternalABI reports whether a callee name takes the external ABI
// path: the System V argument registers are loaded the same way, but the
// backend must not assume the callee participates in this module's
// internal calling conventions (stack frame layout, register
// preservation beyond the standard ABI).
func isExternalABI(name string) bool {
	return strings.HasPrefix(name, "_fcx_") || strings.HasPrefix(name, "_external_")
}

// LowerFunction translates one FCx IR function into FC IR. Diagnostics
// (invalid pointer type for arithmetic, more than six call or syscall
// arguments, or an opcode with no lowering) are appended to diags; the returned function is always usable even when a
// diagnostic was recorded, since lowering never aborts early.
func LowerFunction(irFn *ir.Function, fcMod *fcir.Module, diags *diag.List) *fcir.Function {
	c := NewContext(irFn, fcMod, diags)
	for _, blk := range irFn.Blocks() {
		c.setBlock(blk.ID())
		for instr := blk.Root(); instr != nil; instr = instr.Next() {
			c.lowerInstruction(instr)
		}
	}
	return c.fcFn
}

func (c *Context) lowerInstruction(instr *ir.Instruction) {
	switch {
	case instr.Opcode == ir.OpConst:
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.ImmOperand(instr.Imm)})
		return
	case instr.Opcode == ir.OpConstBigInt:
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.BigImmOperand(instr.BigImm)})
		return
	case instr.Opcode == ir.OpLoad:
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.MemOperand(instr.Base, indexOf(instr), instr.Offset, scaleOf(instr))})
		return
	case instr.Opcode == ir.OpStore:
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.MemOperand(instr.Base, indexOf(instr), instr.Offset, scaleOf(instr)), Src: fcir.VRegOperand(instr.Args[0])})
		return
	case instr.Opcode == ir.OpMov:
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(instr.Args[0])})
		return
	}

	if fcOp, ok := binaryFCOp[instr.Opcode]; ok {
		c.lowerTwoOperand(instr, fcOp)
		return
	}
	if cc, ok := compareConditions[instr.Opcode]; ok {
		c.lowerCompare(instr, cc)
		return
	}

	switch instr.Opcode {
	case ir.OpDiv, ir.OpMod:
		// IDIV; MOD borrows the same opcode, remainder convention
		// delegated to the backend.
		c.emit(&fcir.Instruction{Opcode: fcir.OpIDiv, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(instr.Args[1])})
	case ir.OpNeg, ir.OpNot:
		fcOp := fcir.OpNeg
		if instr.Opcode == ir.OpNot {
			fcOp = fcir.OpNot
		}
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(instr.Args[0])})
		c.emit(&fcir.Instruction{Opcode: fcOp, Line: instr.Line, Dest: fcir.VRegOperand(instr.Dest)})
	case ir.OpBranch:
		c.lowerBranch(instr)
	case ir.OpJump:
		c.emit(&fcir.Instruction{Opcode: fcir.OpJmp, Line: instr.Line, Dest: fcir.LabelOperand(instr.TargetTrue)})
	case ir.OpCall:
		c.lowerCall(instr)
	case ir.OpReturn:
		c.lowerReturn(instr)
	case ir.OpPhi:
		// PHI resolution (mutable-slot materialization across predecessor
		// edges) is a backend responsibility; this component only
		// translates single-valued instructions.
	case ir.OpSyscall:
		c.lowerSyscall(instr)
	case ir.OpAtomicLoad:
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.MemOperand(instr.Base, ir.VRegInvalid, instr.Offset, 1)})
	case ir.OpAtomicStore:
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.MemOperand(instr.Base, ir.VRegInvalid, instr.Offset, 1), Src: fcir.VRegOperand(instr.Args[0])})
	case ir.OpAtomicSwap:
		c.emit(&fcir.Instruction{Opcode: fcir.OpXchg, Line: instr.Line, Locked: true,
			Dest: fcir.MemOperand(instr.Base, ir.VRegInvalid, instr.Offset, 1), Src: fcir.VRegOperand(instr.Args[0])})
	case ir.OpAtomicCAS:
		c.lowerAtomicCAS(instr)
	case ir.OpAtomicFetchAdd, ir.OpAtomicFetchSub, ir.OpAtomicFetchAnd, ir.OpAtomicFetchOr, ir.OpAtomicFetchXor:
		c.lowerAtomicFetch(instr)
	case ir.OpFenceFull:
		c.emit(&fcir.Instruction{Opcode: fcir.OpMfence, Line: instr.Line})
	case ir.OpFenceAcquire:
		c.emit(&fcir.Instruction{Opcode: fcir.OpLfence, Line: instr.Line})
	case ir.OpFenceRelease:
		c.emit(&fcir.Instruction{Opcode: fcir.OpSfence, Line: instr.Line})
	case ir.OpAllocHeap:
		c.lowerExternalAlloc(instr, "_fcx_alloc", []ir.VReg{instr.Args[0]})
	case ir.OpAllocArena:
		scopeID := c.scratch(ir.TypeU32)
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line, Dest: fcir.VRegOperand(scopeID), Src: fcir.ImmOperand(int64(instr.ScopeID))})
		c.lowerExternalAlloc(instr, "_fcx_arena_alloc", []ir.VReg{instr.Args[0], scopeID})
	case ir.OpAllocSlab:
		typeHash := c.scratch(ir.TypeU32)
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line, Dest: fcir.VRegOperand(typeHash), Src: fcir.ImmOperand(int64(instr.TypeHash))})
		c.lowerExternalAlloc(instr, "_fcx_slab_alloc", []ir.VReg{instr.Args[0], typeHash})
	case ir.OpAllocStack:
		// Reserved for future RSP-manipulation lowering; for now routed
		// through the same external allocator with forced 16-byte
		// alignment.
		aligned := c.scratch(instr.Typ)
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line, Dest: fcir.VRegOperand(aligned), Src: fcir.ImmOperand(16)})
		c.lowerExternalAlloc(instr, "_fcx_alloc", []ir.VReg{instr.Args[0], aligned})
	case ir.OpDealloc:
		c.lowerExternalCall(instr.Line, "_fcx_free", []ir.VReg{instr.Args[0]}, ir.VRegInvalid)
	case ir.OpSlabFree:
		c.lowerExternalCall(instr.Line, "_fcx_slab_free", []ir.VReg{instr.Args[0]}, ir.VRegInvalid)
	case ir.OpArenaReset:
		scopeID := c.scratch(ir.TypeU32)
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line, Dest: fcir.VRegOperand(scopeID), Src: fcir.ImmOperand(int64(instr.ScopeID))})
		c.lowerExternalCall(instr.Line, "_fcx_arena_reset", []ir.VReg{scopeID}, ir.VRegInvalid)
	case ir.OpPrefetch:
		c.emit(&fcir.Instruction{Opcode: fcir.OpPrefetchT0, Line: instr.Line, Dest: fcir.MemOperand(instr.Base, ir.VRegInvalid, instr.Offset, 1)})
	case ir.OpPrefetchWrite:
		c.emit(&fcir.Instruction{Opcode: fcir.OpPrefetchW, Line: instr.Line, Dest: fcir.MemOperand(instr.Base, ir.VRegInvalid, instr.Offset, 1)})
	case ir.OpMMIORead:
		addr := c.scratch(ir.TypeU64)
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line, Dest: fcir.VRegOperand(addr), Src: fcir.ImmOperand(int64(instr.MMIOAddr))})
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line, Dest: fcir.VRegOperand(instr.Dest), Src: fcir.MemOperand(addr, ir.VRegInvalid, 0, 1)})
	case ir.OpMMIOWrite:
		addr := c.scratch(ir.TypeU64)
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line, Dest: fcir.VRegOperand(addr), Src: fcir.ImmOperand(int64(instr.MMIOAddr))})
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line, Dest: fcir.MemOperand(addr, ir.VRegInvalid, 0, 1), Src: fcir.VRegOperand(instr.Args[0])})
	case ir.OpPtrAdd:
		c.lowerPtrArith(instr, fcir.OpAdd)
	case ir.OpPtrSub:
		c.lowerPtrArith(instr, fcir.OpSub)
	case ir.OpPtrDiff:
		c.lowerTwoOperand(&ir.Instruction{Opcode: ir.OpSub, Dest: instr.Dest, Typ: instr.Typ, Args: instr.Args, Line: instr.Line}, fcir.OpSub)
	case ir.OpPtrCast, ir.OpPtrToInt, ir.OpIntToPtr:
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(instr.Args[0])})
	case ir.OpFieldOffset:
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line, Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(instr.Base)})
		c.emit(&fcir.Instruction{Opcode: fcir.OpAdd, Line: instr.Line, Dest: fcir.VRegOperand(instr.Dest), Src: fcir.ImmOperand(instr.Offset)})
	case ir.OpInlineAsm:
		c.emit(&fcir.Instruction{Opcode: fcir.OpInlineAsm, Line: instr.Line, Asm: instr.Asm})
	case ir.OpLabel:
		// Blocks already carry their own id; LABEL needs no FC emission.
	default:
		c.errorf(instr.Line, "no lowering defined for opcode %s", instr.Opcode)
	}
}

func indexOf(instr *ir.Instruction) ir.VReg {
	if instr.HasIndex {
		return instr.Index
	}
	return ir.VRegInvalid
}

func scaleOf(instr *ir.Instruction) int32 {
	if instr.Scale != 0 {
		return instr.Scale
	}
	return 1
}

// lowerTwoOperand implements the generic "MOV dest, left; OP dest, right"
// shape shared by ADD/SUB/MUL/AND/OR/XOR and the pointer arithmetic ops
// that reduce to them.
func (c *Context) lowerTwoOperand(instr *ir.Instruction, fcOp fcir.Opcode) {
	c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
		Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(instr.Args[0])})
	c.emit(&fcir.Instruction{Opcode: fcOp, Line: instr.Line,
		Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(instr.Args[1])})
}

func (c *Context) lowerCompare(instr *ir.Instruction, cc fcir.CondCode) {
	c.emit(&fcir.Instruction{Opcode: fcir.OpCmp, Line: instr.Line,
		Dest: fcir.VRegOperand(instr.Args[0]), Src: fcir.VRegOperand(instr.Args[1])})
	c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
		Dest: fcir.VRegOperand(instr.Dest), Src: fcir.ImmOperand(fcir.Sentinel(cc))})
}

func (c *Context) lowerBranch(instr *ir.Instruction) {
	c.emit(&fcir.Instruction{Opcode: fcir.OpCmp, Line: instr.Line,
		Dest: fcir.VRegOperand(instr.Args[0]), Src: fcir.ImmOperand(0)})
	c.emit(&fcir.Instruction{Opcode: fcir.OpJcc, Line: instr.Line, CC: fcir.CondNe,
		Dest: fcir.LabelOperand(instr.TargetTrue)})
	c.emit(&fcir.Instruction{Opcode: fcir.OpJmp, Line: instr.Line, Dest: fcir.LabelOperand(instr.TargetFalse)})
}

func (c *Context) lowerCall(instr *ir.Instruction) {
	for i, arg := range instr.CallArgs {
		if i >= len(sysVArgRegs) {
			c.errorf(instr.Line, "call to %s passes more than 6 arguments, spilling is unimplemented", instr.CalleeName)
			break
		}
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(sysVArgRegs[i]), Src: fcir.VRegOperand(arg)})
	}
	call := &fcir.Instruction{Opcode: fcir.OpCall, Line: instr.Line,
		CalleeName: instr.CalleeName, CalleeIndirect: instr.Indirect,
		IsExternalABI: isExternalABI(instr.CalleeName), TailCall: instr.TailCall}
	if instr.Indirect {
		call.Src = fcir.VRegOperand(instr.Args[0])
	}
	c.emit(call)
	if instr.Dest.Valid() {
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(ir.VRegRAX)})
	}
}

func (c *Context) lowerReturn(instr *ir.Instruction) {
	if len(instr.Args) > 0 && instr.Args[0].Valid() {
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(ir.VRegRAX), Src: fcir.VRegOperand(instr.Args[0])})
	}
	c.emit(&fcir.Instruction{Opcode: fcir.OpRet, Line: instr.Line})
}

func (c *Context) lowerSyscall(instr *ir.Instruction) {
	c.emit(&fcir.Instruction{Opcode: fcir.OpPush, Line: instr.Line, Dest: fcir.VRegOperand(ir.VRegRCX)})
	c.emit(&fcir.Instruction{Opcode: fcir.OpPush, Line: instr.Line, Dest: fcir.VRegOperand(ir.VRegR11)})
	if len(instr.SyscallArgs) > len(syscallArgRegs) {
		c.errorf(instr.Line, "syscall passes more than 6 arguments")
	} else {
		// Emitted last argument first so that writing an earlier
		// argument's register can never clobber one already written.
		for i := len(instr.SyscallArgs) - 1; i >= 0; i-- {
			c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
				Dest: fcir.VRegOperand(syscallArgRegs[i]), Src: fcir.VRegOperand(instr.SyscallArgs[i])})
		}
	}
	c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
		Dest: fcir.VRegOperand(ir.VRegRAX), Src: fcir.VRegOperand(instr.SyscallNum)})
	c.emit(&fcir.Instruction{Opcode: fcir.OpSyscall, Line: instr.Line})
	if instr.Dest.Valid() {
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(ir.VRegRAX)})
	}
	c.emit(&fcir.Instruction{Opcode: fcir.OpPop, Line: instr.Line, Dest: fcir.VRegOperand(ir.VRegR11)})
	c.emit(&fcir.Instruction{Opcode: fcir.OpPop, Line: instr.Line, Dest: fcir.VRegOperand(ir.VRegRCX)})
}

func (c *Context) lowerAtomicCAS(instr *ir.Instruction) {
	// Base is the pointer; Args[0] is expected, Args[1] is the desired
	// value. RAX carries the expected value in, the actual prior value
	// out; the caller compares the result against expected to recover a
	// bool if it needs one.
	c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
		Dest: fcir.VRegOperand(ir.VRegRAX), Src: fcir.VRegOperand(instr.Args[0])})
	c.emit(&fcir.Instruction{Opcode: fcir.OpCmpxchg, Line: instr.Line, Locked: true,
		Dest: fcir.MemOperand(instr.Base, ir.VRegInvalid, instr.Offset, 1), Src: fcir.VRegOperand(instr.Args[1])})
	if instr.Dest.Valid() {
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(ir.VRegRAX)})
	}
}

// lowerAtomicFetch is not explicitly tabulated by name but follows the
// same aligned-MOV/locked-op family as ATOMIC_SWAP: a locked op on the
// memory operand directly.
func (c *Context) lowerAtomicFetch(instr *ir.Instruction) {
	var fcOp fcir.Opcode
	switch instr.Opcode {
	case ir.OpAtomicFetchAdd:
		fcOp = fcir.OpAdd
	case ir.OpAtomicFetchSub:
		fcOp = fcir.OpSub
	case ir.OpAtomicFetchAnd:
		fcOp = fcir.OpAnd
	case ir.OpAtomicFetchOr:
		fcOp = fcir.OpOr
	case ir.OpAtomicFetchXor:
		fcOp = fcir.OpXor
	}
	if instr.Dest.Valid() {
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.MemOperand(instr.Base, ir.VRegInvalid, instr.Offset, 1)})
	}
	c.emit(&fcir.Instruction{Opcode: fcOp, Line: instr.Line, Locked: true,
		Dest: fcir.MemOperand(instr.Base, ir.VRegInvalid, instr.Offset, 1), Src: fcir.VRegOperand(instr.Args[0])})
}

// lowerExternalAlloc emits the System V argument setup and external CALL
// for the ALLOC/ARENA_ALLOC/SLAB_ALLOC family, then moves rax into the
// instruction's destination.
func (c *Context) lowerExternalAlloc(instr *ir.Instruction, symbol string, args []ir.VReg) {
	c.lowerExternalCall(instr.Line, symbol, args, instr.Dest)
}

func (c *Context) lowerExternalCall(line int32, symbol string, args []ir.VReg, dest ir.VReg) {
	for i, arg := range args {
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: line,
			Dest: fcir.VRegOperand(sysVArgRegs[i]), Src: fcir.VRegOperand(arg)})
	}
	c.fcMod.InternExternal(symbol)
	c.emit(&fcir.Instruction{Opcode: fcir.OpCall, Line: line, CalleeName: symbol, IsExternalABI: true})
	if dest.Valid() {
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: line,
			Dest: fcir.VRegOperand(dest), Src: fcir.VRegOperand(ir.VRegRAX)})
	}
}

// lowerPtrArith implements PTR_ADD and PTR_SUB, which share the same
// per-pointer-kind policy: raw pointers reject arithmetic outright,
// byte pointers get an unscaled op, typed pointers get their offset
// operand scaled first by the element size, taken as the pointer type's
// ByteSize (8). fcOp is fcir.OpAdd or
// fcir.OpSub.
func (c *Context) lowerPtrArith(instr *ir.Instruction, fcOp fcir.Opcode) {
	switch instr.Typ {
	case ir.TypeRawPtr:
		c.errorf(instr.Line, "Invalid pointer type for arithmetic")
		return
	case ir.TypeBytePtr:
		c.lowerTwoOperand(instr, fcOp)
	default: // TypeTypedPtr
		elemSize := instr.Typ.ByteSize()
		scaled := c.scratch(ir.TypeI64)
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(scaled), Src: fcir.VRegOperand(instr.Args[1])})
		c.emit(&fcir.Instruction{Opcode: fcir.OpIMul, Line: instr.Line,
			Dest: fcir.VRegOperand(scaled), Src: fcir.ImmOperand(int64(elemSize))})
		c.emit(&fcir.Instruction{Opcode: fcir.OpMov, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(instr.Args[0])})
		c.emit(&fcir.Instruction{Opcode: fcOp, Line: instr.Line,
			Dest: fcir.VRegOperand(instr.Dest), Src: fcir.VRegOperand(scaled)})
	}
}
