package ir

import "fmt"

// Builder appends instructions to a Function's current block. Every
// method is a pure mutator over that block: it appends exactly one
// instruction and allocates no transitive state beyond what the
// instruction's variant requires. The only failure mode this
// implementation has is a programmer error (missing current block, bad
// label reference), which is reported by panicking with a BUG-prefixed
// message rather than returning an error — Go's allocator does not fail
// in the way the narrower "allocation failure" clause anticipates, so
// there is nothing else for these methods to report.
type Builder struct {
	Func *Function
	cur  *BasicBlock
}

// NewBuilder returns a Builder appending to fn, starting with no current
// block set.
func NewBuilder(fn *Function) *Builder {
	return &Builder{Func: fn}
}

// SetBlock sets the block that subsequent builder calls append to.
func (b *Builder) SetBlock(blk *BasicBlock) { b.cur = blk }

// CurrentBlock returns the block instructions are currently appended to.
func (b *Builder) CurrentBlock() *BasicBlock { return b.cur }

func (b *Builder) requireBlock() *BasicBlock {
	if b.cur == nil {
		panic("BUG: ir.Builder: no current block set")
	}
	return b.cur
}

// requireLabel enforces the label-consistency invariant: a BRANCH/JUMP
// target must name a block id already reserved via Function.NewBlock.
func (b *Builder) requireLabel(id BlockID) {
	if b.Func.Block(id) == nil {
		panic(fmt.Sprintf("BUG: ir.Builder: block id %d was never reserved", id))
	}
}

func (b *Builder) emit(instr *Instruction) {
	b.requireBlock().append(instr)
}

// Const appends `dest = CONST value` of type t.
func (b *Builder) Const(value int64, t Type) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: OpConst, Dest: tv.Reg, Typ: t, Imm: value, ImmU64: uint64(value)})
	return tv
}

// ConstBigInt appends `dest = CONST_BIGINT value` of type t.
func (b *Builder) ConstBigInt(value BigInt, t Type) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: OpConstBigInt, Dest: tv.Reg, Typ: t, BigImm: value})
	return tv
}

// Load appends `dest = LOAD [base+offset]`.
func (b *Builder) Load(base VReg, offset int64, t Type) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: OpLoad, Dest: tv.Reg, Typ: t, Base: base, Offset: offset})
	return tv
}

// Store appends `STORE [base+offset], src`.
func (b *Builder) Store(base VReg, offset int64, src VReg, t Type) {
	b.emit(&Instruction{Opcode: OpStore, Typ: t, Base: base, Offset: offset, Args: []VReg{src}})
}

// Mov appends `dest = MOV src`.
func (b *Builder) Mov(src VReg, t Type) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: OpMov, Dest: tv.Reg, Typ: t, Args: []VReg{src}})
	return tv
}

// Binary appends a two-operand instruction (ADD/SUB/MUL/.../CMP_*).
func (b *Builder) Binary(op Opcode, lhs, rhs VReg, t Type) TypedVReg {
	if !op.IsBinary() {
		panic(fmt.Sprintf("BUG: ir.Builder.Binary: %s is not a binary opcode", op))
	}
	resultType := t
	if op.IsCompare() {
		resultType = TypeBool
	}
	tv := b.Func.AllocVReg(resultType)
	b.emit(&Instruction{Opcode: op, Dest: tv.Reg, Typ: t, Args: []VReg{lhs, rhs}})
	return tv
}

// Unary appends a one-operand instruction (NEG/NOT).
func (b *Builder) Unary(op Opcode, src VReg, t Type) TypedVReg {
	if !op.IsUnary() || op == OpMov {
		panic(fmt.Sprintf("BUG: ir.Builder.Unary: %s is not a unary arithmetic opcode", op))
	}
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: op, Dest: tv.Reg, Typ: t, Args: []VReg{src}})
	return tv
}

// allocCommon is shared by the five ALLOC_* builders.
func (b *Builder) allocCommon(op Opcode, kind AllocKind, size VReg, align uint32, scopeID, typeHash uint32, t Type) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{
		Opcode: op, Dest: tv.Reg, Typ: t, AllocK: kind,
		Args: []VReg{size}, Align: align, ScopeID: scopeID, TypeHash: typeHash,
	})
	return tv
}

// AllocHeap appends `dest = ALLOC_HEAP size, align`.
func (b *Builder) AllocHeap(size VReg, align uint32) TypedVReg {
	return b.allocCommon(OpAllocHeap, AllocHeap, size, align, 0, 0, TypeTypedPtr)
}

// AllocStack appends `dest = ALLOC_STACK size, align`.
func (b *Builder) AllocStack(size VReg, align uint32) TypedVReg {
	return b.allocCommon(OpAllocStack, AllocStack, size, align, 0, 0, TypeTypedPtr)
}

// AllocArena appends `dest = ALLOC_ARENA size, align, scope_id`.
func (b *Builder) AllocArena(size VReg, align, scopeID uint32) TypedVReg {
	return b.allocCommon(OpAllocArena, AllocArena, size, align, scopeID, 0, TypeTypedPtr)
}

// AllocSlab appends `dest = ALLOC_SLAB size, type_hash`.
func (b *Builder) AllocSlab(size VReg, typeHash uint32) TypedVReg {
	return b.allocCommon(OpAllocSlab, AllocSlab, size, 0, 0, typeHash, TypeTypedPtr)
}

// Dealloc appends `DEALLOC ptr`.
func (b *Builder) Dealloc(ptr VReg) {
	b.emit(&Instruction{Opcode: OpDealloc, Args: []VReg{ptr}})
}

// SlabFree appends `SLAB_FREE ptr, type_hash`.
func (b *Builder) SlabFree(ptr VReg, typeHash uint32) {
	b.emit(&Instruction{Opcode: OpSlabFree, Args: []VReg{ptr}, TypeHash: typeHash})
}

// ArenaReset appends `ARENA_RESET scope_id`.
func (b *Builder) ArenaReset(scopeID uint32) {
	b.emit(&Instruction{Opcode: OpArenaReset, ScopeID: scopeID})
}

// AtomicLoad appends `dest = ATOMIC_LOAD [ptr]`.
func (b *Builder) AtomicLoad(ptr VReg, t Type) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: OpAtomicLoad, Dest: tv.Reg, Typ: t, Base: ptr})
	return tv
}

// AtomicStore appends `ATOMIC_STORE [ptr], value`.
func (b *Builder) AtomicStore(ptr, value VReg, t Type) {
	b.emit(&Instruction{Opcode: OpAtomicStore, Typ: t, Base: ptr, Args: []VReg{value}})
}

// AtomicSwap appends `dest = ATOMIC_SWAP [ptr], value`.
func (b *Builder) AtomicSwap(ptr, value VReg, t Type) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: OpAtomicSwap, Dest: tv.Reg, Typ: t, Base: ptr, Args: []VReg{value}})
	return tv
}

// AtomicCAS appends `dest = ATOMIC_CAS [ptr], expected, new`.
func (b *Builder) AtomicCAS(ptr, expected, newVal VReg, t Type) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: OpAtomicCAS, Dest: tv.Reg, Typ: t, Base: ptr, Args: []VReg{expected, newVal}})
	return tv
}

// AtomicFetch appends `dest = ATOMIC_FETCH_<op> [ptr], operand`.
func (b *Builder) AtomicFetch(op AtomicOp, ptr, operand VReg, t Type) TypedVReg {
	var opcode Opcode
	switch op {
	case AtomicOpAdd:
		opcode = OpAtomicFetchAdd
	case AtomicOpSub:
		opcode = OpAtomicFetchSub
	case AtomicOpAnd:
		opcode = OpAtomicFetchAnd
	case AtomicOpOr:
		opcode = OpAtomicFetchOr
	case AtomicOpXor:
		opcode = OpAtomicFetchXor
	default:
		panic("BUG: ir.Builder.AtomicFetch: unknown AtomicOp")
	}
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: opcode, Dest: tv.Reg, Typ: t, AtomicK: op, Base: ptr, Args: []VReg{operand}})
	return tv
}

// FenceFull appends a full memory fence.
func (b *Builder) FenceFull() { b.emit(&Instruction{Opcode: OpFenceFull}) }

// FenceAcquire appends an acquire memory fence.
func (b *Builder) FenceAcquire() { b.emit(&Instruction{Opcode: OpFenceAcquire}) }

// FenceRelease appends a release memory fence.
func (b *Builder) FenceRelease() { b.emit(&Instruction{Opcode: OpFenceRelease}) }

// Syscall appends `dest = SYSCALL num, args...`. Argument order here is
// the logical source order; lowering is
// responsible for emitting the reversed move order.
func (b *Builder) Syscall(num VReg, args []VReg) TypedVReg {
	tv := b.Func.AllocVReg(TypeI64)
	b.emit(&Instruction{Opcode: OpSyscall, Dest: tv.Reg, Typ: TypeI64, SyscallNum: num, SyscallArgs: args})
	return tv
}

// MMIORead appends `dest = MMIO_READ addr`.
func (b *Builder) MMIORead(addr uint64, t Type) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: OpMMIORead, Dest: tv.Reg, Typ: t, MMIOAddr: addr})
	return tv
}

// MMIOWrite appends `MMIO_WRITE addr, value`.
func (b *Builder) MMIOWrite(addr uint64, value VReg, t Type) {
	b.emit(&Instruction{Opcode: OpMMIOWrite, Typ: t, MMIOAddr: addr, Args: []VReg{value}})
}

// PtrAdd appends `dest = PTR_ADD ptr, offset` where ptr has pointer type
// ptrType; lowering is where the raw-ptr rejection happens, not
// construction — FCx IR itself never fails to build this instruction.
func (b *Builder) PtrAdd(ptr, offset VReg, ptrType Type) TypedVReg {
	tv := b.Func.AllocVReg(ptrType)
	b.emit(&Instruction{Opcode: OpPtrAdd, Dest: tv.Reg, Typ: ptrType, Args: []VReg{ptr, offset}})
	return tv
}

// PtrSub appends `dest = PTR_SUB ptr, offset`.
func (b *Builder) PtrSub(ptr, offset VReg, ptrType Type) TypedVReg {
	tv := b.Func.AllocVReg(ptrType)
	b.emit(&Instruction{Opcode: OpPtrSub, Dest: tv.Reg, Typ: ptrType, Args: []VReg{ptr, offset}})
	return tv
}

// PtrDiff appends `dest = PTR_DIFF a, b`.
func (b *Builder) PtrDiff(a, bb VReg) TypedVReg {
	tv := b.Func.AllocVReg(TypeI64)
	b.emit(&Instruction{Opcode: OpPtrDiff, Dest: tv.Reg, Typ: TypeI64, Args: []VReg{a, bb}})
	return tv
}

// PtrCast appends `dest = PTR_CAST src` to the target pointer flavor.
func (b *Builder) PtrCast(src VReg, to Type) TypedVReg {
	tv := b.Func.AllocVReg(to)
	b.emit(&Instruction{Opcode: OpPtrCast, Dest: tv.Reg, Typ: to, Args: []VReg{src}})
	return tv
}

// PtrToInt appends `dest = PTR_TO_INT src`.
func (b *Builder) PtrToInt(src VReg) TypedVReg {
	tv := b.Func.AllocVReg(TypeU64)
	b.emit(&Instruction{Opcode: OpPtrToInt, Dest: tv.Reg, Typ: TypeU64, Args: []VReg{src}})
	return tv
}

// IntToPtr appends `dest = INT_TO_PTR src`.
func (b *Builder) IntToPtr(src VReg, to Type) TypedVReg {
	tv := b.Func.AllocVReg(to)
	b.emit(&Instruction{Opcode: OpIntToPtr, Dest: tv.Reg, Typ: to, Args: []VReg{src}})
	return tv
}

// FieldOffset appends `dest = FIELD_OFFSET base, offset`.
func (b *Builder) FieldOffset(base VReg, offset int64, ptrType Type) TypedVReg {
	tv := b.Func.AllocVReg(ptrType)
	b.emit(&Instruction{Opcode: OpFieldOffset, Dest: tv.Reg, Typ: ptrType, Base: base, Imm: offset})
	return tv
}

// Branch appends `BRANCH cond, trueBlk, falseBlk`.
func (b *Builder) Branch(cond VReg, trueBlk, falseBlk BlockID) {
	b.requireLabel(trueBlk)
	b.requireLabel(falseBlk)
	b.emit(&Instruction{Opcode: OpBranch, Args: []VReg{cond}, TargetTrue: trueBlk, TargetFalse: falseBlk})
}

// Jump appends `JUMP target`.
func (b *Builder) Jump(target BlockID) {
	b.requireLabel(target)
	b.emit(&Instruction{Opcode: OpJump, TargetTrue: target})
}

// Call appends `dest = CALL name, args...`.
func (b *Builder) Call(name string, args []VReg, t Type, indirect, tailCall bool) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: OpCall, Dest: tv.Reg, Typ: t, CalleeName: name, CallArgs: args, Indirect: indirect, TailCall: tailCall})
	return tv
}

// Return appends `RETURN value` (value may be VRegInvalid for a void
// return).
func (b *Builder) Return(value VReg) {
	var args []VReg
	if value.Valid() {
		args = []VReg{value}
	}
	b.emit(&Instruction{Opcode: OpReturn, Args: args})
}

// Phi appends `dest = PHI edges...`.
func (b *Builder) Phi(edges []PhiEdge, t Type) TypedVReg {
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: OpPhi, Dest: tv.Reg, Typ: t, Phi: edges})
	return tv
}

// InlineAsm appends an INLINE_ASM instruction carrying asm.
func (b *Builder) InlineAsm(asm *InlineAsm) {
	b.emit(&Instruction{Opcode: OpInlineAsm, Asm: asm})
}

// SIMDBinary appends a SIMD_ADD/SUB/MUL/DIV instruction.
func (b *Builder) SIMDBinary(op Opcode, lhs, rhs VReg, t Type) TypedVReg {
	switch op {
	case OpSIMDAdd, OpSIMDSub, OpSIMDMul, OpSIMDDiv:
	default:
		panic(fmt.Sprintf("BUG: ir.Builder.SIMDBinary: %s is not a SIMD opcode", op))
	}
	tv := b.Func.AllocVReg(t)
	b.emit(&Instruction{Opcode: op, Dest: tv.Reg, Typ: t, Args: []VReg{lhs, rhs}})
	return tv
}
