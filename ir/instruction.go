package ir

// BlockID is the monotonic numeric id of a BasicBlock within its owning
// Function.
type BlockID uint32

// BlockIDInvalid is the sentinel "no block" id.
const BlockIDInvalid BlockID = 0xffffffff

// AllocKind distinguishes the five allocation forms grouped under the
// "alloc family" of opcodes.
type AllocKind uint8

const (
	AllocHeap AllocKind = iota
	AllocStack
	AllocArena
	AllocSlab
	AllocPool
)

// AtomicOp enumerates the read-modify-write operations atomic_rmw-shaped
// instructions carry, in addition to the plain load/store/swap/CAS
// opcodes which are distinguished by Instruction.Opcode directly.
type AtomicOp uint8

const (
	AtomicOpNone AtomicOp = iota
	AtomicOpAdd
	AtomicOpSub
	AtomicOpAnd
	AtomicOpOr
	AtomicOpXor
)

// InlineAsm is the payload an OpInlineAsm instruction carries. The actual
// constraint/clobber resolution is a backend responsibility;
// this struct only carries the raw data through FCx IR and lowering.
type InlineAsm struct {
	Template string
	Inputs   []AsmOperand
	Outputs  []AsmOperand
	Clobbers []string
	Volatile bool
}

// AsmOperand binds a VReg to an inline-assembly constraint string (e.g.
// "r", "m", "=r").
type AsmOperand struct {
	Reg        VReg
	Constraint string
}

// PhiEdge is one (predecessor block, incoming value) pair of an OpPhi
// instruction.
type PhiEdge struct {
	Block BlockID
	Value VReg
}

// Instruction is a flattened tagged union over every FCx opcode. Since Go
// has no union type, every field's meaning depends on Opcode: each
// variant uses only the subset of fields its opcode needs, and builders
// populate exactly that subset and leave the rest zero.
type Instruction struct {
	Opcode Opcode
	Line   int32

	// Dest is the VReg this instruction defines, or VRegInvalid for
	// instructions with no result (STORE, BRANCH, RETURN, fences, ...).
	Dest VReg
	Typ  Type

	// Args holds the source VRegs for arithmetic/bitwise/shift/rotate/
	// compare/unary ops (2 or 1 operands respectively), the stored value
	// for STORE and atomic stores/swaps, the operand of atomic fetch ops,
	// and [expected, new] for CAS. The pointer of loads, stores and
	// atomics is carried in Base.
	Args []VReg

	// Imm is a generic signed immediate: the folded scalar constant for
	// CONST, the shift/mask amount strength reduction writes back, or a
	// field offset.
	Imm int64
	// ImmU64 carries CONST's unsigned view of the same bit pattern when
	// the type is unsigned.
	ImmU64 uint64
	// BigImm carries a CONST_BIGINT constant.
	BigImm BigInt

	// Base/Index/HasIndex/Offset/Scale describe a LOAD/STORE/PREFETCH
	// memory operand: [Base + Index*Scale + Offset].
	Base     VReg
	Index    VReg
	HasIndex bool
	Offset   int64
	Scale    int32

	// MMIOAddr is the absolute 64-bit address for MMIO_READ/MMIO_WRITE.
	MMIOAddr uint64

	// TargetTrue/TargetFalse are block targets for BRANCH/JUMP; BRANCH
	// uses both (true/false edges), JUMP only TargetTrue.
	TargetTrue  BlockID
	TargetFalse BlockID

	// CalleeName/CallArgs/Indirect/TailCall describe CALL.
	CalleeName string
	CallArgs   []VReg
	Indirect   bool
	TailCall   bool

	// SyscallNum/SyscallArgs describe SYSCALL.
	SyscallNum  VReg
	SyscallArgs []VReg

	// AllocK/ScopeID/TypeHash/Align describe the alloc family and the
	// matching deallocation opcodes.
	AllocK   AllocKind
	ScopeID  uint32
	TypeHash uint32
	Align    uint32

	// AtomicK distinguishes which fetch-* operation an atomic
	// read-modify-write performs.
	AtomicK AtomicOp

	// Phi carries the incoming (block, value) edges for OpPhi.
	Phi []PhiEdge

	// Asm carries the OpInlineAsm payload.
	Asm *InlineAsm

	// next/prev link this instruction into its owning block's list, set
	// by the BasicBlock list operations (append, InsertBefore, Remove).
	next, prev *Instruction
}

// Next returns the instruction following this one in block order, or nil
// at the tail.
func (i *Instruction) Next() *Instruction { return i.next }

// Prev returns the instruction preceding this one in block order, or nil
// at the head.
func (i *Instruction) Prev() *Instruction { return i.prev }

// DefinesVReg reports whether this instruction's Dest is a valid,
// single-assignment-tracked result: true for every value-producing
// opcode (constants, MOV, arithmetic, comparisons, loads, calls,
// allocations, value-returning atomics, pointer ops, SIMD, SYSCALL,
// MMIO_READ, and PHI) when Dest is valid.
func (i *Instruction) DefinesVReg() bool {
	if !i.Dest.Valid() {
		return false
	}
	switch i.Opcode {
	case OpConst, OpConstBigInt, OpMov,
		OpAdd, OpSub, OpMul, OpDiv, OpMod, OpNeg,
		OpAnd, OpOr, OpXor, OpNot, OpShl, OpLshr, OpAshr, OpRotl, OpRotr,
		OpCmpEq, OpCmpNe, OpCmpLt, OpCmpLe, OpCmpGt, OpCmpGe, OpCmpUlt, OpCmpUle, OpCmpUgt, OpCmpUge,
		OpLoad, OpCall,
		OpAllocHeap, OpAllocStack, OpAllocArena, OpAllocSlab, OpAllocPool,
		OpAtomicLoad, OpAtomicSwap, OpAtomicCAS,
		OpAtomicFetchAdd, OpAtomicFetchSub, OpAtomicFetchAnd, OpAtomicFetchOr, OpAtomicFetchXor,
		OpPtrAdd, OpPtrSub, OpPtrDiff, OpPtrCast, OpPtrToInt, OpIntToPtr, OpFieldOffset,
		OpSIMDAdd, OpSIMDSub, OpSIMDMul, OpSIMDDiv, OpAlign,
		OpSyscall, OpMMIORead, OpPhi:
		return true
	default:
		return false
	}
}

// Uses calls fn for every VReg this instruction reads, covering every
// operand-carrying field.
func (i *Instruction) Uses(fn func(VReg)) {
	for _, a := range i.Args {
		if a.Valid() {
			fn(a)
		}
	}
	if i.Base.Valid() {
		fn(i.Base)
	}
	if i.HasIndex && i.Index.Valid() {
		fn(i.Index)
	}
	for _, a := range i.CallArgs {
		if a.Valid() {
			fn(a)
		}
	}
	if i.SyscallNum.Valid() {
		fn(i.SyscallNum)
	}
	for _, a := range i.SyscallArgs {
		if a.Valid() {
			fn(a)
		}
	}
	for _, e := range i.Phi {
		if e.Value.Valid() {
			fn(e.Value)
		}
	}
	if i.Opcode == OpStore && len(i.Args) > 0 {
		// Args[0] is the value being stored; already covered above.
	}
	if i.Asm != nil {
		for _, in := range i.Asm.Inputs {
			if in.Reg.Valid() {
				fn(in.Reg)
			}
		}
	}
}
