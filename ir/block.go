package ir

// BasicBlock is a monotonically-numbered sequence of instructions within
// a Function. Every block terminates in a branch, jump, or return; the
// builder promotes a non-terminated block to an implicit jump to the
// next block when the function is finalized (Function.Finalize).
type BasicBlock struct {
	id      BlockID
	Name    string
	root    *Instruction
	tail    *Instruction
	preds   []BlockID
	succs   []BlockID
	isEntry bool
	isExit  bool
}

// ID returns this block's unique id within its owning function.
func (b *BasicBlock) ID() BlockID { return b.id }

// IsEntry reports whether this is the function's single entry block.
func (b *BasicBlock) IsEntry() bool { return b.isEntry }

// IsExit reports whether this block ends in a RETURN.
func (b *BasicBlock) IsExit() bool { return b.isExit }

// Preds returns the predecessor block ids, non-owning references into
// the parent Function's block table.
func (b *BasicBlock) Preds() []BlockID { return b.preds }

// Succs returns the successor block ids.
func (b *BasicBlock) Succs() []BlockID { return b.succs }

// Root returns the first instruction in the block, or nil if empty.
func (b *BasicBlock) Root() *Instruction { return b.root }

// Tail returns the last instruction in the block, or nil if empty.
func (b *BasicBlock) Tail() *Instruction { return b.tail }

// Len returns the number of instructions currently in the block.
func (b *BasicBlock) Len() int {
	n := 0
	for cur := b.root; cur != nil; cur = cur.next {
		n++
	}
	return n
}

// append appends instr to the tail of the block's instruction list.
// InsertBefore and Remove below splice the list directly and update
// root (and, for Remove, tail) themselves.
func (b *BasicBlock) append(instr *Instruction) {
	if b.tail != nil {
		b.tail.next = instr
		instr.prev = b.tail
	} else {
		b.root = instr
	}
	b.tail = instr
}

// InsertBefore splices instr into the block immediately before mark,
// which must already belong to this block. Used by interprocedural
// inlining to splice a cloned callee body ahead of the CALL it replaces.
func (b *BasicBlock) InsertBefore(mark, instr *Instruction) {
	instr.prev = mark.prev
	instr.next = mark
	if mark.prev != nil {
		mark.prev.next = instr
	} else {
		b.root = instr
	}
	mark.prev = instr
}

// Remove unlinks instr from the block's instruction list. Used by dead
// code elimination; it never relocates instructions, only deletes them,
// preserving the single-definition invariant.
func (b *BasicBlock) Remove(instr *Instruction) {
	if instr.prev != nil {
		instr.prev.next = instr.next
	} else {
		b.root = instr.next
	}
	if instr.next != nil {
		instr.next.prev = instr.prev
	} else {
		b.tail = instr.prev
	}
	instr.next, instr.prev = nil, nil
}

// ReplaceWithConst rewrites instr in place into an OpConst carrying value,
// used by constant folding and algebraic simplification so rewrites never
// invalidate the single-definition invariant by deleting-and-reinserting.
func (instr *Instruction) ReplaceWithConst(value int64, typ Type) {
	dest, line := instr.Dest, instr.Line
	*instr = Instruction{Opcode: OpConst, Dest: dest, Typ: typ, Imm: value, ImmU64: uint64(value), Line: line}
}

// ReplaceWithConstBigInt rewrites instr in place into an OpConstBigInt.
func (instr *Instruction) ReplaceWithConstBigInt(value BigInt, typ Type) {
	dest, line := instr.Dest, instr.Line
	*instr = Instruction{Opcode: OpConstBigInt, Dest: dest, Typ: typ, BigImm: value, Line: line}
}

// ReplaceWithMov rewrites instr in place into a MOV of src.
func (instr *Instruction) ReplaceWithMov(src VReg, typ Type) {
	dest, line := instr.Dest, instr.Line
	*instr = Instruction{Opcode: OpMov, Dest: dest, Typ: typ, Args: []VReg{src}, Line: line}
}

func (b *BasicBlock) addSucc(to BlockID) {
	for _, s := range b.succs {
		if s == to {
			return
		}
	}
	b.succs = append(b.succs, to)
}

func (b *BasicBlock) addPred(from BlockID) {
	for _, p := range b.preds {
		if p == from {
			return
		}
	}
	b.preds = append(b.preds, from)
}
