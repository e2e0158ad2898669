package ir

import "fmt"

// Param is a function parameter: a pre-bound VReg with its declared Type.
type Param struct {
	Reg  VReg
	Type Type
}

// Function owns its blocks and parameter list exclusively. Block
// predecessor/successor lists hold non-owning BlockID references into
// this table.
type Function struct {
	Name       string
	Params     []Param
	ReturnType Type

	blocks    pool[BasicBlock]
	blockByID []*BasicBlock

	nextVReg  VReg
	nextBlock BlockID
}

// NewFunction creates an empty function. VReg ids start at 1;
// allocation always skips the pre-colored range so ordinary values
// never alias a physical register by accident (see AllocVReg).
func NewFunction(name string, returnType Type) *Function {
	f := &Function{Name: name, ReturnType: returnType, blocks: newPool[BasicBlock]()}
	f.nextVReg = 1
	return f
}

// AllocVReg centralizes virtual-register allocation: it returns a fresh
// id-type-size triple in one step. Allocation never yields an id
// in the pre-colored range; callers that need a specific physical
// register use BindPreColored instead.
func (f *Function) AllocVReg(t Type) TypedVReg {
	id := f.nextVReg
	f.nextVReg++
	if id >= PreColoredMin && id <= PreColoredMax {
		id = PreColoredMax + 1
		f.nextVReg = id + 1
	}
	return TypedVReg{Reg: id, Type: t, Size: t.ByteSize()}
}

// BindPreColored returns the TypedVReg for a specific pre-colored
// register id, used when a builder must produce a value that the calling
// convention pins to a physical register (e.g. a CALL's return value).
func (f *Function) BindPreColored(id VReg, t Type) TypedVReg {
	if !id.IsPreColored() {
		panic(fmt.Sprintf("BUG: %d is not a pre-colored VReg id", id))
	}
	return TypedVReg{Reg: id, Type: t, Size: t.ByteSize()}
}

// NewBlock allocates a fresh BasicBlock owned by this function and
// reserves its label id.
func (f *Function) NewBlock(name string) *BasicBlock {
	id := f.nextBlock
	f.nextBlock++
	blk := f.blocks.allocate()
	*blk = BasicBlock{id: id, Name: name}
	if name == "" {
		blk.Name = fmt.Sprintf("blk%d", id)
	}
	if int(id) >= len(f.blockByID) {
		f.blockByID = append(f.blockByID, make([]*BasicBlock, int(id)-len(f.blockByID)+1)...)
	}
	f.blockByID[id] = blk
	if id == 0 {
		blk.isEntry = true
	}
	return blk
}

// Block returns the block with the given id, or nil if unreserved. Used
// to validate that BRANCH/JUMP targets reference a real block (the
// label-consistency invariant).
func (f *Function) Block(id BlockID) *BasicBlock {
	if int(id) >= len(f.blockByID) {
		return nil
	}
	return f.blockByID[id]
}

// Blocks returns every block in id order, including any later marked
// unreachable (callers filter those out themselves; functions are small
// enough that invalidating a block just means it has zero
// successors/predecessors after dead-code elimination runs, not an
// "invalid" bit here).
func (f *Function) Blocks() []*BasicBlock {
	out := make([]*BasicBlock, f.blocks.allocated)
	for i := range out {
		out[i] = f.blocks.view(i)
	}
	return out
}

// NumBlocks returns the number of blocks allocated in this function.
func (f *Function) NumBlocks() int { return f.blocks.allocated }

// EntryBlock returns the function's single entry block (id 0), or nil if
// no block has been allocated yet.
func (f *Function) EntryBlock() *BasicBlock {
	if f.blocks.allocated == 0 {
		return nil
	}
	return f.blocks.view(0)
}

// Finalize wires predecessor/successor edges from terminator
// instructions and promotes every non-terminated block to an implicit
// jump to the block allocated immediately after it, per the block
// invariant. Must be called once after all blocks and instructions have
// been appended via the Builder.
func (f *Function) Finalize() {
	blocks := f.Blocks()
	for idx, blk := range blocks {
		if blk.tail == nil || !blk.tail.Opcode.IsTerminator() {
			if idx+1 < len(blocks) {
				next := blocks[idx+1]
				blk.addSucc(next.id)
				next.addPred(blk.id)
			}
			continue
		}
		switch blk.tail.Opcode {
		case OpJump:
			blk.addSucc(blk.tail.TargetTrue)
			if t := f.Block(blk.tail.TargetTrue); t != nil {
				t.addPred(blk.id)
			}
		case OpBranch:
			blk.addSucc(blk.tail.TargetTrue)
			blk.addSucc(blk.tail.TargetFalse)
			if t := f.Block(blk.tail.TargetTrue); t != nil {
				t.addPred(blk.id)
			}
			if t := f.Block(blk.tail.TargetFalse); t != nil {
				t.addPred(blk.id)
			}
		case OpReturn:
			blk.isExit = true
		}
	}
}

// AllInstructions calls fn for every instruction in the function, in
// block-id then intra-block order.
func (f *Function) AllInstructions(fn func(blk *BasicBlock, instr *Instruction)) {
	for _, blk := range f.Blocks() {
		for cur := blk.Root(); cur != nil; cur = cur.Next() {
			fn(blk, cur)
		}
	}
}
