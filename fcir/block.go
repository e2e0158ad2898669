package fcir

import "github.com/fcxlang/fcxc/ir"

// BasicBlock is an ordered, append-only instruction list. FC IR is the
// output of a pure translation pass, not a rewrite target, so unlike
// ir.BasicBlock it needs no in-place removal and keeps instructions in a
// plain slice.
type BasicBlock struct {
	id           ir.BlockID
	Instructions []*Instruction
}

func newBlock(id ir.BlockID) *BasicBlock {
	return &BasicBlock{id: id}
}

func (b *BasicBlock) ID() ir.BlockID { return b.id }

func (b *BasicBlock) Append(instr *Instruction) {
	b.Instructions = append(b.Instructions, instr)
}

func (b *BasicBlock) Len() int { return len(b.Instructions) }
