package fcir

import "github.com/fcxlang/fcxc/ir"

// Function is the lowered form of an ir.Function: same block ids (the
// lowering context's label map is identity-preserving), FC IR
// instructions in each block.
type Function struct {
	Name       string
	ReturnType ir.Type
	blocks     []*BasicBlock
	byID       map[ir.BlockID]*BasicBlock
}

func NewFunction(name string, returnType ir.Type) *Function {
	return &Function{Name: name, ReturnType: returnType, byID: make(map[ir.BlockID]*BasicBlock)}
}

// Block returns the block with the given id, creating it on first
// reference so lowering can emit into blocks in any order.
func (f *Function) Block(id ir.BlockID) *BasicBlock {
	if b, ok := f.byID[id]; ok {
		return b
	}
	b := newBlock(id)
	f.byID[id] = b
	f.blocks = append(f.blocks, b)
	return b
}

func (f *Function) Blocks() []*BasicBlock { return f.blocks }

func (f *Function) AllInstructions(fn func(*BasicBlock, *Instruction)) {
	for _, b := range f.blocks {
		for _, instr := range b.Instructions {
			fn(b, instr)
		}
	}
}
