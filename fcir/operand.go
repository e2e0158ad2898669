package fcir

import "github.com/fcxlang/fcxc/ir"

// OperandKind distinguishes the variants of the FC IR operand sum type.
// Flattened into one struct rather than an interface, the same shape
// ir.Instruction uses, and for the same reason: Go has no union type, and
// a flattened struct keeps operand construction and pattern matching both
// allocation-free.
type OperandKind uint8

const (
	OperandInvalid OperandKind = iota
	OperandVReg
	OperandImm
	OperandBigImm
	OperandExternalFunc
	OperandLabel
	OperandMemory
	OperandStackSlot
)

// Operand is one FC IR operand.
type Operand struct {
	Kind OperandKind

	Reg ir.VReg // OperandVReg

	Imm int64      // OperandImm (includes sentinel-encoded comparison results)
	Big ir.BigInt  // OperandBigImm

	ExternalFunc int // OperandExternalFunc: index into the module's external symbol table

	Label ir.BlockID // OperandLabel

	Base     ir.VReg // OperandMemory
	Index    ir.VReg
	HasIndex bool
	Disp     int64
	Scale    int32 // one of 1, 2, 4, 8

	Slot int // OperandStackSlot
}

func VRegOperand(r ir.VReg) Operand { return Operand{Kind: OperandVReg, Reg: r} }
func ImmOperand(v int64) Operand    { return Operand{Kind: OperandImm, Imm: v} }
func BigImmOperand(v ir.BigInt) Operand {
	return Operand{Kind: OperandBigImm, Big: v}
}
func ExternalFuncOperand(index int) Operand {
	return Operand{Kind: OperandExternalFunc, ExternalFunc: index}
}
func LabelOperand(id ir.BlockID) Operand { return Operand{Kind: OperandLabel, Label: id} }
func StackSlotOperand(slot int) Operand  { return Operand{Kind: OperandStackSlot, Slot: slot} }

// MemOperand builds a [base + index*scale + disp] addressing form. Pass
// ir.VRegInvalid for index when there is none; Scale is ignored in that
// case.
func MemOperand(base, index ir.VReg, disp int64, scale int32) Operand {
	return Operand{
		Kind: OperandMemory, Base: base, Index: index,
		HasIndex: index.Valid(), Disp: disp, Scale: scale,
	}
}
