package fcir

import (
	"fmt"
	"strings"
)

// Format renders an operand in AT&T-adjacent debugging notation.
func (o Operand) Format() string {
	switch o.Kind {
	case OperandVReg:
		return fmt.Sprintf("v%d", o.Reg)
	case OperandImm:
		if cc, ok := IsSentinel(o.Imm); ok {
			return fmt.Sprintf("<sentinel %s>", cc)
		}
		return fmt.Sprintf("%d", o.Imm)
	case OperandBigImm:
		return fmt.Sprintf("0x%x...", o.Big.Limbs[0])
	case OperandExternalFunc:
		return fmt.Sprintf("ext#%d", o.ExternalFunc)
	case OperandLabel:
		return fmt.Sprintf("blk%d", o.Label)
	case OperandMemory:
		if o.HasIndex {
			return fmt.Sprintf("[v%d+v%d*%d+%d]", o.Base, o.Index, o.Scale, o.Disp)
		}
		return fmt.Sprintf("[v%d+%d]", o.Base, o.Disp)
	case OperandStackSlot:
		return fmt.Sprintf("slot%d", o.Slot)
	default:
		return "<invalid>"
	}
}

// Format renders one instruction, grounded on ir.Instruction.Format's
// opcode-plus-operands convention.
func (i *Instruction) Format() string {
	var sb strings.Builder
	if i.Locked {
		sb.WriteString("lock ")
	}
	sb.WriteString(i.Opcode.String())
	switch i.Opcode {
	case OpCall:
		sb.WriteByte(' ')
		if i.CalleeIndirect {
			sb.WriteString(i.Src.Format())
		} else {
			sb.WriteString(i.CalleeName)
		}
		if i.IsExternalABI {
			sb.WriteString(" [external]")
		}
	case OpJcc:
		fmt.Fprintf(&sb, ".%s %s", i.CC, i.Dest.Format())
	case OpRet, OpSyscall, OpMfence, OpLfence, OpSfence:
		// no operands
	case OpInlineAsm:
		if i.Asm != nil {
			fmt.Fprintf(&sb, " %q", i.Asm.Template)
		}
	default:
		if i.Dest.Kind != OperandInvalid {
			fmt.Fprintf(&sb, " %s", i.Dest.Format())
		}
		if i.Src.Kind != OperandInvalid {
			fmt.Fprintf(&sb, ", %s", i.Src.Format())
		}
	}
	return sb.String()
}

// Format renders the whole function.
func (f *Function) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func %s\n", f.Name)
	for _, blk := range f.blocks {
		fmt.Fprintf(&sb, "blk%d:\n", blk.ID())
		for _, instr := range blk.Instructions {
			sb.WriteByte('\t')
			sb.WriteString(instr.Format())
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Format renders the whole module.
func (m *Module) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %s\n", m.Name)
	for _, fn := range m.Functions {
		sb.WriteString(fn.Format())
	}
	return sb.String()
}
