package ir

import (
	"fmt"
	"strings"
)

// Format returns the debugging string of the instruction, grounded on the
// teacher's ssa.basic_block.go FormatHeader convention of "blkN: (...)".
func (i *Instruction) Format() string {
	var sb strings.Builder
	if i.Dest.Valid() {
		fmt.Fprintf(&sb, "v%d = ", i.Dest)
	}
	sb.WriteString(i.Opcode.String())
	switch i.Opcode {
	case OpConst:
		fmt.Fprintf(&sb, " %d", i.Imm)
	case OpConstBigInt:
		fmt.Fprintf(&sb, " 0x%x...", i.BigImm.Limbs[0])
	case OpLoad:
		fmt.Fprintf(&sb, " [v%d+%d]", i.Base, i.Offset)
	case OpStore:
		fmt.Fprintf(&sb, " [v%d+%d], v%d", i.Base, i.Offset, i.Args[0])
	case OpBranch:
		fmt.Fprintf(&sb, " v%d, blk%d, blk%d", i.Args[0], i.TargetTrue, i.TargetFalse)
	case OpJump:
		fmt.Fprintf(&sb, " blk%d", i.TargetTrue)
	case OpCall:
		sb.WriteByte(' ')
		sb.WriteString(i.CalleeName)
		for _, a := range i.CallArgs {
			fmt.Fprintf(&sb, ", v%d", a)
		}
	case OpReturn:
		if len(i.Args) > 0 {
			fmt.Fprintf(&sb, " v%d", i.Args[0])
		}
	case OpPhi:
		for _, e := range i.Phi {
			fmt.Fprintf(&sb, " [blk%d: v%d]", e.Block, e.Value)
		}
	default:
		for _, a := range i.Args {
			fmt.Fprintf(&sb, " v%d", a)
		}
	}
	return sb.String()
}

// FormatHeader returns the debug string of the block, not including its
// instructions, grounded on ssa.basic_block.go's FormatHeader.
func (b *BasicBlock) FormatHeader() string {
	preds := make([]string, len(b.preds))
	for i, p := range b.preds {
		preds[i] = fmt.Sprintf("blk%d", p)
	}
	return fmt.Sprintf("%s: <-- (%s)", b.Name, strings.Join(preds, ", "))
}

// Format returns the debugging string of the whole function.
func (f *Function) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "v%d %s", p.Reg, p.Type)
	}
	fmt.Fprintf(&sb, ") %s\n", f.ReturnType)
	for _, blk := range f.Blocks() {
		sb.WriteString(blk.FormatHeader())
		sb.WriteByte('\n')
		for cur := blk.Root(); cur != nil; cur = cur.Next() {
			sb.WriteByte('\t')
			sb.WriteString(cur.Format())
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Format returns the debugging string of the whole module.
func (m *Module) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %s\n", m.Name)
	for _, fn := range m.Functions {
		sb.WriteString(fn.Format())
	}
	return sb.String()
}
