// Package lower rewrites FCx IR into FC IR: pure translation, no
// value-level optimization, observing the System V AMD64 calling
// convention.
package lower

import (
	"github.com/fcxlang/fcxc/diag"
	"github.com/fcxlang/fcxc/fcir"
	"github.com/fcxlang/fcxc/ir"
)

// sysVArgRegs and syscallArgRegs are the two distinct System V argument
// register orders lowering uses: ordinary calls and the raw SYSCALL
// instruction disagree on the fourth register (rcx vs r10), because the
// kernel entry clobbers rcx as the return address for the SYSCALL
// instruction itself.
var sysVArgRegs = [6]ir.VReg{ir.VRegRDI, ir.VRegRSI, ir.VRegRDX, ir.VRegRCX, ir.VRegR8, ir.VRegR9}
var syscallArgRegs = [6]ir.VReg{ir.VRegRDI, ir.VRegRSI, ir.VRegRDX, ir.VRegR10, ir.VRegR8, ir.VRegR9}

// Context is the per-function lowering state: threads the FCx VReg id
// space into FC IR (identity, except pre-colored ids are preserved
// unchanged by construction since both IRs number registers the same
// way), a label map (also identity, since FC IR reuses ir.BlockID), and
// the target module for external-symbol interning. Destroyed with the
// function once lowering completes.
type Context struct {
	irFn    *ir.Function
	fcFn    *fcir.Function
	fcMod   *fcir.Module
	cur     *fcir.BasicBlock
	diags   *diag.List
}

// NewContext begins lowering irFn into a fresh fcir.Function owned by
// fcMod.
func NewContext(irFn *ir.Function, fcMod *fcir.Module, diags *diag.List) *Context {
	fcFn := fcir.NewFunction(irFn.Name, irFn.ReturnType)
	return &Context{irFn: irFn, fcFn: fcFn, fcMod: fcMod, diags: diags}
}

func (c *Context) emit(instr *fcir.Instruction) {
	c.cur.Append(instr)
}

func (c *Context) setBlock(id ir.BlockID) {
	c.cur = c.fcFn.Block(id)
}

// scratch allocates a fresh FCx-numbered VReg on the original function so
// lowering can introduce intermediate values (a materialized MMIO
// address, a scaled pointer offset) without colliding with any id the
// front end already assigned.
func (c *Context) scratch(t ir.Type) ir.VReg {
	return c.irFn.AllocVReg(t).Reg
}

// errorf records a fatal lowering diagnostic; the caller still returns a
// (possibly incomplete) function so the driver can continue collecting
// further diagnostics in other functions.
func (c *Context) errorf(line int32, format string, args ...any) {
	c.diags.Errorf(diag.KindLowering, c.irFn.Name, line, format, args...)
}
