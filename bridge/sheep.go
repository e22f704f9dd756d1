package bridge

import (
	"errors"
	"fmt"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/lowmem"
)

// ErrUnknownNativeOp is the failure cause of an unregistered EXEC_NATIVE.
var ErrUnknownNativeOp = errors.New("bridge: unknown native op")

// EmulOpHandler runs emulator operations requested by guest code. pc is
// the 68k PC of the operation.
type EmulOpHandler interface {
	EmulOp(r *M68kRegisters, pc, selector uint32)
}

// EmulOpFunc adapts a function to EmulOpHandler.
type EmulOpFunc func(r *M68kRegisters, pc, selector uint32)

// EmulOp calls f.
func (f EmulOpFunc) EmulOp(r *M68kRegisters, pc, selector uint32) { f(r, pc, selector) }

// NativeOpFunc is a native routine reachable through EXEC_NATIVE. It takes
// its arguments from r3 and up and returns in r3.
type NativeOpFunc func(ctx MachineContext)

// RegisterNativeOp installs fn for selector (0-31).
func (b *Bridge) RegisterNativeOp(selector uint32, fn NativeOpFunc) {
	b.nativeOps[selector&31] = fn
}

// EmulOp implements emu.SheepHandler. The 68k registers are marshalled
// from r8-r22 and r1; CR fields 1-2 are not preserved.
func (b *Bridge) EmulOp(c *emu.CPU, _ uint32, selector uint32) {
	r := &c.Regs

	b.state.SetSavedR25(r.GPR[25])
	b.SetRunMode(lowmem.ModeEmulOp)

	var m M68kRegisters
	for i := 0; i < 8; i++ {
		m.D[i] = r.GPR[8+i]
	}
	for i := 0; i < 7; i++ {
		m.A[i] = r.GPR[16+i]
	}
	m.A[7] = r.GPR[1]

	savedCR := r.CR & 0xff9fffff
	savedXER := r.XER

	b.stats.EmulOps++

	if b.emulOps != nil {
		b.emulOps.EmulOp(&m, r.GPR[24], selector)
	} else {
		b.logger.WithField("selector", selector).Warn("emulator op without handler")
	}

	r.CR = savedCR
	r.XER = savedXER

	for i := 0; i < 8; i++ {
		r.GPR[8+i] = m.D[i]
	}
	for i := 0; i < 7; i++ {
		r.GPR[16+i] = m.A[i]
	}
	r.GPR[1] = m.A[7]

	b.SetRunMode(lowmem.ModeM68K)
	r.PC += 4
}

// NativeOp implements emu.SheepHandler.
func (b *Bridge) NativeOp(c *emu.CPU, selector uint32, returnToLR bool) {
	fn := b.nativeOps[selector&31]
	if fn == nil {
		c.Fail("native op", fmt.Errorf("%w %d", ErrUnknownNativeOp, selector))
		return
	}

	b.stats.NativeOps++
	fn(&c.Regs)

	if returnToLR {
		c.Regs.PC = c.Regs.LR
	} else {
		c.Regs.PC += 4
	}
}
