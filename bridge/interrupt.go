package bridge

import (
	"math/bits"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/lowmem"
)

// Delivery is the outcome of one delivery attempt.
type Delivery int

// Delivery outcomes.
const (
	// Skipped: nothing is pending, interrupts are disabled or the bridge
	// is not ready.
	Skipped Delivery = iota
	// Deferred: the current mode cannot take the interrupt right now.
	Deferred
	// Delivered: the guest was interrupted.
	Delivered
)

func (d Delivery) String() string {
	switch d {
	case Skipped:
		return "skipped"
	case Deferred:
		return "deferred"
	case Delivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// InterruptDeliveryPolicy delivers interrupts in one run mode.
type InterruptDeliveryPolicy interface {
	Mode() uint32
	Deliver(b *Bridge, ctx MachineContext) Delivery
}

var policies = [...]InterruptDeliveryPolicy{
	lowmem.ModeM68K:   m68kPolicy{},
	lowmem.ModeNative: nativePolicy{},
	lowmem.ModeEmulOp: emulOpPolicy{},
}

func policyFor(mode uint32) InterruptDeliveryPolicy {
	if mode >= uint32(len(policies)) {
		return nil
	}

	return policies[mode]
}

// m68kPolicy interrupts the 68k emulator: raising level 1 and the CR bits
// it polls makes it take the interrupt at its next instruction.
type m68kPolicy struct{}

func (m68kPolicy) Mode() uint32 { return lowmem.ModeM68K }

func (m68kPolicy) Deliver(b *Bridge, ctx MachineContext) Delivery {
	b.raiseLevel1()
	ctx.SetCR(ctx.GetCR() | b.kernel(lowmem.KDCRMask))

	return Delivered
}

// nativePolicy enters the nanokernel interrupt routine, unless the
// nanokernel itself is running.
type nativePolicy struct{}

func (nativePolicy) Mode() uint32 { return lowmem.ModeNative }

func (nativePolicy) Deliver(b *Bridge, ctx MachineContext) Delivery {
	if ctx.Gpr(1) == lowmem.KernelDataAddr {
		return Deferred
	}

	b.raiseLevel1()

	cr := b.kernel(lowmem.KDContextA) + lowmem.CtxInterruptCR
	b.mem.Write32(cr, b.mem.Read32(cr)|b.kernel(lowmem.KDCRMask))

	b.state.DisableInterrupt()

	if err := b.NanokernelInterrupt(b.nanokernelEntry()); err != nil {
		b.logger.WithError(err).Warn("nanokernel interrupt routine failed")
	}

	return Delivered
}

// emulOpPolicy runs the 68k interrupt procedure directly while an
// emulator op is in progress and the 68k interrupt level is 0.
type emulOpPolicy struct{}

func (emulOpPolicy) Mode() uint32 { return lowmem.ModeEmulOp }

func (emulOpPolicy) Deliver(b *Bridge, _ MachineContext) Delivery {
	old := b.state.SavedR25()
	if old&7 != 0 {
		return Deferred
	}

	b.state.SetSavedR25(0x21)

	var r M68kRegisters
	if err := b.Execute68k(b.irqProc, &r); err != nil {
		b.logger.WithError(err).Warn("68k interrupt procedure failed")
	}

	b.state.SetSavedR25(old)

	return Delivered
}

// raiseLevel1 stores 1 into the 68k interrupt level word.
func (b *Bridge) raiseLevel1() {
	b.mem.Write16(b.kernel(lowmem.KDLevelCell), 1)
}

func (b *Bridge) nanokernelEntry() uint32 {
	if b.cfg.NewWorldROM {
		return lowmem.ROMBase + lowmem.NanokernelIRQNewWorld
	}

	return lowmem.ROMBase + lowmem.NanokernelIRQOldWorld
}

// HandleInterrupt delivers a pending interrupt at a block boundary.
func (b *Bridge) HandleInterrupt(c *emu.CPU) {
	b.Deliver(&c.Regs)
}

// Deliver attempts delivery of a pending interrupt in the current run
// mode. A delivery consumes exactly one pending interrupt. While more
// remain, or when the mode deferred, delivery is armed again for the next
// block boundary.
func (b *Bridge) Deliver(ctx MachineContext) Delivery {
	if !b.state.Ready() || b.state.IRQNest() > 0 || b.state.Pending() <= 0 {
		b.stats.Skipped++
		return Skipped
	}

	mode := b.state.RunMode()
	if b.policy == nil || b.policy.Mode() != mode {
		b.policy = policyFor(mode)
	}

	if b.policy == nil {
		b.logger.WithField("mode", mode).Warn("interrupt in unknown run mode")
		b.stats.Skipped++

		return Skipped
	}

	d := b.policy.Deliver(b, ctx)

	switch d {
	case Delivered:
		b.state.delivered()
		b.stats.Delivered++
	case Deferred:
		b.stats.Deferred++
	case Skipped:
		b.stats.Skipped++
	}

	b.state.rearm()

	b.logger.WithFields(logrus.Fields{
		"mode":    lowmem.ModeName(mode),
		"flags":   b.state.InterruptFlags(),
		"pending": b.state.Pending(),
	}).Debugf("interrupt %s", d)

	return d
}

// NanokernelInterrupt runs the nanokernel interrupt routine at entry the
// way the hardware interrupt path enters it, and returns once it executed
// the EXEC_RETURN trampoline.
func (b *Bridge) NanokernelInterrupt(entry uint32) error {
	r := b.regs()
	savedPC, savedLR, savedCTR, savedSP := r.PC, r.LR, r.CTR, r.GPR[1]

	r.GPR[1] = b.signalStack - 64

	b.mem.Write32(lowmem.KernelData(lowmem.KDSavedSP), r.GPR[1])
	b.mem.Write32(lowmem.KernelData(lowmem.KDSavedR6), r.GPR[6])

	r.GPR[6] = b.kernel(lowmem.KDContextB)
	for i := uint32(0); i < 7; i++ {
		b.mem.Write32(r.GPR[6]+lowmem.CtxSavedR7+8*i, r.GPR[7+i])
	}

	r.GPR[1] = lowmem.KernelDataAddr
	r.GPR[7] = b.kernel(lowmem.KDInterruptR7)
	r.GPR[8] = 0
	r.GPR[10] = b.execReturn
	r.GPR[12] = b.execReturn
	r.GPR[13] = r.CR

	// rlwimi. r7,r7,8,0,0
	v := r.GPR[7]&^0x80000000 | bits.RotateLeft32(r.GPR[7], 8)&0x80000000
	r.RecordCR0(v)
	r.GPR[7] = v

	// MSR image in SRR1.
	r.GPR[11] = 0xf072
	r.CR = r.GPR[11]&0x0fff0000 | r.CR&^0x0fff0000

	err := b.exec.Execute(entry)

	r.PC, r.LR, r.CTR, r.GPR[1] = savedPC, savedLR, savedCTR, savedSP

	return err
}
