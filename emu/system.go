package emu

import "github.com/sarchlab/sheepcore/insts"

// User-level SPRs the CPU implements directly. Everything else goes to the
// fault handler as an illegal instruction.
const (
	sprXER    = 1
	sprLR     = 8
	sprCTR    = 9
	sprVRSAVE = 256
	sprTBL    = 268
	sprTBU    = 269
)

func opMFSPR(c *CPU, op uint32) {
	var v uint32

	switch insts.SPR(op) {
	case sprXER:
		v = c.Regs.XER
	case sprLR:
		v = c.Regs.LR
	case sprCTR:
		v = c.Regs.CTR
	case sprVRSAVE:
		v = c.Regs.VRSAVE
	case sprTBL:
		v = uint32(c.TimeBase())
	case sprTBU:
		v = uint32(c.TimeBase() >> 32)
	default:
		c.Illegal(op)
		return
	}

	c.Regs.GPR[insts.RD(op)] = v
	c.Regs.PC += 4
}

func opMTSPR(c *CPU, op uint32) {
	v := c.Regs.GPR[insts.RS(op)]

	switch insts.SPR(op) {
	case sprXER:
		c.Regs.XER = v
	case sprLR:
		c.Regs.LR = v
	case sprCTR:
		c.Regs.CTR = v
	case sprVRSAVE:
		c.Regs.VRSAVE = v
	default:
		c.Illegal(op)
		return
	}

	c.Regs.PC += 4
}

func opMFTB(c *CPU, op uint32) {
	tb := c.TimeBase()

	switch insts.SPR(op) {
	case sprTBL:
		c.Regs.GPR[insts.RD(op)] = uint32(tb)
	case sprTBU:
		c.Regs.GPR[insts.RD(op)] = uint32(tb >> 32)
	default:
		c.Illegal(op)
		return
	}

	c.Regs.PC += 4
}

// icbi invalidates the 32-byte cache block holding the EA.
func opICBI(c *CPU, op uint32) {
	ea := c.Regs.EffectiveAddress(op, true) &^ 31
	if c.invalidator != nil {
		c.invalidator.InvalidateCode(ea, ea+32)
	}

	c.Regs.PC += 4
}

// trapCondition evaluates the TO field against a and b.
func trapCondition(to uint8, a, b uint32) bool {
	sa, sb := int32(a), int32(b)

	return (to&0x10 != 0 && sa < sb) ||
		(to&0x08 != 0 && sa > sb) ||
		(to&0x04 != 0 && a == b) ||
		(to&0x02 != 0 && a < b) ||
		(to&0x01 != 0 && a > b)
}

func opTW(c *CPU, op uint32) {
	if trapCondition(insts.RD(op), c.Regs.GPR[insts.RA(op)], c.Regs.GPR[insts.RB(op)]) {
		c.Illegal(op)
		return
	}

	c.Regs.PC += 4
}

func opTWI(c *CPU, op uint32) {
	if trapCondition(insts.RD(op), c.Regs.GPR[insts.RA(op)], uint32(insts.SIMM(op))) {
		c.Illegal(op)
		return
	}

	c.Regs.PC += 4
}

func opSC(c *CPU, op uint32) {
	if c.syscalls == nil {
		c.Illegal(op)
		return
	}

	res := c.syscalls.Handle()
	if res.Exited {
		c.exited = true
		c.exitCode = res.ExitCode
		c.Flags.Set(SpcEmulReturn)
	}

	c.Regs.PC += 4
}

func opSheep(c *CPU, op uint32) {
	switch sel := insts.SheepSelector(op); sel {
	case insts.SheepEmulReturn:
		c.Flags.Set(SpcEmulReturn)
	case insts.SheepExecReturn:
		c.Flags.Set(SpcExecReturn)
	case insts.SheepExecNative:
		if c.sheep == nil {
			c.Illegal(op)
			return
		}

		c.sheep.NativeOp(c, insts.NativeSelector(op), insts.NativeReturnsToLR(op))
	default:
		if c.sheep == nil {
			c.Illegal(op)
			return
		}

		c.sheep.EmulOp(c, op, sel-insts.SheepEmulOpBase)
	}
}
