package emu

import "github.com/sarchlab/sheepcore/insts"

// BO field bits.
const (
	boIgnoreCond = 0x10
	boCondTrue   = 0x08
	boIgnoreCTR  = 0x04
	boCTRZero    = 0x02
)

// BranchTaken evaluates the BO/BI condition, decrementing CTR when BO asks.
func (r *Registers) BranchTaken(bo, bi uint8, decrementCTR bool) bool {
	ctrOK := true
	if decrementCTR && bo&boIgnoreCTR == 0 {
		r.CTR--
		ctrOK = (r.CTR == 0) == (bo&boCTRZero != 0)
	}

	condOK := bo&boIgnoreCond != 0 || r.CRBit(bi) == (bo&boCondTrue != 0)

	return ctrOK && condOK
}

// BranchTarget returns the destination of an I-form or B-form branch at pc.
func BranchTarget(pc, op uint32) uint32 {
	var disp int32
	if insts.Primary(op) == 18 {
		disp = insts.LI(op)
	} else {
		disp = insts.BD(op)
	}

	if insts.AA(op) {
		return uint32(disp)
	}

	return pc + uint32(disp)
}

func opB(c *CPU, op uint32) {
	pc := c.Regs.PC
	if insts.LK(op) {
		c.Regs.LR = pc + 4
	}

	c.Regs.PC = BranchTarget(pc, op)
}

func opBC(c *CPU, op uint32) {
	pc := c.Regs.PC
	taken := c.Regs.BranchTaken(insts.BO(op), insts.BI(op), true)

	if insts.LK(op) {
		c.Regs.LR = pc + 4
	}

	if taken {
		c.Regs.PC = BranchTarget(pc, op)
	} else {
		c.Regs.PC = pc + 4
	}
}

func opBCLR(c *CPU, op uint32) {
	pc := c.Regs.PC
	target := c.Regs.LR &^ 3
	taken := c.Regs.BranchTaken(insts.BO(op), insts.BI(op), true)

	if insts.LK(op) {
		c.Regs.LR = pc + 4
	}

	if taken {
		c.Regs.PC = target
	} else {
		c.Regs.PC = pc + 4
	}
}

func opBCCTR(c *CPU, op uint32) {
	pc := c.Regs.PC
	target := c.Regs.CTR &^ 3
	taken := c.Regs.BranchTaken(insts.BO(op), insts.BI(op), false)

	if insts.LK(op) {
		c.Regs.LR = pc + 4
	}

	if taken {
		c.Regs.PC = target
	} else {
		c.Regs.PC = pc + 4
	}
}

// Condition register.

func crLogical(fn func(a, b bool) bool) Handler {
	return func(c *CPU, op uint32) {
		a := c.Regs.CRBit(insts.RA(op))
		b := c.Regs.CRBit(insts.RB(op))
		c.Regs.SetCRBit(insts.RD(op), fn(a, b))
		c.Regs.PC += 4
	}
}

func opMCRF(c *CPU, op uint32) {
	c.Regs.SetCRField(insts.CRFD(op), c.Regs.CRField(insts.CRFS(op)))
	c.Regs.PC += 4
}

func opMFCR(c *CPU, op uint32) {
	c.Regs.GPR[insts.RD(op)] = c.Regs.CR
	c.Regs.PC += 4
}

func opMTCRF(c *CPU, op uint32) {
	crm := insts.CRM(op)

	var mask uint32
	for i := 0; i < 8; i++ {
		if crm&(0x80>>i) != 0 {
			mask |= 0xf0000000 >> (4 * i)
		}
	}

	c.Regs.CR = c.Regs.CR&^mask | c.Regs.GPR[insts.RS(op)]&mask
	c.Regs.PC += 4
}

func opMCRXR(c *CPU, op uint32) {
	c.Regs.SetCRField(insts.CRFD(op), c.Regs.XER>>28)
	c.Regs.XER &^= 0xf0000000
	c.Regs.PC += 4
}
