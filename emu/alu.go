package emu

import (
	"math/bits"

	"github.com/sarchlab/sheepcore/insts"
)

// rA, or zero when the field names r0.
func (r *Registers) rA0(op uint32) uint32 {
	ra := insts.RA(op)
	if ra == 0 {
		return 0
	}

	return r.GPR[ra]
}

// addExtended returns a + b + cin with carry-out and signed overflow.
func addExtended(a, b, cin uint32) (sum uint32, ca, ov bool) {
	s := uint64(a) + uint64(b) + uint64(cin)
	sum = uint32(s)
	ca = s>>32 != 0
	ov = (^(a^b)&(a^sum))>>31 != 0

	return sum, ca, ov
}

func carryIn(r *Registers) uint32 {
	if r.CA() {
		return 1
	}

	return 0
}

// finishXO writes an XO-form result and updates OV and CR0 as requested.
func finishXO(c *CPU, op uint32, v uint32, ov bool) {
	c.Regs.GPR[insts.RD(op)] = v
	if insts.OE(op) {
		c.Regs.SetOV(ov)
	}

	if insts.Rc(op) {
		c.Regs.RecordCR0(v)
	}

	c.Regs.PC += 4
}

// finishLogical writes rA and updates CR0 for Rc forms.
func finishLogical(c *CPU, op uint32, v uint32) {
	c.Regs.GPR[insts.RA(op)] = v
	if insts.Rc(op) {
		c.Regs.RecordCR0(v)
	}

	c.Regs.PC += 4
}

func opADDI(c *CPU, op uint32) {
	c.Regs.GPR[insts.RD(op)] = c.Regs.rA0(op) + uint32(insts.SIMM(op))
	c.Regs.PC += 4
}

func opADDIS(c *CPU, op uint32) {
	c.Regs.GPR[insts.RD(op)] = c.Regs.rA0(op) + uint32(insts.SIMM(op))<<16
	c.Regs.PC += 4
}

// opADDIC covers addic and addic., which differ only in the primary opcode.
func opADDIC(c *CPU, op uint32) {
	v, ca, _ := addExtended(c.Regs.GPR[insts.RA(op)], uint32(insts.SIMM(op)), 0)
	c.Regs.GPR[insts.RD(op)] = v
	c.Regs.SetCA(ca)

	if insts.Primary(op) == 13 {
		c.Regs.RecordCR0(v)
	}

	c.Regs.PC += 4
}

func opSUBFIC(c *CPU, op uint32) {
	v, ca, _ := addExtended(^c.Regs.GPR[insts.RA(op)], uint32(insts.SIMM(op)), 1)
	c.Regs.GPR[insts.RD(op)] = v
	c.Regs.SetCA(ca)
	c.Regs.PC += 4
}

func opMULLI(c *CPU, op uint32) {
	c.Regs.GPR[insts.RD(op)] = uint32(int32(c.Regs.GPR[insts.RA(op)]) * insts.SIMM(op))
	c.Regs.PC += 4
}

func opADD(c *CPU, op uint32) {
	v, _, ov := addExtended(c.Regs.GPR[insts.RA(op)], c.Regs.GPR[insts.RB(op)], 0)
	finishXO(c, op, v, ov)
}

func opADDC(c *CPU, op uint32) {
	v, ca, ov := addExtended(c.Regs.GPR[insts.RA(op)], c.Regs.GPR[insts.RB(op)], 0)
	c.Regs.SetCA(ca)
	finishXO(c, op, v, ov)
}

func opADDE(c *CPU, op uint32) {
	v, ca, ov := addExtended(c.Regs.GPR[insts.RA(op)], c.Regs.GPR[insts.RB(op)], carryIn(&c.Regs))
	c.Regs.SetCA(ca)
	finishXO(c, op, v, ov)
}

func opADDZE(c *CPU, op uint32) {
	v, ca, ov := addExtended(c.Regs.GPR[insts.RA(op)], 0, carryIn(&c.Regs))
	c.Regs.SetCA(ca)
	finishXO(c, op, v, ov)
}

func opADDME(c *CPU, op uint32) {
	v, ca, ov := addExtended(c.Regs.GPR[insts.RA(op)], 0xffffffff, carryIn(&c.Regs))
	c.Regs.SetCA(ca)
	finishXO(c, op, v, ov)
}

func opSUBF(c *CPU, op uint32) {
	v, _, ov := addExtended(^c.Regs.GPR[insts.RA(op)], c.Regs.GPR[insts.RB(op)], 1)
	finishXO(c, op, v, ov)
}

func opSUBFC(c *CPU, op uint32) {
	v, ca, ov := addExtended(^c.Regs.GPR[insts.RA(op)], c.Regs.GPR[insts.RB(op)], 1)
	c.Regs.SetCA(ca)
	finishXO(c, op, v, ov)
}

func opSUBFE(c *CPU, op uint32) {
	v, ca, ov := addExtended(^c.Regs.GPR[insts.RA(op)], c.Regs.GPR[insts.RB(op)], carryIn(&c.Regs))
	c.Regs.SetCA(ca)
	finishXO(c, op, v, ov)
}

func opSUBFZE(c *CPU, op uint32) {
	v, ca, ov := addExtended(^c.Regs.GPR[insts.RA(op)], 0, carryIn(&c.Regs))
	c.Regs.SetCA(ca)
	finishXO(c, op, v, ov)
}

func opSUBFME(c *CPU, op uint32) {
	v, ca, ov := addExtended(^c.Regs.GPR[insts.RA(op)], 0xffffffff, carryIn(&c.Regs))
	c.Regs.SetCA(ca)
	finishXO(c, op, v, ov)
}

func opNEG(c *CPU, op uint32) {
	a := c.Regs.GPR[insts.RA(op)]
	finishXO(c, op, -a, a == 0x80000000)
}

func opMULLW(c *CPU, op uint32) {
	p := int64(int32(c.Regs.GPR[insts.RA(op)])) * int64(int32(c.Regs.GPR[insts.RB(op)]))
	finishXO(c, op, uint32(p), p != int64(int32(p)))
}

func opMULHW(c *CPU, op uint32) {
	p := int64(int32(c.Regs.GPR[insts.RA(op)])) * int64(int32(c.Regs.GPR[insts.RB(op)]))
	finishXO(c, op, uint32(p>>32), false)
}

func opMULHWU(c *CPU, op uint32) {
	hi, _ := bits.Mul32(c.Regs.GPR[insts.RA(op)], c.Regs.GPR[insts.RB(op)])
	finishXO(c, op, hi, false)
}

func opDIVW(c *CPU, op uint32) {
	a := int32(c.Regs.GPR[insts.RA(op)])
	b := int32(c.Regs.GPR[insts.RB(op)])

	if b == 0 || (a == -0x80000000 && b == -1) {
		// Undefined result; match the G4, which yields the sign of rA.
		finishXO(c, op, uint32(a>>31), true)
		return
	}

	finishXO(c, op, uint32(a/b), false)
}

func opDIVWU(c *CPU, op uint32) {
	a := c.Regs.GPR[insts.RA(op)]
	b := c.Regs.GPR[insts.RB(op)]

	if b == 0 {
		finishXO(c, op, 0, true)
		return
	}

	finishXO(c, op, a/b, false)
}

// Logical immediates.

func opORI(c *CPU, op uint32) {
	c.Regs.GPR[insts.RA(op)] = c.Regs.GPR[insts.RS(op)] | insts.UIMM(op)
	c.Regs.PC += 4
}

func opORIS(c *CPU, op uint32) {
	c.Regs.GPR[insts.RA(op)] = c.Regs.GPR[insts.RS(op)] | insts.UIMM(op)<<16
	c.Regs.PC += 4
}

func opXORI(c *CPU, op uint32) {
	c.Regs.GPR[insts.RA(op)] = c.Regs.GPR[insts.RS(op)] ^ insts.UIMM(op)
	c.Regs.PC += 4
}

func opXORIS(c *CPU, op uint32) {
	c.Regs.GPR[insts.RA(op)] = c.Regs.GPR[insts.RS(op)] ^ insts.UIMM(op)<<16
	c.Regs.PC += 4
}

func opANDIo(c *CPU, op uint32) {
	v := c.Regs.GPR[insts.RS(op)] & insts.UIMM(op)
	c.Regs.GPR[insts.RA(op)] = v
	c.Regs.RecordCR0(v)
	c.Regs.PC += 4
}

func opANDISo(c *CPU, op uint32) {
	v := c.Regs.GPR[insts.RS(op)] & (insts.UIMM(op) << 16)
	c.Regs.GPR[insts.RA(op)] = v
	c.Regs.RecordCR0(v)
	c.Regs.PC += 4
}

// logicalX builds an X-form rA = fn(rS, rB) handler.
func logicalX(fn func(s, b uint32) uint32) Handler {
	return func(c *CPU, op uint32) {
		finishLogical(c, op, fn(c.Regs.GPR[insts.RS(op)], c.Regs.GPR[insts.RB(op)]))
	}
}

func opEXTSB(c *CPU, op uint32) {
	finishLogical(c, op, uint32(int32(int8(c.Regs.GPR[insts.RS(op)]))))
}

func opEXTSH(c *CPU, op uint32) {
	finishLogical(c, op, uint32(int32(int16(c.Regs.GPR[insts.RS(op)]))))
}

func opCNTLZW(c *CPU, op uint32) {
	finishLogical(c, op, uint32(bits.LeadingZeros32(c.Regs.GPR[insts.RS(op)])))
}

// MaskMBME returns the rotate mask with ones from bit mb through bit me
// (big-endian bit numbering), wrapping when mb > me.
func MaskMBME(mb, me uint8) uint32 {
	begin := uint32(0xffffffff) >> (mb & 31)
	end := uint32(0xffffffff) << (31 - (me & 31))

	if mb <= me {
		return begin & end
	}

	return begin | end
}

func opRLWINM(c *CPU, op uint32) {
	v := bits.RotateLeft32(c.Regs.GPR[insts.RS(op)], int(insts.SH(op)))
	finishLogical(c, op, v&MaskMBME(insts.MB(op), insts.ME(op)))
}

func opRLWNM(c *CPU, op uint32) {
	n := c.Regs.GPR[insts.RB(op)] & 31
	v := bits.RotateLeft32(c.Regs.GPR[insts.RS(op)], int(n))
	finishLogical(c, op, v&MaskMBME(insts.MB(op), insts.ME(op)))
}

func opRLWIMI(c *CPU, op uint32) {
	m := MaskMBME(insts.MB(op), insts.ME(op))
	v := bits.RotateLeft32(c.Regs.GPR[insts.RS(op)], int(insts.SH(op)))
	finishLogical(c, op, v&m|c.Regs.GPR[insts.RA(op)]&^m)
}

func opSLW(c *CPU, op uint32) {
	n := c.Regs.GPR[insts.RB(op)] & 0x3f

	var v uint32
	if n < 32 {
		v = c.Regs.GPR[insts.RS(op)] << n
	}

	finishLogical(c, op, v)
}

func opSRW(c *CPU, op uint32) {
	n := c.Regs.GPR[insts.RB(op)] & 0x3f

	var v uint32
	if n < 32 {
		v = c.Regs.GPR[insts.RS(op)] >> n
	}

	finishLogical(c, op, v)
}

// shiftRightAlgebraic returns int32(s) >> n and the carry out, which is set
// when s is negative and any one bits were shifted out.
func shiftRightAlgebraic(s, n uint32) (uint32, bool) {
	if n > 31 {
		neg := int32(s) < 0
		return uint32(int32(s) >> 31), neg
	}

	v := uint32(int32(s) >> n)
	ca := int32(s) < 0 && s&(1<<n-1) != 0

	return v, ca
}

func opSRAW(c *CPU, op uint32) {
	v, ca := shiftRightAlgebraic(c.Regs.GPR[insts.RS(op)], c.Regs.GPR[insts.RB(op)]&0x3f)
	c.Regs.SetCA(ca)
	finishLogical(c, op, v)
}

func opSRAWI(c *CPU, op uint32) {
	v, ca := shiftRightAlgebraic(c.Regs.GPR[insts.RS(op)], uint32(insts.SH(op)))
	c.Regs.SetCA(ca)
	finishLogical(c, op, v)
}

// Compares.

func opCMPI(c *CPU, op uint32) {
	a, b := int32(c.Regs.GPR[insts.RA(op)]), insts.SIMM(op)
	c.Regs.SetCRField(insts.CRFD(op), c.Regs.CompareField(a < b, a > b))
	c.Regs.PC += 4
}

func opCMPLI(c *CPU, op uint32) {
	a, b := c.Regs.GPR[insts.RA(op)], insts.UIMM(op)
	c.Regs.SetCRField(insts.CRFD(op), c.Regs.CompareField(a < b, a > b))
	c.Regs.PC += 4
}

func opCMP(c *CPU, op uint32) {
	a, b := int32(c.Regs.GPR[insts.RA(op)]), int32(c.Regs.GPR[insts.RB(op)])
	c.Regs.SetCRField(insts.CRFD(op), c.Regs.CompareField(a < b, a > b))
	c.Regs.PC += 4
}

func opCMPL(c *CPU, op uint32) {
	a, b := c.Regs.GPR[insts.RA(op)], c.Regs.GPR[insts.RB(op)]
	c.Regs.SetCRField(insts.CRFD(op), c.Regs.CompareField(a < b, a > b))
	c.Regs.PC += 4
}
