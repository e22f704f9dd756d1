package emu

import "github.com/sarchlab/sheepcore/insts"

// Lane arithmetic on packed words: each byte or halfword wraps on its own.

const (
	hiBytes  = 0x80808080
	hiHalves = 0x80008000
)

func addBytes(a, b uint32) uint32 {
	return ((a &^ hiBytes) + (b &^ hiBytes)) ^ ((a ^ b) & hiBytes)
}

func addHalves(a, b uint32) uint32 {
	return ((a &^ hiHalves) + (b &^ hiHalves)) ^ ((a ^ b) & hiHalves)
}

func subBytes(a, b uint32) uint32 {
	return ((a | hiBytes) - (b &^ hiBytes)) ^ ((a ^ ^b) & hiBytes)
}

func subHalves(a, b uint32) uint32 {
	return ((a | hiHalves) - (b &^ hiHalves)) ^ ((a ^ ^b) & hiHalves)
}

// vecWords builds a VX-form handler applying fn to each word of vA and vB.
func vecWords(fn func(a, b uint32) uint32) Handler {
	return func(c *CPU, op uint32) {
		a := &c.Regs.VR[insts.RA(op)]
		b := &c.Regs.VR[insts.RB(op)]

		var d [4]uint32
		for i := range d {
			d[i] = fn(a[i], b[i])
		}

		c.Regs.VR[insts.RD(op)] = d
		c.Regs.PC += 4
	}
}

// VectorByte returns byte i (0 is most significant) of v.
func VectorByte(v *[4]uint32, i int) uint8 {
	return uint8(v[i/4] >> (24 - 8*uint(i%4)))
}

func opVSEL(c *CPU, op uint32) {
	a := c.Regs.VR[insts.RA(op)]
	b := c.Regs.VR[insts.RB(op)]
	m := c.Regs.VR[insts.RC(op)]

	var d [4]uint32
	for i := range d {
		d[i] = a[i]&^m[i] | b[i]&m[i]
	}

	c.Regs.VR[insts.RD(op)] = d
	c.Regs.PC += 4
}

func opVPERM(c *CPU, op uint32) {
	a := c.Regs.VR[insts.RA(op)]
	b := c.Regs.VR[insts.RB(op)]
	sel := c.Regs.VR[insts.RC(op)]

	var d [4]uint32
	for i := 0; i < 16; i++ {
		idx := int(VectorByte(&sel, i) & 0x1f)

		src := &a
		if idx >= 16 {
			src = &b
		}

		d[i/4] |= uint32(VectorByte(src, idx&15)) << (24 - 8*uint(i%4))
	}

	c.Regs.VR[insts.RD(op)] = d
	c.Regs.PC += 4
}

func splat(c *CPU, op uint32, word uint32) {
	c.Regs.VR[insts.RD(op)] = [4]uint32{word, word, word, word}
	c.Regs.PC += 4
}

func opVSPLTISB(c *CPU, op uint32) {
	splat(c, op, uint32(uint8(insts.VSIMM(op)))*0x01010101)
}

func opVSPLTISH(c *CPU, op uint32) {
	splat(c, op, uint32(uint16(insts.VSIMM(op)))*0x00010001)
}

func opVSPLTISW(c *CPU, op uint32) {
	splat(c, op, uint32(insts.VSIMM(op)))
}

func opMFVSCR(c *CPU, op uint32) {
	c.Regs.VR[insts.RD(op)] = [4]uint32{0, 0, 0, c.Regs.VSCR}
	c.Regs.PC += 4
}

func opMTVSCR(c *CPU, op uint32) {
	c.Regs.VSCR = c.Regs.VR[insts.RB(op)][3]
	c.Regs.PC += 4
}
