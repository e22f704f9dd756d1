package jit

import (
	"math/bits"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
)

// ClosureBackend specialises common integer instructions into Go closures
// with their operands bound at compile time. It runs on every host.
type ClosureBackend struct{}

// NewClosureBackend creates the closure backend.
func NewClosureBackend() *ClosureBackend {
	return &ClosureBackend{}
}

// Compile1 returns a closure for op, or false when op is left to the
// interpreter. Record and overflow forms are never specialised.
func (*ClosureBackend) Compile1(op uint32, info *insts.InstrInfo) (func(*emu.CPU), bool) {
	d, a, b := insts.RD(op), insts.RA(op), insts.RB(op)
	simm := uint32(insts.SIMM(op))
	uimm := insts.UIMM(op)

	switch info.Op {
	case insts.OpADDI:
		if a == 0 {
			return func(c *emu.CPU) {
				c.Regs.GPR[d] = simm
				c.Regs.PC += 4
			}, true
		}

		return func(c *emu.CPU) {
			c.Regs.GPR[d] = c.Regs.GPR[a] + simm
			c.Regs.PC += 4
		}, true

	case insts.OpADDIS:
		hi := simm << 16
		if a == 0 {
			return func(c *emu.CPU) {
				c.Regs.GPR[d] = hi
				c.Regs.PC += 4
			}, true
		}

		return func(c *emu.CPU) {
			c.Regs.GPR[d] = c.Regs.GPR[a] + hi
			c.Regs.PC += 4
		}, true

	case insts.OpORI:
		return func(c *emu.CPU) {
			c.Regs.GPR[a] = c.Regs.GPR[d] | uimm
			c.Regs.PC += 4
		}, true

	case insts.OpORIS:
		return func(c *emu.CPU) {
			c.Regs.GPR[a] = c.Regs.GPR[d] | uimm<<16
			c.Regs.PC += 4
		}, true

	case insts.OpXORI:
		return func(c *emu.CPU) {
			c.Regs.GPR[a] = c.Regs.GPR[d] ^ uimm
			c.Regs.PC += 4
		}, true

	case insts.OpCMPI:
		f := insts.CRFD(op)
		imm := insts.SIMM(op)
		return func(c *emu.CPU) {
			v := int32(c.Regs.GPR[a])
			c.Regs.SetCRField(f, c.Regs.CompareField(v < imm, v > imm))
			c.Regs.PC += 4
		}, true

	case insts.OpCMPLI:
		f := insts.CRFD(op)
		return func(c *emu.CPU) {
			v := c.Regs.GPR[a]
			c.Regs.SetCRField(f, c.Regs.CompareField(v < uimm, v > uimm))
			c.Regs.PC += 4
		}, true

	case insts.OpCMP:
		f := insts.CRFD(op)
		return func(c *emu.CPU) {
			x, y := int32(c.Regs.GPR[a]), int32(c.Regs.GPR[b])
			c.Regs.SetCRField(f, c.Regs.CompareField(x < y, x > y))
			c.Regs.PC += 4
		}, true

	case insts.OpCMPL:
		f := insts.CRFD(op)
		return func(c *emu.CPU) {
			x, y := c.Regs.GPR[a], c.Regs.GPR[b]
			c.Regs.SetCRField(f, c.Regs.CompareField(x < y, x > y))
			c.Regs.PC += 4
		}, true

	case insts.OpRLWINM:
		if insts.Rc(op) {
			return nil, false
		}

		sh := int(insts.SH(op))
		m := emu.MaskMBME(insts.MB(op), insts.ME(op))

		return func(c *emu.CPU) {
			c.Regs.GPR[a] = bits.RotateLeft32(c.Regs.GPR[d], sh) & m
			c.Regs.PC += 4
		}, true
	}

	if insts.Rc(op) || (info.Format == insts.FormatXO && insts.OE(op)) {
		return nil, false
	}

	// rT = fn(x, y) with x, y read from the named registers.
	bin := func(t, x, y uint8, fn func(x, y uint32) uint32) (func(*emu.CPU), bool) {
		return func(c *emu.CPU) {
			c.Regs.GPR[t] = fn(c.Regs.GPR[x], c.Regs.GPR[y])
			c.Regs.PC += 4
		}, true
	}

	switch info.Op {
	case insts.OpADD:
		return bin(d, a, b, func(x, y uint32) uint32 { return x + y })
	case insts.OpSUBF:
		return bin(d, a, b, func(x, y uint32) uint32 { return y - x })
	case insts.OpMULLW:
		return bin(d, a, b, func(x, y uint32) uint32 { return x * y })
	case insts.OpNEG:
		return bin(d, a, a, func(x, _ uint32) uint32 { return -x })
	case insts.OpAND:
		return bin(a, d, b, func(x, y uint32) uint32 { return x & y })
	case insts.OpANDC:
		return bin(a, d, b, func(x, y uint32) uint32 { return x &^ y })
	case insts.OpOR:
		if d == b {
			return func(c *emu.CPU) {
				c.Regs.GPR[a] = c.Regs.GPR[d]
				c.Regs.PC += 4
			}, true
		}

		return bin(a, d, b, func(x, y uint32) uint32 { return x | y })
	case insts.OpXOR:
		return bin(a, d, b, func(x, y uint32) uint32 { return x ^ y })
	case insts.OpNOR:
		return bin(a, d, b, func(x, y uint32) uint32 { return ^(x | y) })
	case insts.OpSLW:
		return bin(a, d, b, func(x, y uint32) uint32 {
			if y&0x20 != 0 {
				return 0
			}
			return x << (y & 0x1f)
		})
	case insts.OpSRW:
		return bin(a, d, b, func(x, y uint32) uint32 {
			if y&0x20 != 0 {
				return 0
			}
			return x >> (y & 0x1f)
		})
	case insts.OpEXTSB:
		return bin(a, d, d, func(x, _ uint32) uint32 { return uint32(int32(int8(x))) })
	case insts.OpEXTSH:
		return bin(a, d, d, func(x, _ uint32) uint32 { return uint32(int32(int16(x))) })
	}

	return nil, false
}
