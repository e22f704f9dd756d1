package emu

import (
	"math"
	"math/bits"

	"github.com/sarchlab/sheepcore/insts"
)

// EffectiveAddress computes the EA of a D-form (rA|0)+d or X-form (rA|0)+rB
// access.
func (r *Registers) EffectiveAddress(op uint32, indexed bool) uint32 {
	if indexed {
		return r.rA0(op) + r.GPR[insts.RB(op)]
	}

	return r.rA0(op) + uint32(insts.SIMM(op))
}

// load reads size bytes at ea, routing a refusal to the fault handler.
func (c *CPU) load(op, ea uint32, size uint8) (uint32, bool) {
	var (
		v uint32
		f *Fault
	)

	switch size {
	case 1:
		var b uint8
		b, f = c.mem.Load8(ea)
		v = uint32(b)
	case 2:
		var h uint16
		h, f = c.mem.Load16(ea)
		v = uint32(h)
	default:
		v, f = c.mem.Load32(ea)
	}

	if f != nil {
		c.fault(op, f)
		return 0, false
	}

	return v, true
}

// store writes size bytes at ea, routing a refusal to the fault handler.
func (c *CPU) store(op, ea uint32, size uint8, v uint32) bool {
	var f *Fault

	switch size {
	case 1:
		f = c.mem.Store8(ea, uint8(v))
	case 2:
		f = c.mem.Store16(ea, uint16(v))
	default:
		f = c.mem.Store32(ea, v)
	}

	if f != nil {
		c.fault(op, f)
		return false
	}

	return true
}

func (c *CPU) load64(op, ea uint32) (uint64, bool) {
	v, f := c.mem.Load64(ea)
	if f != nil {
		c.fault(op, f)
		return 0, false
	}

	return v, true
}

func (c *CPU) store64(op, ea uint32, v uint64) bool {
	if f := c.mem.Store64(ea, v); f != nil {
		c.fault(op, f)
		return false
	}

	return true
}

func makeLoad(size uint8, signExtend, indexed, update bool) Handler {
	return func(c *CPU, op uint32) {
		ea := c.Regs.EffectiveAddress(op, indexed)

		v, ok := c.load(op, ea, size)
		if !ok {
			return
		}

		if signExtend {
			v = uint32(int32(int16(v)))
		}

		c.Regs.GPR[insts.RD(op)] = v
		if update {
			c.Regs.GPR[insts.RA(op)] = ea
		}

		c.Regs.PC += 4
	}
}

func makeStore(size uint8, indexed, update bool) Handler {
	return func(c *CPU, op uint32) {
		ea := c.Regs.EffectiveAddress(op, indexed)

		if !c.store(op, ea, size, c.Regs.GPR[insts.RS(op)]) {
			return
		}

		if update {
			c.Regs.GPR[insts.RA(op)] = ea
		}

		c.Regs.PC += 4
	}
}

func opLMW(c *CPU, op uint32) {
	ea := c.Regs.EffectiveAddress(op, false)

	for r := insts.RD(op); r < 32; r++ {
		v, ok := c.load(op, ea, 4)
		if !ok {
			return
		}

		c.Regs.GPR[r] = v
		ea += 4
	}

	c.Regs.PC += 4
}

func opSTMW(c *CPU, op uint32) {
	ea := c.Regs.EffectiveAddress(op, false)

	for r := insts.RS(op); r < 32; r++ {
		if !c.store(op, ea, 4, c.Regs.GPR[r]) {
			return
		}

		ea += 4
	}

	c.Regs.PC += 4
}

func opLWBRX(c *CPU, op uint32) {
	v, ok := c.load(op, c.Regs.EffectiveAddress(op, true), 4)
	if !ok {
		return
	}

	c.Regs.GPR[insts.RD(op)] = bits.ReverseBytes32(v)
	c.Regs.PC += 4
}

func opSTWBRX(c *CPU, op uint32) {
	v := bits.ReverseBytes32(c.Regs.GPR[insts.RS(op)])
	if !c.store(op, c.Regs.EffectiveAddress(op, true), 4, v) {
		return
	}

	c.Regs.PC += 4
}

func opLHBRX(c *CPU, op uint32) {
	v, ok := c.load(op, c.Regs.EffectiveAddress(op, true), 2)
	if !ok {
		return
	}

	c.Regs.GPR[insts.RD(op)] = uint32(bits.ReverseBytes16(uint16(v)))
	c.Regs.PC += 4
}

func opSTHBRX(c *CPU, op uint32) {
	v := uint32(bits.ReverseBytes16(uint16(c.Regs.GPR[insts.RS(op)])))
	if !c.store(op, c.Regs.EffectiveAddress(op, true), 2, v) {
		return
	}

	c.Regs.PC += 4
}

func opLWARX(c *CPU, op uint32) {
	ea := c.Regs.EffectiveAddress(op, true)

	v, ok := c.load(op, ea, 4)
	if !ok {
		return
	}

	c.Regs.GPR[insts.RD(op)] = v
	c.Regs.ResValid = true
	c.Regs.ResAddr = ea
	c.Regs.PC += 4
}

func opSTWCX(c *CPU, op uint32) {
	ea := c.Regs.EffectiveAddress(op, true)

	field := uint32(0)
	if c.Regs.XER&XERSO != 0 {
		field = CRSO
	}

	if c.Regs.ResValid && c.Regs.ResAddr == ea {
		if !c.store(op, ea, 4, c.Regs.GPR[insts.RS(op)]) {
			return
		}

		field |= CREQ
	}

	c.Regs.ResValid = false
	c.Regs.SetCRField(0, field)
	c.Regs.PC += 4
}

func opDCBZ(c *CPU, op uint32) {
	ea := c.Regs.EffectiveAddress(op, true) &^ 31

	for i := uint32(0); i < 32; i += 8 {
		if !c.store64(op, ea+i, 0) {
			return
		}
	}

	c.Regs.PC += 4
}

// Floating-point loads and stores.

func makeLoadFP(double, indexed, update bool) Handler {
	return func(c *CPU, op uint32) {
		ea := c.Regs.EffectiveAddress(op, indexed)

		var v float64
		if double {
			b, ok := c.load64(op, ea)
			if !ok {
				return
			}
			v = math.Float64frombits(b)
		} else {
			b, ok := c.load(op, ea, 4)
			if !ok {
				return
			}
			v = float64(math.Float32frombits(b))
		}

		c.Regs.FPR[insts.RD(op)] = v
		if update {
			c.Regs.GPR[insts.RA(op)] = ea
		}

		c.Regs.PC += 4
	}
}

func makeStoreFP(double, indexed, update bool) Handler {
	return func(c *CPU, op uint32) {
		ea := c.Regs.EffectiveAddress(op, indexed)
		v := c.Regs.FPR[insts.RS(op)]

		var ok bool
		if double {
			ok = c.store64(op, ea, math.Float64bits(v))
		} else {
			ok = c.store(op, ea, 4, math.Float32bits(float32(v)))
		}

		if !ok {
			return
		}

		if update {
			c.Regs.GPR[insts.RA(op)] = ea
		}

		c.Regs.PC += 4
	}
}

func opSTFIWX(c *CPU, op uint32) {
	v := uint32(math.Float64bits(c.Regs.FPR[insts.RS(op)]))
	if !c.store(op, c.Regs.EffectiveAddress(op, true), 4, v) {
		return
	}

	c.Regs.PC += 4
}

// Vector loads and stores ignore the low four EA bits.

func opLVX(c *CPU, op uint32) {
	ea := c.Regs.EffectiveAddress(op, true) &^ 15

	var v [4]uint32
	for i := range v {
		w, ok := c.load(op, ea+uint32(4*i), 4)
		if !ok {
			return
		}
		v[i] = w
	}

	c.Regs.VR[insts.RD(op)] = v
	c.Regs.PC += 4
}

func opSTVX(c *CPU, op uint32) {
	ea := c.Regs.EffectiveAddress(op, true) &^ 15
	v := c.Regs.VR[insts.RS(op)]

	for i, w := range v {
		if !c.store(op, ea+uint32(4*i), 4, w) {
			return
		}
	}

	c.Regs.PC += 4
}
