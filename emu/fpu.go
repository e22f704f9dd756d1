package emu

import (
	"math"

	"github.com/sarchlab/sheepcore/insts"
)

const signBit = uint64(1) << 63

// FPSCR fields used by the interpreter. Exception status bits are not
// tracked.
const (
	fpscrRN   = 0x3       // rounding mode
	fpscrFPCC = 0xf << 12 // floating-point condition code
)

func fmadd(a, b, c float64) float64  { return math.FMA(a, c, b) }
func fmsub(a, b, c float64) float64  { return math.FMA(a, c, -b) }
func fnmadd(a, b, c float64) float64 { return -math.FMA(a, c, b) }
func fnmsub(a, b, c float64) float64 { return -math.FMA(a, c, -b) }

func fsel(a, b, c float64) float64 {
	if a >= 0 {
		return c
	}

	return b
}

// finishFP writes frD and records cr1 for Rc forms.
func finishFP(c *CPU, op uint32, v float64) {
	c.Regs.FPR[insts.RD(op)] = v
	if insts.Rc(op) {
		c.Regs.RecordCR1()
	}

	c.Regs.PC += 4
}

// fpArith builds an A-form handler computing fn(frA, frB, frC).
func fpArith(single bool, fn func(a, b, c float64) float64) Handler {
	return func(c *CPU, op uint32) {
		r := &c.Regs
		v := fn(r.FPR[insts.RA(op)], r.FPR[insts.RB(op)], r.FPR[insts.RC(op)])

		if single {
			v = float64(float32(v))
		}

		finishFP(c, op, v)
	}
}

// fpMove builds a handler transforming the bits of frB.
func fpMove(fn func(b uint64) uint64) Handler {
	return func(c *CPU, op uint32) {
		b := math.Float64bits(c.Regs.FPR[insts.RB(op)])
		finishFP(c, op, math.Float64frombits(fn(b)))
	}
}

func opFRSP(c *CPU, op uint32) {
	finishFP(c, op, float64(float32(c.Regs.FPR[insts.RB(op)])))
}

// roundToInt rounds v according to the FPSCR rounding mode.
func roundToInt(v float64, mode uint32) float64 {
	switch mode & fpscrRN {
	case 1:
		return math.Trunc(v)
	case 2:
		return math.Ceil(v)
	case 3:
		return math.Floor(v)
	default:
		return math.RoundToEven(v)
	}
}

func convertToWord(c *CPU, op uint32, mode uint32) {
	v := c.Regs.FPR[insts.RB(op)]

	var w int32
	switch {
	case math.IsNaN(v):
		w = math.MinInt32
	case v >= math.MaxInt32:
		w = math.MaxInt32
	case v <= math.MinInt32:
		w = math.MinInt32
	default:
		w = int32(roundToInt(v, mode))
	}

	finishFP(c, op, math.Float64frombits(0xfff80000_00000000|uint64(uint32(w))))
}

func opFCTIW(c *CPU, op uint32) {
	convertToWord(c, op, c.Regs.FPSCR)
}

func opFCTIWZ(c *CPU, op uint32) {
	convertToWord(c, op, 1)
}

func opFCMP(c *CPU, op uint32) {
	a := c.Regs.FPR[insts.RA(op)]
	b := c.Regs.FPR[insts.RB(op)]

	var field uint32
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		field = CRSO
	case a < b:
		field = CRLT
	case a > b:
		field = CRGT
	default:
		field = CREQ
	}

	c.Regs.SetCRField(insts.CRFD(op), field)
	c.Regs.FPSCR = c.Regs.FPSCR&^fpscrFPCC | field<<12
	c.Regs.PC += 4
}

func opMFFS(c *CPU, op uint32) {
	finishFP(c, op, math.Float64frombits(uint64(c.Regs.FPSCR)))
}

func opMTFSF(c *CPU, op uint32) {
	fm := insts.FM(op)
	src := uint32(math.Float64bits(c.Regs.FPR[insts.RB(op)]))

	var mask uint32
	for i := 0; i < 8; i++ {
		if fm&(0x80>>i) != 0 {
			mask |= 0xf0000000 >> (4 * i)
		}
	}

	c.Regs.FPSCR = c.Regs.FPSCR&^mask | src&mask
	if insts.Rc(op) {
		c.Regs.RecordCR1()
	}

	c.Regs.PC += 4
}

func opMTFSFI(c *CPU, op uint32) {
	shift := 28 - 4*uint32(insts.CRFD(op))
	imm := (op >> 12) & 0xf

	c.Regs.FPSCR = c.Regs.FPSCR&^(0xf<<shift) | imm<<shift
	if insts.Rc(op) {
		c.Regs.RecordCR1()
	}

	c.Regs.PC += 4
}

func opMTFSB0(c *CPU, op uint32) {
	c.Regs.FPSCR &^= 1 << (31 - uint32(insts.RD(op)))
	if insts.Rc(op) {
		c.Regs.RecordCR1()
	}

	c.Regs.PC += 4
}

func opMTFSB1(c *CPU, op uint32) {
	c.Regs.FPSCR |= 1 << (31 - uint32(insts.RD(op)))
	if insts.Rc(op) {
		c.Regs.RecordCR1()
	}

	c.Regs.PC += 4
}
