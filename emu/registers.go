// Package emu provides functional PowerPC emulation: the register file,
// guest memory and one interpretive handler per decoded operation.
package emu

// XER bits.
const (
	XERSO uint32 = 1 << 31 // Summary overflow
	XEROV uint32 = 1 << 30 // Overflow
	XERCA uint32 = 1 << 29 // Carry
	// XERByteCount masks the string-instruction byte count.
	XERByteCount uint32 = 0x7f
)

// CR field bits, most significant first within a 4-bit field.
const (
	CRLT uint32 = 8
	CRGT uint32 = 4
	CREQ uint32 = 2
	CRSO uint32 = 1
)

// Registers represents the PowerPC user-level register file.
type Registers struct {
	// GPR holds general-purpose registers r0-r31.
	GPR [32]uint32

	// FPR holds floating-point registers f0-f31 in double precision.
	FPR [32]float64

	// VR holds AltiVec registers v0-v31 as four big-endian words each.
	VR [32][4]uint32

	// VSCR is the vector status and control register.
	VSCR uint32

	// VRSAVE is the vector save register.
	VRSAVE uint32

	// CR holds eight 4-bit condition fields, cr0 in the top nibble.
	CR uint32

	// XER holds SO/OV/CA and the byte count.
	XER uint32

	// FPSCR is the floating-point status and control register.
	FPSCR uint32

	// LR, CTR and PC. PC always addresses the next instruction to decode.
	LR  uint32
	CTR uint32
	PC  uint32

	// Reservation established by lwarx.
	ResValid bool
	ResAddr  uint32
}

// Gpr returns rI.
func (r *Registers) Gpr(i int) uint32 { return r.GPR[i&31] }

// SetGpr writes rI.
func (r *Registers) SetGpr(i int, v uint32) { r.GPR[i&31] = v }

// GetPC returns the program counter.
func (r *Registers) GetPC() uint32 { return r.PC }

// SetPC sets the program counter.
func (r *Registers) SetPC(v uint32) { r.PC = v }

// GetLR returns the link register.
func (r *Registers) GetLR() uint32 { return r.LR }

// SetLR sets the link register.
func (r *Registers) SetLR(v uint32) { r.LR = v }

// GetCTR returns the count register.
func (r *Registers) GetCTR() uint32 { return r.CTR }

// SetCTR sets the count register.
func (r *Registers) SetCTR(v uint32) { r.CTR = v }

// GetCR returns the condition register.
func (r *Registers) GetCR() uint32 { return r.CR }

// SetCR sets the condition register.
func (r *Registers) SetCR(v uint32) { r.CR = v }

// GetXER returns the fixed-point exception register.
func (r *Registers) GetXER() uint32 { return r.XER }

// SetXER sets the fixed-point exception register.
func (r *Registers) SetXER(v uint32) { r.XER = v }

// CRField returns the 4-bit field crN.
func (r *Registers) CRField(n uint8) uint32 {
	return (r.CR >> (28 - 4*uint32(n&7))) & 0xf
}

// SetCRField replaces the 4-bit field crN.
func (r *Registers) SetCRField(n uint8, v uint32) {
	shift := 28 - 4*uint32(n&7)
	r.CR = r.CR&^(0xf<<shift) | (v&0xf)<<shift
}

// CRBit returns CR bit n (0 is the most significant bit).
func (r *Registers) CRBit(n uint8) bool {
	return r.CR&(1<<(31-uint32(n&31))) != 0
}

// SetCRBit sets or clears CR bit n.
func (r *Registers) SetCRBit(n uint8, v bool) {
	mask := uint32(1) << (31 - uint32(n&31))
	if v {
		r.CR |= mask
	} else {
		r.CR &^= mask
	}
}

// CA returns the carry bit.
func (r *Registers) CA() bool { return r.XER&XERCA != 0 }

// SetCA sets or clears the carry bit.
func (r *Registers) SetCA(v bool) {
	if v {
		r.XER |= XERCA
	} else {
		r.XER &^= XERCA
	}
}

// SetOV sets or clears OV; setting OV also sets the sticky SO bit.
func (r *Registers) SetOV(v bool) {
	if v {
		r.XER |= XEROV | XERSO
	} else {
		r.XER &^= XEROV
	}
}

// CompareField computes an LT/GT/EQ field with SO copied from XER.
func (r *Registers) CompareField(lt, gt bool) uint32 {
	var f uint32
	switch {
	case lt:
		f = CRLT
	case gt:
		f = CRGT
	default:
		f = CREQ
	}

	if r.XER&XERSO != 0 {
		f |= CRSO
	}

	return f
}

// RecordCR0 sets cr0 from the signed value of a result.
func (r *Registers) RecordCR0(v uint32) {
	s := int32(v)
	r.SetCRField(0, r.CompareField(s < 0, s > 0))
}

// RecordCR1 copies the FPSCR exception summary bits into cr1.
func (r *Registers) RecordCR1() {
	r.SetCRField(1, r.FPSCR>>28)
}
