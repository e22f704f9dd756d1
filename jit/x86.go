package jit

import (
	"encoding/binary"

	"github.com/sarchlab/sheepcore/insts"
)

// x86-64 code generation for integer runs. Emitted routines take the GPR
// array base in RDI and use EAX and ECX as scratch.

// x86 opcode bytes.
const (
	x86MovLoad  = 0x8b // mov r32, r/m32
	x86MovStore = 0x89 // mov r/m32, r32
	x86MovImm   = 0xc7 // mov r/m32, imm32
	x86ModEAX   = 0x87 // [rdi+disp32], reg eax
	x86ModECX   = 0x8f // [rdi+disp32], reg ecx

	x86AddRR = 0x01
	x86OrRR  = 0x09
	x86AndRR = 0x21
	x86SubRR = 0x29
	x86XorRR = 0x31
	x86EAXCX = 0xc8 // modrm eax, ecx

	x86AddImm = 0x05
	x86OrImm  = 0x0d
	x86XorImm = 0x35

	x86Grp3   = 0xf7
	x86NegEAX = 0xd8
	x86NotEAX = 0xd0
	x86NotECX = 0xd1

	x86Ret = 0xc3
)

type x86Asm struct {
	buf []byte
}

func (a *x86Asm) disp(r uint8) {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, 4*uint32(r&31))
}

func (a *x86Asm) imm(v uint32) {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, v)
}

// loadEAX: mov eax, [rdi+4*r]
func (a *x86Asm) loadEAX(r uint8) {
	a.buf = append(a.buf, x86MovLoad, x86ModEAX)
	a.disp(r)
}

// loadECX: mov ecx, [rdi+4*r]
func (a *x86Asm) loadECX(r uint8) {
	a.buf = append(a.buf, x86MovLoad, x86ModECX)
	a.disp(r)
}

// storeEAX: mov [rdi+4*r], eax
func (a *x86Asm) storeEAX(r uint8) {
	a.buf = append(a.buf, x86MovStore, x86ModEAX)
	a.disp(r)
}

// storeImm: mov dword [rdi+4*r], v
func (a *x86Asm) storeImm(r uint8, v uint32) {
	a.buf = append(a.buf, x86MovImm, x86ModEAX)
	a.disp(r)
	a.imm(v)
}

func (a *x86Asm) aluECX(opc byte) {
	a.buf = append(a.buf, opc, x86EAXCX)
}

func (a *x86Asm) aluImm(opc byte, v uint32) {
	a.buf = append(a.buf, opc)
	a.imm(v)
}

func (a *x86Asm) grp3(modrm byte) {
	a.buf = append(a.buf, x86Grp3, modrm)
}

func (a *x86Asm) ret() {
	a.buf = append(a.buf, x86Ret)
}

// x86Supports reports whether op has an x86 translation.
func x86Supports(op uint32, info *insts.InstrInfo) bool {
	switch info.Op {
	case insts.OpADDI, insts.OpADDIS, insts.OpORI, insts.OpORIS, insts.OpXORI:
		return true
	case insts.OpADD, insts.OpSUBF, insts.OpNEG:
		return !insts.Rc(op) && !insts.OE(op)
	case insts.OpAND, insts.OpOR, insts.OpXOR, insts.OpNOR, insts.OpANDC:
		return !insts.Rc(op)
	}

	return false
}

// emit appends the translation of one supported instruction.
func (a *x86Asm) emit(op uint32, info *insts.InstrInfo) {
	d, ra, rb := insts.RD(op), insts.RA(op), insts.RB(op)

	switch info.Op {
	case insts.OpADDI, insts.OpADDIS:
		v := uint32(insts.SIMM(op))
		if info.Op == insts.OpADDIS {
			v <<= 16
		}

		if ra == 0 {
			a.storeImm(d, v)
			return
		}

		a.loadEAX(ra)
		a.aluImm(x86AddImm, v)
		a.storeEAX(d)

	case insts.OpORI, insts.OpORIS, insts.OpXORI:
		v := insts.UIMM(op)
		opc := byte(x86OrImm)

		switch info.Op {
		case insts.OpORIS:
			v <<= 16
		case insts.OpXORI:
			opc = x86XorImm
		}

		a.loadEAX(d)
		a.aluImm(opc, v)
		a.storeEAX(ra)

	case insts.OpADD:
		a.loadEAX(ra)
		a.loadECX(rb)
		a.aluECX(x86AddRR)
		a.storeEAX(d)

	case insts.OpSUBF:
		a.loadEAX(rb)
		a.loadECX(ra)
		a.aluECX(x86SubRR)
		a.storeEAX(d)

	case insts.OpNEG:
		a.loadEAX(ra)
		a.grp3(x86NegEAX)
		a.storeEAX(d)

	case insts.OpANDC:
		a.loadECX(rb)
		a.grp3(x86NotECX)
		a.loadEAX(d)
		a.aluECX(x86AndRR)
		a.storeEAX(ra)

	default: // and, or, xor, nor: rA = rS op rB
		opc := map[insts.Op]byte{
			insts.OpAND: x86AndRR,
			insts.OpOR:  x86OrRR,
			insts.OpXOR: x86XorRR,
			insts.OpNOR: x86OrRR,
		}[info.Op]

		a.loadEAX(d)
		a.loadECX(rb)
		a.aluECX(opc)

		if info.Op == insts.OpNOR {
			a.grp3(x86NotEAX)
		}

		a.storeEAX(ra)
	}
}

// assembleX86 translates a run of supported opcodes into one routine.
func assembleX86(dec *insts.Decoder, ops []uint32) []byte {
	a := &x86Asm{buf: make([]byte, 0, 20*len(ops)+1)}
	for _, op := range ops {
		a.emit(op, dec.Decode(op))
	}
	a.ret()

	return a.buf
}
