package jit_test

import (
	"io"
	"math/rand"

	"github.com/sirupsen/logrus"

	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
)

const codeBase = 0x1000

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

func newMachine(program []uint32) (*emu.CPU, *emu.Memory) {
	mem := emu.NewMemory()
	_, err := mem.Map("code", codeBase, 0x10000, false)
	Expect(err).NotTo(HaveOccurred())
	Expect(mem.WriteWords(codeBase, program...)).To(Succeed())

	cpu := emu.NewCPU(mem, emu.WithLogger(quietLogger()))
	cpu.Regs.PC = codeBase

	return cpu, mem
}

func reg(rng *rand.Rand) uint8 { return uint8(1 + rng.Intn(10)) }

// randomIntegerProgram builds n integer instructions followed by an
// EXEC_RETURN.
func randomIntegerProgram(rng *rand.Rand, n int) []uint32 {
	gens := []func() uint32{
		func() uint32 { return insts.EncodeADDI(reg(rng), uint8(rng.Intn(11)), int16(rng.Intn(65536)-32768)) },
		func() uint32 { return insts.EncodeADDIS(reg(rng), reg(rng), int16(rng.Intn(65536)-32768)) },
		func() uint32 { return insts.EncodeORI(reg(rng), reg(rng), uint16(rng.Intn(65536))) },
		func() uint32 { return insts.EncodeORIS(reg(rng), reg(rng), uint16(rng.Intn(65536))) },
		func() uint32 { return insts.EncodeXORI(reg(rng), reg(rng), uint16(rng.Intn(65536))) },
		func() uint32 { return insts.EncodeADD(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeSUBF(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeNEG(reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeAND(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeANDC(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeOR(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeXOR(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeNOR(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeMR(reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeMULLW(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeSLW(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeSRW(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeEXTSB(reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeEXTSH(reg(rng), reg(rng)) },
		func() uint32 {
			return insts.EncodeRLWINM(reg(rng), reg(rng), uint8(rng.Intn(32)), uint8(rng.Intn(32)), uint8(rng.Intn(32)))
		},
		func() uint32 { return insts.EncodeCMPWI(uint8(rng.Intn(8)), reg(rng), int16(rng.Intn(200)-100)) },
		func() uint32 { return insts.EncodeCMPLW(uint8(rng.Intn(8)), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeADDo(reg(rng), reg(rng), reg(rng)) },
		func() uint32 { return insts.EncodeSRAWI(reg(rng), reg(rng), uint8(rng.Intn(32))) },
	}

	prog := make([]uint32, 0, n+1)
	for i := 0; i < n; i++ {
		prog = append(prog, gens[rng.Intn(len(gens))]())
	}

	return append(prog, insts.EncodeExecReturn())
}

// seedRegisters gives r1-r10 random values.
func seedRegisters(rng *rand.Rand, r *emu.Registers) {
	for i := 1; i <= 10; i++ {
		r.GPR[i] = rng.Uint32()
	}
	r.CR = rng.Uint32()
	r.XER = rng.Uint32() & (emu.XERSO | emu.XERCA)
}
