package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
)

var _ = Describe("Floating point", func() {
	var (
		cpu *emu.CPU
		mem *emu.Memory
	)

	BeforeEach(func() {
		cpu, mem = newMachine()
	})

	It("should add, multiply and fuse", func() {
		cpu.Regs.FPR[1], cpu.Regs.FPR[2], cpu.Regs.FPR[3] = 1.5, 2.0, 0.25

		run(cpu, mem, insts.EncodeFADD(4, 1, 2))
		Expect(cpu.Regs.FPR[4]).To(Equal(3.5))

		run(cpu, mem, insts.EncodeFMUL(5, 1, 2))
		Expect(cpu.Regs.FPR[5]).To(Equal(3.0))

		run(cpu, mem, insts.EncodeFMADD(6, 1, 2, 3))
		Expect(cpu.Regs.FPR[6]).To(Equal(3.25))
	})

	It("should round single-precision results", func() {
		cpu.Regs.FPR[1], cpu.Regs.FPR[2] = 1.0, 1e-10
		run(cpu, mem, insts.EncodeA(59, 3, 1, 2, 0, 21, false)) // fadds
		Expect(cpu.Regs.FPR[3]).To(Equal(1.0))
	})

	It("should flip sign bits", func() {
		cpu.Regs.FPR[1] = 2.0
		run(cpu, mem, insts.EncodeX(63, 2, 0, 1, 40, false)) // fneg
		Expect(cpu.Regs.FPR[2]).To(Equal(-2.0))

		run(cpu, mem, insts.EncodeX(63, 3, 0, 2, 264, false)) // fabs
		Expect(cpu.Regs.FPR[3]).To(Equal(2.0))

		run(cpu, mem, insts.EncodeFMR(4, 2))
		Expect(cpu.Regs.FPR[4]).To(Equal(-2.0))
	})

	It("should convert to word with and without truncation", func() {
		cpu.Regs.FPR[1] = 2.5
		run(cpu, mem, insts.EncodeX(63, 2, 0, 1, 15, false)) // fctiwz
		Expect(uint32(math.Float64bits(cpu.Regs.FPR[2]))).To(Equal(uint32(2)))

		run(cpu, mem, insts.EncodeX(63, 3, 0, 1, 14, false)) // fctiw, round to even
		Expect(uint32(math.Float64bits(cpu.Regs.FPR[3]))).To(Equal(uint32(2)))

		cpu.Regs.FPR[1] = 1e20
		run(cpu, mem, insts.EncodeX(63, 2, 0, 1, 15, false))
		Expect(uint32(math.Float64bits(cpu.Regs.FPR[2]))).To(Equal(uint32(math.MaxInt32)))
	})

	It("should compare into a CR field and FPCC", func() {
		cpu.Regs.FPR[1], cpu.Regs.FPR[2] = 1.0, 2.0
		run(cpu, mem, insts.EncodeX(63, 3<<2, 1, 2, 0, false)) // fcmpu cr3
		Expect(cpu.Regs.CRField(3)).To(Equal(emu.CRLT))
		Expect((cpu.Regs.FPSCR >> 12) & 0xf).To(Equal(emu.CRLT))

		cpu.Regs.FPR[2] = math.NaN()
		run(cpu, mem, insts.EncodeX(63, 3<<2, 1, 2, 0, false))
		Expect(cpu.Regs.CRField(3)).To(Equal(emu.CRSO))
	})

	It("should move FPSCR fields", func() {
		run(cpu, mem, insts.EncodeX(63, 7<<2, 0, 1<<1, 134, false)) // mtfsfi 7, 1
		Expect(cpu.Regs.FPSCR & 0xf).To(Equal(uint32(1)))

		run(cpu, mem, insts.EncodeX(63, 5, 0, 0, 583, false)) // mffs f5
		Expect(uint32(math.Float64bits(cpu.Regs.FPR[5]))).To(Equal(cpu.Regs.FPSCR))

		run(cpu, mem, insts.EncodeX(63, 31, 0, 0, 70, false)) // mtfsb0 31
		Expect(cpu.Regs.FPSCR & 1).To(BeZero())
	})
})
