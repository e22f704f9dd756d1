package emu_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
)

var _ = Describe("Loads and stores", func() {
	var (
		cpu    *emu.CPU
		mem    *emu.Memory
		faults *recordingFaults
	)

	BeforeEach(func() {
		faults = &recordingFaults{}
		cpu, mem = newMachine(emu.WithFaultHandler(faults))
		cpu.Regs.GPR[4] = dataBase
	})

	It("should load and store words big-endian", func() {
		cpu.Regs.GPR[3] = 0xcafef00d
		run(cpu, mem, insts.EncodeSTW(3, 4, 8))
		Expect(mem.Read8(dataBase + 8)).To(Equal(uint8(0xca)))

		run(cpu, mem, insts.EncodeLWZ(5, 4, 8))
		Expect(cpu.Regs.GPR[5]).To(Equal(uint32(0xcafef00d)))
	})

	It("should zero- and sign-extend halfwords", func() {
		mem.Write16(dataBase, 0x8001)

		run(cpu, mem, insts.EncodeLHZ(3, 4, 0))
		Expect(cpu.Regs.GPR[3]).To(Equal(uint32(0x8001)))

		run(cpu, mem, insts.EncodeLHA(3, 4, 0))
		Expect(cpu.Regs.GPR[3]).To(Equal(uint32(0xffff8001)))
	})

	It("should write back the EA for update forms", func() {
		cpu.Regs.GPR[3] = 7
		run(cpu, mem, insts.EncodeSTWU(3, 4, -4+0x100))
		Expect(cpu.Regs.GPR[4]).To(Equal(uint32(dataBase + 0xfc)))

		run(cpu, mem, insts.EncodeLWZU(5, 4, 0))
		Expect(cpu.Regs.GPR[5]).To(Equal(uint32(7)))
	})

	It("should index with rB", func() {
		cpu.Regs.GPR[5] = 0x20
		cpu.Regs.GPR[3] = 0x55
		run(cpu, mem, insts.EncodeSTWX(3, 4, 5))
		run(cpu, mem, insts.EncodeLWZX(6, 4, 5))
		Expect(cpu.Regs.GPR[6]).To(Equal(uint32(0x55)))
	})

	It("should byte-reverse", func() {
		mem.Write32(dataBase, 0x11223344)
		run(cpu, mem, insts.EncodeLWBRX(3, 0, 4))
		Expect(cpu.Regs.GPR[3]).To(Equal(uint32(0x44332211)))
	})

	It("should move multiple words", func() {
		cpu.Regs.GPR[29], cpu.Regs.GPR[30], cpu.Regs.GPR[31] = 1, 2, 3
		run(cpu, mem, insts.EncodeSTMW(29, 4, 0))
		Expect(mem.Read32(dataBase + 8)).To(Equal(uint32(3)))

		cpu.Regs.GPR[29], cpu.Regs.GPR[30], cpu.Regs.GPR[31] = 0, 0, 0
		run(cpu, mem, insts.EncodeLMW(29, 4, 0))
		Expect(cpu.Regs.GPR[29:]).To(Equal([]uint32{1, 2, 3}))
	})

	It("should honour reservations", func() {
		cpu.Regs.GPR[5] = 9
		run(cpu, mem, insts.EncodeLWARX(3, 0, 4))
		Expect(cpu.Regs.ResValid).To(BeTrue())

		run(cpu, mem, insts.EncodeSTWCX(5, 0, 4))
		Expect(cpu.Regs.CRField(0)).To(Equal(emu.CREQ))
		Expect(mem.Read32(dataBase)).To(Equal(uint32(9)))

		cpu.Regs.GPR[5] = 10
		run(cpu, mem, insts.EncodeSTWCX(5, 0, 4))
		Expect(cpu.Regs.CRField(0)).To(BeZero())
		Expect(mem.Read32(dataBase)).To(Equal(uint32(9)))
	})

	It("should zero a whole cache block with dcbz", func() {
		for a := uint32(dataBase); a < dataBase+0x60; a += 4 {
			mem.Write32(a, 0xffffffff)
		}

		cpu.Regs.GPR[5] = 0x25
		run(cpu, mem, insts.EncodeDCBZ(4, 5))

		Expect(mem.Read32(dataBase + 0x1c)).To(Equal(uint32(0xffffffff)))
		Expect(mem.Read32(dataBase + 0x20)).To(BeZero())
		Expect(mem.Read32(dataBase + 0x3c)).To(BeZero())
		Expect(mem.Read32(dataBase + 0x40)).To(Equal(uint32(0xffffffff)))
	})

	It("should move doubles and singles through FPRs", func() {
		cpu.Regs.FPR[1] = math.Pi
		run(cpu, mem, insts.EncodeSTFD(1, 4, 0))
		Expect(mem.Read64(dataBase)).To(Equal(math.Float64bits(math.Pi)))

		run(cpu, mem, insts.EncodeLFD(2, 4, 0))
		Expect(cpu.Regs.FPR[2]).To(Equal(math.Pi))

		mem.Write32(dataBase+16, math.Float32bits(1.5))
		run(cpu, mem, insts.EncodeD(48, 3, 4, 16)) // lfs
		Expect(cpu.Regs.FPR[3]).To(Equal(1.5))
	})

	It("should align vector accesses to 16 bytes", func() {
		cpu.Regs.VR[2] = [4]uint32{1, 2, 3, 4}
		cpu.Regs.GPR[5] = 0x1f
		run(cpu, mem, insts.EncodeX(31, 2, 4, 5, 231, false)) // stvx
		Expect(mem.Read32(dataBase + 0x10)).To(Equal(uint32(1)))
		Expect(mem.Read32(dataBase + 0x1c)).To(Equal(uint32(4)))

		run(cpu, mem, insts.EncodeX(31, 3, 4, 5, 103, false)) // lvx
		Expect(cpu.Regs.VR[3]).To(Equal([4]uint32{1, 2, 3, 4}))
	})

	Describe("faults", func() {
		It("should hand unmapped loads to the fault handler without side effects", func() {
			cpu.Regs.GPR[4] = 0x00f00000
			cpu.Regs.GPR[3] = 0x1234
			load(mem, insts.EncodeLWZU(3, 4, 0))

			res := cpu.Step()
			Expect(faults.faults).To(HaveLen(1))
			Expect(faults.faults[0].Addr).To(Equal(uint32(0x00f00000)))
			Expect(cpu.Regs.GPR[3]).To(Equal(uint32(0x1234)))
			Expect(cpu.Regs.GPR[4]).To(Equal(uint32(0x00f00000)))
			Expect(cpu.Regs.PC).To(Equal(uint32(codeBase)))

			var fatal *emu.FatalError
			Expect(errors.As(res.Err, &fatal)).To(BeTrue())
			Expect(fatal.PC).To(Equal(uint32(codeBase)))

			var f *emu.Fault
			Expect(errors.As(res.Err, &f)).To(BeTrue())
			Expect(cpu.Flags.Test(emu.SpcFatal)).To(BeTrue())
		})

		It("should report ROM writes as read-only faults", func() {
			cpu.Regs.GPR[4] = romBase
			load(mem, insts.EncodeSTW(3, 4, 0))

			cpu.Step()
			Expect(faults.faults[0].Kind).To(Equal(emu.FaultReadOnly))
			Expect(faults.faults[0].Write).To(BeTrue())
		})

		It("should resume when the handler resolves the fault", func() {
			faults.resolve = true
			cpu.Regs.GPR[4] = 0x00f00000
			load(mem, insts.EncodeLWZ(3, 4, 0), insts.EncodeLI(5, 1))

			Expect(cpu.Step().Err).NotTo(HaveOccurred())
			Expect(cpu.Step().Err).NotTo(HaveOccurred())
			Expect(cpu.Regs.GPR[5]).To(Equal(uint32(1)))
		})
	})
})
