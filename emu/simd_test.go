package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
)

var _ = Describe("AltiVec", func() {
	var (
		cpu *emu.CPU
		mem *emu.Memory
	)

	BeforeEach(func() {
		cpu, mem = newMachine()
	})

	It("should wrap each byte lane independently", func() {
		cpu.Regs.VR[1] = [4]uint32{0xff01ff01, 0, 0, 0x80808080}
		cpu.Regs.VR[2] = [4]uint32{0x01010101, 0, 0, 0x80808080}
		run(cpu, mem, insts.EncodeVX(3, 1, 2, 0)) // vaddubm
		Expect(cpu.Regs.VR[3]).To(Equal([4]uint32{0x00020002, 0, 0, 0}))

		run(cpu, mem, insts.EncodeVX(4, 3, 2, 1024)) // vsububm
		Expect(cpu.Regs.VR[4][0]).To(Equal(uint32(0xff01ff01)))
	})

	It("should wrap halfword lanes", func() {
		cpu.Regs.VR[1] = [4]uint32{0xffff0001, 0, 0, 0}
		cpu.Regs.VR[2] = [4]uint32{0x00010001, 0, 0, 0}
		run(cpu, mem, insts.EncodeVX(3, 1, 2, 64)) // vadduhm
		Expect(cpu.Regs.VR[3][0]).To(Equal(uint32(0x00000002)))
	})

	It("should select bits under mask", func() {
		cpu.Regs.VR[1] = [4]uint32{0xaaaaaaaa, 0, 0, 0}
		cpu.Regs.VR[2] = [4]uint32{0x55555555, 0, 0, 0}
		cpu.Regs.VR[3] = [4]uint32{0xffff0000, 0, 0, 0}
		run(cpu, mem, insts.EncodeVA(4, 1, 2, 3, 42)) // vsel
		Expect(cpu.Regs.VR[4][0]).To(Equal(uint32(0x5555aaaa)))
	})

	It("should permute bytes from both sources", func() {
		cpu.Regs.VR[1] = [4]uint32{0x00010203, 0x04050607, 0x08090a0b, 0x0c0d0e0f}
		cpu.Regs.VR[2] = [4]uint32{0x10111213, 0x14151617, 0x18191a1b, 0x1c1d1e1f}
		cpu.Regs.VR[3] = [4]uint32{0x1f1e1d1c, 0x00010203, 0x10101010, 0x0f0f0f0f}
		run(cpu, mem, insts.EncodeVA(4, 1, 2, 3, 43)) // vperm

		Expect(cpu.Regs.VR[4]).To(Equal([4]uint32{0x1f1e1d1c, 0x00010203, 0x10101010, 0x0f0f0f0f}))
		Expect(emu.VectorByte(&cpu.Regs.VR[1], 5)).To(Equal(uint8(0x05)))
	})

	It("should splat signed immediates", func() {
		run(cpu, mem, insts.EncodeVX(1, 0x1f, 0, 908)) // vspltisw -1
		Expect(cpu.Regs.VR[1]).To(Equal([4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff}))

		run(cpu, mem, insts.EncodeVX(2, 3, 0, 780)) // vspltisb 3
		Expect(cpu.Regs.VR[2][0]).To(Equal(uint32(0x03030303)))

		run(cpu, mem, insts.EncodeVX(3, 0x1e, 0, 844)) // vspltish -2
		Expect(cpu.Regs.VR[3][2]).To(Equal(uint32(0xfffefffe)))
	})
})
