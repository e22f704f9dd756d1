package emu_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
)

type invalidation struct{ start, end uint32 }

type recordingInvalidator struct{ got []invalidation }

func (r *recordingInvalidator) InvalidateCode(start, end uint32) {
	r.got = append(r.got, invalidation{start, end})
}

type sheepCall struct {
	native     bool
	selector   uint32
	returnToLR bool
}

type recordingSheep struct{ calls []sheepCall }

func (r *recordingSheep) EmulOp(c *emu.CPU, _ uint32, selector uint32) {
	r.calls = append(r.calls, sheepCall{selector: selector})
	c.Regs.PC += 4
}

func (r *recordingSheep) NativeOp(c *emu.CPU, selector uint32, returnToLR bool) {
	r.calls = append(r.calls, sheepCall{native: true, selector: selector, returnToLR: returnToLR})
	c.Regs.PC = c.Regs.LR
}

var _ = Describe("System instructions", func() {
	var (
		cpu    *emu.CPU
		mem    *emu.Memory
		faults *recordingFaults
		inv    *recordingInvalidator
		sheep  *recordingSheep
	)

	BeforeEach(func() {
		faults = &recordingFaults{resolve: true}
		inv = &recordingInvalidator{}
		sheep = &recordingSheep{}
		cpu, mem = newMachine(
			emu.WithFaultHandler(faults),
			emu.WithCodeInvalidator(inv),
			emu.WithSheepHandler(sheep),
			emu.WithTimeBase(func() uint64 { return 0x0000000500000007 }),
		)
	})

	It("should move LR, CTR and XER", func() {
		cpu.Regs.GPR[3] = 0x1234
		run(cpu, mem, insts.EncodeMTLR(3))
		run(cpu, mem, insts.EncodeMFLR(4))
		Expect(cpu.Regs.GPR[4]).To(Equal(uint32(0x1234)))

		cpu.Regs.GPR[3] = emu.XERCA
		run(cpu, mem, insts.EncodeMTSPR(insts.SPRXER, 3))
		Expect(cpu.Regs.CA()).To(BeTrue())
	})

	It("should read the time base", func() {
		run(cpu, mem, insts.EncodeSPR(3, insts.SPRTBL, 371))
		run(cpu, mem, insts.EncodeSPR(4, insts.SPRTBU, 371))
		Expect(cpu.Regs.GPR[3]).To(Equal(uint32(7)))
		Expect(cpu.Regs.GPR[4]).To(Equal(uint32(5)))
	})

	It("should route unknown SPRs and supervisor ops to the illegal handler", func() {
		run(cpu, mem, insts.EncodeMFSPR(3, insts.SPRPVR))
		run(cpu, mem, insts.EncodeMFMSR(3))
		Expect(faults.illegals).To(Equal([]uint32{
			insts.EncodeMFSPR(3, insts.SPRPVR),
			insts.EncodeMFMSR(3),
		}))
	})

	It("should treat an unresolved illegal opcode as fatal", func() {
		faults.resolve = false
		load(mem, 0)

		res := cpu.Step()
		Expect(res.Err).To(HaveOccurred())
		Expect(cpu.Fatal().Reason).To(Equal("illegal instruction"))

		cpu.ClearFatal()
		Expect(cpu.Err()).NotTo(HaveOccurred())
	})

	It("should invalidate the icbi cache block", func() {
		cpu.Regs.GPR[4] = codeBase + 0x47
		run(cpu, mem, insts.EncodeICBI(0, 4))
		Expect(inv.got).To(Equal([]invalidation{{codeBase + 0x40, codeBase + 0x60}}))
	})

	It("should trap only when the condition holds", func() {
		cpu.Regs.GPR[3] = 1
		run(cpu, mem, insts.EncodeD(3, 4, 3, 1)) // tweqi r3, 1
		Expect(faults.illegals).To(HaveLen(1))

		run(cpu, mem, insts.EncodeD(3, 4, 3, 2)) // tweqi r3, 2
		Expect(faults.illegals).To(HaveLen(1))
	})

	Describe("sheep pseudo-ops", func() {
		It("should raise return flags without advancing PC", func() {
			run(cpu, mem, insts.EncodeExecReturn())
			Expect(cpu.Flags.Test(emu.SpcExecReturn)).To(BeTrue())
			Expect(cpu.Regs.PC).To(Equal(uint32(codeBase)))

			run(cpu, mem, insts.EncodeEmulReturn())
			Expect(cpu.Flags.Test(emu.SpcEmulReturn)).To(BeTrue())
		})

		It("should dispatch emulator and native operations", func() {
			cpu.Regs.LR = 0x2000
			run(cpu, mem, insts.EncodeEmulOp(5))
			run(cpu, mem, insts.EncodeNativeOp(9, true))

			Expect(sheep.calls).To(Equal([]sheepCall{
				{selector: 5},
				{native: true, selector: 9, returnToLR: true},
			}))
			Expect(cpu.Regs.PC).To(Equal(uint32(0x2000)))
		})

		It("should treat pseudo-ops as illegal without a handler", func() {
			cpu.SetSheepHandler(nil)
			run(cpu, mem, insts.EncodeEmulOp(1))
			Expect(faults.illegals).To(HaveLen(1))
		})
	})

	Describe("sc", func() {
		It("should stop the CPU on exit", func() {
			var out bytes.Buffer
			cpu.SetSyscallHandler(emu.NewDefaultSyscallHandler(&cpu.Regs, mem, &out, &out))

			load(mem,
				insts.EncodeLI(0, int16(emu.SyscallExit)),
				insts.EncodeLI(3, 17),
				insts.EncodeSC(),
				insts.EncodeLI(4, 1),
			)

			res := cpu.Run(10)
			Expect(res.Exited).To(BeTrue())
			Expect(res.ExitCode).To(Equal(int32(17)))
			Expect(cpu.Regs.GPR[4]).To(BeZero())
			Expect(cpu.InstructionCount()).To(Equal(uint64(3)))
		})
	})
})
