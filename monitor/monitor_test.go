package monitor_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/engine"
	"github.com/sarchlab/sheepcore/insts"
	"github.com/sarchlab/sheepcore/monitor"
)

const codeBase = 0x1000

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

var _ = Describe("Monitor", func() {
	var (
		cpu *emu.CPU
		e   *engine.Engine
		out *bytes.Buffer
	)

	program := []uint32{
		insts.EncodeLI(3, 5),
		insts.EncodeADDI(4, 3, 10),
		insts.EncodeADD(5, 3, 4),
		insts.EncodeExecReturn(),
	}

	newMonitor := func(input string) *monitor.Monitor {
		return monitor.New(
			monitor.WithIO(strings.NewReader(input), out),
			monitor.WithEngine(e),
			monitor.WithLogger(quietLogger()),
		)
	}

	BeforeEach(func() {
		mem := emu.NewMemory()
		_, err := mem.Map("code", codeBase, 0x10000, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(mem.WriteWords(codeBase, program...)).To(Succeed())

		cpu = emu.NewCPU(mem, emu.WithLogger(quietLogger()))
		e = engine.New(cpu, engine.WithLogger(quietLogger()))
		out = &bytes.Buffer{}
	})

	It("should show the registers", func() {
		cpu.Regs.GPR[31] = 0xabcdef01
		cpu.Regs.PC = codeBase

		newMonitor("r\ng\n").Session(cpu, "")

		Expect(out.String()).To(ContainSubstring("pc  00001000"))
		Expect(out.String()).To(ContainSubstring("r31 abcdef01"))
	})

	It("should report the fault reason", func() {
		cpu.Regs.PC = codeBase

		newMonitor("g\n").OnFault(cpu, "SIGSEGV")

		Expect(out.String()).To(HavePrefix("*** SIGSEGV at pc=00001000\n00001000  li r3,5"))
	})

	It("should dump memory and disassemble", func() {
		cpu.Regs.PC = codeBase

		newMonitor("m 1000 4\nd pc 2\nm 0 1\n").Session(cpu, "")

		Expect(out.String()).To(ContainSubstring("00001000  38600005 3883000a 7ca32214 18000001"))
		Expect(out.String()).To(ContainSubstring("00001004  addi r4,r3,10"))
		Expect(out.String()).To(ContainSubstring("00000000  ????????"))
	})

	It("should summarise the block cache", func() {
		Expect(e.Execute(codeBase)).To(Succeed())
		cpu.Regs.PC = codeBase

		newMonitor("b\nj 1000\n").Session(cpu, "")

		Expect(out.String()).To(ContainSubstring("blocks 1 (active 1, dormant 0), jit false"))
		Expect(out.String()).To(ContainSubstring("BlocksCompiled"))
		Expect(out.String()).To(ContainSubstring("block 00001000-0000100c"))
	})

	It("should report bad commands and keep going", func() {
		newMonitor("frob\nm zz\nr\n").Session(cpu, "")

		Expect(out.String()).To(ContainSubstring(`error: unknown command "frob"`))
		Expect(out.String()).To(ContainSubstring(`error: bad value "zz"`))
		Expect(out.String()).To(ContainSubstring("pc  "))
	})

	It("should stop the emulator on q", func() {
		e.SetMonitor(newMonitor("q\n"))
		cpu.Flags.Set(emu.SpcEnterMonitor)

		err := e.Execute(codeBase)

		Expect(errors.Is(err, engine.ErrEmulReturn)).To(BeTrue())
	})

	It("should continue the emulator on g", func() {
		e.SetMonitor(newMonitor("g\n"))
		cpu.Flags.Set(emu.SpcEnterMonitor)

		Expect(e.Execute(codeBase)).To(Succeed())
		Expect(cpu.Regs.GPR[5]).To(Equal(uint32(20)))
	})

	Context("Lua", func() {
		It("should read and write registers and memory", func() {
			cpu.Regs.GPR[4] = 41
			m := newMonitor("")

			Expect(m.RunScript(cpu, `
				setgpr(3, gpr(4) + 1)
				poke32(0x2000, 0xdeadbeef)
				print(peek32(0x2000) == 0xdeadbeef, pc())
			`)).To(Succeed())

			Expect(cpu.Regs.GPR[3]).To(Equal(uint32(42)))
			Expect(cpu.Memory().Read32(0x2000)).To(Equal(uint32(0xdeadbeef)))
			Expect(out.String()).To(Equal("true\t0\n"))
		})

		It("should raise errors on unmapped memory", func() {
			err := newMonitor("").RunScript(cpu, `peek32(0)`)
			Expect(err).To(MatchError(ContainSubstring("peek32")))

			err = newMonitor("").RunScript(cpu, `poke32(0, 1)`)
			Expect(err).To(MatchError(ContainSubstring("not mapped")))
		})

		It("should run script files from a session", func() {
			path := filepath.Join(GinkgoT().TempDir(), "set.lua")
			Expect(os.WriteFile(path, []byte("setpc(0x1008)\nsetgpr(5, 7)\n"), 0o644)).To(Succeed())

			newMonitor("lua " + path + "\ng\n").Session(cpu, "")

			Expect(cpu.Regs.PC).To(Equal(uint32(0x1008)))
			Expect(cpu.Regs.GPR[5]).To(Equal(uint32(7)))
		})
	})
})
