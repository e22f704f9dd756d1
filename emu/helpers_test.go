package emu_test

import (
	"io"

	"github.com/sirupsen/logrus"

	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
)

const (
	codeBase = 0x1000
	dataBase = 0x10000
	romBase  = 0x40000
)

// quietLogger discards CPU logging during tests.
func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

// newMachine maps code, data and a read-only region and returns a CPU.
func newMachine(opts ...emu.CPUOption) (*emu.CPU, *emu.Memory) {
	mem := emu.NewMemory()

	_, err := mem.Map("code", codeBase, 0x4000, false)
	Expect(err).NotTo(HaveOccurred())
	_, err = mem.Map("data", dataBase, 0x10000, false)
	Expect(err).NotTo(HaveOccurred())
	_, err = mem.Map("rom", romBase, 0x1000, true)
	Expect(err).NotTo(HaveOccurred())

	opts = append([]emu.CPUOption{emu.WithLogger(quietLogger())}, opts...)
	cpu := emu.NewCPU(mem, opts...)
	cpu.Regs.PC = codeBase

	return cpu, mem
}

// load writes a program at codeBase.
func load(mem *emu.Memory, words ...uint32) {
	Expect(mem.WriteWords(codeBase, words...)).To(Succeed())
}

// run executes a single instruction at codeBase.
func run(cpu *emu.CPU, mem *emu.Memory, op uint32) {
	cpu.Regs.PC = codeBase
	load(mem, op)
	res := cpu.Step()
	Expect(res.Err).NotTo(HaveOccurred())
}

type recordingFaults struct {
	faults   []*emu.Fault
	illegals []uint32
	resolve  bool
}

func (r *recordingFaults) HandleFault(c *emu.CPU, _ uint32, f *emu.Fault) bool {
	r.faults = append(r.faults, f)
	if r.resolve {
		c.Regs.PC += 4
	}

	return r.resolve
}

func (r *recordingFaults) HandleIllegal(c *emu.CPU, op uint32) bool {
	r.illegals = append(r.illegals, op)
	if r.resolve {
		c.Regs.PC += 4
	}

	return r.resolve
}
