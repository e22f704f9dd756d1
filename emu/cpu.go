package emu

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/insts"
)

// DefaultPVR identifies a PowerPC 7400 (G4) rev 2.9.
const DefaultPVR uint32 = 0x000c0209

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (via exit syscall).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32

	// Err is set if the CPU became fatal.
	Err error
}

// CPU executes PowerPC instructions interpretively.
type CPU struct {
	Regs  Registers
	Flags SpcFlags

	mem         *Memory
	decoder     *insts.Decoder
	faults      FaultHandler
	sheep       SheepHandler
	syscalls    SyscallHandler
	invalidator CodeInvalidator
	logger      logrus.FieldLogger

	pvr      uint32
	timeBase func() uint64

	fatal    *FatalError
	exited   bool
	exitCode int32

	instructionCount uint64
}

// CPUOption is a functional option for configuring the CPU.
type CPUOption func(*CPU)

// WithFaultHandler sets the handler for memory faults and illegal opcodes.
func WithFaultHandler(h FaultHandler) CPUOption {
	return func(c *CPU) {
		c.faults = h
	}
}

// WithSheepHandler sets the handler for EMUL_OP and EXEC_NATIVE.
func WithSheepHandler(h SheepHandler) CPUOption {
	return func(c *CPU) {
		c.sheep = h
	}
}

// WithSyscallHandler sets the handler for sc.
func WithSyscallHandler(h SyscallHandler) CPUOption {
	return func(c *CPU) {
		c.syscalls = h
	}
}

// WithCodeInvalidator sets the receiver of icbi invalidations.
func WithCodeInvalidator(inv CodeInvalidator) CPUOption {
	return func(c *CPU) {
		c.invalidator = inv
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) CPUOption {
	return func(c *CPU) {
		c.logger = l
	}
}

// WithPVR sets the processor version register value.
func WithPVR(pvr uint32) CPUOption {
	return func(c *CPU) {
		c.pvr = pvr
	}
}

// WithTimeBase sets the time base source.
func WithTimeBase(fn func() uint64) CPUOption {
	return func(c *CPU) {
		c.timeBase = fn
	}
}

// NewCPU creates a CPU bound to mem.
func NewCPU(mem *Memory, opts ...CPUOption) *CPU {
	start := time.Now()

	c := &CPU{
		mem:     mem,
		decoder: insts.NewDecoder(),
		logger:  logrus.StandardLogger(),
		pvr:     DefaultPVR,
		timeBase: func() uint64 {
			// 25 MHz, a quarter of a 100 MHz bus.
			return uint64(time.Since(start).Nanoseconds() / 40)
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Memory returns the guest address space.
func (c *CPU) Memory() *Memory { return c.mem }

// Decoder returns the instruction decoder.
func (c *CPU) Decoder() *insts.Decoder { return c.decoder }

// Logger returns the CPU logger.
func (c *CPU) Logger() logrus.FieldLogger { return c.logger }

// PVR returns the processor version register value.
func (c *CPU) PVR() uint32 { return c.pvr }

// TimeBase returns the current time base value.
func (c *CPU) TimeBase() uint64 { return c.timeBase() }

// SetFaultHandler replaces the fault handler.
func (c *CPU) SetFaultHandler(h FaultHandler) { c.faults = h }

// SetSheepHandler replaces the pseudo-op handler.
func (c *CPU) SetSheepHandler(h SheepHandler) { c.sheep = h }

// SetSyscallHandler replaces the sc handler.
func (c *CPU) SetSyscallHandler(h SyscallHandler) { c.syscalls = h }

// SetCodeInvalidator replaces the icbi receiver.
func (c *CPU) SetCodeInvalidator(inv CodeInvalidator) { c.invalidator = inv }

// InstructionCount returns the number of instructions run through Step.
func (c *CPU) InstructionCount() uint64 { return c.instructionCount }

// Exited reports whether the guest called exit, and its status.
func (c *CPU) Exited() (bool, int32) { return c.exited, c.exitCode }

// Err returns the fatal error, or nil.
func (c *CPU) Err() error {
	if c.fatal == nil {
		return nil
	}

	return c.fatal
}

// Fatal returns the fatal error, or nil.
func (c *CPU) Fatal() *FatalError { return c.fatal }

// ClearFatal resets the fatal state.
func (c *CPU) ClearFatal() {
	c.fatal = nil
	c.Flags.Clear(SpcFatal)
}

// Fail makes the CPU fatal at the current PC. Only the first failure is
// recorded.
func (c *CPU) Fail(reason string, cause error) {
	if c.fatal != nil {
		return
	}

	opcode := c.mem.Read32(c.Regs.PC)
	c.fatal = &FatalError{
		PC:     c.Regs.PC,
		Opcode: opcode,
		Reason: reason,
		Regs:   c.Regs,
		Err:    cause,
	}
	c.Flags.Set(SpcFatal)

	c.logger.WithFields(logrus.Fields{
		"pc":     c.Regs.PC,
		"opcode": opcode,
	}).WithError(cause).Error(reason)
}

// Step fetches, decodes and executes one instruction.
func (c *CPU) Step() StepResult {
	if c.fatal != nil {
		return StepResult{Err: c.fatal}
	}

	opcode, f := c.mem.Load32(c.Regs.PC)
	if f != nil {
		c.Fail("instruction fetch", f)
		return StepResult{Err: c.fatal}
	}

	c.Exec(opcode)
	c.instructionCount++

	return StepResult{Exited: c.exited, ExitCode: c.exitCode, Err: c.Err()}
}

// Run steps until the guest exits, a pseudo-op requests a return, the CPU
// becomes fatal or maxSteps instructions ran (0 means no limit).
func (c *CPU) Run(maxSteps uint64) StepResult {
	var res StepResult
	for n := uint64(0); maxSteps == 0 || n < maxSteps; n++ {
		res = c.Step()
		if res.Exited || res.Err != nil || c.Flags.Test(SpcExecReturn|SpcEmulReturn) {
			return res
		}
	}

	return res
}

// Exec runs one already-fetched opcode at the current PC.
func (c *CPU) Exec(opcode uint32) {
	handlers[c.decoder.Decode(opcode).Op](c, opcode)
}

// fault routes a refused access to the fault handler.
func (c *CPU) fault(opcode uint32, f *Fault) {
	if c.faults != nil && c.faults.HandleFault(c, opcode, f) {
		return
	}

	c.Fail("memory access", f)
}

// Illegal routes an opcode the CPU cannot execute to the fault handler.
func (c *CPU) Illegal(opcode uint32) {
	if c.faults != nil && c.faults.HandleIllegal(c, opcode) {
		return
	}

	c.Fail("illegal instruction", nil)
}
