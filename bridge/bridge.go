// Package bridge connects the execution engine to the rest of the
// emulator: interrupt delivery across the 68k, native and emulator-op run
// modes, guest subroutine calls, pseudo-op dispatch and the fault path
// that patches around known-benign guest memory errors.
package bridge

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
	"github.com/sarchlab/sheepcore/lowmem"
)

// Executor runs guest code until it executes EXEC_RETURN.
type Executor interface {
	Execute(entry uint32) error
}

// MonitorFunc is called on unrecoverable faults when the monitor is
// enabled.
type MonitorFunc func(c *emu.CPU, reason string)

// SignalStackSize is the scratch stack used by nanokernel interrupt entry.
const SignalStackSize = 0x10000

// Config describes the guest machine.
type Config struct {
	RAMBase uint32
	RAMSize uint32

	// NewWorldROM selects the NewWorld nanokernel entry point.
	NewWorldROM bool

	// ScratchBase and ScratchSize locate mapped guest memory for
	// trampolines, procedures and temporary variables.
	ScratchBase uint32
	ScratchSize uint32

	// ZeroPage is the read-only page whose writes are ignored.
	ZeroPage uint32

	BusClock uint32

	// IgnoreSegv skips unhandled loads and stores; loads read zero.
	IgnoreSegv bool
	// IgnoreIllegal skips unhandled illegal instructions.
	IgnoreIllegal bool
	// MonitorOnFault enters the monitor before failing.
	MonitorOnFault bool
}

// Stats counts bridge events.
type Stats struct {
	Delivered uint64
	Deferred  uint64
	Skipped   uint64

	FaultsSkipped   uint64
	IllegalsSkipped uint64
	EmulOps         uint64
	NativeOps       uint64
}

// Bridge is the interrupt and exception bridge of one CPU. Apart from
// SharedState it belongs to the emulation goroutine.
type Bridge struct {
	cpu     *emu.CPU
	mem     *emu.Memory
	exec    Executor
	state   *SharedState
	scratch *Scratch
	cfg     Config
	logger  logrus.FieldLogger

	policy    InterruptDeliveryPolicy
	emulOps   EmulOpHandler
	nativeOps [32]NativeOpFunc
	monitor   MonitorFunc

	execReturn  uint32 // PowerPC EXEC_RETURN trampoline
	irqProc     uint32 // 68k level 1 interrupt procedure
	signalStack uint32 // top of the interrupt stack

	stats Stats
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// WithEmulOpHandler sets the receiver of emulator operations.
func WithEmulOpHandler(h EmulOpHandler) Option {
	return func(b *Bridge) {
		b.emulOps = h
	}
}

// WithMonitor sets the monitor entered on fatal faults.
func WithMonitor(fn MonitorFunc) Option {
	return func(b *Bridge) {
		b.monitor = fn
	}
}

// irqProcedure raises 68k interrupt level 1 through the autovector:
//
//	move.w #0,-(sp)   fake format word
//	pea    @1(pc)     return address
//	move   sr,-(sp)
//	move.l $64,a0
//	jmp    (a0)
//	@1: rts
var irqProcedure = []uint16{0x3f3c, 0x0000, 0x487a, 0x000a, 0x40e7, 0x2078, 0x0064, 0x4ed0, lowmem.M68KRTS}

// New creates the bridge for cpu and installs it as the CPU's fault and
// pseudo-op handler. Low memory and the scratch area must be mapped.
func New(cpu *emu.CPU, exec Executor, cfg Config, opts ...Option) (*Bridge, error) {
	mem := cpu.Memory()
	if !mem.IsMapped(lowmem.XLMSignature, 0x100) {
		return nil, fmt.Errorf("bridge: low memory at 0x%04x is not mapped", lowmem.XLMSignature)
	}

	scratch, err := NewScratch(mem, cfg.ScratchBase, cfg.ScratchSize)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		cpu:     cpu,
		mem:     mem,
		exec:    exec,
		state:   NewSharedState(mem, &cpu.Flags),
		scratch: scratch,
		cfg:     cfg,
		logger:  logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(b)
	}

	if err := b.buildProcedures(); err != nil {
		return nil, err
	}

	b.state.Globals().Init(cpu.PVR(), cfg.BusClock)
	mem.Write16(lowmem.XLMExecReturnOp, lowmem.M68KExecReturn)
	mem.Write32(lowmem.XLMZeroPage, cfg.ZeroPage)
	b.policy = policyFor(lowmem.ModeM68K)

	cpu.SetFaultHandler(b)
	cpu.SetSheepHandler(b)

	return b, nil
}

func (b *Bridge) buildProcedures() error {
	var err error

	word := binary.BigEndian.AppendUint32(nil, insts.EncodeExecReturn())
	if b.execReturn, err = b.scratch.Procedure(word); err != nil {
		return fmt.Errorf("bridge: exec return trampoline: %w", err)
	}

	proc := make([]byte, 0, 2*len(irqProcedure))
	for _, w := range irqProcedure {
		proc = binary.BigEndian.AppendUint16(proc, w)
	}

	if b.irqProc, err = b.scratch.Procedure(proc); err != nil {
		return fmt.Errorf("bridge: interrupt procedure: %w", err)
	}

	stack, err := b.scratch.Allocate(SignalStackSize)
	if err != nil {
		return fmt.Errorf("bridge: interrupt stack: %w", err)
	}

	b.signalStack = stack + SignalStackSize

	return nil
}

// State returns the shared state.
func (b *Bridge) State() *SharedState { return b.state }

// Scratch returns the scratch memory manager.
func (b *Bridge) Scratch() *Scratch { return b.scratch }

// Config returns the machine description.
func (b *Bridge) Config() Config { return b.cfg }

// Stats returns a snapshot of the counters.
func (b *Bridge) Stats() Stats { return b.stats }

// SetEmulOpHandler replaces the receiver of emulator operations.
func (b *Bridge) SetEmulOpHandler(h EmulOpHandler) { b.emulOps = h }

// SetMonitor replaces the fault monitor.
func (b *Bridge) SetMonitor(fn MonitorFunc) { b.monitor = fn }

// SetReady allows interrupt delivery and marks the fault path live.
func (b *Bridge) SetReady() { b.state.SetReady() }

// TriggerInterrupt schedules interrupt delivery. Safe from any goroutine.
func (b *Bridge) TriggerInterrupt() { b.state.TriggerInterrupt() }

// SetRunMode records a mode transition and selects the delivery policy
// for the new mode.
func (b *Bridge) SetRunMode(mode uint32) {
	b.state.SetRunMode(mode)
	b.policy = policyFor(mode)

	if b.policy != nil {
		b.state.rearm()
	}
}

// kernel reads a kernel data word.
func (b *Bridge) kernel(off uint32) uint32 {
	return b.mem.Read32(lowmem.KernelData(off))
}

func (b *Bridge) regs() *emu.Registers { return &b.cpu.Regs }
