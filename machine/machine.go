// Package machine assembles a guest machine from a configuration: the
// address space, CPU, execution engine, interrupt bridge and the host
// tasks feeding it.
package machine

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/bridge"
	"github.com/sarchlab/sheepcore/config"
	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/engine"
	"github.com/sarchlab/sheepcore/jit"
	"github.com/sarchlab/sheepcore/loader"
	"github.com/sarchlab/sheepcore/lowmem"
	"github.com/sarchlab/sheepcore/monitor"
	"github.com/sarchlab/sheepcore/platform"
)

// lowMemSize covers the vectors and the emulator globals.
const lowMemSize = 0x3000

// Machine is one emulated PowerPC with its memory and host services.
type Machine struct {
	Config  *config.Config
	Memory  *emu.Memory
	CPU     *emu.CPU
	Engine  *engine.Engine
	Bridge  *bridge.Bridge
	Monitor *monitor.Monitor
	XPRAM   *platform.XPRAM

	logger  logrus.FieldLogger
	nvram   platform.NVRAMStore
	stdout  io.Writer
	stderr  io.Writer
	monOpts []monitor.Option
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger shared by all components.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithOutput sets where guest writes to fd 1 and 2 go.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(m *Machine) {
		m.stdout = stdout
		m.stderr = stderr
	}
}

// WithMonitorOptions passes options to the monitor. They only apply when
// the configuration enables it.
func WithMonitorOptions(opts ...monitor.Option) Option {
	return func(m *Machine) {
		m.monOpts = append(m.monOpts, opts...)
	}
}

// New validates cfg and builds the machine.
func New(cfg *config.Config, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m := &Machine{
		Config: cfg.Clone(),
		Memory: emu.NewMemory(),
		logger: logrus.StandardLogger(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := m.mapMemory(); err != nil {
		return nil, err
	}

	m.CPU = emu.NewCPU(m.Memory,
		emu.WithLogger(m.logger),
		emu.WithPVR(m.Config.PVR),
	)
	m.CPU.SetSyscallHandler(emu.NewDefaultSyscallHandler(&m.CPU.Regs, m.Memory, m.stdout, m.stderr))
	m.CPU.Regs.GPR[1] = m.Config.RAMBase + m.Config.RAMSize - 0x1000

	eopts, err := m.engineOptions()
	if err != nil {
		return nil, err
	}

	m.Engine = engine.New(m.CPU, eopts...)

	m.Bridge, err = bridge.New(m.CPU, m.Engine, m.Config.BridgeConfig(), bridge.WithLogger(m.logger))
	if err != nil {
		_ = m.Engine.Close()
		return nil, err
	}

	m.Engine.SetInterruptHandler(m.Bridge)

	if m.Config.Monitor {
		mopts := append([]monitor.Option{
			monitor.WithEngine(m.Engine),
			monitor.WithBridge(m.Bridge),
			monitor.WithLogger(m.logger),
		}, m.monOpts...)

		m.Monitor = monitor.New(mopts...)
		m.Engine.SetMonitor(m.Monitor)
		m.Bridge.SetMonitor(m.Monitor.OnFault)
	}

	if err := m.openNVRAM(); err != nil {
		_ = m.Engine.Close()
		return nil, err
	}

	return m, nil
}

type region struct {
	name     string
	base     uint32
	size     uint32
	readOnly bool
}

func (m *Machine) mapMemory() error {
	c := m.Config

	regions := []region{
		{"ram", c.RAMBase, c.RAMSize, false},
		{"rom", lowmem.ROMBase, lowmem.ROMAreaSize, true},
		{"kernel", lowmem.KernelDataAddr, lowmem.KernelDataSize, false},
		{"scratch", c.ScratchBase, c.ScratchSize, false},
		{"zero", c.ZeroPage, lowmem.ZeroPageSize, true},
	}

	if c.RAMBase >= lowMemSize {
		regions = append(regions, region{"low", 0, lowMemSize, false})
	}

	for _, r := range regions {
		if _, err := m.Memory.Map(r.name, r.base, r.size, r.readOnly); err != nil {
			return fmt.Errorf("memory layout: %w", err)
		}
	}

	return nil
}

func (m *Machine) engineOptions() ([]engine.Option, error) {
	c := m.Config

	opts := []engine.Option{
		engine.WithLogger(m.logger),
		engine.WithCacheConfig(c.CacheConfig()),
		engine.WithCompilerOptions(
			jit.WithMaxBlockLength(c.MaxBlockLength),
			jit.WithFollowConstJumps(c.FollowConstJumps),
		),
	}

	if !c.JIT {
		return opts, nil
	}

	opts = append(opts, engine.WithJIT(c.JITThreshold))

	if !c.JITNative {
		return opts, nil
	}

	nb, err := jit.NewNativeBackend(c.JITCodeBufferSize)
	switch {
	case errors.Is(err, jit.ErrNativeUnsupported):
		m.logger.Info("no native backend on this host, using closures")
	case err != nil:
		return nil, fmt.Errorf("native backend: %w", err)
	default:
		opts = append(opts, engine.WithNativeBackend(nb))
	}

	return opts, nil
}

func (m *Machine) openNVRAM() error {
	path := m.Config.NVRAMPath
	if path == "" {
		m.XPRAM = &platform.XPRAM{}
		return nil
	}

	var err error
	switch m.Config.NVRAMBackend {
	case config.NVRAMPebble:
		m.nvram, err = platform.OpenPebbleStore(path, m.logger)
	default:
		m.nvram = platform.NewFileStore(path)
	}

	if err != nil {
		return err
	}

	m.XPRAM, err = platform.LoadXPRAM(m.nvram)
	if err != nil {
		_ = m.nvram.Close()
		m.nvram = nil
	}

	return err
}

// Logger returns the machine logger.
func (m *Machine) Logger() logrus.FieldLogger { return m.logger }

// LoadROM copies a ROM image to the ROM base.
func (m *Machine) LoadROM(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	if len(data) == 0 || uint32(len(data)) > lowmem.ROMSize {
		return fmt.Errorf("ROM image of %d bytes does not fit %d bytes", len(data), lowmem.ROMSize)
	}

	return m.Memory.WriteBytes(lowmem.ROMBase, data)
}

// LoadProgram maps prog and points the stack at its initial SP.
func (m *Machine) LoadProgram(prog *loader.Program) error {
	if err := prog.MapInto(m.Memory); err != nil {
		return fmt.Errorf("failed to map program: %w", err)
	}

	if prog.StackSize != 0 {
		m.CPU.Regs.GPR[1] = prog.InitialSP - 16
	}

	return nil
}

// Run starts the bridge and calls the native routine at entry. A guest
// exit through sc is reported as its status code.
func (m *Machine) Run(entry uint32, args ...uint32) (uint32, error) {
	m.Bridge.SetReady()

	r3, err := m.Bridge.CallPPC(entry, args...)
	if exited, code := m.CPU.Exited(); exited {
		return uint32(code), nil
	}

	return r3, err
}

// Close stops the machine and flushes NVRAM.
func (m *Machine) Close() error {
	var errs []error

	if m.nvram != nil {
		if err := m.nvram.Save(m.XPRAM.Snapshot()); err != nil {
			errs = append(errs, err)
		}

		if err := m.nvram.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := m.Engine.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
