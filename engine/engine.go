// Package engine drives guest execution: it finds or compiles the block at
// the current PC, runs it, follows chained blocks and services special
// flags at every block boundary.
package engine

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/blockcache"
	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/jit"
)

// ErrEmulReturn is returned by Execute once the guest asked to quit. The
// condition is sticky: every enclosing Execute returns it too.
var ErrEmulReturn = errors.New("engine: emulator return")

// InterruptHandler delivers a pending interrupt at a block boundary.
type InterruptHandler interface {
	HandleInterrupt(cpu *emu.CPU)
}

// Monitor is entered when the enter-monitor flag is seen.
type Monitor interface {
	Enter(e *Engine)
}

// Stats counts driver events.
type Stats struct {
	BlocksCompiled uint64
	Promotions     uint64
	CacheHits      uint64
	ChainHits      uint64
	Instructions   uint64
	Flushes        uint64
	Invalidations  uint64
	Cache          blockcache.Stats
}

// Engine is the execution driver. It belongs to the emulation goroutine;
// only the CPU's special flags may be touched from elsewhere.
type Engine struct {
	cpu      *emu.CPU
	mem      *emu.Memory
	cache    *blockcache.Cache[*jit.Block]
	compiler *jit.Compiler
	logger   logrus.FieldLogger

	interrupts InterruptHandler
	monitor    Monitor

	cacheCfg     blockcache.Config
	compilerOpts []jit.Option
	native       jit.NativeBackend
	jitEnabled   bool
	threshold    uint64

	running     blockcache.Handle
	depth       int
	inInterrupt bool

	stats Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCacheConfig sets the block cache geometry.
func WithCacheConfig(cfg blockcache.Config) Option {
	return func(e *Engine) {
		e.cacheCfg = cfg
	}
}

// WithJIT enables translation. Blocks run through the interpreter until
// they executed threshold times, then get recompiled.
func WithJIT(threshold uint64) Option {
	return func(e *Engine) {
		e.jitEnabled = true
		e.threshold = threshold
	}
}

// WithNativeBackend adds a native backend to the JIT.
func WithNativeBackend(b jit.NativeBackend) Option {
	return func(e *Engine) {
		e.native = b
	}
}

// WithCompilerOptions passes options to the block compiler.
func WithCompilerOptions(opts ...jit.Option) Option {
	return func(e *Engine) {
		e.compilerOpts = append(e.compilerOpts, opts...)
	}
}

// WithInterruptHandler sets the interrupt delivery hook.
func WithInterruptHandler(h InterruptHandler) Option {
	return func(e *Engine) {
		e.interrupts = h
	}
}

// WithMonitor sets the monitor hook.
func WithMonitor(m Monitor) Option {
	return func(e *Engine) {
		e.monitor = m
	}
}

// New creates a driver for cpu. It takes over the memory code watch and
// the CPU's code invalidator.
func New(cpu *emu.CPU, opts ...Option) *Engine {
	e := &Engine{
		cpu:      cpu,
		mem:      cpu.Memory(),
		logger:   logrus.StandardLogger(),
		cacheCfg: blockcache.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(e)
	}

	copts := []jit.Option{jit.WithLogger(e.logger)}
	if e.jitEnabled {
		copts = append(copts, jit.WithClosureBackend(jit.NewClosureBackend()))
		if e.native != nil {
			copts = append(copts, jit.WithNativeBackend(e.native))
		}
	}

	e.compiler = jit.NewCompiler(e.mem, append(copts, e.compilerOpts...)...)
	e.cache = blockcache.New[*jit.Block](e.cacheCfg)

	e.mem.SetCodeWatch(e.codeWritten)
	cpu.SetCodeInvalidator(e)

	return e
}

// CPU returns the driven CPU.
func (e *Engine) CPU() *emu.CPU { return e.cpu }

// Cache returns the block cache.
func (e *Engine) Cache() *blockcache.Cache[*jit.Block] { return e.cache }

// Compiler returns the block compiler.
func (e *Engine) Compiler() *jit.Compiler { return e.compiler }

// JITEnabled reports whether blocks get translated.
func (e *Engine) JITEnabled() bool { return e.jitEnabled }

// Depth returns the number of active Execute calls.
func (e *Engine) Depth() int { return e.depth }

// SetInterruptHandler replaces the interrupt delivery hook.
func (e *Engine) SetInterruptHandler(h InterruptHandler) { e.interrupts = h }

// SetMonitor replaces the monitor hook.
func (e *Engine) SetMonitor(m Monitor) { e.monitor = m }

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Cache = e.cache.Stats()

	return s
}

// Close releases the native code buffer.
func (e *Engine) Close() error {
	if nb := e.compiler.Native(); nb != nil {
		return nb.Close()
	}

	return nil
}
