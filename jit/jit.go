// Package jit translates guest basic blocks into runnable pieces.
//
// A compiled block is a sequence of pieces, one per guest instruction or
// per run of natively translated instructions. Each instruction goes to the
// native backend first, then to the closure backend, and finally falls back
// to the interpreter's decode-cache pair (handler, opcode).
package jit

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/blockcache"
	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
)

// ErrCodeBufferFull is returned when native code no longer fits in the
// code buffer. The caller must drop every block holding native code,
// reset the backend and compile again.
var ErrCodeBufferFull = errors.New("jit: code buffer full")

// DefaultMaxBlockLength bounds the instructions in one block.
const DefaultMaxBlockLength = 256

type pieceKind uint8

const (
	pieceInterp pieceKind = iota
	pieceClosure
	pieceNative
)

type piece struct {
	kind pieceKind
	pc   uint32
	n    uint32 // guest instructions covered

	handler emu.Handler
	opcode  uint32
	fn      func(c *emu.CPU)
	native  NativeCode
}

// Block is one compiled guest block.
type Block struct {
	PC   uint32
	Span blockcache.Span

	// Exits are the guest PCs the block may leave to directly.
	Exits []uint32

	// Compiled is false for interpreter-only blocks.
	Compiled bool

	pieces []piece
}

// Run executes the block and returns the number of guest instructions
// retired. It stops early when control leaves the straight-line path, when
// the CPU becomes fatal or when the running translation was invalidated.
func (b *Block) Run(c *emu.CPU) uint64 {
	var n uint64

	for i := range b.pieces {
		p := &b.pieces[i]
		if c.Regs.PC != p.pc || c.Flags.Test(emu.SpcFatal|emu.SpcJITExecReturn) {
			break
		}

		switch p.kind {
		case pieceNative:
			p.native.Run(&c.Regs)
			c.Regs.PC += 4 * p.n
		case pieceClosure:
			p.fn(c)
		default:
			p.handler(c, p.opcode)
		}

		n += uint64(p.n)
	}

	return n
}

// PieceCounts reports how many instructions run natively, as closures and
// through the interpreter.
func (b *Block) PieceCounts() (native, closure, interp int) {
	for _, p := range b.pieces {
		switch p.kind {
		case pieceNative:
			native += int(p.n)
		case pieceClosure:
			closure++
		default:
			interp++
		}
	}

	return native, closure, interp
}

// NativeCode returns the native runs of the block in order.
func (b *Block) NativeCode() []NativeCode {
	var out []NativeCode
	for _, p := range b.pieces {
		if p.kind == pieceNative {
			out = append(out, p.native)
		}
	}

	return out
}

// Compiler builds blocks from guest memory.
type Compiler struct {
	mem     *emu.Memory
	decoder *insts.Decoder
	logger  logrus.FieldLogger

	maxLen     int
	followJump bool

	closures *ClosureBackend
	native   NativeBackend
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithMaxBlockLength bounds the instructions in a block.
func WithMaxBlockLength(n int) Option {
	return func(c *Compiler) {
		c.maxLen = n
	}
}

// WithFollowConstJumps lets blocks continue through unconditional b.
func WithFollowConstJumps(on bool) Option {
	return func(c *Compiler) {
		c.followJump = on
	}
}

// WithClosureBackend enables the portable closure backend.
func WithClosureBackend(b *ClosureBackend) Option {
	return func(c *Compiler) {
		c.closures = b
	}
}

// WithNativeBackend enables a native code backend.
func WithNativeBackend(b NativeBackend) Option {
	return func(c *Compiler) {
		c.native = b
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// NewCompiler creates a compiler reading code from mem.
func NewCompiler(mem *emu.Memory, opts ...Option) *Compiler {
	c := &Compiler{
		mem:     mem,
		decoder: insts.NewDecoder(),
		logger:  logrus.StandardLogger(),
		maxLen:  DefaultMaxBlockLength,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxLen < 1 {
		c.maxLen = 1
	}

	return c
}

// HasBackends reports whether Compile with jit set does anything beyond
// building an interpreter block.
func (c *Compiler) HasBackends() bool {
	return c.closures != nil || c.native != nil
}

// Native returns the native backend, or nil.
func (c *Compiler) Native() NativeBackend { return c.native }

// ResetCode discards all native code.
func (c *Compiler) ResetCode() {
	if c.native != nil {
		c.native.Reset()
	}
}

// Compile decodes the block at pc. With jit unset the block is the plain
// decode cache. A fetch fault on the first instruction is returned as the
// error; later fetch faults end the block early.
func (c *Compiler) Compile(pc uint32, jit bool) (*Block, error) {
	b := &Block{PC: pc, Compiled: jit && c.HasBackends()}
	span := blockcache.Span{MinPC: pc, MaxPC: pc}
	seen := map[uint32]bool{}

	var run []uint32 // pending native opcodes
	runPC := uint32(0)

	flush := func() error {
		if len(run) == 0 {
			return nil
		}

		code, err := c.native.Emit(runPC, run)
		if err != nil {
			return err
		}

		b.pieces = append(b.pieces, piece{kind: pieceNative, pc: runPC, n: uint32(len(run)), native: code})
		run = run[:0]

		return nil
	}

	cur := pc

	for n := 0; ; n++ {
		op, f := c.mem.Load32(cur)
		if f != nil {
			if n == 0 {
				return nil, fmt.Errorf("compile 0x%08x: %w", pc, f)
			}

			// The next block faults on its own fetch.
			b.Exits = append(b.Exits, cur)
			break
		}

		info := c.decoder.Decode(op)
		seen[cur] = true
		span.Size++
		span.MinPC = min(span.MinPC, cur)
		span.MaxPC = max(span.MaxPC, cur)

		if b.Compiled && c.native != nil && c.native.Supports(op, info) {
			if len(run) == 0 {
				runPC = cur
			}
			run = append(run, op)
		} else {
			if err := flush(); err != nil {
				return nil, err
			}

			b.pieces = append(b.pieces, c.translate(cur, op, info, b.Compiled))
		}

		if info.CFlow.EndsBlock() {
			if c.follow(cur, op, info, n, seen) {
				if err := flush(); err != nil {
					return nil, err
				}

				cur = emu.BranchTarget(cur, op)
				continue
			}

			span.EndPC = cur
			b.Exits = exits(cur, op, info)
			break
		}

		if n+1 >= c.maxLen {
			span.EndPC = cur
			b.Exits = append(b.Exits, cur+4)
			break
		}

		cur += 4
	}

	if err := flush(); err != nil {
		return nil, err
	}

	if span.EndPC == 0 && span.Size > 0 {
		span.EndPC = span.MaxPC
	}

	b.Span = span

	if b.Compiled {
		native, closure, interp := b.PieceCounts()
		c.logger.WithFields(logrus.Fields{
			"pc":      pc,
			"size":    span.Size,
			"native":  native,
			"closure": closure,
			"interp":  interp,
		}).Debug("block compiled")
	}

	return b, nil
}

func (c *Compiler) translate(pc, op uint32, info *insts.InstrInfo, jit bool) piece {
	if jit && c.closures != nil {
		if fn, ok := c.closures.Compile1(op, info); ok {
			return piece{kind: pieceClosure, pc: pc, n: 1, fn: fn}
		}
	}

	return piece{kind: pieceInterp, pc: pc, n: 1, handler: emu.HandlerFor(info.Op), opcode: op}
}

// follow decides whether the block continues at the target of an
// unconditional b.
func (c *Compiler) follow(pc, op uint32, info *insts.InstrInfo, n int, seen map[uint32]bool) bool {
	if !c.followJump || info.CFlow != insts.CFlowConstJump || insts.LK(op) {
		return false
	}

	if n+1 >= c.maxLen {
		return false
	}

	return !seen[emu.BranchTarget(pc, op)]
}

// exits lists the direct successors of the terminating instruction.
func exits(pc, op uint32, info *insts.InstrInfo) []uint32 {
	switch info.CFlow {
	case insts.CFlowConstJump:
		return []uint32{emu.BranchTarget(pc, op)}
	case insts.CFlowBranch:
		return []uint32{emu.BranchTarget(pc, op), pc + 4}
	default:
		return []uint32{pc + 4}
	}
}
