package engine

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/blockcache"
	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/jit"
)

// Execute runs guest code from entry until the guest executes EXEC_RETURN
// (nil), asks to quit (ErrEmulReturn) or the CPU turns fatal
// (*emu.FatalError). Calls may nest from pseudo-op handlers.
func (e *Engine) Execute(entry uint32) error {
	c := e.cpu
	c.Regs.PC = entry

	e.depth++
	defer func() { e.depth-- }()

	var prev blockcache.Handle

	for {
		if c.Flags.Any() {
			if done, err := e.checkSpcFlags(); done {
				return err
			}
		}

		h, err := e.fetch(prev, c.Regs.PC)
		if err != nil {
			c.Fail("instruction fetch", err)
			continue
		}

		b, _ := e.cache.Get(h)
		b.Count++
		code := b.Data

		outer := e.running
		e.running = h
		e.stats.Instructions += code.Run(c)
		e.running = outer

		prev = h
	}
}

// checkSpcFlags services the special flags. It reports whether Execute
// must return, and with what.
func (e *Engine) checkSpcFlags() (bool, error) {
	f := &e.cpu.Flags

	if f.Test(emu.SpcFatal) {
		return true, e.cpu.Err()
	}

	if f.Test(emu.SpcEmulReturn) {
		return true, ErrEmulReturn
	}

	if f.Test(emu.SpcExecReturn) {
		f.Clear(emu.SpcExecReturn)
		return true, nil
	}

	if f.Test(emu.SpcHandleInterrupt) {
		f.Clear(emu.SpcHandleInterrupt)

		if !e.inInterrupt && e.interrupts != nil {
			e.inInterrupt = true
			e.interrupts.HandleInterrupt(e.cpu)
			e.inInterrupt = false
		}
	}

	if f.Test(emu.SpcTriggerInterrupt) {
		f.Clear(emu.SpcTriggerInterrupt)
		f.Set(emu.SpcHandleInterrupt)
	}

	if f.Test(emu.SpcEnterMonitor) {
		f.Clear(emu.SpcEnterMonitor)

		if e.monitor != nil {
			e.monitor.Enter(e)
		}
	}

	if f.Test(emu.SpcJITExecReturn) {
		f.Clear(emu.SpcJITExecReturn)
	}

	return false, nil
}

// fetch returns the block for pc, preferring the chain slot of the block
// that just ran.
func (e *Engine) fetch(prev blockcache.Handle, pc uint32) (blockcache.Handle, error) {
	if pb, ok := e.cache.Get(prev); ok {
		if h, b, ok := e.cache.Linked(pb, pc); ok {
			e.stats.ChainHits++

			nh, err := e.promote(h, b)
			if err == nil && nh != h {
				e.link(prev, pc, nh)
			}

			return nh, err
		}
	}

	var (
		h   blockcache.Handle
		err error
	)

	if fh, b, ok := e.cache.Find(pc); ok {
		e.stats.CacheHits++
		h, err = e.promote(fh, b)
	} else {
		h, err = e.compile(pc, e.jitEnabled && e.threshold == 0)
	}

	if err == nil {
		e.link(prev, pc, h)
	}

	return h, err
}

// promote recompiles b with the JIT once it ran often enough.
func (e *Engine) promote(h blockcache.Handle, b *blockcache.Block[*jit.Block]) (blockcache.Handle, error) {
	if !e.jitEnabled || b.Data.Compiled || b.Count < e.threshold || !e.compiler.HasBackends() {
		return h, nil
	}

	count := b.Count

	nh, err := e.compile(b.PC, true)
	if err != nil {
		return h, err
	}

	nb, _ := e.cache.Get(nh)
	nb.Count = count
	e.stats.Promotions++

	return nh, nil
}

// link records the edge prev -> h in the slot of the exit matching pc.
func (e *Engine) link(prev blockcache.Handle, pc uint32, h blockcache.Handle) {
	pb, ok := e.cache.Get(prev)
	if !ok {
		return
	}

	for i, exit := range pb.Data.Exits {
		if exit == pc && i < blockcache.NumLinks {
			e.cache.Link(prev, i, pc, h)
			return
		}
	}
}

// compile translates and inserts the block at pc. A full code buffer
// flushes everything and is retried once.
func (e *Engine) compile(pc uint32, withJIT bool) (blockcache.Handle, error) {
	code, err := e.compiler.Compile(pc, withJIT)
	if errors.Is(err, jit.ErrCodeBufferFull) {
		e.logger.WithField("pc", pc).Info("code buffer full, flushing translation cache")
		e.flushAll()

		code, err = e.compiler.Compile(pc, withJIT)
	}

	if err != nil {
		return blockcache.Handle{}, err
	}

	h := e.cache.Insert(pc, code.Span, code)
	e.mem.MarkCode(code.Span.MinPC, code.Span.MaxPC+4)
	e.stats.BlocksCompiled++

	return h, nil
}

// flushAll drops every block and all native code.
func (e *Engine) flushAll() {
	e.cache.Clear()
	e.compiler.ResetCode()
	e.mem.ClearCodeMarks()
	e.stats.Flushes++

	if e.running.Valid() {
		e.cpu.Flags.Set(emu.SpcJITExecReturn)
	}
}

// FlushCodeCache drops every block overlapping [start, end). Collaborators
// call it after writing guest code.
func (e *Engine) FlushCodeCache(start, end uint32) {
	if start >= end {
		return
	}

	if b, ok := e.cache.Get(e.running); ok && b.Covers(start, end) {
		e.cpu.Flags.Set(emu.SpcJITExecReturn)
	}

	n := e.cache.InvalidateRange(start, end)
	e.stats.Invalidations += uint64(n)

	if n > 0 {
		e.logger.WithFields(logrus.Fields{
			"start":  start,
			"end":    end,
			"blocks": n,
		}).Debug("code cache invalidated")
	}
}

// FlushAll drops the whole translation cache.
func (e *Engine) FlushAll() {
	e.flushAll()
	e.logger.Info("code cache flushed")
}

// InvalidateCode implements emu.CodeInvalidator for icbi.
func (e *Engine) InvalidateCode(start, end uint32) {
	e.FlushCodeCache(start, end)
}

func (e *Engine) codeWritten(start, end uint32) {
	e.FlushCodeCache(start, end)
}
