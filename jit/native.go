package jit

import (
	"errors"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
)

// ErrNativeUnsupported is returned where no native backend exists for the
// host.
var ErrNativeUnsupported = errors.New("jit: native backend not supported on this host")

// NativeBackend translates runs of straight-line instructions into host
// machine code.
type NativeBackend interface {
	Name() string
	// Supports reports whether op can be part of a native run.
	Supports(op uint32, info *insts.InstrInfo) bool
	// Emit translates a run of supported opcodes starting at pc.
	Emit(pc uint32, ops []uint32) (NativeCode, error)
	// Reset discards all emitted code.
	Reset()
	// Close releases the code buffer.
	Close() error
}

// NativeCode is one emitted routine. It only touches the GPRs.
type NativeCode interface {
	// PC is the guest address of the first instruction.
	PC() uint32
	// Bytes returns the host machine code.
	Bytes() []byte
	Run(regs *emu.Registers)
}
