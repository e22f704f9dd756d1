package jit

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
)

// DefaultCodeBufferSize is the executable memory reserved for native code.
const DefaultCodeBufferSize = 4 << 20

// callNative calls the routine at entry with gpr in RDI.
//
//go:noescape
func callNative(entry uintptr, gpr *[32]uint32)

// CodeBuffer is a bump allocator over an RWX mapping.
type CodeBuffer struct {
	mem []byte
	off int
}

// NewCodeBuffer maps size bytes of executable memory.
func NewCodeBuffer(size int) (*CodeBuffer, error) {
	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("jit: mmap code buffer: %w", err)
	}

	return &CodeBuffer{mem: mem}, nil
}

// Alloc copies code into the buffer and returns its location.
func (b *CodeBuffer) Alloc(code []byte) ([]byte, error) {
	// Keep routines 16-byte aligned.
	start := (b.off + 15) &^ 15
	if start+len(code) > len(b.mem) {
		return nil, ErrCodeBufferFull
	}

	dst := b.mem[start : start+len(code) : start+len(code)]
	copy(dst, code)
	b.off = start + len(code)

	return dst, nil
}

// Used returns the bytes allocated so far.
func (b *CodeBuffer) Used() int { return b.off }

// Size returns the buffer capacity.
func (b *CodeBuffer) Size() int { return len(b.mem) }

// Reset forgets every routine.
func (b *CodeBuffer) Reset() { b.off = 0 }

// Close unmaps the buffer.
func (b *CodeBuffer) Close() error {
	if b.mem == nil {
		return nil
	}

	err := unix.Munmap(b.mem)
	b.mem = nil
	b.off = 0

	return err
}

type x86Code struct {
	pc   uint32
	code []byte
}

func (c *x86Code) PC() uint32    { return c.pc }
func (c *x86Code) Bytes() []byte { return c.code }

func (c *x86Code) Run(regs *emu.Registers) {
	callNative(uintptr(unsafe.Pointer(&c.code[0])), &regs.GPR)
}

// X86Backend emits x86-64 code for integer runs.
type X86Backend struct {
	buf     *CodeBuffer
	decoder *insts.Decoder
}

// NewX86Backend maps a code buffer of size bytes (DefaultCodeBufferSize
// when size is 0).
func NewX86Backend(size int) (*X86Backend, error) {
	if size == 0 {
		size = DefaultCodeBufferSize
	}

	buf, err := NewCodeBuffer(size)
	if err != nil {
		return nil, err
	}

	return &X86Backend{buf: buf, decoder: insts.NewDecoder()}, nil
}

// Name returns "x86-64".
func (*X86Backend) Name() string { return "x86-64" }

// Supports reports whether op has an x86 translation.
func (*X86Backend) Supports(op uint32, info *insts.InstrInfo) bool {
	return x86Supports(op, info)
}

// Emit assembles ops into the code buffer.
func (x *X86Backend) Emit(pc uint32, ops []uint32) (NativeCode, error) {
	code, err := x.buf.Alloc(assembleX86(x.decoder, ops))
	if err != nil {
		return nil, err
	}

	return &x86Code{pc: pc, code: code}, nil
}

// Buffer returns the code buffer.
func (x *X86Backend) Buffer() *CodeBuffer { return x.buf }

// Reset discards all emitted code.
func (x *X86Backend) Reset() { x.buf.Reset() }

// Close unmaps the code buffer.
func (x *X86Backend) Close() error { return x.buf.Close() }

// NewNativeBackend returns the native backend for this host.
func NewNativeBackend(size int) (NativeBackend, error) {
	b, err := NewX86Backend(size)
	if err != nil {
		return nil, err
	}

	return b, nil
}
