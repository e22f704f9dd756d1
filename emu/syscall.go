package emu

import (
	"io"
	"os"
)

// PowerPC Linux syscall numbers.
const (
	SyscallExit  uint32 = 1 // exit(status)
	SyscallRead  uint32 = 3 // read(fd, buf, count)
	SyscallWrite uint32 = 4 // write(fd, buf, count)
	SyscallOpen  uint32 = 5 // open(path, flags, mode)
	SyscallClose uint32 = 6 // close(fd)
)

// Linux error codes.
const (
	EBADF  = 9  // Bad file descriptor
	EIO    = 5  // I/O error
	ENOENT = 2  // No such file or directory
	EFAULT = 14 // Bad address
	ENOSYS = 38 // Function not implemented
)

// maxPathLen bounds the guest path strings read by open.
const maxPathLen = 4096

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32
}

// SyscallHandler is the interface for handling PowerPC syscalls.
type SyscallHandler interface {
	// Handle executes the syscall indicated by the register file state.
	// PowerPC Linux syscall convention:
	//   - Syscall number in r0
	//   - Arguments in r3-r8
	//   - Return value in r3; on error r3 holds errno and CR0.SO is set
	Handle() SyscallResult
}

// DefaultSyscallHandler provides a basic syscall handler implementation.
type DefaultSyscallHandler struct {
	regs   *Registers
	memory *Memory
	fds    *FDTable
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewDefaultSyscallHandler creates a default syscall handler.
func NewDefaultSyscallHandler(regs *Registers, memory *Memory, stdout, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		regs:   regs,
		memory: memory,
		fds:    NewFDTable(),
		stdout: stdout,
		stderr: stderr,
	}
}

// SetStdin sets the stdin reader for the syscall handler.
func (h *DefaultSyscallHandler) SetStdin(stdin io.Reader) {
	h.stdin = stdin
}

// Handle executes the syscall indicated by the register file state.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	switch h.regs.GPR[0] {
	case SyscallExit:
		return SyscallResult{Exited: true, ExitCode: int32(h.regs.GPR[3])}
	case SyscallRead:
		h.handleRead()
	case SyscallWrite:
		h.handleWrite()
	case SyscallOpen:
		h.handleOpen()
	case SyscallClose:
		h.handleClose()
	default:
		h.setError(ENOSYS)
	}

	return SyscallResult{}
}

func (h *DefaultSyscallHandler) handleRead() {
	fd := h.regs.GPR[3]
	bufPtr := h.regs.GPR[4]
	count := h.regs.GPR[5]

	if !h.memory.IsMapped(bufPtr, count) {
		h.setError(EFAULT)
		return
	}

	buf := make([]byte, count)

	var (
		n   int
		err error
	)

	switch fd {
	case 0:
		// No stdin configured reads as EOF.
		if h.stdin == nil {
			h.setResult(0)
			return
		}
		n, err = h.stdin.Read(buf)
	default:
		if !h.fds.IsOpen(fd) {
			h.setError(EBADF)
			return
		}
		n, err = h.fds.Read(fd, buf)
	}

	if err != nil && err != io.EOF && n == 0 {
		h.setError(EIO)
		return
	}

	// Copy through the memory system so translated code is invalidated.
	if err := h.memory.WriteBytes(bufPtr, buf[:n]); err != nil {
		h.setError(EFAULT)
		return
	}

	h.setResult(uint32(n))
}

func (h *DefaultSyscallHandler) handleWrite() {
	fd := h.regs.GPR[3]
	bufPtr := h.regs.GPR[4]
	count := h.regs.GPR[5]

	buf := h.memory.Bytes(bufPtr, count)
	if buf == nil {
		h.setError(EFAULT)
		return
	}

	var (
		n   int
		err error
	)

	switch fd {
	case 1:
		n, err = h.stdout.Write(buf)
	case 2:
		n, err = h.stderr.Write(buf)
	default:
		if !h.fds.IsOpen(fd) {
			h.setError(EBADF)
			return
		}
		n, err = h.fds.Write(fd, buf)
	}

	if err != nil {
		h.setError(EIO)
		return
	}

	h.setResult(uint32(n))
}

func (h *DefaultSyscallHandler) handleOpen() {
	path, ok := h.readString(h.regs.GPR[3])
	if !ok {
		h.setError(EFAULT)
		return
	}

	fd, err := h.fds.Open(path, int(h.regs.GPR[4]), os.FileMode(h.regs.GPR[5]&0o777))
	if err != nil {
		h.setError(ENOENT)
		return
	}

	h.setResult(fd)
}

func (h *DefaultSyscallHandler) handleClose() {
	if err := h.fds.Close(h.regs.GPR[3]); err != nil {
		h.setError(EBADF)
		return
	}

	h.setResult(0)
}

func (h *DefaultSyscallHandler) readString(addr uint32) (string, bool) {
	var out []byte
	for i := uint32(0); i < maxPathLen; i++ {
		b, f := h.memory.Load8(addr + i)
		if f != nil {
			return "", false
		}

		if b == 0 {
			return string(out), true
		}

		out = append(out, b)
	}

	return "", false
}

func (h *DefaultSyscallHandler) setResult(v uint32) {
	h.regs.GPR[3] = v
	h.regs.SetCRBit(3, false)
}

// setError stores errno in r3 and sets CR0.SO.
func (h *DefaultSyscallHandler) setError(errno int) {
	h.regs.GPR[3] = uint32(errno)
	h.regs.SetCRBit(3, true)
}
