package emu

import "fmt"

// FaultHandler resolves guest memory faults and illegal instructions.
//
// Returning true resumes execution: the handler has already updated the
// registers and PC as the skipped or emulated instruction requires.
// Returning false makes the CPU fatal.
type FaultHandler interface {
	HandleFault(c *CPU, opcode uint32, f *Fault) bool
	HandleIllegal(c *CPU, opcode uint32) bool
}

// SheepHandler receives the SheepShaver pseudo-ops that leave the CPU.
type SheepHandler interface {
	// EmulOp runs emulator operation selector. The handler advances PC.
	EmulOp(c *CPU, opcode, selector uint32)
	// NativeOp runs native routine selector. The handler sets PC.
	NativeOp(c *CPU, selector uint32, returnToLR bool)
}

// CodeInvalidator drops translations covering guest code.
type CodeInvalidator interface {
	InvalidateCode(start, end uint32)
}

// FatalError is an unrecoverable CPU error. It carries a snapshot of the
// register file at the point of failure.
type FatalError struct {
	PC     uint32
	Opcode uint32
	Reason string
	Regs   Registers
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal at pc=0x%08x opcode=0x%08x: %s: %v",
			e.PC, e.Opcode, e.Reason, e.Err)
	}

	return fmt.Sprintf("fatal at pc=0x%08x opcode=0x%08x: %s", e.PC, e.Opcode, e.Reason)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
