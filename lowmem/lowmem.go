// Package lowmem defines the guest low-memory globals shared between the
// emulator and guest code, and the fixed addresses of the Mac memory map.
//
// Cells are 32-bit big-endian guest words. Mutations are compare-and-swap
// loops so that host threads and the emulation thread can race safely.
package lowmem

// Low-memory globals (XLM) in guest page 2.
const (
	XLMSignature       uint32 = 0x2800 // "Baah" once the emulator is up
	XLMKernelData      uint32 = 0x2804 // kernel data address
	XLMTOC             uint32 = 0x2808 // TOC pointer of emulator code
	XLMSheepObj        uint32 = 0x280c // pointer to the emulator object
	XLMRunMode         uint32 = 0x2810 // current run mode
	XLM68KR25          uint32 = 0x2814 // 68k r25 (interrupt level) saved while native
	XLMIRQNest         uint32 = 0x2818 // interrupt disable nesting counter
	XLMPVR             uint32 = 0x281c // theoretical PVR
	XLMBusClock        uint32 = 0x2820 // bus clock speed in Hz
	XLMEmulReturnProc  uint32 = 0x2824 // proc to return to the emulator
	XLMExecReturnProc  uint32 = 0x2828 // proc returning from Execute68k
	XLMEmulOpProc      uint32 = 0x282c // proc running an emulator op
	XLMEmulReturnStack uint32 = 0x2830 // stack pointer for EMUL_RETURN
	XLMExecReturnOp    uint32 = 0x2850 // 68k EXEC_RETURN opcode, return address of Execute68k
	XLMZeroPage        uint32 = 0x2854 // address of the read-only zero page
)

// 68k opcodes the emulator cooperates with.
const (
	M68KRTS        uint16 = 0x4e75
	M68KEmulReturn uint16 = 0x7100
	M68KExecReturn uint16 = 0x7101
	M68KEmulBreak  uint16 = 0x7102
)

// Signature is the XLMSignature value, FOURCC 'Baah'.
const Signature uint32 = 0x42616168

// Run modes stored at XLMRunMode.
const (
	ModeM68K   uint32 = 0 // running 68k code under the emulator
	ModeNative uint32 = 1 // running native PowerPC code
	ModeEmulOp uint32 = 2 // inside an emulator op
)

// ModeName returns a short name for a run mode.
func ModeName(mode uint32) string {
	switch mode {
	case ModeM68K:
		return "68k"
	case ModeNative:
		return "native"
	case ModeEmulOp:
		return "emul-op"
	default:
		return "unknown"
	}
}

// Fixed addresses of the emulated Mac memory map.
const (
	KernelDataAddr uint32 = 0x68ffe000
	KernelDataSize uint32 = 0x2000

	ROMBase     uint32 = 0x40800000
	ROMSize     uint32 = 0x400000
	ROMAreaSize uint32 = 0x500000

	DRCacheBase uint32 = 0x69000000
	DRCacheSize uint32 = 0x80000

	// ZeroPageSize is the size of the low-memory page whose writes are
	// ignored by the fault path.
	ZeroPageSize uint32 = 0x3000
)

// Kernel data offsets (relative to KernelDataAddr).
const (
	KDSavedSP      uint32 = 0x004 // r1 at nanokernel interrupt entry
	KDSavedR6      uint32 = 0x018 // r6 at nanokernel interrupt entry
	KDContextA     uint32 = 0x658 // current native context
	KDContextB     uint32 = 0x65c // saved context
	KDInterruptR7  uint32 = 0x660 // r7 for the nanokernel interrupt routine
	KDCRMask       uint32 = 0x674 // CR bits signalling a pending 68k interrupt
	KDLevelCell    uint32 = 0x67c // pointer to the 68k interrupt level word

	// KDEmulatorData is the 68k emulator data block; r31 points at it
	// while the emulator runs.
	KDEmulatorData uint32 = 0x1000
	KDOpcodeTable  uint32 = KDEmulatorData + EDOpcodeTable
	KDEmulatorAddr uint32 = KDEmulatorData + EDEmulatorAddr
)

// Offsets inside the 68k emulator data block.
const (
	EDOpcodeTable  uint32 = 0x74 // 68k opcode dispatch table
	EDEmulatorAddr uint32 = 0x78 // emulator entry
)

// Offsets inside a nanokernel context block.
const (
	CtxInterruptCR uint32 = 0xdc  // CR bits raised on interrupt entry
	CtxSavedR7     uint32 = 0x13c // r7..r13 saved 8 bytes apart
)

// Nanokernel interrupt entry points, relative to ROMBase.
const (
	NanokernelIRQOldWorld uint32 = 0x312a3c
	NanokernelIRQNewWorld uint32 = 0x312b1c
)

// KernelData returns the address of kernel data offset off.
func KernelData(off uint32) uint32 {
	return KernelDataAddr + off
}
