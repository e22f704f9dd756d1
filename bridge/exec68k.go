package bridge

import (
	"errors"
	"fmt"

	"github.com/sarchlab/sheepcore/lowmem"
)

// ErrTooManyArgs is returned by calls with more than eight arguments.
var ErrTooManyArgs = errors.New("bridge: at most 8 arguments fit in r3-r10")

// M68kRegisters holds the 68k registers exchanged with 68k code.
type M68kRegisters struct {
	D  [8]uint32
	A  [8]uint32
	SR uint16
}

// crSupervisor is the CR image of a 68k supervisor-mode entry (SO of
// cr2).
const crSupervisor = 1 << (31 - 11)

// Execute68k runs the 68k routine at entry through the 68k emulator in
// ROM and returns when it executed RTS. d0-d7 and a0-a6 are passed in and
// out through regs. Native registers r13-r31, f14-f31 and the program
// counters are preserved. Only the emulation goroutine may call it.
func (b *Bridge) Execute68k(entry uint32, regs *M68kRegisters) error {
	r := b.regs()
	savedPC, savedLR, savedCTR, savedCR := r.PC, r.LR, r.CTR, r.CR

	// MacOS stack frame.
	sp := r.GPR[1]
	r.GPR[1] -= 56
	b.mem.Write32(r.GPR[1], sp)

	var saved [19]uint32
	copy(saved[:], r.GPR[13:])

	var savedFP [18]float64
	copy(savedFP[:], r.FPR[14:])

	r.CR = crSupervisor
	for i := 0; i < 8; i++ {
		r.GPR[8+i] = regs.D[i]
	}
	for i := 0; i < 7; i++ {
		r.GPR[16+i] = regs.A[i]
	}

	r.GPR[23] = 0
	r.GPR[24] = entry
	r.GPR[25] = b.state.SavedR25()
	r.GPR[26] = 0
	r.GPR[28] = 0 // VBR
	r.GPR[29] = b.kernel(lowmem.KDOpcodeTable)
	r.GPR[30] = b.kernel(lowmem.KDEmulatorAddr)
	r.GPR[31] = lowmem.KernelData(lowmem.KDEmulatorData)

	// RTS of the routine lands on the 68k EXEC_RETURN opcode.
	r.GPR[1] -= 4
	b.mem.Write32(r.GPR[1], lowmem.XLMExecReturnOp)

	b.SetRunMode(lowmem.ModeM68K)
	r.GPR[0] = 0

	// Dispatch the first opcode the way the emulator's fetch loop does.
	opcode := uint32(b.mem.Read16(r.GPR[24]))
	r.GPR[24] += 2
	r.GPR[27] = uint32(int32(int16(b.mem.Read16(r.GPR[24]))))
	r.GPR[29] += opcode * 8

	err := b.exec.Execute(r.GPR[29])

	b.state.SetSavedR25(r.GPR[25])
	b.SetRunMode(lowmem.ModeEmulOp)

	for i := 0; i < 8; i++ {
		regs.D[i] = r.GPR[8+i]
	}
	for i := 0; i < 7; i++ {
		regs.A[i] = r.GPR[16+i]
	}

	copy(r.GPR[13:], saved[:])
	copy(r.FPR[14:], savedFP[:])
	r.GPR[1] = sp

	r.PC, r.LR, r.CTR, r.CR = savedPC, savedLR, savedCTR, savedCR

	if err != nil {
		return fmt.Errorf("execute 68k at 0x%08x: %w", entry, err)
	}

	return nil
}

// ExecuteTrap runs a 68k A-line trap with regs.
func (b *Bridge) ExecuteTrap(trap uint16, regs *M68kRegisters) error {
	proc, err := b.scratch.Reserve(4)
	if err != nil {
		return err
	}
	defer b.scratch.Release(proc)

	b.mem.Write16(proc, trap)
	b.mem.Write16(proc+2, lowmem.M68KRTS)

	return b.Execute68k(proc, regs)
}

// CallMacOS calls the native routine behind transition vector tvect with
// args in r3 and up, and returns r3.
func (b *Bridge) CallMacOS(tvect uint32, args ...uint32) (uint32, error) {
	code := b.mem.Read32(tvect)
	toc := b.mem.Read32(tvect + 4)

	return b.call(code, &toc, args)
}

// CallPPC calls the native routine at entry with args in r3 and up, and
// returns r3.
func (b *Bridge) CallPPC(entry uint32, args ...uint32) (uint32, error) {
	return b.call(entry, nil, args)
}

func (b *Bridge) call(entry uint32, toc *uint32, args []uint32) (uint32, error) {
	if len(args) > 8 {
		return 0, ErrTooManyArgs
	}

	r := b.regs()
	savedPC, savedLR, savedCTR := r.PC, r.LR, r.CTR

	r.LR = b.execReturn
	r.GPR[1] -= 64

	if toc != nil {
		r.GPR[2] = *toc
	}

	for i, a := range args {
		r.GPR[3+i] = a
	}

	err := b.exec.Execute(entry)

	r.GPR[1] += 64
	r.PC, r.LR, r.CTR = savedPC, savedLR, savedCTR

	if err != nil {
		return 0, fmt.Errorf("call 0x%08x: %w", entry, err)
	}

	return r.GPR[3], nil
}
