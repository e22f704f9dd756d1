package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/sarchlab/sheepcore/bridge"
	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
	"github.com/sarchlab/sheepcore/lowmem"
)

const helpText = `r              registers
m [addr [n]]   memory words
d [addr [n]]   disassembly
b              block cache and engine statistics
j [pc]         native code of the block at pc
i              interrupt state
lua file       run a Lua script
g              continue
q              quit the emulator
`

// exec runs one command and reports whether the session ends.
func (m *Monitor) exec(args []string) bool {
	if len(args) == 0 {
		return false
	}

	var err error

	switch args[0] {
	case "g":
		return true
	case "q":
		m.cpu.Flags.Set(emu.SpcEmulReturn)
		return true
	case "r":
		m.registers()
	case "m":
		err = m.memory(args[1:])
	case "d":
		err = m.disassembly(args[1:])
	case "b":
		err = m.blocks()
	case "j":
		err = m.native(args[1:])
	case "i":
		err = m.interrupts()
	case "lua":
		if len(args) != 2 {
			err = fmt.Errorf("usage: lua file")
			break
		}
		err = m.RunFile(m.cpu, args[1])
	case "h", "?":
		fmt.Fprint(m.w, helpText)
	default:
		err = fmt.Errorf("unknown command %q, h for help", args[0])
	}

	if err != nil {
		fmt.Fprintf(m.w, "error: %v\n", err)
	}

	return false
}

// value parses a hex number or a register name.
func (m *Monitor) value(s string) (uint32, error) {
	r := &m.cpu.Regs

	switch s {
	case "pc":
		return r.PC, nil
	case "lr":
		return r.LR, nil
	case "ctr":
		return r.CTR, nil
	}

	if strings.HasPrefix(s, "r") {
		if n, err := strconv.Atoi(s[1:]); err == nil && n >= 0 && n < 32 {
			return r.GPR[n], nil
		}
	}

	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "$")

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}

	return uint32(v), nil
}

// span parses optional address and count arguments.
func (m *Monitor) span(args []string, addr, n uint32) (uint32, uint32, error) {
	var err error

	if len(args) > 0 {
		if addr, err = m.value(args[0]); err != nil {
			return 0, 0, err
		}
	}

	if len(args) > 1 {
		v, err := strconv.ParseUint(args[1], 0, 16)
		if err != nil {
			return 0, 0, fmt.Errorf("bad count %q", args[1])
		}
		n = uint32(v)
	}

	return addr, n, nil
}

func (m *Monitor) registers() {
	r := &m.cpu.Regs

	fmt.Fprintf(m.w, "pc  %08x  lr  %08x  ctr %08x\n", r.PC, r.LR, r.CTR)
	fmt.Fprintf(m.w, "cr  %08x  xer %08x\n", r.CR, r.XER)

	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(m.w, "r%-2d %08x  r%-2d %08x  r%-2d %08x  r%-2d %08x\n",
			i, r.GPR[i], i+1, r.GPR[i+1], i+2, r.GPR[i+2], i+3, r.GPR[i+3])
	}
}

func (m *Monitor) memory(args []string) error {
	addr, n, err := m.span(args, m.lastMem, 16)
	if err != nil {
		return err
	}

	mem := m.cpu.Memory()

	for i := uint32(0); i < n; i += 4 {
		fmt.Fprintf(m.w, "%08x ", addr+4*i)

		for j := i; j < i+4 && j < n; j++ {
			v, f := mem.Load32(addr + 4*j)
			if f != nil {
				fmt.Fprint(m.w, " ????????")
				continue
			}
			fmt.Fprintf(m.w, " %08x", v)
		}

		fmt.Fprintln(m.w)
	}

	m.lastMem = addr + 4*n

	return nil
}

func (m *Monitor) disasm(pc uint32) string {
	op, f := m.cpu.Memory().Load32(pc)
	if f != nil {
		return "<unmapped>"
	}

	return insts.Disassemble(pc, op)
}

func (m *Monitor) disassembly(args []string) error {
	addr, n, err := m.span(args, m.lastDis, 16)
	if err != nil {
		return err
	}

	for i := uint32(0); i < n; i++ {
		pc := addr + 4*i
		fmt.Fprintf(m.w, "%08x  %s\n", pc, m.disasm(pc))
	}

	m.lastDis = addr + 4*n

	return nil
}

func (m *Monitor) blocks() error {
	if m.engine == nil {
		return fmt.Errorf("no engine attached")
	}

	c := m.engine.Cache()
	fmt.Fprintf(m.w, "blocks %d (active %d, dormant %d), jit %v\n",
		c.Len(), c.Active(), c.Dormant(), m.engine.JITEnabled())
	_, err := m.pp.Fprintln(m.w, m.engine.Stats())

	return err
}

func (m *Monitor) native(args []string) error {
	if m.engine == nil {
		return fmt.Errorf("no engine attached")
	}

	pc, _, err := m.span(args, m.cpu.Regs.PC, 0)
	if err != nil {
		return err
	}

	_, b, ok := m.engine.Cache().Find(pc)
	if !ok {
		return fmt.Errorf("no block at %08x", pc)
	}

	native, closure, interp := b.Data.PieceCounts()
	fmt.Fprintf(m.w, "block %08x-%08x: %d native, %d closure, %d interpreted\n",
		b.MinPC, b.MaxPC, native, closure, interp)

	for _, code := range b.Data.NativeCode() {
		fmt.Fprintf(m.w, "; guest %08x  %s\n", code.PC(), m.disasm(code.PC()))
		listX86(m, code.Bytes())
	}

	return nil
}

// listX86 prints host x86-64 machine code.
func listX86(m *Monitor, code []byte) {
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil {
			fmt.Fprintf(m.w, "  %04x  .byte 0x%02x\n", off, code[off])
			off++

			continue
		}

		fmt.Fprintf(m.w, "  %04x  %s\n", off, x86asm.IntelSyntax(inst, uint64(off), nil))
		off += inst.Len
	}
}

func (m *Monitor) interrupts() error {
	if m.bridge == nil {
		return fmt.Errorf("no bridge attached")
	}

	s := m.bridge.State()
	fmt.Fprintf(m.w, "mode %s  nest %d  pending %d  flags %02x  ready %v\n",
		lowmem.ModeName(s.RunMode()), s.IRQNest(), s.Pending(), s.InterruptFlags(), s.Ready())

	stats := m.bridge.Stats()
	_, err := m.pp.Fprintln(m.w, stats)

	return err
}

var _ bridge.MonitorFunc = (*Monitor)(nil).OnFault
