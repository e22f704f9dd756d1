package bridge

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/insts"
	"github.com/sarchlab/sheepcore/lowmem"
)

// Addressing modes of integer loads and stores.
type addrMode uint8

const (
	modeNorm addrMode = iota // d(rA)
	modeU                    // d(rA), update rA
	modeX                    // rA+rB
	modeUX                   // rA+rB, update rA
)

// access describes a faulting integer load or store.
type access struct {
	store  bool
	size   uint8
	mode   addrMode
	rd, ra uint8
	rb     uint8
	disp   int32
}

type accessForm struct {
	store bool
	size  uint8
	mode  addrMode
}

// D-form loads and stores by primary opcode 32-45.
var dForms = map[uint32]accessForm{
	32: {false, 4, modeNorm}, // lwz
	33: {false, 4, modeU},    // lwzu
	34: {false, 1, modeNorm}, // lbz
	35: {false, 1, modeU},    // lbzu
	36: {true, 4, modeNorm},  // stw
	37: {true, 4, modeU},     // stwu
	38: {true, 1, modeNorm},  // stb
	39: {true, 1, modeU},     // stbu
	40: {false, 2, modeNorm}, // lhz
	41: {false, 2, modeU},    // lhzu
	42: {false, 2, modeNorm}, // lha
	43: {false, 2, modeU},    // lhau
	44: {true, 2, modeNorm},  // sth
	45: {true, 2, modeU},     // sthu
}

// X-form loads and stores by primary 31 extended opcode.
var xForms = map[uint32]accessForm{
	23:  {false, 4, modeX},  // lwzx
	55:  {false, 4, modeUX}, // lwzux
	87:  {false, 1, modeX},  // lbzx
	119: {false, 1, modeUX}, // lbzux
	151: {true, 4, modeX},   // stwx
	183: {true, 4, modeUX},  // stwux
	215: {true, 1, modeX},   // stbx
	247: {true, 1, modeUX},  // stbux
	279: {false, 2, modeX},  // lhzx
	311: {false, 2, modeUX}, // lhzux
	343: {false, 2, modeX},  // lhax
	375: {false, 2, modeUX}, // lhaux
	407: {true, 2, modeX},   // sthx
	439: {true, 2, modeUX},  // sthux
}

func classifyAccess(op uint32) (access, bool) {
	var (
		form accessForm
		ok   bool
	)

	switch p := insts.Primary(op); p {
	case 31:
		form, ok = xForms[insts.XO10(op)]
	default:
		form, ok = dForms[p]
	}

	if !ok {
		return access{}, false
	}

	return access{
		store: form.store,
		size:  form.size,
		mode:  form.mode,
		rd:    insts.RD(op),
		ra:    insts.RA(op),
		rb:    insts.RB(op),
		disp:  insts.SIMM(op),
	}, true
}

func (a access) effectiveAddress(ctx MachineContext) uint32 {
	var base uint32
	if a.ra != 0 {
		base = ctx.Gpr(int(a.ra))
	}

	if a.mode == modeX || a.mode == modeUX {
		return base + ctx.Gpr(int(a.rb))
	}

	return base + uint32(a.disp)
}

// skip retires the access without performing it.
func (a access) skip(ctx MachineContext, ea uint32) {
	if a.mode == modeU || a.mode == modeUX {
		ctx.SetGpr(int(a.ra), ea)
	}

	ctx.SetPC(ctx.GetPC() + 4)
}

// Register values with which known drivers probe unmapped I/O space.
const (
	vmProbeAddr     uint32 = 0xf8000000
	serialProbeA    uint32 = 0xf3012002
	serialProbeB    uint32 = 0xf3012000
	romVMSettings   uint32 = 0x488160 // MacOS 8 installer "VM settings"
	romVMSettings85 uint32 = 0x488140 // MacOS 8.5 installer
	romSerial8      uint32 = 0x48e080 // MacOS 8 serial drivers
	romSerial81     uint32 = 0x48c5e0 // MacOS 8.1 serial drivers
	romSerial81b    uint32 = 0x4a10a0
)

func serialProbe(v uint32) bool { return v == serialProbeA || v == serialProbeB }

// knownProbe skips the documented benign faults. It reports whether the
// fault was handled.
func (b *Bridge) knownProbe(ctx MachineContext) bool {
	pc := ctx.GetPC()
	skip := func(clearR8 bool) bool {
		if clearR8 {
			ctx.SetGpr(8, 0)
		}
		ctx.SetPC(pc + 4)

		return true
	}

	switch {
	case pc == lowmem.ROMBase+romVMSettings && ctx.Gpr(20) == vmProbeAddr:
		return skip(true)
	case pc == lowmem.ROMBase+romVMSettings85 && ctx.Gpr(16) == vmProbeAddr:
		return skip(true)
	case pc == lowmem.ROMBase+romSerial8 && serialProbe(ctx.Gpr(8)):
		return skip(true)
	case pc == lowmem.ROMBase+romSerial81 && serialProbe(ctx.Gpr(20)):
		return skip(false)
	case pc == lowmem.ROMBase+romSerial81b && serialProbe(ctx.Gpr(20)):
		return skip(false)
	case pc-lowmem.DRCacheBase < lowmem.DRCacheSize && (serialProbe(ctx.Gpr(16)) || serialProbe(ctx.Gpr(20))):
		return skip(false)
	}

	return false
}

func within(addr, base, size uint32) bool { return addr-base < size }

// macCode reports whether pc lies in guest ROM, RAM or the DR cache.
func (b *Bridge) macCode(pc uint32) bool {
	return within(pc, lowmem.ROMBase, lowmem.ROMAreaSize) ||
		within(pc, b.cfg.RAMBase, b.cfg.RAMSize) ||
		within(pc, lowmem.DRCacheBase, lowmem.DRCacheSize)
}

// HandleFault implements emu.FaultHandler for guest memory faults.
func (b *Bridge) HandleFault(c *emu.CPU, opcode uint32, f *emu.Fault) bool {
	ctx := &c.Regs

	if !b.state.Ready() {
		b.fatal(c, "memory fault before the emulator was ready", opcode)
		return false
	}

	if b.macCode(ctx.PC) {
		if b.knownProbe(ctx) {
			b.stats.FaultsSkipped++
			return true
		}

		if a, ok := classifyAccess(opcode); ok {
			ea := a.effectiveAddress(ctx)

			// ROM and zero page are read-only to the guest.
			if a.store && (within(ea, lowmem.ROMBase, lowmem.ROMSize) ||
				within(ea, b.cfg.ZeroPage, lowmem.ZeroPageSize)) {
				a.skip(ctx, ea)
				b.stats.FaultsSkipped++

				return true
			}

			if b.cfg.IgnoreSegv {
				if !a.store {
					ctx.SetGpr(int(a.rd), 0)
				}
				a.skip(ctx, ea)
				b.stats.FaultsSkipped++

				return true
			}
		}
	}

	b.logger.WithFields(logrus.Fields{
		"addr":  f.Addr,
		"write": f.Write,
		"kind":  f.Kind,
	}).Error("unhandled memory fault")
	b.fatal(c, "SIGSEGV", opcode)

	return false
}

// SPRs whose accesses are skipped.
var (
	skippedMFSPR = map[uint32]bool{0: true, 22: true}
	skippedMTSPR = map[uint32]bool{0: true, 22: true, 275: true, 1008: true, 1009: true}
)

// POWER-only extended opcodes of primary 31.
var powerOps = map[uint32]bool{
	29: true, 107: true, 152: true, 153: true, 184: true, 216: true,
	217: true, 248: true, 264: true, 277: true, 331: true, 360: true,
	363: true, 488: true, 531: true, 537: true, 541: true, 664: true,
	665: true, 696: true, 728: true, 729: true, 760: true, 920: true,
	921: true, 952: true,
}

// HandleIllegal implements emu.FaultHandler for illegal instructions. It
// emulates the supervisor instructions MacOS is known to run in user mode.
func (b *Bridge) HandleIllegal(c *emu.CPU, opcode uint32) bool {
	ctx := &c.Regs

	if !b.state.Ready() {
		b.fatal(c, "illegal instruction before the emulator was ready", opcode)
		return false
	}

	rd := int(insts.RD(opcode))
	next := func() bool {
		ctx.SetPC(ctx.GetPC() + 4)
		b.stats.IllegalsSkipped++

		return true
	}

	switch insts.Primary(opcode) {
	case 9, 22:
		b.fatal(c, "POWER instruction", opcode)
		return false

	case 31:
		xo := insts.XO10(opcode)

		switch xo {
		case 83: // mfmsr
			ctx.SetGpr(rd, 0xf072)
			return next()
		case 210, 242, 306: // mtsr, mtsrin, tlbie
			return next()
		case 339: // mfspr
			switch spr := insts.SPR(opcode); {
			case skippedMFSPR[spr], spr >= 952 && spr <= 959:
				return next()
			case spr == 25: // SDR1
				ctx.SetGpr(rd, 0xdead001f)
				return next()
			case spr == insts.SPRPVR:
				ctx.SetGpr(rd, c.PVR())
				return next()
			}
		case 467: // mtspr
			if spr := insts.SPR(opcode); skippedMTSPR[spr] || (spr >= 528 && spr <= 543) {
				return next()
			}
		}

		if powerOps[xo] {
			b.fatal(c, "POWER instruction", opcode)
			return false
		}
	}

	if b.cfg.IgnoreIllegal {
		return next()
	}

	b.fatal(c, "SIGILL", opcode)

	return false
}

// fatal logs the register dump and enters the monitor when enabled.
func (b *Bridge) fatal(c *emu.CPU, reason string, opcode uint32) {
	b.logger.WithFields(DumpFields(&c.Regs)).
		WithField("opcode", opcode).
		WithField("mode", lowmem.ModeName(b.state.RunMode())).
		Error(reason)

	if b.cfg.MonitorOnFault && b.monitor != nil {
		b.monitor(c, reason)
	}
}
