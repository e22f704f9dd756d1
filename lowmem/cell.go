package lowmem

import "github.com/sarchlab/sheepcore/emu"

// Cell is one big-endian guest word accessed atomically.
type Cell struct {
	mem  *emu.Memory
	addr uint32
}

// NewCell binds the word at addr. The address must be word aligned and
// mapped.
func NewCell(mem *emu.Memory, addr uint32) Cell {
	return Cell{mem: mem, addr: addr}
}

// Addr returns the guest address of the cell.
func (c Cell) Addr() uint32 { return c.addr }

// Load returns the current value.
func (c Cell) Load() uint32 { return c.mem.AtomicLoad32(c.addr) }

// Store replaces the value.
func (c Cell) Store(v uint32) { c.mem.AtomicStore32(c.addr, v) }

// CompareAndSwap replaces old with v.
func (c Cell) CompareAndSwap(old, v uint32) bool {
	return c.mem.CompareAndSwap32(c.addr, old, v)
}

// Add adds delta and returns the new value.
func (c Cell) Add(delta int32) uint32 {
	for {
		old := c.Load()
		v := old + uint32(delta)

		if c.CompareAndSwap(old, v) {
			return v
		}
	}
}

// Or sets bits and returns the previous value.
func (c Cell) Or(bits uint32) uint32 {
	for {
		old := c.Load()
		if c.CompareAndSwap(old, old|bits) {
			return old
		}
	}
}

// Globals groups the XLM cells of one address space.
type Globals struct {
	mem *emu.Memory

	RunMode Cell
	IRQNest Cell
	R25     Cell
}

// NewGlobals binds the XLM cells in mem. Page 2 must be mapped.
func NewGlobals(mem *emu.Memory) *Globals {
	return &Globals{
		mem:     mem,
		RunMode: NewCell(mem, XLMRunMode),
		IRQNest: NewCell(mem, XLMIRQNest),
		R25:     NewCell(mem, XLM68KR25),
	}
}

// Init writes the signature, kernel data pointer and machine identity.
func (g *Globals) Init(pvr, busClock uint32) {
	g.mem.Write32(XLMSignature, Signature)
	g.mem.Write32(XLMKernelData, KernelDataAddr)
	g.mem.Write32(XLMPVR, pvr)
	g.mem.Write32(XLMBusClock, busClock)
	g.RunMode.Store(ModeM68K)
	g.IRQNest.Store(0)
}

// Read returns the XLM word at addr.
func (g *Globals) Read(addr uint32) uint32 {
	return g.mem.Read32(addr)
}

// Write stores the XLM word at addr.
func (g *Globals) Write(addr, v uint32) {
	g.mem.Write32(addr, v)
}
