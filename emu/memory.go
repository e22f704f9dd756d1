package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"unsafe"
)

// Page granularity used for self-modifying code tracking.
const (
	PageShift = 12
	PageSize  = 1 << PageShift
)

// FaultKind classifies a failed guest memory access.
type FaultKind uint8

// Fault kinds.
const (
	// FaultUnmapped is an access outside every mapped region.
	FaultUnmapped FaultKind = iota
	// FaultReadOnly is a store into a read-only region (ROM).
	FaultReadOnly
)

func (k FaultKind) String() string {
	if k == FaultReadOnly {
		return "read-only"
	}

	return "unmapped"
}

// Fault describes a guest memory access the memory system refused.
type Fault struct {
	Addr  uint32
	Size  uint8
	Write bool
	Kind  FaultKind
}

func (f *Fault) Error() string {
	dir := "read"
	if f.Write {
		dir = "write"
	}

	return fmt.Sprintf("%s fault: %d-byte %s at 0x%08x", f.Kind, f.Size, dir, f.Addr)
}

// ErrOverlap is returned when a mapping overlaps an existing region.
var ErrOverlap = errors.New("region overlaps an existing mapping")

// Region is a contiguous block of guest memory backed by a host slice.
type Region struct {
	Name     string
	Base     uint32
	Data     []byte
	ReadOnly bool

	code []uint64 // one bit per page holding translated code
}

// End returns the first address past the region.
func (r *Region) End() uint64 {
	return uint64(r.Base) + uint64(len(r.Data))
}

func (r *Region) holds(addr, n uint32) bool {
	return addr >= r.Base && uint64(addr)+uint64(n) <= r.End()
}

func (r *Region) codePage(addr uint32) bool {
	p := (addr - r.Base) >> PageShift
	return r.code[p>>6]&(1<<(p&63)) != 0
}

// Memory is the big-endian guest address space.
//
// Host accessors (Read*, Write*) never fault: unmapped reads return zero,
// unmapped writes are dropped and read-only regions are writable. CPU
// accessors (Load*, Store*) report a *Fault instead.
type Memory struct {
	regions []*Region
	last    atomic.Pointer[Region]

	codeWatch func(start, end uint32)
}

// NewMemory creates an empty address space.
func NewMemory() *Memory {
	return &Memory{}
}

// Map allocates a zeroed region of size bytes at base.
func (m *Memory) Map(name string, base, size uint32, readOnly bool) (*Region, error) {
	return m.MapBytes(name, base, make([]byte, size), readOnly)
}

// MapBytes maps data at base without copying it.
func (m *Memory) MapBytes(name string, base uint32, data []byte, readOnly bool) (*Region, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("map %s: empty region", name)
	}

	if base%4 != 0 {
		return nil, fmt.Errorf("map %s: base 0x%08x not word aligned", name, base)
	}

	r := &Region{
		Name:     name,
		Base:     base,
		Data:     data,
		ReadOnly: readOnly,
		code:     make([]uint64, (len(data)+PageSize*64-1)/(PageSize*64)),
	}

	if r.End() > 1<<32 {
		return nil, fmt.Errorf("map %s: region exceeds 32-bit address space", name)
	}

	for _, o := range m.regions {
		if uint64(r.Base) < o.End() && uint64(o.Base) < r.End() {
			return nil, fmt.Errorf("map %s at 0x%08x: %w (%s)", name, base, ErrOverlap, o.Name)
		}
	}

	m.regions = append(m.regions, r)
	sort.Slice(m.regions, func(i, j int) bool {
		return m.regions[i].Base < m.regions[j].Base
	})

	return r, nil
}

// Regions returns the mapped regions ordered by base address.
func (m *Memory) Regions() []*Region {
	return m.regions
}

// Region returns the region containing addr, or nil.
func (m *Memory) Region(addr uint32) *Region {
	return m.find(addr, 1)
}

// IsMapped reports whether [addr, addr+n) lies inside one region.
func (m *Memory) IsMapped(addr, n uint32) bool {
	return m.find(addr, n) != nil
}

func (m *Memory) find(addr, n uint32) *Region {
	if r := m.last.Load(); r != nil && r.holds(addr, n) {
		return r
	}

	for _, r := range m.regions {
		if r.holds(addr, n) {
			m.last.Store(r)
			return r
		}
	}

	return nil
}

// Bytes returns a view of [addr, addr+n) or nil if the range is not inside
// one region.
func (m *Memory) Bytes(addr, n uint32) []byte {
	r := m.find(addr, n)
	if r == nil {
		return nil
	}

	off := addr - r.Base

	return r.Data[off : off+n : off+n]
}

// SetCodeWatch installs the callback invoked when a store hits a page
// marked as holding translated code.
func (m *Memory) SetCodeWatch(fn func(start, end uint32)) {
	m.codeWatch = fn
}

// MarkCode marks every page overlapping [start, end) as holding code.
func (m *Memory) MarkCode(start, end uint32) {
	for addr := start &^ (PageSize - 1); addr < end; addr += PageSize {
		r := m.find(addr, 1)
		if r != nil {
			p := (addr - r.Base) >> PageShift
			r.code[p>>6] |= 1 << (p & 63)
		}

		if addr+PageSize < addr {
			break
		}
	}
}

// IsCode reports whether addr lies on a page marked as holding code.
func (m *Memory) IsCode(addr uint32) bool {
	r := m.find(addr, 1)
	return r != nil && r.codePage(addr)
}

// ClearCodeMarks unmarks every page.
func (m *Memory) ClearCodeMarks() {
	for _, r := range m.regions {
		clear(r.code)
	}
}

func (m *Memory) wrote(r *Region, addr, n uint32) {
	if m.codeWatch == nil {
		return
	}

	end := uint64(addr) + uint64(n)
	for p := uint64(addr); p < end; p = (p &^ (PageSize - 1)) + PageSize {
		if r.codePage(uint32(p)) {
			m.codeWatch(addr, uint32(end))
			return
		}
	}
}

// CPU accessors.

// Load8 reads a byte for the CPU.
func (m *Memory) Load8(addr uint32) (uint8, *Fault) {
	r := m.find(addr, 1)
	if r == nil {
		return 0, &Fault{Addr: addr, Size: 1, Kind: FaultUnmapped}
	}

	return r.Data[addr-r.Base], nil
}

// Load16 reads a big-endian halfword for the CPU.
func (m *Memory) Load16(addr uint32) (uint16, *Fault) {
	r := m.find(addr, 2)
	if r == nil {
		return 0, &Fault{Addr: addr, Size: 2, Kind: FaultUnmapped}
	}

	return binary.BigEndian.Uint16(r.Data[addr-r.Base:]), nil
}

// Load32 reads a big-endian word for the CPU.
func (m *Memory) Load32(addr uint32) (uint32, *Fault) {
	r := m.find(addr, 4)
	if r == nil {
		return 0, &Fault{Addr: addr, Size: 4, Kind: FaultUnmapped}
	}

	return binary.BigEndian.Uint32(r.Data[addr-r.Base:]), nil
}

// Load64 reads a big-endian doubleword for the CPU.
func (m *Memory) Load64(addr uint32) (uint64, *Fault) {
	r := m.find(addr, 8)
	if r == nil {
		return 0, &Fault{Addr: addr, Size: 8, Kind: FaultUnmapped}
	}

	return binary.BigEndian.Uint64(r.Data[addr-r.Base:]), nil
}

func (m *Memory) storeRegion(addr, n uint32) (*Region, *Fault) {
	r := m.find(addr, n)
	if r == nil {
		return nil, &Fault{Addr: addr, Size: uint8(n), Write: true, Kind: FaultUnmapped}
	}

	if r.ReadOnly {
		return nil, &Fault{Addr: addr, Size: uint8(n), Write: true, Kind: FaultReadOnly}
	}

	return r, nil
}

// Store8 writes a byte for the CPU.
func (m *Memory) Store8(addr uint32, v uint8) *Fault {
	r, f := m.storeRegion(addr, 1)
	if f != nil {
		return f
	}

	r.Data[addr-r.Base] = v
	m.wrote(r, addr, 1)

	return nil
}

// Store16 writes a big-endian halfword for the CPU.
func (m *Memory) Store16(addr uint32, v uint16) *Fault {
	r, f := m.storeRegion(addr, 2)
	if f != nil {
		return f
	}

	binary.BigEndian.PutUint16(r.Data[addr-r.Base:], v)
	m.wrote(r, addr, 2)

	return nil
}

// Store32 writes a big-endian word for the CPU.
func (m *Memory) Store32(addr uint32, v uint32) *Fault {
	r, f := m.storeRegion(addr, 4)
	if f != nil {
		return f
	}

	binary.BigEndian.PutUint32(r.Data[addr-r.Base:], v)
	m.wrote(r, addr, 4)

	return nil
}

// Store64 writes a big-endian doubleword for the CPU.
func (m *Memory) Store64(addr uint32, v uint64) *Fault {
	r, f := m.storeRegion(addr, 8)
	if f != nil {
		return f
	}

	binary.BigEndian.PutUint64(r.Data[addr-r.Base:], v)
	m.wrote(r, addr, 8)

	return nil
}

// Host accessors.

// Read8 reads a byte; unmapped addresses read as zero.
func (m *Memory) Read8(addr uint32) uint8 {
	v, _ := m.Load8(addr)
	return v
}

// Read16 reads a big-endian halfword; unmapped addresses read as zero.
func (m *Memory) Read16(addr uint32) uint16 {
	v, _ := m.Load16(addr)
	return v
}

// Read32 reads a big-endian word; unmapped addresses read as zero.
func (m *Memory) Read32(addr uint32) uint32 {
	v, _ := m.Load32(addr)
	return v
}

// Read64 reads a big-endian doubleword; unmapped addresses read as zero.
func (m *Memory) Read64(addr uint32) uint64 {
	v, _ := m.Load64(addr)
	return v
}

// Write8 writes a byte, including into read-only regions.
func (m *Memory) Write8(addr uint32, v uint8) {
	if r := m.find(addr, 1); r != nil {
		r.Data[addr-r.Base] = v
		m.wrote(r, addr, 1)
	}
}

// Write16 writes a big-endian halfword, including into read-only regions.
func (m *Memory) Write16(addr uint32, v uint16) {
	if r := m.find(addr, 2); r != nil {
		binary.BigEndian.PutUint16(r.Data[addr-r.Base:], v)
		m.wrote(r, addr, 2)
	}
}

// Write32 writes a big-endian word, including into read-only regions.
func (m *Memory) Write32(addr uint32, v uint32) {
	if r := m.find(addr, 4); r != nil {
		binary.BigEndian.PutUint32(r.Data[addr-r.Base:], v)
		m.wrote(r, addr, 4)
	}
}

// Write64 writes a big-endian doubleword, including into read-only regions.
func (m *Memory) Write64(addr uint32, v uint64) {
	if r := m.find(addr, 8); r != nil {
		binary.BigEndian.PutUint64(r.Data[addr-r.Base:], v)
		m.wrote(r, addr, 8)
	}
}

// WriteBytes copies data to addr. The range must lie inside one region.
func (m *Memory) WriteBytes(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	r := m.find(addr, uint32(len(data)))
	if r == nil {
		return &Fault{Addr: addr, Size: 0, Write: true, Kind: FaultUnmapped}
	}

	copy(r.Data[addr-r.Base:], data)
	m.wrote(r, addr, uint32(len(data)))

	return nil
}

// WriteWords stores big-endian words starting at addr.
func (m *Memory) WriteWords(addr uint32, words ...uint32) error {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(buf[4*i:], w)
	}

	return m.WriteBytes(addr, buf)
}

// Atomic word access over big-endian guest cells.

func (m *Memory) cell(addr uint32) *uint32 {
	if addr%4 != 0 {
		panic(fmt.Sprintf("emu: atomic cell 0x%08x not word aligned", addr))
	}

	r := m.find(addr, 4)
	if r == nil {
		panic(fmt.Sprintf("emu: atomic cell 0x%08x not mapped", addr))
	}

	return (*uint32)(unsafe.Pointer(&r.Data[addr-r.Base]))
}

func beToRaw(v uint32) uint32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)

	return binary.NativeEndian.Uint32(b[:])
}

func rawToBE(raw uint32) uint32 {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], raw)

	return binary.BigEndian.Uint32(b[:])
}

// AtomicLoad32 atomically reads the big-endian word at addr.
func (m *Memory) AtomicLoad32(addr uint32) uint32 {
	return rawToBE(atomic.LoadUint32(m.cell(addr)))
}

// AtomicStore32 atomically writes the big-endian word at addr.
func (m *Memory) AtomicStore32(addr, v uint32) {
	atomic.StoreUint32(m.cell(addr), beToRaw(v))
}

// CompareAndSwap32 atomically replaces the big-endian word at addr.
func (m *Memory) CompareAndSwap32(addr, old, v uint32) bool {
	return atomic.CompareAndSwapUint32(m.cell(addr), beToRaw(old), beToRaw(v))
}
