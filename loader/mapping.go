package loader

import (
	"fmt"

	"github.com/sarchlab/sheepcore/emu"
)

func pageDown(a uint64) uint64 { return a &^ (emu.PageSize - 1) }
func pageUp(a uint64) uint64   { return (a + emu.PageSize - 1) &^ (emu.PageSize - 1) }

// MapInto maps every segment and the stack into mem. Segments are widened
// to whole pages and are writable unless they lack SegmentFlagWrite. A
// segment or stack falling inside an already mapped region is copied
// there instead.
func (p *Program) MapInto(mem *emu.Memory) error {
	for i, seg := range p.Segments {
		if seg.MemSize == 0 {
			continue
		}

		if mem.IsMapped(seg.VirtAddr, seg.MemSize) {
			data := make([]byte, seg.MemSize)
			copy(data, seg.Data)
			if err := mem.WriteBytes(seg.VirtAddr, data); err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}

			continue
		}

		start := pageDown(uint64(seg.VirtAddr))
		end := pageUp(uint64(seg.VirtAddr) + uint64(seg.MemSize))
		if end > 1<<32 {
			return fmt.Errorf("segment %d exceeds the address space", i)
		}

		data := make([]byte, end-start)
		copy(data[uint64(seg.VirtAddr)-start:], seg.Data)

		name := fmt.Sprintf("seg%d", i)
		readOnly := seg.Flags&SegmentFlagWrite == 0
		if _, err := mem.MapBytes(name, uint32(start), data, readOnly); err != nil {
			return err
		}
	}

	if p.StackSize == 0 {
		return nil
	}

	if p.InitialSP < p.StackSize {
		return fmt.Errorf("stack of %d bytes does not fit below 0x%08x", p.StackSize, p.InitialSP)
	}

	if mem.IsMapped(p.InitialSP-p.StackSize, p.StackSize) {
		return nil
	}

	_, err := mem.Map("stack", p.InitialSP-p.StackSize, p.StackSize, false)

	return err
}
