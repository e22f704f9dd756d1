package bridge

import (
	"errors"
	"fmt"

	"github.com/sarchlab/sheepcore/emu"
)

// ErrScratchExhausted is returned when scratch memory runs out.
var ErrScratchExhausted = errors.New("bridge: scratch memory exhausted")

// Scratch manages a guest memory area for trampolines and procedures.
// Permanent allocations grow up from the base; temporary variables are
// reserved from the top and released in reverse order.
type Scratch struct {
	mem        *emu.Memory
	base, size uint32
	bottom     uint32
	top        uint32
	reserved   []reservation
}

type reservation struct {
	addr, prevTop uint32
}

// NewScratch manages the size bytes at base, which must be mapped.
func NewScratch(mem *emu.Memory, base, size uint32) (*Scratch, error) {
	if !mem.IsMapped(base, size) {
		return nil, fmt.Errorf("bridge: scratch area 0x%08x+0x%x is not mapped", base, size)
	}

	return &Scratch{mem: mem, base: base, size: size, bottom: base, top: base + size}, nil
}

// Base returns the first address of the area.
func (s *Scratch) Base() uint32 { return s.base }

// Size returns the size of the area.
func (s *Scratch) Size() uint32 { return s.size }

// Allocate returns n permanent bytes, 8-byte aligned.
func (s *Scratch) Allocate(n uint32) (uint32, error) {
	addr := (s.bottom + 7) &^ 7
	if addr+n > s.top || addr+n < addr {
		return 0, ErrScratchExhausted
	}

	s.bottom = addr + n

	return addr, nil
}

// Procedure copies code into permanent scratch memory.
func (s *Scratch) Procedure(code []byte) (uint32, error) {
	addr, err := s.Allocate(uint32(len(code)))
	if err != nil {
		return 0, err
	}

	if err := s.mem.WriteBytes(addr, code); err != nil {
		return 0, err
	}

	return addr, nil
}

// Reserve returns n temporary bytes, 8-byte aligned.
func (s *Scratch) Reserve(n uint32) (uint32, error) {
	if n > s.top-s.bottom {
		return 0, ErrScratchExhausted
	}

	addr := (s.top - n) &^ 7
	if addr < s.bottom {
		return 0, ErrScratchExhausted
	}

	s.reserved = append(s.reserved, reservation{addr: addr, prevTop: s.top})
	s.top = addr

	return addr, nil
}

// Release frees the reservation at addr and every reservation made after
// it.
func (s *Scratch) Release(addr uint32) {
	for i := len(s.reserved) - 1; i >= 0; i-- {
		if s.reserved[i].addr == addr {
			s.top = s.reserved[i].prevTop
			s.reserved = s.reserved[:i]

			return
		}
	}

	panic(fmt.Sprintf("bridge: release of unreserved scratch address 0x%08x", addr))
}

// Free returns the bytes left between both ends.
func (s *Scratch) Free() uint32 { return s.top - s.bottom }
