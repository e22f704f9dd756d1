package loader

import (
	"fmt"
	"os"
)

// LoadRaw reads a raw big-endian code image to be placed at base. The
// entry point is the first word of the image.
func LoadRaw(path string, base uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return RawProgram(data, base)
}

// RawProgram wraps an in-memory code image.
func RawProgram(data []byte, base uint32) (*Program, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("image size %d is not a positive multiple of 4", len(data))
	}

	if base%4 != 0 {
		return nil, fmt.Errorf("image base 0x%08x not word aligned", base)
	}

	if uint64(base)+uint64(len(data)) > 1<<32 {
		return nil, fmt.Errorf("image does not fit the address space")
	}

	return &Program{
		EntryPoint: base,
		Segments: []Segment{{
			VirtAddr: base,
			Data:     data,
			MemSize:  uint32(len(data)),
			Flags:    SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
		}},
		InitialSP: DefaultStackTop,
		StackSize: DefaultStackSize,
	}, nil
}
