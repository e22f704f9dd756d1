package insts

import (
	"fmt"
	"sync"
)

// slot is one primary-opcode entry of the decode table.
type slot struct {
	info  *InstrInfo
	ext   []*InstrInfo
	shift uint32
	mask  uint32
}

// Decoder maps raw PowerPC opcodes to decode table entries.
//
// The table is immutable once built and may be shared by any number of
// goroutines.
type Decoder struct {
	primary [64]slot
	byOp    [NumOps]*InstrInfo
}

var (
	sharedOnce    sync.Once
	sharedDecoder *Decoder
)

// NewDecoder returns the process-wide decoder, building the table on first
// use.
func NewDecoder() *Decoder {
	sharedOnce.Do(func() {
		sharedDecoder = buildDecoder(opcodeList)
	})

	return sharedDecoder
}

// Decode returns the table entry for opcode. It never returns nil: encodings
// no entry claims resolve to the illegal-instruction entry.
func (d *Decoder) Decode(opcode uint32) *InstrInfo {
	s := &d.primary[opcode>>26]
	if s.ext == nil {
		return s.info
	}

	return s.ext[(opcode>>s.shift)&s.mask]
}

// Lookup returns the entry describing op, or the illegal entry when op is
// not part of the table.
func (d *Decoder) Lookup(op Op) *InstrInfo {
	if op >= NumOps || d.byOp[op] == nil {
		return &illegalInfo
	}

	return d.byOp[op]
}

// Decode decodes opcode with the shared decoder.
func Decode(opcode uint32) *InstrInfo {
	return NewDecoder().Decode(opcode)
}

func buildDecoder(list []entry) *Decoder {
	d := &Decoder{}
	d.byOp[OpIllegal] = &illegalInfo

	for i := range d.primary {
		d.primary[i].info = &illegalInfo
	}

	for _, p := range []uint32{19, 31, 59, 63} {
		d.extend(p, 1, 0x3ff)
	}
	d.extend(4, 0, 0x7ff)

	for i := range list {
		ent := &list[i]
		info := &ent.info
		d.byOp[info.Op] = info

		s := &d.primary[ent.primary]
		if s.ext == nil {
			d.claimPrimary(ent.primary, info)
			continue
		}

		for _, idx := range expandExt(ent.ext, info.Format) {
			d.claimExt(ent.primary, idx, info)
		}
	}

	return d
}

func (d *Decoder) extend(primary, shift, mask uint32) {
	s := &d.primary[primary]
	s.shift = shift
	s.mask = mask
	s.ext = make([]*InstrInfo, mask+1)

	for i := range s.ext {
		s.ext[i] = &illegalInfo
	}
}

func (d *Decoder) claimPrimary(primary uint32, info *InstrInfo) {
	s := &d.primary[primary]
	if s.info != &illegalInfo {
		panic(fmt.Sprintf("insts: primary opcode %d claimed by %s and %s",
			primary, s.info.Name, info.Name))
	}

	s.info = info
}

func (d *Decoder) claimExt(primary, idx uint32, info *InstrInfo) {
	s := &d.primary[primary]
	if prev := s.ext[idx]; prev != &illegalInfo && prev != info {
		panic(fmt.Sprintf("insts: opcode %d/%d claimed by %s and %s",
			primary, idx, prev.Name, info.Name))
	}

	s.ext[idx] = info
}

// expandExt returns every extended-table index an entry occupies. Fields the
// extended index overlaps but the instruction does not interpret are
// enumerated so that any value decodes to the same entry.
func expandExt(ext uint32, format Format) []uint32 {
	switch format {
	case FormatXO:
		// OE bit sits at the top of the 10-bit index.
		return []uint32{ext, ext | 0x200}
	case FormatA:
		// frC occupies the upper five bits of the 10-bit index.
		out := make([]uint32, 0, 32)
		for c := uint32(0); c < 32; c++ {
			out = append(out, c<<5|ext)
		}

		return out
	case FormatVA:
		// vC occupies bits 6..10 of the 11-bit index.
		out := make([]uint32, 0, 32)
		for c := uint32(0); c < 32; c++ {
			out = append(out, c<<6|ext)
		}

		return out
	default:
		return []uint32{ext}
	}
}
