package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/loader"
)

// progHeader describes one program header of a test ELF.
type progHeader struct {
	typ   uint32
	flags uint32
	vaddr uint32
	data  []byte
	memsz uint32
}

const (
	ptLoad = 1
	ptNote = 4

	pfX = 1
	pfW = 2
	pfR = 4
)

// writeELF writes a minimal ELF32 executable. class, order and machine
// allow building files the loader must reject.
func writeELF(path string, class byte, order binary.ByteOrder, machine uint16, entry uint32, phdrs ...progHeader) {
	const ehsize, phentsize = 52, 32

	dataOff := uint32(ehsize + phentsize*len(phdrs))

	hdr := make([]byte, ehsize)
	copy(hdr[0:4], []byte{0x7f, 'E', 'L', 'F'})
	hdr[4] = class
	hdr[5] = 2 // big endian
	if order == binary.LittleEndian {
		hdr[5] = 1
	}
	hdr[6] = 1
	order.PutUint16(hdr[16:18], 2) // executable
	order.PutUint16(hdr[18:20], machine)
	order.PutUint32(hdr[20:24], 1)
	order.PutUint32(hdr[24:28], entry)
	order.PutUint32(hdr[28:32], ehsize) // phoff
	order.PutUint16(hdr[40:42], ehsize)
	order.PutUint16(hdr[42:44], phentsize)
	order.PutUint16(hdr[44:46], uint16(len(phdrs)))

	out := hdr
	var payload []byte
	for _, p := range phdrs {
		ph := make([]byte, phentsize)
		order.PutUint32(ph[0:4], p.typ)
		order.PutUint32(ph[4:8], dataOff+uint32(len(payload)))
		order.PutUint32(ph[8:12], p.vaddr)
		order.PutUint32(ph[12:16], p.vaddr)
		order.PutUint32(ph[16:20], uint32(len(p.data)))
		order.PutUint32(ph[20:24], p.memsz)
		order.PutUint32(ph[24:28], p.flags)
		order.PutUint32(ph[28:32], 0x1000)
		out = append(out, ph...)
		payload = append(payload, p.data...)
	}

	Expect(os.WriteFile(path, append(out, payload...), 0644)).To(Succeed())
}

func writePPC(path string, entry uint32, phdrs ...progHeader) {
	writeELF(path, 1, binary.BigEndian, 20, entry, phdrs...)
}

// li r3,42; blr
var code = []byte{0x38, 0x60, 0x00, 0x2a, 0x4e, 0x80, 0x00, 0x20}

var _ = Describe("ELF Loader", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	Context("with a valid PowerPC executable", func() {
		var path string

		BeforeEach(func() {
			path = filepath.Join(dir, "prog.elf")
			writePPC(path, 0x10000004,
				progHeader{typ: ptLoad, flags: pfR | pfX, vaddr: 0x10000000, data: code, memsz: 8},
				progHeader{typ: ptLoad, flags: pfR | pfW, vaddr: 0x10010000, data: []byte{1, 2, 3, 4}, memsz: 0x100},
				progHeader{typ: ptNote, flags: pfR},
			)
		})

		It("should read the entry point and stack", func() {
			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x10000004)))
			Expect(prog.InitialSP).To(Equal(uint32(loader.DefaultStackTop)))
			Expect(prog.StackSize).To(Equal(uint32(loader.DefaultStackSize)))
		})

		It("should load only PT_LOAD segments with their permissions", func() {
			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))

			text := prog.Segments[0]
			Expect(text.VirtAddr).To(Equal(uint32(0x10000000)))
			Expect(text.Data).To(Equal(code))
			Expect(text.Flags).To(Equal(loader.SegmentFlagRead | loader.SegmentFlagExecute))

			data := prog.Segments[1]
			Expect(data.MemSize).To(Equal(uint32(0x100)))
			Expect(data.Flags & loader.SegmentFlagWrite).NotTo(BeZero())
		})

		It("should map segments and the stack into guest memory", func() {
			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())

			mem := emu.NewMemory()
			Expect(prog.MapInto(mem)).To(Succeed())

			Expect(mem.Read32(0x10000000)).To(Equal(uint32(0x3860002a)))
			Expect(mem.Read32(0x10010000)).To(Equal(uint32(0x01020304)))
			Expect(mem.Read32(0x10010004)).To(BeZero())
			Expect(mem.IsMapped(loader.DefaultStackTop-4, 4)).To(BeTrue())

			Expect(mem.Store32(0x10000000, 0)).NotTo(BeNil())
			Expect(mem.Store32(0x10010008, 7)).To(BeNil())
		})
	})

	It("should keep a segment with no file data", func() {
		path := filepath.Join(dir, "bss.elf")
		writePPC(path, 0x10000000,
			progHeader{typ: ptLoad, flags: pfR | pfX, vaddr: 0x10000000, data: code, memsz: 8},
			progHeader{typ: ptLoad, flags: pfR | pfW, vaddr: 0x10020000, memsz: 0x2000},
		)

		prog, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Segments[1].Data).To(BeEmpty())
		Expect(prog.Segments[1].MemSize).To(Equal(uint32(0x2000)))

		mem := emu.NewMemory()
		Expect(prog.MapInto(mem)).To(Succeed())
		Expect(mem.IsMapped(0x10021ffc, 4)).To(BeTrue())
	})

	DescribeTable("should reject",
		func(build func(path string), msg string) {
			path := filepath.Join(dir, "bad.elf")
			build(path)

			_, err := loader.Load(path)
			Expect(err).To(MatchError(ContainSubstring(msg)))
		},
		Entry("a missing file", func(string) {}, "failed to open ELF file"),
		Entry("a text file", func(path string) {
			Expect(os.WriteFile(path, []byte("not an elf"), 0644)).To(Succeed())
		}, "failed to open ELF file"),
		Entry("a little-endian file", func(path string) {
			writeELF(path, 1, binary.LittleEndian, 20, 0,
				progHeader{typ: ptLoad, flags: pfR, vaddr: 0x1000, data: code, memsz: 8})
		}, "big-endian"),
		Entry("another machine", func(path string) {
			writeELF(path, 1, binary.BigEndian, 8, 0,
				progHeader{typ: ptLoad, flags: pfR, vaddr: 0x1000, data: code, memsz: 8})
		}, "not a PowerPC"),
		Entry("a file without PT_LOAD", func(path string) {
			writePPC(path, 0, progHeader{typ: ptNote, flags: pfR})
		}, "no loadable segments"),
		Entry("a segment smaller than its data", func(path string) {
			writePPC(path, 0, progHeader{typ: ptLoad, flags: pfR, vaddr: 0x1000, data: code, memsz: 4})
		}, ""),
	)
})

var _ = Describe("Raw images", func() {
	It("should place the image at its base and enter at the first word", func() {
		path := filepath.Join(GinkgoT().TempDir(), "code.bin")
		Expect(os.WriteFile(path, code, 0644)).To(Succeed())

		prog, err := loader.LoadRaw(path, 0x3000)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.EntryPoint).To(Equal(uint32(0x3000)))

		mem := emu.NewMemory()
		Expect(prog.MapInto(mem)).To(Succeed())
		Expect(mem.Read32(0x3004)).To(Equal(uint32(0x4e800020)))
	})

	It("should copy into memory that is already mapped", func() {
		mem := emu.NewMemory()
		_, err := mem.Map("ram", 0, 0x10000, false)
		Expect(err).NotTo(HaveOccurred())
		mem.Write32(0x3008, 0xffffffff)

		prog, err := loader.RawProgram(code, 0x3000)
		Expect(err).NotTo(HaveOccurred())
		prog.InitialSP = 0x10000
		prog.StackSize = 0x8000

		Expect(prog.MapInto(mem)).To(Succeed())
		Expect(mem.Regions()).To(HaveLen(1))
		Expect(mem.Read32(0x3000)).To(Equal(uint32(0x3860002a)))
		Expect(mem.Read32(0x3008)).To(Equal(uint32(0xffffffff)))
	})

	It("should reject unusable images", func() {
		_, err := loader.RawProgram([]byte{1, 2, 3}, 0)
		Expect(err).To(MatchError(ContainSubstring("multiple of 4")))

		_, err = loader.RawProgram(code, 2)
		Expect(err).To(MatchError(ContainSubstring("aligned")))

		_, err = loader.RawProgram(code, 0xfffffffc)
		Expect(err).To(MatchError(ContainSubstring("address space")))

		_, err = loader.LoadRaw("/nonexistent/image", 0)
		Expect(err).To(MatchError(ContainSubstring("failed to read image")))
	})

	It("should reject a stack that does not fit", func() {
		prog, err := loader.RawProgram(code, 0x3000)
		Expect(err).NotTo(HaveOccurred())
		prog.InitialSP = 0x1000

		Expect(prog.MapInto(emu.NewMemory())).To(MatchError(ContainSubstring("stack")))
	})
})
