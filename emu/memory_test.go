package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
)

var _ = Describe("Memory", func() {
	var mem *emu.Memory

	BeforeEach(func() {
		mem = emu.NewMemory()
		_, err := mem.Map("ram", 0x1000, 0x3000, false)
		Expect(err).NotTo(HaveOccurred())
		_, err = mem.Map("rom", 0x8000, 0x1000, true)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("mapping", func() {
		It("should reject overlapping regions", func() {
			_, err := mem.Map("bad", 0x2000, 0x1000, false)
			Expect(errors.Is(err, emu.ErrOverlap)).To(BeTrue())
		})

		It("should reject unaligned bases", func() {
			_, err := mem.Map("bad", 0x9002, 0x10, false)
			Expect(err).To(HaveOccurred())
		})

		It("should keep regions ordered by base", func() {
			_, err := mem.Map("low", 0x0, 0x100, false)
			Expect(err).NotTo(HaveOccurred())

			regions := mem.Regions()
			Expect(regions[0].Name).To(Equal("low"))
			Expect(regions[len(regions)-1].Name).To(Equal("rom"))
		})

		It("should not map accesses straddling a region end", func() {
			Expect(mem.IsMapped(0x3ffc, 4)).To(BeTrue())
			Expect(mem.IsMapped(0x3ffe, 4)).To(BeFalse())
		})
	})

	Describe("CPU accessors", func() {
		It("should store big-endian", func() {
			Expect(mem.Store32(0x1000, 0x11223344)).To(BeNil())
			Expect(mem.Read8(0x1000)).To(Equal(uint8(0x11)))
			Expect(mem.Read16(0x1002)).To(Equal(uint16(0x3344)))
		})

		It("should fault on unmapped addresses", func() {
			_, f := mem.Load32(0x5000)
			Expect(f).NotTo(BeNil())
			Expect(f.Kind).To(Equal(emu.FaultUnmapped))
			Expect(f.Write).To(BeFalse())
		})

		It("should refuse stores into read-only regions", func() {
			f := mem.Store16(0x8000, 1)
			Expect(f).NotTo(BeNil())
			Expect(f.Kind).To(Equal(emu.FaultReadOnly))
			Expect(f.Write).To(BeTrue())
			Expect(f.Error()).To(ContainSubstring("read-only"))
		})
	})

	Describe("host accessors", func() {
		It("should patch read-only regions", func() {
			mem.Write32(0x8000, 0xdeadbeef)
			Expect(mem.Read32(0x8000)).To(Equal(uint32(0xdeadbeef)))
		})

		It("should read unmapped memory as zero", func() {
			Expect(mem.Read64(0x6000)).To(BeZero())
		})

		It("should report unmapped bulk writes", func() {
			Expect(mem.WriteWords(0x6000, 1, 2)).NotTo(Succeed())
		})
	})

	Describe("code tracking", func() {
		var hits [][2]uint32

		BeforeEach(func() {
			hits = nil
			mem.SetCodeWatch(func(start, end uint32) {
				hits = append(hits, [2]uint32{start, end})
			})
		})

		It("should report stores to marked pages only", func() {
			mem.MarkCode(0x2000, 0x2004)
			Expect(mem.IsCode(0x2ffc)).To(BeTrue())
			Expect(mem.IsCode(0x1000)).To(BeFalse())

			Expect(mem.Store32(0x1000, 1)).To(BeNil())
			Expect(hits).To(BeEmpty())

			Expect(mem.Store32(0x2010, 1)).To(BeNil())
			Expect(hits).To(Equal([][2]uint32{{0x2010, 0x2014}}))
		})

		It("should catch bulk writes whose middle page holds code", func() {
			mem.MarkCode(0x2000, 0x2001)

			Expect(mem.WriteBytes(0x1ff0, make([]byte, 0x1100))).To(Succeed())
			Expect(hits).To(HaveLen(1))
		})

		It("should forget marks when cleared", func() {
			mem.MarkCode(0x1000, 0x4000)
			mem.ClearCodeMarks()

			mem.Write32(0x1000, 1)
			Expect(hits).To(BeEmpty())
		})
	})

	Describe("atomic cells", func() {
		It("should keep guest byte order", func() {
			mem.AtomicStore32(0x1100, 0x01020304)
			Expect(mem.Read8(0x1100)).To(Equal(uint8(0x01)))
			Expect(mem.AtomicLoad32(0x1100)).To(Equal(uint32(0x01020304)))
		})

		It("should compare and swap", func() {
			mem.Write32(0x1104, 5)
			Expect(mem.CompareAndSwap32(0x1104, 4, 6)).To(BeFalse())
			Expect(mem.CompareAndSwap32(0x1104, 5, 6)).To(BeTrue())
			Expect(mem.Read32(0x1104)).To(Equal(uint32(6)))
		})

		It("should panic on unaligned cells", func() {
			Expect(func() { mem.AtomicLoad32(0x1102) }).To(Panic())
		})
	})
})
