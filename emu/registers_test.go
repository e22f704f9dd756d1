package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
)

var _ = Describe("Registers", func() {
	var r *emu.Registers

	BeforeEach(func() {
		r = &emu.Registers{}
	})

	It("should address CR fields with cr0 in the top nibble", func() {
		r.SetCRField(0, 0xa)
		r.SetCRField(7, 0x5)

		Expect(r.CR).To(Equal(uint32(0xa0000005)))
		Expect(r.CRField(0)).To(Equal(uint32(0xa)))
		Expect(r.CRField(7)).To(Equal(uint32(0x5)))
	})

	It("should number CR bits from the most significant end", func() {
		r.SetCRBit(0, true)
		r.SetCRBit(31, true)

		Expect(r.CR).To(Equal(uint32(0x80000001)))
		Expect(r.CRBit(0)).To(BeTrue())
		Expect(r.CRBit(1)).To(BeFalse())

		r.SetCRBit(0, false)
		Expect(r.CR).To(Equal(uint32(1)))
	})

	It("should make summary overflow sticky", func() {
		r.SetOV(true)
		Expect(r.XER & (emu.XEROV | emu.XERSO)).To(Equal(emu.XEROV | emu.XERSO))

		r.SetOV(false)
		Expect(r.XER & emu.XEROV).To(BeZero())
		Expect(r.XER & emu.XERSO).NotTo(BeZero())
	})

	It("should copy SO into recorded compare fields", func() {
		r.RecordCR0(0xffffffff)
		Expect(r.CRField(0)).To(Equal(emu.CRLT))

		r.XER = emu.XERSO
		r.RecordCR0(0)
		Expect(r.CRField(0)).To(Equal(emu.CREQ | emu.CRSO))
	})

	It("should expose machine context accessors", func() {
		r.SetGpr(3, 7)
		r.SetPC(0x100)
		r.SetLR(0x200)
		r.SetCTR(5)

		Expect(r.Gpr(3)).To(Equal(uint32(7)))
		Expect(r.GetPC()).To(Equal(uint32(0x100)))
		Expect(r.GetLR()).To(Equal(uint32(0x200)))
		Expect(r.GetCTR()).To(Equal(uint32(5)))
	})
})

var _ = Describe("SpcFlags", func() {
	It("should set, test and clear independently", func() {
		var f emu.SpcFlags

		f.Set(emu.SpcTriggerInterrupt | emu.SpcEnterMonitor)
		Expect(f.Test(emu.SpcTriggerInterrupt)).To(BeTrue())
		Expect(f.Test(emu.SpcExecReturn)).To(BeFalse())

		f.Clear(emu.SpcTriggerInterrupt)
		Expect(f.Get()).To(Equal(emu.SpcEnterMonitor))
		Expect(f.Any()).To(BeTrue())
		Expect(f.Get().String()).To(Equal("enter-monitor"))

		f.Clear(emu.SpcEnterMonitor)
		Expect(f.Any()).To(BeFalse())
		Expect(f.Get().String()).To(Equal("none"))
	})
})
