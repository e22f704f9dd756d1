package bridge_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/bridge"
	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/lowmem"
)

var _ = Describe("SharedState", func() {
	var (
		mem   *emu.Memory
		spc   *emu.SpcFlags
		state *bridge.SharedState
	)

	BeforeEach(func() {
		mem = emu.NewMemory()
		_, err := mem.Map("low", 0, 0x3000, false)
		Expect(err).NotTo(HaveOccurred())

		spc = &emu.SpcFlags{}
		state = bridge.NewSharedState(mem, spc)
		state.Globals().Init(emu.DefaultPVR, 0)
	})

	It("should keep triggers pending until ready", func() {
		state.TriggerInterrupt()

		Expect(state.Pending()).To(Equal(int32(1)))
		Expect(spc.Test(emu.SpcTriggerInterrupt)).To(BeFalse())

		state.SetReady()

		Expect(state.Ready()).To(BeTrue())
		Expect(spc.Test(emu.SpcTriggerInterrupt)).To(BeTrue())
	})

	It("should count every trigger", func() {
		state.SetReady()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					state.TriggerInterrupt()
				}
			}()
		}
		wg.Wait()

		Expect(state.Pending()).To(Equal(int32(800)))
	})

	It("should nest interrupt disabling in low memory", func() {
		state.DisableInterrupt()
		state.DisableInterrupt()

		Expect(state.IRQNest()).To(Equal(int32(2)))
		Expect(mem.Read32(lowmem.XLMIRQNest)).To(Equal(uint32(2)))

		state.EnableInterrupt()
		Expect(state.IRQNest()).To(Equal(int32(1)))
	})

	It("should re-arm pending interrupts when the nest reaches zero", func() {
		state.SetReady()
		state.DisableInterrupt()
		state.TriggerInterrupt()
		spc.Clear(emu.SpcTriggerInterrupt)

		state.EnableInterrupt()

		Expect(spc.Test(emu.SpcTriggerInterrupt)).To(BeTrue())
		Expect(state.Pending()).To(Equal(int32(1)))
	})

	It("should not re-arm without pending interrupts", func() {
		state.SetReady()
		state.DisableInterrupt()
		state.EnableInterrupt()

		Expect(spc.Any()).To(BeFalse())
	})

	It("should raise and lower source flags", func() {
		state.SetInterruptFlag(bridge.IntFlag60Hz | bridge.IntFlagADB)
		state.ClearInterruptFlag(bridge.IntFlag60Hz)

		Expect(state.InterruptFlags()).To(Equal(bridge.IntFlagADB))
	})

	It("should keep the run mode and saved r25 in low memory", func() {
		state.SetRunMode(lowmem.ModeNative)
		state.SetSavedR25(0x21)

		Expect(mem.Read32(lowmem.XLMRunMode)).To(Equal(lowmem.ModeNative))
		Expect(mem.Read32(lowmem.XLM68KR25)).To(Equal(uint32(0x21)))
		Expect(state.RunMode()).To(Equal(lowmem.ModeNative))
		Expect(state.SavedR25()).To(Equal(uint32(0x21)))
	})
})
