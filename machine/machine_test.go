package machine_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/config"
	"github.com/sarchlab/sheepcore/insts"
	"github.com/sarchlab/sheepcore/loader"
	"github.com/sarchlab/sheepcore/lowmem"
	"github.com/sarchlab/sheepcore/machine"
	"github.com/sarchlab/sheepcore/monitor"
	"github.com/sarchlab/sheepcore/platform"
)

const codeBase = 0x3000

func image(words ...uint32) []byte {
	var out []byte
	for _, w := range words {
		out = binary.BigEndian.AppendUint32(out, w)
	}

	return out
}

func testConfig() *config.Config {
	c := config.Default()
	c.RAMSize = 16 << 20

	return c
}

var _ = Describe("Machine", func() {
	var (
		cfg    *config.Config
		stdout *bytes.Buffer
		m      *machine.Machine
	)

	BeforeEach(func() {
		cfg = testConfig()
		stdout = &bytes.Buffer{}
	})

	build := func(opts ...machine.Option) {
		var err error
		m, err = machine.New(cfg, append([]machine.Option{
			machine.WithLogger(quietLogger()),
			machine.WithOutput(stdout, stdout),
		}, opts...)...)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(m.Close()).To(Succeed()) })
	}

	load := func(words ...uint32) {
		prog, err := loader.RawProgram(image(words...), codeBase)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.LoadProgram(prog)).To(Succeed())
	}

	It("should reject an invalid configuration", func() {
		cfg.CacheSets = 3

		_, err := machine.New(cfg, machine.WithLogger(quietLogger()))
		Expect(err).To(MatchError(ContainSubstring("invalid config")))
	})

	It("should lay out the guest address space", func() {
		build()

		var names []string
		for _, r := range m.Memory.Regions() {
			names = append(names, r.Name)
		}

		Expect(names).To(ConsistOf("ram", "rom", "kernel", "scratch", "zero"))
		Expect(m.Memory.Region(lowmem.ROMBase).ReadOnly).To(BeTrue())
		Expect(m.Memory.Read32(lowmem.XLMZeroPage)).To(Equal(cfg.ZeroPage))
		Expect(m.CPU.PVR()).To(Equal(cfg.PVR))
	})

	It("should map low memory separately when RAM starts higher", func() {
		cfg.RAMBase = 0x00100000
		build()

		Expect(m.Memory.Region(0x2800).Name).To(Equal("low"))
	})

	DescribeTable("should return r3 from a called routine",
		func(mutate func(*config.Config)) {
			mutate(cfg)
			build()
			load(
				insts.EncodeLI(3, 40),
				insts.EncodeADDI(3, 3, 2),
				insts.EncodeBLR(),
			)

			r3, err := m.Run(codeBase)
			Expect(err).NotTo(HaveOccurred())
			Expect(r3).To(Equal(uint32(42)))
		},
		Entry("interpreter", func(c *config.Config) { c.JIT = false }),
		Entry("closures", func(c *config.Config) { c.JITNative = false }),
		Entry("native", func(*config.Config) {}),
		Entry("late translation", func(c *config.Config) { c.JITThreshold = 4 }),
	)

	It("should write guest output and report the exit status", func() {
		build()
		msg := []byte("baa\n")
		Expect(m.Memory.WriteBytes(0x7000, msg)).To(Succeed())

		load(
			insts.EncodeLI(0, 4),
			insts.EncodeLI(3, 1),
			insts.EncodeLI(4, 0x7000),
			insts.EncodeLI(5, int16(len(msg))),
			insts.EncodeSC(),
			insts.EncodeLI(0, 1),
			insts.EncodeLI(3, 7),
			insts.EncodeSC(),
		)

		code, err := m.Run(codeBase)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(uint32(7)))
		Expect(stdout.String()).To(Equal("baa\n"))
	})

	It("should load a ROM image", func() {
		build()
		path := filepath.Join(GinkgoT().TempDir(), "rom")
		Expect(os.WriteFile(path, image(0x11223344, 0x55667788), 0644)).To(Succeed())

		Expect(m.LoadROM(path)).To(Succeed())
		Expect(m.Memory.Read32(lowmem.ROMBase + 4)).To(Equal(uint32(0x55667788)))

		Expect(m.LoadROM(filepath.Join(GinkgoT().TempDir(), "none"))).
			To(MatchError(ContainSubstring("failed to read ROM")))
	})

	It("should enter the monitor on a fatal fault", func() {
		cfg.Monitor = true
		out := &bytes.Buffer{}
		build(machine.WithMonitorOptions(monitor.WithIO(strings.NewReader("r\n"), out)))
		load(insts.EncodeTRAP())

		_, err := m.Run(codeBase)
		Expect(err).To(HaveOccurred())
		Expect(m.Monitor).NotTo(BeNil())
		Expect(out.String()).To(HavePrefix("*** SIGILL at pc=00003000\n"))
		Expect(out.String()).To(ContainSubstring("pc  00003000"))
	})

	DescribeTable("should persist XPRAM across machines",
		func(backend string) {
			cfg.NVRAMBackend = backend
			cfg.NVRAMPath = filepath.Join(GinkgoT().TempDir(), "nvram")

			first, err := machine.New(cfg, machine.WithLogger(quietLogger()))
			Expect(err).NotTo(HaveOccurred())
			first.XPRAM.Write8(0x1300, 0xa5)
			Expect(first.Close()).To(Succeed())

			second, err := machine.New(cfg, machine.WithLogger(quietLogger()))
			Expect(err).NotTo(HaveOccurred())
			defer func() { Expect(second.Close()).To(Succeed()) }()

			Expect(second.XPRAM.Read8(0x1300)).To(Equal(uint8(0xa5)))
		},
		Entry("file", config.NVRAMFile),
		Entry("pebble", config.NVRAMPebble),
	)

	Describe("host tasks", func() {
		It("should include the watchdog only when NVRAM is persisted", func() {
			build()
			Expect(taskNames(m.Tasks())).To(ConsistOf("tick", "signals"))
		})

		It("should list the watchdog with a NVRAM path", func() {
			cfg.NVRAMPath = filepath.Join(GinkgoT().TempDir(), "nvram")
			build()
			Expect(taskNames(m.Tasks())).To(ConsistOf("tick", "signals", "nvram"))
		})

		It("should tick into the bridge until stopped", func() {
			build()

			ctx, cancel := context.WithCancel(context.Background())
			wait := m.Start(ctx, platform.WithTickPeriod(time.Millisecond))

			state := m.Bridge.State()
			Eventually(state.Pending).Should(BeNumerically(">", 0))
			Eventually(state.InterruptFlags).ShouldNot(BeZero())

			cancel()
			Expect(wait()).To(Succeed())
		})
	})
})

func taskNames(tasks []platform.Task) []string {
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name())
	}

	return names
}
