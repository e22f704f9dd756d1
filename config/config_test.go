package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/config"
	"github.com/sarchlab/sheepcore/emu"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should have valid defaults", func() {
		c := config.Default()

		Expect(c.Validate()).To(Succeed())
		Expect(c.JIT).To(BeTrue())
		Expect(c.FollowConstJumps).To(BeFalse())
		Expect(c.PVR).To(Equal(emu.DefaultPVR))
		Expect(c.Level()).To(Equal(logrus.InfoLevel))
	})

	It("should round-trip through a file", func() {
		c := config.Default()
		c.JITThreshold = 8
		c.NewWorldROM = true
		c.NVRAMBackend = config.NVRAMPebble
		c.LogLevel = "debug"

		path := filepath.Join(dir, "sheep.json")
		Expect(c.Save(path)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(c))
		Expect(loaded.Level()).To(Equal(logrus.DebugLevel))
	})

	It("should keep defaults for missing keys", func() {
		path := filepath.Join(dir, "partial.json")
		Expect(os.WriteFile(path, []byte(`{"jit": false, "cache_sets": 256}`), 0644)).To(Succeed())

		c, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.JIT).To(BeFalse())
		Expect(c.CacheSets).To(Equal(256))
		Expect(c.CacheWays).To(Equal(4))
		Expect(c.RAMSize).To(Equal(uint32(64 << 20)))
	})

	It("should report unreadable and malformed files", func() {
		_, err := config.Load(filepath.Join(dir, "missing.json"))
		Expect(err).To(MatchError(ContainSubstring("failed to read config file")))

		path := filepath.Join(dir, "bad.json")
		Expect(os.WriteFile(path, []byte("{"), 0644)).To(Succeed())

		_, err = config.Load(path)
		Expect(err).To(MatchError(ContainSubstring("failed to parse config")))
	})

	It("should clone independently", func() {
		c := config.Default()
		clone := c.Clone()
		clone.RAMSize = 1 << 20

		Expect(c.RAMSize).To(Equal(uint32(64 << 20)))
	})

	DescribeTable("should reject invalid settings",
		func(mutate func(*config.Config), msg string) {
			c := config.Default()
			mutate(c)
			Expect(c.Validate()).To(MatchError(ContainSubstring(msg)))
		},
		Entry("cache sets", func(c *config.Config) { c.CacheSets = 1000 }, "power of two"),
		Entry("cache capacity", func(c *config.Config) { c.CacheMaxBlocks = 16 }, "tag capacity"),
		Entry("block length", func(c *config.Config) { c.MaxBlockLength = 0 }, "max_block_length"),
		Entry("code buffer", func(c *config.Config) { c.JITCodeBufferSize = 16 }, "jit_code_buffer_size"),
		Entry("unaligned ram", func(c *config.Config) { c.RAMSize = 100 }, "ram_size"),
		Entry("ram overflow", func(c *config.Config) { c.RAMBase = 0xfff00000 }, "address space"),
		Entry("small scratch", func(c *config.Config) { c.ScratchSize = 0x1000 }, "scratch_size"),
		Entry("nvram backend", func(c *config.Config) { c.NVRAMBackend = "tape" }, "nvram_backend"),
		Entry("log level", func(c *config.Config) { c.LogLevel = "loud" }, "log_level"),
	)

	It("should allow a small code buffer without the native backend", func() {
		c := config.Default()
		c.JITNative = false
		c.JITCodeBufferSize = 0

		Expect(c.Validate()).To(Succeed())
	})

	It("should describe the machine for the bridge", func() {
		c := config.Default()
		c.IgnoreSegv = true
		c.Monitor = true

		bc := c.BridgeConfig()
		Expect(bc.RAMSize).To(Equal(c.RAMSize))
		Expect(bc.ScratchBase).To(Equal(c.ScratchBase))
		Expect(bc.IgnoreSegv).To(BeTrue())
		Expect(bc.MonitorOnFault).To(BeTrue())

		cc := c.CacheConfig()
		Expect(cc.Sets).To(Equal(1024))
		Expect(cc.MaxBlocks).To(Equal(16384))
	})
})
