// Package config holds the emulator configuration and its JSON file
// format.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/blockcache"
	"github.com/sarchlab/sheepcore/bridge"
	"github.com/sarchlab/sheepcore/emu"
)

// NVRAM backends.
const (
	NVRAMFile   = "file"
	NVRAMPebble = "pebble"
)

// Config configures the engine, the guest machine and the host threads.
type Config struct {
	// JIT enables block translation. Default: true.
	JIT bool `json:"jit"`

	// JITThreshold is the number of runs after which an interpreted block
	// is translated. 0 translates on first use. Default: 0.
	JITThreshold uint64 `json:"jit_threshold"`

	// JITNative enables the native x86-64 backend where available.
	// Default: true.
	JITNative bool `json:"jit_native"`

	// JITCodeBufferSize is the size of the native code buffer in bytes.
	// Default: 4 MiB.
	JITCodeBufferSize int `json:"jit_code_buffer_size"`

	// MaxBlockLength bounds the instructions of one block. Default: 256.
	MaxBlockLength int `json:"max_block_length"`

	// FollowConstJumps lets blocks continue through unconditional
	// branches. Default: false.
	FollowConstJumps bool `json:"follow_const_jumps"`

	// CacheSets, CacheWays and CacheMaxBlocks size the block cache.
	// Defaults: 1024, 4, 16384.
	CacheSets      int `json:"cache_sets"`
	CacheWays      int `json:"cache_ways"`
	CacheMaxBlocks int `json:"cache_max_blocks"`

	// RAMBase and RAMSize place guest RAM. Defaults: 0, 64 MiB.
	RAMBase uint32 `json:"ram_base"`
	RAMSize uint32 `json:"ram_size"`

	// ROMPath is an optional ROM image mapped at the ROM base.
	ROMPath string `json:"rom_path,omitempty"`

	// NewWorldROM selects NewWorld nanokernel entry points.
	NewWorldROM bool `json:"new_world_rom"`

	// ScratchBase and ScratchSize place the emulator scratch area.
	// Defaults: 0x68f00000, 512 KiB.
	ScratchBase uint32 `json:"scratch_base"`
	ScratchSize uint32 `json:"scratch_size"`

	// ZeroPage is the read-only page. Default: 0x68f80000.
	ZeroPage uint32 `json:"zero_page"`

	// PVR is the processor version reported to the guest. Default: a
	// PowerPC 7400.
	PVR uint32 `json:"pvr"`

	// BusClock is the bus clock in Hz. Default: 100 MHz.
	BusClock uint32 `json:"bus_clock"`

	// IgnoreSegv and IgnoreIllegal skip unhandled faults.
	IgnoreSegv    bool `json:"ignore_segv"`
	IgnoreIllegal bool `json:"ignore_illegal"`

	// Monitor enters the monitor on fatal faults and on SIGUSR1.
	Monitor bool `json:"monitor"`

	// NVRAMPath is where XPRAM is kept; empty disables the watchdog.
	NVRAMPath string `json:"nvram_path,omitempty"`

	// NVRAMBackend is "file" or "pebble". Default: "file".
	NVRAMBackend string `json:"nvram_backend"`

	// LogLevel is a logrus level name. Default: "info".
	LogLevel string `json:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		JIT:               true,
		JITThreshold:      0,
		JITNative:         true,
		JITCodeBufferSize: 4 << 20,
		MaxBlockLength:    256,
		CacheSets:         1024,
		CacheWays:         4,
		CacheMaxBlocks:    16384,
		RAMBase:           0,
		RAMSize:           64 << 20,
		ScratchBase:       0x68f00000,
		ScratchSize:       512 << 10,
		ZeroPage:          0x68f80000,
		PVR:               emu.DefaultPVR,
		BusClock:          100_000_000,
		NVRAMBackend:      NVRAMFile,
		LogLevel:          "info",
	}
}

// Load reads a configuration file. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return c, nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.CacheConfig().Validate(); err != nil {
		return err
	}
	if c.MaxBlockLength <= 0 {
		return fmt.Errorf("max_block_length must be > 0")
	}
	if c.JIT && c.JITNative && c.JITCodeBufferSize < 4096 {
		return fmt.Errorf("jit_code_buffer_size must be at least 4096")
	}
	if c.RAMSize == 0 || c.RAMSize%emu.PageSize != 0 {
		return fmt.Errorf("ram_size must be a non-zero multiple of %d", emu.PageSize)
	}
	if uint64(c.RAMBase)+uint64(c.RAMSize) > 1<<32 {
		return fmt.Errorf("ram does not fit the address space")
	}
	if c.ScratchSize < bridge.SignalStackSize+0x1000 {
		return fmt.Errorf("scratch_size must be at least 0x%x", bridge.SignalStackSize+0x1000)
	}
	if c.NVRAMBackend != NVRAMFile && c.NVRAMBackend != NVRAMPebble {
		return fmt.Errorf("nvram_backend must be %q or %q", NVRAMFile, NVRAMPebble)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Level returns the parsed log level, info when invalid.
func (c *Config) Level() logrus.Level {
	l, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}

	return l
}

// CacheConfig returns the block cache sizes.
func (c *Config) CacheConfig() blockcache.Config {
	return blockcache.Config{
		Sets:      c.CacheSets,
		Ways:      c.CacheWays,
		MaxBlocks: c.CacheMaxBlocks,
	}
}

// BridgeConfig returns the machine description for the bridge.
func (c *Config) BridgeConfig() bridge.Config {
	return bridge.Config{
		RAMBase:        c.RAMBase,
		RAMSize:        c.RAMSize,
		NewWorldROM:    c.NewWorldROM,
		ScratchBase:    c.ScratchBase,
		ScratchSize:    c.ScratchSize,
		ZeroPage:       c.ZeroPage,
		BusClock:       c.BusClock,
		IgnoreSegv:     c.IgnoreSegv,
		IgnoreIllegal:  c.IgnoreIllegal,
		MonitorOnFault: c.Monitor,
	}
}
