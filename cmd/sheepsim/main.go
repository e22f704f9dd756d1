// Package main runs standalone PowerPC programs on the sheepcore engine.
//
// The program is called as a native routine: it returns through blr with
// its result in r3, or exits through the exit system call.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/config"
	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/engine"
	"github.com/sarchlab/sheepcore/loader"
	"github.com/sarchlab/sheepcore/machine"
	"github.com/sarchlab/sheepcore/monitor"
)

var (
	configPath = flag.String("config", "", "Path to configuration JSON file")
	dumpConfig = flag.String("dump-config", "", "Write the effective configuration to this file and exit")
	romPath    = flag.String("rom", "", "ROM image mapped at the ROM base")
	raw        = flag.Bool("raw", false, "Treat the program as a raw code image")
	base       = flag.Uint("base", 0x3000, "Load address of raw images")
	interp     = flag.Bool("interp", false, "Disable the JIT")
	noNative   = flag.Bool("no-native", false, "Disable the native JIT backend")
	useMonitor = flag.Bool("monitor", false, "Enter the monitor on fatal faults and SIGUSR1")
	script     = flag.String("lua", "", "Lua script run against the CPU after the program returns")
	nvramPath  = flag.String("nvram", "", "Persist XPRAM at this path")
	logLevel   = flag.String("log-level", "", "Log level (overrides the configuration)")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *dumpConfig != "" {
		if err := cfg.Save(*dumpConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: sheepsim [options] <program>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	code, err := run(cfg, flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(int(code))
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}

	if *interp {
		cfg.JIT = false
	}
	if *noNative {
		cfg.JITNative = false
	}
	if *useMonitor {
		cfg.Monitor = true
	}
	if *nvramPath != "" {
		cfg.NVRAMPath = *nvramPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *romPath != "" {
		cfg.ROMPath = *romPath
	}

	return cfg, cfg.Validate()
}

func loadProgram(path string) (*loader.Program, error) {
	if *raw {
		return loader.LoadRaw(path, uint32(*base))
	}

	return loader.Load(path)
}

func run(cfg *config.Config, programPath string) (uint32, error) {
	logger := logrus.New()
	logger.SetLevel(cfg.Level())

	prog, err := loadProgram(programPath)
	if err != nil {
		return 0, fmt.Errorf("loading program: %w", err)
	}

	m, err := machine.New(cfg, machine.WithLogger(logger))
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.WithError(err).Warn("shutdown failed")
		}
	}()

	if cfg.ROMPath != "" {
		if err := m.LoadROM(cfg.ROMPath); err != nil {
			return 0, err
		}
	}

	if err := m.LoadProgram(prog); err != nil {
		return 0, err
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%08X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	wait := m.Start(ctx)

	// Ctrl-C quits the guest at the next block boundary.
	go func() {
		<-ctx.Done()
		m.CPU.Flags.Set(emu.SpcEmulReturn)
	}()

	code, runErr := m.Run(prog.EntryPoint)
	if errors.Is(runErr, engine.ErrEmulReturn) {
		logger.Info("interrupted")
		runErr = nil
	}

	stop()
	if err := wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Warn("host task failed")
	}

	if *script != "" {
		mon := m.Monitor
		if mon == nil {
			mon = monitor.New(monitor.WithEngine(m.Engine), monitor.WithBridge(m.Bridge),
				monitor.WithLogger(logger))
		}

		if err := mon.RunFile(m.CPU, *script); err != nil {
			return 0, fmt.Errorf("lua: %w", err)
		}
	}

	if *verbose {
		stats := m.Engine.Stats()
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Result: %d\n", code)
		fmt.Printf("Instructions executed: %d\n", stats.Instructions)
		fmt.Printf("Blocks compiled: %d\n", stats.BlocksCompiled)
		fmt.Printf("Interrupts delivered: %d\n", m.Bridge.Stats().Delivered)
	}

	return code, runErr
}
