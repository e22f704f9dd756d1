// Package benchmarks measures the execution engine on small PowerPC
// programs, comparing the interpreter with the translating backends.
package benchmarks

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/config"
	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/engine"
	"github.com/sarchlab/sheepcore/loader"
	"github.com/sarchlab/sheepcore/machine"
)

// ProgramBase is where benchmark programs are loaded.
const ProgramBase = 0x3000

// Benchmark defines a single benchmark program. The program is a routine
// returning its result in r3.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program builds the code for the given number of iterations.
	Program func(iterations uint32) []uint32

	// Expected is the r3 value the program returns.
	Expected func(iterations uint32) uint32
}

// Mode is one way of configuring the engine.
type Mode struct {
	Name  string
	Apply func(c *config.Config)
}

// DefaultModes compares the interpreter, the closure backend and the
// native backend. The native mode degrades to closures on hosts without
// a native backend.
func DefaultModes() []Mode {
	return []Mode{
		{Name: "interpreter", Apply: func(c *config.Config) { c.JIT = false }},
		{Name: "closures", Apply: func(c *config.Config) { c.JITNative = false }},
		{Name: "native", Apply: func(*config.Config) {}},
	}
}

// Result holds the measurements of one benchmark in one mode.
type Result struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Mode        string `json:"mode"`

	Instructions   uint64 `json:"instructions"`
	BlocksCompiled uint64 `json:"blocks_compiled"`
	Promotions     uint64 `json:"promotions"`
	CacheHits      uint64 `json:"cache_hits"`
	ChainHits      uint64 `json:"chain_hits"`

	// Value is r3 on return; Valid reports whether it matched.
	Value uint32 `json:"value"`
	Valid bool   `json:"valid"`

	WallTime time.Duration `json:"wall_time_ns"`
	MIPS     float64       `json:"mips"`

	// Err is set when the run failed.
	Err string `json:"error,omitempty"`

	// Regs is the register file after the run.
	Regs emu.Registers `json:"-"`
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Iterations scales every benchmark loop.
	Iterations uint32

	// Modes are the engine configurations to compare.
	Modes []Mode

	// Machine is the base configuration each mode starts from.
	Machine *config.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives machine logs (default: discarded).
	Logger logrus.FieldLogger

	// Verbose dumps the engine counters after each run.
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	mc := config.Default()
	mc.RAMSize = 16 << 20

	return HarnessConfig{
		Iterations: 100_000,
		Modes:      DefaultModes(),
		Machine:    mc,
		Output:     os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
	pp         *pp.PrettyPrinter
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	if config.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		config.Logger = l
	}

	if config.Machine == nil {
		config.Machine = DefaultConfig().Machine
	}

	if len(config.Modes) == 0 {
		config.Modes = DefaultModes()
	}

	printer := pp.New()
	printer.SetColoringEnabled(false)

	return &Harness{config: config, pp: printer}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes every benchmark in every mode.
func (h *Harness) RunAll() []Result {
	results := make([]Result, 0, len(h.benchmarks)*len(h.config.Modes))

	for _, bench := range h.benchmarks {
		for _, mode := range h.config.Modes {
			results = append(results, h.Run(bench, mode))
		}
	}

	return results
}

// Run executes one benchmark on a fresh machine.
func (h *Harness) Run(bench Benchmark, mode Mode) Result {
	result := Result{Name: bench.Name, Description: bench.Description, Mode: mode.Name}

	cfg := h.config.Machine.Clone()
	mode.Apply(cfg)

	m, err := machine.New(cfg, machine.WithLogger(h.config.Logger), machine.WithOutput(io.Discard, io.Discard))
	if err != nil {
		result.Err = err.Error()
		return result
	}
	defer func() { _ = m.Close() }()

	prog, err := loader.RawProgram(BuildProgram(bench.Program(h.config.Iterations)...), ProgramBase)
	if err == nil {
		err = m.LoadProgram(prog)
	}
	if err != nil {
		result.Err = err.Error()
		return result
	}

	start := time.Now()
	value, err := m.Run(prog.EntryPoint)
	result.WallTime = time.Since(start)

	if err != nil {
		result.Err = err.Error()
	}

	stats := m.Engine.Stats()
	result.Regs = m.CPU.Regs
	result.Value = value
	result.Valid = err == nil && value == bench.Expected(h.config.Iterations)
	result.Instructions = stats.Instructions
	result.BlocksCompiled = stats.BlocksCompiled
	result.Promotions = stats.Promotions
	result.CacheHits = stats.CacheHits
	result.ChainHits = stats.ChainHits

	if secs := result.WallTime.Seconds(); secs > 0 {
		result.MIPS = float64(result.Instructions) / secs / 1e6
	}

	if h.config.Verbose {
		h.dumpStats(bench.Name, mode.Name, stats)
	}

	return result
}

func (h *Harness) dumpStats(name, mode string, stats engine.Stats) {
	_, _ = fmt.Fprintf(h.config.Output, "--- %s (%s) ---\n", name, mode)
	_, _ = h.pp.Fprintln(h.config.Output, stats)
}

// Speedup returns how much faster r ran than the interpreter run of the
// same benchmark in results, or 0 if there is none.
func Speedup(results []Result, r Result) float64 {
	for _, base := range results {
		if base.Name == r.Name && base.Mode == "interpreter" && r.WallTime > 0 {
			return float64(base.WallTime) / float64(r.WallTime)
		}
	}

	return 0
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []Result) {
	out := h.config.Output

	_, _ = fmt.Fprintln(out, "=== Engine Benchmark Results ===")
	_, _ = fmt.Fprintln(out, "")

	last := ""
	for _, r := range results {
		if r.Name != last {
			_, _ = fmt.Fprintf(out, "Benchmark: %s\n", r.Name)
			_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
			last = r.Name
		}

		_, _ = fmt.Fprintf(out, "  [%s]\n", r.Mode)
		if r.Err != "" {
			_, _ = fmt.Fprintf(out, "    Error: %s\n", r.Err)
			continue
		}

		_, _ = fmt.Fprintf(out, "    Result:          0x%08x (valid: %v)\n", r.Value, r.Valid)
		_, _ = fmt.Fprintf(out, "    Instructions:    %d\n", r.Instructions)
		_, _ = fmt.Fprintf(out, "    Blocks Compiled: %d\n", r.BlocksCompiled)
		_, _ = fmt.Fprintf(out, "    Chain Hits:      %d\n", r.ChainHits)
		_, _ = fmt.Fprintf(out, "    Wall Time:       %v\n", r.WallTime)
		_, _ = fmt.Fprintf(out, "    MIPS:            %.1f\n", r.MIPS)
		if s := Speedup(results, r); s > 0 && r.Mode != "interpreter" {
			_, _ = fmt.Fprintf(out, "    Speedup:         %.2fx\n", s)
		}
	}

	_, _ = fmt.Fprintln(out, "")
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,mode,instructions,blocks,promotions,cache_hits,chain_hits,value,valid,wall_ns,mips")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%d,%d,%d,%d,%v,%d,%.3f\n",
			r.Name,
			r.Mode,
			r.Instructions,
			r.BlocksCompiled,
			r.Promotions,
			r.CacheHits,
			r.ChainHits,
			r.Value,
			r.Valid,
			r.WallTime.Nanoseconds(),
			r.MIPS,
		)
	}
}

// Report is the JSON output format.
type Report struct {
	Timestamp  string   `json:"timestamp"`
	Iterations uint32   `json:"iterations"`
	Results    []Result `json:"results"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []Result) error {
	report := Report{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Iterations: h.config.Iterations,
		Results:    results,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")

	return encoder.Encode(report)
}

// BuildProgram assembles instruction words into a big-endian image.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, 0, len(instrs)*4)
	for _, inst := range instrs {
		program = binary.BigEndian.AppendUint32(program, inst)
	}

	return program
}
