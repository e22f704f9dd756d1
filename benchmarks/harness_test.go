package benchmarks_test

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/benchmarks"
	"github.com/sarchlab/sheepcore/config"
	"github.com/sarchlab/sheepcore/insts"
)

var _ = Describe("Harness", func() {
	var (
		out *bytes.Buffer
		cfg benchmarks.HarnessConfig
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		cfg = benchmarks.DefaultConfig()
		cfg.Iterations = 2000
		cfg.Output = out
	})

	Describe("microbenchmarks", func() {
		for _, bench := range benchmarks.GetMicrobenchmarks() {
			for _, mode := range benchmarks.DefaultModes() {
				It("should compute "+bench.Name+" with the "+mode.Name, func() {
					r := benchmarks.NewHarness(cfg).Run(bench, mode)

					Expect(r.Err).To(BeEmpty())
					Expect(r.Value).To(Equal(bench.Expected(cfg.Iterations)))
					Expect(r.Valid).To(BeTrue())
					Expect(r.Instructions).To(BeNumerically(">", uint64(cfg.Iterations)))
					Expect(r.BlocksCompiled).NotTo(BeZero())
				})
			}
		}

		It("should cap the mixed workload at the compare bound", func() {
			cfg.Iterations = 12000
			mixed := benchmarks.GetMicrobenchmarks()[5]

			r := benchmarks.NewHarness(cfg).Run(mixed, benchmarks.DefaultModes()[0])
			Expect(r.Value).To(Equal(uint32(10923)))
		})
	})

	It("should run every benchmark in every mode", func() {
		h := benchmarks.NewHarness(cfg)
		h.AddBenchmarks(benchmarks.GetCoreBenchmarks())

		results := h.RunAll()
		Expect(results).To(HaveLen(3 * 3))
		Expect(results[0].Mode).To(Equal("interpreter"))
		Expect(results[1].Mode).To(Equal("closures"))
	})

	It("should leave the same registers in every mode", func() {
		h := benchmarks.NewHarness(cfg)

		for _, bench := range benchmarks.GetMicrobenchmarks() {
			var ref benchmarks.Result
			for i, mode := range benchmarks.DefaultModes() {
				r := h.Run(bench, mode)
				if i == 0 {
					ref = r
					continue
				}

				Expect(cmp.Diff(ref.Regs, r.Regs)).To(BeEmpty(), bench.Name+" "+mode.Name)
			}
		}
	})

	It("should report a failing program", func() {
		h := benchmarks.NewHarness(cfg)
		bad := benchmarks.Benchmark{
			Name:     "trap",
			Program:  func(uint32) []uint32 { return []uint32{insts.EncodeTRAP()} },
			Expected: func(uint32) uint32 { return 0 },
		}

		r := h.Run(bad, benchmarks.DefaultModes()[0])
		Expect(r.Err).To(ContainSubstring("illegal instruction"))
		Expect(r.Valid).To(BeFalse())
	})

	It("should report an unusable machine configuration", func() {
		cfg.Machine = config.Default()
		cfg.Machine.CacheWays = 0

		r := benchmarks.NewHarness(cfg).Run(benchmarks.GetCoreBenchmarks()[0], benchmarks.DefaultModes()[0])
		Expect(r.Err).To(ContainSubstring("invalid config"))
	})

	Describe("output", func() {
		var results []benchmarks.Result

		BeforeEach(func() {
			h := benchmarks.NewHarness(cfg)
			h.AddBenchmark(benchmarks.GetCoreBenchmarks()[0])
			results = h.RunAll()
			out.Reset()
		})

		It("should print a readable report with speedups", func() {
			benchmarks.NewHarness(cfg).PrintResults(results)

			Expect(out.String()).To(ContainSubstring("Benchmark: arithmetic_loop"))
			Expect(out.String()).To(ContainSubstring("[closures]"))
			Expect(out.String()).To(ContainSubstring("Speedup:"))
		})

		It("should print one CSV row per run", func() {
			benchmarks.NewHarness(cfg).PrintCSV(results)

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			Expect(lines).To(HaveLen(1 + len(results)))
			Expect(lines[1]).To(HavePrefix("arithmetic_loop,interpreter,"))
		})

		It("should print JSON", func() {
			Expect(benchmarks.NewHarness(cfg).PrintJSON(results)).To(Succeed())

			var report benchmarks.Report
			Expect(json.Unmarshal(out.Bytes(), &report)).To(Succeed())
			Expect(report.Iterations).To(Equal(uint32(2000)))
			Expect(report.Results).To(HaveLen(len(results)))
		})

		It("should compute speedup against the interpreter", func() {
			Expect(benchmarks.Speedup(results, results[0])).To(BeNumerically("~", 1.0, 1e-9))
			Expect(benchmarks.Speedup(results[1:], results[1])).To(BeZero())
		})
	})

	It("should dump engine counters when verbose", func() {
		cfg.Verbose = true

		benchmarks.NewHarness(cfg).Run(benchmarks.GetCoreBenchmarks()[0], benchmarks.DefaultModes()[1])
		Expect(out.String()).To(ContainSubstring("--- arithmetic_loop (closures) ---"))
		Expect(out.String()).To(ContainSubstring("BlocksCompiled"))
	})
})
