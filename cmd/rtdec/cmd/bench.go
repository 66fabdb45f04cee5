package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/qecflow/rtdec/kernel"
	"github.com/qecflow/rtdec/testutil"
)

var (
	benchCycles int
	benchProb   float64
	benchSeed   int64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure decode latency on sampled syndromes",
	Long: `bench samples random qubit errors at the given physical error rate,
decodes the resulting syndromes and reports the latency distribution. Use
it to check that a code and deadline fit the realtime budget before
wiring the decoder to hardware.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchCycles, "cycles", "n", 1000, "number of cycles to decode")
	benchCmd.Flags().Float64VarP(&benchProb, "error-rate", "p", 0.001, "physical error rate to sample at")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 1, "error sampling seed")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	session, err := openSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	desc := session.Code()
	rng := testutil.NewRNG(benchSeed)

	latencies := make([]time.Duration, 0, benchCycles)
	var timeouts, logicalFlips int

	start := time.Now()
	for cycle := 1; cycle <= benchCycles; cycle++ {
		flips := rng.SampleErrors(desc.NumQubits(), benchProb)
		syndrome := testutil.Syndrome(desc, flips)

		out, err := session.Decode(cmd.Context(), uint64(cycle), syndrome)
		if err != nil {
			return fmt.Errorf("cycle %d: %w", cycle, err)
		}
		if out.Status == kernel.StatusTimeout {
			timeouts++
			continue
		}
		latencies = append(latencies, out.Elapsed)
		for _, f := range out.Update.LogicalFlips {
			if f {
				logicalFlips++
				break
			}
		}
	}
	wall := time.Since(start)

	fmt.Printf("%s: %d cycles at p=%g in %s (%.0f cycles/s)\n",
		desc.Name(), benchCycles, benchProb, wall,
		float64(benchCycles)/wall.Seconds())
	fmt.Printf("timeouts: %d, cycles with a logical flip: %d\n", timeouts, logicalFlips)

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		pct := func(p float64) time.Duration {
			i := int(p * float64(len(latencies)-1))
			return latencies[i]
		}
		fmt.Printf("latency p50=%s p90=%s p99=%s max=%s\n",
			pct(0.50), pct(0.90), pct(0.99), latencies[len(latencies)-1])
	}
	return nil
}
