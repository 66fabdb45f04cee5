package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qecflow/rtdec"
	"github.com/qecflow/rtdec/artifact"
	"github.com/qecflow/rtdec/blobstore"
	"github.com/qecflow/rtdec/kernel"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode a stream of syndromes",
	Long: `decode reads one syndrome per line, as a string of 0s and 1s with one
bit per check (whitespace between bits is ignored), and prints the qubit
flips and logical outcomes per cycle. Reads stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

// openSession builds a session from the config, loading a precompiled
// graph artifact when one exists in the artifact store.
func openSession(ctx context.Context, cfg *Config) (*rtdec.Session, error) {
	desc, err := cfg.buildCode()
	if err != nil {
		return nil, err
	}
	model, err := cfg.buildNoise()
	if err != nil {
		return nil, err
	}

	b := rtdec.Matching(desc).Noise(model)
	if cfg.Decoder.Deadline > 0 {
		b = b.Deadline(time.Duration(cfg.Decoder.Deadline))
	}
	if cfg.Decoder.Workers > 0 {
		b = b.Workers(cfg.Decoder.Workers)
	}
	if cfg.Decoder.Depth > 0 {
		b = b.Depth(cfg.Decoder.Depth)
	}
	if cfg.Decoder.MaxExactDefects > 0 {
		b = b.MaxExactDefects(cfg.Decoder.MaxExactDefects)
	}
	if cfg.Decoder.RateLimit > 0 {
		b = b.RateLimit(cfg.Decoder.RateLimit, 1)
	}
	if verbose {
		b = b.Logger(rtdec.NewTextLogger(slog.LevelDebug))
	}

	store, err := cfg.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	g, err := artifact.Load(ctx, store, desc, model)
	switch {
	case err == nil:
		b = b.Graph(g)
	case errors.Is(err, blobstore.ErrNotFound):
		// No artifact compiled yet, build the graph in-process.
	default:
		return nil, fmt.Errorf("cannot load graph artifact: %w", err)
	}

	return b.Build()
}

func parseSyndrome(line string, numChecks int) ([]bool, error) {
	bits := make([]bool, 0, numChecks)
	for _, r := range line {
		switch r {
		case '0':
			bits = append(bits, false)
		case '1':
			bits = append(bits, true)
		case ' ', '\t', ',':
		default:
			return nil, fmt.Errorf("unexpected character %q in syndrome", r)
		}
	}
	if len(bits) != numChecks {
		return nil, fmt.Errorf("syndrome has %d bits, code has %d checks", len(bits), numChecks)
	}
	return bits, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	session, err := openSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	scanner := bufio.NewScanner(in)
	cycle := uint64(0)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		syndrome, err := parseSyndrome(line, session.Code().NumChecks())
		if err != nil {
			return fmt.Errorf("cycle %d: %w", cycle+1, err)
		}

		cycle++
		out, err := session.Decode(cmd.Context(), cycle, syndrome)
		if err != nil {
			return fmt.Errorf("cycle %d: %w", cycle, err)
		}

		if out.Status == kernel.StatusTimeout {
			fmt.Printf("cycle %d: timeout after %s\n", cycle, out.Elapsed)
			continue
		}
		fmt.Printf("cycle %d: flips=%v logicals=%v weight=%.4f elapsed=%s\n",
			cycle, out.Update.Flips.ToArray(), out.Update.LogicalFlips, out.Weight, out.Elapsed)
	}
	return scanner.Err()
}
