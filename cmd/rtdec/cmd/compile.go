package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qecflow/rtdec/artifact"
	"github.com/qecflow/rtdec/graph"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Build the decoding graph and store it as an artifact",
	Long: `compile builds the matching graph for the configured code and noise
model and writes it to the configured artifact store. Decoder nodes load
the artifact at session start instead of paying the build cost.`,
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	desc, err := cfg.buildCode()
	if err != nil {
		return err
	}
	model, err := cfg.buildNoise()
	if err != nil {
		return err
	}
	compression, err := cfg.compression()
	if err != nil {
		return err
	}
	store, err := cfg.buildStore(cmd.Context())
	if err != nil {
		return err
	}

	start := time.Now()
	g, err := graph.Build(desc, model)
	if err != nil {
		return fmt.Errorf("graph build failed: %w", err)
	}
	buildTime := time.Since(start)

	name, err := artifact.Save(cmd.Context(), store, g, compression)
	if err != nil {
		return fmt.Errorf("cannot store artifact: %w", err)
	}

	fmt.Printf("compiled %s: %d checks, %d qubits, %d edges in %s\n",
		desc.Name(), g.NumChecks(), g.NumQubits(), g.NumEdges(), buildTime)
	fmt.Printf("stored as %s (%s)\n", name, compression)
	return nil
}
