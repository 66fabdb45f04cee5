package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:          "rtdec",
	Short:        "Realtime syndrome decoder for quantum error correction",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `rtdec decodes stabilizer syndromes against a minimum-weight matching
graph within a per-cycle realtime budget. The compile command builds and
stores the decoding graph ahead of time; decode and bench run syndromes
against it.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "rtdec.yaml", "path to the decoder config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every cycle")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
