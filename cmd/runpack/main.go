// Command runpack builds engine run packs and inspects the zip archives
// that travel between the console and a local engine run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/settler/archiver"
	"github.com/settler/archiver/runpack"
)

// app holds the state shared by every subcommand.
type app struct {
	verbose    bool
	configPath string
	extended   bool

	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "runpack",
		Short: "Create run packs and read evidence bundles",
		Long: `runpack creates the zip archives a reconciliation engine runs from
(inputs, ruleset, mapping and engine_input.json), and reads back the
evidence bundles the engine writes.

Archives are stored uncompressed when created. Reading supports stored
and deflated entries, plus bzip2, zstd and xz with --extended. Bundles
wrapped in gzip, zstd, xz and other stream compressors are recognized
by extension or content.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if a.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.configPath, "config", "runpack.yaml", "Run pack configuration file")
	root.PersistentFlags().BoolVar(&a.extended, "extended", false, "Also decode bzip2, zstd and xz entries")

	root.AddCommand(
		a.createCmd(),
		a.lsCmd(),
		a.extractCmd(),
		a.importCmd(),
		a.verifyCmd(),
	)
	return root
}

// zip returns the zip format configured by the global flags.
func (a *app) zip() archiver.Zip {
	z := archiver.Zip{Logger: a.logger}
	if a.extended {
		z.Decompressors = archiver.ExtendedDecompressors()
	}
	return z
}

func (a *app) importer() runpack.Importer {
	return runpack.Importer{Zip: a.zip(), Logger: a.logger}
}
