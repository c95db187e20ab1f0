package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/settler/archiver"
	"github.com/settler/archiver/common"
	"github.com/settler/archiver/runpack"
)

func (a *app) createCmd() *cobra.Command {
	var (
		output    string
		noMapping bool
		timezone  string
		rounding  string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "create FILE...",
		Short: "Create a run pack from input files",
		Long: `Packs the given CSV or JSON exports with the ruleset, mapping and
engine_input.json into a run pack. The output name decides the format:
settler-run-pack.zip is a plain zip archive, while a name such as
pack.zip.gz or pack.zip.zst is compressed as a whole after archiving.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := runpack.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			if noMapping {
				cfg.IncludeMapping = false
			}
			if timezone != "" {
				cfg.Timezone = timezone
			}
			if rounding != "" {
				cfg.RoundingMode = rounding
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !force && common.FileExists(output) {
				return fmt.Errorf("%s already exists; use --force to overwrite it", output)
			}

			inputs := make([]runpack.Input, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				inputs = append(inputs, runpack.Input{
					Name: common.NameInArchive("", path),
					Data: data,
				})
			}

			entries, err := runpack.Entries(inputs, cfg)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := a.outputFormat(output).Archive(cmd.Context(), &buf, entries); err != nil {
				return err
			}
			if err := common.WriteNewFile(output, &buf, 0644); err != nil {
				return err
			}

			a.logger.Info("created run pack",
				zap.String("output", output),
				zap.Int("inputs", len(inputs)),
				zap.Bool("mapping", cfg.IncludeMapping))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d entries)\n", output, len(entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", runpack.DefaultFilename, "Run pack to write")
	cmd.Flags().BoolVar(&noMapping, "no-mapping", false, "Leave mapping.json out of the run pack")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone the engine normalizes timestamps to")
	cmd.Flags().StringVar(&rounding, "rounding", "", "Rounding mode: bankers or half_up")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite the output if it exists")
	return cmd
}

// outputFormat picks the archiver for the output file name. Names that
// match no format get a plain zip archive.
func (a *app) outputFormat(output string) archiver.Archiver {
	z := a.zip()
	format, err := archiver.Identify(output, nil)
	if err != nil {
		return z
	}
	switch f := format.(type) {
	case archiver.CompressedArchive:
		f.Archival = z
		return f
	case archiver.Compression:
		// pack.gz: a compressed zip without .zip in its name
		return archiver.CompressedArchive{Compression: f, Archival: z}
	}
	return z
}
