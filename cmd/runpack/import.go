package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/settler/archiver/runpack"
)

func readEngineOutput(path string) (*runpack.EngineOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out, err := runpack.ParseEngineOutput(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func (a *app) importCmd() *cobra.Command {
	var engineOutput string

	cmd := &cobra.Command{
		Use:   "import BUNDLE",
		Short: "Summarize the variances in an evidence bundle",
		Long: `Reads evidence/variances.jsonl from an evidence bundle (or a bare
variances.jsonl) and prints the number of variances of each type. With
--engine-output, the counts are checked against the engine's summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var summary *runpack.VarianceSummary
			if engineOutput != "" {
				out, err := readEngineOutput(engineOutput)
				if err != nil {
					return err
				}
				summary = &out.VarianceSummary
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			items, err := a.importer().Variances(cmd.Context(), filepath.Base(args[0]), bytes.NewReader(data))
			if err != nil {
				return err
			}

			counts := make(map[string]int)
			for _, item := range items {
				counts[item.Type]++
			}
			types := make([]string, 0, len(counts))
			for t := range counts {
				types = append(types, t)
			}
			sort.Strings(types)

			w := cmd.OutOrStdout()
			for _, t := range types {
				fmt.Fprintf(w, "%s\t%d\n", t, counts[t])
			}
			fmt.Fprintf(w, "total\t%d\n", len(items))

			if summary != nil && summary.Total != len(items) {
				return fmt.Errorf("engine output reports %d variances, bundle holds %d",
					summary.Total, len(items))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&engineOutput, "engine-output", "", "engine_output.json to check the counts against")
	return cmd
}

var errVerificationFailed = errors.New("evidence bundle failed verification")

func (a *app) verifyCmd() *cobra.Command {
	var engineOutput string

	cmd := &cobra.Command{
		Use:   "verify BUNDLE",
		Short: "Check an evidence bundle against its manifest",
		Long: `Extracts every file listed in the evidence manifest and checks its
size and SHA-256. The manifest is taken from --engine-output when given,
otherwise from evidence/manifest.json inside the bundle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := filepath.Base(args[0])
			imp := a.importer()

			var manifest runpack.EvidenceManifest
			if engineOutput != "" {
				out, err := readEngineOutput(engineOutput)
				if err != nil {
					return err
				}
				manifest = out.EvidenceManifest
			} else {
				m, err := imp.Manifest(cmd.Context(), name, bytes.NewReader(data))
				if err != nil {
					return err
				}
				manifest = *m
			}

			result, err := imp.Verify(cmd.Context(), name, bytes.NewReader(data), manifest)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, msg := range result.Errors {
				fmt.Fprintf(w, "FAIL\t%s\n", msg)
			}
			if !result.OK {
				return errVerificationFailed
			}
			fmt.Fprintf(w, "ok\t%d files verified\n", len(manifest.Files))
			return nil
		},
	}

	cmd.Flags().StringVar(&engineOutput, "engine-output", "", "engine_output.json holding the evidence manifest")
	return cmd
}
