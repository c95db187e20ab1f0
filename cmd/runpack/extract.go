package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/settler/archiver"
	"github.com/settler/archiver/common"
)

// readArchive loads the zip archive at path, decompressing it first if
// it is wrapped in a stream compressor.
func (a *app) readArchive(cmd *cobra.Command, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.importer().OpenArchive(cmd.Context(), filepath.Base(path), bytes.NewReader(data))
}

func (a *app) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls ARCHIVE",
		Short: "List the entries of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.readArchive(cmd, args[0])
			if err != nil {
				return err
			}
			headers, listErr := a.zip().List(archive)
			if listErr != nil && !errors.Is(listErr, archiver.ErrTruncatedCentralDirectory) {
				return listErr
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "METHOD\tCOMPRESSED\tSIZE\tCRC32\tNAME")
			var total uint64
			for _, h := range headers {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%08x\t%s\n",
					h.Method, h.CompressedSize, h.UncompressedSize, h.CRC32, h.Name)
				total += uint64(h.UncompressedSize)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total %d entries, %d bytes\n", len(headers), total)

			// a truncated directory still lists what could be read
			return listErr
		},
	}
}

func (a *app) extractCmd() *cobra.Command {
	var (
		destination string
		intoFolder  bool
		verifyCRC   bool
	)

	cmd := &cobra.Command{
		Use:   "extract ARCHIVE MEMBER",
		Short: "Extract one member of an archive",
		Long: `Extracts the member whose name matches MEMBER exactly. The contents
are written to stdout, or with -o to the same relative path under a
directory. With --folder that directory is named after the archive and
sits next to it (evidence.zip.gz extracts into evidence/). Member names
that would land outside the directory are refused.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.readArchive(cmd, args[0])
			if err != nil {
				return err
			}

			z := a.zip()
			z.VerifyChecksum = verifyCRC
			data, err := z.ExtractEntry(archive, args[1])
			if err != nil {
				return err
			}

			if destination == "" && intoFolder {
				destination = filepath.Join(filepath.Dir(args[0]), common.FolderNameFromFileName(args[0]))
			}
			if destination == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			target, err := common.ExtractPath(destination, args[1])
			if common.IsIllegalPathError(err) {
				return fmt.Errorf("refusing to write %q outside %s: %w", args[1], destination, err)
			}
			if err != nil {
				return err
			}
			if err := common.WriteNewFile(target, bytes.NewReader(data), 0644); err != nil {
				return err
			}
			a.logger.Debug("extracted member",
				zap.String("member", args[1]),
				zap.String("target", target),
				zap.Int("bytes", len(data)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&destination, "output", "o", "", "Directory to extract into")
	cmd.Flags().BoolVar(&intoFolder, "folder", false, "Extract into a directory named after the archive")
	cmd.Flags().BoolVar(&verifyCRC, "verify-crc", false, "Check the CRC-32 of the extracted data")
	return cmd
}
