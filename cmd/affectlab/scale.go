package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/affectlab/affectlab-server/internal/affect"
	"github.com/affectlab/affectlab-server/internal/artifact"
	"github.com/affectlab/affectlab-server/internal/ingest"
	"github.com/affectlab/affectlab-server/internal/service"
	"github.com/affectlab/affectlab-server/internal/validation"
)

var scaleFormat string

// scaleCmd runs the scaling pipeline over a local spreadsheet
var scaleCmd = &cobra.Command{
	Use:   "scale <input> [output_dir]",
	Short: "Normalize and scale affect ratings",
	Long: `Read a .xlsx, .csv or .json file of group/post ratings, run the scaling
pipeline and write one file per output table into output_dir (default: .).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runScale,
}

func init() {
	scaleCmd.Flags().StringVarP(&scaleFormat, "format", "f", artifact.FormatXLSX, "Output format (xlsx, csv)")
}

func runScale(cmd *cobra.Command, args []string) error {
	enc, err := artifact.NewEncoder(scaleFormat)
	if err != nil {
		return err
	}

	input := args[0]
	outDir := "."
	if len(args) > 1 {
		outDir = args[1]
	}

	f, err := os.Open(input) //#nosec G304 -- path supplied by the user
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	svc := service.NewScalingService(nil, ingest.NewSchema(validation.New()), nil, log.Logger)
	result, err := svc.Scale(cmd.Context(), filepath.Base(input), f)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, t := range result.Tables() {
		path := filepath.Join(outDir, t.Name+"."+enc.Format())
		if err := writeTable(path, enc, t); err != nil {
			return err
		}
		shape := t.Shape()
		fmt.Fprintf(out, "%-16s %4d rows x %d cols  %s\n", t.Name, shape[0], shape[1], path)
	}

	log.Debug("scaling complete", "input", input, "rows", len(result.Original), "output_dir", outDir)
	return nil
}

func writeTable(path string, enc artifact.Encoder, t affect.Table) error {
	f, err := os.Create(path) //#nosec G304 -- path built from the output directory
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := enc.Encode(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", t.Name, err)
	}
	return f.Close()
}
