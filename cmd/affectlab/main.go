// Package main provides the affectlab command line tool, which runs the scaling
// and word-frequency pipelines over local files without starting the server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/affectlab/affectlab-server/internal/config"
	"github.com/affectlab/affectlab-server/internal/logger"
)

var (
	// verbose enables debug logging on stderr.
	verbose bool

	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:     "affectlab",
	Short:   "Scale affect ratings and count words from the command line",
	Version: config.Version,
	Long: `affectlab runs the server's analysis pipelines over local files.

Available commands:
  scale     - Normalize and scale valence/arousal ratings into output tables
  words     - Rank the most frequent words of a text
  artifacts - Inspect and prune published artifacts`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		log = logger.New(logger.Config{
			Writer: cmd.ErrOrStderr(),
			Level:  level,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(scaleCmd)
	rootCmd.AddCommand(wordsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
