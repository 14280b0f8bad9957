package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/affectlab/affectlab-server/internal/artifact"
	"github.com/affectlab/affectlab-server/internal/config"
	"github.com/affectlab/affectlab-server/internal/store/sqlite"
)

// artifactsCmd inspects the server's artifact registry
var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Inspect and prune published artifacts",
	Long: `Work with the artifact registry of a server data directory.

Configuration is read from the environment and .env file, like the server.

Available subcommands:
  list  - Show the artifacts published for a job
  prune - Delete expired artifacts from storage and the registry`,
}

var artifactsListCmd = &cobra.Command{
	Use:   "list <job-id>",
	Short: "Show the artifacts published for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtifactsList,
}

var artifactsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired artifacts",
	Args:  cobra.NoArgs,
	RunE:  runArtifactsPrune,
}

func init() {
	artifactsCmd.AddCommand(artifactsListCmd)
	artifactsCmd.AddCommand(artifactsPruneCmd)
	rootCmd.AddCommand(artifactsCmd)
}

// loadConfig reads server configuration without consuming CLI arguments.
func loadConfig() (*config.Config, error) {
	return config.Load(nil)
}

func openRegistry() (*config.Config, *sqlite.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(cfg.DatabasePath()); err != nil {
		return nil, nil, fmt.Errorf("no artifact registry at %s: %w", cfg.DatabasePath(), err)
	}
	db, err := sqlite.Open(cfg.DatabasePath(), log.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func runArtifactsList(cmd *cobra.Command, args []string) error {
	_, db, err := openRegistry()
	if err != nil {
		return err
	}
	defer db.Close()

	arts, err := db.ListArtifactsByJob(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(arts) == 0 {
		fmt.Fprintf(out, "No artifacts for job %s\n", args[0])
		return nil
	}

	now := time.Now()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tKEY\tSIZE\tEXPIRES\tSTATUS")
	for _, a := range arts {
		status := "active"
		if a.Expired(now) {
			status = "expired"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", a.TableName, a.StorageKey, a.Size, a.ExpiresAt.Format(time.RFC3339), status)
	}
	return tw.Flush()
}

func runArtifactsPrune(cmd *cobra.Command, _ []string) error {
	cfg, db, err := openRegistry()
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := openArtifactStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	enc, err := artifact.NewEncoder(cfg.Storage.Format)
	if err != nil {
		return err
	}

	sink := artifact.NewSink(st, db, enc, cfg.Storage.ArtifactTTL, log.Logger)
	n, err := sink.DeleteExpired(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired artifacts\n", n)
	return nil
}

func openArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	if cfg.Storage.Backend == config.BackendS3 {
		return artifact.NewS3Store(ctx, artifact.S3Options{
			Bucket:   cfg.Storage.S3Bucket,
			Prefix:   cfg.Storage.S3Prefix,
			Region:   cfg.Storage.S3Region,
			URLTTL:   cfg.Storage.S3URLTTL,
			Endpoint: cfg.Storage.S3Endpoint,
		})
	}
	return artifact.NewLocalStore(cfg.Storage.OutputPath, cfg.Server.PublicURL)
}
