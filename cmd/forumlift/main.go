package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forumlift/forumlift/internal/config"
)

// Build-time variables set via ldflags.
var (
	version   = "1.0.0"
	commit    = ""
	buildDate = ""
)

var (
	cfg *config.Config
	log *logrus.Logger

	flagConfig  string
	flagWorkDir string
	flagDryRun  bool
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("forumlift version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("forumlift version %s-dev", version)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "forumlift",
		Short: "Forumlift — legacy forum to modern stack migration pipeline",
		Long: `Forumlift migrates a legacy MySQL forum into a Postgres + identity-provider
platform in independently re-runnable stages.

Configuration comes from environment variables (LEGACY_DB_*, DATABASE_URL,
IDENTITY_URL, SERVICE_ROLE_KEY, PASSWORD_SEED, WORK_DIR, BATCH_SIZE,
ARCHIVE_CATEGORY_NAME, LOG_LEVEL), optionally backed by a YAML config file.`,
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagConfig != "" {
				os.Setenv("FORUMLIFT_CONFIG", flagConfig)
			}

			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if flagWorkDir != "" {
				cfg.WorkDir = flagWorkDir
			}
			if flagDryRun {
				cfg.DryRun = true
			}

			log = logrus.New()
			level, err := logrus.ParseLevel(cfg.LogLevel)
			if err != nil {
				level = logrus.InfoLevel
			}
			log.SetLevel(level)

			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file (env: FORUMLIFT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&flagWorkDir, "work-dir", "", "Working directory for snapshots (env: WORK_DIR)")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Read and transform but never write to the target")

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newTransformCmd())
	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newRecalcCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newRunCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
