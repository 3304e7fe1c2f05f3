package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizcycle/internal/app"
	"github.com/abhisek/quizcycle/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "quizcycle",
	Short:        "Terminal quiz drills and mock exams",
	Long:         "quizcycle walks through a question bank one cycle at a time, remembers where you stopped, and runs timed mock exams.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		return app.Run(cmd.Context(), rt.appOptions(nil))
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default ./config.yaml or $XDG_CONFIG_HOME/quizcycle/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZCYCLE_DB env var)")
	rootCmd.PersistentFlags().String("learner", "", "Learner whose progress is read and written")
	rootCmd.PersistentFlags().String("bank", "", "Question bank JSON file")

	rootCmd.AddCommand(drillCmd)
	rootCmd.AddCommand(examCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(banksCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then database.path from config, then QUIZCYCLE_DB and the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
