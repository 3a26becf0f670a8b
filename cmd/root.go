package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/phasegate/internal/config"
	"github.com/abhisek/phasegate/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "phasegate",
	Short: "Mastery lessons that unlock one phase at a time",
	Long: "Phasegate walks a learner through KNOW, LINK, DO, SYNC, REFLECT, PROVE and MASTER,\n" +
		"gating each phase on evidence of engagement and rewinding on failed checkpoints.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PHASEGATE_DB env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringP("learner", "l", defaultLearner(), "Learner id")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies the flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

// resolveDBPath returns the configured database path (--db flag, then
// PHASEGATE_DB, then the config file), falling back to the default XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if p := cfg.Store.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
