package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/forgeworks/forge/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "Autonomous task pipeline for coding agents",
	Long: `Forge picks up tasks from GitHub issues or local files and drives a
coding agent through triage, implementation, and review in isolated git
worktrees, with bounded parallelism and durable per-task state.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is forge.yaml in . or $HOME/.config/forge)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("forge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/forge")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("FORGE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., FORGE_MODELS_TRIAGE for models.triage
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
