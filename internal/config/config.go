// Package config defines the forge configuration, loaded via viper from
// forge.yaml and FORGE_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete forge configuration.
type Config struct {
	// Repos are the repositories forge processes tasks for.
	Repos []RepoConfig `mapstructure:"repos"`

	// WorktreeDir is where per-task worktrees are created, relative to
	// each repository root.
	WorktreeDir string `mapstructure:"worktree_dir"`
	// StateFile is the path of the persistent state store, relative to
	// each repository root.
	StateFile string `mapstructure:"state_file"`

	// ParallelWorkers bounds how many tasks run concurrently.
	ParallelWorkers int `mapstructure:"parallel_workers"`
	// PollIntervalSecs is the watch-mode sleep between batch runs.
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`

	// WorkerTimeoutSecs bounds a single implement-stage agent call.
	WorkerTimeoutSecs int `mapstructure:"worker_timeout_secs"`
	// TriageTimeoutSecs bounds triage, consult, and review agent calls.
	TriageTimeoutSecs int `mapstructure:"triage_timeout_secs"`

	// MaxReviewRetries is how many times a rejected implementation is
	// re-attempted with feedback. Total implement attempts = retries + 1.
	MaxReviewRetries int `mapstructure:"max_review_retries"`

	// AgentCommand is the agent binary invoked for every pipeline stage.
	AgentCommand string `mapstructure:"agent_command"`

	// WorkerTools is the tool allowlist for implementation runs.
	WorkerTools []string `mapstructure:"worker_tools"`
	// TriageTools is the tool allowlist for analysis runs (read-only).
	TriageTools []string `mapstructure:"triage_tools"`

	Models  ModelConfig   `mapstructure:"models"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// RepoConfig describes one repository forge works on.
type RepoConfig struct {
	// Owner and Name identify the GitHub repository; empty Owner means
	// local tasks only.
	Owner string `mapstructure:"owner"`
	Name  string `mapstructure:"name"`
	// Label filters which issues forge picks up.
	Label string `mapstructure:"label"`
	// Path is the local clone the pipeline operates on.
	Path string `mapstructure:"path"`
	// BaseBranch is what task branches fork from and rebase onto.
	BaseBranch string `mapstructure:"base_branch"`
	// TestCommand, when non-empty, gates success on a passing run.
	TestCommand string `mapstructure:"test_command"`
}

// FullName returns "owner/name", or just the path for local-only repos.
func (r *RepoConfig) FullName() string {
	if r.Owner == "" {
		return r.Path
	}
	return r.Owner + "/" + r.Name
}

// ModelConfig selects model tiers per pipeline role.
type ModelConfig struct {
	// Triage is the tier used for first-pass analysis.
	Triage string `mapstructure:"triage"`
	// Default is the tier for low/medium-complexity implementation and review.
	Default string `mapstructure:"default"`
	// Complex is the tier for escalation and high-complexity implementation.
	Complex string `mapstructure:"complex"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Dir is where forge.log is written; empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with all default values.
func Default() *Config {
	return &Config{
		WorktreeDir:       ".forge/worktrees",
		StateFile:         ".forge/state.yaml",
		ParallelWorkers:   4,
		PollIntervalSecs:  300,
		WorkerTimeoutSecs: 1200,
		TriageTimeoutSecs: 600,
		MaxReviewRetries:  2,
		AgentCommand:      "claude",
		WorkerTools:       []string{"Bash", "Read", "Write", "Edit", "Glob", "Grep"},
		TriageTools:       []string{"Read", "Glob", "Grep"},
		Models: ModelConfig{
			Triage:  "sonnet",
			Default: "sonnet",
			Complex: "opus",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// PollInterval returns the watch-mode poll interval as a Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSecs) * time.Second
}

// WorkerTimeout returns the implement-stage timeout as a Duration.
func (c *Config) WorkerTimeout() time.Duration {
	return time.Duration(c.WorkerTimeoutSecs) * time.Second
}

// TriageTimeout returns the analysis-stage timeout as a Duration.
func (c *Config) TriageTimeout() time.Duration {
	return time.Duration(c.TriageTimeoutSecs) * time.Second
}

// SetDefaults registers all default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("worktree_dir", defaults.WorktreeDir)
	viper.SetDefault("state_file", defaults.StateFile)
	viper.SetDefault("parallel_workers", defaults.ParallelWorkers)
	viper.SetDefault("poll_interval_secs", defaults.PollIntervalSecs)
	viper.SetDefault("worker_timeout_secs", defaults.WorkerTimeoutSecs)
	viper.SetDefault("triage_timeout_secs", defaults.TriageTimeoutSecs)
	viper.SetDefault("max_review_retries", defaults.MaxReviewRetries)
	viper.SetDefault("agent_command", defaults.AgentCommand)
	viper.SetDefault("worker_tools", defaults.WorkerTools)
	viper.SetDefault("triage_tools", defaults.TriageTools)
	viper.SetDefault("models.triage", defaults.Models.Triage)
	viper.SetDefault("models.default", defaults.Models.Default)
	viper.SetDefault("models.complex", defaults.Models.Complex)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load unmarshals the current viper state into a Config and validates it.
func Load() (*Config, ValidationErrors) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, ValidationErrors{{
			Field:   "config",
			Value:   viper.ConfigFileUsed(),
			Message: "failed to unmarshal: " + err.Error(),
		}}
	}

	// Repos default their base branch individually.
	for i := range cfg.Repos {
		if cfg.Repos[i].BaseBranch == "" {
			cfg.Repos[i].BaseBranch = "main"
		}
		if cfg.Repos[i].Path == "" {
			cfg.Repos[i].Path = "."
		}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

func isValidLogLevel(level string) bool {
	for _, l := range ValidLogLevels() {
		if strings.EqualFold(level, l) {
			return true
		}
	}
	return false
}
