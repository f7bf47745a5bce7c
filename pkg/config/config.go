package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Workspace    string             `json:"workspace" env:"TOOLWRIGHT_WORKSPACE"`
	Logging      LoggingConfig      `json:"logging"`
	Channels     ChannelsConfig     `json:"channels"`
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Scheduler    SchedulerConfig    `json:"scheduler"`
}

type LoggingConfig struct {
	Level  string `json:"level" env:"TOOLWRIGHT_LOGGING_LEVEL"`
	Format string `json:"format" env:"TOOLWRIGHT_LOGGING_FORMAT"`
}

type ChannelsConfig struct {
	Discord DiscordConfig `json:"discord"`
}

type DiscordConfig struct {
	Token     string   `json:"token" env:"TOOLWRIGHT_CHANNELS_DISCORD_TOKEN"`
	AllowFrom []string `json:"allow_from" env:"TOOLWRIGHT_CHANNELS_DISCORD_ALLOW_FROM"`
}

type OrchestratorConfig struct {
	// Author recorded in generated artifact metadata.
	ArtifactAuthor string `json:"artifact_author" env:"TOOLWRIGHT_ORCHESTRATOR_ARTIFACT_AUTHOR"`
	// MaxSimilarTools caps how many past tools a planning prompt summarizes.
	MaxSimilarTools int `json:"max_similar_tools" env:"TOOLWRIGHT_ORCHESTRATOR_MAX_SIMILAR_TOOLS"`
}

type SchedulerConfig struct {
	Enabled bool `json:"enabled" env:"TOOLWRIGHT_SCHEDULER_ENABLED"`
	// Cron expressions (gronx syntax). Empty disables the job.
	ContextSweep  string `json:"context_sweep" env:"TOOLWRIGHT_SCHEDULER_CONTEXT_SWEEP"`
	RegistrySweep string `json:"registry_sweep" env:"TOOLWRIGHT_SCHEDULER_REGISTRY_SWEEP"`
	// ContextTTLMinutes is how long an idle conversation context survives
	// before the sweep evicts it.
	ContextTTLMinutes int `json:"context_ttl_minutes" env:"TOOLWRIGHT_SCHEDULER_CONTEXT_TTL_MINUTES"`
}

func DefaultConfig() *Config {
	return &Config{
		Workspace: "~/.toolwright",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Token:     "",
				AllowFrom: []string{},
			},
		},
		Orchestrator: OrchestratorConfig{
			ArtifactAuthor:  "toolwright",
			MaxSimilarTools: 3,
		},
		Scheduler: SchedulerConfig{
			Enabled:           true,
			ContextSweep:      "*/10 * * * *",
			RegistrySweep:     "0 * * * *",
			ContextTTLMinutes: 120,
		},
	}
}

// LoadConfig reads the JSON config at path and applies env overrides. A
// missing file is not an error; defaults are used.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, fmt.Errorf("parse env overrides: %w", err)
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// WorkspacePath returns the workspace directory with ~ expanded.
func (c *Config) WorkspacePath() string {
	return expandHome(c.Workspace)
}

// StorePath is the on-disk location of the document store database.
func (c *Config) StorePath() string {
	return filepath.Join(c.WorkspacePath(), "state", "documents.db")
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
