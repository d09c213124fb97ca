package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigDir  = ".ema-live"
	defaultConfigFile = "config.yaml"

	envPrefix = "EMA_LIVE_"
)

// Config is the CLI configuration file.
type Config struct {
	URL       string `yaml:"url"`
	UserID    string `yaml:"user_id,omitempty"`
	SessionID string `yaml:"session_id,omitempty"`
	ProjectID string `yaml:"project_id,omitempty"`

	// AudioBackend is either "malgo" or "portaudio".
	AudioBackend   string        `yaml:"audio_backend,omitempty"`
	ChunkDuration  time.Duration `yaml:"chunk_duration,omitempty"`
	PlaybackBuffer time.Duration `yaml:"playback_buffer,omitempty"`

	HealthProbe *bool `yaml:"health_probe,omitempty"`
}

func defaultConfig() *Config {
	return &Config{
		AudioBackend:   "malgo",
		ChunkDuration:  125 * time.Millisecond,
		PlaybackBuffer: 30 * time.Second,
	}
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigDir, defaultConfigFile), nil
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	for name, target := range map[string]*string{
		"URL":           &c.URL,
		"USER_ID":       &c.UserID,
		"SESSION_ID":    &c.SessionID,
		"PROJECT_ID":    &c.ProjectID,
		"AUDIO_BACKEND": &c.AudioBackend,
	} {
		if value := strings.TrimSpace(getenv(envPrefix + name)); value != "" {
			*target = value
		}
	}
}

func (c *Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("no backend url configured, set url in the config file, %sURL or --url", envPrefix)
	}
	switch c.AudioBackend {
	case "malgo", "portaudio":
	default:
		return fmt.Errorf("unknown audio backend %q", c.AudioBackend)
	}
	return nil
}

func (c *Config) healthProbeEnabled() bool {
	return c.HealthProbe == nil || *c.HealthProbe
}

func saveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(globalConfig)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), Styles.Label.Render("# "+configPath))
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the resolved configuration to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return fmt.Errorf("failed to read 'force' flag: %w", err)
		}
		if _, err := os.Stat(configPath); err == nil && !force {
			return fmt.Errorf("config %s already exists, use --force to overwrite", configPath)
		}
		if err := saveConfig(configPath, globalConfig); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), Styles.Success.Render("wrote "+configPath))
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
