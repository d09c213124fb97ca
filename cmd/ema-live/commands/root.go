package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	flagURL       string
	flagUserID    string
	flagSessionID string
	flagProjectID string

	configPath   string
	globalConfig *Config
	cliLogger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ema-live",
	Short: "Live voice conversations with an ema backend",
	Long: `ema-live streams microphone audio to an ema backend over a WebSocket
connection and plays the model's spoken replies.

Configuration is read from ~/.ema-live/config.yaml. Environment variables
EMA_LIVE_URL, EMA_LIVE_USER_ID, EMA_LIVE_SESSION_ID, EMA_LIVE_PROJECT_ID and
EMA_LIVE_AUDIO_BACKEND override the file, and flags override both.

Examples:
  # Check that the backend is up
  ema-live health --url wss://ema.example.com/ws

  # Talk to the agent
  ema-live connect --project-id acme`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.ema-live/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log protocol and device activity to stderr")
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "backend WebSocket url (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&flagUserID, "user-id", "", "caller id, generated when empty")
	rootCmd.PersistentFlags().StringVar(&flagSessionID, "session-id", "", "conversation session id")
	rootCmd.PersistentFlags().StringVar(&flagProjectID, "project-id", "", "project id")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(connectCmd)
}

func initConfig(cmd *cobra.Command, _ []string) error {
	configPath = cfgFile
	if configPath == "" {
		var err error
		if configPath, err = defaultConfigPath(); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.applyEnv(os.Getenv)

	flags := cmd.Flags()
	for name, target := range map[string]*string{
		"url":        &cfg.URL,
		"user-id":    &cfg.UserID,
		"session-id": &cfg.SessionID,
		"project-id": &cfg.ProjectID,
	} {
		if flags.Changed(name) {
			value, err := flags.GetString(name)
			if err != nil {
				return fmt.Errorf("failed to read '%s' flag: %w", name, err)
			}
			*target = value
		}
	}
	globalConfig = cfg
	cliLogger = newLogger(os.Stderr, verbose)
	return nil
}

// newLogger returns a logger for library components. Without verbose output
// the components keep their OpenTelemetry loggers.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
