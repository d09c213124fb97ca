package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-live/core/live"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the backend health endpoint once",
	RunE: func(cmd *cobra.Command, args []string) error {
		if globalConfig.URL == "" {
			return globalConfig.validate()
		}
		timeout, err := cmd.Flags().GetDuration("timeout")
		if err != nil {
			return fmt.Errorf("failed to read 'timeout' flag: %w", err)
		}

		client, err := live.NewClient(globalConfig.URL, clientOptions(live.WithHealthProbe(false), live.WithHealthTimeout(timeout))...)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout+time.Second)
		defer cancel()

		started := time.Now()
		if err := client.CheckHealth(ctx); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), Styles.Error.Render("unhealthy"), Styles.Dim.Render(err.Error()))
			return fmt.Errorf("backend is not healthy")
		}
		fmt.Fprintln(cmd.OutOrStdout(), Styles.Success.Render("healthy"), Styles.Dim.Render(time.Since(started).Round(time.Millisecond).String()))
		return nil
	},
}

func init() {
	healthCmd.Flags().Duration("timeout", 3*time.Second, "probe timeout")
}

// clientOptions builds live client options from the resolved configuration.
func clientOptions(extra ...live.ClientOption) []live.ClientOption {
	opts := []live.ClientOption{
		live.WithUserID(globalConfig.UserID),
		live.WithSessionID(globalConfig.SessionID),
		live.WithProjectID(globalConfig.ProjectID),
		live.WithHealthProbe(globalConfig.healthProbeEnabled()),
	}
	if cliLogger != nil {
		opts = append(opts, live.WithLogger(cliLogger))
	}
	return append(opts, extra...)
}
