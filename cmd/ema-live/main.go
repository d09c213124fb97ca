// Command ema-live holds a live voice conversation with an ema backend.
//
// Usage:
//
//	ema-live [flags] <command>
//
// Commands:
//
//	connect - stream microphone audio and play the model's replies
//	health  - probe the backend health endpoint once
//	config  - show or initialize the configuration file
//
// Configuration is read from ~/.ema-live/config.yaml and can be overridden
// with EMA_LIVE_* environment variables and flags.
package main

import (
	"fmt"
	"os"

	"github.com/koscakluka/ema-live/cmd/ema-live/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, commands.Styles.Error.Render("Error:"), err)
		os.Exit(1)
	}
}
