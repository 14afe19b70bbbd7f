// Command aisummarizer summarizes documents from the command line and
// serves the summarizer to MCP clients.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/localrivet/aisummarizer/cmd/aisummarizer/commands"
	"github.com/localrivet/aisummarizer/internal/errortypes"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// API keys may live in a .env file next to the config
	_ = godotenv.Load()

	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		if errortypes.IsValidationError(err) {
			fmt.Fprintln(os.Stderr, errortypes.UserMessage(err))
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
