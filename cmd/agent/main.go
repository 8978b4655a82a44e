// Command agent answers goals by letting a language model drive web search,
// fetch and extract tools.
//
// Usage:
//
//	agent serve                 start the HTTP API (POST /api/agent)
//	agent run [--steps N] goal  run one goal in the terminal
//
// Configuration is read from the environment, .env and .env.<APP_ENV>.
package main

import (
	"fmt"
	"os"

	"web-agent/cmd/agent/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
