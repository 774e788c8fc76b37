// ABOUTME: Entry point for the Unity Catalog admin CLI, TUI, web UI and MCP server
// ABOUTME: All command routing lives in the cli package
package main

import (
	"os"

	"github.com/harperreed/ucadmin/cli"
)

func main() {
	os.Exit(cli.Execute())
}
