package cmd

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

//go:embed mcp_prelude.md
var mcpPrelude string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as MCP server (publishes CLI instructions only)",
	Long: `Run an MCP server whose only content is instructions for driving the
scaladex CLI from a shell. Use the root command for the full tool server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := binaryName()
		instructions := fmt.Sprintf(mcpPrelude, name) + agentHelp(name)

		s := server.NewMCPServer("scaladex-cli", "0.1.0",
			server.WithInstructions(instructions),
		)
		return server.ServeStdio(s)
	},
}

// agentHelp lists every user-facing subcommand with its usage and examples.
func agentHelp(name string) string {
	var b strings.Builder
	for _, c := range rootCmd.Commands() {
		if c.Hidden || !c.IsAvailableCommand() || c.Name() == "daemon" || c.Name() == "mcp" {
			continue
		}
		fmt.Fprintf(&b, "\n## %s %s\n\n%s\n", name, c.Use, c.Short)
		if c.Example != "" {
			ex := strings.ReplaceAll(c.Example, "scaladex ", name+" ")
			fmt.Fprintf(&b, "\n```\n%s\n```\n", strings.TrimRight(ex, "\n"))
		}
	}
	return b.String()
}

// binaryName returns "scaladex" if it's in PATH and points to the current
// binary, otherwise returns the full path to the binary.
func binaryName() string {
	exe, err := os.Executable()
	if err != nil {
		return "scaladex"
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "scaladex"
	}

	onPath, err := exec.LookPath("scaladex")
	if err == nil {
		resolved, err := filepath.EvalSymlinks(onPath)
		if err == nil && resolved == exe {
			return "scaladex"
		}
	}

	return exe
}
