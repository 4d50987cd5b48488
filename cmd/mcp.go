package cmd

import (
	"github.com/spf13/cobra"

	"github.com/thellimist/cligen/internal/compile"
	"github.com/thellimist/cligen/internal/mcpserver"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve generate_cli and list_commands as MCP tools over stdio",
		Long: `Serve cligen as an MCP server on stdin and stdout.

The server exposes two tools: generate_cli returns the generated main.go for
a Go package, a manifest or one function; list_commands returns the commands
and arguments the tool would have, as JSON. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			buildFlags, err := compile.ParseBuildFlags(a.cfg.GetString("build-flags"))
			if err != nil {
				return err
			}
			a.log.Debug("serving MCP on stdio")
			return mcpserver.New(mcpserver.Options{
				Version:    appVersion,
				Dir:        a.cfg.GetString("dir"),
				BuildFlags: buildFlags,
				Log:        a.log,
			}).ServeStdio()
		},
	}
	f := cmd.Flags()
	f.String("dir", "", "default working directory for package loading")
	f.String("build-flags", "", "go command flags used while loading packages, e.g. \"-tags foo\"")
	a.bindOnRun(cmd, "dir", "build-flags")
	return cmd
}
