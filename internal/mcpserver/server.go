// Package mcpserver exposes the generator as MCP tools over stdio, so an
// agent can generate a CLI for a package or manifest and inspect the
// commands it would get.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/thellimist/cligen/internal/codegen"
	"github.com/thellimist/cligen/internal/target"
)

// Options configure the server.
type Options struct {
	Version    string   // reported to clients
	Dir        string   // default working directory for package loading
	BuildFlags []string // go command flags used while loading packages
	Log        logrus.FieldLogger
}

// Server holds the tools. It is safe for concurrent tool calls; every call
// loads its own target.
type Server struct {
	opts Options
	log  logrus.FieldLogger
}

// New returns a server with the given options.
func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Server{opts: opts, log: log}
}

// Tools returns every tool the server registers.
func (s *Server) Tools() []server.ServerTool {
	return []server.ServerTool{s.GenerateCLI(), s.ListCommands()}
}

// MCPServer builds the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer(
		"cligen",
		s.opts.Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
	)
	srv.AddTools(s.Tools()...)
	return srv
}

// ServeStdio serves MCP on stdin and stdout until the input is closed.
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		return fmt.Errorf("mcpserver: ServeStdio: %w", err)
	}
	return nil
}

func sourceOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("package", mcp.Description("Go package pattern to generate from, e.g. ./strutil. Exclusive with manifest")),
		mcp.WithString("manifest", mcp.Description("Path of a YAML or JSON manifest describing the callables. Exclusive with package")),
		mcp.WithString("dir", mcp.Description("Working directory for package loading")),
		mcp.WithString("function", mcp.Description("Dotted name of a single function, e.g. wrap.Fill. Empty generates one command per function")),
		mcp.WithBoolean("recurse", mcp.Description("Include nested packages or namespaces")),
		mcp.WithArray("ignore_functions", mcp.Description("Function names or dotted paths to leave out"), mcp.WithStringItems()),
		mcp.WithArray("ignore_modules", mcp.Description("Nested namespaces to leave out"), mcp.WithStringItems()),
	}
}

// GenerateCLI returns the generate_cli tool, which answers with the
// generated main.go.
func (s *Server) GenerateCLI() server.ServerTool {
	opts := append(sourceOptions(),
		mcp.WithDescription("Generate the Go source of a cobra command-line tool for a Go package, a manifest, or one function"),
		mcp.WithString("name", mcp.Description("Tool name, inferred from the package or function when empty")),
		mcp.WithString("description", mcp.Description("Tool description")),
		mcp.WithBoolean("strict", mcp.Description("Fail on the first function that cannot become a command instead of skipping it")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	return server.ServerTool{
		Tool:    mcp.NewTool("generate_cli", opts...),
		Handler: s.generateCLI,
	}
}

// ListCommands returns the list_commands tool, which answers with the
// commands and arguments a generated tool would have, as JSON.
func (s *Server) ListCommands() server.ServerTool {
	opts := append(sourceOptions(),
		mcp.WithDescription("List the commands and arguments a generated tool would expose, as JSON"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	return server.ServerTool{
		Tool:    mcp.NewTool("list_commands", opts...),
		Handler: s.listCommands,
	}
}

func (s *Server) assemble(ctx context.Context, request mcp.CallToolRequest) (*codegen.Unit, error) {
	dir := request.GetString("dir", s.opts.Dir)
	t, err := target.Resolve(ctx, target.Spec{
		Dir:        dir,
		Package:    request.GetString("package", ""),
		Manifest:   request.GetString("manifest", ""),
		Function:   request.GetString("function", ""),
		BuildFlags: s.opts.BuildFlags,
		Log:        s.log,
	})
	if err != nil {
		return nil, err
	}
	return codegen.Assemble(t, codegen.Options{
		Name:            request.GetString("name", ""),
		Description:     request.GetString("description", ""),
		Recurse:         request.GetBool("recurse", false),
		IgnoreFunctions: request.GetStringSlice("ignore_functions", nil),
		IgnoreModules:   request.GetStringSlice("ignore_modules", nil),
		Strict:          request.GetBool("strict", false),
		Log:             s.log,
	})
}

func (s *Server) generateCLI(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unit, err := s.assemble(ctx, request)
	if err != nil {
		s.log.WithError(err).Warn("generate_cli failed")
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := mcp.NewToolResultText(string(unit.Source))
	if len(unit.Skipped) > 0 {
		var b strings.Builder
		b.WriteString("skipped:\n")
		for _, sk := range unit.Skipped {
			fmt.Fprintf(&b, "  %s: %v\n", sk.Name, sk.Err)
		}
		result.Content = append(result.Content, mcp.NewTextContent(b.String()))
	}
	return result, nil
}

// Listing is the list_commands answer.
type Listing struct {
	Tool     string        `json:"tool"`
	Mode     string        `json:"mode"`
	Commands []CommandInfo `json:"commands"`
	Skipped  []SkippedInfo `json:"skipped,omitempty"`
}

// CommandInfo describes one generated command.
type CommandInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Embedded    bool      `json:"embedded,omitempty"`
	Stub        bool      `json:"stub,omitempty"`
	Args        []ArgInfo `json:"args"`
}

// ArgInfo describes one argument of a command.
type ArgInfo struct {
	Name     string `json:"name"`
	Usage    string `json:"usage"`
	Kind     string `json:"kind"`
	Type     string `json:"type,omitempty"`
	Required bool   `json:"required,omitempty"`
	Default  any    `json:"default,omitempty"`
	Help     string `json:"help,omitempty"`
}

// SkippedInfo names a callable that did not become a command.
type SkippedInfo struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

func (s *Server) listCommands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unit, err := s.assemble(ctx, request)
	if err != nil {
		s.log.WithError(err).Warn("list_commands failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := Listing{Tool: unit.Name, Mode: unit.Mode.String(), Commands: make([]CommandInfo, 0, len(unit.Commands))}
	for _, c := range unit.Commands {
		info := CommandInfo{
			Name:        c.Name,
			Description: c.Description,
			Embedded:    c.Embedded,
			Stub:        c.Stub,
			Args:        make([]ArgInfo, 0, len(c.Args)),
		}
		for _, d := range c.Args {
			arg := ArgInfo{
				Name:     d.Name,
				Usage:    d.Usage(),
				Kind:     d.Kind.String(),
				Type:     string(d.Type),
				Required: d.Required,
				Help:     d.Help,
			}
			if d.HasDefault {
				arg.Default = d.Default
			}
			info.Args = append(info.Args, arg)
		}
		out.Commands = append(out.Commands, info)
	}
	for _, sk := range unit.Skipped {
		out.Skipped = append(out.Skipped, SkippedInfo{Name: sk.Name, Error: sk.Err.Error()})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcpserver: marshal listing: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
