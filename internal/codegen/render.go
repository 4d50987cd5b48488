package codegen

import (
	_ "embed"
	"io"
	"strconv"
	"strings"
	"text/template"
)

//go:embed splitargs/splitargs.go
var splitArgsFile string

// splitArgsSource is the declarations part of splitargs.go.
var splitArgsSource = splitArgsFile[strings.Index(splitArgsFile, "\n// splitArgs")+1:]

// File is the render-ready form of a generated main.go.
type File struct {
	Header      string
	Name        string
	Description string
	Version     string
	Dispatcher  bool // namespace mode: dispatch on the first argument

	Std      []ImportLine
	Third    []ImportLine
	Imports  []ImportLine // Std and Third together
	Commands []CommandCode
	Embedded []string // declarations compiled into the file
}

// CommandCode is one command body.
type CommandCode struct {
	Name      string
	ID        string
	Func      string
	Use       string
	Short     string
	ArgsCheck string
	Flags     []FlagCode
	Options   []OptionCode // options that take a value, for splitting arguments
	Body      []string     // statements of RunE
}

// HasLists reports whether the command has list options.
func (c CommandCode) HasLists() bool {
	for _, o := range c.Options {
		if o.List {
			return true
		}
	}
	return false
}

// OptionCode is an option that consumes the token after it.
type OptionCode struct {
	Name string
	List bool // a bare occurrence selects the empty list
}

// FlagCode registers one flag.
type FlagCode struct {
	Var     string
	Type    string
	Func    string
	Name    string
	Default string
	Help    string
	List    bool
}

// Renderer turns a File into Go source. The output is gofmt'ed afterwards.
type Renderer interface {
	Render(w io.Writer, f *File) error
}

// CobraRenderer renders tools that parse arguments with spf13/cobra.
type CobraRenderer struct{}

func (CobraRenderer) Render(w io.Writer, f *File) error {
	return mainTemplate.Execute(w, f)
}

// optionsLiteral renders the options argument of splitArgs.
func optionsLiteral(options []OptionCode) string {
	if len(options) == 0 {
		return "nil"
	}
	parts := make([]string, len(options))
	for i, o := range options {
		parts[i] = strconv.Quote(o.Name) + ": " + strconv.FormatBool(o.List)
	}
	return "map[string]bool{" + strings.Join(parts, ", ") + "}"
}

var mainTemplate = template.Must(template.New("main.go").Funcs(template.FuncMap{
	"quote":   strconv.Quote,
	"oneline": func(s string) string { return strings.Join(strings.Fields(s), " ") },
	"options": optionsLiteral,
	"helpers": func() string { return splitArgsSource },
}).Parse(mainTemplateSource))

const mainTemplateSource = `// Code generated by {{if .Header}}{{.Header}}{{else}}cligen{{end}}; DO NOT EDIT.

// Command {{.Name}}: {{oneline .Description}}
package main

import (
{{- range .Std}}
	{{if .Alias}}{{.Alias}} {{end}}{{quote .Path}}
{{- end}}
{{range .Third}}
	{{if .Alias}}{{.Alias}} {{end}}{{quote .Path}}
{{- end}}
)

const (
	toolName        = {{quote .Name}}
	toolDescription = {{quote .Description}}
	toolVersion     = {{quote .Version}}
)
{{if .Dispatcher}}
var commands = map[string]func([]string) error{
{{- range .Commands}}
	{{quote .ID}}: {{.Func}},
{{- end}}
}

var commandHelp = [][2]string{
{{- range .Commands}}
	{ {{- quote .Name}}, {{quote .Short -}} },
{{- end}}
}

func usage(out *os.File) {
	fmt.Fprintf(out, "Usage: %s <command> [arguments]\n\n%s\n\nCommands:\n", toolName, toolDescription)
	for _, c := range commandHelp {
		fmt.Fprintf(out, "  %-24s %s\n", c[0], c[1])
	}
	fmt.Fprintf(out, "\nRun '%s <command> --help' for the arguments of a command.\n", toolName)
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "-h", "--help":
		usage(os.Stdout)
		os.Exit(0)
{{- if .Version}}
	case "--version":
		fmt.Println(toolName, toolVersion)
		os.Exit(0)
{{- end}}
	}
	run, ok := commands[strings.ReplaceAll(os.Args[1], ".", "_")]
	if !ok {
		fmt.Fprintln(os.Stderr, "Unrecognized command!")
		os.Exit(1)
	}
	if err := run(os.Args[2:]); err != nil {
		os.Exit(2)
	}
}
{{else}}
func main() {
	if err := run(os.Args[1:]); err != nil {
		os.Exit(2)
	}
}
{{end}}
{{- range .Commands}}
func {{.Func}}(args []string) error {
{{- range .Flags}}
	var {{.Var}} {{.Type}}
{{- end}}
	opts, positional, {{if .HasLists}}bare{{else}}_{{end}} := splitArgs(args, {{options .Options}})
	cmd := &cobra.Command{
		Use:   {{quote .Use}},
		Short: {{quote .Short}},
		Args:  {{.ArgsCheck}},
{{- if and $.Version (not $.Dispatcher)}}
		Version: toolVersion,
{{- end}}
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
{{- range .Flags}}{{if .List}}
			if bare[{{quote .Name}}] && !cmd.Flags().Changed({{quote .Name}}) {
				{{.Var}} = nil
			}
{{- end}}{{end}}
{{- range .Body}}
			{{.}}
{{- end}}
		},
	}
{{- range .Flags}}
	cmd.Flags().{{.Func}}(&{{.Var}}, {{quote .Name}}, {{.Default}}, {{quote .Help}})
{{- end}}
	cmd.SetArgs(append(opts, append([]string{"--"}, positional...)...))
	return cmd.Execute()
}
{{end}}
{{helpers}}
{{- range .Embedded}}
{{.}}
{{end}}`
