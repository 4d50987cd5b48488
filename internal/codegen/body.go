package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thellimist/cligen/internal/argspec"
	"github.com/thellimist/cligen/internal/callable"
	"github.com/thellimist/cligen/internal/nameutil"
)

// bodyGen writes the statements of one command body.
type bodyGen struct {
	scope  *scope
	locals map[string]bool
	stmts  []string
	flags  []FlagCode

	needJSON bool
}

// tokenParser is the strconv call that turns one token into a scalar value.
type tokenParser struct {
	call string // format string taking the token expression
	typ  string // Go type of the parsed value
	kind string // what a bad token was expected to be
}

// parserFor returns the parser of a scalar tag. Sized numeric types are
// parsed at their own width so that out-of-range tokens are rejected instead
// of wrapping on conversion.
func parserFor(tag callable.TypeTag, basic string) (tokenParser, bool) {
	switch tag {
	case callable.TagInteger:
		bits, unsigned, ok := callable.IntBits(basic)
		switch {
		case !ok || basic == "int":
			return tokenParser{"strconv.Atoi(%s)", "int", "integer"}, true
		case unsigned:
			return tokenParser{fmt.Sprintf("strconv.ParseUint(%%s, 10, %d)", bits), "uint64", basic}, true
		default:
			return tokenParser{fmt.Sprintf("strconv.ParseInt(%%s, 10, %d)", bits), "int64", basic}, true
		}
	case callable.TagFloat:
		if basic == "float32" {
			return tokenParser{"strconv.ParseFloat(%s, 32)", "float64", basic}, true
		}
		return tokenParser{"strconv.ParseFloat(%s, 64)", "float64", "number"}, true
	case callable.TagBoolean:
		return tokenParser{"strconv.ParseBool(%s)", "bool", "boolean"}, true
	}
	return tokenParser{}, false
}

// flagFuncs register scalar options. pflag range-checks the sized ones.
// List options are always string arrays whose tokens the body parses.
var flagFuncs = map[string]string{
	"string":   "StringVar",
	"bool":     "BoolVar",
	"int":      "IntVar",
	"int8":     "Int8Var",
	"int16":    "Int16Var",
	"int32":    "Int32Var",
	"int64":    "Int64Var",
	"uint":     "UintVar",
	"uint8":    "Uint8Var",
	"uint16":   "Uint16Var",
	"uint32":   "Uint32Var",
	"uint64":   "Uint64Var",
	"float32":  "Float32Var",
	"float64":  "Float64Var",
	"[]string": "StringArrayVar",
}

// optionType is the Go type of the variable an option is bound to.
func optionType(d argspec.Descriptor) string {
	switch {
	case d.Structured:
		return "string"
	case d.Multiple:
		return "[]string"
	case d.Basic == "uintptr":
		return "uint64"
	case d.Basic != "" && (d.Type == callable.TagInteger || d.Type == callable.TagFloat):
		return d.Basic
	}
	return d.NaturalGoType()
}

func (g *bodyGen) command(cmd Command, funcName, callee string) (CommandCode, error) {
	code := CommandCode{
		Name:  cmd.Name,
		ID:    cmd.ID,
		Func:  funcName,
		Short: cmd.Description,
	}

	var positionals []argspec.Descriptor
	multi := -1
	for _, d := range cmd.Args {
		if d.Kind == argspec.Positional {
			if d.Multiple {
				multi = len(positionals)
			}
			positionals = append(positionals, d)
		}
	}
	tokens := tokenExprs(len(positionals), multi)
	code.ArgsCheck = argsCheck(len(positionals), multi)

	use := []string{cmd.Name}
	for _, d := range positionals {
		use = append(use, d.Usage())
	}

	args := make([]string, 0, len(cmd.Args))
	next := 0
	for _, d := range cmd.Args {
		var expr string
		var err error
		if d.Kind == argspec.Positional {
			expr, err = g.positional(d, tokens[next])
			next++
		} else {
			expr, err = g.option(d)
		}
		if err != nil {
			return CommandCode{}, fmt.Errorf("parameter %q: %w", d.Param, err)
		}
		if d.Variadic {
			expr += "..."
		}
		args = append(args, expr)
	}
	if len(g.flags) > 0 {
		use = append(use, "[flags]")
	}
	code.Use = strings.Join(use, " ")

	g.call(cmd.Callable, callee+"("+strings.Join(args, ", ")+")")
	for _, d := range cmd.Args {
		if d.Kind == argspec.Option {
			code.Options = append(code.Options, OptionCode{Name: d.Name, List: d.Multiple})
		}
	}
	code.Flags = g.flags
	code.Body = g.stmts
	return code, nil
}

// tokenExprs returns the expression selecting each positional from args. A
// multi positional takes whatever the single ones around it leave.
func tokenExprs(n, multi int) []string {
	out := make([]string, n)
	after := n - multi - 1
	for i := range out {
		switch {
		case multi < 0 || i < multi:
			out[i] = fmt.Sprintf("args[%d]", i)
		case i == multi && i == 0 && after == 0:
			out[i] = "args"
		case i == multi && after == 0:
			out[i] = fmt.Sprintf("args[%d:]", i)
		case i == multi:
			out[i] = fmt.Sprintf("args[%d:len(args)-%d]", i, after)
		default:
			out[i] = fmt.Sprintf("args[len(args)-%d]", n-i)
		}
	}
	return out
}

func argsCheck(n, multi int) string {
	switch {
	case multi >= 0 && n == 1:
		return "cobra.ArbitraryArgs"
	case multi >= 0:
		return fmt.Sprintf("cobra.MinimumNArgs(%d)", n-1)
	case n == 0:
		return "cobra.NoArgs"
	default:
		return fmt.Sprintf("cobra.ExactArgs(%d)", n)
	}
}

func (g *bodyGen) local(prefix, name string) string {
	base := nameutil.Identifier(prefix, name)
	id := base
	for i := 2; g.locals[id]; i++ {
		id = fmt.Sprintf("%s%d", base, i)
	}
	g.locals[id] = true
	return id
}

func (g *bodyGen) positional(d argspec.Descriptor, tok string) (string, error) {
	switch {
	case d.Multiple:
		return g.list(d, tok, "<"+d.Name+">")
	case d.Structured:
		return g.decode(d, tok, "<"+d.Name+">", false)
	}
	if p, ok := parserFor(d.Type, d.Basic); ok {
		v := g.local("arg", d.Binding)
		g.stmts = append(g.stmts, fmt.Sprintf(
			"%s, err := %s\nif err != nil {\nreturn fmt.Errorf(\"<%s>: invalid %s %%q\", %s)\n}",
			v, fmt.Sprintf(p.call, tok), d.Name, p.kind, tok))
		return g.convert(d, v, p.typ)
	}
	return g.convert(d, tok, "string")
}

func (g *bodyGen) option(d argspec.Descriptor) (string, error) {
	v := g.local("flag", d.Binding)
	typ := optionType(d)
	fn, ok := flagFuncs[typ]
	if !ok {
		return "", fmt.Errorf("no flag type for %s", typ)
	}
	help := d.Help
	if d.Multiple {
		help = strings.TrimSpace(help + " (zero or more values, may repeat)")
	}
	g.flags = append(g.flags, FlagCode{
		Var:     v,
		Type:    typ,
		Func:    fn,
		Name:    d.Name,
		Default: d.DefaultLiteral(),
		Help:    help,
		List:    d.Multiple,
	})

	switch {
	case d.Structured:
		return g.decode(d, v, "--"+d.Name, true)
	case d.Multiple:
		return g.list(d, v, "--"+d.Name)
	default:
		return g.convert(d, v, typ)
	}
}

// decode unmarshals a JSON object token. Options skip decoding when the flag
// holds no text.
func (g *bodyGen) decode(d argspec.Descriptor, src, label string, optional bool) (string, error) {
	g.needJSON = true
	t, err := g.scope.requalify(d.NaturalGoType(), d.Imports)
	if err != nil {
		return "", err
	}
	v := g.local("arg", d.Binding)
	stmt := fmt.Sprintf("var %s %s\nif err := json.Unmarshal([]byte(%s), &%s); err != nil {\nreturn fmt.Errorf(\"%s: invalid JSON object: %%w\", err)\n}",
		v, t, src, v, label)
	if optional {
		stmt = fmt.Sprintf("var %s %s\nif %s != \"\" {\nif err := json.Unmarshal([]byte(%s), &%s); err != nil {\nreturn fmt.Errorf(\"%s: invalid JSON object: %%w\", err)\n}\n}",
			v, t, src, src, v, label)
	}
	g.stmts = append(g.stmts, stmt)
	return v, nil
}

// list builds the slice passed for a list parameter from its string tokens,
// parsing and converting element by element where needed.
func (g *bodyGen) list(d argspec.Descriptor, src, label string) (string, error) {
	elem := callable.NaturalGoType(d.Elem, callable.TagNone)
	if d.ElemGoType != "" {
		elem = d.ElemGoType
	}
	p, parse := parserFor(d.Elem, d.ElemBasic)
	have := "string"
	if parse {
		have = p.typ
	}
	if !parse && elem == "string" {
		return g.convert(d, src, "[]string")
	}

	elemType, err := g.scope.requalify(elem, d.Imports)
	if err != nil {
		return "", err
	}
	v := g.local("arg", d.Binding)
	var b strings.Builder
	fmt.Fprintf(&b, "%s := make([]%s, 0, len(%s))\nfor _, tok := range %s {\n", v, elemType, src, src)
	item := "tok"
	if parse {
		fmt.Fprintf(&b, "v, err := %s\nif err != nil {\nreturn fmt.Errorf(\"%s: invalid %s %%q\", tok)\n}\n",
			fmt.Sprintf(p.call, "tok"), label, p.kind)
		item = "v"
	}
	if elem != have {
		item = elemType + "(" + item + ")"
	}
	fmt.Fprintf(&b, "%s = append(%s, %s)\n}", v, v, item)
	g.stmts = append(g.stmts, b.String())
	return g.convert(d, v, "[]"+elem)
}

// convert wraps expr, a value of Go type have, in a conversion to the
// declared type when the two differ.
func (g *bodyGen) convert(d argspec.Descriptor, expr, have string) (string, error) {
	if d.GoType == "" || d.GoType == have || d.Structured {
		return expr, nil
	}
	t, err := g.scope.requalify(d.GoType, d.Imports)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(t, "*") || strings.HasPrefix(t, "func") || strings.HasPrefix(t, "<-") {
		t = "(" + t + ")"
	}
	return t + "(" + expr + ")", nil
}

// call invokes the callable, returning its error and printing its values.
func (g *bodyGen) call(c *callable.Callable, call string) {
	n := c.ValueResults()
	switch {
	case n == 0 && !c.ReturnsError():
		g.stmts = append(g.stmts, call)
	case n == 0:
		g.stmts = append(g.stmts, "if err := "+call+"; err != nil {\nreturn err\n}")
	default:
		names := make([]string, n)
		for i := range names {
			names[i] = "r" + strconv.Itoa(i)
		}
		lhs := strings.Join(names, ", ")
		if c.ReturnsError() {
			g.stmts = append(g.stmts, lhs+", err := "+call+"\nif err != nil {\nreturn err\n}")
		} else {
			g.stmts = append(g.stmts, lhs+" := "+call)
		}
		g.stmts = append(g.stmts, "fmt.Println("+lhs+")")
	}
	g.stmts = append(g.stmts, "return nil")
}
