// Package splitargs holds the argument splitter of generated tools. The
// declarations below the import are copied into every generated main.go, so
// they may only use the standard library packages that file always imports.
package splitargs

import "strconv"

// splitArgs separates option tokens from positional ones, so that negative
// numbers and the tokens after "--" are never read as flags. options maps
// each option taking a value to whether it is a list. A list option takes
// every token up to the next option, each as its own occurrence; one given
// without any value is reported in bare.
func splitArgs(args []string, options map[string]bool) (opts, positional []string, bare map[string]bool) {
	bare = map[string]bool{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !isOption(a) {
			positional = append(positional, a)
			continue
		}
		name := a[2:]
		list, valued := options[name]
		switch {
		case a[1] != '-' || !valued:
			opts = append(opts, a)
		case list:
			n := 0
			for ; i+1 < len(args) && !isOption(args[i+1]); i++ {
				opts = append(opts, a, args[i+1])
				n++
			}
			if n == 0 {
				bare[name] = true
			}
		case i+1 < len(args):
			opts = append(opts, a, args[i+1])
			i++
		default:
			opts = append(opts, a)
		}
	}
	return opts, positional, bare
}

// isOption reports whether a token is spelled like a flag. Negative numbers
// are not.
func isOption(s string) bool {
	if len(s) < 2 || s[0] != '-' {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err != nil
}
