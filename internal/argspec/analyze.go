package argspec

import (
	"fmt"

	"github.com/thellimist/cligen/internal/callable"
)

// Analyze returns the parameter names of c in declaration order and the
// defaults of the parameters that have one. A leading bound receiver is
// skipped. Every returned name is either required or present in defaults.
func Analyze(c *callable.Callable) ([]string, map[string]any, error) {
	if c.SignatureErr != nil {
		return nil, nil, fmt.Errorf("argspec: %s: %w: %v", c.QualifiedName(), ErrNoSignature, c.SignatureErr)
	}

	names := make([]string, 0, len(c.Params))
	defaults := make(map[string]any)
	seen := make(map[string]bool, len(c.Params))

	for i, p := range c.Params {
		if p.Receiver {
			if i != 0 {
				return nil, nil, fmt.Errorf("argspec: %s: %w: receiver %q is not the first parameter",
					c.QualifiedName(), ErrNoSignature, p.Name)
			}
			continue
		}
		if p.Name == "" {
			return nil, nil, fmt.Errorf("argspec: %s: %w: parameter %d has no name", c.QualifiedName(), ErrNoSignature, i)
		}
		if seen[p.Name] {
			return nil, nil, fmt.Errorf("argspec: %s: %w: parameter %q is declared twice", c.QualifiedName(), ErrNoSignature, p.Name)
		}
		seen[p.Name] = true
		names = append(names, p.Name)
		if p.HasDefault {
			defaults[p.Name] = p.Default
		}
	}
	return names, defaults, nil
}
