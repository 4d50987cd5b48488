package callable

// Static is an in-memory Namespace. The manifest host builds these and tests
// use them in place of a real package.
type Static struct {
	Name    string // dotted path
	Import  string
	Entries []Member
}

var _ Namespace = (*Static)(nil)

func (s *Static) Path() string       { return s.Name }
func (s *Static) ImportPath() string { return s.Import }

// Members returns the entries in their declared order.
func (s *Static) Members() ([]Member, error) {
	out := make([]Member, len(s.Entries))
	copy(out, s.Entries)
	return out, nil
}

// AddCallable appends a callable member named after the callable.
func (s *Static) AddCallable(c *Callable) {
	s.Entries = append(s.Entries, Member{Name: c.Name, Callable: c})
}

// AddNamespace appends a nested namespace member.
func (s *Static) AddNamespace(name string, ns Namespace) {
	s.Entries = append(s.Entries, Member{Name: name, Namespace: ns})
}
