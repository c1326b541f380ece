package engine

import "fmt"

// RegisterGroups installs each BindingGroup against rt in order. Order
// matters twice over: a group's JS text may depend on a global defined by an
// earlier group, and the snapshot producer must evaluate groups in this same
// fixed order every time it bakes a blob, so that a blob produced today and
// a blob produced tomorrow from identical inputs are byte-identical.
func RegisterGroups(rt *Runtime, groups []BindingGroup) error {
	for _, g := range groups {
		if err := g.Register(rt); err != nil {
			return fmt.Errorf("registering builtin group %q: %w", g.Name(), err)
		}
	}
	return nil
}
