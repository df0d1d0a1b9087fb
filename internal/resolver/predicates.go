package resolver

import (
	"strings"

	"github.com/xkilldash9x/wxauto/internal/uia"
)

// Predicate tests a single control. Predicates must not act on the control.
type Predicate func(uia.Control) bool

// Any matches every control.
func Any() Predicate { return func(uia.Control) bool { return true } }

func And(ps ...Predicate) Predicate {
	return func(c uia.Control) bool {
		for _, p := range ps {
			if !p(c) {
				return false
			}
		}
		return true
	}
}

func Or(ps ...Predicate) Predicate {
	return func(c uia.Control) bool {
		for _, p := range ps {
			if p(c) {
				return true
			}
		}
		return false
	}
}

func Not(p Predicate) Predicate {
	return func(c uia.Control) bool { return !p(c) }
}

// ByType matches any of the given control types.
func ByType(types ...uia.ControlType) Predicate {
	return func(c uia.Control) bool {
		t := c.ControlType()
		for _, want := range types {
			if t == want {
				return true
			}
		}
		return false
	}
}

func ByName(name string) Predicate {
	return func(c uia.Control) bool { return c.Name() == name }
}

// ByNameIn matches a control whose name is one of names.
func ByNameIn(names ...string) Predicate {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(c uia.Control) bool {
		_, ok := set[c.Name()]
		return ok
	}
}

// HasName matches a control with non-blank text.
func HasName() Predicate {
	return func(c uia.Control) bool { return strings.TrimSpace(c.Name()) != "" }
}

func ByClass(class string) Predicate {
	return func(c uia.Control) bool { return c.ClassName() == class }
}

func ClassContains(sub string) Predicate {
	return func(c uia.Control) bool { return strings.Contains(c.ClassName(), sub) }
}

// AutomationIDContains matches case-insensitively.
func AutomationIDContains(sub string) Predicate {
	sub = strings.ToLower(sub)
	return func(c uia.Control) bool {
		return strings.Contains(strings.ToLower(c.AutomationID()), sub)
	}
}

// HasChild matches a control with a direct child matching p. A control whose
// children cannot be read does not match.
func HasChild(p Predicate) Predicate {
	return func(c uia.Control) bool {
		children, err := c.Children()
		if err != nil {
			return false
		}
		for _, ch := range children {
			if p(ch) {
				return true
			}
		}
		return false
	}
}

// HasChildNamed matches a control with a direct child named one of names.
func HasChildNamed(names ...string) Predicate {
	return HasChild(ByNameIn(names...))
}
