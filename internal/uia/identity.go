package uia

import (
	"fmt"
	"strings"
)

// Identity returns a comparable key for c. The runtime id is preferred; handles
// without one fall back to the handle value itself.
func Identity(c Control) any {
	if c == nil {
		return nil
	}
	if id := c.RuntimeID(); id != "" {
		return id
	}
	return c
}

// Describe renders a short human readable summary of a control for log lines.
func Describe(c Control) string {
	if c == nil {
		return "<nil control>"
	}
	name := strings.ReplaceAll(c.Name(), "\n", " ")
	if r := []rune(name); len(r) > 16 {
		name = string(r[:16]) + "..."
	}
	return fmt.Sprintf("%s(%q class=%q)", c.ControlType(), name, c.ClassName())
}
