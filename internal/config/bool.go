package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Bool is a boolean that accepts true/false, yes/no and on/off in any
// case. Values outside that set are kept in Raw and read as false.
type Bool struct {
	Value bool
	Valid bool
	Raw   string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Bool) UnmarshalYAML(node *yaml.Node) error {
	b.Raw = node.Value
	b.Value, b.Valid = ParseBool(node.Value)
	return nil
}

// ParseBool parses s case-insensitively. ok is false when s is not a
// recognised boolean.
func ParseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on":
		return true, true
	case "false", "no", "off":
		return false, true
	}
	return false, false
}
