package domain

import "fmt"

// OptionKind defines the runtime type a configuration option accepts.
type OptionKind uint8

const (
	// OptionBool is a yes/no toggle.
	OptionBool OptionKind = iota
	// OptionInt is an integer, optionally bounded.
	OptionInt
	// OptionList is an ordered list of strings.
	OptionList
)

// String returns a stable string representation of the option kind,
// matching the wire names the settings API exposes.
func (k OptionKind) String() string {
	switch k {
	case OptionBool:
		return "bool"
	case OptionInt:
		return "int"
	case OptionList:
		return "list"
	default:
		return fmt.Sprintf("OptionKind(%d)", k)
	}
}

// Option describes a single resolver tunable: its key, accepted kind,
// default value, optional integer bounds, and whether changing it requires
// a daemon restart rather than a reload.
type Option struct {
	Key             string
	Kind            OptionKind
	Default         any
	Min             *int // integer lower bound, nil when unbounded
	Max             *int // integer upper bound, nil when unbounded
	RestartRequired bool
}

// Validate checks the Option for internal consistency. Schemas are built
// once at startup, so a failure here is a programming error.
func (o Option) Validate() error {
	if o.Key == "" {
		return fmt.Errorf("option key must not be empty")
	}
	switch o.Kind {
	case OptionBool:
		if _, ok := o.Default.(bool); !ok {
			return fmt.Errorf("option %s: default %v is not a bool", o.Key, o.Default)
		}
	case OptionInt:
		d, ok := AsInt(o.Default)
		if !ok {
			return fmt.Errorf("option %s: default %v is not an int", o.Key, o.Default)
		}
		if o.Min != nil && d < *o.Min {
			return fmt.Errorf("option %s: default %d below minimum %d", o.Key, d, *o.Min)
		}
		if o.Max != nil && d > *o.Max {
			return fmt.Errorf("option %s: default %d above maximum %d", o.Key, d, *o.Max)
		}
	case OptionList:
		if _, ok := AsStringList(o.Default); !ok {
			return fmt.Errorf("option %s: default %v is not a string list", o.Key, o.Default)
		}
	default:
		return fmt.Errorf("option %s: unsupported kind %d", o.Key, o.Kind)
	}
	return nil
}
