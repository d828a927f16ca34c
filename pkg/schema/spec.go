package schema

import (
	"fmt"
)

// Spec is the declarative form of a Type, as written in configuration.
//
//	type: int
//	min: 1
//	max: 120
type Spec struct {
	Type         string   `mapstructure:"type" yaml:"type" json:"type"`
	Min          *float64 `mapstructure:"min" yaml:"min,omitempty" json:"min,omitempty"`
	Max          *float64 `mapstructure:"max" yaml:"max,omitempty" json:"max,omitempty"`
	ExclusiveMin bool     `mapstructure:"exclusive_min" yaml:"exclusive_min,omitempty" json:"exclusive_min,omitempty"`
	MaxLen       int      `mapstructure:"max_len" yaml:"max_len,omitempty" json:"max_len,omitempty"`
	Options      []string `mapstructure:"options" yaml:"options,omitempty" json:"options,omitempty"`
}

// Build turns the declarative form into a Type.
func (s Spec) Build() (Type, error) {
	switch s.Type {
	case "text":
		if s.MaxLen < 0 {
			return nil, fmt.Errorf("text: max_len must not be negative")
		}
		return Text(s.MaxLen), nil

	case "int":
		if s.Min == nil || s.Max == nil {
			return nil, fmt.Errorf("int: min and max are required")
		}
		if *s.Min != float64(int(*s.Min)) || *s.Max != float64(int(*s.Max)) {
			return nil, fmt.Errorf("int: bounds must be whole numbers")
		}
		if *s.Min > *s.Max {
			return nil, fmt.Errorf("int: min %v greater than max %v", *s.Min, *s.Max)
		}
		return Int(int(*s.Min), int(*s.Max)), nil

	case "float":
		if s.Min == nil || s.Max == nil {
			return nil, fmt.Errorf("float: min and max are required")
		}
		if *s.Min > *s.Max {
			return nil, fmt.Errorf("float: min %v greater than max %v", *s.Min, *s.Max)
		}
		if s.ExclusiveMin {
			return FloatAbove(*s.Min, *s.Max), nil
		}
		return Float(*s.Min, *s.Max), nil

	case "enum":
		if len(s.Options) == 0 {
			return nil, fmt.Errorf("enum: options are required")
		}
		seen := make(map[string]bool, len(s.Options))
		for _, o := range s.Options {
			if o == "" || seen[o] {
				return nil, fmt.Errorf("enum: empty or duplicate option %q", o)
			}
			seen[o] = true
		}
		return Enum(s.Options...), nil

	default:
		return nil, fmt.Errorf("unknown type %q", s.Type)
	}
}
