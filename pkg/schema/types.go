package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/fitcoach/pkg/domain"
)

// Type defines the contract for answer validation.
// Parse turns raw input into a typed value or returns the human-readable reason for rejection.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "int[1,120]").
	Name() string
	// Kind returns the kind of value Parse produces.
	Kind() domain.ValueKind
	// Parse validates and converts raw input.
	Parse(raw string) (domain.Value, error)
}

// Options is implemented by types that present a fixed option set.
type Options interface {
	Options() []string
}

// --- Built-in Type Implementations ---

// TextType accepts free text up to MaxLen runes. Longer input is truncated, not rejected.
type TextType struct {
	MaxLen int
}

func (t *TextType) Name() string {
	if t.MaxLen <= 0 {
		return "text"
	}
	return fmt.Sprintf("text[%d]", t.MaxLen)
}

func (t *TextType) Kind() domain.ValueKind { return domain.KindText }

func (t *TextType) Parse(raw string) (domain.Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Value{}, errors.New("must not be empty")
	}
	if t.MaxLen > 0 && utf8.RuneCountInString(s) > t.MaxLen {
		s = string([]rune(s)[:t.MaxLen])
	}
	return domain.TextValue(s), nil
}

// IntType accepts whole numbers within [Min, Max].
type IntType struct {
	Min, Max int
}

func (t *IntType) Name() string { return fmt.Sprintf("int[%d,%d]", t.Min, t.Max) }

func (t *IntType) Kind() domain.ValueKind { return domain.KindInt }

func (t *IntType) Parse(raw string) (domain.Value, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < t.Min || n > t.Max {
		return domain.Value{}, fmt.Errorf("must be a whole number from %d to %d", t.Min, t.Max)
	}
	return domain.IntValue(n), nil
}

// FloatType accepts decimal numbers within the range. The lower bound is
// exclusive when ExclusiveMin is set. Both "72.5" and "72,5" are accepted.
type FloatType struct {
	Min, Max     float64
	ExclusiveMin bool
}

func (t *FloatType) Name() string {
	open := "["
	if t.ExclusiveMin {
		open = "("
	}
	return fmt.Sprintf("float%s%s,%s]", open, formatFloat(t.Min), formatFloat(t.Max))
}

func (t *FloatType) Kind() domain.ValueKind { return domain.KindFloat }

func (t *FloatType) Parse(raw string) (domain.Value, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	x, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) || !t.inRange(x) {
		return domain.Value{}, fmt.Errorf("must be a number %s", t.describeRange())
	}
	return domain.FloatValue(x), nil
}

func (t *FloatType) inRange(x float64) bool {
	if t.ExclusiveMin && x <= t.Min {
		return false
	}
	if !t.ExclusiveMin && x < t.Min {
		return false
	}
	return x <= t.Max
}

func (t *FloatType) describeRange() string {
	if t.ExclusiveMin {
		return fmt.Sprintf("greater than %s and at most %s", formatFloat(t.Min), formatFloat(t.Max))
	}
	return fmt.Sprintf("from %s to %s", formatFloat(t.Min), formatFloat(t.Max))
}

// EnumType accepts one of a fixed option set, case-insensitively.
// The canonical spelling of the option is stored.
type EnumType struct {
	Values []string
}

func (t *EnumType) Name() string { return "enum[" + strings.Join(t.Values, "|") + "]" }

func (t *EnumType) Kind() domain.ValueKind { return domain.KindText }

func (t *EnumType) Options() []string { return append([]string(nil), t.Values...) }

func (t *EnumType) Parse(raw string) (domain.Value, error) {
	s := strings.TrimSpace(raw)
	for _, opt := range t.Values {
		if strings.EqualFold(opt, s) {
			return domain.TextValue(opt), nil
		}
	}
	return domain.Value{}, fmt.Errorf("must be one of: %s", strings.Join(t.Values, ", "))
}

// --- Factory Functions ---

// Text creates a bounded free-text type.
func Text(maxLen int) Type { return &TextType{MaxLen: maxLen} }

// Int creates a bounded integer type.
func Int(min, max int) Type { return &IntType{Min: min, Max: max} }

// Float creates a float type within [min, max].
func Float(min, max float64) Type { return &FloatType{Min: min, Max: max} }

// FloatAbove creates a float type within (min, max].
func FloatAbove(min, max float64) Type { return &FloatType{Min: min, Max: max, ExclusiveMin: true} }

// Enum creates an enumerated choice type.
func Enum(values ...string) Type { return &EnumType{Values: values} }

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
