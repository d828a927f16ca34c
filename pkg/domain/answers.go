package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Field names an answer slot of the questionnaire.
type Field string

const (
	FieldGoal            Field = "goal"
	FieldExperience      Field = "experience"
	FieldGender          Field = "gender"
	FieldAge             Field = "age"
	FieldWeight          Field = "weight"
	FieldFrequency       Field = "frequency"
	FieldInjuries        Field = "injuries"
	FieldInjuryDetails   Field = "injury_details"
	FieldLocation        Field = "location"
	FieldLocationDetails Field = "location_details"
)

// Fields lists every known answer slot in questionnaire order.
func Fields() []Field {
	return []Field{
		FieldGoal,
		FieldExperience,
		FieldGender,
		FieldAge,
		FieldWeight,
		FieldFrequency,
		FieldInjuries,
		FieldInjuryDetails,
		FieldLocation,
		FieldLocationDetails,
	}
}

// Known reports whether f is one of the fixed answer slots.
func (f Field) Known() bool {
	for _, k := range Fields() {
		if k == f {
			return true
		}
	}
	return false
}

// Kind returns the value type stored in the slot.
func (f Field) Kind() ValueKind {
	switch f {
	case FieldAge, FieldFrequency:
		return KindInt
	case FieldWeight:
		return KindFloat
	default:
		return KindText
	}
}

// ValueKind is the type of a validated answer.
type ValueKind int

const (
	KindText ValueKind = iota
	KindInt
	KindFloat
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a validated answer. Only the slot selected by Kind is meaningful.
type Value struct {
	Kind  ValueKind
	Text  string
	Int   int
	Float float64
}

func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }
func IntValue(n int) Value { return Value{Kind: KindInt, Int: n} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Any unwraps the value into string, int or float64.
func (v Value) Any() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	default:
		return v.Text
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	default:
		return v.Text
	}
}

// Answers holds one optional slot per known field.
// A nil slot is either "not asked yet" or, when listed in skipped, "skipped by a branch".
type Answers struct {
	Goal            *string
	Experience      *string
	Gender          *string
	Age             *int
	Weight          *float64
	Frequency       *int
	Injuries        *string
	InjuryDetails   *string
	Location        *string
	LocationDetails *string

	skipped []Field
}

func (a *Answers) textSlot(f Field) **string {
	switch f {
	case FieldGoal:
		return &a.Goal
	case FieldExperience:
		return &a.Experience
	case FieldGender:
		return &a.Gender
	case FieldInjuries:
		return &a.Injuries
	case FieldInjuryDetails:
		return &a.InjuryDetails
	case FieldLocation:
		return &a.Location
	case FieldLocationDetails:
		return &a.LocationDetails
	}
	return nil
}

func (a *Answers) intSlot(f Field) **int {
	switch f {
	case FieldAge:
		return &a.Age
	case FieldFrequency:
		return &a.Frequency
	}
	return nil
}

// Set stores a validated value, clearing any earlier skip mark for the field.
func (a *Answers) Set(f Field, v Value) error {
	if !f.Known() {
		return fmt.Errorf("unknown answer field %q", f)
	}
	if v.Kind != f.Kind() {
		return fmt.Errorf("field %q expects %s value, got %s", f, f.Kind(), v.Kind)
	}
	switch v.Kind {
	case KindInt:
		n := v.Int
		*a.intSlot(f) = &n
	case KindFloat:
		x := v.Float
		a.Weight = &x
	default:
		s := v.Text
		*a.textSlot(f) = &s
	}
	a.mark(f, false)
	return nil
}

// Get returns the value of a slot, if present.
func (a Answers) Get(f Field) (Value, bool) {
	if !f.Known() {
		return Value{}, false
	}
	switch f.Kind() {
	case KindInt:
		if p := *a.intSlot(f); p != nil {
			return IntValue(*p), true
		}
	case KindFloat:
		if a.Weight != nil {
			return FloatValue(*a.Weight), true
		}
	default:
		if p := *a.textSlot(f); p != nil {
			return TextValue(*p), true
		}
	}
	return Value{}, false
}

// Has reports whether the slot holds a value.
func (a Answers) Has(f Field) bool {
	_, ok := a.Get(f)
	return ok
}

// Text returns the text value of a slot or "" when absent.
func (a Answers) Text(f Field) string {
	if v, ok := a.Get(f); ok {
		return v.String()
	}
	return ""
}

// Clear empties a slot without marking it as skipped.
func (a *Answers) Clear(f Field) {
	a.clear(f)
	a.mark(f, false)
}

// Skip force-nulls a slot and records that a branch skipped it.
func (a *Answers) Skip(f Field) {
	a.clear(f)
	a.mark(f, true)
}

// Skipped reports whether a branch force-nulled the slot.
func (a Answers) Skipped(f Field) bool {
	for _, s := range a.skipped {
		if s == f {
			return true
		}
	}
	return false
}

// Present lists the slots holding a value, in questionnaire order.
func (a Answers) Present() []Field {
	var out []Field
	for _, f := range Fields() {
		if a.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Map renders the answers as field -> value, with skipped slots as nil.
func (a Answers) Map() map[string]any {
	out := make(map[string]any)
	for _, f := range Fields() {
		if v, ok := a.Get(f); ok {
			out[string(f)] = v.Any()
		} else if a.Skipped(f) {
			out[string(f)] = nil
		}
	}
	return out
}

// Clone returns a deep copy.
func (a Answers) Clone() Answers {
	var out Answers
	for _, f := range a.Present() {
		v, _ := a.Get(f)
		_ = out.Set(f, v)
	}
	if a.skipped != nil {
		out.skipped = append([]Field(nil), a.skipped...)
	}
	return out
}

func (a *Answers) clear(f Field) {
	switch f.Kind() {
	case KindInt:
		if p := a.intSlot(f); p != nil {
			*p = nil
		}
	case KindFloat:
		a.Weight = nil
	default:
		if p := a.textSlot(f); p != nil {
			*p = nil
		}
	}
}

// mark keeps skipped ordered like Fields() and nil when empty.
func (a *Answers) mark(f Field, skipped bool) {
	var out []Field
	for _, k := range Fields() {
		if k == f {
			if skipped {
				out = append(out, k)
			}
			continue
		}
		if a.Skipped(k) {
			out = append(out, k)
		}
	}
	a.skipped = out
}

// MarshalJSON encodes answers as a flat object; skipped slots are written as null.
func (a Answers) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Map())
}

// UnmarshalJSON decodes a flat object, rejecting unknown fields.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Answers
	for _, f := range Fields() {
		msg, ok := raw[string(f)]
		if !ok {
			continue
		}
		delete(raw, string(f))

		if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			out.Skip(f)
			continue
		}

		var v Value
		switch f.Kind() {
		case KindInt:
			var n int
			if err := json.Unmarshal(msg, &n); err != nil {
				return fmt.Errorf("answer %q: %w", f, err)
			}
			v = IntValue(n)
		case KindFloat:
			var x float64
			if err := json.Unmarshal(msg, &x); err != nil {
				return fmt.Errorf("answer %q: %w", f, err)
			}
			v = FloatValue(x)
		default:
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return fmt.Errorf("answer %q: %w", f, err)
			}
			v = TextValue(s)
		}
		if err := out.Set(f, v); err != nil {
			return err
		}
	}

	for k := range raw {
		return fmt.Errorf("unknown answer field %q", k)
	}

	*a = out
	return nil
}
