package schema

import (
	"github.com/aretw0/fitcoach/pkg/domain"
)

// Check sanitizes raw input and parses it with typ.
// Any rejection is reported as a *domain.ValidationError for field.
func Check(field domain.Field, typ Type, raw string) (domain.Value, error) {
	return CheckLimit(field, typ, raw, 0)
}

// CheckLimit is Check with an explicit input size limit (0 = default).
// Free text over the limit is truncated; any other type rejects it.
func CheckLimit(field domain.Field, typ Type, raw string, limit int) (domain.Value, error) {
	sanitize := SanitizeInputLimit
	if _, ok := typ.(*TextType); ok {
		sanitize = TruncateInput
	}
	clean, err := sanitize(raw, limit)
	if err != nil {
		return domain.Value{}, &domain.ValidationError{Field: field, Reason: err.Error()}
	}

	v, err := typ.Parse(clean)
	if err != nil {
		return domain.Value{}, &domain.ValidationError{Field: field, Reason: err.Error()}
	}
	return v, nil
}
