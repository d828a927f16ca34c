// Package schema validates raw answers against the field types used by the
// questionnaire graph.
//
// Every validator is a pure function of its input:
//
//	age := schema.Int(1, 120)
//	v, err := schema.Check(domain.FieldAge, age, "30")
//
// Rejections are returned as *domain.ValidationError naming the field and the
// allowed values. Bounded text never rejects on length; it truncates.
//
// Types can also be built from their declarative form (see Spec), which is how
// the graph table configures them.
package schema
