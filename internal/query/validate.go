package query

import "fmt"

// Validation error codes (E200-E299).
const (
	ErrUnknownField = "E200" // Equals field outside the filterable set
	ErrEmptyValue   = "E201" // Equals value must be non-empty
	ErrZeroTime     = "E202" // Since/Until need a real instant
	ErrNilFilter    = "E203" // And must not contain nil members
)

// ValidationError describes one malformed filter node.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a filter tree and returns all violations found. A nil
// filter is valid and means an unfiltered scan. A malformed filter is a
// caller bug (bad flag plumbing), not a runtime condition.
func Validate(f Filter) []ValidationError {
	if f == nil {
		return nil
	}
	var errs []ValidationError
	validateNode(f, &errs)
	return errs
}

func validateNode(f Filter, errs *[]ValidationError) {
	switch node := f.(type) {
	case Equals:
		validateEquals(node, errs)
	case *Equals:
		validateEquals(*node, errs)
	case Since:
		validateTime("since", node.T.IsZero(), errs)
	case *Since:
		validateTime("since", node.T.IsZero(), errs)
	case Until:
		validateTime("until", node.T.IsZero(), errs)
	case *Until:
		validateTime("until", node.T.IsZero(), errs)
	case And:
		validateAnd(node, errs)
	case *And:
		validateAnd(*node, errs)
	}
}

func validateEquals(eq Equals, errs *[]ValidationError) {
	if !FilterableField(eq.Field) {
		*errs = append(*errs, ValidationError{
			Field: eq.Field, Code: ErrUnknownField,
			Message: fmt.Sprintf("unknown filter field %q", eq.Field),
		})
	}
	if eq.Value == "" {
		*errs = append(*errs, ValidationError{
			Field: eq.Field, Code: ErrEmptyValue,
			Message: "filter value must be non-empty",
		})
	}
}

func validateTime(field string, zero bool, errs *[]ValidationError) {
	if zero {
		*errs = append(*errs, ValidationError{
			Field: field, Code: ErrZeroTime,
			Message: "time bound is the zero instant",
		})
	}
}

func validateAnd(and And, errs *[]ValidationError) {
	for i, member := range and.Filters {
		if member == nil {
			*errs = append(*errs, ValidationError{
				Field: fmt.Sprintf("and[%d]", i), Code: ErrNilFilter,
				Message: "conjunction member is nil",
			})
			continue
		}
		validateNode(member, errs)
	}
}
