package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_NilFilterIsUnfiltered(t *testing.T) {
	assert.Empty(t, Validate(nil))
}

func TestValidate_EqualsAllFields(t *testing.T) {
	for _, field := range Fields() {
		errs := Validate(Equals{Field: field, Value: "x"})
		assert.Empty(t, errs, "field %q should be filterable", field)
	}
}

func TestValidate_UnknownFieldRejected(t *testing.T) {
	errs := Validate(Equals{Field: "shots", Value: "1024"})

	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownField, errs[0].Code)
	assert.Equal(t, "shots", errs[0].Field)
}

func TestValidate_EmptyValueRejected(t *testing.T) {
	errs := Validate(Equals{Field: "family", Value: ""})

	require.Len(t, errs, 1)
	assert.Equal(t, ErrEmptyValue, errs[0].Code)
}

func TestValidate_ZeroTimeRejected(t *testing.T) {
	errs := Validate(Since{})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrZeroTime, errs[0].Code)
	assert.Equal(t, "since", errs[0].Field)

	errs = Validate(Until{})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrZeroTime, errs[0].Code)
	assert.Equal(t, "until", errs[0].Field)
}

func TestValidate_AndCollectsAllViolations(t *testing.T) {
	f := And{Filters: []Filter{
		Equals{Field: "nope", Value: "x"},
		Equals{Field: "family", Value: ""},
		nil,
		Since{T: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}}

	errs := Validate(f)

	require.Len(t, errs, 3)
	assert.Equal(t, ErrUnknownField, errs[0].Code)
	assert.Equal(t, ErrEmptyValue, errs[1].Code)
	assert.Equal(t, ErrNilFilter, errs[2].Code)
	assert.Equal(t, "and[2]", errs[2].Field)
}

func TestValidate_EmptyAndIsValid(t *testing.T) {
	assert.Empty(t, Validate(And{}))
}

func TestValidate_PointerNodes(t *testing.T) {
	f := &And{Filters: []Filter{
		&Equals{Field: "verdict", Value: "violation-confirmed"},
		&Since{T: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		&Until{T: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
	}}

	assert.Empty(t, Validate(f))
}

func TestValidationError_Format(t *testing.T) {
	err := ValidationError{Field: "family", Message: "filter value must be non-empty", Code: ErrEmptyValue}

	assert.Equal(t, "[E201] family: filter value must be non-empty", err.Error())
}
