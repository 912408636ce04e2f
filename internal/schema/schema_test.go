package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deciflow/deciflow/internal/domain"
)

func sampleFields() []domain.InputField {
	return []domain.InputField{
		{DisplayName: "age", Type: domain.InputNumber, Required: true},
		{DisplayName: "name", Type: domain.InputText, Required: true},
		{DisplayName: "newsletter", Type: domain.InputBool, Required: false},
	}
}

func TestSchema_Validate_OK(t *testing.T) {
	s := New(sampleFields())
	out, err := s.Validate(map[string]any{"age": 30.0, "name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"age": 30.0, "name": "Ada"}, out)
}

func TestSchema_Validate_MissingRequiredField(t *testing.T) {
	s := New(sampleFields())
	_, err := s.Validate(map[string]any{"name": "Ada"})
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Details, 1)
	assert.Equal(t, "age", ve.Details[0].Field)
}

func TestSchema_Validate_TypeMismatch(t *testing.T) {
	s := New(sampleFields())
	_, err := s.Validate(map[string]any{"age": "thirty", "name": "Ada"})
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Details, 1)
	assert.Equal(t, "age", ve.Details[0].Field)
}

func TestSchema_Validate_OptionalFieldOmitted(t *testing.T) {
	s := New(sampleFields())
	out, err := s.Validate(map[string]any{"age": 30.0, "name": "Ada"})
	require.NoError(t, err)
	_, hasNewsletter := out["newsletter"]
	assert.False(t, hasNewsletter)
}

func TestSchema_Validate_UndeclaredKeysAreDropped(t *testing.T) {
	s := New(sampleFields())
	out, err := s.Validate(map[string]any{"age": 30.0, "name": "Ada", "extra": "ignored"})
	require.NoError(t, err)
	_, hasExtra := out["extra"]
	assert.False(t, hasExtra)
}

func TestSchema_Validate_MultipleViolationsAccumulate(t *testing.T) {
	s := New(sampleFields())
	_, err := s.Validate(map[string]any{})
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Details, 2)
}
