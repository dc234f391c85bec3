package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactSchema() map[string]any {
	return map[string]any{"name": "string", "email": "string", "phone": "string"}
}

func normOpts(schema map[string]any) NormalizeOptions {
	opts := DefaultNormalizeOptions()
	opts.Schema = schema
	return opts
}

func TestNormalizeProcess_FullyFilled(t *testing.T) {
	p := NewNormalizeProcessor()
	resp := stopResponse(`{"name": "Kim", "email": "kim@example.com", "phone": "010-1234-5678"}`)

	result, err := p.Process(resp, normOpts(contactSchema()))
	require.NoError(t, err)

	assert.Equal(t, "Kim", result.Data["name"])
	assert.Empty(t, result.ValidationErrors)
	assert.Equal(t, 1.0, result.Completeness)
	assert.Equal(t, 1.0, result.Confidence)
	assert.True(t, result.QualityChecks["schema_valid"])
	assert.True(t, result.QualityChecks["high_completeness"])
	assert.Equal(t, 3, result.QualityMetrics.FilledFields)
}

func TestNormalizeProcess_MissingField(t *testing.T) {
	p := NewNormalizeProcessor()

	full, err := p.Process(
		stopResponse(`{"name": "X", "email": "y@z.com", "phone": "1"}`),
		normOpts(contactSchema()))
	require.NoError(t, err)

	partial, err := p.Process(
		stopResponse(`{"name": "X", "email": "y@z.com"}`),
		normOpts(contactSchema()))
	require.NoError(t, err)

	assert.InDelta(t, 2.0/3.0, partial.Completeness, 1e-9)
	require.Len(t, partial.ValidationErrors, 1)
	assert.Equal(t, "Missing required fields: phone", partial.ValidationErrors[0])
	assert.Less(t, partial.Confidence, full.Confidence)
}

func TestNormalizeProcess_MissingSchema(t *testing.T) {
	p := NewNormalizeProcessor()
	resp := stopResponse(`{"a": 1}`)

	_, err := p.Process(resp, NormalizeOptions{})
	assert.ErrorIs(t, err, ErrMissingSchema)

	_, err = p.Process(resp, normOpts(map[string]any{}))
	assert.ErrorIs(t, err, ErrMissingSchema)
}

func TestNormalizeProcess_EmptyResponse(t *testing.T) {
	p := NewNormalizeProcessor()

	_, err := p.Process(stopResponse("  \n "), normOpts(contactSchema()))
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNormalizeProcess_ParseFailureIsData(t *testing.T) {
	p := NewNormalizeProcessor()
	resp := stopResponse("the model refused to answer")

	result, err := p.Process(resp, normOpts(contactSchema()))
	require.NoError(t, err)

	assert.Empty(t, result.Data)
	assert.False(t, result.ParseInfo.Success)
	assert.Equal(t, 0.0, result.Completeness)
	assert.Equal(t, 0.0, result.Confidence)
	require.NotEmpty(t, result.ValidationErrors)
	assert.Equal(t, "Parsed data is empty", result.ValidationErrors[0])
}

func TestNormalizeProcess_FencedObject(t *testing.T) {
	p := NewNormalizeProcessor()
	resp := stopResponse("```json\n{\"name\": \"Lee\", \"email\": \"l@e.kr\", \"phone\": \"010\"}\n```")

	result, err := p.Process(resp, normOpts(contactSchema()))
	require.NoError(t, err)

	assert.Equal(t, MethodFencedBlock, result.ParseInfo.Method)
	assert.Equal(t, 1.0, result.Completeness)
}

func TestNormalizeConfidence_ValidationPenaltyFloor(t *testing.T) {
	resp := stopResponse("x")
	checks := map[string]bool{"a": true}

	// One error costs 10%; from six on, the floor of 0.5 holds.
	oneErr := normalizeConfidence(resp, checks, 1.0, []string{"e1"})
	assert.InDelta(t, 0.9, oneErr, 1e-9)

	manyErrs := normalizeConfidence(resp, checks, 1.0,
		[]string{"e1", "e2", "e3", "e4", "e5", "e6", "e7", "e8"})
	assert.InDelta(t, 0.5, manyErrs, 1e-9)
}

func TestNormalizeConfidence_CompletenessCollapses(t *testing.T) {
	resp := stopResponse("x")
	checks := map[string]bool{"a": true, "b": true}

	assert.Equal(t, 0.0, normalizeConfidence(resp, checks, 0.0, nil))
}

func TestNormalizeProcess_ExtraFieldsPolicy(t *testing.T) {
	p := NewNormalizeProcessor()
	resp := stopResponse(`{"name": "Kim", "email": "a@b.c", "phone": "1", "nickname": "K"}`)

	strict, err := p.Process(resp, normOpts(contactSchema()))
	require.NoError(t, err)
	require.Len(t, strict.ValidationErrors, 1)
	assert.Equal(t, "Extra fields not in schema: nickname", strict.ValidationErrors[0])

	opts := normOpts(contactSchema())
	opts.AllowExtraFields = true
	lenient, err := p.Process(resp, opts)
	require.NoError(t, err)
	assert.Empty(t, lenient.ValidationErrors)
}
