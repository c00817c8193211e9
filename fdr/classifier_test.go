package fdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func decisionBody(code any) map[string]any {
	return map[string]any{
		"credit_line_decision_response_element": map[string]any{
			"response_message": map[string]any{
				"result_message_code": code,
				"result_message":      []any{"free text that must never be extracted"},
			},
		},
	}
}

func decisionClassifier() CodeClassifier {
	return CodeClassifier{
		Path: []string{
			"credit_line_decision_response_element",
			"response_message",
			"result_message_code",
		},
		SuccessCode: "0",
	}
}

func TestStatusClassifier(t *testing.T) {
	tests := []struct {
		status  int
		success bool
	}{
		{200, true},
		{201, true},
		{299, true},
		{199, false},
		{300, false},
		{422, false},
		{503, false},
	}

	for _, tt := range tests {
		verdict := StatusClassifier{}.Classify(Response{Status: tt.status})
		assert.Equal(t, tt.success, verdict.BusinessSuccess, "status %d", tt.status)
		assert.Empty(t, verdict.ProviderErrorCode)
	}
}

func TestCodeClassifier_SuccessCode(t *testing.T) {
	verdict := decisionClassifier().Classify(Response{Status: 200, Body: decisionBody("0")})

	assert.True(t, verdict.BusinessSuccess)
	assert.Empty(t, verdict.ProviderErrorCode)
}

func TestCodeClassifier_NonZeroCodeAt200(t *testing.T) {
	// HTTP success with a business decline buried in the body.
	verdict := decisionClassifier().Classify(Response{Status: 200, Body: decisionBody("1234")})

	assert.False(t, verdict.BusinessSuccess)
	assert.Equal(t, "1234", verdict.ProviderErrorCode)
}

func TestCodeClassifier_NumericCode(t *testing.T) {
	// Some provider endpoints emit the code as a JSON number.
	verdict := decisionClassifier().Classify(Response{Status: 200, Body: decisionBody(float64(1234))})

	assert.False(t, verdict.BusinessSuccess)
	assert.Equal(t, "1234", verdict.ProviderErrorCode)

	ok := decisionClassifier().Classify(Response{Status: 200, Body: decisionBody(float64(0))})
	assert.True(t, ok.BusinessSuccess)
}

func TestCodeClassifier_Non2xxWithCode(t *testing.T) {
	verdict := decisionClassifier().Classify(Response{Status: 500, Body: decisionBody("9001")})

	assert.False(t, verdict.BusinessSuccess)
	assert.Equal(t, "9001", verdict.ProviderErrorCode)
}

func TestCodeClassifier_Non2xxSuccessCodeStillFails(t *testing.T) {
	// A "0" code cannot rescue a transport-level failure status.
	verdict := decisionClassifier().Classify(Response{Status: 500, Body: decisionBody("0")})

	assert.False(t, verdict.BusinessSuccess)
}

func TestCodeClassifier_MissingPathIsFailureNotCrash(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"nil body", nil},
		{"empty body", map[string]any{}},
		{"missing leaf", map[string]any{
			"credit_line_decision_response_element": map[string]any{
				"response_message": map[string]any{},
			},
		}},
		{"non-map intermediate", map[string]any{
			"credit_line_decision_response_element": "not a map",
		}},
		{"nil leaf", decisionBody(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := decisionClassifier().Classify(Response{Status: 200, Body: tt.body})
			assert.False(t, verdict.BusinessSuccess)
			assert.Empty(t, verdict.ProviderErrorCode)
		})
	}
}

func TestCodeClassifier_Deterministic(t *testing.T) {
	// Classification is a pure function: same response, same verdict.
	resp := Response{Status: 200, Body: decisionBody("1234")}
	classifier := decisionClassifier()

	first := classifier.Classify(resp)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, classifier.Classify(resp))
	}
}

func TestDig(t *testing.T) {
	body := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": "value"},
		},
	}

	value, ok := dig(body, "a", "b", "c")
	assert.True(t, ok)
	assert.Equal(t, "value", value)

	_, ok = dig(body, "a", "missing", "c")
	assert.False(t, ok)

	_, ok = dig(body, "a", "b", "c", "too-deep")
	assert.False(t, ok)

	_, ok = dig(nil, "a")
	assert.False(t, ok)

	_, ok = dig(body)
	assert.False(t, ok)
}
