package greeting

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorParams_JSON(t *testing.T) {
	raw := `{"first_name":"John","last_name":"Doe","language":"invalid","error":{"message":"Invalid language specified","code":"LANGUAGE_ERROR"}}`

	var p ErrorParams
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "John", p.FirstName)
	assert.Equal(t, "Doe", p.LastName)
	assert.Equal(t, Language("invalid"), p.Language)
	assert.Equal(t, "Invalid language specified", p.Error.Message)
	assert.Equal(t, "LANGUAGE_ERROR", p.Error.Code)
}

func TestExecutionContext_JSON(t *testing.T) {
	raw := `{"env":{"ENVIRONMENT":"test"},"secrets":{"API_KEY":"k"},"outputs":{},"partial_results":{},"current_step":"start"}`

	var ec ExecutionContext
	require.NoError(t, json.Unmarshal([]byte(raw), &ec))
	assert.Equal(t, "test", ec.Env["ENVIRONMENT"])
	assert.Equal(t, "start", ec.CurrentStep)
}

func TestJobResult_Wire(t *testing.T) {
	res := JobResult{Message: "Hola Mundo, Maria Garcia!", Language: LanguageSpanish, ProcessedAt: "2024-03-01T12:30:45.123Z"}

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Hola Mundo, Maria Garcia!","language":"es","processed_at":"2024-03-01T12:30:45.123Z"}`, string(data))

	assert.Equal(t, map[string]any{
		"message":      "Hola Mundo, Maria Garcia!",
		"language":     "es",
		"processed_at": "2024-03-01T12:30:45.123Z",
	}, res.Map())
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2024, time.March, 1, 13, 30, 45, 123_456_789, loc)

	got := formatTimestamp(ts)
	assert.Equal(t, "2024-03-01T12:30:45.123Z", got)

	parsed, err := JobResult{ProcessedAt: got}.ProcessedTime()
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts.Truncate(time.Millisecond)))
}
