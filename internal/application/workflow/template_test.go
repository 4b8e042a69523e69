package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConfig(t *testing.T) {
	run := testRun(map[string]any{"ventureName": "Kilimo", "stage": "screening", "runId": "spoofed"})
	cfg := map[string]any{
		"subject": "Welcome {{.ventureName}}",
		"stage":   "{{upper .stage}}",
		"seconds": float64(5),
		"headers": map[string]any{"X-Run": "{{.runId}}"},
		"to":      []any{"a@example.com", "{{lower .ventureName}}@example.com"},
		"plain":   "no actions here",
	}

	out, err := renderConfig(cfg, templateData(run))
	require.NoError(t, err)
	assert.Equal(t, "Welcome Kilimo", out.String("subject"))
	assert.Equal(t, "SCREENING", out.String("stage"))
	assert.Equal(t, float64(5), out["seconds"])
	assert.Equal(t, run.ID.String(), out.Map("headers")["X-Run"])
	assert.Equal(t, []any{"a@example.com", "kilimo@example.com"}, out["to"])
	assert.Equal(t, "no actions here", out.String("plain"))

	// The source config is left untouched.
	assert.Equal(t, "Welcome {{.ventureName}}", cfg["subject"])
}

func TestRenderConfig_Errors(t *testing.T) {
	run := testRun(nil)

	_, err := renderConfig(map[string]any{"title": "{{.ventureName}}"}, templateData(run))
	assert.ErrorContains(t, err, "config.title")

	_, err = renderConfig(map[string]any{"nested": map[string]any{"x": "{{ .bad"}}, templateData(run))
	assert.ErrorContains(t, err, "config.nested.x")

	out, err := renderConfig(nil, templateData(run))
	require.NoError(t, err)
	assert.Empty(t, out)
}
