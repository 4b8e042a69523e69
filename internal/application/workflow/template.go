package workflow

import (
	"fmt"
	"maps"
	"strings"
	"text/template"

	"github.com/miv/backend/internal/domain/workflow"
)

var templateFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	"default": func(def, v any) any {
		if v == nil || v == "" {
			return def
		}
		return v
	},
}

// templateData is the run input plus run identifiers, which the input cannot override
func templateData(run *workflow.WorkflowRun) map[string]any {
	data := make(map[string]any, len(run.Input)+3)
	maps.Copy(data, run.Input)
	data["runId"] = run.ID.String()
	data["workflowId"] = run.WorkflowID.String()
	data["workflowName"] = run.WorkflowName
	return data
}

// renderConfig renders every string in the step config, descending into
// nested objects and lists. Non-string values are kept as they are.
func renderConfig(cfg map[string]any, data map[string]any) (workflow.Config, error) {
	out, err := renderValue("config", cfg, data)
	if err != nil {
		return nil, err
	}
	m, _ := out.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return workflow.Config(m), nil
}

func renderValue(path string, v any, data map[string]any) (any, error) {
	switch t := v.(type) {
	case string:
		return renderString(path, t, data)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			r, err := renderValue(path+"."+k, inner, data)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			r, err := renderValue(fmt.Sprintf("%s[%d]", path, i), inner, data)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

func renderString(path, s string, data map[string]any) (string, error) {
	if !workflow.IsTemplate(s) {
		return s, nil
	}
	tmpl, err := template.New(path).Funcs(templateFuncs).Option("missingkey=error").Parse(s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return b.String(), nil
}
