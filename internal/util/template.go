package util

import (
	"strings"
	"sync"
	"text/template"
)

var (
	templates sync.Map // source -> *template.Template

	templateFuncs = template.FuncMap{
		"default": func(fallback, v any) any {
			if v == nil || v == "" {
				return fallback
			}
			return v
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"title": func(s string) string {
			words := strings.Fields(strings.ReplaceAll(s, "_", " "))
			for i, w := range words {
				words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
			}
			return strings.Join(words, " ")
		},
	}
)

// RenderTemplate executes text as a text/template over data. Text without
// template markers is returned unchanged. Parsed templates are cached by
// source since agent prompts are rendered on every turn.
func RenderTemplate(text string, data map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := parseCached(text)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func parseCached(text string) (*template.Template, error) {
	if t, ok := templates.Load(text); ok {
		return t.(*template.Template), nil
	}

	t, err := template.New("prompt").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return nil, err
	}

	actual, _ := templates.LoadOrStore(text, t)

	return actual.(*template.Template), nil
}
