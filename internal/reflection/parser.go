package reflection

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxPromptLen = 500
	maxThemeLen  = 100
	maxRefLen    = 200
)

// Prompt is the structured reflection returned by the model.
type Prompt struct {
	Theme        string `json:"theme"`
	Prompt       string `json:"prompt"`
	ScriptureRef string `json:"scripture_ref"`
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ParsePrompt decodes a model response, tolerating markdown code fences
// around the JSON.
func ParsePrompt(raw string) (*Prompt, error) {
	cleaned := stripCodeFences(raw)

	var p Prompt
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	p.Theme = strings.ToLower(strings.TrimSpace(p.Theme))
	p.Prompt = strings.TrimSpace(p.Prompt)
	p.ScriptureRef = strings.TrimSpace(p.ScriptureRef)

	var errs []string
	if p.Prompt == "" {
		errs = append(errs, "prompt is empty")
	}
	if n := utf8.RuneCountInString(p.Prompt); n > maxPromptLen {
		errs = append(errs, fmt.Sprintf("prompt is %d characters, max %d", n, maxPromptLen))
	}
	if utf8.RuneCountInString(p.Theme) > maxThemeLen {
		errs = append(errs, "theme is too long")
	}
	if utf8.RuneCountInString(p.ScriptureRef) > maxRefLen {
		errs = append(errs, "scripture_ref is too long")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return &p, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
