package reflection

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrompt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", `{"theme":"Gratitude","prompt":"  What are you thankful for? ","scripture_ref":""}`},
		{"json fence", "```json\n{\"theme\":\"gratitude\",\"prompt\":\"What are you thankful for?\"}\n```"},
		{"bare fence", "```\n{\"theme\":\"gratitude\",\"prompt\":\"What are you thankful for?\"}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePrompt(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "gratitude", p.Theme)
			assert.Equal(t, "What are you thankful for?", p.Prompt)
			assert.Empty(t, p.ScriptureRef)
		})
	}
}

func TestParsePrompt_KeepsScriptureRef(t *testing.T) {
	p, err := ParsePrompt(`{"theme":"action","prompt":"What did you do without attachment?","scripture_ref":"Bhagavad Gita 2.47"}`)
	require.NoError(t, err)
	assert.Equal(t, "Bhagavad Gita 2.47", p.ScriptureRef)
}

func TestParsePrompt_Rejects(t *testing.T) {
	_, err := ParsePrompt(`not json`)
	assert.Error(t, err)

	_, err = ParsePrompt(`{"theme":"x","prompt":"   "}`)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "prompt is empty")

	_, err = ParsePrompt(`{"prompt":"` + strings.Repeat("a", maxPromptLen+1) + `"}`)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "max 500")
}

func TestParsePrompt_MaxLengthAccepted(t *testing.T) {
	p, err := ParsePrompt(`{"prompt":"` + strings.Repeat("ॐ", maxPromptLen) + `"}`)
	require.NoError(t, err)
	assert.Len(t, []rune(p.Prompt), maxPromptLen)
}

func TestMockClientOutputParses(t *testing.T) {
	for _, p := range mockPrompts {
		assert.LessOrEqual(t, len([]rune(p.Prompt)), maxPromptLen)
	}
	resp, err := NewMockClient().Generate(t.Context(), SystemPrompt(), "Date: 2025-03-10")
	require.NoError(t, err)
	_, err = ParsePrompt(resp.Content)
	assert.NoError(t, err)
}
