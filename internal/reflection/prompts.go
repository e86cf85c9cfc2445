package reflection

import (
	"fmt"
	"strings"
	"time"
)

var themes = []string{
	"surrender", "steadiness", "gratitude", "action",
	"compassion", "stillness", "self-inquiry", "devotion",
}

// ThemeFor picks the day's theme by rotating through the theme list.
func ThemeFor(day time.Time) string {
	return themes[day.YearDay()%len(themes)]
}

// SystemPrompt describes the reflection writer's role and output format.
func SystemPrompt() string {
	return `You write one short journaling prompt a day for people keeping a spiritual practice (japa, meditation, study of scripture).

Rules:
- One or two sentences, at most 300 characters, ending in a question.
- Personal and concrete: ask about the reader's own day or practice.
- Draw on Hindu contemplative tradition. When a verse inspired the prompt, cite it (for example "Bhagavad Gita 2.47"); otherwise leave the reference empty.
- No preaching, no instructions, no lists.

Respond with JSON only:
{"theme": "<one word>", "prompt": "<the question>", "scripture_ref": "<reference or empty>"}`
}

// BuildUserPrompt asks for the prompt of a given day and theme.
func BuildUserPrompt(day time.Time, theme string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", day.Format("2006-01-02"))
	fmt.Fprintf(&b, "Theme: %s\n", theme)
	b.WriteString("Write today's reflection prompt.")
	return b.String()
}
