package prompt

import (
	"fmt"
	"strings"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior business analyst. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- summary is a short executive summary of the report (3-6 sentences).
- kpis: the most important numeric metrics found in the report. value must be a number, unit may be "" when unitless.
- trends: direction is one of Up, Down, Stable; change_percentage is a number (no % sign).
- action_items: priority is one of High, Medium, Low. Keep titles short and descriptions concrete.
- If the actual file content is not provided in the prompt, infer conservatively from the file name and type and say so in the summary.

Schema (example with empty values):
{
  "summary": "<string>",
  "kpis": [{"name": "<string>", "value": 0, "unit": "<string>", "category": "<string>"}],
  "trends": [{"metric_name": "<string>", "direction": "<Up|Down|Stable>", "change_percentage": 0, "time_frame": "<string>"}],
  "action_items": [{"title": "<string>", "description": "<string>", "priority": "<High|Medium|Low>", "category": "<string>"}]
}`
}

// GetQuestionSystemPrompt is used for free-form questions about a report.
func GetQuestionSystemPrompt() string {
	return `You are a business intelligence assistant. Answer the user's question using only the report content provided. If the report does not contain the answer, say so briefly. Answer in the language of the question.`
}

// GetUserPrompt builds the user message around the report content.
func GetUserPrompt(fileRef, contentType, content string, truncated bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this report and respond with the JSON per schema.\nFile: %s\nType: %s\n", fileRef, contentType)
	writeContent(&b, content, truncated)
	return b.String()
}

// GetQuestionPrompt builds the user message for a question.
func GetQuestionPrompt(fileRef, content string, truncated bool, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", fileRef)
	writeContent(&b, content, truncated)
	fmt.Fprintf(&b, "\nQuestion: %s", question)
	return b.String()
}

func writeContent(b *strings.Builder, content string, truncated bool) {
	if content == "" {
		b.WriteString("Content: (not available as text)\n")
		return
	}
	b.WriteString("Content:\n")
	b.WriteString(content)
	if truncated {
		b.WriteString("\n[content truncated]")
	}
	b.WriteString("\n")
}

// StripCodeFence removes a ```json ... ``` wrapper some models add anyway.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
