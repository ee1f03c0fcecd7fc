package classifier

import (
	"fmt"
	"strings"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
)

const (
	classifySystem  = "You are a business analyst specializing in product feedback categorization."
	summarizeSystem = "You are a product management assistant specializing in concise business communication."

	classifyMaxTokens  = 50
	summarizeMaxTokens = 60
	temperature        = 0.1
)

// categoryDefinitions pairs each category with the definition shown to the model.
var categoryDefinitions = map[model.Category]string{
	model.CategoryEnterprise: "Features, integrations, or capabilities needed to attract and close large enterprise customers",
	model.CategoryCompliance: "Security, privacy, regulatory compliance, data governance, and audit requirements",
	model.CategoryUsability:  "User experience, performance optimization, stability, and general usability improvements",
}

const classifyTemplate = `You are an AI assistant for a financial software company. Your task is to categorize customer feedback into one of three strategic priorities based on the content and business impact.

Categories:
%s
Instructions:
- Read the feedback carefully and identify the primary business concern
- Choose the category that best aligns with the core issue described
- Respond with ONLY the category name (exactly as written above)
- If multiple categories apply, choose the most critical one based on business impact

Feedback: %q

Category:`

const summarizeTemplate = `You are an AI assistant helping Product Managers quickly understand customer feedback.

Your task: Create a concise, one-sentence executive summary that captures the core problem or request.

Requirements:
- Maximum 25 words
- Focus on the specific issue or need, not generic descriptions
- Use business-friendly language suitable for executive dashboards
- Highlight the impact or urgency if mentioned
- Be specific about what the customer needs or what's broken

Feedback: %q

Executive Summary:`

func classifyPrompt(text string) Prompt {
	var sb strings.Builder
	for i, c := range model.Categories {
		fmt.Fprintf(&sb, "%d. %q - %s\n", i+1, string(c), categoryDefinitions[c])
	}
	t := temperature
	return Prompt{
		Task:        TaskClassify,
		System:      classifySystem,
		User:        fmt.Sprintf(classifyTemplate, sb.String(), text),
		MaxTokens:   classifyMaxTokens,
		Temperature: &t,
	}
}

func summarizePrompt(text string) Prompt {
	t := temperature
	return Prompt{
		Task:        TaskSummarize,
		System:      summarizeSystem,
		User:        fmt.Sprintf(summarizeTemplate, text),
		MaxTokens:   summarizeMaxTokens,
		Temperature: &t,
	}
}

// ParseCategory maps a raw model response to a category. The response is
// trimmed, then only its first line is considered, and that line must match a
// category name exactly. Anything else yields the default category and false.
func ParseCategory(raw string) (model.Category, bool) {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	candidate := model.Category(strings.TrimSpace(line))
	if candidate.Valid() {
		return candidate, true
	}
	return model.DefaultCategory, false
}
