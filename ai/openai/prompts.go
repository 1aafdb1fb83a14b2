package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/ragcache/ai"
)

const routePromptTemplate = `As a professional query router, your objective is to classify the user's question into exactly one of the categories below and return the result as JSON.

Categories:
%s

Output ONLY valid JSON. Do not include any preamble, explanation, greeting, or acknowledgment. Start your response
directly with the opening brace { and end with the closing brace }. The object must have exactly these keys:

{"action": "<one of: %s>", "reason": "<one short sentence>", "answer": "<a short direct answer if you are certain, otherwise empty>"}

Rules:
- "action" must be copied exactly from the category list.
- Use %s when no other category clearly applies.
- Keep "reason" under 30 words.`

const splitPrompt = `You are a query router. If the input contains multiple distinct questions, break it into sub-questions.
If it contains a single question, return it unchanged as the only sub-question.

Output ONLY valid JSON of the form:

{"subQuestions": ["<first question>", "<second question>"]}

Rules:
- Keep the original order of the questions.
- Do not invent questions that are not in the input.
- Do not answer the questions.

Example:
Input: "What is GPT-4 and what's the weather in Paris?"
Output:
{"subQuestions": ["What is GPT-4?", "What's the weather in Paris?"]}`

const generatePrompt = `Based on the given context, answer the user query.
Employ references to the ID of the context articles provided, in the format [1][2], ensuring their relevance to the query.
If the context does not contain the answer, say so instead of guessing.`

// buildRoutePrompt renders the classification prompt from the configured categories.
func buildRoutePrompt(categories []ai.RouteCategory) string {
	var lines strings.Builder
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		fmt.Fprintf(&lines, "- %s: %s\n", c.Action, c.Description)
		names = append(names, string(c.Action))
	}
	fallback := ""
	if len(names) > 0 {
		fallback = names[len(names)-1]
	}
	return fmt.Sprintf(routePromptTemplate,
		strings.TrimRight(lines.String(), "\n"),
		strings.Join(names, ", "),
		fallback)
}

// buildGenerateInput numbers context chunks from 1 so answers can cite them.
func buildGenerateInput(question string, context []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %s\n\nContext:\n", question)
	if len(context) == 0 {
		b.WriteString("(none)\n")
	}
	for i, c := range context {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c)
	}
	return b.String()
}
