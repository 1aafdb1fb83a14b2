package ai

import "github.com/poiesic/ragcache/core"

// RouteCategory describes one routing target to the classification model.
type RouteCategory struct {
	Action      core.Action
	Description string
}

// RouteCategories are the routing targets offered to the classifier, in
// prompt order. The last entry is the catch-all.
var RouteCategories = []RouteCategory{
	{
		Action:      core.ActionOpenAI,
		Description: "questions about OpenAI, its models (GPT-4, GPT-4o, o1, DALL-E, Whisper), products, research papers, APIs, or announcements",
	},
	{
		Action:      core.ActionTenK,
		Description: "questions about company financial reports, 10-K filings, revenue, risk factors, balance sheets, or other annual-report content",
	},
	{
		Action:      core.ActionInternet,
		Description: "anything else: current events, general knowledge, weather, sports, or topics not covered by the other categories",
	},
}
