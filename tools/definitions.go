package tools

// AllTools contains all tool specifications for the Oblique Strategies MCP server.
// Tool descriptions follow a structured format for LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	{
		Name:     "get_strategy",
		Method:   "GetStrategy",
		Title:    "Draw a Strategy",
		Category: "read",
		Description: `Draw one Oblique Strategy at random to prompt lateral thinking.

USE WHEN: User is stuck, asks for "a strategy", "a prompt", "a card", or wants a creative nudge.

NOT FOR: Finding strategies about a topic (use search_strategies).

PARAMETERS:
- edition: edition-1, edition-2, edition-3, edition-4, condensed, programmers, do-it (optional, default edition-2; unknown keys use edition-2)

RETURNS: The strategy text, the edition and the number of strategies in it. On failure returns error and edition instead.`,
		ReadOnly:   true,
		Idempotent: true,
	},
	{
		Name:     "search_strategies",
		Method:   "SearchStrategies",
		Title:    "Search Strategies",
		Category: "search",
		Description: `Find strategies containing a word or phrase (case-insensitive).

USE WHEN: User asks "strategies about X", "is there a card mentioning X", "which prompts talk about testing".

NOT FOR: A random pick (use get_strategy).

PARAMETERS:
- query: Text to look for (required; empty matches everything)
- edition: Limit to one edition (optional; omitted or unknown searches all editions)

RETURNS: Matches with their edition, the match count and the editions searched.`,
		ReadOnly:   true,
		Idempotent: true,
	},
	{
		Name:     "list_editions",
		Method:   "ListEditions",
		Title:    "List Editions",
		Category: "catalog",
		Description: `List the available editions with their strategy counts.

USE WHEN: User asks "which editions are there", "how many strategies", or needs a valid edition key.

RETURNS: Edition keys, source filenames, strategy counts, which one is default, and the default edition key.`,
		ReadOnly:   true,
		Idempotent: true,
	},
}

// ToolsByCategory returns the tool specs in category, in definition order.
func ToolsByCategory(category string) []ToolSpec {
	var out []ToolSpec
	for _, spec := range AllTools {
		if spec.Category == category {
			out = append(out, spec)
		}
	}
	return out
}
