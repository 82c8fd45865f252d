package openai

// QueryCategories defines the routing categories the classifier may
// return. Lookup queries want a fast small model; reasoning queries
// benefit from a larger one.
var QueryCategories = []string{
	"lookup",
	"reasoning",
}

const routingSystemPrompt = `Categorize the user's query about their personal notes and return the result as JSON.

Output ONLY valid JSON of the form {"category": "<value>"}. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }.

Rules:
- The category must be exactly one of: "lookup", "reasoning".
- "lookup" means the query asks to retrieve or recall specific facts the user wrote down.
- "reasoning" means the query asks to compare, summarize, plan, or draw conclusions across notes.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "when is my dentist appointment"
Output:
{"category": "lookup"}

Example:
Input: "what themes keep coming up in my journal this year"
Output:
{"category": "reasoning"}

Example (informal, no punctuation):
Input: "did i write anything about the garden"
Output:
{"category": "lookup"}`
