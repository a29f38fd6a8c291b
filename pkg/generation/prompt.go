package generation

import (
	"fmt"

	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/recovery"
)

const systemPromptTemplate = `You write product listings for an online marketplace.
Reply with a single JSON object and nothing else. Use exactly these keys:
  %q: a concise product title, at most 80 characters
  %q: the product specifications, one "- " bullet per line
  %q: true if the description gave enough detail for an accurate listing, otherwise false
Do not wrap the object in Markdown.`

// SystemPrompt returns the built-in instructions for fields.
func SystemPrompt(fields recovery.Fields) string {
	return fmt.Sprintf(systemPromptTemplate, fields.Primary, fields.Body, fields.Confident)
}

// buildMessages returns the system and user messages for prompt. A custom
// system prompt replaces the built-in one.
func buildMessages(system, prompt string) []providers.Message {
	return []providers.Message{
		{Role: providers.RoleSystem, Content: system},
		{Role: providers.RoleUser, Content: "Product description:\n" + prompt},
	}
}
