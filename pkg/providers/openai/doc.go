// Package openai adapts the OpenAI Chat Completions API
// (POST {base_url}/chat/completions, bearer authentication) to the
// providers.Provider interface. JSONMode maps to
// response_format {"type": "json_object"}.
package openai
