// Package anthropic adapts Anthropic's Messages API
// (POST {base_url}/v1/messages, x-api-key authentication) to the
// providers.Provider interface.
//
// BuildRequest and ToCompletion are shared with the bedrock adapter, since
// Anthropic models on Bedrock accept the same body.
package anthropic
