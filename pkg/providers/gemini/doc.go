// Package gemini adapts Google's Gemini generateContent API
// (POST {base_url}/v1beta/models/{model}:generateContent) to the
// providers.Provider interface. The API key is sent in the x-goog-api-key
// header; JSONMode maps to responseMimeType "application/json".
package gemini
