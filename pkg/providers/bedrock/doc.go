// Package bedrock invokes Anthropic models hosted on AWS Bedrock
// (POST https://bedrock-runtime.{region}.amazonaws.com/model/{model}/invoke).
//
// Each request is signed with sigv4.Sign using one timestamp captured
// before the first attempt, and dispatched with exactly the signed
// Content-Type, X-Amz-Date and Authorization headers. Model IDs containing
// characters AWS double-encodes in canonical paths (such as ':') are not
// canonicalized and will be rejected upstream.
package bedrock
