// Package recovery extracts a structured result from free-form model output.
//
// Language models asked for a JSON object often answer with something close
// to one: wrapped in Markdown fences, surrounded by prose, cut off mid-value,
// or with raw newlines inside string literals. A Parser turns such text into
// a Result holding a primary text (a title), a body text (a multi-line
// specification block) and a confidence flag.
//
// Recovery runs in two independent paths:
//
//   - Strict: strip fences, take the span from the first '{' to the last '}',
//     escape raw control characters inside string literals, decode it and
//     validate the object against a JSON schema built from the configured
//     field names. Literal "\n" sequences in the body become newlines.
//     Confident is taken from the object and defaults to true.
//   - Salvage: when the strict path fails and the text starts with '{', the
//     fields are located with regular expressions. The body is read up to the
//     next known field, a closing quote and brace, or the end of the text, so
//     truncated output still yields a result. Newlines are collapsed to
//     spaces and Confident is always false.
//
// When neither path produces a primary text the call fails with a
// *RecoveryFailedError carrying a bounded preview of the input. Use
// errors.Is(err, ErrRecoveryFailed) to detect it.
//
// The span from the first '{' to the last '}' is greedy on purpose: it
// tolerates stray text between objects. WithBracketMode(BracketBalanced)
// switches to a depth-aware scan that tries each opening brace in turn.
//
// A Parser is immutable after New and safe for concurrent use.
package recovery
