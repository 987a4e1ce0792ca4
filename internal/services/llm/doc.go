// Package llm provides an OpenRouter-compatible chat client that asks a model
// for JSON-only answers.
//
// The persona generator is the only caller: it sends a summary of the
// viewer's year and expects a {"title","description"} object back.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive the raw JSON content.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode model output, tolerating code fences and chatter
// around the JSON object.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Retry-After is honoured. Context cancellation aborts
// retries immediately.
//
// # Errors
//
// Failures are tagged with the services sentinels: ErrConfiguration for a
// missing or rejected key, ErrTimeout for cancellation, ErrExternalTool for
// everything else. Callers are expected to fall back to canned output.
package llm
