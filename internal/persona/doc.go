// Package persona turns a year's statistics into a short "cinema persona":
// a title plus a witty description written by a chat model.
//
// Generation never fails from the caller's point of view. A missing API key,
// transport error, or unparseable reply yields FallbackResult, and missing
// fields in an otherwise valid reply are filled with fixed defaults.
package persona
