// Package textgen wraps the chat-completions API used to generate text
// variants.
//
// The client issues one request per call and classifies failures into the
// shared sentinel taxonomy (provider/transient, configuration, safety
// blocked, token limit) so the generation engine can decide what is worth
// retrying. Retry policy itself lives with the engine; per-call timeouts
// live here.
package textgen
