// Package openai provides the production ai implementations backed by
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, OpenAI itself).
//
// Embeddings and classification can target different hosts and models; see
// ai.Config. The classifier prompts for strict JSON and tolerates the usual
// small-model sloppiness: markdown fences, unquoted keys and out-of-set
// labels are repaired or coerced before the verdict is returned.
package openai
