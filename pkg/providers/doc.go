// Package providers groups the concrete LLM provider adapters.
//
// It is organized into sub-packages:
//   - [github.com/voxenlabs/voxgate/pkg/providers/openai] — OpenAI-compatible chat-completions APIs (OpenAI, OpenRouter, custom endpoints)
//   - [github.com/voxenlabs/voxgate/pkg/providers/anthropic] — the Anthropic Messages API
//   - [github.com/voxenlabs/voxgate/pkg/providers/ollama] — a local Ollama runner
//
// Each adapter implements modeladapter.Completer and owns its own wire
// mapping; shared HTTP plumbing and error normalization live in
// [github.com/voxenlabs/voxgate/pkg/modeladapter].
package providers
