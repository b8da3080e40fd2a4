// Package modeladapter defines the interface and types for LLM completion adapters.
//
// It contains:
//   - [Completer] interface and embeddable [ModelAdapter] base struct with HTTP helpers, auth, and custom headers
//   - [Error] — the canonical provider-agnostic error container, with the shared status and transport normalizer
//
// This package contains no provider-specific code — concrete adapters live in
// separate packages that import modeladapter.
package modeladapter
