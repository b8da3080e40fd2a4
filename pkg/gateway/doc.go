// Package gateway routes chat requests across interchangeable LLM providers.
//
// It contains:
//   - [Config] and [ProviderConfig] — persisted gateway settings with Load,
//     Save, Validate, and Update, plus the [ConfigError] taxonomy
//   - [Store] — an atomically swapped configuration snapshot holder
//   - [RunWithTimeout] — per-attempt deadline enforcement
//   - [Gateway] — candidate selection (override, local model ladder,
//     configured fallback), the sequential attempt loop, connection testing,
//     and best-effort model discovery
//
// Gateway.Chat never returns an error: when every candidate is exhausted it
// degrades to a fixed user-visible reply instead.
package gateway
