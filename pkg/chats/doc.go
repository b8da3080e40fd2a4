// Package chats provides a provider-agnostic data model for LLM chat interactions.
//
// It is organized into sub-packages:
//   - [github.com/voxenlabs/voxgate/pkg/chats/role] — conversation roles (system, user, assistant)
//   - [github.com/voxenlabs/voxgate/pkg/chats/message] — plain-text messages composed of a role and content
//
// No provider or API code is included — chats is a foundation layer
// that adapters can build on.
package chats
