package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/voxenlabs/voxgate/pkg/chats/message"
	"github.com/voxenlabs/voxgate/pkg/chats/role"
	"github.com/voxenlabs/voxgate/pkg/modeladapter"
	"github.com/voxenlabs/voxgate/pkg/providers/anthropic"
	"github.com/voxenlabs/voxgate/pkg/providers/ollama"
	"github.com/voxenlabs/voxgate/pkg/providers/openai"
)

// DegradedReply is returned when every candidate is exhausted. It is the
// only reply a caller ever sees instead of an error.
const DegradedReply = "I'm sorry, I could not process that request right now."

const unknownLabel = "unknown"

// localModelLadder lists known small local models tried in order when the
// default provider is the local runner, after the explicitly requested one.
var localModelLadder = []string{"qwen2.5:0.5b", "qwen2.5:1.5b", "tinyllama", "gemma2:2b"}

// ChatRequest is one chat call. Messages must carry at least one non-blank
// message; the overrides are optional.
type ChatRequest struct {
	Messages         []message.Message
	ModelOverride    string
	ProviderOverride string
	APIKeyOverride   string
}

// ChatResult is the outcome of a chat call. ReplyText is never empty:
// when Succeeded is false it holds DegradedReply.
type ChatResult struct {
	ReplyText    string
	ProviderUsed string
	ModelUsed    string
	Succeeded    bool
}

// TestResult reports a connection test outcome.
type TestResult struct {
	Success bool
	Message string
}

// AdapterFactory creates a Completer for one candidate attempt. The apiKey
// argument already reflects any per-request credential override.
type AdapterFactory func(p *ProviderConfig, apiKey string) modeladapter.Completer

// Gateway routes chat requests through the configured providers.
type Gateway struct {
	store   *Store
	log     *slog.Logger
	timeout time.Duration
	factory AdapterFactory
	models  *cache.Cache
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

// WithAttemptTimeout sets the per-candidate deadline, overriding the
// environment-derived default.
func WithAttemptTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithAdapterFactory replaces the adapter construction, mainly for tests.
func WithAdapterFactory(f AdapterFactory) Option {
	return func(g *Gateway) { g.factory = f }
}

// New creates a Gateway reading configuration snapshots from store.
func New(store *Store, opts ...Option) *Gateway {
	g := &Gateway{
		store:   store,
		log:     slog.Default(),
		timeout: TimeoutFromEnv(),
		factory: defaultAdapter,
		models:  cache.New(modelCacheTTL, 2*modelCacheTTL),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// defaultAdapter builds the concrete adapter for a provider family,
// applying the provider's tuning extras.
func defaultAdapter(p *ProviderConfig, apiKey string) modeladapter.Completer {
	switch {
	case IsLocalProvider(p.Name):
		a := ollama.New(p.Name, p.BaseURL)
		a.NumCtx = int(p.Extra("num_ctx", float64(a.NumCtx)))
		a.NumGPU = int(p.Extra("num_gpu", 0))
		a.Temperature = p.Extra("temperature", 0)
		return a
	case p.Name == "anthropic":
		a := anthropic.New(p.Name, p.BaseURL, apiKey)
		a.MaxTokens = int(p.Extra("max_tokens", float64(a.MaxTokens)))
		return a
	default:
		a := openai.New(p.Name, p.BaseURL, apiKey)
		a.Temperature = p.Extra("temperature", a.Temperature)
		a.MaxTokens = int(p.Extra("max_tokens", float64(a.MaxTokens)))
		return a
	}
}

// candidate is one (provider, model) pair attempted during a chat call.
type candidate struct {
	provider *ProviderConfig
	model    string
	apiKey   string
}

// buildCandidates assembles the ordered attempt list:
//  1. an external provider override with a per-request key, when given;
//  2. otherwise the default provider — a model ladder when it is local;
//  3. the configured fallback provider, unless already tried.
func buildCandidates(cfg *Config, req ChatRequest) []candidate {
	var out []candidate
	tried := make(map[string]bool)

	if req.ProviderOverride != "" && !IsLocalProvider(req.ProviderOverride) && req.APIKeyOverride != "" {
		if p, ok := cfg.Providers[req.ProviderOverride]; ok {
			model := req.ModelOverride
			if model == "" {
				model = p.DefaultModel
			}
			out = append(out, candidate{provider: p, model: model, apiKey: req.APIKeyOverride})
			tried[p.Name] = true
		}
	}

	if len(out) == 0 {
		if p, ok := cfg.Providers[cfg.DefaultProvider]; ok {
			if IsLocalProvider(p.Name) {
				first := req.ModelOverride
				if first == "" {
					first = p.DefaultModel
				}
				for _, m := range ladder(first) {
					out = append(out, candidate{provider: p, model: m})
				}
			} else {
				model := req.ModelOverride
				if model == "" {
					model = p.DefaultModel
				}
				out = append(out, candidate{provider: p, model: model, apiKey: p.APIKey})
			}
			tried[p.Name] = true
		}
	}

	if cfg.FallbackProvider != "" && !tried[cfg.FallbackProvider] {
		if p, ok := cfg.Providers[cfg.FallbackProvider]; ok {
			out = append(out, candidate{provider: p, model: p.DefaultModel, apiKey: p.APIKey})
		}
	}

	return out
}

// ladder returns first followed by the fixed small-model list, deduplicated.
func ladder(first string) []string {
	models := make([]string, 0, 1+len(localModelLadder))
	seen := make(map[string]bool)

	for _, m := range append([]string{first}, localModelLadder...) {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		models = append(models, m)
	}

	return models
}

// Chat routes one request through the candidate list and returns the first
// non-empty reply. It never returns an error: a candidate failing with a
// canonical error, timing out, or replying with blank text advances the
// loop, and exhausting every candidate yields the degraded result.
func (g *Gateway) Chat(ctx context.Context, req ChatRequest) ChatResult {
	log := g.log.With("request_id", uuid.NewString())

	if message.Empty(req.Messages) {
		log.WarnContext(ctx, "chat request carries no content")
		return degradedResult()
	}

	cfg := g.store.Snapshot()

	candidates := buildCandidates(cfg, req)
	if len(candidates) == 0 {
		log.WarnContext(ctx, "no usable candidates",
			"default_provider", cfg.DefaultProvider,
			"provider_override", req.ProviderOverride,
		)
		return degradedResult()
	}

	for _, c := range candidates {
		start := time.Now()
		adapter := g.factory(c.provider, c.apiKey)

		reply, err := RunWithTimeout(ctx, g.timeout, c.provider.Name, func(ctx context.Context) (string, error) {
			return adapter.Complete(ctx, req.Messages, c.model)
		})

		switch {
		case err != nil:
			log.WarnContext(ctx, "candidate failed",
				"provider", c.provider.Name,
				"model", c.model,
				"duration", time.Since(start),
				"error", err,
			)
			continue
		case strings.TrimSpace(reply) == "":
			log.WarnContext(ctx, "candidate returned empty reply",
				"provider", c.provider.Name,
				"model", c.model,
				"duration", time.Since(start),
			)
			continue
		}

		log.InfoContext(ctx, "chat completed",
			"provider", c.provider.Name,
			"model", c.model,
			"duration", time.Since(start),
		)

		return ChatResult{
			ReplyText:    strings.TrimSpace(reply),
			ProviderUsed: c.provider.Name,
			ModelUsed:    c.model,
			Succeeded:    true,
		}
	}

	log.WarnContext(ctx, "all candidates exhausted", "candidates", len(candidates))

	return degradedResult()
}

func degradedResult() ChatResult {
	return ChatResult{
		ReplyText:    DegradedReply,
		ProviderUsed: unknownLabel,
		ModelUsed:    unknownLabel,
		Succeeded:    false,
	}
}

// Snapshot returns the current configuration snapshot.
func (g *Gateway) Snapshot() *Config {
	return g.store.Snapshot()
}

// UpdateConfig merges settings into the named provider, switches the
// default to it, and installs the new snapshot. See Store.UpdateProvider.
func (g *Gateway) UpdateConfig(providerName string, settings ProviderSettings) (*Config, error) {
	return g.store.UpdateProvider(providerName, settings)
}

// TestConnection performs one real round trip against the named provider to
// validate reachability and credentials. Persisted state is not touched: an
// unknown provider is probed against its family's well-known endpoint.
func (g *Gateway) TestConnection(ctx context.Context, providerName, apiKey, model string) TestResult {
	target := &ProviderConfig{Name: providerName, BaseURL: wellKnownBaseURL(providerName)}
	if p, ok := g.store.Snapshot().Providers[providerName]; ok {
		target = p.clone()
	}

	if apiKey == "" {
		apiKey = target.APIKey
	}
	if model == "" {
		model = target.DefaultModel
	}

	adapter := g.factory(target, apiKey)

	probe := []message.Message{message.New(role.User, "Hi")}
	reply, err := RunWithTimeout(ctx, g.timeout, providerName, func(ctx context.Context) (string, error) {
		return adapter.Complete(ctx, probe, model)
	})

	switch {
	case err != nil:
		return TestResult{Success: false, Message: err.Error()}
	case strings.TrimSpace(reply) == "":
		return TestResult{Success: false, Message: providerName + ": provider returned an empty reply"}
	}

	return TestResult{Success: true, Message: fmt.Sprintf("successfully connected to %s", providerName)}
}
