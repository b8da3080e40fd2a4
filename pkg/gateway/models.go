package gateway

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/voxenlabs/voxgate/pkg/modeladapter"
)

// modelCacheTTL bounds how long a provider's discovered model list is reused.
const modelCacheTTL = 5 * time.Minute

// ModelInfo describes one model a provider can serve.
type ModelInfo struct {
	Name     string
	Provider string
}

// knownModels is a static routing hint per provider, used when discovery is
// unavailable. It feeds the fallback lists only, never Chat's candidate
// order.
var knownModels = map[string][]string{
	"openai":     {"gpt-4o-mini", "gpt-4o"},
	"openrouter": {"deepseek/deepseek-chat-v3.1:free"},
	"anthropic":  {"claude-3-5-haiku-latest", "claude-3-5-sonnet-latest"},
}

// ListAvailableModels returns the models the named provider can serve, in
// provider order. It is best-effort: when the provider's discovery endpoint
// is unreachable or the provider exposes none, a static fallback list is
// returned instead. Results are cached briefly.
func (g *Gateway) ListAvailableModels(ctx context.Context, providerName string) []ModelInfo {
	if cached, ok := g.models.Get(providerName); ok {
		return cached.([]ModelInfo)
	}

	p := g.store.Snapshot().Providers[providerName]

	var names []string
	if p != nil {
		if lister, ok := g.factory(p, p.APIKey).(modeladapter.ModelLister); ok {
			discovered, err := lister.ListModels(ctx)
			switch {
			case err != nil:
				g.log.WarnContext(ctx, "model discovery failed", "provider", providerName, "error", err)
			case len(discovered) > 0:
				names = discovered
			}
		}
	}

	if names == nil {
		names = fallbackModels(providerName, p)
	}

	infos := make([]ModelInfo, 0, len(names))
	for _, n := range names {
		infos = append(infos, ModelInfo{Name: n, Provider: providerName})
	}

	g.models.Set(providerName, infos, cache.DefaultExpiration)

	return infos
}

// fallbackModels builds the static list for a provider: the local ladder
// for the local runner, the known-model hints otherwise, and the configured
// default model as a last resort.
func fallbackModels(providerName string, p *ProviderConfig) []string {
	if IsLocalProvider(providerName) {
		first := ""
		if p != nil {
			first = p.DefaultModel
		}
		return ladder(first)
	}

	if models, ok := knownModels[providerName]; ok {
		return models
	}

	if p != nil && p.DefaultModel != "" {
		return []string{p.DefaultModel}
	}

	return nil
}
