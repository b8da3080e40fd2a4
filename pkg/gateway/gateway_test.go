package gateway_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxenlabs/voxgate/pkg/chats/message"
	"github.com/voxenlabs/voxgate/pkg/chats/role"
	"github.com/voxenlabs/voxgate/pkg/gateway"
	"github.com/voxenlabs/voxgate/pkg/modeladapter"
)

// attempt records one Complete call routed through the stub factory.
type attempt struct {
	provider string
	model    string
	apiKey   string
}

// stubFactory builds Completers that replay a scripted response per attempt
// and record every call in order.
type stubFactory struct {
	mu       sync.Mutex
	attempts []attempt
	script   func(n int, a attempt) (string, error)
}

func (f *stubFactory) factory(p *gateway.ProviderConfig, apiKey string) modeladapter.Completer {
	return &stubCompleter{f: f, provider: p.Name, apiKey: apiKey}
}

func (f *stubFactory) record(a attempt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.attempts)
	f.attempts = append(f.attempts, a)

	return f.script(n, a)
}

func (f *stubFactory) calls() []attempt {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]attempt(nil), f.attempts...)
}

type stubCompleter struct {
	f        *stubFactory
	provider string
	apiKey   string
}

func (s *stubCompleter) Complete(_ context.Context, _ []message.Message, model string) (string, error) {
	return s.f.record(attempt{provider: s.provider, model: model, apiKey: s.apiKey})
}

func localConfig() *gateway.Config {
	return &gateway.Config{
		DefaultProvider: "ollama",
		Providers: map[string]*gateway.ProviderConfig{
			"ollama": {Name: "ollama", BaseURL: "http://localhost:11434/api", DefaultModel: "m1"},
		},
	}
}

func fullConfig() *gateway.Config {
	cfg := localConfig()
	cfg.FallbackProvider = "openrouter"
	cfg.Providers["openrouter"] = &gateway.ProviderConfig{
		Name:         "openrouter",
		BaseURL:      "https://openrouter.ai/api/v1",
		APIKey:       "sk-or-test",
		DefaultModel: "deepseek/deepseek-chat-v3.1:free",
	}
	return cfg
}

func userSays(text string) []message.Message {
	return []message.Message{message.New(role.User, text)}
}

func newTestGateway(cfg *gateway.Config, f *stubFactory) *gateway.Gateway {
	return gateway.New(gateway.NewStore(cfg),
		gateway.WithAdapterFactory(f.factory),
		gateway.WithAttemptTimeout(time.Second),
	)
}

func TestChat_FirstCandidateSucceeds(t *testing.T) {
	f := &stubFactory{script: func(int, attempt) (string, error) {
		return "Hello.", nil
	}}
	g := newTestGateway(localConfig(), f)

	res := g.Chat(context.Background(), gateway.ChatRequest{Messages: userSays("hi")})

	assert.True(t, res.Succeeded)
	assert.Equal(t, "Hello.", res.ReplyText)
	assert.Equal(t, "ollama", res.ProviderUsed)
	assert.Equal(t, "m1", res.ModelUsed)
	require.Len(t, f.calls(), 1)
}

func TestChat_LocalLadderAdvancesOnFailure(t *testing.T) {
	f := &stubFactory{script: func(n int, _ attempt) (string, error) {
		if n == 0 {
			return "", &modeladapter.Error{Kind: modeladapter.KindConnection, Provider: "ollama", Message: "refused"}
		}
		return "Second try.", nil
	}}
	g := newTestGateway(localConfig(), f)

	res := g.Chat(context.Background(), gateway.ChatRequest{Messages: userSays("hi")})

	assert.True(t, res.Succeeded)
	assert.Equal(t, "ollama", res.ProviderUsed)
	assert.Equal(t, "qwen2.5:0.5b", res.ModelUsed)

	calls := f.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "m1", calls[0].model)
	assert.Equal(t, "qwen2.5:0.5b", calls[1].model)
}

func TestChat_EmptyReplyAdvancesLikeError(t *testing.T) {
	f := &stubFactory{script: func(n int, _ attempt) (string, error) {
		if n == 0 {
			return "   ", nil
		}
		return "Real answer.", nil
	}}
	g := newTestGateway(localConfig(), f)

	res := g.Chat(context.Background(), gateway.ChatRequest{Messages: userSays("hi")})

	assert.True(t, res.Succeeded)
	assert.Equal(t, "Real answer.", res.ReplyText)
	assert.Equal(t, "qwen2.5:0.5b", res.ModelUsed)
}

func TestChat_FallbackProviderAfterLadder(t *testing.T) {
	f := &stubFactory{script: func(_ int, a attempt) (string, error) {
		if a.provider == "openrouter" {
			return "From fallback.", nil
		}
		return "", &modeladapter.Error{Kind: modeladapter.KindConnection, Provider: a.provider, Message: "down"}
	}}
	g := newTestGateway(fullConfig(), f)

	res := g.Chat(context.Background(), gateway.ChatRequest{Messages: userSays("hi")})

	assert.True(t, res.Succeeded)
	assert.Equal(t, "openrouter", res.ProviderUsed)
	assert.Equal(t, "deepseek/deepseek-chat-v3.1:free", res.ModelUsed)
	assert.Equal(t, "From fallback.", res.ReplyText)

	calls := f.calls()
	// Full local ladder first, then the fallback provider once.
	require.Len(t, calls, 6)
	assert.Equal(t, "sk-or-test", calls[5].apiKey)
}

func TestChat_AllCandidatesExhausted(t *testing.T) {
	f := &stubFactory{script: func(_ int, a attempt) (string, error) {
		return "", &modeladapter.Error{Kind: modeladapter.KindConnection, Provider: a.provider, Message: "down"}
	}}
	g := newTestGateway(fullConfig(), f)

	res := g.Chat(context.Background(), gateway.ChatRequest{Messages: userSays("hi")})

	assert.False(t, res.Succeeded)
	assert.Equal(t, gateway.DegradedReply, res.ReplyText)
	assert.Equal(t, "unknown", res.ProviderUsed)
	assert.Equal(t, "unknown", res.ModelUsed)
}

func TestChat_TimeoutsAreBounded(t *testing.T) {
	f := &stubFactory{script: func(int, attempt) (string, error) {
		time.Sleep(time.Second)
		return "too late", nil
	}}
	g := gateway.New(gateway.NewStore(localConfig()),
		gateway.WithAdapterFactory(f.factory),
		gateway.WithAttemptTimeout(40*time.Millisecond),
	)

	start := time.Now()
	res := g.Chat(context.Background(), gateway.ChatRequest{Messages: userSays("hi")})
	elapsed := time.Since(start)

	assert.False(t, res.Succeeded)
	assert.Equal(t, gateway.DegradedReply, res.ReplyText)
	// Five ladder candidates at 40ms each, plus scheduling slack.
	assert.Less(t, elapsed, 5*40*time.Millisecond+500*time.Millisecond)
}

func TestChat_BlankMessagesDegradeWithoutAttempts(t *testing.T) {
	f := &stubFactory{script: func(int, attempt) (string, error) {
		return "never", nil
	}}
	g := newTestGateway(localConfig(), f)

	res := g.Chat(context.Background(), gateway.ChatRequest{Messages: userSays("   ")})

	assert.False(t, res.Succeeded)
	assert.Equal(t, gateway.DegradedReply, res.ReplyText)
	assert.Empty(t, f.calls())
}

func TestChat_ProviderOverrideWithKey(t *testing.T) {
	f := &stubFactory{script: func(int, attempt) (string, error) {
		return "Override answer.", nil
	}}
	g := newTestGateway(fullConfig(), f)

	res := g.Chat(context.Background(), gateway.ChatRequest{
		Messages:         userSays("hi"),
		ProviderOverride: "openrouter",
		ModelOverride:    "deepseek/deepseek-r1:free",
		APIKeyOverride:   "sk-or-user",
	})

	assert.True(t, res.Succeeded)
	assert.Equal(t, "openrouter", res.ProviderUsed)
	assert.Equal(t, "deepseek/deepseek-r1:free", res.ModelUsed)

	calls := f.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sk-or-user", calls[0].apiKey)
}

func TestChat_OverrideWithoutKeyFallsBackToDefault(t *testing.T) {
	f := &stubFactory{script: func(int, attempt) (string, error) {
		return "Default answer.", nil
	}}
	g := newTestGateway(fullConfig(), f)

	res := g.Chat(context.Background(), gateway.ChatRequest{
		Messages:         userSays("hi"),
		ProviderOverride: "openrouter",
	})

	assert.True(t, res.Succeeded)
	assert.Equal(t, "ollama", res.ProviderUsed)
}

func TestChat_OverriddenProviderNotRetriedAsFallback(t *testing.T) {
	f := &stubFactory{script: func(_ int, a attempt) (string, error) {
		return "", &modeladapter.Error{Kind: modeladapter.KindAuth, Provider: a.provider, Message: "bad key"}
	}}
	g := newTestGateway(fullConfig(), f)

	res := g.Chat(context.Background(), gateway.ChatRequest{
		Messages:         userSays("hi"),
		ProviderOverride: "openrouter",
		APIKeyOverride:   "sk-or-bad",
	})

	assert.False(t, res.Succeeded)
	require.Len(t, f.calls(), 1)
}

func TestTestConnection(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := &stubFactory{script: func(int, attempt) (string, error) {
			return "Hello!", nil
		}}
		g := newTestGateway(fullConfig(), f)

		res := g.TestConnection(context.Background(), "openrouter", "", "")

		assert.True(t, res.Success)
		assert.Contains(t, res.Message, "openrouter")

		calls := f.calls()
		require.Len(t, calls, 1)
		// Configured credentials and model are used when none are supplied.
		assert.Equal(t, "sk-or-test", calls[0].apiKey)
		assert.Equal(t, "deepseek/deepseek-chat-v3.1:free", calls[0].model)
	})

	t.Run("failure surfaces the error", func(t *testing.T) {
		f := &stubFactory{script: func(int, attempt) (string, error) {
			return "", &modeladapter.Error{Kind: modeladapter.KindAuth, Provider: "openrouter", Message: "invalid key"}
		}}
		g := newTestGateway(fullConfig(), f)

		res := g.TestConnection(context.Background(), "openrouter", "sk-or-bad", "")

		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "invalid key")
	})

	t.Run("unknown provider probes a well-known endpoint", func(t *testing.T) {
		var gotBase string
		f := &stubFactory{script: func(int, attempt) (string, error) {
			return "Hello!", nil
		}}
		g := gateway.New(gateway.NewStore(localConfig()),
			gateway.WithAdapterFactory(func(p *gateway.ProviderConfig, apiKey string) modeladapter.Completer {
				gotBase = p.BaseURL
				return f.factory(p, apiKey)
			}),
			gateway.WithAttemptTimeout(time.Second),
		)

		res := g.TestConnection(context.Background(), "anthropic", "sk-ant-test", "claude-3-5-haiku-latest")

		assert.True(t, res.Success)
		assert.Equal(t, "https://api.anthropic.com/v1", gotBase)
	})
}

func TestUpdateConfig_SwitchesLiveSnapshot(t *testing.T) {
	f := &stubFactory{script: func(int, attempt) (string, error) {
		return "ok", nil
	}}
	g := newTestGateway(fullConfig(), f)

	_, err := g.UpdateConfig("openrouter", gateway.ProviderSettings{DefaultModel: "deepseek/deepseek-r1:free"})
	require.NoError(t, err)

	res := g.Chat(context.Background(), gateway.ChatRequest{Messages: userSays("hi")})

	assert.Equal(t, "openrouter", res.ProviderUsed)
	assert.Equal(t, "deepseek/deepseek-r1:free", res.ModelUsed)
}
