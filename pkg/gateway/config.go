package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// localProviderPrefix marks the always-available local provider family.
// The persisted form carries no kind field: a provider whose name starts
// with this prefix is local, "anthropic" is anthropic-style, and everything
// else is treated as OpenAI-compatible.
const localProviderPrefix = "ollama"

// IsLocalProvider reports whether the named provider is the local runner.
func IsLocalProvider(name string) bool {
	return strings.HasPrefix(name, localProviderPrefix)
}

// ProviderConfig holds the persisted settings for one backend. Tuning keys
// the gateway does not model explicitly (temperature, max_tokens, num_ctx,
// num_gpu, ...) live in Extras and survive a load/save round trip.
type ProviderConfig struct {
	Name         string // Populated from the providers map key, not persisted.
	BaseURL      string
	APIKey       string
	DefaultModel string
	Extras       map[string]float64
}

// Extra returns the named tuning value, or def when it is not set.
func (p *ProviderConfig) Extra(key string, def float64) float64 {
	if v, ok := p.Extras[key]; ok {
		return v
	}
	return def
}

func (p *ProviderConfig) clone() *ProviderConfig {
	cp := *p
	if p.Extras != nil {
		cp.Extras = make(map[string]float64, len(p.Extras))
		for k, v := range p.Extras {
			cp.Extras[k] = v
		}
	}
	return &cp
}

// providerConfigWire is the persisted YAML shape; unknown numeric keys are
// inlined from Extras.
type providerConfigWire struct {
	BaseURL      string             `yaml:"base_url"`
	APIKey       string             `yaml:"api_key,omitempty"`
	DefaultModel string             `yaml:"default_model"`
	Extras       map[string]float64 `yaml:",inline"`
}

// MarshalJSON flattens Extras next to the fixed keys, matching the persisted
// wire shape.
func (p *ProviderConfig) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 3+len(p.Extras))
	m["base_url"] = p.BaseURL
	if p.APIKey != "" {
		m["api_key"] = p.APIKey
	}
	m["default_model"] = p.DefaultModel
	for k, v := range p.Extras {
		m[k] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON collects unknown numeric keys into Extras so the persisted
// form round-trips losslessly.
func (p *ProviderConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key, dest := range map[string]*string{
		"base_url":      &p.BaseURL,
		"api_key":       &p.APIKey,
		"default_model": &p.DefaultModel,
	} {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dest); err != nil {
				return err
			}
		}
	}

	for k, v := range raw {
		switch k {
		case "base_url", "api_key", "default_model":
			continue
		}
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			continue // non-numeric tuning keys are ignored
		}
		if p.Extras == nil {
			p.Extras = make(map[string]float64)
		}
		p.Extras[k] = n
	}

	return nil
}

func (p *ProviderConfig) MarshalYAML() (any, error) {
	return providerConfigWire{
		BaseURL:      p.BaseURL,
		APIKey:       p.APIKey,
		DefaultModel: p.DefaultModel,
		Extras:       p.Extras,
	}, nil
}

func (p *ProviderConfig) UnmarshalYAML(value *yaml.Node) error {
	var w providerConfigWire
	if err := value.Decode(&w); err != nil {
		return err
	}

	p.BaseURL = w.BaseURL
	p.APIKey = w.APIKey
	p.DefaultModel = w.DefaultModel
	p.Extras = w.Extras
	if len(p.Extras) == 0 {
		p.Extras = nil
	}

	return nil
}

// Config is the top-level gateway configuration. It is immutable once
// loaded: updates build a new validated Config and swap it in wholesale.
type Config struct {
	DefaultProvider  string                     `json:"default_provider" yaml:"default_provider"`
	FallbackProvider string                     `json:"fallback_provider,omitempty" yaml:"fallback_provider,omitempty"`
	Providers        map[string]*ProviderConfig `json:"providers" yaml:"providers"`
}

// Load reads a configuration file and returns a validated Config. The
// format follows the extension: .yaml/.yml parses as YAML, anything else as
// JSON. Environment variables referenced as ${VAR} or $VAR are expanded
// before parsing so API keys can be kept out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		kind := ConfigMissingFile
		if !errors.Is(err, fs.ErrNotExist) {
			kind = ConfigMalformed
		}
		return nil, &ConfigError{Kind: kind, Message: "read " + path, Cause: err}
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if isYAMLPath(path) {
		err = yaml.Unmarshal([]byte(expanded), cfg)
	} else {
		err = json.Unmarshal([]byte(expanded), cfg)
	}
	if err != nil {
		return nil, &ConfigError{Kind: ConfigMalformed, Message: "parse " + path, Cause: err}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save serializes cfg back to the same persisted form Load reads, chosen by
// the path's extension.
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAMLPath(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return &ConfigError{Kind: ConfigMalformed, Message: "serialize " + path, Cause: err}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return &ConfigError{Kind: ConfigMalformed, Message: "write " + path, Cause: err}
	}

	return nil
}

func isYAMLPath(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// normalize stamps each provider with its map key so adapters and logs can
// name it without carrying the map around.
func (c *Config) normalize() {
	for name, p := range c.Providers {
		if p != nil {
			p.Name = name
		}
	}
}

// Validate checks that the configuration is internally consistent: at least
// one provider, non-empty base URLs, and default/fallback references that
// key into the providers map.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return &ConfigError{Kind: ConfigMalformed, Message: "at least one provider is required"}
	}

	for name, p := range c.Providers {
		if p == nil || strings.TrimSpace(p.BaseURL) == "" {
			return &ConfigError{Kind: ConfigMalformed, Message: "provider " + name + ": base_url is required"}
		}
	}

	if _, ok := c.Providers[c.DefaultProvider]; !ok {
		return &ConfigError{
			Kind:    ConfigDanglingReference,
			Message: fmt.Sprintf("default_provider %q not found in providers", c.DefaultProvider),
		}
	}

	if c.FallbackProvider != "" {
		if _, ok := c.Providers[c.FallbackProvider]; !ok {
			return &ConfigError{
				Kind:    ConfigDanglingReference,
				Message: fmt.Sprintf("fallback_provider %q not found in providers", c.FallbackProvider),
			}
		}
	}

	return nil
}

func (c *Config) clone() *Config {
	cp := &Config{
		DefaultProvider:  c.DefaultProvider,
		FallbackProvider: c.FallbackProvider,
		Providers:        make(map[string]*ProviderConfig, len(c.Providers)),
	}
	for name, p := range c.Providers {
		cp.Providers[name] = p.clone()
	}
	return cp
}

// ProviderSettings carries the fields an update may replace. Empty string
// fields keep the current value; Extras merge key-wise.
type ProviderSettings struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
	Extras       map[string]float64
}

// Update returns a new validated Config with providerName's settings merged
// in and default_provider switched to it. A provider absent from the config
// is created, falling back to its family's well-known base URL. A non-local
// target whose merged API key is empty fails with ConfigMissingCredential.
func (c *Config) Update(providerName string, settings ProviderSettings) (*Config, error) {
	next := c.clone()

	p, ok := next.Providers[providerName]
	if !ok {
		p = &ProviderConfig{Name: providerName, BaseURL: wellKnownBaseURL(providerName)}
		next.Providers[providerName] = p
	}

	if settings.BaseURL != "" {
		p.BaseURL = settings.BaseURL
	}
	if settings.APIKey != "" {
		p.APIKey = settings.APIKey
	}
	if settings.DefaultModel != "" {
		p.DefaultModel = settings.DefaultModel
	}
	for k, v := range settings.Extras {
		if p.Extras == nil {
			p.Extras = make(map[string]float64)
		}
		p.Extras[k] = v
	}

	if !IsLocalProvider(providerName) && strings.TrimSpace(p.APIKey) == "" {
		return nil, &ConfigError{
			Kind:    ConfigMissingCredential,
			Message: "provider " + providerName + ": api_key is required",
		}
	}

	next.DefaultProvider = providerName

	if err := next.Validate(); err != nil {
		return nil, err
	}

	return next, nil
}

// wellKnownBaseURL returns the conventional endpoint for providers created
// by name alone, so Update and TestConnection can target them without a
// pre-existing entry.
func wellKnownBaseURL(providerName string) string {
	switch {
	case IsLocalProvider(providerName):
		return "http://localhost:11434/api"
	case providerName == "anthropic":
		return "https://api.anthropic.com/v1"
	case providerName == "openrouter":
		return "https://openrouter.ai/api/v1"
	default:
		return "https://api.openai.com/v1"
	}
}
