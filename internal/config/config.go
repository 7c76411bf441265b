// Package config builds the explicit configuration structs handed to the
// gateway and the chat client at startup. Nothing else in the module reads
// the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultProviderBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultModel           = "qwen-plus"
	DefaultPrompt          = "帮我简单介绍下next.js"
	DefaultProviderTimeout = 60 * time.Second
	DefaultGatewayURL      = "http://localhost:8080"
)

// DefaultModels is the closed set offered by the model picker.
var DefaultModels = []string{"qwen-plus", "gpt-4o", "gpt-4o-mini"}

// Gateway configures the completion gateway process.
type Gateway struct {
	APIKey          string
	APIKeyParam     string
	BaseURL         string
	DefaultModel    string
	DefaultPrompt   string
	ProviderTimeout time.Duration
	// ListenAddr, when set, serves over plain HTTP instead of Lambda.
	ListenAddr string
}

// LoadGateway reads the gateway settings through getenv. A missing API key
// is not an error.
func LoadGateway(getenv func(string) string) (Gateway, error) {
	cfg := Gateway{
		APIKey:          strings.TrimSpace(getenv("OPENAI_API_KEY")),
		APIKeyParam:     strings.TrimSpace(getenv("OPENAI_API_KEY_PARAM")),
		BaseURL:         envOr(getenv, "OPENAI_BASE_URL", DefaultProviderBaseURL),
		DefaultModel:    envOr(getenv, "DEFAULT_MODEL", DefaultModel),
		DefaultPrompt:   envOr(getenv, "DEFAULT_PROMPT", DefaultPrompt),
		ProviderTimeout: DefaultProviderTimeout,
		ListenAddr:      strings.TrimSpace(getenv("GATEWAY_LISTEN_ADDR")),
	}

	if v := strings.TrimSpace(getenv("PROVIDER_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Gateway{}, fmt.Errorf("config: PROVIDER_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return Gateway{}, errors.New("config: PROVIDER_TIMEOUT must be positive")
		}
		cfg.ProviderTimeout = d
	}
	if err := validateURL("OPENAI_BASE_URL", cfg.BaseURL); err != nil {
		return Gateway{}, err
	}
	return cfg, nil
}

// Client configures the terminal chat client.
type Client struct {
	GatewayURL   string   `toml:"gateway_url"`
	DefaultModel string   `toml:"default_model"`
	Models       []string `toml:"models"`
	LogFile      string   `toml:"log_file"`
}

func DefaultClient() Client {
	return Client{
		GatewayURL:   DefaultGatewayURL,
		DefaultModel: DefaultModel,
		Models:       slices.Clone(DefaultModels),
	}
}

// LoadClient starts from DefaultClient, overlays the TOML file at path (if
// path is non-empty) and then CHAT_GATEWAY_URL / CHAT_MODEL.
func LoadClient(path string, getenv func(string) string) (Client, error) {
	cfg := DefaultClient()

	if path != "" {
		var file Client
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return Client{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
		cfg.merge(file)
	}

	cfg.GatewayURL = envOr(getenv, "CHAT_GATEWAY_URL", cfg.GatewayURL)
	cfg.DefaultModel = envOr(getenv, "CHAT_MODEL", cfg.DefaultModel)

	if err := cfg.Validate(); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

func (c *Client) merge(o Client) {
	if o.GatewayURL != "" {
		c.GatewayURL = o.GatewayURL
	}
	if o.DefaultModel != "" {
		c.DefaultModel = o.DefaultModel
	}
	if len(o.Models) > 0 {
		c.Models = o.Models
	}
	if o.LogFile != "" {
		c.LogFile = o.LogFile
	}
}

func (c Client) Validate() error {
	if err := validateURL("gateway_url", c.GatewayURL); err != nil {
		return err
	}
	if len(c.Models) == 0 {
		return errors.New("config: models must not be empty")
	}
	for _, m := range c.Models {
		if strings.TrimSpace(m) == "" {
			return errors.New("config: models must not contain blank names")
		}
	}
	if !slices.Contains(c.Models, c.DefaultModel) {
		return fmt.Errorf("config: default model %q is not in models %v", c.DefaultModel, c.Models)
	}
	return nil
}

func envOr(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: %s must be an http(s) URL, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("config: %s is missing a host", name)
	}
	return nil
}
