// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept in the file; API keys come from the
// environment or the OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/querylog"
	"sqlagent/cli/internal/session"
	"sqlagent/cli/internal/xdg"
)

// Environment variables read by Load.
const (
	EnvProvider      = "LLM_PROVIDER"
	EnvModel         = "LLM_MODEL"
	EnvBaseURL       = "LLM_BASE_URL"
	EnvGroqKey       = "GROQ_API_KEY"
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvMaxIterations = "AGENT_MAX_ITERATIONS"
	EnvTopK          = "AGENT_TOP_K"
	EnvSchemaMode    = "SCHEMA_MODE"
	EnvSchemaFile    = "SCHEMA_METADATA_FILE"
	EnvQueryLog      = "QUERY_LOG_FILE"
	EnvSession       = "SQLAGENT_SESSION"
	EnvVerbose       = "SQLAGENT_VERBOSE"
)

// Provider describes an OpenAI-compatible LLM endpoint.
type Provider struct {
	Name         string
	KeyEnv       string
	BaseURL      string
	DefaultModel string
}

// Providers lists the supported LLM providers in inference order.
var Providers = []Provider{
	{Name: "groq", KeyEnv: EnvGroqKey, BaseURL: "https://api.groq.com/openai/v1", DefaultModel: "openai/gpt-oss-120b"},
	{Name: "openrouter", KeyEnv: EnvOpenRouterKey, BaseURL: "https://openrouter.ai/api/v1", DefaultModel: "google/gemini-2.0-flash-exp:free"},
}

// LookupProvider finds a provider by name (case-insensitive).
func LookupProvider(name string) (Provider, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range Providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// Config holds CLI settings.
type Config struct {
	Provider      string `json:"provider,omitempty"`
	Model         string `json:"model,omitempty"`
	BaseURL       string `json:"base_url,omitempty"`
	MaxIterations int    `json:"max_iterations"`
	TopK          int    `json:"top_k"`
	SchemaMode    string `json:"schema_mode"`
	SchemaFile    string `json:"schema_file,omitempty"`
	QueryLog      string `json:"query_log"`
	Session       string `json:"session"`
	Verbose       bool   `json:"verbose,omitempty"`

	// APIKeys maps provider name to key. Never written to disk.
	APIKeys map[string]string `json:"-"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		MaxIterations: 15,
		TopK:          10,
		SchemaMode:    "auto",
		QueryLog:      querylog.DefaultPath,
		Session:       session.DefaultID,
		APIKeys:       map[string]string{},
	}
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file (missing file means defaults) and applies
// environment overrides through getenv.
func Load(getenv func(string) string) (Config, error) {
	c, err := LoadFile()
	if err != nil {
		return c, err
	}
	if err := c.applyEnv(getenv); err != nil {
		return c, err
	}
	return c, nil
}

// LoadFile reads only the config file; a missing file yields Defaults.
func LoadFile() (Config, error) {
	c := Defaults()
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, nil
	case err != nil:
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, apperrors.Wrap(apperrors.ConfigurationError, "invalid config file "+p, err)
	}
	if c.APIKeys == nil {
		c.APIKeys = map[string]string{}
	}
	return c, nil
}

// Remember records provider, and model when non-empty, as the defaults in the
// config file. Environment overrides are not written back.
func Remember(provider, model string) error {
	p, ok := LookupProvider(provider)
	if !ok {
		return apperrors.New(apperrors.ConfigurationError, fmt.Sprintf("unsupported provider: %s", provider))
	}
	c, err := LoadFile()
	if err != nil {
		return err
	}
	if c.Provider != p.Name {
		// a model picked for another provider would not exist here
		c.Model = ""
	}
	c.Provider = p.Name
	if model = strings.TrimSpace(model); model != "" {
		c.Model = model
	}
	return Save(c)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }
	set := func(dst *string, key string) {
		if v := get(key); v != "" {
			*dst = v
		}
	}

	set(&c.Provider, EnvProvider)
	set(&c.Model, EnvModel)
	set(&c.BaseURL, EnvBaseURL)
	set(&c.SchemaMode, EnvSchemaMode)
	set(&c.SchemaFile, EnvSchemaFile)
	set(&c.QueryLog, EnvQueryLog)
	set(&c.Session, EnvSession)
	if v := get(EnvVerbose); v != "" {
		c.Verbose = v == "1" || strings.EqualFold(v, "true")
	}

	for _, p := range Providers {
		if v := get(p.KeyEnv); v != "" {
			c.APIKeys[p.Name] = v
		}
	}

	for key, dst := range map[string]*int{EnvMaxIterations: &c.MaxIterations, EnvTopK: &c.TopK} {
		v := get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return apperrors.New(apperrors.ConfigurationError, fmt.Sprintf("%s must be a positive integer, got %q", key, v))
		}
		*dst = n
	}

	if c.Provider != "" {
		if _, ok := LookupProvider(c.Provider); !ok {
			return apperrors.New(apperrors.ConfigurationError, fmt.Sprintf("unsupported %s: %s (use groq or openrouter)", EnvProvider, c.Provider))
		}
		c.Provider = strings.ToLower(c.Provider)
	}
	return nil
}

// LLM returns the selected provider, the model and base URL to use, and its key.
// Without an explicit provider the first one with a key wins; groq otherwise.
func (c Config) LLM() (p Provider, model, baseURL, apiKey string) {
	p = Providers[0]
	if explicit, ok := LookupProvider(c.Provider); ok {
		p = explicit
	} else {
		for _, cand := range Providers {
			if c.APIKeys[cand.Name] != "" {
				p = cand
				break
			}
		}
	}

	model, baseURL = c.Model, c.BaseURL
	if model == "" {
		model = p.DefaultModel
	}
	if baseURL == "" {
		baseURL = p.BaseURL
	}
	return p, model, baseURL, c.APIKeys[p.Name]
}

// FillFromKeychain loads keys missing from the environment through load,
// usually keychain.Manager.LoadAPIKey. Lookup errors leave the key empty.
func (c *Config) FillFromKeychain(load func(provider string) (string, error)) {
	if c.APIKeys == nil {
		c.APIKeys = map[string]string{}
	}
	for _, p := range Providers {
		if c.APIKeys[p.Name] != "" {
			continue
		}
		if v, err := load(p.Name); err == nil && v != "" {
			c.APIKeys[p.Name] = v
		}
	}
}

// Save writes configuration with 0600 permissions. API keys are not written.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
