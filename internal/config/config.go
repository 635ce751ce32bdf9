package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr           = ":8501"
	defaultCollection     = "smartwaste"
	defaultTopK           = 4
	defaultTemperature    = 0.7
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultEmbeddingModel = "text-embedding-ada-002"
	defaultChatModel      = "gpt-3.5-turbo"
	defaultLogLevel       = "debug"
	defaultQuestion       = "¿De qué trata este proyecto?"
)

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Index    IndexConfig  `yaml:"index"`
	EmbedLLM LLMConfig    `yaml:"embed_llm"`
	ChatLLM  LLMConfig    `yaml:"chat_llm"`
	RAG      RAGConfig    `yaml:"rag"`
	Log      LogConfig    `yaml:"log"`
	Site     SiteConfig   `yaml:"site"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`
	GinMode string `yaml:"gin_mode"`
}

// IndexConfig points at the prebuilt index. Path is a chromem-go directory,
// an exported chromem-go file or a postgres DSN.
type IndexConfig struct {
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
	Debug         bool   `yaml:"debug"`
}

// LLMConfig is an OpenAI-compatible endpoint. The key is supplied by the user
// at runtime, never from the file.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type RAGConfig struct {
	TopK int `yaml:"top_k"`
	// Temperature is nil when unset so that an explicit 0 survives defaulting.
	Temperature     *float64 `yaml:"temperature"`
	DefaultQuestion string   `yaml:"default_question"`
}

// SamplingTemperature returns the configured temperature, or the default when unset.
func (r RAGConfig) SamplingTemperature() float64 {
	if r.Temperature == nil {
		return defaultTemperature
	}
	return *r.Temperature
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type SiteConfig struct {
	Title      string      `yaml:"title"`
	Home       string      `yaml:"home"`
	About      string      `yaml:"about"`
	Footer     string      `yaml:"footer"`
	Dashboards []Dashboard `yaml:"dashboards"`
	Team       []Member    `yaml:"team"`
}

type Dashboard struct {
	Tab         string `yaml:"tab"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
}

type Member struct {
	Name   string `yaml:"name"`
	Avatar string `yaml:"avatar"`
	GitHub string `yaml:"github"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.GinMode == "" {
		c.Server.GinMode = "release"
	}
	if c.Index.Collection == "" {
		c.Index.Collection = defaultCollection
	}
	if c.EmbedLLM.BaseURL == "" {
		c.EmbedLLM.BaseURL = defaultOpenAIBaseURL
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = defaultEmbeddingModel
	}
	if c.ChatLLM.BaseURL == "" {
		c.ChatLLM.BaseURL = defaultOpenAIBaseURL
	}
	if c.ChatLLM.Model == "" {
		c.ChatLLM.Model = defaultChatModel
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.Temperature == nil {
		t := defaultTemperature
		c.RAG.Temperature = &t
	}
	if c.RAG.DefaultQuestion == "" {
		c.RAG.DefaultQuestion = defaultQuestion
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Site.Title == "" {
		c.Site.Title = "Proyecto Smart Waste"
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Index.Path) == "" {
		return fmt.Errorf("index.path is required")
	}
	if t := c.RAG.SamplingTemperature(); t < 0 || t > 2 {
		return fmt.Errorf("rag.temperature must be within [0, 2], got %v", t)
	}
	for i, d := range c.Site.Dashboards {
		if d.URL == "" {
			return fmt.Errorf("site.dashboards[%d].url is required", i)
		}
	}
	return nil
}
