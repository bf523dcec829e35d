package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
	RateLimit  int    `yaml:"rate_limit"`
	RateBurst  int    `yaml:"rate_burst"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	// KeyEnv names the environment variable holding the API key. The key
	// itself never lives in the YAML file.
	KeyEnv string `yaml:"key_env"`
	Key    string `yaml:"-"`
}

type RAGConfig struct {
	DocumentPath string `yaml:"document_path"`
	IndexPath    string `yaml:"index_path"`
	Collection   string `yaml:"collection"`
	TopK         int    `yaml:"top_k"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	// Rebuild forces a full re-ingestion of the source document. Set from
	// the -rebuild flag in main, never read from process arguments here.
	Rebuild bool `yaml:"-"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type AuthConfig struct {
	JWTSecretEnv    string `yaml:"jwt_secret_env"`
	JWTSecret       string `yaml:"-"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	ChatLLM  LLMConfig      `yaml:"chat_llm"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	RAG      RAGConfig      `yaml:"rag"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := resolveSecrets(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8000"
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "http://localhost:3000"
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 5
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 10
	}
	if cfg.ChatLLM.KeyEnv == "" {
		cfg.ChatLLM.KeyEnv = "OPENAI_API_KEY"
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "openai"
	}
	if cfg.EmbedLLM.KeyEnv == "" {
		cfg.EmbedLLM.KeyEnv = cfg.ChatLLM.KeyEnv
	}
	if cfg.RAG.IndexPath == "" {
		cfg.RAG.IndexPath = "./vectorstore"
	}
	if cfg.RAG.Collection == "" {
		cfg.RAG.Collection = "documents"
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 3
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 150
	}
	if cfg.Auth.JWTSecretEnv == "" {
		cfg.Auth.JWTSecretEnv = "JWT_SECRET"
	}
	if cfg.Auth.TokenTTLMinutes == 0 {
		cfg.Auth.TokenTTLMinutes = 30
	}
}

func resolveSecrets(cfg *Config) error {
	cfg.ChatLLM.Key = os.Getenv(cfg.ChatLLM.KeyEnv)
	if cfg.ChatLLM.Key == "" {
		return fmt.Errorf("missing API key: environment variable %s is not set", cfg.ChatLLM.KeyEnv)
	}
	cfg.EmbedLLM.Key = os.Getenv(cfg.EmbedLLM.KeyEnv)
	cfg.Auth.JWTSecret = os.Getenv(cfg.Auth.JWTSecretEnv)
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("missing JWT secret: environment variable %s is not set", cfg.Auth.JWTSecretEnv)
	}
	return nil
}
