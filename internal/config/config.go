package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RedisConfig holds the connection settings for Redis, which backs both the
// answer cache and the rate counters.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig holds the connection settings for the relational store.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// MilvusConfig holds the connection settings for the similarity index.
type MilvusConfig struct {
	Address        string `yaml:"address"`
	CollectionName string `yaml:"collectionName"`
}

// MinIOConfig holds the connection settings for raw document storage.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// KafkaConfig holds the broker list for the security audit topic.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// DatabaseConfigs groups every backing store the service talks to.
type DatabaseConfigs struct {
	Redis  RedisConfig  `yaml:"redis"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Milvus MilvusConfig `yaml:"milvus"`
	MinIO  MinIOConfig  `yaml:"minio"`
	Kafka  KafkaConfig  `yaml:"kafka"`
}

// OpenAIConfig configures the hosted embedding/completion provider.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OllamaConfig configures the local embedding/completion provider.
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// LLMConfig selects and configures the answer synthesis provider.
type LLMConfig struct {
	Provider string       `yaml:"provider"` // "openai" or "ollama"
	OpenAI   OpenAIConfig `yaml:"openai"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string       `yaml:"provider"` // "openai" or "ollama"
	Dimension int          `yaml:"dimension"`
	OpenAI    OpenAIConfig `yaml:"openai"`
	Ollama    OllamaConfig `yaml:"ollama"`
}

// RetrievalConfig holds the chunking and search parameters.
type RetrievalConfig struct {
	ChunkSize           int     `yaml:"chunkSize"`           // tokens
	ChunkOverlap        int     `yaml:"chunkOverlap"`        // tokens
	TopKChunks          int     `yaml:"topKChunks"`
	SimilarityThreshold float32 `yaml:"similarityThreshold"`
}

// RateLimitConfig holds the per-tenant fixed-window limits.
type RateLimitConfig struct {
	QueriesPerMinute int `yaml:"queriesPerMinute"`
	UploadsPerMinute int `yaml:"uploadsPerMinute"`
}

// CacheConfig holds the answer cache settings.
type CacheConfig struct {
	TTLSeconds int `yaml:"ttlSeconds"`
}

// AuthConfig holds the tenant authentication settings.
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"`
}

// AppInfo describes the running application.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	ListenAddr  string `yaml:"listenAddr"`
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Auth      AuthConfig      `yaml:"auth"`
	Logger    LoggerConfig    `yaml:"logger"`
	Databases DatabaseConfigs `yaml:"databases"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Cache     CacheConfig     `yaml:"cache"`
}

// LoadConfig reads and parses the YAML configuration file at the given path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in the retrieval, rate-limit and cache parameters that
// are optional in the YAML file.
func (c *AppConfig) applyDefaults() {
	if c.App.ListenAddr == "" {
		c.App.ListenAddr = ":8080"
	}
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 1536
	}
	if c.Retrieval.ChunkSize == 0 {
		c.Retrieval.ChunkSize = 500
	}
	if c.Retrieval.ChunkOverlap == 0 {
		c.Retrieval.ChunkOverlap = 50
	}
	if c.Retrieval.TopKChunks == 0 {
		c.Retrieval.TopKChunks = 5
	}
	if c.Retrieval.SimilarityThreshold == 0 {
		c.Retrieval.SimilarityThreshold = 0.7
	}
	if c.RateLimit.QueriesPerMinute == 0 {
		c.RateLimit.QueriesPerMinute = 10
	}
	if c.RateLimit.UploadsPerMinute == 0 {
		c.RateLimit.UploadsPerMinute = 10
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 3600
	}
}
