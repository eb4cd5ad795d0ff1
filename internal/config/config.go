package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig holds connection settings for one model endpoint. The same shape
// serves both the embedding model and the inference model.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" (openai-compatible) or "ollama"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkSize      int    `yaml:"chunk_size"`
	ChunkOverlap   int    `yaml:"chunk_overlap"`
	TopK           int    `yaml:"top_k"`
	VectorDBPath   string `yaml:"vector_db_path"`
	CollectionName string `yaml:"collection_name"`
	EncryptionKey  string `yaml:"encryption_key"`
	// GenerationTimeout bounds a single LLM call, in seconds.
	GenerationTimeout int `yaml:"generation_timeout"`
}

type WorkerConfig struct {
	QueueSize int    `yaml:"queue_size"`
	UploadDir string `yaml:"upload_dir"`
}

type Config struct {
	Database     DatabaseConfig `yaml:"database"`
	EmbedLLM     LLMConfig      `yaml:"embed_llm"`
	InferenceLLM LLMConfig      `yaml:"inference_llm"`
	RAG          RAGConfig      `yaml:"rag"`
	Worker       WorkerConfig   `yaml:"worker"`
}

const (
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 200
	DefaultTopK              = 5
	DefaultQueueSize         = 16
	DefaultGenerationTimeout = 60
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values so a partial config file still yields a
// working pipeline.
func (c *Config) ApplyDefaults() {
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = DefaultChunkSize
	}
	if c.RAG.ChunkOverlap <= 0 {
		c.RAG.ChunkOverlap = DefaultChunkOverlap
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = DefaultTopK
	}
	if c.RAG.GenerationTimeout <= 0 {
		c.RAG.GenerationTimeout = DefaultGenerationTimeout
	}
	if c.RAG.CollectionName == "" {
		c.RAG.CollectionName = "fund_documents"
	}
	if c.RAG.VectorDBPath == "" {
		c.RAG.VectorDBPath = "./chromemdb"
	}
	if c.Worker.QueueSize <= 0 {
		c.Worker.QueueSize = DefaultQueueSize
	}
	if c.Worker.UploadDir == "" {
		c.Worker.UploadDir = "./uploads"
	}
}
