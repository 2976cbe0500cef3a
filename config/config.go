package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the pipeline's file-based configuration. Connection secrets stay
// in the environment; this file carries everything operators tune.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	LLM     LLMConfig     `yaml:"llm"`
	Worker  WorkerConfig  `yaml:"worker"`
	Watcher WatcherConfig `yaml:"watcher"`
	YouTube YouTubeConfig `yaml:"youtube"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	Bucket string `yaml:"bucket"`
}

type LLMConfig struct {
	DefaultModel string `yaml:"default_model"`
}

type WorkerConfig struct {
	MaxWorkers   int `yaml:"max_workers"`
	JobQueueSize int `yaml:"job_queue_size"`
}

type WatcherConfig struct {
	Enabled  bool   `yaml:"enabled"`
	InboxDir string `yaml:"inbox_dir"`
}

type YouTubeConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings and fills defaults.
func (c *Config) Validate() error {
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}
	if c.Watcher.Enabled && c.Watcher.InboxDir == "" {
		return fmt.Errorf("watcher.inbox_dir is required when the watcher is enabled")
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Worker.MaxWorkers == 0 {
		c.Worker.MaxWorkers = 2
	}
	if c.Worker.JobQueueSize == 0 {
		c.Worker.JobQueueSize = 50
	}
	if c.LLM.DefaultModel == "" {
		c.LLM.DefaultModel = "gemini-2.5-flash"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}
