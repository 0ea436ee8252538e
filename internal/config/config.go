package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds server configuration. Values are resolved in order:
// yaml file, then .env file, then real environment variables (env wins).
type Config struct {
	Port            string   `yaml:"port"`
	DatabasePath    string   `yaml:"database_path"`
	GinMode         string   `yaml:"gin_mode"`
	SessionHashKey  string   `yaml:"session_hash_key"`  // hex, 32 bytes
	SessionBlockKey string   `yaml:"session_block_key"` // hex, 32 bytes
	AllowedOrigins  []string `yaml:"allowed_origins"`
	SecureCookies   bool     `yaml:"secure_cookies"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Port:         "8080",
		DatabasePath: "cafes.db",
		GinMode:      "debug",
	}
}

// Load reads configuration. path may be "" to skip the yaml file.
// A missing yaml or .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// .env feeds the environment; real env vars still take precedence
	// because godotenv does not overwrite existing keys.
	_ = godotenv.Load()

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.GinMode = v
	}
	if v := os.Getenv("SESSION_HASH_KEY"); v != "" {
		c.SessionHashKey = v
	}
	if v := os.Getenv("SESSION_BLOCK_KEY"); v != "" {
		c.SessionBlockKey = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = append(c.AllowedOrigins, v)
	}
	if v := os.Getenv("SECURE_COOKIES"); v == "true" || v == "1" {
		c.SecureCookies = true
	}
}

// Save writes the configuration as yaml.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
