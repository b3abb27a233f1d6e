// Package config loads tinypic settings from an optional YAML file.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/scy/cred/secret"
	"github.com/viant/tinypic/cache"
	"github.com/viant/tinypic/matching/option"
	"github.com/viant/tinypic/optimizer"
	"github.com/viant/tinypic/tinify"
	"gopkg.in/yaml.v3"
)

// DefaultKeyTemplate expands API key from a secret password
const DefaultKeyTemplate = "${Password}"

// Config defines tinypic settings, flags override loaded values.
type Config struct {
	Key         string   `yaml:"key,omitempty"`
	Secret      string   `yaml:"secret,omitempty"`
	Concurrency int      `yaml:"concurrency"`
	Rate        float64  `yaml:"rate"`
	Digest      string   `yaml:"digest"`
	Suffix      string   `yaml:"suffix"`
	Exclude     []string `yaml:"exclude"`
	Ignore      string   `yaml:"ignore"`
	MaxFileSize int      `yaml:"max_size_bytes"`
	Journal     string   `yaml:"journal"`
	BaseURL     string   `yaml:"baseURL"`
}

// Load reads config from path
func Load(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// ResolveKey returns API key expanded from secret when set, Key being the template,
// otherwise Key or TINYPNG_API_KEY environment variable.
func (c *Config) ResolveKey(ctx context.Context) (string, error) {
	if ref := strings.TrimSpace(c.Secret); ref != "" {
		template := c.Key
		if template == "" {
			template = DefaultKeyTemplate
		}
		sec, err := secret.New().Lookup(ctx, secret.Resource(ref))
		if err != nil {
			return "", fmt.Errorf("secret %s: %w", ref, err)
		}
		return strings.TrimSpace(sec.Expand(template)), nil
	}
	if key := strings.TrimSpace(c.Key); key != "" {
		return key, nil
	}
	return strings.TrimSpace(os.Getenv(tinify.KeyEnv)), nil
}

// Optimizer returns the traversal configuration
func (c *Config) Optimizer(version string) (optimizer.Config, error) {
	digest, err := cache.ParseDigest(c.Digest)
	if err != nil {
		return optimizer.Config{}, err
	}
	exclusions := append([]string{}, c.Exclude...)
	if c.Ignore != "" {
		patterns, err := loadIgnore(c.Ignore)
		if err != nil {
			return optimizer.Config{}, err
		}
		exclusions = append(exclusions, patterns...)
	}
	return optimizer.Config{
		Version:     version,
		Digest:      digest,
		Concurrency: c.Concurrency,
		Suffix:      c.Suffix,
		Exclusions:  exclusions,
		MaxFileSize: c.MaxFileSize,
	}, nil
}

// JournalPath returns journal location with ~ expanded
func (c *Config) JournalPath() (string, error) {
	return expandUserPath(c.Journal)
}

// loadIgnore reads .gitignore style exclusion patterns
func loadIgnore(path string) ([]string, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ignore file: %w", err)
	}
	defer f.Close()
	return option.ParseGitignore(f), nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	return filepath.Join(home, trimmed[2:]), nil
}
