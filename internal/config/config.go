package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the client settings read from ~/.config/zindi/config.toml.
type Config struct {
	APIBase   string
	UserAgent string
	Timeout   time.Duration
	LogLevel  string
}

const (
	defaultConfigPath = "~/.config/zindi/config.toml"
	defaultAPIBase    = "https://api.zindi.africa/v1"
	defaultUserAgent  = "zindi-go/0.1"
	defaultTimeoutSec = 30
)

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIBase:   defaultAPIBase,
		UserAgent: defaultUserAgent,
		Timeout:   defaultTimeoutSec * time.Second,
		LogLevel:  "info",
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase    string `toml:"api_base"`
		UserAgent  string `toml:"user_agent"`
		TimeoutSec int    `toml:"timeout_seconds"`
		LogLevel   string `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if base := strings.TrimSpace(raw.APIBase); base != "" {
		cfg.APIBase = base
	}
	if agent := strings.TrimSpace(raw.UserAgent); agent != "" {
		cfg.UserAgent = agent
	}
	if raw.TimeoutSec > 0 {
		cfg.Timeout = time.Duration(raw.TimeoutSec) * time.Second
	}
	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
