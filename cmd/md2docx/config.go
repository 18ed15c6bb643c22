package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docfoundry/md2docx/internal/fileutil"
	"github.com/docfoundry/md2docx/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// Config holds file-based configuration for document generation.
// Flags override config values.
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Fonts    FontsConfig    `yaml:"fonts"`
	Renderer RendererConfig `yaml:"renderer"`
	Table    TableConfig    `yaml:"table"`
	Images   ImagesConfig   `yaml:"images"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = same directory as source
}

// FontsConfig defines the per-script font families.
type FontsConfig struct {
	Latin string `yaml:"latin"`
	CJK   string `yaml:"cjk"`
	Code  string `yaml:"code"`
}

// RendererConfig defines the external diagram renderer.
type RendererConfig struct {
	Command        string        `yaml:"command"` // empty = mmdc
	Args           []string      `yaml:"args"`
	Timeout        time.Duration `yaml:"timeout"`
	CacheDir       string        `yaml:"cacheDir"`
	CodeFallback   bool          `yaml:"codeFallback"`
	MaxConcurrency int           `yaml:"maxConcurrency"`
}

// TableConfig defines table layout in twips.
type TableConfig struct {
	Width          int `yaml:"width"`
	MinColumnWidth int `yaml:"minColumnWidth"`
}

// ImagesConfig caps image display dimensions in pixels at 96 DPI.
type ImagesConfig struct {
	MaxWidthPx  int `yaml:"maxWidthPx"`
	MaxHeightPx int `yaml:"maxHeightPx"`
}

// loadConfig loads configuration from a file path or config name.
// An empty nameOrPath returns a zero config without touching the disk.
func loadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return &Config{}, nil
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		resolved, err := resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
		configPath = resolved
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return &cfg, nil
}

// resolveConfigPath searches for a config file by name: current directory
// first, then the user config directory, trying .yaml and .yml.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	tried := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		local := name + ext
		if fileutil.FileExists(local) {
			return local, nil
		}
		tried = append(tried, local)
	}

	if userDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			path := filepath.Join(userDir, "md2docx", name+ext)
			if fileutil.FileExists(path) {
				return path, nil
			}
			tried = append(tried, path)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
