// Package config loads the CLI's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/avezou/go-chromepdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// Config holds all configuration for PDF generation.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Page    PageConfig    `yaml:"page"`
	Footer  FooterConfig  `yaml:"footer"`
	Wait    WaitConfig    `yaml:"wait"`
	Output  OutputConfig  `yaml:"output"`
}

// BrowserConfig defines how the headless browser is launched.
type BrowserConfig struct {
	ExecPath          string   `yaml:"execPath"`          // Explicit binary (empty = discover)
	NoSandbox         bool     `yaml:"noSandbox"`         // Required in most Docker images
	DisableDevShm     bool     `yaml:"disableDevShm"`     // Required when /dev/shm is tiny
	UserDataDir       string   `yaml:"userDataDir"`       // Existing profile dir (empty = owned temp)
	ExtraFlags        []string `yaml:"extraFlags"`        // Appended last, override defaults
	StartupTimeoutMs  int      `yaml:"startupTimeoutMs"`  // 0 = default
	ShutdownTimeoutMs int      `yaml:"shutdownTimeoutMs"` // 0 = default
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal" (default: "letter")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // inches (default: 0.5)
	Scale       float64 `yaml:"scale"`       // 0 = 1.0
}

// FooterConfig defines page footer options.
type FooterConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Position       string `yaml:"position"` // "left", "center", "right" (default: "right")
	ShowPageNumber bool   `yaml:"showPageNumber"`
	Date           string `yaml:"date"`   // Optional, format YYYY-MM-DD
	Status         string `yaml:"status"` // Optional: "DRAFT", "FINAL", "v1.2"
	Text           string `yaml:"text"`   // Optional free-form text
}

// WaitConfig defines the default readiness condition.
type WaitConfig struct {
	Mode        string `yaml:"mode"`        // "load", "delay", "network-idle", "element", "expression"
	DelayMs     int    `yaml:"delayMs"`     // for mode "delay"
	QuietMs     int    `yaml:"quietMs"`     // for mode "network-idle" (0 = default)
	MaxInflight int    `yaml:"maxInflight"` // for mode "network-idle"
	Selector    string `yaml:"selector"`    // for mode "element"
	VisibleOnly bool   `yaml:"visibleOnly"` // for mode "element"
	Expression  string `yaml:"expression"`  // for mode "expression"
	PollMs      int    `yaml:"pollMs"`      // for polling modes (0 = default)
	TimeoutMs   int    `yaml:"timeoutMs"`   // overall wait bound (0 = conversion timeout)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
}

// Load reads and parses the config file at path.
// Unknown fields are rejected to catch typos early.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is user-supplied CLI input
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return &cfg, nil
}
