package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinCommitDelayMs is the smallest accepted debounce window.
const MinCommitDelayMs = 5000

// ProjectFiles are looked up in the workspace root, in order; the first one
// that exists wins.
var ProjectFiles = []string{".autocommit.json", ".autocommit.yaml", ".autocommit.yml"}

// Config is an immutable snapshot of the auto-commit options.
type Config struct {
	CommitDelayMs         int      `json:"commitDelayMs" yaml:"commitDelayMs"`
	PushAfterCommit       bool     `json:"pushAfterCommit" yaml:"pushAfterCommit"`
	ExcludePatterns       []string `json:"excludePatterns" yaml:"excludePatterns"`
	CommitMessageTemplate string   `json:"commitMessageTemplate" yaml:"commitMessageTemplate"`
	DetailedCommitMessage bool     `json:"detailedCommitMessage" yaml:"detailedCommitMessage"`
	MaxFilesToList        int      `json:"maxFilesToList" yaml:"maxFilesToList"`
	MaxRetries            int      `json:"maxRetries" yaml:"maxRetries"`
	RetryDelayMs          int      `json:"retryDelayMs" yaml:"retryDelayMs"`
	NotifyOnCommit        bool     `json:"notifyOnCommit" yaml:"notifyOnCommit"`
	CommitOnlyWithChanges bool     `json:"commitOnlyWithChanges" yaml:"commitOnlyWithChanges"`
	ConfirmBeforePush     bool     `json:"confirmBeforePush" yaml:"confirmBeforePush"`
	CommandTimeoutMs      int      `json:"commandTimeoutMs" yaml:"commandTimeoutMs"`
}

// File is the on-disk form of a config file. Absent keys stay nil so they
// never override a lower-precedence value.
type File struct {
	CommitDelayMs         *int     `json:"commitDelayMs,omitempty" yaml:"commitDelayMs,omitempty"`
	PushAfterCommit       *bool    `json:"pushAfterCommit,omitempty" yaml:"pushAfterCommit,omitempty"`
	ExcludePatterns       []string `json:"excludePatterns,omitempty" yaml:"excludePatterns,omitempty"`
	CommitMessageTemplate *string  `json:"commitMessageTemplate,omitempty" yaml:"commitMessageTemplate,omitempty"`
	DetailedCommitMessage *bool    `json:"detailedCommitMessage,omitempty" yaml:"detailedCommitMessage,omitempty"`
	MaxFilesToList        *int     `json:"maxFilesToList,omitempty" yaml:"maxFilesToList,omitempty"`
	MaxRetries            *int     `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	RetryDelayMs          *int     `json:"retryDelayMs,omitempty" yaml:"retryDelayMs,omitempty"`
	NotifyOnCommit        *bool    `json:"notifyOnCommit,omitempty" yaml:"notifyOnCommit,omitempty"`
	CommitOnlyWithChanges *bool    `json:"commitOnlyWithChanges,omitempty" yaml:"commitOnlyWithChanges,omitempty"`
	ConfirmBeforePush     *bool    `json:"confirmBeforePush,omitempty" yaml:"confirmBeforePush,omitempty"`
	CommandTimeoutMs      *int     `json:"commandTimeoutMs,omitempty" yaml:"commandTimeoutMs,omitempty"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		CommitDelayMs:   30000,
		PushAfterCommit: true,
		ExcludePatterns: []string{
			"**/node_modules/**",
			"**/.git/**",
			"**/*.log",
			"**/dist/**",
			"**/out/**",
		},
		CommitMessageTemplate: "Auto commit: {date} - {files} files changed",
		DetailedCommitMessage: true,
		MaxFilesToList:        10,
		MaxRetries:            3,
		RetryDelayMs:          2000,
		NotifyOnCommit:        true,
		CommitOnlyWithChanges: true,
		ConfirmBeforePush:     false,
		CommandTimeoutMs:      120000,
	}
}

// CommitDelay returns the debounce window.
func (c Config) CommitDelay() time.Duration {
	return time.Duration(c.CommitDelayMs) * time.Millisecond
}

// RetryDelay returns the wait between command attempts.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// CommandTimeout returns the per-command timeout; zero disables it.
func (c Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutMs) * time.Millisecond
}

// Validate checks every field and returns the first violation as a
// *ConfigError wrapping ErrInvalidConfiguration.
func (c Config) Validate() error {
	switch {
	case c.CommitDelayMs < MinCommitDelayMs:
		return NewConfigError("commitDelayMs", c.CommitDelayMs, fmt.Errorf("must be at least %d", MinCommitDelayMs))
	case c.MaxFilesToList < 0:
		return NewConfigError("maxFilesToList", c.MaxFilesToList, errors.New("must not be negative"))
	case c.MaxRetries < 0:
		return NewConfigError("maxRetries", c.MaxRetries, errors.New("must not be negative"))
	case c.RetryDelayMs < 0:
		return NewConfigError("retryDelayMs", c.RetryDelayMs, errors.New("must not be negative"))
	case c.CommandTimeoutMs < 0:
		return NewConfigError("commandTimeoutMs", c.CommandTimeoutMs, errors.New("must not be negative"))
	}
	for _, p := range c.ExcludePatterns {
		if strings.TrimSpace(p) == "" {
			return NewConfigError("excludePatterns", c.ExcludePatterns, errors.New("patterns must not be empty"))
		}
	}
	return nil
}

// GlobalPath returns $XDG_CONFIG_HOME/autocommit/config.json, falling back
// to ~/.config/autocommit/config.json.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "autocommit", "config.json"), nil
}

// ProjectPath returns the project config file in root, or the default
// .autocommit.json path when none exists yet.
func ProjectPath(root string) string {
	for _, name := range ProjectFiles {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(root, ProjectFiles[0])
}

// LoadGlobal reads the global config file.
// Returns nil (no error) if the file is absent.
func LoadGlobal() (*File, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path)
}

// LoadProject reads the project config file in root.
// Returns nil (no error) if the file is absent.
func LoadProject(root string) (*File, error) {
	return loadFile(ProjectPath(root))
}

// Load reads, merges and validates the global and project configuration
// for root.
func Load(root string) (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject(root)
	if err != nil {
		return Config{}, err
	}
	cfg := Merge(global, project)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile reads and parses a JSON or YAML config file at path, choosing the
// decoder by extension. Returns nil when the file is absent.
func loadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &f, nil
}

// Save writes f as indented JSON to path, creating the directory if needed.
func Save(path string, f *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Merge combines global and project files, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *File) Config {
	result := Defaults()
	global.applyTo(&result)
	project.applyTo(&result)
	return result
}

// applyTo copies every set field of f onto c.
func (f *File) applyTo(c *Config) {
	if f == nil {
		return
	}
	if f.CommitDelayMs != nil {
		c.CommitDelayMs = *f.CommitDelayMs
	}
	if f.PushAfterCommit != nil {
		c.PushAfterCommit = *f.PushAfterCommit
	}
	if f.ExcludePatterns != nil {
		c.ExcludePatterns = append([]string(nil), f.ExcludePatterns...)
	}
	if f.CommitMessageTemplate != nil {
		c.CommitMessageTemplate = *f.CommitMessageTemplate
	}
	if f.DetailedCommitMessage != nil {
		c.DetailedCommitMessage = *f.DetailedCommitMessage
	}
	if f.MaxFilesToList != nil {
		c.MaxFilesToList = *f.MaxFilesToList
	}
	if f.MaxRetries != nil {
		c.MaxRetries = *f.MaxRetries
	}
	if f.RetryDelayMs != nil {
		c.RetryDelayMs = *f.RetryDelayMs
	}
	if f.NotifyOnCommit != nil {
		c.NotifyOnCommit = *f.NotifyOnCommit
	}
	if f.CommitOnlyWithChanges != nil {
		c.CommitOnlyWithChanges = *f.CommitOnlyWithChanges
	}
	if f.ConfirmBeforePush != nil {
		c.ConfirmBeforePush = *f.ConfirmBeforePush
	}
	if f.CommandTimeoutMs != nil {
		c.CommandTimeoutMs = *f.CommandTimeoutMs
	}
}

// FileFrom returns a File with every field of c set.
func FileFrom(c Config) *File {
	patterns := append([]string(nil), c.ExcludePatterns...)
	return &File{
		CommitDelayMs:         &c.CommitDelayMs,
		PushAfterCommit:       &c.PushAfterCommit,
		ExcludePatterns:       patterns,
		CommitMessageTemplate: &c.CommitMessageTemplate,
		DetailedCommitMessage: &c.DetailedCommitMessage,
		MaxFilesToList:        &c.MaxFilesToList,
		MaxRetries:            &c.MaxRetries,
		RetryDelayMs:          &c.RetryDelayMs,
		NotifyOnCommit:        &c.NotifyOnCommit,
		CommitOnlyWithChanges: &c.CommitOnlyWithChanges,
		ConfirmBeforePush:     &c.ConfirmBeforePush,
		CommandTimeoutMs:      &c.CommandTimeoutMs,
	}
}
