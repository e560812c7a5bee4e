package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/justyntemme/linga-t/internal/comic"
)

const (
	DefaultServerAddr = ":8080"
	configFileName    = "config.yaml"
	configDirName     = "linga-t"
	logFileName       = "linga-t.log"
	MaxRecentlyRead   = 10 // Maximum number of recently read books to track
)

// RecentlyReadEntry represents a recently read book
type RecentlyReadEntry struct {
	BookID   string    `yaml:"book_id"`
	Title    string    `yaml:"title"`
	OpenedAt time.Time `yaml:"opened_at"`
}

// ReaderConfig holds the reading modes used for books opened the first time
type ReaderConfig struct {
	FitMode     string `yaml:"fit_mode,omitempty"`
	RightToLeft bool   `yaml:"right_to_left,omitempty"`
	DualPage    bool   `yaml:"dual_page,omitempty"`
}

// ServerConfig configures the serve command
type ServerConfig struct {
	Addr          string `yaml:"addr,omitempty"`
	LibraryPath   string `yaml:"library_path,omitempty"`
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	Token         string `yaml:"token,omitempty"`
}

// Config holds the application configuration
type Config struct {
	ServerURL    string              `yaml:"server_url,omitempty"`
	Token        string              `yaml:"token,omitempty"`
	DeviceID     string              `yaml:"device_id"`
	LibraryPath  string              `yaml:"library_path,omitempty"`
	DataDir      string              `yaml:"data_dir,omitempty"`
	Reader       ReaderConfig        `yaml:"reader"`
	RecentlyRead []RecentlyReadEntry `yaml:"recently_read,omitempty"`
	Logging      LoggingConfig       `yaml:"logging"`
	Server       ServerConfig        `yaml:"server"`

	// Path to config file (not persisted)
	path string
	// File values of fields overridden by the environment, by variable name
	fileValues map[string]string
}

// envFields are the settings the environment can override
var envFields = []struct {
	name  string
	field func(*Config) *string
}{
	{"LINGA_SERVER_URL", func(c *Config) *string { return &c.ServerURL }},
	{"LINGA_TOKEN", func(c *Config) *string { return &c.Token }},
	{"LINGA_LIBRARY_PATH", func(c *Config) *string { return &c.LibraryPath }},
	{"LINGA_DATA_DIR", func(c *Config) *string { return &c.DataDir }},
	{"LINGA_REDIS_ADDR", func(c *Config) *string { return &c.Server.RedisAddr }},
	{"LINGA_REDIS_PASSWORD", func(c *Config) *string { return &c.Server.RedisPassword }},
	{"LINGA_LOG_LEVEL", func(c *Config) *string { return &c.Logging.Level }},
}

// Load loads configuration from path, or from the default location when
// path is empty. A missing file yields defaults. Environment variables
// override file values but are never written back by Save. A newly
// generated device id is saved right away so it stays stable.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = getConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg := defaults(filepath.Dir(path))
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Config doesn't exist, keep defaults
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	newDevice := cfg.DeviceID == ""
	if newDevice {
		cfg.DeviceID = uuid.NewString()
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if newDevice {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("save device id: %w", err)
		}
	}
	return cfg, nil
}

func defaults(dir string) *Config {
	return &Config{
		DataDir: dir,
		Reader:  ReaderConfig{FitMode: "full"},
		Logging: LoggingConfig{
			Level:       "normal",
			Destination: filepath.Join(dir, logFileName),
			Mode:        "append",
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// applyEnv overrides file values with environment variables, remembering
// the file values for Save
func (c *Config) applyEnv() {
	for _, f := range envFields {
		v := os.Getenv(f.name)
		if v == "" {
			continue
		}
		dst := f.field(c)
		if c.fileValues == nil {
			c.fileValues = make(map[string]string)
		}
		c.fileValues[f.name] = *dst
		*dst = v
	}
}

// persisted is the config as it belongs on disk, without env overrides
func (c *Config) persisted() Config {
	out := *c
	for _, f := range envFields {
		if v, ok := c.fileValues[f.name]; ok {
			*f.field(&out) = v
		}
	}
	return out
}

// Validate rejects values the reader cannot act on
func (c *Config) Validate() error {
	if _, err := comic.ParseFitMode(c.Reader.FitMode); err != nil {
		return fmt.Errorf("config: reader: %w", err)
	}
	switch c.Logging.Level {
	case "", "none", "debug", "normal":
	default:
		return fmt.Errorf("config: logging level must be none, debug or normal, got %q", c.Logging.Level)
	}
	switch c.Logging.Mode {
	case "", "append", "overwrite":
	default:
		return fmt.Errorf("config: logging mode must be append or overwrite, got %q", c.Logging.Mode)
	}
	if c.Server.Addr == "" {
		return errors.New("config: server addr is required")
	}
	return nil
}

// Path returns the location the config is saved to
func (c *Config) Path() string { return c.path }

// Save persists the configuration to disk
func (c *Config) Save() error {
	// Ensure directory exists
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	out := c.persisted()
	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// SetServerURL updates the server address and saves
func (c *Config) SetServerURL(url string) error {
	c.ServerURL = url
	delete(c.fileValues, "LINGA_SERVER_URL")
	return c.Save()
}

// IsRemote returns true if books come from a server
func (c *Config) IsRemote() bool {
	return c.ServerURL != ""
}

// AddRecentlyRead adds a book to the recently read list
func (c *Config) AddRecentlyRead(bookID, title string) error {
	// Remove existing entry for this book if present
	newList := make([]RecentlyReadEntry, 0, MaxRecentlyRead)
	for _, entry := range c.RecentlyRead {
		if entry.BookID != bookID {
			newList = append(newList, entry)
		}
	}

	entry := RecentlyReadEntry{
		BookID:   bookID,
		Title:    title,
		OpenedAt: time.Now(),
	}
	c.RecentlyRead = append([]RecentlyReadEntry{entry}, newList...)

	if len(c.RecentlyRead) > MaxRecentlyRead {
		c.RecentlyRead = c.RecentlyRead[:MaxRecentlyRead]
	}

	return c.Save()
}

// GetRecentlyReadIDs returns the list of recently read book IDs
func (c *Config) GetRecentlyReadIDs() []string {
	ids := make([]string, len(c.RecentlyRead))
	for i, entry := range c.RecentlyRead {
		ids[i] = entry.BookID
	}
	return ids
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, configDirName, configFileName), nil
}
