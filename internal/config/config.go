// Package config loads studyquiz settings from an optional TOML file and
// the environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/abhisek/studyquiz/internal/llm"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains the HTTP listener settings.
type Server struct {
	Addr        string   `toml:"addr"`
	NotesDir    string   `toml:"notes_dir"`
	CORSOrigins []string `toml:"cors_origins"`
	MaxUploadMB int      `toml:"max_upload_mb"`
}

// Storage locates the SQLite database.
type Storage struct {
	DBPath string `toml:"db_path"`
}

// Log selects the logger output.
type Log struct {
	Mode string `toml:"mode"`
}

// Config is the full application configuration.
type Config struct {
	Server  Server     `toml:"server"`
	Storage Storage    `toml:"storage"`
	Log     Log        `toml:"log"`
	LLM     llm.Config `toml:"llm"`
}

const (
	defaultAddr        = "localhost:8080"
	defaultNotesDir    = "./notes"
	defaultMaxUploadMB = 32
	defaultLogMode     = "development"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:        defaultAddr,
			NotesDir:    defaultNotesDir,
			MaxUploadMB: defaultMaxUploadMB,
		},
		Log: Log{Mode: defaultLogMode},
		LLM: llm.DefaultConfig(),
	}
}

// SampleConfig returns an annotated configuration file.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/studyquiz/config.toml")
}

// Load reads path (or the default location when empty), applies the
// environment and validates the result. It reports the resolved path and
// whether a file was found there. A missing file is not an error.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		dec := toml.NewDecoder(file).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		if env := strings.TrimSpace(os.Getenv("STUDYQUIZ_CONFIG")); env != "" {
			path = env
		}
	}
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return expanded, false, nil
	case err != nil:
		return "", false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// applyEnv overlays environment variables. STUDYQUIZ_DB and the LLM
// credential variables win over the file.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("STUDYQUIZ_DB")); v != "" {
		c.Storage.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("STUDYQUIZ_ADDR")); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("STUDYQUIZ_NOTES_DIR")); v != "" {
		c.Server.NotesDir = v
	}
	if v := strings.TrimSpace(os.Getenv("STUDYQUIZ_LOG_MODE")); v != "" {
		c.Log.Mode = v
	}
	c.LLM.ApplyEnv()
}

func (c *Config) normalize() error {
	var err error

	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if strings.TrimSpace(c.Server.NotesDir) == "" {
		c.Server.NotesDir = defaultNotesDir
	}
	if c.Server.NotesDir, err = expandPath(c.Server.NotesDir); err != nil {
		return fmt.Errorf("server.notes_dir: %w", err)
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}
	origins := c.Server.CORSOrigins[:0]
	for _, o := range c.Server.CORSOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.CORSOrigins = origins

	if c.Storage.DBPath, err = expandPath(strings.TrimSpace(c.Storage.DBPath)); err != nil {
		return fmt.Errorf("storage.db_path: %w", err)
	}

	c.Log.Mode = strings.ToLower(strings.TrimSpace(c.Log.Mode))
	if c.Log.Mode == "" {
		c.Log.Mode = defaultLogMode
	}

	c.LLM.ProVendor = strings.ToLower(strings.TrimSpace(c.LLM.ProVendor))
	c.LLM.FreeVendor = strings.ToLower(strings.TrimSpace(c.LLM.FreeVendor))
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Server.MaxUploadMB < 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	switch c.Log.Mode {
	case "development", "dev", "production", "prod":
	default:
		return fmt.Errorf("log.mode must be development or production, got %q", c.Log.Mode)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

// MaxUploadBytes returns the upload ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath applies the config path rules (~ expansion, absolute).
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
