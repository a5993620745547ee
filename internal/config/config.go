// Package config loads settings from defaults, an optional YAML file, SHOWNOTES_
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read into the config.
// A double underscore separates nested keys: SHOWNOTES_SHEETS__SPREADSHEET_ID.
const EnvPrefix = "SHOWNOTES_"

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

// Config is the full application configuration.
type Config struct {
	Addr          string `koanf:"addr" validate:"required"`
	DataDir       string `koanf:"data_dir" validate:"required"`
	Backend       string `koanf:"backend" validate:"oneof=file sqlite sheets"`
	AdminPassword string `koanf:"admin_password"`
	DefaultShow   string `koanf:"default_show" validate:"required"`
	LogLevel      string `koanf:"log_level" validate:"oneof=debug info warn error"`

	Legacy  LegacyConfig  `koanf:"legacy"`
	Export  ExportConfig  `koanf:"export"`
	SQLite  SQLiteConfig  `koanf:"sqlite"`
	Sheets  SheetsConfig  `koanf:"sheets"`
	History HistoryConfig `koanf:"history"`
}

// LegacyConfig points at the notes file written before shows existed.
type LegacyConfig struct {
	ShowName string `koanf:"show_name"`
	File     string `koanf:"file"`
}

// ExportConfig controls the CSV export.
type ExportConfig struct {
	IncludeStaff bool `koanf:"include_staff"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// SheetsConfig configures the Google Sheets backend.
type SheetsConfig struct {
	CredentialsFile string `koanf:"credentials_file"`
	CredentialsJSON string `koanf:"credentials_json"`
	SpreadsheetID   string `koanf:"spreadsheet_id"`
}

// HistoryConfig enables git history of the data directory.
type HistoryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	AuthorName  string `koanf:"author_name" validate:"required_if=Enabled true"`
	AuthorEmail string `koanf:"author_email" validate:"omitempty,email"`
}

// RegistryPath is where the show registry lives.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.DataDir, "shows.json")
}

// NotesDir is where the file backend keeps per-show documents.
func (c *Config) NotesDir() string {
	return filepath.Join(c.DataDir, "notes")
}

// LegacyPath resolves the legacy notes file relative to the data directory.
func (c *Config) LegacyPath() string {
	if c.Legacy.File == "" || filepath.IsAbs(c.Legacy.File) {
		return c.Legacy.File
	}
	return filepath.Join(c.DataDir, c.Legacy.File)
}

// SQLitePath resolves the sqlite database relative to the data directory.
func (c *Config) SQLitePath() string {
	if filepath.IsAbs(c.SQLite.Path) {
		return c.SQLite.Path
	}
	return filepath.Join(c.DataDir, c.SQLite.Path)
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"addr":                 "addr",
	"data-dir":             "data_dir",
	"backend":              "backend",
	"default-show":         "default_show",
	"log-level":            "log_level",
	"sqlite-path":          "sqlite.path",
	"spreadsheet-id":       "sheets.spreadsheet_id",
	"sheets-credentials":   "sheets.credentials_file",
	"history":              "history.enabled",
	"export-include-staff": "export.include_staff",
	"legacy-show":          "legacy.show_name",
	"legacy-file":          "legacy.file",
}

// RegisterFlags adds the config override flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("config", "", "Path to a YAML config file")
	fs.String("addr", d.Addr, "HTTP listen address")
	fs.String("data-dir", d.DataDir, "Directory holding the registry and notes")
	fs.String("backend", d.Backend, "Notes storage backend: file, sqlite or sheets")
	fs.String("default-show", d.DefaultShow, "Show seeded into an empty registry")
	fs.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")
	fs.String("sqlite-path", d.SQLite.Path, "SQLite database path, relative to the data directory")
	fs.String("spreadsheet-id", "", "Google Sheets spreadsheet id")
	fs.String("sheets-credentials", "", "Path to the Google service account JSON")
	fs.Bool("history", d.History.Enabled, "Record every change as a git commit in the data directory")
	fs.Bool("export-include-staff", d.Export.IncludeStaff, "Include the Staff column in CSV exports")
	fs.String("legacy-show", d.Legacy.ShowName, "Show that falls back to the legacy notes file")
	fs.String("legacy-file", d.Legacy.File, "Legacy single-show notes file")
}

// Load builds the configuration. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(defaultsProvider{Defaults()}, nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := os.Getenv(EnvPrefix + "CONFIG")
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns SHOWNOTES_SHEETS__SPREADSHEET_ID into sheets.spreadsheet_id.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and backend requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Backend == BackendSheets {
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("invalid config: sheets backend requires sheets.spreadsheet_id")
		}
		if c.Sheets.CredentialsFile == "" && c.Sheets.CredentialsJSON == "" {
			return errors.New("invalid config: sheets backend requires sheets.credentials_file or sheets.credentials_json")
		}
	}
	if c.Backend == BackendSQLite && c.SQLite.Path == "" {
		return errors.New("invalid config: sqlite backend requires sqlite.path")
	}
	return nil
}
