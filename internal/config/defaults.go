package config

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

var errNotSupported = errors.New("defaults provider does not support this method")

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:        ":8080",
		DataDir:     "data",
		Backend:     BackendFile,
		DefaultShow: "Comp Show 2026",
		LogLevel:    "info",
		Legacy: LegacyConfig{
			ShowName: "Comp Show 2026",
			File:     "show_notes.json",
		},
		Export: ExportConfig{IncludeStaff: true},
		SQLite: SQLiteConfig{Path: "shownotes.db"},
		History: HistoryConfig{
			AuthorName:  "Show Notes",
			AuthorEmail: "shownotes@localhost.localdomain",
		},
	}
}

// defaultsProvider feeds a Config into koanf as a flat key map.
type defaultsProvider struct {
	cfg Config
}

func (p defaultsProvider) ReadBytes() ([]byte, error) {
	return nil, errNotSupported
}

func (p defaultsProvider) Read() (map[string]interface{}, error) {
	c := p.cfg
	flat := map[string]interface{}{
		"addr":                    c.Addr,
		"data_dir":                c.DataDir,
		"backend":                 c.Backend,
		"admin_password":          c.AdminPassword,
		"default_show":            c.DefaultShow,
		"log_level":               c.LogLevel,
		"legacy.show_name":        c.Legacy.ShowName,
		"legacy.file":             c.Legacy.File,
		"export.include_staff":    c.Export.IncludeStaff,
		"sqlite.path":             c.SQLite.Path,
		"sheets.credentials_file": c.Sheets.CredentialsFile,
		"sheets.credentials_json": c.Sheets.CredentialsJSON,
		"sheets.spreadsheet_id":   c.Sheets.SpreadsheetID,
		"history.enabled":         c.History.Enabled,
		"history.author_name":     c.History.AuthorName,
		"history.author_email":    c.History.AuthorEmail,
	}
	return maps.Unflatten(flat, "."), nil
}
