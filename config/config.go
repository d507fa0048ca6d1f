// Package config loads taskopy's own settings from taskopy.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/amonks/taskopy/internal/allowlist"
)

// Name is the settings file's default name.
const Name = "taskopy.toml"

type Settings struct {
	// Taskfile is the path of the task declarations. A relative path is
	// relative to the settings file.
	Taskfile string `toml:"taskfile"`

	// AutoReload reloads the taskfile whenever it changes.
	AutoReload bool `toml:"auto_reload"`

	// ErrThreshold is the default number of consecutive failures a task
	// may have before an alert.
	ErrThreshold int `toml:"err_threshold"`

	HTTP       HTTP       `toml:"http"`
	Log        Log        `toml:"log"`
	History    History    `toml:"history"`
	NATS       NATS       `toml:"nats"`
	SysStartup SysStartup `toml:"sys_startup"`

	// Path is where the settings were read from, if anywhere.
	Path string `toml:"-"`
}

type HTTP struct {
	// Addr is the listen address. Empty disables the HTTP server.
	Addr          string        `toml:"addr"`
	WhiteList     []string      `toml:"white_list"`
	ResultTimeout time.Duration `toml:"result_timeout"`
}

type Log struct {
	// File receives diagnostics. Empty means stderr.
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type History struct {
	// Path is the SQLite database. Empty disables history.
	Path string `toml:"path"`

	// Retention is how long finished runs are kept. Zero keeps them all.
	Retention time.Duration `toml:"retention"`
}

type NATS struct {
	// URL of the server for subscribe triggers. Empty disables them.
	URL string `toml:"url"`
}

type SysStartup struct {
	// Window is how recently the system must have booted for sys_startup
	// tasks to run.
	Window time.Duration `toml:"window"`
}

func Default() Settings {
	return Settings{
		Taskfile:   "tasks.toml",
		AutoReload: true,
		HTTP: HTTP{
			Addr:          "127.0.0.1:8275",
			ResultTimeout: 10 * time.Second,
		},
		Log: Log{Level: "info"},
		History: History{
			Path:      "taskopy.db",
			Retention: 30 * 24 * time.Hour,
		},
		SysStartup: SysStartup{Window: 5 * time.Minute},
	}
}

// Load reads the settings at path on top of the defaults. A missing file
// isn't an error: it yields the defaults. Relative paths in the settings are
// resolved against the file's directory.
func Load(path string) (Settings, error) {
	s := Default()
	md, err := toml.DecodeFile(path, &s)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s = Default()
	case err != nil:
		return Settings{}, fmt.Errorf("loading %s: %w", path, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Settings{}, fmt.Errorf("loading %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
		s.Path = path
	}

	s.resolve(filepath.Dir(path))
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return s, nil
}

func (s *Settings) resolve(dir string) {
	for _, p := range []*string{&s.Taskfile, &s.Log.File, &s.History.Path} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate reports every invalid setting.
func (s Settings) Validate() error {
	var errs []error
	if s.Taskfile == "" {
		errs = append(errs, errors.New("taskfile is required"))
	}
	if s.ErrThreshold < 0 {
		errs = append(errs, fmt.Errorf("err_threshold must not be negative, got %d", s.ErrThreshold))
	}
	if s.HTTP.ResultTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http.result_timeout must be positive, got %s", s.HTTP.ResultTimeout))
	}
	if _, err := allowlist.Parse(s.HTTP.WhiteList); err != nil {
		errs = append(errs, fmt.Errorf("http.white_list: %w", err))
	}
	if _, err := s.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if s.History.Retention < 0 {
		errs = append(errs, fmt.Errorf("history.retention must not be negative, got %s", s.History.Retention))
	}
	if s.SysStartup.Window < 0 {
		errs = append(errs, fmt.Errorf("sys_startup.window must not be negative, got %s", s.SysStartup.Window))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Log.Level.
func (s Settings) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// WhiteList parses HTTP.WhiteList. It's only valid after Validate.
func (s Settings) WhiteList() allowlist.List {
	l, _ := allowlist.Parse(s.HTTP.WhiteList)
	return l
}
