package taskfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/amonks/taskopy/tasks"
	"github.com/amonks/taskopy/tasks/script"
	"gopkg.in/yaml.v3"
)

// Names are the file names Load looks for, in order, when it is given a
// directory.
var Names = []string{"tasks.toml", "tasks.yaml", "tasks.yml"}

// ErrNotFound is returned by Load when a directory contains no taskfile.
var ErrNotFound = errors.New("no taskfile found")

// Taskfile defines the type of tasks.toml (or tasks.yaml) files. You can load
// one from disk, or, if you want, you can create your own in code.
type Taskfile struct {
	Tasks []Task `toml:"task" yaml:"task"`

	// Path is the file the Taskfile was loaded from. Task directories
	// are resolved relative to it.
	Path string `toml:"-" yaml:"-"`
}

// Load reads a taskfile. If path is a directory, the first of [Names] found
// in it is loaded. Any error reading or parsing the file fails the whole
// load; problems with individual tasks are reported later, by ToLibrary.
func Load(path string) (Taskfile, error) {
	path, err := Find(path)
	if err != nil {
		return Taskfile{}, err
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return Taskfile{}, err
	}

	tf, err := Parse(filepath.Ext(path), bs)
	if err != nil {
		return Taskfile{}, fmt.Errorf("%s: %w", path, err)
	}
	tf.Path = path
	return tf, nil
}

// Find resolves path to a taskfile path, looking inside path if it is a
// directory.
func Find(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}
	for _, name := range Names {
		p := filepath.Join(path, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s: %w", path, ErrNotFound)
}

// Parse decodes a taskfile. ext selects the format: ".yaml" or ".yml" for
// YAML, anything else for TOML.
func Parse(ext string, bs []byte) (Taskfile, error) {
	var tf Taskfile
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(bs, &tf); err != nil {
			return Taskfile{}, err
		}
	default:
		md, err := toml.Decode(string(bs), &tf)
		if err != nil {
			return Taskfile{}, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Taskfile{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	}
	return tf, nil
}

// Dir is the directory containing the taskfile.
func (tf Taskfile) Dir() string {
	if tf.Path == "" {
		return "."
	}
	return filepath.Dir(tf.Path)
}

// ToLibrary builds the task library. Tasks with problems that are not about
// a single trigger (an empty or malformed ID, a duplicate ID, an unreadable
// idle duration) are left out, and each is reported as a [tasks.Warning].
// Inactive entries are skipped before any check, so they never warn and
// never collide with an active entry's ID.
// Trigger syntax is checked by the runner when it binds the tasks.
func (tf Taskfile) ToLibrary() (tasks.Library, []error) {
	var (
		ts       []tasks.Task
		warnings []error
		seen     = map[string]struct{}{}
	)
	for _, t := range tf.Tasks {
		if t.Active != nil && !*t.Active {
			continue
		}
		task, err := t.ToScriptTask(tf.Dir())
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		cfg := task.Config()
		if _, dupe := seen[cfg.ID]; dupe {
			warnings = append(warnings, tasks.Warn(cfg, "", fmt.Errorf("duplicate task id %q", cfg.ID)))
			continue
		}
		seen[cfg.ID] = struct{}{}
		ts = append(ts, task)
	}
	return tasks.NewLibrary(ts...), warnings
}

// Validate returns every problem ToLibrary would report, joined.
func (tf Taskfile) Validate() error {
	_, warnings := tf.ToLibrary()
	return errors.Join(warnings...)
}

func (tf Taskfile) find(id string) Task {
	for _, t := range tf.Tasks {
		if t.ID == id {
			return t
		}
	}
	return Task{}
}

// Task is one [[task]] entry.
type Task struct {
	ID          string            `toml:"id" yaml:"id"`
	Name        string            `toml:"name" yaml:"name"`
	Description string            `toml:"description" yaml:"description"`
	CMD         string            `toml:"cmd" yaml:"cmd"`
	Dir         string            `toml:"dir" yaml:"dir"`
	Env         map[string]string `toml:"env" yaml:"env"`

	Schedule       StringList `toml:"schedule" yaml:"schedule"`
	Date           StringList `toml:"date" yaml:"date"`
	Hotkey         string     `toml:"hotkey" yaml:"hotkey"`
	HotkeySuppress bool       `toml:"hotkey_suppress" yaml:"hotkey_suppress"`

	HTTP          bool       `toml:"http" yaml:"http"`
	HTTPRoute     string     `toml:"http_route" yaml:"http_route"`
	HTTPWhiteList StringList `toml:"http_white_list" yaml:"http_white_list"`
	Result        bool       `toml:"result" yaml:"result"`

	Menu    *bool  `toml:"menu" yaml:"menu"`
	Submenu string `toml:"submenu" yaml:"submenu"`
	Single  bool   `toml:"single" yaml:"single"`
	Active  *bool  `toml:"active" yaml:"active"`

	Idle Duration `toml:"idle" yaml:"idle"`

	OnLoad     bool `toml:"on_load" yaml:"on_load"`
	OnExit     bool `toml:"on_exit" yaml:"on_exit"`
	Startup    bool `toml:"startup" yaml:"startup"`
	SysStartup bool `toml:"sys_startup" yaml:"sys_startup"`
	LeftClick  bool `toml:"left_click" yaml:"left_click"`

	OnFileChange     string `toml:"on_file_change" yaml:"on_file_change"`
	FileChangeAction string `toml:"file_change_action" yaml:"file_change_action"`

	EventLog   string `toml:"event_log" yaml:"event_log"`
	EventXPath string `toml:"event_xpath" yaml:"event_xpath"`

	Subscribe string `toml:"subscribe" yaml:"subscribe"`

	ErrThreshold *int   `toml:"err_threshold" yaml:"err_threshold"`
	Rule         string `toml:"rule" yaml:"rule"`

	Log         *bool `toml:"log" yaml:"log"`
	NoPrint     bool  `toml:"no_print" yaml:"no_print"`
	Hyperactive bool  `toml:"hyperactive" yaml:"hyperactive"`
}

// Config converts the entry into a task config. Relative file-change paths
// are resolved against base.
func (t Task) Config(base string) (tasks.Config, error) {
	cfg := tasks.NewConfig(t.ID)
	cfg.Name = t.Name
	cfg.Description = t.Description
	if cfg.Description == "" && t.CMD != "" && !strings.Contains(t.CMD, "\n") {
		cfg.Description = fmt.Sprintf(`"%s"`, t.CMD)
	}

	if t.ID == "" {
		return cfg, tasks.Warn(cfg, "", errors.New("task has no id"))
	}
	if strings.IndexFunc(t.ID, unicode.IsSpace) >= 0 {
		return cfg, tasks.Warn(cfg, "", fmt.Errorf("task id %q contains whitespace", t.ID))
	}

	cfg.Schedule = t.Schedule
	cfg.Date = t.Date
	cfg.Hotkey = t.Hotkey
	cfg.HotkeySuppress = t.HotkeySuppress

	cfg.HTTP = t.HTTP
	cfg.HTTPRoute = t.HTTPRoute
	cfg.HTTPWhiteList = t.HTTPWhiteList.Split(",")
	cfg.Result = t.Result

	if t.Menu != nil {
		cfg.Menu = *t.Menu
	}
	cfg.Submenu = t.Submenu
	cfg.Single = t.Single
	if t.Active != nil {
		cfg.Active = *t.Active
	}

	if t.Idle != "" {
		idle, err := t.Idle.Parse()
		if err != nil {
			return cfg, tasks.Warn(cfg, "idle", err)
		}
		cfg.Idle = idle
	}

	cfg.OnLoad = t.OnLoad
	cfg.OnExit = t.OnExit
	cfg.Startup = t.Startup
	cfg.SysStartup = t.SysStartup
	cfg.LeftClick = t.LeftClick

	if t.OnFileChange != "" {
		cfg.FileChange = t.OnFileChange
		if !filepath.IsAbs(cfg.FileChange) {
			cfg.FileChange = filepath.Join(base, cfg.FileChange)
		}
	}
	cfg.FileChangeAction = t.FileChangeAction

	cfg.EventLog = t.EventLog
	cfg.EventQuery = t.EventXPath
	cfg.Subscribe = t.Subscribe

	if t.ErrThreshold != nil {
		cfg.ErrThreshold = *t.ErrThreshold
	}
	if t.Log != nil {
		cfg.Log = *t.Log
	}
	cfg.NoPrint = t.NoPrint
	cfg.Hyperactive = t.Hyperactive

	if t.Rule != "" {
		cfg.Rule = script.Rule(t.dir(base), t.Env, t.Rule)
	}
	return cfg, nil
}

// ToScriptTask builds a script task whose working directory is the task's
// dir, resolved against base.
func (t Task) ToScriptTask(base string) (script.Task, error) {
	cfg, err := t.Config(base)
	if err != nil {
		return script.Task{}, err
	}
	return script.New(cfg, t.dir(base), t.Env, t.CMD), nil
}

func (t Task) dir(base string) string {
	if t.Dir == "" {
		return base
	}
	if filepath.IsAbs(t.Dir) {
		return t.Dir
	}
	return filepath.Join(base, t.Dir)
}
