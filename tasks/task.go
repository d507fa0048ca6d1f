package tasks

import (
	"context"
	"io"
	"strings"
	"time"
	"unicode"
)

// A Task is anything the runner can dispatch: a configuration record that
// names its triggers, plus an action.
//
// Start is called on its own goroutine, once per run. Runs of the same task
// may overlap unless Config().Single is set. The returned string is the run's
// result, which is handed back to callers that wait for one (see
// Config.Result).
type Task interface {
	Config() Config
	Start(ctx context.Context, call Call, w io.Writer) (string, error)
}

// Caller identifies the trigger source that initiated a run.
type Caller string

const (
	CallerScheduler  Caller = "scheduler"
	CallerDate       Caller = "date"
	CallerHotkey     Caller = "hotkey"
	CallerHTTP       Caller = "http"
	CallerFileChange Caller = "file_change"
	CallerIdle       Caller = "idle"
	CallerEventLog   Caller = "event_log"
	CallerSubscribe  Caller = "subscribe"
	CallerMenu       Caller = "menu"
	CallerLeftClick  Caller = "left_click"
	CallerOnLoad     Caller = "on_load"
	CallerOnExit     Caller = "on_exit"
	CallerStartup    Caller = "startup"
	CallerSysStartup Caller = "sys_startup"
	CallerCLI        Caller = "cli"
)

// Call is the context of a single run. Every task receives the whole Call;
// see [Simple] and [WithData] for adapters that only look at part of it.
type Call struct {
	Caller Caller

	// Data is the trigger payload: the changed file's path for
	// file_change, the rendered event XML for event_log, the message body
	// for subscribe. It is empty for other callers.
	Data string

	// Params holds HTTP query parameters for http runs.
	Params map[string]string
}

// Config is the explicit configuration of one task. Build one with
// [NewConfig] so that the documented defaults are applied.
type Config struct {
	// ID identifies a task. It must be unique within a taskfile and may
	// not contain whitespace. It doubles as the default HTTP route.
	ID string

	// Name is the human display name. If it's empty, DisplayName derives
	// one from the ID.
	Name string

	// Description optionally provides additional information about a
	// task, which is shown by `taskopy list`.
	Description string

	// Schedule lists cron-like expressions. Every expression is bound to
	// the same task. See the schedule package for the accepted syntax.
	Schedule []string

	// Date lists absolute date patterns of the form "YYYY.MM.DD HH:MM",
	// where any field may be "*".
	Date []string

	// Hotkey is a "+"-joined key combination such as "ctrl+alt+t". If
	// HotkeySuppress is set, the keystroke is consumed and not forwarded
	// to the foreground application.
	Hotkey         string
	HotkeySuppress bool

	// HTTP exposes the task as a GET route. The route is HTTPRoute if
	// set, otherwise the ID. HTTPWhiteList restricts it to the given IPs
	// or CIDRs.
	HTTP          bool
	HTTPRoute     string
	HTTPWhiteList []string

	// Result makes HTTP callers wait for and receive the task's result.
	Result bool

	// Menu controls visibility in the menu; Submenu groups tasks.
	Menu    bool
	Submenu string

	// Single rejects a run while another run of the task is in flight.
	Single bool

	// Active tasks are registered. Inactive tasks never appear in a
	// Library, a menu, or any trigger binding.
	Active bool

	// Idle runs the task once per idle session, after the user has been
	// idle for at least this long.
	Idle time.Duration

	// Lifecycle triggers.
	OnLoad     bool
	OnExit     bool
	Startup    bool
	SysStartup bool
	LeftClick  bool

	// FileChange is a path to watch. FileChangeAction restricts the
	// notifications that fire the task ("write" if empty).
	FileChange       string
	FileChangeAction string

	// EventLog and EventQuery subscribe the task to an OS event channel
	// with an XPath filter.
	EventLog   string
	EventQuery string

	// Subscribe runs the task for every message on a NATS subject.
	Subscribe string

	// ErrThreshold is the number of consecutive failures tolerated before
	// an alert is raised. Negative means "use the runner's default".
	ErrThreshold int

	// Rule, if set, gates every run. The run proceeds only if Rule
	// returns true and no error.
	Rule Rule

	// Log records each invocation in the log. NoPrint keeps the task's
	// output off the console.
	Log     bool
	NoPrint bool

	// Hyperactive tasks run even while the runner is disabled.
	Hyperactive bool
}

// Rule is a predicate evaluated before each run.
type Rule func(ctx context.Context, call Call) (bool, error)

// NewConfig returns a Config for the given ID with the documented defaults:
// active, visible in the menu, logged, and using the runner's default error
// threshold.
func NewConfig(id string) Config {
	return Config{
		ID:           id,
		Active:       true,
		Menu:         true,
		Log:          true,
		ErrThreshold: -1,
	}
}

// DisplayName returns Name if it is set. Otherwise it derives a name from
// the ID by replacing underscores with spaces and capitalizing it, unless the
// ID already starts with an uppercase letter, in which case it is used
// literally.
//
//	"backup_files" -> "Backup files"
//	"Backup_USB"   -> "Backup USB"
func (c Config) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	name := strings.ReplaceAll(c.ID, "_", " ")
	rs := []rune(name)
	if len(rs) == 0 || unicode.IsUpper(rs[0]) {
		return name
	}
	return string(unicode.ToUpper(rs[0])) + strings.ToLower(string(rs[1:]))
}

// Route returns the HTTP route of the task, without a leading slash.
func (c Config) Route() string {
	if c.HTTPRoute != "" {
		return strings.TrimPrefix(c.HTTPRoute, "/")
	}
	return c.ID
}
