package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/amonks/taskopy/tasks"
)

type Task struct {
	cfg tasks.Config

	result  string
	fail    error
	panics  any
	release <-chan struct{}

	starts *atomic.Int32
	calls  chan tasks.Call
}

var _ tasks.Task = &Task{}

func NewTask(id string) *Task {
	return &Task{
		cfg:    tasks.NewConfig(id),
		starts: &atomic.Int32{},
		calls:  make(chan tasks.Call, 64),
	}
}

func (t *Task) Config() tasks.Config { return t.cfg }

func (t *Task) WithName(name string) *Task          { t.cfg.Name = name; return t }
func (t *Task) WithSingle() *Task                   { t.cfg.Single = true; return t }
func (t *Task) WithInactive() *Task                 { t.cfg.Active = false; return t }
func (t *Task) WithHidden() *Task                   { t.cfg.Menu = false; return t }
func (t *Task) WithSubmenu(s string) *Task          { t.cfg.Submenu = s; return t }
func (t *Task) WithSchedule(ss ...string) *Task     { t.cfg.Schedule = ss; return t }
func (t *Task) WithDate(ds ...string) *Task         { t.cfg.Date = ds; return t }
func (t *Task) WithHotkey(k string, s bool) *Task   { t.cfg.Hotkey, t.cfg.HotkeySuppress = k, s; return t }
func (t *Task) WithHTTP(result bool) *Task          { t.cfg.HTTP, t.cfg.Result = true, result; return t }
func (t *Task) WithRoute(r string) *Task            { t.cfg.HTTPRoute = r; return t }
func (t *Task) WithWhiteList(ips ...string) *Task   { t.cfg.HTTPWhiteList = ips; return t }
func (t *Task) WithIdle(d time.Duration) *Task      { t.cfg.Idle = d; return t }
func (t *Task) WithFileChange(path string) *Task    { t.cfg.FileChange = path; return t }
func (t *Task) WithEventLog(ch, q string) *Task     { t.cfg.EventLog, t.cfg.EventQuery = ch, q; return t }
func (t *Task) WithSubscribe(subject string) *Task  { t.cfg.Subscribe = subject; return t }
func (t *Task) WithErrThreshold(n int) *Task        { t.cfg.ErrThreshold = n; return t }
func (t *Task) WithRule(r tasks.Rule) *Task         { t.cfg.Rule = r; return t }
func (t *Task) WithHyperactive() *Task              { t.cfg.Hyperactive = true; return t }
func (t *Task) WithOnLoad() *Task                   { t.cfg.OnLoad = true; return t }
func (t *Task) WithOnExit() *Task                   { t.cfg.OnExit = true; return t }
func (t *Task) WithStartup() *Task                  { t.cfg.Startup = true; return t }
func (t *Task) WithSysStartup() *Task               { t.cfg.SysStartup = true; return t }
func (t *Task) WithLeftClick() *Task                { t.cfg.LeftClick = true; return t }
func (t *Task) WithConfig(f func(*tasks.Config)) *Task { f(&t.cfg); return t }

func (t *Task) WithResult(result string) *Task { t.result = result; return t }
func (t *Task) WithFailure(msg string) *Task  { t.fail = errors.New(msg); return t }
func (t *Task) WithPanic(v any) *Task         { t.panics = v; return t }

// WithRelease makes every run block until release is closed (or receives).
func (t *Task) WithRelease(release <-chan struct{}) *Task { t.release = release; return t }

// Starts reports how many times the task body has been entered.
func (t *Task) Starts() int { return int(t.starts.Load()) }

// Calls receives the Call of every run, in order.
func (t *Task) Calls() <-chan tasks.Call { return t.calls }

func (t *Task) Start(ctx context.Context, call tasks.Call, w io.Writer) (string, error) {
	t.starts.Add(1)
	select {
	case t.calls <- call:
	default:
	}
	fmt.Fprintf(w, "! %s: start (%s)\n", t.cfg.ID, call.Caller)

	if t.release != nil {
		select {
		case <-t.release:
		case <-ctx.Done():
			fmt.Fprintf(w, "! %s: canceled\n", t.cfg.ID)
			return "", ctx.Err()
		}
	}

	if t.panics != nil {
		panic(t.panics)
	}
	if t.fail != nil {
		fmt.Fprintf(w, "! %s: triggered failure\n", t.cfg.ID)
		return "", t.fail
	}
	fmt.Fprintf(w, "! %s: execute\n", t.cfg.ID)
	return t.result, nil
}
