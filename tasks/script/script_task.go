package script

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/amonks/taskopy/internal/script"
	"github.com/amonks/taskopy/tasks"
)

// Task is a task whose action is a shell script.
type Task struct {
	config tasks.Config
	script script.Script
}

// New creates a new Script Task with the given working directory, environment,
// and text. If dir is the empty string, the script is run in the current
// working directory. Env is appended to the current environment.
//
// Each run also sees the run's Call in its environment:
//
//	TASKOPY_CALLER      the caller, eg "scheduler"
//	TASKOPY_DATA        the trigger payload, if any
//	TASKOPY_PARAM_<KEY> one variable per HTTP query parameter
func New(config tasks.Config, dir string, env map[string]string, text string) Task {
	return Task{
		config: config,
		script: script.New(dir, env, text),
	}
}

// Dir returns the directory that the script will execute in.
func (t Task) Dir() string { return t.script.Dir }

// Text returns the script source.
func (t Task) Text() string { return t.script.Text }

var _ tasks.Task = Task{}

// Config implements [tasks.Task].
func (t Task) Config() tasks.Config { return t.config }

// Start implements [tasks.Task]. It executes the script and does not return
// until the script is done executing. The result is the script's stdout with
// surrounding whitespace trimmed; stdout is also copied to w.
func (t Task) Start(ctx context.Context, call tasks.Call, w io.Writer) (string, error) {
	if t.script.Text == "" {
		return "", nil
	}
	var stdout bytes.Buffer
	err := t.script.Start(ctx, CallEnv(call), io.MultiWriter(&stdout, w), w)
	return strings.TrimSpace(stdout.String()), err
}

// CallEnv renders a Call as environment variables.
func CallEnv(call tasks.Call) map[string]string {
	env := map[string]string{
		"TASKOPY_CALLER": string(call.Caller),
		"TASKOPY_DATA":   call.Data,
	}
	for k, v := range call.Params {
		env["TASKOPY_PARAM_"+strings.ToUpper(k)] = v
	}
	return env
}

// Rule returns a tasks.Rule that runs text as a script and allows the run if
// it exits 0. The rule sees the same environment as the task would.
func Rule(dir string, env map[string]string, text string) tasks.Rule {
	s := script.New(dir, env, text)
	return func(ctx context.Context, call tasks.Call) (bool, error) {
		err := s.Start(ctx, CallEnv(call), io.Discard, io.Discard)
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return err == nil, nil
	}
}
