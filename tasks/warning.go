package tasks

import "fmt"

// A Warning is a per-task problem that keeps the task, or one of its
// triggers, from being registered. Warnings never stop other tasks from
// loading.
type Warning struct {
	TaskID string

	// Name is the task's display name, which is what the user sees.
	Name string

	// Trigger names the trigger that could not be bound, if any.
	Trigger string

	Err error
}

func (w Warning) Error() string {
	if w.Trigger != "" {
		return fmt.Sprintf("%s: %s: %s", w.Name, w.Trigger, w.Err)
	}
	return fmt.Sprintf("%s: %s", w.Name, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }

// Warn builds a Warning about the task with the given config.
func Warn(cfg Config, trigger string, err error) Warning {
	name := cfg.DisplayName()
	if name == "" {
		name = "(unnamed task)"
	}
	return Warning{TaskID: cfg.ID, Name: name, Trigger: trigger, Err: err}
}
