package runner

import "time"

// Status is a snapshot of the runner.
type Status struct {
	Enabled  bool         `json:"enabled"`
	Tasks    []TaskStatus `json:"tasks"`
	Warnings []string     `json:"warnings,omitempty"`
	Bindings []Binding    `json:"bindings,omitempty"`
}

// TaskStatus is a snapshot of one task.
type TaskStatus struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Submenu string `json:"submenu,omitempty"`
	Menu    bool   `json:"menu"`

	// Running counts the runs in flight, and Current holds their IDs.
	Running int      `json:"running"`
	Current []string `json:"current,omitempty"`

	LastStart time.Time `json:"last_start,omitempty"`
	Runs      int       `json:"runs"`
	Failures  int       `json:"failures"`

	// ErrCount is the number of failures since the last success or
	// alert.
	ErrCount  int    `json:"err_count"`
	LastError string `json:"last_error,omitempty"`
}

// Status returns a snapshot of every task, in library order.
func (r *Runner) Status() Status {
	r.mu.Lock("Status")
	gen := r.gen
	var (
		warnings []error
		bindings []Binding
	)
	if gen != nil {
		warnings = append(warnings, gen.warnings...)
		bindings = append(bindings, gen.active...)
	}
	r.mu.Unlock()

	s := Status{Enabled: r.Enabled(), Bindings: bindings}
	for _, w := range warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	if gen == nil {
		return s
	}
	for _, id := range gen.lib.IDs() {
		s.Tasks = append(s.Tasks, gen.states[id].status(id, gen.lib.Task(id).Config()))
	}
	return s
}

// Task returns a snapshot of one task.
func (r *Runner) Task(id string) (TaskStatus, bool) {
	r.mu.Lock("Task")
	gen := r.gen
	r.mu.Unlock()

	if gen == nil || !gen.lib.Has(id) {
		return TaskStatus{}, false
	}
	return gen.states[id].status(id, gen.lib.Task(id).Config()), true
}
