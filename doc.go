// Taskopy runs tasks declared in a taskfile whenever one of their triggers
// fires: a cron-like schedule, a wildcard date, a global hotkey, an HTTP
// request, a file change, user idleness, an OS event log entry or a message
// on a NATS subject.
//
// The command lives in cmd/taskopy. The pieces it is built from can be used
// on their own:
//
//   - package tasks defines tasks and the immutable library that holds them
//   - package taskfile loads a library from tasks.toml or tasks.yaml
//   - package runner binds a library to its triggers and runs tasks
//   - package httpapi serves http tasks
//   - packages printer and tui show task output
//   - package history records every run
//
// To run tasks written in Go rather than in a taskfile, build a library with
// tasks.NewTaskFromFunc and hand it to a runner with runner.Static.
package taskopy
