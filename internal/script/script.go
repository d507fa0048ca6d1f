package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/amonks/taskopy/internal/mutex"
	"github.com/amonks/taskopy/internal/styles"
	"github.com/charmbracelet/lipgloss"
)

// Script is a wrapper around exec.Cmd, offering a focused API and robust
// cancelation.
type Script struct {
	Dir  string
	Env  map[string]string
	Text string
}

// New creates a new Script with the given working directory, environment, and
// text. Scripts do nothing until they are started, and can be started many
// times concurrently. If dir is the empty string, the script is run in the
// current working directory. Env is appended to the current environment.
// On unix, the script is evaluated by bash; on Windows, by cmd.exe.
func New(dir string, env map[string]string, text string) Script {
	return Script{
		Dir:  dir,
		Env:  env,
		Text: text,
	}
}

// Start executes the script, and does not return until the script is done
// executing. It is safe to call start multiple times, including concurrently.
// extraEnv is appended after the script's own Env, so per-run values win.
// The returned error will be nil only if the process exits with status code 0
// and is not interrupted by a context cancelation.
//
// Execution can be canceled with the provided context. When canceled, we first
// interrupt the process group, then if the process doesn't exit within 2
// seconds, we kill it.
func (s Script) Start(ctx context.Context, extraEnv map[string]string, stdout, stderr io.Writer) error {
	return (&execution{
		script:   s,
		extraEnv: extraEnv,

		cmd:   nil,
		cmdMu: mutex.New("script"),

		stdout: stdout,
		stderr: stderr,
	}).run(ctx)
}

type execution struct {
	script   Script
	extraEnv map[string]string

	cmd   *exec.Cmd
	cmdMu *mutex.Mutex

	stdout io.Writer
	stderr io.Writer
}

func (x *execution) run(ctx context.Context) error {
	if err := x.startCmd(); err != nil {
		return err
	}
	defer x.cleanup()

	// Wait for either exit or cancel.
	exit := x.wait()
	select {
	case err := <-exit:
		return err

	case <-ctx.Done():
		x.printf(styles.Log, "canceled; stopping")
	}

	errs := []error{ctx.Err()}

	if !x.isRunning() {
		return errors.Join(errs...)
	}

	if err := x.interrupt(); err != nil {
		errs = append(errs, err)
	}

	// Give it 2 seconds to die gracefully after the interrupt.
	select {
	case <-exit:
		return errors.Join(errs...)
	case <-time.After(2 * time.Second):
	}

	if err := x.kill(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (x *execution) printf(style lipgloss.Style, f string, args ...interface{}) {
	str := style.Render(fmt.Sprintf(f, args...))
	fmt.Fprintln(x.stderr, str)
}

func (x *execution) startCmd() error {
	defer x.cmdMu.Lock("startCmd").Unlock()

	name, args, err := shellCommand(x.script.Text)
	if err != nil {
		return err
	}

	x.cmd = exec.Command(name, args...)
	x.cmd.SysProcAttr = sysProcAttr()
	x.cmd.Dir = x.script.Dir
	x.cmd.Stdout = x.stdout
	x.cmd.Stderr = x.stderr
	x.cmd.Env = append(os.Environ(), environ(x.script.Env)...)
	x.cmd.Env = append(x.cmd.Env, environ(x.extraEnv)...)

	return x.cmd.Start()
}

// environ formats env as KEY=value pairs in a stable order.
func environ(env map[string]string) []string {
	var out []string
	for k, v := range env {
		out = append(out, fmt.Sprintf(`%s=%s`, k, v))
	}
	sort.Strings(out)
	return out
}

func (x *execution) wait() <-chan error {
	exit := make(chan error, 1)
	go func() {
		process := x.getProcess()
		if process == nil {
			exit <- nil
			return
		}

		if state, err := process.Wait(); err != nil && strings.Contains(err.Error(), "no child processes") {
			exit <- nil
		} else if err != nil {
			exit <- fmt.Errorf("wait err: %w", err)
		} else if code := state.ExitCode(); code != 0 {
			exit <- fmt.Errorf("exit %d", code)
		} else {
			exit <- nil
		}
	}()
	return exit
}

func (x *execution) interrupt() error {
	defer x.cmdMu.Lock("interrupt").Unlock()

	if x.cmd == nil || x.cmd.Process == nil {
		return nil
	}
	return interruptProcess(x.cmd.Process)
}

func (x *execution) kill() error {
	defer x.cmdMu.Lock("kill").Unlock()

	if x.cmd == nil || x.cmd.Process == nil {
		return nil
	}
	return killProcess(x.cmd.Process)
}

func (x *execution) cleanup() {
	defer x.cmdMu.Lock("cleanup").Unlock()

	x.cmd = nil
}

func (x *execution) getProcess() *os.Process {
	defer x.cmdMu.Lock("getProcess").Unlock()
	if x.cmd == nil {
		return nil
	}
	return x.cmd.Process
}

func (x *execution) isRunning() bool {
	defer x.cmdMu.Lock("isRunning").Unlock()

	return x.cmd != nil && x.cmd.ProcessState == nil
}
