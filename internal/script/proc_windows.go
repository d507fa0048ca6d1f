//go:build windows

package script

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

func shellCommand(text string) (string, []string, error) {
	comspec := os.Getenv("ComSpec")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	return comspec, []string{"/C", text}, nil
}

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

// interruptProcess sends CTRL_BREAK to the script's process group, which is
// the closest Windows has to SIGINT for console programs.
func interruptProcess(p *os.Process) error {
	if err := windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(p.Pid)); err != nil {
		return fmt.Errorf("ctrl-break error: %w", err)
	}
	return nil
}

// killProcess terminates the whole process tree; Process.Kill would leave
// the script's children running.
func killProcess(p *os.Process) error {
	kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(p.Pid))
	if err := kill.Run(); err != nil {
		return fmt.Errorf("taskkill error: %w", err)
	}
	return nil
}
