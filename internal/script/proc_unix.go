//go:build !windows

package script

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
)

var findBash sync.Once
var errFindingBash error
var bash = ""

func shellCommand(text string) (string, []string, error) {
	if findBash.Do(func() {
		var b bytes.Buffer
		whichBash := exec.Command("/bin/sh", "-c", "which bash")
		whichBash.Stdout = &b
		if errFindingBash = whichBash.Run(); errFindingBash != nil {
			return
		}
		bash = strings.TrimSpace(b.String())
	}); errFindingBash != nil {
		return "", nil, errFindingBash
	}
	return bash, []string{"-c", text}, nil
}

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func interruptProcess(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGINT); err != nil {
		return fmt.Errorf("sigint error: %w", err)
	}
	return nil
}

func killProcess(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil && !strings.Contains(err.Error(), "no such process") {
		return fmt.Errorf("sigkill error: %w", err)
	}
	return nil
}
