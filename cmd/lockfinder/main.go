// Lockfinder reads a taskopy debug log written with TASKOPY_MUTEX_DEBUG set
// and reports which site last took each mutex without releasing it. Run it
// on the log of a hung process to find the deadlock.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var logfile = flag.String("logfile", "taskopy.log", "path to the debug log to consider")

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	file, err := os.Open(*logfile)
	if err != nil {
		return err
	}
	defer file.Close()

	l, err := scan(file)
	if err != nil {
		return err
	}
	fmt.Print(l.report())
	return nil
}

type lockfinder struct {
	// holders maps each mutex to the site holding it, or "" if it's free.
	holders map[string]string
}

func scan(r io.Reader) (*lockfinder, error) {
	l := &lockfinder{holders: map[string]string{}}
	scn := bufio.NewScanner(r)
	for scn.Scan() {
		l.handleLine(scn.Text())
	}
	return l, scn.Err()
}

var (
	opRE   = regexp.MustCompile(`msg="(?P<Op>seeks|receives|releases) lock"`)
	lockRE = regexp.MustCompile(`\bmutex=(?P<Lock>"(?:[^"\\]|\\.)*"|\S+)`)
	siteRE = regexp.MustCompile(`\bsite=(?P<Site>"(?:[^"\\]|\\.)*"|\S+)`)
)

// attr returns the value of the attribute matched by re, unquoted.
func attr(re *regexp.Regexp, line string) string {
	match := re.FindStringSubmatch(line)
	if len(match) < 2 {
		return ""
	}
	if v, err := strconv.Unquote(match[1]); err == nil {
		return v
	}
	return match[1]
}

func (l *lockfinder) handleLine(line string) {
	op := opRE.FindStringSubmatch(line)
	lock := attr(lockRE, line)
	if len(op) == 0 || lock == "" {
		return
	}
	site := attr(siteRE, line)
	switch op[1] {
	case "seeks":
		if _, known := l.holders[lock]; !known {
			l.holders[lock] = ""
		}
	case "receives":
		l.holders[lock] = site
	case "releases":
		l.holders[lock] = ""
	}
}

func (l *lockfinder) report() string {
	var locks []string
	for lock := range l.holders {
		locks = append(locks, lock)
	}
	sort.Strings(locks)

	var buf strings.Builder
	fmt.Fprintf(&buf, "report\n")
	for _, lock := range locks {
		if site := l.holders[lock]; site != "" {
			fmt.Fprintf(&buf, "- %s is held by %s\n", lock, site)
		}
	}
	for _, lock := range locks {
		if l.holders[lock] == "" {
			fmt.Fprintf(&buf, "- %s is not held\n", lock)
		}
	}
	return buf.String()
}
