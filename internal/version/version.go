// Package version provides build version information and runtime metadata.
package version

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	// These are set via ldflags at build time.
	Version = ""
	Commit  = ""
	Date    = ""

	once sync.Once

	// execCommand is swapped out in tests.
	execCommand = exec.Command
)

func ensureInitialized() {
	once.Do(func() {
		if Date == "" {
			Date = time.Now().Format("2006-01-02")
		}
		if Commit == "" {
			Commit = gitOutput("describe", "--always", "--dirty")
			if Commit == "" {
				Commit = "unknown"
			}
		}
		if Version == "" {
			if v := gitOutput("describe", "--tags", "--abbrev=0"); v != "" {
				Version = strings.TrimPrefix(v, "v")
			} else {
				Version = "dev"
			}
		}
	})
}

func gitOutput(args ...string) string {
	cmd := execCommand("git", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(out.String())
}

// reset clears the cached values so tests can re-run initialization.
func reset() {
	Version = ""
	Commit = ""
	Date = ""
	once = sync.Once{}
}

// Info returns a one-line version banner.
func Info() string {
	ensureInitialized()
	return fmt.Sprintf("ccmon %s (commit: %s, built: %s, %s/%s)",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
