// Package pid guards against two controllers driving the same fan.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/fanmgr/internal/errors"
)

const (
	pidFile = "fanmgr.pid"
)

// File is a PID file at a fixed path.
type File struct {
	path string
}

// Default returns the PID file in the system temp directory.
func Default() File {
	return At(filepath.Join(os.TempDir(), pidFile))
}

// At returns a PID file at path.
func At(path string) File {
	return File{path: path}
}

// Path returns the file location.
func (f File) Path() string {
	return f.path
}

// Write records the current process ID, failing if the recorded process is
// still alive. A stale or unreadable file is overwritten.
func (f File) Write() error {
	errFactory := errors.New()

	if bytes, err := os.ReadFile(f.path); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(bytes))); err == nil && pid != os.Getpid() && alive(pid) {
			return errFactory.WithData(errors.ErrAlreadyRunning, pid)
		}
	}

	if err := os.WriteFile(f.path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func (f File) Remove() error {
	errFactory := errors.New()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
