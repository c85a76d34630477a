package kv

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	lockFile           = "store.lock"
	defaultLockTimeout = 2 * time.Second
	initialBackoff     = 5 * time.Millisecond
	maxBackoff         = 50 * time.Millisecond
)

// slotLock serializes slot writes across processes sharing one data dir,
// e.g. `quotes watch` and a one-shot `quotes add`. The OS releases the
// lock if the holder exits.
type slotLock struct {
	path string
	f    *os.File
}

func newSlotLock(dir string) *slotLock {
	return &slotLock{path: filepath.Join(dir, lockFile)}
}

// acquire waits up to timeout for the exclusive lock
func (l *slotLock) acquire(timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	l.f = f

	deadline := time.Now().Add(timeout)
	backoff := initialBackoff
	for {
		if err := l.tryLock(); err == nil {
			l.writeHolder()
			return nil
		}
		if time.Now().After(deadline) {
			holder := l.holder()
			l.f.Close()
			l.f = nil
			return fmt.Errorf("store lock timeout after %v (holder %s)", timeout, holder)
		}
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
}

func (l *slotLock) release() {
	if l.f == nil {
		return
	}
	l.f.Truncate(0)
	l.unlock()
	l.f.Close()
	l.f = nil
}

func (l *slotLock) writeHolder() {
	l.f.Truncate(0)
	l.f.Seek(0, 0)
	fmt.Fprintf(l.f, "pid:%d\ntime:%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
}

// holder describes the process holding the lock, for timeout errors
func (l *slotLock) holder() string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return "unknown"
	}
	var pid, since string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if v, ok := strings.CutPrefix(line, "pid:"); ok {
			pid = v
		} else if v, ok := strings.CutPrefix(line, "time:"); ok {
			since = v
		}
	}
	if pid == "" {
		return "unknown"
	}
	if n, err := strconv.Atoi(pid); err == nil && !processAlive(n) {
		return fmt.Sprintf("pid:%s since %s, stale", pid, since)
	}
	return fmt.Sprintf("pid:%s since %s", pid, since)
}
