//go:build unix

package kv

import (
	"os"
	"syscall"
)

func (l *slotLock) tryLock() error {
	return syscall.Flock(int(l.f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

func (l *slotLock) unlock() {
	syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
}

// processAlive sends signal 0, which only checks that pid exists
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
