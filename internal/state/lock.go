package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// staleLockAge is how old a lock file may get before it is assumed to belong
// to a process that died.
const staleLockAge = 10 * time.Minute

// Lock takes the status lock so two deploys of one stack cannot interleave.
func (m *Manager) Lock(_ context.Context) error {
	lockPath := m.lockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	if info, err := os.Stat(lockPath); err == nil {
		if m.clock.Since(info.ModTime()) <= staleLockAge {
			holder, _ := os.ReadFile(lockPath)
			return fmt.Errorf("status is locked by another process (%s, lock file: %s); "+
				"if this is an error, remove the lock file manually",
				strings.Join(strings.Fields(string(holder)), " "), lockPath)
		}
		if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove stale lock file: %w", err)
		}
	}

	content := fmt.Sprintf("pid=%d\ntime=%s\n", os.Getpid(), m.clock.Now().UTC().Format(time.RFC3339))
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("status is locked by another process (lock file: %s)", lockPath)
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return nil
}

// Unlock releases the status lock.
func (m *Manager) Unlock(_ context.Context) error {
	if err := os.Remove(m.lockPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

func (m *Manager) lockPath() string {
	return m.path + ".lock"
}
