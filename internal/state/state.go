package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"code.cloudfoundry.org/clock"

	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/logging"
)

// Manager reads and writes the status document stored next to a stack
// config on the local filesystem.
type Manager struct {
	path  string
	clock clock.Clock
}

// NewManager returns a manager for the status file at path.
func NewManager(path string) *Manager {
	return NewManagerWithClock(path, clock.NewClock())
}

// NewManagerWithClock is NewManager with the clock used for lock bookkeeping.
func NewManagerWithClock(path string, clk clock.Clock) *Manager {
	return &Manager{path: path, clock: clk}
}

// Path returns the status file path.
func (m *Manager) Path() string {
	return m.path
}

// Read loads the status document. A missing file is not an error: it means
// the stack has never been deployed, and an empty status is returned.
func (m *Manager) Read(_ context.Context) (*ir.StackStatus, error) {
	raw, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Debug("no status file, treating stack as never deployed", "path", m.path)
		return &ir.StackStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status file %s: %w", m.path, err)
	}

	st, err := Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load status from %s: %w", m.path, err)
	}
	return st, nil
}

// Write saves the status document in canonical form. The file is replaced
// atomically so an interrupted write leaves the previous status intact.
func (m *Manager) Write(_ context.Context, st *ir.StackStatus) error {
	content, err := Marshal(st)
	if err != nil {
		return err
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary status file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write status file %s: %w", m.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write status file %s: %w", m.path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set status file mode: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		return fmt.Errorf("failed to replace status file %s: %w", m.path, err)
	}

	return nil
}
