package state

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/picklr-io/stackctl/internal/ir"
)

// Backend defines the interface for status storage backends.
type Backend interface {
	// Read loads the status. A backend with no status yet returns an empty one.
	Read(ctx context.Context) (*ir.StackStatus, error)

	// Write replaces the stored status.
	Write(ctx context.Context, st *ir.StackStatus) error

	// Lock acquires an exclusive lock on the status.
	Lock(ctx context.Context) error

	// Unlock releases the lock on the status.
	Unlock(ctx context.Context) error
}

var (
	_ Backend = (*Manager)(nil)
	_ Backend = (*s3Backend)(nil)
)

// BackendConfig holds configuration for a status backend.
type BackendConfig struct {
	Type   string            `json:"type"` // "local", "s3"
	Config map[string]string `json:"config"`
}

// NewBackend creates the status backend for a stack whose local status file
// would live at statusPath.
func NewBackend(ctx context.Context, cfg *BackendConfig, statusPath string) (Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("backend configuration is nil")
	}

	switch cfg.Type {
	case "local", "":
		if p := cfg.Config["path"]; p != "" {
			statusPath = p
		}
		return NewManager(statusPath), nil
	case "s3":
		return newS3Backend(ctx, cfg.Config, filepath.Base(statusPath))
	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Type)
	}
}
