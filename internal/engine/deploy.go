package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/picklr-io/stackctl/internal/deployer"
	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/logging"
	"github.com/picklr-io/stackctl/internal/state"
)

// DeployOptions controls a full deploy run.
type DeployOptions struct {
	// Overwrite replaces existing workspace objects.
	Overwrite bool

	// Backend selects where status is stored. Nil means the local file
	// next to the config.
	Backend *state.BackendConfig

	Callback DeployCallback
}

// Deploy loads the config at configPath, reconciles it against the stored
// status and saves the new status. Status is only written when every
// resource deployed.
func (e *Engine) Deploy(ctx context.Context, configPath string, opts DeployOptions) (st *ir.StackStatus, err error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	cfg, err := e.evaluator.LoadConfig(ctx, absPath)
	if err != nil {
		return nil, err
	}

	backend, err := e.openBackend(ctx, absPath, opts.Backend)
	if err != nil {
		return nil, err
	}

	if err := backend.Lock(ctx); err != nil {
		return nil, fmt.Errorf("failed to lock stack status: %w", err)
	}
	defer func() {
		if unlockErr := backend.Unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to unlock stack status: %w", unlockErr))
		}
	}()

	prior, err := backend.Read(ctx)
	if err != nil {
		return nil, err
	}

	st, err = e.ReconcileWithCallback(ctx, cfg, prior, deployer.Options{
		Overwrite: opts.Overwrite,
		BaseDir:   filepath.Dir(absPath),
	}, opts.Callback)
	if err != nil {
		return nil, err
	}

	logging.Info("saving stack status", "stack", st.Name, "resources", len(st.Deployed))
	if err := backend.Write(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to save stack status: %w", err)
	}
	return st, nil
}

// ReadStatus returns the stored status for the config at configPath without
// loading the config itself.
func (e *Engine) ReadStatus(ctx context.Context, configPath string, backendCfg *state.BackendConfig) (*ir.StackStatus, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	backend, err := e.openBackend(ctx, absPath, backendCfg)
	if err != nil {
		return nil, err
	}
	return backend.Read(ctx)
}

func (e *Engine) openBackend(ctx context.Context, absConfigPath string, cfg *state.BackendConfig) (state.Backend, error) {
	if cfg == nil {
		cfg = &state.BackendConfig{Type: "local"}
	}
	backend, err := state.NewBackend(ctx, cfg, state.StatusPathFor(absConfigPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open status backend: %w", err)
	}
	return backend, nil
}
