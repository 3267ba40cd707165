package deployer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/logging"
	"github.com/picklr-io/stackctl/internal/remote"
	"github.com/picklr-io/stackctl/internal/stackerr"
	"github.com/picklr-io/stackctl/internal/validation"
)

// ObjectType is the kind of workspace object a resource uploads.
type ObjectType string

const (
	ObjectNotebook  ObjectType = "NOTEBOOK"
	ObjectDirectory ObjectType = "DIRECTORY"
)

// WorkspaceProperties are the properties of a workspace resource.
type WorkspaceProperties struct {
	SourcePath string     `json:"source_path" validate:"required"`
	Path       string     `json:"path" validate:"required"`
	ObjectType ObjectType `json:"object_type" validate:"required,oneof=NOTEBOOK DIRECTORY"`
}

// DecodeWorkspaceProperties reads and checks workspace properties from a
// resource's generic property map.
func DecodeWorkspaceProperties(properties map[string]any) (*WorkspaceProperties, error) {
	raw, err := json.Marshal(properties)
	if err != nil {
		return nil, stackerr.NewConfigurationError("properties", "cannot encode workspace properties", err)
	}

	var props WorkspaceProperties
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, stackerr.NewConfigurationError("properties", "workspace properties have the wrong shape", err)
	}
	if err := validation.ValidateProperties(&props); err != nil {
		return nil, err
	}
	return &props, nil
}

// WorkspaceDeployer uploads notebooks and directories to the workspace.
type WorkspaceDeployer struct {
	workspace WorkspaceService
}

// NewWorkspaceDeployer returns a deployer backed by the given workspace API.
func NewWorkspaceDeployer(workspace WorkspaceService) *WorkspaceDeployer {
	return &WorkspaceDeployer{workspace: workspace}
}

// Deploy uploads the local source to its workspace path. The object type
// declared in properties must match what is on disk; this is checked before
// the workspace is contacted.
func (d *WorkspaceDeployer) Deploy(ctx context.Context, properties map[string]any, prior *ir.PhysicalID, opts Options) (*ir.PhysicalID, map[string]any, error) {
	props, err := DecodeWorkspaceProperties(properties)
	if err != nil {
		return nil, nil, err
	}

	localPath := props.SourcePath
	if !filepath.IsAbs(localPath) && opts.BaseDir != "" {
		localPath = filepath.Join(opts.BaseDir, localPath)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return nil, nil, stackerr.NewConfigurationError("properties.source_path",
			fmt.Sprintf("cannot read %s", props.SourcePath), err)
	}

	actual := ObjectNotebook
	if info.IsDir() {
		actual = ObjectDirectory
	}
	if actual != props.ObjectType {
		return nil, nil, stackerr.NewConfigurationError("properties.object_type",
			fmt.Sprintf("object_type %s is not consistent with actual object type %s of %s", props.ObjectType, actual, props.SourcePath), nil)
	}

	logging.Info("uploading workspace asset", "type", props.ObjectType, "source", localPath, "path", props.Path)

	switch props.ObjectType {
	case ObjectNotebook:
		language, format, ok := remote.LanguageForPath(localPath)
		if !ok {
			return nil, nil, stackerr.NewConfigurationError("properties.source_path",
				fmt.Sprintf("cannot infer notebook language and format of %s, check the file extension", props.SourcePath), nil)
		}
		if err := d.workspace.Mkdirs(ctx, path.Dir(props.Path)); err != nil {
			return nil, nil, fmt.Errorf("failed to create workspace directory for %s: %w", props.Path, err)
		}
		if err := d.workspace.ImportFile(ctx, localPath, props.Path, language, format, opts.Overwrite); err != nil {
			return nil, nil, err
		}
	case ObjectDirectory:
		if err := d.workspace.ImportDirectory(ctx, localPath, props.Path, opts.Overwrite, true); err != nil {
			return nil, nil, err
		}
	}

	if prior != nil && prior.Path != "" && prior.Path != props.Path {
		logging.Info("workspace asset path changed, the previous object is left in place",
			"from", prior.Path, "to", props.Path)
	}

	output, err := d.workspace.GetStatus(ctx, props.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read workspace status of %s: %w", props.Path, err)
	}

	return &ir.PhysicalID{Path: props.Path}, output, nil
}
