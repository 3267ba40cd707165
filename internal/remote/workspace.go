package remote

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/picklr-io/stackctl/internal/logging"
)

type mkdirsRequest struct {
	Path string `json:"path"`
}

type importRequest struct {
	Path      string   `json:"path"`
	Format    Format   `json:"format"`
	Language  Language `json:"language,omitempty"`
	Content   string   `json:"content"`
	Overwrite bool     `json:"overwrite"`
}

// Mkdirs creates a workspace directory and any missing parents.
func (cli *Client) Mkdirs(ctx context.Context, remotePath string) error {
	resp, err := cli.post(ctx, "/api/2.0/workspace/mkdirs", nil, mkdirsRequest{Path: remotePath})
	defer ensureReaderClosed(resp)
	return err
}

// ImportFile uploads one local file to remotePath. With overwrite false the
// service rejects the import if an object already exists there.
func (cli *Client) ImportFile(ctx context.Context, localPath, remotePath string, language Language, format Format, overwrite bool) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	req := importRequest{
		Path:      remotePath,
		Format:    format,
		Language:  language,
		Content:   base64.StdEncoding.EncodeToString(content),
		Overwrite: overwrite,
	}
	resp, err := cli.post(ctx, "/api/2.0/workspace/import", nil, req)
	defer ensureReaderClosed(resp)
	if err != nil {
		return fmt.Errorf("failed to import %s to %s: %w", localPath, remotePath, err)
	}
	return nil
}

// ImportDirectory recursively uploads a local directory. Notebook files are
// imported without their extension, other files are skipped with a notice.
// Hidden entries are skipped when excludeHidden is set.
func (cli *Client) ImportDirectory(ctx context.Context, localPath, remotePath string, overwrite, excludeHidden bool) error {
	if err := cli.Mkdirs(ctx, remotePath); err != nil {
		return fmt.Errorf("failed to create %s: %w", remotePath, err)
	}

	entries, err := os.ReadDir(localPath)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", localPath, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if excludeHidden && strings.HasPrefix(name, ".") {
			continue
		}

		src := filepath.Join(localPath, name)
		if entry.IsDir() {
			if err := cli.ImportDirectory(ctx, src, path.Join(remotePath, name), overwrite, excludeHidden); err != nil {
				return err
			}
			continue
		}

		language, format, ok := LanguageForPath(name)
		if !ok {
			logging.Info("skipping file without a notebook extension",
				"file", src, "extensions", strings.Join(KnownExtensions(), ", "))
			continue
		}

		dst := path.Join(remotePath, trimNotebookExtension(name))
		if err := cli.ImportFile(ctx, src, dst, language, format, overwrite); err != nil {
			return err
		}
		logging.Info("imported notebook", "source", src, "path", dst)
	}

	return nil
}

// GetStatus returns the workspace's description of the object at remotePath.
func (cli *Client) GetStatus(ctx context.Context, remotePath string) (map[string]any, error) {
	query := url.Values{}
	query.Set("path", remotePath)

	resp, err := cli.get(ctx, "/api/2.0/workspace/get-status", query)
	defer ensureReaderClosed(resp)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}
