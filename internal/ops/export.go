package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

// Export validates d and renders it as 2-space indented JSON.
func Export(d *digest.Digest) ([]byte, error) {
	if d == nil {
		return nil, errors.NewInvalidRequest("digest is required")
	}
	if err := digest.Validate(d); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return data, nil
}

// ExportFileInput contains parameters for the ExportFile operation.
type ExportFileInput struct {
	ID   string
	Dir  string // exports directory; the file must land directly inside it
	Path string // optional, default: Dir/digest-{id}.txt
}

// ExportFileOutput contains the result of the ExportFile operation.
type ExportFileOutput struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// ExportFile writes the exported digest to disk.
// The file is written to a temp name and renamed into place, so an existing
// export survives a failed write.
func (m *Manager) ExportFile(ctx context.Context, input ExportFileInput) (*ExportFileOutput, error) {
	d, err := m.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.NewNotFound(input.ID)
	}
	return WriteExport(d, input.Dir, input.Path)
}

// WriteExport writes d to path (default dir/digest-{id}.txt).
func WriteExport(d *digest.Digest, dir, path string) (*ExportFileOutput, error) {
	data, err := Export(d)
	if err != nil {
		return nil, err
	}

	if path == "" {
		if dir == "" {
			return nil, errors.NewInvalidRequest("path or exports directory is required")
		}
		path = filepath.Join(dir, d.Filename())
	}
	var allowed []string
	if dir != "" {
		allowed = append(allowed, dir)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
		}
	}
	if err := ValidatePath(path, PathCheckWrite, allowed...); err != nil {
		return nil, err
	}

	if err := writeAtomic(path, data); err != nil {
		return nil, err
	}
	return &ExportFileOutput{ID: d.ID, Path: path, Bytes: len(data)}, nil
}

func writeAtomic(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		if errors.As(err).Code == errors.ErrInvalidRequest {
			return err
		}
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// os.Rename fails on Windows when the destination exists; keep the old file.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
