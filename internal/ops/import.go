package ops

import (
	"context"
	"fmt"
	"io"

	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

// MaxImportBytes bounds the size of an imported digest file.
const MaxImportBytes = 4 << 20

// ImportMode controls id collision behavior.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // default: fail when the id exists
	ImportModeReplace ImportMode = "replace" // overwrite the stored digest
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string
	Dir  string // when set, the file must sit directly inside it
	Mode ImportMode
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	ID       string `json:"id"`
	Replaced bool   `json:"replaced"`
}

// Import reads a file written by ExportFile and stores it with its original
// id and timestamps.
func (m *Manager) Import(ctx context.Context, input ImportInput) (*ImportOutput, error) {
	mode := input.Mode
	if mode == "" {
		mode = ImportModeError
	}
	if mode != ImportModeError && mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace")
	}

	var allowed []string
	if input.Dir != "" {
		allowed = append(allowed, input.Dir)
	}
	if err := ValidatePath(input.Path, PathCheckRead, allowed...); err != nil {
		return nil, err
	}

	d, err := readExport(input.Path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.load(ctx, "import")
	if err != nil {
		return nil, err
	}

	out := &ImportOutput{ID: d.ID}
	op := "save"
	if i := indexOf(list, d.ID); i >= 0 {
		if mode == ImportModeError {
			return nil, errors.NewAlreadyExists(d.ID)
		}
		list[i] = *d
		out.Replaced = true
		op = "replace"
	} else {
		list = append(list, *d)
	}

	if err := m.save(ctx, "import", list); err != nil {
		return nil, err
	}

	err = m.mirrored(op, d.ID, func() error {
		if out.Replaced {
			return m.mirror.Replace(ctx, d)
		}
		return m.mirror.Save(ctx, d)
	})
	return out, err
}

func readExport(path string) (*digest.Digest, error) {
	f, err := openFileNoFollowRead(path)
	if err != nil {
		if e := errors.As(err); e.Code != errors.ErrInternal {
			return nil, e
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if len(data) > MaxImportBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("import file exceeds %d bytes", MaxImportBytes))
	}

	d, err := digest.Decode(data)
	if err != nil {
		return nil, err
	}
	// Stored digests are addressed by id.
	if d.ID == "" {
		return nil, errors.NewValidation(map[string]string{"id": "id must not be empty"})
	}
	return d, nil
}
