package ops

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/moestate/newsdesk/internal/errors"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../digest.txt"},
		{"deep traversal", "../../etc/digest.txt"},
		{"mid-path traversal", "/tmp/../etc/digest.txt"},
		{"hidden in path", "/tmp/safe/../../../etc/shadow.txt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, PathCheckWrite)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_Extension(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{"txt", "digest-1.txt", false},
		{"json", "digest-1.json", false},
		{"upper case", "digest-1.TXT", false},
		{"no extension", "digest-1", true},
		{"jsonl", "digest-1.jsonl", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(filepath.Join(dir, tc.file), PathCheckWrite, dir)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidatePath() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidatePath_DirectoryRestriction(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatal(err)
	}

	if err := ValidatePath(filepath.Join(dir, "digest.txt"), PathCheckWrite, dir); err != nil {
		t.Errorf("file directly in allowed dir rejected: %v", err)
	}
	if err := ValidatePath(filepath.Join(sub, "digest.txt"), PathCheckWrite, dir); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("nested file: err = %v, want ErrInvalidRequest", err)
	}
	if err := ValidatePath(filepath.Join(t.TempDir(), "digest.txt"), PathCheckWrite, dir); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("outside dir: err = %v, want ErrInvalidRequest", err)
	}
}

func TestValidatePath_ReadMissingFile(t *testing.T) {
	dir := t.TempDir()
	err := ValidatePath(filepath.Join(dir, "missing.txt"), PathCheckRead, dir)
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("err = %v, want ErrFileNotFound", err)
	}
}

func TestValidatePath_SymlinkRejected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	if err := os.WriteFile(target, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	for _, mode := range []PathCheckMode{PathCheckRead, PathCheckWrite} {
		if err := ValidatePath(link, mode, dir); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("mode %d: err = %v, want ErrInvalidRequest", mode, err)
		}
	}
}

func TestValidatePath_Empty(t *testing.T) {
	if err := ValidatePath("", PathCheckWrite); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}
