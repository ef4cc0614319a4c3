package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Source loads raw records from somewhere.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Records, error)
}

// FetchError reports that a source could not produce its records.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("catalog source %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Decode parses a YAML catalog and validates it.
func Decode(r io.Reader) (*Records, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var recs Records
	if err := dec.Decode(&recs); err != nil {
		if err == io.EOF {
			return &Records{}, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := recs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &recs, nil
}

// StaticSource serves the built-in mock catalog.
type StaticSource struct{}

func (StaticSource) Name() string { return "static" }

// Load returns a fresh copy of the embedded catalog on every call.
func (StaticSource) Load(ctx context.Context) (*Records, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(embeddedCatalog))
}

// FileSource reads a YAML catalog from disk on every Load.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return "file:" + f.Path }

func (f FileSource) Load(ctx context.Context) (*Records, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file)
}

// NewSource picks the file source when path is set, else the static catalog.
func NewSource(path string) Source {
	if path == "" {
		return StaticSource{}
	}
	return FileSource{Path: path}
}
