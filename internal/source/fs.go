package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"survey-dashboard/internal/analysis"
	"survey-dashboard/internal/state"
)

// Filesystem reads CSV tables from a directory.
type Filesystem struct {
	root string
	csv  *analysis.CSVService
}

// NewFilesystem fails when root is not an existing directory.
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "./clean_data"
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", root)
	}
	return &Filesystem{root: root, csv: analysis.NewCSVService()}, nil
}

func (f *Filesystem) Driver() Driver { return DriverFilesystem }

func (f *Filesystem) Close() error { return nil }

func (f *Filesystem) Load(ctx context.Context, name string) (*state.DataFrame, error) {
	key, err := sanitizeName(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(f.root, filepath.FromSlash(key))
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	df, err := f.csv.Parse(file, key)
	if err != nil {
		return nil, err
	}
	df.FilePath = path
	return df, nil
}

// sanitizeName keeps table names inside the source root.
func sanitizeName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty table name")
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid absolute table name %q", name)
	}
	return filepath.ToSlash(filepath.Clean(name)), nil
}
