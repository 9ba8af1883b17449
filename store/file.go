package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/leeforge/essentials/errors"
	"github.com/leeforge/essentials/json"
)

const fileSuffix = ".json"

// FileStore keeps one JSON document per plugin in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, apperrors.NewValidation("store directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(pluginID string) (string, error) {
	if pluginID == "" || pluginID == "." || pluginID == ".." || strings.ContainsAny(pluginID, `/\`) {
		return "", apperrors.NewValidation(fmt.Sprintf("invalid plugin id %q", pluginID))
	}
	return filepath.Join(s.dir, pluginID+fileSuffix), nil
}

func (s *FileStore) Load(_ context.Context, pluginID string) (Record, error) {
	path, err := s.path(pluginID)
	if err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Record{}, notFound(pluginID)
	}
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}

// Save writes the record through a temporary file and a rename so readers
// never see a partial document.
func (s *FileStore) Save(_ context.Context, rec Record) error {
	path, err := s.path(rec.PluginID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(&rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.PluginID, err)
	}

	tmp, err := os.CreateTemp(s.dir, rec.PluginID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store directory %s: %w", s.dir, err)
	}
	var records []Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		rec, err := s.Load(ctx, strings.TrimSuffix(name, fileSuffix))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	sortRecords(records)
	return records, nil
}
