// Package storage writes annotation outputs to disk: the structured
// JSON record, the columnar HDF5 file, and the dictionary mapping
// files that let numeric IDs be reverse-mapped to their tokens.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"sgdet-annotate/domain/dictionary"
	"sgdet-annotate/domain/export"
)

// ErrPersistence wraps every failure to write or read an output file.
var ErrPersistence = errors.New("persistence error")

// Store writes annotation outputs into a single output directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the output directory if needed and returns a store
// rooted at it.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output directory: %v", ErrPersistence, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// RecordPath returns where the structured record for baseName lives.
func (s *Store) RecordPath(baseName string) string {
	return filepath.Join(s.dir, baseName+".json")
}

// ColumnarPath returns where the columnar file for baseName lives.
func (s *Store) ColumnarPath(baseName string) string {
	return filepath.Join(s.dir, baseName+".h5")
}

// MappingPath returns where the mapping file for a dictionary kind lives.
func (s *Store) MappingPath(kind dictionary.Kind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

// SaveAnnotation writes the structured record and the columnar file
// for one image. Both artifacts are staged to temp files first and
// renamed into place only after both writes succeeded, so a failed
// save leaves the previously saved pair untouched and consistent.
func (s *Store) SaveAnnotation(baseName string, rec *export.Record, col *export.Columnar) (recordPath, columnarPath string, err error) {
	recordPath = s.RecordPath(baseName)
	columnarPath = s.ColumnarPath(baseName)
	recTmp := recordPath + ".tmp"
	colTmp := columnarPath + ".tmp"

	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return "", "", fmt.Errorf("%w: encode record: %v", ErrPersistence, err)
	}
	if err := os.WriteFile(recTmp, data, 0o644); err != nil {
		return "", "", fmt.Errorf("%w: write %s: %v", ErrPersistence, recTmp, err)
	}
	if err := writeColumnarFile(colTmp, col); err != nil {
		os.Remove(recTmp)
		os.Remove(colTmp)
		return "", "", fmt.Errorf("%w: write %s: %v", ErrPersistence, colTmp, err)
	}

	if err := os.Rename(recTmp, recordPath); err != nil {
		os.Remove(recTmp)
		os.Remove(colTmp)
		return "", "", fmt.Errorf("%w: replace %s: %v", ErrPersistence, recordPath, err)
	}
	if err := os.Rename(colTmp, columnarPath); err != nil {
		os.Remove(colTmp)
		return "", "", fmt.Errorf("%w: replace %s: %v", ErrPersistence, columnarPath, err)
	}

	s.logger.Info("annotation outputs saved", "record", recordPath, "columnar", columnarPath,
		"boxes", col.NumBoxes, "relationships", col.NumRelationships)
	return recordPath, columnarPath, nil
}

// SaveMapping writes a dictionary's token->ID mapping next to the
// annotation outputs, replacing any previous mapping of that kind.
func (s *Store) SaveMapping(d *dictionary.Dictionary) (string, error) {
	data, err := json.MarshalIndent(d.Mapping(), "", "    ")
	if err != nil {
		return "", fmt.Errorf("%w: encode %s mapping: %v", ErrPersistence, d.Kind(), err)
	}
	path := s.MappingPath(d.Kind())
	if err := s.writeAtomic(path, data); err != nil {
		return "", err
	}
	s.logger.Info("mapping saved", "kind", d.Kind(), "path", path, "tokens", d.Len())
	return path, nil
}

// LoadMapping reads a previously saved mapping file and rebuilds its
// dictionary. Returns (nil, nil) when no mapping of that kind exists.
func (s *Store) LoadMapping(kind dictionary.Kind) (*dictionary.Dictionary, error) {
	data, err := os.ReadFile(s.MappingPath(kind))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s mapping: %v", ErrPersistence, kind, err)
	}

	var mapping map[string]int
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("%w: parse %s mapping: %v", ErrPersistence, kind, err)
	}
	d, err := dictionary.FromMapping(kind, mapping)
	if err != nil {
		return nil, fmt.Errorf("%w: %s mapping: %v", ErrPersistence, kind, err)
	}
	return d, nil
}

func (s *Store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", ErrPersistence, path, err)
	}
	return nil
}
