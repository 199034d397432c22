package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vpndrop/files-api/model"
)

// init makes sure the registry file exists and holds a valid list. Runs
// once at startup, before any request is served
func (r *Registry) init() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create registry directory, %w", err)
	}

	if _, err := os.Stat(r.path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat registry file, %w", err)
		}

		if err := os.WriteFile(r.path, []byte("[]\n"), 0o644); err != nil {
			return fmt.Errorf("failed to create registry file, %w", err)
		}

		return nil
	}

	// Fail fast on a corrupt file instead of erroring on the first request
	if _, err := r.load(); err != nil {
		return err
	}

	return nil
}

// load reads the whole list. Callers must hold the registry mutex
func (r *Registry) load() ([]model.File, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file, %w", err)
	}

	var files []model.File
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, fmt.Errorf("failed to parse registry file, %w", err)
	}

	return files, nil
}

// save serializes the whole list back. The write goes through a temp
// file and a rename so a crash mid-write can't leave a truncated list
func (r *Registry) save(files []model.File) error {
	// A nil slice would serialize as "null" and break the next load
	if files == nil {
		files = []model.File{}
	}

	raw, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize registry, %w", err)
	}

	tmp := fmt.Sprintf("%s.%d.tmp", r.path, time.Now().UnixNano())
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file, %w", err)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace registry file, %w", err)
	}

	return nil
}
