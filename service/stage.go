// Package service contains the blob staging logic used by the upload
// and delete endpoints
package service

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// Stager writes uploaded bytes into the blob directory under generated
// names. Uploads are two phased: Stage persists the bytes, then either
// Commit keeps them once the registry accepted the metadata, or Discard
// removes them again. That way a failed request can't leave orphaned
// blobs behind
type Stager struct {
	Dir string
}

type StagedFile struct {
	StoredName string
	Size       int64

	dir       string
	committed bool
}

// Stage streams src to disk under a fresh stored name built from the
// current timestamp, a random id and the original extension
func (s *Stager) Stage(src io.Reader, originalName string) (*StagedFile, error) {
	id, err := gonanoid.New(12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate file id, %w", err)
	}

	ext := strings.ToLower(path.Ext(originalName))
	stored := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), id, ext)

	dst, err := os.Create(filepath.Join(s.Dir, stored))
	if err != nil {
		return nil, fmt.Errorf("failed to create blob file, %w", err)
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return nil, fmt.Errorf("failed to write blob file, %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("failed to close blob file, %w", err)
	}

	return &StagedFile{
		StoredName: stored,
		Size:       n,
		dir:        s.Dir,
	}, nil
}

// Commit marks the staged bytes as permanent
func (f *StagedFile) Commit() {
	f.committed = true
}

// Discard removes the staged bytes unless they were committed. Cleanup
// failures are logged and swallowed so they can't mask the error that
// caused the discard in the first place
func (f *StagedFile) Discard() {
	if f.committed {
		return
	}

	if err := os.Remove(filepath.Join(f.dir, f.StoredName)); err != nil && !os.IsNotExist(err) {
		zap.L().Error("Failed to clean up staged upload",
			zap.String("storedFilename", f.StoredName),
			zap.Error(err))
	}
}

// Path resolves a stored name inside the blob directory
func (s *Stager) Path(storedName string) string {
	return filepath.Join(s.Dir, storedName)
}

// Remove deletes a committed blob, best effort. Records can outlive
// their bytes, so a missing file is not an error
func (s *Stager) Remove(storedName string) {
	if storedName == "" {
		return
	}

	if err := os.Remove(filepath.Join(s.Dir, storedName)); err != nil && !os.IsNotExist(err) {
		zap.L().Error("Failed to delete blob",
			zap.String("storedFilename", storedName),
			zap.Error(err))
	}
}
