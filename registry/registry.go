// Package registry owns the persisted list of file records. It is the
// single source of truth for file metadata; the upload directory holds
// nothing but opaque-named byte blobs
package registry

import (
	"errors"
	"strings"
	"sync"
	"time"

	"vpndrop/files-api/model"
	"vpndrop/files-api/util"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no record matches the given id
var ErrNotFound = errors.New("file not found")

// ValidationError marks a rejected create/update payload. Handlers map
// it to a 400 instead of a 500
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// Meta holds the admin-editable subset of a record. Everything else
// (id, storedFilename, downloadCount, createdAt, filename) is owned by
// the registry and never touched by an update
type Meta struct {
	Name        string
	Network     string
	ExpiryDate  time.Time
	Description string
}

// Registry serializes every mutation of the record list behind one
// mutex. Each write is a full load-modify-save cycle, which is fine at
// the request rates a single admin produces
type Registry struct {
	mu   sync.Mutex
	path string
}

// New prepares the registry file at path, creating it with an empty
// list if missing. An error here is fatal to startup
func New(path string) (*Registry, error) {
	r := &Registry{path: path}

	if err := r.init(); err != nil {
		return nil, err
	}

	return r, nil
}

// List returns every record in insertion order, projected for public
// consumption: storedFilename stripped, isExpired derived at call time
func (r *Registry) List() ([]model.PublicFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.load()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]model.PublicFile, 0, len(files))

	for i := range files {
		out = append(out, files[i].Public(now))
	}

	return out, nil
}

// Get returns a copy of the record with the given id
func (r *Registry) Get(id string) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range files {
		if files[i].ID == id {
			f := files[i]
			return &f, nil
		}
	}

	return nil, ErrNotFound
}

// Create appends a new record for an already-stored blob. The caller
// must discard the blob if a ValidationError comes back
func (r *Registry) Create(meta Meta, filename, storedFilename string, byteSize int64) (*model.File, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, ValidationError("filename can't be empty")
	}

	if err := validateMeta(meta, true); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.load()
	if err != nil {
		return nil, err
	}

	rec := model.File{
		ID:             uuid.NewString(),
		Filename:       filename,
		StoredFilename: storedFilename,
		Name:           strings.TrimSpace(meta.Name),
		Network:        strings.TrimSpace(meta.Network),
		ExpiryDate:     meta.ExpiryDate,
		Size:           util.HumanSize(byteSize),
		Description:    meta.Description,
		DownloadCount:  0,
		CreatedAt:      time.Now(),
	}

	files = append(files, rec)

	if err := r.save(files); err != nil {
		return nil, err
	}

	return &rec, nil
}

// Update replaces the admin-editable fields of a record. Unlike Create
// it accepts a past expiry date: setting yesterday's date is how an
// admin kills a live download link
func (r *Registry) Update(id string, meta Meta) (*model.File, error) {
	if err := validateMeta(meta, false); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range files {
		if files[i].ID != id {
			continue
		}

		files[i].Name = strings.TrimSpace(meta.Name)
		files[i].Network = strings.TrimSpace(meta.Network)
		files[i].ExpiryDate = meta.ExpiryDate
		files[i].Description = meta.Description

		if err := r.save(files); err != nil {
			return nil, err
		}

		f := files[i]
		return &f, nil
	}

	return nil, ErrNotFound
}

// Delete removes the record and returns it so the caller can clean up
// the associated blob. A missing blob is the caller's non-problem
func (r *Registry) Delete(id string) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range files {
		if files[i].ID != id {
			continue
		}

		f := files[i]
		files = append(files[:i], files[i+1:]...)

		if err := r.save(files); err != nil {
			return nil, err
		}

		return &f, nil
	}

	return nil, ErrNotFound
}

// IncrementDownload bumps a record's download counter by one
func (r *Registry) IncrementDownload(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.load()
	if err != nil {
		return err
	}

	for i := range files {
		if files[i].ID == id {
			files[i].DownloadCount++
			return r.save(files)
		}
	}

	return ErrNotFound
}

// Stats scans the current list and counts. Nothing is cached, every
// call recomputes from scratch
func (r *Registry) Stats() (*model.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.load()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &model.Stats{TotalFiles: len(files)}

	for i := range files {
		if files[i].Expired(now) {
			s.ExpiredFiles++
		} else {
			s.ActiveFiles++
		}

		s.TotalDownloads += files[i].DownloadCount
	}

	return s, nil
}

func validateMeta(meta Meta, expiryMustBeFuture bool) error {
	if strings.TrimSpace(meta.Name) == "" {
		return ValidationError("name can't be empty")
	}

	if strings.TrimSpace(meta.Network) == "" {
		return ValidationError("network can't be empty")
	}

	if meta.ExpiryDate.IsZero() {
		return ValidationError("expiryDate is required")
	}

	if expiryMustBeFuture && !meta.ExpiryDate.After(time.Now()) {
		return ValidationError("expiryDate must be in the future")
	}

	return nil
}
