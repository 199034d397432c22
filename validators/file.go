// Package validators checks uploads before anything is written to disk
package validators

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrNoFile              = errors.New("no file provided")
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file extension")
)

// Config bundles, certificates and archives. Anything else is rejected
// before a single byte lands on disk
var allowedExtensions = []string{
	".ovpn", ".conf", ".config", ".txt", ".crt", ".key", ".pem", ".zip", ".rar", ".7z",
}

const maxFileNameSize = 255

// FileValidator rejects uploads with a disallowed extension or an
// oversized body. Returns the HTTP status code to respond with alongside
// the error
func FileValidator(fh *multipart.FileHeader) (int, error) {
	if fh == nil {
		return http.StatusBadRequest, ErrNoFile
	}

	if strings.TrimSpace(fh.Filename) == "" {
		return http.StatusBadRequest, ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, ErrFileNameTooLong
	}

	ext := strings.ToLower(path.Ext(fh.Filename))
	if !slices.Contains(allowedExtensions, ext) {
		return http.StatusBadRequest, ErrFileTypeUnsupported
	}

	if fh.Size > viper.GetInt64("upload.max_size") {
		return http.StatusRequestEntityTooLarge, ErrFileTooLarge
	}

	return 0, nil
}
