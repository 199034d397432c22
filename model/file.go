// Package model defines the records persisted by the registry
package model

import "time"

type File struct {
	ID string `json:"id"`

	// Original file name as the admin uploaded it. Shown in the listing
	// and used as the download name
	Filename string `json:"filename"`

	// Server generated on-disk key. Stripped from the public listing so
	// clients can't guess direct paths into the upload directory
	StoredFilename string `json:"storedFilename"`

	Name        string    `json:"name"`
	Network     string    `json:"network"`
	ExpiryDate  time.Time `json:"expiryDate"`
	Size        string    `json:"size"`
	Description string    `json:"description"`

	DownloadCount int       `json:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Expired reports whether the file's expiry date lies before now.
// Expired files stay listed, only their download is blocked
func (f *File) Expired(now time.Time) bool {
	return f.ExpiryDate.Before(now)
}

// PublicFile is the projection returned by the public listing
type PublicFile struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Name          string    `json:"name"`
	Network       string    `json:"network"`
	ExpiryDate    time.Time `json:"expiryDate"`
	Size          string    `json:"size"`
	Description   string    `json:"description"`
	DownloadCount int       `json:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt"`
	IsExpired     bool      `json:"isExpired"`
}

func (f *File) Public(now time.Time) PublicFile {
	return PublicFile{
		ID:            f.ID,
		Filename:      f.Filename,
		Name:          f.Name,
		Network:       f.Network,
		ExpiryDate:    f.ExpiryDate,
		Size:          f.Size,
		Description:   f.Description,
		DownloadCount: f.DownloadCount,
		CreatedAt:     f.CreatedAt,
		IsExpired:     f.Expired(now),
	}
}

type Stats struct {
	TotalFiles     int `json:"totalFiles"`
	ActiveFiles    int `json:"activeFiles"`
	ExpiredFiles   int `json:"expiredFiles"`
	TotalDownloads int `json:"totalDownloads"`
}
