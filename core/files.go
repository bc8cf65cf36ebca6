package core

import (
	"context"
	"io"
	"strings"
)

// Storage folders
const (
	FolderFiles   = "files"
	FolderProfile = "profile"
	FolderBanners = "banners"
)

// AllowedContentTypes lists the MIME types accepted for uploads.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"image/webp":         true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.ms-powerpoint":                                             true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

// IsAllowedContentType reports whether ct (parameters ignored) may be uploaded.
func IsAllowedContentType(ct string) bool {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return AllowedContentTypes[strings.ToLower(strings.TrimSpace(ct))]
}

type (
	Upload struct {
		Filename    string
		ContentType string
		Size        int64
		Body        io.Reader
	}

	StoredFile struct {
		Key  string
		URL  string
		Size int64
	}

	// FileStore keeps uploaded files and serves them from public URLs.
	FileStore interface {
		// Put stores the upload under folder/<unique name> and returns its public URL.
		Put(ctx context.Context, folder string, up Upload) (StoredFile, error)
		// Delete removes the object behind url. Unknown urls are ignored.
		Delete(ctx context.Context, url string) error
	}
)
