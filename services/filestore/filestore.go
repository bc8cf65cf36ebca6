// Package filestore implements core.FileStore on S3 (or any S3-compatible server) and in memory.
package filestore

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// objectKey returns a unique key "<folder>/<unix ms>-<short uuid>-<clean name>".
func objectKey(folder, filename string, now time.Time) string {
	name := unsafeChars.ReplaceAllString(path.Base(strings.ReplaceAll(filename, `\`, "/")), "_")
	name = strings.Trim(name, "_")
	if name == "" || name == "." {
		name = "upload"
	}
	return fmt.Sprintf("%s/%d-%s-%s", folder, now.UnixMilli(), uuid.NewString()[:8], name)
}

// keyFromURL returns the object key of url relative to baseURL.
func keyFromURL(baseURL, url string) (string, bool) {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}
