package filestore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/crreddy/polysis/core"
)

const memoryBaseURL = "https://files.test"

// MemoryStore keeps files in memory. It is used by tests and when no bucket is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

var _ core.FileStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (st *MemoryStore) Put(_ context.Context, folder string, up core.Upload) (core.StoredFile, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, up.Body)
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "reading upload")
	}

	key := objectKey(folder, up.Filename, time.Now())
	st.mu.Lock()
	st.files[key] = buf.Bytes()
	st.mu.Unlock()
	return core.StoredFile{Key: key, URL: memoryBaseURL + "/" + key, Size: n}, nil
}

func (st *MemoryStore) Delete(_ context.Context, url string) error {
	if key, ok := keyFromURL(memoryBaseURL, url); ok {
		st.mu.Lock()
		delete(st.files, key)
		st.mu.Unlock()
	}
	return nil
}

// Has reports whether a file is stored at url.
func (st *MemoryStore) Has(url string) bool {
	key, ok := keyFromURL(memoryBaseURL, url)
	if !ok {
		return false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok = st.files[key]
	return ok
}

func (st *MemoryStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.files)
}
