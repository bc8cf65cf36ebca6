package filestore

import (
	"context"
	"io"
	"log"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crreddy/polysis/core"
	logsvc "github.com/crreddy/polysis/services/logger"
)

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	tests := []struct {
		folder, filename string
		wantName         string
	}{
		{folder: "files", filename: "notes.pdf", wantName: "notes.pdf"},
		{folder: "profile", filename: "My Photo (1).png", wantName: "My_Photo_1_.png"},
		{folder: "files", filename: `C:\Users\ravi\unit 1.docx`, wantName: "unit_1.docx"},
		{folder: "files", filename: "../../etc/passwd", wantName: "passwd"},
		{folder: "banners", filename: "", wantName: "upload"},
		{folder: "banners", filename: "ಚಿತ್ರ", wantName: "upload"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			key := objectKey(tt.folder, tt.filename, now)
			re := regexp.MustCompile(`^` + tt.folder + `/1700000000123-[0-9a-f]{8}-(.+)$`)
			m := re.FindStringSubmatch(key)
			require.NotNil(t, m, key)
			assert.Equal(t, tt.wantName, m[1])
		})
	}

	assert.NotEqual(t, objectKey("files", "a.pdf", now), objectKey("files", "a.pdf", now))
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name, baseURL, url string
		wantKey            string
		wantOk             bool
	}{
		{name: "key", baseURL: "https://b.s3.amazonaws.com", url: "https://b.s3.amazonaws.com/files/1-a-x.pdf", wantKey: "files/1-a-x.pdf", wantOk: true},
		{name: "base with slash", baseURL: "https://cdn.test/", url: "https://cdn.test/profile/p.png", wantKey: "profile/p.png", wantOk: true},
		{name: "other host", baseURL: "https://cdn.test", url: "https://cdn.test.evil/files/x"},
		{name: "base only", baseURL: "https://cdn.test", url: "https://cdn.test/"},
		{name: "empty", baseURL: "https://cdn.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := keyFromURL(tt.baseURL, tt.url)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	f, err := st.Put(ctx, core.FolderFiles, core.Upload{Filename: "notes.pdf", ContentType: "application/pdf", Body: strings.NewReader("%PDF-1.4")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.Key, "files/"))
	assert.Equal(t, "https://files.test/"+f.Key, f.URL)
	assert.EqualValues(t, 8, f.Size)
	assert.True(t, st.Has(f.URL))
	assert.Equal(t, 1, st.Len())

	require.NoError(t, st.Delete(ctx, "https://elsewhere.test/"+f.Key))
	assert.Equal(t, 1, st.Len())
	assert.False(t, st.Has("https://elsewhere.test/"+f.Key))

	require.NoError(t, st.Delete(ctx, f.URL))
	assert.False(t, st.Has(f.URL))
	assert.Zero(t, st.Len())
}

func TestNewS3Store(t *testing.T) {
	ctx := context.Background()
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)

	_, err := NewS3Store(ctx, core.StorageConfig{Region: "ap-south-1"}, logger)
	assert.Error(t, err)

	tests := []struct {
		name        string
		conf        core.StorageConfig
		wantBaseURL string
	}{
		{
			name:        "aws",
			conf:        core.StorageConfig{Bucket: "sis", Region: "ap-south-1", AccessKeyID: "key", SecretAccessKey: "secret"},
			wantBaseURL: "https://sis.s3.ap-south-1.amazonaws.com",
		},
		{
			name:        "custom endpoint",
			conf:        core.StorageConfig{Bucket: "sis", Region: "us-east-1", Endpoint: "http://localhost:9000/", AccessKeyID: "key", SecretAccessKey: "secret"},
			wantBaseURL: "http://localhost:9000/sis",
		},
		{
			name:        "public url",
			conf:        core.StorageConfig{Bucket: "sis", Region: "ap-south-1", PublicBaseURL: "https://cdn.polytechnic.test/", AccessKeyID: "key", SecretAccessKey: "secret"},
			wantBaseURL: "https://cdn.polytechnic.test",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := NewS3Store(ctx, tt.conf, logger)
			require.NoError(t, err)
			st := fs.(*s3Store)
			assert.Equal(t, tt.wantBaseURL, st.baseURL)
			assert.Equal(t, "sis", st.bucket)
			// urls outside the bucket are never sent to S3
			assert.NoError(t, st.Delete(ctx, "https://elsewhere.test/files/x.pdf"))
		})
	}
}
