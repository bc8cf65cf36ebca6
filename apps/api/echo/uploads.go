package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/services/metrics"
)

// fileHandler stores the single file part of multipart requests.
type fileHandler struct {
	store   core.FileStore
	maxSize int64
	logger  core.Logger
}

// save stores the form file `field` under folder. It returns a nil StoredFile when the request has none.
func (fh fileHandler) save(ctx echo.Context, field, folder string) (*core.StoredFile, error) {
	if !isMultipart(ctx) {
		return nil, nil
	}
	header, err := ctx.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "reading form file")
	}

	ctype := header.Header.Get(echo.HeaderContentType)
	if !core.IsAllowedContentType(ctype) {
		return nil, newAPIError(http.StatusBadRequest, "Invalid file type. Only images, PDFs, and documents are allowed.")
	}
	if fh.maxSize > 0 && header.Size > fh.maxSize {
		return nil, errFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening form file")
	}
	defer file.Close()

	stored, err := fh.store.Put(ctx.Request().Context(), folder, core.Upload{
		Filename:    header.Filename,
		ContentType: ctype,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		return nil, errors.Wrap(err, "storing upload")
	}
	metrics.RecordUpload(folder)
	return &stored, nil
}

// remove deletes a stored object; failures are only logged since the record is already gone.
func (fh fileHandler) remove(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := fh.store.Delete(ctx, url); err != nil {
		fh.logger.Error("deleting stored file "+url, err)
	}
}
