package adapters

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/afero"

	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// HTTPDownloadAdapter saves a URL to a local file. A missing resource is
// reported as an unresolved package so that sibling downloads continue.
type HTTPDownloadAdapter struct {
	fs     afero.Fs
	getter httpGetter
}

func NewHTTPDownloadAdapter(fs afero.Fs, opts HTTPOptions) HTTPDownloadAdapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return HTTPDownloadAdapter{fs: fs, getter: newHTTPGetter(opts)}
}

var _ ports.DownloaderPort = HTTPDownloadAdapter{}

func (a HTTPDownloadAdapter) Download(ctx context.Context, url string, dest string) error {
	if err := a.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create download directory").
			WithCause(err)
	}
	err := a.getter.get(ctx, url, nil, func(body io.Reader) error {
		file, err := a.fs.Create(dest)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create download file").
				WithCause(err)
		}
		if _, err := io.Copy(file, body); err != nil {
			_ = file.Close()
			return &retryableError{err: err}
		}
		return file.Close()
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, errHTTPNotFound) {
		return types.UnresolvedPackageError(url, "download not found", err)
	}
	if errbuilder.CodeOf(err) == errbuilder.CodeInternal {
		return err
	}
	return types.ExternalCommandError("download "+url, err)
}
