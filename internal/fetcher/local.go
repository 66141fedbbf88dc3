package fetcher

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalFetcher reads example pages from disk, or from fsys when set. It
// stands in for the network when replaying fixtures.
type LocalFetcher struct {
	fsys fs.FS
}

// NewLocalFetcher returns a fetcher over fsys. A nil fsys reads the OS
// filesystem.
func NewLocalFetcher(fsys fs.FS) *LocalFetcher {
	return &LocalFetcher{fsys: fsys}
}

// Fetch implements Downloader. A missing or unreadable file is reported as a
// NetworkError with status 404.
func (f *LocalFetcher) Fetch(_ context.Context, req Request) (*Result, error) {
	var (
		body []byte
		err  error
	)
	if f.fsys != nil {
		body, err = fs.ReadFile(f.fsys, path.Clean(strings.TrimPrefix(req.URL, "/")))
	} else {
		body, err = os.ReadFile(filepath.Clean(req.URL))
	}
	if err != nil {
		return nil, &NetworkError{URL: req.URL, StatusCode: http.StatusNotFound, Err: err}
	}

	contentType := "text/html; charset=utf-8"
	if strings.EqualFold(filepath.Ext(req.URL), ".json") {
		contentType = "application/json"
	}
	return newResult(http.StatusOK, req.URL, contentType, body)
}
