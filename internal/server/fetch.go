package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/joineryai/quote-engine/constants"
	"github.com/joineryai/quote-engine/internal/common"
)

// Fetcher downloads quote documents by URL. Kept as an interface so handler
// tests can substitute canned bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type httpFetcher struct {
	client  *http.Client
	maxSize int64
}

func NewFetcher(timeout time.Duration, maxSize int64) Fetcher {
	return &httpFetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}
}

// Fetch downloads the document and verifies it looks like a PDF. Any
// transport or status failure wraps common.ErrDownloadFailed so handlers can
// report an unavailable source distinctly from a low-confidence parse.
func (f *httpFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if ext := constants.NormalizeExt(path.Ext(strippedPath(url))); ext != "" {
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			return nil, fmt.Errorf("%w: unsupported extension %q", common.ErrDownloadFailed, ext)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDownloadFailed, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", common.ErrDownloadFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDownloadFailed, err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", common.ErrDownloadFailed, f.maxSize)
	}
	if !strings.HasPrefix(string(data[:min(len(data), len(constants.PDFMagic))]), constants.PDFMagic) {
		return nil, fmt.Errorf("%w: not a PDF document", common.ErrDownloadFailed)
	}
	return data, nil
}

// strippedPath returns the URL path without query or fragment, for
// extension checks. Unparseable URLs fail later in the HTTP client.
func strippedPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Path
}
