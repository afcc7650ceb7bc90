// Package fetcher retrieves the static per-city district files over HTTP(S),
// FTP or the local filesystem and decodes them into feature collections.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher performs a read-only download.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Schemes dispatches a download to a Fetcher by URL scheme. URLs without a
// scheme are looked up under "file".
type Schemes map[string]Fetcher

// DefaultSchemes wires http, https, ftp and file with the given options.
func DefaultSchemes(httpOpts HTTPOptions, ftpOpts FTPOptions) Schemes {
	h := NewHTTPFetcher(httpOpts)
	return Schemes{
		"http":  h,
		"https": h,
		"ftp":   NewFTPFetcher(ftpOpts),
		"file":  FileFetcher{},
	}
}

// Download implements Fetcher.
func (s Schemes) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	scheme := "file"
	if u, err := url.Parse(rawURL); err == nil && len(u.Scheme) > 1 {
		scheme = strings.ToLower(u.Scheme)
	}
	f, ok := s[scheme]
	if !ok {
		return nil, eris.Errorf("fetcher: unsupported scheme %q", scheme)
	}
	return f.Download(ctx, rawURL)
}
