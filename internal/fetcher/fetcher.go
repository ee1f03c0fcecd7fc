package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads a remote resource.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Format is the tabular encoding of a source.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Options configures Open.
type Options struct {
	HTTP HTTPOptions
	FTP  FTPOptions
}

// DetectFormat infers the format from the extension of a path or URL.
// Anything that is not .xlsx is read as CSV.
func DetectFormat(source string) Format {
	p := source
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Path != "" {
		p = u.Path
	}
	if strings.EqualFold(path.Ext(p), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Open returns a reader for a local path, a file:// URL, an http(s):// URL or
// an ftp:// URL. The caller must close it.
func Open(ctx context.Context, source string, opts Options) (io.ReadCloser, error) {
	if source == "" {
		return nil, eris.New("fetcher: empty source")
	}

	u, err := url.Parse(source)
	if err != nil || len(u.Scheme) <= 1 {
		// Plain paths, including Windows drive letters.
		return openFile(source)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return openFile(u.Path)
	case "http", "https":
		return NewHTTPFetcher(opts.HTTP).Download(ctx, source)
	case "ftp":
		return NewFTPFetcher(opts.FTP).Download(ctx, source)
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

func openFile(p string) (io.ReadCloser, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", p)
	}
	return f, nil
}
