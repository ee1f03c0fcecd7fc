package ingest

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/fetcher"
)

// LoadOptions configures Load.
type LoadOptions struct {
	Normalize Options
	Fetch     fetcher.Options
}

// Load opens source (local path, http(s) or ftp URL), parses it as CSV or
// XLSX by extension and normalizes the result.
func Load(ctx context.Context, source string, opts LoadOptions) (*Result, error) {
	rc, err := fetcher.Open(ctx, source, opts.Fetch)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open source")
	}
	defer rc.Close() //nolint:errcheck

	return Read(ctx, rc, fetcher.DetectFormat(source), opts.Normalize)
}

// Read parses r in the given format and normalizes the result.
func Read(ctx context.Context, r io.Reader, format fetcher.Format, opts Options) (*Result, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch format {
	case fetcher.FormatXLSX:
		header, rows, err = fetcher.ReadXLSXFrom(r, fetcher.XLSXOptions{})
	default:
		header, rows, err = fetcher.ReadCSV(ctx, r, fetcher.CSVOptions{HasHeader: true, LazyQuotes: true})
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: parse source")
	}

	res, err := Normalize(header, rows, opts)
	if err != nil {
		return nil, err
	}

	zap.L().Info("feedback loaded",
		zap.String("format", string(format)),
		zap.Int("input_rows", res.InputRows),
		zap.Int("rows", len(res.Records)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}
