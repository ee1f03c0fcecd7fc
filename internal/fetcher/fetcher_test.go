package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"feedback.csv":                            FormatCSV,
		"/data/Feedback.XLSX":                     FormatXLSX,
		"https://example.com/export.xlsx?dl=1":    FormatXLSX,
		"ftp://ftp.example.com/q3/feedback.csv":   FormatCSV,
		"https://example.com/download?file=x.csv": FormatCSV,
		"noext":                                   FormatCSV,
	}
	for src, want := range cases {
		assert.Equal(t, want, DetectFormat(src), src)
	}
}

func TestOpen_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")
	require.NoError(t, os.WriteFile(path, []byte("Feedback\n"), 0o644))

	for _, src := range []string{path, "file://" + path} {
		rc, err := Open(context.Background(), src, Options{})
		require.NoError(t, err, src)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		assert.Equal(t, "Feedback\n", string(data))
	}
}

func TestOpen_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	rc, err := Open(context.Background(), srv.URL+"/feedback.csv", Options{})
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))
}

func TestOpen_FTP(t *testing.T) {
	srv := newMiniFTPServer(t, map[string]string{"/feedback.csv": "over ftp"})

	rc, err := Open(context.Background(), "ftp://"+srv.addr()+"/feedback.csv", Options{})
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "over ftp", string(data))
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "", Options{})
	assert.Error(t, err)

	_, err = Open(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)

	_, err = Open(context.Background(), "s3://bucket/feedback.csv", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}
