package staticfiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gophpeek/fcgisrv"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestServesFileUnderPrefix(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "hello.txt", "hello world")

	fs := New("/static", dir, nil)

	resp := fs.ServeFastCGI(&fcgi.Request{Method: "GET", Path: "/static/hello.txt"})
	require.NotNil(t, resp, "expected a response for a file under the prefix")
	require.Equal(t, 200, resp.Status)
	require.Equal(t, "hello world", string(resp.Body))
}

func TestIgnoresNonPrefixedRequests(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "hello.txt", "hello world")

	fs := New("/static", dir, nil)

	resp := fs.ServeFastCGI(&fcgi.Request{Method: "GET", Path: "/hello.txt"})
	require.Nil(t, resp, "expected nil outside the prefix")
}

func TestRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeTempFile(t, dir, "secret.txt", "top secret")

	fs := New("/static", sub, nil)

	resp := fs.ServeFastCGI(&fcgi.Request{Method: "GET", Path: "/static/../secret.txt"})
	require.Nil(t, resp, "expected nil for a path-traversal attempt")
}

func TestNotFoundForMissingFile(t *testing.T) {
	dir := t.TempDir()
	fs := New("/static", dir, nil)

	resp := fs.ServeFastCGI(&fcgi.Request{Method: "GET", Path: "/static/missing.txt"})
	require.Nil(t, resp, "expected nil for a missing file")
}

func TestIgnoresNonGetMethods(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "hello.txt", "hello world")
	fs := New("/static", dir, nil)

	resp := fs.ServeFastCGI(&fcgi.Request{Method: "POST", Path: "/static/hello.txt"})
	require.Nil(t, resp, "expected nil for a non-GET method")
}

func TestETagConditionalRequestReturns304(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "hello.txt", "hello world")
	fs := New("/static", dir, nil)

	first := fs.ServeFastCGI(&fcgi.Request{Method: "GET", Path: "/static/hello.txt"})
	require.NotNil(t, first)

	var etag string
	for _, h := range first.Header {
		if h.Key == "ETag" {
			etag = h.Value
		}
	}
	require.NotEmpty(t, etag, "expected an ETag header")

	conditional := fs.ServeFastCGI(&fcgi.Request{
		Method: "GET",
		Path:   "/static/hello.txt",
		Header: map[string]string{"If-None-Match": etag},
	})
	require.NotNil(t, conditional)
	require.Equal(t, 304, conditional.Status)
	require.Empty(t, conditional.Body)
}
