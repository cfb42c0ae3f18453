// Package staticfiles serves files from a directory as a fcgi.Handler,
// the Go rendering of the predecessor server's FileServer pipe: match
// requests under a prefix, resolve them against a filesystem root with
// path-traversal protection, and answer with ETag/Last-Modified-aware
// caching headers.
package staticfiles

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gophpeek/fcgisrv"
)

// FileServer matches GET requests under Prefix and serves a file from
// Root. Requests that fall outside Prefix, or that fail to resolve to a
// regular file inside Root, are ignored (ServeFastCGI returns nil) so a
// FileServer can be composed ahead of a router or other fallback handler.
type FileServer struct {
	prefix string
	root   string
	log    fcgi.Logger
}

// New returns a FileServer matching requests under prefix (implied
// leading slash if omitted) and serving files rooted at root (the
// current directory if root is blank).
func New(prefix, root string, log fcgi.Logger) *FileServer {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	if log == nil {
		log = noopLogger{}
	}
	return &FileServer{prefix: prefix, root: root, log: log}
}

type noopLogger struct{}

func (noopLogger) Debugw(string, ...any) {}
func (noopLogger) Infow(string, ...any)  {}
func (noopLogger) Warnw(string, ...any)  {}
func (noopLogger) Errorw(string, ...any) {}

// ServeFastCGI resolves req.Path against the filesystem root and, if it
// names a regular file within that root, serves it; otherwise it returns
// nil without touching the response, leaving room for a fallback handler.
func (fs *FileServer) ServeFastCGI(req *fcgi.Request) *fcgi.Response {
	if req.Method != "GET" {
		return nil
	}

	path, info, ok := fs.resolve(req.Path)
	if !ok {
		return nil
	}

	etag := fmt.Sprintf("\"%d\"", info.ModTime().Unix())
	resp := fcgi.NewResponse().
		SetStatus(200).
		SetHeader("Cache-Control", "no-cache").
		SetHeader("ETag", etag).
		SetHeader("Last-Modified", info.ModTime().UTC().Format(time.RFC1123))

	if match, ok := req.Header["If-None-Match"]; ok && strings.Contains(match, etag) {
		return resp.SetStatus(304)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		fs.log.Warnw("static file vanished between stat and read", "path", path, "error", err)
		return nil
	}

	fs.log.Debugw("serving static file", "path", path, "size", humanize.Bytes(uint64(len(body))))

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return resp.SetHeader("Content-Type", contentType).SetBody(body)
}

// resolve maps a request path to a file under root, rejecting anything
// that would escape root (e.g. "/../../etc/passwd") once symlinks and
// ".." segments are resolved.
func (fs *FileServer) resolve(reqPath string) (string, os.FileInfo, bool) {
	suffix, ok := strings.CutPrefix(reqPath, fs.prefix)
	if !ok {
		return "", nil, false
	}
	suffix = strings.TrimPrefix(suffix, "/")

	base, err := filepath.Abs(fs.root)
	if err != nil {
		return "", nil, false
	}
	base, err = filepath.EvalSymlinks(base)
	if err != nil {
		return "", nil, false
	}

	candidate := filepath.Join(base, suffix)
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", nil, false
	}

	if resolved != base && !strings.HasPrefix(resolved, base+string(filepath.Separator)) {
		return "", nil, false
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return "", nil, false
	}

	return resolved, info, true
}
