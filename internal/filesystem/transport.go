package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
)

// Transport serves file:// requests from the local filesystem.
type Transport struct {
	Config RetryConfig
}

// NewTransport returns a transport that opens files with config.
func NewTransport(config RetryConfig) *Transport {
	return &Transport{Config: config}
}

// Register makes t answer file:// URLs through a Transport.
func Register(t *http.Transport, config RetryConfig) {
	t.RegisterProtocol("file", NewTransport(config))
}

// RoundTrip implements http.RoundTripper. Only GET and HEAD are supported;
// query strings are ignored so cache-busting parameters do not matter.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "file" {
		return nil, fmt.Errorf("filesystem transport: unsupported scheme %q", req.URL.Scheme)
	}
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return respond(req, http.StatusMethodNotAllowed, nil, 0, ""), nil
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	path := filepath.FromSlash(req.URL.Path)

	info, err := StatWithRetry(path, t.Config)
	if err != nil {
		return respond(req, statusFor(err), nil, 0, ""), nil
	}
	if info.IsDir() {
		return respond(req, http.StatusForbidden, nil, 0, ""), nil
	}

	f, err := OpenWithRetry(path, t.Config)
	if err != nil {
		return respond(req, statusFor(err), nil, 0, ""), nil
	}

	var body io.ReadCloser = f
	if req.Method == http.MethodHead {
		_ = f.Close()
		body = nil
	}

	return respond(req, http.StatusOK, body, info.Size(), mime.TypeByExtension(filepath.Ext(path))), nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, fs.ErrPermission):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func respond(req *http.Request, status int, body io.ReadCloser, size int64, contentType string) *http.Response {
	if body == nil {
		body = http.NoBody
		if status != http.StatusOK {
			size = 0
		}
	}

	header := make(http.Header)
	header.Set("Content-Length", strconv.FormatInt(size, 10))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.0",
		ProtoMajor:    1,
		ProtoMinor:    0,
		Header:        header,
		Body:          body,
		ContentLength: size,
		Request:       req,
	}
}
