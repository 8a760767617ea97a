package edge

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/catalogapp/catalog-server/internal/metrics"
)

// InProcessTransport is an http.RoundTripper that serves API-prefixed
// requests by calling the API handler directly and sends everything else to
// Base. A page render uses it so that fetching its own data never leaves the
// process: no socket, no second trip through the edge, no retry.
type InProcessTransport struct {
	// API is the API handler, already wrapped by the API-scoped stages.
	API http.Handler
	// Base serves non-API requests. Defaults to http.DefaultTransport.
	Base http.RoundTripper
	// Origin, when set, is the page request the calls are made for. Its
	// client address and request id are carried onto each in-process call.
	Origin  *http.Request
	Metrics *metrics.Metrics
}

// RoundTrip implements http.RoundTripper.
func (t *InProcessTransport) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	if !IsAPIPath(req.URL.Path) {
		base := t.Base
		if base == nil {
			base = http.DefaultTransport
		}
		return base.RoundTrip(req)
	}

	if req.Body != nil {
		defer req.Body.Close()
	}

	inner := req.Clone(req.Context())
	inner.RequestURI = req.URL.RequestURI()
	if inner.Host == "" {
		inner.Host = req.URL.Host
	}
	if t.Origin != nil {
		inner.RemoteAddr = t.Origin.RemoteAddr
		if id := middleware.GetReqID(t.Origin.Context()); id != "" && inner.Header.Get(RequestIDHeader) == "" {
			inner.Header.Set(RequestIDHeader, id)
		}
	}

	buf := newResponseBuffer()
	defer func() {
		if p := recover(); p != nil {
			if p == http.ErrAbortHandler {
				panic(p)
			}
			resp, err = nil, fmt.Errorf("in-process %s %s: panic: %v", req.Method, req.URL.Path, p)
		}
	}()
	t.API.ServeHTTP(buf, inner)

	resp = buf.response(req)
	if t.Metrics != nil {
		t.Metrics.InProcessCall(resp.StatusCode)
	}
	return resp, nil
}

// responseBuffer collects a handler's response in memory.
type responseBuffer struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header), status: http.StatusOK}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.status = status
	b.wroteHeader = true
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	return b.body.Write(p)
}

func (b *responseBuffer) response(req *http.Request) *http.Response {
	body := b.body.Bytes()
	header := b.header.Clone()
	if header.Get("Content-Length") == "" {
		header.Set("Content-Length", strconv.Itoa(len(body)))
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", b.status, http.StatusText(b.status)),
		StatusCode:    b.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
