package domain

import (
	"net/http"
	"strings"
)

// RequestContext carries the request attributes used for resolution.
// It is built per request (or once from flags on the command line) and
// passed explicitly; nothing reads ambient process state.
type RequestContext struct {
	Host string // Host header as received, may include a port
	Path string // request URI path
}

// NewRequestContext builds a context from raw host and path values.
func NewRequestContext(host, path string) RequestContext {
	return RequestContext{
		Host: strings.TrimSpace(host),
		Path: strings.TrimSpace(path),
	}
}

// FromRequest extracts the resolution attributes of an HTTP request.
func FromRequest(r *http.Request) RequestContext {
	path := r.URL.Path
	if r.URL.RawPath != "" {
		path = r.URL.RawPath
	}
	return RequestContext{Host: r.Host, Path: path}
}

// HasHost reports whether a concrete host is known.
func (rc RequestContext) HasHost() bool {
	return rc.Host != ""
}
