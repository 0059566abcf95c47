package router

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// MethodAny mounts a route for every HTTP method.
const MethodAny = "ANY"

// RouteDefinition is one entry of a routes file.
type RouteDefinition struct {
	Method     string   `yaml:"method"`
	Path       string   `yaml:"path"`
	Name       string   `yaml:"name"`
	Handler    string   `yaml:"handler"`
	Middleware []string `yaml:"middleware"`
}

// RoutesFile is the YAML document of a service's routes.
type RoutesFile struct {
	Routes []RouteDefinition `yaml:"routes"`
}

// ParseRoutes decodes a routes file. Unknown keys are rejected so typos in
// a routes file surface at mount time. An empty document has no routes.
func ParseRoutes(data []byte) (RoutesFile, error) {
	var f RoutesFile
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return RoutesFile{}, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}
	return f, nil
}

var methods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
	MethodAny:          true,
}

// normalizeMethod upper-cases m; an empty method means GET.
func normalizeMethod(m string) (string, error) {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return http.MethodGet, nil
	}
	if m == "*" {
		return MethodAny, nil
	}
	if !methods[m] {
		return "", fmt.Errorf("%w: unsupported method %q", ErrInvalidRoute, m)
	}
	return m, nil
}

// JoinPattern places path under prefix.
// Example: ("admin", "/users/{id}") -> "/admin/users/{id}"; ("", "") -> "/"
func JoinPattern(prefix, path string) string {
	prefix = strings.Trim(prefix, "/")
	path = strings.TrimLeft(path, "/")

	switch {
	case prefix == "" && path == "":
		return "/"
	case prefix == "":
		return "/" + path
	case path == "":
		return "/" + prefix
	}
	return "/" + prefix + "/" + path
}

// Expand substitutes the "{key}" and "{key:regexp}" placeholders of a chi
// pattern with escaped values from params. A trailing "*" takes params["*"].
func Expand(pattern string, params map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(pattern))

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '{':
			end := closingBrace(pattern, i)
			if end < 0 {
				return "", fmt.Errorf("%w: unbalanced braces in %q", ErrInvalidRoute, pattern)
			}
			key := pattern[i+1 : end]
			if colon := strings.IndexByte(key, ':'); colon >= 0 {
				key = key[:colon]
			}
			val, ok := params[key]
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
			}
			b.WriteString(url.PathEscape(val))
			i = end
		case c == '*' && i == len(pattern)-1:
			b.WriteString(params["*"])
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func closingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

type routeNameKey struct{}

func withRouteName(h http.Handler, name string) http.Handler {
	if name == "" {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), routeNameKey{}, name)))
	})
}

// NameFromContext returns the name of the route serving the request.
func NameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(routeNameKey{}).(string)
	return name, ok
}
