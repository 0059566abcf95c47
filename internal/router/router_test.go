package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tenancy/internal/controller"
	"github.com/MrSnakeDoc/tenancy/internal/domain"
	"github.com/MrSnakeDoc/tenancy/internal/fsys"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/mw"
)

func init() {
	controller.RegisterFunc("router_test.echo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "echo:"+chi.URLParam(r, "id"))
	})
	controller.RegisterFunc("router_test.name", func(w http.ResponseWriter, r *http.Request) {
		name, _ := NameFromContext(r.Context())
		_, _ = io.WriteString(w, name)
	})
	controller.RegisterFunc("router_test.list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "global")
	})
	controller.RegisterFunc("Services.shop.controllers.router_test.list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "namespaced")
	})
	controller.RegisterFunc("router_test.static", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Host)
	})
}

func writeRoutes(t *testing.T, fs *fsys.FS, file, content string) {
	t.Helper()
	require.NoError(t, fs.WriteFile(file, []byte(content), domain.FilePerm))
}

func serve(h http.Handler, method, host, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Host = host
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func headerMiddleware(key, val string) mw.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add(key, val)
			next.ServeHTTP(w, r)
		})
	}
}

func testMiddleware(name string) (mw.Middleware, bool) {
	switch name {
	case "service":
		return headerMiddleware("X-Stack", "service"), true
	case "route":
		return headerMiddleware("X-Stack", "route"), true
	}
	return nil, false
}

func TestMount_ServesUnderPrefix(t *testing.T) {
	fs := fsys.NewMemory()
	writeRoutes(t, fs, "/r/admin.yaml", `
routes:
  - method: get
    path: /users/{id}
    name: users.show
    handler: router_test.echo
`)
	rt := New(Options{FS: fs})

	require.NoError(t, rt.Mount(domain.MountDescriptor{
		Service:    "admin",
		NamePrefix: "admin.",
		PathPrefix: "admin",
		RoutesFile: "/r/admin.yaml",
	}))

	rec := serve(rt, http.MethodGet, "example.com", "/admin/users/7")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "echo:7", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(rt, http.MethodGet, "example.com", "/users/7").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(rt, http.MethodPost, "example.com", "/admin/users/7").Code)

	routes := rt.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, RouteInfo{
		Service: "admin",
		Method:  http.MethodGet,
		Pattern: "/admin/users/{id}",
		Name:    "admin.users.show",
		Handler: "router_test.echo",
	}, routes[0])
}

func TestMount_PrefersNamespacedHandler(t *testing.T) {
	fs := fsys.NewMemory()
	writeRoutes(t, fs, "/r/routes.yaml", `
routes:
  - path: /list
    handler: router_test.list
`)

	rt := New(Options{FS: fs})
	require.NoError(t, rt.Mount(domain.MountDescriptor{
		Service:             "shop",
		NamePrefix:          "shop.",
		ControllerNamespace: "Services.shop.controllers",
		RoutesFile:          "/r/routes.yaml",
	}))
	assert.Equal(t, "namespaced", serve(rt, http.MethodGet, "x", "/list").Body.String())

	other := New(Options{FS: fs})
	require.NoError(t, other.Mount(domain.MountDescriptor{
		Service:             "blog",
		NamePrefix:          "blog.",
		ControllerNamespace: "Services.blog.controllers",
		RoutesFile:          "/r/routes.yaml",
	}))
	assert.Equal(t, "global", serve(other, http.MethodGet, "x", "/list").Body.String())
}

func TestMount_DomainScoping(t *testing.T) {
	fs := fsys.NewMemory()
	writeRoutes(t, fs, "/r/shop.yaml", `
routes:
  - path: /
    name: index
    handler: router_test.name
`)
	writeRoutes(t, fs, "/r/main.yaml", `
routes:
  - path: /
    name: index
    handler: router_test.name
`)
	writeRoutes(t, fs, "/r/api.yaml", `
routes:
  - path: /
    name: index
    handler: router_test.name
`)

	rt := New(Options{FS: fs})
	require.NoError(t, rt.Mount(domain.MountDescriptor{Service: "shop", NamePrefix: "shop.", Domain: "shop.example.com", RoutesFile: "/r/shop.yaml"}))
	require.NoError(t, rt.Mount(domain.MountDescriptor{Service: "api", NamePrefix: "api.", Domain: "api.*", RoutesFile: "/r/api.yaml"}))
	require.NoError(t, rt.Mount(domain.MountDescriptor{Service: "main", NamePrefix: "main.", RoutesFile: "/r/main.yaml"}))

	tests := []struct {
		host string
		want string
	}{
		{"shop.example.com", "shop.index"},
		{"SHOP.example.com", "shop.index"},
		{"www.shop.example.com", "shop.index"},
		{"shop.example.com:8080", "shop.index"},
		{"api.example.com", "api.index"},
		{"api.v2.example.com", "api.index"},
		{"example.com", "main.index"},
		{"blog.example.com", "main.index"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			rec := serve(rt, http.MethodGet, tt.host, "/")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestMount_WildcardSubdomain(t *testing.T) {
	fs := fsys.NewMemory()
	writeRoutes(t, fs, "/r/shop.yaml", `
routes:
  - path: /
    handler: router_test.static
`)
	rt := New(Options{FS: fs})
	require.NoError(t, rt.Mount(domain.MountDescriptor{Service: "shop", Domain: "shop.*", RoutesFile: "/r/shop.yaml"}))

	assert.Equal(t, http.StatusOK, serve(rt, http.MethodGet, "shop.example.org", "/").Code)
	assert.Equal(t, http.StatusNotFound, serve(rt, http.MethodGet, "blog.example.org", "/").Code)
}

func TestMount_Middleware(t *testing.T) {
	fs := fsys.NewMemory()
	writeRoutes(t, fs, "/r/routes.yaml", `
routes:
  - path: /plain
    handler: router_test.static
  - path: /both
    handler: router_test.static
    middleware: [route]
`)
	rt := New(Options{FS: fs, Middleware: testMiddleware})
	require.NoError(t, rt.Mount(domain.MountDescriptor{
		Service:    "shop",
		Middleware: []string{"service"},
		RoutesFile: "/r/routes.yaml",
	}))

	assert.Equal(t, []string{"service"}, serve(rt, http.MethodGet, "x", "/plain").Header().Values("X-Stack"))
	assert.Equal(t, []string{"service", "route"}, serve(rt, http.MethodGet, "x", "/both").Header().Values("X-Stack"))
	assert.Equal(t, []string{"service", "route"}, rt.Routes()[1].Middleware)
}

func TestMount_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		mws     []string
		lookup  MiddlewareLookup
		wantErr error
	}{
		{
			name:    "unknown handler",
			content: "routes:\n  - path: /\n    handler: nope\n",
			wantErr: ErrUnknownHandler,
		},
		{
			name:    "missing handler",
			content: "routes:\n  - path: /\n",
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "unsupported method",
			content: "routes:\n  - method: FETCH\n    path: /\n    handler: router_test.static\n",
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "unknown key",
			content: "routes:\n  - path: /\n    handler: router_test.static\n    verb: GET\n",
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "unknown route middleware",
			content: "routes:\n  - path: /\n    handler: router_test.static\n    middleware: [nope]\n",
			lookup:  testMiddleware,
			wantErr: ErrUnknownMiddleware,
		},
		{
			name:    "unknown service middleware",
			content: "routes:\n  - path: /\n    handler: router_test.static\n",
			mws:     []string{"service"},
			wantErr: ErrUnknownMiddleware,
		},
		{
			name:    "duplicate param key",
			content: "routes:\n  - path: /{id}/{id}\n    handler: router_test.static\n",
			wantErr: ErrInvalidRoute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := fsys.NewMemory()
			writeRoutes(t, fs, "/r/routes.yaml", tt.content)
			rt := New(Options{FS: fs, Middleware: tt.lookup})

			err := rt.Mount(domain.MountDescriptor{Service: "shop", Middleware: tt.mws, RoutesFile: "/r/routes.yaml"})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, rt.Routes())
		})
	}
}

func TestMount_MissingFile(t *testing.T) {
	rt := New(Options{FS: fsys.NewMemory()})
	require.Error(t, rt.Mount(domain.MountDescriptor{Service: "shop", RoutesFile: "/nope.yaml"}))
}

func TestMount_EmptyFile(t *testing.T) {
	fs := fsys.NewMemory()
	writeRoutes(t, fs, "/r/routes.yaml", "")
	rt := New(Options{FS: fs})
	require.NoError(t, rt.Mount(domain.MountDescriptor{Service: "shop", RoutesFile: "/r/routes.yaml"}))
	assert.Empty(t, rt.Routes())
}

func TestURL(t *testing.T) {
	fs := fsys.NewMemory()
	writeRoutes(t, fs, "/r/routes.yaml", `
routes:
  - path: /
    name: index
    handler: router_test.static
  - path: /orders/{id:[0-9]+}/lines/{line}
    name: orders.line
    handler: router_test.static
  - path: /files/*
    name: files
    handler: router_test.static
`)
	rt := New(Options{FS: fs})
	require.NoError(t, rt.Mount(domain.MountDescriptor{
		Service:    "shop",
		NamePrefix: "shop.",
		PathPrefix: "store",
		RoutesFile: "/r/routes.yaml",
	}))

	url, err := rt.URL("shop.index", nil)
	require.NoError(t, err)
	assert.Equal(t, "/store", url)

	url, err = rt.URL("shop.orders.line", map[string]string{"id": "42", "line": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "/store/orders/42/lines/a%20b", url)

	url, err = rt.URL("shop.files", map[string]string{"*": "css/app.css"})
	require.NoError(t, err)
	assert.Equal(t, "/store/files/css/app.css", url)

	_, err = rt.URL("shop.orders.line", map[string]string{"id": "42"})
	require.ErrorIs(t, err, ErrMissingParam)

	_, err = rt.URL("index", nil)
	require.ErrorIs(t, err, ErrUnknownRoute)

	assert.True(t, rt.HasRoute("shop.index"))
	assert.False(t, rt.HasRoute("index"))
}

func TestNameFromContext(t *testing.T) {
	fs := fsys.NewMemory()
	writeRoutes(t, fs, "/r/routes.yaml", "routes:\n  - path: /n\n    name: named\n    handler: router_test.name\n")
	rt := New(Options{FS: fs})
	require.NoError(t, rt.Mount(domain.MountDescriptor{Service: "shop", NamePrefix: "shop.", RoutesFile: "/r/routes.yaml"}))

	assert.Equal(t, "shop.named", serve(rt, http.MethodGet, "x", "/n").Body.String())
}

func TestJoinPattern(t *testing.T) {
	tests := []struct {
		prefix, path, want string
	}{
		{"", "", "/"},
		{"", "/", "/"},
		{"", "/a", "/a"},
		{"admin", "", "/admin"},
		{"admin", "/", "/admin"},
		{"/admin/", "/users", "/admin/users"},
		{"admin", "users/{id}", "/admin/users/{id}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinPattern(tt.prefix, tt.path), "JoinPattern(%q, %q)", tt.prefix, tt.path)
	}
}

func TestExpand_UnbalancedBraces(t *testing.T) {
	_, err := Expand("/a/{id", map[string]string{"id": "1"})
	require.ErrorIs(t, err, ErrInvalidRoute)
}

func TestNoMount_NotFound(t *testing.T) {
	rt := New(Options{FS: fsys.NewMemory()})
	assert.Equal(t, http.StatusNotFound, serve(rt, http.MethodGet, "x", "/").Code)
}
