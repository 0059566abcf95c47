package domain

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/MrSnakeDoc/tenancy/internal/config"
	"github.com/MrSnakeDoc/tenancy/internal/fsys"
)

const testRoot = "/srv/app"

func newTestCatalog(t *testing.T, yamlContent string) (*Catalog, *fsys.FS) {
	t.Helper()
	cfg, err := config.ParseGlobal([]byte(yamlContent), testRoot)
	if err != nil {
		t.Fatalf("ParseGlobal() error = %v", err)
	}
	fs := fsys.NewMemory()
	return NewCatalog(cfg, fs), fs
}

func newTestService(t *testing.T, def config.ServiceDefinition) (*Service, *fsys.FS) {
	t.Helper()
	fs := fsys.NewMemory()
	return NewService(config.Default(testRoot), def, fs), fs
}

func TestRouteName(t *testing.T) {
	tests := []struct {
		name      string
		subdomain string
		prefix    string
		route     string
		expected  string
	}{
		{name: "all parts", subdomain: "shop.", prefix: "admin", route: "index", expected: "shop.admin.index"},
		{name: "no subdomain no prefix", route: "index", expected: "index"},
		{name: "subdomain without dot", subdomain: "shop", route: "index", expected: "shop.index"},
		{name: "prefix only", prefix: "api", route: "users", expected: "api.users"},
		{name: "empty name", subdomain: "shop.", prefix: "admin", expected: "shop.admin"},
		{name: "only one trailing dot stripped", subdomain: "shop..", route: "x", expected: "shop..x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, config.ServiceDefinition{
				Name:        "svc",
				Subdomain:   tt.subdomain,
				RoutePrefix: tt.prefix,
			})

			if got := svc.RouteName(tt.route); got != tt.expected {
				t.Errorf("RouteName(%q) = %q, want %q", tt.route, got, tt.expected)
			}
		})
	}
}

func TestControllerNamespace(t *testing.T) {
	tests := []struct {
		name     string
		def      config.ServiceDefinition
		expected string
	}{
		{
			name:     "relative path defaults to name",
			def:      config.ServiceDefinition{Name: "shop"},
			expected: "Services.shop.controllers",
		},
		{
			name:     "nested relative path",
			def:      config.ServiceDefinition{Name: "api", RelativePath: "backend/api"},
			expected: "Services.backend.api.controllers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.def)
			if got := svc.ControllerNamespace(); got != tt.expected {
				t.Errorf("ControllerNamespace() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	svc, _ := newTestService(t, config.ServiceDefinition{Name: "shop"})
	base := filepath.Join(testRoot, "services", "shop")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"path", svc.Path(), base},
		{"controller", svc.ControllerPath(), filepath.Join(base, "controllers")},
		{"controller fragment", svc.ControllerPath("home.go"), filepath.Join(base, "controllers", "home.go")},
		{"provider", svc.ProviderPath(), filepath.Join(base, "providers")},
		{"route", svc.RoutePath(), filepath.Join(base, "routes")},
		{"feature", svc.FeaturePath("checkout"), filepath.Join(base, "features", "checkout")},
		{"resource", svc.ResourcePath(), filepath.Join(base, "resources")},
		{"request", svc.RequestPath(), filepath.Join(base, "requests")},
		{"routes file", svc.RoutesFile(), filepath.Join(base, "routes", "routes.yaml")},
		{"service config file", svc.ServiceConfigFile(), filepath.Join(base, "service.yaml")},
		{"base path", svc.BasePath(), filepath.Join(testRoot, "services")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestEnsureDirectoriesExistingIsIdempotent(t *testing.T) {
	svc, fs := newTestService(t, config.ServiceDefinition{Name: "shop"})

	for i := 0; i < 3; i++ {
		if err := svc.EnsureDirectoriesExisting(); err != nil {
			t.Fatalf("EnsureDirectoriesExisting() call %d error = %v", i+1, err)
		}
	}

	for _, dir := range svc.Directories() {
		if ok, err := fs.Exists(dir); err != nil || !ok {
			t.Errorf("directory %s was not created", dir)
		}
	}
}

func mustTemplate(t *testing.T, name string) []byte {
	t.Helper()
	b, err := templates.ReadFile("templates/" + name)
	if err != nil {
		t.Fatalf("template %s: %v", name, err)
	}
	return b
}

func TestEnsureFilesExistingNeverOverwrites(t *testing.T) {
	svc, fs := newTestService(t, config.ServiceDefinition{Name: "shop"})

	if err := svc.EnsureFilesExisting(); err != nil {
		t.Fatalf("EnsureFilesExisting() error = %v", err)
	}

	routes, err := fs.ReadFile(svc.RoutesFile())
	if err != nil {
		t.Fatalf("routes file not created: %v", err)
	}
	if string(routes) != string(mustTemplate(t, "routes.yaml")) {
		t.Errorf("routes file content = %q, want template", routes)
	}
	seeded, err := fs.ReadFile(svc.ServiceConfigFile())
	if err != nil {
		t.Fatalf("service config file not created: %v", err)
	}
	if string(seeded) != string(mustTemplate(t, "service.yaml")) {
		t.Errorf("service config content = %q, want template", seeded)
	}

	edited := []byte("routes: []\n# edited by hand\n")
	if err := fs.WriteFile(svc.RoutesFile(), edited, FilePerm); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := svc.EnsureFilesExisting(); err != nil {
		t.Fatalf("second EnsureFilesExisting() error = %v", err)
	}

	after, err := fs.ReadFile(svc.RoutesFile())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(after) != string(edited) {
		t.Errorf("routes file was overwritten: %q", after)
	}
}

func TestServiceProvidersAndAliases(t *testing.T) {
	t.Run("absent file", func(t *testing.T) {
		svc, _ := newTestService(t, config.ServiceDefinition{Name: "shop"})

		providers, err := svc.ServiceProviders()
		if err != nil || len(providers) != 0 {
			t.Errorf("ServiceProviders() = %v, %v; want empty, nil", providers, err)
		}
		aliases, err := svc.ServiceAliases()
		if err != nil || len(aliases) != 0 {
			t.Errorf("ServiceAliases() = %v, %v; want empty, nil", aliases, err)
		}
	})

	t.Run("seeded template", func(t *testing.T) {
		svc, _ := newTestService(t, config.ServiceDefinition{Name: "shop"})
		if err := svc.EnsureFilesExisting(); err != nil {
			t.Fatalf("EnsureFilesExisting() error = %v", err)
		}

		providers, err := svc.ServiceProviders()
		if err != nil || len(providers) != 0 {
			t.Errorf("ServiceProviders() = %v, %v; want empty, nil", providers, err)
		}
	})

	t.Run("declared entries", func(t *testing.T) {
		svc, fs := newTestService(t, config.ServiceDefinition{Name: "shop"})
		content := "providers:\n  - cart\n  - payments\naliases:\n  Cart: cart.service\n"
		if err := fs.WriteFile(svc.ServiceConfigFile(), []byte(content), FilePerm); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		providers, err := svc.ServiceProviders()
		if err != nil {
			t.Fatalf("ServiceProviders() error = %v", err)
		}
		if !reflect.DeepEqual(providers, []string{"cart", "payments"}) {
			t.Errorf("ServiceProviders() = %v", providers)
		}

		aliases, err := svc.ServiceAliases()
		if err != nil {
			t.Fatalf("ServiceAliases() error = %v", err)
		}
		if !reflect.DeepEqual(aliases, map[string]string{"Cart": "cart.service"}) {
			t.Errorf("ServiceAliases() = %v", aliases)
		}
	})

	t.Run("missing keys", func(t *testing.T) {
		svc, fs := newTestService(t, config.ServiceDefinition{Name: "shop"})
		if err := fs.WriteFile(svc.ServiceConfigFile(), []byte("other: true\n"), FilePerm); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		providers, err := svc.ServiceProviders()
		if err != nil || len(providers) != 0 {
			t.Errorf("ServiceProviders() = %v, %v; want empty, nil", providers, err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		svc, fs := newTestService(t, config.ServiceDefinition{Name: "shop"})
		if err := fs.WriteFile(svc.ServiceConfigFile(), []byte("providers: {\n"), FilePerm); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		if _, err := svc.ServiceProviders(); err == nil {
			t.Error("ServiceProviders() expected an error for malformed yaml")
		}
	})
}

type recordingMounter struct {
	mounted []MountDescriptor
	err     error
}

func (m *recordingMounter) Mount(d MountDescriptor) error {
	m.mounted = append(m.mounted, d)
	return m.err
}

func TestRegisterRoutes(t *testing.T) {
	def := config.ServiceDefinition{
		Name:        "shop_admin",
		Subdomain:   "shop",
		RoutePrefix: "admin",
		Middleware:  []string{"nocache"},
	}

	t.Run("unreadable routes file is a no-op", func(t *testing.T) {
		svc, _ := newTestService(t, def)
		m := &recordingMounter{}

		mounted, err := svc.RegisterRoutes(m, RequestContext{})
		if err != nil {
			t.Fatalf("RegisterRoutes() error = %v", err)
		}
		if mounted || len(m.mounted) != 0 {
			t.Errorf("Mount called %d times, want 0", len(m.mounted))
		}
	})

	t.Run("descriptor with known host", func(t *testing.T) {
		svc, _ := newTestService(t, def)
		if err := svc.EnsureFilesExisting(); err != nil {
			t.Fatalf("EnsureFilesExisting() error = %v", err)
		}
		m := &recordingMounter{}

		mounted, err := svc.RegisterRoutes(m, NewRequestContext("Shop.Example.com", "/admin"))
		if err != nil {
			t.Fatalf("RegisterRoutes() error = %v", err)
		}
		if !mounted || len(m.mounted) != 1 {
			t.Fatalf("Mount called %d times, want 1", len(m.mounted))
		}

		want := MountDescriptor{
			Service:             "shop_admin",
			NamePrefix:          "shop_admin.",
			PathPrefix:          "admin",
			Domain:              "shop.example.com",
			Middleware:          []string{"nocache"},
			ControllerNamespace: "Services.shop_admin.controllers",
			RoutesFile:          svc.RoutesFile(),
		}
		if !reflect.DeepEqual(m.mounted[0], want) {
			t.Errorf("descriptor = %+v, want %+v", m.mounted[0], want)
		}
	})

	t.Run("wildcard domain without host", func(t *testing.T) {
		svc, _ := newTestService(t, def)
		if d := svc.MountDescriptor(RequestContext{}); d.Domain != "shop*" {
			t.Errorf("Domain = %q, want shop*", d.Domain)
		}
	})

	t.Run("host-agnostic service has no domain", func(t *testing.T) {
		svc, _ := newTestService(t, config.ServiceDefinition{Name: "web"})
		d := svc.MountDescriptor(NewRequestContext("example.com", "/"))
		if d.Domain != "" || d.PathPrefix != "" || d.Middleware != nil {
			t.Errorf("descriptor = %+v, want no domain, prefix or middleware", d)
		}
	})

	t.Run("mount error is wrapped", func(t *testing.T) {
		svc, _ := newTestService(t, def)
		if err := svc.EnsureFilesExisting(); err != nil {
			t.Fatalf("EnsureFilesExisting() error = %v", err)
		}
		boom := errors.New("boom")

		mounted, err := svc.RegisterRoutes(&recordingMounter{err: boom}, RequestContext{})
		if mounted || !errors.Is(err, boom) {
			t.Errorf("RegisterRoutes() error = %v, want wrapped boom", err)
		}
	})
}
