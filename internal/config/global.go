package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when the catalog file decodes but violates an invariant.
var ErrInvalidConfig = errors.New("invalid tenancy config")

// Global is the process-wide catalog configuration, read once from
// tenancy.yaml and shared read-only afterwards.
type Global struct {
	// RootPath is the absolute application root. It is not read from the
	// file; the runtime config provides it.
	RootPath string `yaml:"-"`

	State             *bool    `yaml:"state"`
	BasePath          string   `yaml:"base_path"`
	DomainsPath       string   `yaml:"domains_path"`
	ControllersDir    string   `yaml:"controllers_dir"`
	ProvidersDir      string   `yaml:"providers_dir"`
	RoutesDir         string   `yaml:"routes_dir"`
	FeaturesDir       string   `yaml:"features_dir"`
	ResourcesDir      string   `yaml:"resources_dir"`
	RequestsDir       string   `yaml:"requests_dir"`
	RoutesFile        string   `yaml:"routes_file"`
	ServiceConfigFile string   `yaml:"service_config_file"`
	Services          Services `yaml:"services"`
}

// ServiceDefinition is one entry of the services mapping.
type ServiceDefinition struct {
	Name         string   `yaml:"-"`
	RoutePrefix  string   `yaml:"route_prefix"`
	Subdomain    string   `yaml:"subdomain"`
	Middleware   []string `yaml:"middleware"`
	RelativePath string   `yaml:"relative_path"`
}

// Services keeps the declaration order of the services mapping, which a
// plain Go map would lose.
type Services []ServiceDefinition

// UnmarshalYAML decodes a name -> attributes mapping node by node.
func (s *Services) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*s = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("services: expected a mapping, got %s at line %d", kindName(node.Kind), node.Line)
	}

	out := make(Services, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		def := ServiceDefinition{}
		if !(value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
			if err := value.Decode(&def); err != nil {
				return fmt.Errorf("services.%s: %w", key.Value, err)
			}
		}
		def.Name = key.Value
		out = append(out, def)
	}

	*s = out
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "mapping"
	}
}

// Enabled reports whether route mounting runs at all.
func (g *Global) Enabled() bool {
	return g.State == nil || *g.State
}

// AbsBasePath is the absolute directory under which all services live.
func (g *Global) AbsBasePath() string {
	return filepath.Join(g.RootPath, g.BasePath)
}

// AbsDomainsPath is the absolute directory holding shared domain code.
func (g *Global) AbsDomainsPath() string {
	return filepath.Join(g.RootPath, g.DomainsPath)
}

// LoadGlobal reads and validates the catalog file. rootPath is made
// absolute and becomes the root of every derived path.
func LoadGlobal(path, rootPath string) (*Global, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseGlobal(data, rootPath)
}

// ParseGlobal decodes catalog YAML, applies defaults and validates it.
func ParseGlobal(data []byte, rootPath string) (*Global, error) {
	g := &Global{}
	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", rootPath, err)
	}
	g.RootPath = root

	g.applyDefaults()
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Default returns a catalog with default paths and no services.
func Default(rootPath string) *Global {
	g := &Global{RootPath: rootPath}
	g.applyDefaults()
	return g
}

func (g *Global) applyDefaults() {
	setDefault(&g.BasePath, "services")
	setDefault(&g.DomainsPath, "domains")
	setDefault(&g.ControllersDir, "controllers")
	setDefault(&g.ProvidersDir, "providers")
	setDefault(&g.RoutesDir, "routes")
	setDefault(&g.FeaturesDir, "features")
	setDefault(&g.ResourcesDir, "resources")
	setDefault(&g.RequestsDir, "requests")
	setDefault(&g.RoutesFile, "routes.yaml")
	setDefault(&g.ServiceConfigFile, "service.yaml")

	for i := range g.Services {
		setDefault(&g.Services[i].RelativePath, g.Services[i].Name)
	}
}

func setDefault(field *string, def string) {
	if *field == "" {
		*field = def
	}
}

func (g *Global) validate() error {
	seen := make(map[string]bool, len(g.Services))
	for _, def := range g.Services {
		if def.Name == "" {
			return fmt.Errorf("%w: service with empty name", ErrInvalidConfig)
		}
		if seen[def.Name] {
			return fmt.Errorf("%w: duplicate service %q", ErrInvalidConfig, def.Name)
		}
		seen[def.Name] = true
	}
	return nil
}
