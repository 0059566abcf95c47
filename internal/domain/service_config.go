package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// serviceConfig is the schema of the per-service config file.
type serviceConfig struct {
	Providers []string          `yaml:"providers"`
	Aliases   map[string]string `yaml:"aliases"`
}

// loadServiceConfig reads the service config file. A missing file yields
// an empty config; a present but malformed one is an error.
func (s *Service) loadServiceConfig() (serviceConfig, error) {
	var sc serviceConfig

	file := s.ServiceConfigFile()
	exists, err := s.fs.Exists(file)
	if err != nil {
		return sc, fmt.Errorf("service %s: stat %s: %w", s.name, file, err)
	}
	if !exists {
		return sc, nil
	}

	data, err := s.fs.ReadFile(file)
	if err != nil {
		return sc, fmt.Errorf("service %s: read %s: %w", s.name, file, err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("service %s: parse %s: %w", s.name, file, err)
	}
	return sc, nil
}

// ServiceProviders returns the provider names declared by the service.
func (s *Service) ServiceProviders() ([]string, error) {
	sc, err := s.loadServiceConfig()
	if err != nil {
		return nil, err
	}
	if sc.Providers == nil {
		return []string{}, nil
	}
	return sc.Providers, nil
}

// ServiceAliases returns the alias -> target bindings declared by the service.
func (s *Service) ServiceAliases() (map[string]string, error) {
	sc, err := s.loadServiceConfig()
	if err != nil {
		return nil, err
	}
	if sc.Aliases == nil {
		return map[string]string{}, nil
	}
	return sc.Aliases, nil
}
