package generate

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProxyConfig describes one proxy to generate.
type ProxyConfig struct {
	// Interface is the full path of the interface: {package path}.{interface}.
	Interface string `yaml:"interface"`
	Package   string `yaml:"package"`
	Name      string `yaml:"name"`
	Output    string `yaml:"output"`
}

// Config is the batch file read by `proxygen batch`.
type Config struct {
	Proxies []ProxyConfig `yaml:"proxies"`
}

// LoadConfig reads and validates a YAML batch file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Proxies) == 0 {
		return errors.New("no proxies configured")
	}

	outputs := map[string]int{}
	var errs []error
	for i, p := range c.Proxies {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("proxies[%d]: %w", i, err))
			continue
		}
		if j, dup := outputs[p.Output]; dup {
			errs = append(errs, fmt.Errorf("proxies[%d]: output %s already used by proxies[%d]", i, p.Output, j))
			continue
		}
		outputs[p.Output] = i
	}

	return errors.Join(errs...)
}

func (p ProxyConfig) Validate() error {
	var errs []error
	if i := strings.LastIndex(p.Interface, "."); i <= 0 || i == len(p.Interface)-1 {
		errs = append(errs, fmt.Errorf("interface %q must be {package}.{interface}", p.Interface))
	}
	if p.Package == "" {
		errs = append(errs, errors.New("package is required"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Output == "" {
		errs = append(errs, errors.New("output is required"))
	}

	return errors.Join(errs...)
}

// PackagePath is the import path part of Interface.
func (p ProxyConfig) PackagePath() string {
	return p.Interface[:strings.LastIndex(p.Interface, ".")]
}

// GenerateAll generates every proxy in cfg, stopping at the first failure.
func (g *Generator) GenerateAll(cfg *Config) error {
	for _, p := range cfg.Proxies {
		if err := g.GenerateProxy(p.Interface, p.Package, p.Name, p.Output); err != nil {
			return fmt.Errorf("generate %s: %w", p.Name, err)
		}
	}

	return nil
}
