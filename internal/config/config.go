package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Dir is the project directory, relative to the working tree root.
const Dir = ".stepwise"

// File is the config path relative to the working tree root.
var File = filepath.Join(Dir, "config.yaml")

type Manuals struct {
	Templates string `yaml:"templates"`
	Views     string `yaml:"views"`
	RootView  string `yaml:"root-view"`
}

// Submodule is a nested tutorial whose checkout follows this one's super steps.
type Submodule struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type Config struct {
	Name       string      `yaml:"name"`
	Strict     *bool       `yaml:"strict,omitempty"`
	Manuals    Manuals     `yaml:"manuals"`
	Submodules []Submodule `yaml:"submodules,omitempty"`
}

// Default returns a validated config for a new tutorial.
func Default(name string) (*Config, error) {
	cfg := &Config{Name: name}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a YAML config file and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadRoot loads the config of the working tree rooted at root.
func LoadRoot(root string) (*Config, error) {
	return Load(filepath.Join(root, File))
}

// Save writes cfg as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IsStrict reports whether hook policies are enforced.
func (c *Config) IsStrict() bool {
	return c.Strict == nil || *c.Strict
}

// RootTemplate is the template of the root manual.
func (c *Config) RootTemplate() string {
	return filepath.Join(c.Manuals.Templates, "root.tmpl")
}

// Template is the template of super step n.
func (c *Config) Template(n int) string {
	return filepath.Join(c.Manuals.Templates, "step"+strconv.Itoa(n)+".tmpl")
}

// View is the rendered manual of super step n.
func (c *Config) View(n int) string {
	return filepath.Join(c.Manuals.Views, "step"+strconv.Itoa(n)+".md")
}

// SubmoduleByName returns the named submodule, or nil.
func (c *Config) SubmoduleByName(name string) *Submodule {
	for i := range c.Submodules {
		if c.Submodules[i].Name == name {
			return &c.Submodules[i]
		}
	}
	return nil
}
