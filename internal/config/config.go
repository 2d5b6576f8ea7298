// Package config loads crapreport settings from .crapreport.{yaml,yml,json,toml}.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/unbound-force/crapreport/internal/aggregate"
	"github.com/unbound-force/crapreport/internal/coverage"
	"github.com/unbound-force/crapreport/internal/lang"
)

// Output formats accepted by Format.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Config holds every setting the report command reads.
type Config struct {
	// Threshold is the CRAP value at or above which a function counts
	// toward CRAPload and a summary's above-threshold count.
	Threshold float64 `koanf:"threshold" yaml:"threshold"`

	// TopN limits each ranking. 0 shows everything.
	TopN int `koanf:"top_n" yaml:"top_n"`

	// Format is text, json or markdown.
	Format string `koanf:"format" yaml:"format"`

	// Workers bounds parallel file scoring. 0 picks a default.
	Workers int `koanf:"workers" yaml:"workers"`

	// Languages enables source languages by name.
	Languages []string `koanf:"languages" yaml:"languages"`

	// Include and Exclude are doublestar globs applied to file paths.
	Include []string `koanf:"include" yaml:"include,omitempty"`
	Exclude []string `koanf:"exclude" yaml:"exclude,omitempty"`

	// CoverProfile is the coverage file to read. Empty runs go test
	// for Go modules.
	CoverProfile string `koanf:"cover_profile" yaml:"cover_profile,omitempty"`

	// CoverFormat forces the coverage format (go, coveragepy, coveragedb,
	// lcov).
	CoverFormat string `koanf:"cover_format" yaml:"cover_format,omitempty"`

	// IgnoreGenerated skips Go files with a generated-code header.
	IgnoreGenerated bool `koanf:"ignore_generated" yaml:"ignore_generated"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Threshold:       aggregate.DefaultThreshold,
		TopN:            aggregate.DefaultTopN,
		Format:          FormatText,
		Languages:       []string{string(lang.Go), string(lang.Python)},
		IgnoreGenerated: true,
	}
}

// FileNames lists the names LoadOrDefault searches for, in order.
var FileNames = []string{
	".crapreport.yaml",
	".crapreport.yml",
	".crapreport.json",
	".crapreport.toml",
	"crapreport.yaml",
	"crapreport.yml",
	"crapreport.json",
	"crapreport.toml",
}

// Load reads path on top of DefaultConfig. The parser is chosen by
// extension.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	// Lists replace the defaults rather than merging element-wise.
	defaults := cfg.Languages
	cfg.Languages = nil
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if !k.Exists("languages") {
		cfg.Languages = defaults
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads the first config file found in dir. It returns
// the defaults and an empty path when there is none. A config file
// that exists but cannot be loaded is an error.
func LoadOrDefault(dir string) (*Config, string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		cfg, err := Load(path)
		if err != nil {
			return nil, path, err
		}
		return cfg, path, nil
	}
	return DefaultConfig(), "", nil
}

// Validate rejects settings the report command cannot honour.
func (c *Config) Validate() error {
	var errs []error
	if c.Threshold < 0 {
		errs = append(errs, fmt.Errorf("threshold must be >= 0, got %v", c.Threshold))
	}
	if c.TopN < 0 {
		errs = append(errs, fmt.Errorf("top_n must be >= 0, got %d", c.TopN))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatMarkdown:
	default:
		errs = append(errs, fmt.Errorf("format must be one of text, json, markdown; got %q", c.Format))
	}
	if len(c.Languages) == 0 {
		errs = append(errs, errors.New("at least one language must be enabled"))
	} else if _, err := lang.ParseAll(c.Languages); err != nil {
		errs = append(errs, err)
	}
	if _, err := coverage.ParseFormat(c.CoverFormat); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AggregateOptions returns the ranking parameters.
func (c *Config) AggregateOptions() aggregate.Options {
	return aggregate.Options{Threshold: c.Threshold, TopN: c.TopN}
}

// EnabledLanguages parses Languages. Call Validate first.
func (c *Config) EnabledLanguages() []lang.Language {
	langs, _ := lang.ParseAll(c.Languages)
	return langs
}

const header = "# crapreport configuration\n# CRAP = cc^2 * (1 - coverage/100)^3 + cc\n"

// Write encodes cfg as YAML.
func Write(w io.Writer, cfg *Config) error {
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
