package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	ProjectRoot   string        `toml:"project_root"`
	Exclude       Exclude       `toml:"exclude"`
	Languages     Languages     `toml:"languages"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Output        Output        `toml:"output"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

// Languages toggles analyzed dialects. Absent keys default to enabled.
type Languages struct {
	Rust   *bool `toml:"rust"`
	Python *bool `toml:"python"`
}

// Enabled returns the names of the dialects left switched on.
func (l Languages) Enabled() []string {
	var out []string
	if l.Rust == nil || *l.Rust {
		out = append(out, "rust")
	}
	if l.Python == nil || *l.Python {
		out = append(out, "python")
	}
	return out
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// MaxRunsPerMinute caps how often change bursts may trigger a re-run.
	MaxRunsPerMinute int `toml:"max_runs_per_minute"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Project string `toml:"project"`
}

type Observability struct {
	MetricsAddr   string `toml:"metrics_addr"`
	TraceEndpoint string `toml:"trace_endpoint"`
}

type Output struct {
	Format string `toml:"format"` // text, json, tsv
}

// Load reads the TOML config at path, or returns defaults when the file
// does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Version:     1,
		ProjectRoot: ".",
		Exclude: Exclude{
			Dirs: []string{".git", "target", "__pycache__", ".venv", "node_modules"},
		},
		Watch: Watch{
			Debounce:         500 * time.Millisecond,
			MaxRunsPerMinute: 30,
		},
		Output: Output{Format: "text"},
	}
}

func (c *Config) applyDefaults() {
	if c.ProjectRoot == "" {
		c.ProjectRoot = "."
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
	if c.Watch.MaxRunsPerMinute <= 0 {
		c.Watch.MaxRunsPerMinute = 30
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.History.Enabled && c.History.Path == "" {
		c.History.Path = filepath.Join(".stray", "history.db")
	}
	if c.History.Project == "" {
		c.History.Project = "default"
	}
}

func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "json", "tsv":
	default:
		return fmt.Errorf("unsupported output format %q", c.Output.Format)
	}
	if len(c.Languages.Enabled()) == 0 {
		return fmt.Errorf("all languages are disabled")
	}
	if info, err := os.Stat(c.ProjectRoot); err != nil {
		return fmt.Errorf("project root %q: %w", c.ProjectRoot, err)
	} else if !info.IsDir() {
		return fmt.Errorf("project root %q is not a directory", c.ProjectRoot)
	}
	return nil
}
