// Package config holds the explicit configuration threaded into every
// component's construction. There are no ambient globals: the CLI loads one
// Config and passes it down.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML ("2s", "5m").
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Backend addresses the image-synthesis service.
type Backend struct {
	// URL is the base address, e.g. http://127.0.0.1:8188.
	URL string `yaml:"url"`
	// PollTimeout bounds the local wait per job.
	PollTimeout Duration `yaml:"poll_timeout"`
	// PollInterval paces the status queries.
	PollInterval Duration `yaml:"poll_interval"`
}

// Paths locates every filesystem collaborator.
type Paths struct {
	Templates       string `yaml:"templates"`
	Prompts         string `yaml:"prompts"`
	ReferenceImages string `yaml:"reference_images"`
	SubjectImages   string `yaml:"subject_images"`
	Artifacts       string `yaml:"artifacts"`
	Journal         string `yaml:"journal"`
}

// Batch tunes the combination loop.
type Batch struct {
	// Template is the default template name under Paths.Templates.
	Template string `yaml:"template"`
	// Pacing is the pause between iterations.
	Pacing Duration `yaml:"pacing"`
	// ClusterY is the layout threshold for image-role classification.
	ClusterY float64 `yaml:"cluster_y"`
}

// Progress configures the optional observability surfaces.
type Progress struct {
	// Listen enables the backend push-notification listener.
	Listen bool `yaml:"listen"`
	// Addr serves /healthz, /progress and /metrics when non-empty.
	Addr string `yaml:"addr"`
}

// Redis configures the optional shared run journal. Empty Addr keeps the
// journal on the local filesystem.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Config is the root configuration document.
type Config struct {
	Backend  Backend  `yaml:"backend"`
	Paths    Paths    `yaml:"paths"`
	Batch    Batch    `yaml:"batch"`
	Progress Progress `yaml:"progress"`
	Redis    Redis    `yaml:"redis"`
}

// Default returns the configuration for a conventional workspace layout
// rooted at dir.
func Default(dir string) Config {
	return Config{
		Backend: Backend{
			URL:          "http://127.0.0.1:8188",
			PollTimeout:  Duration(300 * time.Second),
			PollInterval: Duration(2 * time.Second),
		},
		Paths: Paths{
			Templates:       filepath.Join(dir, "data", "templates"),
			Prompts:         filepath.Join(dir, "outputs", "features", "fused_prompts.json"),
			ReferenceImages: filepath.Join(dir, "data", "input_seeds", "images"),
			SubjectImages:   filepath.Join(dir, "data", "personalization_seeds", "images"),
			Artifacts:       filepath.Join(dir, "outputs", "generated_outputs", "final_images"),
			Journal:         filepath.Join(dir, "outputs", "logs", "run_journal.json"),
		},
		Batch: Batch{
			Template: "controlnet",
			Pacing:   Duration(time.Second),
			ClusterY: 500,
		},
	}
}

// Load reads the YAML file at path over the defaults for its directory.
func Load(path string) (Config, error) {
	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate reports setup problems a run would hit immediately: missing
// template directory or prompt file. These are the fatal, pre-submission
// configuration errors; everything later is recoverable per combination.
func (c Config) Validate() []string {
	var issues []string
	if _, err := os.Stat(c.Paths.Templates); err != nil {
		issues = append(issues, fmt.Sprintf("missing template directory: %s", c.Paths.Templates))
	}
	if _, err := os.Stat(c.Paths.Prompts); err != nil {
		issues = append(issues, fmt.Sprintf("missing prompt file: %s", c.Paths.Prompts))
	}
	if c.Backend.URL == "" {
		issues = append(issues, "backend url is empty")
	}
	return issues
}
