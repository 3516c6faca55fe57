// Package fog implements physics-based fog simulation for multi-modal
// datasets: a typed configuration document (with a generated JSON
// schema), visibility distributions, and a CPU engine applying
// Beer-Lambert attenuation to RGB+depth imagery.
package fog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config are the fog simulation parameters, normally supplied as a JSON
// or YAML file via --fog-config.
type Config struct {
	// Seed drives the RNG; null means non-deterministic.
	Seed *int64 `json:"seed,omitempty" jsonschema:"oneof_type=integer;null,description=RNG seed for reproducibility. null = non-deterministic."`

	// DepthScale multiplies depth values after loading.
	DepthScale float64 `json:"depth_scale,omitempty" jsonschema:"default=1.0,description=Multiplier applied to depth values after loading."`

	// ResizeDepth resizes the depth map to match the RGB resolution.
	ResizeDepth *bool `json:"resize_depth,omitempty" jsonschema:"default=true,description=Resize depth map to match RGB resolution."`

	// ContrastThreshold is the visibility-to-attenuation threshold C_t
	// in k = -ln(C_t) / V.
	ContrastThreshold float64 `json:"contrast_threshold,omitempty" jsonschema:"default=0.05,description=Visibility-to-attenuation threshold C_t: k = -ln(C_t) / V."`

	// Device selects the compute device. The built-in engine always
	// runs on CPU; the field is kept so configs stay portable.
	Device string `json:"device,omitempty" jsonschema:"default=cpu,description=Compute device: cpu cuda mps."`

	// GPUBatchSize is the batch size for GPU processing.
	GPUBatchSize int `json:"gpu_batch_size,omitempty" jsonschema:"default=4,description=Batch size for GPU processing."`

	// Selection picks which fog model applies to each image.
	Selection *Selection `json:"selection,omitempty" jsonschema:"description=Model selection strategy."`

	// Models are the fog model definitions keyed by model name.
	Models map[string]Model `json:"models" jsonschema:"description=Fog model definitions keyed by model name."`
}

// Selection chooses a fog model per image: a fixed model, or a random
// one weighted per image.
type Selection struct {
	Mode    string             `json:"mode" jsonschema:"enum=fixed,enum=weighted,description=fixed = always use one model; weighted = random per image."`
	Model   string             `json:"model,omitempty" jsonschema:"description=(fixed mode) Name of the model to use."`
	Weights map[string]float64 `json:"weights,omitempty" jsonschema:"description=(weighted mode) Model name -> weight mapping."`
}

// Model defines one fog model.
type Model struct {
	Visibility       Distribution `json:"visibility_m" jsonschema:"description=Visibility distribution in meters."`
	AtmosphericLight any          `json:"atmospheric_light,omitempty" jsonschema:"description='from_sky' or an [R G B] colour value."`
	KHetero          *Hetero      `json:"k_hetero,omitempty" jsonschema:"description=Spatially-varying attenuation (optional)."`
	LSHetero         *Hetero      `json:"ls_hetero,omitempty" jsonschema:"description=Spatially-varying airlight (optional)."`
}

// Hetero configures spatially-varying fog components.
type Hetero struct {
	Scales          any     `json:"scales,omitempty" jsonschema:"default=auto"`
	MinScale        int     `json:"min_scale,omitempty" jsonschema:"default=2"`
	MaxScale        *int    `json:"max_scale,omitempty" jsonschema:"oneof_type=integer;null"`
	MinFactor       float64 `json:"min_factor,omitempty" jsonschema:"default=0.0"`
	MaxFactor       float64 `json:"max_factor,omitempty" jsonschema:"default=1.0"`
	NormalizeToMean *bool   `json:"normalize_to_mean,omitempty"`
}

// Defaults, applied after decoding.
const (
	defaultDepthScale        = 1.0
	defaultContrastThreshold = 0.05
	defaultDevice            = "cpu"
	defaultGPUBatchSize      = 4
)

// LoadConfig reads, validates, and decodes a fog config. JSON is the
// native format; .yaml/.yml files are decoded with yaml.v3 first.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path from user CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fog config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing fog config %s: %w", path, err)
		}
		// Round-trip through JSON so validation and decoding see the
		// same value model regardless of the source format.
		data, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("normalizing fog config %s: %w", path, err)
		}
	}

	if err := ValidateConfig(data); err != nil {
		return nil, fmt.Errorf("invalid fog config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding fog config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("invalid fog config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DepthScale == 0 {
		c.DepthScale = defaultDepthScale
	}
	if c.ResizeDepth == nil {
		t := true
		c.ResizeDepth = &t
	}
	if c.ContrastThreshold == 0 {
		c.ContrastThreshold = defaultContrastThreshold
	}
	if c.Device == "" {
		c.Device = defaultDevice
	}
	if c.GPUBatchSize == 0 {
		c.GPUBatchSize = defaultGPUBatchSize
	}
}

// check enforces cross-field constraints the JSON schema cannot express.
func (c *Config) check() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one fog model is required")
	}
	for name, m := range c.Models {
		if err := m.Visibility.check(); err != nil {
			return fmt.Errorf("model %q: %w", name, err)
		}
	}
	if c.Selection == nil {
		if len(c.Models) > 1 {
			return fmt.Errorf("selection is required when more than one model is defined")
		}
		return nil
	}
	switch c.Selection.Mode {
	case "fixed":
		if _, ok := c.Models[c.Selection.Model]; !ok {
			return fmt.Errorf("selection.model %q is not a defined model", c.Selection.Model)
		}
	case "weighted":
		if len(c.Selection.Weights) == 0 {
			return fmt.Errorf("selection.weights is required in weighted mode")
		}
		for name := range c.Selection.Weights {
			if _, ok := c.Models[name]; !ok {
				return fmt.Errorf("selection.weights references undefined model %q", name)
			}
		}
	default:
		return fmt.Errorf("selection.mode must be fixed or weighted, got %q", c.Selection.Mode)
	}
	return nil
}
