package diagnostics

import (
	"fmt"
	"net/url"
	"os"
)

// Config holds the inference service endpoints, one fixed URL per diagnostic
// model. The services are assumed colocated on a trusted internal network.
type Config struct {
	BoneFracture string `toml:"bone_fracture"`
	ECG          string `toml:"ecg"`
	BrainMRI     string `toml:"brain_mri"`
	ChestXray    string `toml:"chest_xray"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BoneFracture string
	ECG          string
	BrainMRI     string
	ChestXray    string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BoneFracture != "" {
		c.BoneFracture = overlay.BoneFracture
	}
	if overlay.ECG != "" {
		c.ECG = overlay.ECG
	}
	if overlay.BrainMRI != "" {
		c.BrainMRI = overlay.BrainMRI
	}
	if overlay.ChestXray != "" {
		c.ChestXray = overlay.ChestXray
	}
}

func (c *Config) loadDefaults() {
	if c.BoneFracture == "" {
		c.BoneFracture = "http://127.0.0.1:5000/predict-bone"
	}
	if c.ECG == "" {
		c.ECG = "http://127.0.0.1:5000/predict-ecg"
	}
	if c.BrainMRI == "" {
		c.BrainMRI = "http://127.0.0.1:5000/predict-brain"
	}
	if c.ChestXray == "" {
		c.ChestXray = "http://127.0.0.1:5000/predict-chest"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BoneFracture != "" {
		if v := os.Getenv(env.BoneFracture); v != "" {
			c.BoneFracture = v
		}
	}
	if env.ECG != "" {
		if v := os.Getenv(env.ECG); v != "" {
			c.ECG = v
		}
	}
	if env.BrainMRI != "" {
		if v := os.Getenv(env.BrainMRI); v != "" {
			c.BrainMRI = v
		}
	}
	if env.ChestXray != "" {
		if v := os.Getenv(env.ChestXray); v != "" {
			c.ChestXray = v
		}
	}
}

func (c *Config) validate() error {
	for name, endpoint := range map[string]string{
		"bone_fracture": c.BoneFracture,
		"ecg":           c.ECG,
		"brain_mri":     c.BrainMRI,
		"chest_xray":    c.ChestXray,
	} {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return fmt.Errorf("invalid %s endpoint: %w", name, err)
		}
	}
	return nil
}
