package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/c360/boundedbuffer/errors"
)

// DefaultEnvPrefix prefixes every environment override.
const DefaultEnvPrefix = "BOUNDEDBUF"

// Loader builds a Config from defaults, file layers and environment
// overrides, in that order of increasing precedence.
type Loader struct {
	layers     []string
	envPrefix  string
	validation bool
	base       *Config
}

// NewLoader creates a loader with validation enabled.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  DefaultEnvPrefix,
		validation: true,
	}
}

// AddLayer appends a JSON or YAML file; later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// WithBase replaces the built-in defaults, e.g. with a named scenario.
func (l *Loader) WithBase(cfg *Config) *Loader {
	l.base = cfg.Clone()
	return l
}

// SetEnvPrefix changes the environment variable prefix.
func (l *Loader) SetEnvPrefix(prefix string) {
	l.envPrefix = prefix
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges all layers over the defaults, applies environment overrides
// and validates the result.
func (l *Loader) Load() (*Config, error) {
	base := l.base
	if base == nil {
		base = Default()
	}

	doc, err := toDocument(base)
	if err != nil {
		return nil, errors.WrapFatal(err, "Loader", "Load", "encode defaults")
	}

	for _, path := range l.layers {
		layer, err := l.loadRaw(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("load %s", path))
		}
		doc = deepMergeMaps(doc, layer)
	}

	if l.validation {
		if err := validateDocument(doc); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
				"Loader", "Load", "schema validation")
		}
	}

	cfg, err := fromDocument(doc)
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"Loader", "Load", "decode configuration")
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "Load", "environment overrides")
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadRaw reads a layer into a generic document.
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", errors.ErrConfigNotFound, err)
		}
		return nil, err
	}

	format, _ := formatForPath(path)

	var raw map[string]any
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	default:
		if err := validateJSONDepth(data); err != nil {
			return nil, fmt.Errorf("invalid JSON structure: %w", err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	}

	if err := validateValueDepth(raw, 0); err != nil {
		return nil, err
	}

	// normalise through JSON so YAML and JSON layers merge identically
	return normalise(raw)
}

func normalise(v map[string]any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toDocument(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc map[string]any) (*Config, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}
		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}

	return result
}

// applyEnvOverrides applies PREFIX_* environment variables.
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	get := func(key string) (string, bool, error) {
		name := l.envPrefix + "_" + key
		val := os.Getenv(name)
		if val == "" {
			return "", false, nil
		}
		if err := validateEnvVar(name, val); err != nil {
			return "", false, err
		}
		return val, true, nil
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"CAPACITY", &cfg.Buffer.Capacity},
		{"PRODUCERS", &cfg.Producers.Count},
		{"ITEMS", &cfg.Producers.Items},
		{"CONSUMERS", &cfg.Consumers.Count},
		{"METRICS_PORT", &cfg.Metrics.Port},
	}
	for _, o := range ints {
		val, ok, err := get(o.key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s_%s: %w", l.envPrefix, o.key, err)
		}
		*o.dst = n
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"PUSH_TIMEOUT", &cfg.Producers.Timeout},
		{"POP_TIMEOUT", &cfg.Consumers.Timeout},
		{"RUN_TIMEOUT", &cfg.Run.Timeout},
	}
	for _, o := range durations {
		val, ok, err := get(o.key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		d, err := ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%s_%s: %w", l.envPrefix, o.key, err)
		}
		*o.dst = Duration(d)
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"NAME", &cfg.Name},
		{"PUSH_MODE", &cfg.Producers.Mode},
		{"POP_MODE", &cfg.Consumers.Mode},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
	}
	for _, o := range strs {
		val, ok, err := get(o.key)
		if err != nil {
			return err
		}
		if ok {
			*o.dst = val
		}
	}

	if val, ok, err := get("METRICS_ENABLED"); err != nil {
		return err
	} else if ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%s_METRICS_ENABLED: %w", l.envPrefix, err)
		}
		cfg.Metrics.Enabled = b
	}

	return nil
}
