package realm

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Options configures a Context (spec §4.11). Defaults mirror the teacher's
// LoadConfig: env vars override an optional file, which overrides the
// built-in defaults below.
type Options struct {
	HeapThresholdBytes int    `yaml:"heap_threshold_bytes"`
	ModuleRoot         string `yaml:"module_root"`
	CacheDSN           string `yaml:"cache_dsn"`
	CacheEnabled       bool   `yaml:"cache_enabled"`
	CacheDebug         bool   `yaml:"cache_debug"`
	Cancellable        bool   `yaml:"cancellable"`
}

// DefaultOptions returns the engine's built-in defaults, the way the
// teacher's LoadConfig seeds "auto"/"xchacha20poly1305" before consulting
// the environment.
func DefaultOptions() Options {
	return Options{
		HeapThresholdBytes: 64 << 20,
		ModuleRoot:         ".",
		CacheDSN:           "",
		CacheEnabled:       false,
		CacheDebug:         false,
		Cancellable:        true,
	}
}

// LoadOptionsFile reads a YAML options file, overlaying its fields on top
// of DefaultOptions(). A missing file is not an error (the defaults apply
// unchanged); a malformed file is.
func LoadOptionsFile(path string) (Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opts, nil
	}
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(b, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// LoadOptions builds Options the way the teacher's LoadConfig does: start
// from an on-disk file (if any), load a .env file into the process
// environment (ignored if absent, per godotenv.Load's own convention),
// then let JSENGINE_* env vars override individual fields.
func LoadOptions(optionsFile string) (Options, error) {
	opts, err := LoadOptionsFile(optionsFile)
	if err != nil {
		return opts, err
	}
	_ = godotenv.Load()

	if v := os.Getenv("JSENGINE_HEAP_THRESHOLD_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.HeapThresholdBytes = n
		}
	}
	if v := os.Getenv("JSENGINE_MODULE_ROOT"); v != "" {
		opts.ModuleRoot = v
	}
	if v := os.Getenv("JSENGINE_CACHE_DSN"); v != "" {
		opts.CacheDSN = v
		opts.CacheEnabled = true
	}
	if v := os.Getenv("JSENGINE_CACHE_DEBUG"); v != "" {
		opts.CacheDebug = v == "1" || v == "true"
	}
	if v := os.Getenv("JSENGINE_CANCELLABLE"); v != "" {
		opts.Cancellable = v == "1" || v == "true"
	}
	return opts, nil
}
