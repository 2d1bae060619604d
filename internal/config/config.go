// Package config loads Inventory configuration: koanf with the structs
// and env providers, validated by go-playground/validator, with default
// values supplied by a DefaultConfig value and custom validators
// registered for domain-specific fields.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/io7m-com/sunburst/internal/identity"
)

// Config holds the settings needed to open an Inventory.
type Config struct {
	// BaseDir is the inventory's base directory, holding sunburst.db
	// and the blob/ tree.
	BaseDir string `koanf:"base_dir" validate:"required,custom_path"`
	// DefaultHashAlgorithm names the algorithm used for new blobs whose
	// caller did not specify one explicitly.
	DefaultHashAlgorithm string `koanf:"default_hash_algorithm" validate:"required,hash_algorithm"`
	// PeerSearchPaths lists directories that may hold peer plug-ins. It
	// is loaded and carried here only: no code in this module reads it,
	// and the runtime package takes its peers from whatever ServiceLoader
	// the caller passes in.
	PeerSearchPaths []string `koanf:"peer_search_paths"`
}

// DefaultConfig provides the default configuration values.
var DefaultConfig = Config{
	BaseDir:              "/var/lib/sunburst",
	DefaultHashAlgorithm: identity.SHA2_256.Text,
	PeerSearchPaths:      nil,
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DefaultConfig, "koanf"), nil)
}

// envLoader loads environment variables with the prefix "SUNBURST_",
// lower-casing keys and splitting comma-separated values into slices.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{Prefix: "SUNBURST_", TransformFunc: func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, "SUNBURST_"))
		if strings.Contains(value, ",") {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return key, parts
		}
		return key, strings.TrimSpace(value)
	}}), nil)
}

// validDirNotExists checks that the value looks like a usable directory
// path: non-empty, not "." or "/", and free of ".." traversal segments.
// It does not require the directory to already exist.
func validDirNotExists(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return false
	}
	cleaned := filepath.Clean(raw)
	if cleaned == "." || cleaned == string(os.PathSeparator) {
		return false
	}
	for _, part := range strings.Split(cleaned, string(os.PathSeparator)) {
		if part == ".." {
			return false
		}
	}
	return true
}

// validHashAlgorithm checks the value names a hash algorithm this
// build's identity package knows about.
func validHashAlgorithm(fl validator.FieldLevel) bool {
	_, err := identity.ParseHashAlgorithm(fl.Field().String())
	return err == nil
}

var registerValidators = func(v *validator.Validate) error {
	if err := v.RegisterValidation("custom_path", validDirNotExists); err != nil {
		return err
	}
	return v.RegisterValidation("hash_algorithm", validHashAlgorithm)
}

// Load builds a Config from DefaultConfig overridden by SUNBURST_*
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, err
	}
	if err := envLoader(k); err != nil {
		return nil, err
	}

	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidators(validate); err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
