package config

import (
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	SupportedSchema = "v1"
	EnvPrefix       = "SCENEGRAPH__"
)

// Viewer holds the settings of the scene viewer service.
type Viewer struct {
	SchemaVersion string `koanf:"schema_version"`
	Addr          string `koanf:"addr"`
	Scene         string `koanf:"scene"`
	Watch         bool   `koanf:"watch"`
	Encoding      string `koanf:"encoding"`
	TraceSync     bool   `koanf:"trace_sync"`
}

// Load merges the YAML file at path (when present) with SCENEGRAPH__*
// environment variables, fills defaults and applies the package-level
// settings (encoding, sync tracing).
func Load(path string) (Viewer, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Viewer{}, errors.Wrapf(err, "Failed to load config %q", path)
		}
	}

	if sv := k.String("schema_version"); sv != "" && sv != SupportedSchema {
		return Viewer{}, errors.Errorf("config schema_version %q not supported (want %s)", sv, SupportedSchema)
	}

	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Viewer{}, errors.Wrapf(err, "Failed to load environment")
	}

	var cfg Viewer
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, errors.Wrapf(err, "Failed to unmarshal config")
	}
	applyDefaults(&cfg)

	if err := cfg.Apply(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Apply pushes the package-level parts of the config into effect.
func (v Viewer) Apply() error {
	if err := SetEncoding(v.Encoding); err != nil {
		return err
	}
	SetTraceSync(v.TraceSync)
	return nil
}

func applyDefaults(v *Viewer) {
	if v.SchemaVersion == "" {
		v.SchemaVersion = SupportedSchema
	}
	if v.Addr == "" {
		v.Addr = ":8000"
	}
	if v.Encoding == "" {
		v.Encoding = currentCharMap.String()
	}
}
