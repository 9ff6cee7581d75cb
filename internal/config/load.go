package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// FileBaseName is the name (without extension) of every documentation config file.
const FileBaseName = ".docConfig"

// Extensions are probed in this order; the first existing file wins.
var Extensions = []string{".json", ".yaml", ".yml", ".toml"}

// Find returns the config file path inside dir.
func Find(dir string) (string, error) {
	for _, ext := range Extensions {
		p := filepath.Join(dir, FileBaseName+ext)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", errors.ConfigError("configuration file not found").
		WithContext("file", filepath.Join(dir, FileBaseName+Extensions[0])).
		WithCause(os.ErrNotExist).
		Build()
}

// LoadRoot reads and validates the root configuration in dir.
func LoadRoot(dir string) (*RootConfig, string, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, "", err
	}
	var cfg RootConfig
	if err := decodeFile(path, &cfg); err != nil {
		return nil, path, err
	}
	if err := ValidateRoot(path, &cfg); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// ValidateRoot checks a decoded root configuration. file is only used for
// error context.
func ValidateRoot(file string, cfg *RootConfig) error {
	if cfg.Logo != nil {
		if err := cfg.Logo.Validate(); err != nil {
			return invalid(file, "logo.", err)
		}
	}
	if cfg.Favicon != nil {
		if err := cfg.Favicon.Validate(); err != nil {
			return invalid(file, "favicon.", err)
		}
	}
	if err := cfg.validateScalars(); err != nil {
		return invalid(file, "", err)
	}
	for i, c := range cfg.LinksLeft {
		if err := c.Validate(); err != nil {
			return invalid(file, fmt.Sprintf("linksLeft[%d].", i), err)
		}
	}
	for i, c := range cfg.LinksRight {
		if err := c.Validate(); err != nil {
			return invalid(file, fmt.Sprintf("linksRight[%d].", i), err)
		}
	}
	return nil
}

// LoadDir reads and validates the configuration of a category or page group directory.
func LoadDir(dir string) (*DirConfig, string, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, "", err
	}
	var cfg DirConfig
	if err := decodeFile(path, &cfg); err != nil {
		return nil, path, err
	}
	if err := ValidateDir(path, &cfg); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// ValidateDir checks a decoded directory configuration.
func ValidateDir(file string, cfg *DirConfig) error {
	if len(cfg.Pages) == 0 {
		return errors.ConfigError(`should have a "pages" property with at least one entry`).
			WithContext("file", file).
			WithContext("property", "pages").
			Build()
	}
	for i, p := range cfg.Pages {
		if err := p.Validate(); err != nil {
			return invalid(file, fmt.Sprintf("pages[%d].", i), err)
		}
	}
	return nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "cannot read configuration file").
			Fatal().
			WithContext("file", path).
			Build()
	}
	if err := decode(path, data, out); err != nil {
		b := errors.WrapError(err, errors.CategoryConfig, "configuration file is invalid").
			Fatal().
			WithContext("file", path)
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) && typeErr.Field != "" {
			b = b.WithContext("property", typeErr.Field)
		}
		return b.Build()
	}
	return nil
}

func decode(path string, data []byte, out any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	case ".toml":
		_, err := toml.NewDecoder(bytes.NewReader(data)).Decode(out)
		return err
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(out); err != nil {
			return err
		}
		// A JSON "null" document decodes cleanly into a zero struct.
		if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
			return stderrors.New("should be under an object form")
		}
		return nil
	}
}

// invalid converts ozzo validation errors into a ConfigError naming the
// first offending property (sorted, so the message is deterministic).
func invalid(file, prefix string, err error) error {
	b := errors.ConfigError("configuration file is invalid").WithContext("file", file)
	var verrs validation.Errors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		keys := make([]string, 0, len(verrs))
		for k := range verrs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return b.WithContext("property", prefix+keys[0]).WithCause(verrs[keys[0]]).Build()
	}
	return b.WithContext("property", strings.TrimSuffix(prefix, ".")).WithCause(err).Build()
}
