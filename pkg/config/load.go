package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pipeview/pkg/errors"
)

// Load reads a configuration file on top of [Defaults] and validates it.
// The format is chosen by extension: .toml, .yaml/.yml, or .properties for a
// LAYOUT_DIALOG_* property file. Unknown keys are rejected.
func Load(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Layout{}, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
	}
	if err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	var cfg Layout
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		cfg, err = DecodeTOML(data)
	case ".yaml", ".yml":
		cfg, err = DecodeYAML(data)
	case ".properties":
		var props map[string]string
		if props, err = ParseProperties(bytes.NewReader(data)); err == nil {
			cfg, err = FromProperties(Defaults(), props)
		}
	default:
		return Layout{}, errors.New(errors.ErrCodeUnsupported, "unsupported config format %q (use .toml, .yaml or .properties)", ext)
	}
	if err != nil {
		return Layout{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Layout{}, err
	}
	return cfg, nil
}

// DecodeTOML decodes TOML onto the defaults. It does not validate.
func DecodeTOML(data []byte) (Layout, error) {
	cfg := Defaults()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Layout{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown configuration key", undecoded[0].String())
	}
	return cfg, nil
}

// DecodeYAML decodes YAML onto the defaults. It does not validate.
func DecodeYAML(data []byte) (Layout, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse yaml")
	}
	return cfg, nil
}

// Encode writes c in the format chosen by ext, as [Load] reads it.
func Encode(w io.Writer, c Layout, ext string) error {
	switch ext = strings.ToLower(ext); ext {
	case ".toml":
		return EncodeTOML(w, c)
	case ".yaml", ".yml":
		return EncodeYAML(w, c)
	case ".properties":
		return EncodeProperties(w, c)
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported config format %q (use .toml, .yaml or .properties)", ext)
	}
}

// EncodeTOML writes c as TOML.
func EncodeTOML(w io.Writer, c Layout) error {
	return toml.NewEncoder(w).Encode(c)
}

// EncodeYAML writes c as YAML.
func EncodeYAML(w io.Writer, c Layout) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// EncodeProperties writes the property map of c, one key=value per line in
// key order.
func EncodeProperties(w io.Writer, c Layout) error {
	props := c.Properties()
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, props[k]); err != nil {
			return err
		}
	}
	return nil
}

// ParseProperties reads a key=value property file. Blank lines and lines
// starting with # or ! are skipped. Keys and values are trimmed.
func ParseProperties(r io.Reader) (map[string]string, error) {
	props := make(map[string]string)
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			key, value, ok = strings.Cut(line, ":")
		}
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "line %d: expected key=value", n)
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read properties")
	}
	return props, nil
}
