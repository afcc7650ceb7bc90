package registry

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type file struct {
	Cities []City `yaml:"cities"`
}

// Parse reads a registry document of the form `cities: [...]`.
func Parse(r io.Reader) (*Registry, error) {
	var f file
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return New(nil)
		}
		return nil, eris.Wrap(err, "registry: parse")
	}
	return New(f.Cities)
}

// LoadFile reads the registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reg, err := Parse(f)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: load %s", path)
	}
	zap.L().Debug("registry: loaded cities", zap.String("path", path), zap.Int("count", reg.Len()))
	return reg, nil
}
