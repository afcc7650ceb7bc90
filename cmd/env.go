package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/district-demographics/internal/config"
	"github.com/sells-group/district-demographics/internal/fetcher"
	"github.com/sells-group/district-demographics/internal/registry"
)

// env is the shared wiring of every command.
type env struct {
	Registry *registry.Registry
	Loader   *fetcher.Loader
}

func newEnv(c *config.Config) (*env, error) {
	reg, err := registry.LoadFile(c.Data.RegistryPath)
	if err != nil {
		return nil, eris.Wrap(err, "load city registry")
	}

	schemes := fetcher.DefaultSchemes(fetcher.HTTPOptions{
		UserAgent:  c.Data.UserAgent,
		Timeout:    c.Data.Timeout(),
		MaxRetries: c.Data.MaxRetries,
	}, fetcher.FTPOptions{Timeout: c.Data.Timeout()})

	return &env{
		Registry: reg,
		Loader:   fetcher.NewLoader(c.Data.BaseURL, schemes),
	}, nil
}
