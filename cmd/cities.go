package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/district-demographics/internal/fetcher"
	"github.com/sells-group/district-demographics/internal/registry"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List the cities in the registry grouped by state",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadFile(cfg.Data.RegistryPath)
		if err != nil {
			return err
		}
		return printCities(cmd.OutOrStdout(), reg, cfg.Data.BaseURL)
	},
}

func printCities(out io.Writer, reg *registry.Registry, baseURL string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tID\tNAME\tSOURCE\tDATE\tURL")
	for _, g := range reg.Groups() {
		state := g.State
		if state == "" {
			state = "-"
		}
		for _, c := range g.Cities {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				state, c.ID, c.Name, dash(c.Source), dash(c.SourceDate), fetcher.URLFor(baseURL, c.File))
		}
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(citiesCmd)
}
