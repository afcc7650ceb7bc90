package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/district-demographics/internal/demographics"
	"github.com/sells-group/district-demographics/internal/table"
)

var (
	exportCity   string
	exportSort   string
	exportAsc    bool
	exportFormat string
	exportDir    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a city's district table as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("export"); err != nil {
			return err
		}
		e, err := newEnv(cfg)
		if err != nil {
			return err
		}
		path, err := runExport(cmd.Context(), e, exportOptions{
			CityID:    exportCity,
			SortField: exportSort,
			Ascending: exportAsc,
			Format:    exportFormat,
			Dir:       exportDir,
			Locale:    cfg.Table.Locale,
		})
		if err != nil {
			return err
		}
		if path == "" {
			zap.L().Info("no districts to export", zap.String("city", exportCity))
			return nil
		}
		zap.L().Info("export written", zap.String("path", path))
		return nil
	},
}

type exportOptions struct {
	CityID    string
	SortField string
	Ascending bool
	Format    string
	Dir       string
	Locale    string
}

// runExport writes the file and returns its path, or "" when the city has no
// districts.
func runExport(ctx context.Context, e *env, opts exportOptions) (string, error) {
	city, ok := e.Registry.Lookup(opts.CityID)
	if !ok {
		return "", eris.Errorf("unknown city %q", opts.CityID)
	}

	state := table.DefaultSortState()
	if opts.SortField != "" {
		f, err := demographics.ParseSortField(opts.SortField)
		if err != nil {
			return "", err
		}
		state.Field = f
	}
	if opts.Ascending {
		state.Direction = table.Ascending
	}

	fc, err := e.Loader.Load(ctx, city)
	if err != nil {
		return "", err
	}
	rows := table.NewSorter(opts.Locale).Sort(demographics.ProjectAll(fc), state)

	var f *table.File
	switch opts.Format {
	case "csv", "":
		f, err = table.ExportCSV(rows, city.Name)
	case "xlsx":
		f, err = table.ExportXLSX(rows, city.Name)
	default:
		return "", eris.Errorf("unknown format %q", opts.Format)
	}
	if eris.Is(err, table.ErrEmptyExport) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return "", eris.Wrap(err, "create output dir")
	}
	path := filepath.Join(opts.Dir, f.Name)
	if err := os.WriteFile(path, f.Data, 0o644); err != nil {
		return "", eris.Wrapf(err, "write %s", path)
	}
	return path, nil
}

func init() {
	exportCmd.Flags().StringVar(&exportCity, "city", "", "city id from the registry")
	exportCmd.Flags().StringVar(&exportSort, "sort", "", "sort column (default TOTAL)")
	exportCmd.Flags().BoolVar(&exportAsc, "asc", false, "sort ascending")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or xlsx")
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "output directory")
	_ = exportCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(exportCmd)
}
