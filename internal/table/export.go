package table

import (
	"bytes"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/district-demographics/internal/demographics"
)

// ErrEmptyExport is returned when there are no rows to export. Callers treat
// it as a silent no-op.
var ErrEmptyExport = eris.New("table: nothing to export")

// ExportColumns is the fixed export column order. Share fields are never exported.
var ExportColumns = append([]demographics.Field{demographics.DistrictField}, demographics.AbsoluteFields...)

// File is a rendered export ready for download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileBase derives the download name stem from a city display name:
// "Raleigh, NC" becomes "Raleigh_NC_demographics".
func FileBase(cityName string) string {
	safe := strings.ReplaceAll(cityName, ", ", "_")
	safe = strings.ReplaceAll(safe, " ", "_")
	return safe + "_demographics"
}

// WriteCSV writes rows in ExportColumns order. The header is bare; every data
// cell, numeric or not, is wrapped in double quotes. Lines are joined by "\n"
// with no trailing newline.
func WriteCSV(w io.Writer, rows []demographics.Row) error {
	if len(rows) == 0 {
		return ErrEmptyExport
	}

	header := make([]string, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = string(c)
	}

	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	for _, row := range rows {
		b.WriteByte('\n')
		for i, c := range ExportColumns {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quote(row.Cell(c).String()))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "table: write csv")
	}
	return nil
}

// ExportCSV renders rows as a CSV download for the named city.
func ExportCSV(rows []demographics.Row, cityName string) (*File, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return &File{
		Name:        FileBase(cityName) + ".csv",
		ContentType: "text/csv;charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

// quote wraps a value in double quotes, doubling embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
