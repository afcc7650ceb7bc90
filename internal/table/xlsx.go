package table

import (
	"bytes"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/district-demographics/internal/demographics"
)

const sheetName = "Districts"

// WriteXLSX writes rows to a single-sheet workbook using ExportColumns.
// Statistic cells are numeric.
func WriteXLSX(w io.Writer, rows []demographics.Row) error {
	if len(rows) == 0 {
		return ErrEmptyExport
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "table: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range ExportColumns {
		header.AddCell().SetString(string(c))
	}

	for _, row := range rows {
		r := sheet.AddRow()
		for _, c := range ExportColumns {
			cell := row.Cell(c)
			if cell.Numeric {
				r.AddCell().SetFloat(cell.Number)
			} else {
				r.AddCell().SetString(cell.Text)
			}
		}
	}

	if err := file.Write(w); err != nil {
		return eris.Wrap(err, "table: write xlsx")
	}
	return nil
}

// ExportXLSX renders rows as a spreadsheet download for the named city.
func ExportXLSX(rows []demographics.Row, cityName string) (*File, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows); err != nil {
		return nil, err
	}
	return &File{
		Name:        FileBase(cityName) + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}
