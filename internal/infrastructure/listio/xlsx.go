package listio

import (
	"bytes"
	"io"

	excelize "github.com/xuri/excelize/v2"
)

// readXLSX returns the first column of the first sheet
func readXLSX(r io.Reader) ([]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	cells := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 {
			cells = append(cells, row[0])
		}
	}
	return cells, nil
}
