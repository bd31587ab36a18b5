// Package listio reads shopping lists from uploaded text, csv and spreadsheet files.
package listio

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/basketlens/backend/internal/domain"
)

// headerNames are first cells treated as a column title rather than an item
var headerNames = map[string]bool{
	"item":    true,
	"items":   true,
	"product": true,
	"artikel": true,
}

// ReadList picks a parser by extension and returns the trimmed, non-empty items
func ReadList(r io.Reader, filename string) ([]string, error) {
	var (
		cells []string
		err   error
	)

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", "":
		cells, err = readText(r)
	case ".csv":
		cells, err = readCSV(r)
	case ".xlsx":
		cells, err = readXLSX(r)
	case ".xls":
		cells, err = readXLS(r)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedList, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	return cleanItems(cells), nil
}

func readText(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// cleanItems trims cells, drops blanks and a leading header cell
func cleanItems(cells []string) []string {
	items := make([]string, 0, len(cells))
	for _, cell := range cells {
		item := normalizeCell(cell)
		if item == "" {
			continue
		}
		if len(items) == 0 && headerNames[strings.ToLower(item)] {
			continue
		}
		items = append(items, item)
	}
	return items
}

// normalizeCell strips the BOM, surrounding whitespace and non-breaking spaces
func normalizeCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}
