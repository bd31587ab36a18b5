package listio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// readCSV returns the first column, auto-detecting the encoding and converting to UTF-8.
// Both comma and semicolon separated files are accepted.
func readCSV(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)

	// Peek a bit to detect encoding
	peek, _ := br.Peek(2048)
	cs := "utf-8"
	if len(peek) > 0 && !validUTF8Prefix(peek) {
		cs = "windows-1252"
		if det, err := chardet.NewTextDetector().DetectBest(peek); err == nil && det != nil {
			cs = strings.ToLower(det.Charset)
		}
	}

	var dec io.Reader = br
	switch cs {
	case "utf-8":
	case "windows-1251", "koi8-r":
		dec = transform.NewReader(br, charmap.Windows1251.NewDecoder())
	default:
		// Other single-byte guesses are read as Windows-1252, the usual Dutch export charset
		dec = transform.NewReader(br, charmap.Windows1252.NewDecoder())
	}

	dr := bufio.NewReader(dec)
	cr := csv.NewReader(dr)
	cr.Comma = sniffSeparator(dr)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var cells []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > 0 {
			cells = append(cells, rec[0])
		}
	}
	return cells, nil
}

// validUTF8Prefix reports whether b is UTF-8, allowing a rune cut off at the end
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}

// sniffSeparator guesses between ';' and ',' from the first line
func sniffSeparator(r *bufio.Reader) rune {
	peek, _ := r.Peek(1024)
	line := string(peek)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}
