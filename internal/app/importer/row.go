// Package importer streams catalog rows out of uploaded spreadsheets.
package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("required column missing")
	ErrEmptyFile         = errors.New("file has no header row")
)

// Column names of the catalog sheet.
const (
	ColNetwork  = "network"
	ColOffer    = "offer"
	ColURL      = "url"
	ColIsActive = "is_active"
)

// Row is one catalog line: a link of an offer inside a network.
type Row struct {
	Line     int
	Network  string
	Offer    string
	URL      string
	IsActive bool
}

// Complete reports whether the row names a network, an offer and a url.
func (r Row) Complete() bool {
	return r.Network != "" && r.Offer != "" && r.URL != ""
}

// RowReader yields rows until io.EOF.
type RowReader interface {
	Next() (Row, error)
	Close() error
}

// Open picks a reader from the file extension.
func Open(filename string, r io.Reader) (RowReader, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return NewCSVReader(r)
	case ".xlsx", ".xlsm":
		return NewXLSXReader(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

var falseWords = map[string]struct{}{
	"false": {}, "f": {}, "0": {}, "0.0": {}, "no": {}, "n": {}, "off": {},
}

// ParseActive coerces an is_active cell. Blank means active; the usual
// spellings of "false" mean inactive; anything else is active.
func ParseActive(cell string) bool {
	v := strings.ToLower(strings.TrimSpace(cell))
	if v == "" {
		return true
	}
	_, inactive := falseWords[v]
	return !inactive
}

// header maps column names to positions.
type header struct {
	network, offer, url, active int
}

func parseHeader(cols []string) (header, error) {
	h := header{network: -1, offer: -1, url: -1, active: -1}
	for i, col := range cols {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))) {
		case ColNetwork:
			h.network = i
		case ColOffer:
			h.offer = i
		case ColURL:
			h.url = i
		case ColIsActive:
			h.active = i
		}
	}

	var missing []string
	if h.network < 0 {
		missing = append(missing, ColNetwork)
	}
	if h.offer < 0 {
		missing = append(missing, ColOffer)
	}
	if h.url < 0 {
		missing = append(missing, ColURL)
	}
	if len(missing) > 0 {
		return h, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return h, nil
}

func (h header) row(line int, cols []string) Row {
	cell := func(i int) string {
		if i < 0 || i >= len(cols) {
			return ""
		}
		return strings.TrimSpace(cols[i])
	}
	return Row{
		Line:     line,
		Network:  cell(h.network),
		Offer:    cell(h.offer),
		URL:      cell(h.url),
		IsActive: ParseActive(cell(h.active)),
	}
}
