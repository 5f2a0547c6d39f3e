package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

type csvReader struct {
	r      *csv.Reader
	header header
	line   int
}

// NewCSVReader reads the header row eagerly so format errors surface before
// any row is processed.
func NewCSVReader(r io.Reader) (RowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	cols, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	h, err := parseHeader(cols)
	if err != nil {
		return nil, err
	}
	return &csvReader{r: cr, header: h, line: 1}, nil
}

func (c *csvReader) Next() (Row, error) {
	cols, err := c.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		return Row{}, fmt.Errorf("read csv line %d: %w", c.line+1, err)
	}
	c.line++
	return c.header.row(c.line, cols), nil
}

func (c *csvReader) Close() error { return nil }
