package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	header header
	line   int
}

// NewXLSXReader streams the first sheet of a workbook.
func NewXLSXReader(r io.Reader) (RowReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, ErrEmptyFile
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	x := &xlsxReader{file: f, rows: rows}
	if !rows.Next() {
		_ = x.Close()
		return nil, ErrEmptyFile
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = x.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	if x.header, err = parseHeader(cols); err != nil {
		_ = x.Close()
		return nil, err
	}
	x.line = 1
	return x, nil
}

func (x *xlsxReader) Next() (Row, error) {
	for x.rows.Next() {
		x.line++
		cols, err := x.rows.Columns()
		if err != nil {
			return Row{}, fmt.Errorf("read row %d: %w", x.line, err)
		}
		if len(cols) == 0 {
			continue
		}
		return x.header.row(x.line, cols), nil
	}
	if err := x.rows.Error(); err != nil {
		return Row{}, fmt.Errorf("read rows: %w", err)
	}
	return Row{}, io.EOF
}

func (x *xlsxReader) Close() error {
	if x.rows != nil {
		_ = x.rows.Close()
	}
	return x.file.Close()
}
