package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// ParseSheet reads an OOXML spreadsheet (.xlsx payload) and returns the
// same header/row shape as ParseDelimited. Only the first sheet is read;
// that matches the upload dialog, which never offers a sheet picker.
func ParseSheet(r io.Reader) ([]string, []RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var headers []string
	data := make([]RawRow, 0, len(rows))
	for _, cells := range rows {
		trimmed := make([]string, len(cells))
		empty := true
		for i, c := range cells {
			trimmed[i] = strings.TrimSpace(c)
			if trimmed[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		if headers == nil {
			headers = trimmed
			continue
		}
		data = append(data, rowFromCells(headers, trimmed))
	}
	if headers == nil {
		return nil, nil, ErrEmptyFile
	}
	return headers, data, nil
}

// ParseLegacySheet reads a BIFF workbook (.xls payload). excelize only
// handles the OOXML container, so the legacy format gets its own reader.
// First sheet only, same shape as ParseSheet.
func ParseLegacySheet(r io.ReadSeeker) ([]string, []RawRow, error) {
	wb, err := xls.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open spreadsheet: %w", err)
	}

	sh, err := wb.GetSheet(0)
	if err != nil {
		return nil, nil, ErrEmptyFile
	}

	var headers []string
	var data []RawRow
	for i := 0; i <= sh.GetNumberRows(); i++ {
		row, err := sh.GetRow(i)
		if err != nil {
			continue
		}
		cells := row.GetCols()
		trimmed := make([]string, len(cells))
		empty := true
		for j, c := range cells {
			trimmed[j] = strings.TrimSpace(c.GetString())
			if trimmed[j] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		if headers == nil {
			headers = trimmed
			continue
		}
		data = append(data, rowFromCells(headers, trimmed))
	}
	if headers == nil {
		return nil, nil, ErrEmptyFile
	}
	return headers, data, nil
}
