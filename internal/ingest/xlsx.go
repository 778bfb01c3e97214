package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"ovp/internal/model"
)

// readOrdersXLSX reads orders from the first sheet of an XLSX workbook.
// Same header discipline as the CSV path; blank rows are skipped.
func readOrdersXLSX(path string) ([]model.OrderRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var header []string
	var rows []map[string]string
	for _, rec := range raw {
		if blankRow(rec) {
			continue
		}
		if header == nil {
			header = make([]string, len(rec))
			for i, h := range rec {
				header[i] = strings.TrimSpace(strings.TrimPrefix(h, bom))
			}
			continue
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return ordersFromRows(rows)
}
