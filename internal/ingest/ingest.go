package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ovp/internal/model"
)

// Input files are UTF-8 with an optional BOM, may contain blank lines, and
// field values may carry surrounding whitespace. The header row defines the
// column order.

const bom = "\uFEFF"

// ReadOrders loads the orders file, dispatching on extension (.csv or .xlsx).
func ReadOrders(path string) ([]model.OrderRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readOrdersXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open orders: %w", err)
	}
	defer f.Close()
	rows, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("parse orders: %w", err)
	}
	return ordersFromRows(rows)
}

// ReadCustomers loads the customer directory keyed by CustomerID.
func ReadCustomers(path string) (model.CustomerDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open customers: %w", err)
	}
	defer f.Close()
	rows, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("parse customers: %w", err)
	}
	dir := make(model.CustomerDirectory, len(rows))
	for _, row := range rows {
		id := row["CustomerID"]
		if id == "" {
			continue
		}
		dir[id] = model.CustomerRecord{
			CustomerID: id,
			Name:       row["CustomerName"],
			Status:     model.CustomerStatus(row["Status"]),
		}
	}
	return dir, nil
}

// readTable parses header-keyed CSV rows, tolerating BOM, blank lines and
// stray whitespace around values.
func readTable(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var header []string
	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
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
	return rows, nil
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func ordersFromRows(rows []map[string]string) ([]model.OrderRecord, error) {
	orders := make([]model.OrderRecord, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, model.OrderRecord{
			OrderID:      row["OrderID"],
			CustomerID:   row["CustomerID"],
			Amount:       row["Amount"],
			Currency:     row["Currency"],
			Email:        row["Email"],
			BusinessDate: row["BusinessDate"],
		})
	}
	return orders, nil
}
