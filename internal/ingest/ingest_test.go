package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"ovp/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadOrders_TolerantParsing(t *testing.T) {
	// BOM on the header, blank lines, stray whitespace in values
	content := "\uFEFFOrderID,CustomerID,Amount,Currency,Email,BusinessDate\n" +
		"\n" +
		" O1 , C1 , 100.00 ,USD, buyer@example.com ,2024-06-15\n" +
		"   \n" +
		"O2,C2,5.50,EUR,x@y.co,2024-06-14\n"
	path := writeFile(t, "orders.csv", content)

	orders, err := ReadOrders(path)
	if err != nil {
		t.Fatalf("read orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("want 2 orders, got %d", len(orders))
	}
	want := model.OrderRecord{OrderID: "O1", CustomerID: "C1", Amount: "100.00", Currency: "USD", Email: "buyer@example.com", BusinessDate: "2024-06-15"}
	if orders[0] != want {
		t.Fatalf("unexpected first order: %+v", orders[0])
	}
	if orders[1].OrderID != "O2" || orders[1].Currency != "EUR" {
		t.Fatalf("unexpected second order: %+v", orders[1])
	}
}

func TestReadOrders_PreservesInputOrder(t *testing.T) {
	content := "OrderID,CustomerID,Amount,Currency,Email,BusinessDate\n" +
		"Z9,C1,1.00,USD,a@b.co,2024-06-15\n" +
		"A1,C1,2.00,USD,a@b.co,2024-06-15\n" +
		"M5,C1,3.00,USD,a@b.co,2024-06-15\n"
	path := writeFile(t, "orders.csv", content)

	orders, err := ReadOrders(path)
	if err != nil {
		t.Fatalf("read orders: %v", err)
	}
	ids := []string{orders[0].OrderID, orders[1].OrderID, orders[2].OrderID}
	if ids[0] != "Z9" || ids[1] != "A1" || ids[2] != "M5" {
		t.Fatalf("order not preserved: %v", ids)
	}
}

func TestReadOrders_HeaderDefinesColumnOrder(t *testing.T) {
	content := "Amount,OrderID,BusinessDate,CustomerID,Email,Currency\n" +
		"9.99,O1,2024-06-15,C1,a@b.co,USD\n"
	path := writeFile(t, "orders.csv", content)

	orders, err := ReadOrders(path)
	if err != nil {
		t.Fatalf("read orders: %v", err)
	}
	if orders[0].Amount != "9.99" || orders[0].OrderID != "O1" || orders[0].Currency != "USD" {
		t.Fatalf("column mapping wrong: %+v", orders[0])
	}
}

func TestReadCustomers(t *testing.T) {
	content := "\uFEFFCustomerID,CustomerName,Status\n" +
		"C1,Alpha Corp,Active\n" +
		"C2, Beta Ltd ,Inactive\n" +
		"\n"
	path := writeFile(t, "customers.csv", content)

	dir, err := ReadCustomers(path)
	if err != nil {
		t.Fatalf("read customers: %v", err)
	}
	if len(dir) != 2 {
		t.Fatalf("want 2 customers, got %d", len(dir))
	}
	if dir["C1"].Status != model.CustomerActive {
		t.Fatalf("C1 status: %+v", dir["C1"])
	}
	if dir["C2"].Name != "Beta Ltd" || dir["C2"].Status != model.CustomerInactive {
		t.Fatalf("C2: %+v", dir["C2"])
	}
}

func TestReadOrders_MissingFile(t *testing.T) {
	if _, err := ReadOrders(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
