package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

func main() {
	var (
		count     int
		customers int
		outDir    string
		badFrac   float64
	)
	flag.IntVar(&count, "count", 100, "number of orders to generate")
	flag.IntVar(&customers, "customers", 10, "number of customers to generate")
	flag.StringVar(&outDir, "out-dir", "data/input", "output directory")
	flag.Float64Var(&badFrac, "invalid-frac", 0.1, "fraction of deliberately invalid orders")
	flag.Parse()

	if err := generate(count, customers, outDir, badFrac); err != nil {
		log.Fatalf("generation failed: %v", err)
	}
}

func generate(count, customers int, outDir string, badFrac float64) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	custIDs := make([]string, customers)
	cf, err := os.Create(filepath.Join(outDir, "customers.csv"))
	if err != nil {
		return fmt.Errorf("create customers: %w", err)
	}
	cw := csv.NewWriter(cf)
	_ = cw.Write([]string{"CustomerID", "CustomerName", "Status"})
	for i := range custIDs {
		custIDs[i] = fmt.Sprintf("C%03d", i+1)
		status := "Active"
		if rng.Float64() < 0.2 {
			status = "Inactive"
		}
		_ = cw.Write([]string{custIDs[i], "Customer " + custIDs[i], status})
	}
	cw.Flush()
	if err := cf.Close(); err != nil {
		return err
	}
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write customers: %w", err)
	}

	currencies := []string{"USD", "EUR", "GBP"}
	today := time.Now().UTC()

	of, err := os.Create(filepath.Join(outDir, "orders.csv"))
	if err != nil {
		return fmt.Errorf("create orders: %w", err)
	}
	ow := csv.NewWriter(of)
	_ = ow.Write([]string{"OrderID", "CustomerID", "Amount", "Currency", "Email", "BusinessDate"})
	for i := 0; i < count; i++ {
		orderID := "O-" + uuid.NewString()[:8]
		cust := custIDs[rng.Intn(len(custIDs))]
		amount := fmt.Sprintf("%d.%02d", 1+rng.Intn(999), rng.Intn(100))
		currency := currencies[rng.Intn(len(currencies))]
		email := fmt.Sprintf("user%d@example.com", i+1)
		date := today.AddDate(0, 0, -rng.Intn(5)).Format("2006-01-02")

		if rng.Float64() < badFrac {
			switch rng.Intn(4) {
			case 0:
				amount = "0.00"
			case 1:
				currency = "XXX"
			case 2:
				email = "not-an-email"
			case 3:
				date = today.AddDate(0, 0, -90).Format("2006-01-02")
			}
		}
		_ = ow.Write([]string{orderID, cust, amount, currency, email, date})
	}
	ow.Flush()
	if err := of.Close(); err != nil {
		return err
	}
	if err := ow.Error(); err != nil {
		return fmt.Errorf("write orders: %w", err)
	}

	log.Printf("generated %d orders, %d customers in %s", count, customers, outDir)
	return nil
}
