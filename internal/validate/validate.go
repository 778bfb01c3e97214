package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ovp/internal/config"
	"ovp/internal/model"
)

// Classify applies the business rule set to one order against the customer
// directory. Pure and deterministic: the reference date is the caller's UTC
// run-start date, never read from the wall clock here.
//
// First failing rule wins. Cross-record concerns (duplicate-in-file, ledger)
// belong to the orchestrator, so a fully valid order comes back Accepted
// provisionally.
func Classify(o model.OrderRecord, customers model.CustomerDirectory, refDate time.Time, cfg config.Config) (model.Classification, string) {
	if name, ok := missingField(o); ok {
		return model.Rejected, "missing field: " + name
	}

	amt, err := decimal.NewFromString(o.Amount)
	if err != nil {
		return model.Rejected, "invalid amount"
	}
	if !amt.IsPositive() {
		return model.Rejected, "invalid amount"
	}
	if int(-amt.Exponent()) > cfg.ReportDecimalPlaces {
		return model.Rejected, fmt.Sprintf("amount exceeds %d decimal places", cfg.ReportDecimalPlaces)
	}

	if !cfg.CurrencyAllowed(o.Currency) {
		return model.Rejected, "currency not allowed"
	}

	if !validEmail(o.Email) {
		return model.Rejected, "invalid email"
	}

	cust, ok := customers[o.CustomerID]
	if !ok {
		return model.Rejected, "customer not found"
	}
	if cust.Status != model.CustomerActive {
		return model.Rejected, "customer not active"
	}

	bd, err := time.ParseInLocation("2006-01-02", o.BusinessDate, time.UTC)
	if err != nil {
		return model.Rejected, "invalid date format"
	}
	ref := refDate.UTC().Truncate(24 * time.Hour)
	oldest := ref.AddDate(0, 0, -cfg.BusinessDateWindowDays)
	if bd.Before(oldest) || bd.After(ref) {
		return model.Rejected, "business date out of window"
	}

	return model.Accepted, "valid"
}

func missingField(o model.OrderRecord) (string, bool) {
	switch {
	case o.OrderID == "":
		return "OrderID", true
	case o.CustomerID == "":
		return "CustomerID", true
	case o.Amount == "":
		return "Amount", true
	case o.Currency == "":
		return "Currency", true
	case o.Email == "":
		return "Email", true
	case o.BusinessDate == "":
		return "BusinessDate", true
	}
	return "", false
}

// validEmail checks the minimal structure: non-empty local part, "@", and a
// domain containing a dot.
func validEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	return strings.Contains(domain, ".")
}
