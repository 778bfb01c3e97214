package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ovp/internal/config"
	"ovp/internal/model"
)

var testCfg = config.Config{
	APIHost:                "127.0.0.1",
	APIPort:                8080,
	RetryAttempts:          3,
	RetryBackoffMs:         100,
	AllowedCurrencies:      []string{"USD", "EUR"},
	BusinessDateWindowDays: 7,
	ReportDecimalPlaces:    2,
}

var refDate = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func activeCustomers() model.CustomerDirectory {
	return model.CustomerDirectory{
		"C1": {CustomerID: "C1", Name: "Alpha", Status: model.CustomerActive},
		"C2": {CustomerID: "C2", Name: "Beta", Status: model.CustomerInactive},
	}
}

func validOrder() model.OrderRecord {
	return model.OrderRecord{
		OrderID:      "O1",
		CustomerID:   "C1",
		Amount:       "100.00",
		Currency:     "USD",
		Email:        "buyer@example.com",
		BusinessDate: "2024-06-15",
	}
}

func TestClassify_ValidOrder(t *testing.T) {
	cls, reason := Classify(validOrder(), activeCustomers(), refDate, testCfg)
	require.Equal(t, model.Accepted, cls)
	require.Equal(t, "valid", reason)
}

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.OrderRecord)
		reason string
	}{
		{"zero amount", func(o *model.OrderRecord) { o.Amount = "0.00" }, "invalid amount"},
		{"negative amount", func(o *model.OrderRecord) { o.Amount = "-5.00" }, "invalid amount"},
		{"unparseable amount", func(o *model.OrderRecord) { o.Amount = "ten" }, "invalid amount"},
		{"too many decimals", func(o *model.OrderRecord) { o.Amount = "1.005" }, "amount exceeds 2 decimal places"},
		{"currency not allowed", func(o *model.OrderRecord) { o.Currency = "JPY" }, "currency not allowed"},
		{"email no at", func(o *model.OrderRecord) { o.Email = "buyer.example.com" }, "invalid email"},
		{"email empty local", func(o *model.OrderRecord) { o.Email = "@example.com" }, "invalid email"},
		{"email no domain dot", func(o *model.OrderRecord) { o.Email = "buyer@example" }, "invalid email"},
		{"customer missing", func(o *model.OrderRecord) { o.CustomerID = "C9" }, "customer not found"},
		{"customer inactive", func(o *model.OrderRecord) { o.CustomerID = "C2" }, "customer not active"},
		{"bad date format", func(o *model.OrderRecord) { o.BusinessDate = "15/06/2024" }, "invalid date format"},
		{"date too old", func(o *model.OrderRecord) { o.BusinessDate = "2024-06-07" }, "business date out of window"},
		{"future date", func(o *model.OrderRecord) { o.BusinessDate = "2024-06-16" }, "business date out of window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(&o)
			cls, reason := Classify(o, activeCustomers(), refDate, testCfg)
			require.Equal(t, model.Rejected, cls)
			require.Equal(t, tt.reason, reason)
		})
	}
}

func TestClassify_MissingFieldBeforeOtherRules(t *testing.T) {
	o := validOrder()
	o.Amount = ""
	o.Currency = "JPY" // would also fail, but missing field wins
	cls, reason := Classify(o, activeCustomers(), refDate, testCfg)
	require.Equal(t, model.Rejected, cls)
	require.Equal(t, "missing field: Amount", reason)
}

func TestClassify_DateWindowBoundary(t *testing.T) {
	o := validOrder()
	// exactly window days back is inside (inclusive)
	o.BusinessDate = "2024-06-08"
	cls, _ := Classify(o, activeCustomers(), refDate, testCfg)
	require.Equal(t, model.Accepted, cls)

	// one day further back is out
	o.BusinessDate = "2024-06-07"
	cls, reason := Classify(o, activeCustomers(), refDate, testCfg)
	require.Equal(t, model.Rejected, cls)
	require.Equal(t, "business date out of window", reason)
}

func TestClassify_AmountBoundary(t *testing.T) {
	o := validOrder()
	o.Amount = "0.01"
	cls, _ := Classify(o, activeCustomers(), refDate, testCfg)
	require.Equal(t, model.Accepted, cls)
}

func TestClassify_RuleOrderShortCircuits(t *testing.T) {
	// amount rule fires before currency rule
	o := validOrder()
	o.Amount = "0"
	o.Currency = "JPY"
	_, reason := Classify(o, activeCustomers(), refDate, testCfg)
	require.Equal(t, "invalid amount", reason)
}

func TestClassify_Deterministic(t *testing.T) {
	o := validOrder()
	c1, r1 := Classify(o, activeCustomers(), refDate, testCfg)
	c2, r2 := Classify(o, activeCustomers(), refDate, testCfg)
	require.Equal(t, c1, c2)
	require.Equal(t, r1, r2)
}
