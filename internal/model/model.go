package model

import (
	"github.com/shopspring/decimal"
)

// OrderRecord is one parsed row from the orders input.
// Immutable after parsing; owned by the orchestrator for the run.
type OrderRecord struct {
	OrderID      string `json:"OrderID"`
	CustomerID   string `json:"CustomerID"`
	Amount       string `json:"Amount"`
	Currency     string `json:"Currency"`
	Email        string `json:"Email"`
	BusinessDate string `json:"BusinessDate"`
}

// CustomerStatus is the lifecycle state of a customer.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "Active"
	CustomerInactive CustomerStatus = "Inactive"
)

// CustomerRecord is one parsed row from the customers input.
type CustomerRecord struct {
	CustomerID string
	Name       string
	Status     CustomerStatus
}

// CustomerDirectory is the read-only lookup built once per run.
type CustomerDirectory map[string]CustomerRecord

// Classification is the terminal outcome of one order record.
type Classification string

const (
	Accepted         Classification = "accepted"
	Rejected         Classification = "rejected"
	DuplicateInFile  Classification = "duplicate_in_file"
	AlreadyProcessed Classification = "already_processed"
	Failed           Classification = "failed"
)

// Outcome pairs a record with its classification for the audit trail.
type Outcome struct {
	Order          OrderRecord
	Classification Classification
	Reason         string
	Reference      string // downstream-assigned, set on Accepted/AlreadyProcessed only
}

// RunOutcome accumulates every per-record outcome plus aggregate counters.
// Built incrementally by the orchestrator, consumed once by the report writer.
type RunOutcome struct {
	Outcomes []Outcome

	TotalRead        int
	AcceptedCount    int
	RejectedCount    int
	DuplicateCount   int
	AlreadyProcessed int
	FailedCount      int

	// Reasons counts rejection/failure reasons for the summary.
	Reasons map[string]int
	// CurrencyTotals sums accepted amounts per currency code.
	CurrencyTotals map[string]decimal.Decimal
}

func NewRunOutcome() *RunOutcome {
	return &RunOutcome{
		Reasons:        make(map[string]int),
		CurrencyTotals: make(map[string]decimal.Decimal),
	}
}

// Add records one terminal outcome and bumps the matching counters.
func (r *RunOutcome) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.TotalRead++
	switch o.Classification {
	case Accepted:
		r.AcceptedCount++
		if amt, err := decimal.NewFromString(o.Order.Amount); err == nil {
			cur := r.CurrencyTotals[o.Order.Currency]
			r.CurrencyTotals[o.Order.Currency] = cur.Add(amt)
		}
	case Rejected:
		r.RejectedCount++
		r.Reasons[o.Reason]++
	case DuplicateInFile:
		r.DuplicateCount++
	case AlreadyProcessed:
		r.AlreadyProcessed++
	case Failed:
		r.FailedCount++
		r.Reasons[o.Reason]++
	}
}

// SuccessRate returns accepted/total as a percentage, 0 for an empty run.
func (r *RunOutcome) SuccessRate() float64 {
	if r.TotalRead == 0 {
		return 0
	}
	return float64(r.AcceptedCount) / float64(r.TotalRead) * 100
}
