package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"ovp/internal/audit"
	"ovp/internal/config"
	"ovp/internal/ledger"
	"ovp/internal/metrics"
	"ovp/internal/model"
	"ovp/internal/submit"
	"ovp/internal/validate"
)

// Submitter is the downstream client surface the orchestrator needs.
type Submitter interface {
	Submit(ctx context.Context, o model.OrderRecord) submit.Result
}

// Orchestrator drives records through validation, ledger check and
// submission, strictly one at a time in input order.
type Orchestrator struct {
	Cfg     config.Config
	Ledger  ledger.Store
	Client  Submitter
	RefDate time.Time // UTC run-start date for the business-date window

	RunID   string
	Audit   audit.Writer      // optional
	Metrics *metrics.Registry // optional
	Now     func() time.Time  // defaults to time.Now
}

// Run processes the batch and returns the accumulated RunOutcome. A non-nil
// error means the run aborted (ledger unusable); outcomes gathered up to that
// point are still returned.
func (p *Orchestrator) Run(ctx context.Context, orders []model.OrderRecord, customers model.CustomerDirectory) (*model.RunOutcome, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	out := model.NewRunOutcome()
	seen := make(map[string]bool, len(orders))

	for _, o := range orders {
		if p.Metrics != nil {
			p.Metrics.RecordsRead.Inc()
		}

		// Later occurrences of an identifier are duplicates regardless of
		// their own validity; the first occurrence is classified by the rules.
		if o.OrderID != "" && seen[o.OrderID] {
			p.finish(out, model.Outcome{Order: o, Classification: model.DuplicateInFile, Reason: "duplicate in file"}, now())
			continue
		}
		seen[o.OrderID] = true

		// Ledger hit means a prior run already got this identifier accepted:
		// terminal, and no network call.
		if o.OrderID != "" {
			entry, ok, err := p.Ledger.Get(o.OrderID)
			if err != nil {
				return out, fmt.Errorf("ledger lookup %s: %w", o.OrderID, err)
			}
			if ok {
				p.finish(out, model.Outcome{
					Order:          o,
					Classification: model.AlreadyProcessed,
					Reason:         "already processed",
					Reference:      entry.Reference,
				}, now())
				continue
			}
		}

		if cls, reason := validate.Classify(o, customers, p.RefDate, p.Cfg); cls != model.Accepted {
			p.finish(out, model.Outcome{Order: o, Classification: cls, Reason: reason}, now())
			continue
		}

		outcome, err := p.submitOne(ctx, o, now)
		if err != nil {
			out.Add(outcome)
			return out, err
		}
		p.finish(out, outcome, now())
	}
	return out, nil
}

// submitOne invokes the downstream client and records durable acceptances in
// the ledger before moving on, so a crash between records loses nothing.
func (p *Orchestrator) submitOne(ctx context.Context, o model.OrderRecord, now func() time.Time) (model.Outcome, error) {
	t0 := now()
	res := p.Client.Submit(ctx, o)
	if p.Metrics != nil {
		p.Metrics.SubmitLatencySec.Observe(now().Sub(t0).Seconds())
		p.Metrics.SubmitAttempts.Add(float64(res.Attempts))
		if res.Attempts > 1 {
			p.Metrics.SubmitRetries.Add(float64(res.Attempts - 1))
		}
	}

	switch res.Status {
	case submit.StatusAccepted:
		if err := p.Ledger.Record(o.OrderID, ledger.NewEntry(res.Reference, "created", now())); err != nil {
			return model.Outcome{Order: o, Classification: model.Accepted, Reason: res.Reason, Reference: res.Reference},
				fmt.Errorf("record ledger %s: %w", o.OrderID, err)
		}
		return model.Outcome{Order: o, Classification: model.Accepted, Reason: "created", Reference: res.Reference}, nil
	case submit.StatusAlreadyExists:
		// Downstream saw this identifier before we could record it (e.g. a
		// crash between acceptance and ledger write last run). Reconcile.
		if err := p.Ledger.Record(o.OrderID, ledger.NewEntry(res.Reference, "exists", now())); err != nil {
			return model.Outcome{Order: o, Classification: model.AlreadyProcessed, Reason: res.Reason, Reference: res.Reference},
				fmt.Errorf("record ledger %s: %w", o.OrderID, err)
		}
		return model.Outcome{Order: o, Classification: model.AlreadyProcessed, Reason: res.Reason, Reference: res.Reference}, nil
	case submit.StatusRejected:
		return model.Outcome{Order: o, Classification: model.Rejected, Reason: res.Reason}, nil
	default:
		return model.Outcome{Order: o, Classification: model.Failed, Reason: res.Reason}, nil
	}
}

func (p *Orchestrator) finish(out *model.RunOutcome, o model.Outcome, at time.Time) {
	out.Add(o)
	log.Printf("record orderId=%s classification=%s reason=%q", o.Order.OrderID, o.Classification, o.Reason)
	if p.Metrics != nil {
		switch o.Classification {
		case model.Accepted:
			p.Metrics.Accepted.Inc()
		case model.Rejected:
			p.Metrics.Rejected.Inc()
		case model.DuplicateInFile:
			p.Metrics.Duplicate.Inc()
		case model.AlreadyProcessed:
			p.Metrics.AlreadyProcessed.Inc()
		case model.Failed:
			p.Metrics.Failed.Inc()
		}
	}
	if p.Audit != nil {
		ev := audit.Event{
			RunID:          p.RunID,
			OrderID:        o.Order.OrderID,
			BusinessDate:   o.Order.BusinessDate,
			Classification: string(o.Classification),
			Reason:         o.Reason,
			Reference:      o.Reference,
			TS:             at.UTC().Unix(),
		}
		if err := p.Audit.Append(ev); err != nil {
			log.Printf("audit append failed orderId=%s: %v", o.Order.OrderID, err)
		}
	}
}
