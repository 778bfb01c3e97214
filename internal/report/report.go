package report

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ovp/internal/config"
	"ovp/internal/model"
)

const (
	AuditFile     = "processed.csv"
	SummaryFile   = "summary.txt"
	ChecksumsFile = "checksums.txt"
	ManifestFile  = "run.manifest.json"
)

// Writer renders a RunOutcome into the per-run artifacts. Output is
// deterministic given the same outcome and timestamps: rows stay in input
// order, maps are rendered sorted.
type Writer struct {
	Dir string
}

// WriteAll produces the audit trail, summary, checksums and run manifest.
func (w Writer) WriteAll(run *model.RunOutcome, cfg config.Config, runID string, finishedAt time.Time) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir output: %w", err)
	}
	if err := w.WriteAudit(run, finishedAt); err != nil {
		return err
	}
	if err := w.WriteSummary(run, cfg); err != nil {
		return err
	}
	sums, err := w.WriteChecksums(AuditFile, SummaryFile)
	if err != nil {
		return err
	}
	return w.WriteManifest(run, runID, finishedAt, sums)
}

// WriteAudit writes one CSV line per input record, in input order.
func (w Writer) WriteAudit(run *model.RunOutcome, stamp time.Time) error {
	f, err := os.Create(filepath.Join(w.Dir, AuditFile))
	if err != nil {
		return fmt.Errorf("create audit: %w", err)
	}
	defer f.Close()
	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"OrderID", "BusinessDate", "Classification", "Reason", "Reference", "TimestampUTC"}); err != nil {
		return fmt.Errorf("write audit header: %w", err)
	}
	ts := stamp.UTC().Format("2006-01-02T15:04:05Z")
	for _, o := range run.Outcomes {
		row := []string{o.Order.OrderID, o.Order.BusinessDate, string(o.Classification), o.Reason, o.Reference, ts}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write audit row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary renders the aggregate counters, per-currency totals and the
// effective config snapshot.
func (w Writer) WriteSummary(run *model.RunOutcome, cfg config.Config) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Total rows read: %d\n", run.TotalRead)
	fmt.Fprintf(&b, "Accepted count: %d\n", run.AcceptedCount)
	fmt.Fprintf(&b, "Rejected count: %d\n", run.RejectedCount)
	for _, reason := range sortedKeys(run.Reasons) {
		fmt.Fprintf(&b, "  - %s: %d\n", reason, run.Reasons[reason])
	}
	fmt.Fprintf(&b, "Duplicate in file count: %d\n", run.DuplicateCount)
	fmt.Fprintf(&b, "Already processed count: %d\n", run.AlreadyProcessed)
	fmt.Fprintf(&b, "Failed count: %d\n", run.FailedCount)
	fmt.Fprintf(&b, "Success rate (%%): %.2f%%\n", run.SuccessRate())

	b.WriteString("\nTotals by currency:\n")
	currencies := make([]string, 0, len(run.CurrencyTotals))
	for cur := range run.CurrencyTotals {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)
	for _, cur := range currencies {
		fmt.Fprintf(&b, "  %s: %s\n", cur, run.CurrencyTotals[cur].StringFixed(int32(cfg.ReportDecimalPlaces)))
	}

	b.WriteString("\nConfig snapshot:\n")
	snap, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config snapshot: %w", err)
	}
	b.Write(snap)
	b.WriteString("\n")

	if err := os.WriteFile(filepath.Join(w.Dir, SummaryFile), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// WriteChecksums writes sha256 lines for each named artifact that exists and
// returns the digests keyed by filename.
func (w Writer) WriteChecksums(names ...string) (map[string]string, error) {
	sums := make(map[string]string, len(names))
	var b strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(w.Dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		digest := fmt.Sprintf("%x", sha256.Sum256(data))
		sums[name] = digest
		fmt.Fprintf(&b, "sha256(%s)=%s\n", name, digest)
	}
	if err := os.WriteFile(filepath.Join(w.Dir, ChecksumsFile), []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write checksums: %w", err)
	}
	return sums, nil
}

// Manifest describes a completed run and its artifacts.
type Manifest struct {
	RunID            string            `json:"runId"`
	FinishedAt       int64             `json:"finishedAt"`
	TotalRead        int               `json:"totalRead"`
	Accepted         int               `json:"accepted"`
	Rejected         int               `json:"rejected"`
	DuplicateInFile  int               `json:"duplicateInFile"`
	AlreadyProcessed int               `json:"alreadyProcessed"`
	Failed           int               `json:"failed"`
	Artifacts        map[string]string `json:"artifacts"` // filename -> sha256
}

// WriteManifest publishes the latest run manifest alongside the artifacts.
func (w Writer) WriteManifest(run *model.RunOutcome, runID string, finishedAt time.Time, sums map[string]string) error {
	m := Manifest{
		RunID:            runID,
		FinishedAt:       finishedAt.UTC().Unix(),
		TotalRead:        run.TotalRead,
		Accepted:         run.AcceptedCount,
		Rejected:         run.RejectedCount,
		DuplicateInFile:  run.DuplicateCount,
		AlreadyProcessed: run.AlreadyProcessed,
		Failed:           run.FailedCount,
		Artifacts:        sums,
	}
	out, err := os.Create(filepath.Join(w.Dir, ManifestFile))
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
