package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ovp/internal/audit"
	"ovp/internal/config"
	"ovp/internal/ingest"
	"ovp/internal/ledger"
	"ovp/internal/metrics"
	"ovp/internal/model"
	"ovp/internal/pipeline"
	"ovp/internal/report"
	"ovp/internal/submit"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Config holds CLI flags for one pipeline run.
type Config struct {
	ConfigPath    string
	OrdersPath    string
	CustomersPath string
	OutDir        string
	RefDate       string // YYYY-MM-DD override; empty = today UTC

	LedgerBackend string // file|pebble|badger|memory
	LedgerPath    string // file backend
	LedgerDir     string // pebble/badger backends

	AuditSink  string // file|kafka|both
	AuditDir   string
	TopicAudit string

	// Kafka input for order records
	InputSource      string // file|kafka
	KafkaBootstrap   string
	TopicOrders      string
	GroupID          string
	KafkaReadTimeout int // seconds; intake stops after this long with no message

	MetricsAddr string // empty disables the /metrics listener
}

func main() {
	cfg := readFlags()
	if err := run(cfg); err != nil {
		log.Fatalf("ovp failed: %v", err)
	}
}

func readFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.ConfigPath, "config", "config.yaml", "run configuration file")
	flag.StringVar(&cfg.OrdersPath, "orders", "data/input/orders.csv", "orders file (.csv or .xlsx)")
	flag.StringVar(&cfg.CustomersPath, "customers", "data/input/customers.csv", "customers file")
	flag.StringVar(&cfg.OutDir, "out-dir", "data/output", "report output directory")
	flag.StringVar(&cfg.RefDate, "ref-date", "", "reference date YYYY-MM-DD (default today UTC)")
	flag.StringVar(&cfg.LedgerBackend, "ledger-backend", "file", "ledger backend: file|pebble|badger|memory")
	flag.StringVar(&cfg.LedgerPath, "ledger-path", "data/output/idempotency.json", "ledger file (file backend)")
	flag.StringVar(&cfg.LedgerDir, "ledger-dir", "data/ledger", "ledger directory (pebble/badger backends)")
	flag.StringVar(&cfg.AuditSink, "audit-sink", "file", "audit event sink: file|kafka|both")
	flag.StringVar(&cfg.AuditDir, "audit-dir", "data/output", "audit event directory (file sink)")
	flag.StringVar(&cfg.TopicAudit, "topic-audit", "ovp.audit", "kafka topic for audit events")
	flag.StringVar(&cfg.InputSource, "input-source", "file", "order intake: file|kafka")
	flag.StringVar(&cfg.KafkaBootstrap, "kafka-bootstrap", "", "kafka bootstrap servers, e.g. localhost:9092")
	flag.StringVar(&cfg.TopicOrders, "topic-orders", "ovp.orders", "kafka topic for order intake")
	flag.StringVar(&cfg.GroupID, "group-id", "ovp", "consumer group id for order intake")
	flag.IntVar(&cfg.KafkaReadTimeout, "kafka-read-timeout", 5, "intake idle timeout seconds")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "http listen address for /metrics, e.g. :8080")
	flag.Parse()
	return cfg
}

func run(cfg Config) error {
	runCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	log.Printf("starting run id=%s orders=%s ledger=%s", runID, cfg.OrdersPath, cfg.LedgerBackend)

	customers, err := ingest.ReadCustomers(cfg.CustomersPath)
	if err != nil {
		return err
	}
	var orders []model.OrderRecord
	if cfg.InputSource == "kafka" && cfg.KafkaBootstrap != "" {
		orders, err = consumeOrders(cfg)
	} else {
		orders, err = ingest.ReadOrders(cfg.OrdersPath)
	}
	if err != nil {
		return err
	}
	log.Printf("loaded %d orders, %d customers", len(orders), len(customers))

	led, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer led.Close()

	auditW, err := buildAuditWriter(cfg)
	if err != nil {
		return err
	}

	mreg := metrics.NewRegistry()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", mreg.Handler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
			})
			_ = http.ListenAndServe(cfg.MetricsAddr, mux)
		}()
	}

	refDate := time.Now().UTC()
	if cfg.RefDate != "" {
		refDate, err = time.ParseInLocation("2006-01-02", cfg.RefDate, time.UTC)
		if err != nil {
			return fmt.Errorf("parse ref-date: %w", err)
		}
	}

	client := submit.NewClient(runCfg.APIBaseURL(), runCfg.RetryAttempts, time.Duration(runCfg.RetryBackoffMs)*time.Millisecond)
	orch := &pipeline.Orchestrator{
		Cfg:     runCfg,
		Ledger:  led,
		Client:  client,
		RefDate: refDate,
		RunID:   runID,
		Audit:   auditW,
		Metrics: mreg,
	}

	outcome, runErr := orch.Run(context.Background(), orders, customers)

	// Write whatever we reached even when the run aborted mid-batch.
	w := report.Writer{Dir: cfg.OutDir}
	if err := w.WriteAll(outcome, runCfg, runID, time.Now().UTC()); err != nil {
		return err
	}
	count := 0
	if err := led.Range(func(string, ledger.Entry) error { count++; return nil }); err == nil {
		mreg.LedgerSize.Set(float64(count))
	}
	log.Printf("run finished id=%s accepted=%d rejected=%d duplicate=%d already=%d failed=%d",
		runID, outcome.AcceptedCount, outcome.RejectedCount, outcome.DuplicateCount, outcome.AlreadyProcessed, outcome.FailedCount)
	return runErr
}

func openLedger(cfg Config) (ledger.Store, error) {
	switch cfg.LedgerBackend {
	case "pebble":
		return ledger.NewPebbleStore(cfg.LedgerDir)
	case "badger":
		return ledger.NewBadgerStore(cfg.LedgerDir)
	case "memory":
		return ledger.NewMemStore(), nil
	default:
		return ledger.NewFileStore(cfg.LedgerPath)
	}
}

func buildAuditWriter(cfg Config) (audit.Writer, error) {
	var w audit.Writer
	if cfg.AuditSink == "file" || cfg.AuditSink == "both" || cfg.AuditSink == "" {
		fw, err := audit.NewFileWriter(cfg.AuditDir, "audit.jsonl")
		if err != nil {
			return nil, fmt.Errorf("init audit file: %w", err)
		}
		w = fw
	}
	if (cfg.AuditSink == "kafka" || cfg.AuditSink == "both") && cfg.KafkaBootstrap != "" {
		kw := audit.NewKafkaWriter(cfg.KafkaBootstrap, cfg.TopicAudit)
		if w == nil {
			w = kw
		} else {
			w = audit.NewMultiWriter(w, kw)
		}
	}
	return w, nil
}

// consumeOrders drains JSON-encoded order records from a Kafka topic until
// the intake idles for the configured timeout, then hands the batch to the
// same sequential pipeline the file path uses.
func consumeOrders(cfg Config) ([]model.OrderRecord, error) {
	c, err := ck.NewConsumer(&ck.ConfigMap{
		"bootstrap.servers":  cfg.KafkaBootstrap,
		"group.id":           cfg.GroupID,
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
		"auto.offset.reset":  "earliest",
	})
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}
	defer c.Close()
	if err := c.SubscribeTopics([]string{cfg.TopicOrders}, nil); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	timeout := time.Duration(cfg.KafkaReadTimeout) * time.Second
	var orders []model.OrderRecord
	for {
		msg, err := c.ReadMessage(timeout)
		if err != nil {
			// idle timeout ends the intake; the batch is whatever arrived
			break
		}
		var o model.OrderRecord
		if err := json.Unmarshal(msg.Value, &o); err != nil {
			log.Printf("skipping malformed order message offset=%v: %v", msg.TopicPartition.Offset, err)
			continue
		}
		orders = append(orders, o)
	}
	if _, err := c.Commit(); err != nil {
		log.Printf("commit intake offsets: %v", err)
	}
	return orders, nil
}
