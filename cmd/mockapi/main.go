package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"ovp/internal/config"
	"ovp/internal/mockapi"
)

func main() {
	var (
		configPath string
		storePath  string
		failFirst  int
	)
	flag.StringVar(&configPath, "config", "config.yaml", "run configuration file (api_host/api_port)")
	flag.StringVar(&storePath, "store", "data/output/api_store.json", "order store file")
	flag.IntVar(&failFirst, "fail-first", 0, "answer 503 to the first N create requests")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("mockapi failed: %v", err)
	}
	srv, err := mockapi.New(storePath, failFirst)
	if err != nil {
		log.Fatalf("mockapi failed: %v", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	log.Printf("mock order-acceptance API listening on %s store=%s", addr, storePath)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
