// @title Page Impact API
// @version 1.0
// @description Estimates the energy, carbon and water cost of loading a web page.
// @BasePath /
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "page-impact/docs"
)

// routes registers every endpoint on a new mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /analyze/batch", s.handleBatch)
	mux.HandleFunc("GET /analyses", s.handleListAnalyses)
	mux.HandleFunc("GET /analyses/{id}", s.handleGetAnalysis)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)
	return withLogging(withRecover(mux))
}

func newEventBus(ctx context.Context, cfg Config) (EventBus, func()) {
	if cfg.PubSubProjectID == "" || cfg.PubSubTopic == "" {
		return noopBus{}, func() {}
	}
	client, err := NewPubSubClient(ctx, cfg.PubSubProjectID, cfg.PubSubTopic, cfg.PubSubSubscription)
	if err != nil {
		log.Printf("[pubsub] disabled: %v", err)
		return noopBus{}, func() {}
	}
	return client, func() {
		if err := client.Close(); err != nil {
			log.Printf("[pubsub] close: %v", err)
		}
	}
}

func main() {
	cfg := LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *Store
	if cfg.DBPath != "" {
		var err error
		store, err = OpenStore(cfg.DBPath)
		if err != nil {
			log.Fatalf("[store] open %s: %v", cfg.DBPath, err)
		}
		defer store.Close()
	}

	bus, closeBus := newEventBus(ctx, cfg)
	defer closeBus()

	loader := &ChromeLoader{ExecPath: cfg.ChromePath, Timeout: cfg.NavigationTimeout}
	s := &Server{
		analyzer:          NewAnalyzer(loader, cfg.MaxBodyBytes),
		store:             store,
		bus:               bus,
		apiKey:            cfg.APIKey,
		workers:           cfg.Workers,
		navigationTimeout: cfg.NavigationTimeout,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting page impact server on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
