package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/admitgate/admitgate/api"
	"github.com/admitgate/admitgate/metrics"
	"github.com/admitgate/admitgate/middleware"
	"github.com/admitgate/admitgate/pkg/admitgate"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when omitted)")
	flag.Parse()

	opts := []admitgate.Option{
		admitgate.WithEvents(admitgate.LogEvents{}),
	}
	if *configPath != "" {
		opts = append(opts, admitgate.WithConfigFile(*configPath))
	}

	ctrl, err := admitgate.New(opts...)
	if err != nil {
		log.Fatalf("admission controller: %v", err)
	}
	ctrl.Start()
	defer ctrl.Stop()

	collector := metrics.NewCollector()
	h := api.NewHandler(ctrl, collector)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Post("/check", h.CheckAdmission)
	r.Get("/status/{identity}", h.Status)
	r.Get("/stats", h.Stats)
	r.Method(http.MethodGet, "/metrics", api.NewMetricsHandler(collector))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	addr := ":" + getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	cfg := ctrl.Config()
	log.Printf("admitgate listening on %s (capacity=%d refill=%d/%dms)",
		addr, cfg.Capacity, cfg.RefillRate, cfg.RefillIntervalMs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
