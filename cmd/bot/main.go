package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/config"
	"github.com/brandsentry/sentiment-bot/internal/monitoring"
	"github.com/brandsentry/sentiment-bot/internal/notifications"
	"github.com/brandsentry/sentiment-bot/internal/scheduler"
	"github.com/brandsentry/sentiment-bot/internal/storage"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Starting sentiment monitoring bot")

	store, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}

	var archive storage.ArchiveInterface
	if cfg.StorageAccount != "" {
		azureArchive, err := storage.NewAzureArchive(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Warnf("Azure archive unavailable, purged history will not be retained: %v", err)
		} else {
			archive = azureArchive
			logrus.Infof("Azure archive enabled: %s/%s", cfg.StorageAccount, cfg.StorageContainer)
		}
	}

	notifier := notifications.NewService(cfg)
	monitor := monitoring.NewService(cfg, store, archive, notifier)

	sched, err := scheduler.NewService(cfg, monitor)
	if err != nil {
		logrus.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()

	router := mux.NewRouter()
	setupRoutes(router, monitor, sched)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logrus.Info("Shutting down...")
	sched.Stop()
	if err := monitor.Close(); err != nil {
		logrus.Errorf("Error closing monitor: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server shutdown error: %v", err)
	}

	logrus.Info("Shutdown complete")
}

func setupRoutes(router *mux.Router, monitor *monitoring.Service, sched *scheduler.Service) {
	router.HandleFunc("/health", handleHealth(sched)).Methods("GET")
	router.HandleFunc("/metrics", handleMetrics(monitor)).Methods("GET")
	router.HandleFunc("/start", handleStart(sched)).Methods("POST")
	router.HandleFunc("/stop", handleStop(sched)).Methods("POST")
	router.HandleFunc("/trigger", handleTrigger(monitor)).Methods("POST")
	router.HandleFunc("/scan", handleScan(monitor)).Methods("POST")
	router.HandleFunc("/alerts", handleAlerts(monitor)).Methods("GET")
	router.HandleFunc("/alerts/{id:[0-9]+}/resolve", handleResolveAlert(monitor)).Methods("POST")
	router.HandleFunc("/stats", handleStats(monitor)).Methods("GET")
	router.HandleFunc("/recent-negative", handleRecentNegative(monitor)).Methods("GET")
}

func handleHealth(sched *scheduler.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"running":   sched.IsRunning(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func handleStart(sched *scheduler.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sched.Start()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "monitoring started",
			"running": sched.IsRunning(),
		})
	}
}

func handleStop(sched *scheduler.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sched.Stop()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "monitoring stopped",
			"running": sched.IsRunning(),
		})
	}
}

func handleMetrics(monitor *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(monitor.GetMetrics()))
	}
}

func handleTrigger(monitor *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := monitor.RunCycle(ctx); err != nil {
				logrus.Errorf("Triggered cycle failed: %v", err)
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "cycle triggered"})
	}
}

func handleScan(monitor *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Brand string `json:"brand"`
		}
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req)
		}
		if brand := r.URL.Query().Get("brand"); brand != "" {
			req.Brand = brand
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		result := monitor.ManualScan(ctx, req.Brand)
		status := http.StatusOK
		if !result.Success {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, result)
	}
}

func handleAlerts(monitor *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := monitor.ActiveAlerts(r.URL.Query().Get("urgency"))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":  len(alerts),
			"alerts": alerts,
		})
	}
}

func handleResolveAlert(monitor *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid alert id"})
			return
		}

		if err := monitor.ResolveAlert(id); err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
	}
}

func handleStats(monitor *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 7
		if v := r.URL.Query().Get("days"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
				days = parsed
			}
		}

		stats, err := monitor.Statistics(days)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func handleRecentNegative(monitor *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours := 24
		if v := r.URL.Query().Get("hours"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
				hours = parsed
			}
		}
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		results, err := monitor.RecentNegative(time.Now().Add(-time.Duration(hours)*time.Hour), limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":   len(results),
			"results": results,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
