package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/velist/gametest/internal/domain/power"
	"github.com/velist/gametest/internal/engine"
	"github.com/velist/gametest/internal/events"
	"github.com/velist/gametest/internal/infra/storage"
	"github.com/velist/gametest/internal/network"
	"github.com/velist/gametest/internal/platform/config"
	"github.com/velist/gametest/internal/platform/i18n"
	"github.com/velist/gametest/internal/platform/logger"
	"github.com/velist/gametest/internal/platform/metrics"
)

func serveCmd() *cobra.Command {
	var addr, tuningPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the observer engine behind a websocket endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, tuningPath)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides TRANSITION_ADDR)")
	cmd.Flags().StringVar(&tuningPath, "tuning", "", "YAML tuning file (overrides TRANSITION_TUNING)")
	return cmd
}

func runServe(parent context.Context, addr, tuningPath string) error {
	appLogger := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if tuningPath != "" {
		cfg.TuningPath = tuningPath
	}
	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		return err
	}

	provider, err := buildNarrator(cfg, appLogger.Named("NARRATOR"))
	if err != nil {
		return err
	}

	st, persisters, err := openStores(cfg, appLogger)
	if err != nil {
		return err
	}
	defer st.Close()

	eventLog := events.NewEventLog(persisters...)
	eventLog.OnPersistError(func(ev events.GameEvent, err error) {
		appLogger.Errorf("Failed to persist %s event %s: %v", ev.Type, ev.ID, err)
	})

	session := engine.NewSession(tuning, i18n.Parse(cfg.Language))
	eng := engine.NewEngine(session, provider, eventLog, tuning, appLogger.Named("ENGINE"))
	hub := network.NewHub(eng, appLogger.Named("HUB"))

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS(ctx))
	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())
	mux.HandleFunc("/api/powers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, power.Catalog)
	})
	mux.HandleFunc("/api/chronicle", chronicleHandler(st.chronicle, appLogger))
	mux.HandleFunc("/api/events", eventsHandler(st.events, appLogger))

	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error {
		<-eng.Ready()
		hub.StartSnapshotPump(ctx)
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		appLogger.Infof("Observer server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		appLogger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	appLogger.Info("Server stopped.")
	return err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// chronicleHandler serves past runs: ?code=<legacy code> for one record,
// otherwise the latest ?limit runs.
func chronicleHandler(chronicle storage.ChronicleRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if chronicle == nil {
			http.Error(w, "chronicle disabled", http.StatusNotFound)
			return
		}
		if code := r.URL.Query().Get("code"); code != "" {
			rec, err := chronicle.ByLegacyCode(r.Context(), code)
			if err != nil {
				log.Errorf("chronicle lookup %s: %v", code, err)
				http.Error(w, "lookup failed", http.StatusInternalServerError)
				return
			}
			if rec == nil {
				http.Error(w, "unknown legacy code", http.StatusNotFound)
				return
			}
			writeJSON(w, rec)
			return
		}
		limit := 20
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		runs, err := chronicle.Recent(r.Context(), limit)
		if err != nil {
			log.Errorf("chronicle listing: %v", err)
			http.Error(w, "listing failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, runs)
	}
}

// eventsHandler serves the stored event stream: ?run=<run id> for one run,
// oldest first, or ?type=<event type> across runs.
func eventsHandler(repo storage.EventRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			http.Error(w, "event store disabled", http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		var (
			rows []storage.EventRow
			err  error
		)
		switch {
		case q.Get("run") != "":
			rows, err = repo.GetByRunID(r.Context(), q.Get("run"))
		case q.Get("type") != "":
			rows, err = repo.GetByEventType(r.Context(), q.Get("type"))
		default:
			http.Error(w, "run or type is required", http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Errorf("event listing: %v", err)
			http.Error(w, "listing failed", http.StatusInternalServerError)
			return
		}
		if rows == nil {
			rows = []storage.EventRow{}
		}
		writeJSON(w, rows)
	}
}
