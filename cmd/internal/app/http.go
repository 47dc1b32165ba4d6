package app

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spendsense/cmd/internal/assist"
	authapi "spendsense/cmd/internal/auth/api"
	ledgerapi "spendsense/cmd/internal/ledger/api"
)

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	cfg Config,
	dbPool *pgxpool.Pool,
	metrics *Metrics,
	auth *authapi.Handler,
	ledger *ledgerapi.Handler,
	assistant *assist.Handler,
) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB && dbPool == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if dbPool != nil {
			if err := PingDB(r.Context(), dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	if metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	}

	if auth != nil {
		auth.Register(mux)
	}
	if ledger != nil {
		ledger.Register(mux)
	}
	if assistant != nil {
		assistant.Register(mux)
	}
}
