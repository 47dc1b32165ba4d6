// Package app wires the spendsense server runtime: config, logging, the
// database, migrations, HTTP routes, and the session janitor.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"spendsense/cmd/identity"
	"spendsense/cmd/internal/assist"
	authapi "spendsense/cmd/internal/auth/api"
	"spendsense/cmd/internal/auth/session"
	"spendsense/cmd/internal/ledger"
	ledgerapi "spendsense/cmd/internal/ledger/api"
	"spendsense/cmd/security/password"
)

// App is the spendsense server runtime.
type App struct {
	cfg     Config
	log     Logger
	metrics *Metrics

	dbPool *pgxpool.Pool

	sessions *session.Service

	auth      *authapi.Handler
	ledger    *ledgerapi.Handler
	assistant *assist.Handler
}

// New constructs a fully wired App. Configuration errors here are fatal by
// contract: a process with no signing secret or no database must not boot.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogPretty)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	authCfg := authapi.LoadConfigFromEnv()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("app: SPENDSENSE_DATABASE_URL is required")
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("db.ready")

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	tokens, err := session.NewHMACManager(sessCfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	sessions := session.NewService(sessCfg, session.NewPostgresStore(pool), tokens, users)

	auth, err := authapi.NewHandler(log, authCfg, pwCfg, users, sessions)
	if err != nil {
		pool.Close()
		return nil, err
	}

	ledgerStore, err := ledger.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	ledgerHandler := ledgerapi.NewHandler(log, ledgerStore, auth, authCfg.MaxBodyBytes)

	// No LLM collaborator ships with the server; the assist routes answer
	// 503 until a Completer is plugged in.
	assistant := assist.NewHandler(log, ledgerStore, auth, nil, nil, authCfg.MaxBodyBytes)

	return &App{
		cfg:       cfg,
		log:       log,
		metrics:   NewMetrics(),
		dbPool:    pool,
		sessions:  sessions,
		auth:      auth,
		ledger:    ledgerHandler,
		assistant: assistant,
	}, nil
}

// Run starts the HTTP server and the session janitor, blocking until context
// cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.metrics, a.auth, a.ledger, a.assistant)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log, a.metrics),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.runJanitor(janitorCtx)

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.dbPool.Close()
	a.log.Info("server.stopped")
	return nil
}

// runJanitor periodically evicts expired refresh-token rows. An expired row
// that survives until rotation is still rejected; the sweep only keeps the
// table small.
func (a *App) runJanitor(ctx context.Context) {
	interval := nonZeroDuration(a.cfg.SweepInterval, 10*time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sessions.EvictExpired(ctx, time.Now().UTC())
			if err != nil {
				if ctx.Err() == nil {
					a.log.Error("session.sweep.fail", "err", err)
				}
				continue
			}
			if n > 0 {
				a.log.Info("session.sweep", "evicted", n)
				a.metrics.addEvicted(n)
			}
		}
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
