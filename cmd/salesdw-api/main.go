// Command salesdw-api serves the dashboard-facing read API over the
// star schema
package main

import (
	"context"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"salesdw/internal/modkit"
	"salesdw/internal/modkit/repokit"
	"salesdw/internal/platform/config"
	"salesdw/internal/platform/logger"
	phttp "salesdw/internal/platform/net/http"
	"salesdw/internal/platform/net/middleware"
	"salesdw/internal/platform/store"

	apimod "salesdw/internal/services/api/module"
	whmod "salesdw/internal/services/warehouse/module"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		AppName: "salesdw-api",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(context.Background(), st)

	deps := modkit.Deps{Cfg: root, PG: st.PG, Log: *l}

	wm := whmod.New(deps)
	am := apimod.New(deps, apimod.Ports{Analytics: wm.Ports().Analytics})

	srv := phttp.NewServer(root, func(m *chi.Mux) {
		m.Use(chimw.RequestID)
		m.Use(middleware.RecoverJSON)
		m.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 2 * time.Second}))
		m.Use(cors.Handler(cors.Options{
			AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", []string{"*"}),
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	})

	r := srv.Router()
	am.MountRoutes(r)
	r.Get("/healthz", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		if err := st.Guard(req.Context()); err != nil {
			phttp.RespondErr(w, req, err)
			return
		}
		phttp.RespondOK(w, req, map[string]string{"status": "ok"})
	})

	go func() {
		if err := srv.Run(context.Background()); err != nil {
			l.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("graceful shutdown failed")
	}
	l.Info().Msg("api stopped")
}
