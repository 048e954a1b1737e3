// Command salesdw-pipeline runs the batch ETL: read the two sales feeds,
// transform them into one enriched table, and load the star schema
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"salesdw/internal/modkit"
	"salesdw/internal/modkit/repokit"
	"salesdw/internal/platform/config"
	"salesdw/internal/platform/logger"
	"salesdw/internal/platform/store"

	ingestmod "salesdw/internal/services/ingest/module"
	transformmod "salesdw/internal/services/transform/module"
	whdomain "salesdw/internal/services/warehouse/domain"
	whmod "salesdw/internal/services/warehouse/module"
)

func main() {
	var (
		pathA      = flag.String("source-a", "", "path to the first sales feed CSV (required)")
		pathB      = flag.String("source-b", "", "path to the second sales feed CSV (required)")
		reportPath = flag.String("report", "", "optional path to write the quality report JSON")
	)
	flag.Parse()

	if *pathA == "" || *pathB == "" {
		log.Fatal("both -source-a and -source-b are required")
	}

	runID := uuid.NewString()
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	l := logger.Get()
	run := l.With().Str("run_id", runID).Logger()

	st, err := store.Open(context.Background(), store.Config{
		AppName: "salesdw-pipeline",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(run))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(context.Background(), st)

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: run,
	}

	im := ingestmod.New(deps)
	tm := transformmod.New(deps)
	wm := whmod.New(deps)

	ctx := logger.WithRun(context.Background(), runID)
	startedAt := time.Now().UTC()

	ingCtx := logger.WithStage(ctx, "extract")
	srcA, err := im.Ports().Source.Read(ingCtx, *pathA)
	if err != nil {
		run.Fatal().Err(err).Str("path", *pathA).Msg("reading source A failed")
	}
	srcB, err := im.Ports().Source.Read(ingCtx, *pathB)
	if err != nil {
		run.Fatal().Err(err).Str("path", *pathB).Msg("reading source B failed")
	}
	sourceRows := srcA.NumRows() + srcB.NumRows()

	table, report, err := tm.Ports().Transformer.Run(logger.WithStage(ctx, "transform"), srcA, srcB)
	if err != nil {
		run.Fatal().Err(err).Msg("transform failed")
	}

	if *reportPath != "" {
		writeReport(run, *reportPath, report)
	}

	res, err := wm.Ports().Loader.Load(logger.WithStage(ctx, "load"), table, whdomain.RunRecord{
		ID:          runID,
		StartedAt:   startedAt,
		SourceRows:  sourceRows,
		RowsDropped: report.RowsDroppedBadOrderDate,
	})
	if err != nil {
		run.Fatal().Err(err).Str("state", res.State.String()).Msg("load failed")
	}

	run.Info().
		Int("source_rows", sourceRows).
		Int("fact_rows", res.FactRows).
		Int("rows_dropped", report.RowsDroppedBadOrderDate).
		Dur("elapsed", time.Since(startedAt)).
		Msg("pipeline run complete")
}

func writeReport(l logger.Logger, path string, report any) {
	buf, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		l.Error().Err(err).Msg("marshal quality report")
		return
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		l.Error().Err(err).Str("path", path).Msg("write quality report")
		return
	}
	l.Info().Str("path", path).Msg("quality report written")
}
