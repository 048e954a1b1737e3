// Package service contains the transform pipeline workflows
package service

import (
	"context"
	"strconv"
	"time"

	"salesdw/internal/platform/logger"
	"salesdw/internal/platform/tabular"
	"salesdw/internal/platform/validate"
	"salesdw/internal/services/transform/domain"
)

// Service is the public transform port
type Service interface{ domain.TransformerPort }

// reporter is the slice of the report the phase helpers may touch
type reporter interface {
	Skip(step, reason string)
}

// Svc implements the transform port
type Svc struct {
	cfg domain.Config
	log logger.Logger

	// standardized column names derived from cfg once at construction
	idCol           string
	orderDateCol    string
	shipDateCol     string
	numericCols     []string
	categoricalCols []string
	dimensionCols   []string
	normalizeCols   []string
}

// New constructs the service; the config is validated up front
func New(cfg domain.Config, log logger.Logger) (*Svc, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return &Svc{
		cfg:             cfg,
		log:             log.With().Str("component", "transform").Logger(),
		idCol:           StandardizeName(cfg.IDColumn),
		orderDateCol:    StandardizeName(cfg.OrderDateColumn),
		shipDateCol:     StandardizeName(cfg.ShipDateColumn),
		numericCols:     standardizeAll(cfg.NumericColumns),
		categoricalCols: standardizeAll(cfg.CategoricalColumns),
		dimensionCols:   standardizeAll(cfg.DimensionColumns),
		normalizeCols:   standardizeAll(cfg.NormalizeColumns),
	}, nil
}

func standardizeAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = StandardizeName(n)
	}
	return out
}

func formatFloatKey(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Run merges the sources and applies the full sequence: standardize
// names, trim, dedupe, infer types, impute, coerce dates, clip, scale,
// encode, enrich, check. The table is returned even when the report
// carries findings
func (s *Svc) Run(ctx context.Context, sources ...*tabular.Table) (*tabular.Table, *domain.Report, error) {
	log := logger.Enrich(ctx, s.log)
	start := time.Now()
	rep := &domain.Report{}

	if len(sources) == 0 {
		return tabularEmpty(), rep, nil
	}

	for i, src := range sources {
		if err := s.standardizeColumns(src); err != nil {
			return nil, nil, err
		}
		log.Debug().Int("source", i).Int("rows", src.NumRows()).Int("cols", src.NumCols()).
			Msg("source standardized")
	}

	// row-wise concat; source origin is not retained
	merged := sources[0]
	for _, src := range sources[1:] {
		if err := merged.Append(src); err != nil {
			return nil, nil, err
		}
	}
	mergedRows := merged.NumRows()

	s.trimCategoricals(merged)

	if pk, ok := s.pkColumn(merged); ok {
		merged = s.dedupeByPK(merged, pk)
		log.Info().Str("pk", pk).Int("rows_before", mergedRows).Int("rows_after", merged.NumRows()).
			Msg("deduplicated by primary key")
	} else {
		rep.Skip("dedupe", "neither "+s.idCol+" nor "+s.cfg.FallbackIDColumn+" present")
		log.Warn().Msg("no primary key column, dedup skipped")
	}

	s.inferKinds(merged)
	s.imputeMissing(merged)

	coerceDate(merged, s.orderDateCol)
	coerceDate(merged, s.shipDateCol)

	var dropped int
	merged, dropped = s.dropBadOrderDates(merged)
	rep.RowsDroppedBadOrderDate = dropped
	if dropped > 0 {
		log.Warn().Int("rows", dropped).Msg("dropped rows with unparseable order date")
	}

	s.clipOutliers(merged, rep)
	s.minMaxNormalize(merged, rep)
	s.oneHotEncode(merged, rep)
	s.recoerce(merged)

	s.enrich(merged, rep)
	s.checkQuality(merged, rep)

	log.Info().
		Int("rows", merged.NumRows()).
		Int("cols", merged.NumCols()).
		Int("rows_dropped_bad_order_date", dropped).
		Int("skipped_steps", len(rep.SkippedSteps)).
		Dur("elapsed", time.Since(start)).
		Msg("transform complete")

	return merged, rep, nil
}

func tabularEmpty() *tabular.Table {
	t, _ := tabular.New()
	return t
}
