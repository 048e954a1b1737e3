// Package service contains the warehouse load workflows
package service

import (
	"context"
	"sync/atomic"
	"time"

	"salesdw/internal/modkit/repokit"
	"salesdw/internal/platform/logger"
	"salesdw/internal/platform/tabular"
	"salesdw/internal/platform/validate"
	"salesdw/internal/services/warehouse/domain"
	"salesdw/internal/services/warehouse/repo"
)

// Service is the public warehouse port
type Service interface {
	domain.LoaderPort
	domain.AnalyticsPort
}

// Svc implements the loader state machine
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
	cfg    domain.Config
	log    logger.Logger

	state atomic.Uint32
}

// New constructs the service; the config is validated up front
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], cfg domain.Config, log logger.Logger) (*Svc, error) {
	if db == nil {
		panic("warehouse.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("warehouse.Service requires a non nil Storage binder")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return &Svc{
		db:     db,
		binder: binder,
		cfg:    cfg,
		log:    log.With().Str("component", "warehouse").Logger(),
	}, nil
}

// State reports the loader's current position in the load sequence
func (s *Svc) State() domain.LoadState { return domain.LoadState(s.state.Load()) }

func (s *Svc) setState(st domain.LoadState) {
	s.state.Store(uint32(st))
	s.log.Debug().Str("state", st.String()).Msg("loader state")
}

// Load performs a full refresh of the star schema from the transformed
// table. Schema creation is idempotent; reset, dimension load and fact
// load share one transaction so readers never observe a half-refreshed
// warehouse. The verification battery runs after commit and its failures
// are observational only
func (s *Svc) Load(ctx context.Context, t *tabular.Table, run domain.RunRecord) (domain.LoadResult, error) {
	log := logger.Enrich(ctx, s.log)
	start := time.Now()
	res := domain.LoadResult{}
	s.setState(domain.StateUninitialized)

	if err := s.binder.Bind(s.db).EnsureSchema(ctx); err != nil {
		return res, err
	}
	s.setState(domain.StateSchemaEnsured)
	res.State = domain.StateSchemaEnsured

	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		st := s.binder.Bind(q)

		if s.cfg.Reset {
			if err := st.Reset(ctx); err != nil {
				return err
			}
			s.setState(domain.StateReset)
		} else {
			log.Info().Msg("reset disabled, appending to existing warehouse")
		}

		keys, err := s.loadDimensions(ctx, st, t, &res)
		if err != nil {
			return err
		}
		s.setState(domain.StateDimensionsLoaded)

		cols, rows, unmatched := resolveFacts(t, keys)
		res.UnmatchedDimRefs = unmatched
		if unmatched > 0 {
			log.Warn().Int("rows", unmatched).Msg("fact rows with unresolved dimension keys, loading with null surrogates")
		}

		for lo := 0; lo < len(rows); lo += s.cfg.BatchSize {
			hi := lo + s.cfg.BatchSize
			if hi > len(rows) {
				hi = len(rows)
			}
			n, err := st.InsertFacts(ctx, cols, rows[lo:hi])
			if err != nil {
				return err
			}
			res.FactRows += n
		}
		s.setState(domain.StateFactLoaded)

		run.FinishedAt = time.Now().UTC()
		run.FactRows = res.FactRows
		run.Status = "complete"
		return st.InsertRun(ctx, run)
	})
	if err != nil {
		log.Error().Err(err).Str("state", s.State().String()).Msg("load failed, transaction rolled back")
		return res, err
	}
	res.State = domain.StateFactLoaded

	// post-commit verification; findings are logged, never fatal
	if results, err := s.Analytics(ctx); err != nil {
		log.Warn().Err(err).Msg("verification battery failed")
	} else {
		for _, r := range results {
			log.Info().Str("query", r.Name).Int("rows", len(r.Rows)).Msg("verification query")
		}
	}

	s.setState(domain.StateComplete)
	res.State = domain.StateComplete

	log.Info().
		Int("fact_rows", res.FactRows).
		Int("dim_dates", res.DimDates).
		Int("dim_countries", res.DimCountries).
		Int("dim_items", res.DimItems).
		Int("dim_channels", res.DimChannels).
		Int("unmatched_dim_refs", res.UnmatchedDimRefs).
		Dur("elapsed", time.Since(start)).
		Msg("load complete")
	return res, nil
}

// loadDimensions runs the two-phase dimension load: insert distinct
// tuples ignoring conflicts, then select the surrogate keys back
func (s *Svc) loadDimensions(ctx context.Context, st repo.Storage, t *tabular.Table, res *domain.LoadResult) (dimKeys, error) {
	var keys dimKeys

	if dates := distinctDates(t); dates != nil {
		if err := st.InsertDimDates(ctx, dates); err != nil {
			return keys, err
		}
		m, err := st.DateKeys(ctx)
		if err != nil {
			return keys, err
		}
		keys.dates = m
		res.DimDates = len(m)
	} else {
		s.log.Warn().Msg("order date columns missing, dim_date skipped")
	}

	if countries := distinctCountries(t); countries != nil {
		if err := st.InsertDimCountries(ctx, countries); err != nil {
			return keys, err
		}
		m, err := st.CountryKeys(ctx)
		if err != nil {
			return keys, err
		}
		keys.countries = m
		res.DimCountries = len(m)
	} else {
		s.log.Warn().Msg("region or country column missing, dim_country skipped")
	}

	if items := distinctStrings(t, "item_type"); items != nil {
		if err := st.InsertDimItems(ctx, items); err != nil {
			return keys, err
		}
		m, err := st.ItemKeys(ctx)
		if err != nil {
			return keys, err
		}
		keys.items = m
		res.DimItems = len(m)
	} else {
		s.log.Warn().Msg("item_type column missing, dim_item skipped")
	}

	if channels := distinctStrings(t, "sales_channel"); channels != nil {
		if err := st.InsertDimChannels(ctx, channels); err != nil {
			return keys, err
		}
		m, err := st.ChannelKeys(ctx)
		if err != nil {
			return keys, err
		}
		keys.channels = m
		res.DimChannels = len(m)
	} else {
		s.log.Warn().Msg("sales_channel column missing, dim_channel skipped")
	}

	return keys, nil
}

// Analytics runs the fixed verification battery outside any transaction
func (s *Svc) Analytics(ctx context.Context) ([]domain.AnalyticsResult, error) {
	return s.binder.Bind(s.db).Analytics(ctx)
}
