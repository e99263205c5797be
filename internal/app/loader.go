// Package app builds the immutable data snapshot the server runs on.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"survey-dashboard/internal/observability"
	"survey-dashboard/internal/reconcile"
	"survey-dashboard/internal/source"
	"survey-dashboard/internal/state"
	"survey-dashboard/internal/survey"
)

// Load reads and reconciles every domain of the catalog. Domains load
// concurrently; any missing or malformed table fails the whole load.
func Load(ctx context.Context, src source.Source, catalog *survey.Catalog, logger *zerolog.Logger) (*state.Snapshot, error) {
	start := time.Now()
	datasets := make([]*state.Dataset, len(catalog.Domains))

	g, ctx := errgroup.WithContext(ctx)
	for i := range catalog.Domains {
		i := i
		d := &catalog.Domains[i]
		g.Go(func() error {
			ds, err := LoadDomain(ctx, src, d, logger)
			if err != nil {
				return err
			}
			datasets[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := state.NewSnapshot(datasets...)
	logger.Info().
		Strs("domains", snap.Domains()).
		Str("driver", string(src.Driver())).
		Dur("duration", time.Since(start)).
		Msg("survey data loaded")
	return snap, nil
}

// LoadDomain reads the three raw tables of d and reconciles them.
func LoadDomain(ctx context.Context, src source.Source, d *survey.Domain, logger *zerolog.Logger) (*state.Dataset, error) {
	var t reconcile.Tables
	for _, f := range []struct {
		name  string
		table string
		dst   **state.DataFrame
	}{
		{d.Files.Responses, "responses", &t.Responses},
		{d.Files.Questions, "questions", &t.Questions},
		{d.Files.Entities, "entities", &t.Entities},
	} {
		df, err := src.Load(ctx, f.name)
		if err != nil {
			return nil, fmt.Errorf("domain %s: loading %s table %s: %w", d.ID, f.table, f.name, err)
		}
		*f.dst = df
		observability.RowsLoaded.WithLabelValues(d.ID, f.table).Set(float64(df.Len()))
	}

	ds, err := reconcile.Reconcile(d, t)
	if err != nil {
		return nil, err
	}

	st := ds.Stats
	observability.JoinMatchedRatio.WithLabelValues(d.ID, "questions").Set(ratio(st.QuestionMatches, st.Responses))
	observability.JoinMatchedRatio.WithLabelValues(d.ID, "entities").Set(ratio(st.EntityMatches, st.Responses))

	event := logger.Info()
	if st.Responses > 0 && (st.QuestionMatches == 0 || st.EntityMatches == 0) {
		event = logger.Warn()
	}
	cols := zerolog.Dict()
	for role, col := range ds.RoleColumns() {
		cols.Str(role, col)
	}
	event.
		Str("domain", d.ID).
		Int("responses", st.Responses).
		Int("questions", t.Questions.Len()).
		Int("entities", t.Entities.Len()).
		Int("question_matches", st.QuestionMatches).
		Int("entity_matches", st.EntityMatches).
		Int("duplicate_question_keys", st.DuplicateQuestionKeys).
		Int("duplicate_entity_keys", st.DuplicateEntityKeys).
		Dict("roles", cols).
		Msg("domain reconciled")
	return ds, nil
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
