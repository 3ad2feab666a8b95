// Package backfill fills in emails that earlier runs could not capture. It
// walks stored rows with an empty email one at a time, deliberately slower
// than the bulk scrape so detail pages see a gentle revisit.
package backfill

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/enrich"
	"github.com/Toymakerftw/job-pipeline/internal/mirror"
	"github.com/Toymakerftw/job-pipeline/internal/store"
)

type Job struct {
	db       *sql.DB
	enricher *enrich.Enricher
	mirror   *mirror.Client // nil when mirroring is disabled
	log      zerolog.Logger
}

func New(db *sql.DB, enricher *enrich.Enricher, mc *mirror.Client, log zerolog.Logger) *Job {
	return &Job{
		db:       db,
		enricher: enricher,
		mirror:   mc,
		log:      log.With().Str("component", "backfill").Logger(),
	}
}

// Run re-enriches every stored posting that still lacks an email and writes
// any address it finds to the primary store and, best-effort, the mirror.
// Returns how many rows got an email.
func (j *Job) Run(ctx context.Context) (int, error) {
	refs, err := store.MissingEmail(ctx, j.db)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		enr := j.enricher.Enrich(ctx, ref.Link, ref.TechPark)
		if enr.Email == "" {
			continue
		}

		if err := store.UpdateEmail(ctx, j.db, ref.Link, enr.Email); err != nil {
			j.log.Error().Str("link", ref.Link).Err(err).Msg("email update failed")
			continue
		}
		updated++

		if j.mirror != nil {
			if err := j.mirror.UpdateEmail(ctx, ref.Link, enr.Email); err != nil {
				j.log.Warn().Str("link", ref.Link).Err(err).Msg("mirror email update failed")
			}
		}
	}

	j.log.Info().Int("scanned", len(refs)).Int("updated", updated).Msg("backfill done")
	return updated, nil
}
