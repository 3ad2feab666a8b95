// Package pipeline orchestrates one full aggregation run: fan out over all
// source adapters, normalize what they produced, persist idempotently,
// mirror best-effort, then backfill missing emails.
package pipeline

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Toymakerftw/job-pipeline/internal/backfill"
	"github.com/Toymakerftw/job-pipeline/internal/mirror"
	"github.com/Toymakerftw/job-pipeline/internal/normalize"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
	"github.com/Toymakerftw/job-pipeline/internal/store"
)

// adapterTimeout bounds a single source's whole pagination walk.
const adapterTimeout = 5 * time.Minute

type Pipeline struct {
	fetchers []types.Fetcher
	db       *sql.DB
	mirror   *mirror.Client // nil when not configured
	backfill *backfill.Job
	log      zerolog.Logger
}

// Summary is what one run reports back to the caller.
type Summary struct {
	Fetched          int            `json:"fetched"`
	Added            int            `json:"added"`
	EmailsBackfilled int            `json:"emails_backfilled"`
	PerSource        map[string]int `json:"per_source"`
}

func New(fetchers []types.Fetcher, db *sql.DB, mc *mirror.Client, bf *backfill.Job, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetchers: fetchers,
		db:       db,
		mirror:   mc,
		backfill: bf,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes one invocation end to end. A failing or empty source never
// blocks the others; whatever was persisted stays persisted even if a later
// stage errors.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	sum := Summary{PerSource: make(map[string]int)}

	if err := store.Migrate(p.db); err != nil {
		return sum, err
	}

	type result struct {
		source   string
		postings []types.Posting
	}

	var g errgroup.Group
	results := make(chan result, len(p.fetchers))

	for _, f := range p.fetchers {
		f := f
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, adapterTimeout)
			defer cancel()

			p.log.Info().Str("source", f.Name()).Msg("scraping")
			postings, err := f.Fetch(fctx)
			if err != nil {
				// Best-effort: log and let the siblings finish.
				p.log.Error().Str("source", f.Name()).Err(err).Msg("source failed")
				return nil
			}
			results <- result{source: f.Name(), postings: postings}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	var all []types.Posting
	for res := range results {
		sum.PerSource[res.source] = len(res.postings)
		all = append(all, res.postings...)
	}
	sum.Fetched = len(all)

	for i := range all {
		finalize(&all[i])
	}

	writeCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	sum.Added = store.UpsertAll(writeCtx, p.db, all, p.log)
	p.log.Info().Int("fetched", sum.Fetched).Int("added", sum.Added).Msg("persisted")

	if p.mirror != nil && len(all) > 0 {
		if err := p.mirror.InsertJobs(writeCtx, all); err != nil {
			p.log.Warn().Err(err).Msg("mirror insert failed")
		}
	}

	if p.backfill != nil {
		updated, err := p.backfill.Run(ctx)
		if err != nil {
			p.log.Error().Err(err).Msg("backfill failed")
		}
		sum.EmailsBackfilled = updated
	}

	return sum, nil
}

// finalize applies the normalization rules every posting passes through
// regardless of source: text cleanup, then date canonicalization, then
// status classification on the canonicalized deadline.
func finalize(p *types.Posting) {
	p.Company = strings.TrimSpace(p.Company)
	p.Role = strings.TrimSpace(p.Role)
	p.Link = strings.TrimSpace(p.Link)
	p.DeadlineRaw = strings.TrimSpace(p.DeadlineRaw)
	p.Description = normalize.FormatDescription(p.Description)
	p.CompanyProfile = strings.TrimSpace(p.CompanyProfile)

	p.Deadline = normalize.UniformDate(p.DeadlineRaw)
	p.Status = normalize.Status(p.Deadline)

	// Whatever an adapter scraped as an email must still look like one.
	p.Email = normalize.FirstEmail(p.Email)
}
