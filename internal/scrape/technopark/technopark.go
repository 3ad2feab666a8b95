// Package technopark scrapes the Technopark paginated-jobs JSON API. Pages
// advance via ?page=N until the paginator metadata says the current page is
// the last one; each item links to an HTML detail page the enricher follows.
package technopark

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Toymakerftw/job-pipeline/internal/enrich"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/util"
)

// detailURLFormat builds the public job-details page from an API item id.
const detailURLFormat = "https://technopark.org/job-details/%v"

type Scraper struct {
	baseURL     string
	detailBase  string
	client      *util.Client
	enricher    *enrich.Enricher
	detailLimit int
	log         zerolog.Logger
}

func New(baseURL string, client *util.Client, enricher *enrich.Enricher, detailLimit int, log zerolog.Logger) *Scraper {
	if detailLimit <= 0 {
		detailLimit = 6
	}
	return &Scraper{
		baseURL:     baseURL,
		client:      client,
		enricher:    enricher,
		detailLimit: detailLimit,
		log:         log.With().Str("component", "technopark").Logger(),
	}
}

// WithDetailBase overrides where job-details pages live. Tests point this at
// a local server; production uses the public site.
func (s *Scraper) WithDetailBase(base string) *Scraper {
	s.detailBase = base
	return s
}

func (s *Scraper) Name() string { return "technopark" }

// page mirrors the API envelope: a data array plus paginator metadata.
type page struct {
	Data []struct {
		ID       json.Number `json:"id"`
		JobTitle string      `json:"job_title"`
		Closing  string      `json:"closing_date"`
		Company  struct {
			Company string `json:"company"`
		} `json:"company"`
	} `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

func (s *Scraper) Fetch(ctx context.Context) ([]types.Posting, error) {
	var postings []types.Posting

	for pageNum := 1; ; pageNum++ {
		url := fmt.Sprintf("%s?page=%d", s.baseURL, pageNum)
		body, err := s.client.GetBytes(ctx, url)
		if err != nil {
			s.log.Warn().Int("page", pageNum).Err(err).Msg("page fetch failed")
			break
		}

		var pg page
		if err := json.Unmarshal(body, &pg); err != nil {
			s.log.Warn().Int("page", pageNum).Err(err).Msg("page decode failed")
			break
		}
		if len(pg.Data) == 0 {
			break
		}

		pagePostings := make([]types.Posting, 0, len(pg.Data))
		for _, item := range pg.Data {
			pagePostings = append(pagePostings, types.Posting{
				Company:     item.Company.Company,
				Role:        item.JobTitle,
				DeadlineRaw: item.Closing,
				Link:        s.detailURL(item.ID),
				TechPark:    types.ParkTechnopark,
			})
		}

		s.enrichPage(ctx, pagePostings)
		postings = append(postings, pagePostings...)

		if pg.CurrentPage >= pg.LastPage {
			break
		}
	}

	return postings, nil
}

func (s *Scraper) detailURL(id json.Number) string {
	if s.detailBase != "" {
		return fmt.Sprintf("%s/%v", s.detailBase, id)
	}
	return fmt.Sprintf(detailURLFormat, id)
}

// enrichPage fans out this page's detail fetches, at most detailLimit in
// flight, and blocks until the whole page is enriched.
func (s *Scraper) enrichPage(ctx context.Context, page []types.Posting) {
	g := new(errgroup.Group)
	g.SetLimit(s.detailLimit)
	for i := range page {
		p := &page[i]
		g.Go(func() error {
			enr := s.enricher.Enrich(ctx, p.Link, p.TechPark)
			p.Description = enr.Description
			p.CompanyProfile = enr.CompanyProfile
			p.Email = enr.Email
			return nil
		})
	}
	_ = g.Wait()
}
