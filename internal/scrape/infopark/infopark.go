// Package infopark scrapes the Infopark job search: an HTML listing paged
// via ?page=N, where every row links to a detail page that the enricher
// follows for description, company profile and email.
package infopark

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Toymakerftw/job-pipeline/internal/enrich"
	"github.com/Toymakerftw/job-pipeline/internal/normalize"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/util"
)

type Scraper struct {
	baseURL     string
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
		log:         log.With().Str("component", "infopark").Logger(),
	}
}

func (s *Scraper) Name() string { return "infopark" }

func (s *Scraper) Fetch(ctx context.Context) ([]types.Posting, error) {
	var postings []types.Posting

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s?page=%d", s.baseURL, page)
		doc, err := s.client.GetDocument(ctx, url)
		if err != nil {
			// One dead page ends pagination for this run, not the pipeline.
			s.log.Warn().Int("page", page).Err(err).Msg("page fetch failed")
			break
		}

		pagePostings := s.parseListing(doc)
		if len(pagePostings) == 0 {
			break
		}

		s.enrichPage(ctx, pagePostings)
		postings = append(postings, pagePostings...)

		if doc.Find("li.page-item a[rel='next']").Length() == 0 {
			break
		}
	}

	return postings, nil
}

func (s *Scraper) parseListing(doc *goquery.Document) []types.Posting {
	var out []types.Posting
	doc.Find("#job-list tbody tr").Each(func(_ int, row *goquery.Selection) {
		link, _ := row.Find("td.btn-sec a").First().Attr("href")
		if link == "" {
			s.log.Debug().Msg("listing row without detail link, skipped")
			return
		}
		out = append(out, types.Posting{
			Role:        normalize.FormatDescription(row.Find("td.head").First().Text()),
			Company:     normalize.FormatDescription(row.Find("td.date").First().Text()),
			DeadlineRaw: normalize.FormatDescription(row.Find("td:nth-child(3)").First().Text()),
			Link:        util.AbsoluteURL(s.baseURL, link),
			TechPark:    types.ParkInfopark,
		})
	})
	return out
}

// enrichPage runs the detail fetches for one page concurrently, capped at
// detailLimit in flight, and waits for all of them before the caller moves
// to the next page. Enrichment never fails, so the group only bounds fan-out.
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
