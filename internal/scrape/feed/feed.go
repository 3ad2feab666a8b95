// Package feed scrapes the Cyberpark job feed, a plain RSS syndication of
// postings. One fetch, no pagination: each entry becomes one posting.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/normalize"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
)

type Scraper struct {
	url    string
	parser *gofeed.Parser
	log    zerolog.Logger
}

func New(feedURL string, timeout time.Duration, log zerolog.Logger) *Scraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	p.UserAgent = "job-pipeline/1.0"
	return &Scraper{
		url:    feedURL,
		parser: p,
		log:    log.With().Str("component", "feed").Logger(),
	}
}

func (s *Scraper) Name() string { return "cyberpark-feed" }

func (s *Scraper) Fetch(ctx context.Context) ([]types.Posting, error) {
	f, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.url, err)
	}

	postings := make([]types.Posting, 0, len(f.Items))
	for _, item := range f.Items {
		if item == nil || item.Link == "" {
			continue
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		postings = append(postings, types.Posting{
			Role:        item.Title,
			DeadlineRaw: item.Published,
			Link:        item.Link,
			TechPark:    types.ParkCyberpark,
			Description: summary,
			Email:       normalize.FirstEmail(summary),
		})
	}
	s.log.Debug().Int("items", len(postings)).Msg("feed parsed")
	return postings, nil
}
