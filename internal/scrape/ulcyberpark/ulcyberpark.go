// Package ulcyberpark scrapes the UL Cyberpark job board: an HTML table
// paginated through a discovered "next" link. Rows carry the role (with the
// closing date tucked behind a label in the same cell), the company with its
// apply link, and a detail link that serves as the posting's identity.
package ulcyberpark

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/normalize"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/util"
)

const closingDateLabel = "closing date:"

type Scraper struct {
	baseURL string
	client  *util.Client
	log     zerolog.Logger
}

func New(baseURL string, client *util.Client, log zerolog.Logger) *Scraper {
	return &Scraper{
		baseURL: baseURL,
		client:  client,
		log:     log.With().Str("component", "ulcyberpark").Logger(),
	}
}

func (s *Scraper) Name() string { return "ulcyberpark" }

func (s *Scraper) Fetch(ctx context.Context) ([]types.Posting, error) {
	var postings []types.Posting

	current := s.baseURL
	for current != "" {
		doc, err := s.client.GetDocument(ctx, current)
		if err != nil {
			// A dead page ends this source's run; whatever we already
			// collected still counts.
			s.log.Warn().Str("url", current).Err(err).Msg("page fetch failed")
			break
		}

		table := doc.Find("div.table-responsive-sm.table-job table.table").First()
		if table.Length() == 0 {
			s.log.Debug().Str("url", current).Msg("no job table, done")
			break
		}

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if p, ok := s.parseRow(row); ok {
				postings = append(postings, p)
			}
		})

		current = s.nextPageURL(doc)
	}

	return postings, nil
}

// parseRow extracts one posting from a table row. Rows with fewer than three
// data cells are malformed headers or spacers, skipped without complaint.
func (s *Scraper) parseRow(row *goquery.Selection) (types.Posting, bool) {
	tds := row.Find("td")
	if tds.Length() < 3 {
		return types.Posting{}, false
	}

	role := normalize.FormatDescription(tds.Eq(0).Find("a.btn-1").First().Text())

	var deadline string
	if span := tds.Eq(0).Find("span").First(); span.Length() > 0 {
		text := span.Text()
		if i := strings.Index(strings.ToLower(text), closingDateLabel); i >= 0 {
			text = text[i+len(closingDateLabel):]
		}
		deadline = strings.TrimSpace(text)
	}

	companyAnchor := tds.Eq(1).Find("a.btn-1").First()
	company := normalize.FormatDescription(companyAnchor.Text())
	applyHref, _ := companyAnchor.Attr("href")

	detailHref, _ := tds.Eq(2).Find("a").First().Attr("href")

	link := util.AbsoluteURL(s.baseURL, detailHref)
	if link == "" {
		link = util.AbsoluteURL(s.baseURL, applyHref)
	}
	if link == "" {
		s.log.Debug().Str("role", role).Msg("row without any link, skipped")
		return types.Posting{}, false
	}

	return types.Posting{
		Company:     company,
		Role:        role,
		DeadlineRaw: deadline,
		Link:        link,
		TechPark:    types.ParkULCyberpark,
	}, true
}

// nextPageURL finds the pagination control and returns the absolute URL of
// the next page, or "" when this was the last one. The board renders the
// control as either a ul or a section; prefer an explicit rel=next anchor and
// fall back to the sibling of the active page marker.
func (s *Scraper) nextPageURL(doc *goquery.Document) string {
	pag := doc.Find("ul[class*='pagination'], section[class*='pagination']").First()
	if pag.Length() == 0 {
		return ""
	}

	next := pag.Find("a[rel='next']").First()
	if next.Length() == 0 {
		if active := pag.Find("li.active").First(); active.Length() > 0 {
			next = active.NextFiltered("li").Find("a").First()
		}
	}
	if next.Length() == 0 {
		return ""
	}

	href, ok := next.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	return util.AbsoluteURL(s.baseURL, href)
}
