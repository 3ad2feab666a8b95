// Package enrich fetches a posting's detail page (and, for Infopark, the
// company profile page) and extracts description, company profile and email.
// Enrichment is strictly best-effort: any fetch or parse failure yields an
// empty Enrichment, never an error.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/normalize"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/util"
)

type Enricher struct {
	client *util.Client
	log    zerolog.Logger
}

func New(client *util.Client, log zerolog.Logger) *Enricher {
	return &Enricher{
		client: client,
		log:    log.With().Str("component", "enrich").Logger(),
	}
}

// Enrich fetches whatever detail pages the posting's park exposes. Parks
// without detail pages get an empty Enrichment.
func (e *Enricher) Enrich(ctx context.Context, link, techPark string) types.Enrichment {
	if strings.TrimSpace(link) == "" {
		return types.Enrichment{}
	}
	switch techPark {
	case types.ParkInfopark:
		return e.infopark(ctx, link)
	case types.ParkTechnopark:
		return e.technopark(ctx, link)
	default:
		return types.Enrichment{}
	}
}

// infopark reads the job detail page, then derives the company id from the
// link's last path segment and reads the profile page on the same host.
func (e *Enricher) infopark(ctx context.Context, link string) types.Enrichment {
	var enr types.Enrichment

	doc, err := e.client.GetDocument(ctx, link)
	if err != nil {
		e.log.Warn().Str("link", link).Err(err).Msg("detail fetch failed")
		return enr
	}
	// "deatil-box" is the site's own typo, not ours.
	enr.Description = normalize.FormatDescription(doc.Find("div.deatil-box").Text())

	companyID := util.LastPathSegment(link)
	profileURL := util.SameHostURL(link, "/companies/profile/"+companyID)
	if profileURL == "" {
		return enr
	}

	profileDoc, err := e.client.GetDocument(ctx, profileURL)
	if err != nil {
		e.log.Warn().Str("link", profileURL).Err(err).Msg("profile fetch failed")
		return enr
	}

	enr.CompanyProfile, enr.Email = infoparkProfile(profileDoc)
	if enr.Email == "" {
		enr.Email = normalize.FirstEmail(enr.Description)
	}
	return enr
}

// infoparkProfile pulls name/address/phone/email/website out of the profile
// card and renders the fixed multi-line summary. Missing markup yields an
// empty profile, not an error.
func infoparkProfile(doc *goquery.Document) (profile, email string) {
	con := doc.Find("div.carer-box div.con").First()
	if con.Length() == 0 {
		return "", ""
	}

	name := normalize.FormatDescription(con.Find("h4").First().Text())

	var address, phone, website string
	spans := con.ChildrenFiltered("span")
	if spans.Length() > 0 {
		address = strings.TrimSpace(spans.Eq(0).Text())
	}
	if spans.Length() > 1 {
		phone = normalize.FormatDescription(spans.Eq(1).Text())
	}
	if spans.Length() > 2 {
		email = normalize.FirstEmail(spans.Eq(2).Text())
	}
	if spans.Length() > 3 {
		s := spans.Eq(3)
		website = normalize.FormatDescription(s.Find("a").First().Text())
		if website == "" {
			website = normalize.FormatDescription(s.Text())
		}
	}

	profile = fmt.Sprintf(
		"Company Name: %s\nAddress: %s\nPhone: %s\nEmail: %s\nWebsite: %s",
		name, address, phone, email, website,
	)
	return profile, email
}

// technopark reads the job detail page: description from the content column,
// company card from the sidebar, email from a mailto anchor when present.
func (e *Enricher) technopark(ctx context.Context, link string) types.Enrichment {
	var enr types.Enrichment

	doc, err := e.client.GetDocument(ctx, link)
	if err != nil {
		e.log.Warn().Str("link", link).Err(err).Msg("detail fetch failed")
		return enr
	}

	enr.Description = normalize.FormatDescription(
		doc.Find("div.mb-4.flex.w-full.flex-col.gap-8").First().Text())

	if section := doc.Find("div.w-full.border-b.px-8.pt-8").First(); section.Length() > 0 {
		name := normalize.FormatDescription(section.Find("a.bodybold").First().Text())
		address := strings.TrimSpace(section.Find("p.bodysmall").First().Text())
		website, _ := section.Find("div.pt-4.pb-4 a").First().Attr("href")
		enr.CompanyProfile = fmt.Sprintf(
			"Company Name: %s\nAddress: %s\nWebsite: %s",
			name, address, strings.TrimSpace(website),
		)
	}

	enr.Email = mailtoEmail(doc)
	if enr.Email == "" {
		enr.Email = normalize.FirstEmail(enr.Description)
	}
	return enr
}

// mailtoEmail prefers the mailto: target, falling back to the anchor's
// visible text when the href is junk.
func mailtoEmail(doc *goquery.Document) string {
	a := doc.Find("a[href^='mailto:']").First()
	if a.Length() == 0 {
		return ""
	}
	href, _ := a.Attr("href")
	if email := normalize.FirstEmail(strings.TrimPrefix(href, "mailto:")); email != "" {
		return email
	}
	return normalize.FirstEmail(a.Text())
}
