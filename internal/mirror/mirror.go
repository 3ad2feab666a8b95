// Package mirror pushes a best-effort copy of persisted postings to a
// Supabase table over its PostgREST API. The mirror is an optional
// dependency: callers hold a nil *Client when it is not configured, and no
// mirror failure ever blocks primary persistence.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
)

type Client struct {
	baseURL string
	key     string
	hc      *http.Client
	log     zerolog.Logger
}

// New builds a mirror client for the Supabase project at baseURL. Returns
// nil when either credential is missing, which disables mirroring entirely.
func New(baseURL, key string, log zerolog.Logger) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	key = strings.TrimSpace(key)
	if baseURL == "" || key == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		key:     key,
		hc:      &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("component", "mirror").Logger(),
	}
}

// row is the mirror table's logical shape: the jobs columns minus the
// auto-increment id, which the mirror assigns itself.
type row struct {
	Company        string `json:"company"`
	Role           string `json:"role"`
	Deadline       string `json:"deadline"`
	Link           string `json:"link"`
	TechPark       string `json:"tech_park"`
	Description    string `json:"description"`
	CompanyProfile string `json:"company_profile"`
	Email          string `json:"email"`
	Status         string `json:"status"`
}

// InsertJobs batch-inserts all postings in one request. Duplicate links are
// ignored on the mirror side so repeated runs stay idempotent there too.
func (c *Client) InsertJobs(ctx context.Context, postings []types.Posting) error {
	if len(postings) == 0 {
		return nil
	}

	rows := make([]row, 0, len(postings))
	for _, p := range postings {
		rows = append(rows, row{
			Company:        p.Company,
			Role:           p.Role,
			Deadline:       p.Deadline,
			Link:           p.Link,
			TechPark:       p.TechPark,
			Description:    p.Description,
			CompanyProfile: p.CompanyProfile,
			Email:          p.Email,
			Status:         p.Status,
		})
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("mirror encode: %w", err)
	}

	target := c.baseURL + "/rest/v1/jobs?on_conflict=link"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "resolution=ignore-duplicates,return=minimal")

	return c.do(req, "batch insert")
}

// UpdateEmail patches the email column of the mirrored row link identifies.
func (c *Client) UpdateEmail(ctx context.Context, link, email string) error {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return err
	}

	target := c.baseURL + "/rest/v1/jobs?link=eq." + url.QueryEscape(link)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "return=minimal")

	return c.do(req, "email update")
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) do(req *http.Request, op string) error {
	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("mirror %s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("mirror %s: status %d: %s", op, res.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
