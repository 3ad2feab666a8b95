package infopark

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/enrich"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/util"
)

func newTestScraper(baseURL string) *Scraper {
	client := util.NewClient(5*time.Second, 1000, 1000)
	return New(baseURL, client, enrich.New(client, zerolog.Nop()), 4, zerolog.Nop())
}

func listingHTML(host string, ids []int, hasNext bool) string {
	rows := ""
	for _, id := range ids {
		rows += fmt.Sprintf(`<tr>
			<td class="head">Engineer %d</td>
			<td class="date">Company %d</td>
			<td>2030-01-0%d</td>
			<td class="btn-sec"><a href="%s/companies/job-details/%d">View</a></td>
		</tr>`, id, id, id, host, id)
	}
	next := ""
	if hasNext {
		next = `<ul><li class="page-item"><a rel="next" href="#">Next</a></li></ul>`
	}
	return fmt.Sprintf(`<html><body>
		<table id="job-list"><tbody>%s</tbody></table>
		%s
	</body></html>`, rows, next)
}

func TestFetch_ListingAndEnrichment(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/companies/job-search", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(listingHTML(srv.URL, []int{1, 2}, true)))
		case "2":
			w.Write([]byte(listingHTML(srv.URL, []int{3}, false)))
		default:
			t.Errorf("unexpected page: %s", r.URL.String())
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/companies/job-details/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="deatil-box">Detail text</div>`))
	})
	mux.HandleFunc("/companies/profile/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="carer-box"><div class="con">
			<h4>InfoCo</h4><span>Kochi</span><span>123</span><span>team@infoco.example</span>
		</div></div>`))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	s := newTestScraper(srv.URL + "/companies/job-search")
	postings, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(postings) != 3 {
		t.Fatalf("expected 3 postings across 2 pages, got %d", len(postings))
	}

	p := postings[0]
	if p.Role != "Engineer 1" || p.Company != "Company 1" {
		t.Errorf("unexpected posting fields: %+v", p)
	}
	if p.DeadlineRaw != "2030-01-01" {
		t.Errorf("expected deadline from third cell, got %q", p.DeadlineRaw)
	}
	if p.TechPark != types.ParkInfopark {
		t.Errorf("unexpected tech park %q", p.TechPark)
	}

	for i, p := range postings {
		if p.Description != "Detail text" {
			t.Errorf("posting %d: expected enriched description, got %q", i, p.Description)
		}
		if p.Email != "team@infoco.example" {
			t.Errorf("posting %d: expected enriched email, got %q", i, p.Email)
		}
	}
}

func TestFetch_PageFailureTerminatesSource(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/companies/job-search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(listingHTML(srv.URL, []int{1}, true)))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="deatil-box">d</div>`))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	s := newTestScraper(srv.URL + "/companies/job-search")
	postings, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("page failure must not surface as an error, got: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected page-1 postings to survive, got %d", len(postings))
	}
}

func TestFetch_EmptyListingTerminates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><table id="job-list"><tbody></tbody></table></body></html>`))
	}))
	defer srv.Close()

	s := newTestScraper(srv.URL + "/companies/job-search")
	postings, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("expected no postings, got %d", len(postings))
	}
}
