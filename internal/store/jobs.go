package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
)

// Migrate creates the jobs table. The unique index on link is what makes
// re-scraping idempotent: InsertIfNew leans on it instead of checking first.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  company TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT '',
  deadline TEXT NOT NULL DEFAULT '',
  link TEXT NOT NULL,
  tech_park TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  company_profile TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT ''
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_link ON jobs(link);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertIfNew inserts the posting unless its link is already stored.
// Reports whether a row was actually added; a duplicate is not an error.
func InsertIfNew(ctx context.Context, db *sql.DB, p types.Posting) (bool, error) {
	if strings.TrimSpace(p.Link) == "" {
		return false, fmt.Errorf("posting without link (role=%q park=%q)", p.Role, p.TechPark)
	}

	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO jobs(company, role, deadline, link, tech_park, description, company_profile, email, status)
VALUES(?,?,?,?,?,?,?,?,?);`,
		p.Company,
		p.Role,
		p.Deadline,
		p.Link,
		p.TechPark,
		p.Description,
		p.CompanyProfile,
		p.Email,
		p.Status,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// UpsertAll inserts every posting, skipping duplicates, and reports how many
// rows were actually added. A row that fails to insert is logged and skipped;
// the rest of the batch still lands.
func UpsertAll(ctx context.Context, db *sql.DB, postings []types.Posting, log zerolog.Logger) int {
	added := 0
	for _, p := range postings {
		ok, err := InsertIfNew(ctx, db, p)
		if err != nil {
			log.Error().Str("link", p.Link).Err(err).Msg("insert failed")
			continue
		}
		if ok {
			added++
		}
	}
	return added
}

// PostingRef identifies a stored row for the backfill pass.
type PostingRef struct {
	Link     string
	TechPark string
}

// MissingEmail lists the rows the backfill job should revisit.
func MissingEmail(ctx context.Context, db *sql.DB) ([]PostingRef, error) {
	rows, err := db.QueryContext(ctx, `
SELECT link, tech_park
FROM jobs
WHERE email IS NULL OR email = ''
ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PostingRef
	for rows.Next() {
		var ref PostingRef
		if err := rows.Scan(&ref.Link, &ref.TechPark); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// UpdateEmail sets the email column, and nothing else, on the row link
// identifies.
func UpdateEmail(ctx context.Context, db *sql.DB, link, email string) error {
	_, err := db.ExecContext(ctx, `UPDATE jobs SET email = ? WHERE link = ?;`, email, link)
	return err
}
