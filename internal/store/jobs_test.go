package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func samplePosting(link string) types.Posting {
	return types.Posting{
		Company:  "Acme",
		Role:     "Engineer",
		Deadline: "2030-01-01",
		Link:     link,
		TechPark: types.ParkInfopark,
		Status:   "open",
	}
}

func TestInsertIfNew_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	added, err := InsertIfNew(ctx, db, samplePosting("https://x/jobs/1"))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !added {
		t.Fatal("expected first insert to add a row")
	}

	added, err = InsertIfNew(ctx, db, samplePosting("https://x/jobs/1"))
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if added {
		t.Fatal("expected duplicate link to be ignored")
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM jobs;`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestInsertIfNew_RejectsEmptyLink(t *testing.T) {
	db := openTestDB(t)
	if _, err := InsertIfNew(context.Background(), db, types.Posting{Role: "x"}); err == nil {
		t.Fatal("expected error for posting without link")
	}
}

func TestUpsertAll_SkipsBadRowsAndCountsAdded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := InsertIfNew(ctx, db, samplePosting("https://x/jobs/1")); err != nil {
		t.Fatal(err)
	}

	added := UpsertAll(ctx, db, []types.Posting{
		samplePosting("https://x/jobs/1"), // duplicate
		samplePosting("https://x/jobs/2"),
		{Role: "no link"}, // invalid, skipped
		samplePosting("https://x/jobs/3"),
	}, zerolog.Nop())
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM jobs;`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rows, got %d", count)
	}
}

func TestMigrate_Rerunnable(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestMissingEmailAndUpdateEmail(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	withEmail := samplePosting("https://x/jobs/1")
	withEmail.Email = "a@b.com"
	if _, err := InsertIfNew(ctx, db, withEmail); err != nil {
		t.Fatal(err)
	}
	noEmail := samplePosting("https://x/jobs/2")
	noEmail.TechPark = types.ParkTechnopark
	if _, err := InsertIfNew(ctx, db, noEmail); err != nil {
		t.Fatal(err)
	}

	refs, err := MissingEmail(ctx, db)
	if err != nil {
		t.Fatalf("missing email: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 ref, got %d", len(refs))
	}
	if refs[0].Link != "https://x/jobs/2" || refs[0].TechPark != types.ParkTechnopark {
		t.Errorf("unexpected ref: %+v", refs[0])
	}

	if err := UpdateEmail(ctx, db, "https://x/jobs/2", "jobs@company.com"); err != nil {
		t.Fatalf("update email: %v", err)
	}

	var email, role, company string
	err = db.QueryRow(`SELECT email, role, company FROM jobs WHERE link = ?;`, "https://x/jobs/2").
		Scan(&email, &role, &company)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if email != "jobs@company.com" {
		t.Errorf("expected updated email, got %q", email)
	}
	if role != "Engineer" || company != "Acme" {
		t.Errorf("other fields must be untouched, got role=%q company=%q", role, company)
	}

	refs, err = MissingEmail(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected no refs after update, got %d", len(refs))
	}
}
