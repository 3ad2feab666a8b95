package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/backfill"
	"github.com/Toymakerftw/job-pipeline/internal/config"
	"github.com/Toymakerftw/job-pipeline/internal/enrich"
	"github.com/Toymakerftw/job-pipeline/internal/httpapi"
	"github.com/Toymakerftw/job-pipeline/internal/mirror"
	"github.com/Toymakerftw/job-pipeline/internal/pipeline"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/feed"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/infopark"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/technopark"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/types"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/ulcyberpark"
	"github.com/Toymakerftw/job-pipeline/internal/scrape/util"
	"github.com/Toymakerftw/job-pipeline/internal/store"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if os.Getenv("ENGINE_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("data dir")
	}
	dbPath := filepath.Join(cfg.DataDir, "jobs.db")

	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dbPath).Msg("open db failed")
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	client := util.NewClient(cfg.Scrape.FetchTimeout, cfg.Scrape.HostReqPerSec, 4)
	enricher := enrich.New(client, log)

	fetchers := []types.Fetcher{
		feed.New(config.CyberparkFeedURL, cfg.Scrape.FetchTimeout, log),
		ulcyberpark.New(config.ULCyberparkURL, client, log),
		infopark.New(cfg.InfoparkURL, client, enricher, cfg.Scrape.DetailConcurrency, log),
		technopark.New(cfg.TechnoparkURL, client, enricher, cfg.Scrape.DetailConcurrency, log),
	}

	mc := mirror.New(cfg.SupabaseURL, cfg.SupabaseKey, log)
	if mc == nil {
		log.Info().Msg("mirror not configured, skipping")
	}

	bf := backfill.New(db, enricher, mc, log)
	pipe := pipeline.New(fetchers, db, mc, bf, log)

	status := new(atomic.Value)
	status.Store(httpapi.RunStatus{})

	mux := httpapi.NewMux(httpapi.Deps{
		Run:    pipe.Run,
		Status: status,
		Log:    log,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("listen failed")
	}
	log.Info().Str("addr", "http://"+addr).Str("db", dbPath).Msg("engine listening")

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal().Err(srv.Serve(ln)).Msg("server stopped")
}
