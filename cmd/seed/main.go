package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"bookshop/internal/catalog"
	"bookshop/internal/config"
	"bookshop/internal/logging"
	"bookshop/internal/storage"
)

func main() {
	count := flag.Int("count", 200, "Number of generated books on top of the fixed demo records")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("BOOKSHOP_CONFIG"))
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer store.Close()

	records := append(demoRecords(), generateBooks(*count)...)
	for i, rec := range records {
		if err := store.Catalog.Upsert(ctx, rec); err != nil {
			logger.Fatal().Err(err).Str("code", rec.Code).Msg("failed to upsert record")
		}
		if (i+1)%100 == 0 {
			logger.Info().Msgf("Upserted %d/%d records", i+1, len(records))
		}
	}

	for _, kind := range catalog.Kinds {
		recs, err := store.Catalog.List(ctx, kind)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to count records")
		}
		logger.Info().Str("kind", string(kind)).Int("total", len(recs)).Msg("catalog seeded")
	}
}

// demoRecords covers the interesting reconciliation cases: a book without
// an image, one with an image, and items sharing the code space.
func demoRecords() []catalog.Record {
	return []catalog.Record{
		{Code: "A621", Kind: catalog.KindBook, Title: "Dune", PriceCents: 1299},
		{Code: "A622", Kind: catalog.KindBook, Title: "Emma", Author: "Jane Austen", ImageURL: "https://example.com/covers/A622.jpg", PriceCents: 899},
		{Code: "A623", Kind: catalog.KindBook, Title: "Neuromancer", ISBN: "9780441569595", PriceCents: 1099},
		{Code: "M10", Kind: catalog.KindItem, Title: "Canvas tote", Category: "bags", PriceCents: 1500},
		{Code: "M11", Kind: catalog.KindItem, Title: "Bookmark set", Category: "stationery", PriceCents: 450},
	}
}

func generateBooks(count int) []catalog.Record {
	publishers := []string{"Penguin", "HarperCollins", "Oxford", "Cambridge", "MIT Press", "Springer", "Wiley", "Elsevier"}

	out := make([]catalog.Record, 0, count)
	for i := 0; i < count; i++ {
		rec := catalog.Record{
			Code:          fmt.Sprintf("B%d", 1000+i),
			Kind:          catalog.KindBook,
			Title:         fmt.Sprintf("Book Title %d - %s", i+1, getRandomWord()),
			PublishedYear: 1950 + rand.Intn(75),
			PriceCents:    int64(500 + rand.Intn(3000)),
		}
		// Leave roughly half without metadata so lookups have work to do.
		if rand.Intn(2) == 0 {
			rec.Publisher = publishers[rand.Intn(len(publishers))]
			rec.PageCount = 100 + rand.Intn(800)
		}
		out = append(out, rec)
	}
	return out
}

func getRandomWord() string {
	words := []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
	return words[rand.Intn(len(words))]
}
