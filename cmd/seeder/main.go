// Command seeder loads catalog items and locality coordinates from a
// JSON fixture file into the key-value store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/nivaas-cloud/propdex/internal/config"
	dbRedis "github.com/nivaas-cloud/propdex/internal/db/redis"
	logpkg "github.com/nivaas-cloud/propdex/internal/logger"
	catalogrepo "github.com/nivaas-cloud/propdex/internal/repository/catalog"
	geocoderepo "github.com/nivaas-cloud/propdex/internal/repository/geocode"
)

type fixture struct {
	Items      []json.RawMessage `json:"items"`
	Localities []locality        `json:"localities"`
}

type locality struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

func main() {
	file := flag.String("f", "seed/catalog.json", "path to the seed fixture file")
	flag.Parse()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("Failed to read fixture", zap.String("file", *file), zap.Error(err))
	}

	var fix fixture
	if err := json.Unmarshal(data, &fix); err != nil {
		logger.Fatal("Failed to parse fixture", zap.String("file", *file), zap.Error(err))
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	catalog := catalogrepo.New(store, logger).WithKeyPrefix(cfg.Storage.KeyPrefix)
	geo := geocoderepo.New(store).WithKeyPrefix(cfg.Storage.KeyPrefix)

	seeded := 0
	for _, doc := range fix.Items {
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(doc, &head); err != nil || head.ID == "" {
			logger.Warn("Skipping item without id", zap.Error(err))
			continue
		}
		if err := catalog.Seed(ctx, doc, head.ID); err != nil {
			logger.Fatal("Failed to seed item", zap.String("id", head.ID), zap.Error(err))
		}
		seeded++
	}

	for _, loc := range fix.Localities {
		if err := geo.Seed(ctx, loc.Name, loc.Lat, loc.Lon); err != nil {
			logger.Fatal("Failed to seed locality", zap.String("name", loc.Name), zap.Error(err))
		}
	}

	logger.Info("Seeding complete",
		zap.Int("items", seeded),
		zap.Int("localities", len(fix.Localities)),
	)
}
