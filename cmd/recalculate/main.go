// cmd/recalculate/main.go
//
// recalculate re-prices the whole catalog from the command line. It defaults
// to a dry run; pass -dry-run=false to write prices.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/jewelry-backend/internal/cache"
	"github.com/javajoker/jewelry-backend/internal/config"
	"github.com/javajoker/jewelry-backend/internal/database"
	"github.com/javajoker/jewelry-backend/internal/logger"
	"github.com/javajoker/jewelry-backend/internal/services"
)

func main() {
	dryRun := flag.Bool("dry-run", true, "compute new prices without writing them")
	xlsxPath := flag.String("xlsx", "", "also write the full report as an XLSX workbook to this path (dry runs only)")
	timeout := flag.Duration("timeout", 30*time.Minute, "abort the run after this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger.Init(cfg)
	// Keep stdout for the JSON summary.
	logrus.SetOutput(os.Stderr)

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	cacheClient, err := cache.Open(cfg.Redis)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to cache")
	}

	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}

	store := services.NewGormCatalogStore(db)
	prices := services.NewPriceCache(cacheClient, time.Duration(cfg.Redis.PriceTTL)*time.Second)
	recalc := services.NewRecalculationService(store, prices, storageService, services.NewAuditService(db), cfg.Pricing)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var summary *services.RecalculationSummary
	if *dryRun && *xlsxPath != "" {
		report, err := recalc.Preview(ctx)
		if err != nil {
			logrus.WithError(err).Fatal("Recalculation preview failed")
		}
		data, err := services.ExportReportXLSX(report)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to build XLSX report")
		}
		if err := os.WriteFile(*xlsxPath, data, 0o644); err != nil {
			logrus.WithError(err).Fatal("Failed to write XLSX report")
		}
		summary = report.Summary()
	} else {
		summary, err = recalc.RecalculateAll(ctx, services.RecalculateOptions{DryRun: *dryRun, UserAgent: "cli"})
		if err != nil && summary == nil {
			logrus.WithError(err).Fatal("Recalculation failed")
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if encErr := encoder.Encode(summary); encErr != nil {
		logrus.WithError(encErr).Fatal("Failed to write summary")
	}

	if err != nil {
		logrus.WithError(err).Error("Recalculation stopped early")
		os.Exit(1)
	}
}
