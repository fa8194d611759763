// internal/services/recalculation_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/jewelry-backend/internal/config"
	"github.com/javajoker/jewelry-backend/internal/models"
	"github.com/javajoker/jewelry-backend/internal/pricing"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

// Display limits of the summary. Counts always reflect every product.
const (
	MaxReportedFailures = 20
	MaxReportedChanges  = 50
)

const priceHistoryReasonRecalculation = "recalculation"

var ErrCatalogUnavailable = errors.New("catalog unavailable")

type RecalculateOptions struct {
	DryRun      bool
	TriggeredBy *uuid.UUID
	IPAddress   string
	UserAgent   string
}

type PriceChange struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	OldPrice  float64 `json:"oldPrice"`
	NewPrice  float64 `json:"newPrice"`
	Diff      float64 `json:"diff"`
}

type FailedProduct struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Error     string `json:"error"`
}

// RecalculationSummary is the response of a recalculation run. Its field
// names and list limits are relied on by the admin UI and the CLI.
type RecalculationSummary struct {
	DryRun         bool            `json:"dryRun"`
	Processed      int             `json:"processed"`
	Failed         int             `json:"failed"`
	FailedProducts []FailedProduct `json:"failedProducts"`
	PricesChanged  int             `json:"pricesChanged"`
	PriceIncreases int             `json:"priceIncreases"`
	PriceDecreases int             `json:"priceDecreases"`
	TotalDiff      float64         `json:"totalDiff"`
	Changes        []PriceChange   `json:"changes"`
	RunID          string          `json:"runId,omitempty"`
	ReportKey      string          `json:"reportKey,omitempty"`
}

// RecalculationReport is the untruncated result of a run, used for exports
// and the archived copy of apply runs.
type RecalculationReport struct {
	RunID          string          `json:"runId,omitempty"`
	DryRun         bool            `json:"dryRun"`
	Completed      bool            `json:"completed"`
	StartedAt      time.Time       `json:"startedAt"`
	FinishedAt     time.Time       `json:"finishedAt"`
	Processed      int             `json:"processed"`
	Failed         int             `json:"failed"`
	PricesChanged  int             `json:"pricesChanged"`
	PriceIncreases int             `json:"priceIncreases"`
	PriceDecreases int             `json:"priceDecreases"`
	TotalDiff      float64         `json:"totalDiff"`
	Changes        []PriceChange   `json:"changes"`
	Failures       []FailedProduct `json:"failedProducts"`
	ReportKey      string          `json:"reportKey,omitempty"`

	totalDiff decimal.Decimal
}

func (r *RecalculationReport) Summary() *RecalculationSummary {
	return &RecalculationSummary{
		DryRun:         r.DryRun,
		Processed:      r.Processed,
		Failed:         r.Failed,
		FailedProducts: truncate(r.Failures, MaxReportedFailures),
		PricesChanged:  r.PricesChanged,
		PriceIncreases: r.PriceIncreases,
		PriceDecreases: r.PriceDecreases,
		TotalDiff:      r.TotalDiff,
		Changes:        truncate(r.Changes, MaxReportedChanges),
		RunID:          r.RunID,
		ReportKey:      r.ReportKey,
	}
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

type outcomeKind int

const (
	outcomeUnchanged outcomeKind = iota
	outcomeChanged
	outcomeFailed
)

// productOutcome is the result of pricing one product. Failures are values
// so that one bad product never stops the run.
type productOutcome struct {
	kind    outcomeKind
	change  PriceChange
	failure FailedProduct
	// update is set whenever the stored prices differ from the computed
	// ones, including a calculated price drift hidden behind an equal final
	// price.
	update        *PriceUpdate
	oldCalculated float64
}

func (r *RecalculationReport) add(o productOutcome) {
	switch o.kind {
	case outcomeFailed:
		r.Failed++
		r.Failures = append(r.Failures, o.failure)
	case outcomeChanged:
		r.Processed++
		r.PricesChanged++
		if o.change.Diff > 0 {
			r.PriceIncreases++
		} else {
			r.PriceDecreases++
		}
		r.totalDiff = r.totalDiff.Add(decimal.NewFromFloat(o.change.Diff))
		r.TotalDiff = pricing.RoundPrice(r.totalDiff.InexactFloat64())
		r.Changes = append(r.Changes, o.change)
	default:
		r.Processed++
	}
}

// PriceInvalidator drops cached storefront prices.
type PriceInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...uuid.UUID) error
}

// ReportArchiver stores the full report of an apply run.
type ReportArchiver interface {
	ArchiveReport(ctx context.Context, name string, data []byte, contentType string) (*UploadResult, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

type RecalculationService struct {
	store      CatalogStore
	prices     PriceInvalidator
	archiver   ReportArchiver
	audit      AuditRecorder
	batchSize  int
	defaultGST float64
	now        func() time.Time
}

// NewRecalculationService wires the orchestrator. prices, archiver and audit
// are optional.
func NewRecalculationService(store CatalogStore, prices PriceInvalidator, archiver ReportArchiver, audit AuditRecorder, cfg config.PricingConfig) *RecalculationService {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	defaultGST := cfg.DefaultGSTPercentage
	if defaultGST <= 0 {
		defaultGST = pricing.DefaultGSTPercentage
	}
	return &RecalculationService{
		store:      store,
		prices:     prices,
		archiver:   archiver,
		audit:      audit,
		batchSize:  batchSize,
		defaultGST: defaultGST,
		now:        time.Now,
	}
}

// RecalculateAll re-prices the whole catalog against current material rates.
// A dry run performs no writes at all. In apply mode each batch is written
// with one bulk update; a failed write or a cancelled context stops the run
// and returns the summary so far together with the error. Earlier batches
// stay written.
func (s *RecalculationService) RecalculateAll(ctx context.Context, opts RecalculateOptions) (*RecalculationSummary, error) {
	report, err := s.run(ctx, opts)
	if report == nil {
		return nil, err
	}
	return report.Summary(), err
}

// Preview runs a dry run and returns the untruncated report.
func (s *RecalculationService) Preview(ctx context.Context) (*RecalculationReport, error) {
	return s.run(ctx, RecalculateOptions{DryRun: true})
}

func (s *RecalculationService) ListRuns(ctx context.Context, params utils.PaginationParams) ([]models.RecalculationRun, int64, error) {
	return s.store.ListRecalculationRuns(ctx, params.Limit, (params.Page-1)*params.Limit)
}

func (s *RecalculationService) run(ctx context.Context, opts RecalculateOptions) (*RecalculationReport, error) {
	report := &RecalculationReport{
		DryRun:    opts.DryRun,
		StartedAt: s.now(),
		Changes:   []PriceChange{},
		Failures:  []FailedProduct{},
	}

	// One snapshot of materials and products for the whole run.
	metals, err := s.store.FindActiveMetals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	gemstones, err := s.store.FindActiveGemstones(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	products, err := s.store.FindAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	snapshot := pricing.NewCatalogSnapshot(metals, gemstones)

	var runID uuid.UUID
	if !opts.DryRun {
		runID = uuid.New()
		report.RunID = runID.String()
	}

	log := logrus.WithFields(logrus.Fields{
		"dry_run":    opts.DryRun,
		"run_id":     report.RunID,
		"products":   len(products),
		"metals":     len(metals),
		"gemstones":  len(gemstones),
		"batch_size": s.batchSize,
	})
	log.Info("Price recalculation started")

	var applied []uuid.UUID
	var runErr error

	for start := 0; start < len(products); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		end := start + s.batchSize
		if end > len(products) {
			end = len(products)
		}

		var updates []PriceUpdate
		var history []models.PriceHistory
		for i := start; i < end; i++ {
			product := &products[i]
			outcome := s.priceProduct(snapshot, product)
			report.add(outcome)

			if outcome.kind == outcomeFailed {
				log.WithFields(logrus.Fields{
					"product_id": outcome.failure.ProductID,
					"error":      outcome.failure.Error,
				}).Warn("Product could not be priced")
				continue
			}
			if opts.DryRun || outcome.update == nil {
				continue
			}

			updates = append(updates, *outcome.update)
			// Calculated-only drift is rewritten without a history row.
			if outcome.kind != outcomeChanged {
				continue
			}
			history = append(history, models.PriceHistory{
				ProductID:          product.ID,
				RunID:              &runID,
				OldCalculatedPrice: outcome.oldCalculated,
				NewCalculatedPrice: outcome.update.CalculatedPrice,
				OldFinalPrice:      product.FinalPrice,
				NewFinalPrice:      outcome.update.FinalPrice,
				Diff:               outcome.change.Diff,
				Reason:             priceHistoryReasonRecalculation,
			})
		}

		if len(updates) > 0 {
			if err := s.store.BulkUpdatePrices(ctx, updates, history); err != nil {
				runErr = fmt.Errorf("batch %d-%d: %w", start, end, err)
				break
			}
			for _, u := range updates {
				applied = append(applied, u.ProductID)
			}
		}

		log.WithFields(logrus.Fields{
			"batch_start": start,
			"batch_end":   end,
			"written":     len(updates),
		}).Debug("Batch processed")
	}

	report.Completed = runErr == nil
	report.FinishedAt = s.now()

	if !opts.DryRun {
		s.recordRun(context.WithoutCancel(ctx), report, opts, runID, applied)
	}

	entry := log.WithFields(logrus.Fields{
		"processed":       report.Processed,
		"failed":          report.Failed,
		"prices_changed":  report.PricesChanged,
		"price_increases": report.PriceIncreases,
		"price_decreases": report.PriceDecreases,
		"total_diff":      report.TotalDiff,
		"duration_ms":     report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	})
	if runErr != nil {
		entry.WithError(runErr).Error("Price recalculation stopped early")
		return report, runErr
	}
	entry.Info("Price recalculation finished")
	return report, nil
}

func (s *RecalculationService) priceProduct(snapshot pricing.CatalogSnapshot, product *models.Product) productOutcome {
	if !product.HasComposition() {
		return productOutcome{kind: outcomeUnchanged}
	}

	metals, gemstones, err := snapshot.Resolve(product)
	if err != nil {
		return failedOutcome(product, err.Error())
	}

	breakdown := pricing.Calculate(pricing.PriceInput{
		MetalEntries:      metals,
		GemstoneEntries:   gemstones,
		AdditionalCharges: product.AdditionalCharges,
		GSTPercentage:     pricing.GSTOrDefault(product.GSTPercentage, s.defaultGST),
		Discount:          product.Discount,
	})
	if !breakdown.Valid() {
		return failedOutcome(product, "computed price is not a finite number")
	}

	oldFinal := pricing.RoundPrice(product.FinalPrice)
	oldCalculated := pricing.RoundPrice(product.CalculatedPrice)
	outcome := productOutcome{kind: outcomeUnchanged, oldCalculated: product.CalculatedPrice}

	if breakdown.FinalPrice != oldFinal || breakdown.CalculatedPrice != oldCalculated {
		outcome.update = &PriceUpdate{
			ProductID:       product.ID,
			CalculatedPrice: breakdown.CalculatedPrice,
			FinalPrice:      breakdown.FinalPrice,
		}
	}

	if breakdown.FinalPrice != oldFinal {
		outcome.kind = outcomeChanged
		outcome.change = PriceChange{
			ProductID: product.ID.String(),
			Name:      product.Name,
			OldPrice:  oldFinal,
			NewPrice:  breakdown.FinalPrice,
			Diff:      pricing.RoundPrice(breakdown.FinalPrice - oldFinal),
		}
	}

	return outcome
}

func failedOutcome(product *models.Product, reason string) productOutcome {
	return productOutcome{
		kind: outcomeFailed,
		failure: FailedProduct{
			ProductID: product.ID.String(),
			Name:      product.Name,
			Error:     reason,
		},
	}
}

// recordRun does the apply-mode bookkeeping. Failures here are logged; the
// prices are already written.
func (s *RecalculationService) recordRun(ctx context.Context, report *RecalculationReport, opts RecalculateOptions, runID uuid.UUID, applied []uuid.UUID) {
	log := logrus.WithField("run_id", runID.String())

	if s.prices != nil && len(applied) > 0 {
		if err := s.prices.Invalidate(ctx, applied...); err != nil {
			log.WithError(err).Warn("Failed to invalidate cached prices")
		}
	}

	var checksum string
	if s.archiver != nil {
		data, err := json.MarshalIndent(report, "", "  ")
		if err == nil {
			name := fmt.Sprintf("%s-%s.json", report.StartedAt.UTC().Format("20060102T150405Z"), runID)
			result, archiveErr := s.archiver.ArchiveReport(ctx, name, data, "application/json")
			if archiveErr != nil {
				log.WithError(archiveErr).Warn("Failed to archive recalculation report")
			} else {
				report.ReportKey = result.Key
				checksum = utils.HashBytes(data)
			}
		}
	}

	status := models.RunStatusCompleted
	if !report.Completed {
		status = models.RunStatusPartial
	}

	run := &models.RecalculationRun{
		TriggeredBy:    opts.TriggeredBy,
		Status:         status,
		Processed:      report.Processed,
		Failed:         report.Failed,
		PricesChanged:  report.PricesChanged,
		PriceIncreases: report.PriceIncreases,
		PriceDecreases: report.PriceDecreases,
		TotalDiff:      report.TotalDiff,
		ReportKey:      report.ReportKey,
		ReportChecksum: checksum,
		StartedAt:      report.StartedAt,
		FinishedAt:     report.FinishedAt,
	}
	run.ID = runID
	if err := s.store.SaveRecalculationRun(ctx, run); err != nil {
		log.WithError(err).Warn("Failed to save recalculation run")
	}

	if s.audit != nil {
		entry := &models.AuditLog{
			UserID:       opts.TriggeredBy,
			Action:       "RECALCULATE_PRICES",
			ResourceType: "recalculation_run",
			ResourceID:   &runID,
			NewValues: models.JSONB{
				"status":          string(status),
				"processed":       report.Processed,
				"failed":          report.Failed,
				"prices_changed":  report.PricesChanged,
				"price_increases": report.PriceIncreases,
				"price_decreases": report.PriceDecreases,
				"total_diff":      report.TotalDiff,
			},
			IPAddress: opts.IPAddress,
			UserAgent: opts.UserAgent,
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			log.WithError(err).Warn("Failed to write audit log")
		}
	}
}
