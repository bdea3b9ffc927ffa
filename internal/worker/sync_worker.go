package worker

import (
	"context"
	"fmt"
	"slices"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// DefaultWindowMonths is how far back a sync pass reads, counting the
// current month.
const DefaultWindowMonths = 2

// TransactionSource lists transactions from the backend.
type TransactionSource interface {
	List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
}

// SyncWorker mirrors backend transactions into a spreadsheet as change
// events arrive. Change events carry only an id, so each pass re-reads a
// recent window and relies on the exporter skipping rows it already holds.
type SyncWorker struct {
	source   TransactionSource
	exporter sheets.TransactionExporter
	months   int
	now      func() time.Time
	logger   *log.Logger
}

func NewSyncWorker(source TransactionSource, exporter sheets.TransactionExporter, months int, logger *log.Logger) *SyncWorker {
	if months < 1 {
		months = DefaultWindowMonths
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		source:   source,
		exporter: exporter,
		months:   months,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange processes one change event. Only transaction creations are
// mirrored; the sheet is append-only, so updates and removals are logged
// and acknowledged.
func (w *SyncWorker) HandleChange(ctx context.Context, ev core.ChangeEvent) error {
	if ev.Resource != core.ResourceTransaction {
		return nil
	}
	if ev.Op != core.OpCreated {
		w.logger.DebugContext(ctx, "Change not mirrored to sheet",
			log.FieldOperation, string(ev.Op),
			log.FieldEntityID, ev.ID)
		return nil
	}

	txs, res, err := w.sync(ctx)
	if err != nil {
		return fmt.Errorf("sync transaction %d: %w", ev.ID, err)
	}
	if ev.ID != 0 && !slices.ContainsFunc(txs, func(t core.Transaction) bool { return t.ID == ev.ID }) {
		w.logger.WarnContext(ctx, "Created transaction is outside the sync window",
			log.FieldEntityID, ev.ID,
			"window_months", w.months)
	}
	w.logger.InfoContext(ctx, "Synced transactions to sheet",
		log.FieldOperation, log.OpSync,
		log.FieldEntityID, ev.ID,
		"appended", res.Appended,
		"skipped", res.Skipped)
	return nil
}

// StartupSyncCheck mirrors whatever is missing from the window before any
// event is consumed, covering events missed while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) (sheets.ExportResult, error) {
	txs, res, err := w.sync(ctx)
	if err != nil {
		return res, fmt.Errorf("startup sync: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed",
		log.FieldOperation, log.OpSync,
		log.FieldCount, len(txs),
		"appended", res.Appended,
		"skipped", res.Skipped)
	return res, nil
}

func (w *SyncWorker) sync(ctx context.Context) ([]core.Transaction, sheets.ExportResult, error) {
	filter := w.window()
	txs, err := w.source.List(ctx, filter)
	if err != nil {
		return nil, sheets.ExportResult{}, fmt.Errorf("list transactions: %w", err)
	}
	res, err := w.exporter.Export(ctx, txs)
	if err != nil {
		return txs, res, fmt.Errorf("export to sheet: %w", err)
	}
	return txs, res, nil
}

func (w *SyncWorker) window() core.TransactionFilter {
	now := w.now()
	first := time.Date(now.Year(), now.Month()-time.Month(w.months-1), 1, 0, 0, 0, 0, time.Local)
	return core.TransactionFilter{
		StartDate: core.NewDate(first.Year(), int(first.Month()), 1),
		EndDate:   core.NewDate(now.Year(), int(now.Month()), now.Day()),
	}
}
