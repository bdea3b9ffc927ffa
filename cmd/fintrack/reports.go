package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/store"
	"fintrack/internal/worker"
)

func runDashboard(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("dashboard", e.err)
	now := time.Now()
	year := fs.Int("year", now.Year(), "year of the monthly summary")
	month := fs.Int("month", int(now.Month()), "month of the monthly summary")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := core.YearMonth(*year, *month); err != nil {
		return err
	}

	a := e.app
	if err := store.LoadOverview(ctx, a.Dashboard, a.Accounts, a.Transactions, *year, *month); err != nil {
		// Whatever loaded is still shown; the summary card reports its own error.
		fmt.Fprintf(e.err, "warning: %s\n", describe(err))
	}

	if d := a.Dashboard.Dashboard(); d != nil {
		fmt.Fprintf(e.out, "Total balance:   %s\n", core.FormatAmount(d.TotalBalance))
		fmt.Fprintf(e.out, "Monthly income:  %s\n", core.FormatAmount(d.MonthlyIncome))
		fmt.Fprintf(e.out, "Monthly expense: %s\n", core.FormatAmount(d.MonthlyExpense))
		if len(d.RecentTransactions) > 0 {
			fmt.Fprintln(e.out, "\nRecent transactions:")
			printTransactions(e.out, d.RecentTransactions)
		}
	}
	if msg := a.Accounts.SummaryError(); msg != "" {
		fmt.Fprintf(e.out, "\nAccounts: %s\n", msg)
	} else if len(a.Accounts.Accounts()) > 0 {
		fmt.Fprintln(e.out, "\nAccounts:")
		printAccounts(e.out, a.Accounts.Accounts())
	}
	if sum := a.Transactions.MonthlySummary(); sum != nil {
		fmt.Fprintln(e.out)
		printMonthlySummary(e.out, *sum)
	}
	return nil
}

func runExport(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("export", e.err)
	formatName := fs.String("format", "csv", "csv or xlsx")
	var start, end dateFlag
	fs.Var(&start, "start", "from date (YYYY-MM-DD)")
	fs.Var(&end, "end", "to date (YYYY-MM-DD)")
	out := fs.String("out", "", "output directory (default EXPORT_DIR)")
	bucket := fs.String("gcs-bucket", "", "upload to this Cloud Storage bucket instead")
	toSheet := fs.Bool("sheet", false, "also append the transactions to the configured Google Sheet")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	format, err := api.ParseExportFormat(*formatName)
	if err != nil {
		return err
	}
	filter := core.ExportFilter{StartDate: start.Date, EndDate: end.Date}

	sink, err := e.app.ExportSink(ctx, *out, *bucket)
	if err != nil {
		return err
	}
	location, err := export.Run(ctx, e.app.Transactions, format, filter, sink, e.app.Logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Exported transactions to %s\n", location)

	if !*toSheet {
		return nil
	}
	exporter, err := e.app.SheetsExporter(ctx)
	if err != nil {
		return err
	}
	if err := e.app.Transactions.Fetch(ctx, core.TransactionFilter{StartDate: filter.StartDate, EndDate: filter.EndDate}); err != nil {
		return err
	}
	res, err := exporter.Export(ctx, e.app.Transactions.Transactions())
	if err != nil {
		return fmt.Errorf("sheets export: %w", err)
	}
	fmt.Fprintf(e.out, "Appended %d rows to %v (%d already present)\n", res.Appended, res.Sheets, res.Skipped)
	return nil
}

var errNoBroker = errors.New("change events are not configured (set AMQP_URL)")

func runEvents(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("events", e.err)
	queue := fs.String("queue", "", "durable queue to consume (default: a private queue)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if e.app.Events == nil {
		return errNoBroker
	}
	err := e.app.Events.Consume(ctx, *queue, func(ev core.ChangeEvent) error {
		id := ""
		if ev.ID != 0 {
			id = fmt.Sprintf(" #%d", ev.ID)
		}
		fmt.Fprintf(e.out, "%s %s %s%s\n", ev.At.Local().Format(time.TimeOnly), ev.Resource, ev.Op, id)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runSync(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("sync", e.err)
	queue := fs.String("queue", "fintrack.sheets-sync", "durable queue to consume")
	months := fs.Int("months", worker.DefaultWindowMonths, "months of transactions each pass reads")
	once := fs.Bool("once", false, "run the catch-up pass and exit")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	exporter, err := e.app.SheetsExporter(ctx)
	if err != nil {
		return err
	}
	w := worker.NewSyncWorker(e.app.API.Transactions, exporter, *months, e.app.Logger)

	res, err := w.StartupSyncCheck(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Appended %d rows to %v (%d already present)\n", res.Appended, res.Sheets, res.Skipped)
	if *once {
		return nil
	}
	if e.app.Events == nil {
		return errNoBroker
	}
	err = e.app.Events.Consume(ctx, *queue, func(ev core.ChangeEvent) error {
		return w.HandleChange(ctx, ev)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
