package cli

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/apiclient"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/router"
	"fintrack/internal/session"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/store"
)

// App is the fully wired client: one session, one HTTP client, the router
// and a store per resource.
type App struct {
	Config *config.Config
	Logger *log.Logger

	Session *session.Session
	Client  *apiclient.Client
	API     *api.API
	Router  *router.Router

	Auth         *store.AuthStore
	Accounts     *store.AccountStore
	Categories   *store.CategoryStore
	Transactions *store.TransactionStore
	Dashboard    *store.DashboardStore

	// Events is nil unless AMQP_URL is set.
	Events *amqp.Client

	cleanup []func() error
}

// Options override parts of the wiring, mostly for tests.
type Options struct {
	Persister session.Persister
	Client    apiclient.Options
}

// Bootstrap opens the session from the configured backend and wires the
// client, router and stores around it.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	app := &App{Config: cfg, Logger: logger}

	persister := opts.Persister
	if persister == nil {
		bcfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return nil, err
		}
		res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
		if err != nil {
			return nil, err
		}
		persister = res.Persister
		app.cleanup = append(app.cleanup, res.Cleanup)
	}

	sess, err := session.Open(ctx, persister, logger)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("open session: %w", err)
	}
	app.Session = sess

	copts := opts.Client
	if copts.BaseURL == "" {
		copts.BaseURL = cfg.APIBaseURL
	}
	if copts.Timeout == 0 {
		copts.Timeout = cfg.RequestTimeout
	}
	if copts.Logger == nil {
		copts.Logger = logger
	}
	copts.CoalesceRefresh = cfg.RefreshCoalesce
	app.Client = apiclient.New(sess, copts)
	app.API = api.New(app.Client)

	storeOpts := []store.Option{store.WithLogger(logger)}
	if cfg.AMQPURL != "" {
		app.Events = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		if err := app.Events.Connect(ctx, 2); err != nil {
			// The circuit breaker keeps later publishes cheap while the broker is down.
			logger.WarnContext(ctx, "AMQP unavailable, change events will be dropped", log.FieldError, err)
		}
		app.cleanup = append(app.cleanup, app.Events.Close)
		storeOpts = append(storeOpts, store.WithPublisher(app.Events))
	}

	app.Auth = store.NewAuthStore(app.API.Auth, sess, storeOpts...)
	app.Accounts = store.NewAccountStore(app.API.Accounts, storeOpts...)
	app.Categories = store.NewCategoryStore(app.API.Categories, storeOpts...)
	app.Transactions = store.NewTransactionStore(app.API.Transactions, storeOpts...)
	app.Dashboard = store.NewDashboardStore(app.API.Dashboard, storeOpts...)

	app.Router = router.New(sess, logger)
	app.Client.SetNavigator(app.Router)

	return app, nil
}

// ExportSink picks the export destination: a GCS bucket when one is given
// (or configured), otherwise a local directory.
func (a *App) ExportSink(ctx context.Context, dir, bucket string) (export.Sink, error) {
	if bucket == "" {
		bucket = a.Config.ExportGCSBucket
	}
	if bucket != "" {
		sink, err := export.NewGCSSink(ctx, bucket, a.Config.ExportGCSPrefix)
		if err != nil {
			return nil, err
		}
		a.cleanup = append(a.cleanup, sink.Close)
		return sink, nil
	}
	if dir == "" {
		dir = a.Config.ExportDir
	}
	return export.FileSink{Dir: dir}, nil
}

var ErrSheetsNotConfigured = errors.New("sheets export is not configured (set GOOGLE_SPREADSHEET_ID)")

// SheetsExporter builds the Google Sheets exporter from configuration.
func (a *App) SheetsExporter(ctx context.Context) (sheets.TransactionExporter, error) {
	if !a.Config.SheetsEnabled() {
		return nil, ErrSheetsNotConfigured
	}
	return gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      a.Config.GoogleSpreadsheetID,
		SheetName:          a.Config.GoogleSheetName,
		ServiceAccountFile: a.Config.GoogleServiceAccountFile,
		ServiceAccountJSON: a.Config.GoogleServiceAccountJSON,
	}, a.Logger)
}

// Close releases everything Bootstrap and the sink helpers opened, last
// opened first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanup = nil
	return errors.Join(errs...)
}
