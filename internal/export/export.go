// Package export delivers transaction downloads to a destination: a local
// directory or a Cloud Storage bucket.
package export

import (
	"context"
	"fmt"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Sink stores a downloaded file and reports where it went.
type Sink interface {
	Write(ctx context.Context, f api.File) (location string, err error)
}

// Downloader fetches an export from the backend. The transaction store
// satisfies it.
type Downloader interface {
	Export(ctx context.Context, format api.ExportFormat, f core.ExportFilter) (api.File, error)
}

// Run downloads the transactions in format and hands the file to sink.
func Run(ctx context.Context, d Downloader, format api.ExportFormat, filter core.ExportFilter, sink Sink, logger *log.Logger) (string, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentExport)

	if err := filter.Validate(); err != nil {
		return "", err
	}
	file, err := d.Export(ctx, format, filter)
	if err != nil {
		return "", fmt.Errorf("download %s export: %w", format, err)
	}
	if file.Name == "" {
		file.Name = api.DefaultExportName(format, filter)
	}

	location, err := sink.Write(ctx, file)
	if err != nil {
		return "", err
	}
	logger.InfoContext(ctx, "Export written",
		log.FieldOperation, log.OpExport,
		log.FieldTarget, location,
		log.FieldBytes, len(file.Data))
	return location, nil
}
