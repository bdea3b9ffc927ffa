package api

import (
	"context"
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

type TransactionAPI struct{ c Doer }

func (a *TransactionAPI) List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	return call[[]core.Transaction](ctx, a.c, http.MethodGet, "/transactions", f.Query(), nil)
}

func (a *TransactionAPI) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	return call[core.Transaction](ctx, a.c, http.MethodPost, "/transactions", nil, in)
}

func (a *TransactionAPI) Update(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error) {
	return call[core.Transaction](ctx, a.c, http.MethodPut, idPath("/transactions", id), nil, in)
}

func (a *TransactionAPI) Remove(ctx context.Context, id int64) error {
	return exec(ctx, a.c, http.MethodDelete, idPath("/transactions", id), nil)
}

func (a *TransactionAPI) MonthlySummary(ctx context.Context, year, month int) (core.MonthlySummary, error) {
	path := fmt.Sprintf("/transactions/summary/%d/%d", year, month)
	return call[core.MonthlySummary](ctx, a.c, http.MethodGet, path, nil, nil)
}

func (a *TransactionAPI) Daily(ctx context.Context, year, month int) ([]core.DailySummary, error) {
	path := fmt.Sprintf("/transactions/daily/%d/%d", year, month)
	return call[[]core.DailySummary](ctx, a.c, http.MethodGet, path, nil, nil)
}

// ExportFormat selects the download endpoint.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case FormatCSV, FormatXLSX:
		return ExportFormat(s), nil
	}
	return "", fmt.Errorf("unknown export format %q: must be csv or xlsx", s)
}

func (a *TransactionAPI) ExportCSV(ctx context.Context, f core.ExportFilter) (File, error) {
	return a.Export(ctx, FormatCSV, f)
}

func (a *TransactionAPI) ExportXLSX(ctx context.Context, f core.ExportFilter) (File, error) {
	return a.Export(ctx, FormatXLSX, f)
}

// Export downloads the transactions in the given format. A missing filename
// is derived from the format and date range.
func (a *TransactionAPI) Export(ctx context.Context, format ExportFormat, f core.ExportFilter) (File, error) {
	file, err := download(ctx, a.c, "/transactions/export/"+string(format), f.Query())
	if err != nil {
		return File{}, err
	}
	if file.Name == "" {
		file.Name = DefaultExportName(format, f)
	}
	return file, nil
}

func DefaultExportName(format ExportFormat, f core.ExportFilter) string {
	name := "transactions"
	if !f.StartDate.IsZero() {
		name += "-" + f.StartDate.String()
	}
	if !f.EndDate.IsZero() {
		name += "-" + f.EndDate.String()
	}
	return name + "." + string(format)
}
