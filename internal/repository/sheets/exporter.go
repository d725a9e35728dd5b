package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"parceldesk/internal/config"
	"parceldesk/internal/domain/models"
	"parceldesk/internal/service/view"
)

// Exporter mirrors the record set into a Google Sheet, an optional export
// target next to the CSV download.
type Exporter interface {
	AppendRecords(ctx context.Context, pkgs []models.Package) error
}

// GoogleSheetExporter implements Exporter using the official Sheets API.
type GoogleSheetExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	exportRange   string
	logger        *zap.Logger
}

// NewGoogleSheetExporter builds a Sheets-backed exporter instance.
func NewGoogleSheetExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetExporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		exportRange:   cfg.ExportRange,
		logger:        logger,
	}, nil
}

// AppendRecords appends one row per record to the configured range, using
// the same columns as the CSV export.
func (e *GoogleSheetExporter) AppendRecords(ctx context.Context, pkgs []models.Package) error {
	if len(pkgs) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(pkgs))
	for _, pkg := range pkgs {
		row := view.CSVRow(pkg)
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		values = append(values, cells)
	}

	payload := &sheetsapi.ValueRange{Values: values}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, e.exportRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append records into range %s: %w", e.exportRange, err)
	}

	e.logger.Debug("records appended to sheet",
		zap.String("range", e.exportRange),
		zap.Int("rows", len(values)))
	return nil
}
