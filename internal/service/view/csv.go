package view

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"parceldesk/internal/domain/models"
)

// utf8BOM makes spreadsheet tools decode the export as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"tracking_number",
	"item_name",
	"recipient",
	"sender",
	"status",
	"cost_price",
	"quantity",
	"created_at",
}

// ExportCSV serializes the full record set as a CSV blob: UTF-8 with BOM,
// header row, one row per record. Fields containing delimiters or quotes are
// quoted with internal quotes doubled (RFC 4180).
func ExportCSV(pkgs []models.Package) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, pkg := range pkgs {
		row := CSVRow(pkg)
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// CSVRow renders one record as export columns. Shared with the spreadsheet
// export sink so both artifacts stay column-compatible.
func CSVRow(pkg models.Package) []string {
	return []string{
		pkg.TrackingNumber,
		pkg.ItemName,
		pkg.Recipient,
		pkg.Sender,
		string(pkg.Status),
		strconv.FormatFloat(pkg.CostPrice, 'f', -1, 64),
		strconv.Itoa(pkg.Quantity),
		pkg.CreatedAt.Format(time.RFC3339),
	}
}
