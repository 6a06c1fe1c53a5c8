// Package importer backfills a tenant's catalog from a platform product
// CSV export, for stores whose history predates API access.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storepulse/internal/domain"
)

// ProductWriter is satisfied by *store.Tenant.
type ProductWriter interface {
	UpsertProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// CSVImporter reads Shopify product CSV exports and upserts products keyed
// by handle.
type CSVImporter struct {
	reader *csv.Reader
	writer ProductWriter
	logger *zap.Logger
}

func NewCSVImporter(r io.Reader, w ProductWriter, logger *zap.Logger) *CSVImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{reader: csvr, writer: w, logger: logger}
}

type csvRow struct {
	Handle   string
	Title    string
	Type     string
	Price    decimal.Decimal
	HasPrice bool
	Stock    int
	Image    string
	Status   string
}

// Report counts what one Run did.
type Report struct {
	Imported int
	Skipped  int
}

// Run parses CSV rows and upserts one product per handle. Variant rows
// sharing a handle add to the stock of the first row.
func (i *CSVImporter) Run(ctx context.Context) (Report, error) {
	var report Report
	headers, err := i.reader.Read()
	if err != nil {
		return report, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["Handle"]; !ok {
		return report, fmt.Errorf("%w: not a product export, missing Handle column", domain.ErrInvalid)
	}

	var current *csvRow
	flush := func() error {
		if current == nil {
			return nil
		}
		saved, err := i.save(ctx, current)
		if err != nil {
			return err
		}
		if saved {
			report.Imported++
		} else {
			report.Skipped++
		}
		return nil
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}

		if current != nil && row.Handle == current.Handle {
			current.Stock += row.Stock
			if current.Image == "" {
				current.Image = row.Image
			}
			if !current.HasPrice && row.HasPrice {
				current.Price, current.HasPrice = row.Price, true
			}
			continue
		}

		if err := flush(); err != nil {
			return report, err
		}
		current = row
	}

	if err := flush(); err != nil {
		return report, err
	}
	return report, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) (bool, error) {
	if row.Title == "" || !row.HasPrice {
		i.logger.Warn("importer: skipping incomplete product", zap.String("handle", row.Handle))
		return false, nil
	}
	status := domain.StatusActive
	if row.Status != "" && row.Status != "active" {
		status = domain.StatusInactive
	}

	p := domain.Product{
		ExternalID: "handle:" + row.Handle,
		Name:       row.Title,
		Category:   row.Type,
		Price:      row.Price,
		Stock:      max(row.Stock, 0),
		Image:      row.Image,
		Status:     status,
	}
	if err := p.Validate(); err != nil {
		i.logger.Warn("importer: skipping invalid product", zap.String("handle", row.Handle), zap.Error(err))
		return false, nil
	}

	if _, err := i.writer.UpsertProduct(ctx, p); err != nil {
		return false, fmt.Errorf("upsert product %q: %w", row.Handle, err)
	}
	return true, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	handle := pick(record, index, "Handle")
	if handle == "" {
		return nil
	}

	row := &csvRow{
		Handle: handle,
		Title:  pick(record, index, "Title"),
		Type:   pick(record, index, "Type"),
		Image:  pick(record, index, "Image Src"),
		Status: strings.ToLower(pick(record, index, "Status")),
	}
	if price := pick(record, index, "Variant Price"); price != "" {
		if d, err := decimal.NewFromString(price); err == nil {
			row.Price, row.HasPrice = d, true
		}
	}
	if qty := pick(record, index, "Variant Inventory Qty"); qty != "" {
		row.Stock, _ = strconv.Atoi(qty)
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
