package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"ledger/internal/core"
	"ledger/internal/query"
)

const exportSheet = "Ledger"

type ExportService struct {
	store TransactionStore
	sheet RowAppender
}

// NewExportService builds the service. sheet may be nil when no spreadsheet
// is configured.
func NewExportService(store TransactionStore, sheet RowAppender) *ExportService {
	return &ExportService{store: store, sheet: sheet}
}

// Rows projects every visible match, in listing order, with no row cap.
func (s *ExportService) Rows(ctx context.Context, a core.Actor, p query.Params) ([]core.ExportRow, error) {
	txs, err := s.store.FindTransactions(ctx, query.ScopeTransactions(p.Filter(), a), 0)
	if err != nil {
		return nil, fmt.Errorf("export rows: %w", err)
	}
	rows := make([]core.ExportRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, core.ExportRowOf(t))
	}
	return rows, nil
}

func records(rows []core.ExportRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, core.ExportHeader)
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}

func WriteCSV(w io.Writer, rows []core.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records(rows)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func WriteXLSX(w io.Writer, rows []core.ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	for i, rec := range records(rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(rec))
		for j, v := range rec {
			values[j] = v
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "F", "G", 30); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// PushToSheet appends the export, header first, to the configured
// spreadsheet and returns the number of data rows sent.
func (s *ExportService) PushToSheet(ctx context.Context, a core.Actor, p query.Params) (int, error) {
	if s.sheet == nil {
		return 0, fmt.Errorf("%w: spreadsheet export not configured", core.ErrNotFound)
	}
	rows, err := s.Rows(ctx, a, p)
	if err != nil {
		return 0, err
	}
	if err := s.sheet.AppendRows(ctx, records(rows)); err != nil {
		return 0, fmt.Errorf("push to sheet: %w", err)
	}
	slog.InfoContext(ctx, "Export pushed to spreadsheet", "org_id", a.OrgID, "rows", len(rows))
	return len(rows), nil
}
