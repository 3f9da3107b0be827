package http

import (
	"bytes"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/query"
	"ledger/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) exportRows(w http.ResponseWriter, r *http.Request) ([]core.ExportRow, bool) {
	a := actorFrom(r)
	rows, err := s.deps.Export.Rows(r.Context(), a, query.ParamsFromValues(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	log.FromContext(r.Context()).Info("Export generated", log.FieldOperation, log.OpExport, "rows", len(rows))
	return rows, true
}

// writeAttachment buffers the file so a failed render still yields a JSON error.
func (s *Server) writeAttachment(w http.ResponseWriter, r *http.Request, contentType, ext string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+core.ExportFilename(s.now(), ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.exportRows(w, r)
	if !ok {
		return
	}
	s.writeAttachment(w, r, "text/csv; charset=utf-8", "csv", func(buf *bytes.Buffer) error {
		return services.WriteCSV(buf, rows)
	})
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.exportRows(w, r)
	if !ok {
		return
	}
	s.writeAttachment(w, r, xlsxContentType, "xlsx", func(buf *bytes.Buffer) error {
		return services.WriteXLSX(buf, rows)
	})
}

// handleExportSheets takes its filter from the query string, like the downloads.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Export.PushToSheet(r.Context(), actorFrom(r), query.ParamsFromValues(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string]int{"rows": n}).Write(w)
}
