package http

import (
	"bytes"
	"mime"
	"net/http"
	"strings"

	"giftbook/internal/core"
	applog "giftbook/internal/log"
	"giftbook/internal/metrics"
	"giftbook/internal/render"
	"giftbook/internal/search"
	"giftbook/internal/services"
)

const exportDateLayout = "2006年1月2日"

// exportRecords loads the ledger in export order, narrowed by any search
// parameters on the request.
func (s *Server) exportRecords(r *http.Request) ([]core.Record, error) {
	recs, err := s.filteredRecords(r)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, services.ErrNothingToExport
	}
	return recs, nil
}

func (s *Server) filteredRecords(r *http.Request) ([]core.Record, error) {
	q := r.URL.Query()
	c, err := parseCriteria(q)
	if err != nil {
		return nil, err
	}
	recs, err := s.ledger.List(r.Context(), q.Get("sort") == "name")
	if err != nil {
		return nil, err
	}
	if c == (search.Criteria{}) {
		return recs, nil
	}
	return search.Filter(recs, c), nil
}

func (s *Server) eventName(r *http.Request) string {
	if name := sanitizeInput(r.URL.Query().Get("event")); name != "" {
		return name
	}
	if s.bookTitle != "" {
		return s.bookTitle
	}
	return services.DefaultEventName
}

func setAttachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

// handleExportCSV downloads the ledger as CSV; stats=true appends the
// summary block.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	recs, err := s.exportRecords(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	e := s.exports.Prepare(recs, queryBool(r.URL.Query(), "stats"))
	if err := s.exports.WriteCSV(&buf, e); err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	setAttachment(w, services.FileName(s.eventName(r), "礼金记录", "csv", s.now()))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportStatisticsCSV(w http.ResponseWriter, r *http.Request) {
	recs, err := s.exportRecords(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rows, err := s.exports.StatisticsReport(recs)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.exports.WriteCSV(&buf, services.Export{Header: rows[0], Rows: rows[1:]}); err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	setAttachment(w, services.FileName(s.eventName(r), "统计报表", "csv", s.now()))
	_, _ = buf.WriteTo(w)
}

// handleExportSheets replaces the spreadsheet copy of the ledger.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		respondMessage(w, http.StatusServiceUnavailable, ErrMsgSheetsDisabled)
		return
	}
	recs, err := s.exportRecords(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.exports.ExportToSheets(r.Context(), s.sheets, recs); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]int{"rows": len(recs)})
}

// handlePrint renders the printable gift book. theme and title override
// the configured defaults; search parameters narrow the printed records.
func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := s.filteredRecords(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	theme := s.theme
	if name := strings.TrimSpace(q.Get("theme")); name != "" {
		theme = render.ThemeByName(name)
	}
	title := sanitizeInput(q.Get("title"))
	if title == "" {
		title = s.bookTitle
	}

	book := render.Layout(recs, render.Options{
		Title:      title,
		ExportDate: s.now().In(s.views.loc).Format(exportDateLayout),
		Theme:      theme,
	})

	var buf bytes.Buffer
	if err := render.RenderHTML(&buf, book); err != nil {
		respondError(w, r, err)
		return
	}
	metrics.Exports.WithLabelValues(metrics.FormatPrint).Inc()
	applog.FromContext(r.Context()).WithComponent(applog.ComponentPrint).
		InfoContext(r.Context(), "Gift book rendered", "records", len(recs), "pages", len(book.Pages), "theme", theme.Name)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
