package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/diewo77/scanpos/httpx"
	"github.com/diewo77/scanpos/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Sales accepts from/to as YYYY-MM-DD or RFC 3339 and defaults to the last
// 30 days.
func (h *ReportHandler) Sales(w http.ResponseWriter, r *http.Request) {
	from, to := h.reports.DefaultRange()
	q := r.URL.Query()
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = parseReportDate(v); err != nil {
			badRequest(w, err)
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = parseReportDate(v); err != nil {
			badRequest(w, err)
			return
		}
	}
	if to.Before(from) {
		badRequest(w, fmt.Errorf("to must not be before from"))
		return
	}
	report, err := h.reports.Sales(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func parseReportDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), nil
}
