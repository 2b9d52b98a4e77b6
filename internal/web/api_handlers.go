package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/visitlog/internal/kiosk"
	"github.com/evcraddock/visitlog/internal/report"
	"github.com/evcraddock/visitlog/internal/visit"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

func apiNotice(w http.ResponseWriter, n kiosk.Notice) {
	apiError(w, n.Message, statusFor(n))
}

type reportResponse struct {
	*report.Report
	Lines []string `json:"lines"`
}

// apiReport returns every aggregate for ?start=&end=.
func (s *Server) apiReport(w http.ResponseWriter, r *http.Request) {
	start, end := s.defaultRange(r)

	rep, n := s.svc.Report(r.Context(), start, end)
	if n.Failed() {
		apiNotice(w, n)
		return
	}
	apiJSON(w, reportResponse{Report: rep, Lines: rep.Daily.Summary.Lines()}, http.StatusOK)
}

// apiListRecords returns the raw records for ?start=&end=.
func (s *Server) apiListRecords(w http.ResponseWriter, r *http.Request) {
	start, end := s.defaultRange(r)

	records, n := s.svc.List(r.Context(), start, end)
	if n.Failed() {
		apiNotice(w, n)
		return
	}
	if records == nil {
		records = []*visit.Record{}
	}
	apiJSON(w, records, http.StatusOK)
}

// apiGetRecord returns one record in editable form.
func (s *Server) apiGetRecord(w http.ResponseWriter, r *http.Request) {
	form, n := s.svc.Fetch(r.Context(), chi.URLParam(r, "id"))
	if n.Failed() {
		apiNotice(w, n)
		return
	}
	apiJSON(w, form, http.StatusOK)
}

// apiDeleteRecord deletes one record without the confirmation step.
func (s *Server) apiDeleteRecord(w http.ResponseWriter, r *http.Request) {
	n := s.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if n.Failed() {
		apiNotice(w, n)
		return
	}
	apiJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}
