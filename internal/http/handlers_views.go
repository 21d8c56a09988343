package http

import (
	"bytes"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// currentView converts one snapshot so the cards, bars and list agree.
func (s *Server) currentView(code string) summaryView {
	txs := s.tracker.Snapshot()
	rates := s.tracker.Rates()
	sum := core.Summarize(txs).In(code, rates)
	return newSummaryView(code, txs, sum, rates)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	data := pageData{
		Summary:              s.currentView(s.displayCurrencyFor(r)),
		IncomeCategories:     core.Categories(core.Income),
		ExpenseCategories:    core.Categories(core.Expense),
		DefaultQuickCategory: core.DefaultQuickIncomeCategory,
		HTMXURL:              s.htmxURL,
	}
	s.render(w, r, "index.html", data)
}

func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "summary", s.currentView(s.displayCurrencyFor(r)))
}

// render buffers the template so a failure midway still yields a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	code := s.displayCurrencyFor(r)
	NewHTMXResponse().BodyJSON(newSummaryJSON(code, s.tracker.SummaryIn(code))).Write(w)
}

func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	code := s.displayCurrencyFor(r)

	txs := s.tracker.Snapshot()
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		j := newTransactionJSON(tx)
		j.DisplayAmount = number(s.tracker.Convert(tx.Amount, code))
		out = append(out, j)
	}

	NewHTMXResponse().
		BodyJSON(map[string]interface{}{
			"currency":     code,
			"transactions": out,
		}).
		Write(w)
}

func (s *Server) handleAPIRates(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	NewHTMXResponse().BodyJSON(newRatesJSON(s.tracker.Rates())).Write(w)
}
