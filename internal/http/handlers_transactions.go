package http

import (
	"errors"
	"fmt"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Invalid transaction request body", log.FieldError, err)
		BadRequestError("Invalid request body", wantsJSON(r, p)).Write(w)
		return
	}

	tx, err := s.tracker.AddEntry(r.Context(), p.Draft())
	s.respondCreated(w, r, p, tx, err)
}

func (s *Server) handleQuickIncome(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Invalid quick income request body", log.FieldError, err)
		BadRequestError("Invalid request body", wantsJSON(r, p)).Write(w)
		return
	}

	tx, err := s.tracker.AddQuickIncome(r.Context(), p.QuickIncomeDraft())
	s.respondCreated(w, r, p, tx, err)
}

func (s *Server) respondCreated(w http.ResponseWriter, r *http.Request, p *RequestBodyParser, tx core.Transaction, err error) {
	asJSON := wantsJSON(r, p)

	if errors.Is(err, services.ErrNotLoaded) {
		s.notLoaded(w, r, asJSON)
		return
	}

	var fe core.FieldErrors
	if errors.As(err, &fe) {
		s.appMetrics.invalid.Add(1)
		s.logger.InfoContext(r.Context(), "Transaction rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldError, fe.Error())
		ValidationErrorResponse(fe, asJSON).Write(w)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to record transaction",
			log.FieldOperation, log.OpAdd,
			log.FieldError, err)
		InternalServerError("Error recording transaction", asJSON).Write(w)
		return
	}

	s.appMetrics.created.Add(1)

	if asJSON {
		NewHTMXResponse().
			Status(http.StatusCreated).
			Header("Location", "/api/transactions").
			BodyJSON(newTransactionJSON(tx)).
			Write(w)
		return
	}

	msg := fmt.Sprintf("Recorded %s: %s %s (%s)",
		tx.Kind, core.BaseCurrency, core.FormatAmount(tx.Amount), tx.Category)
	NewHTMXResponse().
		TriggerTransactionCreated(tx).
		TriggerLedgerChanged().
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Invalid delete request body", log.FieldError, err)
		BadRequestError("Invalid request body", wantsJSON(r, p)).Write(w)
		return
	}
	asJSON := wantsJSON(r, p)

	id := p.Get("id")
	if !validID(id) {
		BadRequestError("Missing or malformed transaction id", asJSON).Write(w)
		return
	}

	removed, err := s.tracker.Remove(r.Context(), id)
	if errors.Is(err, services.ErrNotLoaded) {
		s.notLoaded(w, r, asJSON)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to delete transaction",
			log.FieldOperation, log.OpRemove,
			log.FieldTxID, id,
			log.FieldError, err)
		InternalServerError("Error deleting transaction", asJSON).Write(w)
		return
	}
	if removed {
		s.appMetrics.removed.Add(1)
	} else {
		s.logger.DebugContext(r.Context(), "Delete of unknown transaction ignored", log.FieldTxID, id)
	}

	if asJSON {
		NewHTMXResponse().
			BodyJSON(map[string]interface{}{"id": id, "removed": removed}).
			Write(w)
		return
	}

	resp := NewHTMXResponse()
	if removed {
		resp.TriggerTransactionDeleted(id).
			TriggerLedgerChanged().
			TriggerSuccessNotification("Transaction deleted")
	}
	resp.Write(w)
}

// notLoaded rejects a mutation that arrived while the ledger is still loading.
func (s *Server) notLoaded(w http.ResponseWriter, r *http.Request, asJSON bool) {
	s.logger.WarnContext(r.Context(), "Mutation refused before ledger load")
	ErrorResponse(http.StatusServiceUnavailable, "Ledger is still loading, try again shortly", asJSON).
		Header("Retry-After", "1").
		Write(w)
}
