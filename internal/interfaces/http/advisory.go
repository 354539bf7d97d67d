package http

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/advisory"
	"github.com/quantdesk/advisor/internal/persistence"
)

// AdviseBuy runs the buy pipeline and persists the decision.
func (h *Handlers) AdviseBuy(w http.ResponseWriter, r *http.Request) {
	var req advisory.BuyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	decision := h.engine.AdviseBuy(req)
	h.recordDecision(r, decision)
	writeJSON(w, http.StatusOK, decision)
}

// AdviseSell runs the sell pipeline and persists the decision.
func (h *Handlers) AdviseSell(w http.ResponseWriter, r *http.Request) {
	var req advisory.SellRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	decision := h.engine.AdviseSell(req)
	h.recordDecision(r, decision)
	writeJSON(w, http.StatusOK, decision)
}

func (h *Handlers) recordDecision(r *http.Request, decision advisory.Decision) {
	if h.registry != nil {
		h.registry.ObserveDecision(decision.Side, decision.ReasonCode, decision.Approved, decision.Confidence)
	}
	if h.decisions == nil {
		return
	}
	record, err := persistence.FromDecision(decision)
	if err != nil {
		log.Warn().Err(err).Str("id", decision.ID).Msg("failed to build decision record")
		return
	}
	if err := h.decisions.Save(r.Context(), record); err != nil {
		log.Warn().Err(err).Str("id", decision.ID).Msg("failed to persist decision")
	}
}
