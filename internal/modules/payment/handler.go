package payment

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/modules/auth"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Handler exposes payment HTTP endpoints for a bill.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	// Cash change preview
	r.Post("/api/v1/bills/{id}/payment/change", h.change)
	// QR attempt: request a new code, read state, cancel
	r.Post("/api/v1/bills/{id}/payment/qr", h.requestCode)
	r.Get("/api/v1/bills/{id}/payment/qr", h.current)
	r.Delete("/api/v1/bills/{id}/payment/qr", h.cancel)
}

func (h *Handler) change(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tendered decimal.Decimal `json:"amountGiven"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := h.service.ComputeChange(r.Context(), auth.CashierFromRequest(r), chi.URLParam(r, "id"), req.Tendered)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (h *Handler) requestCode(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.RequestCode(r.Context(), auth.CashierFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, a)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Current(r.Context(), auth.CashierFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, a)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Cancel(r.Context(), auth.CashierFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, a)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, err error) {
	appErr := apperror.Get(err)
	respond(w, appErr.Code, appErr)
}
