package cart

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/rochak-pos/internal/modules/auth"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Handler exposes bill HTTP endpoints. Routes expect auth.RequireCashier
// upstream.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	// Payment and checkout hang further routes off /api/v1/bills/{id}, so
	// these are registered flat rather than as a mounted sub-router.
	r.Post("/api/v1/bills", h.open)
	r.Get("/api/v1/bills/{id}", h.get)
	r.Delete("/api/v1/bills/{id}", h.clear)
	r.Post("/api/v1/bills/{id}/lines", h.addLine)
	r.Delete("/api/v1/bills/{id}/lines/{index}", h.removeLine)
	r.Put("/api/v1/bills/{id}/entry", h.setEntry)
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	bill, err := h.service.Open(r.Context(), auth.CashierFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, bill)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	bill, err := h.service.Get(r.Context(), auth.CashierFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, bill)
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bill, err := h.service.AddLine(r.Context(), auth.CashierFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, bill)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, apperror.New(apperror.KindIndex, "line index must be an integer"))
		return
	}
	bill, err := h.service.RemoveLine(r.Context(), auth.CashierFromContext(r.Context()), chi.URLParam(r, "id"), index)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, bill)
}

func (h *Handler) setEntry(w http.ResponseWriter, r *http.Request) {
	var e Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bill, err := h.service.SetEntry(r.Context(), auth.CashierFromContext(r.Context()), chi.URLParam(r, "id"), e)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, bill)
}

// clear discards the bill; a non-empty bill needs ?confirm=true.
func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	bill, err := h.service.Clear(r.Context(), auth.CashierFromContext(r.Context()), chi.URLParam(r, "id"), confirmed)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, bill)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, err error) {
	appErr := apperror.Get(err)
	respond(w, appErr.Code, appErr)
}
