package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"coffeeapi/internal/database"
	"coffeeapi/internal/models"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	repo database.Repository
}

func NewHandler(repo database.Repository) *Handler {
	return &Handler{repo: repo}
}

// statusFor maps repository errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, database.ErrUnimplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends err with the status from statusFor. Server-side failures
// are logged and their details kept out of the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Msg("Request failed")
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Service banner
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("coffeeapi: roasters and the coffees they roast\n"))
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// HandleReady reports whether the repository can reach its store
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Readiness check failed")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ready"})
}

// List all roasters
func (h *Handler) HandleRoasterList(w http.ResponseWriter, r *http.Request) {
	roasters, err := h.repo.AllRoasters(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, roasters)
}

func (h *Handler) HandleRoasterByName(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	roaster, err := h.repo.RoasterByName(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if roaster == nil {
		http.Error(w, "Roaster not found", http.StatusNotFound)
		return
	}
	writeJSON(w, roaster)
}

func (h *Handler) HandleRoasterByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	roaster, err := h.repo.RoasterByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if roaster == nil {
		http.Error(w, "Roaster not found", http.StatusNotFound)
		return
	}
	writeJSON(w, roaster)
}

func (h *Handler) HandleRoasterCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoasterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.repo.AddRoaster(r.Context(), req.Roaster()); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRoasterDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	removed, err := h.repo.RemoveRoaster(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !removed {
		http.Error(w, "Roaster not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List the coffees a single roaster is credited with
func (h *Handler) HandleRoasterCoffees(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	coffees, err := h.repo.CoffeesByRoaster(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, coffees)
}

func (h *Handler) HandleCoffeeList(w http.ResponseWriter, r *http.Request) {
	coffees, err := h.repo.AllCoffees(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, coffees)
}

func (h *Handler) HandleCoffeeCreate(w http.ResponseWriter, r *http.Request) {
	var req models.NewCoffeeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.repo.AddCoffee(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeBody reads a JSON request body into v and writes the error response
// when that fails. Bodies cut off by http.MaxBytesReader get 413.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
	return false
}

// Catch-all for unmatched routes
func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Not found", http.StatusNotFound)
}
