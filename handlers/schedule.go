package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"airsched/models"
	"airsched/services/forecast"
	"airsched/services/tracker"
)

// forecastStore is the read side of forecast persistence.
type forecastStore interface {
	ListForecasts() ([]models.ForecastRecord, error)
	GetSnapshot(date string) ([]models.ScheduleEntry, error)
}

// ScheduleHandler serves the schedule, change feed, and forecast endpoints.
type ScheduleHandler struct {
	Tracker *tracker.Service
	Planner *forecast.Planner
	Store   forecastStore
}

// NewScheduleHandler creates the handler.
func NewScheduleHandler(t *tracker.Service, p *forecast.Planner, store forecastStore) *ScheduleHandler {
	return &ScheduleHandler{Tracker: t, Planner: p, Store: store}
}

// Register attaches all routes to the router. The refresh endpoint gets the
// provided middleware chain (rate limiting).
func (h *ScheduleHandler) Register(r *mux.Router, refreshMiddleware mux.MiddlewareFunc) {
	r.HandleFunc("/api/schedule", h.GetSchedule).Methods(http.MethodGet)
	r.HandleFunc("/api/schedule/{date}", h.GetSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/api/changes", h.GetChanges).Methods(http.MethodGet)
	r.HandleFunc("/api/forecasts", h.GetForecasts).Methods(http.MethodGet)
	r.HandleFunc("/api/forecasts/{showId}/advance", h.AdvanceForecast).Methods(http.MethodPost)
	r.HandleFunc("/api/forecasts/{showId}/confirm", h.ConfirmForecast).Methods(http.MethodPost)
	r.HandleFunc("/api/status", h.GetStatus).Methods(http.MethodGet)

	refresh := r.PathPrefix("/api/refresh").Subrouter()
	if refreshMiddleware != nil {
		refresh.Use(refreshMiddleware)
	}
	refresh.HandleFunc("", h.TriggerRefresh).Methods(http.MethodPost)
}

// GetSchedule returns the latest acquired schedule.
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	result := h.Tracker.LastResult()
	if result == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []models.ScheduleEntry{}, "pending": true})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetSnapshot returns the stored snapshot for one date.
func (h *ScheduleHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	entries, err := h.Store.GetSnapshot(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if entries == nil {
		writeError(w, http.StatusNotFound, "no snapshot for "+date)
		return
	}
	writeJSON(w, http.StatusOK, models.ScheduleSnapshot{Date: date, Entries: entries})
}

// GetChanges returns the change batch from the most recent cycle.
func (h *ScheduleHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	result := h.Tracker.LastResult()
	if result == nil {
		writeJSON(w, http.StatusOK, []models.ChangeRecord{})
		return
	}
	changes := result.Changes
	if changes == nil {
		changes = []models.ChangeRecord{}
	}
	writeJSON(w, http.StatusOK, changes)
}

// GetForecasts returns all stored forecast records.
func (h *ScheduleHandler) GetForecasts(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListForecasts()
	if err != nil {
		log.Printf("[handlers] list forecasts failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load forecasts")
		return
	}
	if records == nil {
		records = []models.ForecastRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// AdvanceForecast bumps a show's current episode by one.
func (h *ScheduleHandler) AdvanceForecast(w http.ResponseWriter, r *http.Request) {
	showID := mux.Vars(r)["showId"]
	record, err := h.Planner.Advance(showID)
	if err != nil {
		writeForecastError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ConfirmForecast marks one projected episode as confirmed.
func (h *ScheduleHandler) ConfirmForecast(w http.ResponseWriter, r *http.Request) {
	showID := mux.Vars(r)["showId"]
	episode, err := strconv.Atoi(r.URL.Query().Get("episode"))
	if err != nil || episode < 1 {
		writeError(w, http.StatusBadRequest, "episode query parameter required")
		return
	}
	record, err := h.Planner.Confirm(showID, episode)
	if err != nil {
		writeForecastError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// GetStatus reports the background worker state.
func (h *ScheduleHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Tracker.GetStatus())
}

// TriggerRefresh queues an immediate acquisition cycle.
func (h *ScheduleHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	h.Tracker.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh queued"})
}

func writeForecastError(w http.ResponseWriter, err error) {
	switch err {
	case forecast.ErrForecastNotFound:
		writeError(w, http.StatusNotFound, "forecast not found")
	case forecast.ErrEpisodeNotFound:
		writeError(w, http.StatusNotFound, "projected episode not found")
	default:
		log.Printf("[handlers] forecast update failed: %v", err)
		writeError(w, http.StatusInternalServerError, "forecast update failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
