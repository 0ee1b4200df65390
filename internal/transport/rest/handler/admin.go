package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/archive"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/game"
)

// AdminHandler serves the allow-list gated operational endpoints.
type AdminHandler struct {
	store    *game.Store
	counters archive.Counters
	sink     archive.Sink
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store *game.Store, counters archive.Counters, sink archive.Sink) *AdminHandler {
	return &AdminHandler{store: store, counters: counters, sink: sink}
}

// Stats handles GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	rooms, players := h.store.Stats()
	questions, answers := h.counters.Snapshot(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"activeRooms":      rooms,
		"activePlayers":    players,
		"questionsStarted": questions,
		"answersSubmitted": answers,
	})
}

// Leaderboard handles GET /admin/leaderboard/{date}
func (h *AdminHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	day := mux.Vars(r)["date"]
	if _, err := time.Parse(archive.DayFormat, day); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	history, err := h.sink.History(r.Context(), day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"date":    day,
		"rooms":   history,
	})
}
