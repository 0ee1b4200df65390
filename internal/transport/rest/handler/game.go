package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/model"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/service"
)

// GameHandler exposes the polling gateway: stateless clients drive a
// room through game-event posts and game-state reads instead of a
// WebSocket session.
type GameHandler struct {
	svc *service.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(svc *service.GameService) *GameHandler {
	return &GameHandler{svc: svc}
}

// GameEventRequest is the request body for POST /game-event.
type GameEventRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type startQuestionData struct {
	RoomID       string `json:"roomId"`
	ForceNew     bool   `json:"forceNew"`
	QuestionType string `json:"questionType"`
}

type selectOptionData struct {
	RoomID      string `json:"roomId"`
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	OptionIndex int    `json:"optionIndex"`
}

type endRoundData struct {
	RoomID string `json:"roomId"`
}

// GameEvent handles POST /game-event
func (h *GameHandler) GameEvent(w http.ResponseWriter, r *http.Request) {
	var req GameEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Event {
	case model.EventStartQuestion:
		h.startQuestion(w, r, req.Data)
	case model.EventSelectOption:
		h.selectOption(w, r, req.Data)
	case model.EventEndRound:
		h.endRound(w, r, req.Data)
	default:
		writeError(w, http.StatusBadRequest, "unknown event")
	}
}

func (h *GameHandler) startQuestion(w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var body startQuestionData
	if err := json.Unmarshal(data, &body); err != nil || body.RoomID == "" {
		writeError(w, http.StatusBadRequest, "roomId is required")
		return
	}

	res, err := h.svc.PollStartQuestion(r.Context(), body.RoomID, body.ForceNew, body.QuestionType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*service.StartQuestionResult
	}{true, res})
}

func (h *GameHandler) selectOption(w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var body selectOptionData
	if err := json.Unmarshal(data, &body); err != nil || body.RoomID == "" {
		writeError(w, http.StatusBadRequest, "roomId is required")
		return
	}

	res, err := h.svc.PollSelectOption(r.Context(), body.RoomID, body.PlayerID, body.PlayerName, body.OptionIndex)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveRound) {
			writeError(w, http.StatusConflict, "no active round")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*service.SelectOptionResult
	}{true, res})
}

func (h *GameHandler) endRound(w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var body endRoundData
	if err := json.Unmarshal(data, &body); err != nil || body.RoomID == "" {
		writeError(w, http.StatusBadRequest, "roomId is required")
		return
	}

	result, err := h.svc.PollEndRound(r.Context(), body.RoomID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "room not found")
		case errors.Is(err, service.ErrNoActiveRound):
			writeError(w, http.StatusConflict, "no active round")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*model.RoundResult
	}{true, result})
}

// GameState handles GET /game-state/{roomId}
func (h *GameHandler) GameState(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "roomId is required")
		return
	}

	snap := h.svc.GameState(roomID)
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		model.GameStateSnapshot
	}{true, snap})
}
