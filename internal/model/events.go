package model

// Outbound WebSocket event types
const (
	EventYouJoined        = "you_joined"
	EventRoomState        = "room_state"
	EventQuestionStarted  = "question_started"
	EventPlayerSelected   = "player_selected"
	EventShowResult       = "show_result"
	EventLeaderboardReset = "leaderboard_reset"
	EventGameState        = "game_state"
)

// Inbound event types, shared by the WebSocket protocol and the
// polling gateway's game-event body.
const (
	EventStartQuestion = "start_question"
	EventSelectOption  = "select_option"
	EventEndRound      = "end_round"
)

// YouJoinedPayload tells a single connection its identity and host
// status. Also sent to a promoted player on host reassignment.
type YouJoinedPayload struct {
	PlayerID string `json:"playerId"`
	IsHost   bool   `json:"isHost"`
}

// QuestionStartedPayload announces a new round to the room.
type QuestionStartedPayload struct {
	Question  *Question `json:"question"`
	StartTime int64     `json:"startTime"`
	MaxTime   int       `json:"maxTime"`
}

// PlayerSelectedPayload announces that a player locked in an answer.
// Correctness is not revealed until the round resolves.
type PlayerSelectedPayload struct {
	PlayerID    string `json:"playerId"`
	OptionIndex int    `json:"optionIndex"`
	PlayerName  string `json:"playerName"`
}

// LeaderboardResetPayload carries the pre-reset scores at the daily
// leaderboard reset.
type LeaderboardResetPayload struct {
	PreviousScores map[string]int `json:"previousScores"`
	Timestamp      int64          `json:"timestamp"`
}
