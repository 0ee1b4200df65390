package model

// RoundResult is the outcome of one resolved round. The first resolver
// computes it; every later end-round call for the same round replays it
// verbatim.
type RoundResult struct {
	CorrectIndex int                   `json:"correctIndex"`
	Scores       map[string]int        `json:"scores"`
	Selections   map[string]*Selection `json:"selections"`
}

// RoomSnapshot is the roster view broadcast after membership or score
// changes. Players are ordered by score, highest first.
type RoomSnapshot struct {
	RoomID    string         `json:"roomId"`
	GameState string         `json:"gameState"`
	HostID    string         `json:"hostId,omitempty"`
	Players   []*Player      `json:"players"`
	Scores    map[string]int `json:"scores"`
}

// GameStateSnapshot is the full read-only view served to pollers and to
// reconnecting clients. The question omits its correct index.
type GameStateSnapshot struct {
	RoomSnapshot
	Question   *Question             `json:"question,omitempty"`
	Selections map[string]*Selection `json:"selections,omitempty"`
	TimeLeftMs int64                 `json:"timeLeftMs"`
	RoundEnded bool                  `json:"roundEnded"`
}
