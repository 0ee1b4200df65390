package model

// QuestionType defines the kind of prompt shown for a round
type QuestionType string

const (
	QuestionTrivia QuestionType = "trivia"
	QuestionVisual QuestionType = "visual"
)

// Question is a question attached to a room for one round. CorrectIndex
// is resolved once when the record is selected and is never serialized;
// clients only learn it through a round result.
type Question struct {
	ID           string       `json:"id"`
	Type         QuestionType `json:"type"`
	Prompt       string       `json:"prompt"`
	Options      []string     `json:"options"`
	CorrectIndex int          `json:"-"`
	AssetRef     string       `json:"assetRef,omitempty"`
	StartTime    int64        `json:"startTime,omitempty"` // epoch ms
	MaxTime      int          `json:"maxTime,omitempty"`   // seconds
}

// Selection is one player's answer for the current round.
type Selection struct {
	OptionIndex int     `json:"optionIndex"`
	TimeTaken   float64 `json:"timeTaken"` // seconds since round start
	Timestamp   int64   `json:"timestamp"` // epoch ms
	PlayerName  string  `json:"playerName,omitempty"`
}

// QuestionRecord is a diagnostic log entry of a past round.
type QuestionRecord struct {
	QuestionID string `json:"questionId"`
	StartTime  int64  `json:"startTime"`
}
