package question

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/model"
)

var (
	ErrEmptyPool = errors.New("question pool is empty")
)

// TriviaRecord is a multiple-choice entry in the static pool. Answer is
// an answer-key letter (A-D) resolved to an option index at selection
// time.
type TriviaRecord struct {
	ID      string   `json:"id" bson:"id"`
	Prompt  string   `json:"prompt" bson:"prompt"`
	Options []string `json:"options" bson:"options"`
	Answer  string   `json:"answer" bson:"answer"`
}

// VisualRecord is a visual-prompt entry: a subject and the asset shown
// for it. Options are built at selection time from decoy subjects.
type VisualRecord struct {
	ID      string `json:"id" bson:"id"`
	Subject string `json:"subject" bson:"subject"`
	Asset   string `json:"asset" bson:"asset"`
}

// Pool is the full loaded question set.
type Pool struct {
	Trivia []TriviaRecord `json:"trivia"`
	Visual []VisualRecord `json:"visual"`
}

// Loader fetches the pool from a backing store.
type Loader interface {
	Load(ctx context.Context) (Pool, error)
}

// Source supplies randomly selected, fully resolved questions.
type Source interface {
	Trivia(ctx context.Context) (*model.Question, error)
	Visual(ctx context.Context) (*model.Question, error)
}

// answerIndex resolves an answer-key letter to an option index.
func answerIndex(answer string, optionCount int) (int, error) {
	key := strings.ToUpper(strings.TrimSpace(answer))
	if len(key) != 1 || key[0] < 'A' || key[0] > 'Z' {
		return 0, fmt.Errorf("bad answer key %q", answer)
	}
	idx := int(key[0] - 'A')
	if idx >= optionCount {
		return 0, fmt.Errorf("answer key %q out of range for %d options", answer, optionCount)
	}
	return idx, nil
}
