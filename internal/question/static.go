package question

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed data/trivia.json data/visual.json
var poolFS embed.FS

// StaticLoader serves the question set embedded in the binary. It is
// the default when no Mongo URI is configured.
type StaticLoader struct{}

func NewStaticLoader() *StaticLoader {
	return &StaticLoader{}
}

func (l *StaticLoader) Load(ctx context.Context) (Pool, error) {
	var pool Pool
	data, err := poolFS.ReadFile("data/trivia.json")
	if err != nil {
		return pool, fmt.Errorf("read embedded trivia: %w", err)
	}
	if err := json.Unmarshal(data, &pool.Trivia); err != nil {
		return pool, fmt.Errorf("parse embedded trivia: %w", err)
	}
	data, err = poolFS.ReadFile("data/visual.json")
	if err != nil {
		return pool, fmt.Errorf("read embedded visual prompts: %w", err)
	}
	if err := json.Unmarshal(data, &pool.Visual); err != nil {
		return pool, fmt.Errorf("parse embedded visual prompts: %w", err)
	}
	return pool, nil
}
