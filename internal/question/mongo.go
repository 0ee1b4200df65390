package question

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoLoader reads the question set from the "questions" and
// "visual_prompts" collections.
type MongoLoader struct {
	trivia *mongo.Collection
	visual *mongo.Collection
}

func NewMongoLoader(db *mongo.Database) *MongoLoader {
	return &MongoLoader{
		trivia: db.Collection("questions"),
		visual: db.Collection("visual_prompts"),
	}
}

func (l *MongoLoader) Load(ctx context.Context) (Pool, error) {
	var pool Pool

	cur, err := l.trivia.Find(ctx, bson.M{})
	if err != nil {
		return pool, fmt.Errorf("load questions: %w", err)
	}
	if err := cur.All(ctx, &pool.Trivia); err != nil {
		return pool, fmt.Errorf("decode questions: %w", err)
	}

	cur, err = l.visual.Find(ctx, bson.M{})
	if err != nil {
		return pool, fmt.Errorf("load visual prompts: %w", err)
	}
	if err := cur.All(ctx, &pool.Visual); err != nil {
		return pool, fmt.Errorf("decode visual prompts: %w", err)
	}
	return pool, nil
}
