package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const archiveTTL = 90 * 24 * time.Hour

// RedisSink stores each day's archive as a hash: field per room, value
// a JSON array of entries. Appends merge with what is already there.
type RedisSink struct {
	client *redis.Client
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) key(day string) string {
	return fmt.Sprintf("archive:%s", day)
}

func (s *RedisSink) Archive(ctx context.Context, day, roomKey string, entries []Entry) error {
	key := s.key(day)

	existing, err := s.client.HGet(ctx, key, roomKey).Result()
	if err == nil && existing != "" {
		var prior []Entry
		if err := json.Unmarshal([]byte(existing), &prior); err == nil {
			entries = append(prior, entries...)
		}
	} else if err != nil && err != redis.Nil {
		return fmt.Errorf("read archive %s/%s: %w", day, roomKey, err)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, key, roomKey, data).Err(); err != nil {
		return fmt.Errorf("write archive %s/%s: %w", day, roomKey, err)
	}
	if err := s.client.Expire(ctx, key, archiveTTL).Err(); err != nil {
		log.Printf("archive: expire %s: %v", key, err)
	}
	return nil
}

func (s *RedisSink) History(ctx context.Context, day string) (map[string][]Entry, error) {
	raw, err := s.client.HGetAll(ctx, s.key(day)).Result()
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", day, err)
	}
	out := make(map[string][]Entry, len(raw))
	for roomKey, data := range raw {
		var entries []Entry
		if err := json.Unmarshal([]byte(data), &entries); err != nil {
			log.Printf("archive: bad entry for %s/%s: %v", day, roomKey, err)
			continue
		}
		out[roomKey] = entries
	}
	return out, nil
}

// RedisCounters keeps the daily aggregates in a single hash.
type RedisCounters struct {
	client *redis.Client
}

func NewRedisCounters(client *redis.Client) *RedisCounters {
	return &RedisCounters{client: client}
}

func (c *RedisCounters) key() string {
	return "counters:daily"
}

func (c *RedisCounters) IncrQuestions(ctx context.Context) {
	if err := c.client.HIncrBy(ctx, c.key(), "questions", 1).Err(); err != nil {
		log.Printf("counters: incr questions: %v", err)
	}
}

func (c *RedisCounters) IncrAnswers(ctx context.Context) {
	if err := c.client.HIncrBy(ctx, c.key(), "answers", 1).Err(); err != nil {
		log.Printf("counters: incr answers: %v", err)
	}
}

func (c *RedisCounters) Snapshot(ctx context.Context) (questions, answers int64) {
	raw, err := c.client.HGetAll(ctx, c.key()).Result()
	if err != nil {
		log.Printf("counters: read: %v", err)
		return 0, 0
	}
	fmt.Sscan(raw["questions"], &questions)
	fmt.Sscan(raw["answers"], &answers)
	return questions, answers
}

func (c *RedisCounters) Reset(ctx context.Context) error {
	return c.client.Del(ctx, c.key()).Err()
}
