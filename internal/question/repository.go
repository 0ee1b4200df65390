package question

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/model"
)

// Repository caches the loaded pool in memory with a TTL and collapses
// concurrent reloads through singleflight, so a burst of round starts
// hits the backing store at most once.
type Repository struct {
	loader Loader
	ttl    time.Duration
	now    func() time.Time

	sf singleflight.Group

	mu       sync.Mutex
	pool     Pool
	loadedAt time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewRepository wraps a loader. A zero ttl means the pool is loaded
// once and never refreshed.
func NewRepository(loader Loader, ttl time.Duration) *Repository {
	return &Repository{
		loader: loader,
		ttl:    ttl,
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Trivia picks a random multiple-choice record and resolves its answer
// key to an option index.
func (r *Repository) Trivia(ctx context.Context) (*model.Question, error) {
	pool, err := r.getPool(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool.Trivia) == 0 {
		return nil, ErrEmptyPool
	}
	rec := pool.Trivia[r.intn(len(pool.Trivia))]
	correct, err := answerIndex(rec.Answer, len(rec.Options))
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", rec.ID, err)
	}
	options := make([]string, len(rec.Options))
	copy(options, rec.Options)
	return &model.Question{
		ID:           rec.ID,
		Type:         model.QuestionTrivia,
		Prompt:       rec.Prompt,
		Options:      options,
		CorrectIndex: correct,
	}, nil
}

// Visual builds a multiple-choice question from a visual prompt: the
// target subject plus three decoy subjects, shuffled.
func (r *Repository) Visual(ctx context.Context) (*model.Question, error) {
	pool, err := r.getPool(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool.Visual) < 4 {
		return nil, fmt.Errorf("%w: need at least 4 visual subjects, have %d", ErrEmptyPool, len(pool.Visual))
	}

	r.rndMu.Lock()
	perm := r.rnd.Perm(len(pool.Visual))
	r.rndMu.Unlock()

	target := pool.Visual[perm[0]]
	options := []string{target.Subject}
	for _, i := range perm[1:4] {
		options = append(options, pool.Visual[i].Subject)
	}
	r.shuffle(options)

	correct := 0
	for i, opt := range options {
		if opt == target.Subject {
			correct = i
			break
		}
	}
	return &model.Question{
		ID:           target.ID,
		Type:         model.QuestionVisual,
		Prompt:       "What is shown in the image?",
		Options:      options,
		CorrectIndex: correct,
		AssetRef:     target.Asset,
	}, nil
}

func (r *Repository) getPool(ctx context.Context) (Pool, error) {
	r.mu.Lock()
	fresh := !r.loadedAt.IsZero() && (r.ttl <= 0 || r.now().Sub(r.loadedAt) < r.ttl)
	pool := r.pool
	r.mu.Unlock()
	if fresh {
		return pool, nil
	}

	result, err, _ := r.sf.Do("pool", func() (interface{}, error) {
		// Re-check in case another caller just refreshed it.
		r.mu.Lock()
		if !r.loadedAt.IsZero() && (r.ttl <= 0 || r.now().Sub(r.loadedAt) < r.ttl) {
			pool := r.pool
			r.mu.Unlock()
			return pool, nil
		}
		r.mu.Unlock()

		loaded, err := r.loader.Load(ctx)
		if err != nil {
			return Pool{}, err
		}
		r.mu.Lock()
		r.pool = loaded
		r.loadedAt = r.now()
		r.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		// Serve a stale pool over failing the round start.
		r.mu.Lock()
		stale := r.pool
		loaded := !r.loadedAt.IsZero()
		r.mu.Unlock()
		if loaded {
			return stale, nil
		}
		return Pool{}, err
	}
	return result.(Pool), nil
}

func (r *Repository) intn(n int) int {
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.rnd.Intn(n)
}

func (r *Repository) shuffle(options []string) {
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	r.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
}
