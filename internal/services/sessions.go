package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Ticket identifies one search. Generations increase monotonically across
// the whole registry.
type Ticket struct {
	Session    string
	Generation uint64
	cancel     context.CancelFunc
}

// SearchRegistry implements last-write-wins per session: starting a search
// cancels the previous in-flight search of the same session, and only the
// latest search of a session may report its result.
type SearchRegistry struct {
	mu         sync.Mutex
	latest     *cache.Cache // session -> *Ticket
	generation atomic.Uint64
	superseded atomic.Uint64
	logger     *zap.Logger
}

func NewSearchRegistry(ttl, cleanupInterval time.Duration, logger *zap.Logger) *SearchRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	latest := cache.New(ttl, cleanupInterval)
	latest.OnEvicted(func(session string, value interface{}) {
		if ticket, ok := value.(*Ticket); ok {
			ticket.cancel()
		}
	})

	return &SearchRegistry{
		latest: latest,
		logger: logger,
	}
}

// Begin registers a new search for session and returns a context that is
// cancelled when a newer search of the same session begins. An empty session
// is untracked. The session id is copied before it is stored.
func (r *SearchRegistry) Begin(ctx context.Context, session string) (context.Context, *Ticket) {
	session = strings.Clone(session)
	searchCtx, cancel := context.WithCancel(ctx)
	ticket := &Ticket{
		Session:    session,
		Generation: r.generation.Add(1),
		cancel:     cancel,
	}

	if session == "" {
		return searchCtx, ticket
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if value, found := r.latest.Get(session); found {
		if previous, ok := value.(*Ticket); ok {
			previous.cancel()
			r.logger.Debug("Superseding in-flight search",
				zap.String("session", session),
				zap.Uint64("previous_generation", previous.Generation),
				zap.Uint64("generation", ticket.Generation))
		}
	}
	r.latest.SetDefault(session, ticket)

	return searchCtx, ticket
}

// Finish releases the ticket and reports whether it is still the latest
// search of its session.
func (r *SearchRegistry) Finish(ticket *Ticket) bool {
	defer ticket.cancel()

	if ticket.Session == "" {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	value, found := r.latest.Get(ticket.Session)
	if !found {
		return true
	}

	latest, ok := value.(*Ticket)
	if !ok || latest.Generation == ticket.Generation {
		return true
	}

	r.superseded.Add(1)
	return false
}

func (r *SearchRegistry) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"active_sessions":  r.latest.ItemCount(),
		"last_generation":  r.generation.Load(),
		"superseded_count": r.superseded.Load(),
	}
}
