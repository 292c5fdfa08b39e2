package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// idleSessionTTL is how long a session list survives without requests.
const idleSessionTTL = 30 * time.Minute

// ErrNoSession is returned by Sessions.Reload when the context carries no
// session key.
var ErrNoSession = errors.New("no console session in context")

type sessionKey struct{}

// WithSession returns a copy of ctx bound to the console session key.
func WithSession(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, sessionKey{}, key)
}

// SessionFrom returns the session key bound by WithSession.
func SessionFrom(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(sessionKey{}).(string)
	return key, ok && key != ""
}

type sessionList struct {
	list     *ListController
	lastSeen time.Time
}

// Sessions keeps one ListController per console session. A load only ever
// supersedes loads of its own session.
type Sessions struct {
	lister EquipmentLister
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	lists map[string]*sessionList
}

func NewSessions(lister EquipmentLister, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		lister: lister,
		logger: logger,
		ttl:    idleSessionTTL,
		now:    time.Now,
		lists:  make(map[string]*sessionList),
	}
}

// For returns the list of session key, creating it on first use. Lists idle
// for longer than the TTL are dropped on the way.
func (s *Sessions) For(key string) *ListController {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, entry := range s.lists {
		if k != key && now.Sub(entry.lastSeen) > s.ttl {
			delete(s.lists, k)
		}
	}

	entry, ok := s.lists[key]
	if !ok {
		entry = &sessionList{list: NewListController(s.lister, s.logger.With(zap.String("session", key)))}
		s.lists[key] = entry
	}
	entry.lastSeen = now
	return entry.list
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lists)
}

// Reload reloads the list of the session bound to ctx.
func (s *Sessions) Reload(ctx context.Context) error {
	key, ok := SessionFrom(ctx)
	if !ok {
		return ErrNoSession
	}
	_, err := s.For(key).Reload(ctx)
	return err
}
