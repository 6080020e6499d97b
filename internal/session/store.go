package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/model"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side state of one browser session.
type Session struct {
	ID       string         `json:"id"`
	Settings model.Settings `json:"settings"`

	Result *model.Result `json:"result,omitempty"`
	Raw    string        `json:"-"`
	Source string        `json:"source,omitempty"`

	Quiz         []model.QuizItem `json:"quiz,omitempty"`
	QuizWarnings []model.Warning  `json:"quizWarnings,omitempty"`
	Grade        *model.QuizGrade `json:"grade,omitempty"`

	// Flash is a one-shot message for the next page render.
	Flash string `json:"-"`

	CreatedAt  time.Time `json:"createdAt"`
	AccessedAt time.Time `json:"accessedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// ResetSummary clears everything derived from a previous judgment.
func (s *Session) ResetSummary() {
	s.Result = nil
	s.Raw = ""
	s.Source = ""
	s.ResetQuiz()
}

func (s *Session) ResetQuiz() {
	s.Quiz = nil
	s.QuizWarnings = nil
	s.Grade = nil
}

func (s *Session) clone() *Session {
	c := *s
	return &c
}

// Stats summarizes the store for the admin panel.
type Stats struct {
	Sessions    int           `json:"sessions"`
	WithSummary int           `json:"withSummary"`
	HitCount    int64         `json:"hitCount"`
	MissCount   int64         `json:"missCount"`
	Swept       int64         `json:"swept"`
	OldestEntry time.Time     `json:"oldestEntry"`
	AverageAge  time.Duration `json:"averageAge"`
}

// Store keeps sessions in memory. Each access pushes the expiry forward by
// the TTL; expired sessions are removed lazily and by the sweeper.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	defaults  model.Settings
	logger    *infrastructure.Logger
	now       func() time.Time
	hitCount  int64
	missCount int64
	swept     int64

	cron *cron.Cron
}

func NewStore(ttl time.Duration, defaults model.Settings, logger *infrastructure.Logger) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		defaults: defaults.Clamp(),
		logger:   logger,
		now:      time.Now,
	}
}

// Defaults returns the settings new sessions start with.
func (s *Store) Defaults() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults
}

// SetDefaults changes the settings future sessions start with.
func (s *Store) SetDefaults(settings model.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = settings.Clamp()
}

// Create starts a new session with the default settings.
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

func (s *Store) createLocked() *Session {
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		Settings:   s.defaults,
		CreatedAt:  now,
		AccessedAt: now,
		ExpiresAt:  now.Add(s.ttl),
	}
	s.sessions[sess.ID] = sess
	return sess.clone()
}

// Get returns a copy of the session and refreshes its expiry.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.liveLocked(id)
	if !ok {
		s.missCount++
		return nil, ErrNotFound
	}
	s.hitCount++
	return sess.clone(), nil
}

// GetOrCreate returns the session for id, or a fresh one when id is unknown
// or expired. The returned session's ID may differ from id.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.liveLocked(id); ok {
		s.hitCount++
		return sess.clone()
	}
	s.missCount++
	return s.createLocked()
}

// Update applies fn to the stored session under the store lock. An error
// from fn leaves the session unchanged.
func (s *Store) Update(id string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.liveLocked(id)
	if !ok {
		s.missCount++
		return nil, ErrNotFound
	}
	s.hitCount++

	working := sess.clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = sess.ID
	s.sessions[id] = working
	return working.clone(), nil
}

// Save stores sess, replacing any session with the same ID, and refreshes
// its expiry.
func (s *Store) Save(sess *Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("saving session: %w", ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := sess.clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.AccessedAt = now
	stored.ExpiresAt = now.Add(s.ttl)
	s.sessions[stored.ID] = stored
	return nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) liveLocked(id string) (*Session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.After(sess.ExpiresAt) {
		delete(s.sessions, id)
		return nil, false
	}
	sess.AccessedAt = now
	sess.ExpiresAt = now.Add(s.ttl)
	return sess, true
}

// Sweep removes expired sessions and reports how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.swept += int64(removed)
	return removed
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Sessions:  len(s.sessions),
		HitCount:  s.hitCount,
		MissCount: s.missCount,
		Swept:     s.swept,
	}

	now := s.now()
	var totalAge time.Duration
	for _, sess := range s.sessions {
		if sess.Result != nil {
			stats.WithSummary++
		}
		if stats.OldestEntry.IsZero() || sess.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = sess.CreatedAt
		}
		totalAge += now.Sub(sess.CreatedAt)
	}
	if len(s.sessions) > 0 {
		stats.AverageAge = totalAge / time.Duration(len(s.sessions))
	}
	return stats
}

// StartSweeper runs Sweep on a standard five-field cron schedule until Stop.
func (s *Store) StartSweeper(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Info("Swept expired sessions", "removed", n)
		}
	}); err != nil {
		return fmt.Errorf("scheduling session sweep %q: %w", schedule, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	s.logger.Info("Session sweeper started", "schedule", schedule, "ttl", s.ttl.String())
	return nil
}

// Stop halts the sweeper and waits for a running sweep to finish.
func (s *Store) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
