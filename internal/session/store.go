package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const deleteTimeout = 10 * time.Second

// MessageDeleter removes a chat message. Implemented by the chat gateway.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

type teardown struct {
	timer *time.Timer
	gen   uint64
}

// Store is safe for concurrent use across chats.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	tracked  map[int64][]int
	timers   map[int64]*teardown
	nextGen  uint64
	closed   bool
	deleter  MessageDeleter
	logger   *zerolog.Logger
	inflight sync.WaitGroup
}

func NewStore(deleter MessageDeleter, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{
		sessions: make(map[int64]*Session),
		tracked:  make(map[int64][]int),
		timers:   make(map[int64]*teardown),
		deleter:  deleter,
		logger:   logger,
	}
}

// Get returns a snapshot of the chat's session.
func (s *Store) Get(chatID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Create starts a fresh session for the chat, discarding any previous one and
// cancelling its pending teardown.
func (s *Store) Create(chatID int64, flow FlowKind) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(chatID)
	s.nextGen++
	sess := &Session{ChatID: chatID, Flow: flow, Step: 1, gen: s.nextGen}
	s.sessions[chatID] = sess
	return *sess
}

// Update applies fn to the live session. It reports false when there is none.
func (s *Store) Update(chatID int64, fn func(*Session)) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	fn(sess)
	sess.ChatID = chatID
	return *sess, true
}

// Finish closes the chat's flow so no further choice or text is routed to it.
// The session and its tracked messages stay until the scheduled teardown.
func (s *Store) Finish(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[chatID]; ok {
		sess.Flow = FlowNone
		sess.Step = 0
		sess.Pending = PendingNone
	}
}

// Destroy drops the session immediately. Tracked messages stay for the next teardown.
func (s *Store) Destroy(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(chatID)
	delete(s.sessions, chatID)
}

// Track records a message id for bulk deletion on teardown.
func (s *Store) Track(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	s.mu.Lock()
	s.tracked[chatID] = append(s.tracked[chatID], messageID)
	s.mu.Unlock()
}

// Tracked returns the message ids currently tracked for the chat.
func (s *Store) Tracked(chatID int64) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.tracked[chatID]...)
}

// ScheduleDestroy arranges for the chat's tracked messages to be deleted and its
// session dropped after delay. A later call replaces the earlier one, and a
// session created in the meantime is left alone.
func (s *Store) ScheduleDestroy(chatID int64, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cancelLocked(chatID)

	var gen uint64
	if sess, ok := s.sessions[chatID]; ok {
		gen = sess.gen
	}

	td := &teardown{gen: gen}
	s.inflight.Add(1)
	td.timer = time.AfterFunc(delay, func() {
		defer s.inflight.Done()
		s.fire(chatID, td)
	})
	s.timers[chatID] = td
}

// Pending reports whether a teardown is scheduled for the chat.
func (s *Store) Pending(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[chatID]
	return ok
}

// Close stops every scheduled teardown and waits for running ones.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	for chatID := range s.timers {
		s.cancelLocked(chatID)
	}
	s.mu.Unlock()

	s.inflight.Wait()
}

func (s *Store) cancelLocked(chatID int64) {
	td, ok := s.timers[chatID]
	if !ok {
		return
	}
	if td.timer.Stop() {
		s.inflight.Done()
	}
	delete(s.timers, chatID)
}

func (s *Store) fire(chatID int64, td *teardown) {
	s.mu.Lock()
	if s.timers[chatID] != td {
		// replaced or cancelled while waiting for the lock
		s.mu.Unlock()
		return
	}
	delete(s.timers, chatID)

	ids := s.tracked[chatID]
	delete(s.tracked, chatID)

	if sess, ok := s.sessions[chatID]; ok && sess.gen == td.gen {
		delete(s.sessions, chatID)
	}
	s.mu.Unlock()

	if s.deleter == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	for _, id := range ids {
		if err := s.deleter.DeleteMessage(ctx, chatID, id); err != nil {
			s.logger.Debug().Err(err).Int64("chat_id", chatID).Int("message_id", id).Msg("cleanup delete failed")
		}
	}
}
