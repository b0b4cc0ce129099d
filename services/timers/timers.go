package timers

import (
	"log"
	"sync"
	"time"
)

// Service owns the deferred single-shot tasks of a match: the per-room
// turn deadline and the per-player disconnect grace. Cancelling a task
// and its firing are mutually exclusive, so an action never runs after
// a successful cancel and a fired task cannot be cancelled once its
// action started.
type Service struct {
	mu          sync.Mutex
	turns       map[string]*task
	disconnects map[graceKey]*task
}

// task wraps one scheduled firing. timer is nil for metadata-only turn
// entries (clients drive the deadline themselves).
type task struct {
	start    time.Time
	duration time.Duration
	timer    *time.Timer
}

type graceKey struct {
	username string
	room     string
}

func NewService() *Service {
	return &Service{
		turns:       make(map[string]*task),
		disconnects: make(map[graceKey]*task),
	}
}

// ArmTurn replaces the room's turn deadline. When expire is nil only
// the start/duration metadata is recorded; otherwise expire runs once
// the duration elapses, unless the entry is cancelled or rearmed first.
func (s *Service) ArmTurn(room string, d time.Duration, expire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.turns[room]; ok {
		prev.stop()
	}
	entry := &task{start: time.Now(), duration: d}
	s.turns[room] = entry
	if expire != nil {
		entry.timer = time.AfterFunc(d, func() {
			s.fireTurn(room, entry, expire)
		})
	}
}

func (s *Service) fireTurn(room string, entry *task, expire func()) {
	s.mu.Lock()
	if s.turns[room] != entry {
		s.mu.Unlock()
		return
	}
	delete(s.turns, room)
	s.mu.Unlock()

	log.Printf("[TIMER] Turn deadline expired in room %s", room)
	expire()
}

// TurnDeadline reports when the room's current turn started and how
// long it lasts. ok is false when no deadline is armed.
func (s *Service) TurnDeadline(room string) (start time.Time, duration time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.turns[room]
	if !ok {
		return time.Time{}, 0, false
	}
	return entry.start, entry.duration, true
}

// CancelTurn drops the room's turn deadline, if any.
func (s *Service) CancelTurn(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.turns[room]; ok {
		entry.stop()
		delete(s.turns, room)
	}
}

// ScheduleDisconnect arms the grace period for a player who dropped
// their connection. A second schedule for the same player and room
// restarts the grace.
func (s *Service) ScheduleDisconnect(username, room string, d time.Duration, expire func()) {
	key := graceKey{username: username, room: room}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.disconnects[key]; ok {
		prev.stop()
	}
	entry := &task{start: time.Now(), duration: d}
	s.disconnects[key] = entry
	entry.timer = time.AfterFunc(d, func() {
		s.fireDisconnect(key, entry, expire)
	})
}

func (s *Service) fireDisconnect(key graceKey, entry *task, expire func()) {
	s.mu.Lock()
	if s.disconnects[key] != entry {
		s.mu.Unlock()
		return
	}
	delete(s.disconnects, key)
	s.mu.Unlock()

	log.Printf("[TIMER] Disconnect grace expired for %s in room %s", key.username, key.room)
	expire()
}

// CancelDisconnect stops a pending grace timer. It reports whether one
// was still pending, so callers can tell a reconnect-in-time apart
// from a late one.
func (s *Service) CancelDisconnect(username, room string) bool {
	key := graceKey{username: username, room: room}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.disconnects[key]
	if !ok {
		return false
	}
	entry.stop()
	delete(s.disconnects, key)
	return true
}

func (t *task) stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}
