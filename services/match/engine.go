package match

import (
	"errors"
	"log"
	"sync"
	"time"

	game_constants "forestfight/constants/game"
	postgres_models "forestfight/models/postgres"
	redis_models "forestfight/models/redis"
	redis_services "forestfight/services/redis"
	"forestfight/services/timers"
)

// Broadcaster fans plaintext payloads out to the sockets of a room.
// The transport layer personalizes each payload per recipient; a
// failure for one recipient never surfaces back here.
type Broadcaster interface {
	ToRoom(room string, event string, payload map[string]interface{})
	ToPlayer(room string, username string, event string, payload map[string]interface{})
}

// AbilitySource resolves ability names to their catalog records.
// Missing abilities surface as gorm.ErrRecordNotFound.
type AbilitySource interface {
	GetAbility(name string) (*postgres_models.Ability, error)
}

// ResultSink records a finished match. Recording failures are logged
// and never fail the match end itself.
type ResultSink interface {
	RecordResult(roomCode string, winner string, turns int, winners []string, participants []string)
}

// Config carries the tunable policy knobs of the engine.
type Config struct {
	TurnDuration      time.Duration
	DisconnectGrace   time.Duration
	RequireBothGroups bool
	AutoSkip          bool
}

func DefaultConfig() Config {
	return Config{
		TurnDuration:      game_constants.TurnDuration,
		DisconnectGrace:   game_constants.DisconnectGrace,
		RequireBothGroups: true,
		AutoSkip:          false,
	}
}

// Engine serializes every state mutation of a room behind that room's
// lock and keeps the store, the timers and the connected sockets
// consistent with each other.
type Engine struct {
	store     *redis_services.RedisClient
	abilities AbilitySource
	registry  *Registry
	timers    *timers.Service
	bcast     Broadcaster
	results   ResultSink
	cfg       Config

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewEngine(store *redis_services.RedisClient, abilities AbilitySource, registry *Registry, timerSvc *timers.Service, bcast Broadcaster, results ResultSink, cfg Config) *Engine {
	return &Engine{
		store:     store,
		abilities: abilities,
		registry:  registry,
		timers:    timerSvc,
		bcast:     bcast,
		results:   results,
		cfg:       cfg,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Registry exposes the session registry to the transport layer.
func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) roomLock(code string) *sync.Mutex {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()

	lock, ok := e.locks[code]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[code] = lock
	}
	return lock
}

// withRoom runs fn with the room's lock held and the freshly loaded
// document. Timer firings use the same path, so they serialize with
// client events.
func (e *Engine) withRoom(code string, fn func(room *redis_models.Room) error) error {
	lock := e.roomLock(code)
	lock.Lock()
	defer lock.Unlock()

	room, err := e.store.GetRoom(code)
	if err != nil {
		if errors.Is(err, redis_services.ErrRoomNotFound) {
			return NotFoundf("Room not found")
		}
		log.Printf("[MATCH] Error loading room %s: %v", code, err)
		return Storef("Error loading room")
	}
	return fn(room)
}

// saveRoom persists the document wholesale. Each operation calls it at
// most once, after all in-memory mutation is done.
func (e *Engine) saveRoom(room *redis_models.Room) error {
	if err := e.store.SaveRoom(room); err != nil {
		log.Printf("[MATCH] Error saving room %s: %v", room.Code, err)
		return Storef("Error saving room")
	}
	return nil
}
