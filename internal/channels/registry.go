package channels

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Baguette21/ECTrivia/internal/game"
	"github.com/Baguette21/ECTrivia/internal/store"
)

// Registry holds every live room's manager, keyed by room code
// (case-insensitive). The map is the only shared structure between
// rooms; each manager runs fully in parallel with the others. Creation
// is single-writer: two concurrent creates for the same new code can
// never produce two managers.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*RoomManager

	grace  time.Duration
	logger *slog.Logger
	st     store.Store
	pub    Publisher
}

func NewRegistry(st store.Store, pub Publisher, logger *slog.Logger, grace time.Duration) *Registry {
	return &Registry{
		rooms:  make(map[string]*RoomManager),
		grace:  grace,
		logger: logger,
		st:     st,
		pub:    pub,
	}
}

// Create registers a manager for a new room and starts its command
// loop. The code is a candidate from the external issuer; a collision
// with a live room is rejected with ErrRoomCodeExists so the caller can
// retry with a fresh candidate.
func (g *Registry) Create(room *game.Room) (*RoomManager, error) {
	code := strings.ToUpper(room.Code)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.rooms[code]; exists {
		return nil, game.ErrRoomCodeExists
	}
	rm := NewRoomManager(room, g.st, g.pub, g.logger, g.scheduleEviction)
	g.rooms[code] = rm
	go rm.Start()

	g.logger.Info("room registered", "room_code", code)
	return rm, nil
}

func (g *Registry) Get(code string) (*RoomManager, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rm, ok := g.rooms[strings.ToUpper(code)]
	if !ok {
		return nil, game.ErrRoomNotFound
	}
	return rm, nil
}

// Remove stops a room's manager and drops it from the map.
func (g *Registry) Remove(code string) {
	code = strings.ToUpper(code)

	g.mu.Lock()
	rm, ok := g.rooms[code]
	if ok {
		delete(g.rooms, code)
	}
	g.mu.Unlock()

	if ok {
		rm.Stop()
		g.logger.Info("room evicted", "room_code", code)
	}
}

// scheduleEviction is handed to every manager as its onEnded hook: an
// ENDED room stays queryable for the grace period, then its registry
// entry is evicted.
func (g *Registry) scheduleEviction(code string) {
	time.AfterFunc(g.grace, func() {
		g.Remove(code)
	})
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
