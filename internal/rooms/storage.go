package rooms

import (
	"fmt"
	"sync"

	"tunetrivia/internal/gamedata"
)

type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
	cfg   gamedata.Config
}

func NewStore(cfg gamedata.Config) *Store {
	return &Store{
		rooms: make(map[string]*Room),
		cfg:   cfg,
	}
}

// Create registers a room under code. An empty code gets a generated one.
// A single-player room auto-joins host; any other room stays hostless until
// its first player joins.
func (s *Store) Create(code string, settings gamedata.Settings, host, avatar string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if code == "" {
		generated, err := s.uniqueCode()
		if err != nil {
			return nil, err
		}
		code = generated
	}
	if _, exists := s.rooms[code]; exists {
		return nil, ErrRoomExists
	}

	room := newRoom(code, s.cfg.Normalize(settings))
	if room.MaxPlayers() == 1 && host != "" {
		if err := room.Join(host, avatar); err != nil {
			return nil, fmt.Errorf("auto-joining solo host: %w", err)
		}
	}
	s.rooms[code] = room
	return room, nil
}

func (s *Store) uniqueCode() (string, error) {
	// Try up to 10 times to generate a unique code
	for range 10 {
		code, err := GenerateCode()
		if err != nil {
			return "", fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique room code after 10 attempts")
}

func (s *Store) Get(code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *Store) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
