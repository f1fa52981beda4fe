package storage

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/megaglest/masterserver/internal/serverlist"
)

var (
	// ErrInvalidCapacity indicates a non-positive recent servers capacity.
	ErrInvalidCapacity = errors.New("recent servers capacity must be a positive integer")
	// ErrInvalidServer indicates a server without an address.
	ErrInvalidServer = errors.New("server must have an IP address")
)

// Storage keeps the most recently seen game servers.
type Storage interface {
	Record(server serverlist.Server) error
	List() []serverlist.Server
	Len() int
	Forget(address string) bool
}

// Option configures a MemoryStorage.
type Option func(*MemoryStorage)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.clock = clock
	}
}

// MemoryStorage keeps at most capacity servers in-memory, most recent first,
// and guards access with a RWMutex.
type MemoryStorage struct {
	mu             sync.RWMutex
	servers        []serverlist.Server
	capacity       int
	defaultCountry string
	clock          func() time.Time
}

// NewMemoryStorage creates an empty store holding up to capacity servers.
// Servers recorded without a country get defaultCountry.
func NewMemoryStorage(capacity int, defaultCountry string, opts ...Option) (*MemoryStorage, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	s := &MemoryStorage{
		servers:        make([]serverlist.Server, 0, capacity),
		capacity:       capacity,
		defaultCountry: defaultCountry,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record moves server to the front of the list, replacing any entry with the
// same address, and evicts the oldest entries beyond capacity.
func (s *MemoryStorage) Record(server serverlist.Server) error {
	if strings.TrimSpace(server.IPAddress) == "" {
		return ErrInvalidServer
	}
	if server.Country == "" {
		server.Country = s.defaultCountry
	}
	if server.LastSeen.IsZero() {
		server.LastSeen = s.clock()
	}

	address := server.Address()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]serverlist.Server, 0, s.capacity)
	kept = append(kept, server)
	for _, existing := range s.servers {
		if len(kept) == s.capacity {
			break
		}
		if existing.Address() == address {
			continue
		}
		kept = append(kept, existing)
	}
	s.servers = kept

	return nil
}

// List returns a copy of the stored servers, most recent first.
func (s *MemoryStorage) List() []serverlist.Server {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]serverlist.Server, len(s.servers))
	copy(out, s.servers)
	return out
}

func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.servers)
}

// Forget removes the server with the given host:port address.
func (s *MemoryStorage) Forget(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.servers {
		if existing.Address() == address {
			s.servers = append(s.servers[:i:i], s.servers[i+1:]...)
			return true
		}
	}
	return false
}

// Capacity reports the maximum number of servers kept.
func (s *MemoryStorage) Capacity() int {
	return s.capacity
}
