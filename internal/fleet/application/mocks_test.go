package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"fleetsync/internal/fleet/domain"
)

// eventLog records the order in which collaborators were touched.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// mockStore is an in-memory domain.Store.
type mockStore struct {
	mu       sync.Mutex
	entities map[int64]domain.Entity
	nextID   int64
	log      *eventLog

	loadErr   error
	writeErr  error
	onLoadAll func()
}

func newMockStore(log *eventLog) *mockStore {
	return &mockStore{entities: make(map[int64]domain.Entity), log: log}
}

func (s *mockStore) seed(name string, pos domain.Position) domain.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e := domain.Entity{ID: s.nextID, Name: name, Position: pos, Status: domain.StatusIdle, UpdatedAt: time.Now()}
	s.entities[e.ID] = e
	return e
}

func (s *mockStore) LoadAll(ctx context.Context) (domain.Snapshot, error) {
	if s.onLoadAll != nil {
		s.onLoadAll()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(domain.Snapshot, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *mockStore) Get(ctx context.Context, id int64) (domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return domain.Entity{}, s.loadErr
	}
	e, ok := s.entities[id]
	if !ok {
		return domain.Entity{}, domain.ErrNotFound
	}
	return e, nil
}

func (s *mockStore) Insert(ctx context.Context, name string, pos domain.Position, status domain.Status) (domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return domain.Entity{}, s.writeErr
	}
	s.nextID++
	e := domain.Entity{ID: s.nextID, Name: name, Position: pos, Status: status, UpdatedAt: time.Now()}
	s.entities[e.ID] = e
	s.record("write")
	return e, nil
}

func (s *mockStore) UpdatePosition(ctx context.Context, id int64, pos domain.Position, status domain.Status) (domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return domain.Entity{}, s.writeErr
	}
	e, ok := s.entities[id]
	if !ok {
		return domain.Entity{}, domain.ErrNotFound
	}
	e.Position = pos
	e.Status = status
	e.UpdatedAt = time.Now()
	s.entities[id] = e
	s.record("write")
	return e, nil
}

func (s *mockStore) UpdatePositions(ctx context.Context, updates []domain.PositionUpdate) ([]domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	var out []domain.Entity
	for _, u := range updates {
		e, ok := s.entities[u.ID]
		if !ok {
			continue
		}
		e.Position = u.Position
		e.Status = u.Status
		s.entities[u.ID] = e
		out = append(out, e)
	}
	s.record("write")
	return out, nil
}

func (s *mockStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if _, ok := s.entities[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.entities, id)
	s.record("write")
	return nil
}

func (s *mockStore) record(event string) {
	if s.log != nil {
		s.log.add(event)
	}
}

// mockCache is a TTL-less domain.Cache that counts calls.
type mockCache struct {
	mu            sync.Mutex
	entry         domain.Snapshot
	present       bool
	sets          int
	invalidations int
	log           *eventLog
}

func (c *mockCache) Get(ctx context.Context) (domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.present {
		return nil, false
	}
	return c.entry.Clone(), true
}

func (c *mockCache) Set(ctx context.Context, snapshot domain.Snapshot, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = snapshot.Clone()
	c.present = true
	c.sets++
}

func (c *mockCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
	c.present = false
	c.invalidations++
	if c.log != nil {
		c.log.add("invalidate")
	}
}

func (c *mockCache) counts() (sets, invalidations int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets, c.invalidations
}

// mockPublisher records every change.
type mockPublisher struct {
	mu      sync.Mutex
	changes []domain.Change
	log     *eventLog
}

func (p *mockPublisher) Publish(ctx context.Context, change domain.Change) {
	p.mu.Lock()
	p.changes = append(p.changes, change)
	p.mu.Unlock()
	if p.log != nil {
		p.log.add("publish")
	}
}

func (p *mockPublisher) all() []domain.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Change(nil), p.changes...)
}

func (p *mockPublisher) last() (domain.Change, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.changes) == 0 {
		return domain.Change{}, false
	}
	return p.changes[len(p.changes)-1], true
}

var errDiskGone = errors.New("disk I/O error")
