package project

import (
	"context"
	"sort"
	"sync"
	"time"

	"vrewgen/internal/model/project"
	"vrewgen/internal/pkg/mediabind"
)

// MemoryRepo keeps sessions in process memory. Stored values are copied in and out so
// callers never share state with the store.
type MemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]*project.Session
}

// NewMemoryRepo creates an empty store.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{sessions: make(map[string]*project.Session)}
}

// Create stores a new session.
func (r *MemoryRepo) Create(ctx context.Context, s *project.Session) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = clone(s)
	return nil
}

// FindByID returns a copy of the session.
func (r *MemoryRepo) FindByID(ctx context.Context, id string) (*project.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// Save replaces an existing session.
func (r *MemoryRepo) Save(ctx context.Context, s *project.Session) error {
	s.UpdatedAt = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	r.sessions[s.ID] = clone(s)
	return nil
}

// List returns sessions ordered by last update, newest first.
func (r *MemoryRepo) List(ctx context.Context, limit int64) ([]*project.Session, error) {
	r.mu.RLock()
	out := make([]*project.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		c := clone(s)
		c.Script = ""
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clone(s *project.Session) *project.Session {
	c := *s
	c.Markers = append(c.Markers[:0:0], s.Markers...)
	c.Scenes = append(c.Scenes[:0:0], s.Scenes...)
	c.Clips = append(c.Clips[:0:0], s.Clips...)
	c.Unresolved = append(c.Unresolved[:0:0], s.Unresolved...)
	c.Generations = append(c.Generations[:0:0], s.Generations...)
	c.Media.Bindings = make([]mediabind.Binding, len(s.Media.Bindings))
	for i, b := range s.Media.Bindings {
		if b.A != nil {
			a := *b.A
			b.A = &a
		}
		if b.B != nil {
			bb := *b.B
			b.B = &bb
		}
		c.Media.Bindings[i] = b
	}
	return &c
}
