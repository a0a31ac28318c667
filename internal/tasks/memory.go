package tasks

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps tasks in process memory with sequential ids starting at 1.
type MemoryStore struct {
	mu     sync.RWMutex
	tasks  map[int]*Task
	nextID int
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:  make(map[int]*Task),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) AddTask(_ context.Context, title string) (*Task, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := &Task{ID: s.nextID, Title: title, CreatedAt: now, UpdatedAt: now}
	s.tasks[t.ID] = t
	s.nextID++

	out := *t
	return &out, nil
}

func (s *MemoryStore) ListTasks(_ context.Context) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetTask(_ context.Context, id int) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	out := *t
	return &out, nil
}

func (s *MemoryStore) UpdateTask(_ context.Context, id int, title string) error {
	title, err := cleanTitle(title)
	if err != nil {
		return err
	}
	return s.mutate(id, func(t *Task) { t.Title = title })
}

func (s *MemoryStore) CompleteTask(_ context.Context, id int) error {
	return s.mutate(id, func(t *Task) { t.Completed = true })
}

func (s *MemoryStore) IncompleteTask(_ context.Context, id int) error {
	return s.mutate(id, func(t *Task) { t.Completed = false })
}

func (s *MemoryStore) DeleteTask(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *MemoryStore) mutate(id int, fn func(*Task)) error {
	if !validID(id) {
		return ErrTaskNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	fn(t)
	t.UpdatedAt = s.now()
	return nil
}
