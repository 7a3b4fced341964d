package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

type memRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*CatalogItem
	reads int
}

func newMemRepo(items ...*CatalogItem) *memRepo {
	r := &memRepo{items: map[uuid.UUID]*CatalogItem{}}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func (r *memRepo) Create(_ context.Context, item *CatalogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.Name == item.Name {
			return apperror.New(apperror.KindConflict, "catalog item %q already exists", item.Name)
		}
	}
	r.items[item.ID] = item
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*CatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if it, ok := r.items[id]; ok {
		return it, nil
	}
	return nil, apperror.NotFound("catalog item")
}

func (r *memRepo) GetByName(_ context.Context, name string) (*CatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	for _, it := range r.items {
		if it.Name == name {
			return it, nil
		}
	}
	return nil, apperror.NotFound("catalog item")
}

func (r *memRepo) List(_ context.Context) ([]*CatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	out := []*CatalogItem{}
	for _, it := range r.items {
		out = append(out, it)
	}
	return out, nil
}

func (r *memRepo) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}
