package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-memory Store used by tests. FailReads/FailWrites inject
// storage failures to exercise the degradation paths.
type MemStore struct {
	mu    sync.RWMutex
	items map[string]Item

	// PageSize controls query pagination; tests lower it to exercise the
	// continuation cursor.
	PageSize   int
	FailReads  error
	FailWrites error
	// BeforePut, when set, runs ahead of every Put; a non-nil return fails
	// that write. Lets tests fail the nth write of a multi-write flow.
	BeforePut func() error
}

func NewMemStore() *MemStore {
	return &MemStore{
		items:    map[string]Item{},
		PageSize: queryPageSize,
	}
}

func memKey(pk, sk string) string {
	return pk + "\x00" + sk
}

func (s *MemStore) Get(ctx context.Context, pk, sk string) (Item, error) {
	if s.FailReads != nil {
		return Item{}, s.FailReads
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[memKey(pk, sk)]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (s *MemStore) Query(ctx context.Context, pk, skPrefix, cursor string) (Page, error) {
	if s.FailReads != nil {
		return Page{}, s.FailReads
	}
	s.mu.RLock()
	var matched []Item
	for _, item := range s.items {
		if item.PK == pk && strings.HasPrefix(item.SK, skPrefix) && item.SK > cursor {
			matched = append(matched, item)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].SK < matched[j].SK })

	var page Page
	if len(matched) > s.PageSize {
		matched = matched[:s.PageSize]
	}
	page.Items = matched
	if len(matched) == s.PageSize {
		page.NextCursor = matched[len(matched)-1].SK
	}
	return page, nil
}

func (s *MemStore) Put(ctx context.Context, item Item) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}
	if s.BeforePut != nil {
		if err := s.BeforePut(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[memKey(item.PK, item.SK)] = item
	return nil
}

func (s *MemStore) Delete(ctx context.Context, pk, sk string) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, memKey(pk, sk))
	return nil
}

func (s *MemStore) BatchGet(ctx context.Context, keys []Key) ([]Item, error) {
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	if len(keys) > MaxBatchKeys {
		return nil, ErrTooManyKeys
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []Item
	for _, key := range keys {
		if item, ok := s.items[memKey(key.PK, key.SK)]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// Len reports the number of stored items.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = map[string]Item{}
	s.FailReads = nil
	s.FailWrites = nil
	s.BeforePut = nil
}
