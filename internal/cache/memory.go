package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

// DefaultCapacity is the memory backend's entry limit when none is configured.
const DefaultCapacity = 10_000

// Memory is an in-process LRU with per-entry TTL, for single-instance
// deployments without Redis.
type Memory struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	gen  int64
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type entry struct {
	key     string
	toilets []model.Toilet
	exp     time.Time
}

func NewMemory(capacity int, ttl time.Duration) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		cap:  capacity,
		ttl:  ttl,
		lst:  list.New(),
		dict: make(map[string]*list.Element),
		now:  time.Now,
	}
}

func (c *Memory) Backend() string { return "memory" }

func (c *Memory) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

// Get returns a copy of the cached slice so callers cannot mutate the entry.
func (c *Memory) Get(_ context.Context, key string) ([]model.Toilet, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[key]
	if !ok {
		return nil, false, nil
	}
	it := e.Value.(*entry)
	if !c.now().Before(it.exp) {
		c.lst.Remove(e)
		delete(c.dict, key)
		return nil, false, nil
	}
	c.lst.MoveToFront(e)
	out := make([]model.Toilet, len(it.toilets))
	copy(out, it.toilets)
	return out, true, nil
}

func (c *Memory) Set(_ context.Context, key string, toilets []model.Toilet) error {
	stored := make([]model.Toilet, len(toilets))
	copy(stored, toilets)

	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	if e, ok := c.dict[key]; ok {
		e.Value = &entry{key: key, toilets: stored, exp: exp}
		c.lst.MoveToFront(e)
		return nil
	}
	c.dict[key] = c.lst.PushFront(&entry{key: key, toilets: stored, exp: exp})
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(*entry).key)
		c.lst.Remove(back)
	}
	return nil
}

// InvalidateAll bumps the generation and drops every entry.
func (c *Memory) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lst.Init()
	c.dict = make(map[string]*list.Element)
	return nil
}

// Len reports the number of stored entries, including expired ones not yet evicted.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
