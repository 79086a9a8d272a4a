package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// LRU boyut ve hareketsizlik süresiyle sınırlı önbellek.
// Her Get kaydın süresini yeniler; dokunulmayan kayıt ttl sonunda düşer.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
	now     func() time.Time
	onEvict func(key string, v T)
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// OnEvict süre dolduğunda veya kapasite aşıldığında çağrılır. Delete ile silinenlerde çağrılmaz.
func (c *LRU[T]) OnEvict(fn func(key string, v T)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}

	e := el.Value.(*entry[T])
	now := c.now()
	if now.After(e.expiresAt) {
		c.evict(el)
		return zero, false
	}

	e.expiresAt = now.Add(c.ttl)
	c.order.MoveToFront(el)
	return e.value, true
}

func (c *LRU[T]) Set(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: v, expiresAt: c.now().Add(c.ttl)}
	if el, ok := c.items[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.evict(oldest)
		}
	}
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanExpired süresi dolanları siler, silinen sayısını döner.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry[T]).expiresAt) {
			c.evict(el)
			n++
		}
		el = prev
	}
	return n
}

// Janitor ctx iptal edilene kadar periyodik temizlik yapar.
func (c *LRU[T]) Janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CleanExpired()
		}
	}
}

func (c *LRU[T]) evict(el *list.Element) {
	e := el.Value.(*entry[T])
	c.remove(el)
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}

func (c *LRU[T]) remove(el *list.Element) {
	delete(c.items, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}
