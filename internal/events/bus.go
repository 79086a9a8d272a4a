package events

import (
	"context"
	"sync"
	"time"
)

type Type string

const (
	MovementsChanged  Type = "movements:refresh"
	OperationsChanged Type = "operations:refresh"
	PaymentsChanged   Type = "payments:changed"
	RatesChanged      Type = "rates:refresh"
)

type Event struct {
	Type     Type      `json:"type"`
	BranchID uint      `json:"branch_id,omitempty"`
	EntityID string    `json:"entity_id,omitempty"`
	At       time.Time `json:"at"`
}

type Handler func(ctx context.Context, e Event)

// Publisher bildirimi yayınlayan taraf.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Bus süreç içi, tip güvenli bildirim dağıtıcısı. Her sunucu kendi Bus'ını kurar.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Type]map[int]Handler
	all    map[int]Handler
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[Type]map[int]Handler),
		all:  make(map[int]Handler),
	}
}

// Subscribe dönen fonksiyon aboneliği kaldırır.
func (b *Bus) Subscribe(t Type, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[t] == nil {
		b.subs[t] = make(map[int]Handler)
	}
	b.subs[t][id] = h

	return func() {
		b.mu.Lock()
		delete(b.subs[t], id)
		b.mu.Unlock()
	}
}

// SubscribeAll tüm tiplerdeki bildirimleri alır (ör. AMQP aktarıcı).
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.all[id] = h

	return func() {
		b.mu.Lock()
		delete(b.all, id)
		b.mu.Unlock()
	}
}

// Publish aboneleri çağıranın goroutine'inde, sırayla çalıştırır.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Type])+len(b.all))
	for _, h := range b.subs[e.Type] {
		handlers = append(handlers, h)
	}
	for _, h := range b.all {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, e)
	}
}

// Nop hiçbir şey yayınlamaz.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
