package events

import "sync"

// Bus fans canonical events out to subscribers. Handlers run synchronously
// on the publishing goroutine in subscription order, so a publisher that
// publishes from a single goroutine gets ordered delivery.
type Bus struct {
	mu          sync.Mutex
	nextID      uint64
	subscribers []subscriber
}

type subscriber struct {
	id     uint64
	handle func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(event Event) {
	if b == nil || event == nil {
		return
	}

	b.mu.Lock()
	subscribers := make([]subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.Unlock()

	for _, s := range subscribers {
		s.handle(event)
	}
}

// SubscribeAll registers fn for every event kind.
func (b *Bus) SubscribeAll(fn func(Event)) (unsubscribe func()) {
	return b.add(fn)
}

// Subscribe registers fn for events of type E only.
//
//	unsubscribe := events.Subscribe(bus, func(e events.Audio) { ... })
func Subscribe[E Event](b *Bus, fn func(E)) (unsubscribe func()) {
	return b.add(func(event Event) {
		if typed, ok := event.(E); ok {
			fn(typed)
		}
	})
}

func (b *Bus) add(fn func(Event)) func() {
	if b == nil || fn == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscriber{id: id, handle: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s.id == id {
			b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
			return
		}
	}
}
