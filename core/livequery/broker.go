package livequery

import "sync"

// Broker is an in-process Feed: repositories publish a Change after every
// write and subscribers get a buffered copy per table. Slow subscribers lose
// intermediate events, which is fine since consumers refetch the whole
// collection anyway.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Change
}

var _ Feed = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan Change)}
}

func (b *Broker) Subscribe(table string) (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[table] == nil {
		b.subs[table] = make(map[int]chan Change)
	}
	b.nextID++
	id := b.nextID
	ch := make(chan Change, 8)
	b.subs[table][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[table][id]; ok {
			delete(b.subs[table], id)
			close(sub)
		}
	}
	return ch, cancel
}

func (b *Broker) Publish(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[c.Table] {
		select {
		case ch <- c:
		default: // subscriber is behind; it will refetch on the next event
		}
	}
}
