package wallet

import "sync"

// EventType names a key manager event.
type EventType string

const (
	EventAdd    EventType = "add"
	EventUpdate EventType = "update"
	EventChange EventType = "change"
	EventUnlock EventType = "unlock"
	EventLock   EventType = "lock"
)

// Event is delivered to subscribers. Key is set for add and update, Keys
// for change. Keys are copies without plaintext private keys.
type Event struct {
	Type EventType
	Key  *Key
	Keys []*Key
}

type subscriber struct {
	id int
	fn func(Event)
}

// emitter delivers events synchronously in subscription order.
type emitter struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

func (e *emitter) subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, s := range e.subs {
				if s.id == id {
					e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	subs := append([]subscriber(nil), e.subs...)
	e.mu.Unlock()
	for _, s := range subs {
		s.fn(ev)
	}
}
