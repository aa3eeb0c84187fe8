package store

import (
	"sync"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// Hub fans change notifications out to subscribers. Notifications carry no
// payload: receivers re-read whatever they are interested in. Delivery is
// asynchronous so a writer never waits on its readers.
type Hub struct {
	bus EventBus.Bus

	mu     sync.Mutex
	nextID uint64
	topics map[string]map[uint64]func()
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		bus:    EventBus.New(),
		topics: make(map[string]map[uint64]func()),
	}
}

// Subscribe registers fn for topic and returns a function that removes it.
// The returned function is safe to call more than once. When the bus refuses
// the topic the failure is logged, fn is never called and the next Subscribe
// to the topic tries again.
func (h *Hub) Subscribe(topic string, fn func()) (cancel func()) {
	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		// one bus handler per topic; subscribers are tracked here because the
		// bus cannot tell two closures from the same literal apart on Unsubscribe
		if err := h.bus.SubscribeAsync(topic, h.dispatch, false); err != nil {
			h.mu.Unlock()
			zap.L().Error("Failed to subscribe to hub topic", zap.String("topic", topic), zap.Error(err))
			return func() {}
		}
		subs = make(map[uint64]func())
		h.topics[topic] = subs
	}
	h.nextID++
	id := h.nextID
	subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.topics[topic], id)
			h.mu.Unlock()
		})
	}
}

// Publish notifies every subscriber of topic
func (h *Hub) Publish(topic string) {
	h.bus.Publish(topic, topic)
}

// Wait blocks until every in-flight notification has been delivered
func (h *Hub) Wait() {
	h.bus.WaitAsync()
}

func (h *Hub) dispatch(topic string) {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.topics[topic]))
	for _, fn := range h.topics[topic] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
