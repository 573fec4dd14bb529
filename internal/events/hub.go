package events

import (
	"sync"

	"github.com/TWeb79/appscout/internal/logger"
	"github.com/TWeb79/appscout/internal/metrics"
)

// observerBuffer is the channel depth given to each observer. An observer
// that falls further behind than this starts losing events; that is the
// contract, not a bug.
const observerBuffer = 16

// Hub manages in-process observers and fans events out to them. It is
// independent of net/http and the websocket transport so the orchestrator,
// schedulers and tests can all emit and subscribe directly.
type Hub struct {
	mu         sync.RWMutex
	observers  map[string]chan Event
	register   chan registration
	unregister chan string
	broadcast  chan Event
	shutdown   chan struct{}
	log        logger.Logger
}

type registration struct {
	id string
	ch chan Event
}

// NewHub creates and starts a Hub.
func NewHub(log logger.Logger) *Hub {
	h := &Hub{
		observers:  make(map[string]chan Event),
		register:   make(chan registration),
		unregister: make(chan string),
		broadcast:  make(chan Event, 100),
		shutdown:   make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case reg := <-h.register:
			h.mu.Lock()
			h.observers[reg.id] = reg.ch
			h.mu.Unlock()
		case id := <-h.unregister:
			h.mu.Lock()
			if ch, ok := h.observers[id]; ok {
				close(ch)
				delete(h.observers, id)
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.RLock()
			for id, ch := range h.observers {
				select {
				case ch <- event:
				default:
					// Observer's buffer is full; skip rather than block the hub.
					metrics.EventsDroppedTotal.Inc()
					h.log.Debug("observer channel full, dropping event",
						logger.String("observer", id),
						logger.String("event", event.Type))
				}
			}
			h.mu.RUnlock()
		case <-h.shutdown:
			h.mu.Lock()
			for id, ch := range h.observers {
				close(ch)
				delete(h.observers, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Subscribe registers a new observer and returns its channel. The id must
// be unique among connected observers; use it to Unsubscribe.
func (h *Hub) Subscribe(id string) <-chan Event {
	ch := make(chan Event, observerBuffer)
	select {
	case h.register <- registration{id: id, ch: ch}:
	case <-h.shutdown:
		close(ch)
	}
	return ch
}

// Unsubscribe removes the observer and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	select {
	case h.unregister <- id:
	case <-h.shutdown:
	}
}

// Emit fans the event out to all currently connected observers,
// non-blocking per observer. Events emitted while nobody listens are lost.
func (h *Hub) Emit(event Event) {
	select {
	case h.broadcast <- event:
	default:
		// Broadcast queue full; drop rather than stall the pipeline.
		metrics.EventsDroppedTotal.Inc()
	}
}

// ObserverCount returns the number of connected observers.
func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// Stop shuts the hub down and closes all observer channels.
func (h *Hub) Stop() {
	close(h.shutdown)
}
