package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fleetsync/internal/broadcast/domain"
	fleetdomain "fleetsync/internal/fleet/domain"
	sharedlogger "fleetsync/internal/shared/logger"
)

const (
	DefaultQueueSize   = 8
	DefaultSendTimeout = 5 * time.Second
)

type Options struct {
	// QueueSize bounds the messages waiting for one observer. An observer
	// whose queue is full when a change arrives is dropped.
	QueueSize   int
	SendTimeout time.Duration
	Now         func() time.Time
}

// Hub fans committed changes out to every registered observer. Each observer
// has its own writer goroutine, so a slow connection never delays the others.
type Hub struct {
	logger      sharedlogger.Logger
	queueSize   int
	sendTimeout time.Duration
	now         func() time.Time

	mu        sync.Mutex
	observers map[string]*peer
	closed    bool
	writers   sync.WaitGroup
}

type peer struct {
	obs   domain.Observer
	queue chan []byte
	done  chan struct{}
	once  sync.Once
}

func (p *peer) stop() {
	p.once.Do(func() { close(p.done) })
}

func NewHub(logger sharedlogger.Logger, opts Options) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Hub{
		logger:      logger,
		queueSize:   opts.QueueSize,
		sendTimeout: opts.SendTimeout,
		now:         opts.Now,
		observers:   make(map[string]*peer),
	}
}

// Register adds obs to the fan-out set. If initial is non-nil it is the
// first message obs receives. Past changes are not replayed. An id can only
// be registered once at a time.
func (h *Hub) Register(obs domain.Observer, initial []byte) error {
	p := &peer{
		obs:   obs,
		queue: make(chan []byte, h.queueSize),
		done:  make(chan struct{}),
	}
	if initial != nil {
		p.queue <- initial
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return domain.ErrHubClosed
	}
	if _, ok := h.observers[obs.ID()]; ok {
		h.mu.Unlock()
		return domain.ErrObserverRegistered
	}
	h.observers[obs.ID()] = p
	h.writers.Add(1)
	h.mu.Unlock()

	go h.write(p)

	h.logger.Info("Observer registered", "observer", obs.ID(), "observers", h.Count())
	return nil
}

// Unregister removes the observer with the given id and closes it. Unknown
// ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	p, ok := h.observers[id]
	if ok {
		delete(h.observers, id)
	}
	h.mu.Unlock()

	if ok {
		p.stop()
		h.logger.Info("Observer unregistered", "observer", id)
	}
}

// Count returns the number of registered observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Publish implements fleet/domain.Publisher. The message is encoded once and
// queued for every observer without blocking.
func (h *Hub) Publish(ctx context.Context, change fleetdomain.Change) {
	data, err := json.Marshal(domain.NewMessage(change, h.now()))
	if err != nil {
		h.logger.Error("Failed to encode change", "err", err)
		return
	}

	h.mu.Lock()
	peers := make([]*peer, 0, len(h.observers))
	for _, p := range h.observers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		select {
		case p.queue <- data:
		default:
			h.logger.Warn("Observer not keeping up, dropping", "observer", p.obs.ID(), "queue", h.queueSize)
			h.drop(p)
		}
	}

	h.logger.Debug("Change published", "observers", len(peers), "entities", len(change.Entities), "removed", len(change.Removed))
}

// Close unregisters every observer and waits for their writers to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	peers := h.observers
	h.observers = make(map[string]*peer)
	h.mu.Unlock()

	for _, p := range peers {
		p.stop()
	}
	h.writers.Wait()
}

// drop removes p if it is still the registered peer for its id.
func (h *Hub) drop(p *peer) {
	id := p.obs.ID()
	h.mu.Lock()
	if h.observers[id] == p {
		delete(h.observers, id)
	}
	h.mu.Unlock()
	p.stop()
}

func (h *Hub) write(p *peer) {
	defer h.writers.Done()
	defer func() {
		if err := p.obs.Close(); err != nil {
			h.logger.Debug("Observer close failed", "observer", p.obs.ID(), "err", err)
		}
	}()

	for {
		select {
		case <-p.done:
			return
		case data := <-p.queue:
			if err := h.send(p, data); err != nil {
				h.logger.Warn("Failed to send to observer, dropping", "observer", p.obs.ID(), "err", err)
				h.drop(p)
				return
			}
		}
	}
}

func (h *Hub) send(p *peer, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.sendTimeout)
	defer cancel()
	return p.obs.Send(ctx, data)
}
