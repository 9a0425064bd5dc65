package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"whereabouts/internal/domain"
)

// Snapshot is one delivery to a watch subscriber: the full set of
// samples visible to that subscriber at a point in time. Version is
// monotonic per hub; a subscriber never observes versions going
// backwards.
type Snapshot struct {
	Version uint64
	Samples []domain.LocationSample
	Err     error
}

// Subscription is one viewer's live feed of visibility snapshots.
// Updates carries at most one pending snapshot: when recomputation
// outpaces the consumer, intermediate snapshots are coalesced and only
// the latest is delivered.
type Subscription struct {
	id     string
	viewer string

	mu          sync.Mutex
	ch          chan Snapshot
	closed      bool
	lastVersion uint64

	unsubscribe func()
}

// Updates returns the snapshot channel. It is closed by Close, after
// which no further sends occur.
func (s *Subscription) Updates() <-chan Snapshot { return s.ch }

// Close unregisters the subscription. After Close returns, nothing
// sends on Updates.
func (s *Subscription) Close() {
	s.unsubscribe()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || snap.Version < s.lastVersion {
		return
	}
	s.lastVersion = snap.Version

	// Coalesce: drop any undelivered snapshot, then send. The channel
	// has capacity one and deliveries are serialized by s.mu, so the
	// send cannot block.
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

// Hub fans visibility changes out to watch subscribers. It listens for
// share-graph and location mutations, recomputes each subscriber's
// visible set, and delivers versioned snapshots.
type Hub struct {
	resolver *VisibilityService
	logger   *slog.Logger
	timeout  time.Duration

	version atomic.Uint64

	mu   sync.RWMutex
	subs map[string]*Subscription
}

var _ ChangeListener = (*Hub)(nil)

func NewHub(resolver *VisibilityService, logger *slog.Logger) *Hub {
	return &Hub{
		resolver: resolver,
		logger:   logger,
		timeout:  10 * time.Second,
		subs:     make(map[string]*Subscription),
	}
}

// Subscribe registers a viewer and immediately delivers an initial
// snapshot so the consumer does not wait for the next mutation.
func (h *Hub) Subscribe(ctx context.Context, viewer string) (*Subscription, error) {
	if !domain.ValidIdentifier(viewer) {
		return nil, domain.ErrValidation("invalid viewer identifier %q", viewer)
	}

	sub := &Subscription{
		id:     uuid.NewString(),
		viewer: viewer,
		ch:     make(chan Snapshot, 1),
	}
	sub.unsubscribe = func() {
		h.mu.Lock()
		delete(h.subs, sub.id)
		h.mu.Unlock()
	}

	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()

	samples, err := h.resolver.VisibleTo(ctx, viewer)
	sub.deliver(Snapshot{Version: h.version.Add(1), Samples: samples, Err: err})
	return sub, nil
}

func (h *Hub) ShareGraphChanged(ctx context.Context, owner string) { h.broadcast(owner) }
func (h *Hub) LocationChanged(ctx context.Context, owner string)   { h.broadcast(owner) }

// broadcast recomputes every subscriber's visible set. The version is
// assigned before the recomputations fan out, so late-finishing older
// broadcasts are dropped by deliver's version check.
func (h *Hub) broadcast(owner string) {
	version := h.version.Add(1)

	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		go func(sub *Subscription) {
			ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
			defer cancel()

			samples, err := h.resolver.VisibleTo(ctx, sub.viewer)
			if err != nil {
				h.logger.Warn("snapshot recomputation failed",
					"viewer", sub.viewer,
					"changed_owner", owner,
					"error", err,
				)
			}
			sub.deliver(Snapshot{Version: version, Samples: samples, Err: err})
		}(sub)
	}
}
