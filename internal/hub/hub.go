// Package hub implements a subject hub: a sparse, reference-counted
// broadcast registry. A subject's channel is created lazily on first
// subscribe and torn down once its last subscriber releases it, the same
// create-on-demand / destroy-on-zero lifecycle the original event producer
// applies to its per-order-type broadcast channels.
package hub

import "sync"

// Hub fans a keyed stream of messages out to any number of subscribers per
// key, without holding a channel open for keys nobody is watching.
type Hub[K comparable, T any] struct {
	mu      sync.Mutex
	subs    map[K]*subject[T]
	bufSize int
}

type subject[T any] struct {
	ch       chan T
	refcount int
}

// New constructs a Hub whose per-subject channels are buffered to bufSize.
// A full channel causes Broadcast to drop the message for that subscriber
// rather than block the ingest loop.
func New[K comparable, T any](bufSize int) *Hub[K, T] {
	return &Hub[K, T]{
		subs:    make(map[K]*subject[T]),
		bufSize: bufSize,
	}
}

// Subscription is a single subscriber's handle on one subject. Close must
// be called exactly once when the subscriber is done.
type Subscription[K comparable, T any] struct {
	hub   *Hub[K, T]
	key   K
	ch    chan T
	once  sync.Once
}

// C returns the channel to receive messages on.
func (s *Subscription[K, T]) C() <-chan T { return s.ch }

// Close releases this subscription's hold on the subject. The refcount
// decrement happens on a separate goroutine, matching the original
// receiver's detached drop handler — the caller does not wait on it.
func (s *Subscription[K, T]) Close() {
	s.once.Do(func() {
		go s.hub.release(s.key)
	})
}

// Subscribe returns a Subscription for key, creating the subject's channel
// if this is the first subscriber.
func (h *Hub[K, T]) Subscribe(key K) *Subscription[K, T] {
	h.mu.Lock()
	s, ok := h.subs[key]
	if !ok {
		s = &subject[T]{ch: make(chan T, h.bufSize)}
		h.subs[key] = s
	}
	s.refcount++
	h.mu.Unlock()

	return &Subscription[K, T]{hub: h, key: key, ch: s.ch}
}

func (h *Hub[K, T]) release(key K) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.subs[key]
	if !ok {
		return
	}
	s.refcount--
	if s.refcount <= 0 {
		delete(h.subs, key)
	}
}

// Broadcast delivers msg to the subject's channel if one exists (i.e. at
// least one subscriber is attached). It returns false when there is no
// subject for key, or when the subject's channel is full and the message
// was dropped.
func (h *Hub[K, T]) Broadcast(key K, msg T) bool {
	h.mu.Lock()
	s, ok := h.subs[key]
	h.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// SubjectCount reports how many distinct subjects currently have at least
// one subscriber.
func (h *Hub[K, T]) SubjectCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// SubscriberCount reports the refcount for key, or 0 if it has no subject.
func (h *Hub[K, T]) SubscriberCount(key K) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[key]; ok {
		return s.refcount
	}
	return 0
}
