package util

import "sync"

type (
	// Hub is a non-blocking fan-out of values to subscribed consumers. A
	// consumer whose buffer is full misses the value rather than stalling
	// the publisher
	Hub[T any] struct {
		consumers Set[*Consumer[T]]
		mu        sync.Mutex
		closed    bool
	}

	// Consumer receives values published to a Hub until closed
	Consumer[T any] struct {
		hub *Hub[T]
		ch  chan T
	}
)

const consumerBufferSize = 64

// NewHub creates an empty hub
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		consumers: Set[*Consumer[T]]{},
	}
}

// NewConsumer registers a new consumer with the hub
func (h *Hub[T]) NewConsumer() *Consumer[T] {
	c := &Consumer[T]{
		hub: h,
		ch:  make(chan T, consumerBufferSize),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.ch)
		return c
	}
	h.consumers.Add(c)
	return c
}

// Publish delivers a value to every subscribed consumer without blocking
func (h *Hub[T]) Publish(value T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for c := range h.consumers {
		select {
		case c.ch <- value:
		default:
		}
	}
}

// Close shuts down the hub and all subscribed consumers
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.consumers {
		close(c.ch)
	}
	h.consumers = Set[*Consumer[T]]{}
}

// Receive returns the channel on which values are delivered
func (c *Consumer[T]) Receive() <-chan T {
	return c.ch
}

// Close unsubscribes the consumer from its hub
func (c *Consumer[T]) Close() {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if c.hub.closed || !c.hub.consumers.Contains(c) {
		return
	}
	c.hub.consumers.Remove(c)
	close(c.ch)
}
