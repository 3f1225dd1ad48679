// Package pubsub provides a basic Publish/Subscribe implementation that
// remembers the last published item, so consumers that poll on demand (rather
// than subscribe) can read the most recent value.
package pubsub

import (
	"log/slog"
	"sync"
)

// Publisher allows clients to subscribe and sends them the information provided by Publish.
type Publisher[T any] struct {
	clients map[chan T]struct{}
	logger  *slog.Logger
	last    T
	hasLast bool
	lock    sync.RWMutex
}

// New returns a new Publisher
func New[T any](logger *slog.Logger) *Publisher[T] {
	return &Publisher[T]{
		clients: make(map[chan T]struct{}),
		logger:  logger,
	}
}

// Subscribe registers the caller and returns a new channel on which it will publish updates.
func (p *Publisher[T]) Subscribe() chan T {
	p.lock.Lock()
	defer p.lock.Unlock()
	ch := make(chan T)
	p.clients[ch] = struct{}{}
	p.logger.Debug("subscriber added", slog.Int("subscribers", len(p.clients)))
	return ch
}

// Unsubscribe removes the registered client/channel.
func (p *Publisher[T]) Unsubscribe(ch chan T) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.clients, ch)
	p.logger.Debug("subscriber removed", slog.Int("subscribers", len(p.clients)))
}

// Publish sends info to all registered clients and records it as the last
// published item.
func (p *Publisher[T]) Publish(info T) {
	p.lock.Lock()
	p.last = info
	p.hasLast = true
	p.lock.Unlock()

	p.lock.RLock()
	defer p.lock.RUnlock()
	for ch := range p.clients {
		ch <- info
	}
}

// Last returns the most recently published item, if any.
func (p *Publisher[T]) Last() (T, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.last, p.hasLast
}

// Subscribers returns the current number of subscribers
func (p *Publisher[T]) Subscribers() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return len(p.clients)
}
