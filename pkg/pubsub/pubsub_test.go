package pubsub

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublisher(t *testing.T) {
	p := New[int](slog.Default())

	const clients = 10
	var chs []chan int
	for range clients {
		chs = append(chs, p.Subscribe())
	}
	assert.Equal(t, clients, p.Subscribers())

	go p.Publish(123)

	var wg sync.WaitGroup
	wg.Add(len(chs))

	for _, ch := range chs {
		go func(ch chan int) {
			defer wg.Done()
			assert.Equal(t, 123, <-ch)

			p.Unsubscribe(ch)
		}(ch)
	}

	wg.Wait()
}

func TestPublisher_Last(t *testing.T) {
	p := New[int](slog.Default())

	_, ok := p.Last()
	assert.False(t, ok)

	p.Publish(123)
	p.Publish(456)

	last, ok := p.Last()
	assert.True(t, ok)
	assert.Equal(t, 456, last)
}
