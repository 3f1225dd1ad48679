// Package poller periodically fetches the unified room records from the
// controller and publishes them to all registered subscribers. A failed poll
// is logged and leaves the last good update in place: downstream consumers
// see stale data, never a crash.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/clambin/sinum-monitor/internal/overrides"
	"github.com/clambin/sinum-monitor/pkg/pubsub"
	"github.com/clambin/sinum-monitor/pkg/sinum"
)

type Poller interface {
	Subscribe() chan Update
	Unsubscribe(ch chan Update)
	Refresh()
	LastUpdate() (Update, bool)
}

type RoomsGetter interface {
	GetRooms(ctx context.Context) (map[sinum.RoomID]sinum.Room, error)
}

var _ Poller = &SinumPoller{}

type SinumPoller struct {
	client RoomsGetter
	*pubsub.Publisher[Update]
	overrides overrides.Overrides
	interval  time.Duration
	logger    *slog.Logger
	refresh   chan struct{}
}

func New(client RoomsGetter, interval time.Duration, o overrides.Overrides, logger *slog.Logger) *SinumPoller {
	return &SinumPoller{
		client:    client,
		Publisher: pubsub.New[Update](logger.With(slog.String("component", "registry"))),
		overrides: o,
		interval:  interval,
		logger:    logger,
		refresh:   make(chan struct{}),
	}
}

func (p *SinumPoller) Run(ctx context.Context) error {
	p.logger.Debug("started", slog.Duration("interval", p.interval))
	defer p.logger.Debug("stopped")

	timer := time.NewTicker(p.interval)
	defer timer.Stop()

	for {
		shouldPoll := false
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			shouldPoll = true
		case <-p.refresh:
			shouldPoll = true
		}

		if shouldPoll {
			if err := p.poll(ctx); err != nil {
				p.logger.Error("failed to get room data", slog.Any("err", err))
			}
		}
	}
}

func (p *SinumPoller) Refresh() {
	p.refresh <- struct{}{}
}

// LastUpdate returns the most recent good update, if there has been one.
func (p *SinumPoller) LastUpdate() (Update, bool) {
	return p.Publisher.Last()
}

func (p *SinumPoller) poll(ctx context.Context) error {
	start := time.Now()
	rooms, err := p.client.GetRooms(ctx)
	if err != nil {
		return err
	}
	p.Publisher.Publish(Update{
		Rooms:     p.overrides.Apply(rooms),
		Timestamp: time.Now(),
	})
	p.logger.Debug("poll completed", slog.Duration("duration", time.Since(start)))
	return nil
}
