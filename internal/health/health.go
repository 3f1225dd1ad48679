// Package health reports the monitor's view of the controller on /health:
// per-room data, when it was last refreshed and how stale it is. Until the
// first poll lands, it reports 503 so orchestrators treat the process as not
// ready rather than crashed.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/clambin/sinum-monitor/internal/poller"
	"github.com/clambin/sinum-monitor/pkg/sinum"
)

type Health struct {
	poller.Poller
	logger  *slog.Logger
	update  poller.Update
	updated bool
	lock    sync.RWMutex
}

// report is the body served on /health.
type report struct {
	RoomCount   int                         `json:"room_count"`
	LastUpdated time.Time                   `json:"last_updated"`
	Age         string                      `json:"age"`
	Rooms       map[sinum.RoomID]sinum.Room `json:"rooms"`
}

func New(p poller.Poller, logger *slog.Logger) *Health {
	return &Health{
		Poller: p,
		logger: logger,
	}
}

func (h *Health) Run(ctx context.Context) error {
	h.logger.Debug("started")
	defer h.logger.Debug("stopped")

	ch := h.Poller.Subscribe()
	defer h.Poller.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			h.lock.Lock()
			h.update = update
			h.updated = true
			h.lock.Unlock()
		}
	}
}

func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if !h.updated {
		http.Error(w, "no update yet", http.StatusServiceUnavailable)
		h.Poller.Refresh()
		return
	}

	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report{
		RoomCount:   len(h.update.Rooms),
		LastUpdated: h.update.Timestamp,
		Age:         time.Since(h.update.Timestamp).Round(time.Second).String(),
		Rooms:       h.update.Rooms,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
