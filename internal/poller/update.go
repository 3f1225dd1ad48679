package poller

import (
	"log/slog"
	"slices"
	"time"

	"github.com/clambin/sinum-monitor/pkg/sinum"
)

// Update is one snapshot of all room records, as fetched from the controller.
type Update struct {
	Rooms     map[sinum.RoomID]sinum.Room `json:"rooms"`
	Timestamp time.Time                   `json:"timestamp"`
}

// RoomNames returns the display names of all rooms, sorted.
func (u Update) RoomNames() []string {
	names := make([]string, 0, len(u.Rooms))
	for _, room := range u.Rooms {
		names = append(names, room.Name)
	}
	slices.Sort(names)
	return names
}

func (u Update) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("rooms", len(u.Rooms)),
		slog.Time("timestamp", u.Timestamp),
	)
}
