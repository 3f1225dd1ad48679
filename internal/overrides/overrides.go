// Package overrides loads an optional rooms.yaml that renames or hides rooms
// reported by the controller:
//
//	rooms:
//	  "1": Living Room
//	ignore:
//	  - Boiler Room
package overrides

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/clambin/go-common/set"
	"github.com/clambin/sinum-monitor/pkg/sinum"
	"gopkg.in/yaml.v3"
)

type Overrides struct {
	// Rooms maps a room id to its display name.
	Rooms map[string]string `yaml:"rooms"`
	// Ignore lists rooms (by id or display name) to drop from every update.
	Ignore []string `yaml:"ignore"`
}

func Load(r io.Reader) (Overrides, error) {
	var o Overrides
	body, err := io.ReadAll(r)
	if err == nil {
		err = yaml.Unmarshal(body, &o)
	}
	if err != nil {
		return Overrides{}, fmt.Errorf("overrides: %w", err)
	}
	return o, nil
}

// MaybeLoad loads overrides from path. A missing file is not an error: the
// zero value passes all rooms through unchanged.
func MaybeLoad(path string) (Overrides, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		return Overrides{}, err
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Apply renames and filters the room records per the configured overrides.
func (o Overrides) Apply(rooms map[sinum.RoomID]sinum.Room) map[sinum.RoomID]sinum.Room {
	if len(o.Rooms) == 0 && len(o.Ignore) == 0 {
		return rooms
	}
	ignored := set.New(o.Ignore...)
	result := make(map[sinum.RoomID]sinum.Room, len(rooms))
	for id, room := range rooms {
		if ignored.Contains(string(id)) || ignored.Contains(room.Name) {
			continue
		}
		if name, ok := o.Rooms[string(id)]; ok {
			room.Name = name
		}
		result[id] = room
	}
	return result
}
