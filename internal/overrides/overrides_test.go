package overrides_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clambin/sinum-monitor/internal/overrides"
	"github.com/clambin/sinum-monitor/pkg/sinum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	content := `
rooms:
  "1": Living Room
ignore:
  - Boiler Room
  - "9"
`
	o, err := overrides.Load(strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "Living Room"}, o.Rooms)
	assert.Equal(t, []string{"Boiler Room", "9"}, o.Ignore)

	_, err = overrides.Load(strings.NewReader("not: [valid"))
	assert.Error(t, err)
}

func TestMaybeLoad(t *testing.T) {
	o, err := overrides.MaybeLoad(filepath.Join(t.TempDir(), "rooms.yaml"))
	require.NoError(t, err)
	assert.Empty(t, o.Rooms)

	path := filepath.Join(t.TempDir(), "rooms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`rooms: {"1": Living}`), 0o644))
	o, err = overrides.MaybeLoad(path)
	require.NoError(t, err)
	assert.Equal(t, "Living", o.Rooms["1"])
}

func TestOverrides_Apply(t *testing.T) {
	rooms := map[sinum.RoomID]sinum.Room{
		"1": {ID: "1", Name: "room_1"},
		"2": {ID: "2", Name: "Boiler Room"},
		"9": {ID: "9", Name: "Attic"},
	}

	t.Run("zero value passes through", func(t *testing.T) {
		assert.Equal(t, rooms, overrides.Overrides{}.Apply(rooms))
	})

	t.Run("rename and ignore", func(t *testing.T) {
		o := overrides.Overrides{
			Rooms:  map[string]string{"1": "Living"},
			Ignore: []string{"Boiler Room", "9"},
		}
		result := o.Apply(rooms)
		require.Len(t, result, 1)
		assert.Equal(t, "Living", result["1"].Name)
	})
}
