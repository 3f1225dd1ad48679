package sinum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionReadings(t *testing.T) {
	value := func(v int) *int { return &v }

	temperatures, humidities := partitionReadings([]deviceRecord{
		{Type: "temperature_sensor", RoomID: "1", Value: value(223)},
		{Type: "humidity_sensor", RoomID: "1", Value: value(381)},
		{Type: "temperature_sensor", RoomID: "2", Value: value(195)},
		{Type: "door_sensor", RoomID: "2", Value: value(1)},
		{Type: "temperature_sensor", RoomID: "3", Value: nil},
	})

	assert.Equal(t, map[RoomID]float64{"1": 22.3, "2": 19.5}, temperatures)
	assert.Equal(t, map[RoomID]float64{"1": 38.1}, humidities)
}

func TestPartitionReadings_DuplicateLastWins(t *testing.T) {
	value := func(v int) *int { return &v }

	temperatures, _ := partitionReadings([]deviceRecord{
		{Type: "temperature_sensor", RoomID: "1", Value: value(200)},
		{Type: "temperature_sensor", RoomID: "1", Value: value(215)},
	})
	assert.Equal(t, map[RoomID]float64{"1": 21.5}, temperatures)
}

func TestDeriveCircuitState(t *testing.T) {
	tests := []struct {
		name   string
		device deviceRecord
		want   circuitState
	}{
		{
			name:   "inactive circuit",
			device: deviceRecord{State: false, Mode: "heating"},
			want:   circuitState{},
		},
		{
			name:   "heating mode",
			device: deviceRecord{State: true, Mode: "heating"},
			want:   circuitState{heating: true},
		},
		{
			name:   "cooling mode",
			device: deviceRecord{State: true, Mode: "cooling"},
			want:   circuitState{cooling: true},
		},
		{
			name:   "no mode, heating hint",
			device: deviceRecord{State: true, IsHeating: true},
			want:   circuitState{heating: true},
		},
		{
			name:   "no mode, cooling hint",
			device: deviceRecord{State: true, IsCooling: true},
			want:   circuitState{cooling: true},
		},
		{
			name:   "mode wins over hints",
			device: deviceRecord{State: true, Mode: "heating", IsCooling: true},
			want:   circuitState{heating: true},
		},
		{
			name:   "ambiguous signal is no signal",
			device: deviceRecord{State: true, Mode: "fan"},
			want:   circuitState{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveCircuitState(tt.device))
		})
	}
}

func TestCircuitStates_Conflict(t *testing.T) {
	states, conflicts := circuitStates([]deviceRecord{
		{RoomID: "1", State: true, Mode: "heating"},
		{RoomID: "1", State: true, Mode: "cooling"},
		{RoomID: "2", State: true, Mode: "cooling"},
	})

	assert.True(t, conflicts.Contains("1"))
	assert.False(t, conflicts.Contains("2"))
	// conflicting circuits resolve as heating
	assert.Equal(t, circuitState{heating: true}, states["1"])
	assert.Equal(t, circuitState{cooling: true}, states["2"])
}

func TestReconcile(t *testing.T) {
	rooms := []roomRecord{
		{ID: "1", Name: "Living"},
		{ID: "2"},
	}
	temperatures := map[RoomID]float64{"1": 22.3}
	states := map[RoomID]circuitState{"1": {heating: true}}

	result := reconcile(rooms, temperatures, nil, states)
	require.Len(t, result, 2)

	living := result["1"]
	assert.Equal(t, "Living", living.Name)
	require.NotNil(t, living.Temperature)
	assert.Equal(t, 22.3, *living.Temperature)
	assert.Nil(t, living.Humidity)
	assert.True(t, living.HeatingOn)
	assert.False(t, living.CoolingOn)

	// absent entries default to unknown readings, inactive circuits and a
	// synthesized name
	unnamed := result["2"]
	assert.Equal(t, "Room 2", unnamed.Name)
	assert.Nil(t, unnamed.Temperature)
	assert.Nil(t, unnamed.Humidity)
	assert.False(t, unnamed.HeatingOn)
	assert.False(t, unnamed.CoolingOn)
}
