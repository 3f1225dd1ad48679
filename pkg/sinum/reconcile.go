package sinum

import (
	"github.com/clambin/go-common/set"
)

// circuitState is the derived heating/cooling state for one room.
type circuitState struct {
	heating bool
	cooling bool
}

// partitionReadings splits sbus sensor records into per-room temperature and
// humidity maps. The controller reports scaled integers (tenths of a unit).
// If it ever reports duplicate readings for the same room and type, the last
// observed one wins.
func partitionReadings(devices []deviceRecord) (temperatures, humidities map[RoomID]float64) {
	temperatures = make(map[RoomID]float64)
	humidities = make(map[RoomID]float64)
	for _, device := range devices {
		if device.Value == nil {
			continue
		}
		value := float64(*device.Value) / 10
		switch device.Type {
		case deviceTypeTemperature:
			temperatures[device.RoomID] = value
		case deviceTypeHumidity:
			humidities[device.RoomID] = value
		}
	}
	return temperatures, humidities
}

// deriveCircuitState maps one virtual device to heating/cooling flags: an
// inactive circuit is neither; an active one follows the mode field, falling
// back to the is_heating/is_cooling hints when the mode is unspecified. An
// ambiguous signal is treated as no signal.
func deriveCircuitState(device deviceRecord) circuitState {
	if !device.State {
		return circuitState{}
	}
	switch device.Mode {
	case "heating":
		return circuitState{heating: true}
	case "cooling":
		return circuitState{cooling: true}
	}
	if device.IsHeating {
		return circuitState{heating: true}
	}
	if device.IsCooling {
		return circuitState{cooling: true}
	}
	return circuitState{}
}

// circuitStates merges virtual devices into one state per room. A room whose
// circuits report both heating and cooling in the same cycle is a data
// anomaly: it is returned in conflicts for the caller to surface, and
// resolved as heating.
func circuitStates(devices []deviceRecord) (map[RoomID]circuitState, set.Set[RoomID]) {
	states := make(map[RoomID]circuitState)
	conflicts := set.New[RoomID]()
	for _, device := range devices {
		derived := deriveCircuitState(device)
		merged := states[device.RoomID]
		merged.heating = merged.heating || derived.heating
		merged.cooling = merged.cooling || derived.cooling
		if merged.heating && merged.cooling {
			conflicts.Add(device.RoomID)
			merged.cooling = false
		}
		states[device.RoomID] = merged
	}
	return states, conflicts
}

// reconcile joins the room list with the per-room reading and circuit maps,
// producing one Room per listed room. Absent map entries default to unknown
// readings and inactive circuits. Pure: no room exists without a
// controller-side record.
func reconcile(rooms []roomRecord, temperatures, humidities map[RoomID]float64, states map[RoomID]circuitState) map[RoomID]Room {
	result := make(map[RoomID]Room, len(rooms))
	for _, record := range rooms {
		name := record.Name
		if name == "" {
			name = "Room " + string(record.ID)
		}
		room := Room{ID: record.ID, Name: name}
		if temperature, ok := temperatures[record.ID]; ok {
			room.Temperature = &temperature
		}
		if humidity, ok := humidities[record.ID]; ok {
			room.Humidity = &humidity
		}
		if state, ok := states[record.ID]; ok {
			room.HeatingOn = state.heating
			room.CoolingOn = state.cooling
		}
		result[record.ID] = room
	}
	return result
}
