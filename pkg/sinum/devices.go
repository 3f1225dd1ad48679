package sinum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Device classes known to the controller. Physical sensors report under
// "sbus", logical heating/cooling circuits under "virtual".
const (
	DeviceClassSBus    = "sbus"
	DeviceClassVirtual = "virtual"
)

const devicesPath = "/api/v1/devices"

// Sensor type discriminators within the sbus class.
const (
	deviceTypeTemperature = "temperature_sensor"
	deviceTypeHumidity    = "humidity_sensor"
)

// deviceRecord is one raw device entry, covering both classes. Sensors carry
// Type and Value (tenths of a unit); circuits carry State, Mode and the
// is_heating/is_cooling hints. Consumed entirely within one fetch cycle.
type deviceRecord struct {
	Type      string `json:"type"`
	RoomID    RoomID `json:"room_id"`
	Value     *int   `json:"value"`
	State     bool   `json:"state"`
	Mode      string `json:"mode"`
	IsHeating bool   `json:"is_heating"`
	IsCooling bool   `json:"is_cooling"`
}

type devicesEnvelope struct {
	Data    []deviceRecord `json:"data"`
	Devices []deviceRecord `json:"devices"`
}

func (c *Client) getDevices(ctx context.Context, class string) ([]deviceRecord, error) {
	body, err := c.call(ctx, devicesPath+"?class="+class)
	if err != nil {
		return nil, err
	}
	return parseDevices(body)
}

// getDevicesBestEffort absorbs device-endpoint failures into an empty set:
// the contract favors returning best-available room identity over failing
// the whole fetch cycle.
func (c *Client) getDevicesBestEffort(ctx context.Context, class string) []deviceRecord {
	devices, err := c.getDevices(ctx, class)
	if err != nil {
		c.logger.Warn("device list unavailable", slog.String("class", class), slog.Any("err", err))
		return nil
	}
	return devices
}

func parseDevices(body []byte) ([]deviceRecord, error) {
	var bare []deviceRecord
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}
	var env devicesEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("device list: %w", err)
	}
	if env.Data != nil {
		return env.Data, nil
	}
	if env.Devices != nil {
		return env.Devices, nil
	}
	return nil, errors.New("device list: unrecognized response shape")
}
