package sinum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// roomsPaths are the room-listing endpoint candidates, in preference order.
var roomsPaths = []string{
	"/api/v1/rooms",
	"/api/rooms",
}

// RoomID identifies a room on the controller. Controllers report ids as
// numbers or strings depending on firmware; both normalize to the decimal
// string representation.
type RoomID string

func (id *RoomID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = RoomID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = RoomID(n.String())
	return nil
}

// Room is the unified per-room record: room identity joined with the latest
// sensor readings and circuit state. Temperature and Humidity are nil when
// the controller reported no matching sensor.
type Room struct {
	ID          RoomID   `json:"id"`
	Name        string   `json:"name"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	HeatingOn   bool     `json:"heating_on"`
	CoolingOn   bool     `json:"cooling_on"`
}

type roomRecord struct {
	ID   RoomID `json:"id"`
	Name string `json:"name"`
}

type roomsEnvelope struct {
	Data  []roomRecord `json:"data"`
	Rooms []roomRecord `json:"rooms"`
}

// GetRooms fetches rooms, sensors and circuits from the controller and
// merges them into one record per room. The three fetches run concurrently.
// Sensor data is best-effort: an unavailable device endpoint yields rooms
// without readings. Room identity is not: a failing room list fails the
// whole call.
func (c *Client) GetRooms(ctx context.Context) (map[RoomID]Room, error) {
	var (
		rooms             []roomRecord
		sensors, circuits []deviceRecord
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rooms, err = c.getRoomList(gCtx)
		return err
	})
	g.Go(func() error {
		sensors = c.getDevicesBestEffort(gCtx, DeviceClassSBus)
		return nil
	})
	g.Go(func() error {
		circuits = c.getDevicesBestEffort(gCtx, DeviceClassVirtual)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	temperatures, humidities := partitionReadings(sensors)
	states, conflicts := circuitStates(circuits)
	for id := range conflicts {
		c.logger.Warn("room reports both heating and cooling", slog.String("room", string(id)))
	}

	return reconcile(rooms, temperatures, humidities, states), nil
}

// getRoomList probes the room-listing candidates in order, normalizing
// whichever envelope the controller answers with. As with login probing, a
// candidate that answers but can't be used (server error, unrecognized shape)
// is remembered apart from connectivity failures: a reached server's error
// surfaces at exhaustion, ErrCannotConnect is reserved for transport failures
// and 404s.
func (c *Client) getRoomList(ctx context.Context) ([]roomRecord, error) {
	var lastErr, serverErr error
	for _, path := range roomsPaths {
		body, err := c.call(ctx, path)
		if err == nil {
			rooms, parseErr := parseRooms(body)
			if parseErr == nil {
				return rooms, nil
			}
			err = parseErr
			serverErr = parseErr
		} else if errors.Is(err, ErrInvalidAuth) {
			return nil, err
		} else if !errors.Is(err, errNotFound) && !errors.Is(err, ErrCannotConnect) {
			serverErr = err
		}
		c.logger.Debug("room list candidate failed", slog.String("path", path), slog.Any("err", err))
		lastErr = err
	}
	if serverErr != nil {
		return nil, serverErr
	}
	if errors.Is(lastErr, ErrCannotConnect) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: no room list endpoint found: %w", ErrCannotConnect, lastErr)
}

func parseRooms(body []byte) ([]roomRecord, error) {
	var bare []roomRecord
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}
	var env roomsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("room list: %w", err)
	}
	if env.Data != nil {
		return env.Data, nil
	}
	if env.Rooms != nil {
		return env.Rooms, nil
	}
	return nil, errors.New("room list: unrecognized response shape")
}
