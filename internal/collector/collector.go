// Package collector exposes the latest room records as Prometheus metrics.
package collector

import (
	"context"
	"log/slog"
	"sync"

	"github.com/clambin/sinum-monitor/internal/poller"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sinumRoomTemperature = prometheus.NewDesc(
		prometheus.BuildFQName("sinum", "room", "temperature_celsius"),
		"Current temperature of this room in degrees celsius",
		[]string{"room_name"},
		nil,
	)
	sinumRoomHumidity = prometheus.NewDesc(
		prometheus.BuildFQName("sinum", "room", "humidity_percentage"),
		"Current humidity percentage in this room",
		[]string{"room_name"},
		nil,
	)
	sinumRoomHeatingOn = prometheus.NewDesc(
		prometheus.BuildFQName("sinum", "room", "heating_on"),
		"1 if the heating circuit for this room is active",
		[]string{"room_name"},
		nil,
	)
	sinumRoomCoolingOn = prometheus.NewDesc(
		prometheus.BuildFQName("sinum", "room", "cooling_on"),
		"1 if the cooling circuit for this room is active",
		[]string{"room_name"},
		nil,
	)
)

var _ prometheus.Collector = &Collector{}

type Collector struct {
	Poller     poller.Poller
	Logger     *slog.Logger
	lock       sync.RWMutex
	lastUpdate *poller.Update
}

func (c *Collector) Run(ctx context.Context) error {
	c.Logger.Debug("started")
	defer c.Logger.Debug("stopped")

	ch := c.Poller.Subscribe()
	defer c.Poller.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			c.lock.Lock()
			c.lastUpdate = &update
			c.lock.Unlock()
		}
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sinumRoomTemperature
	ch <- sinumRoomHumidity
	ch <- sinumRoomHeatingOn
	ch <- sinumRoomCoolingOn
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.lastUpdate == nil {
		return
	}
	for _, room := range c.lastUpdate.Rooms {
		if room.Temperature != nil {
			ch <- prometheus.MustNewConstMetric(sinumRoomTemperature, prometheus.GaugeValue, *room.Temperature, room.Name)
		}
		if room.Humidity != nil {
			ch <- prometheus.MustNewConstMetric(sinumRoomHumidity, prometheus.GaugeValue, *room.Humidity, room.Name)
		}
		ch <- prometheus.MustNewConstMetric(sinumRoomHeatingOn, prometheus.GaugeValue, boolToFloat(room.HeatingOn), room.Name)
		ch <- prometheus.MustNewConstMetric(sinumRoomCoolingOn, prometheus.GaugeValue, boolToFloat(room.CoolingOn), room.Name)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
