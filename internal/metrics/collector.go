package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const valueTypeLabel = "value_type"

// collector renders a Store as the temperature and fan_speed gauge families.
type collector struct {
	store       Reader
	temperature *prometheus.Desc
	fanSpeed    *prometheus.Desc
}

func newCollector(store Reader) *collector {
	return &collector{
		store: store,
		temperature: prometheus.NewDesc(
			"temperature", "Device temperature", []string{valueTypeLabel}, nil),
		fanSpeed: prometheus.NewDesc(
			"fan_speed", "Fan speed", []string{valueTypeLabel}, nil),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.temperature
	ch <- c.fanSpeed
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.store.Read()

	c.gauge(ch, c.temperature, snap.Temperature, "temperature")
	c.gauge(ch, c.fanSpeed, snap.FanSpeed, "fan_speed")
}

func (*collector) gauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, value float64, label string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, value, label)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(desc, err)
		return
	}
	ch <- m
}
