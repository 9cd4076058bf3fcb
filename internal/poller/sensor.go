package poller

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// CPUThermalChannels are the sensor channel names holding the CPU
// temperature, in lookup order
var CPUThermalChannels = []string{"cpu_thermal", "cpu-thermal"}

// Sensor reads the current CPU temperature in degrees Celsius.
// ok is false when no recognized channel exists.
type Sensor interface {
	ReadTemperature(ctx context.Context) (celsius float64, ok bool, err error)
}

// TemperatureSource lists raw temperature readings
type TemperatureSource func(ctx context.Context) ([]host.TemperatureStat, error)

// HostSensor reads temperatures through gopsutil
type HostSensor struct {
	channels []string
	source   TemperatureSource
}

// NewHostSensor creates a sensor looking up the CPU thermal channels
func NewHostSensor() *HostSensor {
	return &HostSensor{
		channels: CPUThermalChannels,
		source:   host.SensorsTemperaturesWithContext,
	}
}

// ReadTemperature implements Sensor.ReadTemperature
func (s *HostSensor) ReadTemperature(ctx context.Context) (float64, bool, error) {
	stats, err := s.source(ctx)
	if len(stats) == 0 {
		// gopsutil reports unreadable sensor files as warnings next to
		// partial results, so an error only matters when nothing came back
		return 0, false, err
	}

	for _, channel := range s.channels {
		for _, stat := range stats {
			if matchesChannel(stat.SensorKey, channel) {
				return stat.Temperature, true, nil
			}
		}
	}
	return 0, false, nil
}

// matchesChannel reports whether a gopsutil sensor key belongs to channel.
// Keys are the channel name, optionally followed by "_<label>".
func matchesChannel(key, channel string) bool {
	return key == channel || strings.HasPrefix(key, channel+"_")
}
