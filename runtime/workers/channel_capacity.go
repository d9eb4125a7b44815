package workers

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacity is one sample of a buffered channel.
type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

func (c ChannelCapacity) Left() int {
	return c.Capacity - c.Length
}

// ChannelCapacityWorker periodically samples len and cap of channels and warns when
// a buffer is close to full. Sampling never blocks the channel owners.
type ChannelCapacityWorker struct {
	log                  *slog.Logger
	channels             []NamedChannel
	metricInterval       time.Duration
	lowCapacityThreshold int
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	metricInterval time.Duration, lowCapacityThreshold int) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:                  log,
		channels:             channels,
		metricInterval:       metricInterval,
		lowCapacityThreshold: lowCapacityThreshold,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping capacity sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample reads every channel once and returns the buffers running low.
func (w ChannelCapacityWorker) Sample() []ChannelCapacity {
	var low []ChannelCapacity
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		sample := ChannelCapacity{ChannelName: nc.Name, Capacity: v.Cap(), Length: v.Len()}
		w.log.Debug(fmt.Sprintf("Channel %s usage: %d / %d", sample.ChannelName, sample.Length, sample.Capacity))
		// Unbuffered channels have nothing to report
		if sample.Capacity <= 0 {
			continue
		}
		if sample.Left() <= w.lowCapacityThreshold {
			w.log.Warn("Channel capacity low", "name", sample.ChannelName, "left", sample.Left())
			low = append(low, sample)
		}
	}
	return low
}
