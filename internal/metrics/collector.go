package metrics

import (
	"time"

	"playlist-widget/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current layout counts
type Stats struct {
	Pending  int
	Ready    int
	Degraded int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LayoutsByState.WithLabelValues("pending").Set(float64(stats.Pending))
	LayoutsByState.WithLabelValues("ready").Set(float64(stats.Ready))
	LayoutsByState.WithLabelValues("degraded").Set(float64(stats.Degraded))

	logging.Debug("Metrics collected: layouts pending=%d ready=%d degraded=%d",
		stats.Pending, stats.Ready, stats.Degraded)
}
