// Package progress provides a throttled packet counter for long-running
// dissections. Capture files do not announce their packet count up front, so
// the counter reports packets seen and the read rate instead of a percentage.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Counter reports dissection progress on stderr. Updates are throttled so the
// per-packet hot path stays cheap.
type Counter struct {
	count       int64
	startTime   time.Time
	lastUpdate  time.Time
	output      io.Writer
	enabled     bool
	description string
}

// NewCounter creates a counter labeled with the capture being dissected.
func NewCounter(description string) *Counter {
	return &Counter{
		startTime:   time.Now(),
		lastUpdate:  time.Now(),
		output:      os.Stderr, // stderr so reports on stdout stay clean
		enabled:     true,
		description: description,
	}
}

// Disable disables the counter
func (c *Counter) Disable() {
	c.enabled = false
}

// Increment counts one packet
func (c *Counter) Increment() {
	c.count++
	c.render(false)
}

func (c *Counter) render(force bool) {
	if !c.enabled {
		return
	}

	now := time.Now()
	if !force && now.Sub(c.lastUpdate) < 100*time.Millisecond {
		return
	}
	c.lastUpdate = now

	elapsed := time.Since(c.startTime)
	var rate float64
	if elapsed > 0 {
		rate = float64(c.count) / elapsed.Seconds()
	}

	var output string
	if c.description != "" {
		output = fmt.Sprintf("\r%s: %d packets (%s pkt/s) | Elapsed: %s",
			c.description, c.count, formatRate(rate), formatDuration(elapsed))
	} else {
		output = fmt.Sprintf("\r%d packets (%s pkt/s) | Elapsed: %s",
			c.count, formatRate(rate), formatDuration(elapsed))
	}
	fmt.Fprint(c.output, output)
}

// Finish prints the final count and ends the progress line.
func (c *Counter) Finish() {
	if !c.enabled {
		return
	}
	c.render(true)
	fmt.Fprint(c.output, "\n")
}

func formatRate(rate float64) string {
	if rate >= 1000 {
		return fmt.Sprintf("%.1fk", rate/1000)
	}
	return fmt.Sprintf("%.0f", rate)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
