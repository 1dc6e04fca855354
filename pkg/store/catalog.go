package store

import (
	"sort"
	"sync"
)

// Catalog is an in-memory index of what the store holds: runs, their laps
// and each lap's channel names. It is rebuilt from the key space when a
// store opens and updated on every archive.
type Catalog struct {
	mu   sync.RWMutex
	runs map[string]map[int]map[string]struct{}
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		runs: make(map[string]map[int]map[string]struct{}),
	}
}

// Add records one archived channel.
func (c *Catalog) Add(runID string, lap int, channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	laps, ok := c.runs[runID]
	if !ok {
		laps = make(map[int]map[string]struct{})
		c.runs[runID] = laps
	}

	channels, ok := laps[lap]
	if !ok {
		channels = make(map[string]struct{})
		laps[lap] = channels
	}

	channels[channel] = struct{}{}
}

// Runs returns all run IDs, sorted.
func (c *Catalog) Runs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	runs := make([]string, 0, len(c.runs))
	for runID := range c.runs {
		runs = append(runs, runID)
	}
	sort.Strings(runs)
	return runs
}

// Laps returns a run's lap indices, sorted. Unknown runs yield an empty
// slice.
func (c *Catalog) Laps(runID string) []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	laps := make([]int, 0, len(c.runs[runID]))
	for lap := range c.runs[runID] {
		laps = append(laps, lap)
	}
	sort.Ints(laps)
	return laps
}

// Channels returns one lap's channel names, sorted.
func (c *Catalog) Channels(runID string, lap int) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	channels := make([]string, 0, len(c.runs[runID][lap]))
	for name := range c.runs[runID][lap] {
		channels = append(channels, name)
	}
	sort.Strings(channels)
	return channels
}

// RunCount returns the number of archived runs.
func (c *Catalog) RunCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.runs)
}
