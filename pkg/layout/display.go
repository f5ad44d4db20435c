package layout

import (
	"fmt"
	"maps"
	"sync"
)

// Display receives the integer position of every node after each batch.
// Move returns an error when the display has no element for label.
type Display interface {
	Move(label string, x, y int) error
}

// DisplayFunc adapts a function to the Display interface.
type DisplayFunc func(label string, x, y int) error

// Move calls f(label, x, y).
func (f DisplayFunc) Move(label string, x, y int) error { return f(label, x, y) }

// Point is an integer display position.
type Point struct {
	X, Y int
}

// MapDisplay records the last published position of a known set of labels.
// It is safe for concurrent use, so a server can read it while a run
// publishes into it.
type MapDisplay struct {
	mu        sync.RWMutex
	positions map[string]Point
	moves     int
}

// NewMapDisplay returns a MapDisplay that accepts exactly the given labels.
func NewMapDisplay(labels ...string) *MapDisplay {
	d := &MapDisplay{positions: make(map[string]Point, len(labels))}
	for _, l := range labels {
		d.positions[l] = Point{}
	}
	return d
}

// Move records the position of label.
func (d *MapDisplay) Move(label string, x, y int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.positions[label]; !ok {
		return fmt.Errorf("no display element for %q", label)
	}
	d.positions[label] = Point{X: x, Y: y}
	d.moves++
	return nil
}

// Position returns the last published position of label.
func (d *MapDisplay) Position(label string) (Point, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.positions[label]
	return p, ok
}

// Positions returns a snapshot of all positions.
func (d *MapDisplay) Positions() map[string]Point {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.positions)
}

// Moves returns the number of accepted Move calls.
func (d *MapDisplay) Moves() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.moves
}
