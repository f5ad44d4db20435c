package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Layout - Computed Positions
// =============================================================================

// Layout is the serialization format of a finished layout run.
type Layout struct {
	Name      string     `json:"name,omitempty" bson:"name,omitempty"`
	Width     float64    `json:"width" bson:"width"`
	Height    float64    `json:"height" bson:"height"`
	Batches   int        `json:"batches" bson:"batches"`
	Positions []Position `json:"positions" bson:"positions"`
	Edges     []Edge     `json:"edges,omitempty" bson:"edges,omitempty"`
}

// Position is the published position of one node.
type Position struct {
	ID     string `json:"id" bson:"id"`
	X      int    `json:"x" bson:"x"`
	Y      int    `json:"y" bson:"y"`
	Width  int    `json:"width" bson:"width"`
	Height int    `json:"height" bson:"height"`
	Fixed  bool   `json:"fixed,omitempty" bson:"fixed,omitempty"`
}

// Position returns the position of node id, if present.
func (l *Layout) Position(id string) (Position, bool) {
	for _, p := range l.Positions {
		if p.ID == id {
			return p, true
		}
	}
	return Position{}, false
}

// MarshalLayout converts a Layout to indented JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// WriteLayout writes a Layout as JSON to an io.Writer.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayout(l, f)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return l, nil
}

// UnmarshalLayout decodes a Layout from JSON bytes.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}
