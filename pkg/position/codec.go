package position

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/pipeview/pkg/errors"
)

// Label metrics used to derive a node's bounds from its label.
const (
	// CharWidth approximates the pixel width of one label character.
	CharWidth = 7
	// LabelPadding is added to the text width of every label.
	LabelPadding = 15
	// DetailHeight is the node height when job detail is shown.
	DetailHeight = 75
	// minWidthLabel sets the narrowest node: no node is narrower than this
	// label would be.
	minWidthLabel = "SubmitSlice"
)

// Bounds is the rectangle a node occupies on the display.
type Bounds struct {
	X, Y          int
	Width, Height int
}

// Point is a decoded position.
type Point struct {
	X, Y int
}

// Map is a persisted position map, label → "x y width height".
type Map map[string]string

// Labels returns the map's labels in sorted order.
func (m Map) Labels() []string {
	return slices.Sorted(maps.Keys(m))
}

// Encode formats b as "x y width height".
func Encode(b Bounds) string {
	return fmt.Sprintf("%d %d %d %d", b.X, b.Y, b.Width, b.Height)
}

// Decode parses the position of an encoded value. It needs at least two
// tokens and every token must be an integer; only the first two are
// returned. The error is an *errors.Error with code INVALID_POSITION
// naming s.
func Decode(s string) (Point, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return Point{}, errors.New(errors.ErrCodeInvalidPosition, "position %q: want at least 2 integers, got %d tokens", s, len(fields))
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Point{}, errors.Wrap(errors.ErrCodeInvalidPosition, err, "position %q: token %d is not an integer", s, i+1)
		}
		vals[i] = v
	}
	return Point{X: vals[0], Y: vals[1]}, nil
}

// EncodeAll encodes every entry of bounds.
func EncodeAll(bounds map[string]Bounds) Map {
	m := make(Map, len(bounds))
	for label, b := range bounds {
		m[label] = Encode(b)
	}
	return m
}

// DecodeAll decodes every entry of m. Entries that fail to decode are left
// out of the points and reported in the error map instead, so one bad entry
// never hides the others.
func DecodeAll(m Map) (map[string]Point, map[string]error) {
	points := make(map[string]Point, len(m))
	var bad map[string]error
	for label, s := range m {
		p, err := Decode(s)
		if err != nil {
			if bad == nil {
				bad = make(map[string]error)
			}
			bad[label] = err
			continue
		}
		points[label] = p
	}
	return points, bad
}

// LabelBounds returns the bounds of a node drawn with label at (x, y). With
// detailed unset the node is a quarter of the full height.
func LabelBounds(label string, x, y int, detailed bool) Bounds {
	w := max(labelWidth(label), labelWidth(minWidthLabel))
	h := DetailHeight
	if !detailed {
		h = DetailHeight / 4
	}
	return Bounds{X: x, Y: y, Width: w, Height: h}
}

func labelWidth(label string) int {
	return utf8.RuneCountInString(label)*CharWidth + LabelPadding
}
