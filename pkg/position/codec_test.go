package position

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/pipeview/pkg/errors"
)

func TestEncode(t *testing.T) {
	got := Encode(Bounds{X: 10, Y: 310, Width: 92, Height: 75})
	if got != "10 310 92 75" {
		t.Errorf("Encode() = %q, want %q", got, "10 310 92 75")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Point
		wantErr bool
	}{
		{"four fields", "10 20 92 75", Point{X: 10, Y: 20}, false},
		{"two fields", "10 20", Point{X: 10, Y: 20}, false},
		{"extra whitespace", "  3\t 4  ", Point{X: 3, Y: 4}, false},
		{"negative", "-5 7 1 1", Point{X: -5, Y: 7}, false},
		{"empty", "", Point{}, true},
		{"one field", "10", Point{}, true},
		{"non numeric x", "x 20", Point{}, true},
		{"non numeric width", "10 20 wide 75", Point{}, true},
		{"float", "10.5 20", Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidPosition) {
					t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPosition)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Decode(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeErrorNamesInput(t *testing.T) {
	_, err := Decode("12 abc")
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := errors.UserMessage(err); msg != `position "12 abc": token 2 is not an integer` {
		t.Errorf("UserMessage() = %q", msg)
	}
}

func TestDecodeAll(t *testing.T) {
	points, bad := DecodeAll(Map{
		"good":  "1 2 3 4",
		"short": "1",
		"text":  "a b c d",
	})
	if len(points) != 1 || points["good"] != (Point{X: 1, Y: 2}) {
		t.Errorf("points = %v", points)
	}
	if len(bad) != 2 || bad["short"] == nil || bad["text"] == nil {
		t.Errorf("bad = %v", bad)
	}

	if _, bad := DecodeAll(Map{"a": "1 1"}); bad != nil {
		t.Errorf("bad = %v, want nil", bad)
	}
}

func TestEncodeAllLabels(t *testing.T) {
	m := EncodeAll(map[string]Bounds{
		"b": {X: 1, Y: 2, Width: 3, Height: 4},
		"a": {},
	})
	if m["b"] != "1 2 3 4" || m["a"] != "0 0 0 0" {
		t.Errorf("EncodeAll() = %v", m)
	}
	if labels := m.Labels(); len(labels) != 2 || labels[0] != "a" {
		t.Errorf("Labels() = %v", labels)
	}
}

func TestLabelBounds(t *testing.T) {
	minWidth := len("SubmitSlice")*CharWidth + LabelPadding
	tests := []struct {
		name     string
		label    string
		detailed bool
		want     Bounds
	}{
		{"short label uses minimum", "Fit", true, Bounds{X: 1, Y: 2, Width: minWidth, Height: DetailHeight}},
		{"long label", "CalibrateEnergyScale", true, Bounds{X: 1, Y: 2, Width: 20*CharWidth + LabelPadding, Height: DetailHeight}},
		{"no detail", "Fit", false, Bounds{X: 1, Y: 2, Width: minWidth, Height: DetailHeight / 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LabelBounds(tt.label, 1, 2, tt.detailed); got != tt.want {
				t.Errorf("LabelBounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(b)) keeps x and y", prop.ForAll(
		func(x, y, w, h int) bool {
			p, err := Decode(Encode(Bounds{X: x, Y: y, Width: w, Height: h}))
			return err == nil && p.X == x && p.Y == y
		},
		gen.IntRange(0, 1<<30), gen.IntRange(0, 1<<30), gen.IntRange(0, 1<<16), gen.IntRange(0, 1<<16),
	))

	properties.TestingRun(t)
}
