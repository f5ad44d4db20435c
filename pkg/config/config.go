package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/pipeview/pkg/connectivity"
	"github.com/matzehuels/pipeview/pkg/errors"
	"github.com/matzehuels/pipeview/pkg/layout"
)

// Default values applied by [Defaults].
const (
	DefaultIterates            = 500
	DefaultHorizontalSpacing   = 150
	DefaultVerticalSpacing     = 100
	DefaultSpringNaturalLength = 100
	DefaultRepulsionMultiplier = 5
	DefaultMovementLimit       = 10
	DefaultShowInterval        = 1
	DefaultTickMS              = 10
	DefaultCanvasHeight        = 1000
	DefaultPlacement           = "depth"
	DefaultBoundary            = "reflect"
)

// Layout is the full configuration of one layout run.
type Layout struct {
	Iterates            int     `toml:"iterates" yaml:"iterates" json:"iterates" validate:"min=1"`
	HorizontalSpacing   int     `toml:"horizontal_spacing" yaml:"horizontal_spacing" json:"horizontal_spacing" validate:"min=1"`
	VerticalSpacing     int     `toml:"vertical_spacing" yaml:"vertical_spacing" json:"vertical_spacing" validate:"min=1"`
	SpringNaturalLength float64 `toml:"spring_natural_length" yaml:"spring_natural_length" json:"spring_natural_length" validate:"gte=0"`
	RepulsionMultiplier float64 `toml:"repulsion_multiplier" yaml:"repulsion_multiplier" json:"repulsion_multiplier" validate:"gte=0"`
	MovementLimit       float64 `toml:"movement_limit" yaml:"movement_limit" json:"movement_limit" validate:"gte=0"`
	Gravity             float64 `toml:"gravity" yaml:"gravity" json:"gravity"`
	FixRoots            bool    `toml:"fix_roots" yaml:"fix_roots" json:"fix_roots"`
	ShowJobDetail       bool    `toml:"show_job_detail" yaml:"show_job_detail" json:"show_job_detail"`

	// Run pacing and canvas.
	ShowInterval int    `toml:"show_interval" yaml:"show_interval" json:"show_interval" validate:"min=1"`
	TickMS       int    `toml:"tick_ms" yaml:"tick_ms" json:"tick_ms" validate:"min=0"`
	CanvasHeight int    `toml:"canvas_height" yaml:"canvas_height" json:"canvas_height" validate:"min=1"`
	Placement    string `toml:"placement" yaml:"placement" json:"placement" validate:"oneof=depth rows"`
	Boundary     string `toml:"boundary" yaml:"boundary" json:"boundary" validate:"oneof=reflect clamp"`
	Seed         uint64 `toml:"seed" yaml:"seed" json:"seed"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Layout {
	return Layout{
		Iterates:            DefaultIterates,
		HorizontalSpacing:   DefaultHorizontalSpacing,
		VerticalSpacing:     DefaultVerticalSpacing,
		SpringNaturalLength: DefaultSpringNaturalLength,
		RepulsionMultiplier: DefaultRepulsionMultiplier,
		MovementLimit:       DefaultMovementLimit,
		FixRoots:            true,
		ShowInterval:        DefaultShowInterval,
		TickMS:              DefaultTickMS,
		CanvasHeight:        DefaultCanvasHeight,
		Placement:           DefaultPlacement,
		Boundary:            DefaultBoundary,
		Seed:                layout.DefaultSeed,
	}
}

// validate is a singleton validator instance reporting fields by TOML key.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks every field and returns the first violation, naming its key.
func (c Layout) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Params returns the force parameters of the run.
func (c Layout) Params() layout.Params {
	return layout.Params{
		MovementLimit:       c.MovementLimit,
		Gravity:             c.Gravity,
		RepulsionMultiplier: c.RepulsionMultiplier,
	}
}

// Strategy returns the placement strategy. Unknown names fall back to depth;
// Validate reports them.
func (c Layout) Strategy() connectivity.Strategy {
	s, err := connectivity.ParseStrategy(c.Placement)
	if err != nil {
		return connectivity.StrategyDepth
	}
	return s
}

// BoundaryPolicy returns the boundary policy, falling back to reflect.
func (c Layout) BoundaryPolicy() layout.Boundary {
	b, err := layout.ParseBoundary(c.Boundary)
	if err != nil {
		return layout.BoundaryReflect
	}
	return b
}

// Tick returns the pause between two published batches.
func (c Layout) Tick() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

// Hash returns a content hash of the configuration for cache keys.
func (c Layout) Hash() string {
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// formatValidationError reports the first failing field by its config key.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid configuration")
	}
	e := verrs[0]
	key := e.Field()
	switch e.Tag() {
	case "min", "gte":
		return errors.New(errors.ErrCodeInvalidConfig, "%s: must be at least %s", key, e.Param())
	case "oneof":
		return errors.New(errors.ErrCodeInvalidConfig, "%s: must be one of [%s], got %q", key, e.Param(), e.Value())
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "%s: validation failed (%s)", key, e.Tag())
	}
}
