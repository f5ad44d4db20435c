package config

import (
	"strconv"
	"strings"

	"github.com/matzehuels/pipeview/pkg/errors"
)

// Property keys of the layout dialog map.
const (
	KeyIterates            = "LAYOUT_DIALOG_ITERATES"
	KeySpringNaturalLength = "LAYOUT_DIALOG_SPRING_NATURAL_LENGTH"
	KeyRepulsionMultiplier = "LAYOUT_DIALOG_REPULSION_MULTIPLIER"
	KeyVerticalSpacing     = "LAYOUT_DIALOG_VERTICAL_SPACING"
	KeyHorizontalSpacing   = "LAYOUT_DIALOG_HORIZONTAL_SPACING"
	KeyFixRoots            = "LAYOUT_DIALOG_FIX_ROOTS"
	KeyMovementLimit       = "LAYOUT_DIALOG_MOVEMENT_LIMIT"
	KeyGravity             = "LAYOUT_DIALOG_GRAVITY"
	KeyShowJobDetail       = "LAYOUT_DIALOG_SHOW_JOB_DETAIL"
)

// FromProperties overrides base with a property map. Every key except
// KeyShowJobDetail is required; numbers must be integers and booleans must be
// exactly "true" or "false". The result is validated.
func FromProperties(base Layout, props map[string]string) (Layout, error) {
	c := base
	var err error
	if c.Iterates, err = propInt(props, KeyIterates); err != nil {
		return Layout{}, err
	}
	if c.HorizontalSpacing, err = propInt(props, KeyHorizontalSpacing); err != nil {
		return Layout{}, err
	}
	if c.VerticalSpacing, err = propInt(props, KeyVerticalSpacing); err != nil {
		return Layout{}, err
	}
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{KeySpringNaturalLength, &c.SpringNaturalLength},
		{KeyRepulsionMultiplier, &c.RepulsionMultiplier},
		{KeyMovementLimit, &c.MovementLimit},
		{KeyGravity, &c.Gravity},
	} {
		n, err := propInt(props, f.key)
		if err != nil {
			return Layout{}, err
		}
		*f.dst = float64(n)
	}
	if c.FixRoots, err = propBool(props, KeyFixRoots); err != nil {
		return Layout{}, err
	}
	if _, ok := props[KeyShowJobDetail]; ok {
		if c.ShowJobDetail, err = propBool(props, KeyShowJobDetail); err != nil {
			return Layout{}, err
		}
	}
	if err := c.Validate(); err != nil {
		return Layout{}, err
	}
	return c, nil
}

// Properties returns c as a property map. Float parameters are truncated to
// integers, the only numbers the map format carries.
func (c Layout) Properties() map[string]string {
	return map[string]string{
		KeyIterates:            strconv.Itoa(c.Iterates),
		KeySpringNaturalLength: strconv.Itoa(int(c.SpringNaturalLength)),
		KeyRepulsionMultiplier: strconv.Itoa(int(c.RepulsionMultiplier)),
		KeyVerticalSpacing:     strconv.Itoa(c.VerticalSpacing),
		KeyHorizontalSpacing:   strconv.Itoa(c.HorizontalSpacing),
		KeyFixRoots:            strconv.FormatBool(c.FixRoots),
		KeyMovementLimit:       strconv.Itoa(int(c.MovementLimit)),
		KeyGravity:             strconv.Itoa(int(c.Gravity)),
		KeyShowJobDetail:       strconv.FormatBool(c.ShowJobDetail),
	}
}

func propValue(props map[string]string, key string) (string, error) {
	v := strings.TrimSpace(props[key])
	if v == "" {
		return "", errors.New(errors.ErrCodeInvalidConfig, "you must provide a value in the application config for: %s", key)
	}
	return v, nil
}

func propInt(props map[string]string, key string) (int, error) {
	v, err := propValue(props, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "the layout config item %s is %s which is not a valid integer", key, v)
	}
	return n, nil
}

func propBool(props map[string]string, key string) (bool, error) {
	v, err := propValue(props, key)
	if err != nil {
		return false, err
	}
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errors.New(errors.ErrCodeInvalidConfig, "the value %s could not be parsed into a boolean", key)
}
