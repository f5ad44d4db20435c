// Package config holds the layout configuration of a pipeview run.
//
// A [Layout] is built from [Defaults], then overridden by a TOML or YAML file
// ([Load]) or by a flat property map using the LAYOUT_DIALOG_* keys
// ([FromProperties]), and finally checked by [Layout.Validate]. Every error
// names the offending key and carries [errors.ErrCodeInvalidConfig], so a bad
// configuration stops a run before the simulation is built.
//
// Example TOML file:
//
//	iterates = 400
//	horizontal_spacing = 150
//	vertical_spacing = 100
//	spring_natural_length = 120
//	repulsion_multiplier = 5
//	movement_limit = 10
//	gravity = 0
//	fix_roots = true
//	placement = "depth"
//
// [errors.ErrCodeInvalidConfig]: github.com/matzehuels/pipeview/pkg/errors
package config
