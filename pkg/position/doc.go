// Package position encodes node positions for persistence and stores the
// resulting position maps.
//
// A position map has one entry per node label. Each value is four
// space-separated integers, "x y width height". Only x and y are read back
// when a layout starts; width and height are re-derived from the label.
//
//	m := position.EncodeAll(map[string]position.Bounds{
//	    "Select": {X: 10, Y: 10, Width: 92, Height: 75},
//	})
//	// m["Select"] == "10 10 92 75"
//
// # Stores
//
// A [Store] keeps position maps by layout name:
//
//   - [FileStore]: one TOML file per layout in a directory
//   - [RedisStore]: one hash per layout
//   - [MongoStore]: one document per layout
//
// [Open] picks a store from a DSN: a redis:// or mongodb:// URL, or a
// directory path for the file store.
package position
