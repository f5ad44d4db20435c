package cache

// LayoutKeyOpts are the inputs besides the graph that a layout result
// depends on.
type LayoutKeyOpts struct {
	ConfigHash    string // Hash of the effective layout configuration
	PositionsHash string // Hash of the persisted positions used as seeds
	Seed          uint64 // Jitter seed
}

// Keyer generates cache keys.
type Keyer interface {
	// LayoutKey returns the key of a computed layout.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts.ConfigHash, opts.PositionsHash, opts.Seed)
}

// ScopedKeyer wraps a Keyer with a prefix so several deployments or
// tenants can share one cache backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}
