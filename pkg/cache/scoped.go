package cache

// Keyer builds cache keys for the data the resolver caches.
type Keyer interface {
	// MetadataKey is the key for a registry document of a package.
	MetadataKey(registry, name string) string
	// ManifestKey is the key for a plugin dependency manifest fetched
	// remotely for a package version.
	ManifestKey(name, version string) string
}

// DefaultKeyer produces plain namespaced keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key layout.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// MetadataKey returns "meta:<registry>:<name>".
func (DefaultKeyer) MetadataKey(registry, name string) string {
	return "meta:" + registry + ":" + name
}

// ManifestKey returns "manifest:<hash>" where the hash covers name and version.
func (DefaultKeyer) ManifestKey(name, version string) string {
	return hashKey("manifest", name, version)
}

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis instance without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// MetadataKey generates a prefixed metadata key.
func (k *ScopedKeyer) MetadataKey(registry, name string) string {
	return k.prefix + k.inner.MetadataKey(registry, name)
}

// ManifestKey generates a prefixed manifest key.
func (k *ScopedKeyer) ManifestKey(name, version string) string {
	return k.prefix + k.inner.ManifestKey(name, version)
}
