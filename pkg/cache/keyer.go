package cache

import "time"

// Keyer names cache entries. All components go through one Keyer so that
// tenants can be isolated by wrapping it (see ScopedKeyer).
type Keyer interface {
	// PayloadKey names the packed payload of a page source.
	PayloadKey(sourceHash string, opts PayloadKeyOpts) string

	// AssetKey names a fetched script or stylesheet.
	AssetKey(url string) string
}

// PayloadKeyOpts are the pack options that change the payload.
type PayloadKeyOpts struct {
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// DefaultKeyer produces "kind:hash" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) PayloadKey(sourceHash string, opts PayloadKeyOpts) string {
	return hashKey("payload", sourceHash, opts)
}

func (DefaultKeyer) AssetKey(url string) string { return "asset:" + url }

// ScopedKeyer prefixes every key of an inner Keyer.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) PayloadKey(sourceHash string, opts PayloadKeyOpts) string {
	return k.prefix + k.inner.PayloadKey(sourceHash, opts)
}

func (k *ScopedKeyer) AssetKey(url string) string { return k.prefix + k.inner.AssetKey(url) }

// Entry lifetimes.
const (
	TTLPayload = 7 * 24 * time.Hour
	TTLAsset   = 24 * time.Hour
)
