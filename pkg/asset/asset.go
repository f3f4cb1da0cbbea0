// Package asset is the dependency barrier in front of hydration.
//
// A snippet or plugin declares the modules, scripts and stylesheets its
// commands need. Each one is requested from a [Service], which hands back a
// [Waitable]; [Join] waits for all of them concurrently and fails as soon as
// one is rejected. Nothing is hydrated until the barrier opens.
//
// [Modules] resolves named modules in memory, [Fetcher] downloads scripts
// and stylesheets over HTTP, and [Mux] routes each kind to its service.
package asset

import (
	"context"
	"strings"

	"github.com/matzehuels/risekit/pkg/errors"
)

// Kind is the category of an asset.
type Kind int

const (
	KindModule Kind = iota
	KindScript
	KindStyle
)

var kindNames = [...]string{"module", "script", "style"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind parses the String form of a Kind.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown asset kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Asset names one dependency: a module name, or a script or stylesheet URL.
type Asset struct {
	Kind Kind   `json:"kind" toml:"kind" yaml:"kind"`
	Name string `json:"name" toml:"name" yaml:"name"`
}

// Module, Script and Style build assets of the respective kind.
func Module(name string) Asset { return Asset{Kind: KindModule, Name: name} }
func Script(url string) Asset  { return Asset{Kind: KindScript, Name: url} }
func Style(url string) Asset   { return Asset{Kind: KindStyle, Name: url} }

func (a Asset) String() string { return a.Kind.String() + ":" + a.Name }

// ParseAsset parses "kind:name". Without a known kind prefix, URLs are
// scripts (stylesheets when they end in .css) and anything else is a module.
func ParseAsset(s string) (Asset, error) {
	a := Module(s)
	if kind, name, ok := strings.Cut(s, ":"); ok {
		if k, err := ParseKind(kind); err == nil {
			a = Asset{Kind: k, Name: name}
		} else if strings.Contains(s, "://") {
			a = Script(s)
			if strings.HasSuffix(strings.ToLower(s), ".css") {
				a = Style(s)
			}
		}
	}
	return a, validate(a)
}

func validate(a Asset) error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "empty %s asset name", a.Kind)
	}
	return nil
}

// Service makes assets available. Promise starts loading a (at most once
// per asset) and returns a Waitable that settles when it is usable.
type Service interface {
	Promise(ctx context.Context, a Asset) Waitable
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, a Asset) Waitable

func (f ServiceFunc) Promise(ctx context.Context, a Asset) Waitable { return f(ctx, a) }

// Mux routes each asset kind to its own service.
type Mux map[Kind]Service

// Promise implements Service. Kinds without a service are rejected.
func (m Mux) Promise(ctx context.Context, a Asset) Waitable {
	s, ok := m[a.Kind]
	if !ok || s == nil {
		return Rejected(errors.New(errors.ErrCodeUnsupported, "no service for %s assets", a.Kind))
	}
	return s.Promise(ctx, a)
}
