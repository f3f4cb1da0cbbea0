package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/risekit/pkg/asset"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/pack"
)

// Descriptor describes one snippet or plugin unit: its packed subtree, the
// assets its commands need and the units nested in it.
type Descriptor struct {
	// Name identifies the unit in logs and hooks.
	Name string `json:"name"`

	// Plugin names the lifecycle hooks to run, registered in the
	// loader's Plugins. Empty for plain snippets.
	Plugin string `json:"plugin,omitempty"`

	pack.Payload

	// Assets must be available before the unit hydrates.
	Assets []asset.Asset `json:"assets,omitempty"`

	// Code lists command references run once against the unit's handle,
	// after the plugin hooks.
	Code []string `json:"code,omitempty"`

	// Mount is the key of the widget of the enclosing unit whose element
	// receives this unit's markup. Empty means the enclosing mount.
	Mount string `json:"mount,omitempty"`

	// Nested units load after this one, concurrently.
	Nested []Descriptor `json:"nested,omitempty"`
}

// Validate checks the payload of d and of every nested unit.
func (d *Descriptor) Validate() error {
	if err := d.Payload.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPayload, err, "unit %q", d.Name)
	}
	for i := range d.Nested {
		if err := d.Nested[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of units in d, d included.
func (d *Descriptor) Count() int {
	n := 1
	for i := range d.Nested {
		n += d.Nested[i].Count()
	}
	return n
}

// ReadDescriptor decodes and validates a JSON descriptor.
func ReadDescriptor(r io.Reader) (*Descriptor, error) {
	var d Descriptor
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode descriptor")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDescriptor reads a descriptor file.
func LoadDescriptor(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDescriptor(f)
}

// WriteTo writes d as indented JSON without escaping markup.
func (d *Descriptor) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return 0, fmt.Errorf("encode descriptor: %w", err)
	}
	return buf.WriteTo(w)
}
