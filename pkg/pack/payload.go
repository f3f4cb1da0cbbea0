package pack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/net/html"

	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/widget"
)

// Payload is the packed form of a widget tree: static markup plus the info
// array describing every marked element, indexed by render index.
type Payload struct {
	HTML string        `json:"html"`
	Info []widget.Info `json:"info"`
}

// Fragment parses the payload markup.
func (p *Payload) Fragment() (*html.Node, error) {
	root, err := dom.ParseFragmentString(p.HTML)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "parse markup")
	}
	return root, nil
}

// Validate checks that info entries are ordered by render index and that
// their parent, host and link indices stay inside the array.
func (p *Payload) Validate() error {
	n := len(p.Info)
	inRange := func(i int) bool { return i >= -1 && i < n }
	for i, in := range p.Info {
		if in.RenderIndex != i {
			return errors.New(errors.ErrCodeInvalidPayload, "info[%d] has render index %d", i, in.RenderIndex)
		}
		if in.Type == "" {
			return errors.New(errors.ErrCodeInvalidPayload, "info[%d] has no type", i)
		}
		if !inRange(in.Parent) || in.Parent >= i {
			return errors.New(errors.ErrCodeInvalidPayload, "info[%d] parent %d out of range", i, in.Parent)
		}
		if !inRange(in.Host) || (in.Host >= 0 && in.Host <= i) {
			return errors.New(errors.ErrCodeInvalidPayload, "info[%d] host %d out of range", i, in.Host)
		}
		for name, l := range in.Links {
			if l < 0 || l >= n {
				return errors.New(errors.ErrCodeInvalidPayload, "info[%d] link %q to %d out of range", i, name, l)
			}
		}
	}
	return nil
}

// WriteTo encodes the payload as indented JSON.
func (p *Payload) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}
	return buf.WriteTo(w)
}

// Read decodes and validates a payload written by WriteTo.
func Read(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode payload")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the payload to a JSON file at path.
func Save(p *Payload, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	_, err = p.WriteTo(f)
	return err
}

// Load reads a payload file written by Save.
func Load(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}
