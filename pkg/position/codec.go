package position

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/risekit/pkg/errors"
)

// =============================================================================
// Packed form
// =============================================================================

// encoder builds "tag;key:value;..." strings. Keys are written in call
// order; strategies call it in a fixed order so output is deterministic.
type encoder struct {
	sb strings.Builder
}

func newEncoder(k Kind) *encoder {
	e := &encoder{}
	e.sb.WriteString(string(k))
	return e
}

func (e *encoder) str(key, v string) *encoder {
	if v == "" {
		return e
	}
	e.sb.WriteByte(';')
	e.sb.WriteString(key)
	e.sb.WriteByte(':')
	e.sb.WriteString(v)
	return e
}

func (e *encoder) int(key string, v int) *encoder {
	if v == 0 {
		return e
	}
	return e.str(key, strconv.Itoa(v))
}

func (e *encoder) float(key string, v float64) *encoder {
	if v == 0 {
		return e
	}
	return e.str(key, ftoa(v))
}

func (e *encoder) flag(key string, v bool) *encoder {
	if !v {
		return e
	}
	return e.str(key, "1")
}

func (e *encoder) String() string { return e.sb.String() }

func ftoa(v float64) string {
	return strconv.FormatFloat(math.Round(v*10000)/10000, 'f', -1, 64)
}

// fields is a parsed packed string.
type fields struct {
	tag Kind
	kv  map[string]string
	err error
}

func parseFields(s string) fields {
	parts := strings.Split(s, ";")
	f := fields{tag: Kind(strings.TrimSpace(parts[0])), kv: make(map[string]string, len(parts)-1)}
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		k, v, ok := strings.Cut(p, ":")
		if !ok {
			f.fail("token %q has no value", p)
			continue
		}
		f.kv[k] = v
	}
	return f
}

func (f *fields) fail(format string, args ...any) {
	if f.err == nil {
		f.err = fmt.Errorf(format, args...)
	}
}

func (f *fields) str(key, def string) string {
	if v, ok := f.kv[key]; ok {
		return v
	}
	return def
}

func (f *fields) int(key string, def int) int {
	v, ok := f.kv[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		f.fail("%s: invalid integer %q", key, v)
		return def
	}
	return n
}

func (f *fields) float(key string, def float64) float64 {
	v, ok := f.kv[key]
	if !ok {
		return def
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		f.fail("%s: invalid number %q", key, v)
		return def
	}
	return n
}

func (f *fields) flag(key string) bool {
	return f.kv[key] == "1"
}

// decoder is implemented by every strategy to consume its packed fields.
// On error the strategy must be left at its defaults.
type decoder interface {
	Strategy
	decode(f *fields) error
}

func newDefault(k Kind) (decoder, bool) {
	switch k {
	case KindAlign:
		return NewAlign(AlignStart, AlignStart), true
	case KindMap:
		return NewMap(MapPercent), true
	case KindStream:
		return NewStream(StreamConfig{}), true
	case KindGrid:
		return NewGrid(GridConfig{}), true
	case KindSlot:
		return NewSlot(SlotConfig{}), true
	}
	return nil, false
}

// Decode rebuilds a strategy from its packed form. It never fails hard:
// when the string is malformed it returns the defaults of the tagged kind
// (or an Align strategy when the tag itself is unknown) together with an
// error describing the problem, so callers can log and continue.
func Decode(packed string) (Strategy, error) {
	f := parseFields(packed)
	s, ok := newDefault(f.tag)
	if !ok {
		fallback, _ := newDefault(KindAlign)
		return fallback, errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy tag %q", f.tag)
	}
	if err := s.decode(&f); err != nil {
		fresh, _ := newDefault(f.tag)
		return fresh, errors.Wrap(errors.ErrCodeInvalidStrategy, err, "decode %s", f.tag)
	}
	if f.err != nil {
		fresh, _ := newDefault(f.tag)
		return fresh, errors.Wrap(errors.ErrCodeInvalidStrategy, f.err, "decode %s", f.tag)
	}
	return s, nil
}

// =============================================================================
// Spec - tagged configuration
// =============================================================================

// Spec is the configuration of a strategy as written in page files. Kind is
// the discriminant; only the fields of that kind are read.
type Spec struct {
	Kind string `toml:"kind" yaml:"kind" json:"kind"` // align, map, stream, grid, slot

	// Align
	HAlign string `toml:"halign,omitempty" yaml:"halign,omitempty" json:"halign,omitempty"`
	VAlign string `toml:"valign,omitempty" yaml:"valign,omitempty" json:"valign,omitempty"`

	// Map
	Unit string `toml:"unit,omitempty" yaml:"unit,omitempty" json:"unit,omitempty"` // "px" or "%"

	// Stream and grid sub-type
	Type      string  `toml:"type,omitempty" yaml:"type,omitempty" json:"type,omitempty"`
	Direction string  `toml:"direction,omitempty" yaml:"direction,omitempty" json:"direction,omitempty"`
	Indent    float64 `toml:"indent,omitempty" yaml:"indent,omitempty" json:"indent,omitempty"`

	// Grid and slot
	Cols      int     `toml:"cols,omitempty" yaml:"cols,omitempty" json:"cols,omitempty"`
	Rows      int     `toml:"rows,omitempty" yaml:"rows,omitempty" json:"rows,omitempty"`
	MinWidth  float64 `toml:"min_width,omitempty" yaml:"min_width,omitempty" json:"min_width,omitempty"`
	MinHeight float64 `toml:"min_height,omitempty" yaml:"min_height,omitempty" json:"min_height,omitempty"`
	MaxWidth  float64 `toml:"max_width,omitempty" yaml:"max_width,omitempty" json:"max_width,omitempty"`
	MaxHeight float64 `toml:"max_height,omitempty" yaml:"max_height,omitempty" json:"max_height,omitempty"`

	// Slot
	Ratio float64 `toml:"ratio,omitempty" yaml:"ratio,omitempty" json:"ratio,omitempty"`
	Align string  `toml:"align,omitempty" yaml:"align,omitempty" json:"align,omitempty"`

	// Actualize requests an extra client-side pass after hydration.
	Actualize bool `toml:"actualize,omitempty" yaml:"actualize,omitempty" json:"actualize,omitempty"`
}

// New builds a strategy from a spec. An empty kind yields an Align
// strategy.
func New(spec Spec) (Strategy, error) {
	switch strings.ToLower(spec.Kind) {
	case "", "align":
		return NewAlign(Alignment(spec.HAlign), Alignment(spec.VAlign)), nil
	case "map":
		u := MapPercent
		switch spec.Unit {
		case "", "%", "percent":
		case "px":
			u = MapPixel
		default:
			return nil, errors.New(errors.ErrCodeInvalidInput, "map unit %q (want px or %%)", spec.Unit)
		}
		return NewMap(u), nil
	case "stream":
		cfg := StreamConfig{
			Type:      StreamType(spec.Type),
			Direction: Direction(spec.Direction),
			Indent:    spec.Indent,
			Actualize: spec.Actualize,
		}
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return NewStream(cfg), nil
	case "grid":
		cfg := GridConfig{
			Type:      GridType(spec.Type),
			Cols:      spec.Cols,
			MinWidth:  spec.MinWidth,
			MinHeight: spec.MinHeight,
			MaxWidth:  spec.MaxWidth,
			MaxHeight: spec.MaxHeight,
			Gap:       spec.Indent,
			Actualize: spec.Actualize,
		}
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return NewGrid(cfg), nil
	case "slot":
		cfg := SlotConfig{
			Ratio:     spec.Ratio,
			Cols:      spec.Cols,
			Rows:      spec.Rows,
			Align:     SlotAlign(spec.Align),
			Actualize: spec.Actualize,
		}
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return NewSlot(cfg), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy kind %q", spec.Kind)
}
