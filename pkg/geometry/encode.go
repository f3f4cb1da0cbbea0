package geometry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// EncodePriority returns the compact priority form "h0,h1|v0,v1". An axis
// that uses its default pair is left empty; a box with default priorities on
// both axes encodes as the empty string.
func EncodePriority(b *Box) string {
	h := encodePair(b.priority[Horizontal], Horizontal)
	v := encodePair(b.priority[Vertical], Vertical)
	if h == "" && v == "" {
		return ""
	}
	return h + "|" + v
}

func encodePair(p Priority, a Axis) string {
	if p == DefaultPriority(a) {
		return ""
	}
	return strconv.Itoa(int(p.Primary)) + "," + strconv.Itoa(int(p.Secondary))
}

// DecodePriority restores the priority mask encoded by EncodePriority
// without evicting any stored value. Malformed sides fall back to the
// default pair; the returned error describes the first problem found and is
// meant for logging only.
func DecodePriority(b *Box, s string) error {
	h, v, _ := strings.Cut(s, "|")
	var firstErr error
	for _, side := range []struct {
		axis Axis
		text string
	}{{Horizontal, h}, {Vertical, v}} {
		p, err := decodePair(side.text, side.axis)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		b.priority[side.axis] = p
	}
	return firstErr
}

func decodePair(s string, a Axis) (Priority, error) {
	def := DefaultPriority(a)
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	first, second, ok := strings.Cut(s, ",")
	if !ok {
		return def, fmt.Errorf("%s priority %q: want two edges", a, s)
	}
	p0, err0 := strconv.Atoi(strings.TrimSpace(first))
	p1, err1 := strconv.Atoi(strings.TrimSpace(second))
	if err0 != nil || err1 != nil {
		return def, fmt.Errorf("%s priority %q: non-numeric edge", a, s)
	}
	p := Priority{Primary: Edge(p0), Secondary: Edge(p1)}
	if !p.validFor(a) {
		return def, fmt.Errorf("%s priority %q: edges do not form a pair", a, s)
	}
	return p, nil
}

// FormatStyle renders the stored edge values as an inline style. Every set
// value is written, including stale ones outside the live pairs, so that the
// priority mask stays meaningful after a round trip.
func FormatStyle(b *Box) string {
	var sb strings.Builder
	sb.WriteString("position:absolute")
	for e := Left; e < edgeCount; e++ {
		if v := b.values[e]; v.IsSet() {
			sb.WriteByte(';')
			sb.WriteString(e.String())
			sb.WriteByte(':')
			sb.WriteString(v.String())
		}
	}
	return sb.String()
}

// ParseStyle reads edge values from an inline style into b. Properties other
// than the six edges are returned untouched in extra, sorted by name. Values
// are stored directly, priorities are not changed.
func ParseStyle(b *Box, style string) (extra map[string]string, err error) {
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		e, isEdge := EdgeByName(name)
		if !isEdge {
			if name != "position" {
				if extra == nil {
					extra = make(map[string]string)
				}
				extra[name] = value
			}
			continue
		}
		m, perr := ParseMeasure(value)
		if perr != nil {
			if err == nil {
				err = perr
			}
			continue
		}
		b.values[e] = m
	}
	return extra, err
}

// SortedStyle formats a property map deterministically.
func SortedStyle(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + props[k]
	}
	return strings.Join(parts, ";")
}
