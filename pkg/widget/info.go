package widget

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Info is one entry of the info array: everything the hydrator needs to
// rebuild a widget around its existing element. Entries are ordered by
// RenderIndex, which equals the pre-order position of the widget's element
// among all marked elements.
type Info struct {
	Type        string
	Namespace   string
	Key         string
	Index       int
	RenderIndex int
	Parent      int // render index of the parent, -1 for roots
	Host        int // render index of the hosting descendant, -1 for none

	Strategy string // packed positioning strategy of the children
	Priority string // packed geometry priority

	Handlers map[string]string // event -> command reference
	OnLoad   []string
	Links    map[string]int // property -> render index

	// Props are free-form properties, flattened next to the reserved
	// fields in the JSON form.
	Props map[string]any
}

// Reserved JSON field names. Property names may not start with '_'.
const (
	fieldType      = "_type"
	fieldNamespace = "_ns"
	fieldKey       = "_key"
	fieldIndex     = "_idx"
	fieldRender    = "_ri"
	fieldParent    = "_p"
	fieldHost      = "_host"
	fieldStrategy  = "_s"
	fieldPriority  = "_g"
	fieldHandlers  = "_h"
	fieldOnLoad    = "_l"
	fieldLinks     = "_ln"
)

// IsReserved reports whether name is reserved for Info fields.
func IsReserved(name string) bool { return strings.HasPrefix(name, "_") }

// MarshalJSON writes the reserved fields and the properties as one object.
// Zero-valued optional fields are omitted.
func (in Info) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(in.Props)+8)
	for k, v := range in.Props {
		if IsReserved(k) {
			return nil, fmt.Errorf("property %q uses a reserved name", k)
		}
		m[k] = v
	}
	m[fieldType] = in.Type
	m[fieldRender] = in.RenderIndex
	if in.Namespace != "" && in.Namespace != CoreNamespace {
		m[fieldNamespace] = in.Namespace
	}
	if in.Key != "" {
		m[fieldKey] = in.Key
	}
	if in.Index != 0 {
		m[fieldIndex] = in.Index
	}
	if in.Parent >= 0 {
		m[fieldParent] = in.Parent
	}
	if in.Host >= 0 {
		m[fieldHost] = in.Host
	}
	if in.Strategy != "" {
		m[fieldStrategy] = in.Strategy
	}
	if in.Priority != "" {
		m[fieldPriority] = in.Priority
	}
	if len(in.Handlers) > 0 {
		m[fieldHandlers] = in.Handlers
	}
	if len(in.OnLoad) > 0 {
		m[fieldOnLoad] = in.OnLoad
	}
	if len(in.Links) > 0 {
		m[fieldLinks] = in.Links
	}
	// encoding/json sorts map keys, so output is deterministic.
	return json.Marshal(m)
}

// UnmarshalJSON reads the flattened form. Unknown reserved fields are
// ignored; everything else becomes a property.
func (in *Info) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Info{Namespace: CoreNamespace, Parent: -1, Host: -1}
	fields := []struct {
		name string
		dst  any
	}{
		{fieldType, &out.Type},
		{fieldNamespace, &out.Namespace},
		{fieldKey, &out.Key},
		{fieldIndex, &out.Index},
		{fieldRender, &out.RenderIndex},
		{fieldParent, &out.Parent},
		{fieldHost, &out.Host},
		{fieldStrategy, &out.Strategy},
		{fieldPriority, &out.Priority},
		{fieldHandlers, &out.Handlers},
		{fieldOnLoad, &out.OnLoad},
		{fieldLinks, &out.Links},
	}
	for _, f := range fields {
		v, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("info field %s: %w", f.name, err)
		}
	}
	if _, ok := raw[fieldRender]; !ok {
		return fmt.Errorf("info entry without %s", fieldRender)
	}
	for k, v := range raw {
		if IsReserved(k) {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("info property %s: %w", k, err)
		}
		if out.Props == nil {
			out.Props = make(map[string]any)
		}
		out.Props[k] = val
	}
	*in = out
	return nil
}
