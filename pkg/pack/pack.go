package pack

import (
	"bytes"
	"strconv"

	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/widget"
)

// Stats summarizes a pack run.
type Stats struct {
	Roots   int
	Widgets int
	Bytes   int
}

// Pack serializes the subtrees under roots, in order, into one payload.
//
// Render indices are assigned in pre-order across all roots starting at 0,
// every element is stamped with its marker, and each node produces one info
// entry. Nodes move to Packed; live nodes keep their state. Links to nodes
// outside roots fail the whole pack.
func Pack(roots ...*widget.Node) (*Payload, error) {
	p, _, err := PackWithStats(roots...)
	return p, err
}

// PackWithStats is Pack that also reports what was written.
func PackWithStats(roots ...*widget.Node) (*Payload, Stats, error) {
	if len(roots) == 0 {
		return nil, Stats{}, errors.New(errors.ErrCodeInvalidInput, "nothing to pack")
	}

	var order []*widget.Node
	for _, r := range roots {
		if r == nil {
			return nil, Stats{}, errors.New(errors.ErrCodeInvalidInput, "nil root")
		}
		var err error
		r.Walk(func(n *widget.Node) bool {
			if err != nil {
				return false
			}
			if err = n.MarkPacked(len(order)); err != nil {
				return false
			}
			order = append(order, n)
			return true
		})
		if err != nil {
			return nil, Stats{}, err
		}
	}

	for _, r := range roots {
		r.Materialize()
	}

	infos := make([]widget.Info, len(order))
	for i, n := range order {
		stamp(n)
		in, err := n.PackInfo()
		if err != nil {
			return nil, Stats{}, err
		}
		infos[i] = in
	}

	var buf bytes.Buffer
	for _, r := range roots {
		if err := dom.Render(&buf, r.Element().Node()); err != nil {
			return nil, Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "render markup")
		}
	}

	p := &Payload{HTML: buf.String(), Info: infos}
	return p, Stats{Roots: len(roots), Widgets: len(order), Bytes: buf.Len()}, nil
}

// stamp writes the marker attributes of n's element.
func stamp(n *widget.Node) {
	el := n.Element()
	el.SetAttr(dom.AttrWidget, strconv.Itoa(n.RenderIndex))
	el.SetAttr(dom.AttrType, n.Type.FullName())
	if n.Key != "" {
		el.SetAttr(dom.AttrKey, n.Key)
	} else {
		el.RemoveAttr(dom.AttrKey)
	}
}
