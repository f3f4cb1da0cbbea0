package pipeline

import (
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/loader"
	"github.com/matzehuels/risekit/pkg/pack"
	"github.com/matzehuels/risekit/pkg/page"
	"github.com/matzehuels/risekit/pkg/widget"
)

// DefaultUnitName names the top-level unit of a page without a title.
const DefaultUnitName = "page"

// BuildDescriptor packs p into a descriptor. The page roots form the
// top-level unit; every page unit is packed on its own server tree and
// nested under the unit that declares it.
func BuildDescriptor(p *page.Page, opts widget.Options) (*loader.Descriptor, pack.Stats, error) {
	if opts.Viewport == (geometry.Size{}) {
		opts.Viewport = p.Viewport.Size()
	}
	name := p.Title
	if name == "" {
		name = DefaultUnitName
	}
	var total pack.Stats
	payload, err := packConfigs(p.Roots, opts, &total)
	if err != nil {
		return nil, total, errors.Wrap(errors.ErrCodeInvalidPage, err, "unit %q", name)
	}
	d := &loader.Descriptor{Name: name, Payload: *payload}
	if d.Nested, err = buildUnits(p.Units, opts, &total); err != nil {
		return nil, total, err
	}
	return d, total, nil
}

func buildUnits(units []page.Unit, opts widget.Options, total *pack.Stats) ([]loader.Descriptor, error) {
	if len(units) == 0 {
		return nil, nil
	}
	out := make([]loader.Descriptor, 0, len(units))
	for i := range units {
		u := &units[i]
		assets, err := u.ParsedAssets()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPage, err, "unit %q", u.Name)
		}
		payload, err := packConfigs(u.Roots, opts, total)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPage, err, "unit %q", u.Name)
		}
		nested, err := buildUnits(u.Units, opts, total)
		if err != nil {
			return nil, err
		}
		out = append(out, loader.Descriptor{
			Name:    u.Name,
			Plugin:  u.Plugin,
			Payload: *payload,
			Assets:  assets,
			Code:    u.Code,
			Mount:   u.Mount,
			Nested:  nested,
		})
	}
	return out, nil
}

// packConfigs builds cfgs on a fresh server tree and packs them. No
// configs yields an empty payload.
func packConfigs(cfgs []widget.Config, opts widget.Options, total *pack.Stats) (*pack.Payload, error) {
	if len(cfgs) == 0 {
		return &pack.Payload{}, nil
	}
	tree := widget.NewTree(opts)
	roots := make([]*widget.Node, 0, len(cfgs))
	for _, cfg := range cfgs {
		r, err := tree.Build(cfg)
		if err != nil {
			return nil, err
		}
		roots = append(roots, r)
	}
	p, stats, err := pack.PackWithStats(roots...)
	if err != nil {
		return nil, err
	}
	total.Roots += stats.Roots
	total.Widgets += stats.Widgets
	total.Bytes += stats.Bytes
	return p, nil
}
