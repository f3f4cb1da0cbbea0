package loader

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/matzehuels/risekit/pkg/asset"
	"github.com/matzehuels/risekit/pkg/dom"
	"github.com/matzehuels/risekit/pkg/errors"
	"github.com/matzehuels/risekit/pkg/geometry"
	"github.com/matzehuels/risekit/pkg/handler"
	"github.com/matzehuels/risekit/pkg/pack"
	"github.com/matzehuels/risekit/pkg/widget"
)

var viewport = geometry.Size{W: 300, H: 200}

// unit packs cfg on a server tree into a descriptor.
func unit(t *testing.T, name string, cfg widget.Config) Descriptor {
	t.Helper()
	server := widget.NewTree(widget.Options{Viewport: viewport})
	root, err := server.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	p, err := pack.Pack(root)
	if err != nil {
		t.Fatal(err)
	}
	return Descriptor{Name: name, Payload: *p}
}

func pageUnit(t *testing.T) Descriptor {
	return unit(t, "page", widget.Config{
		Type:  widget.TypePanel,
		Key:   "page",
		Place: widget.Placement{Left: "0", Top: "0", Width: "300", Height: "200"},
		Children: []widget.Config{
			{Type: widget.TypeLabel, Key: "title", Props: map[string]any{"text": "Hi"}},
			{Type: widget.TypeBox, Key: "slot", Place: widget.Placement{Top: "50", Height: "100"}},
		},
	})
}

type env struct {
	doc    *html.Node
	app    *dom.Element
	tree   *widget.Tree
	cmds   *handler.Table
	mods   *asset.Modules
	hooks  *Registry
	loader *Loader
}

func newEnv(t *testing.T, opts Options) *env {
	t.Helper()
	e := &env{
		doc:   dom.NewFragment(),
		app:   dom.New("main"),
		cmds:  handler.NewTable(),
		mods:  asset.NewModules(),
		hooks: NewRegistry(),
	}
	e.doc.AppendChild(e.app.Node())
	e.tree = widget.NewTree(widget.Options{Viewport: viewport, Handlers: e.cmds})
	opts.Tree = e.tree
	opts.Document = e.doc
	opts.Plugins = e.hooks
	if opts.Assets == nil {
		opts.Assets = e.mods
	}
	l, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	e.loader = l
	return e
}

func (e *env) markup(t *testing.T) string {
	t.Helper()
	s, err := dom.RenderString(e.app.Node())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewRequiresTree(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New() error = %v", err)
	}
}

func TestLoadWithoutAssets(t *testing.T) {
	e := newEnv(t, Options{})
	d := pageUnit(t)

	p, err := e.loader.Load(context.Background(), e.app, &d)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Errors()) != 0 {
		t.Fatalf("errors: %v", p.Errors())
	}
	if p.Handle == uuid.Nil {
		t.Error("plugin has no handle")
	}
	if e.loader.Plugin(p.Handle) != p {
		t.Error("plugin not registered under its handle")
	}
	if got := p.Result().Live(); got != 3 {
		t.Errorf("live widgets = %d, want 3", got)
	}
	title := p.Node("title")
	if title == nil || title.State() != widget.StateLive {
		t.Fatalf("title = %v", title)
	}
	if !title.Element().Within(e.doc) {
		t.Error("markup not mounted")
	}
	if !strings.HasPrefix(e.markup(t), `<main><section class="panel"`) {
		t.Errorf("markup = %s", e.markup(t))
	}
}

func TestLoadWaitsForAssets(t *testing.T) {
	e := newEnv(t, Options{})
	d := pageUnit(t)
	d.Assets = []asset.Asset{asset.Module("charts"), asset.Module("maps")}

	type result struct {
		p   *Plugin
		err error
	}
	done := make(chan result, 1)
	go func() {
		p, err := e.loader.Load(context.Background(), e.app, &d)
		done <- result{p, err}
	}()

	e.mods.Provide("charts")
	select {
	case r := <-done:
		t.Fatalf("loaded before every asset resolved: %v", r.err)
	case <-time.After(20 * time.Millisecond):
	}
	if e.app.Node().FirstChild != nil {
		t.Fatal("markup mounted before the barrier opened")
	}

	e.mods.Provide("maps")
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatal(r.err)
		}
		if r.p.Result().Live() != 3 {
			t.Errorf("live widgets = %d", r.p.Result().Live())
		}
	case <-time.After(time.Second):
		t.Fatal("barrier never opened")
	}
}

func TestLoadAssetFailures(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		ctx     func() (context.Context, context.CancelFunc)
		prepare func(m *asset.Modules)
		code    errors.Code
		ctxErr  error
	}{
		{
			name:    "rejected",
			prepare: func(m *asset.Modules) { m.Fail("charts", nil) },
			code:    errors.ErrCodeAsset,
		},
		{
			name: "timeout",
			opts: Options{AssetTimeout: 20 * time.Millisecond},
			code: errors.ErrCodeTimeout,
		},
		{
			name: "no timeout waits for the context",
			opts: Options{AssetTimeout: NoTimeout},
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 20*time.Millisecond)
			},
			ctxErr: context.DeadlineExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.opts)
			if tt.prepare != nil {
				tt.prepare(e.mods)
			}
			ctx, cancel := context.Background(), context.CancelFunc(func() {})
			if tt.ctx != nil {
				ctx, cancel = tt.ctx()
			}
			defer cancel()

			d := pageUnit(t)
			d.Assets = []asset.Asset{asset.Module("charts")}
			p, err := e.loader.Load(ctx, e.app, &d)
			if p != nil {
				t.Error("failed unit returned a plugin")
			}
			if tt.ctxErr != nil {
				if err != tt.ctxErr {
					t.Errorf("Load() error = %v, want %v", err, tt.ctxErr)
				}
			} else if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
			if len(e.tree.Roots()) != 0 || e.app.Node().FirstChild != nil {
				t.Error("failed unit hydrated")
			}
		})
	}
}

func TestLoadHookOrder(t *testing.T) {
	e := newEnv(t, Options{})
	var order []string
	step := func(name string) func(context.Context, *Plugin) error {
		return func(_ context.Context, p *Plugin) error {
			if p.Node("page") == nil {
				t.Errorf("%s ran before hydration", name)
			}
			order = append(order, name)
			return nil
		}
	}
	e.hooks.MustRegister("dash", Hooks{
		BeforeRender: step("BeforeRender"),
		BeforeRun:    step("BeforeRun"),
		Run:          step("Run"),
	})
	var handle uuid.UUID
	e.cmds.MustRegister("boot", func(_ context.Context, c handler.Call) error {
		p := c.Target.(*Plugin)
		handle = p.Handle
		order = append(order, "code:"+strings.Join(c.Args, ","))
		return nil
	})

	d := pageUnit(t)
	d.Plugin = "dash"
	d.Code = []string{"boot:x", "missing"}
	p, err := e.loader.Load(context.Background(), e.app, &d)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"BeforeRender", "BeforeRun", "Run", "code:x"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if handle != p.Handle {
		t.Error("snippet code not bound to the plugin handle")
	}
	if errs := p.Errors(); len(errs) != 1 || !errors.Is(errs[0], errors.ErrCodeUnknownCommand) {
		t.Errorf("errors = %v", errs)
	}
}

func TestLoadHookFailure(t *testing.T) {
	e := newEnv(t, Options{})
	ran := false
	e.hooks.MustRegister("broken", Hooks{
		BeforeRun: func(context.Context, *Plugin) error { return errors.New(errors.ErrCodeInvalidState, "no data") },
		Run:       func(context.Context, *Plugin) error { ran = true; return nil },
	})
	d := pageUnit(t)
	d.Plugin = "broken"
	if _, err := e.loader.Load(context.Background(), e.app, &d); err == nil || !strings.Contains(err.Error(), "BeforeRun") {
		t.Fatalf("Load() error = %v", err)
	}
	if ran {
		t.Error("Run ran after BeforeRun failed")
	}
	if len(e.tree.Roots()) != 0 || len(e.loader.Plugins()) != 0 {
		t.Error("failed unit left widgets behind")
	}

	d.Plugin = "unregistered"
	if _, err := e.loader.Load(context.Background(), e.app, &d); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unregistered plugin error = %v", err)
	}
}

func TestLoadNested(t *testing.T) {
	e := newEnv(t, Options{})
	var order []string
	record := func(_ context.Context, p *Plugin) error {
		order = append(order, p.Name)
		return nil
	}
	e.hooks.MustRegister("rec", Hooks{Run: record})
	e.hooks.MustRegister("provider", Hooks{Run: func(ctx context.Context, p *Plugin) error {
		e.mods.Provide("charts")
		return record(ctx, p)
	}})

	d := pageUnit(t)
	d.Plugin = "rec"
	charts := unit(t, "charts", widget.Config{Type: widget.TypeRect, Key: "chart"})
	charts.Plugin = "rec"
	charts.Mount = "slot"
	charts.Assets = []asset.Asset{asset.Module("charts")}
	footer := unit(t, "footer", widget.Config{Type: widget.TypeBox, Key: "footer"})
	footer.Plugin = "provider"
	missing := unit(t, "lost", widget.Config{Type: widget.TypeBox})
	missing.Mount = "nowhere"
	d.Nested = []Descriptor{charts, footer, missing}

	p, err := e.loader.Load(context.Background(), e.app, &d)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"page", "footer", "charts"}, order); diff != "" {
		t.Errorf("completion order mismatch (-want +got):\n%s", diff)
	}
	if errs := p.Errors(); len(errs) != 1 || !errors.Is(errs[0], errors.ErrCodeNotFound) {
		t.Errorf("errors = %v", errs)
	}
	if len(p.Nested()) != 2 {
		t.Fatalf("nested = %d, want 2", len(p.Nested()))
	}

	slot, chart := p.Node("slot"), p.Node("chart")
	if chart == nil {
		t.Fatal("nested widget not reachable from the enclosing unit")
	}
	if chart.Parent() != slot {
		t.Errorf("chart parent = %v, want slot", chart.Parent())
	}
	if chart.Element().Parent().Node() != slot.Element().Node() {
		t.Error("chart markup not mounted in the slot element")
	}
	if got := len(e.loader.Plugins()); got != 3 {
		t.Errorf("live plugins = %d, want 3", got)
	}
}

func TestLoadStaleMount(t *testing.T) {
	e := newEnv(t, Options{})
	e.app.Remove()
	d := pageUnit(t)
	if _, err := e.loader.Load(context.Background(), e.app, &d); !errors.Is(err, errors.ErrCodeStaleTarget) {
		t.Errorf("Load() error = %v", err)
	}
	if _, err := e.loader.Load(context.Background(), nil, &d); !errors.Is(err, errors.ErrCodeStaleTarget) {
		t.Errorf("Load(nil) error = %v", err)
	}
}

func TestLoadInvalidDescriptor(t *testing.T) {
	e := newEnv(t, Options{})
	d := pageUnit(t)
	d.Nested = []Descriptor{{Name: "bad", Payload: pack.Payload{Info: []widget.Info{{Type: "Box", RenderIndex: 3}}}}}
	if _, err := e.loader.Load(context.Background(), e.app, &d); !errors.Is(err, errors.ErrCodeInvalidPayload) {
		t.Errorf("Load() error = %v", err)
	}
}

func TestDestroy(t *testing.T) {
	e := newEnv(t, Options{})
	destroyed := 0
	e.hooks.MustRegister("rec", Hooks{Destroy: func(*Plugin) { destroyed++ }})

	d := pageUnit(t)
	d.Plugin = "rec"
	nested := unit(t, "charts", widget.Config{Type: widget.TypeRect, Key: "chart"})
	nested.Plugin = "rec"
	nested.Mount = "slot"
	d.Nested = []Descriptor{nested}

	p, err := e.loader.Load(context.Background(), e.app, &d)
	if err != nil {
		t.Fatal(err)
	}
	page := p.Node("page")
	p.Destroy()
	p.Destroy()

	if destroyed != 2 {
		t.Errorf("Destroy hook ran %d times, want 2", destroyed)
	}
	if page.State() != widget.StateDestructed {
		t.Errorf("page state = %s", page.State())
	}
	if !p.Nested()[0].Destroyed() {
		t.Error("nested unit not destroyed")
	}
	if e.app.Node().FirstChild != nil {
		t.Errorf("markup left behind: %s", e.markup(t))
	}
	if len(e.tree.Roots()) != 0 || len(e.loader.Plugins()) != 0 {
		t.Error("destroyed units still registered")
	}
}

func TestLoadSanitize(t *testing.T) {
	e := newEnv(t, Options{Sanitize: true})
	d := pageUnit(t)
	d.HTML = strings.Replace(d.HTML, `>Hi<`, `>Hi<script>alert(1)</script><`, 1)
	d.HTML = strings.Replace(d.HTML, `<section `, `<section onclick="steal()" `, 1)

	p, err := e.loader.Load(context.Background(), e.app, &d)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Errors()) != 0 {
		t.Fatalf("errors: %v", p.Errors())
	}
	out := e.markup(t)
	for _, bad := range []string{"<script", "onclick"} {
		if strings.Contains(out, bad) {
			t.Errorf("sanitized markup kept %q: %s", bad, out)
		}
	}
	for _, keep := range []string{`data-w="2"`, `style="position:absolute;`, `class="panel"`} {
		if !strings.Contains(out, keep) {
			t.Errorf("sanitized markup lost %q: %s", keep, out)
		}
	}
}

func TestDescriptorReadWrite(t *testing.T) {
	d := pageUnit(t)
	d.Assets = []asset.Asset{asset.Module("charts"), asset.Style("/site.css")}
	d.Nested = []Descriptor{unit(t, "footer", widget.Config{Key: "footer"})}

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"kind": "style"`) {
		t.Errorf("asset kinds not written as text:\n%s", buf.String())
	}
	got, err := ReadDescriptor(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&d, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got.Count() != 2 {
		t.Errorf("Count() = %d", got.Count())
	}
}
