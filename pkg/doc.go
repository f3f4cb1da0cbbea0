// Package pkg holds the risekit libraries.
//
// # Overview
//
// Risekit builds a retained-mode widget tree on a server, packs it into
// static markup plus a parallel info array, and later hydrates ("rises")
// that markup into a live tree wrapping the existing elements without
// re-rendering them.
//
// # Data Flow
//
//	page file (TOML/YAML)
//	         ↓
//	    [page] package (parse, validate)
//	         ↓
//	    [widget] package (server tree: geometry + positioning strategies)
//	         ↓
//	    [pack] package (markup + info array)
//	         ↓
//	    [loader] package (asset barrier, hydration, plugin hooks)
//	         ↓
//	    [hydrate] package (live client tree)
//
// [pipeline] runs the whole flow with caching; [inspect] describes live
// trees for terminals and Graphviz.
//
// # Packages
//
//   - [geometry]: measures, priority masks, boxes and the style codec
//   - [position]: Align, Map, Stream, Grid and Slot strategies and their
//     packed form
//   - [dom]: element wrapper over golang.org/x/net/html
//   - [widget]: nodes, types, lifecycle and the Tree context
//   - [handler]: named commands replacing inline event code
//   - [asset]: asset promises, signals, the barrier, modules and fetcher
//   - [cache]: file, memory, redis and null caches with a shared keyer
//   - [errors]: coded errors
//   - [observability]: pack, hydrate, loader and cache hooks
//
// [page]: github.com/matzehuels/risekit/pkg/page
// [widget]: github.com/matzehuels/risekit/pkg/widget
// [pack]: github.com/matzehuels/risekit/pkg/pack
// [loader]: github.com/matzehuels/risekit/pkg/loader
// [hydrate]: github.com/matzehuels/risekit/pkg/hydrate
// [pipeline]: github.com/matzehuels/risekit/pkg/pipeline
// [inspect]: github.com/matzehuels/risekit/pkg/inspect
// [geometry]: github.com/matzehuels/risekit/pkg/geometry
// [position]: github.com/matzehuels/risekit/pkg/position
// [dom]: github.com/matzehuels/risekit/pkg/dom
// [handler]: github.com/matzehuels/risekit/pkg/handler
// [asset]: github.com/matzehuels/risekit/pkg/asset
// [cache]: github.com/matzehuels/risekit/pkg/cache
// [errors]: github.com/matzehuels/risekit/pkg/errors
// [observability]: github.com/matzehuels/risekit/pkg/observability
package pkg
