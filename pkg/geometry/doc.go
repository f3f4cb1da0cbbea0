// Package geometry implements the per-widget box model used by positioning
// strategies.
//
// A [Box] holds six addressable edges (left, top, width, height, right,
// bottom). On each axis only two of the three edges are authoritative; which
// two is recorded by a [Priority] per axis. Setting an edge that is not part
// of the current pair promotes it to secondary priority and evicts the
// previous secondary value:
//
//	b := geometry.NewBox(nil)          // (left,width) | (top,height)
//	b.SetEdge(geometry.Left, geometry.Px(10))
//	b.SetEdge(geometry.Width, geometry.Px(100))
//	b.SetEdge(geometry.Right, geometry.Px(20)) // width evicted, now (left,right)
//
// The priority mask cannot be recomputed from the stored values alone, so it
// has its own compact encoding ("h0,h1|v0,v1", see [EncodePriority]). Edge
// values travel in the element's inline style ([FormatStyle], [ParseStyle]).
//
// Percentage and pixel values are converted on demand against the live
// layout reported by the box's [Frame]; conversions are never cached.
package geometry
