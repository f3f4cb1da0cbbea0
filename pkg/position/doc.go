// Package position implements the positioning strategies a container widget
// uses to lay out its children.
//
// A [Strategy] turns a declarative [Request] into edge values on a child's
// [geometry.Box] and owns whatever auxiliary state that needs: the flow
// cursor of a [Stream], the occupancy [Bitmap] of a [Grid], the cell
// metrics of a [Slot]. [Align] and [Map] are purely declarative.
//
// # Packed Form
//
// Every strategy encodes itself as "tag;key:value;...", for example:
//
//	risekit.position.grid;t:proportional;c:3;m:111,110
//
// [Decode] restores a strategy from that string so that allocations made
// after hydration land exactly where a continuously running strategy would
// have put them. Decoding never fails hard: malformed input yields the
// defaults of the tagged kind together with an error for logging.
//
// # Configuration
//
// Page files describe strategies with [Spec], a tagged variant keyed by
// Kind, turned into a strategy by [New].
package position
