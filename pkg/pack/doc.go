// Package pack serializes a widget tree into static markup plus an info
// array.
//
// # Format
//
// Every widget element carries three attributes:
//
//	data-w  render index (pre-order position among marked elements)
//	data-t  namespace.Type, informational
//	data-k  widget key, when set
//
// and an inline style holding its geometry:
//
//	<div style="position:absolute;left:0px;top:0px;width:800px;height:600px" data-w="0" data-t="core.Box">
//
// The info array has one JSON object per marked element, in render-index
// order. Reserved fields start with an underscore; free-form properties sit
// next to them:
//
//	{"_type":"Box","_ri":0,"_s":"risekit.position.grid;t:simple;c:3;m:111,110","title":"Home"}
//
// Links between widgets are stored as bare render indices, so a packed
// payload never contains object references or code. Event handlers are
// command names resolved through a handler table on the client.
//
// The hydrate package reverses the process.
package pack
