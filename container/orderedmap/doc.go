// Package orderedmap is an ordered key/value map, implemented as a left-leaning red-black tree whose nodes
// live in a fixed-capacity block pool.
//
// Nodes are not scanned by the garbage collector, so keys and values must not hold references to Go heap
// objects: New rejects string keys and any key or value type holding pointers, slices, maps, interfaces,
// channels or funcs. Use value types such as integers, floats, fixed-size arrays, or structs of those.
package orderedmap
