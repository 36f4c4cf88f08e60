package fiber

import "strconv"

// Props are the attributes a descriptor requests for one tree position.
// Scalar values are diffed with ==; values whose dynamic type is not
// comparable (funcs, maps, slices) are treated as always-changed.
type Props map[string]any

// ComponentFunc computes the descriptor a component position should render.
// It must be side-effect free: the engine may invoke it any number of times
// for passes that are later abandoned.
type ComponentFunc func(props Props) (*Descriptor, error)

// CatchProp marks a fiber as an error boundary. Its value must be a
// func(error). When a descendant component's render fails, the nearest
// boundary re-renders empty and receives the error after the commit.
const CatchProp = "catch"

// Descriptor is the immutable "what should exist" value for one tree
// position. Kind is either a string host tag or a ComponentFunc. A fresh
// descriptor is produced every render pass; the engine compares descriptors
// by pointer identity only as a cheap bail-out and never mutates them.
//
// Children entries may be *Descriptor, string, a numeric (rendered as
// text), or nil (renders nothing).
type Descriptor struct {
	Kind     any
	Key      string
	Props    Props
	Children []any
}

// E builds a host or component descriptor.
func E(kind any, key string, props Props, children ...any) *Descriptor {
	return &Descriptor{Kind: kind, Key: key, Props: props, Children: children}
}

// coerceText converts a child value into text content, mirroring how
// primitives render. Booleans render nothing, matching nil.
func coerceText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	default:
		return "", false
	}
}
