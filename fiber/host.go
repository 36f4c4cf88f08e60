package fiber

// Handle is the opaque reference to a host resource (e.g. a DOM node). A
// handle is exclusively owned by the fiber whose stateNode it is.
type Handle any

// PropChange is one entry of a flat prop diff. Remove means the prop
// disappeared; otherwise Value is the new value (adds and updates look the
// same to the host).
type PropChange struct {
	Name   string
	Value  any
	Remove bool
}

// Host supplies the mutation primitives the commit applier drives. All
// methods are synchronous and must not re-enter the engine. AppendChild and
// InsertBefore move the child if it is already attached elsewhere.
type Host interface {
	CreateInstance(tag string, props Props) (Handle, error)
	CreateText(text string) (Handle, error)
	AppendChild(parent, child Handle) error
	InsertBefore(parent, child, before Handle) error
	RemoveChild(parent, child Handle) error
	ApplyPropDiff(h Handle, diff []PropChange) error
	SetText(h Handle, text string) error
}
