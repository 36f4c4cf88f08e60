package fiber

import "reflect"

// Fiber is the mutable reconciliation-time state for one tree position.
// Fibers form a tree via parent/child/sibling links and are paired across
// render passes through the alternate pointer: at most two trees are ever
// live, the committed one and the pending one under construction, and no
// fiber is shared between them.
type Fiber struct {
	tag         Tag
	key         string
	elementType any // string host tag or ComponentFunc; nil for root/text

	parent  *Fiber
	child   *Fiber
	sibling *Fiber
	index   int

	// alternate is the paired fiber in the other tree. Used for lookup
	// only, never for ownership.
	alternate *Fiber

	pendingProps    Props
	memoizedProps   Props
	pendingChildren []any
	pendingDesc     *Descriptor
	memoizedDesc    *Descriptor
	text            string

	// stateNode is the host handle this fiber exclusively owns.
	stateNode Handle

	flags        Flags
	subtreeFlags Flags
	deletions    []*Fiber
	lanes        Lanes

	// updateDiff is the prop diff computed during completion, consumed by
	// the commit mutation pass.
	updateDiff []PropChange
}

// Read-only accessors for diagnostics and hosts. The returned values must
// not be mutated.

func (f *Fiber) Tag() Tag           { return f.tag }
func (f *Fiber) Key() string        { return f.key }
func (f *Fiber) Kind() any          { return f.elementType }
func (f *Fiber) Parent() *Fiber     { return f.parent }
func (f *Fiber) Child() *Fiber      { return f.child }
func (f *Fiber) Sibling() *Fiber    { return f.sibling }
func (f *Fiber) Index() int         { return f.index }
func (f *Fiber) Alternate() *Fiber  { return f.alternate }
func (f *Fiber) Props() Props       { return f.memoizedProps }
func (f *Fiber) Text() string       { return f.text }
func (f *Fiber) HostHandle() Handle { return f.stateNode }
func (f *Fiber) Flags() Flags       { return f.flags }

func newFiber(tag Tag, key string, elementType any, props Props) *Fiber {
	return &Fiber{
		tag:          tag,
		key:          key,
		elementType:  elementType,
		pendingProps: props,
	}
}

// fiberFromDescriptor creates a fresh fiber for a descriptor. Unknown kinds
// materialize as nothing: nil is returned and the caller treats the slot
// like a nil child, so reconciliation stays total over malformed input.
func fiberFromDescriptor(d *Descriptor) *Fiber {
	var tag Tag
	switch d.Kind.(type) {
	case string:
		tag = HostTag
	case ComponentFunc:
		tag = ComponentTag
	default:
		return nil
	}
	f := newFiber(tag, d.Key, d.Kind, d.Props)
	f.pendingChildren = d.Children
	f.pendingDesc = d
	return f
}

func fiberFromText(text string) *Fiber {
	f := newFiber(TextTag, "", nil, nil)
	f.text = text
	return f
}

// createWorkInProgress returns the pending-tree twin of a committed fiber,
// allocating it on first use and resetting it on reuse. Alternates survive
// abandoned passes, so everything pass-scoped must be cleared here. The
// caller fills in pending props/children and links the twin into the
// pending tree.
func createWorkInProgress(current *Fiber) *Fiber {
	wip := current.alternate
	if wip == nil {
		wip = &Fiber{
			tag:         current.tag,
			key:         current.key,
			elementType: current.elementType,
		}
		wip.alternate = current
		current.alternate = wip
	}

	wip.flags = FlagNone
	wip.subtreeFlags = FlagNone
	wip.deletions = nil
	wip.updateDiff = nil
	wip.child = nil
	wip.sibling = nil
	wip.parent = nil

	wip.stateNode = current.stateNode
	wip.index = current.index
	wip.lanes = current.lanes
	wip.memoizedProps = current.memoizedProps
	wip.memoizedDesc = current.memoizedDesc
	wip.pendingProps = current.memoizedProps
	wip.pendingChildren = current.pendingChildren
	wip.pendingDesc = current.memoizedDesc
	wip.text = current.text
	return wip
}

// cloneChildFibers rebuilds the current children under wip unchanged. Used
// on the identity bail-out path: the descriptor object is the same one that
// produced the committed children, so their twins carry the committed
// props and descriptors forward and bail out in turn.
func cloneChildFibers(current, wip *Fiber) {
	wip.child = nil
	if current == nil {
		return
	}
	var prev *Fiber
	for c := current.child; c != nil; c = c.sibling {
		clone := createWorkInProgress(c)
		clone.parent = wip
		if prev == nil {
			wip.child = clone
		} else {
			prev.sibling = clone
		}
		prev = clone
	}
}

// sameKind reports whether two descriptor kinds are the same resolved type.
// Component funcs compare by identity. Unknown kinds never match anything.
func sameKind(a, b any) bool {
	switch ta := a.(type) {
	case string:
		tb, ok := b.(string)
		return ok && ta == tb
	case ComponentFunc:
		tb, ok := b.(ComponentFunc)
		return ok && reflect.ValueOf(ta).Pointer() == reflect.ValueOf(tb).Pointer()
	default:
		return false
	}
}
