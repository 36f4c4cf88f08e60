package fiber

// The commit applier consumes a fully-built pending tree in three ordered,
// non-interruptible passes: read old host state, mutate, then notify. The
// current/pending pointer swap happens between mutation and notification,
// so layout hooks already observe the new tree. Host mutation cannot be
// made atomic cheaply: if a primitive fails mid-pass, the mutations already
// applied stay applied, the swap is skipped, and the error is fatal to this
// render cycle.

func (e *Engine) commit(finished *Fiber) error {
	e.state = engineCommitting
	defer func() { e.state = engineIdle }()

	if e.hooks.BeforeMutation != nil {
		e.commitBeforeMutation(finished)
	}

	if err := e.commitMutation(finished); err != nil {
		e.capturedErrors = nil
		e.renderLanes = NoLanes
		wrapped := commitError(err)
		if e.onError != nil {
			e.onError(wrapped)
		}
		return wrapped
	}

	// The swap: the pending tree becomes the committed one. The old tree's
	// fibers stay reachable as alternates for the next pass.
	e.current = finished
	e.renderLanes = NoLanes

	e.commitLayout(finished)

	captured := e.capturedErrors
	e.capturedErrors = nil
	for _, ce := range captured {
		ce.handler(ce.err)
	}
	return nil
}

// commitBeforeMutation walks fibers flagged for update before anything is
// mutated, so the embedder can still measure old host state.
func (e *Engine) commitBeforeMutation(f *Fiber) {
	if f.subtreeFlags&(FlagUpdate|FlagChildDeletion) != 0 {
		for c := f.child; c != nil; c = c.sibling {
			e.commitBeforeMutation(c)
		}
	}
	if f.flags&FlagUpdate != 0 && f.alternate != nil {
		e.hooks.BeforeMutation(f)
	}
}

// commitMutation applies host mutations depth-first. Within a parent,
// deletions run before anything else so a removed handle is never used as
// an insertion anchor; placements and updates for surviving fibers follow
// in child order after the subtree below them is handled.
func (e *Engine) commitMutation(f *Fiber) error {
	if f.flags&FlagChildDeletion != 0 {
		for _, d := range f.deletions {
			if err := e.commitDeletion(d); err != nil {
				return err
			}
		}
		f.deletions = nil
	}

	if f.subtreeFlags&flagsMutation != 0 {
		for c := f.child; c != nil; c = c.sibling {
			if err := e.commitMutation(c); err != nil {
				return err
			}
		}
	}

	if f.flags&FlagPlacement != 0 {
		if err := e.commitPlacement(f); err != nil {
			return err
		}
	}

	if f.flags&FlagUpdate != 0 {
		switch f.tag {
		case HostTag:
			diff := f.updateDiff
			f.updateDiff = nil
			if err := e.host.ApplyPropDiff(f.stateNode, diff); err != nil {
				return err
			}
		case TextTag:
			if err := e.host.SetText(f.stateNode, f.text); err != nil {
				return err
			}
		}
	}
	return nil
}

// commitDeletion tears down one deleted subtree: unmount notifications run
// bottom-up over every fiber, host handles are released bottom-up, and only
// the outermost host nodes are detached from the host tree (removing them
// removes their host descendants).
func (e *Engine) commitDeletion(d *Fiber) error {
	parentHandle := hostParentHandleOf(d)
	if err := e.unmountSubtree(d, parentHandle, true); err != nil {
		return err
	}
	// Unlink the pair so pending-only twins are not retained.
	if d.alternate != nil {
		d.alternate.alternate = nil
		d.alternate = nil
	}
	return nil
}

func (e *Engine) unmountSubtree(f *Fiber, hostParent Handle, detach bool) error {
	switch f.tag {
	case HostTag, TextTag:
		for c := f.child; c != nil; c = c.sibling {
			// Descendant host nodes leave with this one; no detach needed.
			if err := e.unmountSubtree(c, f.stateNode, false); err != nil {
				return err
			}
		}
		if e.hooks.OnUnmount != nil {
			e.hooks.OnUnmount(f)
		}
		if detach {
			if err := e.host.RemoveChild(hostParent, f.stateNode); err != nil {
				return err
			}
		}
		f.stateNode = nil

	default:
		for c := f.child; c != nil; c = c.sibling {
			if err := e.unmountSubtree(c, hostParent, detach); err != nil {
				return err
			}
		}
		if e.hooks.OnUnmount != nil {
			e.hooks.OnUnmount(f)
		}
	}
	return nil
}

// hostParentHandleOf finds the handle a fiber's host output lives under.
func hostParentHandleOf(f *Fiber) Handle {
	for p := f.parent; p != nil; p = p.parent {
		if p.tag == HostTag || p.tag == RootTag {
			return p.stateNode
		}
	}
	return nil
}

func isHostParent(f *Fiber) bool {
	return f.tag == HostTag || f.tag == RootTag
}

// commitPlacement inserts or moves a fiber's host output. The anchor is the
// next host node among following siblings whose own position is already
// settled; placed siblings and empty component subtrees are skipped. With
// no anchor the output is appended.
func (e *Engine) commitPlacement(f *Fiber) error {
	var parentFiber *Fiber
	for p := f.parent; p != nil; p = p.parent {
		if isHostParent(p) {
			parentFiber = p
			break
		}
	}
	before := hostSibling(f)
	return e.insertOrAppend(f, before, parentFiber.stateNode)
}

func hostSibling(f *Fiber) Handle {
	node := f
siblings:
	for {
		for node.sibling == nil {
			if node.parent == nil || isHostParent(node.parent) {
				return nil
			}
			node = node.parent
		}
		node = node.sibling
		for node.tag != HostTag && node.tag != TextTag {
			// A subtree that is itself being placed cannot anchor us, and a
			// childless component produces no host node to anchor on.
			if node.flags&FlagPlacement != 0 || node.child == nil {
				continue siblings
			}
			node = node.child
		}
		if node.flags&FlagPlacement == 0 {
			return node.stateNode
		}
	}
}

// insertOrAppend places a fiber's host output; component fibers contribute
// the output of their children.
func (e *Engine) insertOrAppend(f *Fiber, before, parent Handle) error {
	if f.tag == HostTag || f.tag == TextTag {
		if before != nil {
			return e.host.InsertBefore(parent, f.stateNode, before)
		}
		return e.host.AppendChild(parent, f.stateNode)
	}
	for c := f.child; c != nil; c = c.sibling {
		if err := e.insertOrAppend(c, before, parent); err != nil {
			return err
		}
	}
	return nil
}

// commitLayout notifies mounts and updates bottom-up and queues passive
// callbacks for the same fibers. Mounted fibers are those with no committed
// counterpart; everything else with an Update flag changed in place.
func (e *Engine) commitLayout(f *Fiber) {
	if f.subtreeFlags != FlagNone || f.alternate == nil {
		for c := f.child; c != nil; c = c.sibling {
			e.commitLayout(c)
		}
	}
	if f.tag == RootTag {
		return
	}
	switch {
	case f.alternate == nil:
		if e.hooks.OnMount != nil {
			e.hooks.OnMount(f)
		}
		if e.hooks.Passive != nil {
			e.passiveQueue = append(e.passiveQueue, f)
		}
	case f.flags&FlagUpdate != 0:
		if e.hooks.OnUpdate != nil {
			e.hooks.OnUpdate(f)
		}
		if e.hooks.Passive != nil {
			e.passiveQueue = append(e.passiveQueue, f)
		}
	}
}
