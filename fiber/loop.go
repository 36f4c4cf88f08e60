package fiber

import "time"

// Hooks are the embedding system's lifecycle callbacks. BeforeMutation runs
// in the pre-mutation commit pass while old host state is still readable;
// OnMount/OnUpdate/OnUnmount run in the mutation/layout passes; Passive
// callbacks are queued during commit and run only when FlushPassive is
// called, so they can be scheduled at lower priority than the next render.
type Hooks struct {
	BeforeMutation func(*Fiber)
	OnMount        func(*Fiber)
	OnUpdate       func(*Fiber)
	OnUnmount      func(*Fiber)
	Passive        func(*Fiber)
}

// Option configures an Engine.
type Option func(*Engine)

func WithHooks(h Hooks) Option {
	return func(e *Engine) { e.hooks = h }
}

func WithOnError(fn OnErrorFunc) Option {
	return func(e *Engine) { e.onError = fn }
}

// Engine reconciles descriptor trees against a committed fiber tree and
// applies the resulting mutations through a Host. Each engine owns exactly
// one root; independent roots are independent engines with no shared state.
//
// The engine is single-threaded and cooperative: all methods must be called
// from one goroutine, and a concurrent render yields only at unit
// boundaries, so a fiber is never observed half-reconciled.
type Engine struct {
	host      Host
	container Handle
	hooks     Hooks
	onError   OnErrorFunc

	// current is the committed tree's root fiber, shared read-only with the
	// embedding system between commits.
	current *Fiber

	state engineState

	// Latest scheduled update. A newer update always subsumes older ones;
	// lanes accumulate until a commit consumes them.
	pendingDesc  *Descriptor
	pendingLanes Lanes
	hasPending   bool

	// In-progress render, nil when not rendering.
	wipRoot     *Fiber
	wip         *Fiber
	renderDesc  *Descriptor
	renderLanes Lanes

	capturedErrors []capturedError
	passiveQueue   []*Fiber
}

// NewEngine creates an engine whose root children are mounted under
// container, a handle the host already owns.
func NewEngine(host Host, container Handle, opts ...Option) *Engine {
	e := &Engine{
		host:      host,
		container: container,
	}
	root := newFiber(RootTag, "", nil, nil)
	root.stateNode = container
	e.current = root
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Current returns the committed tree's root fiber for diagnostics. The tree
// is read-only; it remains valid until the next commit swaps it out.
func (e *Engine) Current() *Fiber {
	return e.current
}

// ScheduleUpdate records a new descriptor tree to render at the given
// priority. A nil descriptor unmounts everything. Scheduling never renders
// by itself; the embedder drives the work with RenderSync or
// RenderWithYield. Scheduling while a render is in progress abandons the
// pending tree: the next work request restarts against the committed tree
// with the latest descriptor, which is all the cleanup cancellation needs.
func (e *Engine) ScheduleUpdate(d *Descriptor, lane Lanes) {
	if lane == NoLanes {
		lane = DefaultLane
	}
	e.pendingDesc = d
	e.pendingLanes |= lane
	e.hasPending = true
	if e.wipRoot != nil {
		e.discardPending()
	}
}

// PendingLanes reports the accumulated lanes of not-yet-committed updates.
func (e *Engine) PendingLanes() Lanes {
	return e.pendingLanes | e.renderLanes
}

func (e *Engine) discardPending() {
	// Pending fibers are simply never promoted; the committed tree was
	// never touched, so dropping the pointers is the whole cost.
	e.wipRoot = nil
	e.wip = nil
	e.renderDesc = nil
	e.capturedErrors = nil
	e.pendingLanes |= e.renderLanes
	e.renderLanes = NoLanes
	if e.state == engineRendering {
		e.state = engineIdle
	}
}

func (e *Engine) prepareRender() {
	e.renderDesc = e.pendingDesc
	e.renderLanes = e.pendingLanes
	e.pendingDesc = nil
	e.pendingLanes = NoLanes
	e.hasPending = false

	e.wipRoot = createWorkInProgress(e.current)
	e.wip = e.wipRoot
	e.state = engineRendering
}

// RenderSync runs all pending work to completion and commits, with no
// yields. Used for the highest-urgency updates.
func (e *Engine) RenderSync() error {
	_, err := e.RenderWithYield(nil)
	return err
}

// RenderWithYield performs units of work until the pending tree is built
// and committed, or until shouldYield returns true at a unit boundary. A
// yielded render resumes exactly where it stopped on the next call; the
// diff a render produces depends only on the committed tree and the
// descriptor, never on where the yields landed. A nil shouldYield never
// yields.
func (e *Engine) RenderWithYield(shouldYield func() bool) (Status, error) {
	if e.wipRoot == nil {
		if !e.hasPending {
			return StatusIdle, nil
		}
		e.prepareRender()
	}

	for e.wip != nil {
		if err := e.performUnitOfWork(e.wip); err != nil {
			return StatusIdle, err
		}
		if e.wip != nil && shouldYield != nil && shouldYield() {
			return StatusYielded, nil
		}
	}

	finished := e.wipRoot
	e.wipRoot = nil
	e.renderDesc = nil
	if err := e.commit(finished); err != nil {
		return StatusIdle, err
	}
	return StatusCommitted, nil
}

// FrameYield returns a yield predicate that requests control back once
// budget has elapsed from now. Create a fresh one per scheduling turn.
func FrameYield(budget time.Duration) func() bool {
	deadline := time.Now().Add(budget)
	return func() bool { return !time.Now().Before(deadline) }
}

func (e *Engine) performUnitOfWork(unit *Fiber) error {
	next, err := e.beginWork(unit)
	if err != nil {
		return e.handleRenderError(unit, err)
	}
	unit.memoizedProps = unit.pendingProps
	unit.memoizedDesc = unit.pendingDesc
	if next != nil {
		e.wip = next
		return nil
	}
	return e.completeUnitOfWork(unit)
}

// beginWork is the pre-order step: it reconciles a fiber's children and
// returns the first child to descend into, or nil when the fiber is a leaf
// this pass.
func (e *Engine) beginWork(wip *Fiber) (*Fiber, error) {
	current := wip.alternate

	// Identity bail-out: the exact descriptor object that produced the
	// committed children is being rendered again, so nothing below can have
	// changed. Clone the children and let them bail out in turn.
	if current != nil && wip.tag != RootTag && wip.pendingDesc != nil && wip.pendingDesc == current.memoizedDesc {
		cloneChildFibers(current, wip)
		return wip.child, nil
	}

	var oldFirst *Fiber
	if current != nil {
		oldFirst = current.child
	}

	switch wip.tag {
	case RootTag:
		wip.child = reconcileChildFibers(wip, oldFirst, childOf(e.renderDesc), true)
		return wip.child, nil

	case ComponentTag:
		fn := wip.elementType.(ComponentFunc)
		rendered, err := fn(wip.pendingProps)
		if err != nil {
			return nil, err
		}
		wip.child = reconcileChildFibers(wip, oldFirst, childOf(rendered), current != nil)
		return wip.child, nil

	case HostTag:
		wip.child = reconcileChildFibers(wip, oldFirst, childSpec(wip.pendingChildren), current != nil)
		return wip.child, nil

	default: // TextTag
		return nil, nil
	}
}

// childOf keeps a typed-nil *Descriptor from hiding inside an any.
func childOf(d *Descriptor) any {
	if d == nil {
		return nil
	}
	return d
}

// completeUnitOfWork is the post-order step: finish the unit, then move to
// its sibling, or keep completing parents until one has a sibling left.
func (e *Engine) completeUnitOfWork(unit *Fiber) error {
	for f := unit; f != nil; f = f.parent {
		if err := e.completeWork(f); err != nil {
			return e.handleRenderError(f, err)
		}
		if f.sibling != nil {
			e.wip = f.sibling
			return nil
		}
	}
	e.wip = nil
	return nil
}

// completeWork creates host instances for fresh host fibers (adopting their
// already-created children while the instance is still detached) and
// records the prop diff for reused ones, then bubbles effect flags so the
// commit passes can skip clean subtrees.
func (e *Engine) completeWork(f *Fiber) error {
	current := f.alternate

	switch f.tag {
	case HostTag:
		if current != nil && f.stateNode != nil {
			if f.pendingDesc == nil || f.pendingDesc != current.memoizedDesc {
				f.updateDiff = diffProps(current.memoizedProps, f.pendingProps)
				if len(f.updateDiff) > 0 {
					f.flags |= FlagUpdate
				}
			}
		} else {
			h, err := e.host.CreateInstance(f.elementType.(string), f.pendingProps)
			if err != nil {
				return err
			}
			f.stateNode = h
			if err := appendAllChildren(e.host, h, f); err != nil {
				return err
			}
		}

	case TextTag:
		if current != nil && f.stateNode != nil {
			if current.text != f.text {
				f.flags |= FlagUpdate
			}
		} else {
			h, err := e.host.CreateText(f.text)
			if err != nil {
				return err
			}
			f.stateNode = h
		}
	}

	var sub Flags
	for c := f.child; c != nil; c = c.sibling {
		sub |= c.subtreeFlags | c.flags
	}
	f.subtreeFlags = sub
	return nil
}

// appendAllChildren attaches every top-level host node below wip into a
// freshly created, still-detached instance. Component fibers are skipped
// through; their host output belongs to the nearest host ancestor.
func appendAllChildren(host Host, parent Handle, wip *Fiber) error {
	node := wip.child
	for node != nil {
		if node.tag == HostTag || node.tag == TextTag {
			if err := host.AppendChild(parent, node.stateNode); err != nil {
				return err
			}
		} else if node.child != nil {
			node = node.child
			continue
		}
		if node == wip {
			return nil
		}
		for node.sibling == nil {
			if node.parent == nil || node.parent == wip {
				return nil
			}
			node = node.parent
		}
		node = node.sibling
	}
	return nil
}

// handleRenderError recovers a component error at the nearest boundary, or
// abandons the whole pending tree when there is none. A recovered boundary
// re-renders empty this pass: its previous children are deleted and the
// handler is invoked after the commit that applies that deletion.
func (e *Engine) handleRenderError(from *Fiber, err error) error {
	boundary, handler := findBoundary(from)
	if boundary == nil {
		e.discardPending()
		// Drop the poisoned update rather than retrying it forever.
		e.pendingDesc = nil
		e.pendingLanes = NoLanes
		e.hasPending = false
		wrapped := renderError(err)
		if e.onError != nil {
			e.onError(wrapped)
		}
		return wrapped
	}

	boundary.child = nil
	boundary.deletions = nil
	boundary.flags &^= FlagChildDeletion
	if boundary.alternate != nil {
		deleteRemainingChildren(boundary, boundary.alternate.child, true)
	}
	e.capturedErrors = append(e.capturedErrors, capturedError{handler: handler, err: err})
	return e.completeUnitOfWork(boundary)
}

// FlushPassive runs the passive callbacks queued by commits since the last
// flush. Safe to call at any time between renders.
func (e *Engine) FlushPassive() {
	q := e.passiveQueue
	e.passiveQueue = nil
	if e.hooks.Passive == nil {
		return
	}
	for _, f := range q {
		e.hooks.Passive(f)
	}
}
