package fiber

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// The reconciler turns (prior children from the committed tree, new child
// spec) into a linked chain of pending-tree children plus a deletions list
// on the parent. It never moves a fiber across parents and only reuses a
// fiber when both key and resolved kind match; everything else is a
// delete+create. With track=false (fresh subtrees) no effects are recorded:
// the whole subtree is attached in one placement of its root and new
// instances adopt their children during completion instead.

// reconcileChildFibers dispatches on the shape of the new child spec: nil,
// a single descriptor, text, or an ordered list.
func reconcileChildFibers(parent, currentFirst *Fiber, newChild any, track bool) *Fiber {
	if newChild == nil {
		deleteRemainingChildren(parent, currentFirst, track)
		return nil
	}
	if list, ok := newChild.([]any); ok {
		return reconcileChildList(parent, currentFirst, list, track)
	}
	if d, ok := newChild.(*Descriptor); ok {
		if d == nil {
			deleteRemainingChildren(parent, currentFirst, track)
			return nil
		}
		return reconcileSingleDescriptor(parent, currentFirst, d, track)
	}
	if text, ok := coerceText(newChild); ok {
		return reconcileSingleText(parent, currentFirst, text, track)
	}
	// Unknown kind: a type mismatch against anything that existed.
	deleteRemainingChildren(parent, currentFirst, track)
	return nil
}

// childSpec narrows a children slice to the single-child form when it has
// exactly one entry, so a lone keyed child takes the scan path rather than
// the list path.
func childSpec(children []any) any {
	if len(children) == 1 {
		return children[0]
	}
	if len(children) == 0 {
		return nil
	}
	return children
}

func deleteChild(parent, child *Fiber, track bool) {
	if !track {
		return
	}
	parent.deletions = append(parent.deletions, child)
	parent.flags |= FlagChildDeletion
}

func deleteRemainingChildren(parent, first *Fiber, track bool) {
	for c := first; c != nil; c = c.sibling {
		deleteChild(parent, c, track)
	}
}

// reconcileSingleDescriptor scans the old siblings for a key match. A key
// match with the same kind reuses that fiber and deletes the rest; a key
// match with a different kind deletes it and everything after it. Old
// children with non-matching keys are deleted as the scan passes them.
func reconcileSingleDescriptor(parent, currentFirst *Fiber, d *Descriptor, track bool) *Fiber {
	for old := currentFirst; old != nil; old = old.sibling {
		if old.key != d.Key {
			deleteChild(parent, old, track)
			continue
		}
		if sameKind(old.elementType, d.Kind) {
			deleteRemainingChildren(parent, old.sibling, track)
			existing := reuseFiber(old, d)
			existing.parent = parent
			existing.index = 0
			return existing
		}
		// Same key, different kind: nothing after this can match either.
		deleteRemainingChildren(parent, old, track)
		break
	}
	created := fiberFromDescriptor(d)
	if created == nil {
		return nil
	}
	created.parent = parent
	if track {
		created.flags |= FlagPlacement
	}
	return created
}

// reconcileSingleText reuses the first old child when it is already text,
// regardless of content; text fibers carry no key.
func reconcileSingleText(parent, currentFirst *Fiber, text string, track bool) *Fiber {
	if currentFirst != nil && currentFirst.tag == TextTag {
		deleteRemainingChildren(parent, currentFirst.sibling, track)
		existing := createWorkInProgress(currentFirst)
		existing.text = text
		existing.parent = parent
		existing.index = 0
		return existing
	}
	deleteRemainingChildren(parent, currentFirst, track)
	created := fiberFromText(text)
	created.parent = parent
	if track {
		created.flags |= FlagPlacement
	}
	return created
}

// reuseFiber pairs an old fiber into the pending tree with the new
// descriptor's props and children.
func reuseFiber(old *Fiber, d *Descriptor) *Fiber {
	wip := createWorkInProgress(old)
	wip.pendingProps = d.Props
	wip.pendingChildren = d.Children
	wip.pendingDesc = d
	return wip
}

// placeChild decides whether a reused child visibly moved. Children whose
// old index is not behind lastPlacedIndex stay put and become the new
// anchor; children behind it moved backward relative to already-placed
// siblings and need a host move. Fresh children always need an insert. An
// item moved from the front of a list to the back therefore marks the
// untouched items, not itself; a deliberate trade of move count for a
// linear-time scan.
func placeChild(newFiber *Fiber, lastPlacedIndex, newIndex int, track bool) int {
	newFiber.index = newIndex
	if !track {
		return lastPlacedIndex
	}
	current := newFiber.alternate
	if current != nil {
		if current.index < lastPlacedIndex {
			newFiber.flags |= FlagPlacement
			return lastPlacedIndex
		}
		return current.index
	}
	newFiber.flags |= FlagPlacement
	return lastPlacedIndex
}

// updateSlot attempts a positional match during the common-prefix pass.
// Returning nil means the slot mismatched and pass 1 must stop without
// consuming the descriptor. A non-nil result with a nil alternate means the
// slot matched by key but could not be reused; the caller deletes the old
// fiber.
func updateSlot(parent, old *Fiber, newChild any) *Fiber {
	var oldKey string
	if old != nil {
		oldKey = old.key
	}
	if newChild == nil {
		return nil
	}
	if text, ok := coerceText(newChild); ok {
		if oldKey != "" {
			return nil
		}
		return updateText(parent, old, text)
	}
	if d, ok := newChild.(*Descriptor); ok {
		if d == nil || d.Key != oldKey {
			return nil
		}
		return updateDescriptor(parent, old, d)
	}
	return nil
}

func updateText(parent, old *Fiber, text string) *Fiber {
	if old != nil && old.tag == TextTag {
		existing := createWorkInProgress(old)
		existing.text = text
		existing.parent = parent
		return existing
	}
	created := fiberFromText(text)
	created.parent = parent
	return created
}

func updateDescriptor(parent, old *Fiber, d *Descriptor) *Fiber {
	if old != nil && sameKind(old.elementType, d.Kind) {
		existing := reuseFiber(old, d)
		existing.parent = parent
		return existing
	}
	created := fiberFromDescriptor(d)
	if created == nil {
		return nil
	}
	created.parent = parent
	return created
}

func createChild(parent *Fiber, newChild any) *Fiber {
	if newChild == nil {
		return nil
	}
	if text, ok := coerceText(newChild); ok {
		created := fiberFromText(text)
		created.parent = parent
		return created
	}
	if d, ok := newChild.(*Descriptor); ok && d != nil {
		created := fiberFromDescriptor(d)
		if created == nil {
			return nil
		}
		created.parent = parent
		return created
	}
	return nil
}

// childMapKey addresses a leftover old child either by key or by its old
// position.
type childMapKey struct {
	keyed bool
	key   string
	index int
}

// mapRemainingChildren indexes the old children left after the common
// prefix. Duplicate sibling keys are an undefined input; the first
// occurrence wins the key and later duplicates are demoted to positional
// matching so reconciliation stays deterministic.
func mapRemainingChildren(first *Fiber) map[childMapKey]*Fiber {
	existing := make(map[childMapKey]*Fiber)
	seen := mapset.NewThreadUnsafeSet[string]()
	for f := first; f != nil; f = f.sibling {
		k := childMapKey{index: f.index}
		if f.key != "" && seen.Add(f.key) {
			k = childMapKey{keyed: true, key: f.key}
		}
		existing[k] = f
	}
	return existing
}

// updateFromMap matches one remaining new child against the leftover map,
// consuming the matched entry on reuse. seenNew applies the same
// first-occurrence-wins demotion to duplicate keys in the new list.
func updateFromMap(existing map[childMapKey]*Fiber, parent *Fiber, newIdx int, newChild any, seenNew mapset.Set[string]) *Fiber {
	if newChild == nil {
		return nil
	}
	if text, ok := coerceText(newChild); ok {
		k := childMapKey{index: newIdx}
		old := existing[k]
		if old != nil && old.tag != TextTag {
			old = nil
		}
		f := updateText(parent, old, text)
		if f.alternate != nil {
			delete(existing, k)
		}
		return f
	}
	d, ok := newChild.(*Descriptor)
	if !ok || d == nil {
		return nil
	}
	k := childMapKey{index: newIdx}
	if d.Key != "" && seenNew.Add(d.Key) {
		k = childMapKey{keyed: true, key: d.Key}
	}
	old := existing[k]
	if old != nil && !sameKind(old.elementType, d.Kind) {
		// Key matched, kind changed: the old fiber stays in the map and is
		// deleted with the other leftovers.
		old = nil
	}
	f := updateDescriptor(parent, old, d)
	if f != nil && f.alternate != nil {
		delete(existing, k)
	}
	return f
}

// reconcileChildList is the performance-critical list diff. Pass 1 walks
// both lists in lockstep matching by slot; the fast paths handle one list
// exhausting. Pass 2 indexes the leftovers by key (or old position) and
// matches the remaining descriptors in order; whatever is still in the map
// afterwards is deleted.
func reconcileChildList(parent, currentFirst *Fiber, newChildren []any, track bool) *Fiber {
	var (
		resultingFirst  *Fiber
		previousNew     *Fiber
		oldFiber        = currentFirst
		nextOldFiber    *Fiber
		lastPlacedIndex = 0
		newIdx          = 0
	)

	appendNew := func(f *Fiber) {
		if previousNew == nil {
			resultingFirst = f
		} else {
			previousNew.sibling = f
		}
		previousNew = f
	}

	for ; oldFiber != nil && newIdx < len(newChildren); newIdx++ {
		if oldFiber.index > newIdx {
			nextOldFiber = oldFiber
			oldFiber = nil
		} else {
			nextOldFiber = oldFiber.sibling
		}
		newFiber := updateSlot(parent, oldFiber, newChildren[newIdx])
		if newFiber == nil {
			if oldFiber == nil {
				oldFiber = nextOldFiber
			}
			break
		}
		if track && oldFiber != nil && newFiber.alternate == nil {
			// Matched the slot by key but not by kind; the old fiber dies.
			deleteChild(parent, oldFiber, track)
		}
		lastPlacedIndex = placeChild(newFiber, lastPlacedIndex, newIdx, track)
		appendNew(newFiber)
		oldFiber = nextOldFiber
	}

	if newIdx == len(newChildren) {
		deleteRemainingChildren(parent, oldFiber, track)
		return resultingFirst
	}

	if oldFiber == nil {
		for ; newIdx < len(newChildren); newIdx++ {
			newFiber := createChild(parent, newChildren[newIdx])
			if newFiber == nil {
				continue
			}
			lastPlacedIndex = placeChild(newFiber, lastPlacedIndex, newIdx, track)
			appendNew(newFiber)
		}
		return resultingFirst
	}

	existing := mapRemainingChildren(oldFiber)
	seenNew := mapset.NewThreadUnsafeSet[string]()
	for ; newIdx < len(newChildren); newIdx++ {
		newFiber := updateFromMap(existing, parent, newIdx, newChildren[newIdx], seenNew)
		if newFiber == nil {
			continue
		}
		lastPlacedIndex = placeChild(newFiber, lastPlacedIndex, newIdx, track)
		appendNew(newFiber)
	}

	if track && len(existing) > 0 {
		// Map order is not stable; delete leftovers in old-position order so
		// the committed mutation stream is deterministic.
		leftovers := make([]*Fiber, 0, len(existing))
		for _, f := range existing {
			leftovers = append(leftovers, f)
		}
		sort.Slice(leftovers, func(i, j int) bool { return leftovers[i].index < leftovers[j].index })
		for _, f := range leftovers {
			deleteChild(parent, f, track)
		}
	}
	return resultingFirst
}
