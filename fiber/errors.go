package fiber

import (
	"errors"
	"fmt"
)

// OnErrorFunc receives errors the engine could not recover locally:
// unhandled render errors and fatal commit errors.
type OnErrorFunc func(err error)

// ErrCommitFailed wraps a host primitive failure during the mutation pass.
// Mutations already applied stay applied and the current/pending swap does
// not happen, so the committed tree is stale but never points at a
// destroyed handle.
var ErrCommitFailed = errors.New("commit failed")

// ErrRenderFailed wraps a component error that reached the root with no
// boundary to catch it. The pending tree is abandoned wholesale and the
// committed tree stays fully intact.
var ErrRenderFailed = errors.New("render failed")

type capturedError struct {
	handler func(error)
	err     error
}

// findBoundary walks toward the root looking for the nearest ancestor that
// declared it catches errors. The failing fiber itself is never its own
// boundary.
func findBoundary(from *Fiber) (*Fiber, func(error)) {
	for f := from.parent; f != nil; f = f.parent {
		if f.pendingProps == nil {
			continue
		}
		if handler, ok := f.pendingProps[CatchProp].(func(error)); ok {
			return f, handler
		}
	}
	return nil, nil
}

func renderError(err error) error {
	return fmt.Errorf("%w: %w", ErrRenderFailed, err)
}

func commitError(err error) error {
	return fmt.Errorf("%w: %w", ErrCommitFailed, err)
}
