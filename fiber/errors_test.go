package fiber_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/memhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a render error unwinds to the nearest boundary, which renders empty and
// receives the error after the commit
func TestBoundaryCatchesRenderError(t *testing.T) {
	fail := false
	flaky := fiber.ComponentFunc(func(props fiber.Props) (*fiber.Descriptor, error) {
		if fail {
			return nil, errors.New("kaput")
		}
		return fiber.E("p", "", nil, "content"), nil
	})

	var caught error
	app := func() *fiber.Descriptor {
		return fiber.E("div", "", nil,
			fiber.E("aside", "", nil, "untouched"),
			fiber.E("section", "", fiber.Props{fiber.CatchProp: func(err error) { caught = err }},
				fiber.E(flaky, "", nil),
			),
		)
	}

	h, e := mount(t, app())
	assert.Equal(t, `<div><aside>untouched</aside><section>content</section></div>`, h.HTML())

	fail = true
	update(t, e, app())

	assert.EqualError(t, caught, "kaput")
	assert.Equal(t, `<div><aside>untouched</aside><section></section></div>`, h.HTML())
}

// a boundary catches errors during initial mount too
func TestBoundaryCatchesMountError(t *testing.T) {
	broken := fiber.ComponentFunc(func(props fiber.Props) (*fiber.Descriptor, error) {
		return nil, errors.New("dead on arrival")
	})

	var caught error
	h, e := mount(t, fiber.E("div", "", nil,
		fiber.E("section", "", fiber.Props{fiber.CatchProp: func(err error) { caught = err }},
			fiber.E(broken, "", nil),
		),
	))
	_ = e

	assert.EqualError(t, caught, "dead on arrival")
	assert.Equal(t, "<div><section></section></div>", h.HTML())
}

// with no boundary the pending tree is abandoned and the committed tree
// stays fully intact and interactive
func TestUnhandledRenderError(t *testing.T) {
	fail := false
	flaky := fiber.ComponentFunc(func(props fiber.Props) (*fiber.Descriptor, error) {
		if fail {
			return nil, errors.New("kaput")
		}
		return fiber.E("p", "", nil, "fine"), nil
	})
	app := func() *fiber.Descriptor {
		return fiber.E("div", "", nil, fiber.E(flaky, "", nil))
	}

	var seen error
	h, e := mount(t, app(), fiber.WithOnError(func(err error) { seen = err }))
	before := h.HTML()

	fail = true
	e.ScheduleUpdate(app(), fiber.SyncLane)
	err := e.RenderSync()

	require.Error(t, err)
	assert.ErrorIs(t, err, fiber.ErrRenderFailed)
	assert.ErrorIs(t, seen, fiber.ErrRenderFailed)
	assert.Equal(t, before, h.HTML())

	// The poisoned update was dropped; the engine is idle again.
	status, err := e.RenderWithYield(nil)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusIdle, status)
}

// an error in one boundary leaves sibling boundaries' output alone
func TestBoundaryIsolation(t *testing.T) {
	failLeft := false
	left := fiber.ComponentFunc(func(props fiber.Props) (*fiber.Descriptor, error) {
		if failLeft {
			return nil, errors.New("left broke")
		}
		return fiber.E("p", "", nil, "left"), nil
	})
	right := fiber.ComponentFunc(func(props fiber.Props) (*fiber.Descriptor, error) {
		return fiber.E("p", "", nil, "right"), nil
	})

	app := func() *fiber.Descriptor {
		return fiber.E("div", "", nil,
			fiber.E("section", "l", fiber.Props{fiber.CatchProp: func(error) {}}, fiber.E(left, "", nil)),
			fiber.E("section", "r", fiber.Props{fiber.CatchProp: func(error) {}}, fiber.E(right, "", nil)),
		)
	}

	h, e := mount(t, app())
	failLeft = true
	update(t, e, app())

	assert.Equal(t, "<div><section></section><section><p>right</p></section></div>", h.HTML())
}

// abandoning a render that had captured a boundary error drops the capture
func TestAbandonDropsCapturedErrors(t *testing.T) {
	calls := 0
	broken := fiber.ComponentFunc(func(props fiber.Props) (*fiber.Descriptor, error) {
		return nil, errors.New("always")
	})
	withBoundary := fiber.E("div", "", nil,
		fiber.E("section", "", fiber.Props{fiber.CatchProp: func(error) { calls++ }},
			fiber.E(broken, "", nil),
		),
		fiber.E("footer", "", nil, "tail"),
	)

	h := memhost.New()
	e := fiber.NewEngine(h, h.Container())
	e.ScheduleUpdate(withBoundary, fiber.IdleLane)

	// Four units in: root, div, the boundary, then the broken component,
	// whose failure the boundary captures. The footer keeps the pass from
	// finishing, so the capture is still pending when we abandon.
	for i := 0; i < 4; i++ {
		status, err := e.RenderWithYield(alwaysYield)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusYielded, status)
	}
	e.ScheduleUpdate(fiber.E("div", "", nil, "clean"), fiber.SyncLane)
	require.NoError(t, e.RenderSync())

	assert.Equal(t, "<div>clean</div>", h.HTML())
	assert.Zero(t, calls, "handlers from abandoned passes must not fire")
}
