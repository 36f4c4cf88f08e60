package fiber_test

import (
	"testing"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/memhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func li(key, text string) *fiber.Descriptor {
	return fiber.E("li", key, nil, text)
}

func ul(items ...any) *fiber.Descriptor {
	return fiber.E("ul", "", nil, items...)
}

// mount renders the first descriptor synchronously and clears the op log so
// a test can assert on one commit in isolation.
func mount(t *testing.T, d *fiber.Descriptor, opts ...fiber.Option) (*memhost.Host, *fiber.Engine) {
	t.Helper()
	h := memhost.New()
	e := fiber.NewEngine(h, h.Container(), opts...)
	e.ScheduleUpdate(d, fiber.SyncLane)
	require.NoError(t, e.RenderSync())
	h.ResetOps()
	return h, e
}

func update(t *testing.T, e *fiber.Engine, d *fiber.Descriptor) {
	t.Helper()
	e.ScheduleUpdate(d, fiber.SyncLane)
	require.NoError(t, e.RenderSync())
}

func opKinds(ops []memhost.Op) []memhost.OpKind {
	kinds := make([]memhost.OpKind, len(ops))
	for i, op := range ops {
		kinds[i] = op.Kind
	}
	return kinds
}

// should mount a small tree with one placement of the subtree root
func TestMountBasicTree(t *testing.T) {
	h := memhost.New()
	e := fiber.NewEngine(h, h.Container())
	e.ScheduleUpdate(fiber.E("div", "", fiber.Props{"id": "app"}, fiber.E("span", "", nil, "hi")), fiber.SyncLane)
	require.NoError(t, e.RenderSync())

	assert.Equal(t, `<div id="app"><span>hi</span></div>`, h.HTML())
	// Children are adopted while detached; only the subtree root is placed.
	assert.Equal(t, []memhost.OpKind{
		memhost.OpCreateText,
		memhost.OpCreate,
		memhost.OpAppend,
		memhost.OpCreate,
		memhost.OpAppend,
		memhost.OpAppend,
	}, opKinds(h.Ops()))
}

// reconciling against structurally identical descriptors is a no-op
func TestIdempotentNoOp(t *testing.T) {
	build := func() *fiber.Descriptor {
		return fiber.E("div", "", fiber.Props{"id": "app", "n": 3},
			fiber.E("span", "", fiber.Props{"class": "x"}, "hi"),
			ul(li("1", "a"), li("2", "b")),
		)
	}
	h, e := mount(t, build())
	update(t, e, build())

	assert.Empty(t, h.Ops())
	assert.Equal(t, `<div id="app" n="3"><span class="x">hi</span><ul><li>a</li><li>b</li></ul></div>`, h.HTML())
}

// removing a keyed item deletes only that item, no moves, no updates
func TestKeyStability(t *testing.T) {
	h, e := mount(t, ul(li("1", "A"), li("2", "B"), li("3", "C")))
	update(t, e, ul(li("1", "A"), li("3", "C")))

	require.Len(t, h.Ops(), 1)
	assert.Equal(t, memhost.OpRemove, h.Ops()[0].Kind)
	assert.Equal(t, "<ul><li>A</li><li>C</li></ul>", h.HTML())
}

// moving an item from the back to the front marks the untouched items, not
// the moved one
func TestReorderTieBreak(t *testing.T) {
	h, e := mount(t, ul(li("a", "A"), li("b", "B"), li("c", "C")))
	update(t, e, ul(li("c", "C"), li("a", "A"), li("b", "B")))

	// C anchors in place; A and B are appended after it, in order.
	assert.Equal(t, []memhost.OpKind{memhost.OpAppend, memhost.OpAppend}, opKinds(h.Ops()))
	assert.Equal(t, "<ul><li>C</li><li>A</li><li>B</li></ul>", h.HTML())
}

// a type change at the same position is delete+create, never an update
func TestTypeChange(t *testing.T) {
	h, e := mount(t, fiber.E("a", "", fiber.Props{"href": "#"}))
	update(t, e, fiber.E("b", "", fiber.Props{"href": "#"}))

	kinds := opKinds(h.Ops())
	assert.Equal(t, []memhost.OpKind{memhost.OpCreate, memhost.OpRemove, memhost.OpAppend}, kinds)
	assert.NotContains(t, kinds, memhost.OpSetProp)
	assert.Equal(t, `<b href="#"></b>`, h.HTML())
}

// a nil child slot deletes whatever existed there
func TestNilChildDeletes(t *testing.T) {
	h, e := mount(t, fiber.E("div", "", nil, fiber.E("span", "", nil, "x")))
	update(t, e, fiber.E("div", "", nil, nil))

	require.Len(t, h.Ops(), 1)
	assert.Equal(t, memhost.OpRemove, h.Ops()[0].Kind)
	assert.Equal(t, "<div></div>", h.HTML())
}

// text to node (and back) is a type mismatch, never an in-place mutation
func TestTextNodeMismatch(t *testing.T) {
	h, e := mount(t, fiber.E("div", "", nil, "hello"))
	update(t, e, fiber.E("div", "", nil, fiber.E("span", "", nil)))

	kinds := opKinds(h.Ops())
	assert.NotContains(t, kinds, memhost.OpSetText)
	assert.Contains(t, kinds, memhost.OpRemove)
	assert.Equal(t, "<div><span></span></div>", h.HTML())

	h.ResetOps()
	update(t, e, fiber.E("div", "", nil, "hello again"))
	kinds = opKinds(h.Ops())
	assert.NotContains(t, kinds, memhost.OpSetText)
	assert.Equal(t, "<div>hello again</div>", h.HTML())
}

// reused text nodes update in place
func TestTextUpdateInPlace(t *testing.T) {
	h, e := mount(t, fiber.E("div", "", nil, "one"))
	update(t, e, fiber.E("div", "", nil, "two"))

	require.Len(t, h.Ops(), 1)
	assert.Equal(t, memhost.OpSetText, h.Ops()[0].Kind)
	assert.Equal(t, "two", h.Ops()[0].Value)
}

// the prop diff removes before writing and orders deterministically
func TestPropDiff(t *testing.T) {
	h, e := mount(t, fiber.E("div", "", fiber.Props{"a": 1, "b": "x", "c": true}))
	update(t, e, fiber.E("div", "", fiber.Props{"a": 2, "c": true, "d": "new"}))

	require.Len(t, h.Ops(), 3)
	assert.Equal(t, memhost.Op{Kind: memhost.OpDelProp, Node: h.Ops()[0].Node, Name: "b"}, h.Ops()[0])
	assert.Equal(t, memhost.OpSetProp, h.Ops()[1].Kind)
	assert.Equal(t, "a", h.Ops()[1].Name)
	assert.Equal(t, memhost.OpSetProp, h.Ops()[2].Kind)
	assert.Equal(t, "d", h.Ops()[2].Name)
}

// unkeyed positional children never survive a type swap
func TestUnkeyedTypeSwap(t *testing.T) {
	h, e := mount(t, fiber.E("div", "", nil, fiber.E("em", "", nil), fiber.E("strong", "", nil)))
	update(t, e, fiber.E("div", "", nil, fiber.E("strong", "", nil), fiber.E("em", "", nil)))

	kinds := opKinds(h.Ops())
	removes, creates := 0, 0
	for _, k := range kinds {
		switch k {
		case memhost.OpRemove:
			removes++
		case memhost.OpCreate:
			creates++
		}
	}
	assert.Equal(t, 2, removes)
	assert.Equal(t, 2, creates)
	assert.Equal(t, "<div><strong></strong><em></em></div>", h.HTML())
}

// duplicate sibling keys stay deterministic: first occurrence wins the key
func TestDuplicateKeys(t *testing.T) {
	h, e := mount(t, ul(li("1", "A"), li("1", "B"), li("2", "C")))
	assert.Equal(t, "<ul><li>A</li><li>B</li><li>C</li></ul>", h.HTML())

	update(t, e, ul(li("2", "C"), li("1", "A"), li("1", "B")))
	assert.Equal(t, "<ul><li>C</li><li>A</li><li>B</li></ul>", h.HTML())

	removes := 0
	for _, op := range h.Ops() {
		if op.Kind == memhost.OpRemove {
			removes++
		}
	}
	// The demoted duplicate is recreated rather than matched by key.
	assert.Equal(t, 1, removes)
}

// growing and shrinking a keyed list hits both fast paths
func TestListGrowShrink(t *testing.T) {
	h, e := mount(t, ul(li("1", "A")))
	update(t, e, ul(li("1", "A"), li("2", "B"), li("3", "C")))
	assert.Equal(t, "<ul><li>A</li><li>B</li><li>C</li></ul>", h.HTML())

	h.ResetOps()
	update(t, e, ul(li("1", "A")))
	assert.Equal(t, []memhost.OpKind{memhost.OpRemove, memhost.OpRemove}, opKinds(h.Ops()))
	assert.Equal(t, "<ul><li>A</li></ul>", h.HTML())
}

// numeric children render as text
func TestNumericChildren(t *testing.T) {
	h, _ := mount(t, fiber.E("div", "", nil, "count: ", 3))
	assert.Equal(t, "<div>count: 3</div>", h.HTML())
}

// an unknown descriptor kind renders nothing and deletes what was there
func TestUnknownKind(t *testing.T) {
	h, e := mount(t, fiber.E("div", "", nil, fiber.E("span", "", nil, "x")))
	update(t, e, fiber.E("div", "", nil, fiber.E(struct{}{}, "", nil)))

	assert.Equal(t, "<div></div>", h.HTML())
}

// rendering the same descriptor object again bails out without re-invoking
// components
func TestIdentityBailout(t *testing.T) {
	calls := 0
	comp := fiber.ComponentFunc(func(props fiber.Props) (*fiber.Descriptor, error) {
		calls++
		return fiber.E("span", "", nil, "inner"), nil
	})
	d := fiber.E("div", "", nil, fiber.E(comp, "", nil))

	h, e := mount(t, d)
	assert.Equal(t, 1, calls)

	update(t, e, d)
	assert.Empty(t, h.Ops())
	assert.Equal(t, 1, calls)
	assert.Equal(t, "<div><span>inner</span></div>", h.HTML())
}

// components receive their props and re-render when props change
func TestComponentProps(t *testing.T) {
	greet := fiber.ComponentFunc(func(props fiber.Props) (*fiber.Descriptor, error) {
		return fiber.E("p", "", nil, "hello "+props["name"].(string)), nil
	})

	h, e := mount(t, fiber.E(greet, "", fiber.Props{"name": "ada"}))
	assert.Equal(t, "<p>hello ada</p>", h.HTML())

	update(t, e, fiber.E(greet, "", fiber.Props{"name": "grace"}))
	assert.Equal(t, "<p>hello grace</p>", h.HTML())
	assert.Equal(t, []memhost.OpKind{memhost.OpSetText}, opKinds(h.Ops()))
}

// a keyed single child is matched by scanning past non-matching siblings
func TestSingleChildKeyScan(t *testing.T) {
	h, e := mount(t, ul(li("1", "A"), li("2", "B"), li("3", "C")))
	update(t, e, ul(li("3", "C")))

	removes := 0
	for _, op := range h.Ops() {
		if op.Kind == memhost.OpRemove {
			removes++
		}
	}
	assert.Equal(t, 2, removes)
	assert.Equal(t, "<ul><li>C</li></ul>", h.HTML())
}

// scheduling nil unmounts everything
func TestUnmountAll(t *testing.T) {
	h, e := mount(t, fiber.E("div", "", nil, "x"))
	update(t, e, nil)
	assert.Equal(t, "", h.HTML())
	assert.Nil(t, e.Current().Child())
}
