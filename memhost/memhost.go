// Package memhost is an in-memory fiber.Host that records every mutation it
// is asked to perform. Tests and benchmarks use the ordered op log to assert
// exactly which host mutations a commit produced, the xxhash fingerprint to
// compare whole mutation streams, and the liveness tracking to catch any use
// of a handle after its removal.
package memhost

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/fiberparty/fiber"
)

type OpKind string

const (
	OpCreate     OpKind = "create"
	OpCreateText OpKind = "create-text"
	OpAppend     OpKind = "append"
	OpInsert     OpKind = "insert-before"
	OpRemove     OpKind = "remove"
	OpSetProp    OpKind = "set-prop"
	OpDelProp    OpKind = "del-prop"
	OpSetText    OpKind = "set-text"
)

// Op is one recorded host mutation. Node ids are assigned in creation
// order, so identical mutation streams produce identical op logs.
type Op struct {
	Kind   OpKind
	Node   int
	Parent int
	Before int
	Name   string
	Value  string
}

func (o Op) String() string {
	switch o.Kind {
	case OpCreate:
		return fmt.Sprintf("%s #%d <%s> %s", o.Kind, o.Node, o.Name, o.Value)
	case OpCreateText:
		return fmt.Sprintf("%s #%d %q", o.Kind, o.Node, o.Value)
	case OpAppend:
		return fmt.Sprintf("%s #%d -> #%d", o.Kind, o.Node, o.Parent)
	case OpInsert:
		return fmt.Sprintf("%s #%d -> #%d before #%d", o.Kind, o.Node, o.Parent, o.Before)
	case OpRemove:
		return fmt.Sprintf("%s #%d from #%d", o.Kind, o.Node, o.Parent)
	case OpSetProp:
		return fmt.Sprintf("%s #%d %s=%s", o.Kind, o.Node, o.Name, o.Value)
	case OpDelProp:
		return fmt.Sprintf("%s #%d %s", o.Kind, o.Node, o.Name)
	default: // OpSetText
		return fmt.Sprintf("%s #%d %q", o.Kind, o.Node, o.Value)
	}
}

// Node is one in-memory host node.
type Node struct {
	ID       int
	Tag      string
	Text     string
	IsText   bool
	Props    map[string]any
	Parent   *Node
	Children []*Node

	live bool
}

var errDeadHandle = errors.New("memhost: handle used after removal")

// Host implements fiber.Host over an in-memory node tree.
type Host struct {
	root   *Node
	ops    []Op
	nextID int

	failIn  int
	failErr error
}

func New() *Host {
	h := &Host{failIn: -1}
	h.root = &Node{ID: 0, Tag: "#root", live: true}
	h.nextID = 1
	return h
}

// Container returns the handle engine roots mount under.
func (h *Host) Container() fiber.Handle { return h.root }

// Ops returns the mutations recorded so far, in order.
func (h *Host) Ops() []Op { return h.ops }

// ResetOps clears the op log, typically right after a mount so a test can
// assert on one commit's mutations in isolation.
func (h *Host) ResetOps() { h.ops = nil }

// FailAfter makes the n-th upcoming tree mutation (append/insert/remove/
// prop/text writes; creations excluded) return err. n=0 fails the next one.
func (h *Host) FailAfter(n int, err error) {
	h.failIn = n
	h.failErr = err
}

func (h *Host) mutationFault() error {
	if h.failIn < 0 {
		return nil
	}
	if h.failIn == 0 {
		h.failIn = -1
		return h.failErr
	}
	h.failIn--
	return nil
}

// Fingerprint hashes the op log. Two runs that asked the host for the same
// mutations in the same order have equal fingerprints.
func (h *Host) Fingerprint() uint64 {
	d := xxhash.New()
	for _, op := range h.ops {
		d.WriteString(op.String())
		d.WriteString("\n")
	}
	return d.Sum64()
}

func (h *Host) node(handle fiber.Handle) (*Node, error) {
	n, ok := handle.(*Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("memhost: not a memhost handle: %v", handle)
	}
	if !n.live {
		return nil, fmt.Errorf("%w: #%d", errDeadHandle, n.ID)
	}
	return n, nil
}

func (h *Host) CreateInstance(tag string, props fiber.Props) (fiber.Handle, error) {
	n := &Node{ID: h.nextID, Tag: tag, Props: map[string]any{}, live: true}
	h.nextID++
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n.Props[name] = props[name]
	}
	h.ops = append(h.ops, Op{Kind: OpCreate, Node: n.ID, Name: tag, Value: formatProps(n.Props)})
	return n, nil
}

func (h *Host) CreateText(text string) (fiber.Handle, error) {
	n := &Node{ID: h.nextID, IsText: true, Text: text, live: true}
	h.nextID++
	h.ops = append(h.ops, Op{Kind: OpCreateText, Node: n.ID, Value: text})
	return n, nil
}

func (h *Host) AppendChild(parent, child fiber.Handle) error {
	p, err := h.node(parent)
	if err != nil {
		return err
	}
	c, err := h.node(child)
	if err != nil {
		return err
	}
	if err := h.mutationFault(); err != nil {
		return err
	}
	detach(c)
	c.Parent = p
	p.Children = append(p.Children, c)
	h.ops = append(h.ops, Op{Kind: OpAppend, Node: c.ID, Parent: p.ID})
	return nil
}

func (h *Host) InsertBefore(parent, child, before fiber.Handle) error {
	p, err := h.node(parent)
	if err != nil {
		return err
	}
	c, err := h.node(child)
	if err != nil {
		return err
	}
	b, err := h.node(before)
	if err != nil {
		return err
	}
	if err := h.mutationFault(); err != nil {
		return err
	}
	detach(c)
	idx := indexOf(p.Children, b)
	if idx < 0 {
		return fmt.Errorf("memhost: anchor #%d is not a child of #%d", b.ID, p.ID)
	}
	c.Parent = p
	p.Children = append(p.Children, nil)
	copy(p.Children[idx+1:], p.Children[idx:])
	p.Children[idx] = c
	h.ops = append(h.ops, Op{Kind: OpInsert, Node: c.ID, Parent: p.ID, Before: b.ID})
	return nil
}

func (h *Host) RemoveChild(parent, child fiber.Handle) error {
	p, err := h.node(parent)
	if err != nil {
		return err
	}
	c, err := h.node(child)
	if err != nil {
		return err
	}
	if err := h.mutationFault(); err != nil {
		return err
	}
	if indexOf(p.Children, c) < 0 {
		return fmt.Errorf("memhost: #%d is not a child of #%d", c.ID, p.ID)
	}
	detach(c)
	kill(c)
	h.ops = append(h.ops, Op{Kind: OpRemove, Node: c.ID, Parent: p.ID})
	return nil
}

func (h *Host) ApplyPropDiff(handle fiber.Handle, diff []fiber.PropChange) error {
	n, err := h.node(handle)
	if err != nil {
		return err
	}
	for _, change := range diff {
		if err := h.mutationFault(); err != nil {
			return err
		}
		if change.Remove {
			delete(n.Props, change.Name)
			h.ops = append(h.ops, Op{Kind: OpDelProp, Node: n.ID, Name: change.Name})
			continue
		}
		if n.Props == nil {
			n.Props = map[string]any{}
		}
		n.Props[change.Name] = change.Value
		h.ops = append(h.ops, Op{Kind: OpSetProp, Node: n.ID, Name: change.Name, Value: formatValue(change.Value)})
	}
	return nil
}

func (h *Host) SetText(handle fiber.Handle, text string) error {
	n, err := h.node(handle)
	if err != nil {
		return err
	}
	if !n.IsText {
		return fmt.Errorf("memhost: set-text on non-text #%d", n.ID)
	}
	if err := h.mutationFault(); err != nil {
		return err
	}
	n.Text = text
	h.ops = append(h.ops, Op{Kind: OpSetText, Node: n.ID, Value: text})
	return nil
}

// HTML renders the live tree as an HTML-ish string for assertions.
func (h *Host) HTML() string {
	var sb strings.Builder
	for _, c := range h.root.Children {
		writeNode(&sb, c)
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, n *Node) {
	if n.IsText {
		sb.WriteString(n.Text)
		return
	}
	sb.WriteString("<")
	sb.WriteString(n.Tag)
	names := make([]string, 0, len(n.Props))
	for name := range n.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v, ok := scalarValue(n.Props[name]); ok {
			fmt.Fprintf(sb, " %s=%q", name, v)
		}
	}
	sb.WriteString(">")
	for _, c := range n.Children {
		writeNode(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteString(">")
}

func detach(c *Node) {
	if c.Parent == nil {
		return
	}
	idx := indexOf(c.Parent.Children, c)
	if idx >= 0 {
		c.Parent.Children = append(c.Parent.Children[:idx], c.Parent.Children[idx+1:]...)
	}
	c.Parent = nil
}

// kill marks a removed subtree dead so later use of any handle in it fails.
func kill(n *Node) {
	n.live = false
	for _, c := range n.Children {
		kill(c)
	}
}

func indexOf(children []*Node, n *Node) int {
	for i, c := range children {
		if c == n {
			return i
		}
	}
	return -1
}

// scalarValue formats prop values that have a stable textual form. Funcs and
// other reference values (boundary handlers, callbacks) have none.
func scalarValue(v any) (string, bool) {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprintf("%v", v), true
	default:
		return "", false
	}
}

// formatValue is scalarValue with a deterministic fallback for the op log.
func formatValue(v any) string {
	if s, ok := scalarValue(v); ok {
		return s
	}
	return fmt.Sprintf("<%T>", v)
}

func formatProps(props map[string]any) string {
	if len(props) == 0 {
		return "{}"
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, formatValue(props[name])))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
