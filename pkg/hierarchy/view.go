package hierarchy

import (
	"errors"
	"fmt"
	"time"

	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/metrics"
)

// DefaultDuration is the length of a zoom transition.
const DefaultDuration = 750 * time.Millisecond

// DefaultTreemapDepth is the number of levels a treemap shows at once: the
// focus header and its children.
const DefaultTreemapDepth = 2

// Zoom errors.
var (
	ErrUnknownNode     = errors.New("unknown node")
	ErrLeaf            = errors.New("node has no children")
	ErrNotChildOfFocus = errors.New("node is not a child of the current focus")
	ErrNotVisible      = errors.New("node is not visible")
)

// Mode selects how depth maps onto the radial axis.
type Mode int

const (
	// Sunburst normalizes the whole tree depth into [0,1].
	Sunburst Mode = iota
	// Treemap shows a fixed number of levels below the focus.
	Treemap
)

func (m Mode) String() string {
	switch m {
	case Sunburst:
		return "sunburst"
	case Treemap:
		return "treemap"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Direction of a focus change.
type Direction int

const (
	ZoomInto Direction = iota
	ZoomOutOf
)

// ZoomEvent describes a focus change.
type ZoomEvent struct {
	From      NodeID
	To        NodeID
	Direction Direction
}

// NodeState is everything a renderer needs for one node.
type NodeState struct {
	ID           NodeID
	Current      Span
	Target       Span
	Opacity      float64
	LabelOpacity float64
	Pointer      bool
	Highlighted  bool
}

// Option configures a View.
type Option func(*View)

// WithMode selects sunburst or treemap depth mapping.
func WithMode(m Mode) Option {
	return func(v *View) { v.mode = m }
}

// WithMaxDepth bounds the number of visible levels. 0 keeps the mode default.
func WithMaxDepth(levels int) Option {
	return func(v *View) { v.maxDepth = levels }
}

// WithThresholds sets the minimum angular widths for arcs and labels.
func WithThresholds(arc, label float64) Option {
	return func(v *View) {
		v.arcMin = arc
		v.labelMin = label
	}
}

// WithDuration sets the transition length. A zero duration makes zooms
// instantaneous.
func WithDuration(d time.Duration) Option {
	return func(v *View) { v.duration = d }
}

// WithEasing sets the transition easing.
func WithEasing(fn EaseFunc) Option {
	return func(v *View) {
		if fn != nil {
			v.ease = fn
		}
	}
}

type zoomListener struct {
	id  uint64
	key string
	fn  func(ZoomEvent)
}

// View is the zoom state of one sunburst or treemap instance. It is not safe
// for concurrent use; the owner of the render loop serialises calls.
type View struct {
	tree     *Tree
	mode     Mode
	maxDepth int
	levels   int
	arcMin   float64
	labelMin float64
	duration time.Duration
	ease     EaseFunc

	layout  []Span
	current []Span
	target  []Span
	start   []Span
	focus   NodeID

	animating bool
	elapsed   time.Duration

	highlight   string
	listeners   []zoomListener
	listenerSeq uint64
}

// NewView lays the tree out and focuses the root.
func NewView(t *Tree, opts ...Option) *View {
	v := &View{
		tree:     t,
		mode:     Sunburst,
		arcMin:   DefaultArcMinAngle,
		labelMin: DefaultLabelMinAngle,
		duration: DefaultDuration,
		ease:     EaseCubicInOut,
	}
	for _, opt := range opts {
		opt(v)
	}

	switch {
	case v.maxDepth > 0:
		v.levels = v.maxDepth
	case v.mode == Treemap:
		v.levels = DefaultTreemapDepth
	default:
		v.levels = t.Height() + 1
	}

	v.layout = Partition(t, v.levels)
	v.current = append([]Span(nil), v.layout...)
	v.target = append([]Span(nil), v.layout...)
	v.start = make([]Span, len(v.layout))
	v.focus = t.Root()
	return v
}

// Tree returns the underlying tree.
func (v *View) Tree() *Tree { return v.tree }

// Mode returns the depth mapping mode.
func (v *View) Mode() Mode { return v.mode }

// Levels returns the number of depth levels that fit in the radial window.
func (v *View) Levels() int { return v.levels }

// Focus returns the current zoom focus.
func (v *View) Focus() NodeID { return v.focus }

// AtRoot reports whether the focus is the true root.
func (v *View) AtRoot() bool { return v.focus == v.tree.Root() }

// Animating reports whether a transition is in flight.
func (v *View) Animating() bool { return v.animating }

// Layout returns the partition span of id.
func (v *View) Layout(id NodeID) Span { return v.layout[id] }

// Current returns the on-screen span of id.
func (v *View) Current(id NodeID) Span { return v.current[id] }

// Target returns the span id is heading to.
func (v *View) Target(id NodeID) Span { return v.target[id] }

// ArcVisible reports whether a span passes the arc threshold.
func (v *View) ArcVisible(s Span) bool { return Visible(s, v.arcMin) }

// LabelVisible reports whether a span passes the label threshold.
func (v *View) LabelVisible(s Span) bool { return Visible(s, v.labelMin) }

// ZoomIn focuses a child of the current focus. The child must have children
// of its own and be visible.
func (v *View) ZoomIn(id NodeID) error {
	if !v.tree.Valid(id) {
		return fmt.Errorf("zoom in to %d: %w", id, ErrUnknownNode)
	}
	n := v.tree.Node(id)
	if n.Leaf() {
		return fmt.Errorf("zoom in to %s: %w", n.Name, ErrLeaf)
	}
	if n.Parent != v.focus {
		return fmt.Errorf("zoom in to %s: %w", n.Name, ErrNotChildOfFocus)
	}
	if !v.ArcVisible(v.target[id]) {
		return fmt.Errorf("zoom in to %s: %w", n.Name, ErrNotVisible)
	}
	v.setFocus(id, ZoomInto)
	return nil
}

// ZoomOut moves the focus from id, which must be the current focus, to its
// parent. It returns false and changes nothing when the focus already is the
// root or id is not the focus.
func (v *View) ZoomOut(id NodeID) bool {
	if v.AtRoot() || id != v.focus {
		return false
	}
	next := v.tree.Parent(id)
	if next == NoParent {
		next = v.tree.Root()
	}
	v.setFocus(next, ZoomOutOf)
	return true
}

// Back zooms out of the current focus, like clicking the centre circle.
func (v *View) Back() bool {
	return v.ZoomOut(v.focus)
}

// FocusPath zooms step by step along a path of names, stopping at the first
// step that cannot be taken. Transitions are completed immediately.
func (v *View) FocusPath(path string) error {
	id, ok := v.tree.Find(path)
	if !ok {
		return fmt.Errorf("focus %q: %w", path, ErrUnknownNode)
	}
	for v.Back() {
	}
	v.Finish()
	for _, step := range v.tree.Ancestry(id)[1:] {
		if err := v.ZoomIn(step); err != nil {
			return err
		}
		v.Finish()
	}
	return nil
}

func (v *View) setFocus(id NodeID, dir Direction) {
	from := v.focus
	v.focus = id
	fs := v.layout[id]
	for i := range v.layout {
		v.target[i] = v.layout[i].Relative(fs)
	}

	// Every node restarts from where it currently is, visible or not, so an
	// interrupted transition never snaps back to a stale span.
	copy(v.start, v.current)
	v.elapsed = 0
	v.animating = true
	if v.duration <= 0 {
		v.Finish()
	}

	debug.Log("hierarchy: %s focus %s -> %s", v.mode, v.tree.Path(from), v.tree.Path(id))
	ev := ZoomEvent{From: from, To: id, Direction: dir}
	for _, l := range append([]zoomListener(nil), v.listeners...) {
		l.fn(ev)
	}
}

// Tick advances the transition by dt and reports whether it is still in
// flight. Every node's current span is updated, including invisible ones.
func (v *View) Tick(dt time.Duration) bool {
	if !v.animating {
		return false
	}
	defer metrics.Timer(metrics.TransitionFrame)()

	v.elapsed += dt
	if v.elapsed >= v.duration {
		v.Finish()
		return false
	}
	e := v.ease(float64(v.elapsed) / float64(v.duration))
	for i := range v.current {
		v.current[i] = v.start[i].Lerp(v.target[i], e)
	}
	return true
}

// Finish completes any transition immediately.
func (v *View) Finish() {
	copy(v.current, v.target)
	v.animating = false
	v.elapsed = v.duration
}

// Progress returns the eased progress of the running transition, 1 when idle.
func (v *View) Progress() float64 {
	if !v.animating || v.duration <= 0 {
		return 1
	}
	return v.ease(float64(v.elapsed) / float64(v.duration))
}

// NodeState returns the render state of id. Opacity and pointer events follow
// the target span so nodes fade towards where they are going.
func (v *View) NodeState(id NodeID) NodeState {
	t := v.target[id]
	st := NodeState{
		ID:          id,
		Current:     v.current[id],
		Target:      t,
		Highlighted: v.Highlighted(id),
	}
	if v.ArcVisible(t) {
		st.Pointer = true
		st.Opacity = 0.4
		if !v.tree.Node(id).Leaf() {
			st.Opacity = 0.6
		}
	}
	if v.LabelVisible(t) {
		st.LabelOpacity = 1
	}
	return st
}

// Visible returns the nodes to draw around the focus, in pre-order. The
// focus itself is excluded; renderers draw it as the centre or header.
func (v *View) Visible() []NodeID {
	var out []NodeID
	for i := range v.target {
		id := NodeID(i)
		if id == v.focus {
			continue
		}
		if v.ArcVisible(v.target[i]) || (v.animating && v.ArcVisible(v.current[i])) {
			out = append(out, id)
		}
	}
	return out
}

// Zoomable reports whether id is a valid ZoomIn target right now.
func (v *View) Zoomable(id NodeID) bool {
	if !v.tree.Valid(id) {
		return false
	}
	n := v.tree.Node(id)
	return !n.Leaf() && n.Parent == v.focus && v.ArcVisible(v.target[id])
}

// Highlight marks nodes named exactly name. An empty name clears the mark.
func (v *View) Highlight(name string) {
	v.highlight = name
}

// HighlightedName returns the current highlight.
func (v *View) HighlightedName() string {
	return v.highlight
}

// Highlighted reports whether id matches the highlighted name.
func (v *View) Highlighted(id NodeID) bool {
	return v.highlight != "" && v.tree.Node(id).Name == v.highlight
}

// OnZoom registers fn under key, invoked synchronously in registration order
// after every focus change. Registering an existing key replaces its
// callback in place. The returned function unregisters this registration
// only; it does nothing once the key has been registered again.
func (v *View) OnZoom(key string, fn func(ZoomEvent)) func() {
	v.listenerSeq++
	id := v.listenerSeq
	replaced := false
	for i := range v.listeners {
		if v.listeners[i].key == key {
			v.listeners[i].fn = fn
			v.listeners[i].id = id
			replaced = true
			break
		}
	}
	if !replaced {
		v.listeners = append(v.listeners, zoomListener{id: id, key: key, fn: fn})
	}
	return func() {
		for i := range v.listeners {
			if v.listeners[i].id == id {
				v.listeners = append(v.listeners[:i:i], v.listeners[i+1:]...)
				return
			}
		}
	}
}
