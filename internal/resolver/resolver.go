// internal/resolver/resolver.go
package resolver

import (
	"context"
	"time"

	"github.com/xkilldash9x/wxauto/internal/observability"
	"github.com/xkilldash9x/wxauto/internal/uia"
	"go.uber.org/zap"
)

// DefaultInterval is used when the resolver is built with a non-positive
// poll interval.
const DefaultInterval = 50 * time.Millisecond

// Resolver finds controls in the accessibility tree. Transient controls such
// as menus and dialogs are found by polling the top-level windows; containers
// are found by a breadth-first walk of a subtree.
//
// Binding failures never escape the resolver: they are logged at debug level
// and treated as "no match" for the attempt or node that produced them.
type Resolver struct {
	desktop  uia.Desktop
	interval time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

func New(desktop uia.Desktop, interval time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Resolver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		desktop:  desktop,
		interval: interval,
		logger:   logger.Named("resolver"),
		metrics:  metrics,
	}
}

// Interval returns the poll interval.
func (r *Resolver) Interval() time.Duration { return r.interval }

// WindowQuery selects top-level windows by class and owning process, then
// optionally by the window itself and by its direct children.
type WindowQuery struct {
	// ClassName is matched exactly; empty matches any class.
	ClassName string
	PID       int
	// Window, when set, must accept the window.
	Window Predicate
	// Child, when set, must accept at least one direct child.
	Child Predicate
}

// WaitWindow polls for a window matching q until one appears, timeout
// elapses or ctx is done. At least one attempt is always made.
func (r *Resolver) WaitWindow(ctx context.Context, q WindowQuery, timeout time.Duration) (uia.Control, bool) {
	return Poll(ctx, r, timeout, func(ctx context.Context) (uia.Control, bool) {
		return r.findWindow(ctx, q)
	})
}

// FindWindow makes a single attempt at q.
func (r *Resolver) FindWindow(ctx context.Context, q WindowQuery) (uia.Control, bool) {
	win, ok := r.findWindow(ctx, q)
	r.metrics.RecordSearch("window", ok)
	return win, ok
}

func (r *Resolver) findWindow(ctx context.Context, q WindowQuery) (uia.Control, bool) {
	wins, err := r.desktop.TopLevelWindows(ctx, q.ClassName, q.PID)
	if err != nil {
		r.logger.Debug("Window enumeration failed, treating as no match.",
			zap.String("class", q.ClassName), zap.Int("pid", q.PID), zap.Error(err))
		return nil, false
	}
	for _, win := range wins {
		if q.Window != nil && !q.Window(win) {
			continue
		}
		if q.Child == nil {
			return win, true
		}
		if _, ok := r.FindChild(win, q.Child); ok {
			return win, true
		}
	}
	return nil, false
}

// Poll calls attempt until it reports a match, timeout elapses or ctx is
// done. The first attempt is made immediately and the last wait is cut short
// at the deadline, so Poll returns within timeout plus one interval.
func Poll[T any](ctx context.Context, r *Resolver, timeout time.Duration, attempt func(ctx context.Context) (T, bool)) (T, bool) {
	deadline := time.Now().Add(timeout)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	var zero T
	for polls := 1; ; polls++ {
		if v, ok := attempt(ctx); ok {
			r.metrics.RecordSearch("poll", true)
			return v, true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 || ctx.Err() != nil {
			r.logger.Debug("Polling gave up.", zap.Int("polls", polls), zap.Duration("timeout", timeout), zap.Error(ctx.Err()))
			r.metrics.RecordSearch("poll", false)
			return zero, false
		}
		wait := min(r.interval, remaining)
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		select {
		case <-timer.C:
		case <-ctx.Done():
			r.logger.Debug("Polling cancelled.", zap.Int("polls", polls), zap.Error(ctx.Err()))
			r.metrics.RecordSearch("poll", false)
			return zero, false
		}
	}
}

// BFS walks the descendants of root breadth first, visiting each node once,
// and returns the first node accepted by pred. Root itself is not tested.
// Shallow nodes are therefore preferred over deep ones.
func (r *Resolver) BFS(root uia.Control, pred Predicate) (uia.Control, bool) {
	found, ok := r.bfs(root, pred)
	r.metrics.RecordSearch("bfs", ok)
	return found, ok
}

func (r *Resolver) bfs(root uia.Control, pred Predicate) (uia.Control, bool) {
	if root == nil {
		return nil, false
	}
	queue, err := root.Children()
	if err != nil {
		r.logger.Debug("Could not read children of search root.", zap.String("root", uia.Describe(root)), zap.Error(err))
		return nil, false
	}
	visited := make(map[any]struct{})
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		key := uia.Identity(node)
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}

		if pred(node) {
			return node, true
		}
		children, err := node.Children()
		if err != nil {
			r.logger.Debug("Skipping subtree with unreadable children.", zap.String("node", uia.Describe(node)), zap.Error(err))
			continue
		}
		queue = append(queue, children...)
	}
	return nil, false
}

// FindChild returns the first direct child of parent accepted by pred.
func (r *Resolver) FindChild(parent uia.Control, pred Predicate) (uia.Control, bool) {
	children := r.Children(parent)
	for _, ch := range children {
		if pred(ch) {
			return ch, true
		}
	}
	return nil, false
}

// FindChildren returns every direct child of parent accepted by pred.
func (r *Resolver) FindChildren(parent uia.Control, pred Predicate) []uia.Control {
	var out []uia.Control
	for _, ch := range r.Children(parent) {
		if pred(ch) {
			out = append(out, ch)
		}
	}
	return out
}

// Children lists the direct children of parent, or nothing when the binding
// fails to enumerate them.
func (r *Resolver) Children(parent uia.Control) []uia.Control {
	if parent == nil {
		return nil
	}
	children, err := parent.Children()
	if err != nil {
		r.logger.Debug("Could not read children.", zap.String("parent", uia.Describe(parent)), zap.Error(err))
		return nil
	}
	return children
}
