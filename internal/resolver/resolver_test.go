package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/wxauto/internal/mocks"
	"github.com/xkilldash9x/wxauto/internal/observability"
	"github.com/xkilldash9x/wxauto/internal/uia"
	"go.uber.org/zap/zaptest"
)

const (
	toolClass = "Qt51514QWindowToolSaveBits"
	pid       = 4242
)

func newResolver(t *testing.T, desktop uia.Desktop, interval time.Duration) (*Resolver, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics(prometheus.NewRegistry(), "test")
	return New(desktop, interval, zaptest.NewLogger(t), metrics), metrics
}

func menuWindow(captions ...string) *mocks.Control {
	win := mocks.NewControl(uia.TypeWindow, "").WithClass(toolClass)
	for _, c := range captions {
		win.Add(mocks.NewControl(uia.TypeButton, c))
	}
	return win
}

func TestNew_DefaultInterval(t *testing.T) {
	r := New(mocks.NewDesktop(), 0, nil, nil)
	assert.Equal(t, DefaultInterval, r.Interval())
}

func TestWaitWindow_FindsLateWindow(t *testing.T) {
	desktop := mocks.NewDesktop()
	r, metrics := newResolver(t, desktop, 10*time.Millisecond)

	win := menuWindow("赞", "评论")
	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(40 * time.Millisecond)
		desktop.Show(pid, win)
	}()

	got, ok := r.WaitWindow(context.Background(), WindowQuery{
		ClassName: toolClass,
		PID:       pid,
		Child:     ByNameIn("赞", "取消", "评论"),
	}, time.Second)
	<-done

	require.True(t, ok)
	assert.Same(t, win, got)
	assert.Greater(t, desktop.ListCalls(), 1, "the window appeared after several polls")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResolverPolls.WithLabelValues("poll", "found")))
}

func TestWaitWindow_TimeoutBound(t *testing.T) {
	desktop := mocks.NewDesktop()
	desktop.Show(pid, menuWindow("发送"))
	interval := 20 * time.Millisecond
	timeout := 100 * time.Millisecond
	r, metrics := newResolver(t, desktop, interval)

	start := time.Now()
	_, ok := r.WaitWindow(context.Background(), WindowQuery{
		ClassName: toolClass,
		PID:       pid,
		Child:     ByName("never"),
	}, timeout)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, timeout)
	// Allow scheduler slack on top of the documented bound.
	assert.Less(t, elapsed, timeout+interval+150*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResolverPolls.WithLabelValues("poll", "not_found")))
}

func TestWaitWindow_ZeroTimeoutMakesOneAttempt(t *testing.T) {
	desktop := mocks.NewDesktop()
	r, _ := newResolver(t, desktop, 10*time.Millisecond)

	_, ok := r.WaitWindow(context.Background(), WindowQuery{ClassName: toolClass, PID: pid}, 0)
	assert.False(t, ok)
	assert.Equal(t, 1, desktop.ListCalls())

	win := menuWindow()
	desktop.Show(pid, win)
	got, ok := r.WaitWindow(context.Background(), WindowQuery{ClassName: toolClass, PID: pid}, 0)
	require.True(t, ok)
	assert.Same(t, win, got)
}

func TestWaitWindow_SwallowsBindingErrors(t *testing.T) {
	win := menuWindow("赞")
	desktop := &mocks.MockDesktop{}
	desktop.On("TopLevelWindows", mock.Anything, toolClass, pid).
		Return(nil, errors.New("COM call failed")).Twice()
	desktop.On("TopLevelWindows", mock.Anything, toolClass, pid).
		Return([]uia.Control{win}, nil)

	r, _ := newResolver(t, desktop, 5*time.Millisecond)
	got, ok := r.WaitWindow(context.Background(), WindowQuery{ClassName: toolClass, PID: pid, Child: ByName("赞")}, time.Second)

	require.True(t, ok)
	assert.Same(t, win, got)
	desktop.AssertNumberOfCalls(t, "TopLevelWindows", 3)
}

func TestWaitWindow_SkipsUnreadableWindows(t *testing.T) {
	desktop := mocks.NewDesktop()
	broken := menuWindow("赞")
	broken.FailChildren(uia.ErrStaleControl)
	other := menuWindow("评论")
	wrongPID := menuWindow("评论")
	desktop.Show(pid, broken)
	desktop.Show(pid+1, wrongPID)
	desktop.Show(pid, other)

	r, _ := newResolver(t, desktop, 5*time.Millisecond)
	got, ok := r.WaitWindow(context.Background(), WindowQuery{ClassName: toolClass, PID: pid, Child: ByNameIn("赞", "评论")}, 50*time.Millisecond)

	require.True(t, ok)
	assert.Same(t, other, got)
}

func TestWaitWindow_WindowPredicate(t *testing.T) {
	desktop := mocks.NewDesktop()
	a := menuWindow().WithAutomationID("popup")
	b := menuWindow().WithAutomationID("dialog")
	desktop.Show(pid, a)
	desktop.Show(pid, b)

	r, _ := newResolver(t, desktop, 5*time.Millisecond)
	got, ok := r.FindWindow(context.Background(), WindowQuery{ClassName: toolClass, PID: pid, Window: AutomationIDContains("DIALOG")})
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestWaitWindow_HonorsContext(t *testing.T) {
	desktop := mocks.NewDesktop()
	r, _ := newResolver(t, desktop, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := r.WaitWindow(ctx, WindowQuery{ClassName: toolClass, PID: pid}, 10*time.Second)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPoll_Generic(t *testing.T) {
	r, _ := newResolver(t, mocks.NewDesktop(), time.Millisecond)

	attempts := 0
	got, ok := Poll(context.Background(), r, time.Second, func(context.Context) (string, bool) {
		attempts++
		return "张三", attempts == 3
	})
	require.True(t, ok)
	assert.Equal(t, "张三", got)
	assert.Equal(t, 3, attempts)
}

// momentTree builds
//
//	root
//	├── pane
//	│   └── deep (List, class contains Moment)
//	└── shallow (List, class contains Moment)
func momentTree() (root, deep, shallow *mocks.Control) {
	root = mocks.NewControl(uia.TypeWindow, "微信")
	pane := mocks.NewControl(uia.TypePane, "")
	deep = mocks.NewControl(uia.TypeList, "").WithClass("mmui::MomentListView")
	shallow = mocks.NewControl(uia.TypeList, "").WithClass("mmui::MomentTimeline")
	pane.Add(deep)
	root.Add(pane, shallow)
	return root, deep, shallow
}

func TestBFS_ShallowFirst(t *testing.T) {
	r, metrics := newResolver(t, mocks.NewDesktop(), 0)
	root, _, shallow := momentTree()

	got, ok := r.BFS(root, And(ByType(uia.TypeList), ClassContains("Moment")))
	require.True(t, ok)
	assert.Same(t, shallow, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResolverPolls.WithLabelValues("bfs", "found")))
}

func TestBFS_RootIsNotTested(t *testing.T) {
	r, _ := newResolver(t, mocks.NewDesktop(), 0)
	root := mocks.NewControl(uia.TypeList, "").WithClass("Moment")

	_, ok := r.BFS(root, ClassContains("Moment"))
	assert.False(t, ok)
}

func TestBFS_VisitsEachNodeOnce(t *testing.T) {
	r, _ := newResolver(t, mocks.NewDesktop(), 0)

	root := mocks.NewControl(uia.TypeWindow, "root")
	a := mocks.NewControl(uia.TypePane, "a")
	b := mocks.NewControl(uia.TypePane, "b")
	shared := mocks.NewControl(uia.TypeGroup, "shared")
	root.Add(a, b)
	a.Add(shared)
	b.Add(shared)
	shared.Add(a) // the binding can report cycles after a re-render

	visits := map[string]int{}
	_, ok := r.BFS(root, func(c uia.Control) bool {
		visits[c.Name()]++
		return false
	})

	assert.False(t, ok, "exhausting the queue terminates the search")
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "shared": 1}, visits)
}

func TestBFS_NodesWithoutRuntimeID(t *testing.T) {
	r, _ := newResolver(t, mocks.NewDesktop(), 0)
	root := mocks.NewControl(uia.TypeWindow, "root")
	x := mocks.NewControl(uia.TypeText, "x").WithRuntimeID("")
	y := mocks.NewControl(uia.TypeText, "y").WithRuntimeID("")
	root.Add(x, y)

	got, ok := r.BFS(root, ByName("y"))
	require.True(t, ok)
	assert.Same(t, y, got)
}

func TestBFS_SkipsFailingSubtrees(t *testing.T) {
	r, metrics := newResolver(t, mocks.NewDesktop(), 0)

	root := mocks.NewControl(uia.TypeWindow, "root")
	flaky := mocks.NewControl(uia.TypePane, "flaky")
	flaky.Add(mocks.NewControl(uia.TypeList, "hidden"))
	flaky.FailChildren(errors.New("element not available"))
	stable := mocks.NewControl(uia.TypePane, "stable")
	target := mocks.NewControl(uia.TypeList, "target")
	stable.Add(target)
	root.Add(flaky, stable)

	got, ok := r.BFS(root, ByType(uia.TypeList))
	require.True(t, ok)
	assert.Same(t, target, got)

	root.FailChildren(uia.ErrStaleControl)
	_, ok = r.BFS(root, ByType(uia.TypeList))
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResolverPolls.WithLabelValues("bfs", "not_found")))

	_, ok = r.BFS(nil, Any())
	assert.False(t, ok)
}

func TestFindChild(t *testing.T) {
	r, _ := newResolver(t, mocks.NewDesktop(), 0)
	win := mocks.NewControl(uia.TypeWindow, "")
	edit := mocks.NewControl(uia.TypeEdit, "")
	send := mocks.NewControl(uia.TypeButton, "发送")
	win.Add(mocks.NewControl(uia.TypeText, "标题"), edit, send)

	got, ok := r.FindChild(win, ByType(uia.TypeEdit))
	require.True(t, ok)
	assert.Same(t, edit, got)

	buttons := r.FindChildren(win, ByType(uia.TypeButton, uia.TypeEdit))
	assert.Len(t, buttons, 2)

	win.Detach()
	_, ok = r.FindChild(win, Any())
	assert.False(t, ok)
	assert.Nil(t, r.Children(nil))
}

func TestPredicates(t *testing.T) {
	item := mocks.NewControl(uia.TypeListItem, "张三\n你好").WithClass("mmui::ChatSessionCell").WithAutomationID("Session_Item")
	item.Add(mocks.NewControl(uia.TypeText, "评论"))

	assert.True(t, And(ByType(uia.TypeListItem), HasName())(item))
	assert.True(t, And()(item))
	assert.False(t, Or()(item))
	assert.True(t, Or(ByClass("nope"), ClassContains("Session"))(item))
	assert.True(t, Not(ByType(uia.TypeButton))(item))
	assert.True(t, AutomationIDContains("session_item")(item))
	assert.True(t, HasChildNamed("赞", "评论")(item))
	assert.False(t, HasChildNamed("赞")(item))
	assert.False(t, HasName()(mocks.NewControl(uia.TypeText, "  ")))

	item.FailChildren(uia.ErrStaleControl)
	assert.False(t, HasChildNamed("评论")(item), "unreadable children never match")
}
