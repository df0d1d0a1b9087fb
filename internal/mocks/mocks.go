// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/wxauto/internal/uia"
)

var runtimeIDs atomic.Int64

// -- In-memory control tree --

// Control is an in-memory uia.Control. Every interaction is appended to an
// event log so tests can assert on the exact UI conversation.
type Control struct {
	mu sync.Mutex

	name     string
	class    string
	autoID   string
	ctype    uia.ControlType
	id       string
	rect     uia.Rect
	parent   *Control
	children []*Control
	detached bool
	childErr error
	events   []string

	// Hooks run after the event has been recorded.
	OnClick      func(ctx context.Context) error
	OnRightClick func(ctx context.Context) error
	OnKeys       func(ctx context.Context, keys string) error
}

// NewControl builds a live node with a unique runtime id and a non-empty rectangle.
func NewControl(ctype uia.ControlType, name string) *Control {
	return &Control{
		name:  name,
		ctype: ctype,
		id:    fmt.Sprintf("rt-%d", runtimeIDs.Add(1)),
		rect:  uia.Rect{Left: 0, Top: 0, Right: 200, Bottom: 40},
	}
}

func (c *Control) WithClass(class string) *Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.class = class
	return c
}

func (c *Control) WithAutomationID(id string) *Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoID = id
	return c
}

// WithRuntimeID overrides the generated runtime id. An empty id simulates a
// binding that cannot identify nodes.
func (c *Control) WithRuntimeID(id string) *Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
	return c
}

func (c *Control) WithRect(r uia.Rect) *Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rect = r
	return c
}

// SetName changes the node text, as a re-render would.
func (c *Control) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Add appends children and returns the receiver for chaining.
func (c *Control) Add(children ...*Control) *Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range children {
		ch.mu.Lock()
		ch.parent = c
		ch.mu.Unlock()
		c.children = append(c.children, ch)
	}
	return c
}

// Detach marks the node destroyed. Children and actions fail with
// uia.ErrStaleControl and Exists reports false.
func (c *Control) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
}

// FailChildren makes Children return err until cleared with nil.
func (c *Control) FailChildren(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.childErr = err
}

// Events returns a copy of the recorded interactions.
func (c *Control) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Control) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Control) ClassName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.class
}

func (c *Control) AutomationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoID
}

func (c *Control) ControlType() uia.ControlType { return c.ctype }

func (c *Control) RuntimeID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Control) BoundingRectangle() uia.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return uia.Rect{}
	}
	return c.rect
}

func (c *Control) Children() ([]uia.Control, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return nil, uia.ErrStaleControl
	}
	if c.childErr != nil {
		return nil, c.childErr
	}
	out := make([]uia.Control, 0, len(c.children))
	for _, ch := range c.children {
		out = append(out, ch)
	}
	return out, nil
}

func (c *Control) Parent() (uia.Control, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.parent == nil {
		return nil, uia.ErrControlNotFound
	}
	return c.parent, nil
}

func (c *Control) Exists(time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.detached
}

func (c *Control) record(event string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return uia.ErrStaleControl
	}
	c.events = append(c.events, event)
	return nil
}

func (c *Control) Click(ctx context.Context) error {
	if err := c.record("click"); err != nil {
		return err
	}
	if c.OnClick != nil {
		return c.OnClick(ctx)
	}
	return nil
}

func (c *Control) RightClick(ctx context.Context) error {
	if err := c.record("right_click"); err != nil {
		return err
	}
	if c.OnRightClick != nil {
		return c.OnRightClick(ctx)
	}
	return nil
}

func (c *Control) DoubleClick(context.Context) error { return c.record("double_click") }
func (c *Control) MiddleClick(context.Context) error { return c.record("middle_click") }
func (c *Control) ScrollIntoView(context.Context) error {
	return c.record("scroll_into_view")
}

func (c *Control) ClickAt(ctx context.Context, x, y int, right bool) error {
	kind := "click_at"
	if right {
		kind = "right_click_at"
	}
	if err := c.record(fmt.Sprintf("%s:%d,%d", kind, x, y)); err != nil {
		return err
	}
	if right && c.OnRightClick != nil {
		return c.OnRightClick(ctx)
	}
	if !right && c.OnClick != nil {
		return c.OnClick(ctx)
	}
	return nil
}

func (c *Control) SendKeys(ctx context.Context, keys string) error {
	if err := c.record("keys:" + keys); err != nil {
		return err
	}
	if c.OnKeys != nil {
		return c.OnKeys(ctx, keys)
	}
	return nil
}

// -- Desktop fake --

// Desktop is an in-memory uia.Desktop. Windows can be shown and hidden from
// other goroutines while a resolver is polling.
type Desktop struct {
	mu        sync.Mutex
	windows   []desktopWindow
	clipboard []string
	listErr   error
	clipErr   error
	listCalls int
}

type desktopWindow struct {
	ctrl *Control
	pid  int
}

func NewDesktop() *Desktop { return &Desktop{} }

// Show registers a top-level window owned by pid.
func (d *Desktop) Show(pid int, win *Control) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows = append(d.windows, desktopWindow{ctrl: win, pid: pid})
}

// Hide removes a top-level window.
func (d *Desktop) Hide(win *Control) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.windows[:0]
	for _, w := range d.windows {
		if w.ctrl != win {
			kept = append(kept, w)
		}
	}
	d.windows = kept
}

// FailList makes TopLevelWindows return err until cleared with nil.
func (d *Desktop) FailList(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listErr = err
}

// FailClipboard makes SetClipboardText return err until cleared with nil.
func (d *Desktop) FailClipboard(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clipErr = err
}

// Clipboard returns every text placed on the clipboard, oldest first.
func (d *Desktop) Clipboard() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.clipboard))
	copy(out, d.clipboard)
	return out
}

// ListCalls reports how many times TopLevelWindows was invoked.
func (d *Desktop) ListCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listCalls
}

func (d *Desktop) TopLevelWindows(_ context.Context, className string, pid int) ([]uia.Control, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listCalls++
	if d.listErr != nil {
		return nil, d.listErr
	}
	var out []uia.Control
	for _, w := range d.windows {
		if w.pid != pid {
			continue
		}
		if className != "" && w.ctrl.ClassName() != className {
			continue
		}
		out = append(out, w.ctrl)
	}
	return out, nil
}

func (d *Desktop) SetClipboardText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.clipErr != nil {
		return d.clipErr
	}
	d.clipboard = append(d.clipboard, text)
	return nil
}

// -- Desktop Mock --

// MockDesktop mocks uia.Desktop with testify expectations.
type MockDesktop struct {
	mock.Mock
}

func (m *MockDesktop) TopLevelWindows(ctx context.Context, className string, pid int) ([]uia.Control, error) {
	args := m.Called(ctx, className, pid)
	var wins []uia.Control
	if v := args.Get(0); v != nil {
		wins = v.([]uia.Control)
	}
	return wins, args.Error(1)
}

func (m *MockDesktop) SetClipboardText(text string) error {
	args := m.Called(text)
	return args.Error(0)
}

var (
	_ uia.Control = (*Control)(nil)
	_ uia.Desktop = (*Desktop)(nil)
	_ uia.Desktop = (*MockDesktop)(nil)
)
