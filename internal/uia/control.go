// internal/uia/control.go
package uia

import (
	"context"
	"errors"
	"time"
)

// ErrControlNotFound is returned by the binding when a lookup yields nothing.
var ErrControlNotFound = errors.New("target UI control not found")

// ErrStaleControl indicates the handle no longer refers to a live node, usually
// because the application re-rendered or virtualized the list it belonged to.
var ErrStaleControl = errors.New("control is stale or detached from the UI tree")

// ControlType is the accessibility role of a node.
type ControlType string

const (
	TypeWindow   ControlType = "WindowControl"
	TypePane     ControlType = "PaneControl"
	TypeGroup    ControlType = "GroupControl"
	TypeList     ControlType = "ListControl"
	TypeListItem ControlType = "ListItemControl"
	TypeCustom   ControlType = "CustomControl"
	TypeButton   ControlType = "ButtonControl"
	TypeText     ControlType = "TextControl"
	TypeEdit     ControlType = "EditControl"
	TypeMenu     ControlType = "MenuControl"
	TypeMenuItem ControlType = "MenuItemControl"
)

// Key chords understood by SendKeys.
const (
	KeyEscape    = "{Esc}"
	KeyEnter     = "{Enter}"
	KeyHome      = "{Home}"
	KeyEnd       = "{End}"
	KeySelectAll = "{Ctrl}a"
	KeyPaste     = "{Ctrl}v"
)

// Rect is a bounding rectangle in screen coordinates.
type Rect struct {
	Left, Top, Right, Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no rendered extent.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Control is a borrowed handle to a live node of the automated application's
// accessibility tree. A handle is only known to be valid at the instant it was
// queried; callers re-check Exists before acting on it.
type Control interface {
	Name() string
	ClassName() string
	AutomationID() string
	ControlType() ControlType
	// RuntimeID identifies the node for as long as it lives. It may be empty
	// when the binding cannot provide one.
	RuntimeID() string
	BoundingRectangle() Rect

	Children() ([]Control, error)
	Parent() (Control, error)
	// Exists waits up to wait for the node to be present.
	Exists(wait time.Duration) bool

	Click(ctx context.Context) error
	RightClick(ctx context.Context) error
	DoubleClick(ctx context.Context) error
	MiddleClick(ctx context.Context) error
	// ClickAt clicks at an offset relative to the node's top-left corner.
	ClickAt(ctx context.Context, x, y int, right bool) error
	SendKeys(ctx context.Context, keys string) error
	ScrollIntoView(ctx context.Context) error
}

// Desktop is the process-wide part of the binding.
type Desktop interface {
	// TopLevelWindows lists the top-level windows with the given class name that
	// belong to the process pid. An empty className matches every class.
	TopLevelWindows(ctx context.Context, className string, pid int) ([]Control, error)
	SetClipboardText(text string) error
}
