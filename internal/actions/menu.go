package actions

import (
	"context"
	"time"

	"github.com/xkilldash9x/wxauto/api/schemas"
	"github.com/xkilldash9x/wxauto/internal/entity"
	"github.com/xkilldash9x/wxauto/internal/lang"
	"github.com/xkilldash9x/wxauto/internal/resolver"
	"github.com/xkilldash9x/wxauto/internal/uia"
	"go.uber.org/zap"
)

// ActionMenu is the like/comment popup of a feed post.
type ActionMenu struct {
	c   *Client
	win uia.Control
	log *zap.Logger
}

// openActionMenu clicks the post's action button, or right-clicks the post
// when it has none, and waits for the popup. Callers hold the actor lock.
func (c *Client) openActionMenu(ctx context.Context, post *entity.FeedPost, log *zap.Logger) (*ActionMenu, bool) {
	item := post.Control()
	if button, ok := c.resolver.FindChild(item, resolver.ByType(uia.TypeButton)); ok {
		if err := button.Click(ctx); err != nil {
			log.Debug("Clicking the post action button failed.", zap.Error(err))
		}
	} else if err := item.RightClick(ctx); err != nil {
		log.Debug("Right-clicking the post failed.", zap.Error(err))
		return nil, false
	}

	win, ok := c.waitMenuWindow(ctx, c.cfg.ActionWindowClass, c.cfg.MenuTimeout,
		c.Text(lang.Like), c.Text(lang.Cancel), c.Text(lang.Comment))
	if !ok {
		return nil, false
	}
	return &ActionMenu{c: c, win: win, log: log}, true
}

// Exists reports whether the popup is still shown.
func (m *ActionMenu) Exists() bool { return m.win.Exists(0) }

func (m *ActionMenu) button(captions ...string) (uia.Control, bool) {
	return m.c.resolver.FindChild(m.win, resolver.And(
		resolver.ByType(uia.TypeButton),
		resolver.ByNameIn(captions...),
	))
}

// Like clicks the like caption, or the cancel caption when cancel is set.
// A post already in the requested state is left untouched.
func (m *ActionMenu) Like(ctx context.Context, cancel bool) schemas.Response {
	want, other := m.c.Text(lang.Like), m.c.Text(lang.Cancel)
	if cancel {
		want, other = other, want
	}
	button, ok := m.button(want)
	if !ok {
		if _, already := m.button(other); already {
			if cancel {
				return schemas.Success("post is not liked", nil)
			}
			return schemas.Success("post is already liked", nil)
		}
		return schemas.Failure("like button not found")
	}
	if err := button.Click(ctx); err != nil {
		m.log.Debug("Clicking the like button failed.", zap.Error(err))
		return schemas.Failure("like button could not be clicked")
	}
	if cancel {
		return schemas.Success("like cancelled", nil)
	}
	return schemas.Success("post liked", nil)
}

// Comment opens the comment editor.
func (m *ActionMenu) Comment(ctx context.Context) schemas.Response {
	button, ok := m.button(m.c.Text(lang.Comment))
	if !ok {
		return schemas.Failure("comment button not found")
	}
	if err := button.Click(ctx); err != nil {
		m.log.Debug("Clicking the comment button failed.", zap.Error(err))
		return schemas.Failure("comment button could not be clicked")
	}
	return schemas.Success("comment editor requested", nil)
}

// Close dismisses the popup with Escape. A popup that already closed is fine.
func (m *ActionMenu) Close(ctx context.Context) {
	if !m.win.Exists(0) {
		return
	}
	if err := m.win.SendKeys(ctx, uia.KeyEscape); err != nil {
		m.log.Debug("Closing the action menu failed.", zap.Error(err))
	}
}

// Menu is a context menu shown after a right-click.
type Menu struct {
	c   *Client
	win uia.Control
	log *zap.Logger
}

// waitMenu polls for a context menu window containing any of options at any
// depth. Callers hold the actor lock.
func (c *Client) waitMenu(ctx context.Context, timeout time.Duration, log *zap.Logger, options ...string) (*Menu, bool) {
	hasOption := resolver.ByNameIn(options...)
	win, ok := c.resolver.WaitWindow(ctx, resolver.WindowQuery{
		ClassName: c.cfg.MenuWindowClass,
		PID:       c.pid,
		Window: func(win uia.Control) bool {
			_, found := c.resolver.BFS(win, hasOption)
			return found
		},
	}, timeout)
	if !ok {
		return nil, false
	}
	return &Menu{c: c, win: win, log: log}, true
}

// Select clicks the entry captioned option. The menu is dismissed when the
// entry is missing.
func (m *Menu) Select(ctx context.Context, option string) schemas.Response {
	item, ok := m.c.resolver.BFS(m.win, resolver.ByName(option))
	if !ok {
		m.Close(ctx)
		return schemas.Failuref("menu option %q not found", option)
	}
	if err := item.Click(ctx); err != nil {
		m.log.Debug("Clicking the menu option failed.", zap.String("option", option), zap.Error(err))
		return schemas.Failuref("menu option %q could not be clicked", option)
	}
	return schemas.Success("selected "+option, nil)
}

func (m *Menu) Close(ctx context.Context) {
	if !m.win.Exists(0) {
		return
	}
	if err := m.win.SendKeys(ctx, uia.KeyEscape); err != nil {
		m.log.Debug("Closing the menu failed.", zap.Error(err))
	}
}

// selectFromMenu waits for a context menu offering option and selects it.
func (c *Client) selectFromMenu(ctx context.Context, option string, log *zap.Logger) schemas.Response {
	menu, ok := c.waitMenu(ctx, c.cfg.MenuTimeout, log, option)
	if !ok {
		return schemas.Failuref("no menu offering %q appeared", option)
	}
	return menu.Select(ctx, option)
}
